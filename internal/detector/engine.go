package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/ratings"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/staking"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/writer"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// Engine orchestrates the weekly batch: a parallel read phase that
// detects edges against one immutable rating snapshot, and a serialized
// write phase that applies game results to the store. The two phases
// never overlap for the same week.
type Engine struct {
	store      contracts.RatingStore
	detector   *EdgeDetector
	sizer      *staking.StakeSizer
	updater    *ratings.UpdateEngine
	edgeWriter *writer.EdgeWriter
	publisher  *publisher.StreamPublisher
	config     contracts.EngineConfig
	log        zerolog.Logger

	// Metrics
	detectedCount  int64
	skippedCount   int64
	errorCount     int64
	totalLatencyMs int64
	mu             sync.Mutex
}

// NewEngine creates a batch engine. edgeWriter and publisher may be nil
// for in-process use; detection then returns results without persisting.
func NewEngine(
	store contracts.RatingStore,
	det *EdgeDetector,
	sizer *staking.StakeSizer,
	updater *ratings.UpdateEngine,
	edgeWriter *writer.EdgeWriter,
	pub *publisher.StreamPublisher,
	config contracts.EngineConfig,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		store:      store,
		detector:   det,
		sizer:      sizer,
		updater:    updater,
		edgeWriter: edgeWriter,
		publisher:  pub,
		config:     config,
		log:        log.With().Str("component", "engine").Logger(),
	}
}

// BatchResult is the output of one read phase.
type BatchResult struct {
	Edges   []models.Edge
	Stakes  []models.StakeRecommendation
	Skipped []error
}

// DetectBatch runs edge detection over a week's matchups. Each matchup is
// independent: detection fans out across workers reading the same rating
// snapshot, and a failure (missing rating, no quotes) skips that matchup
// only. Output order matches input order.
func (e *Engine) DetectBatch(ctx context.Context, inputs []DetectInput, bankroll float64) (BatchResult, error) {
	start := time.Now()

	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("rating snapshot: %w", err)
	}

	type slot struct {
		edge models.Edge
		err  error
	}
	slots := make([]slot, len(inputs))

	workers := e.config.GetWorkerCount()
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				edge, err := e.detector.Detect(snapshot, inputs[i], time.Now())
				slots[i] = slot{edge: edge, err: err}
			}
		}()
	}

	for i := range inputs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return BatchResult{}, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	result := BatchResult{}
	for i, s := range slots {
		if s.err != nil {
			var missing *models.MissingRatingError
			if errors.As(s.err, &missing) {
				e.log.Warn().Str("matchup_id", inputs[i].Matchup.ID).Str("team_id", missing.TeamID).
					Msg("matchup skipped: no rating")
			} else {
				e.log.Warn().Err(s.err).Str("matchup_id", inputs[i].Matchup.ID).Msg("matchup skipped")
			}
			result.Skipped = append(result.Skipped, s.err)
			e.incrementSkipped()
			continue
		}

		result.Edges = append(result.Edges, s.edge)
		e.incrementDetected()

		if s.edge.Tier == models.TierNone {
			continue
		}

		stake, err := e.sizer.Size(s.edge, bankroll)
		if err != nil {
			e.log.Error().Err(err).Str("edge_id", s.edge.ID).Msg("stake sizing failed")
			e.incrementErrors()
			continue
		}
		result.Stakes = append(result.Stakes, stake)
	}

	if err := e.persist(ctx, result); err != nil {
		return result, err
	}

	e.recordLatency(time.Since(start).Milliseconds())
	e.log.Info().
		Int("matchups", len(inputs)).
		Int("edges", len(result.Edges)).
		Int("stakes", len(result.Stakes)).
		Int("skipped", len(result.Skipped)).
		Msg("detection batch complete")

	return result, nil
}

// persist writes and publishes a batch's outputs when sinks are wired.
func (e *Engine) persist(ctx context.Context, result BatchResult) error {
	if e.edgeWriter != nil {
		for i := range result.Edges {
			if err := e.edgeWriter.WriteEdge(ctx, result.Edges[i]); err != nil {
				e.incrementErrors()
				return fmt.Errorf("write edge %s: %w", result.Edges[i].ID, err)
			}
		}
		for i := range result.Stakes {
			if err := e.edgeWriter.WriteStake(ctx, result.Stakes[i]); err != nil {
				e.incrementErrors()
				return fmt.Errorf("write stake for edge %s: %w", result.Stakes[i].EdgeID, err)
			}
		}
	}

	if e.publisher != nil {
		for i := range result.Edges {
			if err := e.publisher.PublishEdge(ctx, result.Edges[i]); err != nil {
				e.incrementErrors()
				return fmt.Errorf("publish edge %s: %w", result.Edges[i].ID, err)
			}
		}
		for i := range result.Stakes {
			if err := e.publisher.PublishStake(ctx, result.Stakes[i]); err != nil {
				e.incrementErrors()
				return fmt.Errorf("publish stake for edge %s: %w", result.Stakes[i].EdgeID, err)
			}
		}
	}

	return nil
}

// ApplyResults runs the write phase: game results applied to the rating
// store in chronological order, then the store is flushed. Must not run
// concurrently with DetectBatch for the same week.
func (e *Engine) ApplyResults(ctx context.Context, results []models.GameResult) (int, error) {
	applied, errs := e.updater.ApplyBatch(ctx, results)

	if err := e.store.Save(ctx); err != nil {
		return applied, fmt.Errorf("save rating store: %w", err)
	}

	if len(errs) > 0 {
		return applied, fmt.Errorf("%d of %d results failed, first: %w", len(errs), len(results), errs[0])
	}

	e.log.Info().Int("applied", applied).Int("received", len(results)).Msg("rating update batch complete")
	return applied, nil
}

func (e *Engine) incrementDetected() {
	e.mu.Lock()
	e.detectedCount++
	e.mu.Unlock()
}

func (e *Engine) incrementSkipped() {
	e.mu.Lock()
	e.skippedCount++
	e.mu.Unlock()
}

func (e *Engine) incrementErrors() {
	e.mu.Lock()
	e.errorCount++
	e.mu.Unlock()
}

func (e *Engine) recordLatency(ms int64) {
	e.mu.Lock()
	e.totalLatencyMs += ms
	e.mu.Unlock()
}

// GetMetrics returns cumulative detection counters.
func (e *Engine) GetMetrics() (detected, skipped, errors int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detectedCount, e.skippedCount, e.errorCount
}
