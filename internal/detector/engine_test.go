package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/ratings"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/staking"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

func newTestEngine(t *testing.T, teamRatings map[string]float64) (*Engine, *ratings.MemoryStore) {
	t.Helper()

	store := ratings.NewMemoryStore(nil)
	for id, rating := range teamRatings {
		if err := store.Put(context.Background(), models.Team{ID: id, Rating: rating}); err != nil {
			t.Fatalf("seed team %s: %v", id, err)
		}
	}

	config := testConfig{hfa: 2.5, injuryCeiling: 14.0, workers: 4}
	detector := newBareDetector(2.5)
	sizer := staking.NewStakeSizer(config)
	updater := ratings.NewUpdateEngine(store, config, zerolog.Nop())

	engine := NewEngine(store, detector, sizer, updater, nil, nil, config, zerolog.Nop())
	return engine, store
}

func TestDetectBatchSkipsMissingRating(t *testing.T) {
	now := time.Now()
	engine, _ := newTestEngine(t, map[string]float64{"KC": 7.0, "LV": 3.5, "BUF": 5.0})

	inputs := []DetectInput{
		{
			Matchup: models.Matchup{ID: "m1", HomeTeamID: "KC", AwayTeamID: "LV"},
			Quotes:  []models.MarketQuote{freshQuote(3.5, now)},
		},
		{
			// MIA has no rating; this matchup is skipped, not the batch.
			Matchup: models.Matchup{ID: "m2", HomeTeamID: "BUF", AwayTeamID: "MIA"},
			Quotes:  []models.MarketQuote{freshQuote(1.0, now)},
		},
	}

	result, err := engine.DetectBatch(context.Background(), inputs, 10000)
	if err != nil {
		t.Fatalf("DetectBatch() error: %v", err)
	}

	if len(result.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(result.Edges))
	}
	if result.Edges[0].MatchupID != "m1" {
		t.Errorf("edge matchup = %s, want m1", result.Edges[0].MatchupID)
	}

	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped))
	}
	var missing *models.MissingRatingError
	if !errors.As(result.Skipped[0], &missing) {
		t.Errorf("skipped error = %v, want MissingRatingError", result.Skipped[0])
	}
}

func TestDetectBatchStakesOnlyAboveNone(t *testing.T) {
	now := time.Now()
	engine, _ := newTestEngine(t, map[string]float64{
		"KC": 7.0, "LV": 3.5, // predicted 6.0 vs 3.5 -> moderate
		"SF": 4.0, "SEA": 3.5, // predicted 3.0 vs 3.0 -> none
	})

	inputs := []DetectInput{
		{
			Matchup: models.Matchup{ID: "m1", HomeTeamID: "KC", AwayTeamID: "LV"},
			Quotes:  []models.MarketQuote{freshQuote(3.5, now)},
		},
		{
			Matchup: models.Matchup{ID: "m2", HomeTeamID: "SF", AwayTeamID: "SEA"},
			Quotes:  []models.MarketQuote{freshQuote(3.0, now)},
		},
	}

	result, err := engine.DetectBatch(context.Background(), inputs, 10000)
	if err != nil {
		t.Fatalf("DetectBatch() error: %v", err)
	}

	if len(result.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(result.Edges))
	}
	if len(result.Stakes) != 1 {
		t.Fatalf("stakes = %d, want 1 (none tier never sized)", len(result.Stakes))
	}
	if result.Stakes[0].MatchupID != "m1" {
		t.Errorf("stake matchup = %s, want m1", result.Stakes[0].MatchupID)
	}
}

func TestDetectBatchPreservesInputOrder(t *testing.T) {
	now := time.Now()
	teams := map[string]float64{}
	var inputs []DetectInput
	ids := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8"}

	for i, id := range ids {
		home := "H" + id
		away := "A" + id
		teams[home] = float64(i) + 5.0
		teams[away] = 1.0
		inputs = append(inputs, DetectInput{
			Matchup: models.Matchup{ID: id, HomeTeamID: home, AwayTeamID: away},
			Quotes:  []models.MarketQuote{freshQuote(0.0, now)},
		})
	}

	engine, _ := newTestEngine(t, teams)

	result, err := engine.DetectBatch(context.Background(), inputs, 10000)
	if err != nil {
		t.Fatalf("DetectBatch() error: %v", err)
	}
	if len(result.Edges) != len(ids) {
		t.Fatalf("edges = %d, want %d", len(result.Edges), len(ids))
	}

	for i, edge := range result.Edges {
		if edge.MatchupID != ids[i] {
			t.Errorf("edge %d matchup = %s, want %s", i, edge.MatchupID, ids[i])
		}
	}
}

func TestApplyResultsUpdatesSnapshot(t *testing.T) {
	engine, store := newTestEngine(t, map[string]float64{"GB": 6.0, "CHI": 1.0})

	applied, err := engine.ApplyResults(context.Background(), []models.GameResult{
		{
			ID: "g1", HomeTeamID: "GB", AwayTeamID: "CHI",
			HomeScore: 27, AwayScore: 13, PlayedAt: time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("ApplyResults() error: %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1", applied)
	}

	snap, _ := store.Snapshot(context.Background())
	if snap["GB"] == 6.0 {
		t.Error("home rating unchanged after applying result")
	}
	if snap["CHI"] == 1.0 {
		t.Error("away rating unchanged after applying result")
	}
}
