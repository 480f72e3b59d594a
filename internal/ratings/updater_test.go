package ratings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

type testConfig struct {
	hfa       float64
	weightNew float64
}

func (c testConfig) GetSportKey() string                { return "americanfootball_nfl" }
func (c testConfig) GetHomeFieldAdvantage() float64     { return c.hfa }
func (c testConfig) GetUpdateWeightNew() float64        { return c.weightNew }
func (c testConfig) GetFreshnessWindow() time.Duration  { return time.Hour }
func (c testConfig) GetInjuryCeiling() float64          { return 14.0 }
func (c testConfig) GetWorkerCount() int                { return 4 }
func (c testConfig) GetKellyFraction() float64          { return 0.25 }
func (c testConfig) GetMaxStakeFraction() float64       { return 0.05 }
func (c testConfig) GetTierFractions() map[models.EdgeTier]float64 {
	return map[models.EdgeTier]float64{
		models.TierMax:      0.05,
		models.TierStrong:   0.03,
		models.TierModerate: 0.02,
		models.TierLean:     0.01,
	}
}

func newSeededStore(t *testing.T, ratings map[string]float64) *MemoryStore {
	t.Helper()

	store := NewMemoryStore(nil)
	for id, rating := range ratings {
		if err := store.Put(context.Background(), models.Team{ID: id, Rating: rating}); err != nil {
			t.Fatalf("seed team %s: %v", id, err)
		}
	}
	return store
}

func newTestEngine(store *MemoryStore, hfa, weightNew float64) *UpdateEngine {
	return NewUpdateEngine(store, testConfig{hfa: hfa, weightNew: weightNew}, zerolog.Nop())
}

func TestApplyReferenceScenario(t *testing.T) {
	// Home rating 10, away 4, neutral site, home injury adj 3.5, away 1.7,
	// home wins 27-20. perf_home = 7 + 4 + 1.8 - 0 = 12.8, so the new home
	// rating is 0.9*10 + 0.1*12.8 = 10.28.
	store := newSeededStore(t, map[string]float64{"HOME": 10.0, "AWAY": 4.0})
	engine := newTestEngine(store, 2.5, 0.10)

	newHome, newAway, err := engine.Apply(context.Background(), models.GameResult{
		ID:            "game-1",
		HomeTeamID:    "HOME",
		AwayTeamID:    "AWAY",
		HomeScore:     27,
		AwayScore:     20,
		PlayedAt:      time.Now(),
		Neutral:       true,
		HomeInjuryAdj: 3.5,
		AwayInjuryAdj: 1.7,
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	if math.Abs(newHome-10.28) > 1e-9 {
		t.Errorf("new home rating = %.6f, want 10.28", newHome)
	}

	// perf_away = -7 + 10 + (1.7 - 3.5) + 0 = 1.2
	wantAway := 0.9*4.0 + 0.1*1.2
	if math.Abs(newAway-wantAway) > 1e-9 {
		t.Errorf("new away rating = %.6f, want %.6f", newAway, wantAway)
	}
}

func TestApplyIdempotence(t *testing.T) {
	store := newSeededStore(t, map[string]float64{"KC": 8.0, "DEN": 2.0})
	engine := newTestEngine(store, 2.5, 0.10)

	result := models.GameResult{
		ID:         "game-dup",
		HomeTeamID: "KC",
		AwayTeamID: "DEN",
		HomeScore:  31,
		AwayScore:  17,
		PlayedAt:   time.Now(),
	}

	if _, _, err := engine.Apply(context.Background(), result); err != nil {
		t.Fatalf("first Apply() error: %v", err)
	}

	afterFirst, _ := store.Snapshot(context.Background())

	_, _, err := engine.Apply(context.Background(), result)
	var dup *models.DuplicateUpdateError
	if !errors.As(err, &dup) {
		t.Fatalf("second Apply() error = %v, want DuplicateUpdateError", err)
	}
	if dup.ResultID != "game-dup" {
		t.Errorf("DuplicateUpdateError.ResultID = %q, want game-dup", dup.ResultID)
	}

	afterSecond, _ := store.Snapshot(context.Background())
	for id, rating := range afterFirst {
		if afterSecond[id] != rating {
			t.Errorf("rating for %s changed on duplicate apply: %.4f -> %.4f", id, rating, afterSecond[id])
		}
	}
}

func TestApplySymmetry(t *testing.T) {
	// A neutral-site game with zero injury adjustments must produce the
	// same rating pair regardless of which team carries the home label.
	const (
		ratingA = 6.0
		ratingB = 3.0
	)

	storeFwd := newSeededStore(t, map[string]float64{"A": ratingA, "B": ratingB})
	engineFwd := newTestEngine(storeFwd, 2.5, 0.10)

	newA, newB, err := engineFwd.Apply(context.Background(), models.GameResult{
		ID:         "fwd",
		HomeTeamID: "A",
		AwayTeamID: "B",
		HomeScore:  24,
		AwayScore:  17,
		PlayedAt:   time.Now(),
		Neutral:    true,
	})
	if err != nil {
		t.Fatalf("forward Apply() error: %v", err)
	}

	storeRev := newSeededStore(t, map[string]float64{"A": ratingA, "B": ratingB})
	engineRev := newTestEngine(storeRev, 2.5, 0.10)

	revB, revA, err := engineRev.Apply(context.Background(), models.GameResult{
		ID:         "rev",
		HomeTeamID: "B",
		AwayTeamID: "A",
		HomeScore:  17,
		AwayScore:  24,
		PlayedAt:   time.Now(),
		Neutral:    true,
	})
	if err != nil {
		t.Fatalf("reversed Apply() error: %v", err)
	}

	if math.Abs(newA-revA) > 1e-9 {
		t.Errorf("team A rating differs by orientation: %.6f vs %.6f", newA, revA)
	}
	if math.Abs(newB-revB) > 1e-9 {
		t.Errorf("team B rating differs by orientation: %.6f vs %.6f", newB, revB)
	}
}

func TestApplyWeightConservation(t *testing.T) {
	// With the away rating at 0 and a neutral site, the home performance
	// equals the score differential, so new = w_old*R + w_new*P exactly.
	tests := []struct {
		name      string
		oldRating float64
		homeScore int
		awayScore int
	}{
		{"performance equals rating", 10.0, 30, 20},
		{"performance zero", 10.0, 20, 20},
		{"performance very large", 10.0, 80, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSeededStore(t, map[string]float64{"HOME": tt.oldRating, "AWAY": 0.0})
			engine := newTestEngine(store, 2.5, 0.10)

			newHome, _, err := engine.Apply(context.Background(), models.GameResult{
				ID:         "game-" + tt.name,
				HomeTeamID: "HOME",
				AwayTeamID: "AWAY",
				HomeScore:  tt.homeScore,
				AwayScore:  tt.awayScore,
				PlayedAt:   time.Now(),
				Neutral:    true,
			})
			if err != nil {
				t.Fatalf("Apply() error: %v", err)
			}

			perf := float64(tt.homeScore - tt.awayScore)
			want := 0.9*tt.oldRating + 0.1*perf
			if math.Abs(newHome-want) > 1e-9 {
				t.Errorf("new rating = %.6f, want %.6f", newHome, want)
			}
		})
	}
}

func TestApplyOutOfOrderRejected(t *testing.T) {
	store := newSeededStore(t, map[string]float64{"BUF": 5.0, "MIA": 1.0})
	engine := newTestEngine(store, 2.5, 0.10)

	later := time.Date(2026, 1, 11, 18, 0, 0, 0, time.UTC)
	earlier := later.Add(-7 * 24 * time.Hour)

	if _, _, err := engine.Apply(context.Background(), models.GameResult{
		ID:         "week-2",
		HomeTeamID: "BUF",
		AwayTeamID: "MIA",
		HomeScore:  28,
		AwayScore:  10,
		PlayedAt:   later,
	}); err != nil {
		t.Fatalf("Apply(week-2) error: %v", err)
	}

	afterFirst, _ := store.Snapshot(context.Background())

	_, _, err := engine.Apply(context.Background(), models.GameResult{
		ID:         "week-1",
		HomeTeamID: "BUF",
		AwayTeamID: "MIA",
		HomeScore:  14,
		AwayScore:  21,
		PlayedAt:   earlier,
	})

	var ooo *models.OutOfOrderUpdateError
	if !errors.As(err, &ooo) {
		t.Fatalf("Apply(week-1) error = %v, want OutOfOrderUpdateError", err)
	}

	afterSecond, _ := store.Snapshot(context.Background())
	for id, rating := range afterFirst {
		if afterSecond[id] != rating {
			t.Errorf("rating for %s changed after rejected update: %.4f -> %.4f", id, rating, afterSecond[id])
		}
	}

	applied, _ := store.HasResult(context.Background(), "week-1")
	if applied {
		t.Error("rejected result marked as applied")
	}
}

func TestApplyMalformedResult(t *testing.T) {
	store := newSeededStore(t, map[string]float64{"SF": 7.0, "SEA": 3.0})
	engine := newTestEngine(store, 2.5, 0.10)

	tests := []struct {
		name   string
		result models.GameResult
	}{
		{"missing id", models.GameResult{HomeTeamID: "SF", AwayTeamID: "SEA", HomeScore: 20, AwayScore: 17, PlayedAt: time.Now()}},
		{"negative score", models.GameResult{ID: "g", HomeTeamID: "SF", AwayTeamID: "SEA", HomeScore: -3, AwayScore: 17, PlayedAt: time.Now()}},
		{"identical teams", models.GameResult{ID: "g", HomeTeamID: "SF", AwayTeamID: "SF", HomeScore: 20, AwayScore: 17, PlayedAt: time.Now()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := engine.Apply(context.Background(), tt.result)
			var malformed *models.MalformedInputError
			if !errors.As(err, &malformed) {
				t.Errorf("Apply() error = %v, want MalformedInputError", err)
			}
		})
	}
}

func TestApplyMissingRating(t *testing.T) {
	store := newSeededStore(t, map[string]float64{"DAL": 4.0})
	engine := newTestEngine(store, 2.5, 0.10)

	_, _, err := engine.Apply(context.Background(), models.GameResult{
		ID:         "g",
		HomeTeamID: "DAL",
		AwayTeamID: "NYG",
		HomeScore:  24,
		AwayScore:  10,
		PlayedAt:   time.Now(),
	})

	var missing *models.MissingRatingError
	if !errors.As(err, &missing) {
		t.Fatalf("Apply() error = %v, want MissingRatingError", err)
	}
	if missing.TeamID != "NYG" {
		t.Errorf("MissingRatingError.TeamID = %q, want NYG", missing.TeamID)
	}
}

func TestApplyBatchChronologicalOrder(t *testing.T) {
	base := time.Date(2026, 1, 4, 13, 0, 0, 0, time.UTC)

	week1 := models.GameResult{
		ID: "w1", HomeTeamID: "GB", AwayTeamID: "CHI",
		HomeScore: 27, AwayScore: 13, PlayedAt: base,
	}
	week2 := models.GameResult{
		ID: "w2", HomeTeamID: "CHI", AwayTeamID: "GB",
		HomeScore: 20, AwayScore: 23, PlayedAt: base.Add(7 * 24 * time.Hour),
	}

	// Delivered newest-first; the batch must still apply oldest-first.
	store := newSeededStore(t, map[string]float64{"GB": 6.0, "CHI": 1.0})
	engine := newTestEngine(store, 2.5, 0.10)

	applied, errs := engine.ApplyBatch(context.Background(), []models.GameResult{week2, week1})
	if len(errs) != 0 {
		t.Fatalf("ApplyBatch() errors: %v", errs)
	}
	if applied != 2 {
		t.Fatalf("ApplyBatch() applied = %d, want 2", applied)
	}

	// Same results in order on a fresh store must land on the same state.
	ordered := newSeededStore(t, map[string]float64{"GB": 6.0, "CHI": 1.0})
	orderedEngine := newTestEngine(ordered, 2.5, 0.10)
	if applied, errs := orderedEngine.ApplyBatch(context.Background(), []models.GameResult{week1, week2}); applied != 2 || len(errs) != 0 {
		t.Fatalf("ordered ApplyBatch() applied = %d errs = %v", applied, errs)
	}

	got, _ := store.Snapshot(context.Background())
	want, _ := ordered.Snapshot(context.Background())
	for id := range want {
		if math.Abs(got[id]-want[id]) > 1e-9 {
			t.Errorf("rating for %s = %.6f, want %.6f", id, got[id], want[id])
		}
	}
}

func TestApplyBatchSkipsDuplicates(t *testing.T) {
	store := newSeededStore(t, map[string]float64{"LAR": 5.0, "ARI": 0.0})
	engine := newTestEngine(store, 2.5, 0.10)

	result := models.GameResult{
		ID: "g1", HomeTeamID: "LAR", AwayTeamID: "ARI",
		HomeScore: 30, AwayScore: 24, PlayedAt: time.Now(),
	}

	applied, errs := engine.ApplyBatch(context.Background(), []models.GameResult{result, result})
	if len(errs) != 0 {
		t.Fatalf("ApplyBatch() errors: %v", errs)
	}
	if applied != 1 {
		t.Errorf("ApplyBatch() applied = %d, want 1", applied)
	}
}
