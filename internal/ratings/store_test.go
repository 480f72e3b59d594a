package ratings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

func TestStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(nil)

	_, err := store.Get(context.Background(), "NOPE")
	var missing *models.MissingRatingError
	if !errors.As(err, &missing) {
		t.Fatalf("Get() error = %v, want MissingRatingError", err)
	}
}

func TestStorePutRequiresID(t *testing.T) {
	store := NewMemoryStore(nil)

	err := store.Put(context.Background(), models.Team{Name: "No ID"})
	var malformed *models.MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Put() error = %v, want MalformedInputError", err)
	}
}

func TestStorePutIfUnmodifiedSinceConflict(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	seeded := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Put(ctx, models.Team{ID: "KC", Rating: 8.0, UpdatedAt: seeded}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	// First writer wins.
	err := store.PutIfUnmodifiedSince(ctx, "KC", 8.5, seeded, models.RatingEntry{
		RatedAt: seeded.Add(time.Hour), ResultID: "g1",
	})
	if err != nil {
		t.Fatalf("first PutIfUnmodifiedSince() error: %v", err)
	}

	// A second writer holding the stale pre-update timestamp must fail.
	err = store.PutIfUnmodifiedSince(ctx, "KC", 9.0, seeded, models.RatingEntry{
		RatedAt: seeded.Add(2 * time.Hour), ResultID: "g2",
	})
	if err == nil {
		t.Fatal("stale PutIfUnmodifiedSince() succeeded, want conflict error")
	}

	team, _ := store.Get(ctx, "KC")
	if team.Rating != 8.5 {
		t.Errorf("rating after conflict = %.2f, want 8.5", team.Rating)
	}
}

func TestStoreHistoryAppendOnly(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Put(ctx, models.Team{ID: "DET", Rating: 3.0, UpdatedAt: base}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	ratedAt := base
	since := base
	for i, rating := range []float64{3.4, 3.9, 4.1} {
		ratedAt = ratedAt.Add(7 * 24 * time.Hour)
		err := store.PutIfUnmodifiedSince(ctx, "DET", rating, since, models.RatingEntry{
			RatedAt: ratedAt, ResultID: "g" + string(rune('1'+i)),
		})
		if err != nil {
			t.Fatalf("PutIfUnmodifiedSince(%d) error: %v", i, err)
		}
		since = ratedAt
	}

	history, err := store.History(ctx, "DET")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History() length = %d, want 3", len(history))
	}

	for i := 1; i < len(history); i++ {
		if history[i].RatedAt.Before(history[i-1].RatedAt) {
			t.Errorf("history not chronological at index %d", i)
		}
	}

	// Mutating the returned slice must not affect the store.
	history[0].Rating = -99
	fresh, _ := store.History(ctx, "DET")
	if fresh[0].Rating == -99 {
		t.Error("History() returned a live reference to internal state")
	}
}

func TestStoreSnapshotIsolated(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	if err := store.Put(ctx, models.Team{ID: "PHI", Rating: 6.0}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	snap, _ := store.Snapshot(ctx)
	snap["PHI"] = -50

	team, _ := store.Get(ctx, "PHI")
	if team.Rating != 6.0 {
		t.Errorf("rating after snapshot mutation = %.2f, want 6.0", team.Rating)
	}
}

func TestStoreHasResult(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Put(ctx, models.Team{ID: "NE", Rating: 1.0, UpdatedAt: base}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	if applied, _ := store.HasResult(ctx, "g1"); applied {
		t.Error("HasResult(g1) = true before any apply")
	}

	err := store.PutIfUnmodifiedSince(ctx, "NE", 1.5, base, models.RatingEntry{
		RatedAt: base.Add(time.Hour), ResultID: "g1",
	})
	if err != nil {
		t.Fatalf("PutIfUnmodifiedSince() error: %v", err)
	}

	if applied, _ := store.HasResult(ctx, "g1"); !applied {
		t.Error("HasResult(g1) = false after apply")
	}
}
