package ratings

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// Backend persists rating snapshots and append-only history. Implemented
// by PostgresBackend; nil is allowed for in-memory-only use (tests).
type Backend interface {
	LoadTeams(ctx context.Context) ([]models.Team, error)
	LoadHistory(ctx context.Context) ([]models.RatingEntry, error)
	LoadAppliedResults(ctx context.Context) ([]string, error)
	SaveSnapshot(ctx context.Context, teams []models.Team, newEntries []models.RatingEntry, newResults []string) error
}

// MemoryStore is the in-process RatingStore. One writer at a time mutates
// it; readers take consistent snapshots under a read lock.
type MemoryStore struct {
	mu      sync.RWMutex
	teams   map[string]models.Team
	history map[string][]models.RatingEntry
	applied map[string]bool
	backend Backend

	// Not yet flushed to the backend.
	pendingEntries []models.RatingEntry
	pendingResults []string
}

// NewMemoryStore creates an empty store backed by backend (may be nil).
func NewMemoryStore(backend Backend) *MemoryStore {
	return &MemoryStore{
		teams:   make(map[string]models.Team),
		history: make(map[string][]models.RatingEntry),
		applied: make(map[string]bool),
		backend: backend,
	}
}

// Load hydrates teams, history and the applied-result ledger from the
// backend. A nil backend makes Load a no-op.
func (s *MemoryStore) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	teams, err := s.backend.LoadTeams(ctx)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}

	entries, err := s.backend.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	applied, err := s.backend.LoadAppliedResults(ctx)
	if err != nil {
		return fmt.Errorf("load applied results: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.teams = make(map[string]models.Team, len(teams))
	for _, t := range teams {
		s.teams[t.ID] = t
	}

	s.history = make(map[string][]models.RatingEntry)
	for _, e := range entries {
		s.history[e.TeamID] = append(s.history[e.TeamID], e)
	}
	for id := range s.history {
		h := s.history[id]
		sort.Slice(h, func(i, j int) bool { return h[i].RatedAt.Before(h[j].RatedAt) })
	}

	s.applied = make(map[string]bool, len(applied))
	for _, id := range applied {
		s.applied[id] = true
	}

	s.pendingEntries = nil
	s.pendingResults = nil

	return nil
}

// Save flushes the current snapshot plus any history entries and result
// ids appended since the last flush.
func (s *MemoryStore) Save(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	s.mu.Lock()
	teams := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	entries := make([]models.RatingEntry, len(s.pendingEntries))
	copy(entries, s.pendingEntries)
	results := make([]string, len(s.pendingResults))
	copy(results, s.pendingResults)
	s.mu.Unlock()

	if err := s.backend.SaveSnapshot(ctx, teams, entries, results); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.mu.Lock()
	s.pendingEntries = nil
	s.pendingResults = nil
	s.mu.Unlock()

	return nil
}

// Get returns a copy of a team record.
func (s *MemoryStore) Get(ctx context.Context, teamID string) (models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	team, ok := s.teams[teamID]
	if !ok {
		return models.Team{}, &models.MissingRatingError{TeamID: teamID}
	}
	return team, nil
}

// Put creates or replaces a team record. Seeding only; no history entry
// is written.
func (s *MemoryStore) Put(ctx context.Context, team models.Team) error {
	if team.ID == "" {
		return &models.MalformedInputError{Reason: "team missing id"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.teams[team.ID] = team
	return nil
}

// PutIfUnmodifiedSince applies a game-driven rating transition. It fails
// if the team was updated after since, if the entry predates the latest
// history entry, or if the entry's result id was already applied.
func (s *MemoryStore) PutIfUnmodifiedSince(ctx context.Context, teamID string, rating float64, since time.Time, entry models.RatingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[teamID]
	if !ok {
		return &models.MissingRatingError{TeamID: teamID}
	}

	if team.UpdatedAt.After(since) {
		return fmt.Errorf("team %s modified at %s, after %s", teamID,
			team.UpdatedAt.Format(time.RFC3339), since.Format(time.RFC3339))
	}

	if h := s.history[teamID]; len(h) > 0 {
		latest := h[len(h)-1]
		if entry.RatedAt.Before(latest.RatedAt) {
			return &models.OutOfOrderUpdateError{
				TeamID:   teamID,
				ResultID: entry.ResultID,
				ResultAt: entry.RatedAt,
				LatestAt: latest.RatedAt,
			}
		}
	}

	team.Rating = rating
	team.UpdatedAt = entry.RatedAt
	s.teams[teamID] = team

	entry.TeamID = teamID
	entry.Rating = rating
	s.history[teamID] = append(s.history[teamID], entry)
	s.pendingEntries = append(s.pendingEntries, entry)

	if entry.ResultID != "" && !s.applied[entry.ResultID] {
		s.applied[entry.ResultID] = true
		s.pendingResults = append(s.pendingResults, entry.ResultID)
	}

	return nil
}

// History returns a copy of a team's rating history, oldest first.
func (s *MemoryStore) History(ctx context.Context, teamID string) ([]models.RatingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.history[teamID]
	if !ok {
		return nil, nil
	}

	out := make([]models.RatingEntry, len(h))
	copy(out, h)
	return out, nil
}

// HasResult reports whether a GameResult id was already applied.
func (s *MemoryStore) HasResult(ctx context.Context, resultID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied[resultID], nil
}

// Snapshot returns an immutable teamID -> rating view for a read phase.
func (s *MemoryStore) Snapshot(ctx context.Context) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string]float64, len(s.teams))
	for id, t := range s.teams {
		snap[id] = t.Rating
	}
	return snap, nil
}
