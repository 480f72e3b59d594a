package ratings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// PostgresBackend persists rating snapshots in Postgres.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend creates a new Postgres backend.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// LoadTeams reads the current team snapshot.
func (b *PostgresBackend) LoadTeams(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT team_id, name, rating, updated_at
		FROM team_ratings
	`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query team ratings: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Rating, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// LoadHistory reads all rating history entries, oldest first.
func (b *PostgresBackend) LoadHistory(ctx context.Context) ([]models.RatingEntry, error) {
	query := `
		SELECT team_id, rating, reason, rated_at, COALESCE(result_id, '')
		FROM rating_history
		ORDER BY rated_at, id
	`

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rating history: %w", err)
	}
	defer rows.Close()

	var entries []models.RatingEntry
	for rows.Next() {
		var e models.RatingEntry
		if err := rows.Scan(&e.TeamID, &e.Rating, &e.Reason, &e.RatedAt, &e.ResultID); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// LoadAppliedResults reads the applied GameResult id ledger.
func (b *PostgresBackend) LoadAppliedResults(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT result_id FROM applied_results`)
	if err != nil {
		return nil, fmt.Errorf("query applied results: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan result id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// SaveSnapshot upserts the team snapshot and appends new history entries
// and result ids in one transaction. History rows are insert-only.
func (b *PostgresBackend) SaveSnapshot(ctx context.Context, teams []models.Team, newEntries []models.RatingEntry, newResults []string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	teamQuery := `
		INSERT INTO team_ratings (team_id, name, rating, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id) DO UPDATE SET
			name = EXCLUDED.name,
			rating = EXCLUDED.rating,
			updated_at = EXCLUDED.updated_at
	`

	for _, t := range teams {
		if _, err := tx.ExecContext(ctx, teamQuery, t.ID, t.Name, t.Rating, t.UpdatedAt); err != nil {
			return fmt.Errorf("upsert team %s: %w", t.ID, err)
		}
	}

	entryQuery := `
		INSERT INTO rating_history (team_id, rating, reason, rated_at, result_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
	`

	for _, e := range newEntries {
		if _, err := tx.ExecContext(ctx, entryQuery, e.TeamID, e.Rating, e.Reason, e.RatedAt, e.ResultID); err != nil {
			return fmt.Errorf("insert history entry for %s: %w", e.TeamID, err)
		}
	}

	resultQuery := `
		INSERT INTO applied_results (result_id)
		VALUES ($1)
		ON CONFLICT (result_id) DO NOTHING
	`

	for _, id := range newResults {
		if _, err := tx.ExecContext(ctx, resultQuery, id); err != nil {
			return fmt.Errorf("insert applied result %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}
