package writer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// EdgeWriter persists detection outputs and bet lifecycle records.
type EdgeWriter struct {
	db *sql.DB
}

// NewEdgeWriter creates a new edge writer.
func NewEdgeWriter(db *sql.DB) *EdgeWriter {
	return &EdgeWriter{db: db}
}

// WriteEdge inserts one edge record. Edges are immutable; re-detection
// inserts a new row rather than updating an old one.
func (w *EdgeWriter) WriteEdge(ctx context.Context, edge models.Edge) error {
	query := `
		INSERT INTO edges (
			edge_id, matchup_id, sport_key, home_team_id, away_team_id,
			predicted_line, consensus_spread, consensus_total, quote_count,
			edge_points, tier, recommended_side, low_confidence, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := w.db.ExecContext(
		ctx,
		query,
		edge.ID,
		edge.MatchupID,
		edge.SportKey,
		edge.HomeTeamID,
		edge.AwayTeamID,
		edge.PredictedLine,
		edge.Consensus.Spread,
		edge.Consensus.Total,
		edge.Consensus.QuoteCount,
		edge.Points,
		string(edge.Tier),
		string(edge.Side),
		edge.LowConfidence,
		edge.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}

	return nil
}

// WriteStake inserts one stake recommendation.
func (w *EdgeWriter) WriteStake(ctx context.Context, stake models.StakeRecommendation) error {
	query := `
		INSERT INTO stake_recommendations (
			edge_id, matchup_id, tier, side, stake_fraction, stake, bankroll, kelly_fraction
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := w.db.ExecContext(
		ctx,
		query,
		stake.EdgeID,
		stake.MatchupID,
		string(stake.Tier),
		string(stake.Side),
		stake.Fraction,
		stake.Stake,
		stake.Bankroll,
		stake.KellyFraction,
	)
	if err != nil {
		return fmt.Errorf("insert stake recommendation: %w", err)
	}

	return nil
}

// WriteBet inserts a newly placed bet in the pending state.
func (w *EdgeWriter) WriteBet(ctx context.Context, bet models.Bet) error {
	query := `
		INSERT INTO bets (
			bet_id, edge_id, matchup_id, side, line_taken, price, stake, outcome, placed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := w.db.ExecContext(
		ctx,
		query,
		bet.ID,
		bet.EdgeID,
		bet.MatchupID,
		string(bet.Side),
		bet.LineTaken,
		bet.Price,
		bet.Stake,
		string(bet.Outcome),
		bet.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}

	return nil
}

// GetBet retrieves one bet by id.
func (w *EdgeWriter) GetBet(ctx context.Context, betID string) (*models.Bet, error) {
	query := `
		SELECT bet_id, edge_id, matchup_id, side, line_taken, price, stake,
		       outcome, payout, placed_at, settled_at, closing_line, clv
		FROM bets
		WHERE bet_id = $1
	`

	var bet models.Bet
	var side, outcome string
	err := w.db.QueryRowContext(ctx, query, betID).Scan(
		&bet.ID,
		&bet.EdgeID,
		&bet.MatchupID,
		&side,
		&bet.LineTaken,
		&bet.Price,
		&bet.Stake,
		&outcome,
		&bet.Payout,
		&bet.PlacedAt,
		&bet.SettledAt,
		&bet.ClosingLine,
		&bet.CLV,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("bet not found: %s", betID)
		}
		return nil, fmt.Errorf("query bet: %w", err)
	}

	bet.Side = models.BetSide(side)
	bet.Outcome = models.BetOutcome(outcome)
	return &bet, nil
}

// GetPendingBets retrieves all pending bets for a matchup.
func (w *EdgeWriter) GetPendingBets(ctx context.Context, matchupID string) ([]*models.Bet, error) {
	query := `
		SELECT bet_id, edge_id, matchup_id, side, line_taken, price, stake, outcome, placed_at
		FROM bets
		WHERE matchup_id = $1 AND outcome = 'pending'
	`

	rows, err := w.db.QueryContext(ctx, query, matchupID)
	if err != nil {
		return nil, fmt.Errorf("query pending bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		var side, outcome string
		err := rows.Scan(
			&bet.ID,
			&bet.EdgeID,
			&bet.MatchupID,
			&side,
			&bet.LineTaken,
			&bet.Price,
			&bet.Stake,
			&outcome,
			&bet.PlacedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan bet: %w", err)
		}
		bet.Side = models.BetSide(side)
		bet.Outcome = models.BetOutcome(outcome)
		bets = append(bets, &bet)
	}

	return bets, rows.Err()
}

// UpdateBetSettlement records a bet's terminal outcome and payout.
func (w *EdgeWriter) UpdateBetSettlement(ctx context.Context, bet models.Bet) error {
	query := `
		UPDATE bets
		SET outcome = $1, payout = $2, settled_at = $3
		WHERE bet_id = $4 AND outcome = 'pending'
	`

	res, err := w.db.ExecContext(ctx, query, string(bet.Outcome), bet.Payout, bet.SettledAt, bet.ID)
	if err != nil {
		return fmt.Errorf("update bet settlement: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("bet %s not pending", bet.ID)
	}

	return nil
}

// WriteCLV stores a closing line value record and stamps the bet. The
// bet-side fields are written only while still empty so CLV stays
// write-once at the persistence layer too.
func (w *EdgeWriter) WriteCLV(ctx context.Context, record models.CLVRecord) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	recordQuery := `
		INSERT INTO bet_performance (bet_id, line_taken, closing_line, clv_points, clv_cents, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (bet_id) DO NOTHING
	`

	res, err := tx.ExecContext(ctx, recordQuery,
		record.BetID, record.LineTaken, record.ClosingLine, record.CLVPoints, record.CLVCents, record.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert bet performance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("clv already recorded for bet %s", record.BetID)
	}

	betQuery := `
		UPDATE bets
		SET closing_line = $1, clv = $2
		WHERE bet_id = $3 AND clv IS NULL
	`

	if _, err := tx.ExecContext(ctx, betQuery, record.ClosingLine, record.CLVPoints, record.BetID); err != nil {
		return fmt.Errorf("stamp bet clv: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clv: %w", err)
	}

	return nil
}
