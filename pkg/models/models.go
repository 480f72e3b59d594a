package models

import "time"

// Team is a rated competitor. Rating is a signed strength estimate in
// points, practically in [-20, +35].
type Team struct {
	ID        string    `json:"team_id"`
	Name      string    `json:"name"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingEntry is one append-only rating history record. Entries are never
// mutated after write.
type RatingEntry struct {
	TeamID   string    `json:"team_id"`
	Rating   float64   `json:"rating"`
	Reason   string    `json:"reason"`
	RatedAt  time.Time `json:"rated_at"`
	ResultID string    `json:"result_id,omitempty"`
}

// GameResult is a final score record. ID is the stable identifier used to
// reject duplicate rating updates.
type GameResult struct {
	ID            string    `json:"result_id"`
	MatchupID     string    `json:"matchup_id,omitempty"`
	SportKey      string    `json:"sport_key"`
	HomeTeamID    string    `json:"home_team_id"`
	AwayTeamID    string    `json:"away_team_id"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	PlayedAt      time.Time `json:"played_at"`
	Neutral       bool      `json:"neutral_site"`
	HomeInjuryAdj float64   `json:"home_injury_adj"`
	AwayInjuryAdj float64   `json:"away_injury_adj"`
}

// EnclosureType classifies a venue's roof situation.
type EnclosureType string

const (
	EnclosureOpenAir     EnclosureType = "open_air"
	EnclosureRetractable EnclosureType = "retractable"
	EnclosureDome        EnclosureType = "dome"
)

// SituationalFacts are the schedule/context inputs to the situational
// adjustment calculator. TravelMiles is the road team's travel distance.
type SituationalFacts struct {
	HomeRestDays  int     `json:"home_rest_days"`
	AwayRestDays  int     `json:"away_rest_days"`
	TravelMiles   float64 `json:"travel_miles"`
	Rivalry       bool    `json:"rivalry"`
	Elimination   bool    `json:"elimination_stakes"`
	Divisional    bool    `json:"divisional"`
	HomePassHeavy bool    `json:"home_pass_heavy"`
	AwayPassHeavy bool    `json:"away_pass_heavy"`
}

// Forecast is a weather snapshot for an open-air venue at kickoff.
type Forecast struct {
	TemperatureF float64 `json:"temperature_f"`
	WindMPH      float64 `json:"wind_mph"`
	PrecipProb   float64 `json:"precip_prob"`
}

// Matchup is a scheduled pre-game pairing. Forecast is nil for enclosed
// venues or when no snapshot has been delivered yet.
type Matchup struct {
	ID         string           `json:"matchup_id"`
	SportKey   string           `json:"sport_key"`
	HomeTeamID string           `json:"home_team_id"`
	AwayTeamID string           `json:"away_team_id"`
	Kickoff    time.Time        `json:"kickoff"`
	Venue      string           `json:"venue"`
	Enclosure  EnclosureType    `json:"enclosure"`
	RoofClosed bool             `json:"roof_closed"`
	Neutral    bool             `json:"neutral_site"`
	Situation  SituationalFacts `json:"situation"`
	Forecast   *Forecast        `json:"forecast,omitempty"`
}

// InjuryStatus is a player's reported availability.
type InjuryStatus string

const (
	StatusOut          InjuryStatus = "out"
	StatusDoubtful     InjuryStatus = "doubtful"
	StatusQuestionable InjuryStatus = "questionable"
	StatusProbable     InjuryStatus = "probable"
)

// Position is a roster position key, e.g. "QB", "WR".
type Position string

// Injury is one reported roster injury.
type Injury struct {
	TeamID         string       `json:"team_id"`
	Player         string       `json:"player"`
	Position       Position     `json:"position"`
	Status         InjuryStatus `json:"status"`
	DaysSinceOnset int          `json:"days_since_onset"`
}

// MarketQuote is one book's quote for a matchup. Spread is home-team
// relative (positive = home favored by the model's margin convention).
// Quotes are never mutated, only superseded by newer captures.
type MarketQuote struct {
	Source        string    `json:"source"`
	MatchupID     string    `json:"matchup_id"`
	Spread        float64   `json:"spread"`
	Total         float64   `json:"total"`
	MoneylineHome int       `json:"moneyline_home"`
	MoneylineAway int       `json:"moneyline_away"`
	CapturedAt    time.Time `json:"captured_at"`
}

// ConsensusLine is the median of quotes captured within the freshness
// window. When the window is empty, Stale is set and the values carry the
// most recent available quote.
type ConsensusLine struct {
	Spread     float64       `json:"spread"`
	Total      float64       `json:"total"`
	QuoteCount int           `json:"quote_count"`
	Stale      bool          `json:"stale"`
	Staleness  time.Duration `json:"staleness_ns,omitempty"`
	AsOf       time.Time     `json:"as_of"`
}

// EdgeTier buckets edge magnitude. Boundaries are inclusive lower bounds.
type EdgeTier string

const (
	TierNone     EdgeTier = "none"
	TierLean     EdgeTier = "lean"
	TierModerate EdgeTier = "moderate"
	TierStrong   EdgeTier = "strong"
	TierMax      EdgeTier = "max"
)

// BetSide is the recommended side of a spread.
type BetSide string

const (
	SideHome BetSide = "home"
	SideAway BetSide = "away"
)

// Edge is one detection output. Edges are immutable once computed; a
// fresher computation produces a new record.
type Edge struct {
	ID            string        `json:"edge_id"`
	MatchupID     string        `json:"matchup_id"`
	SportKey      string        `json:"sport_key"`
	HomeTeamID    string        `json:"home_team_id"`
	AwayTeamID    string        `json:"away_team_id"`
	PredictedLine float64       `json:"predicted_line"`
	Consensus     ConsensusLine `json:"consensus"`
	Points        float64       `json:"edge_points"`
	Tier          EdgeTier      `json:"tier"`
	Side          BetSide       `json:"recommended_side"`
	LowConfidence bool          `json:"low_confidence"`
	InjuryAdjHome float64       `json:"injury_adj_home"`
	InjuryAdjAway float64       `json:"injury_adj_away"`
	Situational   float64       `json:"situational_adj"`
	Weather       float64       `json:"weather_adj"`
	DetectedAt    time.Time     `json:"detected_at"`
}

// StakeRecommendation is a bounded bankroll-fraction suggestion for an
// edge above the none tier.
type StakeRecommendation struct {
	EdgeID        string   `json:"edge_id"`
	MatchupID     string   `json:"matchup_id"`
	Tier          EdgeTier `json:"tier"`
	Side          BetSide  `json:"side"`
	Fraction      float64  `json:"stake_fraction"`
	Stake         float64  `json:"stake"`
	Bankroll      float64  `json:"bankroll"`
	KellyFraction float64  `json:"kelly_fraction"`
}

// BetOutcome is a bet's settlement state.
type BetOutcome string

const (
	OutcomePending BetOutcome = "pending"
	OutcomeWon     BetOutcome = "won"
	OutcomeLost    BetOutcome = "lost"
	OutcomePush    BetOutcome = "push"
)

// Bet is a placed wager. Outcome transitions once from pending to a
// terminal state; ClosingLine and CLV are write-once and independent of
// the outcome.
type Bet struct {
	ID          string     `json:"bet_id"`
	EdgeID      string     `json:"edge_id"`
	MatchupID   string     `json:"matchup_id"`
	Side        BetSide    `json:"side"`
	LineTaken   float64    `json:"line_taken"`
	Price       int        `json:"price"`
	Stake       float64    `json:"stake"`
	Outcome     BetOutcome `json:"outcome"`
	Payout      float64    `json:"payout"`
	PlacedAt    time.Time  `json:"placed_at"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	ClosingLine *float64   `json:"closing_line,omitempty"`
	CLV         *float64   `json:"clv,omitempty"`
}

// CLVRecord reports closing line value for one settled-or-not bet.
// CLVPoints is side-normalized: positive means the bettor beat the close.
type CLVRecord struct {
	BetID       string    `json:"bet_id"`
	LineTaken   float64   `json:"line_taken"`
	ClosingLine float64   `json:"closing_line"`
	CLVPoints   float64   `json:"clv_points"`
	CLVCents    *float64  `json:"clv_cents,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}
