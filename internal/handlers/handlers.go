package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/clv"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/detector"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/rating-engine/internal/writer"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/rating-engine/pkg/models"
)

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	engine          *detector.Engine
	store           contracts.RatingStore
	tracker         *clv.Tracker
	edgeWriter      *writer.EdgeWriter
	streamPublisher *publisher.StreamPublisher
	defaultBankroll float64
}

// NewHandler creates a new handler. edgeWriter and streamPublisher may be
// nil; the bet endpoints then respond 503.
func NewHandler(
	engine *detector.Engine,
	store contracts.RatingStore,
	tracker *clv.Tracker,
	edgeWriter *writer.EdgeWriter,
	streamPublisher *publisher.StreamPublisher,
	defaultBankroll float64,
) *Handler {
	return &Handler{
		engine:          engine,
		store:           store,
		tracker:         tracker,
		edgeWriter:      edgeWriter,
		streamPublisher: streamPublisher,
		defaultBankroll: defaultBankroll,
	}
}

// HealthCheck returns service health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "rating-engine",
	})
}

// GetRatings returns the current rating snapshot.
func (h *Handler) GetRatings(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.store.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("rating snapshot: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// GetRatingHistory returns a team's append-only rating history.
func (h *Handler) GetRatingHistory(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	history, err := h.store.History(r.Context(), teamID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("rating history: %v", err))
		return
	}
	if len(history) == 0 {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no history for team %s", teamID))
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// DetectRequest is the request body for batch edge detection.
type DetectRequest struct {
	Bankroll float64                `json:"bankroll"`
	Matchups []detector.DetectInput `json:"matchups"`
}

// Detect runs edge detection over the posted matchups.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if req.Bankroll == 0 {
		req.Bankroll = h.defaultBankroll
	}
	if req.Bankroll <= 0 {
		respondError(w, http.StatusBadRequest, "bankroll must be positive")
		return
	}
	if len(req.Matchups) == 0 {
		respondError(w, http.StatusBadRequest, "no matchups provided")
		return
	}

	result, err := h.engine.DetectBatch(r.Context(), req.Matchups, req.Bankroll)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("detection error: %v", err))
		return
	}

	skipped := make([]string, 0, len(result.Skipped))
	for _, e := range result.Skipped {
		skipped = append(skipped, e.Error())
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"edges":   result.Edges,
		"stakes":  result.Stakes,
		"skipped": skipped,
	})
}

// ResultsRequest is the request body for applying game results.
type ResultsRequest struct {
	Results []models.GameResult `json:"results"`
}

// ApplyResults applies final scores to the rating store.
func (h *Handler) ApplyResults(w http.ResponseWriter, r *http.Request) {
	var req ResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if len(req.Results) == 0 {
		respondError(w, http.StatusBadRequest, "no results provided")
		return
	}

	applied, err := h.engine.ApplyResults(r.Context(), req.Results)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, fmt.Sprintf("applied %d: %v", applied, err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"applied": applied})
}

// PlaceBetRequest is the request body for recording a placed bet.
type PlaceBetRequest struct {
	EdgeID    string         `json:"edge_id"`
	MatchupID string         `json:"matchup_id"`
	Side      models.BetSide `json:"side"`
	LineTaken float64        `json:"line_taken"`
	Price     int            `json:"price"`
	Stake     float64        `json:"stake"`
}

// PlaceBet records a placed bet in the pending state.
func (h *Handler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	if h.edgeWriter == nil {
		respondError(w, http.StatusServiceUnavailable, "bet persistence not configured")
		return
	}

	var req PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if req.Side != models.SideHome && req.Side != models.SideAway {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown side %q", req.Side))
		return
	}
	if req.Stake <= 0 {
		respondError(w, http.StatusBadRequest, "stake must be positive")
		return
	}

	bet := models.Bet{
		ID:        uuid.NewString(),
		EdgeID:    req.EdgeID,
		MatchupID: req.MatchupID,
		Side:      req.Side,
		LineTaken: req.LineTaken,
		Price:     req.Price,
		Stake:     req.Stake,
		Outcome:   models.OutcomePending,
		PlacedAt:  time.Now(),
	}

	if err := h.edgeWriter.WriteBet(r.Context(), bet); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("write bet: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, bet)
}

// ClosingRequest is the request body for recording a closing line.
type ClosingRequest struct {
	ClosingLine  float64 `json:"closing_line"`
	ClosingPrice int     `json:"closing_price"`
}

// RecordClosing computes and stores CLV for a bet once the closing line
// is known.
func (h *Handler) RecordClosing(w http.ResponseWriter, r *http.Request) {
	if h.edgeWriter == nil {
		respondError(w, http.StatusServiceUnavailable, "bet persistence not configured")
		return
	}

	betID := chi.URLParam(r, "betID")

	var req ClosingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	bet, err := h.edgeWriter.GetBet(r.Context(), betID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	record, err := h.tracker.RecordClosing(bet, req.ClosingLine, req.ClosingPrice, time.Now())
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.edgeWriter.WriteCLV(r.Context(), record); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("write clv: %v", err))
		return
	}

	if h.streamPublisher != nil {
		if err := h.streamPublisher.PublishCLV(r.Context(), record); err != nil {
			respondError(w, http.StatusInternalServerError, fmt.Sprintf("publish clv: %v", err))
			return
		}
	}

	respondJSON(w, http.StatusOK, record)
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
