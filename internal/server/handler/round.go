package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/service"
)

// RoundHandler serves the round endpoints.
type RoundHandler struct {
	placer  *service.PlacementService
	queries *service.QueryService
	logger  *slog.Logger
}

// NewRoundHandler creates a RoundHandler.
func NewRoundHandler(placer *service.PlacementService, queries *service.QueryService, logger *slog.Logger) *RoundHandler {
	return &RoundHandler{
		placer:  placer,
		queries: queries,
		logger:  logHandler(logger, "rounds"),
	}
}

// placeRoundRequest is the POST /api/rounds body.
type placeRoundRequest struct {
	Owner      string       `json:"owner"`
	Site       string       `json:"site"`
	AccountIDs []string     `json:"account_ids"`
	Legs       []domain.Leg `json:"legs"`
	StakeCents int64        `json:"stake_cents"`
}

// PlaceRound runs one placement round synchronously and returns the
// consolidated result.
// POST /api/rounds
func (h *RoundHandler) PlaceRound(w http.ResponseWriter, r *http.Request) {
	var req placeRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	result, err := h.placer.PlaceRound(r.Context(), service.PlaceRequest{
		Owner:      req.Owner,
		Site:       req.Site,
		AccountIDs: req.AccountIDs,
		Legs:       req.Legs,
		StakeCents: req.StakeCents,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "place round failed",
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, roundResponse(result))
}

// GetRound returns one round with its tickets.
// GET /api/rounds/{id}
func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	result, err := h.queries.Round(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(result))
}

// ListRounds returns recent rounds.
// GET /api/rounds
func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.queries.Rounds(r.Context(), parseListOpts(r))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rounds": rounds})
}

// ListRoundTickets returns every ticket of a round.
// GET /api/rounds/{id}/tickets
func (h *RoundHandler) ListRoundTickets(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	tickets, err := h.queries.RoundTickets(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": tickets})
}

func roundResponse(result service.RoundResult) map[string]any {
	return map[string]any{
		"round":        result.Round,
		"tickets":      result.Tickets,
		"success_rate": result.Round.SuccessRatio(),
	}
}

// statusFor maps domain sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotRecoverable), errors.Is(err, domain.ErrRoundTerminal):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownSite):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
