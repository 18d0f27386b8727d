package handler

import (
	"log/slog"
	"net/http"

	"github.com/betswarm/betswarm/internal/service"
)

// TicketHandler serves the per-ticket endpoints.
type TicketHandler struct {
	placer  *service.PlacementService
	queries *service.QueryService
	logger  *slog.Logger
}

// NewTicketHandler creates a TicketHandler.
func NewTicketHandler(placer *service.PlacementService, queries *service.QueryService, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		placer:  placer,
		queries: queries,
		logger:  logHandler(logger, "tickets"),
	}
}

// GetPayload returns the raw platform payload recorded for a ticket.
// GET /api/tickets/{id}/payload
func (h *TicketHandler) GetPayload(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	data, err := h.queries.TicketPayload(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Retry reruns the placement pipeline for one failed, recoverable ticket.
// POST /api/tickets/{id}/retry
func (h *TicketHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	result, err := h.placer.RetryTicket(r.Context(), id)
	if err != nil {
		h.logger.WarnContext(r.Context(), "ticket retry rejected",
			slog.String("ticket_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, roundResponse(result))
}
