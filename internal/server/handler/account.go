package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/betswarm/betswarm/internal/domain"
	"github.com/betswarm/betswarm/internal/service"
)

// AccountHandler serves the read-only account directory view.
type AccountHandler struct {
	queries *service.QueryService
	logger  *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(queries *service.QueryService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		queries: queries,
		logger:  logHandler(logger, "accounts"),
	}
}

// accountView is the directory entry exposed over the API. Secret ciphertext
// and session artifacts never leave the process.
type accountView struct {
	ID           string     `json:"id"`
	Site         string     `json:"site"`
	Family       string     `json:"family"`
	Username     string     `json:"username"`
	BalanceCents int64      `json:"balance_cents"`
	BalanceAt    *time.Time `json:"balance_at,omitempty"`
	Active       bool       `json:"active"`
}

// ListAccounts returns the account directory, optionally filtered by site,
// family, and active flag.
// GET /api/accounts
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.AccountFilter{
		Site:   q.Get("site"),
		Family: domain.PlatformFamily(q.Get("family")),
	}
	if v := q.Get("active"); v != "" {
		if active, err := strconv.ParseBool(v); err == nil && active {
			filter.ActiveOnly = true
		}
	}

	accounts, err := h.queries.Accounts(r.Context(), filter)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		v := accountView{
			ID:           a.ID,
			Site:         a.Site,
			Family:       string(a.Family),
			Username:     a.Username,
			BalanceCents: a.BalanceCents,
			Active:       a.Active,
		}
		if a.BalanceAt != nil {
			v.BalanceAt = a.BalanceAt
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": views})
}
