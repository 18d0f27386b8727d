package handler

import (
	"log/slog"
	"net/http"

	"github.com/betswarm/betswarm/internal/platform"
)

// SiteHandler serves the closed set of supported site identifiers.
type SiteHandler struct {
	logger *slog.Logger
}

// NewSiteHandler creates a SiteHandler.
func NewSiteHandler(logger *slog.Logger) *SiteHandler {
	return &SiteHandler{logger: logHandler(logger, "sites")}
}

// siteView is one supported site with its platform family.
type siteView struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

// ListSites returns every supported site.
// GET /api/sites
func (h *SiteHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	names := platform.SupportedSites()
	sites := make([]siteView, 0, len(names))
	for _, name := range names {
		family, err := platform.FamilyForSite(name)
		if err != nil {
			continue
		}
		sites = append(sites, siteView{Name: name, Family: string(family)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sites": sites})
}
