package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/services/famous"
)

// FamousHandler exposes the public famous-person chart pages. These routes
// are anonymous.
type FamousHandler struct {
	famousService *famous.Service
	logger        arbor.ILogger
}

func NewFamousHandler(famousService *famous.Service, logger arbor.ILogger) *FamousHandler {
	return &FamousHandler{
		famousService: famousService,
		logger:        logger,
	}
}

// ListHandler lists famous-chart entries, optionally filtered by the
// category query parameter.
func (h *FamousHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	entries, err := h.famousService.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, entries)
}

// GetHandler returns one famous-chart entry by slug, creating its backend
// chart on first access.
func (h *FamousHandler) GetHandler(w http.ResponseWriter, r *http.Request, slug string) {
	entry, err := h.famousService.Get(r.Context(), slug)
	if err != nil {
		h.logger.Warn().Err(err).Str("slug", slug).Msg("Famous chart lookup failed")
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, entry)
}
