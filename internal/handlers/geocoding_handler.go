package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
)

// GeocodingHandler exposes the location search used by wizard step 3.
type GeocodingHandler struct {
	geocoding interfaces.GeocodingAPI
	logger    arbor.ILogger
}

func NewGeocodingHandler(geocoding interfaces.GeocodingAPI, logger arbor.ILogger) *GeocodingHandler {
	return &GeocodingHandler{
		geocoding: geocoding,
		logger:    logger,
	}
}

// SearchHandler returns location candidates for the q query parameter.
// Queries below the minimum length return an empty list, not an error.
func (h *GeocodingHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	candidates, err := h.geocoding.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Geocoding search failed")
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, candidates)
}
