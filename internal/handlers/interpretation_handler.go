package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/services/interpretations"
)

// InterpretationHandler exposes the AI reading sections for a chart. Access
// requires a verified email; unverified accounts get a 403 with a hint to
// verify.
type InterpretationHandler struct {
	interpretations *interpretations.Service
	session         interfaces.SessionProvider
	logger          arbor.ILogger
}

func NewInterpretationHandler(service *interpretations.Service, session interfaces.SessionProvider, logger arbor.ILogger) *InterpretationHandler {
	return &InterpretationHandler{
		interpretations: service,
		session:         session,
		logger:          logger,
	}
}

// GetHandler returns interpretations for a chart in the requested language.
func (h *InterpretationHandler) GetHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	set, err := h.interpretations.Get(r.Context(), chartID, r.URL.Query().Get("lang"))
	if err != nil {
		h.writeInterpretationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, set)
}

type regenerateRequest struct {
	Sections []string `json:"sections"`
}

// RegenerateHandler regenerates reading sections. An empty sections list
// regenerates everything.
func (h *InterpretationHandler) RegenerateHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	var req regenerateRequest
	if r.ContentLength > 0 && !DecodeJSON(w, r, &req) {
		return
	}

	set, err := h.interpretations.Regenerate(r.Context(), chartID, r.URL.Query().Get("lang"), req.Sections)
	if err != nil {
		h.writeInterpretationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, set)
}

func (h *InterpretationHandler) writeInterpretationError(w http.ResponseWriter, err error) {
	if errors.Is(err, interpretations.ErrVerificationRequired) {
		WriteError(w, http.StatusForbidden, err.Error())
		return
	}
	WriteBackendError(w, err)
}
