package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/language"
)

// LanguageHandler receives language change signals from the UI and feeds the
// reconciler through the event bus. The language value itself is not stored
// server-side; it is a signal, not a preference.
type LanguageHandler struct {
	events     interfaces.EventService
	reconciler *language.Reconciler
	logger     arbor.ILogger
}

func NewLanguageHandler(events interfaces.EventService, reconciler *language.Reconciler, logger arbor.ILogger) *LanguageHandler {
	return &LanguageHandler{
		events:     events,
		reconciler: reconciler,
		logger:     logger,
	}
}

type languageRequest struct {
	Language string `json:"language"`
}

// ChangeHandler publishes a language change. Region-only changes (en-US to
// en-GB) reconcile to no reloads downstream.
func (h *LanguageHandler) ChangeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req languageRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Language == "" {
		WriteError(w, http.StatusBadRequest, "language is required")
		return
	}

	if err := h.events.PublishSync(r.Context(), interfaces.Event{
		Type:    interfaces.EventLanguageChanged,
		Payload: req.Language,
	}); err != nil {
		h.logger.Warn().Err(err).Str("language", req.Language).Msg("Language change handlers reported errors")
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"language": language.Normalize(req.Language),
	})
}

// CurrentHandler reports the last-loaded language markers, mainly for
// debugging and tests.
func (h *LanguageHandler) CurrentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"chart":           h.reconciler.LastLoaded(language.SourceChart),
		"interpretations": h.reconciler.LastLoaded(language.SourceInterpretations),
	})
}
