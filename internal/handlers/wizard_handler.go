package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/models"
	"github.com/siderealab/siderea/internal/services/wizardsvc"
	"github.com/siderealab/siderea/internal/wizard"
)

// WizardHandler exposes the chart-creation wizard as a session API. Every
// step transition round-trips through the server-side state machine.
type WizardHandler struct {
	wizardService *wizardsvc.Service
	logger        arbor.ILogger
}

func NewWizardHandler(wizardService *wizardsvc.Service, logger arbor.ILogger) *WizardHandler {
	return &WizardHandler{
		wizardService: wizardService,
		logger:        logger,
	}
}

// sessionResponse is the wire shape of a wizard session.
type sessionResponse struct {
	ID        string                   `json:"id"`
	ChartID   string                   `json:"chart_id,omitempty"`
	Step      int                      `json:"step"`
	StepLabel string                   `json:"step_label"`
	Form      *models.WizardFormState  `json:"form"`
	Result    *models.ValidationResult `json:"result,omitempty"`
}

func toSessionResponse(session *models.WizardSession, result *models.ValidationResult) *sessionResponse {
	return &sessionResponse{
		ID:        session.ID,
		ChartID:   session.ChartID,
		Step:      int(session.Step),
		StepLabel: session.Step.String(),
		Form:      session.Form,
		Result:    result,
	}
}

// CreateHandler starts a new wizard session. An optional chart_id query
// parameter starts the edit variant prefilled from that chart.
func (h *WizardHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var (
		session *models.WizardSession
		err     error
	)

	if chartID := r.URL.Query().Get("chart_id"); chartID != "" {
		session, err = h.wizardService.CreateEdit(r.Context(), chartID)
	} else {
		session, err = h.wizardService.Create(r.Context())
	}

	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to create wizard session")
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toSessionResponse(session, nil))
}

// GetHandler returns the current state of a wizard session.
func (h *WizardHandler) GetHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.wizardService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, toSessionResponse(session, nil))
}

// UpdateFormHandler replaces the session's form with the submitted body
// without moving steps. Values are validated on Next, not here.
func (h *WizardHandler) UpdateFormHandler(w http.ResponseWriter, r *http.Request, id string) {
	var form models.WizardFormState
	if !DecodeJSON(w, r, &form) {
		return
	}

	session, err := h.wizardService.UpdateForm(r.Context(), id, &form)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, toSessionResponse(session, nil))
}

// NextHandler validates the current step and advances on success. A failed
// validation returns 200 with the field errors; the step does not move.
func (h *WizardHandler) NextHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, result, err := h.wizardService.Next(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, toSessionResponse(session, result))
}

// PreviousHandler moves back one step unconditionally.
func (h *WizardHandler) PreviousHandler(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.wizardService.Previous(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, toSessionResponse(session, nil))
}

// JumpHandler moves directly to an earlier step (review edit links).
func (h *WizardHandler) JumpHandler(w http.ResponseWriter, r *http.Request, id string) {
	stepStr := r.URL.Query().Get("step")
	step, err := strconv.Atoi(stepStr)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "step query parameter must be an integer")
		return
	}

	session, err := h.wizardService.JumpTo(r.Context(), id, models.WizardStep(step))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, toSessionResponse(session, nil))
}

// SubmitHandler dispatches the session to the Chart API. Validation failures
// come back as 422 with per-field errors; server failures preserve the
// session so the user can retry.
func (h *WizardHandler) SubmitHandler(w http.ResponseWriter, r *http.Request, id string) {
	job, recalculating, err := h.wizardService.Submit(r.Context(), id)
	if err != nil {
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			WriteJSON(w, http.StatusUnprocessableEntity, verr.Result)
			return
		}

		var serr *wizard.SubmitError
		if errors.As(err, &serr) {
			h.logger.Warn().Err(serr).Str("session_id", id).Msg("Wizard submission failed")
			WriteBackendError(w, serr.Err)
			return
		}

		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"job":           job,
		"recalculating": recalculating,
	})
}

// DeleteHandler abandons a wizard session and discards its draft.
func (h *WizardHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.wizardService.Abandon(r.Context(), id); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteSuccess(w, "wizard session abandoned")
}
