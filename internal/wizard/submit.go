// -----------------------------------------------------------------------
// Submission Pipeline - Form state to Chart API payload
// -----------------------------------------------------------------------

package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// ValidationError is returned when the accumulated form state fails
// validation at submission time. It is surfaced inline per field, never as a
// global error.
type ValidationError struct {
	Result *models.ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form validation failed: %d field error(s)", len(e.Result.FieldErrors))
}

// SubmitError is a general (non-field) submission failure derived from the
// server response. Form values are never cleared on this path; the user may
// retry without re-entering data.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Pipeline converts wizard form state into a Chart API payload and dispatches
// the create/update request.
type Pipeline struct {
	charts    interfaces.ChartAPI
	validator *Validator
	logger    arbor.ILogger
}

// NewPipeline creates a submission pipeline
func NewPipeline(charts interfaces.ChartAPI, validator *Validator, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		charts:    charts,
		validator: validator,
		logger:    logger,
	}
}

// NormalizeBirthInstant resolves the wizard's local-civil datetime string in
// the selected birth timezone and returns the absolute instant in UTC.
//
// The selected zone is used, never the process zone: the subject's birth
// location usually differs from wherever this service happens to run.
func NormalizeBirthInstant(form *models.WizardFormState) (time.Time, error) {
	loc, err := time.LoadLocation(form.BirthTimezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("unknown birth timezone %q: %w", form.BirthTimezone, err)
	}

	local, err := time.ParseInLocation(models.BirthDateTimeLayout, form.BirthDateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse birth datetime %q: %w", form.BirthDateTime, err)
	}

	return local.UTC(), nil
}

// BuildSubmission validates the full form and builds the API payload.
func (p *Pipeline) BuildSubmission(form *models.WizardFormState) (*models.ChartSubmission, error) {
	result := p.validator.ValidateAll(form)
	if !result.Valid {
		return nil, &ValidationError{Result: result}
	}

	instant, err := NormalizeBirthInstant(form)
	if err != nil {
		return nil, &ValidationError{Result: &models.ValidationResult{
			Valid:       false,
			FieldErrors: models.FieldErrors{"birth_datetime": err.Error()},
		}}
	}

	return &models.ChartSubmission{
		PersonName:    form.PersonName,
		Gender:        form.Gender,
		BirthUTC:      instant.Format(time.RFC3339),
		BirthTimezone: form.BirthTimezone,
		Latitude:      *form.Latitude,
		Longitude:     *form.Longitude,
		City:          form.City,
		Country:       form.Country,
		Notes:         form.Notes,
		HouseSystem:   form.HouseSystem,
		ZodiacType:    form.ZodiacType,
		NodeType:      form.NodeType,
	}, nil
}

// Submit creates a new chart. On success the returned job descriptor is
// handed to the poller by the caller.
func (p *Pipeline) Submit(ctx context.Context, form *models.WizardFormState) (*models.ChartJob, error) {
	submission, err := p.BuildSubmission(form)
	if err != nil {
		return nil, err
	}

	chart, err := p.charts.CreateChart(ctx, submission)
	if err != nil {
		p.logger.Error().Err(err).Str("person", submission.PersonName).Msg("Chart creation failed")
		return nil, &SubmitError{Message: "failed to create chart", Err: err}
	}

	p.logger.Info().
		Str("chart_id", chart.ID).
		Str("status", string(chart.Status)).
		Msg("Chart submitted")

	return chart.Job(), nil
}

// SubmitUpdate updates an existing chart. The full record is submitted; the
// returned recalculating flag reports whether birth data or technical
// settings changed relative to the originally loaded record, which is what
// forces a server-side recalculation.
func (p *Pipeline) SubmitUpdate(ctx context.Context, chartID string, form *models.WizardFormState, original *models.ChartSubmission) (*models.ChartJob, bool, error) {
	submission, err := p.BuildSubmission(form)
	if err != nil {
		return nil, false, err
	}

	recalculating := models.RequiresRecalculation(original, submission)

	chart, err := p.charts.UpdateChart(ctx, chartID, submission)
	if err != nil {
		p.logger.Error().Err(err).Str("chart_id", chartID).Msg("Chart update failed")
		return nil, recalculating, &SubmitError{Message: "failed to update chart", Err: err}
	}

	p.logger.Info().
		Str("chart_id", chart.ID).
		Bool("recalculating", recalculating).
		Msg("Chart updated")

	return chart.Job(), recalculating, nil
}
