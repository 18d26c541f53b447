package wizardsvc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
	"github.com/siderealab/siderea/internal/wizard"
)

// SubmittedEvent is the payload published on EventChartSubmitted. The chart
// watcher subscribes to it and starts polling the new job.
type SubmittedEvent struct {
	ChartID       string `json:"chart_id"`
	SessionID     string `json:"session_id"`
	Recalculating bool   `json:"recalculating"`
}

// Service owns the live wizard sessions. Each session wraps a state machine
// and is persisted as a draft after every mutation so a restart resumes
// mid-wizard. All step transitions go through here.
type Service struct {
	drafts    interfaces.DraftStorage
	charts    interfaces.ChartAPI
	events    interfaces.EventService
	pipeline  *wizard.Pipeline
	validator *wizard.Validator
	config    *common.WizardConfig
	logger    arbor.ILogger

	mu       sync.Mutex
	machines map[string]*wizard.Machine // sessionID -> live machine
}

// NewService creates the wizard session service.
func NewService(drafts interfaces.DraftStorage, charts interfaces.ChartAPI, events interfaces.EventService, config *common.WizardConfig, logger arbor.ILogger) *Service {
	validator := wizard.NewValidator()
	return &Service{
		drafts:    drafts,
		charts:    charts,
		events:    events,
		pipeline:  wizard.NewPipeline(charts, validator, logger),
		validator: validator,
		config:    config,
		logger:    logger,
		machines:  make(map[string]*wizard.Machine),
	}
}

// Create starts a new chart-creation wizard session.
func (s *Service) Create(ctx context.Context) (*models.WizardSession, error) {
	form := models.NewWizardFormState(s.config.DefaultTimezone)
	machine := wizard.NewMachine(form, s.validator)

	now := time.Now()
	session := &models.WizardSession{
		ID:        common.NewSessionID(),
		Step:      machine.Step(),
		Form:      form,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.machines[session.ID] = machine
	s.mu.Unlock()

	if err := s.drafts.SaveDraft(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist wizard session: %w", err)
	}

	s.logger.Info().Str("session_id", session.ID).Msg("Wizard session created")
	return session, nil
}

// CreateEdit starts an edit wizard for an existing chart, prefilled from the
// loaded record. The wizard begins at the first step like a fresh creation.
func (s *Service) CreateEdit(ctx context.Context, chartID string) (*models.WizardSession, error) {
	chart, err := s.charts.GetChart(ctx, chartID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load chart for editing: %w", err)
	}

	form, err := formFromChart(chart)
	if err != nil {
		return nil, err
	}
	machine := wizard.NewMachine(form, s.validator)

	now := time.Now()
	session := &models.WizardSession{
		ID:        common.NewSessionID(),
		ChartID:   chartID,
		Step:      machine.Step(),
		Form:      form,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.machines[session.ID] = machine
	s.mu.Unlock()

	if err := s.drafts.SaveDraft(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist wizard session: %w", err)
	}

	s.logger.Info().Str("session_id", session.ID).Str("chart_id", chartID).Msg("Edit wizard session created")
	return session, nil
}

// Get returns a live session, restoring its machine from the persisted draft
// when the process has restarted since creation.
func (s *Service) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	session, machine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	session.Step = machine.Step()
	session.Form = machine.Form()
	return session, nil
}

// UpdateForm replaces the session's form with the submitted state and
// persists the draft. Clients send the whole form on every change; a partial
// body clears the fields it omits. The current step does not change;
// validation happens on Next.
func (s *Service) UpdateForm(ctx context.Context, id string, form *models.WizardFormState) (*models.WizardSession, error) {
	session, machine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	*machine.Form() = *form.Clone()

	return s.save(ctx, session, machine)
}

// Next validates the current step and advances on success. The returned
// result carries the inline field errors on failure.
func (s *Service) Next(ctx context.Context, id string) (*models.WizardSession, *models.ValidationResult, error) {
	session, machine, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result := machine.Next()
	session, err = s.save(ctx, session, machine)
	if err != nil {
		return nil, nil, err
	}
	return session, result, nil
}

// Previous moves back one step unconditionally.
func (s *Service) Previous(ctx context.Context, id string) (*models.WizardSession, error) {
	session, machine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	machine.Previous()
	return s.save(ctx, session, machine)
}

// JumpTo moves directly to an earlier step; the review screen's edit links
// use this.
func (s *Service) JumpTo(ctx context.Context, id string, step models.WizardStep) (*models.WizardSession, error) {
	session, machine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := machine.JumpTo(step); err != nil {
		return nil, err
	}
	return s.save(ctx, session, machine)
}

// Submit dispatches the session's form to the Chart API. Creation sessions
// create; edit sessions update and report whether the change recalculates.
// On success the draft is removed and EventChartSubmitted is published.
func (s *Service) Submit(ctx context.Context, id string) (*models.ChartJob, bool, error) {
	session, machine, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if result := machine.ReadyToSubmit(); !result.Valid {
		return nil, false, &wizard.ValidationError{Result: result}
	}

	var job *models.ChartJob
	recalculating := true

	if session.ChartID != "" {
		// Edit: rebuild the original baseline from the stored record for
		// change detection.
		original, err := s.originalSubmission(ctx, session.ChartID)
		if err != nil {
			return nil, false, err
		}
		job, recalculating, err = s.pipeline.SubmitUpdate(ctx, session.ChartID, machine.Form(), original)
		if err != nil {
			return nil, recalculating, err
		}
	} else {
		job, err = s.pipeline.Submit(ctx, machine.Form())
		if err != nil {
			return nil, false, err
		}
	}

	s.mu.Lock()
	delete(s.machines, id)
	s.mu.Unlock()

	if err := s.drafts.DeleteDraft(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("Failed to remove submitted draft")
	}

	s.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventChartSubmitted,
		Payload: SubmittedEvent{
			ChartID:       job.ID,
			SessionID:     id,
			Recalculating: recalculating,
		},
	})

	return job, recalculating, nil
}

// Abandon discards a session and its draft.
func (s *Service) Abandon(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.machines, id)
	s.mu.Unlock()

	return s.drafts.DeleteDraft(ctx, id)
}

// CleanupExpired removes sessions idle past the configured TTL. The
// scheduler runs this on the cleanup cron.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	ttl := s.config.SessionTTLDuration()
	deleted, err := s.drafts.DeleteExpiredDrafts(ctx, ttl, time.Now())
	if err != nil {
		return 0, err
	}

	// Drop live machines whose drafts are gone.
	s.mu.Lock()
	for id := range s.machines {
		draft, err := s.drafts.GetDraft(ctx, id)
		if err == nil && draft == nil {
			delete(s.machines, id)
		}
	}
	s.mu.Unlock()

	return deleted, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.WizardSession, *wizard.Machine, error) {
	session, err := s.drafts.GetDraft(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, fmt.Errorf("wizard session not found: %s", id)
	}
	if session.Expired(s.config.SessionTTLDuration(), time.Now()) {
		s.Abandon(ctx, id)
		return nil, nil, fmt.Errorf("wizard session expired: %s", id)
	}

	s.mu.Lock()
	machine, ok := s.machines[id]
	if !ok {
		machine, err = wizard.Restore(session.Step, session.Form, s.validator)
		if err == nil {
			s.machines[id] = machine
		}
	}
	s.mu.Unlock()

	if err != nil {
		return nil, nil, fmt.Errorf("failed to restore wizard session: %w", err)
	}
	return session, machine, nil
}

func (s *Service) save(ctx context.Context, session *models.WizardSession, machine *wizard.Machine) (*models.WizardSession, error) {
	session.Step = machine.Step()
	session.Form = machine.Form()
	session.UpdatedAt = time.Now()

	if err := s.drafts.SaveDraft(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist wizard session: %w", err)
	}
	return session, nil
}

func (s *Service) originalSubmission(ctx context.Context, chartID string) (*models.ChartSubmission, error) {
	chart, err := s.charts.GetChart(ctx, chartID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load original chart: %w", err)
	}
	return chart.Submission(), nil
}

// formFromChart prefills an edit wizard from a loaded chart record. The
// stored UTC instant is rendered back as local-civil time in the chart's
// birth timezone.
func formFromChart(chart *models.Chart) (*models.WizardFormState, error) {
	instant, err := time.Parse(time.RFC3339, chart.BirthUTC)
	if err != nil {
		return nil, fmt.Errorf("chart has malformed birth instant %q: %w", chart.BirthUTC, err)
	}

	loc, err := time.LoadLocation(chart.BirthTimezone)
	if err != nil {
		return nil, fmt.Errorf("chart has unknown birth timezone %q: %w", chart.BirthTimezone, err)
	}

	form := &models.WizardFormState{
		PersonName:    chart.PersonName,
		Gender:        chart.Gender,
		BirthDateTime: instant.In(loc).Format(models.BirthDateTimeLayout),
		BirthTimezone: chart.BirthTimezone,
		City:          chart.City,
		Country:       chart.Country,
		Notes:         chart.Notes,
		HouseSystem:   chart.HouseSystem,
		ZodiacType:    chart.ZodiacType,
		NodeType:      chart.NodeType,
	}
	form.SetCoordinates(chart.Latitude, chart.Longitude)
	return form, nil
}
