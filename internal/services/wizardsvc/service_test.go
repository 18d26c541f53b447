package wizardsvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
	"github.com/siderealab/siderea/internal/wizard"
)

// memDrafts is an in-memory DraftStorage.
type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]*models.WizardSession
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: make(map[string]*models.WizardSession)}
}

func (m *memDrafts) SaveDraft(ctx context.Context, session *models.WizardSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *session
	copied.Form = session.Form.Clone()
	m.drafts[session.ID] = &copied
	return nil
}

func (m *memDrafts) GetDraft(ctx context.Context, id string) (*models.WizardSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.drafts[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	copied.Form = session.Form.Clone()
	return &copied, nil
}

func (m *memDrafts) DeleteDraft(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

func (m *memDrafts) ListDrafts(ctx context.Context) ([]*models.WizardSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.WizardSession, 0, len(m.drafts))
	for _, s := range m.drafts {
		out = append(out, s)
	}
	return out, nil
}

func (m *memDrafts) DeleteExpiredDrafts(ctx context.Context, ttl time.Duration, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, s := range m.drafts {
		if s.Expired(ttl, now) {
			delete(m.drafts, id)
			count++
		}
	}
	return count, nil
}

func (m *memDrafts) backdate(id string, updatedAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.drafts[id]; ok {
		s.UpdatedAt = updatedAt
	}
}

// fakeChartAPI records submissions and serves stored charts.
type fakeChartAPI struct {
	mu       sync.Mutex
	charts   map[string]*models.Chart
	created  []*models.ChartSubmission
	updated  []*models.ChartSubmission
	createID string
}

func newFakeChartAPI() *fakeChartAPI {
	return &fakeChartAPI{charts: make(map[string]*models.Chart), createID: "chart-1"}
}

func (f *fakeChartAPI) CreateChart(ctx context.Context, submission *models.ChartSubmission) (*models.Chart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, submission)
	return &models.Chart{ID: f.createID, Status: models.JobStatusProcessing}, nil
}

func (f *fakeChartAPI) UpdateChart(ctx context.Context, chartID string, submission *models.ChartSubmission) (*models.Chart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, submission)
	return &models.Chart{ID: chartID, Status: models.JobStatusProcessing}, nil
}

func (f *fakeChartAPI) GetChart(ctx context.Context, chartID, language string) (*models.Chart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chart, ok := f.charts[chartID]
	if !ok {
		return nil, errors.New("chart not found")
	}
	return chart, nil
}

func (f *fakeChartAPI) GetChartStatus(ctx context.Context, chartID string) (*models.ChartJob, error) {
	return &models.ChartJob{ID: chartID, Status: models.JobStatusProcessing}, nil
}

func (f *fakeChartAPI) DeleteChart(ctx context.Context, chartID string) error { return nil }

func (f *fakeChartAPI) ListCharts(ctx context.Context) ([]*models.Chart, error) { return nil, nil }

// recordingEvents captures published events.
type recordingEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *recordingEvents) Subscribe(eventType interfaces.EventType, handler interfaces.EventHandler) error {
	return nil
}

func (r *recordingEvents) Publish(ctx context.Context, event interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) PublishSync(ctx context.Context, event interfaces.Event) error {
	return r.Publish(ctx, event)
}

func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) byType(eventType interfaces.EventType) []interfaces.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interfaces.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func testConfig() *common.WizardConfig {
	return &common.WizardConfig{
		SessionTTL:      "2h",
		DefaultTimezone: "America/Sao_Paulo",
	}
}

func fillForm(form *models.WizardFormState) {
	form.PersonName = "Test Person"
	form.BirthDateTime = "1990-06-15T14:30"
	form.BirthTimezone = "America/Sao_Paulo"
	form.City = "Sao Paulo"
	form.SetCoordinates(-23.5505, -46.6333)
}

func advanceToReview(t *testing.T, svc *Service, id string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		_, result, err := svc.Next(context.Background(), id)
		if err != nil {
			t.Fatalf("Next() failed: %v", err)
		}
		if !result.Valid {
			t.Fatalf("Next() blocked: %v", result.FieldErrors)
		}
	}
}

func TestCreateSubmitPublishesEvent(t *testing.T) {
	drafts := newMemDrafts()
	api := newFakeChartAPI()
	events := &recordingEvents{}
	svc := NewService(drafts, api, events, testConfig(), common.GetLogger())

	session, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	form := session.Form.Clone()
	fillForm(form)
	if _, err := svc.UpdateForm(context.Background(), session.ID, form); err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}

	advanceToReview(t, svc, session.ID)

	job, recalculating, err := svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if job.ID != "chart-1" {
		t.Errorf("job ID = %q, want chart-1", job.ID)
	}
	if !recalculating {
		t.Error("creation submit reported recalculating=false")
	}

	// June in Sao Paulo is UTC-3: 14:30 local resolves to 17:30Z.
	if len(api.created) != 1 {
		t.Fatalf("CreateChart called %d times, want 1", len(api.created))
	}
	if got := api.created[0].BirthUTC; got != "1990-06-15T17:30:00Z" {
		t.Errorf("BirthUTC = %q, want 1990-06-15T17:30:00Z", got)
	}

	// Draft removed, event published.
	if draft, _ := drafts.GetDraft(context.Background(), session.ID); draft != nil {
		t.Error("draft still present after submit")
	}
	submitted := events.byType(interfaces.EventChartSubmitted)
	if len(submitted) != 1 {
		t.Fatalf("chart_submitted events = %d, want 1", len(submitted))
	}
	payload, ok := submitted[0].Payload.(SubmittedEvent)
	if !ok {
		t.Fatalf("payload type = %T, want SubmittedEvent", submitted[0].Payload)
	}
	if payload.ChartID != "chart-1" || payload.SessionID != session.ID {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestUpdateFormReplacesWholeForm(t *testing.T) {
	svc := NewService(newMemDrafts(), newFakeChartAPI(), &recordingEvents{}, testConfig(), common.GetLogger())

	session, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	form := session.Form.Clone()
	fillForm(form)
	if _, err := svc.UpdateForm(context.Background(), session.ID, form); err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}

	// The whole form is the unit of update: a body carrying only the name
	// clears everything else.
	partial := &models.WizardFormState{PersonName: "Renamed Person"}
	updated, err := svc.UpdateForm(context.Background(), session.ID, partial)
	if err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}
	if updated.Form.PersonName != "Renamed Person" {
		t.Errorf("PersonName = %q, want Renamed Person", updated.Form.PersonName)
	}
	if updated.Form.BirthDateTime != "" || updated.Form.City != "" {
		t.Errorf("omitted fields survived the update: %+v", updated.Form)
	}
}

func TestSubmitBlockedBeforeReview(t *testing.T) {
	svc := NewService(newMemDrafts(), newFakeChartAPI(), &recordingEvents{}, testConfig(), common.GetLogger())

	session, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	_, _, err = svc.Submit(context.Background(), session.ID)
	var verr *wizard.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Submit() at step 1 returned %v, want ValidationError", err)
	}
}

func TestEditPersonalChangeSkipsRecalculation(t *testing.T) {
	api := newFakeChartAPI()
	api.charts["chart-9"] = &models.Chart{
		ID:            "chart-9",
		PersonName:    "Original Name",
		BirthUTC:      "1990-06-15T17:30:00Z",
		BirthTimezone: "America/Sao_Paulo",
		Latitude:      -23.5505,
		Longitude:     -46.6333,
		City:          "Sao Paulo",
		HouseSystem:   models.DefaultHouseSystem,
		ZodiacType:    models.DefaultZodiacType,
		NodeType:      models.DefaultNodeType,
		Status:        models.JobStatusCompleted,
	}

	events := &recordingEvents{}
	svc := NewService(newMemDrafts(), api, events, testConfig(), common.GetLogger())

	session, err := svc.CreateEdit(context.Background(), "chart-9")
	if err != nil {
		t.Fatalf("CreateEdit() failed: %v", err)
	}
	if session.Form.BirthDateTime != "1990-06-15T14:30" {
		t.Errorf("prefilled BirthDateTime = %q, want 1990-06-15T14:30", session.Form.BirthDateTime)
	}

	// Rename only; birth data untouched.
	form := session.Form.Clone()
	form.PersonName = "Renamed Person"
	if _, err := svc.UpdateForm(context.Background(), session.ID, form); err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}

	advanceToReview(t, svc, session.ID)

	_, recalculating, err := svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if recalculating {
		t.Error("personal-only edit reported recalculating=true")
	}
	if len(api.updated) != 1 {
		t.Fatalf("UpdateChart called %d times, want 1", len(api.updated))
	}
}

func TestEditBirthDataChangeRecalculates(t *testing.T) {
	api := newFakeChartAPI()
	api.charts["chart-9"] = &models.Chart{
		ID:            "chart-9",
		PersonName:    "Original Name",
		BirthUTC:      "1990-06-15T17:30:00Z",
		BirthTimezone: "America/Sao_Paulo",
		Latitude:      -23.5505,
		Longitude:     -46.6333,
		City:          "Sao Paulo",
		HouseSystem:   models.DefaultHouseSystem,
		ZodiacType:    models.DefaultZodiacType,
		NodeType:      models.DefaultNodeType,
		Status:        models.JobStatusCompleted,
	}

	svc := NewService(newMemDrafts(), api, &recordingEvents{}, testConfig(), common.GetLogger())

	session, err := svc.CreateEdit(context.Background(), "chart-9")
	if err != nil {
		t.Fatalf("CreateEdit() failed: %v", err)
	}

	form := session.Form.Clone()
	form.BirthDateTime = "1990-06-15T09:00"
	if _, err := svc.UpdateForm(context.Background(), session.ID, form); err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}

	advanceToReview(t, svc, session.ID)

	_, recalculating, err := svc.Submit(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if !recalculating {
		t.Error("birth-data edit reported recalculating=false")
	}
}

func TestMachineRestoredFromDraftAfterRestart(t *testing.T) {
	drafts := newMemDrafts()
	api := newFakeChartAPI()

	svc := NewService(drafts, api, &recordingEvents{}, testConfig(), common.GetLogger())
	session, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	form := session.Form.Clone()
	fillForm(form)
	if _, err := svc.UpdateForm(context.Background(), session.ID, form); err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}
	if _, result, err := svc.Next(context.Background(), session.ID); err != nil || !result.Valid {
		t.Fatalf("Next() failed: %v %v", err, result)
	}

	// Fresh service over the same drafts simulates a process restart.
	restarted := NewService(drafts, api, &recordingEvents{}, testConfig(), common.GetLogger())
	restored, err := restarted.Get(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Get() after restart failed: %v", err)
	}
	if restored.Step != models.StepDateTime {
		t.Errorf("restored step = %d, want %d", restored.Step, models.StepDateTime)
	}
	if restored.Form.PersonName != "Test Person" {
		t.Errorf("restored form lost person name, got %q", restored.Form.PersonName)
	}
}

func TestCleanupExpiredRemovesIdleSessions(t *testing.T) {
	drafts := newMemDrafts()
	svc := NewService(drafts, newFakeChartAPI(), &recordingEvents{}, testConfig(), common.GetLogger())

	session, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	keep, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	drafts.backdate(session.ID, time.Now().Add(-3*time.Hour))

	removed, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("CleanupExpired() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := svc.Get(context.Background(), session.ID); err == nil {
		t.Error("expired session still retrievable")
	}
	if _, err := svc.Get(context.Background(), keep.ID); err != nil {
		t.Errorf("fresh session lost: %v", err)
	}
}
