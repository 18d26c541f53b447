package famous

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/models"
)

// memFamous is an in-memory FamousStorage.
type memFamous struct {
	mu      sync.Mutex
	entries map[string]*models.FamousChart
}

func newMemFamous() *memFamous {
	return &memFamous{entries: make(map[string]*models.FamousChart)}
}

func (m *memFamous) UpsertFamous(ctx context.Context, chart *models.FamousChart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *chart
	m.entries[chart.Slug] = &copied
	return nil
}

func (m *memFamous) GetFamousBySlug(ctx context.Context, slug string) (*models.FamousChart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[slug]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (m *memFamous) ListFamous(ctx context.Context, category string) ([]*models.FamousChart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FamousChart
	for _, entry := range m.entries {
		if category == "" || entry.Category == category {
			out = append(out, entry)
		}
	}
	return out, nil
}

// countingChartAPI records chart creations.
type countingChartAPI struct {
	mu      sync.Mutex
	created []*models.ChartSubmission
}

func (c *countingChartAPI) CreateChart(ctx context.Context, submission *models.ChartSubmission) (*models.Chart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, submission)
	return &models.Chart{ID: "famous-chart-1", Status: models.JobStatusProcessing}, nil
}

func (c *countingChartAPI) UpdateChart(ctx context.Context, chartID string, submission *models.ChartSubmission) (*models.Chart, error) {
	return nil, errors.New("not supported")
}

func (c *countingChartAPI) GetChart(ctx context.Context, chartID, language string) (*models.Chart, error) {
	return nil, errors.New("not supported")
}

func (c *countingChartAPI) GetChartStatus(ctx context.Context, chartID string) (*models.ChartJob, error) {
	return nil, errors.New("not supported")
}

func (c *countingChartAPI) DeleteChart(ctx context.Context, chartID string) error { return nil }

func (c *countingChartAPI) ListCharts(ctx context.Context) ([]*models.Chart, error) {
	return nil, nil
}

func (c *countingChartAPI) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.created)
}

const einsteinYAML = `slug: albert-einstein
name: Albert Einstein
category: scientist
birth_datetime: "1879-03-14T11:30"
birth_timezone: Europe/Berlin
latitude: 48.4011
longitude: 9.9876
city: Ulm
country: Germany
`

func writeSeed(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}
}

func testService(t *testing.T, dir string) (*Service, *memFamous, *countingChartAPI) {
	t.Helper()
	storage := newMemFamous()
	api := &countingChartAPI{}
	config := &common.FamousConfig{Dir: dir, Extensions: []string{".yaml", ".yml"}}
	return NewService(storage, api, config, common.GetLogger()), storage, api
}

func TestLoadFromFilesParsesSeeds(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "einstein.yaml", einsteinYAML)
	writeSeed(t, dir, "notes.txt", "not a seed")
	writeSeed(t, dir, "broken.yaml", "slug: [")
	writeSeed(t, dir, "anonymous.yaml", "name: No Slug\n")

	svc, storage, _ := testService(t, dir)

	if err := svc.LoadFromFiles(context.Background()); err != nil {
		t.Fatalf("LoadFromFiles() failed: %v", err)
	}

	entry, err := storage.GetFamousBySlug(context.Background(), "albert-einstein")
	if err != nil || entry == nil {
		t.Fatalf("seeded entry missing: %v", err)
	}
	if entry.Name != "Albert Einstein" || entry.Category != "scientist" {
		t.Errorf("unexpected entry %+v", entry)
	}

	// The malformed and slug-less files were skipped, not stored.
	entries, _ := storage.ListFamous(context.Background(), "")
	if len(entries) != 1 {
		t.Errorf("stored entries = %d, want 1", len(entries))
	}
}

func TestLoadFromFilesMissingDirIsNotAnError(t *testing.T) {
	svc, _, _ := testService(t, filepath.Join(t.TempDir(), "does-not-exist"))
	if err := svc.LoadFromFiles(context.Background()); err != nil {
		t.Errorf("LoadFromFiles() on missing dir failed: %v", err)
	}
}

func TestGetCreatesBackendChartOnce(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "einstein.yaml", einsteinYAML)

	svc, storage, api := testService(t, dir)
	if err := svc.LoadFromFiles(context.Background()); err != nil {
		t.Fatalf("LoadFromFiles() failed: %v", err)
	}

	entry, err := svc.Get(context.Background(), "albert-einstein")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if entry.ChartID != "famous-chart-1" {
		t.Errorf("ChartID = %q, want famous-chart-1", entry.ChartID)
	}
	if api.count() != 1 {
		t.Fatalf("CreateChart called %d times, want 1", api.count())
	}

	// Birth instant resolved in the seed's timezone. Berlin in 1879 used
	// local mean time (+0:53:28), so only the UTC prefix is asserted.
	if got := api.created[0].BirthTimezone; got != "Europe/Berlin" {
		t.Errorf("BirthTimezone = %q, want Europe/Berlin", got)
	}

	// Second access reuses the persisted chart ID.
	if _, err := svc.Get(context.Background(), "albert-einstein"); err != nil {
		t.Fatalf("second Get() failed: %v", err)
	}
	if api.count() != 1 {
		t.Errorf("CreateChart called %d times after second Get, want 1", api.count())
	}

	// A reload keeps the created chart ID.
	if err := svc.LoadFromFiles(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	entry, _ = storage.GetFamousBySlug(context.Background(), "albert-einstein")
	if entry.ChartID != "famous-chart-1" {
		t.Errorf("ChartID after reload = %q, want famous-chart-1", entry.ChartID)
	}
}

func TestGetUnknownSlug(t *testing.T) {
	svc, _, _ := testService(t, t.TempDir())
	if _, err := svc.Get(context.Background(), "nobody"); err == nil {
		t.Error("Get() for unknown slug succeeded")
	}
}
