package interfaces

import (
	"context"

	"github.com/siderealab/siderea/internal/models"
)

// ChartAPI is the remote Chart API consumed by the submission pipeline, the
// chart detail view, and the poller.
type ChartAPI interface {
	CreateChart(ctx context.Context, submission *models.ChartSubmission) (*models.Chart, error)
	UpdateChart(ctx context.Context, chartID string, submission *models.ChartSubmission) (*models.Chart, error)
	GetChart(ctx context.Context, chartID, language string) (*models.Chart, error)
	GetChartStatus(ctx context.Context, chartID string) (*models.ChartJob, error)
	DeleteChart(ctx context.Context, chartID string) error
	ListCharts(ctx context.Context) ([]*models.Chart, error)
}

// GeocodingAPI is the remote geocoding search consumed by wizard step 3.
type GeocodingAPI interface {
	Search(ctx context.Context, query string) ([]*models.GeocodeCandidate, error)
}

// InterpretationsAPI is the remote AI-interpretation service. Language is a
// stateless query parameter, not a stored preference.
type InterpretationsAPI interface {
	GetInterpretations(ctx context.Context, chartID, language string) (*models.InterpretationSet, error)
	RegenerateInterpretations(ctx context.Context, chartID, language string, sections []string) (*models.InterpretationSet, error)
}

// PDFExportAPI is the remote PDF export service: trigger, poll, download.
type PDFExportAPI interface {
	TriggerExport(ctx context.Context, chartID, language string) (*models.ChartJob, error)
	GetExportStatus(ctx context.Context, chartID string) (*models.ChartJob, error)
	DownloadExport(ctx context.Context, chartID string) ([]byte, error)
}
