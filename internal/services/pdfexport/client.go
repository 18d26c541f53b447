package pdfexport

import (
	"context"
	"fmt"
	"net/url"

	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// Client implements interfaces.PDFExportAPI against the remote export
// service. An export renders the chart and its interpretations server-side.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a PDF export client.
func NewClient(http *httpclient.Client) interfaces.PDFExportAPI {
	return &Client{http: http}
}

// TriggerExport starts a PDF render job for a chart in the given language.
func (c *Client) TriggerExport(ctx context.Context, chartID, lang string) (*models.ChartJob, error) {
	body := map[string]string{"lang": lang}

	var job models.ChartJob
	if err := c.http.Post(ctx, "/charts/"+chartID+"/export", body, &job); err != nil {
		return nil, fmt.Errorf("failed to trigger PDF export: %w", err)
	}
	return &job, nil
}

// GetExportStatus fetches the current export job status.
func (c *Client) GetExportStatus(ctx context.Context, chartID string) (*models.ChartJob, error) {
	var job models.ChartJob
	if err := c.http.Get(ctx, "/charts/"+chartID+"/export/status", nil, &job); err != nil {
		return nil, fmt.Errorf("failed to get export status: %w", err)
	}
	return &job, nil
}

// DownloadExport fetches the rendered PDF bytes for a completed export.
func (c *Client) DownloadExport(ctx context.Context, chartID string) ([]byte, error) {
	data, err := c.http.GetBytes(ctx, "/charts/"+chartID+"/export/download", url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to download PDF export: %w", err)
	}
	return data, nil
}
