package charts

import (
	"context"
	"fmt"
	"net/url"

	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
)

// Client implements interfaces.ChartAPI against the remote Chart API.
type Client struct {
	http *httpclient.Client
}

// NewClient creates a Chart API client.
func NewClient(http *httpclient.Client) interfaces.ChartAPI {
	return &Client{http: http}
}

// CreateChart submits a new chart calculation. The response carries the job
// in processing state.
func (c *Client) CreateChart(ctx context.Context, submission *models.ChartSubmission) (*models.Chart, error) {
	var chart models.Chart
	if err := c.http.Post(ctx, "/charts", submission, &chart); err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}
	return &chart, nil
}

// UpdateChart updates an existing chart. Birth-data changes put the chart
// back into processing.
func (c *Client) UpdateChart(ctx context.Context, chartID string, submission *models.ChartSubmission) (*models.Chart, error) {
	var chart models.Chart
	if err := c.http.Put(ctx, "/charts/"+chartID, submission, &chart); err != nil {
		return nil, fmt.Errorf("failed to update chart: %w", err)
	}
	return &chart, nil
}

// GetChart fetches a chart with labels rendered in the given language.
func (c *Client) GetChart(ctx context.Context, chartID, language string) (*models.Chart, error) {
	params := url.Values{}
	if language != "" {
		params.Set("lang", language)
	}

	var chart models.Chart
	if err := c.http.Get(ctx, "/charts/"+chartID, params, &chart); err != nil {
		return nil, fmt.Errorf("failed to get chart: %w", err)
	}
	return &chart, nil
}

// GetChartStatus fetches only the job view of a chart. This is the poll
// endpoint, cheap on the server side.
func (c *Client) GetChartStatus(ctx context.Context, chartID string) (*models.ChartJob, error) {
	var job models.ChartJob
	if err := c.http.Get(ctx, "/charts/"+chartID+"/status", nil, &job); err != nil {
		return nil, fmt.Errorf("failed to get chart status: %w", err)
	}
	return &job, nil
}

// DeleteChart deletes a chart.
func (c *Client) DeleteChart(ctx context.Context, chartID string) error {
	if err := c.http.Delete(ctx, "/charts/"+chartID); err != nil {
		return fmt.Errorf("failed to delete chart: %w", err)
	}
	return nil
}

// ListCharts lists the account's charts.
func (c *Client) ListCharts(ctx context.Context) ([]*models.Chart, error) {
	var charts []*models.Chart
	if err := c.http.Get(ctx, "/charts", nil, &charts); err != nil {
		return nil, fmt.Errorf("failed to list charts: %w", err)
	}
	return charts, nil
}
