package charts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/language"
	"github.com/siderealab/siderea/internal/models"
	"github.com/siderealab/siderea/internal/polling"
)

// JobEvent is the payload published for job progress and terminal events.
type JobEvent struct {
	ChartID      string `json:"chart_id"`
	Progress     int    `json:"progress"`
	Status       string `json:"status,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Service orchestrates chart reads around the Chart API: a per-language
// Badger cache in front of GetChart, and watch loops that publish job
// progress onto the event bus while a chart generates.
type Service struct {
	api    interfaces.ChartAPI
	cache  interfaces.ChartCacheStorage
	events interfaces.EventService
	poller *polling.Poller
	config *common.ChartsConfig
	logger arbor.ILogger

	mu      sync.Mutex
	watches map[string]*polling.Handle // chartID -> active poll loop
	current string                     // most recently viewed chart
}

// NewService creates the chart orchestration service.
func NewService(api interfaces.ChartAPI, cache interfaces.ChartCacheStorage, events interfaces.EventService, config *common.ChartsConfig, logger arbor.ILogger) *Service {
	return &Service{
		api:     api,
		cache:   cache,
		events:  events,
		poller:  polling.New(logger),
		config:  config,
		logger:  logger,
		watches: make(map[string]*polling.Handle),
	}
}

// GetChart returns the chart in the given language, serving from the
// per-language cache when possible. Charts still processing are never cached.
func (s *Service) GetChart(ctx context.Context, chartID, lang string) (*models.Chart, error) {
	lang = language.Normalize(lang)

	s.mu.Lock()
	s.current = chartID
	s.mu.Unlock()

	if cached, err := s.cache.GetChart(ctx, chartID, lang); err == nil && cached != nil {
		s.logger.Debug().Str("chart_id", chartID).Str("lang", lang).Msg("Chart cache hit")
		return cached.Chart, nil
	}

	chart, err := s.api.GetChart(ctx, chartID, lang)
	if err != nil {
		return nil, err
	}

	if chart.Status == models.JobStatusCompleted {
		cached := &models.CachedChart{
			ChartID:   chartID,
			Language:  lang,
			Chart:     chart,
			FetchedAt: time.Now(),
		}
		if err := s.cache.PutChart(ctx, cached); err != nil {
			s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("Failed to cache chart")
		}
	}

	return chart, nil
}

// ReloadChart drops the cached variants for a chart and fetches it fresh in
// the given language. The language reconciler uses this on real transitions.
func (s *Service) ReloadChart(ctx context.Context, chartID, lang string) error {
	if err := s.cache.DeleteChart(ctx, chartID); err != nil {
		s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("Failed to invalidate chart cache")
	}
	_, err := s.GetChart(ctx, chartID, lang)
	return err
}

// CurrentChartID returns the most recently viewed chart, or empty when no
// chart has been fetched yet. Language reloads target this chart.
func (s *Service) CurrentChartID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ListCharts lists the account's charts.
func (s *Service) ListCharts(ctx context.Context) ([]*models.Chart, error) {
	return s.api.ListCharts(ctx)
}

// DeleteChart deletes a chart on the backend, stops any active watch, and
// drops its cached variants.
func (s *Service) DeleteChart(ctx context.Context, chartID string) error {
	s.Unwatch(chartID)

	if err := s.api.DeleteChart(ctx, chartID); err != nil {
		return err
	}
	if err := s.cache.DeleteChart(ctx, chartID); err != nil {
		s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("Failed to invalidate chart cache")
	}
	return nil
}

// Watch starts a poll loop for a generating chart and publishes its progress
// to the event bus. A second Watch for the same chart replaces the first.
func (s *Service) Watch(ctx context.Context, chartID string) {
	fetch := func(ctx context.Context) (*models.ChartJob, error) {
		return s.api.GetChartStatus(ctx, chartID)
	}

	opts := polling.Options{
		Interval: s.config.PollIntervalDuration(),
		Timeout:  s.config.PollTimeoutDuration(),
		OnUpdate: func(progress int) {
			s.events.Publish(context.Background(), interfaces.Event{
				Type:    interfaces.EventJobProgress,
				Payload: JobEvent{ChartID: chartID, Progress: progress},
			})
		},
		OnTerminal: func(job *models.ChartJob, err error) {
			s.finishWatch(chartID, job, err)
		},
	}

	// Claim the chart's slot before the loop starts. The loop's terminal
	// cleanup frees the slot, so registering after start must re-check it.
	s.mu.Lock()
	if prev := s.watches[chartID]; prev != nil {
		prev.Stop()
	}
	s.watches[chartID] = nil
	s.mu.Unlock()

	handle := s.poller.Start(ctx, fetch, opts)

	s.mu.Lock()
	prev, claimed := s.watches[chartID]
	if claimed {
		s.watches[chartID] = handle
	}
	s.mu.Unlock()
	if !claimed {
		// Already terminal, or Unwatch ran meanwhile.
		handle.Stop()
	} else if prev != nil {
		prev.Stop()
	}

	s.logger.Info().Str("chart_id", chartID).Msg("Watching chart generation")
}

// Unwatch stops the poll loop for a chart, if one is active.
func (s *Service) Unwatch(chartID string) {
	s.mu.Lock()
	handle, ok := s.watches[chartID]
	if ok {
		delete(s.watches, chartID)
	}
	s.mu.Unlock()

	if ok && handle != nil {
		handle.Stop()
	}
}

// UnwatchAll stops every active poll loop. Called on shutdown.
func (s *Service) UnwatchAll() {
	s.mu.Lock()
	handles := make([]*polling.Handle, 0, len(s.watches))
	for _, h := range s.watches {
		if h != nil {
			handles = append(handles, h)
		}
	}
	s.watches = make(map[string]*polling.Handle)
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

func (s *Service) finishWatch(chartID string, job *models.ChartJob, err error) {
	s.mu.Lock()
	delete(s.watches, chartID)
	s.mu.Unlock()

	ctx := context.Background()

	if err != nil {
		message := err.Error()
		if err == polling.ErrTimeout {
			message = fmt.Sprintf("chart generation did not finish within %s", s.config.PollTimeout)
		}
		s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventJobFailed,
			Payload: JobEvent{ChartID: chartID, Status: string(models.JobStatusFailed), ErrorMessage: message},
		})
		return
	}

	if job.Status == models.JobStatusFailed {
		s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventJobFailed,
			Payload: JobEvent{ChartID: chartID, Status: string(job.Status), ErrorMessage: job.ErrorMessage},
		})
		return
	}

	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventJobCompleted,
		Payload: JobEvent{ChartID: chartID, Progress: 100, Status: string(job.Status)},
	})
}
