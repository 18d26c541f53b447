package pdfexport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/models"
	"github.com/siderealab/siderea/internal/polling"
)

// ExportEvent is the payload published while an export runs and when it ends.
type ExportEvent struct {
	ChartID      string `json:"chart_id"`
	Progress     int    `json:"progress"`
	Status       string `json:"status,omitempty"`
	FilePath     string `json:"file_path,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Service drives the full export flow: trigger, poll with a hard wall-clock
// ceiling, download, validate, save. Exactly one export runs per chart at a
// time; a duplicate request while one is in flight is rejected.
type Service struct {
	api    interfaces.PDFExportAPI
	events interfaces.EventService
	poller *polling.Poller
	config *common.PDFConfig
	logger arbor.ILogger

	mu     sync.Mutex
	active map[string]*polling.Handle // chartID -> in-flight export
}

// NewService creates the PDF export service.
func NewService(api interfaces.PDFExportAPI, events interfaces.EventService, config *common.PDFConfig, logger arbor.ILogger) *Service {
	return &Service{
		api:    api,
		events: events,
		poller: polling.New(logger),
		config: config,
		logger: logger,
		active: make(map[string]*polling.Handle),
	}
}

// Export triggers a PDF export and polls it to completion in the background.
// The outcome arrives on the event bus: EventPDFReady with the saved file
// path, or EventJobFailed.
func (s *Service) Export(ctx context.Context, chartID, lang string) (*models.ChartJob, error) {
	// Reserve the chart's slot before the trigger request goes out so a
	// concurrent duplicate is rejected while it is still in flight.
	s.mu.Lock()
	if _, busy := s.active[chartID]; busy {
		s.mu.Unlock()
		return nil, fmt.Errorf("an export is already running for chart %s", chartID)
	}
	s.active[chartID] = nil
	s.mu.Unlock()

	job, err := s.api.TriggerExport(ctx, chartID, lang)
	if err != nil {
		s.mu.Lock()
		delete(s.active, chartID)
		s.mu.Unlock()
		return nil, err
	}

	fetch := func(ctx context.Context) (*models.ChartJob, error) {
		return s.api.GetExportStatus(ctx, chartID)
	}

	opts := polling.Options{
		Interval: s.config.PollIntervalDuration(),
		Timeout:  s.config.PollTimeoutDuration(),
		OnUpdate: func(progress int) {
			s.events.Publish(context.Background(), interfaces.Event{
				Type:    interfaces.EventJobProgress,
				Payload: ExportEvent{ChartID: chartID, Progress: progress},
			})
		},
		OnTerminal: func(job *models.ChartJob, err error) {
			s.finishExport(chartID, job, err)
		},
	}

	// The poll loop outlives the triggering request.
	handle := s.poller.Start(context.Background(), fetch, opts)

	// The reservation is gone when the loop already reached a terminal
	// outcome, or when Cancel claimed the slot first. Either way the handle
	// must not be registered over a freed slot.
	s.mu.Lock()
	_, reserved := s.active[chartID]
	if reserved {
		s.active[chartID] = handle
	}
	s.mu.Unlock()
	if !reserved {
		handle.Stop()
	}

	s.logger.Info().Str("chart_id", chartID).Str("lang", lang).Msg("PDF export started")
	return job, nil
}

// Cancel stops the in-flight export poll for a chart, if any.
func (s *Service) Cancel(chartID string) {
	s.mu.Lock()
	handle, ok := s.active[chartID]
	if ok {
		delete(s.active, chartID)
	}
	s.mu.Unlock()

	if ok {
		// handle is nil while the export is still being triggered; deleting
		// the reservation is enough, Export stops the loop itself.
		if handle != nil {
			handle.Stop()
		}
		s.logger.Info().Str("chart_id", chartID).Msg("PDF export cancelled")
	}
}

// CancelAll stops every in-flight export poll. Called on shutdown.
func (s *Service) CancelAll() {
	s.mu.Lock()
	handles := make([]*polling.Handle, 0, len(s.active))
	for _, h := range s.active {
		if h != nil {
			handles = append(handles, h)
		}
	}
	s.active = make(map[string]*polling.Handle)
	s.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

func (s *Service) finishExport(chartID string, job *models.ChartJob, err error) {
	s.mu.Lock()
	delete(s.active, chartID)
	s.mu.Unlock()

	ctx := context.Background()

	fail := func(message string) {
		s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventJobFailed,
			Payload: ExportEvent{ChartID: chartID, Status: string(models.JobStatusFailed), ErrorMessage: message},
		})
	}

	if err != nil {
		message := err.Error()
		if err == polling.ErrTimeout {
			message = fmt.Sprintf("PDF export did not finish within %s", s.config.PollTimeout)
		}
		fail(message)
		return
	}

	if job.Status == models.JobStatusFailed {
		fail(job.ErrorMessage)
		return
	}

	path, err := s.download(ctx, chartID)
	if err != nil {
		s.logger.Warn().Err(err).Str("chart_id", chartID).Msg("PDF download failed")
		fail(err.Error())
		return
	}

	s.logger.Info().Str("chart_id", chartID).Str("path", path).Msg("PDF export ready")
	s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventPDFReady,
		Payload: ExportEvent{ChartID: chartID, Progress: 100, Status: string(job.Status), FilePath: path},
	})
}

// download fetches the rendered PDF, verifies it actually parses as a PDF,
// and writes it under the configured download directory.
func (s *Service) download(ctx context.Context, chartID string) (string, error) {
	data, err := s.api.DownloadExport(ctx, chartID)
	if err != nil {
		return "", err
	}

	conf := model.NewDefaultConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return "", fmt.Errorf("downloaded export is not a valid PDF: %w", err)
	}

	if err := os.MkdirAll(s.config.DownloadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	filename := fmt.Sprintf("chart_%s_%s.pdf", chartID, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.config.DownloadDir, filename)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write PDF file: %w", err)
	}

	return path, nil
}
