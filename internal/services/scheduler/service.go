package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// jobEntry represents a registered maintenance job
type jobEntry struct {
	name     string
	schedule string
	handler  func() error
	cronID   cron.EntryID
	lastRun  *time.Time
	lastErr  string
}

// Service runs background maintenance on cron schedules: the expired wizard
// draft sweep and any other registered housekeeping.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	jobs    map[string]*jobEntry
	running bool
}

// NewService creates a new scheduler service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a maintenance job on a cron schedule. Must be called before
// Start.
func (s *Service) Register(name, schedule string, handler func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job already registered: %s", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() { s.runJob(entry) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry

	s.logger.Info().
		Str("job", name).
		Str("schedule", schedule).
		Msg("Maintenance job registered")

	return nil
}

func (s *Service) runJob(entry *jobEntry) {
	now := time.Now()

	s.logger.Debug().Str("job", entry.name).Msg("Maintenance job starting")

	err := entry.handler()

	s.mu.Lock()
	entry.lastRun = &now
	if err != nil {
		entry.lastErr = err.Error()
	} else {
		entry.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Str("job", entry.name).Msg("Maintenance job failed")
		return
	}

	s.logger.Debug().Str("job", entry.name).Msg("Maintenance job finished")
}

// Start begins running registered jobs.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
}
