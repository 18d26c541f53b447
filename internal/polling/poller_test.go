package polling

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/siderealab/siderea/internal/common"
	"github.com/siderealab/siderea/internal/models"
)

// scriptedFetch returns each response in order, then repeats the last one.
// It counts how many times it was invoked.
type scriptedFetch struct {
	mu        sync.Mutex
	responses []*models.ChartJob
	errs      []error
	calls     int
}

func (s *scriptedFetch) fetch(ctx context.Context) (*models.ChartJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	if s.errs != nil && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	return s.responses[idx], nil
}

func (s *scriptedFetch) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func processing(progress int) *models.ChartJob {
	return &models.ChartJob{ID: "job-1", Status: models.JobStatusProcessing, Progress: progress}
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not finish in time")
	}
}

func TestPollerStopsAtCompleted(t *testing.T) {
	script := &scriptedFetch{
		responses: []*models.ChartJob{
			processing(10),
			processing(55),
			{ID: "job-1", Status: models.JobStatusCompleted, Progress: 100},
		},
	}

	var updates []int
	var terminalJobs []*models.ChartJob
	var terminalErrs []error

	p := New(common.GetLogger())
	h := p.Start(context.Background(), script.fetch, Options{
		Interval: 5 * time.Millisecond,
		OnUpdate: func(progress int) { updates = append(updates, progress) },
		OnTerminal: func(job *models.ChartJob, err error) {
			terminalJobs = append(terminalJobs, job)
			terminalErrs = append(terminalErrs, err)
		},
	})
	waitDone(t, h)

	if len(updates) != 2 || updates[0] != 10 || updates[1] != 55 {
		t.Errorf("updates = %v, want [10 55]", updates)
	}
	if len(terminalJobs) != 1 {
		t.Fatalf("terminal invoked %d times, want exactly once", len(terminalJobs))
	}
	if terminalErrs[0] != nil {
		t.Errorf("terminal err = %v, want nil", terminalErrs[0])
	}
	if terminalJobs[0].Status != models.JobStatusCompleted {
		t.Errorf("terminal status = %s, want completed", terminalJobs[0].Status)
	}

	// No further poll request after the Completed response.
	if script.callCount() != 3 {
		t.Errorf("fetch called %d times, want 3", script.callCount())
	}
}

func TestPollerStopsAtFailedWithServerMessage(t *testing.T) {
	script := &scriptedFetch{
		responses: []*models.ChartJob{
			processing(20),
			{ID: "job-1", Status: models.JobStatusFailed, ErrorMessage: "ephemeris unavailable"},
		},
	}

	var terminalJob *models.ChartJob
	terminalCalls := 0

	p := New(common.GetLogger())
	h := p.Start(context.Background(), script.fetch, Options{
		Interval: 5 * time.Millisecond,
		OnTerminal: func(job *models.ChartJob, err error) {
			terminalCalls++
			terminalJob = job
		},
	})
	waitDone(t, h)

	if terminalCalls != 1 {
		t.Fatalf("terminal invoked %d times, want 1", terminalCalls)
	}
	if terminalJob.Status != models.JobStatusFailed {
		t.Errorf("terminal status = %s, want failed", terminalJob.Status)
	}
	if terminalJob.ErrorMessage != "ephemeris unavailable" {
		t.Errorf("terminal message = %q, want server-provided message", terminalJob.ErrorMessage)
	}
}

func TestPollerTimeoutForcesTerminalFailure(t *testing.T) {
	// The job never reaches a terminal state.
	script := &scriptedFetch{responses: []*models.ChartJob{processing(50)}}

	terminalCalls := 0
	var terminalErr error

	p := New(common.GetLogger())
	h := p.Start(context.Background(), script.fetch, Options{
		Interval: 5 * time.Millisecond,
		Timeout:  40 * time.Millisecond,
		OnTerminal: func(job *models.ChartJob, err error) {
			terminalCalls++
			terminalErr = err
		},
	})
	waitDone(t, h)

	if terminalCalls != 1 {
		t.Fatalf("terminal invoked %d times, want exactly once", terminalCalls)
	}
	if terminalErr != ErrTimeout {
		t.Errorf("terminal err = %v, want ErrTimeout", terminalErr)
	}

	calls := script.callCount()
	time.Sleep(30 * time.Millisecond)
	if script.callCount() != calls {
		t.Error("polling continued after timeout")
	}
}

func TestPollerTimeoutCancelsInFlightFetch(t *testing.T) {
	// The fetch hangs until its context is cancelled, as a stuck HTTP
	// request would.
	fetch := func(ctx context.Context) (*models.ChartJob, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	terminal := make(chan error, 1)
	p := New(common.GetLogger())
	h := p.Start(context.Background(), fetch, Options{
		Interval:   5 * time.Millisecond,
		Timeout:    30 * time.Millisecond,
		OnTerminal: func(job *models.ChartJob, err error) { terminal <- err },
	})

	start := time.Now()
	select {
	case err := <-terminal:
		if err != ErrTimeout {
			t.Errorf("terminal err = %v, want ErrTimeout", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal outcome while the fetch hung")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout surfaced after %s, want near the 30ms ceiling", elapsed)
	}
	waitDone(t, h)
}

func TestPollerNetworkErrorEndsPolling(t *testing.T) {
	netErr := fmt.Errorf("connection refused")
	script := &scriptedFetch{
		responses: []*models.ChartJob{processing(10), nil},
		errs:      []error{nil, netErr},
	}

	var terminalErr error
	terminalCalls := 0

	p := New(common.GetLogger())
	h := p.Start(context.Background(), script.fetch, Options{
		Interval: 5 * time.Millisecond,
		OnTerminal: func(job *models.ChartJob, err error) {
			terminalCalls++
			terminalErr = err
		},
	})
	waitDone(t, h)

	if terminalCalls != 1 {
		t.Fatalf("terminal invoked %d times, want 1", terminalCalls)
	}
	if terminalErr == nil || terminalErr.Error() != "connection refused" {
		t.Errorf("terminal err = %v, want the caught fetch error", terminalErr)
	}
	if script.callCount() != 2 {
		t.Errorf("fetch called %d times, want 2 (no automatic retry)", script.callCount())
	}
}

func TestPollerBoundedRetries(t *testing.T) {
	netErr := fmt.Errorf("transient blip")
	script := &scriptedFetch{
		responses: []*models.ChartJob{nil, {ID: "job-1", Status: models.JobStatusCompleted}},
		errs:      []error{netErr, nil},
	}

	var terminalJob *models.ChartJob
	p := New(common.GetLogger())
	h := p.Start(context.Background(), script.fetch, Options{
		Interval:   5 * time.Millisecond,
		MaxRetries: 2,
		OnTerminal: func(job *models.ChartJob, err error) { terminalJob = job },
	})
	waitDone(t, h)

	if terminalJob == nil || terminalJob.Status != models.JobStatusCompleted {
		t.Errorf("terminal job = %v, want completed after retry", terminalJob)
	}
}

func TestPollerStopOnTeardownSkipsTerminal(t *testing.T) {
	script := &scriptedFetch{responses: []*models.ChartJob{processing(5)}}

	terminalCalls := 0
	p := New(common.GetLogger())
	h := p.Start(context.Background(), script.fetch, Options{
		Interval:   5 * time.Millisecond,
		OnTerminal: func(job *models.ChartJob, err error) { terminalCalls++ },
	})

	time.Sleep(15 * time.Millisecond)
	h.Stop()
	waitDone(t, h)

	if terminalCalls != 0 {
		t.Errorf("terminal invoked %d times on teardown, want 0", terminalCalls)
	}
}
