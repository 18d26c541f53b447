// -----------------------------------------------------------------------
// Async Job Poller - Retry-until-terminal polling for chart and PDF jobs
// -----------------------------------------------------------------------

package polling

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/models"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 2 * time.Second

// ErrTimeout is the terminal error when the wall-clock ceiling elapses before
// the job reports a terminal status. Surfaced distinctly so the user is not
// misled into thinking the server rejected the job.
var ErrTimeout = errors.New("polling timed out")

// FetchFunc retrieves the current job status. One outstanding request per
// tick; the next tick is scheduled only after this returns.
type FetchFunc func(ctx context.Context) (*models.ChartJob, error)

// UpdateFunc receives progress for each non-terminal response.
type UpdateFunc func(progress int)

// TerminalFunc is invoked exactly once when polling ends with an outcome.
// job is non-nil when the server reported a terminal status; err is non-nil
// for timeouts and poll failures. Owner teardown does not invoke it.
type TerminalFunc func(job *models.ChartJob, err error)

// Options configures one polling run.
type Options struct {
	// Interval between ticks. Defaults to DefaultInterval.
	Interval time.Duration

	// Timeout is the wall-clock ceiling; zero means no independent ceiling
	// beyond the terminal states the server reports.
	Timeout time.Duration

	// MaxRetries is how many consecutive fetch errors are tolerated before
	// the failure is terminal. Zero preserves the strict observed behavior:
	// a single failed fetch ends polling.
	MaxRetries int

	OnUpdate   UpdateFunc
	OnTerminal TerminalFunc
}

// Handle owns one active polling loop. The owning view holds exactly one
// handle per job, replaces it atomically on restart, and stops it on
// teardown, including the error exit path.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop cancels the polling loop. Safe to call more than once; a loop stopped
// this way never invokes OnTerminal.
func (h *Handle) Stop() {
	h.cancel()
}

// Done is closed when the loop has fully exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Poller runs retry-until-terminal polling loops.
type Poller struct {
	logger arbor.ILogger
}

// New creates a poller
func New(logger arbor.ILogger) *Poller {
	return &Poller{logger: logger}
}

// Start begins polling immediately and returns a handle tied to ctx. The loop
// ends on a terminal status, a fetch error, the timeout ceiling, or
// cancellation, whichever comes first.
func (p *Poller) Start(ctx context.Context, fetch FetchFunc, opts Options) *Handle {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	handle := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.run(ctx, fetch, opts, handle)

	return handle
}

func (p *Poller) run(ctx context.Context, fetch FetchFunc, opts Options, handle *Handle) {
	defer close(handle.done)
	defer handle.cancel()

	// The ceiling is a deadline on the fetch context so an in-flight request
	// is cut off when it elapses, not just the wait between ticks.
	fetchCtx := ctx
	var ceiling <-chan struct{}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
		ceiling = fetchCtx.Done()
	}

	terminal := func(job *models.ChartJob, err error) {
		if opts.OnTerminal != nil {
			opts.OnTerminal(job, err)
		}
	}

	retries := 0

	for {
		job, err := fetch(fetchCtx)

		// Teardown while the fetch was in flight: no terminal outcome.
		if ctx.Err() != nil {
			return
		}

		// Ceiling elapsed while the fetch was in flight.
		if fetchCtx.Err() != nil {
			p.logger.Warn().Dur("timeout", opts.Timeout).Msg("Poll ceiling reached")
			terminal(nil, ErrTimeout)
			return
		}

		if err != nil {
			if retries < opts.MaxRetries {
				retries++
				p.logger.Warn().
					Err(err).
					Int("attempt", retries).
					Int("max_retries", opts.MaxRetries).
					Msg("Poll tick failed, retrying")
			} else {
				p.logger.Warn().Err(err).Msg("Poll tick failed, ending poll")
				terminal(nil, err)
				return
			}
		} else {
			retries = 0

			if job.Status.IsTerminal() {
				p.logger.Debug().
					Str("job_id", job.ID).
					Str("status", string(job.Status)).
					Msg("Job reached terminal status")
				terminal(job, nil)
				return
			}

			if opts.OnUpdate != nil {
				opts.OnUpdate(job.Progress)
			}
		}

		tick := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			tick.Stop()
			return
		case <-ceiling:
			tick.Stop()
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn().Dur("timeout", opts.Timeout).Msg("Poll ceiling reached")
			terminal(nil, ErrTimeout)
			return
		case <-tick.C:
		}
	}
}
