package uploader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lenscap/internal/api"
	"lenscap/internal/logging"
)

// State is the poller lifecycle position.
type State int

const (
	// StateIdle means no batch is being tracked.
	StateIdle State = iota
	// StateWaiting means a loop is querying analysis status.
	StateWaiting
	// StateComplete means the last batch was verified fully analyzed.
	StateComplete
	// StateExhausted means the attempt budget ran out before verification.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateComplete:
		return "complete"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// StatusFunc queries how many of the most recent count uploads are still
// mid-analysis.
type StatusFunc func(ctx context.Context, count int) (*api.AnalysisStatus, error)

// RefreshFunc receives the one-time completion signal. verified is true only
// when the backend reported zero items still processing; an exhausted loop
// still refreshes best-effort but does not claim verification.
type RefreshFunc func(verified bool)

// Poller drives the analysis wait loop for one batch at a time.
type Poller struct {
	status  StatusFunc
	refresh RefreshFunc
	logger  *slog.Logger

	interval     time.Duration
	initialDelay time.Duration
	maxAttempts  int

	mu         sync.Mutex
	state      State
	attempts   int
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
}

// PollerOption customises Poller construction.
type PollerOption func(*Poller)

// WithInterval overrides the delay between status checks.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithInitialDelay overrides the head start given to the backend before the
// first check.
func WithInitialDelay(delay time.Duration) PollerOption {
	return func(p *Poller) {
		if delay >= 0 {
			p.initialDelay = delay
		}
	}
}

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(attempts int) PollerOption {
	return func(p *Poller) {
		if attempts > 0 {
			p.maxAttempts = attempts
		}
	}
}

// NewPoller builds a poller with the design cadence: first check after 3 s,
// then every 2 s, for at most 30 attempts.
func NewPoller(status StatusFunc, refresh RefreshFunc, logger *slog.Logger, opts ...PollerOption) *Poller {
	p := &Poller{
		status:       status,
		refresh:      refresh,
		logger:       logging.NewComponentLogger(logger, "poller"),
		interval:     2 * time.Second,
		initialDelay: 3 * time.Second,
		maxAttempts:  30,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current lifecycle position.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempts returns how many status checks the current or last loop issued.
func (p *Poller) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts
}

// Start begins tracking a batch of targetCount files. Any loop still waiting
// on a previous batch is superseded: its timer is cancelled and it can no
// longer mutate poller state.
func (p *Poller) Start(ctx context.Context, targetCount int) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	generation := p.generation
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateWaiting
	p.attempts = 0
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go p.run(loopCtx, generation, targetCount, done)
}

// Cancel invalidates any armed timer. A cancelled loop resets to Idle
// without firing the refresh signal.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Wait blocks until the current loop reaches a terminal state or ctx ends,
// and reports the state it observed.
func (p *Poller) Wait(ctx context.Context) State {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return p.State()
}

func (p *Poller) run(ctx context.Context, generation uint64, targetCount int, done chan struct{}) {
	defer close(done)

	if !p.sleep(ctx, p.initialDelay) {
		p.settle(generation, StateIdle)
		return
	}

	for {
		status, err := p.status(ctx, targetCount)

		p.mu.Lock()
		if generation != p.generation {
			p.mu.Unlock()
			return
		}
		p.attempts++
		attempts := p.attempts
		p.mu.Unlock()

		switch {
		case err != nil:
			if ctx.Err() != nil {
				p.settle(generation, StateIdle)
				return
			}
			p.logger.Debug("status check failed",
				logging.Error(err),
				logging.Int(logging.FieldAttempt, attempts),
			)
		case status.ProcessingCount == 0:
			if p.settle(generation, StateComplete) {
				p.refresh(true)
			}
			return
		default:
			p.logger.Debug("analysis in progress",
				logging.Int("processing", status.ProcessingCount),
				logging.Int(logging.FieldAttempt, attempts),
			)
		}

		if attempts >= p.maxAttempts {
			if p.settle(generation, StateExhausted) {
				p.refresh(false)
			}
			return
		}

		if !p.sleep(ctx, p.interval) {
			p.settle(generation, StateIdle)
			return
		}
	}
}

// settle moves to a terminal state if this loop has not been superseded.
// It reports whether the transition happened, so completion side effects
// never fire against a newer batch.
func (p *Poller) settle(generation uint64, state State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if generation != p.generation {
		return false
	}
	p.state = state
	return true
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
