package retry

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Execute] while the breaker is open.
var ErrOpen = errors.New("breaker open")

// ── State ────────────────────────────────────────────────────────────

// State is the operating state of a [Breaker].
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cool-down has passed.
	StateOpen
	// StateHalfOpen lets probes through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ── Configuration ────────────────────────────────────────────────────

// BreakerConfig configures a [Breaker].
type BreakerConfig struct {
	// MaxFailures is the run of consecutive failures that opens the
	// breaker (default 5).
	MaxFailures int
	// CoolDown is how long the breaker stays open (default 1s).
	CoolDown time.Duration
	// HalfOpenMax is the run of successful probes that closes it again
	// (default 1).
	HalfOpenMax int
	// OnStateChange runs under the breaker's lock.
	OnStateChange func(from, to State)
}

// ── Breaker ──────────────────────────────────────────────────────────

// Breaker stops a loop from spinning on an operation that keeps
// failing.  The cipher service wraps Accept in one so that running out
// of file descriptors pauses the listener instead of flooding the log.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	maxFailures   int
	coolDown      time.Duration
	halfOpenMax   int
	openedAt      time.Time
	onStateChange func(from, to State)
}

// NewBreaker returns a closed breaker.  A nil cfg selects the defaults.
func NewBreaker(cfg *BreakerConfig) *Breaker {
	if cfg == nil {
		cfg = &BreakerConfig{}
	}
	b := &Breaker{
		state:         StateClosed,
		maxFailures:   cfg.MaxFailures,
		coolDown:      cfg.CoolDown,
		halfOpenMax:   cfg.HalfOpenMax,
		onStateChange: cfg.OnStateChange,
	}
	if b.maxFailures <= 0 {
		b.maxFailures = 5
	}
	if b.coolDown <= 0 {
		b.coolDown = time.Second
	}
	if b.halfOpenMax <= 0 {
		b.halfOpenMax = 1
	}
	return b
}

// Execute runs fn unless the breaker is open, in which case it returns
// [ErrOpen] without calling fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.allow() {
		return ErrOpen
	}
	err := fn()
	b.record(err)
	return err
}

// Wait returns how long the breaker will stay open; zero when calls are
// allowed.
func (b *Breaker) Wait() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return 0
	}
	if left := b.coolDown - time.Since(b.openedAt); left > 0 {
		return left
	}
	return 0
}

// CurrentState returns the breaker's state.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current run of consecutive failures.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.successes = 0
	b.transition(StateClosed)
}

// ── internal ─────────────────────────────────────────────────────────

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.openedAt) < b.coolDown {
			return false
		}
		b.transition(StateHalfOpen)
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.successes = 0
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.openedAt = time.Now()
			b.transition(StateOpen)
		}
		return
	}

	b.successes++
	switch b.state {
	case StateHalfOpen:
		if b.successes >= b.halfOpenMax {
			b.failures = 0
			b.transition(StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
