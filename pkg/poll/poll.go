// Package poll runs a check function on a fixed interval until it reports
// success, an absolute deadline passes, or the caller cancels.
//
// Ticks are strictly sequential. When a check outlives one or more
// intervals the missed ticks are skipped, never queued or overlapped. The
// deadline is enforced by its own timer, so a hung check is aborted
// through its context rather than extending the poll's lifetime.
package poll

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultTimeout  = 300 * time.Second
)

var (
	ErrTimeout        = errors.New("poll: deadline reached")
	ErrCancelled      = errors.New("poll: cancelled")
	ErrAlreadyStarted = errors.New("poll: already started")
)

// Step is what a single check result means for the poll.
type Step int

const (
	// Continue keeps polling in the current state.
	Continue Step = iota
	// Scanned moves to ScannedAwaitingConfirm and keeps polling.
	Scanned
	// Succeeded ends the poll with Done.
	Succeeded
)

// State of a Poller.
type State int

const (
	Pending State = iota
	ScannedAwaitingConfirm
	Done
	DoneTimeout
	DoneCancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case ScannedAwaitingConfirm:
		return "scanned"
	case Done:
		return "done"
	case DoneTimeout:
		return "timeout"
	case DoneCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool { return s >= Done }

// Result is the single terminal outcome of a Poller. Value is only
// meaningful when State is Done.
type Result[T any] struct {
	State State
	Value T
	Ticks int
}

// Err maps non-success terminal states to ErrTimeout or ErrCancelled.
func (r Result[T]) Err() error {
	switch r.State {
	case DoneTimeout:
		return ErrTimeout
	case DoneCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger

	// OnState is called from the polling goroutine after every transition,
	// terminal ones included.
	OnState func(State)
}

// Poller drives one check function. It is single-use.
type Poller[T any] struct {
	check    func(context.Context) (T, error)
	classify func(T) Step
	opts     Options

	mu        sync.Mutex
	state     State
	ticks     int
	started   bool
	cancelled bool
	stopRun   context.CancelCauseFunc
	result    Result[T]

	cancelOnce sync.Once
	done       chan struct{}
}

// New builds a Poller. classify decides what each successful check means,
// check errors are logged and the poll continues.
func New[T any](check func(context.Context) (T, error), classify func(T) Step, opts Options) *Poller[T] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Poller[T]{
		check:    check,
		classify: classify,
		opts:     opts,
		done:     make(chan struct{}),
	}
}

// Start launches the polling goroutine. The first tick runs immediately.
// Cancelling ctx has the same effect as Cancel.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true

	runCtx, stop := context.WithCancelCause(ctx)
	p.stopRun = stop
	if p.cancelled {
		stop(ErrCancelled)
	}
	p.mu.Unlock()

	go p.run(runCtx, stop)
	return nil
}

// Cancel stops the poll. It is safe to call any number of times, from any
// goroutine, before or after Start. No tick starts after Cancel returns.
func (p *Poller[T]) Cancel() {
	p.cancelOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.cancelled = true
		if p.stopRun != nil {
			p.stopRun(ErrCancelled)
		}
	})
}

// Done is closed once the terminal Result is available.
func (p *Poller[T]) Done() <-chan struct{} { return p.done }

// Result returns the terminal outcome. Before Done is closed it reports the
// current state with a zero Value.
func (p *Poller[T]) Result() Result[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Terminal() {
		return p.result
	}
	return Result[T]{State: p.state, Ticks: p.ticks}
}

// Wait blocks until the poll ends or ctx is done.
func (p *Poller[T]) Wait(ctx context.Context) (Result[T], error) {
	select {
	case <-p.done:
		return p.Result(), nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}

// State returns the current state.
func (p *Poller[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Ticks returns how many checks have been issued.
func (p *Poller[T]) Ticks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

func (p *Poller[T]) run(ctx context.Context, stop context.CancelCauseFunc) {
	defer stop(nil)

	clock := p.opts.Clock
	interval := p.opts.Interval
	start := clock.Now()
	deadline := start.Add(p.opts.Timeout)

	deadlineTimer := clock.AfterFunc(p.opts.Timeout, func() { stop(ErrTimeout) })
	defer deadlineTimer.Stop()

	next := start
	for {
		if wait := next.Sub(clock.Now()); wait > 0 {
			t := clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				p.finishStopped(ctx)
				return
			case <-t.Chan():
			}
		}

		if !clock.Now().Before(deadline) {
			p.finish(DoneTimeout, *new(T))
			return
		}

		// Cancel flips ctx while holding mu, so checking under mu means no
		// tick is issued once Cancel has returned.
		p.mu.Lock()
		if ctx.Err() != nil {
			p.mu.Unlock()
			p.finishStopped(ctx)
			return
		}
		p.ticks++
		tick := p.ticks
		p.mu.Unlock()

		v, err := p.check(ctx)

		// A check aborted by cancel or deadline never produces a transition.
		if ctx.Err() != nil {
			p.finishStopped(ctx)
			return
		}

		if err != nil {
			p.opts.Logger.Warn("poll tick failed", "tick", tick, "err", err)
		} else {
			switch p.classify(v) {
			case Succeeded:
				p.finish(Done, v)
				return
			case Scanned:
				p.transition(ScannedAwaitingConfirm)
			}
		}

		next = next.Add(interval)
		if now := clock.Now(); next.Before(now) {
			missed := (now.Sub(next) + interval - 1) / interval
			p.opts.Logger.Debug("poll skipped overlapping ticks", "skipped", int(missed))
			next = next.Add(missed * interval)
		}
	}
}

func (p *Poller[T]) finishStopped(ctx context.Context) {
	if errors.Is(context.Cause(ctx), ErrTimeout) {
		p.finish(DoneTimeout, *new(T))
		return
	}
	p.finish(DoneCancelled, *new(T))
}

func (p *Poller[T]) transition(s State) {
	p.mu.Lock()
	if p.state == s {
		p.mu.Unlock()
		return
	}
	p.state = s
	p.mu.Unlock()

	if p.opts.OnState != nil {
		p.opts.OnState(s)
	}
}

func (p *Poller[T]) finish(s State, v T) {
	p.mu.Lock()
	p.state = s
	p.result = Result[T]{State: s, Value: v, Ticks: p.ticks}
	p.mu.Unlock()

	if p.opts.OnState != nil {
		p.opts.OnState(s)
	}
	close(p.done)
}
