package qrlogin

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ravey/almond/pkg/almondsdk"
	"github.com/ravey/almond/pkg/poll"
	"github.com/ravey/almond/pkg/session"
	"github.com/ravey/almond/pkg/slogx"
)

var errAuthenticated = errors.New("session already authenticated")

// Outcome is how an Attempt ended.
type Outcome struct {
	State   poll.State
	Session session.Session
	Ticks   int
	// Err is set when a confirmed credential could not be adopted.
	Err error
}

// Flow runs QR login attempts for one UI. Starting a new attempt cancels the
// previous one first, and an attempt stops polling as soon as the session
// store becomes authenticated by anyone else.
type Flow struct {
	initiator *Initiator
	provider  Provider
	adopter   *Adopter
	store     *session.Store
	target    Target
	opts      poll.Options
	log       *slog.Logger

	mu      sync.Mutex
	current *Attempt
}

type FlowConfig struct {
	Provider Provider
	Cache    ImageCache
	Store    *session.Store
	Target   Target
	Poll     poll.Options
	Logger   *slog.Logger
}

func NewFlow(cfg FlowConfig) *Flow {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Poll.Logger == nil {
		cfg.Poll.Logger = log
	}
	return &Flow{
		initiator: NewInitiator(cfg.Provider, cfg.Cache, log),
		provider:  cfg.Provider,
		adopter:   NewAdopter(cfg.Store),
		store:     cfg.Store,
		target:    cfg.Target,
		opts:      cfg.Poll,
		log:       log,
	}
}

// Adopter exposes the adopter so callers can tune display defaults.
func (f *Flow) Adopter() *Adopter { return f.adopter }

// Start cancels any live attempt, creates a new LoginSession and starts
// polling it. Initiation failures are returned and nothing is polled.
// Cancelling ctx cancels the attempt.
func (f *Flow) Start(ctx context.Context) (*Attempt, error) {
	f.mu.Lock()
	prev := f.current
	f.current = nil
	f.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	ls, err := f.initiator.CreateSession(ctx, f.target)
	if err != nil {
		return nil, err
	}

	a := &Attempt{
		Login: ls,
		done:  make(chan struct{}),
		log:   f.log.With("qrcode_id", ls.QRCodeID),
	}

	opts := f.opts
	userOnState := opts.OnState
	opts.OnState = func(s poll.State) {
		a.log.Debug("qr login state", "state", s.String())
		if userOnState != nil {
			userOnState(s)
		}
	}
	check := func(ctx context.Context) (*almondsdk.QRCheckResponse, error) {
		if f.store.IsAuthenticated() {
			a.poller.Cancel()
			return nil, errAuthenticated
		}
		return f.provider.CheckQR(ctx, ls.QRCodeID)
	}
	a.poller = poll.New(check, ClassifyCheck, opts)

	a.unsubscribe = f.store.Subscribe(func(s session.Session) {
		if s.IsAuthenticated() {
			a.poller.Cancel()
		}
	})
	// A session committed before Start, or while the code was being
	// created, produced no notification for this attempt.
	if f.store.IsAuthenticated() {
		a.log.Info("session already authenticated, not polling")
		a.poller.Cancel()
	}

	runCtx := slogx.WithQRCode(ctx, ls.QRCodeID)
	if err := a.poller.Start(runCtx); err != nil {
		a.unsubscribe()
		return nil, err
	}
	go a.run(runCtx, f.adopter)

	f.mu.Lock()
	if f.current != nil {
		// Another Start finished meanwhile, the last one registered stays live.
		stale := f.current
		f.current = a
		f.mu.Unlock()
		stale.Cancel()
	} else {
		f.current = a
		f.mu.Unlock()
	}
	return a, nil
}

// Cancel stops the live attempt, if any.
func (f *Flow) Cancel() {
	f.mu.Lock()
	a := f.current
	f.current = nil
	f.mu.Unlock()
	if a != nil {
		a.Cancel()
	}
}

// Current returns the live attempt, or nil.
func (f *Flow) Current() *Attempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Attempt is one displayed code being polled.
type Attempt struct {
	Login *LoginSession

	poller      *poll.Poller[*almondsdk.QRCheckResponse]
	unsubscribe func()
	log         *slog.Logger

	done    chan struct{}
	outcome Outcome
}

// Cancel stops polling. Idempotent, shared by user cancel and UI teardown.
func (a *Attempt) Cancel() { a.poller.Cancel() }

// State is the live poll state.
func (a *Attempt) State() poll.State { return a.poller.State() }

// Done is closed after the outcome is final, including adoption.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Wait blocks until the attempt ends or ctx is done.
func (a *Attempt) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-a.done:
		return a.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (a *Attempt) run(ctx context.Context, adopter *Adopter) {
	defer close(a.done)
	defer a.unsubscribe()

	<-a.poller.Done()
	res := a.poller.Result()
	a.outcome = Outcome{State: res.State, Ticks: res.Ticks}

	if res.State != poll.Done {
		a.log.Info("qr login ended", "state", res.State.String(), "ticks", res.Ticks)
		return
	}

	// A confirmed credential is adopted even if ctx ends right after the
	// confirming tick.
	err := adopter.Adopt(context.WithoutCancel(ctx), CredentialFrom(res.Value))
	if err != nil {
		if errors.Is(err, ErrMalformedUser) {
			a.log.Warn("qr login confirmed with malformed user", "err", err)
		} else {
			a.log.Error("qr login adoption failed", "err", err)
		}
		a.outcome.Err = err
		return
	}

	a.outcome.Session, _ = adopter.store.GetState()
	a.log.Info("qr login adopted", "ticks", res.Ticks)
}
