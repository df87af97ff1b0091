package election

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/telekom/k8s-leaselock/pkg/lease"
	"github.com/telekom/k8s-leaselock/pkg/metrics"
)

// Defaults mirror the standard Kubernetes leader election timings.
const (
	DefaultLeaseDuration = 15 * time.Second
	DefaultRenewDeadline = 10 * time.Second
	DefaultRetryPeriod   = 2 * time.Second
	DefaultMaxRetries    = 5
)

// Config holds the static parameters of one election participant.
type Config struct {
	// Identity uniquely names this instance in the lease. It must be stable
	// for the process lifetime.
	Identity string

	// LeaseDuration is how long a renewal stays valid. RenewDeadline is how
	// often a leader refreshes its lease; it must be shorter than
	// LeaseDuration or a live leader can lose its own lease to scheduling
	// jitter. RetryPeriod is the candidate polling interval and the error
	// backoff unit.
	LeaseDuration time.Duration
	RenewDeadline time.Duration
	RetryPeriod   time.Duration

	// MaxRetries is how many consecutive loop errors are tolerated before
	// leadership is given up defensively.
	MaxRetries int
}

// Validate checks the config invariants.
func (c *Config) Validate() error {
	if c.Identity == "" {
		return errors.New("election: identity must not be empty")
	}
	if c.LeaseDuration <= 0 || c.RenewDeadline <= 0 || c.RetryPeriod <= 0 {
		return errors.New("election: lease duration, renew deadline and retry period must be positive")
	}
	if c.RenewDeadline >= c.LeaseDuration {
		return fmt.Errorf("election: renew deadline (%v) must be shorter than lease duration (%v)", c.RenewDeadline, c.LeaseDuration)
	}
	if c.MaxRetries <= 0 {
		return errors.New("election: max retries must be positive")
	}
	return nil
}

// Callbacks are invoked on leadership transitions, on the loop goroutine,
// strictly alternating and never overlapping. Both are optional; nil is a
// no-op. A slow callback delays the next loop iteration, so long-running
// work should be handed off.
//
// OnLost also fires when the loop shuts down while leading, whether through
// Stop or through cancellation of the context passed to Start or Run; the
// context it receives may already be cancelled then.
type Callbacks struct {
	OnElected func(ctx context.Context)
	OnLost    func(ctx context.Context)
}

// Elector runs the election loop for one participant. It is a two-state
// machine: candidate (not holding the lease) and leader. The local leader
// flag is owned by the loop goroutine; everything else only reads it and
// must tolerate it changing between reads.
type Elector struct {
	cfg    Config
	store  lease.Store
	log    *zap.SugaredLogger
	clock  clock.Clock
	tracer trace.Tracer

	isLeader atomic.Bool
	running  atomic.Bool

	// mu guards cancel and done so a Stop racing a Start never waits on a
	// channel from an earlier run.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New validates cfg and returns an elector bound to the given store.
func New(cfg Config, store lease.Store, log *zap.SugaredLogger) (*Elector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Elector{
		cfg:    cfg,
		store:  store,
		log:    log,
		clock:  clock.RealClock{},
		tracer: otel.Tracer("github.com/telekom/k8s-leaselock/pkg/election"),
	}, nil
}

// Identity returns this participant's identity string.
func (e *Elector) Identity() string {
	return e.cfg.Identity
}

// IsLeader reports whether this instance currently believes it holds the
// lease. The value is local and not authoritative; leadership can be lost at
// any time after the read.
func (e *Elector) IsLeader() bool {
	return e.isLeader.Load()
}

// Start launches the election loop on its own goroutine. It fails if the
// elector is already running.
func (e *Elector) Start(ctx context.Context, cb Callbacks) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("election: already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	go func() {
		defer close(done)
		e.run(runCtx, cb)
	}()
	e.log.Infow("Leader election started", "identity", e.cfg.Identity,
		"leaseDuration", e.cfg.LeaseDuration, "renewDeadline", e.cfg.RenewDeadline, "retryPeriod", e.cfg.RetryPeriod)
	return nil
}

// Run executes the election loop on the calling goroutine until ctx is
// cancelled.
func (e *Elector) Run(ctx context.Context, cb Callbacks) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("election: already running")
	}
	defer e.running.Store(false)
	e.run(ctx, cb)
	return nil
}

// Stop requests loop termination and waits for the current iteration to
// finish. Cancellation is cooperative: an in-flight store call completes or
// times out first. Stop pairs with Start; a loop driven by Run is stopped by
// cancelling its context.
func (e *Elector) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
	e.cancel = nil
	e.done = nil
	e.running.Store(false)
	e.log.Infow("Leader election stopped", "identity", e.cfg.Identity)
}

func (e *Elector) run(ctx context.Context, cb Callbacks) {
	// The loop is the only thing that keeps the lease renewed; once it
	// exits, for whatever reason, this instance must stop claiming
	// leadership or the guards would admit work on a lease nobody renews.
	defer func() {
		if e.isLeader.Load() {
			e.log.Infow("Election loop exiting, giving up leadership", "identity", e.cfg.Identity)
		}
		e.demote(ctx, cb)
	}()

	retryCount := 0
	for {
		if ctx.Err() != nil {
			return
		}

		held, err := e.tryAcquireOrRenew(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			retryCount++
			backoff := e.cfg.RetryPeriod * time.Duration(retryCount)
			e.observeError(err, retryCount)
			if retryCount >= e.cfg.MaxRetries {
				e.log.Errorw("Max retries reached, giving up leadership", "maxRetries", e.cfg.MaxRetries, "identity", e.cfg.Identity)
				metrics.ForcedDemotions.Inc()
				e.demote(ctx, cb)
				retryCount = 0
			}
			if !e.sleep(ctx, backoff) {
				return
			}
			continue
		}
		retryCount = 0

		switch {
		case held && !e.isLeader.Load():
			e.promote(ctx, cb)
		case !held && e.isLeader.Load():
			e.log.Infow("Leadership lost", "identity", e.cfg.Identity)
			e.demote(ctx, cb)
		case held:
			e.log.Debugw("Leadership renewed", "identity", e.cfg.Identity)
			metrics.LeaseRenewals.Inc()
		}

		interval := e.cfg.RetryPeriod
		if e.isLeader.Load() {
			// Renew well before the lease would expire.
			interval = e.cfg.RenewDeadline
		}
		if !e.sleep(ctx, interval) {
			return
		}
	}
}

// tryAcquireOrRenew performs one election cycle: a fresh read of the record,
// the pure decision, and the optimistic write when the decision calls for
// one. Losing the write race reports false with no error; conflicts are a
// normal part of the protocol.
func (e *Elector) tryAcquireOrRenew(ctx context.Context) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "leaselock.acquireOrRenew",
		trace.WithAttributes(attribute.String("leaselock.identity", e.cfg.Identity)))
	defer span.End()

	now := e.clock.Now()
	rec, err := e.store.ReadOrCreate(ctx, e.cfg.Identity, now)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	next, held := decide(rec, e.cfg.Identity, now, e.cfg.LeaseDuration)
	if next == nil {
		span.SetAttributes(attribute.Bool("leaselock.held", false))
		return false, nil
	}

	ok, err := e.store.CompareAndReplace(ctx, next)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if !ok {
		metrics.AcquireConflicts.Inc()
		e.log.Debugw("Lost lease update race", "identity", e.cfg.Identity, "holder", rec.HolderIdentity)
		span.SetAttributes(attribute.Bool("leaselock.held", false))
		return false, nil
	}
	span.SetAttributes(attribute.Bool("leaselock.held", held))
	return held, nil
}

func (e *Elector) observeError(err error, retryCount int) {
	class := lease.Classify(err)
	metrics.StoreErrors.WithLabelValues(string(class)).Inc()
	metrics.LoopRetries.Inc()
	if class == lease.ClassPermission {
		// Retrying cannot fix missing RBAC; say so instead of burying it
		// in generic retry noise.
		e.log.Errorw("Permission error in election loop, check RBAC for leases",
			"error", err, "attempt", retryCount, "maxRetries", e.cfg.MaxRetries)
		return
	}
	e.log.Errorw("Backend error in election loop",
		"error", err, "attempt", retryCount, "maxRetries", e.cfg.MaxRetries)
}

func (e *Elector) promote(ctx context.Context, cb Callbacks) {
	e.isLeader.Store(true)
	metrics.LeaderStatus.WithLabelValues(e.cfg.Identity).Set(1)
	metrics.ElectionsWon.Inc()
	e.log.Infow("Leadership acquired", "identity", e.cfg.Identity)
	e.invoke(ctx, cb.OnElected, "onElected")
}

// demote transitions to candidate. It is a no-op when not leader, which
// keeps the callbacks strictly edge-triggered.
func (e *Elector) demote(ctx context.Context, cb Callbacks) {
	if !e.isLeader.Load() {
		return
	}
	e.isLeader.Store(false)
	metrics.LeaderStatus.WithLabelValues(e.cfg.Identity).Set(0)
	metrics.LeadershipLost.Inc()
	e.invoke(ctx, cb.OnLost, "onLost")
}

// invoke runs a transition callback, containing panics so the loop keeps
// running whatever the callback does.
func (e *Elector) invoke(ctx context.Context, fn func(context.Context), name string) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("Leadership callback panicked", "callback", name, "panic", r)
		}
	}()
	fn(ctx)
}

// sleep waits for d or until ctx is cancelled; it reports false on
// cancellation. A non-positive duration only checks the context.
func (e *Elector) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := e.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C():
		return true
	}
}
