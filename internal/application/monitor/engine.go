// Package monitor runs the poll, evaluate and terminate cycle against the
// media server.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
	"github.com/plexpatrol/plexpatrol/internal/shared/goroutine"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

const (
	defaultCheckInterval = 30 * time.Second
	requestQueueSize     = 64
)

var (
	ErrAlreadyStarted = errors.New("monitor already started")
	ErrNotRunning     = errors.New("monitor is not running")
	ErrQueueFull      = errors.New("stop request queue is full")
)

// Options tune the loop. Zero values fall back to the defaults below.
type Options struct {
	// CleanupEveryTicks runs expired-session cleanup every N running ticks.
	CleanupEveryTicks int
	CleanupOlderThan  time.Duration
	// UnhealthyAfter consecutive fetch failures flip the health flag.
	UnhealthyAfter int
	// ReconnectEvery consecutive failures trigger a connection probe.
	ReconnectEvery int
	MaxBackoff     time.Duration
	// StopGrace bounds how long Stop waits for an in-flight tick.
	StopGrace time.Duration
}

func (o Options) withDefaults() Options {
	if o.CleanupEveryTicks <= 0 {
		o.CleanupEveryTicks = 10
	}
	if o.CleanupOlderThan <= 0 {
		o.CleanupOlderThan = 30 * time.Minute
	}
	if o.UnhealthyAfter <= 0 {
		o.UnhealthyAfter = 3
	}
	if o.ReconnectEvery <= 0 {
		o.ReconnectEvery = 5
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 60 * time.Second
	}
	if o.StopGrace <= 0 {
		o.StopGrace = 5 * time.Second
	}
	return o
}

// Deps are the collaborators of the engine. Notifier, Events and Metrics
// are optional.
type Deps struct {
	Source   SessionSource
	Store    Store
	Notifier Notifier
	Events   events.EventPublisher
	Config   sharedConfig.Provider
	Metrics  Recorder
	Logger   logger.Interface
}

// StopResult is the outcome of a manual stop request.
type StopResult struct {
	RequestID  string `json:"request_id"`
	SessionID  string `json:"session_id"`
	Terminated bool   `json:"terminated"`
	Recorded   bool   `json:"recorded"`
	Error      string `json:"error,omitempty"`
}

type stopRequest struct {
	id        string
	sessionID string
	reason    string
	reply     chan<- StopResult
}

// Engine is the enforcement loop. One engine owns one goroutine; all loop
// state below the mutex-guarded snapshot is touched only from it.
type Engine struct {
	id       string
	source   SessionSource
	store    Store
	notifier Notifier
	events   events.EventPublisher
	cfg      sharedConfig.Provider
	metrics  Recorder
	logger   logger.Interface
	opts     Options

	state    atomic.Int32
	started  atomic.Bool
	healthy  atomic.Bool
	requests chan stopRequest
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu       sync.RWMutex
	snapshot session.Snapshot
	polledAt time.Time

	// loop-owned
	errors       int
	healthKnown  bool
	runningTicks int
	extraWait    time.Duration
}

func New(deps Deps, opts Options) *Engine {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	rec := deps.Metrics
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Engine{
		id:       uuid.NewString(),
		source:   deps.Source,
		store:    deps.Store,
		notifier: deps.Notifier,
		events:   deps.Events,
		cfg:      deps.Config,
		metrics:  rec,
		logger:   log.Named("monitor"),
		opts:     opts.withDefaults(),
		requests: make(chan stopRequest, requestQueueSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		snapshot: session.Snapshot{},
	}
}

// Start launches the loop. The loop ends when ctx is cancelled or Stop is
// called.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	e.state.Store(int32(StateRunning))
	e.emit(LevelInfo, "monitoring started")
	goroutine.SafeGo(e.logger, "monitor-loop", func() {
		defer close(e.done)
		e.loop(ctx)
	})
	return nil
}

// Stop ends the loop and waits up to the grace period for the current tick.
// It returns false when the tick did not finish in time.
func (e *Engine) Stop() bool {
	if !e.started.Load() {
		return true
	}
	e.stopOnce.Do(func() {
		e.state.Store(int32(StateStopped))
		close(e.stopCh)
	})
	select {
	case <-e.done:
		return true
	case <-time.After(e.opts.StopGrace):
		e.logger.Warnw("monitor loop did not stop within grace period", "grace", e.opts.StopGrace)
		return false
	}
}

// Done is closed once the loop goroutine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Healthy reports whether the last poll reached the media server.
func (e *Engine) Healthy() bool {
	return e.healthy.Load()
}

// Pause suspends polling; manual stop requests are still served.
func (e *Engine) Pause() error {
	if !e.state.CompareAndSwap(int32(StateRunning), int32(StatePaused)) {
		if e.State() == StatePaused {
			return nil
		}
		return ErrNotRunning
	}
	e.emit(LevelWarning, "monitoring paused")
	return nil
}

func (e *Engine) Resume() error {
	if !e.state.CompareAndSwap(int32(StatePaused), int32(StateRunning)) {
		if e.State() == StateRunning {
			return nil
		}
		return ErrNotRunning
	}
	e.emit(LevelInfo, "monitoring resumed")
	return nil
}

// TogglePause flips between running and paused and returns the new state.
func (e *Engine) TogglePause() (State, error) {
	switch e.State() {
	case StateRunning:
		return StatePaused, e.Pause()
	case StatePaused:
		return StateRunning, e.Resume()
	default:
		return StateStopped, ErrNotRunning
	}
}

// Snapshot returns the streams seen by the latest successful poll.
func (e *Engine) Snapshot() (session.Snapshot, time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(session.Snapshot, len(e.snapshot))
	for uid, recs := range e.snapshot {
		out[uid] = append([]session.Record(nil), recs...)
	}
	return out, e.polledAt
}

// RequestStop queues a manual stop. It is served at the next tick boundary;
// reply, if non-nil, receives exactly one result and should be buffered.
func (e *Engine) RequestStop(sessionID, reason string, reply chan<- StopResult) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if !e.started.Load() || e.State() == StateStopped {
		return "", ErrNotRunning
	}
	req := stopRequest{id: uuid.NewString(), sessionID: sessionID, reason: reason, reply: reply}
	select {
	case e.requests <- req:
		return req.id, nil
	default:
		return "", ErrQueueFull
	}
}

func (e *Engine) loop(ctx context.Context) {
	for {
		if e.stopping(ctx) {
			break
		}
		wait := e.step(ctx)
		if !e.sleep(ctx, wait) {
			break
		}
	}
	e.state.Store(int32(StateStopped))
	e.emit(LevelInfo, "monitoring stopped")
}

// step is one loop iteration: serve queued requests, then poll unless paused.
func (e *Engine) step(ctx context.Context) time.Duration {
	e.drainRequests(ctx)
	if e.State() != StateRunning {
		return e.interval()
	}

	var failed bool
	if panicked := goroutine.Run(e.logger, "monitor-tick", func() {
		failed = !e.tick(ctx)
	}); panicked {
		e.emit(LevelError, "monitoring cycle crashed")
		e.errors++
		failed = true
	}

	e.runningTicks++
	if e.runningTicks%e.opts.CleanupEveryTicks == 0 {
		e.cleanup(ctx)
	}
	return e.nextWait(failed)
}

func (e *Engine) interval() time.Duration {
	if e.cfg == nil {
		return defaultCheckInterval
	}
	if d := e.cfg.CheckInterval(); d > 0 {
		return d
	}
	return defaultCheckInterval
}

func (e *Engine) nextWait(failed bool) time.Duration {
	wait := e.interval()
	if failed && e.errors >= e.opts.UnhealthyAfter {
		backoff := time.Duration(e.errors) * 5 * time.Second
		if backoff > e.opts.MaxBackoff {
			backoff = e.opts.MaxBackoff
		}
		if backoff > wait {
			wait = backoff
		}
	}
	wait += e.extraWait
	e.extraWait = 0
	return wait
}

func (e *Engine) stopping(ctx context.Context) bool {
	select {
	case <-e.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// sleep waits d, waking early for stop or cancellation. Queued stop requests
// are not served mid-sleep; they wait for the next tick boundary.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-e.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func (e *Engine) drainRequests(ctx context.Context) {
	for {
		select {
		case req := <-e.requests:
			e.handleStop(ctx, req)
		default:
			return
		}
	}
}

func (e *Engine) publish(ev events.DomainEvent) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ev); err != nil {
		e.logger.Debugw("event not published", "event_type", ev.GetEventType(), "error", err)
	}
}

// emit writes an operator log line to both the structured log and the
// event stream.
func (e *Engine) emit(level Level, msg string, kv ...any) {
	switch level {
	case LevelError:
		e.logger.Errorw(msg, kv...)
	case LevelWarning:
		e.logger.Warnw(msg, kv...)
	default:
		e.logger.Infow(msg, kv...)
	}
	e.publish(LogEvent{
		BaseEvent: events.NewBaseEvent(e.id, EventTypeLog),
		Message:   msg,
		Level:     level,
	})
}

// setHealthy publishes a connection event only when the flag changes, so a
// failure streak produces a single "down" event.
func (e *Engine) setHealthy(ok bool) {
	prev := e.healthy.Swap(ok)
	e.metrics.Connected(ok)
	if e.healthKnown && prev == ok {
		return
	}
	e.healthKnown = true
	e.publish(ConnectionStatusEvent{
		BaseEvent: events.NewBaseEvent(e.id, EventTypeConnectionStatus),
		Connected: ok,
	})
}
