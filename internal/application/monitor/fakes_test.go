package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	sharedConfig "github.com/plexpatrol/plexpatrol/internal/shared/config"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

var errUnreachable = errors.New("dial tcp: connection refused")

type fetchResult struct {
	snap     session.Snapshot
	err      error
	parseErr error
}

type terminateCall struct {
	sessionID string
	reason    string
}

type fakeSource struct {
	mu           sync.Mutex
	results      []fetchResult
	pending      fetchResult
	fetches      int
	terminated   []terminateCall
	terminateErr error
	probeOK      bool
	probes       int
	panicOnFetch bool
}

func (f *fakeSource) FetchActiveSessions(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.panicOnFetch {
		panic("decoder exploded")
	}
	res := fetchResult{snap: session.Snapshot{}}
	if len(f.results) > 0 {
		res = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	f.pending = res
	if res.err != nil {
		return nil, res.err
	}
	return []byte("payload"), nil
}

func (f *fakeSource) ParseSessions([]byte) (session.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending.parseErr != nil {
		return nil, f.pending.parseErr
	}
	if f.pending.snap == nil {
		return session.Snapshot{}, nil
	}
	return f.pending.snap, nil
}

func (f *fakeSource) TerminateSession(_ context.Context, sessionID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = append(f.terminated, terminateCall{sessionID: sessionID, reason: reason})
	if f.terminateErr != nil {
		return false, f.terminateErr
	}
	return true, nil
}

func (f *fakeSource) TestConnection(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.probeOK
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSource) stopped() []terminateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]terminateCall(nil), f.terminated...)
}

type fakeStore struct {
	mu         sync.Mutex
	policies   map[string]user.Policy
	activity   map[string]time.Time
	policyErr  error
	recordErr  error
	calls      []string
	recorded   []string
	terminated []string
	cleanups   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{policies: map[string]user.Policy{}, activity: map[string]time.Time{}}
}

func (s *fakeStore) RecordSession(_ context.Context, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "record:"+rec.SessionID)
	if s.recordErr != nil {
		return s.recordErr
	}
	s.recorded = append(s.recorded, rec.SessionID)
	return nil
}

func (s *fakeStore) MarkTerminated(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminated = append(s.terminated, sessionID)
	return true, nil
}

func (s *fakeStore) CleanupExpired(context.Context, time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups++
	return 1, nil
}

func (s *fakeStore) GetUserPolicy(_ context.Context, userID string) (user.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policyErr != nil {
		return user.DefaultPolicy(), s.policyErr
	}
	if p, ok := s.policies[userID]; ok {
		return p, nil
	}
	return user.DefaultPolicy(), nil
}

func (s *fakeStore) GetDeviceLastActivity(_ context.Context, fingerprint string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "activity:"+fingerprint)
	at, ok := s.activity[fingerprint]
	return at, ok, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *fakeNotifier) Notify(_ context.Context, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
	return true
}

// eventLog is a synchronous publisher.
type eventLog struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (l *eventLog) Publish(ev events.DomainEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) ofType(eventType string) []events.DomainEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []events.DomainEvent
	for _, ev := range l.events {
		if ev.GetEventType() == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (l *eventLog) connections() []bool {
	var out []bool
	for _, ev := range l.ofType(EventTypeConnectionStatus) {
		out = append(out, ev.(ConnectionStatusEvent).Connected)
	}
	return out
}

func (l *eventLog) logs(level Level) []string {
	var out []string
	for _, ev := range l.ofType(EventTypeLog) {
		if le := ev.(LogEvent); le.Level == level {
			out = append(out, le.Message)
		}
	}
	return out
}

type harness struct {
	engine   *Engine
	source   *fakeSource
	store    *fakeStore
	notifier *fakeNotifier
	events   *eventLog
	cfg      *sharedConfig.Static
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		source:   &fakeSource{},
		store:    newFakeStore(),
		notifier: &fakeNotifier{},
		events:   &eventLog{},
		cfg: &sharedConfig.Static{
			Interval: 10 * time.Millisecond,
			Policy: sharedConfig.RulesConfig{
				DefaultMaxStreams:  1,
				TerminationMessage: "limit reached",
				PausedMessage:      "paused stream stopped",
				DisabledMessage:    "account disabled",
			},
		},
	}
	h.engine = New(Deps{
		Source:   h.source,
		Store:    h.store,
		Notifier: h.notifier,
		Events:   h.events,
		Config:   h.cfg,
		Logger:   logger.Nop(),
	}, opts)
	return h
}

// arm marks the engine as started without launching the loop goroutine, so
// tests can drive step directly.
func (h *harness) arm() {
	h.engine.started.Store(true)
	h.engine.state.Store(int32(StateRunning))
}

func (h *harness) serve(results ...fetchResult) {
	h.source.mu.Lock()
	defer h.source.mu.Unlock()
	h.source.results = results
}

func rec(sid, uid, machine string, state session.State) session.Record {
	return session.Record{
		SessionID:  sid,
		UserID:     uid,
		Username:   "user-" + uid,
		MediaTitle: "Title " + sid,
		IPAddress:  "10.0.0.1",
		MachineID:  machine,
		Platform:   "Roku",
		Device:     "Living Room",
		State:      state,
	}
}

func snapshotOf(records ...session.Record) session.Snapshot {
	s := session.Snapshot{}
	for _, r := range records {
		s.Add(r)
	}
	return s
}
