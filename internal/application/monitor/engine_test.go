package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/metrics"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

func TestStep_RecordsAndPublishesSnapshot(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.serve(fetchResult{snap: snapshotOf(rec("s1", "u1", "m1", session.StatePlaying))})

	wait := h.engine.step(context.Background())

	assert.Equal(t, 10*time.Millisecond, wait)
	assert.Equal(t, []string{"s1"}, h.store.recorded)
	assert.Empty(t, h.source.stopped())
	assert.True(t, h.engine.Healthy())
	assert.Equal(t, []bool{true}, h.events.connections())

	updates := h.events.ofType(EventTypeSessionsUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, updates[0].(SessionsUpdatedEvent).Count)

	snap, at := h.engine.Snapshot()
	assert.False(t, at.IsZero())
	_, found := snap.Find("s1")
	assert.True(t, found)
}

func TestStep_StopsPausedDeviceFirst(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.serve(fetchResult{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePlaying),
		rec("s2", "u1", "m2", session.StatePaused),
	)})

	h.engine.step(context.Background())

	assert.Equal(t, []terminateCall{{sessionID: "s2", reason: "paused stream stopped"}}, h.source.stopped())
	assert.Equal(t, []string{"s2"}, h.store.terminated)

	stops := h.events.ofType(EventTypeStreamTerminated)
	require.Len(t, stops, 1)
	ev := stops[0].(StreamTerminatedEvent)
	assert.Equal(t, TriggerPolicy, ev.Trigger)
	assert.True(t, ev.Recorded)
	assert.Equal(t, "s2", ev.GetAggregateID())
	assert.Len(t, h.events.logs(LevelWarning), 1)
	assert.Len(t, h.events.logs(LevelSuccess), 1)
}

func TestStep_ReadsActivityBeforeRecording(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	two := 2
	h.store.policies["u1"] = user.Policy{MaxStreams: &two}

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	h.store.activity[session.Fingerprint("m1", "10.0.0.1")] = base.Add(5 * time.Minute)
	h.store.activity[session.Fingerprint("m2", "10.0.0.1")] = base
	h.store.activity[session.Fingerprint("m3", "10.0.0.1")] = base.Add(10 * time.Minute)
	h.serve(fetchResult{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePaused),
		rec("s2", "u1", "m2", session.StatePaused),
		rec("s3", "u1", "m3", session.StatePaused),
	)})

	h.engine.step(context.Background())

	stopped := h.source.stopped()
	require.Len(t, stopped, 1)
	assert.Equal(t, "s2", stopped[0].sessionID)

	require.Len(t, h.store.calls, 6)
	for i, call := range h.store.calls {
		if i < 3 {
			assert.Contains(t, call, "activity:")
		} else {
			assert.Contains(t, call, "record:")
		}
	}
}

func TestStep_DisabledUserIsAlertedAndStopped(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.store.policies["u1"] = user.Policy{Disabled: true}
	first := rec("s1", "u1", "m1", session.StatePlaying)
	first.MediaTitle = "Tom & Jerry"
	h.serve(fetchResult{snap: snapshotOf(first, rec("s2", "u1", "m1", session.StatePlaying))})

	h.engine.step(context.Background())

	assert.Equal(t, []terminateCall{
		{sessionID: "s1", reason: "account disabled"},
		{sessionID: "s2", reason: "account disabled"},
	}, h.source.stopped())

	require.Len(t, h.notifier.texts, 1)
	text := h.notifier.texts[0]
	assert.Contains(t, text, "user-u1")
	assert.Contains(t, text, "Tom &amp; Jerry")
	assert.Contains(t, text, "Roku")
	assert.Contains(t, text, "10.0.0.1")
}

func TestStep_WhitelistedUserIsLeftAlone(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.store.policies["u1"] = user.Policy{Whitelisted: true}
	h.serve(fetchResult{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePaused),
		rec("s2", "u1", "m2", session.StatePaused),
		rec("s3", "u1", "m3", session.StatePaused),
	)})

	h.engine.step(context.Background())

	assert.Empty(t, h.source.stopped())
	assert.Len(t, h.store.recorded, 3)
}

func TestStep_StoreFailuresDoNotBlockEnforcement(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.store.policyErr = errors.New("database is locked")
	h.store.recordErr = errors.New("database is locked")
	h.serve(fetchResult{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePlaying),
		rec("s2", "u1", "m2", session.StatePaused),
	)})

	h.engine.step(context.Background())

	assert.Equal(t, []terminateCall{{sessionID: "s2", reason: "paused stream stopped"}}, h.source.stopped())
	assert.Equal(t, []string{"s2"}, h.store.terminated)
}

func TestStep_AllPlayingDevicesAreStopped(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.serve(fetchResult{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePlaying),
		rec("s2", "u1", "m2", session.StatePlaying),
	)})

	h.engine.step(context.Background())

	assert.Len(t, h.source.stopped(), 2)
	warnings := h.events.logs(LevelWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "every device was playing")
}

func TestStep_TerminateFailureIsNotRecorded(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.source.terminateErr = errors.New("status 500")
	h.serve(fetchResult{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePlaying),
		rec("s2", "u1", "m2", session.StatePaused),
	)})

	h.engine.step(context.Background())

	assert.Empty(t, h.store.terminated)
	assert.Empty(t, h.events.ofType(EventTypeStreamTerminated))
	assert.Len(t, h.events.logs(LevelError), 1)
}

func TestStep_HealthEventOncePerStreak(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	fail := fetchResult{err: errUnreachable}
	h.serve(fail, fail, fail, fail, fetchResult{snap: session.Snapshot{}})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		h.engine.step(ctx)
	}
	assert.False(t, h.engine.Healthy())
	assert.Equal(t, []bool{false}, h.events.connections())
	assert.Len(t, h.events.logs(LevelWarning), 2)
	assert.Len(t, h.events.logs(LevelError), 2)

	h.engine.step(ctx)
	assert.True(t, h.engine.Healthy())
	assert.Equal(t, []bool{false, true}, h.events.connections())
	assert.Zero(t, h.engine.errors)
}

func TestStep_BackoffAndFailedReconnect(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.serve(fetchResult{err: errUnreachable})
	ctx := context.Background()

	var waits []time.Duration
	for i := 0; i < 5; i++ {
		waits = append(waits, h.engine.step(ctx))
	}

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		10 * time.Millisecond,
		15 * time.Second,
		20 * time.Second,
		25*time.Second + 5*time.Second,
	}, waits)
	assert.Equal(t, 1, h.source.probes)

	for i := 0; i < 10; i++ {
		h.engine.step(ctx)
	}
	assert.Equal(t, 60*time.Second, h.engine.step(ctx))
}

func TestStep_SuccessfulReconnectResetsStreak(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.source.probeOK = true
	h.serve(fetchResult{err: errUnreachable})
	ctx := context.Background()

	var wait time.Duration
	for i := 0; i < 5; i++ {
		wait = h.engine.step(ctx)
	}

	assert.Equal(t, 1, h.source.probes)
	assert.Zero(t, h.engine.errors)
	assert.True(t, h.engine.Healthy())
	assert.Equal(t, 10*time.Millisecond, wait)
	assert.Equal(t, []bool{false, true}, h.events.connections())
	assert.Len(t, h.events.logs(LevelSuccess), 1)
}

func TestStep_ParseFailureCountsAsFailure(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.serve(fetchResult{parseErr: errors.New("unexpected EOF")})

	h.engine.step(context.Background())

	assert.Equal(t, 1, h.engine.errors)
	assert.Empty(t, h.events.ofType(EventTypeSessionsUpdated))
	assert.Len(t, h.events.logs(LevelWarning), 1)
}

func TestStep_PanicCountsAsFailure(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.source.panicOnFetch = true

	h.engine.step(context.Background())

	assert.Equal(t, 1, h.engine.errors)
	assert.Len(t, h.events.logs(LevelError), 1)
}

func TestStep_CleanupCadenceSkipsPausedTicks(t *testing.T) {
	h := newHarness(t, Options{CleanupEveryTicks: 3})
	h.arm()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		h.engine.step(ctx)
	}
	assert.Equal(t, 2, h.store.cleanups)
	assert.Equal(t, 7, h.source.fetchCount())

	require.NoError(t, h.engine.Pause())
	for i := 0; i < 5; i++ {
		h.engine.step(ctx)
	}
	assert.Equal(t, 2, h.store.cleanups)
	assert.Equal(t, 7, h.source.fetchCount())

	require.NoError(t, h.engine.Resume())
	h.engine.step(ctx)
	h.engine.step(ctx)
	assert.Equal(t, 3, h.store.cleanups)
}

func TestStep_PausedStillServesManualStop(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	require.NoError(t, h.engine.Pause())

	reply := make(chan StopResult, 1)
	id, err := h.engine.RequestStop("s9", "", reply)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	h.engine.step(context.Background())

	assert.Zero(t, h.source.fetchCount())
	assert.Equal(t, []terminateCall{{sessionID: "s9", reason: "limit reached"}}, h.source.stopped())

	res := <-reply
	assert.Equal(t, id, res.RequestID)
	assert.True(t, res.Terminated)
	assert.True(t, res.Recorded)
	assert.Empty(t, res.Error)

	// s9 was never polled, so there is no user to name.
	assert.Contains(t, h.events.logs(LevelSuccess), "stopped session s9")
}

func TestRequestStop_UsesSnapshotDetails(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.serve(fetchResult{snap: snapshotOf(rec("s1", "u1", "m1", session.StatePlaying))})
	ctx := context.Background()
	h.engine.step(ctx)

	_, err := h.engine.RequestStop("s1", "bye", nil)
	require.NoError(t, err)
	h.engine.step(ctx)

	assert.Equal(t, []terminateCall{{sessionID: "s1", reason: "bye"}}, h.source.stopped())
	stops := h.events.ofType(EventTypeStreamTerminated)
	require.Len(t, stops, 1)
	ev := stops[0].(StreamTerminatedEvent)
	assert.Equal(t, TriggerManual, ev.Trigger)
	assert.Equal(t, "Title s1", ev.Decision.MediaTitle)
	assert.Equal(t, "u1", ev.Decision.UserID)
}

func TestRequestStop_ReportsTerminateFailure(t *testing.T) {
	h := newHarness(t, Options{})
	h.arm()
	h.source.terminateErr = errors.New("status 404")

	reply := make(chan StopResult, 1)
	_, err := h.engine.RequestStop("gone", "bye", reply)
	require.NoError(t, err)
	h.engine.step(context.Background())

	res := <-reply
	assert.False(t, res.Terminated)
	assert.Contains(t, res.Error, "404")
	assert.Empty(t, h.store.terminated)
}

func TestRequestStop_Validation(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.engine.RequestStop("s1", "", nil)
	assert.ErrorIs(t, err, ErrNotRunning)

	h.arm()
	_, err = h.engine.RequestStop("", "", nil)
	assert.Error(t, err)

	for i := 0; i < requestQueueSize; i++ {
		_, err = h.engine.RequestStop("s1", "", nil)
		require.NoError(t, err)
	}
	_, err = h.engine.RequestStop("s1", "", nil)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTogglePause(t *testing.T) {
	h := newHarness(t, Options{})

	_, err := h.engine.TogglePause()
	assert.ErrorIs(t, err, ErrNotRunning)

	h.arm()
	state, err := h.engine.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, StatePaused, state)
	assert.Equal(t, StatePaused, h.engine.State())

	state, err = h.engine.TogglePause()
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)
	assert.Equal(t, []string{"monitoring paused"}, h.events.logs(LevelWarning))
}

func TestEngine_StopInterruptsSleep(t *testing.T) {
	h := newHarness(t, Options{})
	h.cfg.Interval = time.Hour

	require.NoError(t, h.engine.Start(context.Background()))
	assert.ErrorIs(t, h.engine.Start(context.Background()), ErrAlreadyStarted)
	require.Eventually(t, func() bool { return h.source.fetchCount() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	assert.True(t, h.engine.Stop())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateStopped, h.engine.State())
	<-h.engine.Done()

	_, err := h.engine.RequestStop("s1", "", nil)
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.True(t, h.engine.Stop())
}

func TestEngine_ContextCancelEndsLoop(t *testing.T) {
	h := newHarness(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, h.engine.Start(ctx))
	require.Eventually(t, func() bool { return h.source.fetchCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-h.engine.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after cancel")
	}
	assert.Equal(t, StateStopped, h.engine.State())
	assert.Contains(t, h.events.logs(LevelInfo), "monitoring stopped")
}

func TestEngine_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &fakeSource{results: []fetchResult{{snap: snapshotOf(
		rec("s1", "u1", "m1", session.StatePlaying),
		rec("s2", "u1", "m2", session.StatePaused),
	)}}}
	h := newHarness(t, Options{})
	e := New(Deps{
		Source:  src,
		Store:   h.store,
		Config:  h.cfg,
		Metrics: metrics.New(reg),
		Logger:  logger.Nop(),
	}, Options{})
	e.started.Store(true)
	e.state.Store(int32(StateRunning))

	e.step(context.Background())

	n, err := testutil.GatherAndCount(reg, "plexpatrol_monitor_terminations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = testutil.GatherAndCount(reg, "plexpatrol_monitor_ticks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
