package monitor

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/policy"
	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
)

// tick polls once and enforces every user. It returns false when the
// session list could not be obtained.
func (e *Engine) tick(ctx context.Context) bool {
	done := e.metrics.StartTick()
	defer done()

	payload, err := e.source.FetchActiveSessions(ctx)
	if err != nil {
		e.metrics.FetchError("fetch")
		e.fetchFailed(ctx, err)
		e.metrics.Tick("fetch_error")
		return false
	}
	snap, err := e.source.ParseSessions(payload)
	if err != nil {
		e.metrics.FetchError("parse")
		e.fetchFailed(ctx, err)
		e.metrics.Tick("parse_error")
		return false
	}

	e.errors = 0
	e.setHealthy(true)
	e.storeSnapshot(snap)

	limit, msgs := e.rules()
	for _, uid := range snap.UserIDs() {
		if ctx.Err() != nil {
			break
		}
		e.enforceUser(ctx, uid, snap[uid], limit, msgs)
	}
	e.metrics.Tick("ok")
	return true
}

func (e *Engine) rules() (int, policy.Messages) {
	limit, msgs := 1, policy.Messages{}
	if e.cfg == nil {
		return limit, msgs
	}
	r := e.cfg.Rules()
	if n := e.cfg.DefaultMaxStreams(); n >= 1 {
		limit = n
	}
	msgs = policy.Messages{
		Default:  e.cfg.DefaultTerminationMessage(),
		Playing:  r.PlayingMessage,
		Paused:   r.PausedMessage,
		Disabled: r.DisabledMessage,
	}
	if msgs.Disabled == "" {
		msgs.Disabled = msgs.Default
	}
	return limit, msgs
}

func (e *Engine) fetchFailed(ctx context.Context, err error) {
	e.errors++
	if e.errors >= e.opts.UnhealthyAfter {
		e.setHealthy(false)
		e.emit(LevelError, fmt.Sprintf("media server unreachable after %d attempts: %v", e.errors, err))
	} else {
		e.emit(LevelWarning, fmt.Sprintf("could not fetch sessions (attempt %d): %v", e.errors, err))
	}
	if e.errors%e.opts.ReconnectEvery == 0 {
		e.reconnect(ctx)
	}
}

func (e *Engine) reconnect(ctx context.Context) {
	e.emit(LevelInfo, "attempting to reconnect to media server")
	if e.source.TestConnection(ctx) {
		e.errors = 0
		e.setHealthy(true)
		e.emit(LevelSuccess, "reconnected to media server")
		return
	}
	wait := time.Duration(e.errors) * time.Second
	if wait > e.opts.MaxBackoff {
		wait = e.opts.MaxBackoff
	}
	e.extraWait = wait
	e.emit(LevelError, fmt.Sprintf("reconnect failed, waiting an extra %s", wait))
}

func (e *Engine) storeSnapshot(snap session.Snapshot) {
	e.mu.Lock()
	e.snapshot = snap
	e.polledAt = time.Now()
	e.mu.Unlock()

	e.metrics.Snapshot(len(snap), snap.Count())
	e.publish(SessionsUpdatedEvent{
		BaseEvent: events.NewBaseEvent(e.id, EventTypeSessionsUpdated),
		Users:     snap,
		Count:     snap.Count(),
	})
}

func (e *Engine) enforceUser(ctx context.Context, userID string, recs []session.Record, limit int, msgs policy.Messages) {
	if len(recs) == 0 {
		return
	}

	// Activity must be read before this poll is recorded, otherwise every
	// current device would look equally fresh.
	last := make(map[string]time.Time, len(recs))
	queried := make(map[string]bool, len(recs))
	for _, rec := range recs {
		fp := rec.Fingerprint()
		if queried[fp] {
			continue
		}
		queried[fp] = true
		at, ok, err := e.store.GetDeviceLastActivity(ctx, fp)
		if err != nil {
			e.storeFailed("last_activity", err)
			continue
		}
		if ok {
			last[fp] = at
		}
	}

	for _, rec := range recs {
		if err := e.store.RecordSession(ctx, rec); err != nil {
			e.storeFailed("record_session", err)
		}
	}

	pol, err := e.store.GetUserPolicy(ctx, userID)
	if err != nil {
		e.storeFailed("user_policy", err)
		pol = user.DefaultPolicy()
	}

	username := recs[0].Username
	res := policy.Evaluate(policy.Input{
		UserID:       userID,
		Username:     username,
		Policy:       pol,
		DefaultLimit: limit,
		Sessions:     recs,
		LastActivity: last,
		Messages:     msgs,
	})

	switch {
	case res.Disabled:
		e.alertDisabled(ctx, recs[0])
		e.emit(LevelWarning, fmt.Sprintf("disabled user %s is streaming, stopping %d stream(s)", username, len(res.Decisions)),
			"user_id", userID)
	case res.OverLimit():
		msg := fmt.Sprintf("%s is on %d devices (limit %d), stopping %d stream(s)",
			username, res.DeviceCount, res.Limit, len(res.Decisions))
		if res.AllPlaying {
			msg += "; every device was playing, so all are stopped"
		}
		e.emit(LevelWarning, msg, "user_id", userID)
	}

	for _, d := range res.Decisions {
		if ctx.Err() != nil {
			return
		}
		e.terminate(ctx, d, TriggerPolicy)
	}
}

func (e *Engine) alertDisabled(ctx context.Context, rec session.Record) {
	if e.notifier == nil {
		return
	}
	text := fmt.Sprintf("<b>Disabled account is streaming</b>\nUser: %s\nTitle: %s\nPlatform: %s\nIP: %s",
		html.EscapeString(rec.Username),
		html.EscapeString(rec.MediaTitle),
		html.EscapeString(rec.Platform),
		html.EscapeString(rec.IPAddress),
	)
	e.metrics.Notification(e.notifier.Notify(ctx, text))
}

// terminate asks the server to stop one stream and records the outcome.
func (e *Engine) terminate(ctx context.Context, d policy.Decision, trigger Trigger) (bool, bool, error) {
	ok, err := e.source.TerminateSession(ctx, d.SessionID, d.Reason)
	if err == nil && !ok {
		err = fmt.Errorf("media server did not confirm the stop")
	}
	e.metrics.Termination(string(trigger), err == nil)
	if err != nil {
		e.emit(LevelError, fmt.Sprintf("failed to stop %s: %v", describe(d), err),
			"session_id", d.SessionID)
		return false, false, err
	}

	recorded, merr := e.store.MarkTerminated(ctx, d.SessionID)
	if merr != nil {
		e.storeFailed("mark_terminated", merr)
	}
	e.emit(LevelSuccess, "stopped "+describe(d),
		"session_id", d.SessionID, "trigger", trigger)
	e.publish(StreamTerminatedEvent{
		BaseEvent: events.NewBaseEvent(d.SessionID, EventTypeStreamTerminated),
		Decision:  d,
		Trigger:   trigger,
		Recorded:  recorded,
	})
	return true, recorded, nil
}

func describe(d policy.Decision) string {
	what := d.MediaTitle
	if what == "" {
		what = "session " + d.SessionID
	}
	if d.Platform != "" {
		what += " on " + d.Platform
	}
	if d.Username != "" {
		what += " for " + d.Username
	}
	return what
}

func (e *Engine) cleanup(ctx context.Context) {
	n, err := e.store.CleanupExpired(ctx, e.opts.CleanupOlderThan)
	if err != nil {
		e.storeFailed("cleanup", err)
		return
	}
	if n > 0 {
		e.emit(LevelInfo, fmt.Sprintf("closed %d stale session(s)", n))
	}
}

func (e *Engine) storeFailed(op string, err error) {
	e.metrics.StoreError(op)
	e.logger.Warnw("store operation failed", "op", op, "error", err)
}
