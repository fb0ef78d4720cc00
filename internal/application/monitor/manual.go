package monitor

import (
	"context"

	"github.com/plexpatrol/plexpatrol/internal/domain/policy"
)

func (e *Engine) handleStop(ctx context.Context, req stopRequest) {
	reason := req.reason
	if reason == "" && e.cfg != nil {
		reason = e.cfg.DefaultTerminationMessage()
	}

	d := policy.Decision{SessionID: req.sessionID, Reason: reason}
	e.mu.RLock()
	rec, found := e.snapshot.Find(req.sessionID)
	e.mu.RUnlock()
	if found {
		d.UserID = rec.UserID
		d.Username = rec.Username
		d.Platform = rec.Platform
		d.Device = rec.Device
		d.MediaTitle = rec.MediaTitle
		d.IPAddress = rec.IPAddress
		d.Fingerprint = rec.Fingerprint()
		d.State = rec.State
	}

	e.logger.Infow("serving manual stop", "request_id", req.id, "session_id", req.sessionID)
	ok, recorded, err := e.terminate(ctx, d, TriggerManual)

	if req.reply == nil {
		return
	}
	res := StopResult{RequestID: req.id, SessionID: req.sessionID, Terminated: ok, Recorded: recorded}
	if err != nil {
		res.Error = err.Error()
	}
	select {
	case req.reply <- res:
	default:
		e.logger.Warnw("stop result dropped, reply channel full", "request_id", req.id)
	}
}
