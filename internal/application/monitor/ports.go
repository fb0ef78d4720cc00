package monitor

import (
	"context"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
)

// SessionSource is the media server as the loop sees it.
type SessionSource interface {
	FetchActiveSessions(ctx context.Context) ([]byte, error)
	ParseSessions(payload []byte) (session.Snapshot, error)
	TerminateSession(ctx context.Context, sessionID, reason string) (bool, error)
	TestConnection(ctx context.Context) bool
}

// Store is the subset of persistence the loop writes and reads.
type Store interface {
	RecordSession(ctx context.Context, rec session.Record) error
	MarkTerminated(ctx context.Context, sessionID string) (bool, error)
	CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error)
	GetUserPolicy(ctx context.Context, userID string) (user.Policy, error)
	GetDeviceLastActivity(ctx context.Context, fingerprint string) (time.Time, bool, error)
}

// Notifier delivers operator alerts, best effort.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// Recorder receives loop metrics.
type Recorder interface {
	StartTick() func()
	Tick(outcome string)
	FetchError(kind string)
	Termination(trigger string, ok bool)
	Snapshot(users, sessions int)
	Connected(ok bool)
	StoreError(op string)
	Notification(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) StartTick() func()       { return func() {} }
func (nopRecorder) Tick(string)             {}
func (nopRecorder) FetchError(string)       {}
func (nopRecorder) Termination(string, bool) {}
func (nopRecorder) Snapshot(int, int)       {}
func (nopRecorder) Connected(bool)          {}
func (nopRecorder) StoreError(string)       {}
func (nopRecorder) Notification(bool)       {}
