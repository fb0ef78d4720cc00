package handlers

import (
	"context"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/application/monitor"
	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/services"
)

// MonitorController is the part of the enforcement engine the API drives.
type MonitorController interface {
	State() monitor.State
	Healthy() bool
	Snapshot() (session.Snapshot, time.Time)
	RequestStop(sessionID, reason string, reply chan<- monitor.StopResult) (string, error)
	Pause() error
	Resume() error
}

type UserStore interface {
	ListUsers(ctx context.Context) ([]*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	UpsertUser(ctx context.Context, id, displayName string, overrides user.Overrides) error
	DeleteUser(ctx context.Context, id string) error
}

type ReportStore interface {
	UserStats(ctx context.Context) ([]session.UserStats, error)
	PlatformStats(ctx context.Context) ([]session.PlatformStats, error)
	IPStats(ctx context.Context) ([]session.IPStats, error)
	SessionCountsByBucket(ctx context.Context, from, to time.Time, bucket string) ([]session.BucketCount, error)
}

// EventStream hands out SSE connections fed by the event dispatcher.
type EventStream interface {
	RegisterConn(connID string, types []string) *services.SSEConn
	UnregisterConn(connID string)
}
