package handlers

import (
	"context"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/application/monitor"
	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	apperrors "github.com/plexpatrol/plexpatrol/internal/shared/errors"
)

type mockMonitor struct {
	state      monitor.State
	healthy    bool
	snap       session.Snapshot
	polledAt   time.Time
	stopErr    error
	stopResult *monitor.StopResult
	lastStop   struct{ sessionID, reason string }
	pauseErr   error
	resumeErr  error
}

func (m *mockMonitor) State() monitor.State { return m.state }
func (m *mockMonitor) Healthy() bool        { return m.healthy }

func (m *mockMonitor) Snapshot() (session.Snapshot, time.Time) {
	if m.snap == nil {
		return session.Snapshot{}, m.polledAt
	}
	return m.snap, m.polledAt
}

func (m *mockMonitor) RequestStop(sessionID, reason string, reply chan<- monitor.StopResult) (string, error) {
	if m.stopErr != nil {
		return "", m.stopErr
	}
	m.lastStop.sessionID = sessionID
	m.lastStop.reason = reason
	if reply != nil && m.stopResult != nil {
		res := *m.stopResult
		res.RequestID = "req-1"
		reply <- res
	}
	return "req-1", nil
}

func (m *mockMonitor) Pause() error {
	if m.pauseErr == nil {
		m.state = monitor.StatePaused
	}
	return m.pauseErr
}

func (m *mockMonitor) Resume() error {
	if m.resumeErr == nil {
		m.state = monitor.StateRunning
	}
	return m.resumeErr
}

type mockUserStore struct {
	users       map[string]*user.User
	listErr     error
	upsertErr   error
	upserted    []user.Overrides
	upsertNames []string
	deleted     []string
}

func newMockUserStore(users ...*user.User) *mockUserStore {
	m := &mockUserStore{users: map[string]*user.User{}}
	for _, u := range users {
		m.users[u.ID()] = u
	}
	return m
}

func (m *mockUserStore) ListUsers(context.Context) ([]*user.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*user.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserStore) GetUser(_ context.Context, id string) (*user.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found", id)
	}
	return u, nil
}

func (m *mockUserStore) UpsertUser(_ context.Context, id, displayName string, o user.Overrides) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, o)
	m.upsertNames = append(m.upsertNames, displayName)
	if u, ok := m.users[id]; ok {
		return u.Apply(o)
	}
	return nil
}

func (m *mockUserStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperrors.NewNotFoundError("user not found", id)
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type bucketCall struct {
	from, to time.Time
	bucket   string
}

type mockReportStore struct {
	users   []session.UserStats
	err     error
	buckets []bucketCall
}

func (m *mockReportStore) UserStats(context.Context) ([]session.UserStats, error) {
	return m.users, m.err
}

func (m *mockReportStore) PlatformStats(context.Context) ([]session.PlatformStats, error) {
	return []session.PlatformStats{{Platform: "Roku", Sessions: 3, Terminations: 1}}, m.err
}

func (m *mockReportStore) IPStats(context.Context) ([]session.IPStats, error) {
	return nil, m.err
}

func (m *mockReportStore) SessionCountsByBucket(_ context.Context, from, to time.Time, bucket string) ([]session.BucketCount, error) {
	m.buckets = append(m.buckets, bucketCall{from: from, to: to, bucket: bucket})
	return []session.BucketCount{{Bucket: from, Sessions: 2}}, m.err
}
