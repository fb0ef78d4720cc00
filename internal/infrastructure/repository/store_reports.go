package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/models"
	"github.com/plexpatrol/plexpatrol/internal/shared/biztime"
	"github.com/plexpatrol/plexpatrol/internal/shared/constants"
)

// Reporting aggregates are folded in Go over narrow selects so they do not
// depend on sqlite date functions.

type sessionFact struct {
	UserID            string
	DeviceFingerprint string
	Platform          string
	IPAddress         string
	StartTime         time.Time
	LastActivity      time.Time
	WasTerminated     bool
}

func (s *Store) sessionFacts(ctx context.Context, from, to time.Time) ([]sessionFact, error) {
	q := s.db.WithContext(ctx).Model(&models.StreamSessionModel{}).
		Select("user_id", "device_fingerprint", "platform", "ip_address", "start_time", "last_activity", "was_terminated")
	if !from.IsZero() {
		q = q.Where("start_time >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("start_time < ?", to.UTC())
	}

	var facts []sessionFact
	if err := q.Find(&facts).Error; err != nil {
		return nil, err
	}
	return facts, nil
}

// UserStats returns per-user counters, busiest first.
func (s *Store) UserStats(ctx context.Context) ([]session.UserStats, error) {
	var users []models.PlexUserModel
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		s.logger.Errorw("failed to load users for stats", "error", err)
		return nil, readErr("user stats", err)
	}
	facts, err := s.sessionFacts(ctx, time.Time{}, time.Time{})
	if err != nil {
		s.logger.Errorw("failed to load sessions for stats", "error", err)
		return nil, readErr("user stats", err)
	}

	devices := make(map[string]map[string]struct{})
	for _, f := range facts {
		if devices[f.UserID] == nil {
			devices[f.UserID] = make(map[string]struct{})
		}
		devices[f.UserID][f.DeviceFingerprint] = struct{}{}
	}

	out := make([]session.UserStats, 0, len(users))
	for _, u := range users {
		out = append(out, session.UserStats{
			UserID:             u.ID,
			Username:           u.Username,
			TotalSessions:      u.TotalSessions,
			TerminatedSessions: u.TerminatedSessions,
			DistinctDevices:    int64(len(devices[u.ID])),
			LastSeen:           u.LastSeen,
			LastKill:           u.LastKill,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalSessions != out[j].TotalSessions {
			return out[i].TotalSessions > out[j].TotalSessions
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// PlatformStats combines session history with the termination counters.
func (s *Store) PlatformStats(ctx context.Context) ([]session.PlatformStats, error) {
	facts, err := s.sessionFacts(ctx, time.Time{}, time.Time{})
	if err != nil {
		s.logger.Errorw("failed to load sessions for platform stats", "error", err)
		return nil, readErr("platform stats", err)
	}
	var counters []models.PlatformStatModel
	if err := s.db.WithContext(ctx).Find(&counters).Error; err != nil {
		s.logger.Errorw("failed to load platform counters", "error", err)
		return nil, readErr("platform stats", err)
	}

	byPlatform := make(map[string]*session.PlatformStats)
	get := func(name string) *session.PlatformStats {
		if name == "" {
			name = constants.UnknownValue
		}
		ps, ok := byPlatform[name]
		if !ok {
			ps = &session.PlatformStats{Platform: name}
			byPlatform[name] = ps
		}
		return ps
	}
	for _, f := range facts {
		get(f.Platform).Sessions++
	}
	for _, c := range counters {
		get(c.Platform).Terminations += c.Terminations
	}

	out := make([]session.PlatformStats, 0, len(byPlatform))
	for _, ps := range byPlatform {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sessions != out[j].Sessions {
			return out[i].Sessions > out[j].Sessions
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}

// IPStats groups history by client address.
func (s *Store) IPStats(ctx context.Context) ([]session.IPStats, error) {
	facts, err := s.sessionFacts(ctx, time.Time{}, time.Time{})
	if err != nil {
		s.logger.Errorw("failed to load sessions for ip stats", "error", err)
		return nil, readErr("ip stats", err)
	}

	type acc struct {
		stats session.IPStats
		users map[string]struct{}
	}
	byIP := make(map[string]*acc)
	for _, f := range facts {
		a, ok := byIP[f.IPAddress]
		if !ok {
			a = &acc{stats: session.IPStats{IPAddress: f.IPAddress}, users: make(map[string]struct{})}
			byIP[f.IPAddress] = a
		}
		a.stats.Sessions++
		a.users[f.UserID] = struct{}{}
		if f.WasTerminated {
			a.stats.Terminations++
		}
		if f.LastActivity.After(a.stats.LastSeen) {
			a.stats.LastSeen = f.LastActivity
		}
	}

	out := make([]session.IPStats, 0, len(byIP))
	for _, a := range byIP {
		a.stats.Users = int64(len(a.users))
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sessions != out[j].Sessions {
			return out[i].Sessions > out[j].Sessions
		}
		return out[i].IPAddress < out[j].IPAddress
	})
	return out, nil
}

// SessionCountsByBucket counts sessions started in [from, to) per hour or
// per day. Day boundaries follow the reporting timezone. Empty buckets are
// included so the series is continuous.
func (s *Store) SessionCountsByBucket(ctx context.Context, from, to time.Time, bucket string) ([]session.BucketCount, error) {
	var trunc func(time.Time) time.Time
	var step func(time.Time) time.Time
	switch bucket {
	case constants.BucketHour:
		trunc = biztime.TruncateToHourInBiz
		step = func(t time.Time) time.Time { return t.Add(time.Hour) }
	case constants.BucketDay:
		trunc = biztime.StartOfDayUTC
		step = func(t time.Time) time.Time { return biztime.StartOfDayUTC(t.Add(36 * time.Hour)) }
	default:
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid range: from %s is not before to %s", from, to)
	}

	facts, err := s.sessionFacts(ctx, from, to)
	if err != nil {
		s.logger.Errorw("failed to load sessions for time buckets", "error", err)
		return nil, readErr("session buckets", err)
	}

	counts := make(map[time.Time]*session.BucketCount)
	var out []session.BucketCount
	for b := trunc(from); b.Before(to); b = step(b) {
		out = append(out, session.BucketCount{Bucket: b})
	}
	for i := range out {
		counts[out[i].Bucket] = &out[i]
	}
	for _, f := range facts {
		if c, ok := counts[trunc(f.StartTime)]; ok {
			c.Sessions++
			if f.WasTerminated {
				c.Terminations++
			}
		}
	}
	return out, nil
}
