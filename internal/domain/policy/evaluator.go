// Package policy decides which streams of a user must be stopped. It is pure:
// everything it needs is passed in and nothing is mutated.
package policy

import (
	"sort"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
)

// Messages are the reason texts shown on the stopped player.
type Messages struct {
	Default  string
	Playing  string
	Paused   string
	Disabled string
}

// ForState picks the reason for a stream in the given state.
func (m Messages) ForState(s session.State) string {
	switch s {
	case session.StatePlaying:
		if m.Playing != "" {
			return m.Playing
		}
	case session.StatePaused:
		if m.Paused != "" {
			return m.Paused
		}
	}
	return m.Default
}

// Input is one user's view of a poll.
type Input struct {
	UserID       string
	Username     string
	Policy       user.Policy
	DefaultLimit int
	Sessions     []session.Record
	// LastActivity holds the last stored activity per device fingerprint,
	// read before the current poll is recorded. Every poll refreshes it
	// whatever the playback state, so devices reported by the previous poll
	// share one value and tie on fingerprint; older values only come from
	// devices returning after a gap. A device without an entry was never
	// seen: its zero time sorts it first among equal ranks, so the newest
	// joiner is evicted before established devices.
	LastActivity map[string]time.Time
	Messages     Messages
}

// Decision is a single stream to stop.
type Decision struct {
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	Platform    string        `json:"platform"`
	Device      string        `json:"device"`
	MediaTitle  string        `json:"media_title"`
	IPAddress   string        `json:"ip_address"`
	Fingerprint string        `json:"fingerprint"`
	State       session.State `json:"state"`
	Reason      string        `json:"reason"`
}

// Result is the outcome for one user.
type Result struct {
	Decisions   []Decision
	Disabled    bool
	Whitelisted bool
	DeviceCount int
	Limit       int
	// AllPlaying is set when no lower priority device existed and every
	// device was stopped.
	AllPlaying bool
}

// OverLimit reports whether the user had more devices than allowed.
func (r Result) OverLimit() bool {
	return !r.Disabled && !r.Whitelisted && r.DeviceCount > r.Limit
}

type device struct {
	fingerprint  string
	sessions     []session.Record
	rank         int
	lastActivity time.Time
}

// Evaluate returns the streams to stop for one user, in eviction order.
// All streams of an evicted device are listed consecutively.
func Evaluate(in Input) Result {
	devices := groupDevices(in.Sessions, in.LastActivity)
	limit := in.Policy.Limit(in.DefaultLimit)
	res := Result{DeviceCount: len(devices), Limit: limit}

	if len(in.Sessions) == 0 {
		return res
	}

	if in.Policy.Disabled {
		res.Disabled = true
		for _, rec := range in.Sessions {
			res.Decisions = append(res.Decisions, decide(in, rec, in.Messages.Disabled))
		}
		return res
	}

	if in.Policy.Whitelisted {
		res.Whitelisted = true
		return res
	}

	excess := len(devices) - limit
	if excess <= 0 {
		return res
	}

	var candidates []device
	for _, d := range devices {
		if d.rank > session.StatePlaying.EvictionRank() {
			candidates = append(candidates, d)
		}
	}

	var evicted []device
	if len(candidates) == 0 {
		res.AllPlaying = true
		evicted = devices
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.rank != b.rank {
				return a.rank > b.rank
			}
			if !a.lastActivity.Equal(b.lastActivity) {
				return a.lastActivity.Before(b.lastActivity)
			}
			return a.fingerprint < b.fingerprint
		})
		if excess < len(candidates) {
			candidates = candidates[:excess]
		}
		evicted = candidates
	}

	for _, d := range evicted {
		for _, rec := range d.sessions {
			res.Decisions = append(res.Decisions, decide(in, rec, in.Messages.ForState(rec.State)))
		}
	}
	return res
}

// groupDevices buckets sessions by fingerprint, keeping first-seen order.
// A device's rank is the lowest rank among its sessions, so any playing
// session makes the whole device count as playing.
func groupDevices(records []session.Record, lastActivity map[string]time.Time) []device {
	index := make(map[string]int, len(records))
	var devices []device
	for _, rec := range records {
		fp := rec.Fingerprint()
		i, ok := index[fp]
		if !ok {
			index[fp] = len(devices)
			devices = append(devices, device{
				fingerprint:  fp,
				rank:         rec.State.EvictionRank(),
				lastActivity: lastActivity[fp],
			})
			i = len(devices) - 1
		}
		d := &devices[i]
		d.sessions = append(d.sessions, rec)
		if r := rec.State.EvictionRank(); r < d.rank {
			d.rank = r
		}
	}
	return devices
}

func decide(in Input, rec session.Record, reason string) Decision {
	username := rec.Username
	if username == "" {
		username = in.Username
	}
	return Decision{
		SessionID:   rec.SessionID,
		UserID:      in.UserID,
		Username:    username,
		Platform:    rec.Platform,
		Device:      rec.Device,
		MediaTitle:  rec.MediaTitle,
		IPAddress:   rec.IPAddress,
		Fingerprint: rec.Fingerprint(),
		State:       rec.State,
		Reason:      reason,
	}
}
