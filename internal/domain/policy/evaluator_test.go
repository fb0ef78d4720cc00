package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
)

var testMessages = Messages{
	Default:  "default",
	Playing:  "playing",
	Paused:   "paused",
	Disabled: "disabled",
}

func stream(id, machine string, state session.State) session.Record {
	return session.Record{
		SessionID: id,
		UserID:    "7",
		Username:  "bob",
		MachineID: machine,
		IPAddress: "10.0.0." + machine,
		Platform:  "Roku",
		State:     state,
	}
}

func input(policy user.Policy, limit int, recs ...session.Record) Input {
	return Input{
		UserID:       "7",
		Username:     "bob",
		Policy:       policy,
		DefaultLimit: limit,
		Sessions:     recs,
		Messages:     testMessages,
	}
}

func ids(res Result) []string {
	out := make([]string, 0, len(res.Decisions))
	for _, d := range res.Decisions {
		out = append(out, d.SessionID)
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestEvaluate_Whitelisted(t *testing.T) {
	res := Evaluate(input(user.Policy{Whitelisted: true}, 1,
		stream("a", "1", session.StatePlaying),
		stream("b", "2", session.StatePlaying),
		stream("c", "3", session.StatePaused),
	))

	assert.Empty(t, res.Decisions)
	assert.True(t, res.Whitelisted)
	assert.Equal(t, 3, res.DeviceCount)
	assert.False(t, res.OverLimit())
}

func TestEvaluate_DisabledStopsEverything(t *testing.T) {
	res := Evaluate(input(user.Policy{Disabled: true, Whitelisted: true, MaxStreams: intPtr(10)}, 2,
		stream("a", "1", session.StatePlaying),
		stream("b", "1", session.StatePaused),
	))

	assert.True(t, res.Disabled)
	assert.Equal(t, []string{"a", "b"}, ids(res))
	for _, d := range res.Decisions {
		assert.Equal(t, "disabled", d.Reason)
		assert.Equal(t, "7", d.UserID)
	}
}

func TestEvaluate_WithinLimit(t *testing.T) {
	tests := []struct {
		name   string
		policy user.Policy
		limit  int
		recs   []session.Record
	}{
		{"no streams", user.Policy{}, 1, nil},
		{"disabled without streams", user.Policy{Disabled: true}, 1, nil},
		{"equal to default", user.Policy{}, 2, []session.Record{
			stream("a", "1", session.StatePlaying),
			stream("b", "2", session.StatePaused),
		}},
		{"two sessions one device", user.Policy{}, 1, []session.Record{
			stream("a", "1", session.StatePlaying),
			stream("b", "1", session.StatePlaying),
		}},
		{"override raises limit", user.Policy{MaxStreams: intPtr(3)}, 1, []session.Record{
			stream("a", "1", session.StatePlaying),
			stream("b", "2", session.StatePlaying),
			stream("c", "3", session.StatePlaying),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(input(tt.policy, tt.limit, tt.recs...))
			assert.Empty(t, res.Decisions)
			assert.False(t, res.Disabled)
		})
	}
}

func TestEvaluate_PausedEvictedFirst(t *testing.T) {
	res := Evaluate(input(user.Policy{}, 1,
		stream("a", "A", session.StatePaused),
		stream("b", "B", session.StatePlaying),
		stream("c", "C", session.StatePlaying),
	))

	assert.Equal(t, []string{"a"}, ids(res))
	assert.Equal(t, "paused", res.Decisions[0].Reason)
	assert.False(t, res.AllPlaying)
	assert.True(t, res.OverLimit())
}

func TestEvaluate_AllPlayingFallback(t *testing.T) {
	res := Evaluate(input(user.Policy{}, 1,
		stream("a", "A", session.StatePlaying),
		stream("b", "B", session.StatePlaying),
	))

	assert.Equal(t, []string{"a", "b"}, ids(res))
	assert.True(t, res.AllPlaying)
	for _, d := range res.Decisions {
		assert.Equal(t, "playing", d.Reason)
	}
}

func TestEvaluate_DeviceWithPlayingSessionCountsAsPlaying(t *testing.T) {
	// Device A has one paused and one playing session, so it is a playing
	// device; device B is only paused and goes first.
	res := Evaluate(input(user.Policy{}, 1,
		stream("a1", "A", session.StatePaused),
		stream("a2", "A", session.StatePlaying),
		stream("b1", "B", session.StatePaused),
	))

	assert.Equal(t, []string{"b1"}, ids(res))
}

func TestEvaluate_EvictsWholeDevice(t *testing.T) {
	res := Evaluate(input(user.Policy{}, 1,
		stream("a", "A", session.StatePlaying),
		stream("b1", "B", session.StatePaused),
		stream("b2", "B", session.StatePaused),
	))

	assert.Equal(t, []string{"b1", "b2"}, ids(res))
	assert.Equal(t, 2, res.DeviceCount)
}

func TestEvaluate_OtherStatesBeforePaused(t *testing.T) {
	res := Evaluate(input(user.Policy{}, 2,
		stream("p", "P", session.StatePaused),
		stream("x", "X", session.StateBuffering),
		stream("y", "Y", session.StatePlaying),
	))

	assert.Equal(t, []string{"x"}, ids(res))
	assert.Equal(t, "default", res.Decisions[0].Reason)
}

func TestEvaluate_OldestActivityFirst(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	in := input(user.Policy{}, 1,
		stream("new", "N", session.StatePaused),
		stream("old", "O", session.StatePaused),
		stream("play", "Q", session.StatePlaying),
	)
	in.LastActivity = map[string]time.Time{
		session.Fingerprint("N", "10.0.0.N"): now,
		session.Fingerprint("O", "10.0.0.O"): now.Add(-time.Hour),
	}

	res := Evaluate(in)
	assert.Equal(t, []string{"old", "new"}, ids(res))

	in.DefaultLimit = 2
	res = Evaluate(in)
	assert.Equal(t, []string{"old"}, ids(res))
}

func TestEvaluate_NewDeviceEvictedBeforeKnownDevices(t *testing.T) {
	prev := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	in := input(user.Policy{}, 2,
		stream("known-b", "B", session.StatePaused),
		stream("fresh", "F", session.StatePaused),
		stream("known-a", "A", session.StatePaused),
	)
	in.LastActivity = map[string]time.Time{
		session.Fingerprint("A", "10.0.0.A"): prev,
		session.Fingerprint("B", "10.0.0.B"): prev,
	}

	res := Evaluate(in)
	assert.Equal(t, []string{"fresh"}, ids(res))

	in.DefaultLimit = 1
	res = Evaluate(in)
	assert.Equal(t, []string{"fresh", "known-a"}, ids(res), "known devices tie on fingerprint")
}

func TestEvaluate_NilOverrideUsesDefault(t *testing.T) {
	res := Evaluate(input(user.Policy{MaxStreams: nil}, 2,
		stream("a", "A", session.StatePlaying),
		stream("b", "B", session.StatePaused),
	))

	assert.Equal(t, 2, res.Limit)
	assert.Empty(t, res.Decisions)
}

func TestEvaluate_Idempotent(t *testing.T) {
	in := input(user.Policy{}, 1,
		stream("a", "A", session.StatePaused),
		stream("b", "B", session.StatePaused),
		stream("c", "C", session.StatePlaying),
	)

	first := Evaluate(in)
	second := Evaluate(in)
	require.NotEmpty(t, first.Decisions)
	assert.Equal(t, first, second)
}

func TestMessages_ForStateFallsBack(t *testing.T) {
	m := Messages{Default: "default"}
	assert.Equal(t, "default", m.ForState(session.StatePlaying))
	assert.Equal(t, "default", m.ForState(session.StatePaused))
	assert.Equal(t, "playing", testMessages.ForState(session.StatePlaying))
}
