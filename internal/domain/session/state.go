package session

import "strings"

// State is the playback state reported by the player.
type State string

const (
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateBuffering State = "buffering"
	StateUnknown   State = "unknown"
)

// ParseState normalises a raw player state. Anything the server sends that
// is not playing or paused is kept as-is so it can still be reported.
func ParseState(raw string) State {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StateUnknown
	}
	return State(s)
}

func (s State) String() string {
	return string(s)
}

func (s State) IsPlaying() bool {
	return s == StatePlaying
}

// EvictionRank orders states by how willing we are to stop them: higher
// ranks go first. Playing is never a preferred victim.
func (s State) EvictionRank() int {
	switch s {
	case StatePlaying:
		return 0
	case StatePaused:
		return 1
	default:
		return 2
	}
}
