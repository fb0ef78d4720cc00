package monitor

import (
	"github.com/plexpatrol/plexpatrol/internal/domain/policy"
	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
)

const (
	EventTypeLog              = "monitor.log"
	EventTypeSessionsUpdated  = "monitor.sessions_updated"
	EventTypeConnectionStatus = "monitor.connection_status"
	EventTypeStreamTerminated = "monitor.stream_terminated"
)

// Level is the severity of an operator-facing log line.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
	LevelSuccess Level = "SUCCESS"
)

// Trigger says why a stream was stopped.
type Trigger string

const (
	TriggerPolicy Trigger = "policy"
	TriggerManual Trigger = "manual"
)

// LogEvent is one line for the operator log.
type LogEvent struct {
	events.BaseEvent
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// SessionsUpdatedEvent carries the streams seen by the latest poll.
type SessionsUpdatedEvent struct {
	events.BaseEvent
	Users session.Snapshot `json:"users"`
	Count int              `json:"count"`
}

// ConnectionStatusEvent fires when the media server health flag flips.
type ConnectionStatusEvent struct {
	events.BaseEvent
	Connected bool `json:"connected"`
}

// StreamTerminatedEvent fires after the server confirmed a stop.
type StreamTerminatedEvent struct {
	events.BaseEvent
	Decision policy.Decision `json:"decision"`
	Trigger  Trigger         `json:"trigger"`
	Recorded bool            `json:"recorded"`
}
