package session

import "time"

// Session is the persisted history row of one stream.
type Session struct {
	ID                uint
	SessionID         string
	UserID            string
	DeviceFingerprint string
	StartTime         time.Time
	LastActivity      time.Time
	EndTime           *time.Time
	Platform          string
	Product           string
	Device            string
	IPAddress         string
	MediaTitle        string
	LibrarySection    string
	State             State
	WasTerminated     bool
}

// IsOpen reports whether the stream has not been closed yet.
func (s *Session) IsOpen() bool {
	return s.EndTime == nil
}

// Duration is the wall time between start and end (or last activity while open).
func (s *Session) Duration() time.Duration {
	end := s.LastActivity
	if s.EndTime != nil {
		end = *s.EndTime
	}
	if end.Before(s.StartTime) {
		return 0
	}
	return end.Sub(s.StartTime)
}
