package config

import "time"

// Provider exposes the values the enforcement loop re-reads on every cycle.
// Implementations must be safe for concurrent use and may change values at
// runtime.
type Provider interface {
	PlexServerURL() string
	PlexToken() string
	CheckInterval() time.Duration
	DefaultMaxStreams() int
	DefaultTerminationMessage() string
	Rules() RulesConfig
}

// Static is a fixed Provider, used by one-shot commands and tests.
type Static struct {
	ServerURL string
	Token     string
	Interval  time.Duration
	Policy    RulesConfig
}

func (s *Static) PlexServerURL() string            { return s.ServerURL }
func (s *Static) PlexToken() string                { return s.Token }
func (s *Static) CheckInterval() time.Duration     { return s.Interval }
func (s *Static) DefaultMaxStreams() int           { return s.Policy.DefaultMaxStreams }
func (s *Static) DefaultTerminationMessage() string { return s.Policy.TerminationMessage }
func (s *Static) Rules() RulesConfig               { return s.Policy }
