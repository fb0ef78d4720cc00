package session

import "time"

// UserStats aggregates history per user.
type UserStats struct {
	UserID             string     `json:"user_id"`
	Username           string     `json:"username"`
	TotalSessions      int64      `json:"total_sessions"`
	TerminatedSessions int64      `json:"terminated_sessions"`
	DistinctDevices    int64      `json:"distinct_devices"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
	LastKill           *time.Time `json:"last_kill,omitempty"`
}

// PlatformStats aggregates history per client platform.
type PlatformStats struct {
	Platform     string `json:"platform"`
	Sessions     int64  `json:"sessions"`
	Terminations int64  `json:"terminations"`
}

// IPStats aggregates history per client address.
type IPStats struct {
	IPAddress    string    `json:"ip_address"`
	Sessions     int64     `json:"sessions"`
	Users        int64     `json:"users"`
	Terminations int64     `json:"terminations"`
	LastSeen     time.Time `json:"last_seen"`
}

// BucketCount is the number of sessions started in one time bucket.
type BucketCount struct {
	Bucket       time.Time `json:"bucket"`
	Sessions     int64     `json:"sessions"`
	Terminations int64     `json:"terminations"`
}
