package models

import "time"

// StreamSessionModel is one observed stream. At most one row per session id
// may be open (end_time NULL) at a time.
type StreamSessionModel struct {
	ID                uint      `gorm:"primarykey"`
	SessionID         string    `gorm:"size:128;not null;index:idx_sessions_session_id;uniqueIndex:idx_sessions_open,where:end_time IS NULL"`
	UserID            string    `gorm:"size:64;not null;index:idx_sessions_user_id"`
	DeviceFingerprint string    `gorm:"size:255;not null;index:idx_sessions_fingerprint"`
	StartTime         time.Time `gorm:"not null;index:idx_sessions_start_time"`
	LastActivity      time.Time `gorm:"not null"`
	EndTime           *time.Time
	Platform          string `gorm:"size:128;not null;default:''"`
	Product           string `gorm:"size:128;not null;default:''"`
	Device            string `gorm:"size:255;not null;default:''"`
	IPAddress         string `gorm:"size:64;not null;default:''"`
	MediaTitle        string `gorm:"size:512;not null;default:''"`
	LibrarySection    string `gorm:"size:255;not null;default:''"`
	State             string `gorm:"size:32;not null;default:'unknown'"`
	WasTerminated     bool   `gorm:"not null;default:false"`
}

// TableName specifies the table name for GORM
func (StreamSessionModel) TableName() string {
	return "sessions"
}
