package models

import "time"

// PlexUserModel represents the database persistence model for media server accounts.
type PlexUserModel struct {
	ID                 string `gorm:"primarykey;size:64"`
	Username           string `gorm:"size:255;not null;default:''"`
	Email              string `gorm:"size:255;not null;default:''"`
	Phone              string `gorm:"size:64;not null;default:''"`
	IsWhitelisted      bool   `gorm:"not null;default:false"`
	IsDisabled         bool   `gorm:"not null;default:false"`
	MaxStreams         *int
	Notes              string `gorm:"type:text;not null;default:''"`
	LastSeen           *time.Time
	TotalSessions      int64 `gorm:"not null;default:0"`
	TerminatedSessions int64 `gorm:"not null;default:0"`
	LastKill           *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (PlexUserModel) TableName() string {
	return "plex_users"
}
