package models

// PlatformStatModel counts terminations per user and client platform.
type PlatformStatModel struct {
	ID           uint   `gorm:"primarykey"`
	UserID       string `gorm:"size:64;not null;uniqueIndex:idx_platform_stats_user_platform"`
	Platform     string `gorm:"size:128;not null;uniqueIndex:idx_platform_stats_user_platform"`
	Terminations int64  `gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM
func (PlatformStatModel) TableName() string {
	return "platform_stats"
}
