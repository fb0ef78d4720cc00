package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/models"
	apperrors "github.com/plexpatrol/plexpatrol/internal/shared/errors"
)

// RecordSession upserts the open row for rec.SessionID. The owning user is
// created when missing and its last_seen bumped; total_sessions only grows
// when a new row is inserted.
func (s *Store) RecordSession(ctx context.Context, rec session.Record) error {
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.upsertUserTx(tx, rec.UserID, rec.Username, user.Overrides{}); err != nil {
			return err
		}

		userUpdates := map[string]interface{}{"last_seen": now}

		var existing models.StreamSessionModel
		err := tx.Where("session_id = ? AND end_time IS NULL", rec.SessionID).Take(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"last_activity":      now,
				"state":              rec.State.String(),
				"media_title":        rec.MediaTitle,
				"library_section":    rec.LibrarySection,
				"ip_address":         rec.IPAddress,
				"device_fingerprint": rec.Fingerprint(),
				"platform":           rec.Platform,
				"product":            rec.Product,
				"device":             rec.Device,
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := s.sessionMapper.FromRecord(rec)
			row.StartTime = now
			row.LastActivity = now
			if err := tx.Create(row).Error; err != nil {
				return err
			}
			userUpdates["total_sessions"] = gorm.Expr("total_sessions + 1")
		default:
			return err
		}

		return tx.Model(&models.PlexUserModel{}).Where("id = ?", rec.UserID).Updates(userUpdates).Error
	})
	if err != nil {
		s.logger.Errorw("failed to record session",
			"session_id", rec.SessionID,
			"user_id", rec.UserID,
			"error", err,
		)
		return writeErr("record session", err)
	}

	return nil
}

// MarkTerminated closes the open row of sessionID and bumps the user's and
// the platform's termination counters. It reports false when no open row
// exists, so a stream is never counted twice.
func (s *Store) MarkTerminated(ctx context.Context, sessionID string) (bool, error) {
	now := s.now()
	closed := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.StreamSessionModel
		err := tx.Where("session_id = ? AND end_time IS NULL", sessionID).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Model(&models.StreamSessionModel{}).
			Where("id = ? AND end_time IS NULL", row.ID).
			Updates(map[string]interface{}{
				"end_time":       now,
				"last_activity":  now,
				"was_terminated": true,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&models.PlexUserModel{}).Where("id = ?", row.UserID).Updates(map[string]interface{}{
			"terminated_sessions": gorm.Expr("terminated_sessions + 1"),
			"last_kill":           now,
		}).Error; err != nil {
			return err
		}

		stat := models.PlatformStatModel{UserID: row.UserID, Platform: row.Platform, Terminations: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"terminations": gorm.Expr("platform_stats.terminations + 1")}),
		}).Create(&stat).Error; err != nil {
			return err
		}

		closed = true
		return nil
	})
	if err != nil {
		s.logger.Errorw("failed to mark session terminated", "session_id", sessionID, "error", err)
		return false, writeErr("mark terminated", err)
	}
	return closed, nil
}

// CleanupExpired deletes rows the server stopped reporting without an
// explicit stop: still open, never terminated, started before the cutoff
// and not refreshed by a poll since.
func (s *Store) CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)

	result := s.db.WithContext(ctx).
		Where("end_time IS NULL AND was_terminated = ? AND start_time < ? AND last_activity < ?", false, cutoff, cutoff).
		Delete(&models.StreamSessionModel{})
	if result.Error != nil {
		s.logger.Errorw("failed to clean up expired sessions", "cutoff", cutoff, "error", result.Error)
		return 0, writeErr("cleanup expired", result.Error)
	}
	if result.RowsAffected > 0 {
		s.logger.Infow("expired sessions removed", "count", result.RowsAffected, "cutoff", cutoff)
	}
	return result.RowsAffected, nil
}

// GetDeviceLastActivity returns the most recent activity stored for a
// device fingerprint, and false when the device was never seen.
func (s *Store) GetDeviceLastActivity(ctx context.Context, fingerprint string) (time.Time, bool, error) {
	var row models.StreamSessionModel
	err := s.db.WithContext(ctx).
		Select("last_activity").
		Where("device_fingerprint = ?", fingerprint).
		Order("last_activity DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		s.logger.Errorw("failed to read device activity", "fingerprint", fingerprint, "error", err)
		return time.Time{}, false, readErr("device last activity", err)
	}
	return row.LastActivity, true, nil
}

// GetSession returns the newest row for sessionID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	var row models.StreamSessionModel
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("session not found", sessionID)
		}
		s.logger.Errorw("failed to get session", "session_id", sessionID, "error", err)
		return nil, readErr("get session", err)
	}
	return s.sessionMapper.ToDomain(&row), nil
}

// ListOpenSessions returns every row that has not been closed yet.
func (s *Store) ListOpenSessions(ctx context.Context) ([]*session.Session, error) {
	var rows []models.StreamSessionModel
	if err := s.db.WithContext(ctx).Where("end_time IS NULL").Order("start_time").Find(&rows).Error; err != nil {
		s.logger.Errorw("failed to list open sessions", "error", err)
		return nil, readErr("list open sessions", err)
	}
	out := make([]*session.Session, 0, len(rows))
	for i := range rows {
		out = append(out, s.sessionMapper.ToDomain(&rows[i]))
	}
	return out, nil
}
