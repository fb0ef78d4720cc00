package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/models"
	"github.com/plexpatrol/plexpatrol/internal/shared/constants"
	apperrors "github.com/plexpatrol/plexpatrol/internal/shared/errors"
)

// UpsertUser creates the account if absent. On update only the display name
// and the fields set in overrides change.
func (s *Store) UpsertUser(ctx context.Context, id, displayName string, overrides user.Overrides) error {
	if err := overrides.Validate(); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.upsertUserTx(tx, id, displayName, overrides)
		return err
	})
	if err != nil {
		s.logger.Errorw("failed to upsert user", "user_id", id, "error", err)
		return writeErr("upsert user", err)
	}
	return nil
}

func (s *Store) upsertUserTx(tx *gorm.DB, id, displayName string, o user.Overrides) (*models.PlexUserModel, error) {
	now := s.now()

	var model models.PlexUserModel
	err := tx.Where("id = ?", id).Take(&model).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model = models.PlexUserModel{
			ID:        id,
			Username:  displayName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyOverrides(&model, o)
		if err := tx.Create(&model).Error; err != nil {
			return nil, err
		}
		return &model, nil
	case err != nil:
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": now}
	if displayName != "" && displayName != constants.UnknownValue && displayName != model.Username {
		updates["username"] = displayName
	}
	if o.Whitelisted != nil {
		updates["is_whitelisted"] = *o.Whitelisted
	}
	if o.Disabled != nil {
		updates["is_disabled"] = *o.Disabled
	}
	if o.ClearMaxStreams {
		updates["max_streams"] = gorm.Expr("NULL")
	} else if o.MaxStreams != nil {
		updates["max_streams"] = *o.MaxStreams
	}
	if o.Notes != nil {
		updates["notes"] = *o.Notes
	}
	if o.Email != nil {
		updates["email"] = *o.Email
	}
	if o.Phone != nil {
		updates["phone"] = *o.Phone
	}

	if err := tx.Model(&models.PlexUserModel{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

func applyOverrides(m *models.PlexUserModel, o user.Overrides) {
	if o.Whitelisted != nil {
		m.IsWhitelisted = *o.Whitelisted
	}
	if o.Disabled != nil {
		m.IsDisabled = *o.Disabled
	}
	if !o.ClearMaxStreams && o.MaxStreams != nil {
		limit := *o.MaxStreams
		m.MaxStreams = &limit
	}
	if o.Notes != nil {
		m.Notes = *o.Notes
	}
	if o.Email != nil {
		m.Email = *o.Email
	}
	if o.Phone != nil {
		m.Phone = *o.Phone
	}
}

// GetUser returns a NotFound AppError when the account is unknown.
func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	var model models.PlexUserModel
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user not found", id)
		}
		s.logger.Errorw("failed to get user", "user_id", id, "error", err)
		return nil, readErr("get user", err)
	}
	return s.userMapper.ToDomain(&model), nil
}

// ListUsers returns every known account, most recently seen first.
func (s *Store) ListUsers(ctx context.Context) ([]*user.User, error) {
	var list []models.PlexUserModel
	err := s.db.WithContext(ctx).
		Order("last_seen IS NULL, last_seen DESC").
		Order("id").
		Find(&list).Error
	if err != nil {
		s.logger.Errorw("failed to list users", "error", err)
		return nil, readErr("list users", err)
	}
	return s.userMapper.ToDomainList(list), nil
}

// DeleteUser removes an account with its history and counters.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.StreamSessionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PlatformStatModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.PlexUserModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.NewNotFoundError("user not found", id)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsNotFoundError(err) {
			return err
		}
		s.logger.Errorw("failed to delete user", "user_id", id, "error", err)
		return writeErr("delete user", err)
	}
	s.logger.Infow("user deleted", "user_id", id)
	return nil
}

// GetUserPolicy reads all policy flags in one query. Unknown users get the
// default policy.
func (s *Store) GetUserPolicy(ctx context.Context, id string) (user.Policy, error) {
	var model models.PlexUserModel
	err := s.db.WithContext(ctx).
		Select("id", "is_whitelisted", "is_disabled", "max_streams").
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.DefaultPolicy(), nil
		}
		s.logger.Errorw("failed to read user policy", "user_id", id, "error", err)
		return user.DefaultPolicy(), readErr("get user policy", err)
	}
	return s.userMapper.ToPolicy(&model), nil
}

// GetUserMaxStreams returns nil when the user has no override.
func (s *Store) GetUserMaxStreams(ctx context.Context, id string) (*int, error) {
	p, err := s.GetUserPolicy(ctx, id)
	return p.MaxStreams, err
}

func (s *Store) IsUserWhitelisted(ctx context.Context, id string) (bool, error) {
	p, err := s.GetUserPolicy(ctx, id)
	return p.Whitelisted, err
}

func (s *Store) IsUserDisabled(ctx context.Context, id string) (bool, error) {
	p, err := s.GetUserPolicy(ctx, id)
	return p.Disabled, err
}
