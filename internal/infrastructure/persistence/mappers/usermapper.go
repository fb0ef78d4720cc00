package mappers

import (
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/models"
)

// UserMapper converts between user entities and persistence models.
type UserMapper interface {
	ToDomain(model *models.PlexUserModel) *user.User
	ToDomainList(list []models.PlexUserModel) []*user.User
	ToPolicy(model *models.PlexUserModel) user.Policy
}

type UserMapperImpl struct{}

func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

func (m *UserMapperImpl) ToDomain(model *models.PlexUserModel) *user.User {
	if model == nil {
		return nil
	}
	return user.ReconstructUser(
		model.ID,
		model.Username,
		model.Email,
		model.Phone,
		model.Notes,
		m.ToPolicy(model),
		model.LastSeen,
		model.TotalSessions,
		model.TerminatedSessions,
		model.LastKill,
		model.CreatedAt,
		model.UpdatedAt,
	)
}

func (m *UserMapperImpl) ToDomainList(list []models.PlexUserModel) []*user.User {
	users := make([]*user.User, 0, len(list))
	for i := range list {
		users = append(users, m.ToDomain(&list[i]))
	}
	return users
}

func (m *UserMapperImpl) ToPolicy(model *models.PlexUserModel) user.Policy {
	p := user.Policy{
		Whitelisted: model.IsWhitelisted,
		Disabled:    model.IsDisabled,
	}
	if model.MaxStreams != nil {
		limit := *model.MaxStreams
		p.MaxStreams = &limit
	}
	return p
}
