package mappers

import (
	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/models"
)

// SessionMapper converts between stream sessions and persistence models.
type SessionMapper interface {
	ToDomain(model *models.StreamSessionModel) *session.Session
	// FromRecord builds a new open row for an observed stream.
	FromRecord(rec session.Record) *models.StreamSessionModel
}

type SessionMapperImpl struct{}

func NewSessionMapper() SessionMapper {
	return &SessionMapperImpl{}
}

func (m *SessionMapperImpl) ToDomain(model *models.StreamSessionModel) *session.Session {
	if model == nil {
		return nil
	}
	return &session.Session{
		ID:                model.ID,
		SessionID:         model.SessionID,
		UserID:            model.UserID,
		DeviceFingerprint: model.DeviceFingerprint,
		StartTime:         model.StartTime,
		LastActivity:      model.LastActivity,
		EndTime:           model.EndTime,
		Platform:          model.Platform,
		Product:           model.Product,
		Device:            model.Device,
		IPAddress:         model.IPAddress,
		MediaTitle:        model.MediaTitle,
		LibrarySection:    model.LibrarySection,
		State:             session.State(model.State),
		WasTerminated:     model.WasTerminated,
	}
}

func (m *SessionMapperImpl) FromRecord(rec session.Record) *models.StreamSessionModel {
	return &models.StreamSessionModel{
		SessionID:         rec.SessionID,
		UserID:            rec.UserID,
		DeviceFingerprint: rec.Fingerprint(),
		Platform:          rec.Platform,
		Product:           rec.Product,
		Device:            rec.Device,
		IPAddress:         rec.IPAddress,
		MediaTitle:        rec.MediaTitle,
		LibrarySection:    rec.LibrarySection,
		State:             rec.State.String(),
	}
}
