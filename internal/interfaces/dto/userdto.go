package dto

import (
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/domain/user"
)

// UserResponse is the API view of a media server account.
type UserResponse struct {
	ID                 string     `json:"id"`
	DisplayName        string     `json:"display_name"`
	Email              string     `json:"email,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Whitelisted        bool       `json:"whitelisted"`
	Disabled           bool       `json:"disabled"`
	MaxStreams         *int       `json:"max_streams"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
	TotalSessions      int64      `json:"total_sessions"`
	TerminatedSessions int64      `json:"terminated_sessions"`
	LastKill           *time.Time `json:"last_kill,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func ToUserResponse(u *user.User) *UserResponse {
	if u == nil {
		return nil
	}
	p := u.Policy()
	return &UserResponse{
		ID:                 u.ID(),
		DisplayName:        u.DisplayName(),
		Email:              u.Email(),
		Phone:              u.Phone(),
		Notes:              u.Notes(),
		Whitelisted:        p.Whitelisted,
		Disabled:           p.Disabled,
		MaxStreams:         p.MaxStreams,
		LastSeen:           u.LastSeen(),
		TotalSessions:      u.TotalSessions(),
		TerminatedSessions: u.TerminatedSessions(),
		LastKill:           u.LastKill(),
		CreatedAt:          u.CreatedAt(),
		UpdatedAt:          u.UpdatedAt(),
	}
}

func ToUserResponseList(users []*user.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

// UpdateUserRequest is a PATCH of policy and contact fields.
// All fields are optional, at least one field must be provided.
type UpdateUserRequest struct {
	Whitelisted     *bool   `json:"whitelisted"`
	Disabled        *bool   `json:"disabled"`
	MaxStreams      *int    `json:"max_streams" binding:"omitempty,min=1"`
	ClearMaxStreams bool    `json:"clear_max_streams"`
	Notes           *string `json:"notes" binding:"omitempty,max=1000"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Phone           *string `json:"phone" binding:"omitempty,max=50"`
}

func (r UpdateUserRequest) ToOverrides() user.Overrides {
	return user.Overrides{
		Whitelisted:     r.Whitelisted,
		Disabled:        r.Disabled,
		MaxStreams:      r.MaxStreams,
		ClearMaxStreams: r.ClearMaxStreams,
		Notes:           r.Notes,
		Email:           r.Email,
		Phone:           r.Phone,
	}
}

// StopSessionRequest is the optional body of a manual stop.
type StopSessionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// StreamResponse is one active stream of the latest poll.
type StreamResponse struct {
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	MediaTitle  string        `json:"media_title"`
	Library     string        `json:"library_section"`
	IPAddress   string        `json:"ip_address"`
	Platform    string        `json:"platform"`
	Product     string        `json:"product"`
	Device      string        `json:"device"`
	State       session.State `json:"state"`
	Fingerprint string        `json:"fingerprint"`
}

// SessionsResponse groups the latest snapshot by user.
type SessionsResponse struct {
	PolledAt *time.Time                  `json:"polled_at,omitempty"`
	Count    int                         `json:"count"`
	Users    map[string][]StreamResponse `json:"users"`
}

func ToSessionsResponse(snap session.Snapshot, polledAt time.Time) *SessionsResponse {
	resp := &SessionsResponse{Count: snap.Count(), Users: make(map[string][]StreamResponse, len(snap))}
	if !polledAt.IsZero() {
		t := polledAt.UTC()
		resp.PolledAt = &t
	}
	for _, uid := range snap.UserIDs() {
		for _, r := range snap[uid] {
			resp.Users[uid] = append(resp.Users[uid], StreamResponse{
				SessionID:   r.SessionID,
				UserID:      r.UserID,
				Username:    r.Username,
				MediaTitle:  r.MediaTitle,
				Library:     r.LibrarySection,
				IPAddress:   r.IPAddress,
				Platform:    r.Platform,
				Product:     r.Product,
				Device:      r.Device,
				State:       r.State,
				Fingerprint: r.Fingerprint(),
			})
		}
	}
	return resp
}

// StopAcceptedResponse acknowledges a queued manual stop.
type StopAcceptedResponse struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
}
