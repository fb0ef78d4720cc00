package user

import (
	"fmt"
	"time"
)

// User is an account on the media server as tracked locally.
type User struct {
	id                 string
	displayName        string
	email              string
	phone              string
	notes              string
	policy             Policy
	lastSeen           *time.Time
	totalSessions      int64
	terminatedSessions int64
	lastKill           *time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

// NewUser creates a user first seen now, with the default policy.
func NewUser(id, displayName string) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("user id is required")
	}
	now := time.Now().UTC()
	return &User{
		id:          id,
		displayName: displayName,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructUser rebuilds a user from persistence.
func ReconstructUser(
	id, displayName, email, phone, notes string,
	policy Policy,
	lastSeen *time.Time,
	totalSessions, terminatedSessions int64,
	lastKill *time.Time,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:                 id,
		displayName:        displayName,
		email:              email,
		phone:              phone,
		notes:              notes,
		policy:             policy,
		lastSeen:           lastSeen,
		totalSessions:      totalSessions,
		terminatedSessions: terminatedSessions,
		lastKill:           lastKill,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (u *User) ID() string                { return u.id }
func (u *User) DisplayName() string       { return u.displayName }
func (u *User) Email() string             { return u.email }
func (u *User) Phone() string             { return u.phone }
func (u *User) Notes() string             { return u.notes }
func (u *User) Policy() Policy            { return u.policy }
func (u *User) LastSeen() *time.Time      { return u.lastSeen }
func (u *User) TotalSessions() int64      { return u.totalSessions }
func (u *User) TerminatedSessions() int64 { return u.terminatedSessions }
func (u *User) LastKill() *time.Time      { return u.lastKill }
func (u *User) CreatedAt() time.Time      { return u.createdAt }
func (u *User) UpdatedAt() time.Time      { return u.updatedAt }

// Apply merges overrides into the user. Unset fields keep their value.
func (u *User) Apply(o Overrides) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Whitelisted != nil {
		u.policy.Whitelisted = *o.Whitelisted
	}
	if o.Disabled != nil {
		u.policy.Disabled = *o.Disabled
	}
	if o.ClearMaxStreams {
		u.policy.MaxStreams = nil
	} else if o.MaxStreams != nil {
		limit := *o.MaxStreams
		u.policy.MaxStreams = &limit
	}
	if o.Notes != nil {
		u.notes = *o.Notes
	}
	if o.Email != nil {
		u.email = *o.Email
	}
	if o.Phone != nil {
		u.phone = *o.Phone
	}
	u.updatedAt = time.Now().UTC()
	return nil
}
