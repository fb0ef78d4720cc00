package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewUser(t *testing.T) {
	u, err := NewUser("42", "alice")
	require.NoError(t, err)
	assert.Equal(t, "42", u.ID())
	assert.Equal(t, DefaultPolicy(), u.Policy())

	_, err = NewUser("", "nobody")
	assert.Error(t, err)
}

func TestPolicyLimit(t *testing.T) {
	assert.Equal(t, 2, Policy{}.Limit(2))
	assert.Equal(t, 5, Policy{MaxStreams: ptr(5)}.Limit(2))
	assert.Equal(t, 2, Policy{MaxStreams: ptr(0)}.Limit(2))
}

func TestApply_PartialUpdateKeepsUnsetFields(t *testing.T) {
	u, err := NewUser("42", "alice")
	require.NoError(t, err)

	require.NoError(t, u.Apply(Overrides{Whitelisted: ptr(true), MaxStreams: ptr(3), Notes: ptr("family")}))
	require.NoError(t, u.Apply(Overrides{Disabled: ptr(true)}))

	p := u.Policy()
	assert.True(t, p.Whitelisted)
	assert.True(t, p.Disabled)
	require.NotNil(t, p.MaxStreams)
	assert.Equal(t, 3, *p.MaxStreams)
	assert.Equal(t, "family", u.Notes())

	require.NoError(t, u.Apply(Overrides{ClearMaxStreams: true, MaxStreams: ptr(7)}))
	assert.Nil(t, u.Policy().MaxStreams)
}

func TestApply_RejectsZeroLimit(t *testing.T) {
	u, err := NewUser("42", "alice")
	require.NoError(t, err)

	assert.Error(t, u.Apply(Overrides{MaxStreams: ptr(0)}))
	assert.Nil(t, u.Policy().MaxStreams)
}

func TestOverridesIsEmpty(t *testing.T) {
	assert.True(t, Overrides{}.IsEmpty())
	assert.False(t, Overrides{ClearMaxStreams: true}.IsEmpty())
	assert.False(t, Overrides{Phone: ptr("")}.IsEmpty())
}
