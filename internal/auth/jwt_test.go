package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, RoleProvider)
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RoleProvider, claims.Role)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", 15*time.Minute, time.Hour)
	verifier := NewJWTManager("secret-b", 15*time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), RoleSeeker)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_Expired(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), RoleSeeker)
	require.NoError(t, err)

	_, err = m.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyToken_Garbage(t *testing.T) {
	m := NewJWTManager("test-secret", 15*time.Minute, time.Hour)

	_, err := m.VerifyToken("not.a.token")
	assert.Error(t, err)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleProvider.CanProvide())
	assert.False(t, RoleProvider.CanSeek())

	assert.True(t, RoleSeeker.CanSeek())
	assert.False(t, RoleSeeker.CanProvide())

	assert.True(t, RoleBoth.CanProvide())
	assert.True(t, RoleBoth.CanSeek())

	assert.True(t, RoleAdmin.CanProvide())
	assert.True(t, RoleAdmin.CanSeek())

	assert.False(t, Role("ghost").CanProvide())
	assert.False(t, Role("ghost").CanSeek())
}
