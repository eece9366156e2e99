package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := NewJWTManager("test-secret", "stylekart", time.Hour)
	userID := uuid.New()

	token, err := manager.Generate(userID, "user@example.com", RoleCustomer)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, RoleCustomer, claims.Role)
	assert.Equal(t, "stylekart", claims.Issuer)
}

func TestJWTManager_Validate_WrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-a", "stylekart", time.Hour)
	other := NewJWTManager("secret-b", "stylekart", time.Hour)

	token, err := manager.Generate(uuid.New(), "user@example.com", RoleAdmin)
	assert.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_Validate_Expired(t *testing.T) {
	manager := NewJWTManager("test-secret", "stylekart", -time.Minute)

	token, err := manager.Generate(uuid.New(), "user@example.com", RoleCustomer)
	assert.NoError(t, err)

	_, err = manager.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTManager_Validate_Garbage(t *testing.T) {
	manager := NewJWTManager("test-secret", "stylekart", time.Hour)

	_, err := manager.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
