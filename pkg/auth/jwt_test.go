package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelplay/notify-api/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *model.TokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	userID := uuid.New()

	tokenString := signToken(t, testSecret, &model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID.String(),
		Email:  "admin@example.com",
		Name:   "Admin User",
		Role:   model.RoleAdmin,
	})

	identity, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "admin@example.com", identity.Email)
	assert.Equal(t, model.RoleAdmin, identity.Role)
}

func TestVerify_UnknownRoleDowngradesToUser(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)

	tokenString := signToken(t, testSecret, &model.TokenClaims{
		UserID: uuid.New().String(),
		Email:  "user@example.com",
		Role:   "superuser",
	})

	identity, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, identity.Role)
}

func TestVerify_MissingToken(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)

	_, err := verifier.Verify("")
	assert.ErrorIs(t, err, model.ErrMissingToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)

	tokenString := signToken(t, "other-secret", &model.TokenClaims{
		UserID: uuid.New().String(),
	})

	_, err := verifier.Verify(tokenString)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerify_ExpiredToken(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)

	tokenString := signToken(t, testSecret, &model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: uuid.New().String(),
	})

	_, err := verifier.Verify(tokenString)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestVerify_MalformedUserID(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)

	tokenString := signToken(t, testSecret, &model.TokenClaims{
		UserID: "not-a-uuid",
	})

	_, err := verifier.Verify(tokenString)
	assert.ErrorIs(t, err, model.ErrInvalidToken)
}
