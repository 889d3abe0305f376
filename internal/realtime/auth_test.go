package realtime

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelplay/notify-api/internal/model"
)

type staticVerifier struct {
	identity *model.Identity
	err      error
	seen     string
}

func (v *staticVerifier) Verify(token string) (*model.Identity, error) {
	v.seen = token
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func TestAuthenticate_TokenFromQuery(t *testing.T) {
	verifier := &staticVerifier{identity: &model.Identity{UserID: uuid.New(), Role: model.RoleUser}}
	authn := NewConnectionAuthenticator(verifier)

	req := httptest.NewRequest("GET", "/ws?token=abc123", nil)
	identity, err := authn.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, verifier.identity, identity)
	assert.Equal(t, "abc123", verifier.seen)
}

func TestAuthenticate_TokenFromHeader(t *testing.T) {
	verifier := &staticVerifier{identity: &model.Identity{UserID: uuid.New(), Role: model.RoleUser}}
	authn := NewConnectionAuthenticator(verifier)

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer headertoken")

	_, err := authn.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "headertoken", verifier.seen)
}

func TestAuthenticate_QueryWinsOverHeader(t *testing.T) {
	verifier := &staticVerifier{identity: &model.Identity{UserID: uuid.New()}}
	authn := NewConnectionAuthenticator(verifier)

	req := httptest.NewRequest("GET", "/ws?token=fromquery", nil)
	req.Header.Set("Authorization", "Bearer fromheader")

	_, err := authn.Authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, "fromquery", verifier.seen)
}

func TestAuthenticate_MissingToken(t *testing.T) {
	authn := NewConnectionAuthenticator(&staticVerifier{})

	req := httptest.NewRequest("GET", "/ws", nil)
	_, err := authn.Authenticate(req)
	assert.ErrorIs(t, err, model.ErrMissingToken)
}

func TestAuthenticate_MalformedAuthorizationHeader(t *testing.T) {
	authn := NewConnectionAuthenticator(&staticVerifier{})

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	_, err := authn.Authenticate(req)
	assert.ErrorIs(t, err, model.ErrMissingToken)
}

func TestRoomRouter_UserRole(t *testing.T) {
	router := NewRoomRouter()
	userID := uuid.New()

	rooms := router.Rooms(&model.Identity{UserID: userID, Role: model.RoleUser})
	assert.Equal(t, []string{UserRoom(userID), RoomUsers}, rooms)
}

func TestRoomRouter_AdminRole(t *testing.T) {
	router := NewRoomRouter()
	userID := uuid.New()

	rooms := router.Rooms(&model.Identity{UserID: userID, Role: model.RoleAdmin})
	assert.Equal(t, []string{UserRoom(userID), RoomAdmins}, rooms)
}
