package realtime

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/pkg/auth"
)

// Room names
const (
	RoomAdmins = "admins"
	RoomUsers  = "users"
)

// UserRoom is the per-user room shared by all of one user's devices.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// ConnectionAuthenticator validates the bearer credential presented at
// handshake time. A missing or invalid credential rejects the connection
// before any session exists or any room is joined.
type ConnectionAuthenticator struct {
	verifier auth.TokenVerifier
}

func NewConnectionAuthenticator(verifier auth.TokenVerifier) *ConnectionAuthenticator {
	return &ConnectionAuthenticator{verifier: verifier}
}

// Authenticate reads the credential from the handshake request, checking
// the auth payload (token query parameter) first and the Authorization
// header as fallback.
func (a *ConnectionAuthenticator) Authenticate(r *http.Request) (*model.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		return nil, model.ErrMissingToken
	}

	return a.verifier.Verify(token)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// RoomRouter maps an authenticated identity to the rooms its session
// joins: the per-user room plus exactly one role room.
type RoomRouter struct{}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{}
}

func (r *RoomRouter) Rooms(identity *model.Identity) []string {
	roleRoom := RoomUsers
	if identity.Role == model.RoleAdmin {
		roleRoom = RoomAdmins
	}
	return []string{UserRoom(identity.UserID), roleRoom}
}
