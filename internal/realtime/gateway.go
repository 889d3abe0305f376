package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/pkg/logger"
	"github.com/pixelplay/notify-api/pkg/metrics"
)

// TransportConfig configures the websocket transport. AllowedOrigin is
// the single origin permitted to open credentialed cross-origin
// connections; empty allows same-origin only.
type TransportConfig struct {
	AllowedOrigin   string
	ReadBufferSize  int
	WriteBufferSize int
}

// Gateway owns the live transport: it accepts connections, applies the
// authenticator and room router, relays inbound client events and exposes
// the outbound push/presence/disconnect API. One instance lives for the
// whole process; there is no teardown path.
//
// The room registry is owned here, not by the transport library: room
// key to session-id to session, guarded by mu. That map is the only
// mutable state shared across sessions.
type Gateway struct {
	authenticator *ConnectionAuthenticator
	router        *RoomRouter
	logger        *logger.Logger
	metrics       *metrics.Metrics

	mu          sync.RWMutex
	initialized bool
	upgrader    websocket.Upgrader
	sessions    map[string]*Session
	rooms       map[string]map[string]*Session
}

func NewGateway(authenticator *ConnectionAuthenticator, router *RoomRouter, log *logger.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		authenticator: authenticator,
		router:        router,
		logger:        log.WithComponent("realtime-gateway"),
		metrics:       m,
		sessions:      make(map[string]*Session),
		rooms:         make(map[string]map[string]*Session),
	}
}

// Initialize binds the gateway to its transport configuration. It is
// idempotent: a second call returns the already-initialized gateway
// unchanged instead of rebinding.
func (g *Gateway) Initialize(cfg TransportConfig) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.initialized {
		g.logger.Warn("gateway already initialized, ignoring second initialize")
		return g
	}

	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// An unset origin allowlist admits everything (non-browser
			// clients and local development).
			if cfg.AllowedOrigin == "" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || origin == cfg.AllowedOrigin
		},
	}
	g.initialized = true
	return g
}

func (g *Gateway) ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.initialized
}

// HandleConnection is the handshake endpoint. The credential is checked
// before the upgrade: a rejected client never observes a live session.
func (g *Gateway) HandleConnection(c *gin.Context) {
	if !g.ready() {
		g.logger.Warn("connection refused: gateway not initialized")
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	identity, err := g.authenticator.Authenticate(c.Request)
	if err != nil {
		g.metrics.HandshakeRejected.Inc()
		g.logger.Debug("handshake rejected", "error", err.Error())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.metrics.HandshakeRejected.Inc()
		g.logger.Debug("upgrade failed", "error", err.Error())
		return
	}

	session := newSession(identity, conn)
	g.register(session)

	go session.writePump()
	go session.readPump(g)
}

func (g *Gateway) register(s *Session) {
	g.mu.Lock()
	g.sessions[s.ID] = s
	for _, room := range g.router.Rooms(s.Identity) {
		if g.rooms[room] == nil {
			g.rooms[room] = make(map[string]*Session)
		}
		g.rooms[room][s.ID] = s
	}
	total := len(g.sessions)
	g.mu.Unlock()

	g.metrics.SessionsTotal.Inc()
	g.metrics.SessionsActive.Set(float64(total))
	g.logger.Info("session connected",
		"session_id", s.ID, "user_id", s.Identity.UserID.String(), "role", s.Identity.Role)
}

func (g *Gateway) unregister(s *Session) {
	g.mu.Lock()
	if _, ok := g.sessions[s.ID]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.sessions, s.ID)
	for room, members := range g.rooms {
		delete(members, s.ID)
		if len(members) == 0 {
			delete(g.rooms, room)
		}
	}
	total := len(g.sessions)
	g.mu.Unlock()

	g.metrics.SessionsActive.Set(float64(total))
	g.logger.Info("session disconnected",
		"session_id", s.ID, "user_id", s.Identity.UserID.String())
}

// handleInbound relays one client event. All handlers are fire-and-forget
// and run on the session's read goroutine.
func (g *Gateway) handleInbound(s *Session, env *Envelope) {
	switch env.Event {
	case EventPing:
		g.emitToSession(s, Pong(time.Now()))
	case EventTypingStart:
		g.emitToAllExcept(s.ID, UserTyping(s.Identity))
	case EventTypingStop:
		g.emitToAllExcept(s.ID, UserStoppedTyping(s.Identity))
	case EventNotificationRead:
		var ack ReadAckPayload
		if err := unmarshalData(env.Data, &ack); err != nil || ack.NotificationID == "" {
			g.logger.Debug("discarding malformed read ack", "session_id", s.ID)
			return
		}
		// The relay is informational only: persisting the read state is
		// the HTTP path's responsibility, not this handler's.
		g.emitToRoom(RoomAdmins, NotificationStatus(s.Identity.UserID, ack.NotificationID))
	default:
		g.logger.Debug("ignoring unknown event",
			"session_id", s.ID, "event", string(env.Event))
	}
}

// SendToUser emits notification:new to every session in the user's room.
func (g *Gateway) SendToUser(userID uuid.UUID, n *model.Notification) {
	if !g.warnIfNotReady("send_to_user") {
		return
	}
	g.emitToRoom(UserRoom(userID), NotificationNew(n))
}

// SendToAdmins emits notification:new to the admins room.
func (g *Gateway) SendToAdmins(n *model.Notification) {
	if !g.warnIfNotReady("send_to_admins") {
		return
	}
	g.emitToRoom(RoomAdmins, NotificationNew(n))
}

// BroadcastToAllUsers emits to the users room only; admin sessions never
// observe it.
func (g *Gateway) BroadcastToAllUsers(ev Event) {
	if !g.warnIfNotReady("broadcast_users") {
		return
	}
	g.emitToRoom(RoomUsers, ev)
}

// SendToRoom is the generic addressed emit for ad-hoc rooms.
func (g *Gateway) SendToRoom(room string, ev Event) {
	if !g.warnIfNotReady("send_to_room") {
		return
	}
	g.emitToRoom(room, ev)
}

// BroadcastAll emits to every connected session regardless of room.
func (g *Gateway) BroadcastAll(ev Event) {
	if !g.warnIfNotReady("broadcast_all") {
		return
	}
	g.emitToAllExcept("", ev)
}

// ConnectedClientCount reports the number of live sessions. The count
// queries the session registry and callers treat it as I/O, not a pure
// read.
func (g *Gateway) ConnectedClientCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !g.warnIfNotReady("connected_count") {
		return 0, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions), nil
}

// IsUserConnected reports whether at least one live session occupies the
// user's room.
func (g *Gateway) IsUserConnected(ctx context.Context, userID uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !g.warnIfNotReady("is_user_connected") {
		return false, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[UserRoom(userID)]) > 0, nil
}

// DisconnectUser force-terminates every live session in the user's room,
// covering multi-device forced logout. A no-op when none are connected.
func (g *Gateway) DisconnectUser(ctx context.Context, userID uuid.UUID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.warnIfNotReady("disconnect_user") {
		return nil
	}

	g.mu.RLock()
	targets := make([]*Session, 0, len(g.rooms[UserRoom(userID)]))
	for _, s := range g.rooms[UserRoom(userID)] {
		targets = append(targets, s)
	}
	g.mu.RUnlock()

	for _, s := range targets {
		g.unregister(s)
		s.close(websocket.ClosePolicyViolation, reason)
		g.metrics.ForcedDisconnects.Inc()
	}

	if len(targets) > 0 {
		g.logger.Info("user force-disconnected",
			"user_id", userID.String(), "sessions", len(targets), "reason", reason)
	}
	return nil
}

func (g *Gateway) emitToSession(s *Session, ev Event) {
	frame, err := ev.Encode()
	if err != nil {
		g.logger.Error(err, "failed to encode event", "event", string(ev.Name()))
		return
	}
	g.push(s, ev.Name(), frame)
}

func (g *Gateway) emitToRoom(room string, ev Event) {
	frame, err := ev.Encode()
	if err != nil {
		g.logger.Error(err, "failed to encode event", "event", string(ev.Name()))
		return
	}

	g.mu.RLock()
	targets := make([]*Session, 0, len(g.rooms[room]))
	for _, s := range g.rooms[room] {
		targets = append(targets, s)
	}
	g.mu.RUnlock()

	for _, s := range targets {
		g.push(s, ev.Name(), frame)
	}
}

// emitToAllExcept emits to every connected session except the one with
// the given id; an empty id excludes nobody.
func (g *Gateway) emitToAllExcept(exceptID string, ev Event) {
	frame, err := ev.Encode()
	if err != nil {
		g.logger.Error(err, "failed to encode event", "event", string(ev.Name()))
		return
	}

	g.mu.RLock()
	targets := make([]*Session, 0, len(g.sessions))
	for id, s := range g.sessions {
		if id == exceptID {
			continue
		}
		targets = append(targets, s)
	}
	g.mu.RUnlock()

	for _, s := range targets {
		g.push(s, ev.Name(), frame)
	}
}

func (g *Gateway) push(s *Session, name EventName, frame []byte) {
	if s.enqueue(frame) {
		g.metrics.FramesPushed.WithLabelValues(string(name)).Inc()
	} else {
		g.metrics.FramesDropped.WithLabelValues(string(name)).Inc()
	}
}

func (g *Gateway) warnIfNotReady(op string) bool {
	if g.ready() {
		return true
	}
	g.logger.Warn("gateway not initialized", "operation", op)
	return false
}

func unmarshalData(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
