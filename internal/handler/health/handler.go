package health

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Presence exposes the gateway's live-session count for the readiness
// payload.
type Presence interface {
	ConnectedClientCount(ctx context.Context) (int, error)
}

type Handler struct {
	db       *sqlx.DB
	presence Presence
}

func NewHandler(db *sqlx.DB, presence Presence) *Handler {
	return &Handler{
		db:       db,
		presence: presence,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "database connection failed",
		})
		return
	}

	sessions := 0
	if h.presence != nil {
		if n, err := h.presence.ConnectedClientCount(c.Request.Context()); err == nil {
			sessions = n
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "UP",
		"sessions": sessions,
	})
}
