package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/handler"
	"github.com/pixelplay/notify-api/internal/middleware"
	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/internal/service/notification"
	apperrors "github.com/pixelplay/notify-api/pkg/errors"
)

type Handler struct {
	service notification.Service
	auth    *middleware.AuthMiddleware
}

func NewHandler(service notification.Service, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{service: service, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	notifications.Use(h.auth.Authenticate())
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("", h.auth.RequireAdmin(), h.CreateNotification)
		notifications.POST("/admins", h.auth.RequireAdmin(), h.NotifyAdmins)
		notifications.POST("/:id/read", h.MarkAsRead)
		notifications.POST("/read-all", h.MarkAllAsRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req model.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid recipient ID"))
		return
	}

	n, err := h.service.CreateNotification(
		c.Request.Context(),
		recipientID,
		req.Title,
		req.Message,
		model.NotificationCategory(req.Category),
		req.Payload,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(n))
}

func (h *Handler) NotifyAdmins(c *gin.Context) {
	var req model.NotifyAdminsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.NotifyAllAdmins(
		c.Request.Context(),
		req.Title,
		req.Message,
		model.NotificationCategory(req.Category),
		req.Payload,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"notifications": created,
		"count":         len(created),
	}))
}

// ListNotifications pages through the caller's own notifications,
// newest first.
func (h *Handler) ListNotifications(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
		return
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid skip"))
		return
	}

	page, err := h.service.GetNotifications(c.Request.Context(), identity.UserID, limit, skip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(page))
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	n, err := h.service.MarkAsRead(c.Request.Context(), id, identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(n))
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	updated, err := h.service.MarkAllAsRead(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	if err := h.service.DeleteNotification(c.Request.Context(), id, identity.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"message": "notification deleted"}))
}

func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.Is(err, model.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("notification not found"))
	case errors.As(err, &appErr):
		c.JSON(appErr.StatusCode(), handler.NewErrorResponse(appErr.Message))
	default:
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid query parameter")
	}
	return v, nil
}
