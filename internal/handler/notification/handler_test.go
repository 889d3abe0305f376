package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelplay/notify-api/internal/middleware"
	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/pkg/validator"
)

type fakeService struct {
	created       *model.Notification
	createErr     error
	fanout        []*model.Notification
	page          *model.NotificationPage
	marked        *model.Notification
	markErr       error
	markedAll     int64
	deleteErr     error
	lastRecipient uuid.UUID
}

func (f *fakeService) CreateNotification(ctx context.Context, recipientID uuid.UUID, title, message string, category model.NotificationCategory, payload model.JSONMap) (*model.Notification, error) {
	f.lastRecipient = recipientID
	return f.created, f.createErr
}

func (f *fakeService) NotifyAllAdmins(ctx context.Context, title, message string, category model.NotificationCategory, payload model.JSONMap) ([]*model.Notification, error) {
	return f.fanout, nil
}

func (f *fakeService) GetNotifications(ctx context.Context, recipientID uuid.UUID, limit, skip int) (*model.NotificationPage, error) {
	f.lastRecipient = recipientID
	return f.page, nil
}

func (f *fakeService) MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error) {
	f.lastRecipient = recipientID
	return f.marked, f.markErr
}

func (f *fakeService) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	f.lastRecipient = recipientID
	return f.markedAll, nil
}

func (f *fakeService) DeleteNotification(ctx context.Context, id, recipientID uuid.UUID) error {
	f.lastRecipient = recipientID
	return f.deleteErr
}

type tokenVerifier struct {
	identities map[string]*model.Identity
}

func (v *tokenVerifier) Verify(token string) (*model.Identity, error) {
	identity, ok := v.identities[token]
	if !ok {
		return nil, model.ErrInvalidToken
	}
	return identity, nil
}

func setupRouter(t *testing.T, svc *fakeService) (*gin.Engine, *model.Identity, *model.Identity) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Register()

	admin := &model.Identity{UserID: uuid.New(), Role: model.RoleAdmin}
	user := &model.Identity{UserID: uuid.New(), Role: model.RoleUser}
	verifier := &tokenVerifier{identities: map[string]*model.Identity{
		"admin-token": admin,
		"user-token":  user,
	}}

	h := NewHandler(svc, middleware.NewAuthMiddleware(verifier))
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))
	return engine, admin, user
}

func do(engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestListNotifications_RequiresAuth(t *testing.T) {
	engine, _, _ := setupRouter(t, &fakeService{})

	w := do(engine, http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/notifications", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListNotifications_ScopedToCaller(t *testing.T) {
	svc := &fakeService{page: &model.NotificationPage{Notifications: []*model.Notification{}, UnreadCount: 3, Limit: 10}}
	engine, _, user := setupRouter(t, svc)

	w := do(engine, http.MethodGet, "/api/v1/notifications?limit=10&skip=5", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.UserID, svc.lastRecipient)

	var resp struct {
		Status string                 `json:"status"`
		Data   model.NotificationPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 3, resp.Data.UnreadCount)
}

func TestListNotifications_RejectsBadPaging(t *testing.T) {
	engine, _, _ := setupRouter(t, &fakeService{})

	w := do(engine, http.MethodGet, "/api/v1/notifications?limit=abc", "user-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/notifications?skip=-1", "user-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateNotification_AdminOnly(t *testing.T) {
	recipient := uuid.New()
	svc := &fakeService{created: &model.Notification{RecipientID: recipient, Title: "T"}}
	engine, _, _ := setupRouter(t, svc)

	body := model.CreateNotificationRequest{
		RecipientID: recipient.String(),
		Title:       "T",
		Message:     "M",
		Category:    "system",
	}

	w := do(engine, http.MethodPost, "/api/v1/notifications", "user-token", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(engine, http.MethodPost, "/api/v1/notifications", "admin-token", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, recipient, svc.lastRecipient)
}

func TestCreateNotification_ValidatesBody(t *testing.T) {
	engine, _, _ := setupRouter(t, &fakeService{})

	// Unknown category fails binding validation.
	w := do(engine, http.MethodPost, "/api/v1/notifications", "admin-token", model.CreateNotificationRequest{
		RecipientID: uuid.New().String(),
		Title:       "T",
		Message:     "M",
		Category:    "spam",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing title.
	w = do(engine, http.MethodPost, "/api/v1/notifications", "admin-token", model.CreateNotificationRequest{
		RecipientID: uuid.New().String(),
		Message:     "M",
		Category:    "system",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifyAdmins(t *testing.T) {
	svc := &fakeService{fanout: []*model.Notification{{Title: "A"}, {Title: "A"}}}
	engine, _, _ := setupRouter(t, svc)

	w := do(engine, http.MethodPost, "/api/v1/notifications/admins", "admin-token", model.NotifyAdminsRequest{
		Title:    "A",
		Message:  "B",
		Category: "analytics",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Count)
}

func TestMarkAsRead_NotFound(t *testing.T) {
	svc := &fakeService{markErr: model.ErrNotificationNotFound}
	engine, _, _ := setupRouter(t, svc)

	w := do(engine, http.MethodPost, "/api/v1/notifications/"+uuid.New().String()+"/read", "user-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAsRead_UsesCallerAsOwner(t *testing.T) {
	svc := &fakeService{marked: &model.Notification{Read: true}}
	engine, _, user := setupRouter(t, svc)

	w := do(engine, http.MethodPost, "/api/v1/notifications/"+uuid.New().String()+"/read", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.UserID, svc.lastRecipient)
}

func TestMarkAllAsRead(t *testing.T) {
	svc := &fakeService{markedAll: 7}
	engine, _, _ := setupRouter(t, svc)

	w := do(engine, http.MethodPost, "/api/v1/notifications/read-all", "user-token", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Updated int64 `json:"updated"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Data.Updated)
}

func TestDeleteNotification_NotFound(t *testing.T) {
	svc := &fakeService{deleteErr: model.ErrNotificationNotFound}
	engine, _, _ := setupRouter(t, svc)

	w := do(engine, http.MethodDelete, "/api/v1/notifications/"+uuid.New().String(), "user-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNotification_InvalidID(t *testing.T) {
	engine, _, _ := setupRouter(t, &fakeService{})

	w := do(engine, http.MethodDelete, "/api/v1/notifications/not-a-uuid", "user-token", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
