package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/internal/repository"
	apperrors "github.com/pixelplay/notify-api/pkg/errors"
	"github.com/pixelplay/notify-api/pkg/logger"
	"github.com/pixelplay/notify-api/pkg/messaging"
	"github.com/pixelplay/notify-api/pkg/metrics"
)

// dedupWindow is the interval within which an identical admin
// notification (same recipient, title and message) is suppressed. It
// absorbs rapid repeated triggers such as webhook retries.
const dedupWindow = 10 * time.Second

const defaultPageLimit = 10

// AdminDirectory resolves the set of users currently holding admin
// privilege.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Pusher is the slice of the realtime gateway this service consumes.
// Pushes are fire-and-forget; a push failure never fails the persisted
// path.
type Pusher interface {
	SendToUser(userID uuid.UUID, notification *model.Notification)
}

type Service interface {
	CreateNotification(ctx context.Context, recipientID uuid.UUID, title, message string, category model.NotificationCategory, payload model.JSONMap) (*model.Notification, error)
	NotifyAllAdmins(ctx context.Context, title, message string, category model.NotificationCategory, payload model.JSONMap) ([]*model.Notification, error)
	GetNotifications(ctx context.Context, recipientID uuid.UUID, limit, skip int) (*model.NotificationPage, error)
	MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteNotification(ctx context.Context, id, recipientID uuid.UUID) error
}

type service struct {
	repo      repository.NotificationRepository
	directory AdminDirectory
	pusher    Pusher
	broker    messaging.Broker
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates the notification service. pusher and broker are
// optional: a nil pusher skips realtime delivery, a nil broker skips
// cross-instance fan-out.
func NewService(repo repository.NotificationRepository, directory AdminDirectory, pusher Pusher, broker messaging.Broker, m *metrics.Metrics, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		directory: directory,
		pusher:    pusher,
		broker:    broker,
		metrics:   m,
		logger:    log.WithComponent("notification-service"),
		now:       time.Now,
	}
}

func (s *service) CreateNotification(ctx context.Context, recipientID uuid.UUID, title, message string, category model.NotificationCategory, payload model.JSONMap) (*model.Notification, error) {
	n, err := s.buildNotification(recipientID, title, message, category, payload)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, n); err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("insert").Inc()
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.metrics.NotificationsCreated.WithLabelValues(string(n.Category)).Inc()
	s.deliver(ctx, n)

	return n, nil
}

// NotifyAllAdmins fans the same notification out to every current admin,
// suppressing admins that already received an identical title/message
// within the dedup window. The dedup read and the batch insert are two
// separate store operations with no enclosing transaction, so concurrent
// triggers can both pass the check before either insert commits.
func (s *service) NotifyAllAdmins(ctx context.Context, title, message string, category model.NotificationCategory, payload model.JSONMap) ([]*model.Notification, error) {
	if title == "" {
		return nil, apperrors.BadRequest("title is required", nil)
	}
	if message == "" {
		return nil, apperrors.BadRequest("message is required", nil)
	}
	if !category.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid category: %s", category), nil)
	}

	adminIDs, err := s.directory.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve admins: %w", err)
	}
	if len(adminIDs) == 0 {
		return []*model.Notification{}, nil
	}

	since := s.now().Add(-dedupWindow)
	notifications := make([]*model.Notification, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		count, err := s.repo.CountRecentDuplicates(ctx, adminID, title, message, since)
		if err != nil {
			s.metrics.PersistenceFailures.WithLabelValues("count_duplicates").Inc()
			return nil, fmt.Errorf("failed to check duplicate notifications: %w", err)
		}
		if count > 0 {
			s.metrics.NotificationsDeduped.Inc()
			s.logger.Debug("duplicate admin notification suppressed",
				"recipient", adminID.String(), "title", title)
			continue
		}

		n, err := s.buildNotification(adminID, title, message, category, payload)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if len(notifications) == 0 {
		return []*model.Notification{}, nil
	}

	if err := s.repo.InsertMany(ctx, notifications); err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("insert_many").Inc()
		return nil, fmt.Errorf("failed to create admin notifications: %w", err)
	}

	s.metrics.FanoutBatchSize.Observe(float64(len(notifications)))
	for _, n := range notifications {
		s.metrics.NotificationsCreated.WithLabelValues(string(n.Category)).Inc()
		s.deliver(ctx, n)
	}

	return notifications, nil
}

func (s *service) GetNotifications(ctx context.Context, recipientID uuid.UUID, limit, skip int) (*model.NotificationPage, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if skip < 0 {
		skip = 0
	}

	notifications, err := s.repo.FindPage(ctx, recipientID, limit, skip)
	if err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("find_page").Inc()
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	// Unread count covers all of the recipient's notifications, not just
	// the page window.
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("count_unread").Inc()
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &model.NotificationPage{
		Notifications: notifications,
		UnreadCount:   unread,
		Limit:         limit,
		Skip:          skip,
	}, nil
}

func (s *service) MarkAsRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		if err != model.ErrNotificationNotFound {
			s.metrics.PersistenceFailures.WithLabelValues("mark_read").Inc()
		}
		return nil, err
	}

	s.metrics.NotificationsRead.Inc()
	return n, nil
}

func (s *service) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("mark_all_read").Inc()
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	return affected, nil
}

func (s *service) DeleteNotification(ctx context.Context, id, recipientID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, recipientID); err != nil {
		if err != model.ErrNotificationNotFound {
			s.metrics.PersistenceFailures.WithLabelValues("delete").Inc()
		}
		return err
	}

	s.metrics.NotificationsDeleted.Inc()
	return nil
}

func (s *service) buildNotification(recipientID uuid.UUID, title, message string, category model.NotificationCategory, payload model.JSONMap) (*model.Notification, error) {
	if recipientID == uuid.Nil {
		return nil, apperrors.BadRequest("recipient is required", nil)
	}
	if title == "" {
		return nil, apperrors.BadRequest("title is required", nil)
	}
	if message == "" {
		return nil, apperrors.BadRequest("message is required", nil)
	}
	if !category.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid category: %s", category), nil)
	}
	if payload == nil {
		payload = model.JSONMap{}
	}

	now := s.now()
	return &model.Notification{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Category:    category,
		Read:        false,
		Payload:     payload,
	}, nil
}

// deliver pushes the persisted record to the recipient's live sessions and
// publishes it for other instances. Both legs are best-effort.
func (s *service) deliver(ctx context.Context, n *model.Notification) {
	if s.pusher != nil {
		s.pusher.SendToUser(n.RecipientID, n)
	}

	if s.broker != nil {
		event := &messaging.NotificationEvent{
			Type:      "notification:new",
			Origin:    messaging.InstanceID,
			Recipient: n.RecipientID.String(),
			Payload:   n,
		}
		if err := s.broker.Publish(ctx, messaging.NotificationsChannel, event); err != nil {
			s.logger.Warn("failed to publish notification event",
				"notification_id", n.ID.String(), "error", err.Error())
		}
	}
}
