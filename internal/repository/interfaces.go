package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/model"
)

// NotificationRepository is the durable notification store. Every method
// is atomic per record; there is no multi-statement transaction across
// calls, so callers composing a check with a write get no isolation
// between the two.
type NotificationRepository interface {
	Insert(ctx context.Context, notification *model.Notification) error
	InsertMany(ctx context.Context, notifications []*model.Notification) error
	FindPage(ctx context.Context, recipientID uuid.UUID, limit, skip int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
	CountRecentDuplicates(ctx context.Context, recipientID uuid.UUID, title, message string, since time.Time) (int, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, recipientID uuid.UUID) error
}

// UserRepository is the read-only slice of the platform's user store this
// subsystem consumes: admin directory lookups and identity resolution.
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}
