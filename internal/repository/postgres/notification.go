package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, title, message, category, read,
			payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Payload == nil {
		n.Payload = model.JSONMap{}
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Title,
		n.Message,
		n.Category,
		n.Read,
		n.Payload,
		n.CreatedAt,
		n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

func (r *notificationRepository) InsertMany(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	query := `
		INSERT INTO notifications (
			id, recipient_id, title, message, category, read,
			payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, n := range notifications {
			if n.ID == uuid.Nil {
				n.ID = uuid.New()
			}
			if n.Payload == nil {
				n.Payload = model.JSONMap{}
			}

			if _, err := tx.ExecContext(ctx, query,
				n.ID,
				n.RecipientID,
				n.Title,
				n.Message,
				n.Category,
				n.Read,
				n.Payload,
				n.CreatedAt,
				n.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert notification batch: %w", err)
			}
		}
		return nil
	})
}

func (r *notificationRepository) FindPage(ctx context.Context, recipientID uuid.UUID, limit, skip int) ([]*model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	notifications := []*model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, limit, skip); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND read = FALSE
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func (r *notificationRepository) CountRecentDuplicates(ctx context.Context, recipientID uuid.UUID, title, message string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND title = $2 AND message = $3 AND created_at >= $4
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID, title, message, since); err != nil {
		return 0, fmt.Errorf("failed to count recent duplicates: %w", err)
	}

	return count, nil
}

// MarkRead sets read in a single statement so a concurrent call cannot
// observe a half-applied transition. The WHERE clause matches already-read
// rows too, which makes the operation idempotent.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (*model.Notification, error) {
	query := `
		UPDATE notifications
		SET read = TRUE, updated_at = NOW()
		WHERE id = $1 AND recipient_id = $2
		RETURNING *
	`

	var n model.Notification
	if err := r.db.GetContext(ctx, &n, query, id, recipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}

	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET read = TRUE, updated_at = NOW()
		WHERE recipient_id = $1 AND read = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, recipientID uuid.UUID) error {
	query := `
		DELETE FROM notifications
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrNotificationNotFound
	}

	return nil
}
