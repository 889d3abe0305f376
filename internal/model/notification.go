package model

import (
	"errors"

	"github.com/google/uuid"
)

// NotificationCategory identifies the origin of a notification
type NotificationCategory string

const (
	CategoryTemplate  NotificationCategory = "template"
	CategoryUser      NotificationCategory = "user"
	CategorySystem    NotificationCategory = "system"
	CategoryAnalytics NotificationCategory = "analytics"
)

// Valid reports whether c is one of the known categories.
func (c NotificationCategory) Valid() bool {
	switch c {
	case CategoryTemplate, CategoryUser, CategorySystem, CategoryAnalytics:
		return true
	}
	return false
}

// ErrNotificationNotFound is returned when a notification does not exist
// or is not owned by the requesting recipient.
var ErrNotificationNotFound = errors.New("notification not found")

// Notification is a durable, user-directed notification record.
// RecipientID is immutable and Read is monotonic: once true it is never
// reset to false by ordinary flows.
type Notification struct {
	Base
	RecipientID uuid.UUID            `json:"recipient_id" db:"recipient_id"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	Category    NotificationCategory `json:"category" db:"category"`
	Read        bool                 `json:"read" db:"read"`
	Payload     JSONMap              `json:"payload" db:"payload"`
}

// NotificationPage is one page of a recipient's notifications together
// with the unread count over all of that recipient's notifications,
// independent of the page window.
type NotificationPage struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
	Limit         int             `json:"limit"`
	Skip          int             `json:"skip"`
}

// CreateNotificationRequest represents notification creation parameters
type CreateNotificationRequest struct {
	RecipientID string  `json:"recipient_id" binding:"required,uuid"`
	Title       string  `json:"title" binding:"required"`
	Message     string  `json:"message" binding:"required"`
	Category    string  `json:"category" binding:"required,notifcategory"`
	Payload     JSONMap `json:"payload"`
}

// NotifyAdminsRequest represents admin fan-out parameters
type NotifyAdminsRequest struct {
	Title    string  `json:"title" binding:"required"`
	Message  string  `json:"message" binding:"required"`
	Category string  `json:"category" binding:"required,notifcategory"`
	Payload  JSONMap `json:"payload"`
}
