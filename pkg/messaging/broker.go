package messaging

import (
	"context"

	"github.com/google/uuid"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channel used for cross-instance notification fan-out.
const NotificationsChannel = "notifications"

// InstanceID identifies this process on the broker. Subscribers skip
// events carrying their own origin so a notification is not delivered
// twice on the instance that created it.
var InstanceID = uuid.NewString()

// NotificationEvent is the wire form of a created notification published
// on the broker so that other instances can push it to their sessions.
type NotificationEvent struct {
	Type      string      `json:"type"`
	Origin    string      `json:"origin,omitempty"`
	Recipient string      `json:"recipient,omitempty"`
	AdminOnly bool        `json:"admin_only,omitempty"`
	Payload   interface{} `json:"payload"`
}
