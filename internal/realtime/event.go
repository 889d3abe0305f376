package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/model"
)

// EventName identifies one wire event kind.
type EventName string

// Inbound events
const (
	EventPing             EventName = "ping"
	EventNotificationRead EventName = "notification:read"
	EventTypingStart      EventName = "typing:start"
	EventTypingStop       EventName = "typing:stop"
)

// Outbound events
const (
	EventPong               EventName = "pong"
	EventNotificationNew    EventName = "notification:new"
	EventNotificationStatus EventName = "notification:status"
	EventUserTyping         EventName = "user:typing"
	EventUserStoppedTyping  EventName = "user:stopped-typing"
)

// Envelope is the wire frame carrying one event.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is one outbound event. The constructors below are the only way
// to build one, so the set of emitted kinds stays closed and checked at
// compile time; everything funnels through the gateway's single emit
// path.
type Event struct {
	name EventName
	data interface{}
}

// Name returns the wire name of the event.
func (e Event) Name() EventName {
	return e.name
}

// Encode renders the event as a wire frame.
func (e Event) Encode() ([]byte, error) {
	var data json.RawMessage
	if e.data != nil {
		raw, err := json.Marshal(e.data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", e.name, err)
		}
		data = raw
	}

	frame, err := json.Marshal(Envelope{Event: e.name, Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", e.name, err)
	}
	return frame, nil
}

// PongPayload carries the server timestamp answering a ping.
type PongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// StatusPayload announces a notification state change to the admins room.
type StatusPayload struct {
	UserID         string `json:"userId"`
	NotificationID string `json:"notificationId"`
	Status         string `json:"status"`
}

// TypingPayload identifies who is typing.
type TypingPayload struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// ReadAckPayload is the inbound notification:read payload.
type ReadAckPayload struct {
	NotificationID string `json:"notificationId"`
}

// Pong answers a liveness ping with the current server timestamp.
func Pong(now time.Time) Event {
	return Event{name: EventPong, data: PongPayload{Timestamp: now.UnixMilli()}}
}

// NotificationNew wraps a freshly persisted notification record.
func NotificationNew(n *model.Notification) Event {
	return Event{name: EventNotificationNew, data: n}
}

// NotificationStatus reports a read acknowledgment to the admins room.
func NotificationStatus(userID uuid.UUID, notificationID string) Event {
	return Event{name: EventNotificationStatus, data: StatusPayload{
		UserID:         userID.String(),
		NotificationID: notificationID,
		Status:         "read",
	}}
}

// UserTyping announces that identity started typing.
func UserTyping(identity *model.Identity) Event {
	return Event{name: EventUserTyping, data: TypingPayload{
		UserID:   identity.UserID.String(),
		UserName: identity.Name,
	}}
}

// UserStoppedTyping announces that identity stopped typing.
func UserStoppedTyping(identity *model.Identity) Event {
	return Event{name: EventUserStoppedTyping, data: TypingPayload{
		UserID:   identity.UserID.String(),
		UserName: identity.Name,
	}}
}

// Custom builds an ad-hoc event for generic room addressing. The name is
// the caller's responsibility; everything else still flows through the
// typed emit path.
func Custom(name EventName, payload interface{}) Event {
	return Event{name: name, data: payload}
}
