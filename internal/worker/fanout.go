package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/pkg/logger"
	"github.com/pixelplay/notify-api/pkg/messaging"
)

// Gateway is the slice of the realtime gateway the relay pushes into.
type Gateway interface {
	SendToUser(userID uuid.UUID, n *model.Notification)
	SendToAdmins(n *model.Notification)
}

// relayEvent mirrors messaging.NotificationEvent with the payload kept
// raw so it can be decoded into a Notification.
type relayEvent struct {
	Type      string          `json:"type"`
	Origin    string          `json:"origin"`
	Recipient string          `json:"recipient"`
	AdminOnly bool            `json:"admin_only"`
	Payload   json.RawMessage `json:"payload"`
}

// FanoutRelay bridges broker events into the local gateway so that
// notifications created on another instance still reach sessions
// connected here.
type FanoutRelay struct {
	broker   messaging.Broker
	gateway  Gateway
	logger   *logger.Logger
	instance string
}

func NewFanoutRelay(broker messaging.Broker, gateway Gateway, log *logger.Logger) *FanoutRelay {
	return &FanoutRelay{
		broker:   broker,
		gateway:  gateway,
		logger:   log.WithComponent("fanout-relay"),
		instance: messaging.InstanceID,
	}
}

// Start subscribes and relays until ctx is cancelled or the broker
// closes the subscription.
func (r *FanoutRelay) Start(ctx context.Context) error {
	messages, err := r.broker.Subscribe(ctx, messaging.NotificationsChannel)
	if err != nil {
		return err
	}

	r.logger.Info("fanout relay started", "channel", messaging.NotificationsChannel)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				r.logger.Warn("broker subscription closed")
				return nil
			}
			r.handle(msg)
		}
	}
}

func (r *FanoutRelay) handle(msg []byte) {
	var event relayEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		r.logger.Warn("failed to decode broker event", "error", err.Error())
		return
	}

	// Events this instance published were already pushed locally.
	if event.Origin == r.instance {
		return
	}

	var n model.Notification
	if err := json.Unmarshal(event.Payload, &n); err != nil {
		r.logger.Warn("failed to decode notification payload", "error", err.Error())
		return
	}

	if event.AdminOnly {
		r.gateway.SendToAdmins(&n)
		return
	}

	recipientID, err := uuid.Parse(event.Recipient)
	if err != nil {
		r.logger.Warn("broker event has invalid recipient", "recipient", event.Recipient)
		return
	}

	r.gateway.SendToUser(recipientID, &n)
}
