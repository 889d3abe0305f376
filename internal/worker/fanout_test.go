package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelplay/notify-api/internal/model"
	"github.com/pixelplay/notify-api/pkg/logger"
	"github.com/pixelplay/notify-api/pkg/messaging"
)

type channelBroker struct {
	messages chan []byte
}

func (b *channelBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.messages <- data
	return nil
}

func (b *channelBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return b.messages, nil
}

func (b *channelBroker) Close() error {
	close(b.messages)
	return nil
}

type recordingGateway struct {
	users  chan uuid.UUID
	admins chan *model.Notification
}

func newRecordingGateway() *recordingGateway {
	return &recordingGateway{
		users:  make(chan uuid.UUID, 16),
		admins: make(chan *model.Notification, 16),
	}
}

func (g *recordingGateway) SendToUser(userID uuid.UUID, n *model.Notification) {
	g.users <- userID
}

func (g *recordingGateway) SendToAdmins(n *model.Notification) {
	g.admins <- n
}

func startRelay(t *testing.T) (*channelBroker, *recordingGateway, context.CancelFunc) {
	t.Helper()
	broker := &channelBroker{messages: make(chan []byte, 16)}
	gateway := newRecordingGateway()
	relay := NewFanoutRelay(broker, gateway, logger.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = relay.Start(ctx) }()
	t.Cleanup(cancel)
	return broker, gateway, cancel
}

func TestRelay_DeliversRemoteEvents(t *testing.T) {
	broker, gateway, _ := startRelay(t)
	recipient := uuid.New()

	err := broker.Publish(context.Background(), messaging.NotificationsChannel, &messaging.NotificationEvent{
		Type:      "notification:new",
		Origin:    "some-other-instance",
		Recipient: recipient.String(),
		Payload:   &model.Notification{RecipientID: recipient, Title: "remote"},
	})
	require.NoError(t, err)

	select {
	case got := <-gateway.users:
		assert.Equal(t, recipient, got)
	case <-time.After(time.Second):
		t.Fatal("expected a relayed push")
	}
}

func TestRelay_SkipsOwnEvents(t *testing.T) {
	broker, gateway, _ := startRelay(t)
	recipient := uuid.New()

	err := broker.Publish(context.Background(), messaging.NotificationsChannel, &messaging.NotificationEvent{
		Type:      "notification:new",
		Origin:    messaging.InstanceID,
		Recipient: recipient.String(),
		Payload:   &model.Notification{RecipientID: recipient},
	})
	require.NoError(t, err)

	select {
	case <-gateway.users:
		t.Fatal("own event must not be re-delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelay_AdminOnlyEvents(t *testing.T) {
	broker, gateway, _ := startRelay(t)

	err := broker.Publish(context.Background(), messaging.NotificationsChannel, &messaging.NotificationEvent{
		Type:      "notification:new",
		Origin:    "some-other-instance",
		AdminOnly: true,
		Payload:   &model.Notification{Title: "for admins"},
	})
	require.NoError(t, err)

	select {
	case n := <-gateway.admins:
		assert.Equal(t, "for admins", n.Title)
	case <-time.After(time.Second):
		t.Fatal("expected an admin push")
	}
}

func TestRelay_IgnoresMalformedMessages(t *testing.T) {
	broker, gateway, _ := startRelay(t)

	broker.messages <- []byte("not json")
	broker.messages <- []byte(`{"type":"notification:new","origin":"x","recipient":"not-a-uuid","payload":{}}`)

	select {
	case <-gateway.users:
		t.Fatal("malformed events must be dropped")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelay_StopsOnCancel(t *testing.T) {
	broker := &channelBroker{messages: make(chan []byte)}
	relay := NewFanoutRelay(broker, newRecordingGateway(), logger.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop on cancel")
	}
}
