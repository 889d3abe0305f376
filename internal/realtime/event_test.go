package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelplay/notify-api/internal/model"
)

func decodeFrame(t *testing.T, frame []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func TestPongCarriesTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	frame, err := Pong(now).Encode()
	require.NoError(t, err)

	env := decodeFrame(t, frame)
	assert.Equal(t, EventPong, env.Event)

	var payload PongPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, now.UnixMilli(), payload.Timestamp)
}

func TestNotificationNewCarriesFullRecord(t *testing.T) {
	n := &model.Notification{
		Base:        model.Base{ID: uuid.New(), CreatedAt: time.Now()},
		RecipientID: uuid.New(),
		Title:       "Payment Approved",
		Message:     "Order #42 paid",
		Category:    model.CategorySystem,
		Payload:     model.JSONMap{"order_id": "42"},
	}

	frame, err := NotificationNew(n).Encode()
	require.NoError(t, err)

	env := decodeFrame(t, frame)
	assert.Equal(t, EventNotificationNew, env.Event)

	var decoded model.Notification
	require.NoError(t, json.Unmarshal(env.Data, &decoded))
	assert.Equal(t, n.ID, decoded.ID)
	assert.Equal(t, n.Title, decoded.Title)
	assert.Equal(t, "42", decoded.Payload["order_id"])
}

func TestNotificationStatus(t *testing.T) {
	userID := uuid.New()
	frame, err := NotificationStatus(userID, "notif-1").Encode()
	require.NoError(t, err)

	env := decodeFrame(t, frame)
	assert.Equal(t, EventNotificationStatus, env.Event)

	var payload StatusPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, userID.String(), payload.UserID)
	assert.Equal(t, "notif-1", payload.NotificationID)
	assert.Equal(t, "read", payload.Status)
}

func TestTypingEventsIncludeSenderIdentity(t *testing.T) {
	identity := &model.Identity{UserID: uuid.New(), Name: "Ada"}

	for _, ev := range []Event{UserTyping(identity), UserStoppedTyping(identity)} {
		frame, err := ev.Encode()
		require.NoError(t, err)

		var payload TypingPayload
		env := decodeFrame(t, frame)
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Equal(t, identity.UserID.String(), payload.UserID)
		assert.Equal(t, "Ada", payload.UserName)
	}
}

func TestCustomEvent(t *testing.T) {
	frame, err := Custom("maintenance:scheduled", map[string]string{"window": "02:00"}).Encode()
	require.NoError(t, err)

	env := decodeFrame(t, frame)
	assert.Equal(t, EventName("maintenance:scheduled"), env.Event)
}
