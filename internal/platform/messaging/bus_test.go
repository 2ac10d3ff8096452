package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"traject/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversSynchronouslyToTopicSubscribers(t *testing.T) {
	bus := NewBus(nil)
	var received []string
	unsubscribe := bus.Subscribe("traject.status_changed", "notifications", func(_ context.Context, event events.Envelope) error {
		received = append(received, event.EventID)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), "traject.status_changed", events.Envelope{EventID: "evt-1"}))
	assert.Equal(t, []string{"evt-1"}, received)

	err := bus.Publish(context.Background(), "traject.provisioned", events.Envelope{EventID: "evt-2"})
	require.ErrorIs(t, err, ErrNoSubscribers)

	unsubscribe()
	err = bus.Publish(context.Background(), "traject.status_changed", events.Envelope{EventID: "evt-3"})
	require.ErrorIs(t, err, ErrNoSubscribers)
	assert.Equal(t, []string{"evt-1"}, received)
}

func TestBusReportsHandlerFailuresAfterRunningAll(t *testing.T) {
	bus := NewBus(nil)
	boom := errors.New("mail relay down")
	calls := 0
	bus.Subscribe("topic", "failing", func(context.Context, events.Envelope) error {
		calls++
		return boom
	})
	bus.Subscribe("topic", "audit", func(context.Context, events.Envelope) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), "topic", events.Envelope{EventID: "evt-1"})
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failing")
	assert.Equal(t, 2, calls)
}

func TestBusHonoursCancelledContext(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe("topic", "group", func(context.Context, events.Envelope) error {
		t.Fatal("handler must not run")
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, bus.Publish(ctx, "topic", events.Envelope{}), context.Canceled)
}

func TestStreamValuesCarryFullEnvelope(t *testing.T) {
	event := events.Envelope{
		EventID:      "evt-1",
		EventType:    "traject.status_changed",
		PartitionKey: "cand-1",
		Data:         json.RawMessage(`{"to_status":"Review"}`),
	}
	values, err := streamValues(event)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", values["event_id"])
	assert.Equal(t, "cand-1", values["partition_key"])

	var decoded events.Envelope
	require.NoError(t, json.Unmarshal([]byte(values["envelope"].(string)), &decoded))
	assert.Equal(t, event.EventType, decoded.EventType)
	assert.JSONEq(t, `{"to_status":"Review"}`, string(decoded.Data))
}
