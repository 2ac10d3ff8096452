package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

func TestLogNotifierWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	notifier := LogNotifier{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	err := notifier.Notify(context.Background(), ports.Notification{
		EventID:      "evt-1",
		EventType:    "traject.status_changed",
		TrajectID:    "cand-1",
		Status:       entities.StatusReview,
		RecipientIDs: []string{"cand-1", "coach-1"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"event":"traject_notification_dispatched"`)
	assert.Contains(t, buf.String(), `"recipient_ids":["cand-1","coach-1"]`)
}

func TestLogNotifierStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, LogNotifier{}.Notify(ctx, ports.Notification{}), context.Canceled)
}
