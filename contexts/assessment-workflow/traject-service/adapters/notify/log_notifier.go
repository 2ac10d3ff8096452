package notify

import (
	"context"
	"log/slog"

	"traject/contexts/assessment-workflow/traject-service/ports"
)

// LogNotifier records notifications in the service log. It is the default
// channel until an outbound mail collaborator is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, notification ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("traject notification dispatched",
		"event", "traject_notification_dispatched",
		"module", "assessment-workflow/traject-service",
		"layer", "adapter",
		"event_id", notification.EventID,
		"event_type", notification.EventType,
		"traject_id", notification.TrajectID,
		"status", string(notification.Status),
		"recipient_ids", notification.RecipientIDs,
	)
	return nil
}
