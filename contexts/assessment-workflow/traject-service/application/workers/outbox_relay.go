package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

// OutboxRelay publishes persisted traject events to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// sent only after publish succeeds. It stops on the first failure so the next
// cycle picks up the remaining rows.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("traject outbox list failed",
			"event", "traject_outbox_list_failed",
			"module", "assessment-workflow/traject-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("traject outbox decode failed",
				"event", "traject_outbox_decode_failed",
				"module", "assessment-workflow/traject-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("traject outbox publish failed",
				"event", "traject_outbox_publish_failed",
				"module", "assessment-workflow/traject-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"topic", topic,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, row.OutboxID, now); err != nil {
			logger.Error("traject outbox mark sent failed",
				"event", "traject_outbox_mark_sent_failed",
				"module", "assessment-workflow/traject-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("traject outbox relay cycle completed",
		"event", "traject_outbox_relay_completed",
		"module", "assessment-workflow/traject-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}
