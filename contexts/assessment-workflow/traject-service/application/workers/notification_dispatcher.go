package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/application/commands"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

// NotificationDispatcher consumes relayed traject events and tells the people
// who have to act next.
type NotificationDispatcher struct {
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// Topics lists the event types the dispatcher subscribes to.
func (NotificationDispatcher) Topics() []string {
	return []string{commands.EventTypeStatusChanged, commands.EventTypeProvisioned}
}

type trajectEventData struct {
	TrajectID            string `json:"traject_id"`
	Status               string `json:"status"`
	ToStatus             string `json:"to_status"`
	CoachID              string `json:"coach_id"`
	QualityCoordinatorID string `json:"quality_coordinator_id"`
	AssessorID           string `json:"assessor_id"`
}

// Handle turns one envelope into a notification. Events of other types are
// ignored. Delivery is at least once, so a redelivered event notifies again.
func (d NotificationDispatcher) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(d.Logger)

	var data trajectEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.EventType, err)
	}

	var status entities.Status
	var recipients []string
	switch event.EventType {
	case commands.EventTypeStatusChanged:
		status = entities.NormalizeStatus(data.ToStatus)
		recipients = []string{data.TrajectID, stageOwnerID(status, data)}
	case commands.EventTypeProvisioned:
		status = entities.NormalizeStatus(data.Status)
		recipients = []string{data.TrajectID, data.CoachID}
	default:
		return nil
	}
	recipients = slices.DeleteFunc(recipients, func(id string) bool { return id == "" })
	slices.Sort(recipients)
	recipients = slices.Compact(recipients)

	if len(recipients) == 0 {
		logger.Debug("traject notification skipped",
			"event", "traject_notification_skipped",
			"module", "assessment-workflow/traject-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	err := d.Notifier.Notify(ctx, ports.Notification{
		EventID:      event.EventID,
		EventType:    event.EventType,
		TrajectID:    data.TrajectID,
		Status:       status,
		RecipientIDs: recipients,
	})
	if err != nil {
		logger.Error("traject notification failed",
			"event", "traject_notification_failed",
			"module", "assessment-workflow/traject-service",
			"layer", "worker",
			"event_id", event.EventID,
			"traject_id", data.TrajectID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// stageOwnerID is the linked user owning status. Complete and archived
// trajects belong to admins, who are not linked per traject.
func stageOwnerID(status entities.Status, data trajectEventData) string {
	role, ok := status.OwnerRole()
	if !ok {
		return ""
	}
	switch role {
	case entities.RoleCoach:
		return data.CoachID
	case entities.RoleQualityCoordinator:
		return data.QualityCoordinatorID
	case entities.RoleAssessor:
		return data.AssessorID
	default:
		return ""
	}
}
