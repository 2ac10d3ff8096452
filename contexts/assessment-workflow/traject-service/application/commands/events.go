package commands

import (
	"encoding/json"
	"time"

	"traject/contexts/assessment-workflow/traject-service/ports"
)

const (
	EventTypeStatusChanged = "traject.status_changed"
	EventTypeProvisioned   = "traject.provisioned"
)

func newTrajectEnvelope(
	eventID string,
	eventType string,
	trajectID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "traject-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "traject_id",
		PartitionKey:     trajectID,
		Data:             payload,
	}, nil
}
