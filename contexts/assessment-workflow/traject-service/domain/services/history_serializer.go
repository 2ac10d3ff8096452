package services

import (
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
)

// ISOLayout is the client-facing timestamp format (UTC, millisecond precision).
const ISOLayout = "2006-01-02T15:04:05.000Z"

// HistoryRecord is the client-facing form of a history entry. Nil fields are
// rendered as JSON null.
type HistoryRecord struct {
	Status          entities.Status
	ChangedAt       *string
	ChangedAtMillis *int64
	ActorID         *string
	ActorRole       *string
	Note            *string
}

// SerializeHistory converts stored entries into client-facing records,
// preserving order. Entries with an unresolvable status are skipped and
// unreadable timestamps degrade to nil.
func SerializeHistory(entries []entities.HistoryEntry) []HistoryRecord {
	records := make([]HistoryRecord, 0, len(entries))
	for _, entry := range entries {
		status, ok := entities.ResolveStatus(string(entry.Status))
		if !ok {
			continue
		}
		record := HistoryRecord{
			Status:    status,
			ActorID:   optionalString(entry.ActorID),
			ActorRole: optionalString(string(entry.ActorRole)),
			Note:      optionalString(entry.Note),
		}
		if at, ok := entities.ToTime(entry.ChangedAt); ok {
			iso := at.Format(ISOLayout)
			millis := at.UnixMilli()
			record.ChangedAt = &iso
			record.ChangedAtMillis = &millis
		}
		records = append(records, record)
	}
	return records
}

// SerializeRawHistory decodes a persisted history array and serializes it.
func SerializeRawHistory(raw []byte) []HistoryRecord {
	return SerializeHistory(DecodeHistory(raw))
}

// FormatISO renders t with ISOLayout, or nil when t is nil or zero.
func FormatISO(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	value := t.UTC().Format(ISOLayout)
	return &value
}
