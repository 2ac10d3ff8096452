package entities

import "strings"

// DefaultHistoryCap bounds the status history kept on a traject.
const DefaultHistoryCap = 50

// HistoryEntry is one immutable audit record of a status change. ActorID is
// empty for system-initiated changes.
type HistoryEntry struct {
	Status    Status
	ChangedAt Timestamp
	ActorID   string
	ActorRole Role
	Note      string
}

// NewHistoryEntry builds an entry stamped with the transaction clock reading.
// Notes are trimmed; a blank note is dropped.
func NewHistoryEntry(status Status, changedAt Timestamp, actorID string, actorRole Role, note string) HistoryEntry {
	return HistoryEntry{
		Status:    status,
		ChangedAt: changedAt,
		ActorID:   strings.TrimSpace(actorID),
		ActorRole: actorRole,
		Note:      strings.TrimSpace(note),
	}
}

// AppendHistory keeps the newest limit-1 entries of existing and appends entry,
// so the result never exceeds limit. The input slice is not modified.
func AppendHistory(existing []HistoryEntry, entry HistoryEntry, limit int) []HistoryEntry {
	if limit < 1 {
		limit = DefaultHistoryCap
	}
	keep := existing
	if len(keep) > limit-1 {
		keep = keep[len(keep)-(limit-1):]
	}
	out := make([]HistoryEntry, 0, len(keep)+1)
	out = append(out, keep...)
	return append(out, entry)
}
