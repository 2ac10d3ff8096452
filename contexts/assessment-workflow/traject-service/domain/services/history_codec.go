package services

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
)

// storedHistoryEntry is the persisted JSON shape of one history entry.
// changedAt is written as a {seconds, nanoseconds} pair.
type storedHistoryEntry struct {
	Status    string        `json:"status"`
	ChangedAt *storedMoment `json:"changedAt"`
	ActorID   *string       `json:"actorId"`
	ActorRole *string       `json:"actorRole"`
	Note      *string       `json:"note,omitempty"`
}

type storedMoment struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

// EncodeHistory renders entries in the persisted JSON shape.
func EncodeHistory(entries []entities.HistoryEntry) ([]byte, error) {
	rows := make([]storedHistoryEntry, 0, len(entries))
	for _, entry := range entries {
		row := storedHistoryEntry{
			Status:    string(entry.Status),
			ActorID:   optionalString(entry.ActorID),
			ActorRole: optionalString(string(entry.ActorRole)),
			Note:      optionalString(entry.Note),
		}
		if at, ok := entities.ToTime(entry.ChangedAt); ok {
			row.ChangedAt = &storedMoment{Seconds: at.Unix(), Nanoseconds: int64(at.Nanosecond())}
		}
		rows = append(rows, row)
	}
	return json.Marshal(rows)
}

// DecodeHistory reads a persisted history array written by any past writer.
// Elements that are not objects or whose status does not resolve are dropped;
// an unreadable array yields no entries.
func DecodeHistory(raw []byte) []entities.HistoryEntry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	entries := make([]entities.HistoryEntry, 0, len(items))
	for _, item := range items {
		entry, ok := decodeHistoryItem(item)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func decodeHistoryItem(item json.RawMessage) (entities.HistoryEntry, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return entities.HistoryEntry{}, false
	}

	status, ok := entities.ResolveStatus(stringField(fields, "status"))
	if !ok {
		return entities.HistoryEntry{}, false
	}

	entry := entities.HistoryEntry{
		Status:  status,
		ActorID: stringField(fields, "actorId", "actor_id", "changedBy"),
		Note:    strings.TrimSpace(stringField(fields, "note", "notes")),
	}
	if rawRole := stringField(fields, "actorRole", "actor_role", "changedByRole"); rawRole != "" {
		if role, ok := entities.ParseRole(rawRole); ok {
			entry.ActorRole = role
		} else {
			entry.ActorRole = entities.Role(strings.TrimSpace(rawRole))
		}
	}
	for _, key := range []string{"changedAt", "changed_at", "timestamp"} {
		if value, ok := fields[key]; ok {
			entry.ChangedAt = DecodeTimestamp(value)
			break
		}
	}
	return entry, true
}

type secondsNanosFields struct {
	Seconds          *json.Number `json:"seconds"`
	Nanoseconds      *json.Number `json:"nanoseconds"`
	UnderSeconds     *json.Number `json:"_seconds"`
	UnderNanoseconds *json.Number `json:"_nanoseconds"`
}

// DecodeTimestamp maps a raw JSON value onto a Timestamp variant. Strings are
// wall-clock dates, numbers epoch milliseconds, objects {seconds, nanoseconds}
// or {_seconds, _nanoseconds} pairs. Anything else yields nil.
func DecodeTimestamp(raw json.RawMessage) entities.Timestamp {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil
		}
		return entities.WallClockTimestamp{Raw: text}
	case '{':
		var pair secondsNanosFields
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil
		}
		seconds, nanos := pair.Seconds, pair.Nanoseconds
		if seconds == nil {
			seconds, nanos = pair.UnderSeconds, pair.UnderNanoseconds
		}
		if seconds == nil {
			return nil
		}
		secs, fraction, ok := splitSeconds(*seconds)
		if !ok {
			return nil
		}
		ns := fraction
		if nanos != nil {
			if parsed, err := nanos.Int64(); err == nil {
				ns += parsed
			}
		}
		return entities.SecondsNanosTimestamp{Seconds: secs, Nanos: ns}
	case 'n':
		return nil
	default:
		var millis json.Number
		if err := json.Unmarshal(raw, &millis); err != nil {
			return nil
		}
		value, err := millis.Int64()
		if err != nil {
			return nil
		}
		return entities.NewNativeTimestamp(time.UnixMilli(value))
	}
}

// splitSeconds reads an integral or fractional seconds value. The fraction is
// returned in nanoseconds. Values outside the int64 range are rejected.
func splitSeconds(value json.Number) (int64, int64, bool) {
	if whole, err := value.Int64(); err == nil {
		return whole, 0, true
	}
	secs, err := value.Float64()
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, 0, false
	}
	if secs < math.MinInt64 || secs >= math.MaxInt64 {
		return 0, 0, false
	}
	whole := math.Trunc(secs)
	return int64(whole), int64(math.Round((secs - whole) * 1e9)), true
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			return text
		}
	}
	return ""
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
