package entities

import (
	"strings"
	"time"
)

// Timestamp is a point in time as it was found in a stored document. Older
// writers used several encodings; ToTime is the single conversion.
type Timestamp interface {
	isTimestamp()
}

// NativeTimestamp is a store-native instant.
type NativeTimestamp struct {
	Time time.Time
}

// WallClockTimestamp is a textual date written by a client clock.
type WallClockTimestamp struct {
	Raw string
}

// SecondsNanosTimestamp is a {seconds, nanoseconds} pair, with or without the
// underscore-prefixed field names.
type SecondsNanosTimestamp struct {
	Seconds int64
	Nanos   int64
}

func (NativeTimestamp) isTimestamp()       {}
func (WallClockTimestamp) isTimestamp()    {}
func (SecondsNanosTimestamp) isTimestamp() {}

// NewNativeTimestamp wraps t in UTC.
func NewNativeTimestamp(t time.Time) Timestamp {
	return NativeTimestamp{Time: t.UTC()}
}

var wallClockLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"02-01-2006 15:04",
	"02-01-2006",
}

// ToTime converts any Timestamp variant to UTC. It reports false for nil,
// zero or unparseable values.
func ToTime(ts Timestamp) (time.Time, bool) {
	switch v := ts.(type) {
	case NativeTimestamp:
		if v.Time.IsZero() {
			return time.Time{}, false
		}
		return v.Time.UTC(), true
	case *NativeTimestamp:
		if v == nil {
			return time.Time{}, false
		}
		return ToTime(*v)
	case WallClockTimestamp:
		raw := strings.TrimSpace(v.Raw)
		if raw == "" {
			return time.Time{}, false
		}
		for _, layout := range wallClockLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	case SecondsNanosTimestamp:
		if v.Seconds == 0 && v.Nanos == 0 {
			return time.Time{}, false
		}
		return time.Unix(v.Seconds, v.Nanos).UTC(), true
	default:
		return time.Time{}, false
	}
}
