package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
)

func TestEncodeDecodeHistory(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 600_000_000, time.UTC)
	entries := []entities.HistoryEntry{
		entities.NewHistoryEntry(entities.StatusReview, entities.NewNativeTimestamp(at), "coach-1", entities.RoleCoach, "ready"),
		entities.NewHistoryEntry(entities.StatusArchived, nil, "", entities.RoleSystem, ""),
	}

	raw, err := EncodeHistory(entries)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"status":"Review","changedAt":{"seconds":1704164645,"nanoseconds":600000000},"actorId":"coach-1","actorRole":"coach","note":"ready"},
		{"status":"Archived","changedAt":null,"actorId":null,"actorRole":"system"}
	]`, string(raw))

	decoded := DecodeHistory(raw)
	require.Len(t, decoded, 2)
	got, ok := entities.ToTime(decoded[0].ChangedAt)
	require.True(t, ok)
	assert.True(t, at.Equal(got))
	assert.Equal(t, "coach-1", decoded[0].ActorID)
	assert.Nil(t, decoded[1].ChangedAt)
	assert.Empty(t, decoded[1].ActorID)
}

func TestDecodeHistoryDropsMalformedElements(t *testing.T) {
	raw := []byte(`[
		"not an object",
		42,
		{"status":"Somewhere"},
		{"notes":"no status"},
		{"status":"kwaliteit","changedBy":"kc-1","changedByRole":"Kwaliteitscoördinator","notes":"  ok  "}
	]`)

	decoded := DecodeHistory(raw)
	require.Len(t, decoded, 1)
	assert.Equal(t, entities.StatusQuality, decoded[0].Status)
	assert.Equal(t, "kc-1", decoded[0].ActorID)
	assert.Equal(t, entities.RoleQualityCoordinator, decoded[0].ActorRole)
	assert.Equal(t, "ok", decoded[0].Note)
}

func TestDecodeHistoryKeepsUnknownRoleVerbatim(t *testing.T) {
	decoded := DecodeHistory([]byte(`[{"status":"Review","actorRole":" Stagiair "}]`))
	require.Len(t, decoded, 1)
	assert.Equal(t, entities.Role("Stagiair"), decoded[0].ActorRole)
}

func TestDecodeHistoryUnreadableInput(t *testing.T) {
	assert.Empty(t, DecodeHistory(nil))
	assert.Empty(t, DecodeHistory([]byte("null")))
	assert.Empty(t, DecodeHistory([]byte(`{"status":"Review"}`)))
	assert.Empty(t, DecodeHistory([]byte(`[{`)))
}

func TestDecodeTimestampShapes(t *testing.T) {
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	shapes := map[string]string{
		"wall clock":          `"2023-11-14T22:13:20Z"`,
		"epoch millis":        `1700000000000`,
		"seconds nanos":       `{"seconds":1700000000,"nanoseconds":0}`,
		"underscored seconds": `{"_seconds":1700000000,"_nanoseconds":0}`,
	}
	for name, raw := range shapes {
		ts := DecodeTimestamp(json.RawMessage(raw))
		got, ok := entities.ToTime(ts)
		require.True(t, ok, name)
		assert.True(t, want.Equal(got), name)
	}
}

func TestDecodeTimestampUnreadable(t *testing.T) {
	for _, raw := range []string{``, `null`, `true`, `{"minutes":3}`, `[1,2]`, `1.5e400`} {
		assert.Nil(t, DecodeTimestamp(json.RawMessage(raw)), raw)
	}
}

func TestDecodeTimestampCarriesFractionalSeconds(t *testing.T) {
	base := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	shapes := map[string]struct {
		raw  string
		want time.Time
	}{
		"half second":         {`{"seconds":1700000000.5}`, base.Add(500 * time.Millisecond)},
		"fraction plus nanos": {`{"_seconds":1700000000.25,"_nanoseconds":1000}`, base.Add(250*time.Millisecond + time.Microsecond)},
		"exponent integral":   {`{"seconds":1.7e9,"nanoseconds":7}`, base.Add(7)},
		"negative fraction":   {`{"seconds":-1.5}`, time.Unix(-1, -500000000).UTC()},
	}
	for name, tc := range shapes {
		got, ok := entities.ToTime(DecodeTimestamp(json.RawMessage(tc.raw)))
		require.True(t, ok, name)
		assert.True(t, tc.want.Equal(got), "%s: got %s", name, got)
	}
}

func TestDecodeTimestampRejectsOutOfRangeSeconds(t *testing.T) {
	for _, raw := range []string{
		`{"seconds":1e300}`,
		`{"seconds":-1e300}`,
		`{"_seconds":9223372036854775808}`,
		`{"seconds":1e999}`,
	} {
		assert.Nil(t, DecodeTimestamp(json.RawMessage(raw)), raw)
	}
}
