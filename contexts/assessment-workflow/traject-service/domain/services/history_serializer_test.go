package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
)

func TestSerializeHistoryFormatsEntries(t *testing.T) {
	at := time.Date(2024, 2, 29, 12, 30, 0, 123_456_789, time.UTC)
	records := SerializeHistory([]entities.HistoryEntry{
		{Status: "review", ChangedAt: entities.NewNativeTimestamp(at), ActorID: "c-1", ActorRole: entities.RoleCoach},
	})

	require.Len(t, records, 1)
	record := records[0]
	assert.Equal(t, entities.StatusReview, record.Status)
	require.NotNil(t, record.ChangedAt)
	assert.Equal(t, "2024-02-29T12:30:00.123Z", *record.ChangedAt)
	require.NotNil(t, record.ChangedAtMillis)
	assert.Equal(t, at.UnixMilli(), *record.ChangedAtMillis)
	assert.Equal(t, "c-1", *record.ActorID)
	assert.Equal(t, "coach", *record.ActorRole)
	assert.Nil(t, record.Note)
}

func TestSerializeHistorySkipsUnknownAndDegradesTimestamps(t *testing.T) {
	records := SerializeHistory([]entities.HistoryEntry{
		{Status: "Limbo"},
		{Status: entities.StatusQuality, ChangedAt: entities.WallClockTimestamp{Raw: "not a date"}},
		{Status: entities.StatusAssessment},
	})

	require.Len(t, records, 2)
	assert.Equal(t, entities.StatusQuality, records[0].Status)
	assert.Nil(t, records[0].ChangedAt)
	assert.Nil(t, records[0].ChangedAtMillis)
	assert.Nil(t, records[0].ActorID)
	assert.Nil(t, records[0].ActorRole)
	assert.Equal(t, entities.StatusAssessment, records[1].Status)
}

func TestSerializeRawHistoryPreservesOrder(t *testing.T) {
	raw := []byte(`[
		{"status":"Collecting","changedAt":{"_seconds":1700000000,"_nanoseconds":5000000}},
		{"status":"Review","changedAt":"2023-11-15"},
		{"status":"Quality","changedAt":1700100000000}
	]`)

	records := SerializeRawHistory(raw)
	require.Len(t, records, 3)
	assert.Equal(t, "2023-11-14T22:13:20.005Z", *records[0].ChangedAt)
	assert.Equal(t, "2023-11-15T00:00:00.000Z", *records[1].ChangedAt)
	assert.Equal(t, int64(1700100000000), *records[2].ChangedAtMillis)
}

func TestFormatISO(t *testing.T) {
	assert.Nil(t, FormatISO(nil))
	assert.Nil(t, FormatISO(&time.Time{}))

	local := time.Date(2024, 6, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	assert.Equal(t, "2024-06-01T08:00:00.000Z", *FormatISO(&local))
}
