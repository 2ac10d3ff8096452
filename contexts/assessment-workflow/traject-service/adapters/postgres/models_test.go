package postgresadapter

import (
	"testing"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestTrajectModelRoundTripKeepsHistoryAndLinks(t *testing.T) {
	updatedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	item := entities.Traject{
		TrajectID:           "cand-1",
		Status:              entities.StatusQuality,
		StatusUpdatedAt:     &updatedAt,
		StatusUpdatedBy:     "coach-1",
		StatusUpdatedByRole: entities.RoleCoach,
		History: []entities.HistoryEntry{
			entities.NewHistoryEntry(entities.StatusReview, entities.NewNativeTimestamp(updatedAt.Add(-time.Hour)), "cand-1", entities.RoleCandidate, ""),
			entities.NewHistoryEntry(entities.StatusQuality, entities.NewNativeTimestamp(updatedAt), "coach-1", entities.RoleCoach, "looks good"),
		},
		CoachID:              "coach-1",
		QualityCoordinatorID: "kc-1",
		CreatedAt:            updatedAt.Add(-48 * time.Hour),
	}

	row, err := trajectModelFromEntity(item)
	require.NoError(t, err)
	require.Nil(t, row.AssessorID)
	require.Equal(t, "coach-1", *row.CoachID)

	got := row.toEntity()
	assert.Equal(t, entities.StatusQuality, got.Status)
	assert.Equal(t, "kc-1", got.QualityCoordinatorID)
	assert.Empty(t, got.AssessorID)
	require.Len(t, got.History, 2)
	assert.Equal(t, "looks good", got.History[1].Note)
	changedAt, ok := entities.ToTime(got.History[1].ChangedAt)
	require.True(t, ok)
	assert.True(t, changedAt.Equal(updatedAt))
}

func TestTrajectModelUpdatesOmitCreatedAt(t *testing.T) {
	row, err := trajectModelFromEntity(entities.Traject{TrajectID: "cand-2", Status: entities.StatusCollecting})
	require.NoError(t, err)
	_, hasCreatedAt := row.updates()["created_at"]
	assert.False(t, hasCreatedAt)
}

func TestUserModelCanonicalizesLegacyRole(t *testing.T) {
	user := userModel{UserID: "u-1", Role: "Beoordelaar"}.toEntity()
	assert.Equal(t, entities.RoleAssessor, user.Role)

	unknown := userModel{UserID: "u-2", Role: "auditor"}.toEntity()
	assert.Equal(t, entities.Role("auditor"), unknown.Role)
}

func TestOwnerIndexModelDecodesLegacyHistory(t *testing.T) {
	row := ownerIndexModel{
		OwnerRole: "coach",
		OwnerID:   "coach-1",
		TrajectID: "cand-1",
		Status:    "Review",
		StatusHistory: datatypes.JSON(`[
			{"status":"review","changedAt":{"_seconds":1700000000,"_nanoseconds":0},"changedBy":"cand-1"},
			"garbage",
			{"status":"unknown-stage"}
		]`),
	}
	entry := row.toEntity()
	require.Len(t, entry.History, 1)
	assert.Equal(t, entities.StatusReview, entry.History[0].Status)
	assert.Equal(t, "cand-1", entry.History[0].ActorID)
}
