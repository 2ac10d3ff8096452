package commands

import (
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
)

// ownerMirrors projects t under every owner currently linked to it.
func ownerMirrors(t entities.Traject, at time.Time) []entities.OwnerIndexEntry {
	owners := []struct {
		role entities.Role
		id   string
	}{
		{entities.RoleCoach, t.CoachID},
		{entities.RoleQualityCoordinator, t.QualityCoordinatorID},
		{entities.RoleAssessor, t.AssessorID},
	}
	mirrors := make([]entities.OwnerIndexEntry, 0, len(owners))
	for _, owner := range owners {
		if owner.id == "" {
			continue
		}
		mirrors = append(mirrors, entities.ProjectOwnerIndex(t, owner.role, owner.id, at))
	}
	return mirrors
}

func statusChangedData(previous entities.Status, t entities.Traject, actor entities.Actor, note string) map[string]any {
	return map[string]any{
		"traject_id":             t.TrajectID,
		"from_status":            string(previous),
		"to_status":              string(t.Status),
		"actor_id":               actor.ID,
		"actor_role":             string(actor.Role),
		"note":                   note,
		"coach_id":               t.CoachID,
		"quality_coordinator_id": t.QualityCoordinatorID,
		"assessor_id":            t.AssessorID,
	}
}
