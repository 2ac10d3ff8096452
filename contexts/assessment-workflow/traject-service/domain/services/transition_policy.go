package services

import (
	"strings"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
)

// CanTransition decides whether role may move a traject from one status to
// another. The target must always be a known stage distinct from the current
// one. Admins may then make any change, even out of a stored status that no
// longer maps onto the pipeline. Everyone else may only advance or step back a
// single stage, and only out of a stage their role owns.
func CanTransition(from entities.Status, to entities.Status, role entities.Role) bool {
	if !role.Valid() {
		return false
	}
	toStatus, ok := entities.ResolveStatus(string(to))
	if !ok {
		return false
	}

	if strings.TrimSpace(string(from)) == "" {
		from = entities.InitialStatus
	}
	fromStatus, fromKnown := entities.ResolveStatus(string(from))
	if fromKnown && fromStatus == toStatus {
		return false
	}
	if role == entities.RoleAdmin {
		return true
	}
	if !fromKnown {
		return false
	}

	distance := fromStatus.Order() - toStatus.Order()
	if distance != 1 && distance != -1 {
		return false
	}

	owner, ok := fromStatus.OwnerRole()
	return ok && owner == role
}
