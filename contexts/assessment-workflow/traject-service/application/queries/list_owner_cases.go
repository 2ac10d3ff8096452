package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type ListOwnerCasesQuery struct {
	OwnerRole string
	OwnerID   string
	Status    string
	Limit     int
}

// ListOwnerCasesUseCase answers "list my cases" from the owner index only.
type ListOwnerCasesUseCase struct {
	Reader ports.TrajectReader
	Logger *slog.Logger
}

func (uc ListOwnerCasesUseCase) Execute(ctx context.Context, query ListOwnerCasesQuery) ([]application.OwnerCaseView, error) {
	logger := application.ResolveLogger(uc.Logger)
	role, ok := entities.ParseRole(query.OwnerRole)
	if !ok {
		return nil, fmt.Errorf("%w: unknown owner role %q", domainerrors.ErrValidation, query.OwnerRole)
	}
	switch role {
	case entities.RoleCoach, entities.RoleQualityCoordinator, entities.RoleAssessor:
	default:
		return nil, fmt.Errorf("%w: role %s does not own cases", domainerrors.ErrValidation, role)
	}
	filter := ports.OwnerCaseFilter{
		OwnerRole: role,
		OwnerID:   strings.TrimSpace(query.OwnerID),
		Limit:     query.Limit,
	}
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domainerrors.ErrValidation)
	}
	if strings.TrimSpace(query.Status) != "" {
		status, ok := entities.ResolveStatus(query.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", domainerrors.ErrValidation, query.Status)
		}
		filter.Status = status
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	entries, err := uc.Reader.ListOwnerCases(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]application.OwnerCaseView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, application.NewOwnerCaseView(entry))
	}
	logger.Info("owner cases listed",
		"event", "traject_owner_cases_listed",
		"module", "assessment-workflow/traject-service",
		"layer", "application",
		"owner_role", string(role),
		"owner_id", filter.OwnerID,
		"count", len(items),
	)
	return items, nil
}
