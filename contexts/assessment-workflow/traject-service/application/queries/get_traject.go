package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "traject/contexts/assessment-workflow/traject-service/application"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type GetTrajectUseCase struct {
	Reader ports.TrajectReader
	Logger *slog.Logger
}

func (uc GetTrajectUseCase) Execute(ctx context.Context, trajectID string) (application.TrajectView, error) {
	trajectID = strings.TrimSpace(trajectID)
	if trajectID == "" {
		return application.TrajectView{}, fmt.Errorf("%w: traject id is required", domainerrors.ErrValidation)
	}
	traject, err := uc.Reader.GetTraject(ctx, trajectID)
	if err != nil {
		return application.TrajectView{}, err
	}
	return application.NewTrajectView(traject), nil
}
