package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/application/commands"
	"traject/contexts/assessment-workflow/traject-service/application/queries"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/domain/services"
	httptransport "traject/contexts/assessment-workflow/traject-service/transport/http"
)

type Handler struct {
	ProvisionTraject commands.ProvisionTrajectUseCase
	AdvanceStatus    commands.AdvanceStatusUseCase
	GetTraject       queries.GetTrajectUseCase
	ListOwnerCases   queries.ListOwnerCasesUseCase
	Logger           *slog.Logger
}

// ResolveActor canonicalizes the identity set by the auth middleware. An
// unrecognized role is kept verbatim so the transition policy denies it.
func ResolveActor(userID string, rawRole string) entities.Actor {
	role, ok := entities.ParseRole(rawRole)
	if !ok {
		role = entities.Role(strings.TrimSpace(rawRole))
	}
	return entities.Actor{ID: strings.TrimSpace(userID), Role: role}
}

// ProvisionTrajectHandler godoc
// @Summary Provision a traject
// @Description Creates a candidate's traject at Collecting, optionally linked to a coach.
// @Tags trajects
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param X-User-Role header string true "Acting user role"
// @Param request body httptransport.ProvisionTrajectRequest true "Provision request"
// @Success 201 {object} httptransport.TrajectDTO
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /trajects [post]
func (h Handler) ProvisionTrajectHandler(
	ctx context.Context,
	actor entities.Actor,
	req httptransport.ProvisionTrajectRequest,
) (httptransport.TrajectDTO, error) {
	if err := req.Validate(); err != nil {
		return httptransport.TrajectDTO{}, fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
	}
	expiresAt, err := parseOptionalTime(req.ExpiresAt)
	if err != nil {
		return httptransport.TrajectDTO{}, fmt.Errorf("%w: expiresAt must be RFC 3339", domainerrors.ErrValidation)
	}
	view, err := h.ProvisionTraject.Execute(ctx, commands.ProvisionTrajectCommand{
		CandidateID: req.CandidateID,
		CoachID:     req.CoachID,
		ExpiresAt:   expiresAt,
		Actor:       actor,
	})
	if err != nil {
		return httptransport.TrajectDTO{}, err
	}
	return MapTraject(view), nil
}

// GetTrajectHandler godoc
// @Summary Get a traject
// @Tags trajects
// @Produce json
// @Param traject_id path string true "Traject id"
// @Success 200 {object} httptransport.TrajectDTO
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /trajects/{traject_id} [get]
func (h Handler) GetTrajectHandler(ctx context.Context, trajectID string) (httptransport.TrajectDTO, error) {
	view, err := h.GetTraject.Execute(ctx, trajectID)
	if err != nil {
		return httptransport.TrajectDTO{}, err
	}
	return MapTraject(view), nil
}

// AdvanceStatusHandler godoc
// @Summary Advance a traject status
// @Description Applies one role-gated transition atomically and returns the committed traject.
// @Tags trajects
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param X-User-Role header string true "Acting user role"
// @Param traject_id path string true "Traject id"
// @Param request body httptransport.AdvanceStatusRequest true "Transition request"
// @Success 200 {object} httptransport.TrajectDTO
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /trajects/{traject_id}/status [post]
func (h Handler) AdvanceStatusHandler(
	ctx context.Context,
	actor entities.Actor,
	trajectID string,
	req httptransport.AdvanceStatusRequest,
) (httptransport.TrajectDTO, error) {
	if err := req.Validate(); err != nil {
		return httptransport.TrajectDTO{}, fmt.Errorf("%w: %v", domainerrors.ErrValidation, err)
	}
	view, err := h.AdvanceStatus.Execute(ctx, commands.AdvanceStatusCommand{
		TrajectID:           trajectID,
		TargetStatus:        req.Status,
		Actor:               actor,
		Note:                req.Note,
		NominatedAssessorID: req.NominatedAssessorID,
	})
	if err != nil {
		return httptransport.TrajectDTO{}, err
	}
	return MapTraject(view), nil
}

// ListOwnerCasesHandler godoc
// @Summary List an owner's cases
// @Tags owners
// @Produce json
// @Param owner_role path string true "Owner role"
// @Param owner_id path string true "Owner id"
// @Param status query string false "Status filter"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} httptransport.ListOwnerCasesResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /owners/{owner_role}/{owner_id}/trajects [get]
func (h Handler) ListOwnerCasesHandler(
	ctx context.Context,
	ownerRole string,
	ownerID string,
	status string,
	limit int,
) (httptransport.ListOwnerCasesResponse, error) {
	items, err := h.ListOwnerCases.Execute(ctx, queries.ListOwnerCasesQuery{
		OwnerRole: ownerRole,
		OwnerID:   ownerID,
		Status:    status,
		Limit:     limit,
	})
	if err != nil {
		return httptransport.ListOwnerCasesResponse{}, err
	}
	result := make([]httptransport.OwnerCaseDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.OwnerCaseDTO{
			TrajectID:       item.TrajectID,
			OwnerRole:       string(item.OwnerRole),
			OwnerID:         item.OwnerID,
			Status:          string(item.Status),
			StatusUpdatedAt: item.StatusUpdatedAt,
			StatusHistory:   mapHistory(item.StatusHistory),
		})
	}
	return httptransport.ListOwnerCasesResponse{Items: result}, nil
}

func MapTraject(view application.TrajectView) httptransport.TrajectDTO {
	return httptransport.TrajectDTO{
		ID:                   view.ID,
		Status:               string(view.Status),
		StatusUpdatedAt:      view.StatusUpdatedAt,
		StatusUpdatedBy:      view.StatusUpdatedBy,
		StatusUpdatedByRole:  view.StatusUpdatedByRole,
		StatusHistory:        mapHistory(view.StatusHistory),
		PreviousStatus:       view.PreviousStatus,
		NextStatus:           view.NextStatus,
		CoachID:              view.CoachID,
		QualityCoordinatorID: view.QualityCoordinatorID,
		AssessorID:           view.AssessorID,
		ExpiresAt:            view.ExpiresAt,
	}
}

func mapHistory(records []services.HistoryRecord) []httptransport.HistoryEntryDTO {
	items := make([]httptransport.HistoryEntryDTO, 0, len(records))
	for _, record := range records {
		items = append(items, httptransport.HistoryEntryDTO{
			Status:          string(record.Status),
			ChangedAt:       record.ChangedAt,
			ChangedAtMillis: record.ChangedAtMillis,
			ActorID:         record.ActorID,
			ActorRole:       record.ActorRole,
			Note:            record.Note,
		})
	}
	return items
}

func parseOptionalTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
