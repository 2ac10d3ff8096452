package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/domain/services"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type AdvanceStatusCommand struct {
	TrajectID           string
	TargetStatus        string
	Actor               entities.Actor
	Note                string
	NominatedAssessorID string
}

type AdvanceStatusUseCase struct {
	Transactions ports.TransactionRunner
	Reader       ports.TrajectReader
	IDGenerator  ports.IDGenerator
	HistoryCap   int
	Logger       *slog.Logger
}

// Execute runs one status transition as a single store transaction:
// 1) read the traject and resolve current/target status
// 2) reject unknown targets, self-transitions and unauthorized roles
// 3) resolve the quality coordinator or nominated assessor (reads only)
// 4) build history, owner-index mirrors, back-references and outbox event
// 5) commit the write set once.
// The closure is replayed from scratch when the store retries on conflict.
func (uc AdvanceStatusUseCase) Execute(ctx context.Context, cmd AdvanceStatusCommand) (application.TrajectView, error) {
	logger := application.ResolveLogger(uc.Logger)
	trajectID := strings.TrimSpace(cmd.TrajectID)
	if trajectID == "" {
		return application.TrajectView{}, fmt.Errorf("%w: traject id is required", domainerrors.ErrValidation)
	}

	var committed entities.Traject
	err := uc.Transactions.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		current, exists, err := tx.GetTraject(ctx, trajectID)
		if err != nil {
			return err
		}
		currentStatus := entities.InitialStatus
		if exists {
			currentStatus = current.CurrentStatus()
		}

		target, ok := entities.ResolveStatus(cmd.TargetStatus)
		if !ok {
			return fmt.Errorf("%w: unknown target status %q", domainerrors.ErrValidation, cmd.TargetStatus)
		}
		if target == currentStatus {
			return fmt.Errorf("%w: traject %s is already in status %s", domainerrors.ErrConflict, trajectID, target)
		}
		if !services.CanTransition(currentStatus, target, cmd.Actor.Role) {
			return fmt.Errorf("%w: role %q may not move traject from %s to %s",
				domainerrors.ErrForbidden, cmd.Actor.Role, currentStatus, target)
		}

		coordinator, err := uc.resolveQualityCoordinator(ctx, tx, cmd.Actor, target)
		if err != nil {
			return err
		}
		assessor, err := uc.resolveAssessor(ctx, tx, cmd.Actor, target, cmd.NominatedAssessorID)
		if err != nil {
			return err
		}

		now := tx.Now().UTC()
		updated := current
		if !exists {
			updated = entities.Traject{TrajectID: trajectID, CreatedAt: now}
		}
		entry := entities.NewHistoryEntry(target, entities.NewNativeTimestamp(now), cmd.Actor.ID, cmd.Actor.Role, cmd.Note)
		updated.Status = target
		updated.StatusUpdatedAt = &now
		updated.StatusUpdatedBy = strings.TrimSpace(cmd.Actor.ID)
		updated.StatusUpdatedByRole = cmd.Actor.Role
		updated.History = entities.AppendHistory(current.History, entry, uc.historyCap())
		if updated.CoachID == "" && cmd.Actor.Role == entities.RoleCoach {
			updated.CoachID = updated.StatusUpdatedBy
		}

		writes := ports.WriteSet{Create: !exists}
		if coordinator != nil {
			updated.QualityCoordinatorID = coordinator.UserID
			writes.UserLinks = append(writes.UserLinks, entities.UserLink{
				UserID:    coordinator.UserID,
				TrajectID: trajectID,
				LinkRole:  entities.RoleQualityCoordinator,
				LinkedAt:  now,
			})
		}
		if assessor != nil {
			updated.AssessorID = assessor.UserID
			writes.UserLinks = append(writes.UserLinks, entities.UserLink{
				UserID:    assessor.UserID,
				TrajectID: trajectID,
				LinkRole:  entities.RoleAssessor,
				LinkedAt:  now,
			})
		}
		writes.Traject = updated
		writes.OwnerIndex = ownerMirrors(updated, now)

		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newTrajectEnvelope(eventID, EventTypeStatusChanged, trajectID, now,
			statusChangedData(currentStatus, updated, cmd.Actor, entry.Note))
		if err != nil {
			return err
		}
		writes.Outbox = append(writes.Outbox, envelope)

		if err := tx.Commit(ctx, writes); err != nil {
			return err
		}
		committed = updated
		return nil
	})
	if err != nil {
		if domainerrors.IsBusiness(err) {
			logger.Warn("traject status change rejected",
				"event", "traject_status_change_rejected",
				"module", "assessment-workflow/traject-service",
				"layer", "application",
				"traject_id", trajectID,
				"target_status", cmd.TargetStatus,
				"actor_id", cmd.Actor.ID,
				"actor_role", string(cmd.Actor.Role),
				"error", err.Error(),
			)
		} else {
			logger.Error("traject status change failed",
				"event", "traject_status_change_failed",
				"module", "assessment-workflow/traject-service",
				"layer", "application",
				"traject_id", trajectID,
				"target_status", cmd.TargetStatus,
				"error", err.Error(),
			)
		}
		return application.TrajectView{}, err
	}

	logger.Info("traject status changed",
		"event", "traject_status_changed",
		"module", "assessment-workflow/traject-service",
		"layer", "application",
		"traject_id", trajectID,
		"status", string(committed.Status),
		"actor_id", cmd.Actor.ID,
		"actor_role", string(cmd.Actor.Role),
	)

	return uc.reload(ctx, committed)
}

func (uc AdvanceStatusUseCase) resolveQualityCoordinator(
	ctx context.Context,
	tx ports.Transaction,
	actor entities.Actor,
	target entities.Status,
) (*entities.User, error) {
	reviewOwner, _ := entities.StatusReview.OwnerRole()
	if actor.Role != reviewOwner || target != entities.StatusQuality {
		return nil, nil
	}
	user, found, err := tx.FindUserByRole(ctx, entities.RoleQualityCoordinator)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no quality coordinator is available", domainerrors.ErrNotFound)
	}
	return &user, nil
}

func (uc AdvanceStatusUseCase) resolveAssessor(
	ctx context.Context,
	tx ports.Transaction,
	actor entities.Actor,
	target entities.Status,
	nominatedID string,
) (*entities.User, error) {
	qualityOwner, _ := entities.StatusQuality.OwnerRole()
	if actor.Role != qualityOwner || target != entities.StatusAssessment {
		return nil, nil
	}
	nominatedID = strings.TrimSpace(nominatedID)
	if nominatedID == "" {
		return nil, fmt.Errorf("%w: an assessor must be nominated", domainerrors.ErrValidation)
	}
	user, found, err := tx.GetUser(ctx, nominatedID)
	if err != nil {
		return nil, err
	}
	if !found || user.Role != entities.RoleAssessor {
		return nil, fmt.Errorf("%w: user %s is not an assessor", domainerrors.ErrNotFound, nominatedID)
	}
	return &user, nil
}

func (uc AdvanceStatusUseCase) historyCap() int {
	if uc.HistoryCap <= 0 {
		return entities.DefaultHistoryCap
	}
	return uc.HistoryCap
}

// reload re-reads the committed traject. A failing read after a successful
// commit falls back to the committed state rather than reporting an error.
func (uc AdvanceStatusUseCase) reload(ctx context.Context, committed entities.Traject) (application.TrajectView, error) {
	if uc.Reader == nil {
		return application.NewTrajectView(committed), nil
	}
	fresh, err := uc.Reader.GetTraject(ctx, committed.TrajectID)
	if err != nil {
		application.ResolveLogger(uc.Logger).Warn("traject reload after commit failed",
			"event", "traject_reload_failed",
			"module", "assessment-workflow/traject-service",
			"layer", "application",
			"traject_id", committed.TrajectID,
			"error", err.Error(),
		)
		return application.NewTrajectView(committed), nil
	}
	return application.NewTrajectView(fresh), nil
}
