package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type ProvisionTrajectCommand struct {
	CandidateID string
	CoachID     string
	ExpiresAt   *time.Time
	Actor       entities.Actor
}

type ProvisionTrajectUseCase struct {
	Transactions ports.TransactionRunner
	Reader       ports.TrajectReader
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

func (uc ProvisionTrajectUseCase) Execute(ctx context.Context, cmd ProvisionTrajectCommand) (application.TrajectView, error) {
	logger := application.ResolveLogger(uc.Logger)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	coachID := strings.TrimSpace(cmd.CoachID)
	if candidateID == "" {
		return application.TrajectView{}, fmt.Errorf("%w: candidate id is required", domainerrors.ErrValidation)
	}
	if cmd.Actor.Role != entities.RoleAdmin && cmd.Actor.Role != entities.RoleSystem {
		return application.TrajectView{}, fmt.Errorf("%w: only administrators provision trajects", domainerrors.ErrForbidden)
	}

	var committed entities.Traject
	err := uc.Transactions.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		_, exists, err := tx.GetTraject(ctx, candidateID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: traject %s already exists", domainerrors.ErrConflict, candidateID)
		}
		if coachID != "" {
			coach, found, err := tx.GetUser(ctx, coachID)
			if err != nil {
				return err
			}
			if !found || coach.Role != entities.RoleCoach {
				return fmt.Errorf("%w: user %s is not a coach", domainerrors.ErrNotFound, coachID)
			}
		}

		now := tx.Now().UTC()
		traject := entities.Traject{
			TrajectID:           candidateID,
			Status:              entities.InitialStatus,
			StatusUpdatedAt:     &now,
			StatusUpdatedBy:     strings.TrimSpace(cmd.Actor.ID),
			StatusUpdatedByRole: cmd.Actor.Role,
			CoachID:             coachID,
			CreatedAt:           now,
		}
		if cmd.ExpiresAt != nil {
			expiresAt := cmd.ExpiresAt.UTC()
			traject.ExpiresAt = &expiresAt
		}
		traject.History = []entities.HistoryEntry{
			entities.NewHistoryEntry(entities.InitialStatus, entities.NewNativeTimestamp(now), cmd.Actor.ID, cmd.Actor.Role, ""),
		}

		writes := ports.WriteSet{Traject: traject, Create: true}
		if coachID != "" {
			writes.UserLinks = append(writes.UserLinks, entities.UserLink{
				UserID:    coachID,
				TrajectID: candidateID,
				LinkRole:  entities.RoleCoach,
				LinkedAt:  now,
			})
		}
		writes.OwnerIndex = ownerMirrors(traject, now)

		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newTrajectEnvelope(eventID, EventTypeProvisioned, candidateID, now, map[string]any{
			"traject_id": candidateID,
			"status":     string(traject.Status),
			"coach_id":   coachID,
			"actor_id":   cmd.Actor.ID,
			"actor_role": string(cmd.Actor.Role),
		})
		if err != nil {
			return err
		}
		writes.Outbox = append(writes.Outbox, envelope)

		if err := tx.Commit(ctx, writes); err != nil {
			return err
		}
		committed = traject
		return nil
	})
	if err != nil {
		logger.Warn("traject provisioning failed",
			"event", "traject_provision_failed",
			"module", "assessment-workflow/traject-service",
			"layer", "application",
			"traject_id", candidateID,
			"error", err.Error(),
		)
		return application.TrajectView{}, err
	}

	logger.Info("traject provisioned",
		"event", "traject_provisioned",
		"module", "assessment-workflow/traject-service",
		"layer", "application",
		"traject_id", candidateID,
		"coach_id", coachID,
	)
	if uc.Reader != nil {
		if fresh, err := uc.Reader.GetTraject(ctx, candidateID); err == nil {
			return application.NewTrajectView(fresh), nil
		}
	}
	return application.NewTrajectView(committed), nil
}
