package commands

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

// ExpiredNote is the history note written by scheduled archival.
const ExpiredNote = "expired"

type ForceArchiveCommand struct {
	TrajectID string
}

// ForceArchiveUseCase is the scheduled path into Archived. It runs the same
// transactional write protocol as AdvanceStatusUseCase but acts as the system
// actor and skips the adjacency and stage-owner checks. Expiry is re-checked
// against the transaction clock so a record extended since it was selected
// is left alone.
type ForceArchiveUseCase struct {
	Transactions ports.TransactionRunner
	IDGenerator  ports.IDGenerator
	HistoryCap   int
	Logger       *slog.Logger
}

func (uc ForceArchiveUseCase) Execute(ctx context.Context, cmd ForceArchiveCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	trajectID := strings.TrimSpace(cmd.TrajectID)
	if trajectID == "" {
		return fmt.Errorf("%w: traject id is required", domainerrors.ErrValidation)
	}
	actor := entities.SystemActor()

	err := uc.Transactions.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		current, exists, err := tx.GetTraject(ctx, trajectID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: traject %s not found", domainerrors.ErrNotFound, trajectID)
		}
		previous := current.CurrentStatus()
		if previous == entities.StatusArchived {
			return fmt.Errorf("%w: traject %s is already archived", domainerrors.ErrConflict, trajectID)
		}
		now := tx.Now().UTC()
		if !current.Expired(now) {
			return fmt.Errorf("%w: traject %s has not expired", domainerrors.ErrConflict, trajectID)
		}

		limit := uc.HistoryCap
		if limit <= 0 {
			limit = entities.DefaultHistoryCap
		}
		entry := entities.NewHistoryEntry(entities.StatusArchived, entities.NewNativeTimestamp(now), actor.ID, actor.Role, ExpiredNote)
		updated := current
		updated.Status = entities.StatusArchived
		updated.StatusUpdatedAt = &now
		updated.StatusUpdatedBy = ""
		updated.StatusUpdatedByRole = actor.Role
		updated.History = entities.AppendHistory(current.History, entry, limit)

		eventID, err := uc.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		envelope, err := newTrajectEnvelope(eventID, EventTypeStatusChanged, trajectID, now,
			statusChangedData(previous, updated, actor, ExpiredNote))
		if err != nil {
			return err
		}
		return tx.Commit(ctx, ports.WriteSet{
			Traject:    updated,
			OwnerIndex: ownerMirrors(updated, now),
			Outbox:     []ports.EventEnvelope{envelope},
		})
	})
	if err != nil {
		return err
	}

	logger.Info("expired traject archived",
		"event", "traject_force_archived",
		"module", "assessment-workflow/traject-service",
		"layer", "application",
		"traject_id", trajectID,
	)
	return nil
}
