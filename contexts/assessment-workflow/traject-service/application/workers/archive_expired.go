package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "traject/contexts/assessment-workflow/traject-service/application"
	"traject/contexts/assessment-workflow/traject-service/application/commands"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

// ArchiveExpired sweeps trajects that crossed expires_at into Archived.
type ArchiveExpired struct {
	Trajects  ports.TrajectReader
	Archive   commands.ForceArchiveUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce archives one batch. Records that were archived or extended by a
// concurrent transition are skipped; store failures stop the sweep.
func (j ArchiveExpired) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	candidates, err := j.Trajects.ListExpired(ctx, now, limit)
	if err != nil {
		logger.Error("traject expiry sweep failed",
			"event", "traject_archive_sweep_failed",
			"module", "assessment-workflow/traject-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	archived := 0
	for _, trajectID := range candidates {
		err := j.Archive.Execute(ctx, commands.ForceArchiveCommand{TrajectID: trajectID})
		switch {
		case err == nil:
			archived++
		case errors.Is(err, domainerrors.ErrConflict), errors.Is(err, domainerrors.ErrNotFound):
			logger.Debug("traject skipped by expiry sweep",
				"event", "traject_archive_skipped",
				"module", "assessment-workflow/traject-service",
				"layer", "worker",
				"traject_id", trajectID,
				"reason", err.Error(),
			)
		default:
			logger.Error("traject force archive failed",
				"event", "traject_archive_failed",
				"module", "assessment-workflow/traject-service",
				"layer", "worker",
				"traject_id", trajectID,
				"error", err.Error(),
			)
			return archived, err
		}
	}
	if archived > 0 {
		logger.Info("traject expiry sweep completed",
			"event", "traject_archive_sweep_completed",
			"module", "assessment-workflow/traject-service",
			"layer", "worker",
			"archived_count", archived,
		)
	}
	return archived, nil
}
