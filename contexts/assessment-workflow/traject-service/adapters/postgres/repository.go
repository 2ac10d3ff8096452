package postgresadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
	"traject/internal/platform/db"
	"traject/internal/shared/outbox"

	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	policy db.TxPolicy
	logger *slog.Logger
}

func NewRepository(conn *gorm.DB, policy db.TxPolicy, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     conn,
		policy: policy,
		logger: logger,
	}
}

// RunInTransaction runs fn in a serializable transaction. Postgres aborts
// one side of a conflicting pair with SQLSTATE 40001; the whole closure is
// then replayed until the policy gives up.
func (r *Repository) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.Transaction) error) error {
	attempt := 0
	err := db.RunSerializable(ctx, r.db, r.policy, func(gtx *gorm.DB) error {
		attempt++
		now, err := db.TransactionTime(gtx)
		if err != nil {
			return err
		}
		return fn(gtx.Statement.Context, &transaction{db: gtx, now: now})
	})
	if attempt > 1 {
		r.logger.Debug("traject transaction replayed",
			"event", "traject_tx_replayed",
			"module", "assessment-workflow/traject-service",
			"layer", "adapter",
			"attempts", attempt,
		)
	}
	if errors.Is(err, db.ErrRetriesExhausted) {
		r.logger.Warn("traject transaction aborted after retries",
			"event", "traject_tx_aborted",
			"module", "assessment-workflow/traject-service",
			"layer", "adapter",
			"attempts", attempt,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrTransactionAborted, err)
	}
	return err
}

func (r *Repository) GetTraject(ctx context.Context, trajectID string) (entities.Traject, error) {
	var row trajectModel
	err := r.db.WithContext(ctx).
		Where("traject_id = ?", strings.TrimSpace(trajectID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Traject{}, fmt.Errorf("%w: traject %s", domainerrors.ErrNotFound, trajectID)
		}
		return entities.Traject{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOwnerCases(ctx context.Context, filter ports.OwnerCaseFilter) ([]entities.OwnerIndexEntry, error) {
	query := r.db.WithContext(ctx).
		Model(&ownerIndexModel{}).
		Where("owner_role = ? AND owner_id = ?", string(filter.OwnerRole), strings.TrimSpace(filter.OwnerID))
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []ownerIndexModel
	if err := query.Order("updated_at DESC, traject_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.OwnerIndexEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// foldedStatusSQL folds the stored status the way entities.NormalizeStatus
// folds labels: trimmed, lower-cased, with runs of blanks, '_' and '-'
// collapsed to one space.
const foldedStatusSQL = `LOWER(REGEXP_REPLACE(TRIM(COALESCE(status, '')), '[[:space:]_-]+', ' ', 'g'))`

// ListExpired skips records stored under any spelling of Archived so legacy
// labels cannot occupy the sweep batch forever.
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&trajectModel{}).
		Where("expires_at IS NOT NULL AND expires_at < ?", now.UTC()).
		Where(foldedStatusSQL+" NOT IN ?", entities.StatusSpellings(entities.StatusArchived)).
		Order("expires_at ASC").
		Limit(limit).
		Pluck("traject_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PutUser upserts a user profile. Used by operator tooling and fixtures.
func (r *Repository) PutUser(ctx context.Context, user entities.User) error {
	row := userModelFromEntity(user)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(outbox.StatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":  string(outbox.StatusSent),
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: outbox row %s", domainerrors.ErrNotFound, outboxID)
	}
	return nil
}
