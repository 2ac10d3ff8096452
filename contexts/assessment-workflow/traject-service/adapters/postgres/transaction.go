package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
	"traject/internal/platform/db"
	"traject/internal/shared/outbox"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transaction is the ports.Transaction view over one serializable gorm tx.
type transaction struct {
	db        *gorm.DB
	now       time.Time
	committed bool
}

func (t *transaction) Now() time.Time {
	return t.now
}

func (t *transaction) GetTraject(ctx context.Context, trajectID string) (entities.Traject, bool, error) {
	var row trajectModel
	err := t.db.WithContext(ctx).
		Where("traject_id = ?", strings.TrimSpace(trajectID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Traject{}, false, nil
		}
		return entities.Traject{}, false, err
	}
	return row.toEntity(), true, nil
}

func (t *transaction) GetUser(ctx context.Context, userID string) (entities.User, bool, error) {
	var row userModel
	err := t.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, false, nil
		}
		return entities.User{}, false, err
	}
	return row.toEntity(), true, nil
}

// FindUserByRole matches every stored spelling of role, since legacy profiles
// carry localized or aliased role strings.
func (t *transaction) FindUserByRole(ctx context.Context, role entities.Role) (entities.User, bool, error) {
	var row userModel
	err := t.db.WithContext(ctx).
		Where("LOWER(TRIM(role)) IN ?", entities.RoleSpellings(role)).
		Order("user_id ASC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, false, nil
		}
		return entities.User{}, false, err
	}
	return row.toEntity(), true, nil
}

func (t *transaction) Commit(ctx context.Context, writes ports.WriteSet) error {
	if t.committed {
		return errors.New("traject transaction already committed")
	}
	tx := t.db.WithContext(ctx)

	row, err := trajectModelFromEntity(writes.Traject)
	if err != nil {
		return err
	}
	if writes.Create {
		if err := tx.Create(&row).Error; err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: traject %s already exists", domainerrors.ErrConflict, row.TrajectID)
			}
			return err
		}
	} else {
		result := tx.Model(&trajectModel{}).
			Where("traject_id = ?", row.TrajectID).
			Updates(row.updates())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: traject %s", domainerrors.ErrNotFound, row.TrajectID)
		}
	}

	for _, link := range writes.UserLinks {
		linkRow := userLinkModel{
			UserID:    strings.TrimSpace(link.UserID),
			TrajectID: strings.TrimSpace(link.TrajectID),
			LinkRole:  string(link.LinkRole),
			LinkedAt:  link.LinkedAt.UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "traject_id"}, {Name: "link_role"}},
			DoUpdates: clause.AssignmentColumns([]string{"linked_at"}),
		}).Create(&linkRow).Error; err != nil {
			return err
		}
	}

	for _, entry := range writes.OwnerIndex {
		indexRow, err := ownerIndexModelFromEntity(entry)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_role"}, {Name: "owner_id"}, {Name: "traject_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "status_history", "status_updated_at", "updated_at"}),
		}).Create(&indexRow).Error; err != nil {
			return err
		}
	}

	for _, envelope := range writes.Outbox {
		if err := insertOutboxEnvelopeTx(tx, envelope); err != nil {
			return err
		}
	}
	t.committed = true
	return nil
}

func insertOutboxEnvelopeTx(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       string(outbox.StatusPending),
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return tx.Create(&row).Error
}
