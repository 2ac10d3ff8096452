package postgresadapter

import (
	"strings"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/contexts/assessment-workflow/traject-service/domain/services"

	"gorm.io/datatypes"
)

type trajectModel struct {
	TrajectID            string         `gorm:"column:traject_id;primaryKey"`
	Status               string         `gorm:"column:status"`
	StatusUpdatedAt      *time.Time     `gorm:"column:status_updated_at"`
	StatusUpdatedBy      *string        `gorm:"column:status_updated_by"`
	StatusUpdatedByRole  string         `gorm:"column:status_updated_by_role"`
	StatusHistory        datatypes.JSON `gorm:"column:status_history;type:jsonb"`
	CoachID              *string        `gorm:"column:coach_id"`
	QualityCoordinatorID *string        `gorm:"column:quality_coordinator_id"`
	AssessorID           *string        `gorm:"column:assessor_id"`
	ExpiresAt            *time.Time     `gorm:"column:expires_at"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
}

func (trajectModel) TableName() string {
	return "trajects"
}

func trajectModelFromEntity(item entities.Traject) (trajectModel, error) {
	history, err := services.EncodeHistory(item.History)
	if err != nil {
		return trajectModel{}, err
	}
	return trajectModel{
		TrajectID:            strings.TrimSpace(item.TrajectID),
		Status:               string(item.Status),
		StatusUpdatedAt:      normalizeOptionalTime(item.StatusUpdatedAt),
		StatusUpdatedBy:      nullableString(item.StatusUpdatedBy),
		StatusUpdatedByRole:  string(item.StatusUpdatedByRole),
		StatusHistory:        datatypes.JSON(history),
		CoachID:              nullableString(item.CoachID),
		QualityCoordinatorID: nullableString(item.QualityCoordinatorID),
		AssessorID:           nullableString(item.AssessorID),
		ExpiresAt:            normalizeOptionalTime(item.ExpiresAt),
		CreatedAt:            item.CreatedAt.UTC(),
	}, nil
}

// updates leaves created_at untouched; it is set on first creation only.
func (m trajectModel) updates() map[string]any {
	return map[string]any{
		"status":                 m.Status,
		"status_updated_at":      m.StatusUpdatedAt,
		"status_updated_by":      m.StatusUpdatedBy,
		"status_updated_by_role": m.StatusUpdatedByRole,
		"status_history":         m.StatusHistory,
		"coach_id":               m.CoachID,
		"quality_coordinator_id": m.QualityCoordinatorID,
		"assessor_id":            m.AssessorID,
		"expires_at":             m.ExpiresAt,
	}
}

func (m trajectModel) toEntity() entities.Traject {
	role, ok := entities.ParseRole(m.StatusUpdatedByRole)
	if !ok {
		role = entities.Role(m.StatusUpdatedByRole)
	}
	return entities.Traject{
		TrajectID:            m.TrajectID,
		Status:               entities.Status(m.Status),
		StatusUpdatedAt:      normalizeOptionalTime(m.StatusUpdatedAt),
		StatusUpdatedBy:      valueOrEmpty(m.StatusUpdatedBy),
		StatusUpdatedByRole:  role,
		History:              services.DecodeHistory(m.StatusHistory),
		CoachID:              valueOrEmpty(m.CoachID),
		QualityCoordinatorID: valueOrEmpty(m.QualityCoordinatorID),
		AssessorID:           valueOrEmpty(m.AssessorID),
		ExpiresAt:            normalizeOptionalTime(m.ExpiresAt),
		CreatedAt:            m.CreatedAt.UTC(),
	}
}

type ownerIndexModel struct {
	OwnerRole       string         `gorm:"column:owner_role;primaryKey"`
	OwnerID         string         `gorm:"column:owner_id;primaryKey"`
	TrajectID       string         `gorm:"column:traject_id;primaryKey"`
	Status          string         `gorm:"column:status"`
	StatusHistory   datatypes.JSON `gorm:"column:status_history;type:jsonb"`
	StatusUpdatedAt *time.Time     `gorm:"column:status_updated_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at"`
}

func (ownerIndexModel) TableName() string {
	return "traject_owner_index"
}

func ownerIndexModelFromEntity(entry entities.OwnerIndexEntry) (ownerIndexModel, error) {
	history, err := services.EncodeHistory(entry.History)
	if err != nil {
		return ownerIndexModel{}, err
	}
	return ownerIndexModel{
		OwnerRole:       string(entry.OwnerRole),
		OwnerID:         strings.TrimSpace(entry.OwnerID),
		TrajectID:       strings.TrimSpace(entry.TrajectID),
		Status:          string(entry.Status),
		StatusHistory:   datatypes.JSON(history),
		StatusUpdatedAt: normalizeOptionalTime(entry.StatusUpdatedAt),
		UpdatedAt:       entry.UpdatedAt.UTC(),
	}, nil
}

func (m ownerIndexModel) toEntity() entities.OwnerIndexEntry {
	return entities.OwnerIndexEntry{
		OwnerRole:       entities.Role(m.OwnerRole),
		OwnerID:         m.OwnerID,
		TrajectID:       m.TrajectID,
		Status:          entities.Status(m.Status),
		History:         services.DecodeHistory(m.StatusHistory),
		StatusUpdatedAt: normalizeOptionalTime(m.StatusUpdatedAt),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type userModel struct {
	UserID      string `gorm:"column:user_id;primaryKey"`
	Role        string `gorm:"column:role"`
	DisplayName string `gorm:"column:display_name"`
	Email       string `gorm:"column:email"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromEntity(user entities.User) userModel {
	return userModel{
		UserID:      strings.TrimSpace(user.UserID),
		Role:        string(user.Role),
		DisplayName: strings.TrimSpace(user.DisplayName),
		Email:       strings.TrimSpace(user.Email),
	}
}

func (m userModel) toEntity() entities.User {
	role, ok := entities.ParseRole(m.Role)
	if !ok {
		role = entities.Role(m.Role)
	}
	return entities.User{
		UserID:      m.UserID,
		Role:        role,
		DisplayName: m.DisplayName,
		Email:       m.Email,
	}
}

type userLinkModel struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	TrajectID string    `gorm:"column:traject_id;primaryKey"`
	LinkRole  string    `gorm:"column:link_role;primaryKey"`
	LinkedAt  time.Time `gorm:"column:linked_at"`
}

func (userLinkModel) TableName() string {
	return "traject_user_links"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "traject_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func nullableString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func valueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
