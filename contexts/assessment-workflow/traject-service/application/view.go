package application

import (
	"strings"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/contexts/assessment-workflow/traject-service/domain/services"
)

// TrajectView is the serialized, client-facing state of a traject.
type TrajectView struct {
	ID                   string
	Status               entities.Status
	StatusUpdatedAt      *string
	StatusUpdatedBy      *string
	StatusUpdatedByRole  *string
	StatusHistory        []services.HistoryRecord
	PreviousStatus       *string
	NextStatus           *string
	CoachID              *string
	QualityCoordinatorID *string
	AssessorID           *string
	ExpiresAt            *string
}

// NewTrajectView serializes t. Neighbor statuses are derived from the
// normalized current status and are nil at the pipeline boundaries.
func NewTrajectView(t entities.Traject) TrajectView {
	status := t.CurrentStatus()
	view := TrajectView{
		ID:                   t.TrajectID,
		Status:               status,
		StatusUpdatedAt:      services.FormatISO(t.StatusUpdatedAt),
		StatusUpdatedBy:      optional(t.StatusUpdatedBy),
		StatusUpdatedByRole:  optional(string(t.StatusUpdatedByRole)),
		StatusHistory:        services.SerializeHistory(t.History),
		CoachID:              optional(t.CoachID),
		QualityCoordinatorID: optional(t.QualityCoordinatorID),
		AssessorID:           optional(t.AssessorID),
		ExpiresAt:            services.FormatISO(t.ExpiresAt),
	}
	if previous, ok := status.Previous(); ok {
		view.PreviousStatus = optional(string(previous))
	}
	if next, ok := status.Next(); ok {
		view.NextStatus = optional(string(next))
	}
	return view
}

// OwnerCaseView is one row of an owner's case list.
type OwnerCaseView struct {
	TrajectID       string
	OwnerRole       entities.Role
	OwnerID         string
	Status          entities.Status
	StatusUpdatedAt *string
	StatusHistory   []services.HistoryRecord
}

func NewOwnerCaseView(entry entities.OwnerIndexEntry) OwnerCaseView {
	return OwnerCaseView{
		TrajectID:       entry.TrajectID,
		OwnerRole:       entry.OwnerRole,
		OwnerID:         entry.OwnerID,
		Status:          entities.NormalizeStatus(string(entry.Status)),
		StatusUpdatedAt: services.FormatISO(entry.StatusUpdatedAt),
		StatusHistory:   services.SerializeHistory(entry.History),
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
