package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProvisionTrajectRequest struct {
	CandidateID string `json:"candidateId" validate:"required,max=128"`
	CoachID     string `json:"coachId,omitempty" validate:"omitempty,max=128"`
	// ExpiresAt is an RFC 3339 timestamp.
	ExpiresAt string `json:"expiresAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

type AdvanceStatusRequest struct {
	Status              string `json:"status" validate:"required,max=64"`
	Note                string `json:"note,omitempty" validate:"omitempty,max=2000"`
	NominatedAssessorID string `json:"nominatedAssessorId,omitempty" validate:"omitempty,max=128"`
}

// HistoryEntryDTO renders absent values as JSON null.
type HistoryEntryDTO struct {
	Status          string  `json:"status"`
	ChangedAt       *string `json:"changedAt"`
	ChangedAtMillis *int64  `json:"changedAtMillis"`
	ActorID         *string `json:"actorId"`
	ActorRole       *string `json:"actorRole"`
	Note            *string `json:"note"`
}

type TrajectDTO struct {
	ID                   string            `json:"id"`
	Status               string            `json:"status"`
	StatusUpdatedAt      *string           `json:"statusUpdatedAt"`
	StatusUpdatedBy      *string           `json:"statusUpdatedBy"`
	StatusUpdatedByRole  *string           `json:"statusUpdatedByRole"`
	StatusHistory        []HistoryEntryDTO `json:"statusHistory"`
	PreviousStatus       *string           `json:"previousStatus"`
	NextStatus           *string           `json:"nextStatus"`
	CoachID              *string           `json:"coachId"`
	QualityCoordinatorID *string           `json:"qualityCoordinatorId"`
	AssessorID           *string           `json:"assessorId"`
	ExpiresAt            *string           `json:"expiresAt"`
}

type OwnerCaseDTO struct {
	TrajectID       string            `json:"trajectId"`
	OwnerRole       string            `json:"ownerRole"`
	OwnerID         string            `json:"ownerId"`
	Status          string            `json:"status"`
	StatusUpdatedAt *string           `json:"statusUpdatedAt"`
	StatusHistory   []HistoryEntryDTO `json:"statusHistory"`
}

type ListOwnerCasesResponse struct {
	Items []OwnerCaseDTO `json:"items"`
}
