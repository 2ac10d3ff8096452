package entities

import (
	"strings"
	"time"
)

// Traject is one candidate's assessment workflow record. Its ID equals the
// candidate's user id.
type Traject struct {
	TrajectID            string
	Status               Status
	StatusUpdatedAt      *time.Time
	StatusUpdatedBy      string
	StatusUpdatedByRole  Role
	History              []HistoryEntry
	CoachID              string
	QualityCoordinatorID string
	AssessorID           string
	ExpiresAt            *time.Time
	CreatedAt            time.Time
}

// CurrentStatus normalizes the stored status, defaulting to InitialStatus for
// records that have none.
func (t Traject) CurrentStatus() Status {
	if strings.TrimSpace(string(t.Status)) == "" {
		return InitialStatus
	}
	return NormalizeStatus(string(t.Status))
}

// Expired reports whether the traject passed its expiry date at now.
func (t Traject) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// Actor is a verified identity handed over by the authentication layer.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor performs scheduled transitions; it has no user id.
func SystemActor() Actor {
	return Actor{Role: RoleSystem}
}

// User is the subset of a user profile the workflow reads.
type User struct {
	UserID      string
	Role        Role
	DisplayName string
	Email       string
}

// OwnerIndexEntry is the denormalized projection of a traject kept under one
// owner so that owner can list their cases without scanning all trajects.
type OwnerIndexEntry struct {
	OwnerRole       Role
	OwnerID         string
	TrajectID       string
	Status          Status
	History         []HistoryEntry
	StatusUpdatedAt *time.Time
	UpdatedAt       time.Time
}

// UserLink is the user-side back-reference to a traject the user was assigned to.
type UserLink struct {
	UserID    string
	TrajectID string
	LinkRole  Role
	LinkedAt  time.Time
}

// ProjectOwnerIndex mirrors the traject state under the given owner.
func ProjectOwnerIndex(t Traject, ownerRole Role, ownerID string, at time.Time) OwnerIndexEntry {
	history := make([]HistoryEntry, len(t.History))
	copy(history, t.History)
	return OwnerIndexEntry{
		OwnerRole:       ownerRole,
		OwnerID:         ownerID,
		TrajectID:       t.TrajectID,
		Status:          t.Status,
		History:         history,
		StatusUpdatedAt: t.StatusUpdatedAt,
		UpdatedAt:       at.UTC(),
	}
}
