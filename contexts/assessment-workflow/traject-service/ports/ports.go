package ports

import (
	"context"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/internal/shared/events"
)

// Clock allows deterministic testing of timestamps and expiry rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical event envelope.
type EventEnvelope = events.Envelope

// WriteSet is every mutation of one workflow transaction. It is assembled
// while validating and handed to Transaction.Commit once, so the primary
// record, owner-index mirrors, user back-references and outbox rows land
// together or not at all.
type WriteSet struct {
	Traject    entities.Traject
	Create     bool
	UserLinks  []entities.UserLink
	OwnerIndex []entities.OwnerIndexEntry
	Outbox     []EventEnvelope
}

// Transaction is the read-then-write view of the store inside one atomic unit.
// All reads must happen before Commit; Commit may be called at most once.
type Transaction interface {
	// Now is the transaction-consistent clock reading used for every timestamp
	// written by the transaction.
	Now() time.Time
	GetTraject(ctx context.Context, trajectID string) (entities.Traject, bool, error)
	GetUser(ctx context.Context, userID string) (entities.User, bool, error)
	// FindUserByRole returns one user holding role under any of its spellings.
	FindUserByRole(ctx context.Context, role entities.Role) (entities.User, bool, error)
	Commit(ctx context.Context, writes WriteSet) error
}

// TransactionRunner executes fn atomically. Implementations retry fn from
// scratch when the store detects a conflicting concurrent write, so fn must
// not have side effects outside the Transaction.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// OwnerCaseFilter selects owner-index entries for one owner.
type OwnerCaseFilter struct {
	OwnerRole entities.Role
	OwnerID   string
	Status    entities.Status
	Limit     int
}

// TrajectReader serves non-transactional reads.
type TrajectReader interface {
	GetTraject(ctx context.Context, trajectID string) (entities.Traject, error)
	ListOwnerCases(ctx context.Context, filter OwnerCaseFilter) ([]entities.OwnerIndexEntry, error)
	// ListExpired returns ids of trajects past expiry that are not archived yet.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// Notification asks the outbound channel to tell recipients about one event.
type Notification struct {
	EventID      string
	EventType    string
	TrajectID    string
	Status       entities.Status
	RecipientIDs []string
}

// Notifier delivers notifications to users. Email and other channels live
// outside the workflow service.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
