package commands

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"traject/contexts/assessment-workflow/traject-service/adapters/memory"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

var baseTime = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

func workflowUsers() []entities.User {
	return []entities.User{
		{UserID: "cand-1", Role: entities.RoleCandidate},
		{UserID: "coach-1", Role: entities.RoleCoach},
		{UserID: "coach-2", Role: entities.RoleCoach},
		{UserID: "kc-1", Role: entities.RoleQualityCoordinator},
		{UserID: "as-1", Role: entities.RoleAssessor},
		{UserID: "admin-1", Role: entities.RoleAdmin},
	}
}

func newStore(t *testing.T, users []entities.User) (*memory.Store, *fixedClock) {
	t.Helper()
	store := memory.NewStore(users)
	clock := &fixedClock{now: baseTime}
	store.SetClock(clock)
	return store, clock
}

func newAdvance(store *memory.Store) AdvanceStatusUseCase {
	return AdvanceStatusUseCase{
		Transactions: store,
		Reader:       store,
		IDGenerator:  store,
	}
}

func seedAt(store *memory.Store, id string, status entities.Status, mutate ...func(*entities.Traject)) {
	updated := baseTime.Add(-time.Hour)
	traject := entities.Traject{
		TrajectID:       id,
		Status:          status,
		StatusUpdatedAt: &updated,
		CoachID:         "coach-1",
		CreatedAt:       baseTime.Add(-24 * time.Hour),
	}
	for _, fn := range mutate {
		fn(&traject)
	}
	store.SeedTraject(traject)
}

func pendingEvents(t *testing.T, store *memory.Store) []ports.EventEnvelope {
	t.Helper()
	rows, err := store.ListPendingOutbox(context.Background(), 0)
	require.NoError(t, err)
	out := make([]ports.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		var envelope ports.EventEnvelope
		require.NoError(t, json.Unmarshal(row.Payload, &envelope))
		out = append(out, envelope)
	}
	return out
}

func eventData(t *testing.T, envelope ports.EventEnvelope) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

// rendezvousRunner makes concurrent callers meet after their first read, so
// every participant observes the same version before anyone commits.
type rendezvousRunner struct {
	inner   ports.TransactionRunner
	arrived *sync.WaitGroup
}

func (r rendezvousRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.Transaction) error) error {
	attempt := 0
	return r.inner.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		attempt++
		if attempt == 1 {
			tx = &rendezvousTx{Transaction: tx, arrived: r.arrived}
		}
		return fn(ctx, tx)
	})
}

type rendezvousTx struct {
	ports.Transaction
	arrived *sync.WaitGroup
	once    sync.Once
}

func (tx *rendezvousTx) GetTraject(ctx context.Context, trajectID string) (entities.Traject, bool, error) {
	item, exists, err := tx.Transaction.GetTraject(ctx, trajectID)
	tx.once.Do(func() {
		tx.arrived.Done()
		tx.arrived.Wait()
	})
	return item, exists, err
}

func ownerFilter(role entities.Role, ownerID string) ports.OwnerCaseFilter {
	return ports.OwnerCaseFilter{OwnerRole: role, OwnerID: ownerID}
}
