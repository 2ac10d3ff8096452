package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func writeStatus(ctx context.Context, tx ports.Transaction, id string, status entities.Status) error {
	current, exists, err := tx.GetTraject(ctx, id)
	if err != nil {
		return err
	}
	current.TrajectID = id
	current.Status = status
	return tx.Commit(ctx, ports.WriteSet{Traject: current, Create: !exists})
}

func TestRunInTransactionReplaysAfterConflict(t *testing.T) {
	store := NewStore(nil)
	store.SeedTraject(entities.Traject{TrajectID: "t-1", Status: entities.StatusCollecting})
	ctx := context.Background()

	attempts := 0
	var seen []entities.Status
	err := store.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		attempts++
		current, _, err := tx.GetTraject(ctx, "t-1")
		if err != nil {
			return err
		}
		seen = append(seen, current.Status)
		if attempts == 1 {
			require.NoError(t, store.RunInTransaction(ctx, func(ctx context.Context, other ports.Transaction) error {
				return writeStatus(ctx, other, "t-1", entities.StatusReview)
			}))
		}
		current.Status = entities.StatusQuality
		return tx.Commit(ctx, ports.WriteSet{Traject: current})
	})
	require.NoError(t, err)

	assert.Equal(t, 2, attempts)
	assert.Equal(t, []entities.Status{entities.StatusCollecting, entities.StatusReview}, seen)
	stored, err := store.GetTraject(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, entities.StatusQuality, stored.Status)
}

func TestRunInTransactionGivesUpAfterMaxAttempts(t *testing.T) {
	store := NewStore(nil)
	store.SetMaxAttempts(3)

	attempts := 0
	err := store.RunInTransaction(context.Background(), func(context.Context, ports.Transaction) error {
		attempts++
		return fmt.Errorf("wrapped: %w", errWriteConflict)
	})
	require.ErrorIs(t, err, domainerrors.ErrTransactionAborted)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, domainerrors.KindTransient, domainerrors.KindOf(err))
}

func TestRunInTransactionDoesNotReplayBusinessErrors(t *testing.T) {
	store := NewStore(nil)

	attempts := 0
	err := store.RunInTransaction(context.Background(), func(context.Context, ports.Transaction) error {
		attempts++
		return fmt.Errorf("%w: nope", domainerrors.ErrForbidden)
	})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	assert.Equal(t, 1, attempts)
}

func TestRunInTransactionHonoursCancellation(t *testing.T) {
	store := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.RunInTransaction(ctx, func(context.Context, ports.Transaction) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCommitRules(t *testing.T) {
	store := NewStore(nil)
	store.SeedTraject(entities.Traject{TrajectID: "t-1", Status: entities.StatusCollecting})
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		return tx.Commit(ctx, ports.WriteSet{Traject: entities.Traject{TrajectID: "t-2"}, Create: true})
	})
	require.Error(t, err, "write without read")

	err = store.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		current, _, err := tx.GetTraject(ctx, "t-1")
		if err != nil {
			return err
		}
		return tx.Commit(ctx, ports.WriteSet{Traject: current, Create: true})
	})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	err = store.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		if err := writeStatus(ctx, tx, "t-1", entities.StatusReview); err != nil {
			return err
		}
		return tx.Commit(ctx, ports.WriteSet{Traject: entities.Traject{TrajectID: "t-1"}})
	})
	require.Error(t, err, "second commit")
}

func TestCommitAppliesWriteSetTogether(t *testing.T) {
	store := NewStore(nil)
	store.SetClock(fixedClock{now: time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)})
	ctx := context.Background()

	err := store.RunInTransaction(ctx, func(ctx context.Context, tx ports.Transaction) error {
		_, _, err := tx.GetTraject(ctx, "t-1")
		if err != nil {
			return err
		}
		traject := entities.Traject{TrajectID: "t-1", Status: entities.StatusReview, CoachID: "c-1"}
		return tx.Commit(ctx, ports.WriteSet{
			Traject:    traject,
			Create:     true,
			UserLinks:  []entities.UserLink{{UserID: "c-1", TrajectID: "t-1", LinkRole: entities.RoleCoach}},
			OwnerIndex: []entities.OwnerIndexEntry{entities.ProjectOwnerIndex(traject, entities.RoleCoach, "c-1", tx.Now())},
			Outbox:     []ports.EventEnvelope{{EventID: "ev-1", EventType: "traject.status_changed", PartitionKey: "t-1"}},
		})
	})
	require.NoError(t, err)

	links, err := store.ListUserLinks(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	cases, err := store.ListOwnerCases(ctx, ports.OwnerCaseFilter{OwnerRole: entities.RoleCoach, OwnerID: "c-1"})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, entities.StatusReview, cases[0].Status)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ev-1", pending[0].OutboxID)

	require.NoError(t, store.MarkOutboxSent(ctx, "ev-1", time.Now()))
	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	require.ErrorIs(t, store.MarkOutboxSent(ctx, "ev-404", time.Now()), domainerrors.ErrNotFound)
}

func TestReadsReturnCopies(t *testing.T) {
	store := NewStore(nil)
	store.SeedTraject(entities.Traject{
		TrajectID: "t-1",
		History:   []entities.HistoryEntry{{Status: entities.StatusCollecting, Note: "original"}},
	})

	first, err := store.GetTraject(context.Background(), "t-1")
	require.NoError(t, err)
	first.History[0].Note = "mutated"

	second, err := store.GetTraject(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "original", second.History[0].Note)
}

func TestFindUserByRoleIsDeterministic(t *testing.T) {
	store := NewStore([]entities.User{
		{UserID: "kc-b", Role: entities.RoleQualityCoordinator},
		{UserID: "kc-a", Role: entities.RoleQualityCoordinator},
		{UserID: "coach", Role: entities.RoleCoach},
	})

	err := store.RunInTransaction(context.Background(), func(ctx context.Context, tx ports.Transaction) error {
		user, found, err := tx.FindUserByRole(ctx, entities.RoleQualityCoordinator)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "kc-a", user.UserID)

		_, found, err = tx.FindUserByRole(ctx, entities.RoleAssessor)
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	})
	require.NoError(t, err)
}

func TestListExpiredSkipsArchived(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	store.SeedTraject(entities.Traject{TrajectID: "b", Status: entities.StatusReview, ExpiresAt: &past})
	store.SeedTraject(entities.Traject{TrajectID: "a", Status: entities.StatusQuality, ExpiresAt: &past})
	store.SeedTraject(entities.Traject{TrajectID: "c", Status: entities.StatusArchived, ExpiresAt: &past})

	ids, err := store.ListExpired(context.Background(), now, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = store.ListExpired(context.Background(), now, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestPutUserRequiresID(t *testing.T) {
	store := NewStore(nil)
	require.ErrorIs(t, store.PutUser(context.Background(), entities.User{}), domainerrors.ErrValidation)
}
