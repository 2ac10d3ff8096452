package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	domainerrors "traject/contexts/assessment-workflow/traject-service/domain/errors"
	"traject/contexts/assessment-workflow/traject-service/ports"

	"github.com/google/uuid"
)

const defaultMaxAttempts = 5

// errWriteConflict signals that a record read by the transaction changed
// before commit; RunInTransaction replays the closure when it sees it.
var errWriteConflict = errors.New("memory: concurrent write conflict")

type ownerKey struct {
	role      entities.Role
	ownerID   string
	trajectID string
}

type linkKey struct {
	userID    string
	trajectID string
	role      entities.Role
}

type outboxRow struct {
	message ports.OutboxMessage
	sentAt  *time.Time
}

// Store is the in-memory document store. Transactions are optimistic: reads
// record the version of every traject they touched and Commit rejects the
// write set when any of those versions moved, after which the closure is
// replayed against fresh state.
type Store struct {
	mu sync.RWMutex

	clock       ports.Clock
	maxAttempts int

	trajects   map[string]entities.Traject
	versions   map[string]uint64
	users      map[string]entities.User
	ownerIndex map[ownerKey]entities.OwnerIndexEntry
	userLinks  map[linkKey]entities.UserLink
	outbox     []outboxRow
}

func NewStore(users []entities.User) *Store {
	store := &Store{
		maxAttempts: defaultMaxAttempts,
		trajects:    make(map[string]entities.Traject),
		versions:    make(map[string]uint64),
		users:       make(map[string]entities.User, len(users)),
		ownerIndex:  make(map[ownerKey]entities.OwnerIndexEntry),
		userLinks:   make(map[linkKey]entities.UserLink),
		outbox:      make([]outboxRow, 0),
	}
	for _, user := range users {
		store.users[user.UserID] = user
	}
	return store
}

// SetClock replaces the system clock, typically with a fixed test clock.
func (s *Store) SetClock(clock ports.Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *Store) SetMaxAttempts(attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if attempts > 0 {
		s.maxAttempts = attempts
	}
}

func (s *Store) PutUser(_ context.Context, user entities.User) error {
	if strings.TrimSpace(user.UserID) == "" {
		return fmt.Errorf("%w: user id is required", domainerrors.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.UserID] = user
	return nil
}

// SeedTraject stores t outside the workflow, bypassing transition rules.
func (s *Store) SeedTraject(t entities.Traject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trajects[t.TrajectID] = cloneTraject(t)
	s.versions[t.TrajectID]++
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.Transaction) error) error {
	s.mu.RLock()
	attempts := s.maxAttempts
	s.mu.RUnlock()

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &transaction{
			store: s,
			now:   s.Now(),
			reads: make(map[string]uint64),
		}
		err := fn(ctx, tx)
		if errors.Is(err, errWriteConflict) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: gave up after %d attempts", domainerrors.ErrTransactionAborted, attempts)
}

func (s *Store) GetTraject(_ context.Context, trajectID string) (entities.Traject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.trajects[strings.TrimSpace(trajectID)]
	if !exists {
		return entities.Traject{}, fmt.Errorf("%w: traject %s", domainerrors.ErrNotFound, trajectID)
	}
	return cloneTraject(item), nil
}

func (s *Store) ListOwnerCases(_ context.Context, filter ports.OwnerCaseFilter) ([]entities.OwnerIndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.OwnerIndexEntry, 0)
	for key, entry := range s.ownerIndex {
		if key.role != filter.OwnerRole || key.ownerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && entities.NormalizeStatus(string(entry.Status)) != filter.Status {
			continue
		}
		items = append(items, cloneOwnerEntry(entry))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].TrajectID < items[j].TrajectID
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) ListExpired(_ context.Context, now time.Time, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id, item := range s.trajects {
		if item.Expired(now) && item.CurrentStatus() != entities.StatusArchived {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// ListUserLinks returns the back-references stored for userID.
func (s *Store) ListUserLinks(_ context.Context, userID string) ([]entities.UserLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.UserLink, 0)
	for key, link := range s.userLinks {
		if key.userID == userID {
			items = append(items, link)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].TrajectID < items[j].TrajectID
	})
	return items, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.sentAt != nil {
			continue
		}
		items = append(items, row.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for index := range s.outbox {
		if s.outbox[index].message.OutboxID != outboxID {
			continue
		}
		at := sentAt.UTC()
		s.outbox[index].sentAt = &at
		return nil
	}
	return fmt.Errorf("%w: outbox row %s", domainerrors.ErrNotFound, outboxID)
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	clock := s.clock
	s.mu.RUnlock()
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type transaction struct {
	store     *Store
	now       time.Time
	reads     map[string]uint64
	committed bool
}

func (tx *transaction) Now() time.Time {
	return tx.now
}

func (tx *transaction) GetTraject(_ context.Context, trajectID string) (entities.Traject, bool, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	trajectID = strings.TrimSpace(trajectID)
	tx.reads[trajectID] = tx.store.versions[trajectID]
	item, exists := tx.store.trajects[trajectID]
	if !exists {
		return entities.Traject{}, false, nil
	}
	return cloneTraject(item), true, nil
}

func (tx *transaction) GetUser(_ context.Context, userID string) (entities.User, bool, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	user, exists := tx.store.users[strings.TrimSpace(userID)]
	return user, exists, nil
}

func (tx *transaction) FindUserByRole(_ context.Context, role entities.Role) (entities.User, bool, error) {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()

	ids := make([]string, 0, len(tx.store.users))
	for id := range tx.store.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if tx.store.users[id].Role == role {
			return tx.store.users[id], true, nil
		}
	}
	return entities.User{}, false, nil
}

func (tx *transaction) Commit(ctx context.Context, writes ports.WriteSet) error {
	if tx.committed {
		return errors.New("memory: transaction already committed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, version := range tx.reads {
		if s.versions[id] != version {
			return errWriteConflict
		}
	}
	trajectID := writes.Traject.TrajectID
	if _, read := tx.reads[trajectID]; !read {
		return errors.New("memory: traject written without being read in the transaction")
	}
	if _, exists := s.trajects[trajectID]; exists && writes.Create {
		return fmt.Errorf("%w: traject %s already exists", domainerrors.ErrConflict, trajectID)
	}

	rows := make([]outboxRow, 0, len(writes.Outbox))
	for _, envelope := range writes.Outbox {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		rows = append(rows, outboxRow{message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    tx.now,
		}})
	}

	s.trajects[trajectID] = cloneTraject(writes.Traject)
	s.versions[trajectID]++
	for _, link := range writes.UserLinks {
		s.userLinks[linkKey{userID: link.UserID, trajectID: link.TrajectID, role: link.LinkRole}] = link
	}
	for _, entry := range writes.OwnerIndex {
		s.ownerIndex[ownerKey{role: entry.OwnerRole, ownerID: entry.OwnerID, trajectID: entry.TrajectID}] = cloneOwnerEntry(entry)
	}
	s.outbox = append(s.outbox, rows...)
	tx.committed = true
	return nil
}

func cloneTraject(t entities.Traject) entities.Traject {
	out := t
	out.History = cloneHistory(t.History)
	out.StatusUpdatedAt = cloneTime(t.StatusUpdatedAt)
	out.ExpiresAt = cloneTime(t.ExpiresAt)
	return out
}

func cloneOwnerEntry(entry entities.OwnerIndexEntry) entities.OwnerIndexEntry {
	out := entry
	out.History = cloneHistory(entry.History)
	out.StatusUpdatedAt = cloneTime(entry.StatusUpdatedAt)
	return out
}

func cloneHistory(history []entities.HistoryEntry) []entities.HistoryEntry {
	if history == nil {
		return nil
	}
	out := make([]entities.HistoryEntry, len(history))
	copy(out, history)
	return out
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
