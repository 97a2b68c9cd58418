package erp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mikelcalvo/wms/internal/listcore"
)

// stampable records can have a server-assigned name and owner filled in.
type stampable[T any] interface {
	listcore.Record[T]
	stamped(name, owner string) T
}

// MemStore is an in-memory listcore.Service. It backs demo mode and tests.
type MemStore[T stampable[T]] struct {
	mu      sync.Mutex
	prefix  string
	owner   string
	records []T
	fail    map[string]error
}

// NewMemStore returns a store holding seed. Created records get names
// starting with prefix.
func NewMemStore[T stampable[T]](prefix string, seed ...T) *MemStore[T] {
	records := make([]T, len(seed))
	copy(records, seed)
	return &MemStore[T]{prefix: prefix, records: records, fail: map[string]error{}}
}

// ActAs sets the owner stamped on created records.
func (s *MemStore[T]) ActAs(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = email
}

// FailOn makes every mutation of id return err.
func (s *MemStore[T]) FailOn(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[id] = err
}

func (s *MemStore[T]) index(id string) int {
	for i, r := range s.records {
		if r.RecordID() == id {
			return i
		}
	}
	return -1
}

func (s *MemStore[T]) List(context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemStore[T]) Create(_ context.Context, record T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := record.RecordID()
	if name == "" {
		name = fmt.Sprintf("%s-%s", s.prefix, strings.ToUpper(uuid.NewString()[:8]))
	}
	created := record.stamped(name, s.owner)
	if s.index(created.RecordID()) >= 0 {
		var zero T
		return zero, fmt.Errorf("%s already exists", created.RecordID())
	}
	s.records = append(s.records, created)
	return created, nil
}

func (s *MemStore[T]) Update(_ context.Context, record T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := record.RecordID()
	if err := s.fail[id]; err != nil {
		var zero T
		return zero, err
	}
	i := s.index(id)
	if i < 0 {
		var zero T
		return zero, fmt.Errorf("%s: %w", id, ErrRemoteNotFound)
	}
	s.records[i] = record
	return record, nil
}

func (s *MemStore[T]) setArchived(id string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[id]; err != nil {
		return err
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrRemoteNotFound)
	}
	s.records[i] = s.records[i].WithArchived(archived)
	return nil
}

func (s *MemStore[T]) Archive(_ context.Context, id string) error { return s.setArchived(id, true) }
func (s *MemStore[T]) Restore(_ context.Context, id string) error { return s.setArchived(id, false) }

func (s *MemStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[id]; err != nil {
		return err
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, ErrRemoteNotFound)
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}
