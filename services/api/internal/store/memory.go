package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps documents in process. Identifiers are UUIDs; FindAll returns
// documents in insertion order. Fields listed in unique behave like a unique
// index: a write that would repeat a value fails with ErrDuplicate.
type Memory[T any] struct {
	mu     sync.RWMutex
	docs   map[string]document
	order  []string
	unique []string
}

func NewMemory[T any](unique ...string) *Memory[T] {
	return &Memory[T]{docs: map[string]document{}, unique: unique}
}

// conflict reports whether d repeats a unique value held by another document.
// Callers hold the lock.
func (m *Memory[T]) conflict(id string, d document) error {
	for _, field := range m.unique {
		v, ok := d[field]
		if !ok {
			continue
		}
		for otherID, other := range m.docs {
			if otherID != id && reflect.DeepEqual(other[field], v) {
				return duplicate("memory", fmt.Errorf("%s %v already exists", field, v))
			}
		}
	}
	return nil
}

func parseMemoryID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

func (m *Memory[T]) Create(_ context.Context, rec T) (InsertResult, error) {
	d, err := toDocument(rec)
	if err != nil {
		return InsertResult{}, err
	}
	id := uuid.NewString()
	d[IDField] = id

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(id, d); err != nil {
		return InsertResult{}, err
	}
	m.docs[id] = d
	m.order = append(m.order, id)
	return InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (m *Memory[T]) FindAll(ctx context.Context) ([]T, error) {
	return m.Find(ctx, Filter{})
}

func (m *Memory[T]) Find(_ context.Context, f Filter) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, err := m.match(f, 0)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		rec, err := fromDocument[T](m.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *Memory[T]) FindByID(ctx context.Context, id string) (T, error) {
	return m.FindOne(ctx, ByID(id))
}

func (m *Memory[T]) FindOne(_ context.Context, f Filter) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var zero T
	ids, err := m.match(f, 1)
	if err != nil {
		return zero, err
	}
	if len(ids) == 0 {
		return zero, ErrNotFound
	}
	return fromDocument[T](m.docs[ids[0]])
}

func (m *Memory[T]) UpdateOne(_ context.Context, f Filter, p Patch, opts UpdateOptions) (UpdateResult, error) {
	patch, err := toDocument(map[string]any(p))
	if err != nil {
		return UpdateResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.match(f, 1)
	if err != nil {
		return UpdateResult{}, err
	}
	if len(ids) == 1 {
		cur := m.docs[ids[0]]
		next := cur.merge(patch)
		res := UpdateResult{Acknowledged: true, MatchedCount: 1}
		if !reflect.DeepEqual(cur, next) {
			if err := m.conflict(ids[0], next); err != nil {
				return UpdateResult{}, err
			}
			m.docs[ids[0]] = next
			res.ModifiedCount = 1
		}
		return res, nil
	}
	if !opts.Upsert {
		return UpdateResult{Acknowledged: true}, nil
	}

	id, hasID, rest, _ := splitID(f)
	if !hasID {
		id = uuid.NewString()
	}
	base, err := toDocument(map[string]any(rest))
	if err != nil {
		return UpdateResult{}, err
	}
	d := base.merge(patch)
	d[IDField] = id
	if err := m.conflict(id, d); err != nil {
		return UpdateResult{}, err
	}
	m.docs[id] = d
	m.order = append(m.order, id)
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: id}, nil
}

func (m *Memory[T]) DeleteOne(_ context.Context, f Filter) (DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids, err := m.match(f, 1)
	if err != nil {
		return DeleteResult{}, err
	}
	if len(ids) == 0 {
		return DeleteResult{Acknowledged: true}, nil
	}
	delete(m.docs, ids[0])
	for i, id := range m.order {
		if id == ids[0] {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// match returns the ids of documents matching f, at most limit when limit > 0.
// Callers hold the lock.
func (m *Memory[T]) match(f Filter, limit int) ([]string, error) {
	id, hasID, rest, err := splitID(f)
	if err != nil {
		return nil, err
	}
	if hasID {
		if err := parseMemoryID(id); err != nil {
			return nil, err
		}
	}
	want, err := toDocument(map[string]any(rest))
	if err != nil {
		return nil, err
	}

	var out []string
	for _, docID := range m.order {
		if hasID && docID != id {
			continue
		}
		if !m.docs[docID].matches(want) {
			continue
		}
		out = append(out, docID)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
