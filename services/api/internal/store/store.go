// Package store implements the collection contract shared by products, users
// and orders. Backends are interchangeable: MongoDB, a Postgres jsonb table,
// or an in-process map.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// IDField is the document key that carries the store-assigned identifier.
const IDField = "_id"

var (
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidID means an identifier could not be parsed into the backend's
	// native key type. It is a client error, unlike ErrNotFound.
	ErrInvalidID   = errors.New("store: invalid identifier")
	ErrUnavailable = errors.New("store: unavailable")
	// ErrDuplicate means a write would give two records the same value in a
	// unique field, such as a user's email.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Filter is an exact-match equality filter on top-level fields.
type Filter map[string]any

// Patch is a partial-field merge; fields not named are left untouched.
type Patch map[string]any

type UpdateOptions struct {
	Upsert bool
}

type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type Collection[T any] interface {
	Create(ctx context.Context, rec T) (InsertResult, error)
	FindAll(ctx context.Context) ([]T, error)
	Find(ctx context.Context, f Filter) ([]T, error)
	FindByID(ctx context.Context, id string) (T, error)
	FindOne(ctx context.Context, f Filter) (T, error)
	UpdateOne(ctx context.Context, f Filter, p Patch, opts UpdateOptions) (UpdateResult, error)
	DeleteOne(ctx context.Context, f Filter) (DeleteResult, error)
}

// ByID is the filter selecting a single record by identifier.
func ByID(id string) Filter { return Filter{IDField: id} }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func duplicate(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDuplicate, op, err)
}

// document is the backend-neutral shape of a record: the JSON object a
// record marshals to, with numbers decoded as float64.
type document map[string]any

func toDocument(v any) (document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var d document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if d == nil {
		d = document{}
	}
	return d, nil
}

func fromDocument[T any](d document) (T, error) {
	var out T
	b, err := json.Marshal(d)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

// splitID removes the identifier from f, returning it separately.
func splitID(f Filter) (string, bool, Filter, error) {
	rest := Filter{}
	var (
		id    string
		hasID bool
	)
	for k, v := range f {
		if k != IDField {
			rest[k] = v
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", false, nil, ErrInvalidID
		}
		id, hasID = s, true
	}
	return id, hasID, rest, nil
}

func (d document) matches(f document) bool {
	for k, want := range f {
		got, ok := d[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func (d document) merge(p document) document {
	out := make(document, len(d)+len(p))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range p {
		if k == IDField {
			continue
		}
		out[k] = v
	}
	return out
}
