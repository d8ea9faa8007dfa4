package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type widget struct {
	ID    string  `json:"_id,omitempty"`
	Email string  `json:"email"`
	Name  string  `json:"name,omitempty"`
	Role  string  `json:"role,omitempty"`
	Price float64 `json:"price"`
}

func TestMemoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]()

	res, err := m.Create(ctx, widget{ID: "client-supplied", Email: "a@x.com", Price: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !res.Acknowledged || res.InsertedID == "" || res.InsertedID == "client-supplied" {
		t.Fatalf("unexpected insert result: %+v", res)
	}
	if _, err := m.Create(ctx, widget{Email: "b@x.com", Price: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := m.FindByID(ctx, res.InsertedID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.ID != res.InsertedID || got.Email != "a@x.com" {
		t.Fatalf("unexpected record: %+v", got)
	}

	all, err := m.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 || all[0].Email != "a@x.com" || all[1].Email != "b@x.com" {
		t.Fatalf("unexpected find all: %+v", all)
	}

	byPrice, err := m.Find(ctx, Filter{"price": 10})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(byPrice) != 1 || byPrice[0].Email != "a@x.com" {
		t.Fatalf("integer filter should match float field, got %+v", byPrice)
	}
}

func TestMemoryEmptyCollectionReturnsEmptySlice(t *testing.T) {
	all, err := NewMemory[widget]().FindAll(context.Background())
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", all)
	}
}

func TestMemoryFindOneNotFound(t *testing.T) {
	m := NewMemory[widget]()
	_, err := m.FindOne(context.Background(), Filter{"email": "nobody@x.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryInvalidIdentifier(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]()

	if _, err := m.FindByID(ctx, "not-an-id"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("find: expected ErrInvalidID, got %v", err)
	}
	if _, err := m.DeleteOne(ctx, ByID("zzz")); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("delete: expected ErrInvalidID, got %v", err)
	}
	if _, err := m.UpdateOne(ctx, ByID("zzz"), Patch{"name": "x"}, UpdateOptions{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("update: expected ErrInvalidID, got %v", err)
	}
	if _, err := m.FindOne(ctx, Filter{IDField: 42}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("non-string id: expected ErrInvalidID, got %v", err)
	}
}

func TestMemoryUpdateIsPartialMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]()
	res, _ := m.Create(ctx, widget{Email: "a@x.com", Name: "Ann", Price: 1})

	upd, err := m.UpdateOne(ctx, Filter{"email": "a@x.com"}, Patch{"role": "admin"}, UpdateOptions{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.MatchedCount != 1 || upd.ModifiedCount != 1 {
		t.Fatalf("unexpected update result: %+v", upd)
	}
	got, _ := m.FindByID(ctx, res.InsertedID)
	if got.Role != "admin" || got.Name != "Ann" || got.Price != 1 {
		t.Fatalf("patch should only touch role, got %+v", got)
	}

	upd, err = m.UpdateOne(ctx, Filter{"email": "a@x.com"}, Patch{"role": "admin"}, UpdateOptions{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.MatchedCount != 1 || upd.ModifiedCount != 0 {
		t.Fatalf("identical patch should not modify, got %+v", upd)
	}

	upd, err = m.UpdateOne(ctx, ByID(res.InsertedID), Patch{IDField: "other", "name": "Anne"}, UpdateOptions{})
	if err != nil {
		t.Fatalf("update by id: %v", err)
	}
	got, _ = m.FindByID(ctx, res.InsertedID)
	if upd.ModifiedCount != 1 || got.ID != res.InsertedID || got.Name != "Anne" {
		t.Fatalf("id must be immutable, got %+v / %+v", upd, got)
	}
}

func TestMemoryUpdateWithoutMatch(t *testing.T) {
	m := NewMemory[widget]()
	upd, err := m.UpdateOne(context.Background(), Filter{"email": "ghost@x.com"}, Patch{"name": "x"}, UpdateOptions{})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.MatchedCount != 0 || upd.ModifiedCount != 0 || upd.UpsertedID != "" {
		t.Fatalf("unexpected result: %+v", upd)
	}
	all, _ := m.FindAll(context.Background())
	if len(all) != 0 {
		t.Fatalf("update without upsert must not create, got %+v", all)
	}
}

func TestMemoryUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]()
	f := Filter{"email": "a@x.com"}
	p := Patch{"email": "a@x.com", "name": "Ann"}

	first, err := m.UpdateOne(ctx, f, p, UpdateOptions{Upsert: true})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.UpsertedCount != 1 || first.UpsertedID == "" {
		t.Fatalf("first upsert should insert, got %+v", first)
	}
	second, err := m.UpdateOne(ctx, f, p, UpdateOptions{Upsert: true})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.MatchedCount != 1 || second.ModifiedCount != 0 || second.UpsertedID != "" {
		t.Fatalf("second upsert should be a no-op, got %+v", second)
	}
	all, _ := m.FindAll(ctx)
	if len(all) != 1 || all[0].ID != first.UpsertedID || all[0].Name != "Ann" {
		t.Fatalf("expected exactly one record, got %+v", all)
	}
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]()
	res, _ := m.Create(ctx, widget{Email: "a@x.com"})

	del, err := m.DeleteOne(ctx, ByID(res.InsertedID))
	if err != nil || del.DeletedCount != 1 {
		t.Fatalf("delete: %+v %v", del, err)
	}
	del, err = m.DeleteOne(ctx, ByID(res.InsertedID))
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if del.DeletedCount != 0 || !del.Acknowledged {
		t.Fatalf("deleting a missing id should report zero, got %+v", del)
	}
	if _, err := m.FindByID(ctx, res.InsertedID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.UpdateOne(ctx, Filter{"email": "same@x.com"}, Patch{"email": "same@x.com"}, UpdateOptions{Upsert: true})
		}()
	}
	wg.Wait()

	all, _ := m.FindAll(ctx)
	if len(all) != 1 {
		t.Fatalf("concurrent upserts on one key must yield one record, got %d", len(all))
	}
}

func TestMemoryUniqueFieldRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]("email")

	first, err := m.Create(ctx, widget{Email: "dup@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.Create(ctx, widget{Email: "dup@x.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on second create, got %v", err)
	}
	other, err := m.Create(ctx, widget{Email: "other@x.com"})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	// Renaming onto a taken email fails and leaves the record unchanged.
	_, err = m.UpdateOne(ctx, ByID(other.InsertedID), Patch{"email": "dup@x.com"}, UpdateOptions{})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on update, got %v", err)
	}
	if got, _ := m.FindByID(ctx, other.InsertedID); got.Email != "other@x.com" {
		t.Fatalf("failed update changed record: %+v", got)
	}

	// Upsert keyed by the unique field matches instead of inserting.
	up, err := m.UpdateOne(ctx, Filter{"email": "dup@x.com"}, Patch{"name": "Dee"}, UpdateOptions{Upsert: true})
	if err != nil || up.MatchedCount != 1 || up.UpsertedCount != 0 {
		t.Fatalf("upsert on existing key: %+v %v", up, err)
	}
	// Upsert by id that would repeat the email is rejected.
	_, err = m.UpdateOne(ctx, ByID("6b0f8a3e-3a5c-4c0c-9d55-1f8a0b1c2d3e"), Patch{"email": "dup@x.com"}, UpdateOptions{Upsert: true})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate on upsert insert, got %v", err)
	}

	all, _ := m.FindAll(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}
	if got, _ := m.FindByID(ctx, first.InsertedID); got.Name != "Dee" {
		t.Fatalf("upsert did not merge: %+v", got)
	}
}

func TestMemoryUniqueConcurrentUpsertsLeaveOneRecord(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[widget]("email")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.UpdateOne(ctx, Filter{"email": "race@x.com"}, Patch{"email": "race@x.com"}, UpdateOptions{Upsert: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if all, _ := m.FindAll(ctx); len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
}
