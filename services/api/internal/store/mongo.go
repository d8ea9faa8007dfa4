package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a Collection over a MongoDB collection. Identifiers are ObjectIDs
// rendered as hex strings.
type Mongo[T any] struct {
	C *mongo.Collection
}

func NewMongo[T any](db *mongo.Database, name string) *Mongo[T] {
	return &Mongo[T]{C: db.Collection(name)}
}

// ConnectMongo dials uri and pings the primary.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureUserIndexes makes email the unique key of the users collection.
func EnsureUserIndexes(ctx context.Context, users *mongo.Collection) error {
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func toBSONFilter(f Filter) (bson.M, error) {
	m := bson.M{}
	for k, v := range f {
		if k != IDField {
			m[k] = v
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, ErrInvalidID
		}
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, ErrInvalidID
		}
		m[IDField] = oid
	}
	return m, nil
}

func mongoError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return duplicate(op, err)
	}
	return unavailable(op, err)
}

func idString(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func (s *Mongo[T]) Create(ctx context.Context, rec T) (InsertResult, error) {
	res, err := s.C.InsertOne(ctx, rec)
	if err != nil {
		return InsertResult{}, mongoError("insert", err)
	}
	return InsertResult{Acknowledged: true, InsertedID: idString(res.InsertedID)}, nil
}

func (s *Mongo[T]) FindAll(ctx context.Context) ([]T, error) {
	return s.Find(ctx, Filter{})
}

func (s *Mongo[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	filter, err := toBSONFilter(f)
	if err != nil {
		return nil, err
	}
	cur, err := s.C.Find(ctx, filter)
	if err != nil {
		return nil, unavailable("find", err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, unavailable("find", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (s *Mongo[T]) FindByID(ctx context.Context, id string) (T, error) {
	return s.FindOne(ctx, ByID(id))
}

func (s *Mongo[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var out T
	filter, err := toBSONFilter(f)
	if err != nil {
		return out, err
	}
	err = s.C.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, unavailable("find one", err)
	}
	return out, nil
}

// UpdateOne retries an upsert once when it loses a race on a unique index:
// the competing insert has created the record, so the retry matches it.
func (s *Mongo[T]) UpdateOne(ctx context.Context, f Filter, p Patch, opts UpdateOptions) (UpdateResult, error) {
	res, err := s.updateOne(ctx, f, p, opts)
	if opts.Upsert && errors.Is(err, ErrDuplicate) {
		return s.updateOne(ctx, f, p, opts)
	}
	return res, err
}

func (s *Mongo[T]) updateOne(ctx context.Context, f Filter, p Patch, opts UpdateOptions) (UpdateResult, error) {
	filter, err := toBSONFilter(f)
	if err != nil {
		return UpdateResult{}, err
	}
	set := bson.M{}
	for k, v := range p {
		if k == IDField {
			continue
		}
		set[k] = v
	}
	res, err := s.C.UpdateOne(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(opts.Upsert))
	if err != nil {
		return UpdateResult{}, mongoError("update", err)
	}
	return UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    idString(res.UpsertedID),
	}, nil
}

func (s *Mongo[T]) DeleteOne(ctx context.Context, f Filter) (DeleteResult, error) {
	filter, err := toBSONFilter(f)
	if err != nil {
		return DeleteResult{}, err
	}
	res, err := s.C.DeleteOne(ctx, filter)
	if err != nil {
		return DeleteResult{}, unavailable("delete", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
