package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
create table if not exists documents (
	collection text        not null,
	id         uuid        not null,
	body       jsonb       not null,
	created_at timestamptz not null default now(),
	primary key (collection, id)
);
create unique index if not exists documents_users_email_key
	on documents ((body->>'email')) where collection = 'users';
`

// EnsureSchema creates the documents table used by Postgres collections.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schemaSQL)
	return err
}

// Postgres stores every collection in one jsonb table, partitioned by the
// collection column. Identifiers are UUIDs.
type Postgres[T any] struct {
	DB         *pgxpool.Pool
	Collection string
}

func NewPostgres[T any](db *pgxpool.Pool, collection string) *Postgres[T] {
	return &Postgres[T]{DB: db, Collection: collection}
}

// pgFilter is a Filter resolved to SQL arguments: an optional id and a jsonb
// containment document.
type pgFilter struct {
	id       string
	hasID    bool
	contains []byte
}

func (s *Postgres[T]) resolve(f Filter) (pgFilter, error) {
	id, hasID, rest, err := splitID(f)
	if err != nil {
		return pgFilter{}, err
	}
	if hasID {
		if _, err := uuid.Parse(id); err != nil {
			return pgFilter{}, ErrInvalidID
		}
	}
	b, err := json.Marshal(rest)
	if err != nil {
		return pgFilter{}, err
	}
	return pgFilter{id: id, hasID: hasID, contains: b}, nil
}

const selectSQL = `
	select id::text, body from documents
	where collection = $1
	  and body @> $2::jsonb
	  and ($3::boolean = false or id = $4::uuid)
	order by created_at`

func (s *Postgres[T]) args(pf pgFilter) []any {
	id := pf.id
	if !pf.hasID {
		id = uuid.Nil.String()
	}
	return []any{s.Collection, string(pf.contains), pf.hasID, id}
}

func scanDocument(row pgx.Row) (string, document, error) {
	var (
		id   string
		body []byte
	)
	if err := row.Scan(&id, &body); err != nil {
		return "", nil, err
	}
	var d document
	if err := json.Unmarshal(body, &d); err != nil {
		return "", nil, err
	}
	d[IDField] = id
	return id, d, nil
}

const uniqueViolation = "23505"

func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicate(op, err)
	}
	return unavailable(op, err)
}

func bodyOf(d document) ([]byte, error) {
	stripped := make(document, len(d))
	for k, v := range d {
		if k != IDField {
			stripped[k] = v
		}
	}
	return json.Marshal(stripped)
}

func (s *Postgres[T]) Create(ctx context.Context, rec T) (InsertResult, error) {
	d, err := toDocument(rec)
	if err != nil {
		return InsertResult{}, err
	}
	body, err := bodyOf(d)
	if err != nil {
		return InsertResult{}, err
	}
	id := uuid.NewString()
	if _, err := s.DB.Exec(ctx,
		`insert into documents (collection, id, body) values ($1, $2::uuid, $3::jsonb)`,
		s.Collection, id, string(body)); err != nil {
		return InsertResult{}, pgError("insert", err)
	}
	return InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *Postgres[T]) FindAll(ctx context.Context) ([]T, error) {
	return s.Find(ctx, Filter{})
}

func (s *Postgres[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	pf, err := s.resolve(f)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.Query(ctx, selectSQL, s.args(pf)...)
	if err != nil {
		return nil, unavailable("find", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		_, d, err := scanDocument(rows)
		if err != nil {
			return nil, unavailable("find", err)
		}
		rec, err := fromDocument[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("find", err)
	}
	return out, nil
}

func (s *Postgres[T]) FindByID(ctx context.Context, id string) (T, error) {
	return s.FindOne(ctx, ByID(id))
}

func (s *Postgres[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var zero T
	pf, err := s.resolve(f)
	if err != nil {
		return zero, err
	}
	_, d, err := scanDocument(s.DB.QueryRow(ctx, selectSQL+` limit 1`, s.args(pf)...))
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, unavailable("find one", err)
	}
	return fromDocument[T](d)
}

// UpdateOne retries an upsert once when its insert loses a race on the
// unique email index; the retry then matches the row the winner inserted.
func (s *Postgres[T]) UpdateOne(ctx context.Context, f Filter, p Patch, opts UpdateOptions) (UpdateResult, error) {
	res, err := s.updateOne(ctx, f, p, opts)
	if opts.Upsert && errors.Is(err, ErrDuplicate) {
		return s.updateOne(ctx, f, p, opts)
	}
	return res, err
}

func (s *Postgres[T]) updateOne(ctx context.Context, f Filter, p Patch, opts UpdateOptions) (UpdateResult, error) {
	pf, err := s.resolve(f)
	if err != nil {
		return UpdateResult{}, err
	}
	patch, err := toDocument(map[string]any(p))
	if err != nil {
		return UpdateResult{}, err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return UpdateResult{}, unavailable("update", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, cur, err := scanDocument(tx.QueryRow(ctx, selectSQL+` limit 1 for update`, s.args(pf)...))
	switch {
	case err == nil:
		next := cur.merge(patch)
		res := UpdateResult{Acknowledged: true, MatchedCount: 1}
		if !reflect.DeepEqual(cur, next) {
			body, err := bodyOf(next)
			if err != nil {
				return UpdateResult{}, err
			}
			if _, err := tx.Exec(ctx,
				`update documents set body = $3::jsonb where collection = $1 and id = $2::uuid`,
				s.Collection, id, string(body)); err != nil {
				return UpdateResult{}, pgError("update", err)
			}
			res.ModifiedCount = 1
		}
		if err := tx.Commit(ctx); err != nil {
			return UpdateResult{}, unavailable("update", err)
		}
		return res, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return UpdateResult{}, unavailable("update", err)
	}

	if !opts.Upsert {
		return UpdateResult{Acknowledged: true}, nil
	}

	_, _, rest, _ := splitID(f)
	base, err := toDocument(map[string]any(rest))
	if err != nil {
		return UpdateResult{}, err
	}
	body, err := bodyOf(base.merge(patch))
	if err != nil {
		return UpdateResult{}, err
	}
	newID := pf.id
	if !pf.hasID {
		newID = uuid.NewString()
	}
	if _, err := tx.Exec(ctx,
		`insert into documents (collection, id, body) values ($1, $2::uuid, $3::jsonb)`,
		s.Collection, newID, string(body)); err != nil {
		return UpdateResult{}, pgError("upsert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return UpdateResult{}, unavailable("upsert", err)
	}
	return UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: newID}, nil
}

func (s *Postgres[T]) DeleteOne(ctx context.Context, f Filter) (DeleteResult, error) {
	pf, err := s.resolve(f)
	if err != nil {
		return DeleteResult{}, err
	}
	ct, err := s.DB.Exec(ctx, `
		delete from documents
		where collection = $1
		  and id = (
			select id from documents
			where collection = $1
			  and body @> $2::jsonb
			  and ($3::boolean = false or id = $4::uuid)
			order by created_at
			limit 1
		  )`, s.args(pf)...)
	if err != nil {
		return DeleteResult{}, unavailable("delete", err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: ct.RowsAffected()}, nil
}
