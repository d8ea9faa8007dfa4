package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/authz"
	"github.com/md-ataur/watch-redux-server/services/api/internal/identity"
	"github.com/md-ataur/watch-redux-server/services/api/internal/store"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

type UsersService struct {
	Users  store.Collection[models.User]
	Guard  *authz.Guard
	Admins *AdminCache
	Events EventPublisher
	Log    zerolog.Logger
}

func (s *UsersService) Create(ctx context.Context, p models.UserProfile) (store.InsertResult, error) {
	return s.Users.Create(ctx, p.User())
}

// Upsert creates or updates the user keyed by email. Applying the same
// profile twice leaves one record and reports no modification the second
// time.
func (s *UsersService) Upsert(ctx context.Context, p models.UserProfile) (store.UpdateResult, error) {
	return s.Users.UpdateOne(ctx,
		store.Filter{models.FieldEmail: p.Email},
		store.Patch(p.Fields()),
		store.UpdateOptions{Upsert: true},
	)
}

// PromoteToAdmin sets role=admin on target when the caller is an admin.
// Only the role field is written. A denied call writes nothing.
func (s *UsersService) PromoteToAdmin(ctx context.Context, who identity.Result, target string) (store.UpdateResult, error) {
	d, err := s.Guard.CanPromote(ctx, who)
	if err != nil {
		return store.UpdateResult{}, err
	}
	if err := d.Err(); err != nil {
		return store.UpdateResult{}, err
	}

	res, err := s.Users.UpdateOne(ctx,
		store.Filter{models.FieldEmail: target},
		store.Patch{models.FieldRole: models.RoleAdmin},
		store.UpdateOptions{},
	)
	if err != nil {
		return store.UpdateResult{}, err
	}

	s.Admins.Forget(ctx, s.Log, target)
	if res.MatchedCount > 0 {
		by, _ := who.Principal()
		publish(ctx, s.Events, s.Log, models.NewEvent(models.EventUserPromoted, target, models.UserPromotedPayload{PromotedBy: by}))
	}
	return res, nil
}

// IsAdmin reports whether email belongs to a stored admin. Unknown emails
// are simply not admins. Only positive answers are cached.
func (s *UsersService) IsAdmin(ctx context.Context, email string) (bool, error) {
	if admin, ok := s.Admins.Lookup(ctx, s.Log, email); ok {
		return admin, nil
	}
	u, err := s.Users.FindOne(ctx, store.Filter{models.FieldEmail: email})
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if u.IsAdmin() {
		s.Admins.Remember(ctx, s.Log, email, true)
	}
	return u.IsAdmin(), nil
}
