package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/identity"
	"github.com/md-ataur/watch-redux-server/services/api/internal/store"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

type failingUsers struct{ err error }

func (f failingUsers) FindOne(context.Context, store.Filter) (models.User, error) {
	return models.User{}, f.err
}

func seededUsers(t *testing.T, users ...models.User) *store.Memory[models.User] {
	t.Helper()
	m := store.NewMemory[models.User](models.FieldEmail)
	for _, u := range users {
		if _, err := m.Create(context.Background(), u); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return m
}

func TestCanPromote(t *testing.T) {
	users := seededUsers(t,
		models.User{Email: "admin@x.com", Role: "admin"},
		models.User{Email: "plain@x.com"},
		models.User{Email: "user@x.com", Role: "user"},
		models.User{Email: "weird@x.com", Role: "Admin"},
		models.User{Email: "super@x.com", Role: "superadmin"},
	)
	g := &Guard{Users: users, Log: zerolog.Nop()}

	cases := []struct {
		name string
		who  identity.Result
		want Decision
	}{
		{"unauthenticated", identity.UnverifiedBecause(identity.ReasonMissingBearer), Deny(ReasonUnauthenticated)},
		{"invalid token", identity.UnverifiedBecause(identity.ReasonInvalidToken), Deny(ReasonUnauthenticated)},
		{"admin", identity.VerifiedAs("admin@x.com"), Allow()},
		{"role absent", identity.VerifiedAs("plain@x.com"), Deny(ReasonNotAdmin)},
		{"role user", identity.VerifiedAs("user@x.com"), Deny(ReasonNotAdmin)},
		{"role wrong case", identity.VerifiedAs("weird@x.com"), Deny(ReasonNotAdmin)},
		{"role arbitrary", identity.VerifiedAs("super@x.com"), Deny(ReasonNotAdmin)},
		{"never registered", identity.VerifiedAs("ghost@x.com"), Deny(ReasonNotAdmin)},
	}
	for _, tc := range cases {
		got, err := g.CanPromote(context.Background(), tc.who)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestCanPromotePropagatesStoreFailure(t *testing.T) {
	g := &Guard{Users: failingUsers{err: store.ErrUnavailable}, Log: zerolog.Nop()}
	_, err := g.CanPromote(context.Background(), identity.VerifiedAs("admin@x.com"))
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}

	g = &Guard{Users: failingUsers{err: store.ErrNotFound}, Log: zerolog.Nop()}
	d, err := g.CanPromote(context.Background(), identity.VerifiedAs("admin@x.com"))
	if err != nil || d != Deny(ReasonNotAdmin) {
		t.Fatalf("not found should be not_admin, got %+v %v", d, err)
	}
}

func TestCanViewOrdersFor(t *testing.T) {
	g := &Guard{Log: zerolog.Nop()}
	cases := []struct {
		name   string
		who    identity.Result
		target string
		want   Decision
	}{
		{"owner", identity.VerifiedAs("a@x.com"), "a@x.com", Allow()},
		{"other user", identity.VerifiedAs("b@x.com"), "a@x.com", Deny(ReasonForbidden)},
		{"case differs", identity.VerifiedAs("A@x.com"), "a@x.com", Deny(ReasonForbidden)},
		{"trailing space", identity.VerifiedAs("a@x.com "), "a@x.com", Deny(ReasonForbidden)},
		{"unauthenticated", identity.UnverifiedBecause(identity.ReasonInvalidToken), "a@x.com", Deny(ReasonUnauthenticated)},
		{"unauthenticated empty target", identity.Result{}, "", Deny(ReasonUnauthenticated)},
	}
	for _, tc := range cases {
		if got := g.CanViewOrdersFor(tc.who, tc.target); got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestCanCreateOrderForMatchesOwnershipRule(t *testing.T) {
	g := &Guard{Log: zerolog.Nop()}
	if d := g.CanCreateOrderFor(identity.VerifiedAs("a@x.com"), "a@x.com"); !d.Allowed {
		t.Fatalf("owner should be allowed, got %+v", d)
	}
	if d := g.CanCreateOrderFor(identity.VerifiedAs("a@x.com"), "b@x.com"); d != Deny(ReasonForbidden) {
		t.Fatalf("spoofed owner should be forbidden, got %+v", d)
	}
}

func TestCanManageOrders(t *testing.T) {
	g := &Guard{Users: seededUsers(t, models.User{Email: "admin@x.com", Role: models.RoleAdmin}), Log: zerolog.Nop()}
	d, err := g.CanManageOrders(context.Background(), identity.VerifiedAs("admin@x.com"))
	if err != nil || !d.Allowed {
		t.Fatalf("admin should manage orders, got %+v %v", d, err)
	}
	d, err = g.CanManageOrders(context.Background(), identity.VerifiedAs("a@x.com"))
	if err != nil || d != Deny(ReasonNotAdmin) {
		t.Fatalf("non-admin should be denied, got %+v %v", d, err)
	}
}

func TestDecisionErr(t *testing.T) {
	if err := Allow().Err(); err != nil {
		t.Fatalf("allow produced error %v", err)
	}
	var denied *DeniedError
	if !errors.As(Deny(ReasonForbidden).Err(), &denied) || denied.Reason != ReasonForbidden {
		t.Fatalf("deny should produce DeniedError, got %+v", denied)
	}
}
