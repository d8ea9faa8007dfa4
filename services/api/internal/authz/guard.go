// Package authz holds the authorization decisions: who may promote users to
// admin and whose orders a caller may read.
package authz

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/services/api/internal/identity"
	"github.com/md-ataur/watch-redux-server/services/api/internal/store"
	"github.com/md-ataur/watch-redux-server/shared/pkg/metrics"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

const (
	ReasonAllow           = "allow"
	ReasonUnauthenticated = "unauthenticated"
	ReasonNotAdmin        = "not_admin"
	ReasonForbidden       = "forbidden"
)

const (
	OpPromote      = "promote"
	OpViewOrders   = "view_orders"
	OpCreateOrder  = "create_order"
	OpManageOrders = "manage_orders"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision { return Decision{Allowed: true, Reason: ReasonAllow} }

func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Err is nil for an allowed decision and a *DeniedError otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// DeniedError carries a deny reason out of a workflow. The request is
// answered as unauthorized whatever the reason.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return "authorization denied: " + e.Reason }

// UserLookup is the part of the users collection the guard reads.
type UserLookup interface {
	FindOne(ctx context.Context, f store.Filter) (models.User, error)
}

type Guard struct {
	Users UserLookup
	Log   zerolog.Logger
}

// CanPromote allows only principals whose stored user record has the admin
// role. A principal with no user record is treated exactly like a non-admin.
// Store failures other than not-found are returned as errors.
func (g *Guard) CanPromote(ctx context.Context, who identity.Result) (Decision, error) {
	return g.requireAdmin(ctx, OpPromote, who)
}

// CanManageOrders is the admin check applied to order listing and mutation
// when admin-only order management is enabled.
func (g *Guard) CanManageOrders(ctx context.Context, who identity.Result) (Decision, error) {
	return g.requireAdmin(ctx, OpManageOrders, who)
}

func (g *Guard) requireAdmin(ctx context.Context, op string, who identity.Result) (Decision, error) {
	email, ok := who.Principal()
	if !ok {
		return g.record(op, "", Deny(ReasonUnauthenticated)), nil
	}
	u, err := g.Users.FindOne(ctx, store.Filter{models.FieldEmail: email})
	if errors.Is(err, store.ErrNotFound) {
		return g.record(op, email, Deny(ReasonNotAdmin)), nil
	}
	if err != nil {
		return Decision{}, err
	}
	if !u.IsAdmin() {
		return g.record(op, email, Deny(ReasonNotAdmin)), nil
	}
	return g.record(op, email, Allow()), nil
}

// CanViewOrdersFor allows a principal to read only the orders filed under its
// own email. The comparison is byte-exact; no case folding.
func (g *Guard) CanViewOrdersFor(who identity.Result, targetEmail string) Decision {
	return g.canActFor(OpViewOrders, who, targetEmail)
}

// CanCreateOrderFor applies the same ownership rule to order creation. It is
// only consulted when strict ownership is enabled.
func (g *Guard) CanCreateOrderFor(who identity.Result, ownerEmail string) Decision {
	return g.canActFor(OpCreateOrder, who, ownerEmail)
}

func (g *Guard) canActFor(op string, who identity.Result, target string) Decision {
	email, ok := who.Principal()
	if !ok {
		return g.record(op, "", Deny(ReasonUnauthenticated))
	}
	if email != target {
		return g.record(op, email, Deny(ReasonForbidden))
	}
	return g.record(op, email, Allow())
}

func (g *Guard) record(op, principal string, d Decision) Decision {
	metrics.AuthzDecisions.WithLabelValues(op, d.Reason).Inc()
	if !d.Allowed {
		g.Log.Info().Str("op", op).Str("principal", principal).Str("reason", d.Reason).Msg("authorization denied")
	}
	return d
}
