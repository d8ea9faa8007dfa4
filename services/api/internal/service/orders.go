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

type OrdersService struct {
	Orders store.Collection[models.Order]
	Guard  *authz.Guard
	Events EventPublisher
	Log    zerolog.Logger

	// StrictOwnership requires the caller to be the order's owner at
	// creation. Off by default: the owner email is taken from the payload.
	StrictOwnership bool
	// AdminOnly gates listing all orders, status updates and deletes
	// behind the admin role. Off by default.
	AdminOnly bool
}

// Create persists o as sent, owner email included.
func (s *OrdersService) Create(ctx context.Context, who identity.Result, o models.Order) (store.InsertResult, error) {
	if s.StrictOwnership {
		if err := s.Guard.CanCreateOrderFor(who, o.Email).Err(); err != nil {
			return store.InsertResult{}, err
		}
	}
	o.ID = ""
	res, err := s.Orders.Create(ctx, o)
	if err != nil {
		return store.InsertResult{}, err
	}

	publish(ctx, s.Events, s.Log, models.NewEvent(models.EventOrderCreated, res.InsertedID, models.OrderCreatedPayload{
		Email:      o.Email,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		Items:      len(o.Items),
	}))
	return res, nil
}

func (s *OrdersService) ListAll(ctx context.Context, who identity.Result) ([]models.Order, error) {
	if err := s.requireAdmin(ctx, who); err != nil {
		return nil, err
	}
	return s.Orders.FindAll(ctx)
}

// ListForPrincipal returns the orders owned by email, and nothing at all
// unless the caller is that owner.
func (s *OrdersService) ListForPrincipal(ctx context.Context, who identity.Result, email string) ([]models.Order, error) {
	if err := s.Guard.CanViewOrdersFor(who, email).Err(); err != nil {
		return nil, err
	}
	return s.Orders.Find(ctx, store.Filter{models.FieldEmail: email})
}

// UpdateStatus sets status and touches nothing else; the owner email in
// particular is never rewritten.
func (s *OrdersService) UpdateStatus(ctx context.Context, who identity.Result, id, status string) (store.UpdateResult, error) {
	if err := s.requireAdmin(ctx, who); err != nil {
		return store.UpdateResult{}, err
	}
	res, err := s.Orders.UpdateOne(ctx, store.ByID(id), store.Patch{models.FieldStatus: status}, store.UpdateOptions{})
	if err != nil {
		return store.UpdateResult{}, err
	}
	if res.ModifiedCount > 0 && s.Events != nil {
		payload := models.OrderStatusUpdatedPayload{Email: s.ownerEmail(ctx, id), Status: status}
		publish(ctx, s.Events, s.Log, models.NewEvent(models.EventOrderStatusUpdated, id, payload))
	}
	return res, nil
}

// Delete removes the order with id. A missing order is not an error; the
// result reports zero deletions.
func (s *OrdersService) Delete(ctx context.Context, who identity.Result, id string) (store.DeleteResult, error) {
	if err := s.requireAdmin(ctx, who); err != nil {
		return store.DeleteResult{}, err
	}
	var owner string
	if s.Events != nil {
		owner = s.ownerEmail(ctx, id)
	}
	res, err := s.Orders.DeleteOne(ctx, store.ByID(id))
	if err != nil {
		return store.DeleteResult{}, err
	}
	if res.DeletedCount > 0 {
		publish(ctx, s.Events, s.Log, models.NewEvent(models.EventOrderDeleted, id, models.OrderDeletedPayload{Email: owner}))
	}
	return res, nil
}

// ownerEmail returns the order's email for event payloads, or "" when the
// order cannot be read.
func (s *OrdersService) ownerEmail(ctx context.Context, id string) string {
	o, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, store.ErrInvalidID) {
			s.Log.Warn().Err(err).Str("order_id", id).Msg("read order owner failed")
		}
		return ""
	}
	return o.Email
}

func (s *OrdersService) requireAdmin(ctx context.Context, who identity.Result) error {
	if !s.AdminOnly {
		return nil
	}
	d, err := s.Guard.CanManageOrders(ctx, who)
	if err != nil {
		return err
	}
	return d.Err()
}
