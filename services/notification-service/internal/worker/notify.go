package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
)

// Notification is the message a user should receive about an event.
type Notification struct {
	EventID string
	Type    string
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log instead of delivering them.
type LogNotifier struct {
	Log zerolog.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Log.Info().
		Str("event_id", n.EventID).
		Str("type", n.Type).
		Str("to", n.To).
		Str("subject", n.Subject).
		Msg(n.Body)
	return nil
}

// errUnknownEvent marks events this worker has nothing to say about.
var errUnknownEvent = errors.New("unknown event type")

// compose renders evt into a notification. The returned error is permanent:
// retrying the same payload cannot fix it.
func compose(evt models.EventRaw) (Notification, error) {
	n := Notification{EventID: evt.ID, Type: evt.Type}
	switch evt.Type {
	case models.EventOrderCreated:
		var p models.OrderCreatedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return n, err
		}
		n.To = p.Email
		n.Subject = "Order received"
		n.Body = fmt.Sprintf("order %s received: %d item(s), total %s, status %s",
			evt.Subject, p.Items, decimal.NewFromFloat(p.TotalPrice).StringFixed(2), p.Status)
	case models.EventOrderStatusUpdated:
		var p models.OrderStatusUpdatedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return n, err
		}
		n.To = p.Email
		n.Subject = "Order status changed"
		n.Body = fmt.Sprintf("order %s is now %s", evt.Subject, p.Status)
	case models.EventOrderDeleted:
		var p models.OrderDeletedPayload
		if len(evt.Payload) > 0 {
			if err := json.Unmarshal(evt.Payload, &p); err != nil {
				return n, err
			}
		}
		n.To = p.Email
		n.Subject = "Order removed"
		n.Body = fmt.Sprintf("order %s was removed", evt.Subject)
	case models.EventUserPromoted:
		var p models.UserPromotedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return n, err
		}
		n.To = evt.Subject
		n.Subject = "Admin access granted"
		n.Body = fmt.Sprintf("%s granted admin access to %s", p.PromotedBy, evt.Subject)
	default:
		return n, fmt.Errorf("%w: %q", errUnknownEvent, evt.Type)
	}
	return n, nil
}
