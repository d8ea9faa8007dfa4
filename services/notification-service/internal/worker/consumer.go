package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/shared/pkg/metrics"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
	"github.com/md-ataur/watch-redux-server/shared/pkg/rabbit"
)

// Deduper remembers processed event ids. *cache.Redis satisfies it.
type Deduper interface {
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

type Consumer struct {
	Log      zerolog.Logger
	Notifier Notifier
	Dedupe   Deduper
	EventTTL time.Duration

	RetryPub *rabbit.Publisher
	DLQPub   *rabbit.Publisher

	Service     string
	MaxAttempts int
	DLQKey      string
}

func processedKey(eventID string) string { return "notification:processed:" + eventID }

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, d amqp.Delivery) {
	_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
}

func (c *Consumer) retry(ctx context.Context, d amqp.Delivery) {
	_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt models.EventRaw
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", d.RoutingKey).Msg("bad json -> dlq")
		c.deadLetter(ctx, d)
		return
	}
	if evt.ID == "" || evt.Type == "" {
		c.Log.Error().Str("rk", d.RoutingKey).Msg("missing event id/type -> dlq")
		c.deadLetter(ctx, d)
		return
	}

	n, err := compose(evt)
	if errors.Is(err, errUnknownEvent) {
		c.Log.Warn().Str("type", evt.Type).Str("event_id", evt.ID).Msg("unexpected event type -> ack")
		_ = d.Ack(false)
		return
	}
	if err != nil {
		c.Log.Error().Err(err).Str("event_id", evt.ID).Msg("bad payload -> dlq")
		c.deadLetter(ctx, d)
		return
	}

	key := processedKey(evt.ID)
	first, err := c.Dedupe.SetNX(ctx, key, "1", c.EventTTL)
	if err != nil {
		c.Log.Error().Err(err).Str("event_id", evt.ID).Msg("dedupe check failed -> retry/dlq")
		c.retry(ctx, d)
		return
	}
	if !first {
		c.Log.Info().Str("event_id", evt.ID).Msg("duplicate event -> ack")
		_ = d.Ack(false)
		return
	}

	if err := c.Notifier.Notify(ctx, n); err != nil {
		c.Log.Error().Err(err).Str("event_id", evt.ID).Msg("notify failed -> retry/dlq")
		if err := c.Dedupe.Del(ctx, key); err != nil {
			c.Log.Warn().Err(err).Str("event_id", evt.ID).Msg("release dedupe key failed")
		}
		c.retry(ctx, d)
		return
	}

	metrics.NotificationsSent.WithLabelValues(evt.Type).Inc()
	_ = d.Ack(false)
}
