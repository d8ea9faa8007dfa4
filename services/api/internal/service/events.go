package service

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/md-ataur/watch-redux-server/shared/pkg/metrics"
	"github.com/md-ataur/watch-redux-server/shared/pkg/models"
	"github.com/md-ataur/watch-redux-server/shared/pkg/rabbit"
)

// EventPublisher is satisfied by *rabbit.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any, headers amqp.Table) error
}

// publish sends evt after the store write it describes has succeeded. A nil
// publisher disables events. Failures are logged and counted, never returned:
// the write already happened.
func publish[T any](ctx context.Context, pub EventPublisher, log zerolog.Logger, evt models.Event[T]) {
	if pub == nil {
		return
	}
	pubCtx, cancel := rabbit.WithTimeout(ctx)
	defer cancel()

	if err := pub.PublishJSON(pubCtx, evt.Type, evt, amqp.Table{rabbit.HeaderAttempts: int32(0)}); err != nil {
		metrics.EventsPublishErrors.Inc()
		log.Warn().Err(err).Str("event_id", evt.ID).Str("type", evt.Type).Msg("publish event failed")
	}
}
