// Package payment turns an order total into a payment intent at the gateway
// and hands back only the client secret.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/md-ataur/watch-redux-server/shared/pkg/metrics"
)

var ErrInvalidAmount = errors.New("payment: amount must be positive and fit in int64 minor units")

// GatewayError wraps every failure of CreatePaymentIntent, including amounts
// rejected before the gateway is called.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return "payment gateway: " + e.Op + ": " + e.Err.Error() }

func (e *GatewayError) Unwrap() error { return e.Err }

// Intent is the charge request sent to the gateway. Amount is in minor units.
type Intent struct {
	Amount     int64
	Currency   string
	MethodType string
}

// Gateway creates an intent and returns its client secret.
type Gateway interface {
	CreateIntent(ctx context.Context, in Intent) (string, error)
}

var (
	hundred       = decimal.NewFromInt(100)
	maxMinorUnits = decimal.NewFromInt(math.MaxInt64)
)

// ToMinorUnits multiplies a major-unit total by 100 and truncates. Only
// two-decimal currencies are supported. The multiplication is decimal, so
// 19.99 becomes 1999 rather than the 1998 float64 arithmetic gives.
// Totals whose minor units overflow int64 are rejected.
func ToMinorUnits(total float64) (int64, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return 0, ErrInvalidAmount
	}
	d := decimal.NewFromFloat(total).Mul(hundred).Truncate(0)
	if !d.IsPositive() || d.GreaterThan(maxMinorUnits) {
		return 0, ErrInvalidAmount
	}
	return d.IntPart(), nil
}

type Translator struct {
	Gateway    Gateway
	Currency   string
	MethodType string
	Log        zerolog.Logger
}

func (t *Translator) CreatePaymentIntent(ctx context.Context, totalPrice float64) (string, error) {
	amount, err := ToMinorUnits(totalPrice)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("rejected").Inc()
		return "", &GatewayError{Op: "convert amount", Err: fmt.Errorf("%w: %v", err, totalPrice)}
	}

	secret, err := t.Gateway.CreateIntent(ctx, Intent{
		Amount:     amount,
		Currency:   t.Currency,
		MethodType: t.MethodType,
	})
	if err != nil {
		metrics.PaymentIntents.WithLabelValues("gateway_error").Inc()
		t.Log.Error().Err(err).Int64("amount", amount).Str("currency", t.Currency).Msg("create payment intent failed")
		return "", &GatewayError{Op: "create intent", Err: err}
	}

	metrics.PaymentIntents.WithLabelValues("ok").Inc()
	t.Log.Info().Int64("amount", amount).Str("currency", t.Currency).Msg("payment intent created")
	return secret, nil
}
