package payment

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway creates PaymentIntents through the Stripe API.
type StripeGateway struct {
	API *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{API: client.New(secretKey, nil)}
}

// NewStripeGatewayWithBackend points the client at a custom API backend.
func NewStripeGatewayWithBackend(secretKey string, backend stripe.Backend) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &StripeGateway{API: sc}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, in Intent) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(in.Amount),
		Currency:           stripe.String(in.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{in.MethodType}),
	}
	params.Context = ctx

	pi, err := g.API.PaymentIntents.New(params)
	if err != nil {
		return "", err
	}
	if pi.ClientSecret == "" {
		return "", errors.New("stripe returned no client secret")
	}
	return pi.ClientSecret, nil
}
