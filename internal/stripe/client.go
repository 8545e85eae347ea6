package stripe

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"stayfinder/config"
)

// CheckoutSession is the subset of the provider session the rest of the
// system cares about.
type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt int64
}

type Client struct {
	successURL string
	cancelURL  string
	currency   string
}

func NewClient(cfg config.StripeConfig) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		currency:   cfg.Currency,
	}
}

// CreateCheckoutSession opens a hosted payment page for the given amount and
// returns its id, URL and expiry.
func (c *Client) CreateCheckoutSession(ctx context.Context, amountCents int64) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(withSessionID(c.successURL)),
		CancelURL:  stripe.String(withSessionID(c.cancelURL)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(c.currency),
				UnitAmount: stripe.Int64(amountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Booking Payment"),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL, ExpiresAt: s.ExpiresAt}, nil
}

func withSessionID(base string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "session_id={CHECKOUT_SESSION_ID}"
}
