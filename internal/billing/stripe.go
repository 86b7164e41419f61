package billing

import (
	"errors"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/customer"
)

// ErrCustomerNotFound means no Stripe customer exists for the email.
var ErrCustomerNotFound = errors.New("no billing customer for email")

// StripeClient wraps the Stripe calls so handlers can be tested without the
// network.
type StripeClient interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
	FindCustomerByEmail(email string) (*stripe.Customer, error)
}

type stripeClient struct{}

// NewStripeClient configures the global Stripe key and returns the live client.
func NewStripeClient(secretKey string) StripeClient {
	stripe.Key = secretKey
	return stripeClient{}
}

func (stripeClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

func (stripeClient) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return portalsession.New(params)
}

func (stripeClient) FindCustomerByEmail(email string) (*stripe.Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Limit = stripe.Int64(1)
	iter := customer.List(params)
	for iter.Next() {
		return iter.Customer(), nil
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return nil, ErrCustomerNotFound
}
