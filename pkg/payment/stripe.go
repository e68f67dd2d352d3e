package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/subscription"

	"coursegen_backend/pkg/config"
)

type StripeAdapter struct {
	cfg *config.Config
}

func NewStripeAdapter(cfg *config.Config) *StripeAdapter {
	stripe.Key = cfg.Provider.Stripe.SecretKey
	return &StripeAdapter{cfg: cfg}
}

func (a *StripeAdapter) Provider() Provider {
	return Stripe
}

// Create opens a Stripe Checkout session in subscription mode. The
// customer completes payment on the returned URL.
func (a *StripeAdapter) Create(ctx context.Context, params CreateParams) (*Checkout, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(fmt.Sprintf("%s/payment-success/%s", a.cfg.Website.URL, params.Plan)),
		CancelURL:  stripe.String(a.cfg.Website.URL + "/payment-failed"),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.Plan),
				Quantity: stripe.Int64(1),
			},
		},
	}
	sessionParams.Context = ctx

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, wrapErr(Stripe, "create checkout session", err)
	}

	return &Checkout{Ref: s.ID, RedirectURL: s.URL}, nil
}

// Retrieve accepts either a checkout session id (cs_) or a
// subscription id (sub_); webhooks and redirects report different ones.
func (a *StripeAdapter) Retrieve(ctx context.Context, ref string) (*Details, error) {
	if err := ValidateRef(Stripe, ref); err != nil {
		return nil, err
	}

	if strings.HasPrefix(ref, "cs_") {
		sessionParams := &stripe.CheckoutSessionParams{}
		sessionParams.Context = ctx
		s, err := session.Get(ref, sessionParams)
		if err != nil {
			return nil, wrapErr(Stripe, "retrieve checkout session", stripeNotFound(err))
		}
		details := &Details{
			Ref:    s.ID,
			Status: string(s.Status),
			Raw:    map[string]interface{}{"payment_status": string(s.PaymentStatus)},
		}
		if s.Subscription != nil {
			details.Ref = s.Subscription.ID
		}
		if s.Customer != nil {
			details.SubscriberID = s.Customer.ID
		}
		return details, nil
	}

	subParams := &stripe.SubscriptionParams{}
	subParams.Context = ctx
	sub, err := subscription.Get(ref, subParams)
	if err != nil {
		return nil, wrapErr(Stripe, "retrieve subscription", stripeNotFound(err))
	}

	details := &Details{
		Ref:       sub.ID,
		Status:    string(sub.Status),
		CreatedAt: time.Unix(sub.Created, 0),
		Raw:       map[string]interface{}{"current_period_end": sub.CurrentPeriodEnd},
	}
	if sub.Customer != nil {
		details.SubscriberID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		details.Plan = sub.Items.Data[0].Price.ID
	}
	return details, nil
}

func (a *StripeAdapter) Cancel(ctx context.Context, ref string) error {
	if err := ValidateRef(Stripe, ref); err != nil {
		return err
	}

	cancelParams := &stripe.SubscriptionCancelParams{}
	cancelParams.Context = ctx
	if _, err := subscription.Cancel(ref, cancelParams); err != nil {
		// A subscription Stripe no longer knows, or already has in
		// canceled state, counts as cancelled.
		if stripeErr, ok := err.(*stripe.Error); ok {
			if stripeErr.Code == stripe.ErrorCodeResourceMissing {
				return nil
			}
			if strings.Contains(stripeErr.Msg, "canceled") {
				return nil
			}
		}
		return wrapErr(Stripe, "cancel subscription", err)
	}
	return nil
}

func (a *StripeAdapter) UpdatePlan(ctx context.Context, ref, newPlan string) (*Details, error) {
	return nil, wrapErr(Stripe, "update plan", ErrPlanChangeUnsupported)
}

func stripeNotFound(err error) error {
	if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
