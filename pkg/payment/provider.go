package payment

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"coursegen_backend/pkg/config"
)

type Provider string

const (
	Stripe      Provider = "stripe"
	PayPal      Provider = "paypal"
	Razorpay    Provider = "razorpay"
	Paystack    Provider = "paystack"
	Flutterwave Provider = "flutterwave"
)

// CreateParams carries everything a provider may need to open a new
// subscription. Providers ignore the fields they do not use.
type CreateParams struct {
	Plan     string
	Email    string
	Name     string
	LastName string
	Address  string
	PostCode string
	Country  string
	// AmountSubunits is the charge amount in the provider's smallest
	// currency unit, used by Paystack transaction initialization.
	AmountSubunits int64
}

// Checkout is the result of starting a subscription. Redirect-based
// providers return a URL the customer must visit; the external
// reference identifies the session or subscription created.
type Checkout struct {
	Ref          string
	RedirectURL  string
	ClientSecret string
}

// Details is the provider-side view of a subscription.
type Details struct {
	Ref          string
	SubscriberID string
	Plan         string
	Status       string
	CreatedAt    time.Time
	// Raw keeps provider fields the caller may want to surface.
	Raw map[string]interface{}
}

// Adapter is the uniform operation set each provider implements.
// Cancel must tolerate an already-cancelled subscription.
type Adapter interface {
	Provider() Provider
	Create(ctx context.Context, params CreateParams) (*Checkout, error)
	Retrieve(ctx context.Context, ref string) (*Details, error)
	Cancel(ctx context.Context, ref string) error
	UpdatePlan(ctx context.Context, ref, newPlan string) (*Details, error)
}

// EmailFinder is implemented by adapters whose redirect flow reports
// only the customer email back to the platform (Paystack,
// Flutterwave); the subscription has to be located by listing.
type EmailFinder interface {
	FindByEmail(ctx context.Context, email string) (*Details, error)
}

// Outbound provider calls share one client with a bounded timeout so a
// hung provider surfaces as an error instead of a stuck request.
var httpClient = &http.Client{Timeout: 20 * time.Second}

// refPatterns allow-lists each provider's identifier format. Refs are
// interpolated into request URLs, so anything that does not match is
// rejected before a request is built.
var refPatterns = map[Provider]*regexp.Regexp{
	Stripe:      regexp.MustCompile(`^(sub|cs|cus)_[a-zA-Z0-9_]+$`),
	PayPal:      regexp.MustCompile(`^I-[A-Z0-9]+$`),
	Razorpay:    regexp.MustCompile(`^sub_[a-zA-Z0-9]+$`),
	Paystack:    regexp.MustCompile(`^(SUB|CUS)_[a-zA-Z0-9]+$`),
	Flutterwave: regexp.MustCompile(`^[0-9]+$`),
}

// ValidateRef checks an external reference against the provider's ID
// format before it is used in an outbound call.
func ValidateRef(provider Provider, ref string) error {
	pattern, ok := refPatterns[provider]
	if !ok {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidReference, provider)
	}
	if !pattern.MatchString(ref) {
		return fmt.Errorf("%w: %q is not a valid %s reference", ErrInvalidReference, ref, provider)
	}
	return nil
}

// Registry resolves adapters by the provider enum stored on ledger
// records.
type Registry struct {
	adapters map[Provider]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Provider]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// NewDefaultRegistry wires all five supported providers from config.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	return NewRegistry(
		NewStripeAdapter(cfg),
		NewPayPalAdapter(cfg),
		NewRazorpayAdapter(cfg),
		NewPaystackAdapter(cfg),
		NewFlutterwaveAdapter(cfg),
	)
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Provider()] = a
}

func (r *Registry) ForProvider(provider Provider) (Adapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported payment provider %q", provider)
	}
	return a, nil
}

// ParseProvider normalizes a stored or inbound method string.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case Stripe, PayPal, Razorpay, Paystack, Flutterwave:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown payment provider %q", s)
}
