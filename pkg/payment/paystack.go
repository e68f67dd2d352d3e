package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"coursegen_backend/pkg/config"
)

const paystackAPIBase = "https://api.paystack.co"

type PaystackAdapter struct {
	cfg *config.Config
}

func NewPaystackAdapter(cfg *config.Config) *PaystackAdapter {
	return &PaystackAdapter{cfg: cfg}
}

func (a *PaystackAdapter) Provider() Provider {
	return Paystack
}

func (a *PaystackAdapter) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.cfg.Provider.Paystack.SecretKey}
}

type paystackSubscription struct {
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
	Plan             struct {
		PlanCode string `json:"plan_code"`
	} `json:"plan"`
	Customer struct {
		Email        string `json:"email"`
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
}

type paystackEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// Create initializes a Paystack transaction tied to a plan; the
// subscription itself materializes once the customer pays on the
// authorization URL.
func (a *PaystackAdapter) Create(ctx context.Context, params CreateParams) (*Checkout, error) {
	payload := map[string]interface{}{
		"email":  params.Email,
		"amount": params.AmountSubunits,
		"plan":   params.Plan,
	}

	var resp struct {
		paystackEnvelope
		Data struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	err := doJSON(ctx, http.MethodPost, paystackAPIBase+"/transaction/initialize", a.authHeader(), payload, &resp)
	if err != nil {
		return nil, wrapErr(Paystack, "initialize transaction", err)
	}
	if !resp.Status {
		return nil, wrapErr(Paystack, "initialize transaction", errors.New(resp.Message))
	}

	return &Checkout{Ref: resp.Data.Reference, RedirectURL: resp.Data.AuthorizationURL}, nil
}

func (a *PaystackAdapter) Retrieve(ctx context.Context, ref string) (*Details, error) {
	if err := ValidateRef(Paystack, ref); err != nil {
		return nil, err
	}

	var resp struct {
		paystackEnvelope
		Data paystackSubscription `json:"data"`
	}
	err := doJSON(ctx, http.MethodGet, paystackAPIBase+"/subscription/"+ref, a.authHeader(), nil, &resp)
	if err != nil {
		var restErr *restError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return nil, wrapErr(Paystack, "retrieve subscription", ErrNotFound)
		}
		return nil, wrapErr(Paystack, "retrieve subscription", err)
	}

	return paystackDetails(resp.Data), nil
}

// FindByEmail locates the customer's subscription by listing current
// subscriptions; Paystack's redirect flow reports no subscription id,
// only the customer email.
func (a *PaystackAdapter) FindByEmail(ctx context.Context, email string) (*Details, error) {
	var resp struct {
		paystackEnvelope
		Data []paystackSubscription `json:"data"`
	}
	err := doJSON(ctx, http.MethodGet, paystackAPIBase+"/subscription", a.authHeader(), nil, &resp)
	if err != nil {
		return nil, wrapErr(Paystack, "list subscriptions", err)
	}

	for _, sub := range resp.Data {
		if sub.Customer.Email == email {
			return paystackDetails(sub), nil
		}
	}
	return nil, wrapErr(Paystack, "find subscription by email", ErrNotFound)
}

// Cancel disables the subscription. Paystack requires the email token
// alongside the code, so the subscription is fetched first.
func (a *PaystackAdapter) Cancel(ctx context.Context, ref string) error {
	details, err := a.Retrieve(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if details.Status == "cancelled" || details.Status == "complete" {
		return nil
	}

	token, _ := details.Raw["email_token"].(string)
	payload := map[string]string{"code": ref, "token": token}

	var resp paystackEnvelope
	err = doJSON(ctx, http.MethodPost, paystackAPIBase+"/subscription/disable", a.authHeader(), payload, &resp)
	if err != nil {
		return wrapErr(Paystack, "disable subscription", err)
	}
	if !resp.Status {
		return wrapErr(Paystack, "disable subscription", errors.New(resp.Message))
	}
	return nil
}

func (a *PaystackAdapter) UpdatePlan(ctx context.Context, ref, newPlan string) (*Details, error) {
	return nil, wrapErr(Paystack, "update plan", ErrPlanChangeUnsupported)
}

func paystackDetails(sub paystackSubscription) *Details {
	created, _ := time.Parse(time.RFC3339, sub.CreatedAt)
	return &Details{
		Ref:          sub.SubscriptionCode,
		SubscriberID: sub.Customer.CustomerCode,
		Plan:         sub.Plan.PlanCode,
		Status:       sub.Status,
		CreatedAt:    created,
		Raw:          map[string]interface{}{"email_token": sub.EmailToken},
	}
}
