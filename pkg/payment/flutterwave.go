package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"coursegen_backend/pkg/config"
)

const flutterwaveAPIBase = "https://api.flutterwave.com"

type FlutterwaveAdapter struct {
	cfg *config.Config
}

func NewFlutterwaveAdapter(cfg *config.Config) *FlutterwaveAdapter {
	return &FlutterwaveAdapter{cfg: cfg}
}

func (a *FlutterwaveAdapter) Provider() Provider {
	return Flutterwave
}

func (a *FlutterwaveAdapter) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.cfg.Provider.Flutterwave.SecretKey}
}

type flutterwaveSubscription struct {
	ID       int    `json:"id"`
	Status   string `json:"status"`
	Plan     int    `json:"plan"`
	Amount   string `json:"amount"`
	Customer struct {
		Email string `json:"customer_email"`
	} `json:"customer"`
	CreatedAt string `json:"created_at"`
}

type flutterwaveEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Create opens a hosted payment page bound to a payment plan; the
// subscription appears on the plan after the customer pays.
func (a *FlutterwaveAdapter) Create(ctx context.Context, params CreateParams) (*Checkout, error) {
	txRef := "coursegen-" + uuid.NewString()
	payload := map[string]interface{}{
		"tx_ref":       txRef,
		"amount":       params.AmountSubunits,
		"currency":     "USD",
		"payment_plan": params.Plan,
		"redirect_url": fmt.Sprintf("%s/payment-success/%s", a.cfg.Website.URL, params.Plan),
		"customer": map[string]string{
			"email": params.Email,
			"name":  params.Name,
		},
		"customizations": map[string]string{
			"title": a.cfg.Website.Company,
		},
	}

	var resp struct {
		flutterwaveEnvelope
		Data struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	err := doJSON(ctx, http.MethodPost, flutterwaveAPIBase+"/v3/payments", a.authHeader(), payload, &resp)
	if err != nil {
		return nil, wrapErr(Flutterwave, "create payment", err)
	}
	if resp.Status != "success" {
		return nil, wrapErr(Flutterwave, "create payment", errors.New(resp.Message))
	}

	return &Checkout{Ref: txRef, RedirectURL: resp.Data.Link}, nil
}

func (a *FlutterwaveAdapter) Retrieve(ctx context.Context, ref string) (*Details, error) {
	if err := ValidateRef(Flutterwave, ref); err != nil {
		return nil, err
	}

	var resp struct {
		flutterwaveEnvelope
		Data []flutterwaveSubscription `json:"data"`
	}
	err := doJSON(ctx, http.MethodGet, flutterwaveAPIBase+"/v3/subscriptions?id="+ref, a.authHeader(), nil, &resp)
	if err != nil {
		return nil, wrapErr(Flutterwave, "retrieve subscription", err)
	}
	if len(resp.Data) == 0 {
		return nil, wrapErr(Flutterwave, "retrieve subscription", ErrNotFound)
	}

	return flutterwaveDetails(resp.Data[0]), nil
}

// FindByEmail returns the customer's most recent subscription; the
// hosted payment flow reports only the payer's email back to us.
func (a *FlutterwaveAdapter) FindByEmail(ctx context.Context, email string) (*Details, error) {
	var resp struct {
		flutterwaveEnvelope
		Data []flutterwaveSubscription `json:"data"`
	}
	err := doJSON(ctx, http.MethodGet, flutterwaveAPIBase+"/v3/subscriptions?email="+url.QueryEscape(email), a.authHeader(), nil, &resp)
	if err != nil {
		return nil, wrapErr(Flutterwave, "list subscriptions", err)
	}
	if len(resp.Data) == 0 {
		return nil, wrapErr(Flutterwave, "find subscription by email", ErrNotFound)
	}

	return flutterwaveDetails(resp.Data[0]), nil
}

func (a *FlutterwaveAdapter) Cancel(ctx context.Context, ref string) error {
	if err := ValidateRef(Flutterwave, ref); err != nil {
		return err
	}

	var resp flutterwaveEnvelope
	err := doJSON(ctx, http.MethodPut, flutterwaveAPIBase+"/v3/subscriptions/"+ref+"/cancel", a.authHeader(), nil, &resp)
	if err != nil {
		var restErr *restError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return nil
		}
		return wrapErr(Flutterwave, "cancel subscription", err)
	}
	if resp.Status != "success" {
		return wrapErr(Flutterwave, "cancel subscription", errors.New(resp.Message))
	}
	return nil
}

func (a *FlutterwaveAdapter) UpdatePlan(ctx context.Context, ref, newPlan string) (*Details, error) {
	return nil, wrapErr(Flutterwave, "update plan", ErrPlanChangeUnsupported)
}

func flutterwaveDetails(sub flutterwaveSubscription) *Details {
	created, _ := time.Parse(time.RFC3339, sub.CreatedAt)
	return &Details{
		Ref:          strconv.Itoa(sub.ID),
		SubscriberID: sub.Customer.Email,
		Plan:         strconv.Itoa(sub.Plan),
		Status:       sub.Status,
		CreatedAt:    created,
	}
}
