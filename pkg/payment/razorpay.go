package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"coursegen_backend/pkg/config"
)

const razorpayAPIBase = "https://api.razorpay.com"

type RazorpayAdapter struct {
	cfg *config.Config
}

func NewRazorpayAdapter(cfg *config.Config) *RazorpayAdapter {
	return &RazorpayAdapter{cfg: cfg}
}

func (a *RazorpayAdapter) Provider() Provider {
	return Razorpay
}

func (a *RazorpayAdapter) authHeader() map[string]string {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(a.cfg.Provider.Razorpay.KeyID + ":" + a.cfg.Provider.Razorpay.KeySecret))
	return map[string]string{"Authorization": "Basic " + auth}
}

type razorpaySubscription struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	CustomerID string `json:"customer_id"`
	ShortURL   string `json:"short_url"`
	CreatedAt  int64  `json:"created_at"`
}

func (a *RazorpayAdapter) Create(ctx context.Context, params CreateParams) (*Checkout, error) {
	payload := map[string]interface{}{
		"plan_id":         params.Plan,
		"total_count":     12,
		"quantity":        1,
		"customer_notify": 1,
		"notes": map[string]string{
			"notes_key_1": params.Address,
		},
		"notify_info": map[string]string{
			"notify_email": params.Email,
		},
	}

	var sub razorpaySubscription
	err := doJSON(ctx, http.MethodPost, razorpayAPIBase+"/v1/subscriptions", a.authHeader(), payload, &sub)
	if err != nil {
		return nil, wrapErr(Razorpay, "create subscription", err)
	}

	return &Checkout{Ref: sub.ID, RedirectURL: sub.ShortURL}, nil
}

func (a *RazorpayAdapter) Retrieve(ctx context.Context, ref string) (*Details, error) {
	if err := ValidateRef(Razorpay, ref); err != nil {
		return nil, err
	}

	var sub razorpaySubscription
	err := doJSON(ctx, http.MethodGet, razorpayAPIBase+"/v1/subscriptions/"+ref, a.authHeader(), nil, &sub)
	if err != nil {
		var restErr *restError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return nil, wrapErr(Razorpay, "retrieve subscription", ErrNotFound)
		}
		return nil, wrapErr(Razorpay, "retrieve subscription", err)
	}

	return &Details{
		Ref:          sub.ID,
		SubscriberID: sub.CustomerID,
		Plan:         sub.PlanID,
		Status:       sub.Status,
		CreatedAt:    time.Unix(sub.CreatedAt, 0),
	}, nil
}

func (a *RazorpayAdapter) Cancel(ctx context.Context, ref string) error {
	if err := ValidateRef(Razorpay, ref); err != nil {
		return err
	}

	payload := map[string]interface{}{"cancel_at_cycle_end": 0}
	var sub razorpaySubscription
	err := doJSON(ctx, http.MethodPost, razorpayAPIBase+"/v1/subscriptions/"+ref+"/cancel", a.authHeader(), payload, &sub)
	if err != nil {
		var restErr *restError
		if errors.As(err, &restErr) {
			if restErr.Status == http.StatusNotFound {
				return nil
			}
			// Razorpay rejects cancelling a cancelled/completed
			// subscription with a 400.
			if restErr.Status == http.StatusBadRequest && strings.Contains(restErr.Body, "cancelled") {
				return nil
			}
		}
		return wrapErr(Razorpay, "cancel subscription", err)
	}
	return nil
}

func (a *RazorpayAdapter) UpdatePlan(ctx context.Context, ref, newPlan string) (*Details, error) {
	return nil, wrapErr(Razorpay, "update plan", ErrPlanChangeUnsupported)
}
