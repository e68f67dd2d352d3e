package payment

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"coursegen_backend/pkg/config"
)

const paypalAPIBase = "https://api-m.paypal.com"

type PayPalAdapter struct {
	cfg *config.Config
}

func NewPayPalAdapter(cfg *config.Config) *PayPalAdapter {
	return &PayPalAdapter{cfg: cfg}
}

func (a *PayPalAdapter) Provider() Provider {
	return PayPal
}

func (a *PayPalAdapter) authHeader() map[string]string {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(a.cfg.Provider.PayPal.ClientID + ":" + a.cfg.Provider.PayPal.SecretKey))
	return map[string]string{"Authorization": "Basic " + auth}
}

type paypalSubscription struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	CreateTime string `json:"create_time"`
	Subscriber struct {
		EmailAddress string `json:"email_address"`
		PayerID      string `json:"payer_id"`
	} `json:"subscriber"`
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

func (a *PayPalAdapter) Create(ctx context.Context, params CreateParams) (*Checkout, error) {
	firstLine := params.Address
	secondLine := ""
	if idx := strings.LastIndex(params.Address, ","); idx >= 0 {
		firstLine = params.Address[:idx]
		secondLine = strings.TrimSpace(params.Address[idx+1:])
	}

	payload := map[string]interface{}{
		"plan_id": params.Plan,
		"subscriber": map[string]interface{}{
			"name": map[string]string{
				"given_name": params.Name,
				"surname":    params.LastName,
			},
			"email_address": params.Email,
			"shipping_address": map[string]interface{}{
				"name": map[string]string{"full_name": params.Name},
				"address": map[string]string{
					"address_line_1": firstLine,
					"address_line_2": secondLine,
					"admin_area_1":   params.Country,
					"admin_area_2":   params.Country,
					"postal_code":    params.PostCode,
					"country_code":   params.Country,
				},
			},
		},
		"application_context": map[string]interface{}{
			"brand_name":          a.cfg.Website.Company,
			"locale":              "en-US",
			"shipping_preference": "SET_PROVIDED_ADDRESS",
			"user_action":         "SUBSCRIBE_NOW",
			"payment_method": map[string]string{
				"payer_selected":  "PAYPAL",
				"payee_preferred": "IMMEDIATE_PAYMENT_REQUIRED",
			},
			"return_url": fmt.Sprintf("%s/payment-success/%s", a.cfg.Website.URL, params.Plan),
			"cancel_url": a.cfg.Website.URL + "/payment-failed",
		},
	}

	var sub paypalSubscription
	err := doJSON(ctx, http.MethodPost, paypalAPIBase+"/v1/billing/subscriptions", a.authHeader(), payload, &sub)
	if err != nil {
		return nil, wrapErr(PayPal, "create subscription", err)
	}

	checkout := &Checkout{Ref: sub.ID}
	for _, link := range sub.Links {
		if link.Rel == "approve" {
			checkout.RedirectURL = link.Href
		}
	}
	return checkout, nil
}

func (a *PayPalAdapter) Retrieve(ctx context.Context, ref string) (*Details, error) {
	if err := ValidateRef(PayPal, ref); err != nil {
		return nil, err
	}

	var sub paypalSubscription
	err := doJSON(ctx, http.MethodGet, paypalAPIBase+"/v1/billing/subscriptions/"+ref, a.authHeader(), nil, &sub)
	if err != nil {
		var restErr *restError
		if errors.As(err, &restErr) && restErr.Status == http.StatusNotFound {
			return nil, wrapErr(PayPal, "retrieve subscription", ErrNotFound)
		}
		return nil, wrapErr(PayPal, "retrieve subscription", err)
	}

	created, _ := time.Parse(time.RFC3339, sub.CreateTime)
	return &Details{
		Ref:          sub.ID,
		SubscriberID: sub.Subscriber.PayerID,
		Plan:         sub.PlanID,
		Status:       strings.ToLower(sub.Status),
		CreatedAt:    created,
	}, nil
}

func (a *PayPalAdapter) Cancel(ctx context.Context, ref string) error {
	if err := ValidateRef(PayPal, ref); err != nil {
		return err
	}

	payload := map[string]string{"reason": "Cancelled by customer"}
	err := doJSON(ctx, http.MethodPost, paypalAPIBase+"/v1/billing/subscriptions/"+ref+"/cancel", a.authHeader(), payload, nil)
	if err != nil {
		var restErr *restError
		if errors.As(err, &restErr) {
			// 404 and 422 mean the subscription is gone or already in
			// a terminal state; cancelling it again is a no-op.
			if restErr.Status == http.StatusNotFound || restErr.Status == http.StatusUnprocessableEntity {
				return nil
			}
		}
		return wrapErr(PayPal, "cancel subscription", err)
	}
	return nil
}

// UpdatePlan revises the subscription onto a new plan. PayPal may ask
// the customer to re-approve, in which case the approve link comes
// back in Raw.
func (a *PayPalAdapter) UpdatePlan(ctx context.Context, ref, newPlan string) (*Details, error) {
	if err := ValidateRef(PayPal, ref); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"plan_id": newPlan,
		"application_context": map[string]interface{}{
			"brand_name": a.cfg.Website.Company,
			"locale":     "en-US",
			"payment_method": map[string]string{
				"payer_selected":  "PAYPAL",
				"payee_preferred": "IMMEDIATE_PAYMENT_REQUIRED",
			},
			"return_url": fmt.Sprintf("%s/payment-success/%s", a.cfg.Website.URL, newPlan),
			"cancel_url": a.cfg.Website.URL + "/payment-failed",
		},
	}

	var sub paypalSubscription
	err := doJSON(ctx, http.MethodPost, paypalAPIBase+"/v1/billing/subscriptions/"+ref+"/revise", a.authHeader(), payload, &sub)
	if err != nil {
		return nil, wrapErr(PayPal, "revise subscription", err)
	}

	details := &Details{Ref: ref, Plan: newPlan, Status: strings.ToLower(sub.Status), Raw: map[string]interface{}{}}
	for _, link := range sub.Links {
		if link.Rel == "approve" {
			details.Raw["approve_url"] = link.Href
		}
	}
	return details, nil
}
