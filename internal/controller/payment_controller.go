package controller

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74/webhook"

	"coursegen_backend/pkg/config"
	"coursegen_backend/pkg/payment"
	"coursegen_backend/pkg/subscription"
	"coursegen_backend/pkg/utils/jwt"
)

var (
	engine    *subscription.Engine
	appConfig *config.Config
)

func InitPaymentController(e *subscription.Engine, cfg *config.Config) {
	engine = e
	appConfig = cfg
}

type CheckoutRequest struct {
	Plan     string `json:"plan" validate:"required"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Address  string `json:"address"`
	PostCode string `json:"post_code"`
	Country  string `json:"country"`
}

type ActivateRequest struct {
	Provider       string `json:"provider" validate:"required"`
	Plan           string `json:"plan" validate:"required"`
	SubscriptionID string `json:"subscription_id"`
	SubscriberID   string `json:"subscriber_id"`
}

type ChangePlanRequest struct {
	Plan string `json:"plan" validate:"required"`
}

type ReceiptRequest struct {
	Provider       string `json:"provider" validate:"required"`
	Plan           string `json:"plan" validate:"required"`
	SubscriptionID string `json:"subscription_id"`
	SubscriberID   string `json:"subscriber_id"`
	Html           string `json:"html" validate:"required"`
}

// CreateCheckout begins a subscription with the provider named in the
// route and returns the redirect the client must complete.
func CreateCheckout(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	provider, err := payment.ParseProvider(c.Params("provider"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	input := new(CheckoutRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	checkout, err := engine.BeginCheckout(c.Context(), provider, subscription.CheckoutInput{
		Plan:     input.Plan,
		Email:    claims.Email,
		Name:     input.Name,
		LastName: input.LastName,
		Address:  input.Address,
		PostCode: input.PostCode,
		Country:  input.Country,
	})
	if err != nil {
		return paymentError(c, err)
	}

	return c.JSON(checkout)
}

// ActivateSubscription confirms a completed checkout and installs the
// ledger record.
func ActivateSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ActivateRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	provider, err := payment.ParseProvider(input.Provider)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	record, err := engine.Activate(c.Context(), subscription.ActivateInput{
		UserID:         claims.UserID,
		Provider:       provider,
		Plan:           input.Plan,
		SubscriptionID: input.SubscriptionID,
		SubscriberID:   input.SubscriberID,
		Email:          claims.Email,
	})
	if err != nil {
		return paymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Subscription activated successfully",
		"subscription": record,
	})
}

func CancelSubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	if err := engine.Cancel(c.Context(), claims.UserID); err != nil {
		return paymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Subscription cancelled successfully",
	})
}

func ChangePlan(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ChangePlanRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	details, err := engine.ChangePlan(c.Context(), claims.UserID, input.Plan)
	if err != nil {
		return paymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Subscription plan updated successfully",
		"details": details,
	})
}

func GetMySubscription(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	status, err := engine.GetStatus(c.Context(), claims.UserID)
	if err != nil {
		return paymentError(c, err)
	}

	return c.JSON(status)
}

// SendReceipt persists the client-reported subscription if needed and
// mails the rendered receipt.
func SendReceipt(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	input := new(ReceiptRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	provider, err := payment.ParseProvider(input.Provider)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	err = engine.SaveReceipt(c.Context(), subscription.ActivateInput{
		UserID:         claims.UserID,
		Provider:       provider,
		Plan:           input.Plan,
		SubscriptionID: input.SubscriptionID,
		SubscriberID:   input.SubscriberID,
		Email:          claims.Email,
	}, input.Html)
	if err != nil {
		return paymentError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Receipt sent to your mail",
	})
}

// providerWebhookBody is the generic notification shape: an event type
// plus a resource carrying whichever id the provider reports.
type providerWebhookBody struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                 string `json:"id"`
		BillingAgreementID string `json:"billing_agreement_id"`
	} `json:"resource"`
}

// HandleProviderWebhook processes inbound notifications. Providers
// only expect an HTTP 200 acknowledgement, so processing failures are
// logged and still acknowledged.
func HandleProviderWebhook(c *fiber.Ctx) error {
	provider, err := payment.ParseProvider(c.Params("provider"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var input subscription.WebhookInput
	payload := c.Body()

	if provider == payment.Stripe {
		event, err := webhook.ConstructEvent(payload, c.Get("Stripe-Signature"), appConfig.Provider.Stripe.WebhookSecret)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid webhook signature",
			})
		}
		var resource struct {
			ID string `json:"id"`
			// Invoice events carry the subscription as a reference.
			Subscription string `json:"subscription"`
		}
		if err := json.Unmarshal(event.Data.Raw, &resource); err != nil {
			return c.Status(fiber.StatusBadRequest).Send(nil)
		}
		ref := resource.ID
		if resource.Subscription != "" {
			ref = resource.Subscription
		}
		input = subscription.WebhookInput{
			EventID:            event.ID,
			EventType:          stripeEventType(string(event.Type)),
			ResourceID:         ref,
			BillingAgreementID: ref,
			RawPayload:         payload,
		}
	} else {
		body := new(providerWebhookBody)
		if err := c.BodyParser(body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid webhook payload",
			})
		}
		input = subscription.WebhookInput{
			EventID:            body.ID,
			EventType:          body.EventType,
			ResourceID:         body.Resource.ID,
			BillingAgreementID: body.Resource.BillingAgreementID,
			RawPayload:         payload,
		}
	}

	log.Printf("Processing %s webhook event: %s", provider, input.EventType)

	if err := engine.HandleWebhook(c.Context(), provider, input); err != nil {
		log.Printf("Error processing %s webhook: %v", provider, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// stripeEventType maps Stripe's event names onto the engine's kinds.
func stripeEventType(eventType string) string {
	switch eventType {
	case "customer.subscription.deleted":
		return subscription.EventCancelled
	case "invoice.payment_failed":
		return subscription.EventPaymentFailed
	case "invoice.payment_succeeded":
		return subscription.EventPaymentCompleted
	}
	return eventType
}

// paymentError maps engine errors onto HTTP statuses.
func paymentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, subscription.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active subscription found",
		})
	case errors.Is(err, subscription.ErrUnknownPlan),
		errors.Is(err, payment.ErrInvalidReference),
		errors.Is(err, payment.ErrPlanChangeUnsupported):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, subscription.ErrInconsistentState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, payment.ErrProviderUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
