package subscription

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"gorm.io/datatypes"

	"coursegen_backend/internal/model"
	"coursegen_backend/pkg/config"
	"coursegen_backend/pkg/payment"
)

// Provider event kinds the engine reacts to. Terminal kinds tear the
// subscription down; payment-completed only triggers a renewal mail.
const (
	EventCancelled        = "BILLING.SUBSCRIPTION.CANCELLED"
	EventExpired          = "BILLING.SUBSCRIPTION.EXPIRED"
	EventSuspended        = "BILLING.SUBSCRIPTION.SUSPENDED"
	EventPaymentFailed    = "BILLING.SUBSCRIPTION.PAYMENT.FAILED"
	EventPaymentCompleted = "PAYMENT.SALE.COMPLETED"
)

// ErrInconsistentState reports a ledger/provider disagreement the
// engine will not repair on its own.
var ErrInconsistentState = errors.New("ledger and provider state disagree")

// Notifier is the transactional mail sink. Deliveries are
// fire-and-forget: the engine logs failures but never fails an
// operation over one.
type Notifier interface {
	SendSubscriptionStarted(email, name, plan string) error
	SendSubscriptionStatusChanged(email, name, reason string) error
	SendSubscriptionRenewed(email, name string) error
	SendSubscriptionModified(email, name string) error
	SendReceipt(email, html string) error
}

// Engine applies user actions and inbound provider events to the
// ledger and user entitlement.
type Engine struct {
	ledger   Ledger
	registry *payment.Registry
	notifier Notifier
	pricing  config.PricingConfig
}

func NewEngine(ledger Ledger, registry *payment.Registry, notifier Notifier, pricing config.PricingConfig) *Engine {
	return &Engine{
		ledger:   ledger,
		registry: registry,
		notifier: notifier,
		pricing:  pricing,
	}
}

type CheckoutInput struct {
	Plan     string
	Email    string
	Name     string
	LastName string
	Address  string
	PostCode string
	Country  string
}

// BeginCheckout starts a new subscription at the provider and returns
// the redirect the customer must complete.
func (e *Engine) BeginCheckout(ctx context.Context, provider payment.Provider, input CheckoutInput) (*payment.Checkout, error) {
	cost, err := PlanCost(e.pricing, input.Plan)
	if err != nil {
		return nil, err
	}

	adapter, err := e.registry.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	return adapter.Create(ctx, payment.CreateParams{
		Plan:     input.Plan,
		Email:    input.Email,
		Name:     input.Name,
		LastName: input.LastName,
		Address:  input.Address,
		PostCode: input.PostCode,
		Country:  input.Country,
		// Subunit amount for providers that charge the first cycle
		// through a one-off transaction.
		AmountSubunits: int64(cost * 100),
	})
}

type ActivateInput struct {
	UserID         uint
	Provider       payment.Provider
	Plan           string
	SubscriptionID string
	SubscriberID   string
	// Email locates the subscription for providers whose redirect
	// reports no identifier.
	Email string
}

// Activate installs the subscription after the provider confirms the
// checkout: commission accrues atomically, the user's tier flips to
// the paid plan and the ledger record replaces any prior one.
func (e *Engine) Activate(ctx context.Context, input ActivateInput) (*model.Subscription, error) {
	commission, err := Commission(e.pricing, input.Plan)
	if err != nil {
		return nil, err
	}

	adapter, err := e.registry.ForProvider(input.Provider)
	if err != nil {
		return nil, err
	}

	// The provider must confirm the subscription before anything is
	// granted; a client-supplied reference on its own proves nothing.
	var details *payment.Details
	if input.SubscriptionID == "" {
		finder, ok := adapter.(payment.EmailFinder)
		if !ok {
			return nil, fmt.Errorf("%s activation requires a subscription reference", input.Provider)
		}
		details, err = finder.FindByEmail(ctx, input.Email)
	} else {
		details, err = adapter.Retrieve(ctx, input.SubscriptionID)
	}
	if err != nil {
		return nil, err
	}

	// Persist the provider's own identifiers; Retrieve resolves
	// checkout session ids to the underlying subscription.
	subscriptionID := details.Ref
	if subscriptionID == "" {
		subscriptionID = input.SubscriptionID
	}
	subscriberID := input.SubscriberID
	if details.SubscriberID != "" {
		subscriberID = details.SubscriberID
	}

	user, err := e.ledger.GetUser(input.UserID)
	if err != nil {
		return nil, err
	}

	// The record is installed before entitlement and commission so a
	// failed write can never leave a paid tier the sweep cannot see.
	record := &model.Subscription{
		UserID:         input.UserID,
		Method:         string(input.Provider),
		SubscriberID:   subscriberID,
		SubscriptionID: subscriptionID,
		Plan:           input.Plan,
		Active:         true,
	}
	if err := e.ledger.Upsert(record); err != nil {
		return nil, err
	}
	if err := e.ledger.SetUserType(input.UserID, input.Plan); err != nil {
		return nil, err
	}
	if err := e.ledger.AddToAdminTotal(commission); err != nil {
		return nil, err
	}

	if err := e.notifier.SendSubscriptionStarted(user.Email, user.Name, input.Plan); err != nil {
		log.Printf("Could not send subscription started email: %v", err)
	}
	return record, nil
}

// Cancel terminates the user's subscription at the provider, then
// removes the ledger record and downgrades entitlement. The ledger is
// only touched after the provider confirms.
func (e *Engine) Cancel(ctx context.Context, userID uint) error {
	record, err := e.ledger.FindByUser(userID)
	if err != nil {
		return err
	}

	provider, err := payment.ParseProvider(record.Method)
	if err != nil {
		return err
	}
	adapter, err := e.registry.ForProvider(provider)
	if err != nil {
		return err
	}

	ref := record.SubscriptionID
	if ref == "" {
		ref = record.SubscriberID
	}
	if err := adapter.Cancel(ctx, ref); err != nil {
		return err
	}

	return e.tearDown(record, "Cancelled")
}

// ChangePlan moves the subscription onto a new plan in place where the
// provider supports it.
func (e *Engine) ChangePlan(ctx context.Context, userID uint, newPlan string) (*payment.Details, error) {
	if _, err := PlanCost(e.pricing, newPlan); err != nil {
		return nil, err
	}

	record, err := e.ledger.FindByUser(userID)
	if err != nil {
		return nil, err
	}

	provider, err := payment.ParseProvider(record.Method)
	if err != nil {
		return nil, err
	}
	adapter, err := e.registry.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	details, err := adapter.UpdatePlan(ctx, record.SubscriptionID, newPlan)
	if err != nil {
		return nil, err
	}

	record.Plan = newPlan
	if err := e.ledger.Upsert(record); err != nil {
		return nil, err
	}
	if err := e.ledger.SetUserType(userID, newPlan); err != nil {
		return nil, err
	}

	user, err := e.ledger.GetUser(userID)
	if err == nil {
		if err := e.notifier.SendSubscriptionModified(user.Email, user.Name); err != nil {
			log.Printf("Could not send subscription modified email: %v", err)
		}
	}
	return details, nil
}

// Status pairs the ledger record with the provider's current view.
type Status struct {
	Record  *model.Subscription `json:"record"`
	Details *payment.Details    `json:"details"`
}

// GetStatus fetches provider truth for the user's subscription. A
// provider that no longer knows a subscription the ledger holds as
// active is reported as an inconsistency, not repaired.
func (e *Engine) GetStatus(ctx context.Context, userID uint) (*Status, error) {
	record, err := e.ledger.FindByUser(userID)
	if err != nil {
		return nil, err
	}

	provider, err := payment.ParseProvider(record.Method)
	if err != nil {
		return nil, err
	}
	adapter, err := e.registry.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	ref := record.SubscriptionID
	if ref == "" {
		ref = record.SubscriberID
	}
	details, err := adapter.Retrieve(ctx, ref)
	if errors.Is(err, payment.ErrNotFound) {
		return nil, fmt.Errorf("%w: ledger has %s subscription %s, provider does not", ErrInconsistentState, record.Method, ref)
	}
	if err != nil {
		return nil, err
	}

	return &Status{Record: record, Details: details}, nil
}

// WebhookInput is the normalized inbound notification: the event kind
// plus whichever reference the provider put in the resource object.
type WebhookInput struct {
	EventID    string
	EventType  string
	ResourceID string
	// BillingAgreementID is set on payment-completed events instead of
	// the subscription id.
	BillingAgreementID string
	RawPayload         []byte
}

// HandleWebhook applies an inbound provider event. Redeliveries and
// unknown subscriptions are silent no-ops; unrecognized kinds are
// acknowledged and ignored.
func (e *Engine) HandleWebhook(ctx context.Context, provider payment.Provider, input WebhookInput) error {
	eventID := input.EventID
	if eventID == "" {
		// Providers that omit an event id still get idempotent
		// handling, keyed on the payload itself.
		sum := sha256.Sum256(input.RawPayload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &model.WebhookEvent{
		Provider:        string(provider),
		ProviderEventID: eventID,
		EventType:       input.EventType,
		Payload:         datatypes.JSON(input.RawPayload),
	}
	firstDelivery, err := e.ledger.RecordWebhookEvent(event)
	if err != nil {
		return err
	}
	if !firstDelivery {
		log.Printf("Skipping redelivered %s event %s", provider, eventID)
		return nil
	}

	processErr := e.processWebhook(input)
	if err := e.ledger.MarkWebhookProcessed(event.ID, processErr); err != nil {
		log.Printf("Could not mark webhook event %d processed: %v", event.ID, err)
	}
	return processErr
}

func (e *Engine) processWebhook(input WebhookInput) error {
	switch input.EventType {
	case EventCancelled:
		return e.reconcileTerminal(input.ResourceID, "Cancelled")
	case EventExpired:
		return e.reconcileTerminal(input.ResourceID, "Expired")
	case EventSuspended:
		return e.reconcileTerminal(input.ResourceID, "Suspended")
	case EventPaymentFailed:
		return e.reconcileTerminal(input.ResourceID, "Disabled Due To Payment Failure")
	case EventPaymentCompleted:
		return e.sendRenewalNotice(input.BillingAgreementID)
	}
	log.Printf("Ignoring unrecognized event type %q", input.EventType)
	return nil
}

// reconcileTerminal removes the ledger record for a subscription the
// provider reports as no longer billable. A lookup miss means the
// record was already reconciled and is not an error.
func (e *Engine) reconcileTerminal(ref, reason string) error {
	record, err := e.ledger.FindBySubscriberRef(ref)
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return e.tearDown(record, reason)
}

// tearDown deletes the record and downgrades entitlement, preserving
// permanent grants. Used by both user-initiated cancels and terminal
// webhooks once the terminal condition is established.
func (e *Engine) tearDown(record *model.Subscription, reason string) error {
	user, err := e.ledger.GetUser(record.UserID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return err
	}

	if user != nil && !user.HasPermanentAccess() {
		if err := e.ledger.SetUserType(record.UserID, model.UserTypeFree); err != nil {
			return err
		}
	}

	ref := record.SubscriptionID
	if ref == "" {
		ref = record.SubscriberID
	}
	if err := e.ledger.DeleteByRef(ref); err != nil {
		return err
	}

	if user != nil {
		if err := e.notifier.SendSubscriptionStatusChanged(user.Email, user.Name, reason); err != nil {
			log.Printf("Could not send subscription status email: %v", err)
		}
	}
	return nil
}

func (e *Engine) sendRenewalNotice(ref string) error {
	record, err := e.ledger.FindBySubscriberRef(ref)
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	user, err := e.ledger.GetUser(record.UserID)
	if err != nil {
		return err
	}
	if err := e.notifier.SendSubscriptionRenewed(user.Email, user.Name); err != nil {
		log.Printf("Could not send subscription renewal email: %v", err)
	}
	return nil
}

// SaveReceipt persists the ledger record reported by the client after
// checkout, if absent, and mails the receipt. Activation via Activate
// remains the authoritative path; this backstops providers whose
// redirect lands before our webhook does.
func (e *Engine) SaveReceipt(ctx context.Context, input ActivateInput, receiptHTML string) error {
	if _, err := PlanCost(e.pricing, input.Plan); err != nil {
		return err
	}
	if input.SubscriptionID != "" {
		if err := payment.ValidateRef(input.Provider, input.SubscriptionID); err != nil {
			return err
		}
	}

	if _, err := e.ledger.FindByUser(input.UserID); errors.Is(err, ErrRecordNotFound) {
		record := &model.Subscription{
			UserID:         input.UserID,
			Method:         string(input.Provider),
			SubscriberID:   input.SubscriberID,
			SubscriptionID: input.SubscriptionID,
			Plan:           input.Plan,
			Active:         true,
		}
		if err := e.ledger.Upsert(record); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if err := e.notifier.SendReceipt(input.Email, receiptHTML); err != nil {
		log.Printf("Could not send receipt email: %v", err)
	}
	return nil
}
