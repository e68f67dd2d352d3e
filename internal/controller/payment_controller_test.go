package controller

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursegen_backend/internal/model"
	"coursegen_backend/pkg/config"
	"coursegen_backend/pkg/payment"
	"coursegen_backend/pkg/subscription"
)

// stubLedger backs webhook tests: no records, every event is new.
type stubLedger struct {
	deletes int
}

func (l *stubLedger) Upsert(record *model.Subscription) error { return nil }
func (l *stubLedger) FindByUser(userID uint) (*model.Subscription, error) {
	return nil, subscription.ErrRecordNotFound
}
func (l *stubLedger) FindBySubscriberRef(ref string) (*model.Subscription, error) {
	return nil, subscription.ErrRecordNotFound
}
func (l *stubLedger) ListAll() ([]model.Subscription, error) { return nil, nil }
func (l *stubLedger) DeleteByRef(ref string) error {
	l.deletes++
	return nil
}
func (l *stubLedger) GetUser(userID uint) (*model.User, error) {
	return nil, subscription.ErrRecordNotFound
}
func (l *stubLedger) SetUserType(userID uint, userType string) error { return nil }
func (l *stubLedger) AddToAdminTotal(amount float64) error           { return nil }
func (l *stubLedger) RecordWebhookEvent(event *model.WebhookEvent) (bool, error) {
	return true, nil
}
func (l *stubLedger) MarkWebhookProcessed(eventID uint, processingErr error) error { return nil }

type stubNotifier struct {
	sent int
}

func (n *stubNotifier) SendSubscriptionStarted(email, name, plan string) error {
	n.sent++
	return nil
}
func (n *stubNotifier) SendSubscriptionStatusChanged(email, name, reason string) error {
	n.sent++
	return nil
}
func (n *stubNotifier) SendSubscriptionRenewed(email, name string) error {
	n.sent++
	return nil
}
func (n *stubNotifier) SendSubscriptionModified(email, name string) error {
	n.sent++
	return nil
}
func (n *stubNotifier) SendReceipt(email, html string) error {
	n.sent++
	return nil
}

func setupWebhookApp(t *testing.T) (*fiber.App, *stubLedger, *stubNotifier) {
	t.Helper()

	ledger := &stubLedger{}
	notifier := &stubNotifier{}
	cfg := &config.Config{
		Pricing: config.PricingConfig{
			MonthType: "monthly", MonthCost: 5,
			YearType: "yearly", YearCost: 49,
		},
	}
	engine := subscription.NewEngine(ledger, payment.NewRegistry(), notifier, cfg.Pricing)
	InitPaymentController(engine, cfg)

	app := fiber.New()
	app.Post("/api/payments/webhooks/:provider", HandleProviderWebhook)
	return app, ledger, notifier
}

func TestWebhookUnknownProviderRejected(t *testing.T) {
	app, _, _ := setupWebhookApp(t)

	req := httptest.NewRequest("POST", "/api/payments/webhooks/venmo", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookUnknownSubscriptionAcknowledged(t *testing.T) {
	app, ledger, notifier := setupWebhookApp(t)

	body := `{"id":"WH-1","event_type":"BILLING.SUBSCRIPTION.EXPIRED","resource":{"id":"I-UNKNOWN"}}`
	req := httptest.NewRequest("POST", "/api/payments/webhooks/paypal", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, ledger.deletes)
	assert.Equal(t, 0, notifier.sent)
}

func TestWebhookUnrecognizedEventAcknowledged(t *testing.T) {
	app, ledger, _ := setupWebhookApp(t)

	body := `{"id":"WH-2","event_type":"BILLING.PLAN.UPDATED","resource":{"id":"I-SUB1"}}`
	req := httptest.NewRequest("POST", "/api/payments/webhooks/paypal", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, ledger.deletes)
}

func TestStripeEventTypeMapping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "customer.subscription.deleted", want: subscription.EventCancelled},
		{in: "invoice.payment_failed", want: subscription.EventPaymentFailed},
		{in: "invoice.payment_succeeded", want: subscription.EventPaymentCompleted},
		{in: "charge.refunded", want: "charge.refunded"},
	}

	for _, tt := range tests {
		if got := stripeEventType(tt.in); got != tt.want {
			t.Fatalf("stripeEventType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
