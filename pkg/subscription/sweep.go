package subscription

import (
	"context"
	"errors"
	"log"
	"strings"

	"coursegen_backend/pkg/payment"
)

// terminalReason maps provider-side statuses that mean the
// subscription is no longer billable onto notification reason text.
func terminalReason(status string) (string, bool) {
	switch strings.ToLower(status) {
	case "cancelled", "canceled":
		return "Cancelled", true
	case "expired", "complete", "completed":
		return "Expired", true
	case "suspended", "paused":
		return "Suspended", true
	case "past_due", "unpaid", "halted":
		return "Disabled Due To Payment Failure", true
	}
	return "", false
}

// SweepLedger polls provider truth for every ledger record and tears
// down the ones the provider reports dead. Covers webhook deliveries
// that never arrived.
func (e *Engine) SweepLedger(ctx context.Context) {
	records, err := e.ledger.ListAll()
	if err != nil {
		log.Printf("Ledger sweep: could not list records: %v", err)
		return
	}

	for _, record := range records {
		provider, err := payment.ParseProvider(record.Method)
		if err != nil {
			log.Printf("Ledger sweep: record %d has unknown method %q", record.ID, record.Method)
			continue
		}
		adapter, err := e.registry.ForProvider(provider)
		if err != nil {
			continue
		}

		ref := record.SubscriptionID
		if ref == "" {
			ref = record.SubscriberID
		}

		details, err := adapter.Retrieve(ctx, ref)
		if errors.Is(err, payment.ErrNotFound) {
			// Provider no longer knows the subscription at all.
			rec := record
			if err := e.tearDown(&rec, "Expired"); err != nil {
				log.Printf("Ledger sweep: could not reconcile record %d: %v", record.ID, err)
			}
			continue
		}
		if err != nil {
			// Provider outages must not tear anything down.
			log.Printf("Ledger sweep: could not retrieve %s subscription %s: %v", provider, ref, err)
			continue
		}

		if reason, terminal := terminalReason(details.Status); terminal {
			rec := record
			if err := e.tearDown(&rec, reason); err != nil {
				log.Printf("Ledger sweep: could not reconcile record %d: %v", record.ID, err)
			}
		}
	}
}
