package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"coursegen_backend/pkg/subscription"
)

// InitReconciliationCron schedules a daily sweep of the subscription
// ledger against provider state.
func InitReconciliationCron(engine *subscription.Engine) {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		log.Println("Running subscription ledger sweep...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		engine.SweepLedger(ctx)
	})

	if err != nil {
		log.Printf("Could not initialize reconciliation cron: %v", err)
		return
	}

	c.Start()
}
