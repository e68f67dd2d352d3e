package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"coursegen_backend/internal/controller"
	"coursegen_backend/internal/middleware"
	"coursegen_backend/internal/model"
	"coursegen_backend/pkg/config"
	"coursegen_backend/pkg/cron"
	"coursegen_backend/pkg/database"
	"coursegen_backend/pkg/email"
	"coursegen_backend/pkg/payment"
	"coursegen_backend/pkg/subscription"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)

	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)

	// Payment routes
	payments := api.Group("/payments")

	paymentsProtected := payments.Group("/", middleware.AuthMiddleware())
	paymentsProtected.Post("/checkout/:provider", controller.CreateCheckout)
	paymentsProtected.Post("/activate", controller.ActivateSubscription)
	paymentsProtected.Post("/cancel", controller.CancelSubscription)
	paymentsProtected.Post("/plan", controller.ChangePlan)
	paymentsProtected.Post("/receipt", controller.SendReceipt)
	paymentsProtected.Get("/my", controller.GetMySubscription)

	// Provider webhooks (providers authenticate via signatures, not JWT)
	payments.Post("/webhooks/:provider", controller.HandleProviderWebhook)
}

func main() {
	cfg := config.Load()

	if err := email.InitEmailService(
		os.Getenv("RESEND_API_KEY"),
		cfg.Website.Company+" <noreply@coursegen.app>",
		cfg.Website.URL,
	); err != nil {
		log.Fatal("Could not initialize email service:", err)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.Admin{},
		&model.Subscription{},
		&model.WebhookEvent{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	registry := payment.NewDefaultRegistry(cfg)
	ledger := subscription.NewLedger(database.GetDB())
	engine := subscription.NewEngine(ledger, registry, email.GlobalEmailService, cfg.Pricing)

	controller.InitPaymentController(engine, cfg)
	cron.InitReconciliationCron(engine)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
