package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Website  WebsiteConfig
	Pricing  PricingConfig
	Provider ProviderConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type WebsiteConfig struct {
	URL     string
	Company string
}

// PricingConfig maps the two sellable plan identifiers to their cost.
// Plan identifiers double as the user's entitlement tier while the
// subscription is active.
type PricingConfig struct {
	MonthType string
	MonthCost float64
	YearType  string
	YearCost  float64
}

type ProviderConfig struct {
	Stripe      StripeConfig
	PayPal      PayPalConfig
	Razorpay    RazorpayConfig
	Paystack    PaystackConfig
	Flutterwave FlutterwaveConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type PayPalConfig struct {
	ClientID  string
	SecretKey string
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type PaystackConfig struct {
	SecretKey string
}

type FlutterwaveConfig struct {
	SecretKey string
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Website: WebsiteConfig{
			URL:     getEnv("WEBSITE_URL", "http://localhost:5173"),
			Company: getEnv("COMPANY", "CourseGen"),
		},
		Pricing: PricingConfig{
			MonthType: getEnv("MONTH_TYPE", "monthly"),
			MonthCost: getEnvFloat("MONTH_COST", 0),
			YearType:  getEnv("YEAR_TYPE", "yearly"),
			YearCost:  getEnvFloat("YEAR_COST", 0),
		},
		Provider: ProviderConfig{
			Stripe: StripeConfig{
				SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
				WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			},
			PayPal: PayPalConfig{
				ClientID:  getEnv("PAYPAL_CLIENT_ID", ""),
				SecretKey: getEnv("PAYPAL_APP_SECRET_KEY", ""),
			},
			Razorpay: RazorpayConfig{
				KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
				KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
			},
			Paystack: PaystackConfig{
				SecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
			},
			Flutterwave: FlutterwaveConfig{
				SecretKey: getEnv("FLUTTERWAVE_SECRET_KEY", ""),
			},
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %v", key, err)
		return defaultValue
	}
	return f
}
