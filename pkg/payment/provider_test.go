package payment

import (
	"errors"
	"testing"
)

func TestValidateRef(t *testing.T) {
	tests := []struct {
		provider Provider
		ref      string
		valid    bool
	}{
		{Stripe, "sub_1QT3IEJuNU9LluRU", true},
		{Stripe, "cs_test_a1B2c3", true},
		{Stripe, "cus_9s6XKzkNRiz8i3", true},
		{Stripe, "price_123", false},
		{PayPal, "I-BW452GLLEP1G", true},
		{PayPal, "i-lowercase", false},
		{Razorpay, "sub_00000000000001", true},
		{Razorpay, "plan_00000000000001", false},
		{Paystack, "SUB_vsyqdmlzble3uii", true},
		{Paystack, "CUS_xnxdt6s1zg1f4nx", true},
		{Paystack, "sub_lowercase", false},
		{Flutterwave, "4147", true},
		{Flutterwave, "4147; DROP TABLE", false},
		// Anything with URL metacharacters must be rejected before it
		// can reach a request path.
		{Razorpay, "sub_1/../../admin", false},
		{PayPal, "I-ABC?x=1", false},
	}

	for _, tt := range tests {
		err := ValidateRef(tt.provider, tt.ref)
		if tt.valid && err != nil {
			t.Fatalf("ValidateRef(%s, %q) unexpected error: %v", tt.provider, tt.ref, err)
		}
		if !tt.valid {
			if err == nil {
				t.Fatalf("ValidateRef(%s, %q) expected error", tt.provider, tt.ref)
			}
			if !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("ValidateRef(%s, %q) error = %v, want ErrInvalidReference", tt.provider, tt.ref, err)
			}
		}
	}
}

func TestParseProvider(t *testing.T) {
	for _, name := range []string{"stripe", "paypal", "razorpay", "paystack", "flutterwave"} {
		provider, err := ParseProvider(name)
		if err != nil {
			t.Fatalf("ParseProvider(%q) unexpected error: %v", name, err)
		}
		if string(provider) != name {
			t.Fatalf("ParseProvider(%q) = %q", name, provider)
		}
	}

	if _, err := ParseProvider("venmo"); err == nil {
		t.Fatal("ParseProvider(\"venmo\") expected error")
	}
	if _, err := ParseProvider(""); err == nil {
		t.Fatal("ParseProvider(\"\") expected error")
	}
}

func TestRegistryDispatch(t *testing.T) {
	stripe := &StripeAdapter{}
	registry := NewRegistry(stripe)

	got, err := registry.ForProvider(Stripe)
	if err != nil {
		t.Fatalf("ForProvider(stripe) unexpected error: %v", err)
	}
	if got != stripe {
		t.Fatal("ForProvider(stripe) returned a different adapter")
	}

	if _, err := registry.ForProvider(PayPal); err == nil {
		t.Fatal("ForProvider(paypal) expected error for unregistered provider")
	}
}
