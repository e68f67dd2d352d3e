package subscription

import (
	"testing"

	"coursegen_backend/pkg/config"
)

func TestCommission(t *testing.T) {
	pricing := config.PricingConfig{
		MonthType: "monthly",
		MonthCost: 5,
		YearType:  "yearly",
		YearCost:  49,
	}

	tests := []struct {
		plan    string
		want    float64
		wantErr bool
	}{
		{plan: "monthly", want: 1.25},
		{plan: "yearly", want: 12.25},
		{plan: "weekly", wantErr: true},
		{plan: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Commission(pricing, tt.plan)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("Commission(%q) expected error, got %v", tt.plan, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Commission(%q) unexpected error: %v", tt.plan, err)
		}
		if got != tt.want {
			t.Fatalf("Commission(%q) = %v, want %v", tt.plan, got, tt.want)
		}
	}
}

func TestTerminalReason(t *testing.T) {
	tests := []struct {
		status   string
		want     string
		terminal bool
	}{
		{status: "cancelled", want: "Cancelled", terminal: true},
		{status: "canceled", want: "Cancelled", terminal: true},
		{status: "expired", want: "Expired", terminal: true},
		{status: "suspended", want: "Suspended", terminal: true},
		{status: "halted", want: "Disabled Due To Payment Failure", terminal: true},
		{status: "active", terminal: false},
		{status: "authenticated", terminal: false},
	}

	for _, tt := range tests {
		got, terminal := terminalReason(tt.status)
		if terminal != tt.terminal {
			t.Fatalf("terminalReason(%q) terminal = %v, want %v", tt.status, terminal, tt.terminal)
		}
		if terminal && got != tt.want {
			t.Fatalf("terminalReason(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
