package entitlements

import (
	"testing"
	"time"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want Plan
	}{
		{in: "free", want: PlanFree},
		{in: "premium", want: PlanPremium},
		{in: "PREMIUM_MAX", want: PlanPremiumMax},
		{in: " premium_max ", want: PlanPremiumMax},
		{in: "gold", want: PlanPremium},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	if Rank(PlanFree) >= Rank(PlanPremium) {
		t.Fatalf("expected premium to outrank free")
	}
	if Rank(PlanPremium) >= Rank(PlanPremiumMax) {
		t.Fatalf("expected premium_max to outrank premium")
	}
}

func TestGrantKeepsLifetime(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 1, 0)
	profile := &adapty.Profile{ProfileID: "p"}

	Grant(profile, Lifetime(PlanPremium, "lifetime.premium", adapty.VendorStoreAppStore, now))
	Grant(profile, adapty.AccessLevel{ID: "premium", IsActive: true, ActivatedAt: now, ExpiresAt: &expires, VendorProductID: "monthly.premium"})

	al := profile.AccessLevels["premium"]
	if !al.IsLifetime || al.VendorProductID != "lifetime.premium" {
		t.Fatalf("expected lifetime grant to survive, got %+v", al)
	}
	if err := profile.Validate(); err != nil {
		t.Fatalf("profile invalid after grant: %v", err)
	}
}

func TestExpireAndBest(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	expires := start.AddDate(0, 1, 0)
	sub := adapty.Subscription{
		IsActive:                    true,
		WillRenew:                   true,
		ActivatedAt:                 start,
		ExpiresAt:                   &expires,
		VendorProductID:             "monthly.max",
		VendorTransactionID:         "tx-1",
		VendorOriginalTransactionID: "tx-1",
		Store:                       adapty.VendorStorePlayStore,
	}
	profile := &adapty.Profile{
		ProfileID:     "p",
		Subscriptions: map[string]adapty.Subscription{"monthly.max": sub},
	}
	Grant(profile, FromSubscription(PlanPremiumMax, sub))

	if got := Best(profile); got != PlanPremiumMax {
		t.Fatalf("Best = %q, want %q", got, PlanPremiumMax)
	}

	Expire(profile, expires.Add(time.Second))
	if profile.Subscriptions["monthly.max"].IsActive {
		t.Fatalf("expected subscription to expire")
	}
	if profile.AccessLevels["premium_max"].IsActive {
		t.Fatalf("expected access level to expire")
	}
	if got := Best(profile); got != PlanFree {
		t.Fatalf("Best after expiry = %q, want %q", got, PlanFree)
	}
	if got := Best(nil); got != PlanFree {
		t.Fatalf("Best(nil) = %q, want %q", got, PlanFree)
	}
}
