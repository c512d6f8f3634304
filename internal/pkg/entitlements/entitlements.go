package entitlements

import (
	"strings"
	"time"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// Plan is an access level id a product unlocks.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPremium    Plan = "premium"
	PlanPremiumMax Plan = "premium_max"
)

// Normalize maps an arbitrary access level id onto a known plan. Unknown ids
// fall back to premium so a catalog typo still unlocks something.
func Normalize(id string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(id))) {
	case PlanFree:
		return PlanFree
	case PlanPremiumMax:
		return PlanPremiumMax
	default:
		return PlanPremium
	}
}

func Rank(p Plan) int {
	switch p {
	case PlanPremiumMax:
		return 2
	case PlanPremium:
		return 1
	default:
		return 0
	}
}

// FromSubscription derives the access level a subscription grants.
func FromSubscription(plan Plan, sub adapty.Subscription) adapty.AccessLevel {
	return adapty.AccessLevel{
		ID:                          string(plan),
		IsActive:                    sub.IsActive,
		IsInGracePeriod:             sub.IsInGracePeriod,
		IsRefund:                    sub.IsRefund,
		WillRenew:                   sub.WillRenew,
		ActivatedAt:                 sub.ActivatedAt,
		ExpiresAt:                   sub.ExpiresAt,
		StartsAt:                    sub.StartsAt,
		RenewedAt:                   sub.RenewedAt,
		UnsubscribedAt:              sub.UnsubscribedAt,
		BillingIssueDetectedAt:      sub.BillingIssueDetectedAt,
		VendorProductID:             sub.VendorProductID,
		Store:                       sub.Store,
		ActiveIntroductoryOfferType: sub.ActiveIntroductoryOfferType,
		ActivePromotionalOfferType:  sub.ActivePromotionalOfferType,
		ActivePromotionalOfferID:    sub.ActivePromotionalOfferID,
		CancellationReason:          sub.CancellationReason,
	}
}

// Lifetime is the never-expiring access level of a one-time purchase.
func Lifetime(plan Plan, vendorProductID string, store adapty.VendorStore, at time.Time) adapty.AccessLevel {
	return adapty.AccessLevel{
		ID:              string(plan),
		IsActive:        true,
		IsLifetime:      true,
		ActivatedAt:     at,
		VendorProductID: vendorProductID,
		Store:           store,
	}
}

// Grant stores candidate on profile unless an existing lifetime grant of the
// same level would be downgraded.
func Grant(profile *adapty.Profile, candidate adapty.AccessLevel) {
	if profile.AccessLevels == nil {
		profile.AccessLevels = map[string]adapty.AccessLevel{}
	}
	if existing, ok := profile.AccessLevels[candidate.ID]; ok && existing.IsLifetime && existing.IsActive {
		return
	}
	profile.AccessLevels[candidate.ID] = candidate
}

// Expire deactivates subscriptions and access levels whose period ended
// before now.
func Expire(profile *adapty.Profile, now time.Time) {
	for id, sub := range profile.Subscriptions {
		if sub.IsActive && sub.ExpiresAt != nil && !now.Before(*sub.ExpiresAt) {
			sub.IsActive = false
			sub.WillRenew = false
			profile.Subscriptions[id] = sub
		}
	}
	for id, al := range profile.AccessLevels {
		if al.IsLifetime || al.ExpiresAt == nil {
			continue
		}
		if al.IsActive && !now.Before(*al.ExpiresAt) {
			al.IsActive = false
			al.WillRenew = false
			profile.AccessLevels[id] = al
		}
	}
}

// Best returns the highest active plan on profile.
func Best(profile *adapty.Profile) Plan {
	best := PlanFree
	if profile == nil {
		return best
	}
	for id, al := range profile.AccessLevels {
		if !al.IsActive {
			continue
		}
		if candidate := Normalize(id); Rank(candidate) > Rank(best) {
			best = candidate
		}
	}
	return best
}
