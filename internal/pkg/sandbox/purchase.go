package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/entitlements"
)

// MakePurchase buys product for the current profile. Subscriptions start a
// transaction chain on the first purchase and renew it afterwards;
// non-consumable one-time purchases grant a lifetime access level.
func (s *SDK) MakePurchase(ctx context.Context, host bridge.HostUI, product adapty.Product) bridge.Result[*adapty.Profile] {
	key, p, err := s.currentProfile(ctx)
	if err != nil {
		return bridge.Failure[*adapty.Profile](nativeError(err))
	}

	s.mu.Lock()
	observer := s.observerMode
	s.mu.Unlock()
	if observer {
		return bridge.Failure[*adapty.Profile](bridge.NativeError(CodeObserverMode, "purchases are made by the host in observer mode"))
	}

	item, ok := s.catalog.Lookup(product.VendorProductID)
	if !ok {
		return bridge.Failure[*adapty.Profile](bridge.NativeError(CodeProductNotFound, fmt.Sprintf("product %s not found", product.VendorProductID)))
	}

	now := s.clock()
	store := vendorStore(s.platform)
	plan := entitlements.Normalize(item.AccessLevel)
	transactionID := "sandbox." + uuid.NewString()

	if item.IsSubscription() {
		recordSubscription(p, item, plan, store, transactionID, now)
	} else {
		recordOneTime(p, item, plan, store, transactionID, now)
	}

	if err := s.store.SaveProfile(ctx, key, p); err != nil {
		return bridge.Failure[*adapty.Profile](nativeError(err))
	}
	if product.VariationID != "" {
		s.mu.Lock()
		s.variations[transactionID] = product.VariationID
		s.mu.Unlock()
	}

	hostID := ""
	if host != nil {
		hostID = host.ID()
	}
	log.Infof("[Sandbox] Purchase %s of %s on %s (plan now %s)", transactionID, item.VendorProductID, hostID, entitlements.Best(p))
	return bridge.Success(p)
}

func recordSubscription(p *adapty.Profile, item CatalogItem, plan entitlements.Plan, store adapty.VendorStore, transactionID string, now time.Time) {
	expires := addPeriod(now, *item.SubscriptionPeriod)
	sub := adapty.Subscription{
		IsActive:                    true,
		IsSandbox:                   true,
		WillRenew:                   true,
		ActivatedAt:                 now,
		ExpiresAt:                   &expires,
		StartsAt:                    adapty.Ptr(now),
		VendorProductID:             item.VendorProductID,
		VendorTransactionID:         transactionID,
		VendorOriginalTransactionID: transactionID,
		Store:                       store,
	}

	if p.Subscriptions == nil {
		p.Subscriptions = map[string]adapty.Subscription{}
	}
	if previous, ok := p.Subscriptions[item.VendorProductID]; ok {
		sub.VendorOriginalTransactionID = previous.VendorOriginalTransactionID
		sub.ActivatedAt = previous.ActivatedAt
		sub.RenewedAt = adapty.Ptr(now)
	} else if offer := item.offerType(); offer != nil {
		sub.ActiveIntroductoryOfferType = offer
		d := item.IntroductoryDiscount
		trialEnd := addPeriods(now, d.SubscriptionPeriod, d.NumberOfPeriods)
		sub.ExpiresAt = &trialEnd
	}
	p.Subscriptions[item.VendorProductID] = sub

	if plan != entitlements.PlanFree {
		entitlements.Grant(p, entitlements.FromSubscription(plan, sub))
	}
}

func recordOneTime(p *adapty.Profile, item CatalogItem, plan entitlements.Plan, store adapty.VendorStore, transactionID string, now time.Time) {
	if p.NonSubscriptions == nil {
		p.NonSubscriptions = map[string][]adapty.NonSubscription{}
	}
	p.NonSubscriptions[item.VendorProductID] = append(p.NonSubscriptions[item.VendorProductID], adapty.NonSubscription{
		PurchaseID:          uuid.NewString(),
		PurchasedAt:         now,
		IsOneTime:           !item.Consumable,
		IsSandbox:           true,
		Store:               store,
		VendorProductID:     item.VendorProductID,
		VendorTransactionID: adapty.Ptr(transactionID),
	})

	if !item.Consumable && plan != entitlements.PlanFree {
		entitlements.Grant(p, entitlements.Lifetime(plan, item.VendorProductID, store, now))
	}
}
