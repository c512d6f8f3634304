package bridge

import (
	"context"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// RegisterSDK wires every bridge method onto sdk.
func RegisterSDK(d *Dispatcher, sdk SDK) {
	h := &sdkHandlers{sdk: sdk, platform: d.Platform()}

	d.Handle(MethodActivate, h.activate)
	d.Handle(MethodGetPaywall, h.getPaywall)
	d.Handle(MethodGetPaywallProducts, h.getPaywallProducts)
	d.Handle(MethodGetProfile, h.getProfile)
	d.Handle(MethodIdentify, h.identify)
	d.Handle(MethodLogout, h.logout)
	d.Handle(MethodUpdateProfile, h.updateProfile)
	d.Handle(MethodUpdateAttribution, h.updateAttribution)
	d.Handle(MethodMakePurchase, h.makePurchase)
	d.Handle(MethodRestorePurchases, h.restorePurchases)
	d.Handle(MethodLogShowPaywall, h.logShowPaywall)
	d.Handle(MethodLogShowOnboarding, h.logShowOnboarding)
	d.Handle(MethodSetFallbackPaywalls, h.setFallbackPaywalls)
	d.Handle(MethodSetVariationID, h.setVariationID)
	d.Handle(MethodSetLogLevel, h.setLogLevel)
	d.Handle(MethodPresentCodeRedemptionSheet, h.presentCodeRedemptionSheet)
}

type sdkHandlers struct {
	sdk      SDK
	platform adapty.Platform
}

func optionalString(c *Context, key string) *string {
	if v, ok := c.StringArgument(key); ok {
		return &v
	}
	return nil
}

func (h *sdkHandlers) activate(ctx context.Context, c *Context) {
	key, ok := c.StringArgument(ArgSDKKey)
	if !ok {
		_ = c.RejectMissingArgument(ArgSDKKey)
		return
	}
	observer, _ := ParseArgument[bool](c, ArgObserverMode)
	_ = c.ResolveEmpty(h.sdk.Activate(ctx, ActivateConfig{
		SDKKey:         key,
		CustomerUserID: optionalString(c, ArgUserID),
		ObserverMode:   observer,
	}))
}

func (h *sdkHandlers) getPaywall(ctx context.Context, c *Context) {
	id, ok := c.StringArgument(ArgPaywallID)
	if !ok {
		_ = c.RejectMissingArgument(ArgPaywallID)
		return
	}
	_ = c.ResolveValue(h.sdk.GetPaywall(ctx, id, optionalString(c, ArgLocale)))
}

func (h *sdkHandlers) getPaywallProducts(ctx context.Context, c *Context) {
	paywall, ok := ParseArgument[adapty.Paywall](c, ArgPaywall)
	if !ok {
		_ = c.RejectMissingArgument(ArgPaywall)
		return
	}
	_ = c.ResolveValue(h.sdk.GetPaywallProducts(ctx, paywall))
}

func (h *sdkHandlers) getProfile(ctx context.Context, c *Context) {
	_ = c.ResolveValue(h.sdk.GetProfile(ctx))
}

func (h *sdkHandlers) identify(ctx context.Context, c *Context) {
	userID, ok := c.StringArgument(ArgUserID)
	if !ok {
		_ = c.RejectMissingArgument(ArgUserID)
		return
	}
	_ = c.ResolveEmpty(h.sdk.Identify(ctx, userID))
}

func (h *sdkHandlers) logout(ctx context.Context, c *Context) {
	_ = c.ResolveEmpty(h.sdk.Logout(ctx))
}

func (h *sdkHandlers) updateProfile(ctx context.Context, c *Context) {
	params, ok := ParseArgument[adapty.ProfileParameters](c, ArgParams)
	if !ok {
		_ = c.RejectMissingArgument(ArgParams)
		return
	}
	_ = c.ResolveEmpty(h.sdk.UpdateProfile(ctx, params))
}

func (h *sdkHandlers) updateAttribution(ctx context.Context, c *Context) {
	attribution, ok := ParseArgument[map[string]interface{}](c, ArgAttribution)
	if !ok {
		_ = c.RejectMissingArgument(ArgAttribution)
		return
	}
	source, ok := c.StringArgument(ArgSource)
	if !ok {
		_ = c.RejectMissingArgument(ArgSource)
		return
	}
	_ = c.ResolveEmpty(h.sdk.UpdateAttribution(ctx, attribution, source, optionalString(c, ArgNetworkUserID)))
}

func (h *sdkHandlers) makePurchase(ctx context.Context, c *Context) {
	product, ok := ParseArgument[adapty.Product](c, ArgProduct)
	if !ok {
		_ = c.RejectMissingArgument(ArgProduct)
		return
	}
	if c.Host == nil {
		_ = c.Reject(HostUIUnavailable(c.Method))
		return
	}
	_ = c.ResolveValue(h.sdk.MakePurchase(ctx, c.Host, product))
}

func (h *sdkHandlers) restorePurchases(ctx context.Context, c *Context) {
	_ = c.ResolveValue(h.sdk.RestorePurchases(ctx))
}

func (h *sdkHandlers) logShowPaywall(ctx context.Context, c *Context) {
	paywall, ok := ParseArgument[adapty.Paywall](c, ArgPaywall)
	if !ok {
		_ = c.RejectMissingArgument(ArgPaywall)
		return
	}
	_ = c.ResolveEmpty(h.sdk.LogShowPaywall(ctx, paywall))
}

func (h *sdkHandlers) logShowOnboarding(ctx context.Context, c *Context) {
	params, ok := ParseArgument[adapty.OnboardingScreenParameters](c, ArgOnboardingParams)
	if !ok {
		_ = c.RejectMissingArgument(ArgOnboardingParams)
		return
	}
	_ = c.ResolveEmpty(h.sdk.LogShowOnboarding(ctx, params))
}

func (h *sdkHandlers) setFallbackPaywalls(ctx context.Context, c *Context) {
	paywalls, ok := c.StringArgument(ArgPaywalls)
	if !ok {
		_ = c.RejectMissingArgument(ArgPaywalls)
		return
	}
	_ = c.ResolveEmpty(h.sdk.SetFallbackPaywalls(ctx, paywalls))
}

func (h *sdkHandlers) setVariationID(ctx context.Context, c *Context) {
	variationID, ok := c.StringArgument(ArgVariationID)
	if !ok {
		_ = c.RejectMissingArgument(ArgVariationID)
		return
	}
	transactionID, ok := c.StringArgument(ArgTransactionID)
	if !ok {
		_ = c.RejectMissingArgument(ArgTransactionID)
		return
	}
	_ = c.ResolveEmpty(h.sdk.SetVariationID(ctx, variationID, transactionID))
}

func (h *sdkHandlers) setLogLevel(ctx context.Context, c *Context) {
	level, ok := c.StringArgument(ArgValue)
	if !ok {
		_ = c.RejectMissingArgument(ArgValue)
		return
	}
	_ = c.ResolveEmpty(h.sdk.SetLogLevel(ctx, level))
}

// presentCodeRedemptionSheet exists on iOS only.
func (h *sdkHandlers) presentCodeRedemptionSheet(ctx context.Context, c *Context) {
	if h.platform != adapty.PlatformIOS {
		_ = c.RejectNotImplemented()
		return
	}
	_ = c.ResolveEmpty(h.sdk.PresentCodeRedemptionSheet(ctx, c.Host))
}
