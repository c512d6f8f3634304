package bridge

import (
	"context"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// Method names the host calls.
const (
	MethodActivate                   = "activate"
	MethodGetPaywall                 = "get_paywall"
	MethodGetPaywallProducts         = "get_paywall_products"
	MethodGetProfile                 = "get_profile"
	MethodIdentify                   = "identify"
	MethodLogout                     = "logout"
	MethodUpdateProfile              = "update_profile"
	MethodUpdateAttribution          = "update_attribution"
	MethodMakePurchase               = "make_purchase"
	MethodRestorePurchases           = "restore_purchases"
	MethodLogShowPaywall             = "log_show_paywall"
	MethodLogShowOnboarding          = "log_show_onboarding"
	MethodSetFallbackPaywalls        = "set_fallback_paywalls"
	MethodSetVariationID             = "set_variation_id"
	MethodSetLogLevel                = "set_log_level"
	MethodPresentCodeRedemptionSheet = "present_code_redemption_sheet"
)

// Argument keys.
const (
	ArgSDKKey           = "sdk_key"
	ArgUserID           = "user_id"
	ArgObserverMode     = "observer_mode"
	ArgPaywallID        = "paywall_id"
	ArgLocale           = "locale"
	ArgPaywall          = "paywall"
	ArgParams           = "params"
	ArgAttribution      = "attribution"
	ArgSource           = "source"
	ArgNetworkUserID    = "network_user_id"
	ArgProduct          = "product"
	ArgOnboardingParams = "onboarding_params"
	ArgPaywalls         = "paywalls"
	ArgVariationID      = "variation_id"
	ArgTransactionID    = "transaction_id"
	ArgValue            = "value"
)

type ActivateConfig struct {
	SDKKey         string
	CustomerUserID *string
	ObserverMode   bool
}

// SDK is the native subscription SDK behind the bridge. Calls that produce
// a payload report a Result, the others report only an error.
type SDK interface {
	Activate(ctx context.Context, cfg ActivateConfig) error
	GetPaywall(ctx context.Context, id string, locale *string) Result[*adapty.Paywall]
	GetPaywallProducts(ctx context.Context, paywall adapty.Paywall) Result[[]adapty.Product]
	GetProfile(ctx context.Context) Result[*adapty.Profile]
	Identify(ctx context.Context, customerUserID string) error
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, params adapty.ProfileParameters) error
	UpdateAttribution(ctx context.Context, attribution map[string]interface{}, source string, networkUserID *string) error
	MakePurchase(ctx context.Context, host HostUI, product adapty.Product) Result[*adapty.Profile]
	RestorePurchases(ctx context.Context) Result[*adapty.Profile]
	LogShowPaywall(ctx context.Context, paywall adapty.Paywall) error
	LogShowOnboarding(ctx context.Context, params adapty.OnboardingScreenParameters) error
	SetFallbackPaywalls(ctx context.Context, paywalls string) error
	SetVariationID(ctx context.Context, variationID, transactionID string) error
	SetLogLevel(ctx context.Context, level string) error
	PresentCodeRedemptionSheet(ctx context.Context, host HostUI) error
}
