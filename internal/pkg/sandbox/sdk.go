package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/entitlements"
)

// Event is a host-reported analytics event.
type Event struct {
	Kind string
	Name string
	At   time.Time
}

const (
	EventPaywallShown        = "paywall_shown"
	EventOnboardingShown     = "onboarding_shown"
	EventCodeRedemptionShown = "code_redemption_shown"
)

// Option configures an SDK.
type Option func(*SDK)

// WithClock replaces the wall clock used for purchase dates.
func WithClock(now func() time.Time) Option {
	return func(s *SDK) { s.now = now }
}

// SDK is a self-contained implementation of the native subscription SDK.
// Purchases always succeed and are recorded as sandbox transactions.
type SDK struct {
	store    Store
	catalog  *Catalog
	platform adapty.Platform
	codec    *adapty.Codec
	now      func() time.Time

	mu           sync.Mutex
	activated    bool
	sdkKey       string
	observerMode bool
	profileKey   string
	fallback     *adapty.FallbackPaywalls
	variations   map[string]string
	events       []Event
	logLevel     string
}

func New(store Store, catalog *Catalog, platform adapty.Platform, opts ...Option) *SDK {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	s := &SDK{
		store:      store,
		catalog:    catalog,
		platform:   platform,
		codec:      adapty.NewCodec(),
		now:        time.Now,
		variations: make(map[string]string),
		logLevel:   "info",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedPaywalls publishes the catalog paywalls to the store. Paywalls already
// stored at a newer revision are kept.
func (s *SDK) SeedPaywalls(ctx context.Context) error {
	for i := range s.catalog.Paywalls {
		p := s.catalog.Paywalls[i]
		if err := s.PublishPaywall(ctx, &p); err != nil {
			if errors.Is(err, ErrStaleRevision) {
				log.Infof("[Sandbox] Keeping stored paywall %s: %v", p.ID, err)
				continue
			}
			return err
		}
	}
	return nil
}

// PublishPaywall stores p, rejecting it when a newer revision is stored.
func (s *SDK) PublishPaywall(ctx context.Context, p *adapty.Paywall) error {
	return s.store.SavePaywall(ctx, p)
}

func (s *SDK) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func profileKeyFor(customerUserID string) string {
	return "customer:" + customerUserID
}

func anonymousKey() string {
	return "anonymous:" + uuid.NewString()
}

// session returns the current profile key, failing when the SDK was never
// activated.
func (s *SDK) session() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activated {
		return "", bridge.NativeError(CodeNotActivated, "activate must be called first")
	}
	return s.profileKey, nil
}

func (s *SDK) loadOrCreate(ctx context.Context, key string, customerUserID *string) (*adapty.Profile, error) {
	p, err := s.store.LoadProfile(ctx, key)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p = &adapty.Profile{
		ProfileID:        uuid.NewString(),
		CustomerUserID:   customerUserID,
		CustomAttributes: map[string]interface{}{},
	}
	if err := s.store.SaveProfile(ctx, key, p); err != nil {
		return nil, err
	}
	log.Infof("[Sandbox] Created profile %s for %s", p.ProfileID, key)
	return p, nil
}

func (s *SDK) currentProfile(ctx context.Context) (string, *adapty.Profile, error) {
	key, err := s.session()
	if err != nil {
		return "", nil, err
	}
	p, err := s.store.LoadProfile(ctx, key)
	if err != nil {
		return "", nil, err
	}
	return key, p, nil
}

func (s *SDK) Activate(ctx context.Context, cfg bridge.ActivateConfig) error {
	s.mu.Lock()
	if s.activated {
		same := s.sdkKey == cfg.SDKKey
		s.mu.Unlock()
		if same {
			return nil
		}
		return bridge.NativeError(CodeAlreadyActivated, "sdk already activated with a different key")
	}
	s.mu.Unlock()

	key := anonymousKey()
	if cfg.CustomerUserID != nil {
		key = profileKeyFor(*cfg.CustomerUserID)
	}
	if _, err := s.loadOrCreate(ctx, key, cfg.CustomerUserID); err != nil {
		return nativeError(err)
	}

	s.mu.Lock()
	s.activated = true
	s.sdkKey = cfg.SDKKey
	s.observerMode = cfg.ObserverMode
	s.profileKey = key
	s.mu.Unlock()

	log.Infof("[Sandbox] Activated (observer mode: %t)", cfg.ObserverMode)
	return nil
}

func (s *SDK) GetPaywall(ctx context.Context, id string, locale *string) bridge.Result[*adapty.Paywall] {
	if _, err := s.session(); err != nil {
		return bridge.Failure[*adapty.Paywall](bridge.AsError(err))
	}

	p, err := s.store.LoadPaywall(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnf("[Sandbox] Loading paywall %s failed, trying fallback: %v", id, err)
		}
		s.mu.Lock()
		fallback := s.fallback
		s.mu.Unlock()

		var ok bool
		if fallback != nil {
			p, ok = fallback.Find(id)
		}
		if !ok {
			return bridge.Failure[*adapty.Paywall](bridge.NativeError(CodePaywallNotFound, fmt.Sprintf("paywall %s not found", id)))
		}
	}
	if locale != nil {
		p.Locale = *locale
	}
	return bridge.Success(p)
}

func (s *SDK) GetPaywallProducts(ctx context.Context, paywall adapty.Paywall) bridge.Result[[]adapty.Product] {
	_, profile, err := s.currentProfile(ctx)
	if err != nil {
		return bridge.Failure[[]adapty.Product](nativeError(err))
	}

	products := make([]adapty.Product, 0, len(paywall.VendorProductIDs))
	for _, id := range paywall.VendorProductIDs {
		item, ok := s.catalog.Lookup(id)
		if !ok {
			log.Warnf("[Sandbox] Paywall %s offers unknown product %s", paywall.ID, id)
			continue
		}
		products = append(products, item.product(s.platform, paywall, eligibility(profile, item)))
	}
	return bridge.Success(products)
}

// eligibility reports whether the profile may still use item's introductory
// offer.
func eligibility(profile *adapty.Profile, item CatalogItem) adapty.OfferEligibility {
	if item.IntroductoryDiscount == nil {
		return adapty.OfferEligibilityIneligible
	}
	if _, had := profile.Subscriptions[item.VendorProductID]; had {
		return adapty.OfferEligibilityIneligible
	}
	return adapty.OfferEligibilityEligible
}

func (s *SDK) GetProfile(ctx context.Context) bridge.Result[*adapty.Profile] {
	_, p, err := s.currentProfile(ctx)
	if err != nil {
		return bridge.Failure[*adapty.Profile](nativeError(err))
	}
	entitlements.Expire(p, s.clock())
	return bridge.Success(p)
}

func (s *SDK) Identify(ctx context.Context, customerUserID string) error {
	if _, err := s.session(); err != nil {
		return err
	}
	key := profileKeyFor(customerUserID)
	if _, err := s.loadOrCreate(ctx, key, &customerUserID); err != nil {
		return nativeError(err)
	}
	s.mu.Lock()
	s.profileKey = key
	s.mu.Unlock()
	return nil
}

// Logout switches to a fresh anonymous profile.
func (s *SDK) Logout(ctx context.Context) error {
	if _, err := s.session(); err != nil {
		return err
	}
	key := anonymousKey()
	if _, err := s.loadOrCreate(ctx, key, nil); err != nil {
		return nativeError(err)
	}
	s.mu.Lock()
	s.profileKey = key
	s.mu.Unlock()
	return nil
}

// UpdateProfile merges the set parameters into customAttributes. Codable
// custom attributes are merged at the top level.
func (s *SDK) UpdateProfile(ctx context.Context, params adapty.ProfileParameters) error {
	key, p, err := s.currentProfile(ctx)
	if err != nil {
		return nativeError(err)
	}
	attrs, err := params.Attributes()
	if err != nil {
		return nativeError(err)
	}

	if p.CustomAttributes == nil {
		p.CustomAttributes = map[string]interface{}{}
	}
	if codable, ok := attrs["codableCustomAttributes"].(map[string]interface{}); ok {
		for k, v := range codable {
			p.CustomAttributes[k] = v
		}
		delete(attrs, "codableCustomAttributes")
	}
	for k, v := range attrs {
		p.CustomAttributes[k] = v
	}
	if err := s.store.SaveProfile(ctx, key, p); err != nil {
		return nativeError(err)
	}
	return nil
}

// UpdateAttribution stores the attribution under "attribution.<source>".
func (s *SDK) UpdateAttribution(ctx context.Context, attribution map[string]interface{}, source string, networkUserID *string) error {
	key, p, err := s.currentProfile(ctx)
	if err != nil {
		return nativeError(err)
	}
	entry := map[string]interface{}{}
	for k, v := range attribution {
		entry[k] = v
	}
	if networkUserID != nil {
		entry["networkUserId"] = *networkUserID
	}
	if p.CustomAttributes == nil {
		p.CustomAttributes = map[string]interface{}{}
	}
	p.CustomAttributes["attribution."+strings.ToLower(source)] = entry
	if err := s.store.SaveProfile(ctx, key, p); err != nil {
		return nativeError(err)
	}
	return nil
}

// RestorePurchases re-reads the profile and expires lapsed subscriptions.
func (s *SDK) RestorePurchases(ctx context.Context) bridge.Result[*adapty.Profile] {
	key, p, err := s.currentProfile(ctx)
	if err != nil {
		return bridge.Failure[*adapty.Profile](nativeError(err))
	}
	entitlements.Expire(p, s.clock())
	if err := s.store.SaveProfile(ctx, key, p); err != nil {
		return bridge.Failure[*adapty.Profile](nativeError(err))
	}
	return bridge.Success(p)
}

func (s *SDK) record(kind, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Kind: kind, Name: name, At: s.clock()})
}

// Events returns the analytics events logged so far.
func (s *SDK) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *SDK) LogShowPaywall(_ context.Context, paywall adapty.Paywall) error {
	if _, err := s.session(); err != nil {
		return err
	}
	s.record(EventPaywallShown, paywall.ID)
	return nil
}

func (s *SDK) LogShowOnboarding(_ context.Context, params adapty.OnboardingScreenParameters) error {
	if _, err := s.session(); err != nil {
		return err
	}
	name := fmt.Sprintf("screen %d", params.ScreenOrder)
	if params.ScreenName != nil {
		name = *params.ScreenName
	}
	if params.Name != nil {
		name = *params.Name + "/" + name
	}
	s.record(EventOnboardingShown, name)
	return nil
}

// SetFallbackPaywalls installs the paywalls served when the store has none.
// It may be called before activation.
func (s *SDK) SetFallbackPaywalls(_ context.Context, paywalls string) error {
	var fallback adapty.FallbackPaywalls
	if err := s.codec.Decode([]byte(paywalls), &fallback); err != nil {
		return bridge.AsError(err)
	}
	s.mu.Lock()
	s.fallback = &fallback
	s.mu.Unlock()
	log.Infof("[Sandbox] Installed %d fallback paywalls", len(fallback.Paywalls))
	return nil
}

func (s *SDK) SetVariationID(_ context.Context, variationID, transactionID string) error {
	if _, err := s.session(); err != nil {
		return err
	}
	s.mu.Lock()
	s.variations[transactionID] = variationID
	s.mu.Unlock()
	return nil
}

// VariationFor returns the paywall variation a transaction was attributed to.
func (s *SDK) VariationFor(transactionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.variations[transactionID]
	return v, ok
}

var logLevels = map[string]log.Level{
	"error":   log.LevelError,
	"warn":    log.LevelWarn,
	"info":    log.LevelInfo,
	"verbose": log.LevelDebug,
	"debug":   log.LevelDebug,
}

func (s *SDK) SetLogLevel(_ context.Context, level string) error {
	lvl, ok := logLevels[strings.ToLower(level)]
	if !ok {
		return bridge.NativeError(CodeInvalidLogLevel, fmt.Sprintf("unknown log level %q", level))
	}
	log.SetLevel(lvl)
	s.mu.Lock()
	s.logLevel = strings.ToLower(level)
	s.mu.Unlock()
	return nil
}

func (s *SDK) LogLevel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logLevel
}

func (s *SDK) PresentCodeRedemptionSheet(_ context.Context, host bridge.HostUI) error {
	if _, err := s.session(); err != nil {
		return err
	}
	name := ""
	if host != nil {
		name = host.ID()
	}
	s.record(EventCodeRedemptionShown, name)
	return nil
}
