package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// CatalogItem is a store product as the sandbox sells it.
type CatalogItem struct {
	VendorProductID      string                     `json:"vendorProductId" validate:"required"`
	Price                float64                    `json:"price" validate:"gte=0"`
	CurrencyCode         string                     `json:"currencyCode" validate:"required,len=3"`
	CurrencySymbol       string                     `json:"currencySymbol"`
	Title                string                     `json:"title" validate:"required"`
	Description          string                     `json:"description"`
	RegionCode           string                     `json:"regionCode,omitempty"`
	SubscriptionPeriod   *adapty.SubscriptionPeriod `json:"subscriptionPeriod,omitempty"`
	SubscriptionGroup    string                     `json:"subscriptionGroup,omitempty"`
	IntroductoryDiscount *adapty.ProductDiscount    `json:"introductoryDiscount,omitempty"`
	AccessLevel          string                     `json:"accessLevel,omitempty"`
	Consumable           bool                       `json:"consumable"`
}

// Catalog is the product list plus the paywalls seeded at startup.
type Catalog struct {
	Products []CatalogItem    `json:"products" validate:"dive"`
	Paywalls []adapty.Paywall `json:"paywalls"`

	index map[string]CatalogItem
}

var catalogValidator = validator.New()

// LoadCatalog reads a catalog document from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := catalogValidator.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	for i := range c.Paywalls {
		if err := c.Paywalls[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog paywall %d: %w", i, err)
		}
	}
	c.reindex()
	return &c, nil
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	c := &Catalog{
		Products: []CatalogItem{
			{
				VendorProductID:    "monthly.premium",
				Price:              4.99,
				CurrencyCode:       "USD",
				CurrencySymbol:     "$",
				Title:              "Premium Monthly",
				Description:        "All premium features, billed monthly",
				SubscriptionPeriod: &adapty.SubscriptionPeriod{NumberOfUnits: 1, Unit: adapty.ProductPeriodMonth},
				SubscriptionGroup:  "premium",
				IntroductoryDiscount: &adapty.ProductDiscount{
					NumberOfPeriods:    1,
					Price:              0,
					SubscriptionPeriod: adapty.SubscriptionPeriod{NumberOfUnits: 1, Unit: adapty.ProductPeriodWeek},
					LocalizedPrice:     adapty.Ptr("Free"),
				},
				AccessLevel: "premium",
			},
			{
				VendorProductID:    "yearly.premium",
				Price:              39.99,
				CurrencyCode:       "USD",
				CurrencySymbol:     "$",
				Title:              "Premium Yearly",
				Description:        "All premium features, billed yearly",
				SubscriptionPeriod: &adapty.SubscriptionPeriod{NumberOfUnits: 1, Unit: adapty.ProductPeriodYear},
				SubscriptionGroup:  "premium",
				AccessLevel:        "premium",
			},
			{
				VendorProductID: "lifetime.premium",
				Price:           99.99,
				CurrencyCode:    "USD",
				CurrencySymbol:  "$",
				Title:           "Premium Forever",
				AccessLevel:     "premium",
			},
			{
				VendorProductID: "coins.100",
				Price:           0.99,
				CurrencyCode:    "USD",
				CurrencySymbol:  "$",
				Title:           "100 Coins",
				Consumable:      true,
			},
		},
		Paywalls: []adapty.Paywall{
			{
				ID:               "main",
				ABTestName:       "default",
				VariationID:      "main-default",
				Revision:         1,
				Locale:           "en",
				Name:             adapty.Ptr("Main paywall"),
				VendorProductIDs: []string{"monthly.premium", "yearly.premium", "lifetime.premium"},
			},
		},
	}
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	c.index = make(map[string]CatalogItem, len(c.Products))
	for _, item := range c.Products {
		c.index[item.VendorProductID] = item
	}
}

func (c *Catalog) Lookup(vendorProductID string) (CatalogItem, bool) {
	item, ok := c.index[vendorProductID]
	return item, ok
}

func (it CatalogItem) IsSubscription() bool {
	return it.SubscriptionPeriod != nil
}

func (it CatalogItem) localizedPrice(price float64) string {
	return fmt.Sprintf("%s%.2f", it.CurrencySymbol, price)
}

// localizePeriod renders a period the way store UIs do, e.g. "3 months".
func localizePeriod(p adapty.SubscriptionPeriod) string {
	unit := string(p.Unit)
	if p.NumberOfUnits != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", p.NumberOfUnits, unit)
}

// addPeriods moves t forward by n consecutive periods, at least one.
func addPeriods(t time.Time, p adapty.SubscriptionPeriod, n int) time.Time {
	if n > 1 {
		p.NumberOfUnits *= n
	}
	return addPeriod(t, p)
}

// addPeriod moves t forward by one period.
func addPeriod(t time.Time, p adapty.SubscriptionPeriod) time.Time {
	switch p.Unit {
	case adapty.ProductPeriodDay:
		return t.AddDate(0, 0, p.NumberOfUnits)
	case adapty.ProductPeriodWeek:
		return t.AddDate(0, 0, 7*p.NumberOfUnits)
	case adapty.ProductPeriodMonth:
		return t.AddDate(0, p.NumberOfUnits, 0)
	default:
		return t.AddDate(p.NumberOfUnits, 0, 0)
	}
}

// product renders the catalog item as offered on paywall for platform.
func (it CatalogItem) product(platform adapty.Platform, paywall adapty.Paywall, eligibility adapty.OfferEligibility) adapty.Product {
	name := paywall.ID
	if paywall.Name != nil {
		name = *paywall.Name
	}

	p := adapty.Product{
		VendorProductID:              it.VendorProductID,
		Price:                        it.Price,
		CurrencyCode:                 adapty.Ptr(it.CurrencyCode),
		LocalizedTitle:               it.Title,
		LocalizedDescription:         it.Description,
		LocalizedPrice:               adapty.Ptr(it.localizedPrice(it.Price)),
		IntroductoryOfferEligibility: eligibility,
		PaywallABTestName:            paywall.ABTestName,
		PaywallName:                  name,
		VariationID:                  paywall.VariationID,
	}
	if it.CurrencySymbol != "" {
		p.CurrencySymbol = adapty.Ptr(it.CurrencySymbol)
	}
	if it.SubscriptionPeriod != nil {
		period := *it.SubscriptionPeriod
		p.SubscriptionPeriod = &period
		p.LocalizedSubscriptionPeriod = adapty.Ptr(localizePeriod(period))
	}
	if it.IntroductoryDiscount != nil {
		d := *it.IntroductoryDiscount
		if d.LocalizedPrice == nil {
			d.LocalizedPrice = adapty.Ptr(it.localizedPrice(d.Price))
		}
		if d.LocalizedSubscriptionPeriod == nil {
			d.LocalizedSubscriptionPeriod = adapty.Ptr(localizePeriod(d.SubscriptionPeriod))
		}
		p.IntroductoryDiscount = &d
	}

	switch platform {
	case adapty.PlatformAndroid:
		android := &adapty.ProductAndroid{}
		if d := p.IntroductoryDiscount; d != nil {
			d.IOS = nil
			if d.Price == 0 {
				trial := d.SubscriptionPeriod
				android.FreeTrialPeriod = &trial
				android.LocalizedFreeTrialPeriod = d.LocalizedSubscriptionPeriod
			}
		}
		p.Android = android
	case adapty.PlatformIOS:
		ios := &adapty.ProductIOS{
			Discounts:                   []adapty.ProductDiscount{},
			PromotionalOfferEligibility: adapty.OfferEligibilityIneligible,
		}
		if it.RegionCode != "" {
			ios.RegionCode = adapty.Ptr(it.RegionCode)
		}
		if it.SubscriptionGroup != "" {
			ios.SubscriptionGroupIdentifier = adapty.Ptr(it.SubscriptionGroup)
		}
		if d := p.IntroductoryDiscount; d != nil && d.IOS == nil {
			mode := adapty.OfferTypePayUpFront
			if d.Price == 0 {
				mode = adapty.OfferTypeFreeTrial
			}
			d.IOS = &adapty.ProductDiscountIOS{PaymentMode: mode}
		}
		p.IOS = ios
	}
	return p
}

// offerType is the introductory offer a first purchase of it runs under.
func (it CatalogItem) offerType() *adapty.OfferType {
	d := it.IntroductoryDiscount
	if d == nil {
		return nil
	}
	if d.IOS != nil {
		mode := d.IOS.PaymentMode
		return &mode
	}
	mode := adapty.OfferTypePayUpFront
	if d.Price == 0 {
		mode = adapty.OfferTypeFreeTrial
	}
	return &mode
}

func vendorStore(platform adapty.Platform) adapty.VendorStore {
	if strings.EqualFold(string(platform), string(adapty.PlatformIOS)) {
		return adapty.VendorStoreAppStore
	}
	return adapty.VendorStorePlayStore
}
