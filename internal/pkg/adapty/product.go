package adapty

import "encoding/json"

// Platform identifies which native SDK produced a payload.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

func ParsePlatform(s string) (Platform, error) {
	return parseEnum("Platform", s, []Platform{PlatformAndroid, PlatformIOS}, nil)
}

// SubscriptionPeriod is a billing cadence such as "3 months".
type SubscriptionPeriod struct {
	NumberOfUnits int           `json:"numberOfUnits" validate:"gt=0"`
	Unit          ProductPeriod `json:"unit"`
}

// ProductDiscount is a promotional price adjustment.
type ProductDiscount struct {
	NumberOfPeriods             int                 `json:"numberOfPeriods" validate:"gt=0"`
	Price                       float64             `json:"price"`
	SubscriptionPeriod          SubscriptionPeriod  `json:"subscriptionPeriod"`
	LocalizedNumberOfPeriods    *string             `json:"localizedNumberOfPeriods,omitempty"`
	LocalizedPrice              *string             `json:"localizedPrice,omitempty"`
	LocalizedSubscriptionPeriod *string             `json:"localizedSubscriptionPeriod,omitempty"`
	IOS                         *ProductDiscountIOS `json:"ios,omitempty"`
}

type ProductDiscountIOS struct {
	Identifier  *string   `json:"identifier,omitempty"`
	PaymentMode OfferType `json:"paymentMode"`
}

// Product is a purchasable SKU enriched with the context of the paywall it
// was fetched for. At most one of Android and IOS is expected to be set for
// a given build; both may be absent on older payloads.
type Product struct {
	VendorProductID              string              `json:"vendorProductId" validate:"required"`
	Price                        float64             `json:"price" validate:"gte=0"`
	CurrencyCode                 *string             `json:"currencyCode,omitempty"`
	CurrencySymbol               *string             `json:"currencySymbol,omitempty"`
	LocalizedTitle               string              `json:"localizedTitle"`
	LocalizedDescription         string              `json:"localizedDescription"`
	LocalizedPrice               *string             `json:"localizedPrice,omitempty"`
	LocalizedSubscriptionPeriod  *string             `json:"localizedSubscriptionPeriod,omitempty"`
	SubscriptionPeriod           *SubscriptionPeriod `json:"subscriptionPeriod,omitempty"`
	IntroductoryOfferEligibility OfferEligibility    `json:"introductoryOfferEligibility"`
	IntroductoryDiscount         *ProductDiscount    `json:"introductoryDiscount,omitempty"`
	PaywallABTestName            string              `json:"paywallABTestName"`
	PaywallName                  string              `json:"paywallName"`
	VariationID                  string              `json:"variationId"`
	Android                      *ProductAndroid     `json:"android,omitempty"`
	IOS                          *ProductIOS         `json:"ios,omitempty"`
}

type ProductAndroid struct {
	FreeTrialPeriod          *SubscriptionPeriod `json:"freeTrialPeriod,omitempty"`
	LocalizedFreeTrialPeriod *string             `json:"localizedFreeTrialPeriod,omitempty"`
}

type ProductIOS struct {
	Discounts                   []ProductDiscount `json:"discounts" validate:"dive"`
	IsFamilyShareable           bool              `json:"isFamilyShareable"`
	PromotionalOfferEligibility OfferEligibility  `json:"promotionalOfferEligibility"`
	PromotionalOfferID          *string           `json:"promotionalOfferId,omitempty"`
	RegionCode                  *string           `json:"regionCode,omitempty"`
	SubscriptionGroupIdentifier *string           `json:"subscriptionGroupIdentifier,omitempty"`
}

func (p *SubscriptionPeriod) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "SubscriptionPeriod", "numberOfUnits", "unit"); err != nil {
		return err
	}
	type plain SubscriptionPeriod
	return json.Unmarshal(data, (*plain)(p))
}

func (d *ProductDiscount) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "ProductDiscount", "numberOfPeriods", "price", "subscriptionPeriod"); err != nil {
		return err
	}
	type plain ProductDiscount
	return json.Unmarshal(data, (*plain)(d))
}

func (d *ProductDiscountIOS) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "ProductDiscount.ios", "paymentMode"); err != nil {
		return err
	}
	type plain ProductDiscountIOS
	return json.Unmarshal(data, (*plain)(d))
}

func (p *Product) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Product",
		"vendorProductId", "price", "localizedTitle", "localizedDescription",
		"introductoryOfferEligibility", "paywallABTestName", "paywallName", "variationId"); err != nil {
		return err
	}
	type plain Product
	return json.Unmarshal(data, (*plain)(p))
}

func (i *ProductIOS) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Product.ios", "discounts", "isFamilyShareable", "promotionalOfferEligibility"); err != nil {
		return err
	}
	type plain ProductIOS
	return json.Unmarshal(data, (*plain)(i))
}

func (p *SubscriptionPeriod) Validate() error {
	return validateStruct("SubscriptionPeriod", p)
}

func (d *ProductDiscount) Validate() error {
	return validateStruct("ProductDiscount", d)
}

func (p *Product) Validate() error {
	return validateStruct("Product", p)
}

// HasPlatformExtension reports whether the extension block of platform is
// present.
func (p *Product) HasPlatformExtension(platform Platform) bool {
	switch platform {
	case PlatformAndroid:
		return p.Android != nil
	case PlatformIOS:
		return p.IOS != nil
	default:
		return false
	}
}

// ForeignExtension reports whether the product carries the extension block
// of a platform other than the running one.
func (p *Product) ForeignExtension(running Platform) bool {
	switch running {
	case PlatformAndroid:
		return p.IOS != nil
	case PlatformIOS:
		return p.Android != nil
	default:
		return p.Android != nil || p.IOS != nil
	}
}

// IsSubscription reports whether the product renews on a period.
func (p *Product) IsSubscription() bool {
	return p.SubscriptionPeriod != nil
}
