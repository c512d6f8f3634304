package adapty

import (
	"encoding/json"
	"fmt"
)

// VendorStore is the store a purchase was made in.
type VendorStore string

const (
	VendorStoreAppStore  VendorStore = "app_store"
	VendorStorePlayStore VendorStore = "play_store"
	VendorStoreAdapty    VendorStore = "adapty"
)

// OfferType is the kind of introductory or promotional offer.
type OfferType string

const (
	OfferTypeFreeTrial  OfferType = "free_trial"
	OfferTypePayAsYouGo OfferType = "pay_as_you_go"
	OfferTypePayUpFront OfferType = "pay_up_front"
)

// CancellationReason explains why a subscription was cancelled.
type CancellationReason string

const (
	CancellationReasonVoluntarilyCancelled   CancellationReason = "voluntarily_cancelled"
	CancellationReasonBillingError           CancellationReason = "billing_error"
	CancellationReasonRefund                 CancellationReason = "refund"
	CancellationReasonPriceIncrease          CancellationReason = "price_increase"
	CancellationReasonProductWasNotAvailable CancellationReason = "product_was_not_available"
	CancellationReasonUnknown                CancellationReason = "unknown"
)

type Gender string

const (
	GenderFemale Gender = "f"
	GenderMale   Gender = "m"
	GenderOther  Gender = "o"
)

// AppTrackingTransparencyStatus mirrors the iOS ATT authorization status.
type AppTrackingTransparencyStatus string

const (
	AppTrackingTransparencyStatusNotDetermined AppTrackingTransparencyStatus = "not_determined"
	AppTrackingTransparencyStatusRestricted    AppTrackingTransparencyStatus = "restricted"
	AppTrackingTransparencyStatusDenied        AppTrackingTransparencyStatus = "denied"
	AppTrackingTransparencyStatusAuthorized    AppTrackingTransparencyStatus = "authorized"
	AppTrackingTransparencyStatusUnknown       AppTrackingTransparencyStatus = "unknown"
)

// ProductPeriod is the unit of a subscription period.
type ProductPeriod string

const (
	ProductPeriodDay   ProductPeriod = "day"
	ProductPeriodWeek  ProductPeriod = "week"
	ProductPeriodMonth ProductPeriod = "month"
	ProductPeriodYear  ProductPeriod = "year"
)

// OfferEligibility tells whether the user may redeem an offer.
type OfferEligibility string

const (
	OfferEligibilityEligible   OfferEligibility = "eligible"
	OfferEligibilityIneligible OfferEligibility = "ineligible"
	OfferEligibilityUnknown    OfferEligibility = "unknown"
)

var vendorStores = []VendorStore{VendorStoreAppStore, VendorStorePlayStore, VendorStoreAdapty}

var offerTypes = []OfferType{OfferTypeFreeTrial, OfferTypePayAsYouGo, OfferTypePayUpFront}

var cancellationReasons = []CancellationReason{
	CancellationReasonVoluntarilyCancelled,
	CancellationReasonBillingError,
	CancellationReasonRefund,
	CancellationReasonPriceIncrease,
	CancellationReasonProductWasNotAvailable,
	CancellationReasonUnknown,
}

var genders = []Gender{GenderFemale, GenderMale, GenderOther}

var trackingStatuses = []AppTrackingTransparencyStatus{
	AppTrackingTransparencyStatusNotDetermined,
	AppTrackingTransparencyStatusRestricted,
	AppTrackingTransparencyStatusDenied,
	AppTrackingTransparencyStatusAuthorized,
	AppTrackingTransparencyStatusUnknown,
}

var productPeriods = []ProductPeriod{ProductPeriodDay, ProductPeriodWeek, ProductPeriodMonth, ProductPeriodYear}

var offerEligibilities = []OfferEligibility{OfferEligibilityEligible, OfferEligibilityIneligible, OfferEligibilityUnknown}

// parseEnum matches token against known. Unrecognized tokens map to
// fallback when the enumeration has an Unknown member, otherwise fail.
func parseEnum[T ~string](enum, token string, known []T, fallback *T) (T, error) {
	for _, k := range known {
		if string(k) == token {
			return k, nil
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	var zero T
	return zero, &UnrecognizedEnumValueError{Enum: enum, Value: token}
}

func unmarshalEnum[T ~string](data []byte, enum string, known []T, fallback *T, dst *T) error {
	if string(data) == "null" {
		return nil
	}
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("%s: %w", enum, err)
	}
	v, err := parseEnum(enum, token, known, fallback)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// marshalEnum refuses to put a token on the wire that the other side could
// not decode.
func marshalEnum[T ~string](enum string, v T, known []T) ([]byte, error) {
	if _, err := parseEnum(enum, string(v), known, nil); err != nil {
		return nil, err
	}
	return json.Marshal(string(v))
}

func ParseVendorStore(s string) (VendorStore, error) {
	return parseEnum("VendorStore", s, vendorStores, nil)
}

func (s *VendorStore) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "VendorStore", vendorStores, nil, s)
}

func (s VendorStore) MarshalJSON() ([]byte, error) {
	return marshalEnum("VendorStore", s, vendorStores)
}

func ParseOfferType(s string) (OfferType, error) {
	return parseEnum("OfferType", s, offerTypes, nil)
}

func (t *OfferType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "OfferType", offerTypes, nil, t)
}

func (t OfferType) MarshalJSON() ([]byte, error) {
	return marshalEnum("OfferType", t, offerTypes)
}

func ParseCancellationReason(s string) CancellationReason {
	fallback := CancellationReasonUnknown
	r, _ := parseEnum("CancellationReason", s, cancellationReasons, &fallback)
	return r
}

func (r *CancellationReason) UnmarshalJSON(data []byte) error {
	fallback := CancellationReasonUnknown
	return unmarshalEnum(data, "CancellationReason", cancellationReasons, &fallback, r)
}

func (r CancellationReason) MarshalJSON() ([]byte, error) {
	return marshalEnum("CancellationReason", r, cancellationReasons)
}

func ParseGender(s string) (Gender, error) {
	return parseEnum("Gender", s, genders, nil)
}

func (g *Gender) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "Gender", genders, nil, g)
}

func (g Gender) MarshalJSON() ([]byte, error) {
	return marshalEnum("Gender", g, genders)
}

func ParseAppTrackingTransparencyStatus(s string) AppTrackingTransparencyStatus {
	fallback := AppTrackingTransparencyStatusUnknown
	st, _ := parseEnum("AppTrackingTransparencyStatus", s, trackingStatuses, &fallback)
	return st
}

func (s *AppTrackingTransparencyStatus) UnmarshalJSON(data []byte) error {
	fallback := AppTrackingTransparencyStatusUnknown
	return unmarshalEnum(data, "AppTrackingTransparencyStatus", trackingStatuses, &fallback, s)
}

func (s AppTrackingTransparencyStatus) MarshalJSON() ([]byte, error) {
	return marshalEnum("AppTrackingTransparencyStatus", s, trackingStatuses)
}

func ParseProductPeriod(s string) (ProductPeriod, error) {
	return parseEnum("ProductPeriod", s, productPeriods, nil)
}

func (p *ProductPeriod) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "ProductPeriod", productPeriods, nil, p)
}

func (p ProductPeriod) MarshalJSON() ([]byte, error) {
	return marshalEnum("ProductPeriod", p, productPeriods)
}

func ParseOfferEligibility(s string) OfferEligibility {
	fallback := OfferEligibilityUnknown
	e, _ := parseEnum("OfferEligibility", s, offerEligibilities, &fallback)
	return e
}

func (e *OfferEligibility) UnmarshalJSON(data []byte) error {
	fallback := OfferEligibilityUnknown
	return unmarshalEnum(data, "OfferEligibility", offerEligibilities, &fallback, e)
}

func (e OfferEligibility) MarshalJSON() ([]byte, error) {
	return marshalEnum("OfferEligibility", e, offerEligibilities)
}
