package adapty

import (
	"encoding/json"
	"time"
)

// Profile is a user's entitlement state as last reported by the backend.
// Profiles are snapshots: a newer one replaces an older one wholesale.
type Profile struct {
	ProfileID        string                       `json:"profileId" validate:"required"`
	CustomerUserID   *string                      `json:"customerUserId,omitempty"`
	AccessLevels     map[string]AccessLevel       `json:"accessLevels,omitempty" validate:"dive"`
	Subscriptions    map[string]Subscription      `json:"subscriptions,omitempty" validate:"dive"`
	NonSubscriptions map[string][]NonSubscription `json:"nonSubscriptions,omitempty" validate:"dive,dive"`
	CustomAttributes map[string]interface{}       `json:"customAttributes"`
}

// AccessLevel is the activation state of one entitlement tier. IsActive is
// authoritative; it is never recomputed from the dates.
type AccessLevel struct {
	ID                          string              `json:"id" validate:"required"`
	IsActive                    bool                `json:"isActive"`
	IsLifetime                  bool                `json:"isLifetime"`
	IsInGracePeriod             bool                `json:"isInGracePeriod"`
	IsRefund                    bool                `json:"isRefund"`
	WillRenew                   bool                `json:"willRenew"`
	ActivatedAt                 time.Time           `json:"activatedAt"`
	ExpiresAt                   *time.Time          `json:"expiresAt,omitempty"`
	StartsAt                    *time.Time          `json:"startsAt,omitempty"`
	RenewedAt                   *time.Time          `json:"renewedAt,omitempty"`
	UnsubscribedAt              *time.Time          `json:"unsubscribedAt,omitempty"`
	BillingIssueDetectedAt      *time.Time          `json:"billingIssueDetectedAt,omitempty"`
	VendorProductID             string              `json:"vendorProductId"`
	Store                       VendorStore         `json:"store"`
	ActiveIntroductoryOfferType *OfferType          `json:"activeIntroductoryOfferType,omitempty"`
	ActivePromotionalOfferType  *OfferType          `json:"activePromotionalOfferType,omitempty"`
	ActivePromotionalOfferID    *string             `json:"activePromotionalOfferId,omitempty"`
	CancellationReason          *CancellationReason `json:"cancellationReason,omitempty"`
}

// Subscription is the lifecycle of one recurring purchase.
type Subscription struct {
	IsActive                    bool                `json:"isActive"`
	IsLifetime                  bool                `json:"isLifetime"`
	IsInGracePeriod             bool                `json:"isInGracePeriod"`
	IsRefund                    bool                `json:"isRefund"`
	IsSandbox                   bool                `json:"isSandbox"`
	WillRenew                   bool                `json:"willRenew"`
	ActivatedAt                 time.Time           `json:"activatedAt"`
	ExpiresAt                   *time.Time          `json:"expiresAt,omitempty"`
	StartsAt                    *time.Time          `json:"startsAt,omitempty"`
	RenewedAt                   *time.Time          `json:"renewedAt,omitempty"`
	UnsubscribedAt              *time.Time          `json:"unsubscribedAt,omitempty"`
	BillingIssueDetectedAt      *time.Time          `json:"billingIssueDetectedAt,omitempty"`
	VendorProductID             string              `json:"vendorProductId"`
	VendorTransactionID         string              `json:"vendorTransactionId"`
	VendorOriginalTransactionID string              `json:"vendorOriginalTransactionId"`
	Store                       VendorStore         `json:"store"`
	ActiveIntroductoryOfferType *OfferType          `json:"activeIntroductoryOfferType,omitempty"`
	ActivePromotionalOfferType  *OfferType          `json:"activePromotionalOfferType,omitempty"`
	ActivePromotionalOfferID    *string             `json:"activePromotionalOfferId,omitempty"`
	CancellationReason          *CancellationReason `json:"cancellationReason,omitempty"`
}

// NonSubscription is a consumable or one-time purchase.
type NonSubscription struct {
	PurchaseID          string      `json:"purchaseId" validate:"required"`
	PurchasedAt         time.Time   `json:"purchasedAt"`
	IsOneTime           bool        `json:"isOneTime"`
	IsRefund            bool        `json:"isRefund"`
	IsSandbox           bool        `json:"isSandbox"`
	Store               VendorStore `json:"store"`
	VendorProductID     string      `json:"vendorProductId"`
	VendorTransactionID *string     `json:"vendorTransactionId,omitempty"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Profile", "profileId", "customAttributes"); err != nil {
		return err
	}
	if err := rejectNullValues(data, "nonSubscriptions", "NonSubscription"); err != nil {
		return err
	}
	type plain Profile
	return json.Unmarshal(data, (*plain)(p))
}

// MarshalJSON always emits customAttributes, as an empty object when unset.
func (p Profile) MarshalJSON() ([]byte, error) {
	type plain Profile
	out := plain(p)
	if out.CustomAttributes == nil {
		out.CustomAttributes = map[string]interface{}{}
	}
	return json.Marshal(out)
}

// Validate checks the profile and every record it carries.
func (p *Profile) Validate() error {
	if err := validateStruct("Profile", p); err != nil {
		return err
	}
	for _, al := range p.AccessLevels {
		if al.IsLifetime && al.ExpiresAt != nil {
			return &InvariantError{Entity: "AccessLevel", Field: "expiresAt", Rule: "absent_if_lifetime"}
		}
	}
	for _, s := range p.Subscriptions {
		if err := s.validateChain(); err != nil {
			return err
		}
	}
	return nil
}

// IsFirstInChain reports whether this is the original transaction of its
// renewal chain.
func (s Subscription) IsFirstInChain() bool {
	return s.VendorTransactionID == s.VendorOriginalTransactionID
}

func (s Subscription) validateChain() error {
	if s.IsLifetime && s.ExpiresAt != nil {
		return &InvariantError{Entity: "Subscription", Field: "expiresAt", Rule: "absent_if_lifetime"}
	}
	if s.IsFirstInChain() && s.RenewedAt != nil {
		return &InvariantError{Entity: "Subscription", Field: "renewedAt", Rule: "absent_if_first_in_chain"}
	}
	return nil
}

func (a *AccessLevel) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "AccessLevel",
		"id", "isActive", "isLifetime", "isInGracePeriod", "isRefund", "willRenew",
		"activatedAt", "vendorProductId", "store"); err != nil {
		return err
	}
	type plain AccessLevel
	return json.Unmarshal(data, (*plain)(a))
}

func (s *Subscription) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Subscription",
		"isActive", "isLifetime", "isInGracePeriod", "isRefund", "isSandbox", "willRenew",
		"activatedAt", "vendorProductId", "vendorTransactionId", "vendorOriginalTransactionId", "store"); err != nil {
		return err
	}
	type plain Subscription
	return json.Unmarshal(data, (*plain)(s))
}

func (n *NonSubscription) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "NonSubscription",
		"purchaseId", "purchasedAt", "isOneTime", "isRefund", "isSandbox", "store", "vendorProductId"); err != nil {
		return err
	}
	type plain NonSubscription
	return json.Unmarshal(data, (*plain)(n))
}

// HasActiveAccess reports whether the access level with the given id is
// active in this snapshot.
func (p *Profile) HasActiveAccess(accessLevelID string) bool {
	al, ok := p.AccessLevels[accessLevelID]
	return ok && al.IsActive
}
