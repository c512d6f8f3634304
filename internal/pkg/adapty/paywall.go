package adapty

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Paywall is a remotely configured offer screen.
type Paywall struct {
	ID                 string                 `json:"id" validate:"required"`
	ABTestName         string                 `json:"abTestName"`
	VariationID        string                 `json:"variationId" validate:"required"`
	Revision           int                    `json:"revision" validate:"gte=0"`
	Locale             string                 `json:"locale"`
	Name               *string                `json:"name,omitempty"`
	RemoteConfig       map[string]interface{} `json:"remoteConfig,omitempty"`
	RemoteConfigString *string                `json:"remoteConfigString,omitempty"`
	VendorProductIDs   []string               `json:"vendorProductIds,omitempty"`
}

func (p *Paywall) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "Paywall", "id", "abTestName", "variationId", "revision", "locale"); err != nil {
		return err
	}
	type plain Paywall
	return json.Unmarshal(data, (*plain)(p))
}

func (p *Paywall) Validate() error {
	if err := validateStruct("Paywall", p); err != nil {
		return err
	}
	if !p.RemoteConfigConsistent() {
		return &InvariantError{Entity: "Paywall", Field: "remoteConfigString", Rule: "matches_remote_config"}
	}
	return nil
}

// RemoteConfigConsistent reports whether remoteConfig and remoteConfigString
// carry the same payload. A paywall carrying only one of them is consistent.
func (p *Paywall) RemoteConfigConsistent() bool {
	if p.RemoteConfig == nil || p.RemoteConfigString == nil {
		return true
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(*p.RemoteConfigString), &decoded); err != nil {
		return false
	}
	return reflect.DeepEqual(decoded, p.RemoteConfig)
}

// NewerThan reports whether p supersedes other. Revisions only grow, so a
// lower revision of the same paywall is stale.
func (p *Paywall) NewerThan(other *Paywall) bool {
	if other == nil {
		return true
	}
	return p.Revision > other.Revision
}

// HasProduct reports whether vendorProductID is offered on this paywall.
func (p *Paywall) HasProduct(vendorProductID string) bool {
	for _, id := range p.VendorProductIDs {
		if id == vendorProductID {
			return true
		}
	}
	return false
}

// FallbackPaywalls is the paywall set served while the backend is
// unreachable.
type FallbackPaywalls struct {
	Paywalls []Paywall `json:"paywalls"`
}

func (f *FallbackPaywalls) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "FallbackPaywalls", "paywalls"); err != nil {
		return err
	}
	type plain FallbackPaywalls
	return json.Unmarshal(data, (*plain)(f))
}

func (f *FallbackPaywalls) Validate() error {
	for i := range f.Paywalls {
		if err := f.Paywalls[i].Validate(); err != nil {
			return fmt.Errorf("paywall %d: %w", i, err)
		}
	}
	return nil
}

// Find returns the fallback paywall with the given id.
func (f *FallbackPaywalls) Find(id string) (*Paywall, bool) {
	for i := range f.Paywalls {
		if f.Paywalls[i].ID == id {
			p := f.Paywalls[i]
			return &p, true
		}
	}
	return nil, false
}
