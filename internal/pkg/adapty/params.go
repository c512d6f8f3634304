package adapty

import "encoding/json"

// ProfileParameters is a caller-supplied profile update. Every field is
// optional and a nil field is left out of the encoded payload, so the
// backend keeps its current value instead of clearing it.
type ProfileParameters struct {
	AnalyticsDisabled             *bool                          `json:"analyticsDisabled,omitempty"`
	CodableCustomAttributes       map[string]interface{}         `json:"codableCustomAttributes,omitempty"`
	AppTrackingTransparencyStatus *AppTrackingTransparencyStatus `json:"appTrackingTransparencyStatus,omitempty"`
	StoreCountry                  *string                        `json:"storeCountry,omitempty"`
	FirstName                     *string                        `json:"firstName,omitempty"`
	LastName                      *string                        `json:"lastName,omitempty"`
	Gender                        *Gender                        `json:"gender,omitempty"`
	Birthday                      *string                        `json:"birthday,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Email                         *string                        `json:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber                   *string                        `json:"phoneNumber,omitempty"`
	FacebookAnonymousID           *string                        `json:"facebookAnonymousId,omitempty"`
	AmplitudeUserID               *string                        `json:"amplitudeUserId,omitempty"`
	AmplitudeDeviceID             *string                        `json:"amplitudeDeviceId,omitempty"`
	MixpanelUserID                *string                        `json:"mixpanelUserId,omitempty"`
	AppmetricaProfileID           *string                        `json:"appmetricaProfileId,omitempty"`
	AppmetricaDeviceID            *string                        `json:"appmetricaDeviceId,omitempty"`
	OneSignalPlayerID             *string                        `json:"oneSignalPlayerId,omitempty"`
	PushwooshHWID                 *string                        `json:"pushwooshHWID,omitempty"`
	FirebaseAppInstanceID         *string                        `json:"firebaseAppInstanceId,omitempty"`
}

func (p *ProfileParameters) Validate() error {
	return validateStruct("ProfileParameters", p)
}

// IsEmpty reports whether no field is set.
func (p *ProfileParameters) IsEmpty() bool {
	if p == nil {
		return true
	}
	b, err := json.Marshal(p)
	return err == nil && string(b) == "{}"
}

// Attributes flattens the set fields into a wire-keyed attribute bag, the
// shape a profile reports back under customAttributes.
func (p *ProfileParameters) Attributes() (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if p == nil {
		return out, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OnboardingScreenParameters identifies one shown onboarding screen.
type OnboardingScreenParameters struct {
	Name        *string `json:"onboardingName,omitempty"`
	ScreenName  *string `json:"onboardingScreenName,omitempty"`
	ScreenOrder int     `json:"onboardingScreenOrder" validate:"gte=1"`
}

func (o *OnboardingScreenParameters) UnmarshalJSON(data []byte) error {
	if err := requireFields(data, "OnboardingScreenParameters", "onboardingScreenOrder"); err != nil {
		return err
	}
	type plain OnboardingScreenParameters
	return json.Unmarshal(data, (*plain)(o))
}

func (o *OnboardingScreenParameters) Validate() error {
	return validateStruct("OnboardingScreenParameters", o)
}
