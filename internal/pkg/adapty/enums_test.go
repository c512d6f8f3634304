package adapty

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip decodes token into a fresh T and encodes it back.
func roundTrip[T any](t *testing.T, token string) string {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(`"`+token+`"`), &v))
	out, err := json.Marshal(v)
	require.NoError(t, err)
	var s string
	require.NoError(t, json.Unmarshal(out, &s))
	return s
}

func TestEnumTokensRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		trip   func(t *testing.T, token string) string
	}{
		{"VendorStore", []string{"app_store", "play_store", "adapty"}, roundTrip[VendorStore]},
		{"OfferType", []string{"free_trial", "pay_as_you_go", "pay_up_front"}, roundTrip[OfferType]},
		{"CancellationReason", []string{"voluntarily_cancelled", "billing_error", "refund", "price_increase", "product_was_not_available", "unknown"}, roundTrip[CancellationReason]},
		{"Gender", []string{"f", "m", "o"}, roundTrip[Gender]},
		{"AppTrackingTransparencyStatus", []string{"not_determined", "restricted", "denied", "authorized", "unknown"}, roundTrip[AppTrackingTransparencyStatus]},
		{"ProductPeriod", []string{"day", "week", "month", "year"}, roundTrip[ProductPeriod]},
		{"OfferEligibility", []string{"eligible", "ineligible", "unknown"}, roundTrip[OfferEligibility]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, token := range tt.tokens {
				assert.Equal(t, token, tt.trip(t, token))
			}
		})
	}
}

func TestUnrecognizedTokenWithUnknownMember(t *testing.T) {
	var reason CancellationReason
	require.NoError(t, json.Unmarshal([]byte(`"surprise"`), &reason))
	assert.Equal(t, CancellationReasonUnknown, reason)

	var status AppTrackingTransparencyStatus
	require.NoError(t, json.Unmarshal([]byte(`"ephemeral"`), &status))
	assert.Equal(t, AppTrackingTransparencyStatusUnknown, status)

	var eligibility OfferEligibility
	require.NoError(t, json.Unmarshal([]byte(`"maybe"`), &eligibility))
	assert.Equal(t, OfferEligibilityUnknown, eligibility)
}

func TestUnrecognizedTokenWithoutUnknownMember(t *testing.T) {
	tests := []struct {
		name   string
		target interface{}
		enum   string
	}{
		{"VendorStore", new(VendorStore), "VendorStore"},
		{"OfferType", new(OfferType), "OfferType"},
		{"Gender", new(Gender), "Gender"},
		{"ProductPeriod", new(ProductPeriod), "ProductPeriod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := json.Unmarshal([]byte(`"galaxy_store"`), tt.target)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnrecognizedEnumValue))

			var unrecognized *UnrecognizedEnumValueError
			require.True(t, errors.As(err, &unrecognized))
			assert.Equal(t, tt.enum, unrecognized.Enum)
			assert.Equal(t, "galaxy_store", unrecognized.Value)
		})
	}
}

func TestUnrecognizedTokenInsideRecord(t *testing.T) {
	doc := without(t, accessLevelJSON, "store")
	raw := map[string]interface{}{}
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	raw["store"] = "galaxy_store"
	raw["cancellationReason"] = "surprise"
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	var al AccessLevel
	err = json.Unmarshal(data, &al)
	assert.True(t, errors.Is(err, ErrUnrecognizedEnumValue))

	raw["store"] = "play_store"
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &al))
	require.NotNil(t, al.CancellationReason)
	assert.Equal(t, CancellationReasonUnknown, *al.CancellationReason)
}

func TestEncodingUndeclaredTokenFails(t *testing.T) {
	_, err := json.Marshal(VendorStore("galaxy_store"))
	assert.True(t, errors.Is(err, ErrUnrecognizedEnumValue))
}

func TestParseHelpers(t *testing.T) {
	store, err := ParseVendorStore("play_store")
	require.NoError(t, err)
	assert.Equal(t, VendorStorePlayStore, store)

	_, err = ParsePlatform("windows")
	assert.Error(t, err)

	assert.Equal(t, CancellationReasonRefund, ParseCancellationReason("refund"))
	assert.Equal(t, CancellationReasonUnknown, ParseCancellationReason("surprise"))
	assert.Equal(t, OfferEligibilityUnknown, ParseOfferEligibility(""))
	assert.Equal(t, AppTrackingTransparencyStatusDenied, ParseAppTrackingTransparencyStatus("denied"))
}
