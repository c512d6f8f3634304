package adapty

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBlock(t *testing.T, doc, key, block string) []byte {
	t.Helper()
	raw := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(doc), &raw))
	raw[key] = json.RawMessage(block)
	out, err := json.Marshal(raw)
	require.NoError(t, err)
	return out
}

func TestProductPlatformBlocks(t *testing.T) {
	t.Run("neither block present", func(t *testing.T) {
		products, err := NewCodec().DecodeProducts([]byte(`[` + productJSON + `]`))
		require.NoError(t, err)
		require.Len(t, products, 1)

		p := products[0]
		assert.False(t, p.HasPlatformExtension(PlatformAndroid))
		assert.False(t, p.HasPlatformExtension(PlatformIOS))
		assert.False(t, p.ForeignExtension(PlatformIOS))
	})

	t.Run("wrong platform block present", func(t *testing.T) {
		doc := withBlock(t, productJSON, "android", `{"localizedFreeTrialPeriod":"7 days","freeTrialPeriod":{"numberOfUnits":7,"unit":"day"}}`)

		var p Product
		require.NoError(t, NewCodec().Decode(doc, &p))
		assert.True(t, p.HasPlatformExtension(PlatformAndroid))
		assert.False(t, p.HasPlatformExtension(PlatformIOS))
		assert.True(t, p.ForeignExtension(PlatformIOS))
		assert.False(t, p.ForeignExtension(PlatformAndroid))
		require.NotNil(t, p.Android.FreeTrialPeriod)
		assert.Equal(t, ProductPeriodDay, p.Android.FreeTrialPeriod.Unit)
	})

	t.Run("ios block", func(t *testing.T) {
		doc := withBlock(t, productJSON, "ios", `{
			"discounts": [{"numberOfPeriods": 3, "price": 0.99, "subscriptionPeriod": {"numberOfUnits": 1, "unit": "month"}, "ios": {"paymentMode": "pay_as_you_go", "identifier": "spring"}}],
			"isFamilyShareable": true,
			"promotionalOfferEligibility": "ineligible",
			"regionCode": "US"
		}`)

		var p Product
		require.NoError(t, NewCodec().Decode(doc, &p))
		require.NotNil(t, p.IOS)
		assert.True(t, p.IOS.IsFamilyShareable)
		assert.Equal(t, OfferEligibilityIneligible, p.IOS.PromotionalOfferEligibility)
		require.Len(t, p.IOS.Discounts, 1)
		assert.Equal(t, OfferTypePayAsYouGo, p.IOS.Discounts[0].IOS.PaymentMode)
		assert.Nil(t, p.IOS.PromotionalOfferID)
	})

	t.Run("ios block missing discounts", func(t *testing.T) {
		doc := withBlock(t, productJSON, "ios", `{"isFamilyShareable": false, "promotionalOfferEligibility": "eligible"}`)

		var p Product
		err := NewCodec().Decode(doc, &p)
		var missing *MissingRequiredFieldError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, "discounts", missing.Field)
	})
}

func TestProductRoundTrip(t *testing.T) {
	in := Product{
		VendorProductID:              "yearly.premium",
		Price:                        39.99,
		CurrencyCode:                 Ptr("USD"),
		CurrencySymbol:               Ptr("$"),
		LocalizedTitle:               "Premium Yearly",
		LocalizedDescription:         "Everything, for a year",
		LocalizedPrice:               Ptr("$39.99"),
		LocalizedSubscriptionPeriod:  Ptr("1 year"),
		SubscriptionPeriod:           &SubscriptionPeriod{NumberOfUnits: 1, Unit: ProductPeriodYear},
		IntroductoryOfferEligibility: OfferEligibilityEligible,
		IntroductoryDiscount: &ProductDiscount{
			NumberOfPeriods:    1,
			Price:              0,
			SubscriptionPeriod: SubscriptionPeriod{NumberOfUnits: 1, Unit: ProductPeriodWeek},
			LocalizedPrice:     Ptr("Free"),
			IOS:                &ProductDiscountIOS{PaymentMode: OfferTypeFreeTrial},
		},
		PaywallABTestName: "spring_test",
		PaywallName:       "onboarding",
		VariationID:       "var-7",
		IOS: &ProductIOS{
			Discounts:                   []ProductDiscount{},
			PromotionalOfferEligibility: OfferEligibilityUnknown,
			SubscriptionGroupIdentifier: Ptr("group-1"),
		},
	}

	codec := NewCodec()
	data, err := codec.Encode(in)
	require.NoError(t, err)

	var out Product
	require.NoError(t, codec.Decode(data, &out))
	assert.Equal(t, in, out)
}

func TestSubscriptionPeriodInvariant(t *testing.T) {
	var period SubscriptionPeriod
	err := NewCodec().Decode([]byte(`{"numberOfUnits": 0, "unit": "month"}`), &period)
	require.Error(t, err)

	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "numberOfUnits", inv.Field)
}

func TestDiscountNumberOfPeriodsInvariant(t *testing.T) {
	doc := withBlock(t, productJSON, "introductoryDiscount", `{"numberOfPeriods": 0, "price": 1, "subscriptionPeriod": {"numberOfUnits": 1, "unit": "week"}}`)

	_, err := NewCodec().DecodeProducts([]byte("[" + string(doc) + "]"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestPaywallRemoteConfig(t *testing.T) {
	doc := `{
		"id": "main",
		"abTestName": "default",
		"variationId": "var-1",
		"revision": 4,
		"locale": "en",
		"remoteConfig": {"title": "Go premium", "trialDays": 7},
		"remoteConfigString": "{\"title\":\"Go premium\",\"trialDays\":7}",
		"vendorProductIds": ["monthly.premium", "yearly.premium"]
	}`

	p, err := NewCodec().DecodePaywall([]byte(doc))
	require.NoError(t, err)
	assert.True(t, p.RemoteConfigConsistent())
	assert.True(t, p.HasProduct("yearly.premium"))
	assert.False(t, p.HasProduct("coins.100"))
	assert.Nil(t, p.Name)

	p.RemoteConfigString = Ptr(`{"title":"Other"}`)
	assert.False(t, p.RemoteConfigConsistent())
	assert.True(t, errors.Is(p.Validate(), ErrInvariant))
}

func TestPaywallNewerThan(t *testing.T) {
	older := &Paywall{ID: "main", Revision: 3}
	newer := &Paywall{ID: "main", Revision: 4}

	assert.True(t, newer.NewerThan(older))
	assert.False(t, older.NewerThan(newer))
	assert.False(t, older.NewerThan(older))
	assert.True(t, older.NewerThan(nil))
}

func TestProfileParametersOmitUnset(t *testing.T) {
	status := AppTrackingTransparencyStatusAuthorized
	params := ProfileParameters{
		FirstName:                     Ptr("Ada"),
		AnalyticsDisabled:             Ptr(false),
		AppTrackingTransparencyStatus: &status,
	}

	data, err := NewCodec().Encode(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Ada","analyticsDisabled":false,"appTrackingTransparencyStatus":"authorized"}`, string(data))

	empty, err := NewCodec().Encode(ProfileParameters{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestProfileParametersValidate(t *testing.T) {
	assert.NoError(t, (&ProfileParameters{Email: Ptr("ada@example.com"), Birthday: Ptr("1990-12-10")}).Validate())

	err := (&ProfileParameters{Email: Ptr("not-an-email")}).Validate()
	var inv *InvariantError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "email", inv.Field)

	assert.Error(t, (&ProfileParameters{Birthday: Ptr("10/12/1990")}).Validate())
}

func TestProfileParametersAttributes(t *testing.T) {
	gender := GenderFemale
	params := &ProfileParameters{Gender: &gender, MixpanelUserID: Ptr("mp-1")}

	assert.False(t, params.IsEmpty())
	assert.True(t, (&ProfileParameters{}).IsEmpty())

	attrs, err := params.Attributes()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"gender": "f", "mixpanelUserId": "mp-1"}, attrs)
}
