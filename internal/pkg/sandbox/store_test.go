package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

func TestMemoryStoreProfiles(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.LoadProfile(ctx, "customer:x")
	assert.True(t, errors.Is(err, ErrNotFound))

	p := &adapty.Profile{ProfileID: "p1", CustomAttributes: map[string]interface{}{"a": "b"}}
	require.NoError(t, s.SaveProfile(ctx, "customer:x", p))

	// Later mutation of the saved value does not leak into the store.
	p.CustomAttributes["a"] = "changed"
	loaded, err := s.LoadProfile(ctx, "customer:x")
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.CustomAttributes["a"])

	err = s.SaveProfile(ctx, "customer:y", &adapty.Profile{})
	assert.True(t, errors.Is(err, adapty.ErrInvariant))
}

func TestMemoryStorePaywallRevisions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	pw := func(rev int) *adapty.Paywall {
		return &adapty.Paywall{ID: "main", ABTestName: "a", VariationID: "v", Revision: rev, Locale: "en"}
	}

	_, err := s.LoadPaywall(ctx, "main")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.SavePaywall(ctx, pw(3)))
	require.NoError(t, s.SavePaywall(ctx, pw(3)), "same revision is an idempotent write")
	assert.True(t, errors.Is(s.SavePaywall(ctx, pw(2)), ErrStaleRevision))
	require.NoError(t, s.SavePaywall(ctx, pw(4)))

	loaded, err := s.LoadPaywall(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Revision)
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(`{
		"products": [
			{"vendorProductId": "weekly.pro", "price": 1.99, "currencyCode": "EUR", "currencySymbol": "€", "title": "Pro Weekly",
			 "subscriptionPeriod": {"numberOfUnits": 1, "unit": "week"}, "accessLevel": "premium_max"}
		],
		"paywalls": [
			{"id": "pro", "abTestName": "default", "variationId": "pro-1", "revision": 1, "locale": "fr", "vendorProductIds": ["weekly.pro"]}
		]
	}`))
	require.NoError(t, err)

	item, ok := c.Lookup("weekly.pro")
	require.True(t, ok)
	assert.True(t, item.IsSubscription())
	assert.Equal(t, "premium_max", item.AccessLevel)
	require.Len(t, c.Paywalls, 1)

	_, ok = c.Lookup("monthly.premium")
	assert.False(t, ok)

	tests := []struct {
		name string
		doc  string
	}{
		{"missing currency", `{"products":[{"vendorProductId":"a","price":1,"title":"A"}]}`},
		{"negative price", `{"products":[{"vendorProductId":"a","price":-1,"currencyCode":"USD","title":"A"}]}`},
		{"zero period", `{"products":[{"vendorProductId":"a","price":1,"currencyCode":"USD","title":"A","subscriptionPeriod":{"numberOfUnits":0,"unit":"month"}}]}`},
		{"invalid paywall", `{"products":[],"paywalls":[{"id":"","abTestName":"a","variationId":"v","revision":1,"locale":"en"}]}`},
		{"not json", `products:`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog("does-not-exist.json")
	assert.Error(t, err)
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := DefaultCatalog()
	assert.NoError(t, catalogValidator.Struct(c))
	for i := range c.Paywalls {
		assert.NoError(t, c.Paywalls[i].Validate())
		for _, id := range c.Paywalls[i].VendorProductIDs {
			_, ok := c.Lookup(id)
			assert.True(t, ok, id)
		}
	}
}
