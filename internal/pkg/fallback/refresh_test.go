package fallback

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/sandbox"
)

func TestRefresherReinstallsChangedDocument(t *testing.T) {
	ctx := context.Background()
	sdk := sandbox.New(sandbox.NewMemoryStore(), nil, adapty.PlatformIOS)
	d := bridge.NewDispatcher(adapty.PlatformIOS)
	bridge.RegisterSDK(d, sdk)
	require.NoError(t, sdk.Activate(ctx, bridge.ActivateConfig{SDKKey: "k"}))

	path := writeFile(t, fallbackJSON)
	cfg := &Config{Path: path}
	doc, err := Load(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, Install(ctx, d, doc))

	r := NewRefresher(cfg, d, doc)
	changed, err := r.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed, "same document is not reinstalled")

	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(fallbackJSON, "fb-1", "fb-2", 1)), 0o600))
	changed, err = r.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	p, ok := sdk.GetPaywall(ctx, "onboarding", nil).Value()
	require.True(t, ok)
	assert.Equal(t, "fb-2", p.VariationID)

	require.NoError(t, os.WriteFile(path, []byte(`{"paywalls":[{"id":"onboarding"}]}`), 0o600))
	_, err = r.Refresh(ctx)
	assert.True(t, errors.Is(err, adapty.ErrMissingRequiredField))

	p, ok = sdk.GetPaywall(ctx, "onboarding", nil).Value()
	require.True(t, ok)
	assert.Equal(t, "fb-2", p.VariationID, "a broken document keeps the installed one")
}

func TestRefresherStart(t *testing.T) {
	d := bridge.NewDispatcher(adapty.PlatformAndroid)
	r := NewRefresher(&Config{Path: writeFile(t, fallbackJSON)}, d, nil)

	assert.Error(t, r.Start("every now and then"))
	require.NoError(t, r.Start("@every 1h"))
	r.Stop()
}
