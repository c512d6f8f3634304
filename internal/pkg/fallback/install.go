package fallback

import (
	"context"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
)

// Install hands doc to the SDK through the bridge, exactly as a host would
// call set_fallback_paywalls.
func Install(ctx context.Context, d *bridge.Dispatcher, doc *Document) error {
	f := bridge.NewFuture()
	d.Dispatch(ctx, bridge.Call{
		Method:  bridge.MethodSetFallbackPaywalls,
		Args:    bridge.Args{bridge.ArgPaywalls: doc.Raw},
		Promise: f,
	})
	_, err := f.Wait(ctx)
	return err
}
