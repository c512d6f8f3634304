package sandbox

import (
	"errors"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/bridge"
)

var ErrNotFound = errors.New("sandbox: not found")

// ErrStaleRevision is returned when a paywall write would replace a newer
// revision.
var ErrStaleRevision = errors.New("sandbox: stale paywall revision")

// Native error codes reported by the sandbox SDK.
const (
	CodeNotActivated     = "not_activated"
	CodeNotFound         = "not_found"
	CodeAlreadyActivated = "already_activated"
	CodePaywallNotFound  = "paywall_not_found"
	CodeProductNotFound  = "product_not_found"
	CodeStaleRevision    = "stale_revision"
	CodeStorage          = "storage_failed"
	CodeInvalidLogLevel  = "invalid_log_level"
	CodeObserverMode     = "observer_mode"
)

// nativeError maps store and codec failures onto native SDK errors.
func nativeError(err error) *bridge.Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleRevision):
		return bridge.NativeError(CodeStaleRevision, err.Error())
	case errors.Is(err, ErrNotFound):
		return bridge.NativeError(CodeNotFound, err.Error())
	}
	if e := bridge.AsError(err); e.Code != bridge.CodeUnknown {
		return e
	}
	return bridge.NativeError(CodeStorage, err.Error())
}
