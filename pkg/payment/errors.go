package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable covers network failures and timeouts
	// talking to a provider API.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrInvalidReference is returned when an externally supplied
	// identifier fails the provider's ID format check. The request is
	// rejected before anything goes on the wire.
	ErrInvalidReference = errors.New("invalid external reference")

	// ErrNotFound is returned when the provider has no subscription
	// for the given reference.
	ErrNotFound = errors.New("subscription not found at provider")

	// ErrPlanChangeUnsupported is returned by providers without an
	// in-place plan change API; the customer has to cancel and
	// re-subscribe instead.
	ErrPlanChangeUnsupported = errors.New("provider does not support in-place plan changes")
)

// wrapErr tags an adapter error with its provider so operators can
// tell failure sources apart.
func wrapErr(provider Provider, op string, err error) error {
	return fmt.Errorf("%s %s: %w", provider, op, err)
}
