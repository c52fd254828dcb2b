package domain

import "github.com/pkg/errors"

// Error kinds surfaced by the screening core. Callers match them with errors.Is;
// concrete causes are joined to a kind with fmt.Errorf("%w: %w", kind, cause).
var (
	// ErrInvalidInput is returned before any network call when an input fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProviderUnavailable covers network failures and non-success upstream responses.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedProviderData is returned when an upstream body carries no usable payload.
	ErrMalformedProviderData = errors.New("malformed provider data")
	// ErrScreeningFailed wraps any failure of a wallet screening.
	ErrScreeningFailed = errors.New("screening failed")
	// ErrNothingToPay is returned when a payment is requested for a non-positive amount.
	ErrNothingToPay = errors.New("nothing to pay")
)
