package writepath

import "errors"

// Error kinds per spec.md §7, mapped to HTTP status by the HTTP
// transport layer rather than here (WP stays transport-agnostic).
var (
	errValidation       = errors.New("writepath: validation")
	errQueueUnavailable = errors.New("writepath: queue unavailable")
	errStoreTransient   = errors.New("writepath: store error")

	ErrNotFound = errors.New("writepath: not found")
)

// IsValidation reports whether err (or anything it wraps) is the
// validation-kind error, for transports mapping it to 400.
func IsValidation(err error) bool { return errors.Is(err, errValidation) }

// IsQueueUnavailable reports whether err (or anything it wraps) is the
// queue-unavailable-kind error, for transports mapping it to 503.
func IsQueueUnavailable(err error) bool { return errors.Is(err, errQueueUnavailable) }
