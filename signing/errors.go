package signing

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every caller error. It is always
	// returned before any signature is computed or request is sent.
	ErrValidation = errors.New("signing: invalid argument")

	// ErrReservedParameter is returned when caller supplied query parameters
	// contain a key owned by the signing protocol.
	ErrReservedParameter = fmt.Errorf("%w: reserved query parameter", ErrValidation)
)

// ErrCryptoUnavailable is returned when the runtime cannot compute
// HMAC-SHA256 or MD5. Every later signature would fail the same way, so it
// is reported at construction time.
var ErrCryptoUnavailable = errors.New("signing: required cryptographic primitive unavailable")
