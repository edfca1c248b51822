package pusher

import (
	"fmt"
	"strings"

	"github.com/vitalvas/pushauth/signing"
)

// Validation errors. They are returned before any signature is computed
// or request is sent.
var (
	// ErrValidation is the parent of every caller error.
	ErrValidation = signing.ErrValidation

	// ErrReservedParameter is returned when query parameters contain a key
	// owned by the signing protocol.
	ErrReservedParameter = signing.ErrReservedParameter

	// ErrInvalidChannelType is returned when a channel name does not carry
	// the prefix required by the requested authorization.
	ErrInvalidChannelType = fmt.Errorf("%w: invalid channel type", ErrValidation)

	// ErrTooManyChannels is returned when an event targets more than
	// MaxTriggerChannels channels.
	ErrTooManyChannels = fmt.Errorf("%w: too many channels", ErrValidation)
)

// maxErrorBody bounds the response excerpt included in APIError.Error.
const maxErrorBody = 256

// APIError is returned when the API answers with a status other than
// 200 OK.
type APIError struct {
	// StatusCode is the HTTP status returned by the API.
	StatusCode int

	// Body is the raw response payload.
	Body []byte

	// RequestBody is the payload that was sent, kept for diagnostics.
	RequestBody []byte
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(string(e.Body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}

	if msg == "" {
		return fmt.Sprintf("pusher: unexpected status %d", e.StatusCode)
	}

	return fmt.Sprintf("pusher: unexpected status %d: %s", e.StatusCode, msg)
}
