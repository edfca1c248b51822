package authhandler

import "errors"

var (
	// ErrNoAuthorizer is returned when Config has no Authorizer.
	ErrNoAuthorizer = errors.New("authhandler: authorizer must not be nil")

	// ErrForbidden may be returned by a ChannelGuard or UserResolver to
	// deny access with 403 Forbidden.
	ErrForbidden = errors.New("authhandler: access denied")
)
