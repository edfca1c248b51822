package signing

import (
	"fmt"
	"net/url"
	"strings"
)

// Reserved query parameter names. Callers may not set them.
const (
	ParamAuthKey       = "auth_key"
	ParamAuthTimestamp = "auth_timestamp"
	ParamAuthVersion   = "auth_version"
	ParamAuthSignature = "auth_signature"
	ParamBodyMD5       = "body_md5"
)

// AuthVersion is the protocol version sent as auth_version.
const AuthVersion = "1.0"

var reservedParams = map[string]struct{}{
	ParamAuthKey:       {},
	ParamAuthTimestamp: {},
	ParamAuthVersion:   {},
	ParamAuthSignature: {},
	ParamBodyMD5:       {},
}

// IsReserved reports whether name is a reserved query parameter. The
// comparison is case-insensitive.
func IsReserved(name string) bool {
	_, ok := reservedParams[strings.ToLower(name)]

	return ok
}

// ValidateParams returns ErrReservedParameter when params contains a
// reserved key in any casing.
func ValidateParams(params url.Values) error {
	for name := range params {
		if IsReserved(name) {
			return fmt.Errorf("%w: %q is generated by the signer and must not be submitted", ErrReservedParameter, name)
		}
	}

	return nil
}

// cloneParams returns a deep copy of params so that signing never mutates
// the caller's map or value slices.
func cloneParams(params url.Values) url.Values {
	out := make(url.Values, len(params)+5)
	for name, values := range params {
		out[name] = append([]string(nil), values...)
	}

	return out
}
