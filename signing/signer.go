package signing

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Signer signs requests and strings with a fixed key pair. It holds no
// mutable state and is safe for concurrent use.
type Signer struct {
	key    string
	secret string
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source used for auth_timestamp. Intended for
// tests that need reproducible signatures.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner creates a Signer for the given public key and secret.
//
// It returns ErrValidation if key or secret is empty and
// ErrCryptoUnavailable if the runtime cannot compute the required digests.
func NewSigner(key, secret string, opts ...Option) (*Signer, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: key must not be empty", ErrValidation)
	}

	if secret == "" {
		return nil, fmt.Errorf("%w: secret must not be empty", ErrValidation)
	}

	if err := cryptoCheck(); err != nil {
		return nil, err
	}

	s := &Signer{
		key:    key,
		secret: secret,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Key returns the public key sent as auth_key.
func (s *Signer) Key() string {
	return s.key
}

// Sign returns SignString(input, secret) for the signer's secret.
func (s *Signer) Sign(input string) string {
	return SignString(input, s.secret)
}

// SignRequest returns a copy of params augmented with auth_key,
// auth_version, auth_timestamp, body_md5 (only when body is non-nil) and
// auth_signature. params itself is never modified.
//
// path is the request path only, without scheme, host or query. body must
// be the exact bytes sent on the wire.
func (s *Signer) SignRequest(method, path string, params url.Values, body []byte) (url.Values, error) {
	return signRequest(s.now(), method, path, params, body, s.key, s.secret)
}

// SignRequest signs a request with the current wall clock time. See
// (*Signer).SignRequest.
func SignRequest(method, path string, params url.Values, body []byte, key, secret string) (url.Values, error) {
	return signRequest(time.Now(), method, path, params, body, key, secret)
}

func signRequest(now time.Time, method, path string, params url.Values, body []byte, key, secret string) (url.Values, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	signed := withAuthParams(cloneParams(params), key, now)

	if body != nil {
		signed.Set(ParamBodyMD5, BodyMD5(body))
	}

	signed.Set(ParamAuthSignature, SignString(CanonicalString(method, path, signed), secret))

	return signed, nil
}

func withAuthParams(params url.Values, key string, now time.Time) url.Values {
	params.Set(ParamAuthKey, key)
	params.Set(ParamAuthVersion, AuthVersion)
	params.Set(ParamAuthTimestamp, strconv.FormatInt(now.Unix(), 10))

	return params
}
