// Package signing implements the query-string request signature used by the
// Pusher Channels REST API, together with the raw HMAC primitive used for
// channel authorization tokens.
//
// # Request Signatures
//
// A signed request carries five extra query parameters: auth_key,
// auth_timestamp, auth_version, optional body_md5 and auth_signature. The
// signature is an HMAC-SHA256 over the canonical string
//
//	METHOD\nPATH\nkey1=value1&key2=value2...
//
// where the keys are every query parameter except auth_signature, sorted in
// ascending byte order. Values are not escaped. Only the first value of a
// multi-valued parameter takes part in the canonical string; the remaining
// values are still sent on the wire.
//
//	signer, err := signing.NewSigner(key, secret)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	signed, err := signer.SignRequest(http.MethodPost, "/apps/3/events", nil, body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	req.URL.RawQuery = signed.Encode()
//
// # Client Transport
//
// NewTransport wraps an http.RoundTripper and signs the query string of every
// outgoing request. The body, when present, is hashed exactly as it is sent:
//
//	client := &http.Client{
//	    Transport: signing.NewTransport(nil, signer),
//	}
//
// # String Signatures
//
// SignString returns the lowercase hex HMAC-SHA256 of an arbitrary string and
// is the primitive behind channel authorization tokens.
package signing
