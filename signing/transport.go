package signing

import (
	"bytes"
	"io"
	"net/http"
)

// Transport is an http.RoundTripper that adds a request signature to the
// query string of every outgoing request.
type Transport struct {
	base   http.RoundTripper
	signer *Signer
}

// NewTransport creates a signing Transport that delegates to base after
// signing each request. When base is nil, a clone of http.DefaultTransport
// is used, giving an independent connection pool with default proxy, TLS,
// and timeout settings.
func NewTransport(base http.RoundTripper, signer *Signer) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{
		base:   base,
		signer: signer,
	}
}

// RoundTrip signs the request and then delegates to the base transport.
// The original request is cloned before signing to avoid mutation. The
// request query must not contain reserved parameters.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	query := req.URL.Query()
	if err := ValidateParams(query); err != nil {
		closeBody(req)
		return nil, err
	}

	clone := req.Clone(req.Context())

	if clone.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			closeBody(req)
			return nil, err
		}

		closeBody(req)
		clone.Body = body
	}

	body, err := readAndRestoreBody(clone)
	if err != nil {
		return nil, err
	}

	signed, err := t.signer.SignRequest(clone.Method, clone.URL.Path, query, body)
	if err != nil {
		return nil, err
	}

	clone.URL.RawQuery = signed.Encode()

	return t.base.RoundTrip(clone)
}

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so it can be sent afterwards. It returns nil when the request
// has no body.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

func closeBody(r *http.Request) {
	if r.Body != nil {
		r.Body.Close()
	}
}
