package pusher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/vitalvas/pushauth/signing"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Response is the outcome of a successful Dispatch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Dispatch sends one signed REST call. path is relative to the application
// root (for example "events" or "channels/presence-room/users"). body, when
// non-nil, is sent as JSON: []byte and json.RawMessage are sent verbatim,
// anything else is marshaled. An inline query in path ("channels?x=y") is
// merged with query; neither may contain reserved parameters.
//
// When the client is disabled Dispatch returns a synthetic 200 response
// without signing or sending anything. Otherwise exactly one attempt is
// made; a status other than 200 is returned as *APIError.
func (c *Client) Dispatch(ctx context.Context, method, path string, body any, query url.Values) (*Response, error) {
	if method == "" {
		return nil, fmt.Errorf("%w: method must not be empty", ErrValidation)
	}

	path, query, err := splitPath(path, query)
	if err != nil {
		return nil, err
	}

	if err := signing.ValidateParams(query); err != nil {
		return nil, err
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("dispatch",
		zap.String("method", method),
		zap.String("path", path),
		zap.ByteString("body", payload),
	)

	if !c.Enabled() {
		return &Response{StatusCode: http.StatusOK, Header: http.Header{}}, nil
	}

	ctx, span := c.tracer.Start(ctx, "pusher.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("pusher.app_id", c.endpoint.AppID),
			attribute.String("pusher.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.send(ctx, method, path, payload, query)

	code := 0
	if resp != nil {
		code = resp.StatusCode
		span.SetAttributes(attribute.Int("http.response.status_code", code))
	}

	c.metrics.observe(method, code, time.Since(start))

	if err == nil && code != http.StatusOK {
		err = &APIError{StatusCode: code, Body: resp.Body, RequestBody: payload}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		c.logger.Warn("dispatch failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", code),
			zap.Error(err),
		)

		return nil, err
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, query url.Values) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint.APIRoot()+"/"+strings.TrimPrefix(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("pusher: build request: %w", err)
	}

	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pusher: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pusher: read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// splitPath separates an inline query from path and merges query into it.
// Inline values come first. The caller's map is not modified.
func splitPath(path string, query url.Values) (string, url.Values, error) {
	path, raw, _ := strings.Cut(path, "?")

	merged, err := url.ParseQuery(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: malformed query in path: %v", ErrValidation, err)
	}

	for name, values := range query {
		merged[name] = append(merged[name], values...)
	}

	return path, merged, nil
}

// encodeBody returns the exact bytes to send for body, or nil when there
// is no body.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		if b == nil {
			return nil, nil
		}

		return b, nil
	case json.RawMessage:
		if b == nil {
			return nil, nil
		}

		return b, nil
	default:
		data, err := marshalJSON(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %v", ErrValidation, err)
		}

		return data, nil
	}
}

// marshalJSON encodes v compactly without HTML escaping, so that '<', '>'
// and '&' reach the API unchanged.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
