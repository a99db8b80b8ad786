// Package remote adapts capability handlers served over HTTP.
//
// Each call POSTs {"capability": id, "params": {...}} as JSON and decodes the
// JSON response body as the handler payload. A non-2xx status is an error.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tailored-agentic-units/rxdesk/capability"
	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

// maxBody bounds the response body read from a remote handler.
const maxBody = 4 << 20

var (
	ErrStatus  = errors.New("remote handler returned non-2xx status")
	ErrRequest = errors.New("remote handler request failed")
)

type request struct {
	Capability protocol.Capability `json:"capability"`
	Params     protocol.Params     `json:"params"`
}

// Handler invokes one capability on a remote endpoint.
type Handler struct {
	capability protocol.Capability
	endpoint   Endpoint
	client     *http.Client
}

var _ capability.Handler = (*Handler)(nil)

// Option configures a Handler.
type Option func(*Handler)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) {
		h.client = c
	}
}

// New creates a Handler for id served at endpoint.
func New(id protocol.Capability, endpoint Endpoint, opts ...Option) *Handler {
	h := &Handler{
		capability: id,
		endpoint:   endpoint,
		client:     &http.Client{Timeout: endpoint.Timeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Invoke posts params to the endpoint and returns the decoded JSON payload.
// Cancellation of ctx aborts the request.
func (h *Handler) Invoke(ctx context.Context, params protocol.Params) (any, error) {
	body, err := json.Marshal(request{Capability: h.capability, Params: params})
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range h.endpoint.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %d %s", ErrStatus, h.capability, resp.StatusCode,
			protocol.Truncate(strings.TrimSpace(string(data)), 200))
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrRequest, err)
	}
	return payload, nil
}
