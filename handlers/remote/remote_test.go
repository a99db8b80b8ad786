package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
	"github.com/tailored-agentic-units/rxdesk/handlers/remote"
)

func TestHandler_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		var body struct {
			Capability string         `json:"capability"`
			Params     map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "demand", body.Capability)
		assert.Equal(t, "MED001", body.Params["sku"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"forecast": 42}`))
	}))
	defer srv.Close()

	h := remote.New(protocol.CapabilityDemand, remote.Endpoint{
		URL:     srv.URL,
		Headers: map[string]string{"X-Api-Key": "secret"},
	})

	got, err := h.Invoke(context.Background(), protocol.Params{"sku": "MED001"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"forecast": float64(42)}, got)
}

func TestHandler_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := remote.New(protocol.CapabilityCapital, remote.Endpoint{URL: srv.URL})

	_, err := h.Invoke(context.Background(), nil)
	require.ErrorIs(t, err, remote.ErrStatus)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestHandler_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	got, err := remote.New(protocol.CapabilityPricing, remote.Endpoint{URL: srv.URL}).Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHandler_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := remote.New(protocol.CapabilitySupplier, remote.Endpoint{URL: srv.URL}).Invoke(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBindings(t *testing.T) {
	handlers, err := remote.Bindings(map[protocol.Capability]remote.Endpoint{
		protocol.CapabilityDemand:  {URL: "http://localhost:9001/demand"},
		protocol.CapabilityCapital: {URL: "https://capital.internal/invoke", Timeout: time.Second},
	})
	require.NoError(t, err)
	assert.Len(t, handlers, 2)

	_, err = remote.Bindings(map[protocol.Capability]remote.Endpoint{
		protocol.CapabilityDemand: {URL: "not a url"},
	})
	assert.Error(t, err)
}
