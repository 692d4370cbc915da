package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"greeting":"hi"}`))
	}))
	defer srv.Close()

	c := New("test", srv.URL+"/v1/", time.Second, map[string]string{"Authorization": "Bearer k"})
	var out struct {
		Greeting string `json:"greeting"`
	}

	require.NoError(t, c.PostJSON(context.Background(), "/echo", map[string]string{"a": "b"}, &out))
	assert.Equal(t, "hi", out.Greeting)
	assert.Equal(t, srv.URL+"/v1", c.BaseURL())
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	err := New("ollama", srv.URL, time.Second, nil).Get(context.Background(), "/api/tags")

	var se *domain.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "ollama", se.Service)
	assert.Equal(t, "model not found", se.Body)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]any
	err := New("test", srv.URL, time.Second, nil).PostJSON(context.Background(), "/", nil, &out)

	assert.ErrorContains(t, err, "decode response")
}

func TestClient_TransportErrorIsNetError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New("test", url, time.Second, nil).Get(context.Background(), "/")

	var netErr net.Error
	assert.True(t, errors.As(err, &netErr))
}
