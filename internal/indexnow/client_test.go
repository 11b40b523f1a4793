package indexnow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_Submit_PostsPayload(t *testing.T) {
	t.Parallel()

	payloads := make(chan Payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		var got Payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		payloads <- got
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	payload := Payload{
		Host:        "example.com",
		Key:         "abc123",
		KeyLocation: "https://example.com/abc123.txt",
		URLList:     []string{"https://example.com/a", "https://example.com/b"},
	}
	err := New(srv.URL, srv.Client(), zap.NewNop()).Submit(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, payload, <-payloads)
}

func TestClient_Submit_WireFieldNames(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		bodies <- raw
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client(), nil).Submit(context.Background(), Payload{Host: "h", Key: "k", KeyLocation: "l", URLList: []string{}})
	require.NoError(t, err)
	raw := <-bodies
	require.Contains(t, raw, "host")
	require.Contains(t, raw, "key")
	require.Contains(t, raw, "keyLocation")
	require.Contains(t, raw, "urlList")
}

func TestClient_Submit_ErrorMessageFromBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"InvalidRequestParameters","message":"Invalid key"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client(), nil).Submit(context.Background(), Payload{Host: "example.com"})
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	require.Equal(t, "Invalid key", apiErr.Message)
}

func TestClient_Submit_NonJSONErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("key not valid for host\n"))
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client(), nil).Submit(context.Background(), Payload{Host: "example.com"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "key not valid for host", apiErr.Message)
}

func TestClient_Submit_EmptyErrorBodyUsesStatusText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(srv.URL, srv.Client(), nil).Submit(context.Background(), Payload{Host: "example.com"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusText(http.StatusTooManyRequests), apiErr.Message)
}

func TestClient_Submit_ContextDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := New(srv.URL, srv.Client(), nil).Submit(ctx, Payload{Host: "example.com"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
