package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
)

func newTestClient(url string) *RestyClient {
	return NewRestyClient(Config{Name: "test", BaseURL: url, Timeout: time.Second}, logger.Nop())
}

func TestRestyClient_Execute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/weather", r.URL.Path)
			assert.Equal(t, "abc", r.URL.Query().Get("appid"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		resp, err := newTestClient(server.URL).Execute(context.Background(), Request{
			Resource: "/data/weather",
			Query:    map[string]string{"appid": "abc"},
		})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"ok":true}`, resp.Body)
		assert.Empty(t, resp.ErrorMessage)
	})

	t.Run("client error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
		}))
		defer server.Close()

		resp, err := newTestClient(server.URL).Execute(context.Background(), Request{Resource: "/x"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, resp.ErrorMessage, "Invalid API key")
	})

	t.Run("server error status still returns response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		resp, err := newTestClient(server.URL).Execute(context.Background(), Request{Resource: "/x"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		assert.NotEmpty(t, resp.ErrorMessage)
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestClient(server.URL).Execute(ctx, Request{Resource: "/x"})
		assert.Error(t, err)
	})
}

func TestRestyClient_CircuitOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	// gobreaker's default policy trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := c.Execute(context.Background(), Request{Resource: "/x"})
		require.NoError(t, err)
	}

	_, err := c.Execute(context.Background(), Request{Resource: "/x"})
	assert.ErrorIs(t, err, errCircuitOpen)
}

func TestRestyClient_CallerCancellationKeepsCircuitClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 10; i++ {
		_, err := c.Execute(ctx, Request{Resource: "/x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, errCircuitOpen)
	}

	resp, err := c.Execute(context.Background(), Request{Resource: "/x"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestTruncate(t *testing.T) {
	body := strings.Repeat("a", maxErrorMessage-1) + "é and more"

	got := truncate(body, maxErrorMessage)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxErrorMessage-1), got)

	assert.Equal(t, "short", truncate("short", maxErrorMessage))
	assert.Equal(t, "héllo", truncate("héllo", 6))
	assert.Equal(t, "h", truncate("héllo", 2))
}

func TestRestyClient_LongErrorBodyStaysValidUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("ö", maxErrorMessage)))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Execute(context.Background(), Request{Resource: "/x"})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(resp.ErrorMessage))
	assert.LessOrEqual(t, len(resp.ErrorMessage), maxErrorMessage)
}
