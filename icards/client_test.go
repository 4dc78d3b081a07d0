package icards

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewClient("", "token", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "URL is required")
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		client, err := NewClient("http://localhost:3000/", "token", logger)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000", client.baseURL)
	})
}

func TestClientOptions(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient("http://localhost:3000", "token", logger, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with retry", func(t *testing.T) {
		client, err := NewClient("http://localhost:3000", "token", logger, WithRetry(5, 2*time.Second))
		require.NoError(t, err)
		assert.Equal(t, uint(5), client.maxAttempts)
		assert.Equal(t, 2*time.Second, client.baseDelay)
	})

	t.Run("with custom http client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient("http://localhost:3000", "token", logger, WithHTTPClient(customClient))
		require.NoError(t, err)
		assert.Equal(t, customClient, client.httpClient)
	})
}

func TestRequestHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "secret", zerolog.Nop())
	require.NoError(t, err)

	env, err := client.get(context.Background(), "/api/decks/mcp", nil)
	require.NoError(t, err)
	assert.True(t, env.OK())
}

func TestRetryOnServerError(t *testing.T) {
	var mu sync.Mutex
	var times []time.Time

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		count := len(times)
		mu.Unlock()

		if count < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "token", zerolog.Nop(),
		WithRetry(3, 10*time.Millisecond))
	require.NoError(t, err)

	env, err := client.get(context.Background(), "/api/decks/mcp", nil)
	require.NoError(t, err)
	assert.True(t, env.OK())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, times, 3)

	// Linear backoff: the second gap must not be shorter than the first.
	first := times[1].Sub(times[0])
	second := times[2].Sub(times[1])
	assert.GreaterOrEqual(t, second, first)
}

func TestRetryExhaustion(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "token", zerolog.Nop(),
		WithRetry(3, time.Millisecond))
	require.NoError(t, err)

	_, err = client.get(context.Background(), "/api/decks/mcp", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, apiErr.Kind)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, requests)
}

func TestNoRetryOnClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			wantKind: KindUnauthorized,
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			wantKind: KindForbidden,
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			wantKind: KindNotFound,
		},
		{
			name:     "validation message passed through",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message":"front is required"}`,
			wantKind: KindValidation,
			wantMsg:  "front is required",
		},
		{
			name:     "other 4xx",
			status:   http.StatusConflict,
			wantKind: KindRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			requests := 0

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				requests++
				mu.Unlock()
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			client, err := NewClient(server.URL, "token", zerolog.Nop(),
				WithRetry(3, time.Millisecond))
			require.NoError(t, err)

			_, err = client.get(context.Background(), "/api/decks/mcp", nil)
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, apiErr.Message)
			}

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 1, requests, "non-retryable errors must not be retried")
		})
	}
}

func TestNetworkErrorRetried(t *testing.T) {
	// A closed server produces connection errors on every attempt.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewClient(server.URL, "token", zerolog.Nop(),
		WithRetry(2, time.Millisecond))
	require.NoError(t, err)

	_, err = client.get(context.Background(), "/api/decks/mcp", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.True(t, apiErr.Retryable())
}

func TestEmptyResponseNormalized(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"204 no content", http.StatusNoContent},
		{"200 empty body", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := NewClient(server.URL, "token", zerolog.Nop())
			require.NoError(t, err)

			env, err := client.del(context.Background(), "/api/flashcards/1")
			require.NoError(t, err)
			require.NotNil(t, env.Success)
			assert.True(t, *env.Success)
		})
	}
}

func TestMalformedResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "token", zerolog.Nop(), WithRetry(1, time.Millisecond))
	require.NoError(t, err)

	_, err = client.get(context.Background(), "/api/decks/mcp", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, KindUpstream, apiErr.Kind)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/health", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
		}))
		defer server.Close()

		client, err := NewClient(server.URL, "token", zerolog.Nop())
		require.NoError(t, err)
		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("degraded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"status": "degraded"})
		}))
		defer server.Close()

		client, err := NewClient(server.URL, "token", zerolog.Nop())
		require.NoError(t, err)
		assert.Error(t, client.Health(context.Background()))
	})
}

func TestVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/version", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"version": "2.3.1"})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "token", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "2.3.1", client.Version(context.Background()))
}
