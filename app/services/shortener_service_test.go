package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trackfluence/trackfluence/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAffiliateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateAffiliateCode()
		require.NoError(t, err)
		assert.Len(t, code, utils.AffiliateCodeLength)
		for _, c := range code {
			assert.Contains(t, utils.AffiliateCodeAlphabet, string(c))
		}
		seen[code] = true
	}
	// 50 draws from a 36^6 space should not collide
	assert.Greater(t, len(seen), 45)
}

func TestBuildAffiliateLink(t *testing.T) {
	link := BuildAffiliateLink("track.example.com", "ABC123")
	assert.Equal(t, "http://track.example.com/ref/ABC123", link)
}

func TestLocalShortener(t *testing.T) {
	shortener := NewLocalShortener("track.example.com")
	assert.Equal(t, "local", shortener.Name())

	link, err := shortener.Shorten(context.Background(), "https://shop.example.com/product/1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://track.example.com/ref/"), "unexpected link %q", link)

	other, err := shortener.Shorten(context.Background(), "https://shop.example.com/product/1")
	require.NoError(t, err)
	assert.NotEqual(t, link, other)
}

func newBitlyTestClient(serverURL string, retryCount int) *BitlyClient {
	return NewBitlyClient(serverURL, "test-token", "bit.ly", 5*time.Second, retryCount, time.Millisecond)
}

func TestBitlyClientShorten(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)

			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/shorten", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"link": "https://bit.ly/abc123", "id": "bit.ly/abc123"}`))
		}))
		defer server.Close()

		client := newBitlyTestClient(server.URL, 1)
		link, err := client.Shorten(context.Background(), "https://shop.example.com/product/1")
		require.NoError(t, err)
		assert.Equal(t, "https://bit.ly/abc123", link)
		assert.EqualValues(t, 1, atomic.LoadInt32(&requests))
	})

	t.Run("ClientErrorIsNotRetried", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message": "INVALID_ARG_LONG_URL", "description": "The value provided is invalid"}`))
		}))
		defer server.Close()

		client := newBitlyTestClient(server.URL, 2)
		_, err := client.Shorten(context.Background(), "not-a-url")
		require.Error(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&requests), "4xx must not be retried")

		pe, ok := IsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, "bitly", pe.Provider)
		assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
		assert.Equal(t, "The value provided is invalid", pe.Message)
	})

	t.Run("ServerErrorIsRetried", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&requests, 1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"link": "https://bit.ly/retry1"}`))
		}))
		defer server.Close()

		client := newBitlyTestClient(server.URL, 1)
		link, err := client.Shorten(context.Background(), "https://shop.example.com/product/1")
		require.NoError(t, err)
		assert.Equal(t, "https://bit.ly/retry1", link)
		assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
	})

	t.Run("ExhaustedRetriesSurfaceProviderError", func(t *testing.T) {
		var requests int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"message": "TEMPORARILY_UNAVAILABLE"}`))
		}))
		defer server.Close()

		client := newBitlyTestClient(server.URL, 1)
		_, err := client.Shorten(context.Background(), "https://shop.example.com/product/1")
		require.Error(t, err)
		assert.EqualValues(t, 2, atomic.LoadInt32(&requests))

		pe, ok := IsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
		assert.Equal(t, "TEMPORARILY_UNAVAILABLE", pe.Message)
	})

	t.Run("EmptyLinkInResponseFails", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := newBitlyTestClient(server.URL, 0)
		_, err := client.Shorten(context.Background(), "https://shop.example.com/product/1")
		require.Error(t, err)

		pe, ok := IsProviderError(err)
		require.True(t, ok)
		assert.Equal(t, "empty link in response", pe.Message)
	})

	t.Run("NetworkErrorIsRetried", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // nothing listens anymore

		client := newBitlyTestClient(server.URL, 1)
		_, err := client.Shorten(context.Background(), "https://shop.example.com/product/1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bitly request failed")
	})

	t.Run("CancelledContextStopsRetries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := newBitlyTestClient(server.URL, 3)
		_, err := client.Shorten(ctx, "https://shop.example.com/product/1")
		require.Error(t, err)
	})
}
