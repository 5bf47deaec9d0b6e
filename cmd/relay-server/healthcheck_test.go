package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/health", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"healthy","active_conversations":3,"framework":"Gin"}`))
		}))
		defer server.Close()

		health, err := fetchHealth(context.Background(), server.URL+"/", time.Second)
		require.NoError(t, err)
		assert.Equal(t, 3, health.ActiveConversations)
		assert.Equal(t, "Gin", health.Framework)
	})

	t.Run("Unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"boom"}`))
		}))
		defer server.Close()

		_, err := fetchHealth(context.Background(), server.URL, time.Second)
		assert.ErrorContains(t, err, "503")
	})

	t.Run("Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := fetchHealth(context.Background(), url, time.Second)
		assert.ErrorContains(t, err, "request failed")
	})
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/api/health", healthURL("http://localhost:8000"))
	assert.Equal(t, "http://localhost:8000/api/health", healthURL("http://localhost:8000/"))
}
