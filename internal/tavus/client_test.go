package tavus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(Config{BaseURL: baseURL, APIKey: "test-key", Timeout: 5 * time.Second}, opts...)
	require.NoError(t, err)
	return client
}

func TestCreateConversation(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got CreateConversationRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/conversations", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &got))

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"conversation_id":"c1","conversation_url":"https://tavus.daily.co/c1","status":"active"}`))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		conv, err := client.CreateConversation(context.Background(), &CreateConversationRequest{
			ReplicaID: "r1",
			PersonaID: "p1",
			Properties: ConversationProperties{
				MaxCallDuration: 3600,
				Language:        "english",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "c1", conv.ConversationID)
		assert.Equal(t, "https://tavus.daily.co/c1", conv.ConversationURL)

		assert.Equal(t, "r1", got.ReplicaID)
		assert.Equal(t, "p1", got.PersonaID)
		assert.Equal(t, 3600, got.Properties.MaxCallDuration)
	})

	t.Run("NonOKIsProviderError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"conversation_id":"c1"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).CreateConversation(context.Background(), &CreateConversationRequest{})
		require.Error(t, err)

		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, http.StatusCreated, perr.StatusCode)
		assert.Equal(t, OpCreate, perr.Op)
	})

	t.Run("ServiceUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"try later"}`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).CreateConversation(context.Background(), &CreateConversationRequest{})
		require.Error(t, err)
		assert.True(t, IsProvider(err))
		assert.False(t, IsTransport(err))
		assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))

		var perr *ProviderError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, `{"message":"try later"}`, perr.Body)
		assert.Equal(t, "503 Service Unavailable", perr.Status)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := newTestClient(t, server.URL).CreateConversation(context.Background(), &CreateConversationRequest{})
		require.Error(t, err)
		assert.Equal(t, "error", Outcome(err))
	})

	t.Run("Unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := newTestClient(t, url).CreateConversation(context.Background(), &CreateConversationRequest{})
		require.Error(t, err)
		assert.True(t, IsTransport(err))
		assert.Equal(t, "transport_error", Outcome(err))
	})
}

func TestEndAndDeleteConversation(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.NoError(t, client.EndConversation(context.Background(), "c1"))
	require.NoError(t, client.DeleteConversation(context.Background(), "c1"))

	assert.Equal(t, []string{
		"POST /v2/conversations/c1/end",
		"DELETE /v2/conversations/c1",
	}, calls)
}

func TestEndConversationProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"conversation not found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.EndConversation(context.Background(), "gone")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	err = client.DeleteConversation(context.Background(), "gone")
	require.Error(t, err)
	assert.Equal(t, "provider_error", Outcome(err))
}

func TestClientRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	client := newTestClient(t, server.URL, WithMeter(provider.Meter("test")))

	ctx := context.Background()
	require.NoError(t, client.EndConversation(ctx, "c1"))
	require.Error(t, client.DeleteConversation(ctx, "c1"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "relay.provider.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value("operation")
				outcome, _ := dp.Attributes.Value("outcome")
				outcomes[op.AsString()+"/"+outcome.AsString()] += dp.Value
			}
		}
	}

	assert.Equal(t, int64(1), outcomes["end/success"])
	assert.Equal(t, int64(1), outcomes["delete/provider_error"])
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
