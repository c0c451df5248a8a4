package measurements

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taylorfit/backend/internal/domain"
)

func TestMain(m *testing.M) {
	backoffBase = time.Millisecond
	m.Run()
}

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{BaseURL: baseURL, RequestsPerSecond: 1000, Burst: 100}, zerolog.Nop())
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://localhost:3001/"}, zerolog.Nop())

	assert.Equal(t, "http://localhost:3001", client.baseURL)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, backoffBase},
		{2, 2 * backoffBase},
		{3, 4 * backoffBase},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestGetMeasurements_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/measurements/get", r.URL.Path)
		assert.Equal(t, "tshirt", r.URL.Query().Get("garmentType"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"measurements":{"garmentType":"tshirt","unit":"cm","measurements":{"chestAround":96,"waist":null}}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).GetMeasurements(context.Background(), "secret", "tshirt")

	require.NoError(t, err)
	assert.Equal(t, "tshirt", got.GarmentType)
	assert.Equal(t, "cm", got.Unit)
	require.NotNil(t, got.Measurements["chestAround"])
	assert.Equal(t, 96.0, *got.Measurements["chestAround"])
	assert.Nil(t, got.Measurements["waist"])
}

func TestGetMeasurements_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      error
		wantAttempts int32
	}{
		{"null measurements", http.StatusOK, `{"measurements":null}`, domain.ErrNoMeasurements, 1},
		{"empty document", http.StatusOK, `{"measurements":{"unit":"cm","measurements":{}}}`, domain.ErrNoMeasurements, 1},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Please authenticate"}`, domain.ErrUnauthorized, 1},
		{"not found", http.StatusNotFound, ``, domain.ErrNoMeasurements, 1},
		{"bad request is not retried", http.StatusBadRequest, `oops`, domain.ErrMeasurementsServiceFailure, 1},
		{"server error is retried", http.StatusInternalServerError, `{"message":"Error fetching measurements"}`, domain.ErrMeasurementsServiceFailure, maxAttempts},
		{"malformed json", http.StatusOK, `{`, domain.ErrMeasurementsServiceFailure, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).GetMeasurements(context.Background(), "secret", "tshirt")

			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(&attempts))
		})
	}
}

func TestGetMeasurements_RetriesThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"measurements":{"unit":"inches","measurements":{"chestAround":38}}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).GetMeasurements(context.Background(), "secret", "tshirt")

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, "inches", got.Unit)
	assert.Equal(t, "tshirt", got.GarmentType)
}

func TestGetMeasurements_EmptyToken(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetMeasurements(context.Background(), "", "tshirt")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Zero(t, atomic.LoadInt32(&attempts))
}

func TestGetMeasurements_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).GetMeasurements(ctx, "secret", "tshirt")
	assert.Error(t, err)
}
