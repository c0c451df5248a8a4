package measurements

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/taylorfit/backend/internal/domain"
)

const (
	maxAttempts = 3
	// maxBodyBytes caps how much of a response is read
	maxBodyBytes = 1 << 20
)

// backoffBase is the delay before the second attempt; tests shrink it
var backoffBase = 500 * time.Millisecond

// Client reads a shopper's stored measurements from the measurements service
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      zerolog.Logger
	debug       bool
}

// ClientConfig configures the measurements client
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond bounds outgoing calls; zero means 5/s
	RequestsPerSecond float64
	Burst             int
}

// NewClient creates a new measurements service client
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:      logger.With().Str("component", "measurements").Logger(),
	}
}

// SetDebug enables or disables request-level debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the delay before the given (1-based) retry attempt
func exponentialBackoff(attempt int) time.Duration {
	return backoffBase * time.Duration(1<<(attempt-1))
}

// getResponse is the envelope returned by GET /api/measurements/get
type getResponse struct {
	Measurements *domain.StoredMeasurements `json:"measurements"`
}

// GetMeasurements returns the most recent measurements the shopper saved for garmentType.
// The shopper's bearer token is forwarded unchanged.
func (c *Client) GetMeasurements(ctx context.Context, token, garmentType string) (*domain.StoredMeasurements, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	params := url.Values{}
	params.Set("garmentType", garmentType)
	reqURL := fmt.Sprintf("%s/api/measurements/get?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		status, body, err := c.doRequest(ctx, reqURL, token)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Msg("measurements request failed")
			lastErr = err
			continue
		}

		if c.debug {
			c.logger.Debug().
				Int("attempt", attempt).
				Int("status", status).
				Str("garment_type", garmentType).
				Msg("[MEASUREMENTS] response received")
		}

		switch {
		case status == http.StatusOK:
			return decodeMeasurements(body, garmentType)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, domain.ErrUnauthorized
		case status == http.StatusNotFound:
			return nil, domain.ErrNoMeasurements
		case status == http.StatusTooManyRequests || status >= 500:
			c.logger.Warn().Int("attempt", attempt).Int("status", status).Msg("measurements service error, retrying")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrMeasurementsServiceFailure, status)
		default:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrMeasurementsServiceFailure, status, truncate(body, 200))
		}
	}

	c.logger.Error().Err(lastErr).Str("garment_type", garmentType).Msg("all measurement fetch attempts failed")
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, reqURL, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Taylor/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrMeasurementsServiceFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", domain.ErrMeasurementsServiceFailure, err)
	}
	return resp.StatusCode, body, nil
}

func decodeMeasurements(body []byte, garmentType string) (*domain.StoredMeasurements, error) {
	var envelope getResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrMeasurementsServiceFailure, err)
	}
	if envelope.Measurements == nil || len(envelope.Measurements.Measurements) == 0 {
		return nil, domain.ErrNoMeasurements
	}
	if envelope.Measurements.GarmentType == "" {
		envelope.Measurements.GarmentType = garmentType
	}
	return envelope.Measurements, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
