package esimaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/roamsim/roamsim/internal/esim/driver"
)

const (
	defaultBaseURL = "https://api.esimaccess.com"
	providerName   = "esimaccess"

	// DefaultMaxAttempts bounds the retry loop, first attempt included.
	DefaultMaxAttempts = 3
	// DefaultBackoffBase is the backoff unit doubled per failed attempt.
	DefaultBackoffBase = 500 * time.Millisecond
	// DefaultBackoffJitter is the upper bound of the uniform jitter added to
	// each backoff.
	DefaultBackoffJitter = 500 * time.Millisecond
	// DefaultTimeout caps each individual attempt.
	DefaultTimeout = 30 * time.Second
)

// Client implements driver.Provider against the eSIM Access open API.
//
// Every endpoint is a JSON POST authenticated by the RT-AccessCode header.
// All calls flow through the shared limiter and the retry loop in call.
type Client struct {
	BaseURL    string
	AccessCode string
	HTTPClient *http.Client

	// Timeout caps each attempt. Expiry is classified transient so it feeds
	// the retry loop like any other transport failure.
	Timeout time.Duration

	MaxAttempts   int
	BackoffBase   time.Duration
	BackoffJitter time.Duration

	Limiter *RateLimiter

	// sleep and jitter are injectable for tests. Nil means real time and
	// the shared math/rand source.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

var _ driver.Provider = (*Client)(nil)

// NewClient returns a client with defaults applied.
func NewClient(baseURL, accessCode string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}

	return &Client{
		BaseURL:    url,
		AccessCode: strings.TrimSpace(accessCode),
		Limiter:    NewRateLimiter(DefaultRateLimit, DefaultRateLimitWindow),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return providerName
}

// call runs one provider operation through rate limiting, retries, and
// classification. On success the envelope's obj payload is decoded into out
// (skipped when out is nil or obj is absent).
func (c *Client) call(ctx context.Context, endpoint string, payload any, out any) error {
	if c == nil {
		return fmt.Errorf("esimaccess client not configured")
	}
	if strings.TrimSpace(c.AccessCode) == "" {
		return fmt.Errorf("access code is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}

		obj, err := c.doAttempt(ctx, endpoint, body, attempt)
		if err == nil {
			if out == nil || len(obj) == 0 {
				return nil
			}
			if err := json.Unmarshal(obj, out); err != nil {
				return fmt.Errorf("%s: decode obj: %w", endpoint, err)
			}
			return nil
		}

		lastErr = err
		if !driver.IsRetryable(err) || attempt == maxAttempts-1 {
			break
		}

		if err := c.backoff(ctx, attempt); err != nil {
			return err
		}
	}

	if pe, ok := driver.AsProviderError(lastErr); ok && pe.Retryable() {
		return fmt.Errorf("%s: retries exhausted after %d attempts: %w", endpoint, maxAttempts, lastErr)
	}
	return lastErr
}

// doAttempt performs a single HTTP exchange and classifies its outcome.
func (c *Client) doAttempt(ctx context.Context, endpoint string, body []byte, attempt int) (json.RawMessage, error) {
	start := time.Now()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimRight(c.BaseURL, "/") + endpoint
	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("RT-AccessCode", c.AccessCode)
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		perr := &driver.ProviderError{Provider: providerName, Kind: driver.KindTransport, Message: err.Error()}
		c.trace(endpoint, attempt, body, 0, "", nil, perr, start)
		return nil, perr
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		perr := &driver.ProviderError{Provider: providerName, Kind: driver.KindTransport, HTTPStatus: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
		c.trace(endpoint, attempt, body, resp.StatusCode, "", nil, perr, start)
		return nil, perr
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		perr := &driver.ProviderError{Provider: providerName, Kind: driver.KindTransport, HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		c.trace(endpoint, attempt, body, resp.StatusCode, "", respBody, perr, start)
		return nil, perr
	}
	if resp.StatusCode >= http.StatusBadRequest {
		perr := &driver.ProviderError{Provider: providerName, Kind: driver.KindClient, HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		c.trace(endpoint, attempt, body, resp.StatusCode, "", respBody, perr, start)
		return nil, perr
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		perr := &driver.ProviderError{Provider: providerName, Kind: driver.KindTransport, HTTPStatus: resp.StatusCode, Message: fmt.Sprintf("decode envelope: %v", err)}
		c.trace(endpoint, attempt, body, resp.StatusCode, "", respBody, perr, start)
		return nil, perr
	}

	if env.IsSuccess() {
		c.trace(endpoint, attempt, body, resp.StatusCode, env.Code(), respBody, nil, start)
		return env.Obj, nil
	}

	code := env.Code()
	perr := &driver.ProviderError{
		Provider:   providerName,
		Kind:       driver.ClassifyCode(code),
		Code:       code,
		Message:    env.ErrorMsg,
		HTTPStatus: resp.StatusCode,
	}
	c.trace(endpoint, attempt, body, resp.StatusCode, code, respBody, perr, start)
	return nil, perr
}

// backoff sleeps base*2^attempt plus uniform jitter, or returns early on
// context cancellation.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	base := c.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	jitterMax := c.BackoffJitter
	if jitterMax <= 0 {
		jitterMax = DefaultBackoffJitter
	}

	delay := base * (1 << uint(attempt))
	delay += time.Duration(c.jitterUnit() * float64(jitterMax))

	if c.sleep != nil {
		return c.sleep(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) jitterUnit() float64 {
	if c.jitter != nil {
		return c.jitter()
	}
	return rand.Float64()
}

func (c *Client) trace(endpoint string, attempt int, reqBody []byte, status int, code string, respBody []byte, err error, start time.Time) {
	if !driver.IsTracingEnabled() {
		return
	}
	entry := driver.TraceEntry{
		Provider:     providerName,
		Endpoint:     endpoint,
		Attempt:      attempt,
		RequestBody:  json.RawMessage(reqBody),
		StatusCode:   status,
		ProviderCode: code,
		Response:     json.RawMessage(respBody),
		DurationMs:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	driver.Trace(entry)
}
