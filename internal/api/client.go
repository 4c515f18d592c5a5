// Package api is the REST client for the video metadata service. Every
// response is checked by package schema before it is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/reelctl/internal/domain"
	"github.com/mmcdole/reelctl/internal/schema"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	apiVersion      = "/v1"
	maxBodySize     = 4 << 20
	requestIDHeader = "X-Request-ID"
)

// Config controls transport behavior
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// RequestsPerSecond caps outgoing requests. Zero disables the limit.
	RequestsPerSecond float64

	// BreakerFailures is how many consecutive transport failures open the
	// circuit; BreakerCooldown is how long it stays open.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultConfig returns the settings used when the config file is silent
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:           baseURL,
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        500 * time.Millisecond,
		RequestsPerSecond: 10,
		BreakerFailures:   5,
		BreakerCooldown:   30 * time.Second,
	}
}

// TokenSource returns the current bearer credential, or "" for none
type TokenSource func() string

// Client implements domain.AuthRepository and domain.VideoRepository
type Client struct {
	baseURL    string
	cfg        Config
	tokens     TokenSource
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*result]
	limiter    *rate.Limiter
	cookies    *cookieStore
	logger     *slog.Logger
}

// NewClient creates a client for cfg.BaseURL. snapshots persists the refresh
// cookie between runs and may be nil.
func NewClient(cfg Config, tokens TokenSource, snapshots domain.SnapshotStore, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = func() string { return "" }
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		baseURL: base + apiVersion,
		cfg:     cfg,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*result](gobreaker.Settings{
		Name:    "api",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.BreakerFailures > 0 && counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	c.cookies = newCookieStore(jar, c.baseURL+"/auth/", snapshots, logger)
	c.cookies.restore()

	return c, nil
}

// ClearCookies forgets the refresh cookie in memory and on disk
func (c *Client) ClearCookies() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.httpClient.Jar = jar
	return c.cookies.reset(jar)
}

// BreakerState reports the circuit breaker state for diagnostics
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// result is one completed HTTP exchange
type result struct {
	status     int
	body       []byte
	setCookies bool
}

// errServerStatus marks a 5xx so the breaker counts it as a failure
var errServerStatus = errors.New("server error status")

// body is an encoded request payload
type body struct {
	contentType string
	data        []byte
}

func jsonBody(v any) (*body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return &body{contentType: "application/json", data: data}, nil
}

func formBody(v url.Values) *body {
	return &body{contentType: "application/x-www-form-urlencoded", data: []byte(v.Encode())}
}

// doRequest performs one API call and returns the 2xx response body.
// Idempotent GETs are retried with exponential backoff on 5xx and network
// errors. 401 maps to ErrAuthFailed, network failures and an open circuit
// to ErrServerOffline, and any other non-2xx to *domain.StatusError.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload *body) ([]byte, error) {
	endpoint := method + " " + path
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	retries := 0
	if method == http.MethodGet {
		retries = c.cfg.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.cfg.RetryDelay * time.Duration(1<<(attempt-1))
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "endpoint", endpoint)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := c.newRequest(ctx, method, reqURL, payload)
		if err != nil {
			return nil, err
		}
		requestID := req.Header.Get(requestIDHeader)
		c.logger.Debug("api request", "endpoint", endpoint, "requestID", requestID, "attempt", attempt)

		res, err := c.breaker.Execute(func() (*result, error) {
			return c.roundTrip(req)
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			c.logger.Warn("circuit open, request not sent", "endpoint", endpoint)
			return nil, domain.ErrServerOffline

		case errors.Is(err, errServerStatus):
			lastErr = &domain.StatusError{Endpoint: endpoint, Status: res.status, Detail: parseDetail(res.body)}
			c.logger.Warn("api server error",
				"endpoint", endpoint,
				"status", res.status,
				"requestID", requestID,
				"attempt", attempt,
				"maxRetries", retries,
			)
			continue

		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("api request failed", "endpoint", endpoint, "requestID", requestID, "error", err)
			lastErr = domain.ErrServerOffline
			continue
		}

		if res.setCookies {
			c.cookies.save()
		}

		if res.status < 200 || res.status > 299 {
			detail := parseDetail(res.body)
			c.logger.Error("api request error",
				"endpoint", endpoint,
				"status", res.status,
				"detail", detail,
				"requestID", requestID,
			)
			return nil, &domain.StatusError{Endpoint: endpoint, Status: res.status, Detail: detail}
		}

		return res.body, nil
	}

	c.logger.Error("api request failed after retries", "endpoint", endpoint, "error", lastErr)
	return nil, lastErr
}

func (c *Client) newRequest(ctx context.Context, method, reqURL string, payload *body) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", payload.contentType)
	}
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) roundTrip(req *http.Request) (*result, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	res := &result{
		status:     resp.StatusCode,
		body:       data,
		setCookies: len(resp.Header.Values("Set-Cookie")) > 0,
	}
	if resp.StatusCode >= 500 {
		return res, errServerStatus
	}
	return res, nil
}

// parseDetail extracts a readable message from an error body. The server
// sends {"detail": "..."} or a list of {"msg": "..."} for validation errors.
func parseDetail(data []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(data, &payload) != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(payload.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	return payload.Message
}

// decode runs a schema check over a response body. Any failure becomes a
// *domain.ResponseError naming the endpoint.
func decode[T any](endpoint, message string, data []byte, check func(any) (T, error)) (T, error) {
	var zero T
	raw, err := schema.Decode(data)
	if err != nil {
		return zero, &domain.ResponseError{Endpoint: endpoint, Message: message, Err: err}
	}
	v, err := check(raw)
	if err != nil {
		return zero, &domain.ResponseError{Endpoint: endpoint, Message: message, Err: err}
	}
	return v, nil
}

var (
	_ domain.AuthRepository  = (*Client)(nil)
	_ domain.VideoRepository = (*Client)(nil)
)
