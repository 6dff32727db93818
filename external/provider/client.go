package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/GHILLIExSTEW/sportfeed/internal/domain/catalog"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/logging"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/ratelimit"
	"github.com/GHILLIExSTEW/sportfeed/internal/platform/resilience"
)

const apiKeyHeader = "x-api-key"

// League is the provider-shaped competition row returned by the
// /leagues endpoint before it is mapped into the catalog.
type League struct {
	ID      int64
	Name    string
	Country string
}

// RawGame is one element of a games response. Fields is the decoded
// object for normalization; Raw is the original JSON kept for auditing.
type RawGame struct {
	Fields map[string]any
	Raw    []byte
}

type ClientConfig struct {
	APIKey            string
	Timeout           time.Duration
	MaxRetries        int
	RetryBaseDelay    time.Duration
	RetryAfterDefault time.Duration
	Limiter           *ratelimit.Limiter
	Breaker           *resilience.CircuitBreaker
	Logger            *logging.Logger
	HTTPClient        *http.Client
	// OnHTTPStatus, when set, receives every attempt's response status
	// code, retried attempts included.
	OnHTTPStatus func(status int)
}

// Client talks to the per-sport upstream APIs. All calls pass through
// the shared rate limiter and circuit breaker, and concurrent identical
// GETs are collapsed by singleflight.
type Client struct {
	apiKey            string
	maxRetries        int
	retryBaseDelay    time.Duration
	retryAfterDefault time.Duration
	limiter           *ratelimit.Limiter
	breaker           *resilience.CircuitBreaker
	logger            *logging.Logger
	httpClient        *http.Client
	onHTTPStatus      func(int)
	flight            resilience.SingleFlight

	sleep func(context.Context, time.Duration) error
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider api key is required")
	}
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("provider rate limiter is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	retryBaseDelay := cfg.RetryBaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = 5 * time.Second
	}
	retryAfterDefault := cfg.RetryAfterDefault
	if retryAfterDefault <= 0 {
		retryAfterDefault = time.Minute
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		apiKey:            cfg.APIKey,
		maxRetries:        maxRetries,
		retryBaseDelay:    retryBaseDelay,
		retryAfterDefault: retryAfterDefault,
		limiter:           cfg.Limiter,
		breaker:           cfg.Breaker,
		logger:            logger,
		httpClient:        httpClient,
		onHTTPStatus:      cfg.OnHTTPStatus,
		sleep:             sleepContext,
	}, nil
}

// Leagues fetches the competitions available for a sport in the given
// season year.
func (c *Client) Leagues(ctx context.Context, sport catalog.Sport, season int) ([]League, error) {
	query := url.Values{}
	query.Set("season", strconv.Itoa(season))

	entries, err := c.fetchEnvelope(ctx, sport, "/leagues", query)
	if err != nil {
		return nil, err
	}

	out := make([]League, 0, len(entries))
	for _, entry := range entries {
		item := parseLeague(entry.Fields)
		if item.ID <= 0 {
			c.logger.WarnContext(ctx, "skipping league without id", "sport", sport.ID)
			continue
		}
		out = append(out, item)
	}

	return out, nil
}

// Games fetches one league/date slice of the schedule. to is optional
// and extends the query into a date range when non-empty.
func (c *Client) Games(ctx context.Context, sport catalog.Sport, leagueID int64, season int, date, to string) ([]RawGame, error) {
	query := url.Values{}
	query.Set("league", strconv.FormatInt(leagueID, 10))
	query.Set("season", strconv.Itoa(season))
	query.Set("date", date)
	if to != "" {
		query.Set("to", to)
	}

	endpoint := "/games"
	if sport.UsesFixtures {
		endpoint = "/fixtures"
	}

	return c.fetchEnvelope(ctx, sport, endpoint, query)
}

func (c *Client) fetchEnvelope(ctx context.Context, sport catalog.Sport, endpoint string, query url.Values) ([]RawGame, error) {
	requestURL := strings.TrimRight(sport.BaseURL, "/") + endpoint
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	result, err := c.flight.Do(requestURL, func() (any, error) {
		return c.fetchWithRetry(ctx, sport, endpoint, requestURL)
	})
	if err != nil {
		return nil, err
	}

	entries, ok := result.([]RawGame)
	if !ok {
		return nil, newFetchError(sport.ID, endpoint, 0, fmt.Errorf("unexpected singleflight result %T", result))
	}

	return entries, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, sport catalog.Sport, endpoint, requestURL string) ([]RawGame, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Acquire(ctx, sport.Host()); err != nil {
			return nil, newFetchError(sport.ID, endpoint, 0, err)
		}
		if err := c.breaker.Allow(); err != nil {
			return nil, newFetchError(sport.ID, endpoint, 0, crerr.Wrap(ErrTransient, err.Error()))
		}

		entries, retryIn, err := c.doRequest(ctx, sport, endpoint, requestURL)
		if err == nil {
			return entries, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == c.maxRetries {
			break
		}

		delay := retryIn
		if delay <= 0 {
			delay = time.Duration(attempt+1) * c.retryBaseDelay
		}
		c.logger.WarnContext(ctx, "provider call failed, retrying",
			"sport", sport.ID,
			"endpoint", endpoint,
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err,
		)
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return nil, newFetchError(sport.ID, endpoint, 0, sleepErr)
		}
	}

	if Retryable(lastErr) {
		lastErr = crerr.Mark(lastErr, ErrExhausted)
	}

	return nil, lastErr
}

// doRequest performs one HTTP attempt. A positive retryIn carries the
// server-advised delay from a 429 reply.
func (c *Client) doRequest(ctx context.Context, sport catalog.Sport, endpoint, requestURL string) (entries []RawGame, retryIn time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, newFetchError(sport.ID, endpoint, 0, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, 0, newFetchError(sport.ID, endpoint, 0, crerr.Mark(err, ErrTransient))
	}
	defer func() { _ = resp.Body.Close() }()

	if c.onHTTPStatus != nil {
		c.onHTTPStatus(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.breaker.RecordSuccess()
		return nil, c.retryAfter(resp), newFetchError(sport.ID, endpoint, resp.StatusCode, ErrRateLimited)
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.breaker.RecordFailure()
		return nil, 0, newFetchError(sport.ID, endpoint, resp.StatusCode, ErrTransient)
	case resp.StatusCode >= http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.breaker.RecordSuccess()
		return nil, 0, newFetchError(sport.ID, endpoint, resp.StatusCode, ErrRejected)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, 0, newFetchError(sport.ID, endpoint, resp.StatusCode, crerr.Mark(err, ErrTransient))
	}
	c.breaker.RecordSuccess()

	entries, err = decodeEnvelope(body)
	if err != nil {
		return nil, 0, newFetchError(sport.ID, endpoint, resp.StatusCode, err)
	}

	return entries, 0, nil
}

// retryAfter reads the Retry-After header, accepting both delta-seconds
// and HTTP-date forms.
func (c *Client) retryAfter(resp *http.Response) time.Duration {
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return c.retryAfterDefault
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}

	return c.retryAfterDefault
}

// decodeEnvelope unpacks the standard provider reply. The body must be
// a JSON object carrying a "response" key; anything else is malformed.
func decodeEnvelope(body []byte) ([]RawGame, error) {
	var envelope map[string]any
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		return nil, crerr.Mark(err, ErrMalformedPayload)
	}

	payload, ok := envelope["response"]
	if !ok {
		return nil, crerr.Wrap(ErrMalformedPayload, "missing response key")
	}

	items, _ := payload.([]any)
	out := make([]RawGame, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}

		raw, err := encodeRaw(fields)
		if err != nil {
			return nil, crerr.Mark(err, ErrMalformedPayload)
		}
		out = append(out, RawGame{Fields: fields, Raw: raw})
	}

	return out, nil
}

func encodeRaw(fields map[string]any) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(fields); err != nil {
		return nil, err
	}

	return bytes.Clone(bytes.TrimRight(buf.B, "\n")), nil
}

func parseLeague(fields map[string]any) League {
	out := League{
		ID:   pickInt64(fields, "id"),
		Name: pickString(fields, "name"),
	}
	if nested, ok := fields["league"].(map[string]any); ok {
		if out.ID <= 0 {
			out.ID = pickInt64(nested, "id")
		}
		if out.Name == "" {
			out.Name = pickString(nested, "name")
		}
	}

	switch country := fields["country"].(type) {
	case map[string]any:
		out.Country = pickString(country, "name")
	case string:
		out.Country = country
	}

	return out
}

func pickString(fields map[string]any, key string) string {
	value, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func pickInt64(fields map[string]any, key string) int64 {
	switch value := fields[key].(type) {
	case float64:
		return int64(value)
	case int64:
		return value
	case int:
		return int64(value)
	case string:
		out, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0
		}
		return out
	default:
		return 0
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
