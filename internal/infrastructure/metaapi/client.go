// Package metaapi is the rate-limited client for the Meta Graph ads API.
// All remote calls retry transient failures with exponential backoff and
// surface typed errors so callers can tell an expired credential from a
// vanished entity.
package metaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/meridian-ads/meridian/internal/infrastructure/ratelimit"
	"github.com/meridian-ads/meridian/internal/shared/logger"
)

const (
	defaultBaseURL  = "https://graph.facebook.com"
	defaultVersion  = "v21.0"
	defaultMaxPages = 500
	defaultBatchCap = 50
	defaultTimeout  = 30 * time.Second

	// maxResponseSize caps a single response body read (8 MB).
	maxResponseSize = 8 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL          string
	Version          string
	Policy           RetryPolicy
	MaxPages         int
	BatchCap         int
	Timeout          time.Duration
	Budget           ratelimit.Limiter
	BudgetConfig     ratelimit.BudgetConfig
	BreakerThreshold uint32
	Logger           logger.Interface
}

// Client talks to the Graph API. Use ForTenant to bind the shared per-tenant
// request budget before issuing calls on behalf of a tenant.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	policy     RetryPolicy
	maxPages   int
	batchCap   int

	budget    ratelimit.Limiter
	budgetCfg ratelimit.BudgetConfig
	budgetKey string

	breaker *gobreaker.CircuitBreaker
	logger  logger.Interface

	// sleep is swapped in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Client with defaults filled in.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Version == "" {
		opts.Version = defaultVersion
	}
	if opts.Policy.MaxRetries == 0 && opts.Policy.Base == 0 {
		opts.Policy = DefaultRetryPolicy()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = defaultMaxPages
	}
	if opts.BatchCap <= 0 || opts.BatchCap > defaultBatchCap {
		opts.BatchCap = defaultBatchCap
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Budget == nil {
		opts.Budget = ratelimit.NewNoopLimiter()
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = 8
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewLogger()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "meta-graph",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerThreshold
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		version:    opts.Version,
		policy:     opts.Policy,
		maxPages:   opts.MaxPages,
		batchCap:   opts.BatchCap,
		budget:     opts.Budget,
		budgetCfg:  opts.BudgetConfig,
		breaker:    breaker,
		logger:     opts.Logger.Named("metaapi"),
		sleep:      sleepCtx,
	}
}

// ForTenant returns a copy of the client whose calls draw from the tenant's
// shared request budget. The breaker and transport are shared.
func (c *Client) ForTenant(tenantID uint) *Client {
	scoped := *c
	scoped.budgetKey = fmt.Sprintf("tenant:%d", tenantID)
	return &scoped
}

// BatchCap returns the maximum sub-requests one batch call may carry.
func (c *Client) BatchCap() int { return c.batchCap }

// endpoint builds a versioned URL for a relative path.
func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.version, strings.TrimLeft(path, "/"))
}

// GetObject fetches a single Graph object into out.
func (c *Client) GetObject(ctx context.Context, token, path string, params url.Values, out any) error {
	raw, err := c.get(ctx, c.endpoint(path), params, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// FetchPage fetches one list page. pageURL may be a relative path (first
// page) or the absolute paging.next URL returned by a previous call. It
// returns the rows and the next page URL, empty when exhausted.
func (c *Client) FetchPage(ctx context.Context, token, pageURL string, params url.Values) ([]json.RawMessage, string, error) {
	target := pageURL
	if !strings.HasPrefix(pageURL, "http") {
		target = c.endpoint(pageURL)
	}
	raw, err := c.get(ctx, target, params, token)
	if err != nil {
		return nil, "", err
	}

	var pg page
	if err := json.Unmarshal(raw, &pg); err != nil {
		return nil, "", fmt.Errorf("decode page: %w", err)
	}
	if pg.Error != nil {
		return nil, "", classifyError(http.StatusOK, pg.Error)
	}

	next := ""
	if pg.Paging != nil {
		next = pg.Paging.Next
	}
	return pg.Data, next, nil
}

// FetchAll walks every page of a listing, calling visit per row. Pagination
// is followed until the platform reports no next page, bounded by the page
// cap so a misbehaving upstream cannot loop forever.
func (c *Client) FetchAll(ctx context.Context, token, path string, params url.Values, visit func(json.RawMessage) error) error {
	pageURL := path
	pageParams := params
	for i := 0; i < c.maxPages; i++ {
		rows, next, err := c.FetchPage(ctx, token, pageURL, pageParams)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := visit(row); err != nil {
				return err
			}
		}
		if next == "" {
			return nil
		}
		// paging.next is self-contained: params are already encoded in it.
		pageURL, pageParams = next, nil
	}
	return fmt.Errorf("pagination not exhausted after %d pages for %s", c.maxPages, path)
}

// FetchBatch issues a composite batch call. The response slice is parallel to
// requests; a null upstream slot is surfaced as a transient 502 entry rather
// than failing siblings.
func (c *Client) FetchBatch(ctx context.Context, token string, requests []BatchRequest) ([]BatchResponse, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	if len(requests) > c.batchCap {
		return nil, fmt.Errorf("batch size %d exceeds cap %d", len(requests), c.batchCap)
	}

	batchJSON, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	form := url.Values{}
	form.Set("access_token", token)
	form.Set("batch", string(batchJSON))
	form.Set("include_headers", "false")

	raw, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.version+"/", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var entries []*BatchResponse
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}
	if len(entries) != len(requests) {
		return nil, fmt.Errorf("batch returned %d results for %d requests", len(entries), len(requests))
	}

	out := make([]BatchResponse, len(entries))
	for i, e := range entries {
		if e == nil {
			out[i] = BatchResponse{Code: http.StatusBadGateway, Body: `{"error":{"message":"batch sub-request timed out","code":2}}`}
			continue
		}
		out[i] = *e
	}
	return out, nil
}

// get performs a GET with the token appended and full retry handling.
func (c *Client) get(ctx context.Context, rawURL string, params url.Values, token string) ([]byte, error) {
	return c.doWithRetry(ctx, func() (*http.Request, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
		}
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		if token != "" {
			q.Set("access_token", token)
		}
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
}

// doWithRetry runs one logical request with the retry policy: transient and
// rate-limit failures back off and retry, everything else fails immediately.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.policy.Backoff(attempt - 1)
			c.logger.Warnw("retrying upstream call",
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		if err := c.checkBudget(ctx); err != nil {
			lastErr = err
			continue
		}

		body, err := c.doOnce(ctx, build)
		if err == nil {
			return body, nil
		}
		lastErr = err

		apiErr, ok := AsAPIError(err)
		if !ok || !apiErr.Retryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

// checkBudget consumes one slot of the tenant budget. An exhausted budget is
// a local rate-limit condition handled by the same backoff path as an
// upstream 429.
func (c *Client) checkBudget(ctx context.Context) error {
	if c.budgetKey == "" {
		return nil
	}
	allowed, err := c.budget.Allow(ctx, c.budgetKey, c.budgetCfg)
	if err != nil {
		// Budget accounting must not block syncing; log and proceed.
		c.logger.Warnw("rate budget check failed, proceeding", "error", err)
		return nil
	}
	if !allowed {
		return &APIError{Kind: KindRateLimit, Message: "tenant request budget exhausted"}
	}
	return nil
}

// doOnce executes a single HTTP attempt through the circuit breaker. Only
// transport failures and 5xx responses count against the breaker.
func (c *Client) doOnce(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	req, err := build()
	if err != nil {
		return nil, err
	}

	result, cbErr := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &APIError{Kind: KindTransient, Message: err.Error()}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, &APIError{Kind: KindTransient, HTTPStatus: resp.StatusCode, Message: err.Error()}
		}

		if resp.StatusCode >= 500 {
			return nil, classifyError(resp.StatusCode, decodeErrorBody(body))
		}
		return httpResult{status: resp.StatusCode, body: body}, nil
	})
	if cbErr != nil {
		if apiErr, ok := AsAPIError(cbErr); ok {
			return nil, apiErr
		}
		// Breaker open or too many requests: transient, retriable.
		return nil, &APIError{Kind: KindTransient, Message: cbErr.Error()}
	}

	res := result.(httpResult)
	if res.status != http.StatusOK {
		return nil, classifyError(res.status, decodeErrorBody(res.body))
	}
	return res.body, nil
}

type httpResult struct {
	status int
	body   []byte
}

func decodeErrorBody(body []byte) *errorBody {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	return env.Error
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
