package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rftrank/internal"
	"rftrank/internal/config"
)

// Client fetches the product list from the planning system's HTTP API.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.UpstreamTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.UpstreamRateLimRPS),
	}
}

// FetchProductList fetches `{"product":[{"code":...},...]}` from the
// upstream product endpoint. Transient statuses are retried with backoff;
// terminal failures surface as UpstreamError carrying the upstream status.
func (c *Client) FetchProductList(ctx context.Context) (internal.ProductList, error) {
	if strings.TrimSpace(c.cfg.UpstreamAPIBaseURL) == "" {
		return internal.ProductList{}, internal.UpstreamError{Err: errors.New("missing UPSTREAM_API_BASE_URL")}
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.UpstreamAPIBaseURL, "/") + "/product/list")
	if err != nil {
		return internal.ProductList{}, internal.UpstreamError{Err: err}
	}

	var lastErr error
	lastStatus := 0
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return internal.ProductList{}, internal.UpstreamError{Err: err}
		}
		if token := strings.TrimSpace(c.cfg.UpstreamAPIToken); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("upstream status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
			return internal.ProductList{}, internal.UpstreamError{Status: resp.StatusCode, Err: lastErr}
		}

		var list internal.ProductList
		if err := json.Unmarshal(body, &list); err != nil {
			return internal.ProductList{}, internal.UpstreamError{Err: fmt.Errorf("decode product list: %w", err)}
		}
		return list, nil
	}

	if lastErr == nil {
		lastErr = errors.New("upstream request failed")
	}
	return internal.ProductList{}, internal.UpstreamError{Status: lastStatus, Err: lastErr}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
