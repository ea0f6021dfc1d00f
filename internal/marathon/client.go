package marathon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Credentials is the basic-auth pair used against both the scheduler and
// the proxy-stats endpoints.
type Credentials struct {
	Username string
	Password string
}

// Client talks to a Marathon-style scheduler's /v2/apps and /v2/tasks
// endpoints. A single Client is shared across an entire cutover run so its
// rate limiter and retry-capable transport apply to every call the
// controller makes.
type Client struct {
	baseURL string
	creds   Credentials
	http    *retryablehttp.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient builds a scheduler client with up to three automatic retries
// on connection-level errors, mirroring the bounded-retry HTTP session the
// reconciliation loop expects (every scheduler call in a long-running
// cutover goes through the same adapter).
func NewClient(baseURL string, creds Credentials, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil // we log at the call site with structured fields instead
	// Only connection-level failures are retried; any response, whatever its
	// status, goes straight back to do() so a non-2xx becomes a SchedulerError.
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}
		return false, nil
	}
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Warn("retrying scheduler request", "method", req.Method, "url", req.URL.String(), "attempt", attempt)
		}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		creds:   creds,
		http:    rc,
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		logger:  logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	url := c.baseURL + path
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.creds.Username != "" {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scheduler request %s %s: %w", method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, &SchedulerError{Method: method, URL: url, Status: resp.StatusCode, Body: string(b)}
	}

	return resp, nil
}

type appsEnvelope struct {
	Apps []AppDef `json:"apps"`
}

type appEnvelope struct {
	App AppDef `json:"app"`
}

// ListApps returns every application known to the scheduler.
func (c *Client) ListApps(ctx context.Context) ([]AppDef, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v2/apps", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope appsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode app list: %w", err)
	}
	return envelope.Apps, nil
}

// GetApp fetches a single application by ID.
func (c *Client) GetApp(ctx context.Context, id string) (*AppDef, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v2/apps/"+strings.TrimPrefix(id, "/"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope appEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode app %s: %w", id, err)
	}
	return &envelope.App, nil
}

// CreateApp submits a new application definition.
func (c *Client) CreateApp(ctx context.Context, app AppDef) error {
	resp, err := c.do(ctx, http.MethodPost, "/v2/apps", app)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// ScaleApp updates an application's instance count in place.
func (c *Client) ScaleApp(ctx context.Context, id string, instances int) error {
	patch := map[string]any{"instances": instances}
	resp, err := c.do(ctx, http.MethodPut, "/v2/apps/"+strings.TrimPrefix(id, "/")+"?force=true", patch)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// DeleteApp removes an application entirely.
func (c *Client) DeleteApp(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/v2/apps/"+strings.TrimPrefix(id, "/"), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

type killAndScaleRequest struct {
	IDs []string `json:"ids"`
}

// KillAndScale kills the given task IDs and, when scale is true, atomically
// reduces the owning app's instance count by the number of tasks killed.
func (c *Client) KillAndScale(ctx context.Context, taskIDs []string, scale bool) error {
	if len(taskIDs) == 0 {
		return nil
	}
	resp, err := c.do(ctx, http.MethodPost, "/v2/tasks/delete?scale="+boolStr(scale), killAndScaleRequest{IDs: taskIDs})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// WaitForSettle blocks for d, or until ctx is canceled, returning ctx.Err()
// in the latter case. Used by the cutover loop between reconciliation
// steps.
func WaitForSettle(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
