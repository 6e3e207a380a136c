package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/observe"
	"github.com/jonwraymond/ems/resilience"
)

// Header names sent with every request.
const (
	HeaderTenantHost = "X-Tenant-Host"
	HeaderRequestID  = "X-Request-ID"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 32 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the backend root, e.g. https://api.example.org/v1.
	BaseURL string

	// TenantHost is sent as X-Tenant-Host. A host in the request context
	// takes precedence.
	TenantHost string

	// DataPath unwraps response envelopes, e.g. "data" for {"data": ...}.
	// Bodies without the path are decoded whole.
	DataPath string

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration

	// MaxConcurrent caps requests in flight. Default: 6.
	MaxConcurrent int

	// HTTPClient performs requests. Default: a client without its own timeout.
	HTTPClient *http.Client

	// Logger receives one debug entry per request.
	Logger observe.Logger

	// OnUnauthorized runs after any 401 response.
	OnUnauthorized func(ctx context.Context)
}

// Client calls the backend.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: every call honors cancellation; a cancelled call returns an
//     error matching context.Canceled.
//   - Errors: failures are *Error except for request-building and cancellation.
type Client struct {
	base           *url.URL
	tenantHost     string
	dataPath       string
	httpClient     *http.Client
	exec           *resilience.Executor
	logger         observe.Logger
	onUnauthorized func(ctx context.Context)
}

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	return &Client{
		base:       base,
		tenantHost: cfg.TenantHost,
		dataPath:   cfg.DataPath,
		httpClient: httpClient,
		exec: resilience.NewExecutor(
			resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.MaxConcurrent})),
			resilience.WithTimeout(cfg.Timeout),
		),
		logger:         logger,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Request describes one backend call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Accept      string

	// FailureMessage is used when an error response carries no message.
	FailureMessage string
}

// Response is a buffered successful response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do performs req. Non-2xx responses are returned as *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var resp *Response
	err = c.exec.Execute(ctx, func(ctx context.Context) error {
		r, err := c.httpClient.Do(httpReq.WithContext(ctx))
		if err != nil {
			return err
		}
		defer func() { _ = r.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			return err
		}
		resp = &Response{Status: r.StatusCode, Header: r.Header, Body: body}
		return nil
	})

	fields := []observe.Field{
		{Key: "method", Value: httpReq.Method},
		{Key: "path", Value: httpReq.URL.Path},
		{Key: "request_id", Value: httpReq.Header.Get(HeaderRequestID)},
		{Key: "duration_ms", Value: float64(time.Since(start).Milliseconds())},
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("api: %s %s: %w", httpReq.Method, httpReq.URL.Path, context.Canceled)
		}
		c.logger.Debug(ctx, "api request failed", append(fields, observe.Field{Key: "error", Value: err.Error()})...)
		return nil, networkError(err)
	}

	c.logger.Debug(ctx, "api request", append(fields, observe.Field{Key: "status", Value: resp.Status})...)

	if resp.Status < 200 || resp.Status > 299 {
		if resp.Status == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, statusError(resp.Status, resp.Body, req.FailureMessage)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), req.Body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}

	accept := req.Accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set(HeaderRequestID, uuid.NewString())

	if token := auth.TokenFromContext(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	tenant := auth.TenantHostFromContext(ctx)
	if tenant == "" {
		tenant = c.tenantHost
	}
	if tenant != "" {
		httpReq.Header.Set(HeaderTenantHost, tenant)
	}

	return httpReq, nil
}

// decode unmarshals body into out, unwrapping the data envelope if present.
func (c *Client) decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if c.dataPath != "" {
		if r := gjson.GetBytes(body, c.dataPath); r.Exists() {
			body = []byte(r.Raw)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Status: http.StatusOK, Message: "Unexpected response", Cause: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	return nil
}
