// Package gateway is the single request/response contract between the
// admin and the node API: a named operation, a method and an optional JSON
// body go in, a result envelope comes out. Transport failures are returned
// as errors and never folded into the envelope.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lores-mesh/site-admin/internal/logging"
	"github.com/lores-mesh/site-admin/internal/result"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultRate    = rate.Limit(20)
	DefaultBurst   = 10

	maxResponseBytes = 4 << 20
)

// ErrTransport marks failures where no well-formed answer came back.
var ErrTransport = errors.New("node api transport failure")

// TransportError reports a network failure, timeout or malformed response
// for one operation. errors.Is(err, ErrTransport) holds for every value.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("node api %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Gateway is the contract every domain client is built on.
type Gateway interface {
	Call(ctx context.Context, operation, method string, body any) (result.Result[json.RawMessage], error)
}

// Client talks to the node API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit bounds outbound calls to the node API.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// NewClient creates a new node API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(DefaultRate, DefaultBurst),
		metrics: &Metrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metrics returns the client's call counters.
func (c *Client) Metrics() *Metrics { return c.metrics }

// Call performs one operation against the node API.
func (c *Client) Call(ctx context.Context, operation, method string, body any) (result.Result[json.RawMessage], error) {
	logger := logging.NewLogger(ctx)
	start := time.Now()

	res, err := c.do(ctx, operation, method, body)
	duration := time.Since(start)
	c.metrics.record(duration, res, err)

	switch {
	case err != nil:
		logger.LogError(operation, err)
	case !res.IsOk():
		logger.LogWarnf(operation, "node api returned status=%d code=%s", res.Error().Status, res.Error().Code)
	default:
		logger.LogDebugf(operation, "method=%s latency=%s", method, duration)
	}
	return res, err
}

func (c *Client) do(ctx context.Context, operation, method string, body any) (result.Result[json.RawMessage], error) {
	var none result.Result[json.RawMessage]

	if method != http.MethodGet && method != http.MethodPost {
		return none, fmt.Errorf("node api %s: unsupported method %q", operation, method)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return none, &TransportError{Operation: operation, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return none, fmt.Errorf("node api %s: failed to marshal request: %w", operation, err)
		}
		reader = bytes.NewReader(jsonData)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(operation, "/"))
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return none, fmt.Errorf("node api %s: failed to create request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := logging.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return none, &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return none, &TransportError{Operation: operation, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	res, err := decodeResponse(resp.StatusCode, data)
	if err != nil {
		return none, &TransportError{Operation: operation, Err: err}
	}
	return res, nil
}

// decodeResponse maps a node API response onto the envelope. A 2xx body
// is the success payload (JSON null means absent); any other status is a
// server-reported failure. Bodies already shaped as an envelope are
// unwrapped.
func decodeResponse(status int, data []byte) (result.Result[json.RawMessage], error) {
	data = bytes.TrimSpace(data)

	if env, ok := asEnvelope(data); ok {
		return env, nil
	}

	if status >= 200 && status < 300 {
		if len(data) == 0 {
			return result.Ok(json.RawMessage("null")), nil
		}
		if !json.Valid(data) {
			return result.Result[json.RawMessage]{}, fmt.Errorf("malformed response body (status %d)", status)
		}
		return result.Ok(json.RawMessage(data)), nil
	}

	return result.Err[json.RawMessage](&result.DomainError{
		Status:  status,
		Code:    result.CodeForStatus(status),
		Message: errorMessage(status, data),
	}), nil
}

func asEnvelope(data []byte) (result.Result[json.RawMessage], bool) {
	var res result.Result[json.RawMessage]
	if len(data) == 0 || data[0] != '{' {
		return res, false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil || len(keys) != 1 {
		return res, false
	}
	if _, ok := keys["Ok"]; !ok {
		if _, ok := keys["Err"]; !ok {
			return res, false
		}
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, false
	}
	return res, true
}

func errorMessage(status int, data []byte) string {
	if len(data) > 0 && json.Valid(data) {
		var obj struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			if obj.Error != "" {
				return obj.Error
			}
			if obj.Message != "" {
				return obj.Message
			}
		}
		var s string
		if err := json.Unmarshal(data, &s); err == nil && s != "" {
			return s
		}
	}
	if len(data) > 0 && data[0] != '{' && data[0] != '[' {
		return string(data)
	}
	return http.StatusText(status)
}
