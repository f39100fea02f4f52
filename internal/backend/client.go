// Package backend is the HTTP client for the Azure Functions API that owns
// users, meetings, segments and comments.
package backend

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "audiosales/backend"

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("backend: not found")
	// ErrInvalidCredentials is returned when login is rejected.
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
)

// HTTPStatusError captures non-2xx responses.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("backend: %s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Message)
}

// HTTPStatusCode returns the upstream status.
func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Observer receives per-call timing; *metrics.Metrics satisfies it.
type Observer interface {
	ObserveUpstream(operation string, err error, elapsed time.Duration)
}

// Client talks to the meetings backend.
type Client struct {
	baseURL     string
	functionKey string
	httpClient  *http.Client
	observer    Observer
	tracer      trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithFunctionKey sets the x-functions-key header sent on every call.
func WithFunctionKey(key string) Option {
	return func(c *Client) {
		c.functionKey = key
	}
}

// WithObserver records call metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New returns a client rooted at baseURL (e.g. https://func.azurewebsites.net/api).
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend: base URL must not be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// errorBody covers the shapes the functions use for failures.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends a request and decodes a 2xx JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("backend.path", path),
		),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if c.observer != nil {
			c.observer.ObserveUpstream(op, err, time.Since(start))
		}
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: %s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("backend: %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.functionKey != "" {
		req.Header.Set("x-functions-key", c.functionKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("backend: %s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &HTTPStatusError{Operation: op, StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, statusErr)
		}
		return statusErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: %s: decode response: %w", op, err)
	}
	return nil
}

func upstreamMessage(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if eb.Error != "" {
			return eb.Error
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
