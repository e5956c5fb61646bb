package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/inventorytracker/inventory-tracker/pkg/errors"
	"github.com/inventorytracker/inventory-tracker/pkg/httputil"
	"github.com/inventorytracker/inventory-tracker/pkg/logger"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

// Notifier surfaces a failed call to the user before the error reaches the caller
type Notifier interface {
	NotifyError(err error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(err error)

func (f NotifierFunc) NotifyError(err error) { f(err) }

// RequestOptions describes one call to the inventory service.
// Body, when non-nil, is JSON encoded.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    interface{}
}

// Gateway issues HTTP calls to the remote inventory service
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	notifier   Notifier
	userAgent  string
	logger     *logger.Logger
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithTimeout bounds every call
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.httpClient.Timeout = d
		}
	}
}

// WithNotifier sets the user facing failure sink
func WithNotifier(n Notifier) Option {
	return func(g *Gateway) { g.notifier = n }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(g *Gateway) { g.userAgent = ua }
}

// New creates a gateway for the service at baseURL
func New(baseURL string, log *logger.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log.WithComponent("gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL returns the service base URL
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// Request performs one call. It returns the raw JSON body, or nil when the
// service answered with no content. Non-2xx answers become *errors.RemoteError.
func (g *Gateway) Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error) {
	body, _, err := g.send(ctx, path, opts)
	return body, err
}

// send performs the call, notifies on failure and also returns the HTTP status
func (g *Gateway) send(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, int, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, status, err := g.request(ctx, method, path, opts)
	if err != nil {
		g.notify(err)
		return nil, status, err
	}
	return body, status, nil
}

func (g *Gateway) notify(err error) {
	if g.notifier != nil {
		g.notifier.NotifyError(err)
	}
}

func (g *Gateway) request(ctx context.Context, method, path string, opts RequestOptions) (json.RawMessage, int, error) {
	var reader io.Reader
	if opts.Body != nil {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := httputil.NewRequestID()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(httputil.RequestIDHeader, requestID)
	if opts.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if g.userAgent != "" {
		httpReq.Header.Set("User-Agent", g.userAgent)
	}
	for k, v := range opts.Headers {
		httpReq.Header.Set(k, v)
	}

	log := g.logger.WithRequestID(requestID)
	start := time.Now()

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		remote := &errors.RemoteError{Method: method, Path: path, Message: transportMessage(err), Err: err}
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("inventory service unreachable")
		return nil, 0, remote
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read response body")
		return nil, resp.StatusCode, &errors.RemoteError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("inventory service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &errors.RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, raw),
		}
		log.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("error", remote.Message).
			Msg("inventory service call failed")
		return nil, resp.StatusCode, remote
	}

	trimmed := bytes.TrimSpace(raw)
	if resp.StatusCode == http.StatusNoContent || len(trimmed) == 0 {
		return nil, resp.StatusCode, nil
	}
	if !json.Valid(trimmed) {
		return nil, resp.StatusCode, &errors.RemoteError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    "response is not valid JSON",
		}
	}
	return json.RawMessage(trimmed), resp.StatusCode, nil
}

// errorMessage extracts the message of an error body: a JSON "error" or
// "message" field when present, otherwise the raw text.
func errorMessage(status int, raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return http.StatusText(status)
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil && asString != "" {
		return asString
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &body); err == nil {
		for _, key := range []string{"error", "message"} {
			field, ok := body[key]
			if !ok {
				continue
			}
			var s string
			if json.Unmarshal(field, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(field, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}

	return string(trimmed)
}

func transportMessage(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	return err.Error()
}
