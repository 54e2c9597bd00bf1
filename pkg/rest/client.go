package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/arcweave/gatewire/internal/observe"
	"github.com/arcweave/gatewire/internal/resilience"
)

// Client is the REST collaborator surface: typed JSON requests, multipart
// attachment uploads, and the fixed error-classification contract in
// errors.go.
//
// bucket groups requests for circuit-breaker and metrics purposes (e.g.
// "POST /channels/:id/messages") and should not include path parameters, so
// that requests against different resources of the same route share one
// breaker. path is the actual request path appended to the client's base
// URL, e.g. "/channels/123456789/messages".
type Client interface {
	Get(ctx context.Context, bucket, path string, out any) error
	Post(ctx context.Context, bucket, path string, body, out any) error
	Patch(ctx context.Context, bucket, path string, body, out any) error
	Put(ctx context.Context, bucket, path string, body, out any) error
	Delete(ctx context.Context, bucket, path string) error
	PostMultipart(ctx context.Context, bucket, path string, payload any, attachments []Attachment, out any) error
}

// Config configures an [HTTPClient].
type Config struct {
	// BaseURL is the API root, e.g. "https://discord.com/api/v10". No
	// trailing slash.
	BaseURL string

	// Token is the bot token sent as "Authorization: Bot <token>".
	Token string

	// UserAgent is sent verbatim, conventionally "<library-name>/<version>".
	UserAgent string

	// Timeout bounds a single HTTP round trip. Default: 10s.
	Timeout time.Duration

	// CircuitBreaker configures the per-bucket breaker. Zero value uses
	// [resilience.NewCircuitBreaker]'s own defaults.
	CircuitBreaker resilience.CircuitBreakerConfig

	// Logger receives per-request debug logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives request duration/error observations. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// HTTPClient is the underlying transport. Defaults to a client
	// wrapping http.DefaultTransport with otelhttp instrumentation.
	HTTPClient *http.Client
}

// HTTPClient is the concrete [Client] implementation over net/http: it sets
// the required headers, classifies errors by HTTP status, and wraps each
// bucket in its own circuit breaker so a misbehaving route can't cascade
// into every other call.
type HTTPClient struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
	metrics   *observe.Metrics
	cbConfig  resilience.CircuitBreakerConfig

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewClient creates an [HTTPClient] from cfg.
func NewClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http:      cfg.HTTPClient,
		logger:    cfg.Logger.With("component", "rest"),
		metrics:   cfg.Metrics,
		cbConfig:  cfg.CircuitBreaker,
		breakers:  make(map[string]*resilience.CircuitBreaker),
	}
}

func (c *HTTPClient) breaker(bucket string) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[bucket]
	if !ok {
		cfg := c.cbConfig
		cfg.Name = bucket
		cb = resilience.NewCircuitBreaker(cfg)
		c.breakers[bucket] = cb
	}
	return cb
}

// Get issues a GET request and decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, bucket, path string, out any) error {
	return c.do(ctx, bucket, http.MethodGet, path, nil, "", out)
}

// Post issues a POST with a JSON-encoded body and decodes the response into out.
func (c *HTTPClient) Post(ctx context.Context, bucket, path string, body, out any) error {
	return c.doJSON(ctx, bucket, http.MethodPost, path, body, out)
}

// Patch issues a PATCH with a JSON-encoded body and decodes the response into out.
func (c *HTTPClient) Patch(ctx context.Context, bucket, path string, body, out any) error {
	return c.doJSON(ctx, bucket, http.MethodPatch, path, body, out)
}

// Put issues a PUT with a JSON-encoded body and decodes the response into out.
func (c *HTTPClient) Put(ctx context.Context, bucket, path string, body, out any) error {
	return c.doJSON(ctx, bucket, http.MethodPut, path, body, out)
}

// Delete issues a DELETE with no body and discards the response.
func (c *HTTPClient) Delete(ctx context.Context, bucket, path string) error {
	return c.do(ctx, bucket, http.MethodDelete, path, nil, "", nil)
}

// PostMultipart uploads payload plus any attachments as a multipart/form-data
// POST using the "file" + "payload_json" part convention.
func (c *HTTPClient) PostMultipart(ctx context.Context, bucket, path string, payload any, attachments []Attachment, out any) error {
	contentType, body, err := buildMultipart(payload, attachments)
	if err != nil {
		return err
	}
	return c.do(ctx, bucket, http.MethodPost, path, body, contentType, out)
}

func (c *HTTPClient) doJSON(ctx context.Context, bucket, method, path string, body, out any) error {
	var buf *bytes.Buffer
	contentType := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: encode request body: %w", err)
		}
		buf = bytes.NewBuffer(b)
		contentType = "application/json"
	} else {
		buf = &bytes.Buffer{}
	}
	return c.do(ctx, bucket, method, path, buf, contentType, out)
}

// do sends one request through the bucket's circuit breaker, classifies any
// non-2xx response, and decodes a successful body into out when non-nil.
func (c *HTTPClient) do(ctx context.Context, bucket, method, path string, body io.Reader, contentType string, out any) error {
	cb := c.breaker(bucket)
	start := time.Now()

	var status int
	execErr := cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("%w: build request: %v", ErrRequest, err)
		}
		req.Header.Set("Authorization", "Bot "+c.token)
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-Id", uuid.NewString())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRequest, err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out != nil {
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
					return fmt.Errorf("rest: decode response: %w", err)
				}
			}
			return nil
		}
		return classifyResponse(resp.StatusCode, resp.Body)
	})

	duration := time.Since(start)
	c.metrics.RESTRequestDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("bucket", bucket),
		),
	)
	if execErr != nil {
		c.metrics.RecordRESTError(ctx, bucket, errorKindLabel(execErr))
	}
	c.logger.Debug("rest: request", "method", method, "bucket", bucket, "status", status, "duration", duration, "error", execErr)

	return execErr
}

// apiErrorBody is the platform's optional JSON error payload.
type apiErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func classifyResponse(status int, body io.Reader) error {
	apiErr := &APIError{Kind: classifyStatus(status), StatusCode: status}
	var eb apiErrorBody
	if err := json.NewDecoder(body).Decode(&eb); err == nil {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
	}
	return apiErr
}

func errorKindLabel(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return "circuit_open"
	}
	return "transport"
}
