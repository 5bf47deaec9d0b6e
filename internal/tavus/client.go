package tavus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/simally/relay/internal/tavus"

// Config holds the provider connection settings
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the Tavus conversational video API.
// Every call is a single attempt; nothing is retried.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
	meter      metric.Meter

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTracer sets the tracer used for per-call spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

// WithMeter sets the meter used for call counters and latency
func WithMeter(meter metric.Meter) Option {
	return func(c *Client) { c.meter = meter }
}

// NewClient creates a new provider client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: zap.NewNop(),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}

	var err error
	c.requests, err = c.meter.Int64Counter(
		"relay.provider.requests",
		metric.WithDescription("Calls made to the conversational video provider"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	c.duration, err = c.meter.Float64Histogram(
		"relay.provider.request.duration",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return c, nil
}

// CreateConversation starts a new conversation. Only HTTP 200 counts as success.
func (c *Client) CreateConversation(ctx context.Context, req *CreateConversationRequest) (conv *Conversation, err error) {
	ctx, finish := c.start(ctx, OpCreate)
	defer func() { finish(err) }()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, OpCreate, http.MethodPost, "/v2/conversations", body)
	if err != nil {
		return nil, err
	}

	if resp.statusCode != http.StatusOK {
		return nil, resp.providerError(OpCreate)
	}

	var out Conversation
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &out, nil
}

// EndConversation ends a running conversation
func (c *Client) EndConversation(ctx context.Context, conversationID string) (err error) {
	ctx, finish := c.start(ctx, OpEnd)
	defer func() { finish(err) }()

	resp, err := c.do(ctx, OpEnd, http.MethodPost, "/v2/conversations/"+url.PathEscape(conversationID)+"/end", nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.providerError(OpEnd)
	}
	return nil
}

// DeleteConversation deletes a conversation on the provider side
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) (err error) {
	ctx, finish := c.start(ctx, OpDelete)
	defer func() { finish(err) }()

	resp, err := c.do(ctx, OpDelete, http.MethodDelete, "/v2/conversations/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.providerError(OpDelete)
	}
	return nil
}

type response struct {
	statusCode int
	status     string
	body       []byte
}

func (r *response) ok() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}

func (r *response) providerError(op string) *ProviderError {
	return &ProviderError{
		Op:         op,
		StatusCode: r.statusCode,
		Status:     r.status,
		Body:       string(r.body),
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("Tavus API response",
		zap.String("operation", op),
		zap.Int("status_code", resp.StatusCode))

	return &response{
		statusCode: resp.StatusCode,
		status:     resp.Status,
		body:       data,
	}, nil
}

// start opens a span and returns a func that closes it and records metrics
func (c *Client) start(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := c.tracer.Start(ctx, "tavus."+op, trace.WithSpanKind(trace.SpanKindClient))
	began := time.Now()

	return ctx, func(err error) {
		outcome := Outcome(err)
		attrs := metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		)
		c.requests.Add(ctx, 1, attrs)
		c.duration.Record(ctx, float64(time.Since(began).Milliseconds()), attrs)

		if code := StatusCode(err); code != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", code))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}
}
