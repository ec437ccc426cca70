// Package gateway is the single choke point through which every backend
// call passes. It injects the session token, unwraps the response envelope
// and maps HTTP outcomes onto a closed result set.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"BizDesk/internal/backend"
	"BizDesk/internal/route"
)

const instrumentationName = "BizDesk/internal/gateway"

// HeaderRequestID carries a per-call correlation id
const HeaderRequestID = "X-Request-ID"

// SessionStore is the part of the session the gateway needs
type SessionStore interface {
	GetToken() (string, error)
	Clear() error
}

// Config configures a Client
type Config struct {
	BaseURL    string // scheme and host of the backend
	APIPrefix  string // path prefix of every endpoint, e.g. "/api"
	LoginPath  string // entry point to navigate to on 401
	Store      SessionStore
	Navigator  route.Navigator
	HTTPClient *http.Client // defaults to a client without timeout
	Logger     *slog.Logger
}

// Options describes a single request
type Options struct {
	Method  string
	Headers map[string]string // override the defaults on key collision
	Query   url.Values
	Body    any // []byte, json.RawMessage and string are sent as is; anything else is JSON-encoded
}

// Client issues backend requests. It is safe for concurrent use; the token
// is read from the store on every call.
type Client struct {
	baseURL    string
	loginPath  string
	store      SessionStore
	nav        route.Navigator
	httpClient *http.Client
	logger     *slog.Logger

	tracer   trace.Tracer
	duration metric.Float64Histogram
	outcomes metric.Int64Counter
}

// New creates a gateway client
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store cannot be nil")
	}
	if cfg.Navigator == nil {
		return nil, fmt.Errorf("navigator cannot be nil")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", cfg.BaseURL)
	}

	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = route.Login
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	meter := otel.Meter(instrumentationName)
	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	outcomes, err := meter.Int64Counter(
		"bizdesk.gateway.outcomes",
		metric.WithDescription("Gateway calls by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create outcome counter: %w", err)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if prefix := strings.Trim(cfg.APIPrefix, "/"); prefix != "" {
		baseURL += "/" + prefix
	}

	return &Client{
		baseURL:    baseURL,
		loginPath:  loginPath,
		store:      cfg.Store,
		nav:        cfg.Navigator,
		httpClient: httpClient,
		logger:     cfg.Logger,
		tracer:     otel.Tracer(instrumentationName),
		duration:   duration,
		outcomes:   outcomes,
	}, nil
}

// Send issues one request and reports how it ended. A 401 clears the
// session and navigates to the login entry point before returning.
func (c *Client) Send(ctx context.Context, endpoint string, opts Options) Result {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "gateway.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("gateway.endpoint", endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	res := c.send(ctx, method, endpoint, opts)

	span.SetAttributes(
		attribute.Int("http.status_code", res.Status),
		attribute.String("gateway.outcome", res.Outcome.String()),
	)
	if res.Outcome == OutcomeFailed || res.Outcome == OutcomeTransport {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}

	c.duration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(attribute.String("http.method", method)))
	c.outcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", res.Outcome.String())))

	return res
}

func (c *Client) send(ctx context.Context, method, endpoint string, opts Options) Result {
	token, err := c.store.GetToken()
	if err != nil {
		return c.transportFailure(method, endpoint, 0, err)
	}

	body, err := encodeBody(opts.Body)
	if err != nil {
		return c.transportFailure(method, endpoint, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint, opts.Query), body)
	if err != nil {
		return c.transportFailure(method, endpoint, 0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportFailure(method, endpoint, 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportFailure(method, endpoint, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	// 401 tears the session down whatever the body says
	if resp.StatusCode == http.StatusUnauthorized {
		env, _ := decodeEnvelope(raw)
		return c.expire(endpoint, env.Message)
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return c.transportFailure(method, endpoint, resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("api request succeeded",
			"method", method,
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"request_id", req.Header.Get(HeaderRequestID))
		return Result{
			Outcome: OutcomeOK,
			Status:  resp.StatusCode,
			Data:    env.Data,
			Message: env.Message,
		}
	}

	msg := env.Message
	if msg == "" {
		msg = DefaultFailureMessage
	}
	c.logger.Warn("api request failed",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"message", msg,
		"request_id", req.Header.Get(HeaderRequestID))

	return Result{
		Outcome: OutcomeFailed,
		Status:  resp.StatusCode,
		Message: msg,
		Err:     &RequestError{Status: resp.StatusCode, Message: msg},
	}
}

func (c *Client) expire(endpoint, msg string) Result {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("failed to clear session", "error", err)
	}
	c.logger.Info("session expired, redirecting to login", "endpoint", endpoint, "message", msg)
	c.nav.Navigate(c.loginPath)

	return Result{
		Outcome: OutcomeAuthExpired,
		Status:  http.StatusUnauthorized,
		Message: msg,
		Err:     ErrAuthExpired,
	}
}

func (c *Client) transportFailure(method, endpoint string, status int, err error) Result {
	c.logger.Error("api request error", "method", method, "endpoint", endpoint, "error", err)
	return Result{
		Outcome: OutcomeTransport,
		Status:  status,
		Message: err.Error(),
		Err:     &TransportError{Endpoint: endpoint, Err: err},
	}
}

func (c *Client) url(endpoint string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + query.Encode()
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// decodeEnvelope treats an empty body as an empty envelope
func decodeEnvelope(raw []byte) (backend.Envelope, error) {
	var env backend.Envelope
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	err := json.Unmarshal(raw, &env)
	return env, err
}

// Request is Send for callers that only want the payload. A 401 yields
// (nil, nil): the session is gone and navigation has been triggered.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) (json.RawMessage, error) {
	res := c.Send(ctx, endpoint, opts)
	switch res.Outcome {
	case OutcomeOK:
		return res.Data, nil
	case OutcomeAuthExpired:
		return nil, nil
	default:
		return nil, res.Err
	}
}

// Get sends a GET with query appended to endpoint
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) Result {
	return c.Send(ctx, endpoint, Options{Method: http.MethodGet, Query: query})
}

// Post sends body as JSON with POST
func (c *Client) Post(ctx context.Context, endpoint string, body any) Result {
	return c.Send(ctx, endpoint, Options{Method: http.MethodPost, Body: body})
}

// Put sends body as JSON with PUT
func (c *Client) Put(ctx context.Context, endpoint string, body any) Result {
	return c.Send(ctx, endpoint, Options{Method: http.MethodPut, Body: body})
}

// Delete sends a DELETE to endpoint
func (c *Client) Delete(ctx context.Context, endpoint string) Result {
	return c.Send(ctx, endpoint, Options{Method: http.MethodDelete})
}
