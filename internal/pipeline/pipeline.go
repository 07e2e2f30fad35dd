// Package pipeline is the single chokepoint for calls to the events backend.
//
// Every call runs the request interceptors in order, is dispatched once, and
// then runs the response interceptors in order. Nothing is retried.
//
// Request stage: correlation ID, bearer credential, rate limit, logging.
// Response stage: classification, forced logout, metrics, logging.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/tokenstore"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds each call end to end
	DefaultTimeout = 10 * time.Second
	// DefaultUserAgent identifies the client to the backend
	DefaultUserAgent = "eventdesk"

	maxBodySize = 32 << 20
)

// Pipeline dispatches backend calls through the interceptor chain.
type Pipeline struct {
	baseURL    string
	httpClient *http.Client
	transport  http.RoundTripper
	timeout    time.Duration
	userAgent  string
	store      tokenstore.Store
	limiter    *rate.Limiter
	logger     zerolog.Logger

	extraRequest  []RequestInterceptor
	extraResponse []ResponseInterceptor

	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor

	hooksMu     sync.RWMutex
	logoutHooks []LogoutHook
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTransport sets the base transport wrapped by otelhttp.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Pipeline) {
		p.transport = rt
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithRateLimit caps outgoing requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(p *Pipeline) {
		if rps > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		} else {
			p.limiter = nil
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithUserAgent(ua string) Option {
	return func(p *Pipeline) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithRequestInterceptors appends interceptors after the rate limiter and
// before request logging.
func WithRequestInterceptors(interceptors ...RequestInterceptor) Option {
	return func(p *Pipeline) {
		p.extraRequest = append(p.extraRequest, interceptors...)
	}
}

// WithResponseInterceptors appends interceptors after forced logout and
// before metrics.
func WithResponseInterceptors(interceptors ...ResponseInterceptor) Option {
	return func(p *Pipeline) {
		p.extraResponse = append(p.extraResponse, interceptors...)
	}
}

// WithLogoutHooks registers hooks run after a forced logout.
func WithLogoutHooks(hooks ...LogoutHook) Option {
	return func(p *Pipeline) {
		p.logoutHooks = append(p.logoutHooks, hooks...)
	}
}

// New creates a Pipeline for the backend at baseURL. store supplies the bearer
// token and is cleared on forced logout.
func New(baseURL string, store tokenstore.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		store:     store,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "pipeline").Logger()

	if p.httpClient == nil {
		base := p.transport
		if base == nil {
			base = http.DefaultTransport
		}
		p.httpClient = &http.Client{
			Timeout:   p.timeout,
			Transport: otelhttp.NewTransport(base),
		}
	}

	p.requestInterceptors = []RequestInterceptor{CorrelationID(), BearerAuth(store)}
	if p.limiter != nil {
		p.requestInterceptors = append(p.requestInterceptors, RateLimit(p.limiter))
	}
	p.requestInterceptors = append(p.requestInterceptors, p.extraRequest...)
	p.requestInterceptors = append(p.requestInterceptors, RequestLogging(p.logger))

	p.responseInterceptors = []ResponseInterceptor{Classify(), ForcedLogout(store, p.logger, p.hooks)}
	p.responseInterceptors = append(p.responseInterceptors, p.extraResponse...)
	p.responseInterceptors = append(p.responseInterceptors, Metrics(), ResponseLogging(p.logger))

	return p
}

// AddLogoutHook registers a hook after construction.
func (p *Pipeline) AddLogoutHook(hook LogoutHook) {
	p.hooksMu.Lock()
	defer p.hooksMu.Unlock()
	p.logoutHooks = append(p.logoutHooks, hook)
}

func (p *Pipeline) hooks() []LogoutHook {
	p.hooksMu.RLock()
	defer p.hooksMu.RUnlock()
	return append([]LogoutHook(nil), p.logoutHooks...)
}

// BaseURL returns the backend base URL without a trailing slash.
func (p *Pipeline) BaseURL() string {
	return p.baseURL
}

// Do runs req through the full chain. The returned Result is never nil; its
// Err is the same error Do returns.
func (p *Pipeline) Do(ctx context.Context, req Request) (*Result, error) {
	res := &Result{Request: req}

	httpReq, err := p.newHTTPRequest(ctx, req)
	if err != nil {
		res.Err = err
		return p.respond(ctx, res)
	}

	for _, intercept := range p.requestInterceptors {
		if err := intercept(ctx, httpReq, req); err != nil {
			res.RequestID = httpReq.Header.Get(RequestIDHeader)
			res.Err = err
			return p.respond(ctx, res)
		}
	}
	res.RequestID = httpReq.Header.Get(RequestIDHeader)
	res.Dispatched = true

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		res.Elapsed = time.Since(start)
		res.Err = err
		return p.respond(ctx, res)
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	res.Header = resp.Header
	res.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	res.Elapsed = time.Since(start)
	switch {
	case err != nil:
		res.Err = fmt.Errorf("read response: %w", err)
	case len(res.Body) > maxBodySize:
		res.Body = res.Body[:maxBodySize]
		res.Err = &Error{
			Kind:       KindUnknown,
			StatusCode: res.StatusCode,
			Method:     req.Method,
			Path:       req.Path,
			Message:    "response body exceeds limit",
			Err:        ErrBodyTooLarge,
		}
	case req.Out != nil && res.StatusCode >= 200 && res.StatusCode <= 299:
		res.Err = decodeJSON(res, req.Out)
	}
	return p.respond(ctx, res)
}

// decodeJSON runs before the response stage so a bad 2xx body is logged and
// counted as a failure.
func decodeJSON(res *Result, out any) error {
	if len(bytes.TrimSpace(res.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return &Error{
			Kind:       KindUnknown,
			StatusCode: res.StatusCode,
			Method:     res.Request.Method,
			Path:       res.Request.Path,
			Message:    "decode response body",
			Err:        err,
		}
	}
	return nil
}

func (p *Pipeline) respond(ctx context.Context, res *Result) (*Result, error) {
	for _, intercept := range p.responseInterceptors {
		res = intercept(ctx, res)
	}
	return res, res.Err
}

// DoJSON runs req and decodes a JSON body into out. A nil out, or an empty
// body, skips decoding.
func (p *Pipeline) DoJSON(ctx context.Context, req Request, out any) error {
	req.Response = ResponseJSON
	req.Out = out
	_, err := p.Do(ctx, req)
	return err
}

// DoBinary runs req expecting a non-JSON payload and returns the raw result.
func (p *Pipeline) DoBinary(ctx context.Context, req Request) (*Result, error) {
	req.Response = ResponseBinary
	req.Out = nil
	return p.Do(ctx, req)
}

func (p *Pipeline) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	if !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("request path %q must start with /", req.Path)
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, p.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("User-Agent", p.userAgent)
	switch {
	case req.Accept != "":
		httpReq.Header.Set("Accept", req.Accept)
	case req.Response == ResponseBinary:
		httpReq.Header.Set("Accept", "*/*")
	default:
		httpReq.Header.Set("Accept", "application/json")
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}
