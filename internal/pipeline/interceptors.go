package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/tokenstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

// CorrelationID tags the call with a fresh request ID unless the caller set one.
func CorrelationID() RequestInterceptor {
	return func(_ context.Context, httpReq *http.Request, _ Request) error {
		if httpReq.Header.Get(RequestIDHeader) == "" {
			httpReq.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return nil
	}
}

// BearerAuth attaches the stored session token. Calls made without a session,
// and Public calls, go out with no Authorization header at all.
func BearerAuth(store tokenstore.Store) RequestInterceptor {
	return func(_ context.Context, httpReq *http.Request, req Request) error {
		httpReq.Header.Del("Authorization")
		if req.Public {
			return nil
		}
		session, ok, err := store.Load()
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if ok {
			httpReq.Header.Set("Authorization", auth.BearerHeader(session.Token))
		}
		return nil
	}
}

// RateLimit blocks until limiter admits the call or ctx ends.
func RateLimit(limiter *rate.Limiter) RequestInterceptor {
	return func(ctx context.Context, _ *http.Request, _ Request) error {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		return nil
	}
}

func RequestLogging(logger zerolog.Logger) RequestInterceptor {
	return func(_ context.Context, httpReq *http.Request, req Request) error {
		logger.Debug().
			Str("method", req.Method).
			Str("route", req.route()).
			Str("request_id", httpReq.Header.Get(RequestIDHeader)).
			Bool("authenticated", httpReq.Header.Get("Authorization") != "").
			Msg("dispatching request")
		return nil
	}
}

// Classify turns transport failures and non-2xx statuses into *Error.
func Classify() ResponseInterceptor {
	return func(_ context.Context, res *Result) *Result {
		if _, ok := res.Err.(*Error); ok {
			return res
		}
		req := res.Request

		switch {
		case res.Err != nil && !res.Dispatched:
			res.Err = &Error{Kind: KindUnknown, Method: req.Method, Path: req.Path, Err: res.Err}
		case res.Err != nil && res.StatusCode == 0:
			res.Err = &Error{Kind: ClassifyTransport(res.Err), Method: req.Method, Path: req.Path, Err: res.Err}
		case res.Err != nil:
			res.Err = &Error{Kind: KindUnknown, StatusCode: res.StatusCode, Method: req.Method, Path: req.Path, Err: res.Err}
		case res.StatusCode < 200 || res.StatusCode > 299:
			res.Err = &Error{
				Kind:       ClassifyStatus(res.StatusCode),
				StatusCode: res.StatusCode,
				Method:     req.Method,
				Path:       req.Path,
				Message:    problem.Message(res.Body),
			}
		}
		return res
	}
}

// ForcedLogout clears the session on any Unauthorized result and then runs
// hooks. Public calls are exempt. The side effect survives caller
// cancellation.
func ForcedLogout(store tokenstore.Store, logger zerolog.Logger, hooks func() []LogoutHook) ResponseInterceptor {
	return func(ctx context.Context, res *Result) *Result {
		if res.Request.Public || KindOf(res.Err) != KindUnauthorized {
			return res
		}

		if err := store.Clear(); err != nil {
			logger.Error().Err(err).Str("request_id", res.RequestID).Msg("failed to clear session after unauthorized response")
		}
		metrics.ForcedLogoutsTotal.Inc()
		logger.Warn().
			Str("method", res.Request.Method).
			Str("route", res.Request.route()).
			Str("request_id", res.RequestID).
			Msg("session rejected by backend, signed out")

		detached := context.WithoutCancel(ctx)
		for _, hook := range hooks() {
			hook(detached)
		}
		return res
	}
}

func Metrics() ResponseInterceptor {
	return func(_ context.Context, res *Result) *Result {
		outcome := "success"
		if res.Err != nil {
			outcome = KindOf(res.Err).String()
		}
		metrics.ObserveClientRequest(res.Request.Method, res.Request.route(), outcome, res.Elapsed, len(res.Body))
		return res
	}
}

func ResponseLogging(logger zerolog.Logger) ResponseInterceptor {
	return func(_ context.Context, res *Result) *Result {
		var evt *zerolog.Event
		if res.Err != nil {
			evt = logger.Warn().Str("kind", KindOf(res.Err).String()).Err(res.Err)
		} else {
			evt = logger.Debug()
		}
		evt.Str("method", res.Request.Method).
			Str("route", res.Request.route()).
			Int("status", res.StatusCode).
			Int("bytes", len(res.Body)).
			Dur("duration", res.Elapsed).
			Str("request_id", res.RequestID).
			Msg("request completed")
		return res
	}
}
