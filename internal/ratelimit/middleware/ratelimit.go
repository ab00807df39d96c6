// Package middleware throttles authenticated routes per user.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"verimint/internal/ratelimit/metrics"
	"verimint/internal/ratelimit/models"
	"verimint/pkg/platform/httputil"
	"verimint/pkg/requestcontext"
)

type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	store    Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	policies map[models.Class]models.Policy
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every limiter into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func WithPolicy(class models.Class, policy models.Policy) Option {
	return func(m *Middleware) {
		m.policies[class] = policy
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:    store,
		logger:   logger,
		policies: make(map[models.Class]models.Policy),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// PerUser limits the authenticated user for class. It must run after
// RequireAuth. Store failures let the request through.
func (m *Middleware) PerUser(class models.Class) func(http.Handler) http.Handler {
	policy, ok := m.policies[class]
	return func(next http.Handler) http.Handler {
		if m.disabled || !ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := requestcontext.UserID(ctx)
			if userID.IsNil() {
				next.ServeHTTP(w, r)
				return
			}

			result, err := m.store.Allow(ctx, string(class)+":"+userID.String(), policy.Limit, policy.Window)
			if err != nil {
				m.metrics.RecordDecision(string(class), "error")
				m.logger.ErrorContext(ctx, "failed to check user rate limit",
					"error", err,
					"class", string(class),
					"user_id", userID.String(),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.metrics.RecordDecision(string(class), "limited")
				m.logger.WarnContext(ctx, "user rate limited",
					"class", string(class),
					"user_id", userID.String(),
					"retry_after", result.RetryAfter,
				)
				writeRateLimitExceeded(w, result)
				return
			}
			m.metrics.RecordDecision(string(class), "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:            "rate_limit_exceeded",
		ErrorDescription: "Too many requests for this operation. Please try again later.",
		RetryAfter:       result.RetryAfter,
	})
}
