package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"verimint/internal/platform/metrics"
	"verimint/internal/platform/middleware"
	"verimint/internal/verification/reconciler"
	id "verimint/pkg/domain"
	dErrors "verimint/pkg/domain-errors"
	"verimint/pkg/platform/httputil"
	"verimint/pkg/requestcontext"
)

const (
	defaultWait = 30 * time.Second
	maxWait     = 90 * time.Second
)

// Service defines the verification operations exposed over HTTP.
type Service interface {
	Start(ctx context.Context, userID id.UserID) (*reconciler.Session, error)
	Session(userID id.UserID) (*reconciler.Session, error)
	Abandon(userID id.UserID)
	Bypass(ctx context.Context, userID id.UserID) error
}

// Option configures a Handler.
type Option func(*Handler)

// WithThrottle wraps the routes that prompt the user. It runs after
// authentication.
func WithThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.throttle = mw
	}
}

type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	throttle     func(http.Handler) http.Handler
}

func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		service:      service,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.With(h.throttled).Post("/verification/start", h.handleStart)
		r.Get("/verification", h.handleGet)
		r.Get("/verification/wait", h.handleWait)
		r.Delete("/verification", h.handleAbandon)
		r.Post("/verification/bypass", h.handleBypass)
	})
}

func (h *Handler) throttled(next http.Handler) http.Handler {
	if h.throttle == nil {
		return next
	}
	return h.throttle(next)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	session, err := h.service.Start(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to start verification",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(session.Snapshot()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session.Snapshot()))
}

// handleWait long-polls until the session leaves verifying or the wait
// elapses, then returns the current snapshot either way.
func (h *Handler) handleWait(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wait := defaultWait
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "timeout must be a positive duration"))
			return
		}
		wait = min(d, maxWait)
	}

	session, err := h.service.Session(requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	snap, err := session.Wait(waitCtx)
	if err != nil && ctx.Err() != nil {
		// The client left the page. Only this session is released, so a
		// newer one started from another tab keeps running.
		session.Abandon()
		h.logger.InfoContext(ctx, "verification wait closed by client",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", session.ID().String(),
		)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(snap))
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	h.service.Abandon(requestcontext.UserID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleBypass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Bypass(ctx, requestcontext.UserID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "kyc bypass rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
