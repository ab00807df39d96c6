package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verimint/internal/platform/metrics"
	"verimint/internal/platform/middleware"
	"verimint/internal/wallet/models"
	"verimint/pkg/platform/httputil"
	"verimint/pkg/requestcontext"
)

// Service defines the wallet operations exposed over HTTP.
type Service interface {
	Connect(ctx context.Context) (models.Connection, error)
	Disconnect(ctx context.Context) error
	Connection() models.Connection
}

// ConnectionResponse is the JSON view of the wallet connection.
type ConnectionResponse struct {
	Address   string `json:"address,omitempty"`
	Connected bool   `json:"connected"`
}

func toResponse(conn models.Connection) ConnectionResponse {
	return ConnectionResponse{Address: conn.Address, Connected: conn.Usable()}
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

// Register registers the wallet routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/wallet", h.handleGet)
		r.With(h.throttled).Post("/wallet/connect", h.handleConnect)
		r.Post("/wallet/disconnect", h.handleDisconnect)
	})
}

func (h *Handler) throttled(next http.Handler) http.Handler {
	if h.throttle == nil {
		return next
	}
	return h.throttle(next)
}

func (h *Handler) handleGet(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toResponse(h.service.Connection()))
}

// handleConnect answers 200 with connected=false when the user dismissed the
// wallet prompt.
func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.service.Connect(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "wallet connect failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(conn))
}

func (h *Handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disconnect(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
