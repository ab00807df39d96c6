package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verimint/internal/mint/models"
	"verimint/internal/platform/metrics"
	"verimint/internal/platform/middleware"
	walletmodels "verimint/internal/wallet/models"
	id "verimint/pkg/domain"
	"verimint/pkg/platform/httputil"
	"verimint/pkg/requestcontext"
)

// Service defines the mint operations exposed over HTTP.
type Service interface {
	Mint(ctx context.Context, userID id.UserID, conn walletmodels.Connection) (*models.Result, error)
	CheckPending(ctx context.Context, userID id.UserID) (*models.CheckResult, error)
	SkipMinting(ctx context.Context, userID id.UserID) error
	Membership(ctx context.Context, userID id.UserID) (models.Membership, error)
}

// Wallet supplies the current connection snapshot.
type Wallet interface {
	Connection() walletmodels.Connection
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
	wallet       Wallet
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
	throttle     func(http.Handler) http.Handler
}

func New(service Service, wallet Wallet, logger *slog.Logger, metrics *metrics.Metrics, jwtValidator middleware.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		service:      service,
		wallet:       wallet,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the mint routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.With(h.throttled).Post("/mint", h.handleMint)
		r.Post("/mint/check", h.handleCheck)
		r.Post("/mint/skip", h.handleSkip)
		r.Get("/membership", h.handleMembership)
	})
}

func (h *Handler) throttled(next http.Handler) http.Handler {
	if h.throttle == nil {
		return next
	}
	return h.throttle(next)
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.Mint(ctx, requestcontext.UserID(ctx), h.wallet.Connection())
	if err != nil {
		h.logger.WarnContext(ctx, "mint failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResultResponse(result))
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	check, err := h.service.CheckPending(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCheckResponse(check))
}

func (h *Handler) handleSkip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.SkipMinting(ctx, requestcontext.UserID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "skip minting rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	membership, err := h.service.Membership(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MembershipResponse{
		KYCVerified:   membership.KYCVerified,
		HasCredential: membership.HasCredential,
	})
}
