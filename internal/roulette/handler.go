package roulette

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/viomck/urlroulette/internal/errx"
	"github.com/viomck/urlroulette/internal/httpx"
)

// MaxSubmissionBytes caps the POST body size. Submissions are single URLs,
// not documents.
const MaxSubmissionBytes = 8 << 10

// StatsResponse is the JSON body served by GET /stats.
type StatsResponse struct {
	URLCount  int `json:"urlCount"`
	URLPrefix int `json:"urlPrefix"`
}

// Handler provides the HTTP handlers for the URL pool.
type Handler struct {
	service Service
	logger  *slog.Logger
	secret  string
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
	Secret  string // shared secret gating writes and stats; empty disables the gate
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
		secret:  cfg.Secret,
	}
}

// Submit handles POST requests adding a URL to the pool.
// The body is the raw URL string, not JSON.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	if !h.authorized(r) {
		logger.WarnContext(ctx, "submission rejected, bad secret")
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized",
			"missing or invalid secret", nil)
		return
	}

	body, err := httpx.ReadBody(r, MaxSubmissionBytes)
	if err != nil {
		logger.WarnContext(ctx, "failed to read submission body",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	rawURL := strings.TrimSpace(string(body))
	if err := h.service.Submit(ctx, rawURL); err != nil {
		h.handleServiceError(r, w, err, "submit url")
		return
	}

	logger.InfoContext(ctx, "url submitted")
	w.WriteHeader(http.StatusCreated)
}

// Draw handles GET requests returning one randomly sampled URL as the raw
// response body. An empty pool yields 204, not an error.
func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	rawURL, err := h.service.Draw(ctx)
	if err != nil {
		if errx.KindOf(err) == errx.NoContent {
			logger.InfoContext(ctx, "draw from empty pool")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.handleServiceError(r, w, err, "draw url")
		return
	}

	logger.InfoContext(ctx, "url drawn")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(rawURL)); err != nil {
		logger.ErrorContext(ctx, "failed to write draw response",
			"error", err.Error(),
		)
	}
}

// Stats handles GET /stats, exposing raw counter state behind the same
// secret gate as submission.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	if !h.authorized(r) {
		logger.WarnContext(ctx, "stats rejected, bad secret")
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized",
			"missing or invalid secret", nil)
		return
	}

	st, err := h.service.Stats(ctx)
	if err != nil {
		h.handleServiceError(r, w, err, "read stats")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, StatsResponse{
		URLCount:  st.Count,
		URLPrefix: st.Prefix,
	})
}

// authorized checks the shared-secret header. No secret configured means the
// gate is open; the check runs before any store access.
func (h *Handler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Secret "+h.secret
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// handleServiceError maps service errors onto HTTP responses.
func (h *Handler) handleServiceError(r *http.Request, w http.ResponseWriter, err error, action string) {
	ctx := r.Context()
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid:
		h.logger.WarnContext(ctx, "invalid request", logAttrs...)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)

	case errx.Unavailable:
		h.logger.ErrorContext(ctx, "store unavailable", logAttrs...)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"Unable to "+action+" at this time. Please try again.", nil)

	default:
		h.logger.ErrorContext(ctx, "unexpected error", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error",
			"Unable to "+action+" at this time. Please try again.", nil)
	}
}
