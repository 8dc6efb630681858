// Package gateway serves the JSON API in front of the CoinGecko client.
//
// Every response uses the same envelope: {success, data} on success and
// {success:false, message, error} on failure, where error holds diagnostic
// detail only in debug mode. Validation failures answer 422 with per-field
// messages, unknown coins 404, and every other upstream failure 503.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"cryptoproxy/internal/coingecko"
)

// Upstream is the market-data source behind the gateway.
type Upstream interface {
	TopCoins(ctx context.Context) (json.RawMessage, error)
	CoinByID(ctx context.Context, id string) (json.RawMessage, error)
	Search(ctx context.Context, query string) (json.RawMessage, error)
}

// Handler implements the three gateway endpoints.
type Handler struct {
	upstream Upstream
	debug    bool
	logger   logrus.FieldLogger
	validate *validator.Validate
}

// Option configures a Handler.
type Option func(*Handler)

// WithDebug exposes diagnostic detail in the error field of failures.
func WithDebug(debug bool) Option {
	return func(h *Handler) { h.debug = debug }
}

// WithLogger sets the logger for failures and rejected queries.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(h *Handler) { h.logger = logger }
}

// New returns a Handler serving data from upstream. Debug is off and the
// logrus standard logger is used unless overridden by opts.
func New(upstream Upstream, opts ...Option) *Handler {
	h := &Handler{
		upstream: upstream,
		logger:   logrus.StandardLogger(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListTop serves GET /api/top-cryptos.
func (h *Handler) ListTop(w http.ResponseWriter, r *http.Request) {
	data, err := h.upstream.TopCoins(r.Context())
	if err != nil {
		h.fail(w, r, http.StatusServiceUnavailable, "Failed to fetch cryptocurrencies", err)
		return
	}
	writeSuccess(w, data, nil)
}

// GetByID serves GET /api/crypto/{id}. The id is not checked for format.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// chi matches on RawPath when it is set, leaving the segment escaped.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
	}

	data, err := h.upstream.CoinByID(r.Context(), id)
	if err != nil {
		status := http.StatusServiceUnavailable
		if coingecko.IsNotFound(err) {
			status = http.StatusNotFound
		}
		h.fail(w, r, status, err.Error(), err)
		return
	}
	writeSuccess(w, data, nil)
}

// Search serves GET /api/search?query=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query, verr := h.searchQuery(r)
	if verr != nil {
		h.entry(r).WithField("errors", verr.Fields).Info("invalid search query")
		writeValidation(w, verr)
		return
	}

	data, err := h.upstream.Search(r.Context(), query)
	if err != nil {
		h.fail(w, r, http.StatusServiceUnavailable, "Failed to search cryptocurrencies", err)
		return
	}
	writeSuccess(w, data, &query)
}

// fail logs err and writes the failure envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	entry := h.entry(r).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Info(message)
	}

	var detail *string
	if h.debug {
		d := diagnostic(err)
		detail = &d
	}
	writeFailure(w, status, message, detail)
}

func (h *Handler) entry(r *http.Request) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"request_id": requestID(r),
	})
}

// diagnostic describes err for debug responses.
func diagnostic(err error) string {
	var (
		network  *coingecko.NetworkError
		upstream *coingecko.UpstreamError
		notFound *coingecko.NotFoundError
	)
	switch {
	case errors.As(err, &network):
		return fmt.Sprintf("%s after %d attempt(s): %v", network.Message, network.Attempts, network.Err)
	case errors.As(err, &upstream):
		return fmt.Sprintf("upstream status %d: %s", upstream.StatusCode, upstream.Error())
	case errors.As(err, &notFound):
		return fmt.Sprintf("upstream status 404: %s not found", notFound.Resource)
	default:
		return err.Error()
	}
}
