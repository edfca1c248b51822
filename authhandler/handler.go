package authhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vitalvas/pushauth/pusher"
)

// DefaultPath is the route the authorization endpoint is mounted on when
// Config.Path is empty.
const DefaultPath = "/pusher/auth"

// maxFormBytes bounds the authorization request body.
const maxFormBytes = 8 << 10

// Authorizer issues channel authorization tokens. *pusher.Client
// implements it.
type Authorizer interface {
	Authenticate(socketID, channel string, user *pusher.PresenceUser) (pusher.AuthToken, error)
}

// Config configures the authorization endpoint.
type Config struct {
	// Authorizer signs the tokens. Required.
	Authorizer Authorizer

	// UserResolver returns the presence identity of the caller. It is
	// called only for presence channels; when nil, presence channels are
	// refused with 403.
	UserResolver func(r *http.Request, channel string) (*pusher.PresenceUser, error)

	// ChannelGuard, when set, is called before any token is signed.
	// A non-nil error refuses the request with 403.
	ChannelGuard func(r *http.Request, channel string) error

	// Path overrides DefaultPath.
	Path string

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Registerer receives the request counter. Metrics are disabled when
	// nil.
	Registerer prometheus.Registerer

	// Gatherer, when set, is exposed on GET /metrics.
	Gatherer prometheus.Gatherer
}

type handler struct {
	authorizer   Authorizer
	userResolver func(r *http.Request, channel string) (*pusher.PresenceUser, error)
	guard        func(r *http.Request, channel string) error
	logger       *zap.Logger
	requests     *prometheus.CounterVec
}

// New returns the HTTP handler serving the authorization endpoint together
// with GET /healthz and, when configured, GET /metrics.
//
// It returns ErrNoAuthorizer if cfg.Authorizer is nil.
func New(cfg Config) (http.Handler, error) {
	if cfg.Authorizer == nil {
		return nil, ErrNoAuthorizer
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	h := &handler{
		authorizer:   cfg.Authorizer,
		userResolver: cfg.UserResolver,
		guard:        cfg.ChannelGuard,
		logger:       logger,
	}

	if cfg.Registerer != nil {
		requests := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushauth",
			Name:      "auth_requests_total",
			Help:      "Channel authorization requests by channel kind and result.",
		}, []string{"kind", "result"})

		if err := cfg.Registerer.Register(requests); err != nil {
			return nil, err
		}

		h.requests = requests
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post(path, h.serveAuth)

	return r, nil
}

func (h *handler) serveAuth(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if err := r.ParseForm(); err != nil {
		h.refuse(w, r, pusher.KindOther, http.StatusBadRequest, "malformed form body", err)
		return
	}

	socketID := r.PostForm.Get("socket_id")
	channel := r.PostForm.Get("channel_name")
	kind := pusher.KindOf(channel)

	if socketID == "" || channel == "" {
		h.refuse(w, r, kind, http.StatusBadRequest, "socket_id and channel_name are required", nil)
		return
	}

	if kind == pusher.KindOther {
		h.refuse(w, r, kind, http.StatusBadRequest, "channel does not require authorization", nil)
		return
	}

	if h.guard != nil {
		if err := h.guard(r, channel); err != nil {
			h.refuse(w, r, kind, http.StatusForbidden, "access denied", err)
			return
		}
	}

	var user *pusher.PresenceUser

	if kind == pusher.KindPresence {
		if h.userResolver == nil {
			h.refuse(w, r, kind, http.StatusForbidden, "presence channels are not enabled", nil)
			return
		}

		resolved, err := h.userResolver(r, channel)
		switch {
		case errors.Is(err, ErrForbidden):
			h.refuse(w, r, kind, http.StatusForbidden, "access denied", err)
			return
		case err != nil:
			h.refuse(w, r, kind, http.StatusInternalServerError, "cannot resolve presence user", err)
			return
		case resolved == nil:
			h.refuse(w, r, kind, http.StatusForbidden, "access denied", nil)
			return
		}

		user = resolved
	}

	token, err := h.authorizer.Authenticate(socketID, channel, user)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pusher.ErrValidation) {
			code = http.StatusBadRequest
		}

		h.refuse(w, r, kind, code, err.Error(), err)

		return
	}

	h.count(kind, "ok")

	h.logger.Debug("channel authorized",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("channel", channel),
		zap.String("socket_id", socketID),
	)

	responseJSON(w, http.StatusOK, token)
}

func (h *handler) refuse(w http.ResponseWriter, r *http.Request, kind pusher.ChannelKind, code int, msg string, err error) {
	h.count(kind, http.StatusText(code))

	fields := []zap.Field{
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Int("status", code),
		zap.String("kind", kind.String()),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
	}

	if code >= http.StatusInternalServerError {
		h.logger.Error("channel authorization failed", fields...)
	} else {
		h.logger.Info("channel authorization refused", fields...)
	}

	responseError(w, code, msg)
}

func (h *handler) count(kind pusher.ChannelKind, result string) {
	if h.requests != nil {
		h.requests.WithLabelValues(kind.String(), result).Inc()
	}
}
