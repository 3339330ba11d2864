// SPDX-License-Identifier: MPL-2.0

// Package httpapi serves a read-only JSON view of the registry and accounts.
//
//	GET /healthz
//	GET /v1/registry/config
//	GET /v1/modules?namespace=&name=&version=&status=&limit=
//	GET /v1/modules/{module}            ns:name (latest) or ns:name@version
//	GET /v1/namespaces?limit=
//	GET /v1/namespaces/{namespace}
//	GET /v1/accounts?limit=
//	GET /v1/accounts/{account}
//	GET /v1/accounts/{account}/modules
//	GET /v1/accounts/{account}/dependents/{module}
//	GET /metrics                        when a metrics handler is set
//
// Every JSON endpoint accepts ?select=<gjson path> to return part of the body.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/abstractsdk/abstract/internal/deploy"
	"github.com/abstractsdk/abstract/internal/registry"
	"github.com/abstractsdk/abstract/pkg/module"
	"github.com/abstractsdk/abstract/pkg/types"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"
)

type (
	// Server exposes a deployment over HTTP.
	Server struct {
		d       *deploy.Deployment
		log     *log.Logger
		metrics http.Handler
	}

	// Option configures a Server.
	Option func(*Server)

	errorBody struct {
		Error string `json:"error"`
	}

	// statusError carries the HTTP status a handler failed with.
	statusError struct {
		status int
		err    error
	}
)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New creates a server over d.
func New(d *deploy.Deployment, opts ...Option) *Server {
	s := &Server{d: d}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = d.Chain.Logger().WithPrefix("api")
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/registry/config", s.json(s.registryConfig))
		r.Get("/modules", s.json(s.listModules))
		r.Get("/modules/{module}", s.json(s.getModule))
		r.Get("/namespaces", s.json(s.listNamespaces))
		r.Get("/namespaces/{namespace}", s.json(s.getNamespace))
		r.Get("/accounts", s.json(s.listAccounts))
		r.Route("/accounts/{account}", func(r chi.Router) {
			r.Get("/", s.json(s.getAccount))
			r.Get("/modules", s.json(s.accountModules))
			r.Get("/dependents/{module}", s.json(s.accountDependents))
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

// json adapts a handler returning a value into one writing it as JSON.
func (s *Server) json(h func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		body, err := json.Marshal(v)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if sel := r.URL.Query().Get("select"); sel != "" {
			res := gjson.GetBytes(body, sel)
			if !res.Exists() {
				s.writeError(w, notFound(errors.New("select path matched nothing")))
				return
			}
			body = []byte(res.Raw)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(append(body, '\n'))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var se *statusError
	switch {
	case errors.As(err, &se):
		status = se.status
	case errors.Is(err, registry.ErrModuleNotFound), errors.Is(err, registry.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, module.ErrInvalidName), errors.Is(err, module.ErrInvalidID), errors.Is(err, module.ErrInvalidVersion), errors.Is(err, types.ErrInvalidAddr):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}

func (e *statusError) Error() string { return e.err.Error() }

func (e *statusError) Unwrap() error { return e.err }

func badRequest(err error) error { return &statusError{status: http.StatusBadRequest, err: err} }

func notFound(err error) error { return &statusError{status: http.StatusNotFound, err: err} }
