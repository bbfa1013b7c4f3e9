// Package router adapts application handlers of the form
// func(*Request) (any, error) to net/http on top of httprouter, and owns the
// JSON envelope every endpoint answers with.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gostore/internal/pkg/config"
	"github.com/shandysiswandi/gostore/internal/pkg/goerror"
	"github.com/shandysiswandi/gostore/internal/pkg/instrument"
	"github.com/shandysiswandi/gostore/internal/pkg/jwt"
	"github.com/shandysiswandi/gostore/internal/pkg/uid"
	"github.com/shandysiswandi/gostore/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
	Details []string          `json:"details,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Handler returns a payload to encode as JSON, or an error to map through
// goerror.
type Handler func(r *Request) (any, error)

type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

type Router struct {
	hr      *httprouter.Router
	mws     []Middleware
	limiter *IPRateLimiter
}

// publicEndpoints skip bearer authentication.
var publicEndpoints = map[string]map[string]struct{}{
	http.MethodGet: {
		"/":       {},
		"/health": {},
	},
	http.MethodPost: {
		"/api/v1/identity/register":        {},
		"/api/v1/identity/register/verify": {},
		"/api/v1/identity/password/forgot": {},
		"/api/v1/identity/password/reset":  {},
	},
}

func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ro := &Router{
		hr: hr,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, publicEndpoints),
		},
		limiter: NewIPRateLimiter(
			cfg.Config.GetFloat64("app.server.http.rate_limit.per_second"),
			cfg.Config.GetInt("app.server.http.rate_limit.burst"),
		),
	}

	ro.GET("/", func(*Request) (any, error) { return welcome{}, nil })
	ro.GET("/health", func(*Request) (any, error) { return health{Status: "ok"}, nil })

	return ro
}

type welcome struct{}

func (welcome) Message() string { return "Welcome to API GoStore" }

type health struct {
	Status string `json:"status"`
}

// RateLimit returns the shared per-IP limiter middleware, meant for public
// endpoints that trigger outbound messages.
func (r *Router) RateLimit() Middleware {
	return r.limiter.Middleware
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			encodeError(req.Context(), w, err)
			return
		}
		encodeOK(w, resp)
	})

	chain := make([]Middleware, 0, len(r.mws)+len(mws))
	chain = append(chain, r.mws...)
	r.hr.Handler(method, path, Chain(final, append(chain, mws...)...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func encodeError(ctx context.Context, w http.ResponseWriter, err error) {
	gerr, ok := goerror.As(err)
	if !ok {
		slog.ErrorContext(ctx, "handler returned an untyped error", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Details: gerr.Details()}

	if verr, ok := gerr.Unwrap().(validator.V10ValidationError); ok {
		resp.Error = verr.Values()
	} else if len(gerr.Fields()) > 0 {
		resp.Error = gerr.Fields()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func encodeOK(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	out := successResponse{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		out.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		out.Meta = m.Meta()
	}

	writeJSON(w, out, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
