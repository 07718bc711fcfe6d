// internal/httpapi/router.go
//
// Route table and HTTP middleware.
//
// Context
//   Two trust domains share one router.  Admin operations sit behind the
//   static bearer gate; the runtime endpoints the CMS calls sit behind the
//   signed-request gate.  Health and metrics are open — they are scraped
//   from inside the network and carry no tenant data.

package httpapi

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Hassan7885m/secure-collections/internal/auth"
	"github.com/Hassan7885m/secure-collections/internal/reconciler"
)

// Deps bundles what the router needs.
type Deps struct {
	Service     *reconciler.Service
	AdminGate   auth.Gate
	RuntimeGate auth.Gate
	Log         *zap.SugaredLogger
}

// NewRouter builds the service's full route table.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.S()
	}
	api := &API{svc: d.Service, log: d.Log}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(secureHeaders)
	r.Use(requestLogger(d.Log))
	r.Use(recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			OK bool `json:"ok"`
		}{true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Admin surface: static bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.AdminGate))
			r.Get("/collections", api.handleList)
			r.Post("/collections/upsert", api.handleUpsert)
			r.Post("/collections/resolve", api.handleResolve)
			r.Post("/collections/publish", api.handlePublish)
			r.Post("/settings/toggle", api.handleToggle)
		})

		// Runtime surface: timestamped signature from the CMS.
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.RuntimeGate))
			r.Post("/runtime/config", api.handleConfig)
			r.Post("/runtime/render", api.handleRender)
		})
	})

	return r
}

/*─────────────────────────── middleware ────────────────────────────*/

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the request's correlation id, empty outside the
// middleware chain.
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// requestID assigns a correlation id, honoring one supplied by a trusted
// proxy, and echoes it back in the response.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// secureHeaders hardens every response.  HSTS matters even behind a
// TLS-terminating proxy; no-store keeps drafts out of shared caches.
// Headers are set before delegating so they survive the handler's
// WriteHeader call.
func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured line per request.
func requestLogger(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", clientIP(r),
				"request_id", RequestID(r),
			)
		})
	}
}

// clientIP extracts the left-most parseable address from X-Forwarded-For
// or X-Real-Ip, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip.String()
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// recoverer converts panics into the wire's 500 shape instead of chi's
// plain-text default.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))
				writeErr(w, http.StatusInternalServerError, codeInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
