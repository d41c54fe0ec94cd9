package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apimgr/prospects/src/config"
	"github.com/apimgr/prospects/src/logging"
	"github.com/apimgr/prospects/src/model"
)

// Middleware wraps an http.Handler to add common functionality.
type Middleware struct {
	config     *config.Config
	logManager *logging.Manager
}

// NewMiddleware creates a new middleware instance.
func NewMiddleware(cfg *config.Config, logMgr *logging.Manager) *Middleware {
	return &Middleware{config: cfg, logManager: logMgr}
}

// Chain chains multiple middleware handlers together.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID adds a unique request ID (UUID v4). A valid incoming
// X-Request-ID is kept so IDs survive proxies.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var requestID string

		if incoming := r.Header.Get("X-Request-ID"); incoming != "" {
			if _, err := uuid.Parse(incoming); err == nil {
				requestID = incoming
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}

		r.Header.Set("X-Request-ID", requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)
	})
}

// Logger writes one access-log line per request.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		if m.logManager != nil {
			m.logManager.Access().LogRequest(r, wrapped.statusCode, int64(wrapped.bytesWritten), duration, r.Header.Get("X-Request-ID"))
		}

		if m.config != nil && m.config.Server.Mode == "development" {
			log.Printf("%s - - \"%s %s %s\" %d %d \"%.3fms\"",
				logging.ClientIP(r),
				r.Method,
				r.URL.Path,
				r.Proto,
				wrapped.statusCode,
				wrapped.bytesWritten,
				float64(duration.Microseconds())/1000.0,
			)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Recovery recovers from handler panics.
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC: %v", err)
				if m.logManager != nil {
					m.logManager.Server().Error("handler panic", map[string]interface{}{
						"path":  r.URL.Path,
						"panic": err,
					})
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds standard security headers to all responses.
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// RequireToken guards mutating endpoints with the configured API token.
// With no token configured the endpoints are open, which suits local use.
func (m *Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if m.config != nil {
			token = m.config.Server.APIToken
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		provided := r.Header.Get("X-API-Token")
		if provided == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				provided = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if provided != token {
			writeError(w, model.ErrCodeUnauthorized, "valid API token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
