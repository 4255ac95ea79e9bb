package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docqa/internal/access"
	"docqa/internal/contextutil"
)

// Caller identity headers set by the upstream gateway.
const (
	HeaderUserID          = "X-User-ID"
	HeaderUserRole        = "X-User-Role"
	HeaderUserDepartment  = "X-User-Department"
	HeaderUserAccessLevel = "X-User-Access-Level"
	HeaderForwardedFor    = "X-Forwarded-For"
)

const healthPath = "/api/health"

// LoggerMiddleware adds a structured logger to the request context.
func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.Default().With(
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx := context.WithValue(r.Context(), contextutil.LoggerKey(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request with its status and duration.
// Successful health checks are not logged.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		if r.URL.Path == healthPath && rw.statusCode == http.StatusOK {
			return
		}
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// CallerContext stores the caller identity and address in the request context.
// Requests without X-User-ID are anonymous.
func CallerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		u := userFromHeaders(ctx, r.Header)
		ctx = access.WithUser(ctx, u)
		ctx = contextutil.WithClientIP(ctx, clientIP(r))

		if u != nil {
			logger := contextutil.LoggerFromContext(ctx).With("user_id", u.ID, "role", string(u.Role))
			ctx = context.WithValue(ctx, contextutil.LoggerKey(), logger)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromHeaders(ctx context.Context, h http.Header) *access.User {
	id := strings.TrimSpace(h.Get(HeaderUserID))
	if id == "" {
		return nil
	}
	u := &access.User{
		ID:         id,
		Role:       access.ParseRole(h.Get(HeaderUserRole)),
		Department: strings.TrimSpace(h.Get(HeaderUserDepartment)),
	}
	if raw := strings.TrimSpace(h.Get(HeaderUserAccessLevel)); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid access level header", "value", raw)
		} else {
			u.AccessLevel = level
		}
	}
	return u
}

// clientIP returns the first X-Forwarded-For entry, or the host of the remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(HeaderForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS adds CORS headers to allow cross-origin requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
