package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jmylchreest/themesd/internal/auth"
	"github.com/jmylchreest/themesd/internal/observability"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	size        int
}

func (rw *statusRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// NewLoggingMiddleware logs one line per request. When request logging is
// switched off only 4xx and 5xx responses are logged. The caller's username
// is included when BasicAuth runs further down the chain.
//
// Handlers further down find a logger tagged with the request id through
// observability.LoggerFromContext.
func NewLoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			holder := &callerHolder{}
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			ctx := withCallerHolder(r.Context(), holder)
			ctx = observability.ContextWithLogger(ctx,
				logger.With(slog.String("request_id", GetRequestID(ctx))))
			next.ServeHTTP(rec, r.WithContext(ctx))

			if !observability.IsRequestLoggingEnabled() && rec.status < http.StatusBadRequest {
				return
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int("size", rec.size),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("request_id", GetRequestID(r.Context())),
			}
			if holder.username != "" {
				attrs = append(attrs, slog.String("user", holder.username))
			}
			logger.LogAttrs(r.Context(), level, "http request", attrs...)
		})
	}
}

// noteCaller records the authenticated user for the request log line.
func noteCaller(r *http.Request) {
	holder := callerHolderFrom(r.Context())
	if holder == nil {
		return
	}
	if user := auth.UserFromContext(r.Context()); user != nil {
		holder.username = user.Username
	}
}
