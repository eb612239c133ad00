package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jmylchreest/themesd/internal/auth"
	"github.com/jmylchreest/themesd/internal/http/apierror"
	"github.com/jmylchreest/themesd/internal/models"
	"github.com/jmylchreest/themesd/internal/observability"
)

// Authenticator resolves credentials to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// BasicAuth attaches the user named by the request's Basic credentials to
// the request context. Requests without an Authorization header continue
// anonymously; handlers decide whether that is enough. OPTIONS requests are
// never authenticated, so bad credentials cannot block schema discovery.
func BasicAuth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="themesd"`)
				apierror.Write(w, apierror.InvalidCredentials())
				return
			}

			user, err := authenticator.Authenticate(r.Context(), username, password)
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				logger.WarnContext(r.Context(), "authentication failed",
					slog.String("username", username),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("WWW-Authenticate", `Basic realm="themesd"`)
				apierror.Write(w, apierror.InvalidCredentials())
				return
			case err != nil:
				logger.ErrorContext(r.Context(), "authentication error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				apierror.Write(w, apierror.New(http.StatusInternalServerError, apierror.CodeInternal, "Authentication is unavailable."))
				return
			}

			ctx := auth.WithUser(r.Context(), user)
			ctx = observability.ContextWithLogger(ctx,
				observability.LoggerFromContext(ctx, logger).With(slog.String("user", user.Username)))
			r = r.WithContext(ctx)
			noteCaller(r)
			next.ServeHTTP(w, r)
		})
	}
}
