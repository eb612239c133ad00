package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/jmylchreest/themesd/internal/auth"
	"github.com/jmylchreest/themesd/internal/http/apierror"
	"github.com/jmylchreest/themesd/internal/models"
	"github.com/jmylchreest/themesd/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	users map[string]string
	err   error
}

func (s stubAuthenticator) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if want, ok := s.users[username]; ok && want == password {
		return &models.User{Username: username, Role: auth.RoleAdministrator}, nil
	}
	return nil, auth.ErrInvalidCredentials
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// echoUser writes the authenticated username, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if user := auth.UserFromContext(r.Context()); user != nil {
		_, _ = io.WriteString(w, user.Username)
		return
	}
	_, _ = io.WriteString(w, "anonymous")
})

func decodeAPIError(t *testing.T, body io.Reader) apierror.Error {
	t.Helper()

	var e apierror.Error
	require.NoError(t, json.NewDecoder(body).Decode(&e))
	return e
}

func TestBasicAuth(t *testing.T) {
	handler := BasicAuth(stubAuthenticator{users: map[string]string{"admin": "secret"}}, discardLogger())(echoUser)

	t.Run("no credentials continues anonymously", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anonymous", rec.Body.String())
	})

	t.Run("valid credentials attach the user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "secret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", rec.Body.String())
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		e := decodeAPIError(t, rec.Body)
		assert.Equal(t, apierror.CodeInvalidCredentials, e.Code)
		assert.Equal(t, http.StatusUnauthorized, e.Data.Status)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apierror.CodeInvalidCredentials, decodeAPIError(t, rec.Body).Code)
	})

	t.Run("OPTIONS ignores bad credentials", func(t *testing.T) {
		for _, header := range []string{"Basic " + "YWRtaW46bm9wZQ==", "Bearer abc"} {
			req := httptest.NewRequest(http.MethodOptions, "/wp/v2/themes", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code, header)
			assert.Equal(t, "anonymous", rec.Body.String(), header)
		}
	})
}

func TestBasicAuth_StoreFailure(t *testing.T) {
	handler := BasicAuth(stubAuthenticator{err: errors.New("db down")}, discardLogger())(echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apierror.CodeInternal, decodeAPIError(t, rec.Body).Code)
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORS()(next)

	t.Run("preflight is answered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/wp/v2/themes", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "DELETE")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	})

	t.Run("plain OPTIONS reaches the router", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/wp/v2/themes", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("restricted origins", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"https://allowed.example"}
		h := CORSWithConfig(cfg)(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://other.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

		req.Header.Set("Origin", "https://allowed.example")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apierror.CodeInternal, decodeAPIError(t, rec.Body).Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"generated when absent", "", false},
		{"client id reused", "abc-123", true},
		{"control characters replaced", "abc\x01", false},
		{"overlong id replaced", strings.Repeat("a", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.reuse {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
			}
		})
	}
}

func TestLoggingMiddleware_IncludesCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestID(NewLoggingMiddleware(logger)(
		BasicAuth(stubAuthenticator{users: map[string]string{"admin": "secret"}}, discardLogger())(echoUser)))

	req := httptest.NewRequest(http.MethodGet, "/wp/v2/themes", nil)
	req.SetBasicAuth("admin", "secret")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "admin", line["user"])
	assert.Equal(t, float64(http.StatusOK), line["status"])
	assert.NotEmpty(t, line["request_id"])
}

func TestLoggingMiddleware_RequestLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	inner := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		observability.LoggerFromContext(r.Context(), discardLogger()).InfoContext(r.Context(), "inside handler")
	})
	handler := RequestID(NewLoggingMiddleware(logger)(
		BasicAuth(stubAuthenticator{users: map[string]string{"admin": "secret"}}, discardLogger())(inner)))

	req := httptest.NewRequest(http.MethodGet, "/wp/v2/themes", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req.SetBasicAuth("admin", "secret")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &line))
	assert.Equal(t, "inside handler", line["msg"])
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "admin", line["user"])
}

func TestCompress_Brotli(t *testing.T) {
	payload := strings.Repeat(`{"name":"Twenty Sixteen"},`, 200)
	handler := Compress(5)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "br")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	decoded, err := io.ReadAll(brotli.NewReader(rec.Body))
	require.NoError(t, err)
	assert.Equal(t, payload, string(decoded))
}
