package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/chalkak/chalkak-server/pkg/logger"
)

// loggedFields runs one request through RequestLogger, has the handler emit
// a line via the context logger, and returns the decoded JSON fields.
func loggedFields(t *testing.T, mutate func(r *http.Request) *http.Request) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	base := logger.NewWithWriter("test-svc", "info", &buf)

	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handler log")
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if mutate != nil {
		req = mutate(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotZero(t, buf.Len(), "handler should have logged through the context logger")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRequestLogger_StoresLoggerInContext(t *testing.T) {
	out := loggedFields(t, nil)
	assert.Equal(t, "handler log", out["msg"])
}

func TestRequestLogger_IncludesCorrelationID(t *testing.T) {
	out := loggedFields(t, func(r *http.Request) *http.Request {
		ctx := logger.WithCorrelationID(r.Context(), "corr-test-123")
		return r.WithContext(ctx)
	})
	assert.Equal(t, "corr-test-123", out["correlation_id"])
}

func TestRequestLogger_IncludesUserIDFromAuthContext(t *testing.T) {
	out := loggedFields(t, func(r *http.Request) *http.Request {
		ctx := context.WithValue(r.Context(), userIDKey, "user-from-auth")
		return r.WithContext(ctx)
	})
	assert.Equal(t, "user-from-auth", out["user_id"])
}

func TestRequestLogger_IncludesUserIDFromHeader(t *testing.T) {
	out := loggedFields(t, func(r *http.Request) *http.Request {
		r.Header.Set("X-User-ID", "user-from-header")
		return r
	})
	assert.Equal(t, "user-from-header", out["user_id"])
}

func TestRequestLogger_AuthContextWinsOverHeader(t *testing.T) {
	out := loggedFields(t, func(r *http.Request) *http.Request {
		r.Header.Set("X-User-ID", "header-user")
		ctx := context.WithValue(r.Context(), userIDKey, "auth-user")
		return r.WithContext(ctx)
	})
	assert.Equal(t, "auth-user", out["user_id"])
}

func TestRequestLogger_IncludesTraceFields(t *testing.T) {
	out := loggedFields(t, func(r *http.Request) *http.Request {
		traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
		require.NoError(t, err)
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		})
		return r.WithContext(trace.ContextWithSpanContext(r.Context(), sc))
	})
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestRequestLogger_NoUserID_OmitsField(t *testing.T) {
	out := loggedFields(t, nil)
	assert.NotContains(t, out, "user_id")
}
