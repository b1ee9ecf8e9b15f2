package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTrack(t *testing.T) {
	observedZapCore, observedLogs := observer.New(zap.InfoLevel)
	observedLogger := zap.New(observedZapCore)

	ctx := With(t.Context(), &ZapLogger{z: observedLogger.Sugar()})
	Track(ctx, "foo", "bar") // Should be passed on to child logger.

	ctx2 := With(ctx, FromContext(ctx).Named("nested"))
	Track(ctx2, "baz", "bam") // Should not propagate to root logger.

	Info(ctx, "root log")
	Info(ctx2, "nested log")

	if len(observedLogs.All()) != 2 {
		t.Errorf("expected 2 log entries, got %d", len(observedLogs.All()))
	}

	require.Equal(t, 2, observedLogs.Len())
	allLogs := observedLogs.All()
	assert.Equal(t, "root log", allLogs[0].Message)
	assert.ElementsMatch(t, []zap.Field{
		zap.String("foo", "bar"),
	}, allLogs[0].Context)

	assert.Equal(t, "nested log", allLogs[1].Message)
	assert.ElementsMatch(t, []zap.Field{
		zap.String("foo", "bar"),
		zap.String("baz", "bam"),
	}, allLogs[1].Context)
}

func TestFromContext_NoLogger(t *testing.T) {
	logger := FromContext(t.Context())
	require.NotNil(t, logger)

	assert.NotPanics(t, func() {
		Infow(t.Context(), "dropped", "key", "value")
		Track(t.Context(), "foo", "bar")
	})
}

func TestMiddleware(t *testing.T) {
	core, obs := observer.New(zap.InfoLevel)
	root := &ZapLogger{z: zap.New(core).Sugar()}

	var seen Logger
	h := Middleware(root)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		Info(r.Context(), "handled")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/coverstar/callback?code=abc", nil))

	require.NotNil(t, seen)
	require.Equal(t, 1, obs.Len())
	entry := obs.All()[0]
	assert.Equal(t, "handled", entry.Message)
	assert.Equal(t, "/auth/coverstar/callback", entry.LoggerName)
	require.Len(t, entry.Context, 1)
	assert.Equal(t, "request_id", entry.Context[0].Key)
	assert.NotEmpty(t, entry.Context[0].String)
}
