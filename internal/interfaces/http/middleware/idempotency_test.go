package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"userstore.backend/pkg/redis"
)

func newIdempotentRouter(calls *int, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/users", IdempotencyMiddleware(), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls})
	})
	return r
}

func postWithKey(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	require.NoError(t, redis.Init("redis://"+mr.Addr(), ""))
	t.Cleanup(func() { _ = redis.Close() })
	return mr
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	mr := withRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)

	first := postWithKey(r, "abc")
	require.Equal(t, http.StatusAccepted, first.Code)

	second := postWithKey(r, "abc")
	require.Equal(t, http.StatusAccepted, second.Code)
	require.Equal(t, "true", second.Header().Get("X-Idempotency-Hit"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, calls)

	require.True(t, mr.Exists("idempotency:POST:/users:abc"))
	require.Equal(t, RetentionDuration, mr.TTL("idempotency:POST:/users:abc"))
}

func TestIdempotency_WithoutKeyAlwaysRuns(t *testing.T) {
	withRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)

	postWithKey(r, "")
	postWithKey(r, "")
	require.Equal(t, 2, calls)
}

func TestIdempotency_InProgressConflict(t *testing.T) {
	mr := withRedis(t)
	require.NoError(t, mr.Set("idempotency:POST:/users:busy", "processing"))
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)

	rec := postWithKey(r, "busy")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), CodeIdempotencyConflict)
	require.Equal(t, 0, calls)
}

func TestIdempotency_FailedRequestCanRetry(t *testing.T) {
	mr := withRedis(t)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusBadRequest)

	postWithKey(r, "k")
	require.False(t, mr.Exists("idempotency:POST:/users:k"))
	postWithKey(r, "k")
	require.Equal(t, 2, calls)
}

func TestIdempotency_UnreadableRecordIsReplaced(t *testing.T) {
	mr := withRedis(t)
	require.NoError(t, mr.Set("idempotency:POST:/users:bad", "not-json"))
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)

	rec := postWithKey(r, "bad")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, calls)
}

func TestIdempotency_PassThroughWithoutRedis(t *testing.T) {
	redis.SetClient(nil)
	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)

	postWithKey(r, "abc")
	postWithKey(r, "abc")
	require.Equal(t, 2, calls)
}

func TestIdempotency_LockRace(t *testing.T) {
	origGet, origSetNX := redisGet, redisSetNX
	t.Cleanup(func() { redisGet, redisSetNX = origGet, origSetNX })
	redisGet = func(context.Context, string) (string, error) { return "", goredis.Nil }
	redisSetNX = func(context.Context, string, interface{}, time.Duration) (bool, error) { return false, nil }

	calls := 0
	r := newIdempotentRouter(&calls, http.StatusAccepted)
	rec := postWithKey(r, "race")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 0, calls)
}
