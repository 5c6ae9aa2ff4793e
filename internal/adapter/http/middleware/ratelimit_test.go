package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

func newTestStore(t *testing.T) (*redisStore.RateLimitStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisStore.NewRateLimitStore(client), mr
}

// setupRateLimitRouter stands in for JWTAuth by reading the caller from a header.
func setupRateLimitRouter(store *redisStore.RateLimitStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rule := middleware.RateLimitRule{Limit: 3, Window: time.Minute}
	identify := func(c *gin.Context) {
		if raw := c.GetHeader(testUserHeader); raw != "" {
			c.Set(middleware.CtxUserID, uuid.MustParse(raw))
		}
		c.Next()
	}

	r.GET("/test", identify, middleware.RateLimiter(store, "test", rule, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

func doGet(router *gin.Engine, userID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	store, _ := newTestStore(t)
	router := setupRateLimitRouter(store)

	for i := 0; i < 3; i++ {
		w := doGet(router, "")
		assert.Equal(t, 200, w.Code, "request %d should succeed", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(2-i), w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	store, _ := newTestStore(t)
	router := setupRateLimitRouter(store)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, doGet(router, "").Code)
	}

	w := doGet(router, "")
	assert.Equal(t, 429, w.Code)
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.Contains(t, w.Body.String(), "RATE_001")
}

func TestRateLimiter_KeysByCaller(t *testing.T) {
	store, _ := newTestStore(t)
	router := setupRateLimitRouter(store)
	alice, bob := uuid.New().String(), uuid.New().String()

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, doGet(router, alice).Code)
	}
	assert.Equal(t, 429, doGet(router, alice).Code)

	// Independent counters per user and for anonymous callers.
	assert.Equal(t, 200, doGet(router, bob).Code)
	assert.Equal(t, 200, doGet(router, "").Code)
}

func TestRateLimiter_DegradedModeAllows(t *testing.T) {
	store, mr := newTestStore(t)
	router := setupRateLimitRouter(store)
	mr.Close()

	w := doGet(router, "")
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestDefaultRateLimitRules(t *testing.T) {
	rules := middleware.DefaultRateLimitRules()
	assert.Equal(t, int64(5), rules["users_register"].Limit)
	assert.Equal(t, time.Hour, rules["users_register"].Window)
	assert.Equal(t, int64(10), rules["auth_login"].Limit)
	assert.Equal(t, int64(60), rules["reads"].Limit)
	assert.Equal(t, int64(30), rules["wallets_write"].Limit)
	assert.Equal(t, int64(30), rules["transfers"].Limit)
}
