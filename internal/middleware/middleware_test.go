package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart_back_end/internal/cache"
	"medicart_back_end/internal/models"
	"medicart_back_end/internal/utils"
)

const secret = "test-jwt-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, id models.Identity) string {
	t.Helper()
	token, err := utils.GenerateJWT(secret, id, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := Identity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "role": id.Role})
	})
	r.GET("/private", handlers...)
	return r
}

func do(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(AuthRequired(secret))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer not-a-jwt").Code)

	other, _ := utils.GenerateJWT("other-secret", models.Identity{UserID: "u1"}, time.Hour)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+other).Code)

	w := do(r, bearer(t, models.Identity{UserID: "u1", Role: models.RoleCustomer}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1","role":"customer"}`, w.Body.String())
}

func TestRequireStaff(t *testing.T) {
	r := newRouter(AuthRequired(secret), RequireStaff())

	assert.Equal(t, http.StatusForbidden, do(r, bearer(t, models.Identity{UserID: "c", Role: models.RoleCustomer})).Code)
	assert.Equal(t, http.StatusOK, do(r, bearer(t, models.Identity{UserID: "p", Role: models.RolePharmacy})).Code)
	assert.Equal(t, http.StatusOK, do(r, bearer(t, models.Identity{UserID: "a", Role: models.RoleAdmin})).Code)

	unauthenticated := newRouter(RequireStaff())
	assert.Equal(t, http.StatusUnauthorized, do(unauthenticated, "").Code)
}

func TestRateLimitPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := newRouter(AuthRequired(secret), RateLimit(cache.NewRateLimiter(client), "payment", 2, time.Minute))
	asha := bearer(t, models.Identity{UserID: "asha"})
	ravi := bearer(t, models.Identity{UserID: "ravi"})

	w := do(r, asha)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, do(r, asha).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, asha).Code)
	assert.Equal(t, http.StatusOK, do(r, ravi).Code)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, do(r, asha).Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	r := newRouter(RateLimit(nil, "payment", 1, time.Minute))
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	r = newRouter(RateLimit(cache.NewRateLimiter(client), "payment", 1, time.Minute))
	assert.Equal(t, http.StatusOK, do(r, "").Code)
}
