package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snapbook/models"
	"snapbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, jwt *utils.JWTManager, roles ...models.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{JWTAuthMiddleware(jwt, zap.NewNop())}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, actor)
	})
	r.GET("/me", handlers...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	jwt, err := utils.NewJWTManager("secret")
	require.NoError(t, err)
	r := newRouter(t, jwt)

	token, err := jwt.GenerateToken(models.Actor{ID: "c1", Role: models.RoleClient}, time.Hour)
	require.NoError(t, err)

	w := do(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c1"`)

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer garbage").Code)
}

func TestRequireRole(t *testing.T) {
	jwt, _ := utils.NewJWTManager("secret")
	r := newRouter(t, jwt, models.RoleAdmin)

	client, _ := jwt.GenerateToken(models.Actor{ID: "c1", Role: models.RoleClient}, time.Hour)
	admin, _ := jwt.GenerateToken(models.Actor{ID: "a1", Role: models.RoleAdmin}, time.Hour)

	w := do(r, "Bearer "+client)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not_permitted")

	assert.Equal(t, http.StatusOK, do(r, "Bearer "+admin).Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(2).Middleware(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("1.1.1.1"))
	assert.Equal(t, http.StatusOK, hit("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("1.1.1.1"))
	assert.Equal(t, http.StatusOK, hit("2.2.2.2"))
}
