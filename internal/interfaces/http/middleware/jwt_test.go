package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/infrastructure/auth"
	"github.com/hms/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: 15 * time.Minute,
		Issuer:                "hms-backend-test",
	})
}

func setupJWTRouter(svc *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(JWTAuthMiddlewareWithConfig(DefaultJWTConfig(svc)))
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/api/v1/patients", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": GetJWTUserID(c),
			"role":    GetJWTRole(c),
		})
	})
	return router
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService()
	router := setupJWTRouter(svc)

	t.Run("skips configured paths", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects request without authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/patients", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("rejects malformed authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/patients", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects empty bearer token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/patients", nil)
		req.Header.Set("Authorization", "Bearer ")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/patients", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := auth.NewJWTService(config.JWTConfig{
			Secret:                "test-secret-key-at-least-32-chars",
			AccessTokenExpiration: -1 * time.Minute,
			Issuer:                "hms-backend-test",
		})
		token, err := expired.GenerateToken(uuid.New(), "x", auth.RoleBilling)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/patients", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
	})

	t.Run("accepts valid token and sets context", func(t *testing.T) {
		userID := uuid.New()
		token, err := svc.GenerateToken(userID, "Meera Pillai", auth.RoleBilling)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/patients", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
		assert.Contains(t, w.Body.String(), auth.RoleBilling)
	})
}

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService()

	newRouter := func(required ...string) *gin.Engine {
		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(DefaultJWTConfig(svc)))
		router.POST("/api/v1/payments/allocate", RequireRole(required...), func(c *gin.Context) {
			c.String(http.StatusOK, "allocated")
		})
		return router
	}

	doRequest := func(router *gin.Engine, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/v1/payments/allocate", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("allows matching role", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.New(), "cashier", auth.RoleBilling)
		require.NoError(t, err)

		w := doRequest(newRouter(auth.RoleBilling), token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("admin passes any role check", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.New(), "root", auth.RoleAdmin)
		require.NoError(t, err)

		w := doRequest(newRouter(auth.RoleBilling), token)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects non-matching role", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.New(), "reception", auth.RoleFrontDesk)
		require.NoError(t, err)

		w := doRequest(newRouter(auth.RoleBilling), token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
	})

	t.Run("rejects request when claims missing", func(t *testing.T) {
		router := gin.New()
		// RequireRole without the JWT middleware in front
		router.GET("/admin", RequireRole(auth.RoleAdmin), func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/admin", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestJWTContextGetters(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()
	token, err := svc.GenerateToken(userID, "Meera Pillai", auth.RoleDoctor)
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/whoami", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, userID.String(), GetJWTUserID(c))
		assert.Equal(t, "Meera Pillai", GetJWTUserName(c))
		assert.Equal(t, auth.RoleDoctor, GetJWTRole(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetJWTClaims_Empty(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTUserName(c))
	assert.Empty(t, GetJWTRole(c))
}
