package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleancity/complaint-server/internal/middleware"
	"github.com/cleancity/complaint-server/internal/models"
)

const secret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func validClaims(exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id":    float64(30),
		"role":       models.RoleAdmin,
		"profile_id": float64(3),
		"name":       "Dev Gupta",
		"email":      "admin@city.gov",
		"exp":        exp.Unix(),
		"iss":        "complaint-server",
	}
}

func okHandler(captured *models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := middleware.IdentityFrom(r.Context()); ok && captured != nil {
			*captured = id
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthValidToken(t *testing.T) {
	var identity models.Identity
	handler := middleware.RequireAuth(secret)(okHandler(&identity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(time.Now().Add(time.Hour)), secret))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, identity.UserID)
	assert.Equal(t, models.RoleAdmin, identity.Role)
	assert.Equal(t, 3, identity.ProfileID)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	handler := middleware.RequireAuth(secret)(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	handler := middleware.RequireAuth(secret)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(time.Now().Add(-time.Hour)), secret))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthWrongKey(t *testing.T) {
	handler := middleware.RequireAuth(secret)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(time.Now().Add(time.Hour)), "other-secret"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthGarbageToken(t *testing.T) {
	handler := middleware.RequireAuth(secret)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthMissingRoleClaim(t *testing.T) {
	handler := middleware.RequireAuth(secret)(okHandler(nil))

	claims := validClaims(time.Now().Add(time.Hour))
	delete(claims, "role")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, secret))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	handler := middleware.RequireRole(models.RoleAdmin, models.RoleWorker)(okHandler(nil))

	cases := []struct {
		role string
		want int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleWorker, http.StatusOK},
		{models.RoleCitizen, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(middleware.WithIdentity(req.Context(), models.Identity{Role: tc.role}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	handler := middleware.RequireRole(models.RoleAdmin)(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders()(okHandler(nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}

func TestRateLimitWithoutRedisFailsOpen(t *testing.T) {
	handler := middleware.RateLimit(nil, 1)(okHandler(nil))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitEnforcesLimit(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	handler := middleware.RateLimit(rdb, 3)(okHandler(nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitWindowKeysExpire(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	handler := middleware.RateLimit(rdb, 100)(okHandler(nil))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Every window key carries a TTL so stale windows cannot pile up.
	keys := srv.Keys()
	require.NotEmpty(t, keys)
	for _, key := range keys {
		assert.Greater(t, srv.TTL(key), time.Duration(0), "key %s has no TTL", key)
	}
}
