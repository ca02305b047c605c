// Package middleware provides HTTP middleware for the complaint server.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cleancity/complaint-server/internal/models"
)

type ctxKey int

const identityKey ctxKey = 0

// WithIdentity returns a context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated identity set by RequireAuth.
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}

// StructuredLogger returns a middleware that logs HTTP requests with zap
func StructuredLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", r.Header.Get("X-Request-ID")),
			)
		})
	}
}

// SecurityHeaders sets baseline hardening headers on every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth validates the bearer token and stashes the identity in the
// request context. Every protected route goes through here; no role is
// trusted on the client's say-so.
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"success":false,"error":"Authorization required"}`, http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})

			if err != nil || !token.Valid {
				http.Error(w, `{"success":false,"error":"Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, `{"success":false,"error":"Invalid token claims"}`, http.StatusUnauthorized)
				return
			}

			identity, err := identityFromClaims(claims)
			if err != nil {
				http.Error(w, `{"success":false,"error":"Invalid token claims"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func identityFromClaims(claims jwt.MapClaims) (models.Identity, error) {
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return models.Identity{}, fmt.Errorf("missing user_id claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return models.Identity{}, fmt.Errorf("missing role claim")
	}
	profileID, ok := claims["profile_id"].(float64)
	if !ok {
		return models.Identity{}, fmt.Errorf("missing profile_id claim")
	}

	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)

	return models.Identity{
		UserID:    int(userID),
		Role:      role,
		ProfileID: int(profileID),
		FullName:  name,
		Email:     email,
	}, nil
}

// RequireRole gates a route to the given roles. Must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFrom(r.Context())
			if !ok {
				http.Error(w, `{"success":false,"error":"Authorization required"}`, http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, `{"success":false,"error":"Insufficient permissions"}`, http.StatusForbidden)
		})
	}
}

// RateLimit enforces a fixed-window per-client limit backed by redis. When
// redis is unavailable the limiter fails open: availability over strictness
// for a public reporting endpoint.
func RateLimit(rdb *redis.Client, requestsPerMinute int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			key := fmt.Sprintf("ratelimit:%s:%d", ip, time.Now().Unix()/60)

			// ExpireNX runs on every request so a window key always ends
			// up with a TTL, even if an earlier expire was lost.
			pipe := rdb.Pipeline()
			incr := pipe.Incr(r.Context(), key)
			pipe.ExpireNX(r.Context(), key, 2*time.Minute)
			if _, err := pipe.Exec(r.Context()); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if incr.Val() > int64(requestsPerMinute) {
				http.Error(w, `{"success":false,"error":"Rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware has already folded X-Forwarded-For into RemoteAddr
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
