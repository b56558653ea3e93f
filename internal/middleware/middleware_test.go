package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type MockTokens struct {
	ParseFunc func(ctx context.Context, token string) (*service.Claims, error)
}

func (m *MockTokens) SignAccess(ctx context.Context, sub uuid.UUID, role string, ttl time.Duration) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func (m *MockTokens) ParseAndValidateAccess(ctx context.Context, token string) (*service.Claims, error) {
	return m.ParseFunc(ctx, token)
}

type MockLimiter struct {
	IncrFunc func(ctx context.Context, key string, window time.Duration) (int64, error)
}

func (m *MockLimiter) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return m.IncrFunc(ctx, key, window)
}

func init() { gin.SetMode(gin.TestMode) }

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def.ghi":       "abc.def.ghi",
		"bearer \"abc.def.ghi\"":   "abc.def.ghi",
		"Bearer abc.def.ghi, junk": "abc.def.ghi",
		"Bearer abc.def.ghi extra": "abc.def.ghi",
	}
	for in, want := range cases {
		got, ok := ExtractBearerToken(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ExtractBearerToken("Basic dXNlcg==")
	assert.False(t, ok)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		uid, ok := service.UserIDFromContext(c.Request.Context())
		role, _ := service.RoleFromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, uid.String()+"|"+string(role))
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	uid := uuid.New()
	tokens := &MockTokens{ParseFunc: func(ctx context.Context, token string) (*service.Claims, error) {
		if token == "good" {
			return &service.Claims{UserID: uid, Role: string(service.RoleAdmin)}, nil
		}
		return nil, errors.New("bad token")
	}}
	r := newEngine(AuthRequired(tokens, zap.NewNop()))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)

	w := do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uid.String()+"|ROLE_ADMIN", w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	tokens := &MockTokens{ParseFunc: func(ctx context.Context, token string) (*service.Claims, error) {
		return nil, errors.New("bad token")
	}}
	r := newEngine(OptionalAuth(tokens, zap.NewNop()))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer bad").Code)
}

func TestRequireRole(t *testing.T) {
	uid := uuid.New()
	tokens := &MockTokens{ParseFunc: func(ctx context.Context, token string) (*service.Claims, error) {
		return &service.Claims{UserID: uid, Role: token}, nil
	}}
	r := newEngine(AuthRequired(tokens, zap.NewNop()), RequireRole(service.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, do(r, "Bearer ROLE_CUSTOMER").Code)
	assert.Equal(t, http.StatusOK, do(r, "Bearer ROLE_ADMIN").Code)
}

func TestRateLimit(t *testing.T) {
	var n int64
	limiter := &MockLimiter{IncrFunc: func(ctx context.Context, key string, window time.Duration) (int64, error) {
		n++
		return n, nil
	}}
	r := newEngine(RateLimit(limiter, "condolences", 2, time.Minute, zap.NewNop()))

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestRateLimit_FailOpen(t *testing.T) {
	limiter := &MockLimiter{IncrFunc: func(ctx context.Context, key string, window time.Duration) (int64, error) {
		return 0, errors.New("redis down")
	}}
	r := newEngine(RateLimit(limiter, "tributes", 1, time.Minute, zap.NewNop()))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(r, "").Code)
	}
}
