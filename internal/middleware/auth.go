package middleware

import (
	"net/http"
	"strings"

	"memorial-service/internal/dto"
	"memorial-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys for user info
const (
	CtxUserID   = "user_id"
	CtxUserRole = "user_role"
)

// AuthRequired проверяет Bearer-токен и кладёт пользователя в контекст gin и запроса.
func AuthRequired(tokens service.AccessTokenProvider, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("missing Authorization header"))
			return
		}
		if !authenticate(c, tokens, authz, log) {
			return
		}
		c.Next()
	}
}

// OptionalAuth пропускает анонимные запросы, но отклоняет присланный невалидный токен.
func OptionalAuth(tokens service.AccessTokenProvider, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			c.Next()
			return
		}
		if !authenticate(c, tokens, authz, log) {
			return
		}
		c.Next()
	}
}

// RequireRole ставится после AuthRequired.
func RequireRole(roles ...service.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := service.RoleFromContext(c.Request.Context())
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewForbiddenError("insufficient role"))
	}
}

func authenticate(c *gin.Context, tokens service.AccessTokenProvider, authz string, log *zap.Logger) bool {
	token, ok := ExtractBearerToken(authz)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid Authorization header"))
		return false
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("empty token"))
		return false
	}

	claims, err := tokens.ParseAndValidateAccess(c.Request.Context(), token)
	if err != nil {
		log.Warn("access token rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("invalid token"))
		return false
	}

	role := service.Role(claims.Role)
	if role == "" {
		role = service.RoleCustomer
	}
	c.Set(CtxUserID, claims.UserID.String())
	c.Set(CtxUserRole, string(role))

	ctx := service.WithUserID(c.Request.Context(), claims.UserID)
	ctx = service.WithRole(ctx, role)
	c.Request = c.Request.WithContext(ctx)
	return true
}

// ExtractBearerToken извлекает токен из заголовка Authorization, устойчиво к лишним символам
// Примеры допустимых значений:
// - "Bearer abc.def.ghi"
// - "Bearer \"abc.def.ghi\""
// - "Bearer abc.def.ghi, extra"
func ExtractBearerToken(authz string) (string, bool) {
	if authz == "" {
		return "", false
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	t := strings.Trim(strings.TrimSpace(parts[1]), " \"'")
	// Обрезать всё после первой запятой
	if i := strings.IndexRune(t, ','); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if i := strings.IndexByte(t, ' '); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return strings.Trim(t, " \"'"), true
}
