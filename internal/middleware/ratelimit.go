package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"memorial-service/internal/dto"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	// IncrWindow увеличивает счётчик ключа и возвращает его значение в текущем окне.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit ограничивает число запросов с одного IP к маршруту. При недоступном хранилище
// запросы пропускаются.
func RateLimit(limiter Limiter, scope string, limit int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := scope + ":" + c.ClientIP()
		n, err := limiter.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if n > limit {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewRateLimitedError("too many requests, try again later"))
			return
		}
		c.Next()
	}
}
