package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

// KeyFunc извлекает ключ лимитирования из запроса
type KeyFunc func(c *gin.Context) string

// Recorder приемник метрик лимитера
type Recorder interface {
	RateLimitRejected(route string)
}

// ClientKey стандартный ключ: uid аутентифицированного пользователя,
// иначе первый hop X-Forwarded-For, иначе "anonymous"
func ClientKey(uidFromContext func(c *gin.Context) string) KeyFunc {
	return func(c *gin.Context) string {
		if uid := uidFromContext(c); uid != "" {
			return uid
		}
		if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
			if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
				return first
			}
		}
		return "anonymous"
	}
}

// Middleware применяет лимитер к маршруту и выставляет X-RateLimit-заголовки
func Middleware(l *Limiter, route string, key KeyFunc, rec Recorder, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := l.Check(key(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Seconds() + 0.999)
			if retryAfter < 1 {
				retryAfter = 1
			}

			if rec != nil {
				rec.RateLimitRejected(route)
			}
			log.Warnw("Rate limit exceeded", "route", route, "retry_after", retryAfter)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many requests. Please try again later.",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}
