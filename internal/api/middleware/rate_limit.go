package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MateoHeras77/ShiftTradeAV/pkg/redis"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/response"
)

// RateLimit 按 scope + 客户端 IP 的滑动窗口限流
// 同一 scope 下的多个路由共享配额；rdb 为 nil 或 Redis 出错时放行
func RateLimit(rdb *redis.Client, scope string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := "rate_limit:" + scope + ":" + c.ClientIP()
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			logger.Warn("触发限流", zap.String("scope", scope), zap.String("ip", c.ClientIP()))
			c.Header("Retry-After", retryAfter)
			response.Fail(c, response.CodeRateLimited, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
