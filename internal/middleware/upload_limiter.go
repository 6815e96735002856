package middleware

import (
	"errors"
	"fmt"

	"filevault/internal/utils"
	"filevault/pkg/redis_limiter"

	"github.com/gin-gonic/gin"
)

// UploadLimiter 上传并发限制中间件
//
// 按用户获取Redis槽位，请求结束后释放。
// Redis不可用时放行：限流是保护措施，不是上传链路的硬依赖。
func UploadLimiter(limiter *redis_limiter.RedisLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("user:%d", userID)
		if err := limiter.Acquire(c.Request.Context(), key); err != nil {
			if errors.Is(err, redis_limiter.ErrLimitReached) {
				utils.TooManyRequests(c, "并发上传数已达上限，请稍后重试")
				c.Abort()
				return
			}
			// Redis故障，放行
			c.Next()
			return
		}
		defer limiter.Release(c.Request.Context(), key)

		c.Next()
	}
}
