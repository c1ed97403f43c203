package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"citypages_202510/pkg/cache"
	"citypages_202510/pkg/logger"
)

// ==================== 重新生成冷却中间件 ====================

// DefaultRegenerateCooldown 默认冷却间隔
const DefaultRegenerateCooldown = 30 * time.Second

// RegenerateKey 页面重新生成的冷却 key
func RegenerateKey(pageID int64) string {
	return fmt.Sprintf("regenerate:page:%d", pageID)
}

// RegenerateCooldown 按页面 ID 限制重新生成频率
//
// 使用示例:
//
//	cities.POST("/:id/regenerate",
//	    middleware.RegenerateCooldown(store, 0, log),
//	    cityCtl.Regenerate,
//	)
//
// interval 为 0 时使用默认值；存储异常时放行，只记录日志
func RegenerateCooldown(store cache.Cooldown, interval time.Duration, log *logger.Logger) gin.HandlerFunc {
	if interval <= 0 {
		interval = DefaultRegenerateCooldown
	}
	log = logger.OrNop(log)

	return func(c *gin.Context) {
		pageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || pageID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的页面 ID",
			})
			c.Abort()
			return
		}

		result, err := store.Acquire(c.Request.Context(), RegenerateKey(pageID), interval)
		if err != nil {
			log.Warn("cooldown store unavailable, request allowed", "page_id", pageID, "error", err)
			c.Next()
			return
		}
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfterSeconds(result.RetryAfter),
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

// retryAfterSeconds 向上取整，避免返回 0 秒
func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := retryAfterSeconds(d)

	if seconds < 60 {
		return fmt.Sprintf("重新生成冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("重新生成冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("重新生成冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
