package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"citypages_202510/internal/service"
)

// ==================== 统一响应 ====================

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// failWithError 服务层错误映射为 HTTP 状态码
func failWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var providerErr *service.ProviderError
	switch {
	case errors.Is(err, service.ErrMissingFields):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPageNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPageExists):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAIUnavailable):
		fail(c, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &providerErr):
		fail(c, http.StatusBadGateway, "AI 生成失败: "+err.Error())
	default:
		fail(c, http.StatusInternalServerError, "服务器内部错误: "+err.Error())
	}
}

// parseID 解析路径参数 :id
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "无效的页面 ID")
		return 0, false
	}
	return id, true
}
