package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/service"
)

// ContentController 正文预览与 AI 用量
type ContentController struct {
	pageSvc  *service.CityPageService
	usageSvc *service.AIUsageService
	content  *service.ContentService
}

func NewContentController(pageSvc *service.CityPageService, usageSvc *service.AIUsageService, content *service.ContentService) *ContentController {
	return &ContentController{pageSvc: pageSvc, usageSvc: usageSvc, content: content}
}

// Preview 预览正文
// @Summary 生成正文但不落库
// @Tags Content
// @Accept json
// @Param body body dto.PreviewContentRequest true "预览请求"
// @Success 200 {object} service.ContentResult
// @Router /api/content/preview [post]
func (ctl *ContentController) Preview(c *gin.Context) {
	var req dto.PreviewContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	success(c, http.StatusOK, ctl.pageSvc.Preview(c.Request.Context(), &req))
}

// Usage AI 用量统计
// @Summary AI 调用用量
// @Tags Content
// @Param page_id query int false "页面ID"
// @Param days query int false "统计天数，0 为全部"
// @Success 200 {object} service.AIUsageReport
// @Router /api/ai/usage [get]
func (ctl *ContentController) Usage(c *gin.Context) {
	var req dto.AIUsageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	report, err := ctl.usageSvc.Report(c.Request.Context(), &req)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{
		"ai_available": ctl.content.AIAvailable(),
		"usage":        report,
	})
}

// Health 健康检查
func (ctl *ContentController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"ai_available": ctl.content.AIAvailable(),
	})
}
