package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"citypages_202510/internal/api/dto"
	"citypages_202510/internal/service"
)

// ==================== 控制器 ====================

// CityPageController 城市页面控制器
type CityPageController struct {
	svc *service.CityPageService
}

func NewCityPageController(svc *service.CityPageService) *CityPageController {
	return &CityPageController{svc: svc}
}

// ==================== API 方法 ====================

// List 页面列表
// @Summary 城市页面列表
// @Tags City
// @Produce json
// @Param status query string false "draft / published"
// @Param state_abbr query string false "州缩写"
// @Param source query string false "ai / spinner"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} dto.CityPageListResponse
// @Router /api/cities [get]
func (ctl *CityPageController) List(c *gin.Context) {
	var req dto.ListCityPagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	result, err := ctl.svc.List(c.Request.Context(), &req)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, result)
}

// Get 页面详情
// @Summary 获取城市页面
// @Tags City
// @Param id path int true "页面ID"
// @Success 200 {object} model.CityPage
// @Router /api/cities/{id} [get]
func (ctl *CityPageController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	page, err := ctl.svc.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, page)
}

// Create 创建页面
// @Summary 创建城市页面并生成正文
// @Tags City
// @Accept json
// @Produce json
// @Param body body dto.CreateCityPageRequest true "创建请求"
// @Success 201 {object} dto.CityPageResult
// @Router /api/cities [post]
func (ctl *CityPageController) Create(c *gin.Context) {
	var req dto.CreateCityPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	result, err := ctl.svc.Create(c.Request.Context(), &req)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusCreated, result)
}

// Update 局部更新
// @Summary 更新城市页面
// @Tags City
// @Accept json
// @Param id path int true "页面ID"
// @Param body body dto.UpdateCityPageRequest true "更新内容"
// @Success 200 {object} model.CityPage
// @Router /api/cities/{id} [put]
func (ctl *CityPageController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateCityPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	page, err := ctl.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, page)
}

// Delete 删除页面
// @Summary 删除城市页面及其评价
// @Tags City
// @Param id path int true "页面ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/cities/{id} [delete]
func (ctl *CityPageController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctl.svc.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"id": id})
}

// Regenerate 重新生成正文
// @Summary 重新生成城市页面正文
// @Tags City
// @Accept json
// @Param id path int true "页面ID"
// @Param body body dto.RegenerateRequest false "use_ai 默认 true"
// @Success 200 {object} dto.CityPageResult
// @Failure 429 {object} map[string]interface{}
// @Router /api/cities/{id}/regenerate [post]
func (ctl *CityPageController) Regenerate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// 请求体可选
	var req dto.RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	result, err := ctl.svc.Regenerate(c.Request.Context(), id, dto.BoolOr(req.UseAI, true))
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, result)
}

// GenerateReviews 生成评价
// @Summary AI 生成并替换页面评价
// @Tags City
// @Accept json
// @Param id path int true "页面ID"
// @Param body body dto.GenerateReviewsRequest false "count 默认 5"
// @Success 201 {array} model.CityReview
// @Failure 503 {object} map[string]interface{}
// @Router /api/cities/{id}/reviews [post]
func (ctl *CityPageController) GenerateReviews(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.GenerateReviewsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	reviews, err := ctl.svc.GenerateReviews(c.Request.Context(), id, req.Count)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusCreated, reviews)
}

// ListReviews 评价列表
// @Summary 获取页面评价
// @Tags City
// @Param id path int true "页面ID"
// @Success 200 {array} model.CityReview
// @Router /api/cities/{id}/reviews [get]
func (ctl *CityPageController) ListReviews(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	reviews, err := ctl.svc.ListReviews(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}
	success(c, http.StatusOK, reviews)
}
