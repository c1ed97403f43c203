package router

import (
	"github.com/gin-gonic/gin"

	"citypages_202510/internal/controller"
)

// InitRoutes 注册所有路由
// regenerateLimit 为重新生成接口的冷却中间件，可为 nil
func InitRoutes(r *gin.Engine,
	cityCtl *controller.CityPageController,
	contentCtl *controller.ContentController,
	regenerateLimit gin.HandlerFunc) {
	// 1. 健康检查
	r.GET("/healthz", contentCtl.Health)

	// 2. API 路由组
	api := r.Group("/api")
	{
		// cities 城市页面
		cities := api.Group("/cities")
		{
			cities.GET("", cityCtl.List)
			cities.POST("", cityCtl.Create)
			cities.GET("/:id", cityCtl.Get)
			cities.PUT("/:id", cityCtl.Update)
			cities.DELETE("/:id", cityCtl.Delete)

			// POST /api/cities/:id/regenerate 按页面冷却
			regenerate := []gin.HandlerFunc{cityCtl.Regenerate}
			if regenerateLimit != nil {
				regenerate = append([]gin.HandlerFunc{regenerateLimit}, regenerate...)
			}
			cities.POST("/:id/regenerate", regenerate...)

			cities.GET("/:id/reviews", cityCtl.ListReviews)
			cities.POST("/:id/reviews", cityCtl.GenerateReviews)
		}
		// content 正文预览
		api.POST("/content/preview", contentCtl.Preview)
		// ai 用量
		api.GET("/ai/usage", contentCtl.Usage)
	}
}
