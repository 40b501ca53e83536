package lesson

import (
	"github.com/gin-gonic/gin"

	"github.com/academyhq/academy-server-go/internal/middleware"
)

// RegisterRoutes attaches lesson endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	lessons := router.Group("/lessons")
	{
		lessons.GET("", middleware.OptionalAuth(), handler.List)
		lessons.GET("/:lessonId", middleware.OptionalAuth(), handler.GetByID)

		lessons.POST("", middleware.RequireAuth(), handler.Create)
		lessons.PATCH("/:lessonId", middleware.RequireAuth(), handler.Update)
		lessons.DELETE("/:lessonId", middleware.RequireAuth(), handler.Delete)
		lessons.PUT("/:lessonId/document", middleware.RequireAuth(), handler.UploadDocument)
	}
}
