package enrollment

import (
	"github.com/gin-gonic/gin"

	"github.com/academyhq/academy-server-go/internal/middleware"
)

// RegisterRoutes attaches enrollment endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	router.POST("/courses/:courseId/enroll", middleware.RequireAuth(), handler.Enroll)
	router.GET("/courses/:courseId/enrollments", middleware.RequireAuth(), handler.ListForCourse)

	enrollments := router.Group("/enrollments", middleware.RequireAuth())
	{
		enrollments.GET("", handler.ListOwn)
		enrollments.PATCH("/:enrollmentId/progress", handler.UpdateProgress)
	}
}
