package user

import (
	"github.com/gin-gonic/gin"

	"github.com/academyhq/academy-server-go/internal/middleware"
)

// RegisterRoutes attaches profile endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	profile := router.Group("/auth/profile", middleware.RequireAuth())
	{
		profile.GET("", handler.Profile)
		profile.PATCH("", handler.UpdateProfile)
		profile.PUT("/picture", handler.UploadProfilePicture)
	}
}
