package api

import (
	"github.com/gin-gonic/gin"

	"go-photo-gallery/internal/api/handlers"
	"go-photo-gallery/internal/api/middleware"
	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/gallery"
	"go-photo-gallery/internal/websocket"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Gallery       *gallery.Service
	Auth          *handlers.AuthHandler
	Status        *websocket.Manager
	Admin         config.AdminConfig
	MaxUploadSize int64
}

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	folders := handlers.NewFolderHandler(deps.Gallery)
	images := handlers.NewImageHandler(deps.Gallery, deps.MaxUploadSize)
	surveys := handlers.NewSurveyHandler(deps.Gallery)
	backups := handlers.NewBackupHandler(deps.Gallery)

	v1 := router.Group("/api/v1")
	{
		// Public routes
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/login", deps.Auth.Login)

		v1.GET("/folders", folders.ListFolders)
		v1.GET("/folders/categories", folders.ListCategories)
		v1.GET("/folders/:folder", folders.GetFolder)
		v1.GET("/folders/:folder/images", images.ListImages)
		v1.GET("/folders/:folder/images/:name", images.ServeImage)
		v1.POST("/folders/:folder/surveys", surveys.SubmitSurvey)
		v1.GET("/ratings", surveys.Ratings)

		// Admin routes
		admin := v1.Group("/")
		admin.Use(middleware.AdminAuth(deps.Admin.JWTSecret))
		{
			admin.POST("/folders", folders.CreateFolder)
			admin.POST("/folders/:folder/images", images.UploadImages)
			admin.PUT("/folders/:folder/images/:name", images.SwapImage)
			admin.PATCH("/folders/:folder/images/:name/permission", images.SetPermission)
			admin.DELETE("/folders/:folder/images/:name", images.DeleteImage)

			admin.GET("/surveys", surveys.ListSurveys)
			admin.DELETE("/surveys/:id", surveys.DeleteSurvey)

			admin.GET("/backup/export", backups.Export)
			admin.POST("/backup/sync", backups.Sync)
			admin.POST("/backup/restore", backups.Restore)

			if deps.Status != nil {
				admin.GET("/ws", handlers.StatusFeed(deps.Status))
			}
		}
	}
}
