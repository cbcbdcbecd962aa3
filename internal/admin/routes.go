package admin

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jroosing/msgbox/internal/admin/handlers"
	"github.com/jroosing/msgbox/internal/admin/middleware"
	"github.com/jroosing/msgbox/internal/config"

	_ "github.com/jroosing/msgbox/internal/admin/docs"
)

// RegisterRoutes wires the introspection endpoints onto r.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	if cfg.Admin.APIKey != "" {
		v1.Use(middleware.RequireAPIKey(cfg.Admin.APIKey))
	}

	v1.GET("/health", h.Health)
	v1.GET("/stats", h.Stats)
	v1.GET("/connections", h.Connections)
}
