package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/standbot/internal/api/admin"
	"github.com/liliang-cn/standbot/internal/api/middleware"
	"github.com/liliang-cn/standbot/internal/api/widget"
	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/service"
	"github.com/liliang-cn/standbot/internal/session"
	"go.uber.org/zap"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
	Session      config.SessionConfig
}

// SetupRouter sets up the Gin router
func SetupRouter(
	adminService *service.AdminService,
	widgetService *service.WidgetService,
	sessions *session.Store,
	logger *zap.Logger,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// CORS middleware
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	// Widget API (public, per website)
	widgetHandler := widget.NewHandler(widgetService, sessions, cfg.Session)
	widgetGroup := r.Group("/api/widget")
	widgetHandler.RegisterRoutes(widgetGroup)

	// Admin API (requires API key)
	adminHandler := admin.NewHandler(adminService, logger)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.Auth(cfg.APIKey, logger))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
