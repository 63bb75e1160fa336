package api

import (
	"time"

	"github.com/SlpAus/caption-this-backend/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter 按配置构建Gin引擎：运行模式、CORS和全部业务路由。
func NewRouter(cfg config.ServerConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.Default()

	// 身份走Cookie，跨域请求必须允许携带凭据
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	SetupRoutes(router)
	return router
}
