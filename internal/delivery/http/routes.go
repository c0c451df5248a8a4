package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/config"
)

// maxUploadBytes bounds multipart chart uploads held in memory
const maxUploadBytes = 8 << 20

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = maxUploadBytes

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		charts := v1.Group("/charts")
		{
			charts.POST("/normalize", handler.NormalizeChart)
			charts.POST("/import", handler.ImportChart)
		}

		v1.POST("/recommendations", handler.Recommend)
	}

	return router
}
