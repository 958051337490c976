package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/dasper/backend/internal/assess"
	"github.com/dasper/backend/internal/config"
	"github.com/dasper/backend/internal/geocode"
	"github.com/dasper/backend/internal/http/handlers"
	"github.com/dasper/backend/internal/http/middleware"
	"github.com/dasper/backend/internal/manager"
	"github.com/dasper/backend/internal/regional"

	_ "github.com/dasper/backend/docs"
)

func Router(cfg config.Config, models *manager.Manager, regions regional.Store, logger zerolog.Logger) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Models:   models,
		Pipeline: &assess.Pipeline{Models: models, Regions: regions, Geocoder: &geocode.NominatimGeocoder{}, Logger: logger},
		Regions:  regions,
		Logger:   logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/assess", h.Assess)
		api.GET("/model/status", h.ModelStatus)
		api.GET("/regional-costs", h.RegionalCosts)
		api.GET("/regional-costs/:city", h.RegionalCostByCity)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/model/preload", h.ModelPreload)
		admin.POST("/model/unload", h.ModelUnload)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
