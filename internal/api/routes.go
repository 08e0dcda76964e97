// Package api assembles the HTTP surface. Handlers stay thin; all domain
// logic lives in the core packages they delegate to.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/api/handlers"
)

// Dependencies carries everything the routes need. Optional fields may be
// nil; the health endpoint then reports them as not configured.
type Dependencies struct {
	DB       handlers.HealthChecker
	Redis    handlers.HealthChecker
	Trainer  handlers.HealthChecker
	Pipeline handlers.Pipeline
	Catalog  handlers.Catalog
	Forecast handlers.Forecaster
	Data     handlers.DataWriter
	Trend    handlers.TrendSummarizer
	Logger   *logrus.Logger
}

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Trainer)
	pipeline := handlers.NewPipelineHandler(deps.Pipeline, deps.Logger)
	catalog := handlers.NewModelsHandler(deps.Catalog)
	forecast := handlers.NewForecastHandler(deps.Forecast, deps.Logger)
	data := handlers.NewDataHandler(deps.Data, deps.Trend, deps.Logger)

	router.GET("/health", health.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		features := v1.Group("/features")
		{
			features.POST("/prepare", pipeline.Prepare)
		}

		modelRoutes := v1.Group("/models")
		{
			modelRoutes.POST("/train", pipeline.Train)
			modelRoutes.GET("", catalog.List)
			modelRoutes.GET("/:version", catalog.Get)
		}

		forecastRoutes := v1.Group("/forecast")
		{
			forecastRoutes.POST("", forecast.Forecast)
			forecastRoutes.GET("/history", forecast.History)
		}

		dataRoutes := v1.Group("/data")
		{
			dataRoutes.POST("/upload", data.Upload)
			dataRoutes.GET("/summary", data.Summary)
		}
	}
}
