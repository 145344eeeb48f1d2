package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gridcast/internal/api/handlers"
	"gridcast/internal/api/middleware"
	"gridcast/internal/config"
	"gridcast/internal/data"
	"gridcast/internal/logging"
	"gridcast/internal/pipeline"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "examples/config.yaml"
	}

	log, err := logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	pipe, err := pipeline.New(cfg, log)
	if err != nil {
		log.Fatal("failed to build pipeline", zap.Error(err))
	}
	store := data.NewRunStore(data.DefaultRunTTL)

	// Set up Gin router
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Apply middleware
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler(log))

	// Initialize handlers
	forecastHandler := handlers.NewForecastHandler(pipe, store)
	flowHandler := handlers.NewFlowHandler(pipe, store)
	siteHandler := handlers.NewSiteHandler(pipe, store)
	runHandler := handlers.NewRunHandler(store)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/forecast", forecastHandler.RunForecast)
		api.POST("/flow", flowHandler.RunFlow)
		api.POST("/site", siteHandler.RunSite)

		api.GET("/runs/:id", runHandler.GetRun)
	}

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Info("starting API server", zap.String("addr", addr), zap.String("config", cfgPath))
	if err := router.Run(addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
