package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/marketsync/config"
	"github.com/epeers/marketsync/docs"
	"github.com/epeers/marketsync/internal/alphavantage"
	"github.com/epeers/marketsync/internal/database"
	"github.com/epeers/marketsync/internal/handlers"
	"github.com/epeers/marketsync/internal/metrics"
	"github.com/epeers/marketsync/internal/middleware"
	"github.com/epeers/marketsync/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title marketsync admin API
// @version 1.0
// @description Triggers incremental market data syncs and reads the run ledger.
// @BasePath /
// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Create context for initialization
	ctx := context.Background()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Initialize AlphaVantage client
	avClient := alphavantage.NewClient(cfg.AVKey)

	// Initialize services
	m := metrics.New(prometheus.DefaultRegisterer)
	syncSvc := services.NewSyncService(avClient, services.NewStores(db.Pool), m, cfg.GateOptions()...)

	// Cancelling baseCtx aborts syncs still running when shutdown starts.
	baseCtx, stopRuns := context.WithCancel(context.Background())
	syncSvc.SetLifetime(baseCtx)

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(syncSvc)

	// Setup Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Admin routes
	admin := router.Group("/admin", middleware.RequireAdminToken(cfg.AdminToken))
	{
		admin.POST("/sync/symbols", syncHandler.SyncSymbols)
		admin.POST("/sync/overviews", syncHandler.SyncOverviews)
		admin.POST("/sync/intraday", syncHandler.SyncIntraday)
		admin.POST("/sync/daily", syncHandler.SyncDaily)
		admin.POST("/sync/news", syncHandler.SyncNews)
		admin.POST("/sync/top-movers", syncHandler.SyncTopMovers)
		admin.GET("/runs/:run_id", syncHandler.GetRun)
	}
	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN is not set; /admin routes are open")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stopRuns()

	// Give outstanding requests 5 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	fmt.Println("Server exited")
}
