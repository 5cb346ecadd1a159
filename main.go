package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jency96/Form-Management/config"
	"github.com/Jency96/Form-Management/handler"
	"github.com/Jency96/Form-Management/middleware"
	"github.com/Jency96/Form-Management/pkg/logger"
	"github.com/Jency96/Form-Management/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize stores
	drawingStore, err := service.NewDrawingStore(filepath.Join(cfg.Storage.DataDir, cfg.Storage.DrawingsFile))
	if err != nil {
		slog.Error("failed to initialize drawing store", "error", err)
		os.Exit(1)
	}
	photoStore := service.NewPhotoStore()

	// Optional archive bucket for finished documents
	var archiveSvc *service.ArchiveService
	if cfg.Minio.Enabled {
		archiveSvc, err = service.NewArchiveService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize archive service", "error", err)
			os.Exit(1)
		}
		if err := archiveSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure archive bucket", "error", err)
			os.Exit(1)
		}
	}

	geocodeSvc := service.NewGeocodeService(&cfg.Geocode)
	fixTracker := service.NewFixTracker(&cfg.Fix)
	builder := service.NewDocumentBuilder(photoStore)
	pdfSvc := service.NewPDFService(service.A4Geometry())

	// Offline asset gateway
	gateway, err := service.NewGateway(&cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize asset gateway", "error", err)
		os.Exit(1)
	}
	installCtx, cancelInstall := context.WithCancel(context.Background())
	defer cancelInstall()
	go func() {
		if err := gateway.Install(installCtx); err != nil {
			slog.Error("asset precache failed", "error", err)
		}
	}()

	// Initialize handlers
	documentHandler := handler.NewDocumentHandler(builder, pdfSvc, photoStore, archiveSvc)
	drawingHandler := handler.NewDrawingHandler(drawingStore)
	photoHandler := handler.NewPhotoHandler(photoStore)
	locationHandler := handler.NewLocationHandler(geocodeSvc, fixTracker, cfg.Server.AllowedOrigins)
	cacheHandler := handler.NewCacheHandler(gateway)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware(cfg))                    // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/documents/preview", documentHandler.Preview)
		api.POST("/documents/generate", documentHandler.Generate)

		api.GET("/drawings", drawingHandler.List)
		api.POST("/drawings", drawingHandler.Save)
		api.GET("/drawings/:id", drawingHandler.Get)
		api.DELETE("/drawings/:id", drawingHandler.Delete)
		api.DELETE("/drawings", drawingHandler.Clear)

		api.POST("/photos/capture", photoHandler.Capture)
		api.POST("/photos/attach", photoHandler.Attach)
		api.GET("/photos/latest", photoHandler.Latest)
		api.DELETE("/photos", photoHandler.ClearSession)

		api.GET("/location/search", locationHandler.Search)
		api.GET("/location/reverse", locationHandler.Reverse)
		api.POST("/location/fix", locationHandler.StartFix)
		api.POST("/location/fix/:id/sample", locationHandler.OfferSample)
		api.GET("/location/fix/:id", locationHandler.GetFix)
		api.DELETE("/location/fix/:id", locationHandler.CancelFix)

		api.GET("/cache/status", cacheHandler.Status)
		api.POST("/cache/message", cacheHandler.Message)
	}

	// Everything else goes through the offline gateway
	router.NoRoute(func(c *gin.Context) {
		gateway.ServeHTTP(c.Writer, c.Request)
	})

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	cancelInstall()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := strings.Join(cfg.Server.AllowedOrigins, ", ")
	if allowed == "" {
		allowed = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Page-Count, X-Cache")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
