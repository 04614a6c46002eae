// Package main is the entry point for the Argus dashboard server.
// It initializes the database, the daemon connection factory, and the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"argus/core/repository"
	"argus/core/service"
	"argus/database"
	"argus/handler"
	"argus/utils/config"
	"argus/utils/docker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Argus Docker Dashboard...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	log.Println("Database initialized successfully")

	// Prune old probe logs
	probeLogRepo := repository.NewProbeLogRepository(database.GetDB())
	if pruned, err := probeLogRepo.DeleteOlderThan(cfg.ProbeLog.RetentionDays); err != nil {
		log.Printf("Failed to prune probe logs: %v", err)
	} else if pruned > 0 {
		log.Printf("Pruned %d probe logs older than %d days", pruned, cfg.ProbeLog.RetentionDays)
	}

	// Daemon connections are opened per request, never pooled.
	dockerHost := cfg.Docker.Host
	connect := func(ctx context.Context) (docker.API, error) {
		return docker.Connect(ctx, dockerHost)
	}

	// Startup probe. Unreachable is not fatal: the dashboard serves a
	// connection-error state until the daemon comes back.
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if api, err := connect(probeCtx); err != nil {
		log.Printf("Docker daemon not reachable at startup: %v", err)
	} else {
		api.Close()
		log.Println("Docker daemon reachable")
	}
	probeCancel()

	// Create service and handler
	snapshotService := service.NewSnapshotService(connect, probeLogRepo, service.CollectOptions{
		CPUSampleInterval: cfg.Dashboard.CPUSampleInterval,
		LogTail:           cfg.Dashboard.LogTail,
	})
	dashboardHandler := handler.NewDashboardHandler(snapshotService, cfg.Dashboard.RefreshInterval)

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
		log.Println("Running in RELEASE mode")
	} else {
		gin.SetMode(gin.DebugMode)
		log.Println("Running in DEBUG mode")
	}

	// Create Gin engine
	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Server.Mode != "release" {
		engine.Use(gin.Logger())
	}

	// Add CORS middleware
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Read-only dashboard routes
	argus := engine.Group("/argus")
	{
		argus.GET("/health", dashboardHandler.GetHealth)
		argus.GET("/health/history", dashboardHandler.GetHealthHistory)
		argus.GET("/snapshot", dashboardHandler.GetSnapshot)
		argus.GET("/ws/snapshot", dashboardHandler.StreamSnapshots)
	}

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Argus server listening on %s", addr)
		log.Println("API available at: /argus")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}
