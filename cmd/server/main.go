package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"ssr-render-host/internal/assets"
	"ssr-render-host/internal/config"
	"ssr-render-host/internal/middleware"
	"ssr-render-host/internal/render"
	"ssr-render-host/pkg/server"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize dependencies
	container, err := server.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Close()

	// The dev server rebuilds the renderer whenever the client build rewrites
	// the site output, so fingerprinted asset links stay current. Production
	// never watches; the cold-start snapshot is final there.
	currentRenderer := &atomic.Pointer[render.Renderer]{}
	currentRenderer.Store(container.Renderer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Environment == "development" {
		watcher, err := assets.NewWatcher(cfg.Site.Root, container.Logger)
		if err != nil {
			log.Fatalf("Failed to create asset watcher: %v", err)
		}
		watcher.SetOnReload(func(manifest *assets.Manifest) {
			renderer, err := render.NewRenderer(render.Options{
				Manifest:  manifest,
				Store:     container.Content,
				Assets:    container.Assets,
				SiteTitle: cfg.Site.Title,
				Logger:    container.Logger,
			})
			if err != nil {
				container.Logger.WithError(err).Error("Renderer rebuild failed, keeping previous")
				return
			}
			currentRenderer.Store(renderer)
		})
		go func() {
			if err := watcher.Run(ctx); err != nil && err != context.Canceled {
				container.Logger.WithError(err).Warn("Asset watcher stopped")
			}
		}()
	}

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.StructuredLogger(container.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimiter(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))

	// Health check endpoint
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"mode":      config.GetDeploymentMode(),
		})
	})

	// Pages and static assets both go through the rendering pipeline; the
	// renderer serves store-backed assets for the fingerprinted links it emits.
	router.NoRoute(func(c *gin.Context) {
		currentRenderer.Load().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		container.Logger.WithField("port", cfg.Port).Info("Dev server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.WithError(err).Error("Server shutdown failed")
		os.Exit(1)
	}
	container.Logger.Info("Server stopped")
}
