package server

import (
	"fmt"

	"ssr-render-host/internal/assets"
	"ssr-render-host/internal/config"
	"ssr-render-host/internal/content"
	"ssr-render-host/internal/render"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies. It is assembled once per
// process instance (at cold start in serverless mode, at boot for the dev
// server) and is read-only afterwards: every invocation shares the same
// manifest, renderer, and content store without locking.
type Container struct {
	Config   *config.Config
	Manifest *assets.Manifest
	Assets   assets.Store
	Content  content.Store
	Renderer *render.Renderer
	Invoker  *render.Invoker
	Logger   *logrus.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger := newLogger(cfg)

	manifest, err := assets.LoadManifest(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset manifest: %w", err)
	}

	assetStore, err := assets.NewLocalStore(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset store: %w", err)
	}

	contentStore, err := openContentStore(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open content store: %w", err)
	}

	renderer, err := render.NewRenderer(render.Options{
		Manifest:  manifest,
		Store:     contentStore,
		Assets:    assetStore,
		SiteTitle: cfg.Site.Title,
		Logger:    logger,
	})
	if err != nil {
		contentStore.Close()
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}

	return &Container{
		Config:   cfg,
		Manifest: manifest,
		Assets:   assetStore,
		Content:  contentStore,
		Renderer: renderer,
		Invoker:  render.NewInvoker(renderer, logger),
		Logger:   logger,
	}, nil
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Content != nil {
		if err := c.Content.Close(); err != nil {
			return fmt.Errorf("failed to close content store: %w", err)
		}
	}
	return nil
}

// openContentStore opens the sqlite content database. A missing or unopenable
// database is not fatal for the host itself: pages degrade to the empty
// content fallback and the failure is logged for operator diagnosis.
func openContentStore(cfg *config.Config, logger *logrus.Logger) (content.Store, error) {
	db, err := content.Open(&content.ConnectionConfig{
		DatabasePath:   cfg.Content.DatabasePath,
		MigrationsPath: cfg.Content.MigrationsPath,
		MaxOpenConns:   cfg.Content.MaxOpenConns,
		MaxIdleConns:   cfg.Content.MaxIdleConns,
		Logger:         logger,
	})
	if err != nil {
		logger.WithError(err).Warn("Content database unavailable, serving without content")
		return content.NewMockStore(), nil
	}
	return content.NewSQLiteStore(db), nil
}

// newLogger builds the shared structured logger
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	if cfg.Environment == "production" || config.IsServerlessMode() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
