package server

import (
	"context"
	"sync"

	"ssr-render-host/internal/config"
)

// RuntimeManager owns the per-instance container for serverless functions.
// The container is built once at cold start and reused by every warm
// invocation on the instance; after initialization it is only ever read.
type RuntimeManager struct {
	container   *Container
	mu          sync.RWMutex
	initialized bool
	initOnce    sync.Once
	config      *config.Config
}

var (
	globalRuntimeManager *RuntimeManager
	runtimeManagerOnce   sync.Once
)

// GetRuntimeManager returns the global runtime manager instance
func GetRuntimeManager() *RuntimeManager {
	runtimeManagerOnce.Do(func() {
		globalRuntimeManager = &RuntimeManager{}
	})
	return globalRuntimeManager
}

// Initialize initializes the runtime manager with configuration
func (rm *RuntimeManager) Initialize(cfg *config.Config) error {
	var initErr error
	rm.initOnce.Do(func() {
		rm.mu.Lock()
		defer rm.mu.Unlock()

		rm.config = cfg
		container, err := NewContainer(cfg)
		if err != nil {
			initErr = err
			return
		}

		rm.container = container
		rm.initialized = true
	})

	return initErr
}

// GetContainer returns the container, initializing it if necessary
func (rm *RuntimeManager) GetContainer(ctx context.Context) (*Container, error) {
	rm.mu.RLock()
	if rm.initialized && rm.container != nil {
		container := rm.container
		rm.mu.RUnlock()
		return container, nil
	}
	rm.mu.RUnlock()

	// Need to initialize
	if rm.config == nil {
		cfg, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, err
		}
		if err := rm.Initialize(cfg); err != nil {
			return nil, err
		}
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.container, nil
}

// Cleanup performs cleanup operations
func (rm *RuntimeManager) Cleanup() error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.container != nil {
		if err := rm.container.Close(); err != nil {
			return err
		}
		rm.container = nil
	}

	rm.initialized = false
	return nil
}
