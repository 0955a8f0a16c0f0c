package server

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"ssr-render-host/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Environment: "development",
		Port:        "8080",
		Site: config.SiteConfig{
			OutputName: "site",
			Root:       dir,
			Title:      "Runtime Test",
		},
		Host: config.HostConfig{MaxResponseBytes: 6 * 1024 * 1024},
		Content: config.ContentConfig{
			DatabasePath: filepath.Join(dir, "content.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 50, Burst: 100},
	}
}

func TestRuntimeManager_WarmInvocationsShareContainer(t *testing.T) {
	rm := &RuntimeManager{}
	if err := rm.Initialize(testConfig(t)); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	defer rm.Cleanup()

	first, err := rm.GetContainer(context.Background())
	if err != nil {
		t.Fatalf("GetContainer() failed: %v", err)
	}

	// Warm invocations run concurrently on one instance and only ever read
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			container, err := rm.GetContainer(context.Background())
			if err != nil {
				t.Errorf("GetContainer() failed: %v", err)
				return
			}
			if container != first {
				t.Error("warm invocation got a different container")
			}
		}()
	}
	wg.Wait()
}

func TestRuntimeManager_InitializeOnce(t *testing.T) {
	rm := &RuntimeManager{}
	cfg := testConfig(t)
	if err := rm.Initialize(cfg); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	defer rm.Cleanup()

	first, err := rm.GetContainer(context.Background())
	if err != nil {
		t.Fatalf("GetContainer() failed: %v", err)
	}

	// A second Initialize must not rebuild the container
	if err := rm.Initialize(testConfig(t)); err != nil {
		t.Fatalf("repeat Initialize() failed: %v", err)
	}
	again, err := rm.GetContainer(context.Background())
	if err != nil {
		t.Fatalf("GetContainer() failed: %v", err)
	}
	if again != first {
		t.Error("repeat Initialize replaced the container")
	}
}
