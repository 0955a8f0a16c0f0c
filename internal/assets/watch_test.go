package assets

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestWatcher_ReloadSwapsSnapshot(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(manifestPath, []byte(`{"app.js": "app.v1.js"}`), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	watcher, err := NewWatcher(dir, logger)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	first := watcher.Current()
	if got := first.Resolve("app.js"); got != "app.v1.js" {
		t.Fatalf("initial Resolve() = %q", got)
	}

	var callbackEntries int
	watcher.SetOnReload(func(m *Manifest) {
		callbackEntries = m.Entries()
	})

	if err := os.WriteFile(manifestPath, []byte(`{"app.js": "app.v2.js", "app.css": "app.v2.css"}`), 0644); err != nil {
		t.Fatalf("Failed to rewrite manifest: %v", err)
	}
	watcher.reload()

	second := watcher.Current()
	if got := second.Resolve("app.js"); got != "app.v2.js" {
		t.Errorf("Resolve() after reload = %q, want app.v2.js", got)
	}
	if callbackEntries != 2 {
		t.Errorf("reload callback saw %d entries, want 2", callbackEntries)
	}

	// The first snapshot must be untouched; readers holding it see old state
	if got := first.Resolve("app.js"); got != "app.v1.js" {
		t.Errorf("old snapshot mutated: Resolve() = %q", got)
	}
}

func TestWatcher_ReloadKeepsSnapshotOnBadManifest(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(manifestPath, []byte(`{"app.js": "app.v1.js"}`), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	watcher, err := NewWatcher(dir, logger)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	if err := os.WriteFile(manifestPath, []byte(`{broken`), 0644); err != nil {
		t.Fatalf("Failed to rewrite manifest: %v", err)
	}
	watcher.reload()

	if got := watcher.Current().Resolve("app.js"); got != "app.v1.js" {
		t.Errorf("snapshot replaced despite bad manifest: %q", got)
	}
}
