package assets

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads the asset manifest when the client build rewrites the site
// output directory. It is a development-server facility only; in the
// serverless runtime the manifest is loaded once at cold start and never
// watched. Readers obtain snapshots through Current, which never blocks.
type Watcher struct {
	siteRoot string
	current  atomic.Pointer[Manifest]
	logger   *logrus.Logger
	onReload func(*Manifest)
}

// SetOnReload registers a callback invoked with each fresh snapshot.
// Must be called before Run.
func (w *Watcher) SetOnReload(fn func(*Manifest)) {
	w.onReload = fn
}

// NewWatcher loads the initial manifest snapshot for siteRoot
func NewWatcher(siteRoot string, logger *logrus.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logrus.New()
	}

	manifest, err := LoadManifest(siteRoot)
	if err != nil {
		return nil, err
	}

	w := &Watcher{siteRoot: siteRoot, logger: logger}
	w.current.Store(manifest)
	return w, nil
}

// Current returns the latest manifest snapshot. The returned value is
// immutable; a rebuild produces a new snapshot rather than mutating this one.
func (w *Watcher) Current() *Manifest {
	return w.current.Load()
}

// Run watches the site directory until ctx is cancelled, swapping in a fresh
// manifest snapshot after each build write settles.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.siteRoot); err != nil {
		return err
	}

	// Builds touch many files in quick succession; debounce so the manifest
	// is re-read once per build, not once per file.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(200 * time.Millisecond)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Asset watcher error")
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	manifest, err := LoadManifest(w.siteRoot)
	if err != nil {
		w.logger.WithFields(logrus.Fields{
			"site_root": w.siteRoot,
			"error":     err.Error(),
		}).Warn("Manifest reload failed, keeping previous snapshot")
		return
	}

	w.current.Store(manifest)
	w.logger.WithFields(logrus.Fields{
		"site_root": w.siteRoot,
		"entries":   manifest.Entries(),
	}).Info("Asset manifest reloaded")

	if w.onReload != nil {
		w.onReload(manifest)
	}
}
