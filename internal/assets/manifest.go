package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ManifestFileName is the conventional name of the build manifest inside the
// site output directory.
const ManifestFileName = "manifest.json"

// Manifest maps logical asset entry names (e.g. "app.js", "app.css") to the
// fingerprinted file names emitted by the client build. A Manifest is built
// once per process instance at cold start and never mutated afterwards, so it
// is safe to share across concurrent invocations without locking.
type Manifest struct {
	entries  map[string]string
	loadedAt time.Time
	siteRoot string
}

// LoadManifest reads the manifest from the given site output directory.
// A missing manifest is not fatal for development workflows: when the file is
// absent an empty manifest is returned and asset lookups fall through to the
// logical name.
func LoadManifest(siteRoot string) (*Manifest, error) {
	path := filepath.Join(siteRoot, ManifestFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Manifest{
				entries:  map[string]string{},
				loadedAt: time.Now(),
				siteRoot: siteRoot,
			}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrManifestNotFound, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestInvalid, err)
	}

	return &Manifest{
		entries:  entries,
		loadedAt: time.Now(),
		siteRoot: siteRoot,
	}, nil
}

// Resolve returns the fingerprinted path for a logical entry name. Unknown
// names resolve to themselves so templates keep working against unbuilt or
// hand-placed assets.
func (m *Manifest) Resolve(name string) string {
	if hashed, ok := m.entries[name]; ok {
		return hashed
	}
	return name
}

// AssetURL returns the public URL path for a logical entry name.
func (m *Manifest) AssetURL(name string) string {
	return "/" + strings.TrimPrefix(m.Resolve(name), "/")
}

// Entries returns the number of manifest entries.
func (m *Manifest) Entries() int {
	return len(m.entries)
}

// LoadedAt returns when this snapshot was built.
func (m *Manifest) LoadedAt() time.Time {
	return m.loadedAt
}

// SiteRoot returns the site output directory this manifest was loaded from.
func (m *Manifest) SiteRoot() string {
	return m.siteRoot
}
