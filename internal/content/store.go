package content

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Page is a content record rendered by the server-side page templates
type Page struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	BodyHTML  string    `json:"body_html"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store provides read access to page content for server-side data loaders.
// Implementations must be safe for concurrent use.
type Store interface {
	// GetPage returns the page with the given slug
	GetPage(ctx context.Context, slug string) (*Page, error)

	// ListPages returns all pages ordered by most recently updated
	ListPages(ctx context.Context, limit int) ([]Page, error)

	// Close releases the underlying resources
	Close() error
}

// SQLiteStore implements Store over the content database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a Store over an open content database handle
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetPage implements Store.GetPage
func (s *SQLiteStore) GetPage(ctx context.Context, slug string) (*Page, error) {
	const query = `
		SELECT slug, title, summary, body_html, updated_at
		FROM pages
		WHERE slug = ?`

	var page Page
	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&page.Slug, &page.Title, &page.Summary, &page.BodyHTML, &page.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load page %q: %w", slug, err)
	}
	return &page, nil
}

// ListPages implements Store.ListPages
func (s *SQLiteStore) ListPages(ctx context.Context, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT slug, title, summary, body_html, updated_at
		FROM pages
		ORDER BY updated_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.Slug, &page.Title, &page.Summary, &page.BodyHTML, &page.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// Close implements Store.Close
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MockStore implements Store in memory for testing
type MockStore struct {
	mu    sync.RWMutex
	pages map[string]Page
}

// NewMockStore creates an empty in-memory Store
func NewMockStore() *MockStore {
	return &MockStore{pages: make(map[string]Page)}
}

// PutPage stores a page for later retrieval
func (m *MockStore) PutPage(page Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page.Slug] = page
}

// GetPage implements Store.GetPage
func (m *MockStore) GetPage(ctx context.Context, slug string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page, ok := m.pages[slug]
	if !ok {
		return nil, fmt.Errorf("page %q: %w", slug, ErrPageNotFound)
	}
	return &page, nil
}

// ListPages implements Store.ListPages
func (m *MockStore) ListPages(ctx context.Context, limit int) ([]Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pages := make([]Page, 0, len(m.pages))
	for _, page := range m.pages {
		pages = append(pages, page)
	}
	if limit > 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

// Close implements Store.Close
func (m *MockStore) Close() error {
	return nil
}
