package render

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"ssr-render-host/internal/assets"
	"ssr-render-host/internal/content"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// DataLoader fetches the server-side data a page needs before its template is
// executed. Loaders receive the request context and must respect cancellation:
// when the host gives up on an invocation, in-flight loads stop promptly.
type DataLoader func(ctx context.Context, r *http.Request) (interface{}, error)

// PageView is the value every page template is executed against
type PageView struct {
	SiteTitle string
	Title     string
	Data      interface{}
	Request   *http.Request
}

// Renderer is the embedded server-rendering application: a routed set of HTML
// pages, each backed by an optional data loader. A Renderer is assembled once
// at cold start and is immutable afterwards, so it is shared by all
// invocations on the instance without locking.
type Renderer struct {
	router    *mux.Router
	templates *template.Template
	manifest  *assets.Manifest
	store     content.Store
	assets    assets.Store
	siteTitle string
	logger    *logrus.Logger
}

// Options configures a Renderer
type Options struct {
	Manifest  *assets.Manifest
	Store     content.Store
	Assets    assets.Store
	SiteTitle string
	Logger    *logrus.Logger
}

// NewRenderer builds the page pipeline with the default routes
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Manifest == nil {
		manifest, err := assets.LoadManifest(".")
		if err != nil {
			return nil, err
		}
		opts.Manifest = manifest
	}

	r := &Renderer{
		router:    mux.NewRouter(),
		manifest:  opts.Manifest,
		store:     opts.Store,
		assets:    opts.Assets,
		siteTitle: opts.SiteTitle,
		logger:    opts.Logger,
	}

	funcs := template.FuncMap{
		"asset": r.manifest.AssetURL,
		// Page bodies are trusted content authored through the content store.
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
	}

	templates, err := template.New("root").Funcs(funcs).Parse(layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout template: %w", err)
	}
	for name, body := range pageTemplates {
		if _, err := templates.New(name).Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
	}
	r.templates = templates

	r.registerRoutes()
	return r, nil
}

// registerRoutes wires the page routes to their templates and loaders
func (r *Renderer) registerRoutes() {
	r.Handle("/", "home", "Home", r.loadHomeData)
	r.Handle("/pages/{slug}", "page", "", r.loadPageData)
	r.router.NotFoundHandler = http.HandlerFunc(r.serveAssetOrNotFound)
}

// serveAssetOrNotFound backs every unrouted path with the static asset store,
// so the fingerprinted bundle links the layout emits resolve through the same
// pipeline that renders pages. Paths the store does not have get the 404 page.
func (r *Renderer) serveAssetOrNotFound(w http.ResponseWriter, req *http.Request) {
	if r.assets != nil && (req.Method == http.MethodGet || req.Method == http.MethodHead) {
		key := strings.TrimPrefix(req.URL.Path, "/")
		if exists, err := r.assets.Exists(req.Context(), key); err == nil && exists {
			r.serveAsset(w, req, key)
			return
		}
	}
	r.renderNotFound(w, req)
}

func (r *Renderer) serveAsset(w http.ResponseWriter, req *http.Request, key string) {
	data, err := r.assets.Retrieve(req.Context(), key)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Error("Asset retrieval failed")
		r.renderError(w, req, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", assets.ContentTypeFor(key))
	// Fingerprinted file names change on every rebuild, so the bytes behind a
	// given name never do.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if req.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		r.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Asset write interrupted")
	}
}

// Handle registers a page route rendering the named template, with data
// supplied by loader. A nil loader renders the template with no data.
func (r *Renderer) Handle(path, templateName, title string, loader DataLoader) {
	r.router.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		r.renderPage(w, req, templateName, title, loader)
	}).Methods(http.MethodGet, http.MethodHead)
}

// ServeHTTP implements http.Handler
func (r *Renderer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// renderPage runs the loader then executes the page template inside the
// shared layout. Loader failures surface as error pages, not panics.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, templateName, title string, loader DataLoader) {
	var data interface{}
	if loader != nil {
		loaded, err := loader(req.Context(), req)
		if err != nil {
			if content.IsNotFoundErr(err) {
				r.renderNotFound(w, req)
				return
			}
			r.logger.WithFields(logrus.Fields{
				"path":     req.URL.Path,
				"template": templateName,
				"error":    err.Error(),
			}).Error("Data loader failed")
			r.renderError(w, req, http.StatusInternalServerError)
			return
		}
		data = loaded
	}

	view := &PageView{
		SiteTitle: r.siteTitle,
		Title:     title,
		Data:      data,
		Request:   req,
	}
	if title == "" {
		if titled, ok := data.(interface{ PageTitle() string }); ok {
			view.Title = titled.PageTitle()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	r.execute(w, templateName, view)
}

func (r *Renderer) renderNotFound(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	r.execute(w, "not_found", &PageView{SiteTitle: r.siteTitle, Title: "Not Found", Request: req})
}

func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	r.execute(w, "error", &PageView{SiteTitle: r.siteTitle, Title: "Error", Request: req})
}

// execute runs a page template wrapped in the layout. Template execution
// errors after the header is written cannot be unwound; they are logged and
// the invoker converts any resulting panic into a 500.
func (r *Renderer) execute(w http.ResponseWriter, name string, view *PageView) {
	if err := r.templates.ExecuteTemplate(w, name, view); err != nil {
		r.logger.WithFields(logrus.Fields{
			"template": name,
			"error":    err.Error(),
		}).Error("Template execution failed")
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

// homeData carries the page list for the home template
type homeData struct {
	Pages []content.Page
}

func (r *Renderer) loadHomeData(ctx context.Context, req *http.Request) (interface{}, error) {
	if r.store == nil {
		return &homeData{}, nil
	}
	pages, err := r.store.ListPages(ctx, 20)
	if err != nil {
		return nil, err
	}
	return &homeData{Pages: pages}, nil
}

// pageDetail carries one content page and satisfies the PageTitle hook
type pageDetail struct {
	Page *content.Page
}

func (d *pageDetail) PageTitle() string {
	return d.Page.Title
}

func (r *Renderer) loadPageData(ctx context.Context, req *http.Request) (interface{}, error) {
	slug := mux.Vars(req)["slug"]
	if r.store == nil {
		return nil, fmt.Errorf("page %q: %w", slug, content.ErrPageNotFound)
	}
	page, err := r.store.GetPage(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &pageDetail{Page: page}, nil
}
