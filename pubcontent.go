// Package pubcontent serves a blog's content collection over HTTP: paged
// listings, single-document lookups, a sitemap and an RSS feed.
//
// Queries go through query.Composer and feeds through feed.Assembler; the
// App wires them to a content store, Echo routes, zap logging, Prometheus
// metrics and a response cache.
package pubcontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/content"
	"github.com/eringen/pubcontent/feed"
	"github.com/eringen/pubcontent/metrics"
	"github.com/eringen/pubcontent/query"
)

// App is the central pubcontent application. It wires together the store,
// composer, feed assembler, cache, handlers and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Composer *query.Composer
	Feed     *feed.Assembler
	Cache    *ResponseCache

	store        content.Store
	closer       io.Closer
	logger       *zap.Logger
	customRoutes []func(*App)
	ready        bool
}

// New creates a new pubcontent App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		logger: zap.NewNop(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// Init opens the store and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("pubcontent: invalid config: %w", err)
	}

	backend := "custom"
	if a.store == nil {
		store, closer, err := OpenStore(a.Config, a.logger)
		if err != nil {
			return fmt.Errorf("pubcontent: init store: %w", err)
		}
		a.store = store
		a.closer = closer
		backend = a.Config.Backend
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("pubcontent: register metrics: %w", err)
	}

	a.Composer = query.New(metrics.InstrumentStore(a.store, backend), query.WithLogger(a.logger))
	a.Feed = feed.NewAssembler(
		feed.WithSections(a.Config.FeedSections...),
		feed.WithLogger(a.logger),
	)
	a.Cache = NewResponseCache(a.Config.CacheSize, a.Config.CacheTTL)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.logger.Info("starting pubcontent",
		zap.String("addr", a.Config.Addr),
		zap.String("backend", a.Config.Backend),
		zap.String("site", a.Config.URL),
	)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET(a.Config.FeedPath, a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)

	api := e.Group("/api")
	api.GET("/list/:section", a.handleList)
	api.GET("/doc/*", a.handleDoc)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
