// Package folio builds a personal portfolio and blog: a home page with the
// owner's pinned GitHub repositories, an about page, and a markdown blog.
//
// The same App renders the site to static files (Build) or serves it with
// Echo (Start), sharing views, caches and configuration.
package folio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
)

// App is the central folio application. It wires together the content
// loader, the repository cache and snapshot store, the views and metrics.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Logger  *log.Logger
	Store   *Store
	Posts   *PostCache
	Repos   *RepoCache
	Metrics *Metrics

	limiter      *RateLimiter
	repoSource   RepoSource
	debounce     time.Duration
	customRoutes []func(*App)

	prepareOnce sync.Once
	prepareErr  error
	setupOnce   sync.Once
	setupErr    error
}

// New creates a new folio App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		Metrics:  NewMetrics(),
		debounce: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.Logger == nil {
		a.Logger = NewLogger(cfg.LogLevel)
	}
	a.Echo.HideBanner = true
	a.Echo.Logger = a.Logger
	return a
}

// NewLogger returns a gommon logger writing to stderr at the named level
// ("debug", "info", "warn", "error" or "off"). Unknown levels mean info.
func NewLogger(level string) *log.Logger {
	l := log.New("folio")
	l.SetOutput(os.Stderr)
	l.SetHeader("${time_rfc3339} ${level} ${prefix}")
	l.SetLevel(parseLevel(level))
	return l
}

func parseLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// prepare opens the snapshot store and creates the caches. It runs once;
// Build, Start and Watch all call it.
func (a *App) prepare() error {
	a.prepareOnce.Do(func() {
		a.prepareErr = a.doPrepare()
	})
	return a.prepareErr
}

func (a *App) doPrepare() error {
	cfg := a.Config

	if cfg.GitHubLogin != "" && a.repoSource == nil {
		client, err := github.NewClient(context.Background(), github.Config{
			Token:    cfg.GitHubToken,
			Endpoint: cfg.GitHubEndpoint,
		})
		if err != nil {
			return fmt.Errorf("folio: github login %q configured: %w", cfg.GitHubLogin, err)
		}
		a.repoSource = client
	}

	store, err := NewStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	loader := &content.Loader{
		Dir:           cfg.ContentDir,
		Separator:     cfg.ExcerptSeparator,
		ExcerptLength: cfg.ExcerptLength,
		IncludeDrafts: cfg.IncludeDrafts,
	}
	a.Posts = NewPostCache(loader, cfg.PostCacheTTL)
	a.Posts.metrics = a.Metrics

	a.Repos = NewRepoCache(a.repoSource, a.Store, cfg.GitHubLogin, cfg.PinnedCount, cfg.RepoCacheTTL)
	a.Repos.metrics = a.Metrics
	a.Repos.logger = a.Logger
	return nil
}

// Setup prepares the App for serving: it validates the serve-only
// configuration and registers middleware and routes. Start calls it.
func (a *App) Setup() error {
	a.setupOnce.Do(func() {
		a.setupErr = a.doSetup()
	})
	return a.setupErr
}

func (a *App) doSetup() error {
	if a.Config.SessionSecret == "" {
		return errors.New("folio: SessionSecret is required")
	}
	if err := a.prepare(); err != nil {
		return err
	}

	a.limiter = NewRateLimiter(20, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start sets the App up and starts the server. It blocks until the server
// stops; Shutdown makes it return nil.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Logger.Infof("serving %s on %s", a.Config.URL, a.Config.Addr)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
