package folio

import (
	"time"

	"github.com/labstack/gommon/log"

	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
	"github.com/andrasna/folio/views"
)

// SiteConfig holds all configuration for a folio site. Field tags match the
// keys of folio.yaml and the FOLIO_* environment variables.
type SiteConfig struct {
	Title       string `mapstructure:"title"`       // Default <title> (default "Portfolio")
	Description string `mapstructure:"description"` // Default meta description, also used by RSS
	Author      string `mapstructure:"author"`      // Author name for titles and JSON-LD
	URL         string `mapstructure:"url"`         // Canonical URL (default "http://localhost:3000")
	Lang        string `mapstructure:"lang"`        // <html lang> (default "en")
	LogoText    string `mapstructure:"logo_text"`   // Text of the home link (default "andras.")

	ContentDir string `mapstructure:"content_dir"` // Markdown posts (default "content/blog")
	AboutPath  string `mapstructure:"about_path"`  // About page markdown (default "content/about.md")
	StaticDir  string `mapstructure:"static_dir"`  // User static files (default "static")
	OutputDir  string `mapstructure:"output_dir"`  // Build output (default "public")

	ExcerptLength    int    `mapstructure:"excerpt_length"`    // default 260
	ExcerptSeparator string `mapstructure:"excerpt_separator"` // default "<!-- end -->"
	IncludeDrafts    bool   `mapstructure:"include_drafts"`
	MaxImageWidth    int    `mapstructure:"max_image_width"` // Wider static images are downscaled (default 1600)

	GitHubLogin     string `mapstructure:"github_login"`     // Empty disables the projects section
	GitHubToken     string `mapstructure:"github_token"`     // Required when GitHubLogin is set
	GitHubEndpoint  string `mapstructure:"github_endpoint"`  // GraphQL endpoint (default api.github.com)
	PinnedCount     int    `mapstructure:"pinned_count"`     // default 6
	ProjectsHeading string `mapstructure:"projects_heading"` // default "My stuff on GitHub"

	Addr          string `mapstructure:"addr"`           // Listen address (default ":3000")
	DatabasePath  string `mapstructure:"database_path"`  // SQLite path (default "data/folio.db")
	SessionSecret string `mapstructure:"session_secret"` // Required by serve
	CookieSecure  bool   `mapstructure:"cookie_secure"`  // Set true for HTTPS

	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error or off (default info)

	PostCacheTTL time.Duration `mapstructure:"post_cache_ttl"` // default 5min
	RepoCacheTTL time.Duration `mapstructure:"repo_cache_ttl"` // default 1h

	Links []views.SocialLink `mapstructure:"links"`
}

func (c *SiteConfig) setDefaults() {
	if c.Title == "" {
		c.Title = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.LogoText == "" {
		c.LogoText = "andras."
	}
	if c.ContentDir == "" {
		c.ContentDir = "content/blog"
	}
	if c.AboutPath == "" {
		c.AboutPath = "content/about.md"
	}
	if c.StaticDir == "" {
		c.StaticDir = "static"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.ExcerptLength == 0 {
		c.ExcerptLength = content.DefaultExcerptLength
	}
	if c.ExcerptSeparator == "" {
		c.ExcerptSeparator = content.DefaultSeparator
	}
	if c.MaxImageWidth == 0 {
		c.MaxImageWidth = 1600
	}
	if c.GitHubEndpoint == "" {
		c.GitHubEndpoint = github.DefaultEndpoint
	}
	if c.PinnedCount == 0 {
		c.PinnedCount = github.DefaultPinnedCount
	}
	if c.ProjectsHeading == "" {
		c.ProjectsHeading = "My stuff on GitHub"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.RepoCacheTTL == 0 {
		c.RepoCacheTTL = time.Hour
	}
}

// site returns the subset of the configuration the views need.
func (c *SiteConfig) site() views.Site {
	return views.Site{
		Title:           c.Title,
		Description:     c.Description,
		Author:          c.Author,
		URL:             c.URL,
		Lang:            c.Lang,
		LogoText:        c.LogoText,
		ProjectsHeading: c.ProjectsHeading,
		Links:           c.Links,
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger replaces the default logger. The same logger is used by Echo.
func WithLogger(l *log.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithRepoSource replaces the GitHub client, e.g. with a fixture in tests.
func WithRepoSource(src RepoSource) Option {
	return func(a *App) {
		a.repoSource = src
	}
}

// WithWatchDebounce sets how long Watch waits for further changes before
// invalidating the post cache (default 500ms).
func WithWatchDebounce(d time.Duration) Option {
	return func(a *App) {
		a.debounce = d
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
