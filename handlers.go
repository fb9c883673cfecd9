package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/andrasna/folio/colormode"
	"github.com/andrasna/folio/views"
)

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/assets", echo.MustSubFS(EmbeddedAssets, "embedded/assets"))
	e.GET(metricsPath, echo.WrapHandler(a.Metrics.Handler()))

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/", a.handleHome)
	e.GET("/about/", a.handleAbout)
	e.GET("/blog/", a.handleBlog)
	e.GET("/blog/*", a.handlePost)
	e.POST(colorModePath, a.handleColorMode)

	// User static files are served from the site root, as in the build output.
	e.Static("/", a.Config.StaticDir)
}

// state collects the per-request view state.
func (a *App) state(c echo.Context) views.State {
	return views.State{
		Path:      c.Request().URL.Path,
		Dark:      SessionColorMode(c).IsDark(),
		CSRFToken: CsrfToken(c),
	}
}

func (a *App) handleHome(c echo.Context) error {
	repos, err := a.Repos.Repos(c.Request().Context())
	if err != nil {
		// The page is still useful without the projects section.
		c.Logger().Errorf("pinned repositories: %v", err)
	}
	a.Metrics.pageRendered("home", "serve")
	return Render(c, views.Home(a.Config.site(), a.state(c), repos))
}

func (a *App) handleAbout(c echo.Context) error {
	page, err := a.loadAbout()
	if err != nil {
		return err
	}
	a.Metrics.pageRendered("about", "serve")
	return Render(c, views.About(a.Config.site(), a.state(c), page))
}

func (a *App) handleBlog(c echo.Context) error {
	posts, err := a.Posts.ListPosts()
	if err != nil {
		return err
	}
	a.Metrics.pageRendered("blog", "serve")
	return Render(c, views.Blog(a.Config.site(), a.state(c), posts))
}

// handlePost serves /blog/<slug>/. Slugs of posts in nested directories
// contain slashes, hence the wildcard route.
func (a *App) handlePost(c echo.Context) error {
	post, err := a.Posts.GetPost(strings.Trim(c.Param("*"), "/"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	a.Metrics.pageRendered("post", "serve")
	return Render(c, views.Post(a.Config.site(), a.state(c), post))
}

// handleColorMode stores the visitor's color mode in the session. The toggle
// script posts with X-Requested-With and gets 204; the no-JS form is
// redirected back to the page it came from.
func (a *App) handleColorMode(c echo.Context) error {
	if !a.limiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests")
	}

	var mode colormode.Mode
	if v := c.FormValue("mode"); v != "" {
		m, err := colormode.Parse(v)
		if err != nil {
			return c.String(http.StatusBadRequest, "Unknown color mode")
		}
		mode = m
	} else {
		current := SessionColorMode(c)
		if current == "" {
			current = colormode.Light
		}
		mode = current.Toggle()
	}

	if err := setSessionColorMode(c, mode); err != nil {
		return err
	}
	if c.Request().Header.Get(requestedWith) != "" {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, safeReturnPath(c.FormValue("return")))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Posts.ListPosts()
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Posts.ListPosts()
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return a.writeRobots(c.Response())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.Config.site(), a.state(c)))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.Config.site(), a.state(c)))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
