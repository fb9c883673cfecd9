package folio

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasna/folio/github"
)

func TestBuildWritesSite(t *testing.T) {
	src := newFakeRepos()
	a, root := newTestApp(t, src)
	out := filepath.Join(root, "public")

	report, err := a.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 2, report.Repos)
	assert.Equal(t, 6, report.Pages)
	assert.Equal(t, 2, report.StaticFiles)
	assert.Equal(t, 1, report.ResizedImages)
	assert.Positive(t, report.Duration)

	home := readTestFile(t, filepath.Join(out, "index.html"))
	assert.Contains(t, home, "My stuff on GitHub")
	assert.Contains(t, home, "https://github.com/andrasna/folio")
	assert.Contains(t, home, `aria-current="page">Home</a>`)
	assert.NotContains(t, home, "data-persist")

	about := readTestFile(t, filepath.Join(out, "about", "index.html"))
	assert.Contains(t, about, "Hi, I am Andras.")
	assert.Contains(t, about, `<img src="/images/wide.png" alt="A wide picture">`)

	blog := readTestFile(t, filepath.Join(out, "blog", "index.html"))
	assert.Contains(t, blog, `<a href="/blog/second/">`)
	assert.Contains(t, blog, `<a href="/blog/hello-world/">`)
	assert.Contains(t, blog, "<p>Intro paragraph.</p>")
	assert.Less(t, strings.Index(blog, "/blog/second/"), strings.Index(blog, "/blog/hello-world/"), "newest post first")

	post := readTestFile(t, filepath.Join(out, "blog", "hello-world", "index.html"))
	assert.Contains(t, post, "<h1>Hello World</h1>")
	assert.Contains(t, post, "<code>code</code>")
	assert.Contains(t, post, `<time datetime="2021-03-04">March 04, 2021</time>`)

	notFound := readTestFile(t, filepath.Join(out, "404.html"))
	assert.Contains(t, notFound, "Page not found")

	assert.Contains(t, readTestFile(t, filepath.Join(out, "feed.xml")), "<link>https://andras.example/blog/hello-world/</link>")
	assert.Contains(t, readTestFile(t, filepath.Join(out, "sitemap.xml")), "<loc>https://andras.example/about/</loc>")
	assert.Contains(t, readTestFile(t, filepath.Join(out, "robots.txt")), "Sitemap: https://andras.example/sitemap.xml")
	assert.Contains(t, readTestFile(t, filepath.Join(out, "assets", "color-mode.js")), "colorMode")
	assert.FileExists(t, filepath.Join(out, "assets", "style.css"))
	assert.FileExists(t, filepath.Join(out, "assets", "favicon.svg"))
	assert.Equal(t, "extra", readTestFile(t, filepath.Join(out, "robots-extra.txt")))

	f, err := os.Open(filepath.Join(out, "images", "wide.png"))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 40, cfg.Height)
}

func TestBuildUsesSnapshotWhenGitHubFails(t *testing.T) {
	src := newFakeRepos()
	a, root := newTestApp(t, src)

	_, err := a.Build(context.Background())
	require.NoError(t, err)

	src.fail(errGitHubDown)
	report, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Repos)
	assert.Contains(t, readTestFile(t, filepath.Join(root, "public", "index.html")), "https://github.com/andrasna/folio")

	rec := httptest.NewRecorder()
	a.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `folio_github_fetches_total{result="snapshot"} 1`)
	assert.Contains(t, rec.Body.String(), `folio_builds_total{status="success"} 2`)
}

func TestBuildFailsWithoutSnapshot(t *testing.T) {
	src := newFakeRepos()
	src.fail(errGitHubDown)
	a, _ := newTestApp(t, src)

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errGitHubDown))
}

func TestBuildWithoutLoginSkipsProjects(t *testing.T) {
	src := newFakeRepos()
	a, root := newTestApp(t, src, func(c *SiteConfig) { c.GitHubLogin = "" })

	report, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Repos)
	assert.Zero(t, src.calls.Load())
	assert.NotContains(t, readTestFile(t, filepath.Join(root, "public", "index.html")), "My stuff on GitHub")
}

func TestBuildRequiresTokenForLogin(t *testing.T) {
	a, _ := newTestApp(t, nil)

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, github.ErrNoToken))
}

func TestBuildCleansOutput(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos())
	stale := filepath.Join(root, "public", "old", "index.html")
	writeTestFile(t, stale, "stale")

	_, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestBuildRefusesToCleanContent(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos(), func(c *SiteConfig) {
		c.OutputDir = c.ContentDir + "/.."
	})

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to clean")
	assert.FileExists(t, filepath.Join(root, "content", "blog", "hello-world.md"))
}

func TestBuildFailsOnInvalidDate(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos())
	writeTestFile(t, filepath.Join(root, "content", "blog", "broken.md"), "---\ntitle: Broken\ndate: someday\n---\nBody.\n")

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.md")
}

func TestBuildRejectsCollidingSlugs(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos())
	writeTestFile(t, filepath.Join(root, "content", "blog", "Hello World.md"), "---\ntitle: Duplicate\n---\nDup body.\n")

	_, err := a.Build(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Hello World.md")
	assert.Contains(t, err.Error(), "hello-world.md")
}

func TestBuildUnicodeSlugKeepsBlogIndex(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos())
	writeTestFile(t, filepath.Join(root, "content", "blog", "日本語.md"), "---\ntitle: Konnichiwa\ndate: 2020-01-01\n---\nKonnichiwa body.\n")

	_, err := a.Build(context.Background())
	require.NoError(t, err)

	blog := readTestFile(t, filepath.Join(root, "public", "blog", "index.html"))
	assert.Contains(t, blog, `aria-current="page">Blog</a>`)
	assert.NotContains(t, blog, "Konnichiwa body.")
	assert.Contains(t, readTestFile(t, filepath.Join(root, "public", "blog", "日本語", "index.html")), "Konnichiwa body.")
}

func TestBuildNotFoundHasNoCurrentNav(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos())

	_, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, readTestFile(t, filepath.Join(root, "public", "404.html")), `aria-current="page"`)
}

func TestBuildWithoutAboutPage(t *testing.T) {
	a, root := newTestApp(t, newFakeRepos())
	require.NoError(t, os.Remove(filepath.Join(root, "content", "about.md")))

	_, err := a.Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, readTestFile(t, filepath.Join(root, "public", "about", "index.html")), "<title>About | Andras Nagy</title>")
}
