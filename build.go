package folio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"

	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
	"github.com/andrasna/folio/views"
)

// BuildReport summarizes a static build.
type BuildReport struct {
	OutputDir     string
	Pages         int
	Posts         int
	Repos         int
	StaticFiles   int
	ResizedImages int
	Duration      time.Duration
}

// Build renders the whole site into Config.OutputDir. The output directory
// is emptied first. A failed GitHub fetch without a saved snapshot fails the
// build.
func (a *App) Build(ctx context.Context) (report BuildReport, err error) {
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		status := "success"
		if err != nil {
			status = "error"
		}
		a.Metrics.buildsTotal.WithLabelValues(status).Inc()
		a.Metrics.buildDuration.Observe(report.Duration.Seconds())
	}()

	if err := a.prepare(); err != nil {
		return report, err
	}
	out := a.Config.OutputDir
	report.OutputDir = out
	if err := a.cleanOutput(); err != nil {
		return report, err
	}

	var (
		posts []content.Post
		repos []github.Repository
		about content.Page
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Posts.Invalidate()
		var err error
		posts, err = a.Posts.ListPosts()
		return err
	})
	g.Go(func() error {
		var err error
		repos, err = a.Repos.Fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		about, err = a.loadAbout()
		return err
	})
	if err := g.Wait(); err != nil {
		return report, err
	}
	report.Posts = len(posts)
	report.Repos = len(repos)

	site := a.Config.site()
	pages := []struct {
		name string
		path string
		cmp  templ.Component
	}{
		{"home", "index.html", views.Home(site, views.State{}, repos)},
		{"about", filepath.Join("about", "index.html"), views.About(site, views.State{}, about)},
		{"blog", filepath.Join("blog", "index.html"), views.Blog(site, views.State{}, posts)},
		{"notfound", "404.html", views.NotFound(site, views.State{})},
	}
	for _, p := range pages {
		if err := RenderFile(ctx, filepath.Join(out, p.path), p.cmp); err != nil {
			return report, fmt.Errorf("folio: render %s: %w", p.name, err)
		}
		a.Metrics.pageRendered(p.name, "build")
		report.Pages++
	}

	pg, pctx := errgroup.WithContext(ctx)
	pg.SetLimit(runtime.NumCPU())
	for _, post := range posts {
		pg.Go(func() error {
			target := filepath.Join(out, "blog", filepath.FromSlash(post.Slug), "index.html")
			if err := RenderFile(pctx, target, views.Post(site, views.State{}, post)); err != nil {
				return fmt.Errorf("folio: render post %s: %w", post.Slug, err)
			}
			a.Metrics.pageRendered("post", "build")
			return nil
		})
	}
	if err := pg.Wait(); err != nil {
		return report, err
	}
	report.Pages += len(posts)

	if err := a.writeFeeds(out, posts); err != nil {
		return report, err
	}
	if err := writeAssets(filepath.Join(out, "assets")); err != nil {
		return report, fmt.Errorf("folio: write assets: %w", err)
	}
	res, err := copyStatic(a.Config.StaticDir, out, a.Config.MaxImageWidth)
	if err != nil {
		return report, fmt.Errorf("folio: copy static: %w", err)
	}
	report.StaticFiles = res.Copied
	report.ResizedImages = res.Resized

	a.Logger.Infof("built %d pages (%d posts, %d repos) into %s in %s",
		report.Pages, report.Posts, report.Repos, out, time.Since(start).Round(time.Millisecond))
	return report, nil
}

// cleanOutput empties the output directory. It refuses to remove the
// working directory or a directory holding the content or static files.
func (a *App) cleanOutput() error {
	out, err := filepath.Abs(a.Config.OutputDir)
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	for _, keep := range []string{wd, a.Config.ContentDir, a.Config.StaticDir} {
		k, err := filepath.Abs(keep)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(out, k); err == nil && !startsWithDotDot(rel) {
			return fmt.Errorf("folio: output dir %q contains %q, refusing to clean it", a.Config.OutputDir, keep)
		}
	}
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("folio: clean output: %w", err)
	}
	return os.MkdirAll(out, 0o755)
}

func startsWithDotDot(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}

// loadAbout loads the about page. A missing file yields an empty page.
func (a *App) loadAbout() (content.Page, error) {
	page, err := content.LoadPage(a.Config.AboutPath)
	if errors.Is(err, fs.ErrNotExist) {
		a.Logger.Debugf("no about page at %s", a.Config.AboutPath)
		return content.Page{Title: "About"}, nil
	}
	return page, err
}

func (a *App) writeFeeds(out string, posts []content.Post) error {
	if err := writeFile(filepath.Join(out, "feed.xml"), func(w *bufio.Writer) error {
		return a.writeRSS(w, posts)
	}); err != nil {
		return fmt.Errorf("folio: write feed: %w", err)
	}
	if err := writeFile(filepath.Join(out, "sitemap.xml"), func(w *bufio.Writer) error {
		return a.writeSitemap(w, posts)
	}); err != nil {
		return fmt.Errorf("folio: write sitemap: %w", err)
	}
	if err := writeFile(filepath.Join(out, "robots.txt"), func(w *bufio.Writer) error {
		return a.writeRobots(w)
	}); err != nil {
		return fmt.Errorf("folio: write robots: %w", err)
	}
	return nil
}

// writeAssets copies the embedded assets into dir.
func writeAssets(dir string) error {
	assets, err := fs.Sub(EmbeddedAssets, "embedded/assets")
	if err != nil {
		return err
	}
	return fs.WalkDir(assets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(assets, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
