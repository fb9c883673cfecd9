package folio

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrasna/folio/github"
	"github.com/andrasna/folio/views"
)

const helloWorldPost = `---
title: Hello World
date: 2021-03-04
description: First post.
tags: [go, web]
---
Intro paragraph.

<!-- end -->

More text with ` + "`code`" + `.
`

const secondPost = `---
title: Second Thoughts
date: 2021-05-06
---
A later post about things.
`

const aboutPage = `---
title: About
image: /images/wide.png
image_alt: A wide picture
caption: Not me.
---
Hi, I am Andras.
`

// fakeRepos is a RepoSource returning fixed repositories or an error.
type fakeRepos struct {
	mu    sync.Mutex
	repos []github.Repository
	err   error
	calls atomic.Int32
}

func (f *fakeRepos) PinnedRepositories(ctx context.Context, login string, first int) ([]github.Repository, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if first < len(f.repos) {
		return f.repos[:first], nil
	}
	return f.repos, nil
}

func (f *fakeRepos) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

var errGitHubDown = errors.New("github is down")

func newFakeRepos() *fakeRepos {
	return &fakeRepos{repos: testRepos()}
}

// writeSite creates a site directory with two posts, an about page and a
// wide static image, and returns its root.
func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "content", "blog", "hello-world.md"), helloWorldPost)
	writeTestFile(t, filepath.Join(root, "content", "blog", "second", "index.md"), secondPost)
	writeTestFile(t, filepath.Join(root, "content", "about.md"), aboutPage)
	writeTestFile(t, filepath.Join(root, "static", "robots-extra.txt"), "extra")
	writeTestPNG(t, filepath.Join(root, "static", "images", "wide.png"), 2000, 100)
	return root
}

func testConfig(root string) SiteConfig {
	return SiteConfig{
		Title:         "Andras Nagy | Programming, Web Development",
		Description:   "Projects and Blog.",
		Author:        "Andras Nagy",
		URL:           "https://andras.example",
		ContentDir:    filepath.Join(root, "content", "blog"),
		AboutPath:     filepath.Join(root, "content", "about.md"),
		StaticDir:     filepath.Join(root, "static"),
		OutputDir:     filepath.Join(root, "public"),
		DatabasePath:  filepath.Join(root, "data", "folio.db"),
		GitHubLogin:   "andrasna",
		SessionSecret: "test-session-secret-0123456789abcdef",
		MaxImageWidth: 800,
		LogLevel:      "off",
		Links: []views.SocialLink{
			{Name: "GitHub", URL: "https://github.com/andrasna", Icon: "github"},
		},
	}
}

// newTestApp returns an App over a fresh site directory. The App is closed
// when the test ends.
func newTestApp(t *testing.T, src RepoSource, mutate ...func(*SiteConfig)) (*App, string) {
	t.Helper()
	root := writeSite(t)
	cfg := testConfig(root)
	for _, m := range mutate {
		m(&cfg)
	}
	var opts []Option
	if src != nil {
		opts = append(opts, WithRepoSource(src))
	}
	a := New(cfg, opts...)
	t.Cleanup(func() { a.Close() })
	return a, root
}

func writeTestFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
