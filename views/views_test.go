package views

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
)

func testSite() Site {
	return Site{
		Title:           "Andras Nagy | Programming, Web Development",
		Description:     "Projects and Blog.",
		Author:          "Andras Nagy",
		URL:             "https://andras.example",
		Lang:            "en",
		LogoText:        "andras.",
		ProjectsHeading: "My stuff on GitHub",
		Links: []SocialLink{
			{Name: "GitHub", URL: "https://github.com/andrasna", Icon: "github"},
			{Name: "CodePen", URL: "https://codepen.io/andrasnagy", Icon: "codepen", Title: "My pens."},
		},
	}
}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestHomeRendersProjects(t *testing.T) {
	repos := []github.Repository{
		{ID: "1", Name: "folio", URL: "https://github.com/andrasna/folio", Description: "Site", Stars: 5, Forks: 0, Language: "Go", LanguageColor: "#00ADD8"},
		{ID: "2", Name: "empty", URL: "https://github.com/andrasna/empty"},
	}
	out := renderString(t, Home(testSite(), State{}, repos))

	assert.Contains(t, out, "<title>Home | Andras Nagy</title>")
	assert.Contains(t, out, "My stuff on GitHub")
	assert.Contains(t, out, `<a href="https://github.com/andrasna/folio"><h3 class="projects__name">folio</h3></a>`)
	assert.Contains(t, out, "color-Go")
	assert.Contains(t, out, `style="color: #00ADD8"`)
	assert.Equal(t, 1, strings.Count(out, "project-footer__stars"))
	assert.NotContains(t, out, "project-footer__forks")
	assert.Contains(t, out, `"@type":"WebSite"`)
	assert.Contains(t, out, `<link rel="canonical" href="https://andras.example/">`)
}

func TestHomeWithoutReposOmitsSection(t *testing.T) {
	out := renderString(t, Home(testSite(), State{}, nil))
	assert.NotContains(t, out, "My stuff on GitHub")
}

func TestNavMarksCurrentPage(t *testing.T) {
	items := Nav("/blog/")
	require.Len(t, items, 3)
	assert.False(t, items[0].Current)
	assert.False(t, items[1].Current)
	assert.True(t, items[2].Current)

	for _, item := range Nav("/blog/some-post/") {
		assert.False(t, item.Current, item.Name)
	}

	out := renderString(t, Blog(testSite(), State{}, nil))
	assert.Contains(t, out, `<a class="nav__link nav__link--current" href="/blog/" aria-current="page">Blog</a>`)
	assert.Contains(t, out, `<a class="nav__link" href="/">Home</a>`)
}

func TestSeoFallsBackToSiteDefaults(t *testing.T) {
	site := testSite()

	meta := Seo(site, "", "", "/")
	assert.Equal(t, site.Title, meta.Title)
	assert.Equal(t, site.Description, meta.Description)

	meta = Seo(site, "About", "Who I am", "/about/")
	assert.Equal(t, "About | Andras Nagy", meta.Title)
	assert.Equal(t, "Who I am", meta.Description)
	assert.Equal(t, "https://andras.example/about/", meta.URL)

	site.Author = ""
	meta = Seo(site, "Blog", "", "/blog/")
	assert.Equal(t, "Blog | "+site.Title, meta.Title)
}

func TestWrapperClass(t *testing.T) {
	assert.Equal(t, "wrapper wrapper--post", WrapperClass("post"))
	assert.Equal(t, "wrapper wrapper--normal", WrapperClass("normal"))
	assert.Equal(t, "wrapper wrapper--normal", WrapperClass("fancy"))
}

func TestBlogRendersExcerpts(t *testing.T) {
	posts := []content.Post{
		{Slug: "hello", Title: "Hello <World>", Date: time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), Excerpt: "First words."},
		{Slug: "undated", Title: "Undated"},
	}
	out := renderString(t, Blog(testSite(), State{}, posts))

	assert.Contains(t, out, `<time datetime="2021-03-04">March 04, 2021</time>`)
	assert.Contains(t, out, `<a href="/blog/hello/"><h2 class="excerpt__title">Hello &lt;World&gt;</h2></a>`)
	assert.Contains(t, out, "<p>First words.</p>")
	assert.Contains(t, out, `<a href="/blog/undated/">`)
	assert.Contains(t, out, `class="wrapper wrapper--post"`)
	assert.Contains(t, out, "<title>Blog | Andras Nagy</title>")
}

func TestBlogEmpty(t *testing.T) {
	out := renderString(t, Blog(testSite(), State{}, nil))
	assert.Contains(t, out, "No posts yet.")
}

func TestPostRendersHTMLUnescaped(t *testing.T) {
	post := content.Post{
		Slug:    "hello",
		Title:   "Hello",
		Date:    time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC),
		Tags:    []string{"go"},
		Excerpt: "Teaser",
		HTML:    template.HTML(`<p>Body <code>x</code></p>`),
	}
	out := renderString(t, Post(testSite(), State{}, post))

	assert.Contains(t, out, `<p>Body <code>x</code></p>`)
	assert.Contains(t, out, "<h1>Hello</h1>")
	assert.Contains(t, out, `<meta name="description" content="Teaser">`)
	assert.Contains(t, out, `<meta property="og:type" content="article">`)
	assert.Contains(t, out, `"@type":"BlogPosting"`)
	assert.Contains(t, out, `"datePublished":"2021-03-04"`)
}

func TestAboutRendersFigure(t *testing.T) {
	page := content.Page{
		Title:    "About",
		Image:    "/images/friend.jpeg",
		ImageAlt: "My friend",
		Caption:  "This is not me.",
		HTML:     template.HTML("<p>Hi, I am Andras.</p>"),
	}
	out := renderString(t, About(testSite(), State{}, page))

	assert.Contains(t, out, `<img src="/images/friend.jpeg" alt="My friend">`)
	assert.Contains(t, out, "<figcaption><p>This is not me.</p></figcaption>")
	assert.Contains(t, out, "<p>Hi, I am Andras.</p>")
	assert.Contains(t, out, `aria-current="page">About</a>`)
}

func TestNotFound(t *testing.T) {
	out := renderString(t, NotFound(testSite(), State{Path: "/missing/"}))
	assert.Contains(t, out, "<h1>Page not found</h1>")
	assert.Contains(t, out, "<title>404 | Andras Nagy</title>")
	assert.Contains(t, out, `<input type="hidden" name="return" value="/missing/">`)
	assert.NotContains(t, out, `rel="canonical"`)
}

func TestColorModeState(t *testing.T) {
	out := renderString(t, Home(testSite(), State{Dark: true, CSRFToken: "tok"}, nil))
	assert.Contains(t, out, `<html lang="en" class="dark-mode">`)
	assert.Contains(t, out, `id="color-mode-switch" checked>`)
	assert.Contains(t, out, `data-persist="server"`)
	assert.Contains(t, out, `<input type="hidden" name="_csrf" value="tok">`)
	assert.Contains(t, out, `localStorage.getItem(`)

	out = renderString(t, Home(testSite(), State{}, nil))
	assert.Contains(t, out, `<html lang="en">`)
	assert.NotContains(t, out, "data-persist")
	assert.NotContains(t, out, "_csrf")
}

func TestFooterLinks(t *testing.T) {
	out := renderString(t, Home(testSite(), State{}, nil))
	assert.Contains(t, out, `<a title="Link to GitHub." href="https://github.com/andrasna">`)
	assert.Contains(t, out, `<a title="My pens." href="https://codepen.io/andrasnagy">`)
	assert.Contains(t, out, "icon--github")
	assert.Contains(t, out, "icon--codepen")
}

func TestIconFallback(t *testing.T) {
	assert.Contains(t, string(Icon("unknown")), "icon--link")
	assert.Contains(t, string(Icon("GitHub")), "icon--github")
}

func TestLanguageClass(t *testing.T) {
	assert.Equal(t, "color-Go", LanguageClass("Go"))
	assert.Equal(t, "color-Cplusplus", LanguageClass("C++"))
	assert.Equal(t, "color-Csharp", LanguageClass("C#"))
	assert.Equal(t, "color-Vim-Script", LanguageClass("Vim Script"))
}

func TestLanguageDotRejectsBadColor(t *testing.T) {
	dot := string(LanguageDot(github.Repository{Language: "Go", LanguageColor: `red" onload="x`}))
	assert.NotContains(t, dot, "style=")
}
