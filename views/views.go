// Package views renders the site's pages. Templates are embedded
// html/template files exposed as templ components, so handlers and the
// static builder render them the same way.
package views

import (
	"embed"
	"html/template"
	"strings"

	"github.com/a-h/templ"

	"github.com/andrasna/folio/colormode"
	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
)

//go:embed templates
var templateFS embed.FS

// Site holds site-wide settings every page needs.
type Site struct {
	Title           string // default <title>, used when a page has none
	Description     string // default meta description
	Author          string
	URL             string // canonical base URL
	Lang            string
	LogoText        string
	ProjectsHeading string
	Links           []SocialLink
}

// SocialLink is a profile link rendered in the footer.
type SocialLink struct {
	Name  string `mapstructure:"name"`
	URL   string `mapstructure:"url"`
	Icon  string `mapstructure:"icon"`
	Title string `mapstructure:"title"`
}

// Label returns the link's title attribute.
func (l SocialLink) Label() string {
	if l.Title != "" {
		return l.Title
	}
	return "Link to " + l.Name + "."
}

// State is per-request rendering state. The static build leaves CSRFToken
// empty and Dark false; the server fills them from the session.
type State struct {
	Path      string
	Dark      bool
	CSRFToken string
}

// PageMeta carries per-page SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      template.JS
}

// NavItem is one entry of the main navigation.
type NavItem struct {
	Name    string
	Link    string
	Current bool
}

var navLinks = []NavItem{
	{Name: "Home", Link: "/"},
	{Name: "About", Link: "/about/"},
	{Name: "Blog", Link: "/blog/"},
}

type pageData struct {
	Site  Site
	State State
	Meta  PageMeta
	Nav   []NavItem
	Repos []github.Repository
	Posts []content.Post
	Post  content.Post
	About content.Page
}

var funcs = template.FuncMap{
	"wrapper":     WrapperClass,
	"icon":        Icon,
	"languageDot": LanguageDot,
	"headScript":  func() template.JS { return template.JS(colormode.HeadScript()) },
	"darkClass":   func() string { return colormode.DarkClass },
}

var pages = mustParsePages("home", "about", "blog", "post", "notfound", "error")

func mustParsePages(names ...string) map[string]*template.Template {
	base := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS,
		"templates/base.html",
		"templates/partials/*.html",
	))
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name+".html"))
		out[name] = t.Lookup("base")
	}
	return out
}

func render(name string, data pageData) templ.Component {
	if data.Site.Lang == "" {
		data.Site.Lang = "en"
	}
	data.Nav = Nav(data.State.Path)
	return templ.FromGoHTML(pages[name], data)
}

// Nav returns the navigation with the entry matching path marked current.
func Nav(path string) []NavItem {
	items := make([]NavItem, len(navLinks))
	for i, item := range navLinks {
		item.Current = item.Link == path
		items[i] = item
	}
	return items
}

// Seo builds page metadata, falling back to the site defaults when the page
// has no title or description of its own.
func Seo(site Site, title, description, path string) PageMeta {
	meta := PageMeta{
		Title:       site.Title,
		Description: site.Description,
		OGType:      "website",
	}
	if title != "" {
		owner := site.Author
		if owner == "" {
			owner = site.Title
		}
		meta.Title = title
		if owner != "" && owner != title {
			meta.Title = title + " | " + owner
		}
	}
	if description != "" {
		meta.Description = description
	}
	if site.URL != "" {
		meta.URL = buildURL(site.URL, path)
	}
	return meta
}

// WrapperClass maps a wrapper variant to its classes. Unknown variants get
// the normal layout.
func WrapperClass(variant string) string {
	switch variant {
	case "post":
		return "wrapper wrapper--post"
	default:
		return "wrapper wrapper--normal"
	}
}

// Home renders the landing page with the pinned repositories.
func Home(site Site, st State, repos []github.Repository) templ.Component {
	st.Path = "/"
	meta := Seo(site, "Home", "", st.Path)
	meta.JSONLD = WebsiteJsonLD(site)
	return render("home", pageData{Site: site, State: st, Meta: meta, Repos: repos})
}

// About renders the about page from a markdown page.
func About(site Site, st State, page content.Page) templ.Component {
	st.Path = "/about/"
	if page.Title == "" {
		page.Title = "About"
	}
	meta := Seo(site, page.Title, page.Description, st.Path)
	return render("about", pageData{Site: site, State: st, Meta: meta, About: page})
}

// Blog renders the post index with excerpts.
func Blog(site Site, st State, posts []content.Post) templ.Component {
	st.Path = "/blog/"
	meta := Seo(site, "Blog", "", st.Path)
	return render("blog", pageData{Site: site, State: st, Meta: meta, Posts: posts})
}

// Post renders a single post.
func Post(site Site, st State, post content.Post) templ.Component {
	st.Path = post.Link()
	description := post.Description
	if description == "" {
		description = post.Excerpt
	}
	meta := Seo(site, post.Title, description, st.Path)
	meta.OGType = "article"
	meta.JSONLD = BlogPostingJsonLD(site, post)
	return render("post", pageData{Site: site, State: st, Meta: meta, Post: post})
}

// NotFound renders the 404 page. st.Path is kept so the color-mode form
// returns to the missing URL.
func NotFound(site Site, st State) templ.Component {
	meta := Seo(site, "404", "", "")
	meta.URL = ""
	return render("notfound", pageData{Site: site, State: st, Meta: meta})
}

// ServerError renders the 500 page.
func ServerError(site Site, st State) templ.Component {
	meta := Seo(site, "Error", "", "")
	meta.URL = ""
	return render("error", pageData{Site: site, State: st, Meta: meta})
}

// LanguageClass returns the CSS class coloring a language dot, e.g.
// "color-Go" or "color-Cplusplus".
func LanguageClass(lang string) string {
	r := strings.NewReplacer("+", "plus", "#", "sharp", " ", "-")
	lang = r.Replace(strings.TrimSpace(lang))
	var b strings.Builder
	for _, c := range lang {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	return "color-" + b.String()
}
