package views

import (
	"encoding/json"
	"html"
	"html/template"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/andrasna/folio/content"
	"github.com/andrasna/folio/github"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

var iconPaths = map[string]string{
	"github":        `<path d="M9 19c-5 1.5-5-2.5-7-3m14 6v-3.87a3.37 3.37 0 0 0-.94-2.61c3.14-.35 6.44-1.54 6.44-7A5.44 5.44 0 0 0 20 4.77 5.07 5.07 0 0 0 19.91 1S18.73.65 16 2.48a13.38 13.38 0 0 0-7 0C6.27.65 5.09 1 5.09 1A5.07 5.07 0 0 0 5 4.77a5.44 5.44 0 0 0-1.5 3.78c0 5.42 3.3 6.61 6.44 7A3.37 3.37 0 0 0 9 18.13V22"/>`,
	"codepen":       `<polygon points="12 2 22 8.5 22 15.5 12 22 2 15.5 2 8.5 12 2"/><line x1="12" y1="22" x2="12" y2="15.5"/><polyline points="22 8.5 12 15.5 2 8.5"/><polyline points="2 15.5 12 8.5 22 15.5"/><line x1="12" y1="2" x2="12" y2="8.5"/>`,
	"stackoverflow": `<path d="M4 15v6h15v-6"/><path d="M8 17h8"/><path d="M8.3 13.2l7.8 1.6"/><path d="M9.4 9.4l7.2 3.4"/><path d="M11.6 5.7l6.1 5.1"/><path d="M15.3 2.7l4.4 6.6"/>`,
	"mail":          `<path d="M4 4h16c1.1 0 2 .9 2 2v12c0 1.1-.9 2-2 2H4c-1.1 0-2-.9-2-2V6c0-1.1.9-2 2-2z"/><polyline points="22,6 12,13 2,6"/>`,
	"rss":           `<path d="M4 11a9 9 0 0 1 9 9"/><path d="M4 4a16 16 0 0 1 16 16"/><circle cx="5" cy="19" r="1"/>`,
	"star":          `<polygon points="12 2 15.09 8.26 22 9.27 17 14.14 18.18 21.02 12 17.77 5.82 21.02 7 14.14 2 9.27 8.91 8.26 12 2"/>`,
	"fork":          `<line x1="6" y1="3" x2="6" y2="15"/><circle cx="18" cy="6" r="3"/><circle cx="6" cy="18" r="3"/><path d="M18 9a9 9 0 0 1-9 9"/>`,
	"link":          `<path d="M10 13a5 5 0 0 0 7.54.54l3-3a5 5 0 0 0-7.07-7.07l-1.72 1.71"/><path d="M14 11a5 5 0 0 0-7.54-.54l-3 3a5 5 0 0 0 7.07 7.07l1.71-1.71"/>`,
}

// Icon returns an inline SVG icon. Unknown names fall back to a link icon.
func Icon(name string) template.HTML {
	name = strings.ToLower(strings.TrimSpace(name))
	body, ok := iconPaths[name]
	if !ok {
		name, body = "link", iconPaths["link"]
	}
	return template.HTML(`<svg class="icon icon--` + name + `" viewBox="0 0 24 24" width="24" height="24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true" focusable="false">` + body + `</svg>`)
}

var reHexColor = regexp.MustCompile(`^#[0-9a-fA-F]{3,8}$`)

// LanguageDot renders the colored circle in front of a repository language.
// The API color is applied inline when it is a valid hex color; the
// color-<Language> class lets the stylesheet override it.
func LanguageDot(repo github.Repository) template.HTML {
	style := ""
	if reHexColor.MatchString(repo.LanguageColor) {
		style = ` style="color: ` + repo.LanguageColor + `"`
	}
	return template.HTML(`<svg class="project-footer__circle ` + html.EscapeString(LanguageClass(repo.Language)) + `"` + style +
		` viewBox="0 0 16 16" width="12" height="12" aria-hidden="true" focusable="false"><circle cx="8" cy="8" r="7" fill="currentColor"/></svg>`)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block.
func WebsiteJsonLD(site Site) template.JS {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Title,
	}
	if site.URL != "" {
		data["url"] = buildURL(site.URL)
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	return marshalJSONLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site Site, post content.Post) template.JS {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "BlogPosting",
		"headline": post.Title,
	}
	if d := post.Description; d != "" {
		data["description"] = d
	} else if post.Excerpt != "" {
		data["description"] = post.Excerpt
	}
	if d := post.ISODate(); d != "" {
		data["datePublished"] = d
	}
	if site.URL != "" {
		postURL := buildURL(site.URL, "blog", post.Slug)
		data["url"] = postURL
		data["mainEntityOfPage"] = map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		}
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalJSONLD(data)
}

func marshalJSONLD(data map[string]interface{}) template.JS {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	// json.Marshal escapes <, > and & so the block cannot close its <script>.
	return template.JS(b)
}
