// Package content loads markdown posts and pages with YAML frontmatter and
// renders them to HTML.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultSeparator marks the end of a post's excerpt.
	DefaultSeparator = "<!-- end -->"
	// DefaultExcerptLength is the rune budget of an excerpt without a separator.
	DefaultExcerptLength = 260

	displayDateLayout = "January 02, 2006"
	isoDateLayout     = "2006-01-02"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	isoDateLayout,
}

// Post is a blog post loaded from a markdown file.
type Post struct {
	Slug        string
	Title       string
	Date        time.Time
	Description string
	Tags        []string
	Excerpt     string
	HTML        template.HTML
	Draft       bool
	SourcePath  string
}

// Link returns the site-relative URL of the post.
func (p Post) Link() string {
	return "/blog/" + p.Slug + "/"
}

// DisplayDate formats the post date for readers, e.g. "March 04, 2021".
func (p Post) DisplayDate() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format(displayDateLayout)
}

// ISODate formats the post date for <time datetime> and sitemaps.
func (p Post) ISODate() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format(isoDateLayout)
}

// Page is a standalone markdown page such as the about page.
type Page struct {
	Title       string
	Description string
	Image       string
	ImageAlt    string
	Caption     string
	HTML        template.HTML
}

// Loader walks a content directory and turns markdown files into posts.
type Loader struct {
	Dir           string
	Separator     string
	ExcerptLength int
	IncludeDrafts bool

	md goldmark.Markdown
}

// NewLoader returns a Loader for dir with default excerpt settings.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load reads every post under dir using default settings.
func Load(dir string) ([]Post, error) {
	return NewLoader(dir).Load()
}

func (l *Loader) markdown() goldmark.Markdown {
	if l.md == nil {
		l.md = newMarkdown()
	}
	return l.md
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		// Content is authored by the site owner; raw HTML and the excerpt
		// separator comment pass through.
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
}

// Load walks the loader's directory and returns posts sorted newest first.
func (l *Loader) Load() ([]Post, error) {
	if _, err := os.Stat(l.Dir); err != nil {
		return nil, fmt.Errorf("content: content directory %q: %w", l.Dir, err)
	}
	var posts []Post
	sources := make(map[string]string)
	err := filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}
		post, err := l.loadPost(path)
		if err != nil {
			return err
		}
		if post.Draft && !l.IncludeDrafts {
			return nil
		}
		if post.Slug == "" {
			return fmt.Errorf("content: %s: file name gives an empty slug", path)
		}
		if prev, ok := sources[post.Slug]; ok {
			return fmt.Errorf("content: %s and %s share the slug %q", prev, path, post.Slug)
		}
		sources[post.Slug] = path
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortPosts(posts)
	return posts, nil
}

func (l *Loader) loadPost(path string) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, fmt.Errorf("content: read %s: %w", path, err)
	}
	meta, body := parseFrontmatter(raw)

	var html bytes.Buffer
	if err := l.markdown().Convert(body, &html); err != nil {
		return Post{}, fmt.Errorf("content: render %s: %w", path, err)
	}

	rel, err := filepath.Rel(l.Dir, path)
	if err != nil {
		return Post{}, fmt.Errorf("content: %s: %w", path, err)
	}

	post := Post{
		Slug:        slugFromPath(rel),
		Title:       stringValue(meta["title"]),
		Description: stringValue(meta["description"]),
		Tags:        stringSlice(meta["tags"]),
		Draft:       boolValue(meta["draft"]),
		HTML:        template.HTML(html.String()),
		SourcePath:  path,
	}
	if post.Title == "" {
		post.Title = titleFromPath(rel)
	}
	if v, ok := meta["date"]; ok && v != nil {
		date, err := parseDate(v)
		if err != nil {
			return Post{}, fmt.Errorf("content: %s: %w", path, err)
		}
		post.Date = date
	}
	post.Excerpt = l.excerpt(body)
	return post, nil
}

// LoadPage reads a single markdown page. A missing file yields fs.ErrNotExist.
func LoadPage(path string) (Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("content: read %s: %w", path, err)
	}
	meta, body := parseFrontmatter(raw)
	var html bytes.Buffer
	if err := newMarkdown().Convert(body, &html); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", path, err)
	}
	page := Page{
		Title:       stringValue(meta["title"]),
		Description: stringValue(meta["description"]),
		Image:       stringValue(meta["image"]),
		ImageAlt:    stringValue(meta["image_alt"]),
		Caption:     stringValue(meta["caption"]),
		HTML:        template.HTML(html.String()),
	}
	if page.Title == "" {
		page.Title = titleFromPath(filepath.Base(path))
	}
	return page, nil
}

// SortPosts orders posts by date descending. Undated posts go last, ordered
// by title.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.Date.IsZero() && b.Date.IsZero():
			return a.Title < b.Title
		case a.Date.IsZero():
			return false
		case b.Date.IsZero():
			return true
		case a.Date.Equal(b.Date):
			return a.Title < b.Title
		}
		return a.Date.After(b.Date)
	})
}

func parseFrontmatter(raw []byte) (map[string]interface{}, []byte) {
	var meta map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		// No (or malformed) frontmatter: treat the file as plain markdown.
		return map[string]interface{}{}, raw
	}
	if meta == nil {
		meta = map[string]interface{}{}
	}
	return meta, body
}

func parseDate(v interface{}) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC 3339", d)
	}
	return time.Time{}, errors.New("invalid date: not a string")
}

func slugFromPath(rel string) string {
	rel = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	parts := strings.Split(rel, "/")
	if len(parts) > 1 && strings.EqualFold(parts[len(parts)-1], "index") {
		parts = parts[:len(parts)-1]
	}
	out := parts[:0]
	for _, p := range parts {
		if s := Slugify(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

func titleFromPath(rel string) string {
	name := filepath.Base(strings.TrimSuffix(rel, filepath.Ext(rel)))
	if strings.EqualFold(name, "index") {
		name = filepath.Base(filepath.Dir(rel))
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(name)
}

// Slugify converts a title to a URL path segment. Letters and digits of any
// script are kept; runs of other runes become a single hyphen.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case nil:
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func boolValue(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}

func stringSlice(v interface{}) []string {
	switch vals := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vals
	case string:
		var out []string
		for _, s := range strings.Split(vals, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
