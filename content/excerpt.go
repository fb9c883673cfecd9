package content

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// excerpt returns the plain-text teaser for a post body. Text before the
// separator is used verbatim when present; otherwise the whole body is
// pruned to ExcerptLength runes on a word boundary.
func (l *Loader) excerpt(body []byte) string {
	sep := l.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	if i := bytes.Index(body, []byte(sep)); i >= 0 {
		return l.plainText(body[:i])
	}
	limit := l.ExcerptLength
	if limit <= 0 {
		limit = DefaultExcerptLength
	}
	return Prune(l.plainText(body), limit)
}

func (l *Loader) plainText(source []byte) string {
	doc := l.markdown().Parser().Parse(text.NewReader(source))
	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(node.Value)
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		default:
			if !entering && n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// Prune shortens s to at most n runes, cutting at the last word boundary
// and appending an ellipsis.
func Prune(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
