package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// MarkdownToText returns the first level-1 heading (if any) and the document's
// readable text with markup removed, one block per line. Code blocks are kept verbatim.
func MarkdownToText(content []byte) (title, body string) {
	doc := markdownParser.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch v := n.(type) {
		case *ast.Heading:
			if entering && v.Level == 1 && title == "" {
				title = nodeText(v, content)
			}
			newline()
		case *ast.Paragraph, *ast.TextBlock, *ast.ListItem, *ast.Blockquote, *east.TableRow, *east.TableHeader:
			newline()
		case *east.TableCell:
			if !entering && v.NextSibling() != nil {
				b.WriteString(" | ")
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				newline()
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(content))
				}
				newline()
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				b.Write(v.Segment.Value(content))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				b.Write(v.Value)
			}
		case *ast.AutoLink:
			if entering {
				b.Write(v.URL(content))
			}
		}
		return ast.WalkContinue, nil
	})

	return title, collapseLines(b.String())
}

// nodeText concatenates the text segments under n.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
