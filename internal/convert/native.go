package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	ferrors "git.home.luguber.info/inful/bookbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// Native writes .docx files in-process. Only block structure and basic
// inline emphasis survive; there is no reference document support.
type Native struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewNative returns an in-process docx converter.
func NewNative(logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.Default()
	}
	return &Native{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
	}
}

// Convert renders the markdown file at input into a docx file at output.
func (n *Native) Convert(ctx context.Context, input, output string) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read combined document").
			Fatal().
			WithContext("path", input).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := n.Render(src)

	tmp, err := os.CreateTemp(filepath.Dir(output), ".convert-*.docx")
	if err != nil {
		return writeError(err, output)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := doc.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return writeError(err, output)
	}
	if err := tmp.Close(); err != nil {
		return writeError(err, output)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return writeError(err, output)
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return writeError(err, output)
	}
	n.logger.Debug("Rendered docx", logfields.Path(output))
	return nil
}

func writeError(err error, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write converted document").
		Fatal().
		WithContext("path", path).
		Build()
}

// Render converts markdown source into a document.
func (n *Native) Render(src []byte) *docx.Docx {
	r := &docxRenderer{src: src, doc: docx.New().WithDefaultTheme()}
	root := n.md.Parser().Parse(text.NewReader(src))
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, 0)
	}
	return r.doc
}

// headingSizes are run sizes in half-points by heading level.
var headingSizes = map[int]string{1: "36", 2: "32", 3: "28", 4: "26", 5: "24", 6: "22"}

const codeColor = "595959"

type runStyle struct {
	bold, italic, code bool
	size               string
}

type docxRenderer struct {
	src []byte
	doc *docx.Docx
	// prefix is written at the start of the next paragraph (list markers).
	prefix string
	quote  bool
}

func (r *docxRenderer) paragraph() *docx.Paragraph {
	p := r.doc.AddParagraph()
	if r.prefix != "" {
		p.AddText(r.prefix)
		r.prefix = ""
	}
	return p
}

func (r *docxRenderer) block(n ast.Node, depth int) {
	switch v := n.(type) {
	case *ast.Heading:
		p := r.paragraph().Style("Heading" + strconv.Itoa(v.Level))
		r.inline(p, v, runStyle{bold: true, size: headingSizes[v.Level]})
	case *ast.Paragraph, *ast.TextBlock:
		r.inline(r.paragraph(), v, runStyle{italic: r.quote})
	case *ast.List:
		r.list(v, depth)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := v.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := strings.TrimRight(string(seg.Value(r.src)), "\r\n")
			r.paragraph().AddText(line).Color(codeColor)
		}
	case *ast.Blockquote:
		outer := r.quote
		r.quote = true
		r.children(v, depth)
		r.quote = outer
	case *ast.ThematicBreak:
		r.paragraph()
	case *ast.HTMLBlock:
		// Raw HTML has no docx equivalent.
	case *east.Table:
		r.table(v)
	default:
		r.children(n, depth)
	}
}

func (r *docxRenderer) children(n ast.Node, depth int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, depth)
	}
}

func (r *docxRenderer) list(l *ast.List, depth int) {
	indent := strings.Repeat("    ", depth)
	index := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d%c ", index, l.Marker)
			index++
		}
		r.prefix = indent + marker
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(c, depth+1)
		}
		if r.prefix != "" {
			// Empty item.
			r.paragraph()
		}
	}
}

func (r *docxRenderer) table(t *east.Table) {
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		_, header := row.(*east.TableHeader)
		p := r.paragraph()
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if cell != row.FirstChild() {
				p.AddText(" | ")
			}
			r.inline(p, cell, runStyle{bold: header})
		}
	}
}

func (r *docxRenderer) inline(p *docx.Paragraph, n ast.Node, st runStyle) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			r.run(p, string(v.Segment.Value(r.src)), st)
			if v.SoftLineBreak() || v.HardLineBreak() {
				r.run(p, " ", st)
			}
		case *ast.String:
			r.run(p, string(v.Value), st)
		case *ast.Emphasis:
			inner := st
			if v.Level >= 2 {
				inner.bold = true
			} else {
				inner.italic = true
			}
			r.inline(p, v, inner)
		case *ast.CodeSpan:
			inner := st
			inner.code = true
			r.run(p, plainText(v, r.src), inner)
		case *ast.Link:
			p.AddLink(plainText(v, r.src), string(v.Destination))
		case *ast.AutoLink:
			p.AddLink(string(v.Label(r.src)), string(v.URL(r.src)))
		case *ast.Image:
			inner := st
			inner.italic = true
			r.run(p, "["+plainText(v, r.src)+"]", inner)
		case *ast.RawHTML:
		default:
			r.inline(p, c, st)
		}
	}
}

func (r *docxRenderer) run(p *docx.Paragraph, s string, st runStyle) {
	if s == "" {
		return
	}
	run := p.AddText(s)
	if st.bold {
		run.Bold()
	}
	if st.italic {
		run.Italic()
	}
	if st.code {
		run.Color(codeColor)
	}
	if st.size != "" {
		run.Size(st.size)
	}
}

// plainText concatenates the text content below n.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
