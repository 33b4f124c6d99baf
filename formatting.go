package vkteamsbot

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// RenderMarkdown converts standard Markdown into the plain text plus
// formatting-span pairs the bot API's "format" request parameter expects.
// Unlike an HTML renderer, spans are computed over byte offsets into the
// emitted plain text, so offsets must stay in sync as the renderer writes.
func RenderMarkdown(md string) FormattedText {
	sp := &spanRenderer{}
	r := renderer.NewRenderer(
		renderer.WithNodeRenderers(util.Prioritized(sp, 1)),
	)
	gm := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithRenderer(r),
	)
	source := []byte(md)
	var buf bytes.Buffer
	if err := gm.Convert(source, &buf); err != nil {
		return FormattedText{Text: md}
	}
	return FormattedText{Text: buf.String(), Spans: sp.spans}
}

// spanRenderer implements goldmark's renderer.NodeRenderer, tracking the
// current write offset into buf so each span can be recorded with its
// final (Offset, Length) once its closing node is reached.
type spanRenderer struct {
	spans       []Span
	listCounter int
	openSpans   []openSpan
	pos         int
}

type openSpan struct {
	kind  SpanKind
	start int
	url   string
}

func (r *spanRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindDocument, r.renderNoop)
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindParagraph, r.renderParagraph)
	reg.Register(ast.KindBlockquote, r.renderBlockquote)
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindList, r.renderList)
	reg.Register(ast.KindListItem, r.renderListItem)
	reg.Register(ast.KindTextBlock, r.renderNoop)
	reg.Register(ast.KindThematicBreak, r.renderThematicBreak)
	reg.Register(ast.KindHTMLBlock, r.renderNoop)

	reg.Register(ast.KindText, r.renderText)
	reg.Register(ast.KindString, r.renderString)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
	reg.Register(ast.KindEmphasis, r.renderEmphasis)
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindImage, r.renderLink)
	reg.Register(ast.KindRawHTML, r.renderNoop)

	reg.Register(extast.KindStrikethrough, r.renderStrikethrough)
}

func (r *spanRenderer) renderNoop(w util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

// close pops the innermost open span and records it ending at end. The
// renderer tracks the logical write offset itself (r.pos) since
// util.BufWriter exposes buffered/available counts, not an absolute position.
func (r *spanRenderer) close(w util.BufWriter, end int) {
	if len(r.openSpans) == 0 {
		return
	}
	last := r.openSpans[len(r.openSpans)-1]
	r.openSpans = r.openSpans[:len(r.openSpans)-1]
	if end > last.start {
		r.spans = append(r.spans, Span{Kind: last.kind, Offset: last.start, Length: end - last.start, URL: last.url})
	}
}

func (r *spanRenderer) renderHeading(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.write(w, "\n")
		r.openSpans = append(r.openSpans, openSpan{kind: SpanBold, start: r.pos})
	} else {
		r.close(w, r.pos)
		r.write(w, "\n")
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderParagraph(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.write(w, "\n")
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderBlockquote(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.openSpans = append(r.openSpans, openSpan{kind: SpanQuote, start: r.pos})
	} else {
		r.close(w, r.pos)
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	start := r.pos
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		r.write(w, string(line.Value(source)))
	}
	r.spans = append(r.spans, Span{Kind: SpanPre, Offset: start, Length: r.pos - start})
	return ast.WalkSkipChildren, nil
}

func (r *spanRenderer) renderList(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.List)
	if entering {
		if n.IsOrdered() {
			r.listCounter = int(n.Start)
			r.openSpans = append(r.openSpans, openSpan{kind: SpanOrderedList, start: r.pos})
		} else {
			r.listCounter = 0
			r.openSpans = append(r.openSpans, openSpan{kind: SpanUnOrderedList, start: r.pos})
		}
	} else {
		r.close(w, r.pos)
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderListItem(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		parent := node.Parent().(*ast.List)
		if parent.IsOrdered() {
			r.write(w, itoa(r.listCounter)+". ")
			r.listCounter++
		} else {
			r.write(w, "• ")
		}
	} else {
		r.write(w, "\n")
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderThematicBreak(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.write(w, "\n---\n")
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderText(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Text)
	r.write(w, string(n.Segment.Value(source)))
	if n.SoftLineBreak() || n.HardLineBreak() {
		r.write(w, "\n")
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderString(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.String)
	r.write(w, string(n.Value))
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderCodeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		start := r.pos
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				r.write(w, string(t.Segment.Value(source)))
			}
		}
		r.spans = append(r.spans, Span{Kind: SpanInlineCode, Offset: start, Length: r.pos - start})
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderEmphasis(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Emphasis)
	kind := SpanItalic
	if n.Level == 2 {
		kind = SpanBold
	}
	if entering {
		r.openSpans = append(r.openSpans, openSpan{kind: kind, start: r.pos})
	} else {
		r.close(w, r.pos)
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderLink(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	var dest []byte
	switch n := node.(type) {
	case *ast.Link:
		dest = n.Destination
	case *ast.Image:
		dest = n.Destination
	}
	if entering {
		r.openSpans = append(r.openSpans, openSpan{kind: SpanLink, start: r.pos, url: string(dest)})
	} else {
		r.close(w, r.pos)
	}
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)
	url := string(n.URL(source))
	start := r.pos
	r.write(w, url)
	r.spans = append(r.spans, Span{Kind: SpanLink, Offset: start, Length: r.pos - start, URL: url})
	return ast.WalkContinue, nil
}

func (r *spanRenderer) renderStrikethrough(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.openSpans = append(r.openSpans, openSpan{kind: SpanStrikethrough, start: r.pos})
	} else {
		r.close(w, r.pos)
	}
	return ast.WalkContinue, nil
}

// write appends s to w and advances the renderer's logical offset. All text
// emission must go through write so span offsets stay accurate.
func (r *spanRenderer) write(w util.BufWriter, s string) {
	_, _ = w.WriteString(s)
	r.pos += len(s)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
