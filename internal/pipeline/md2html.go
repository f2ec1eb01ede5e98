package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-bakery/internal/latex"
)

// codeRendererPriority places the code renderer ahead of goldmark's
// default HTML renderer (priority 1000).
const codeRendererPriority = 100

// attributeReverterPriority orders the placeholder reverter among goldmark
// AST transformers.
const attributeReverterPriority = 100

// codeMask stands in for delimiter bytes inside code during extraction.
const codeMask = '_'

// Converter turns a page body into an HTML fragment: equations are
// extracted, Markdown is rendered through a Transformer, and the rendered
// equations are put back.
//
// A Converter is safe for concurrent use; each Convert call builds its own
// goldmark instance and Transformer.
type Converter struct {
	equations   latex.Renderer
	macros      latex.Macros
	highlighter Highlighter
	equationTag string
	unsafeHTML  bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithEquationRenderer sets the equation renderer.
func WithEquationRenderer(r latex.Renderer) Option {
	return func(c *Converter) {
		if r != nil {
			c.equations = r
		}
	}
}

// WithMacros sets the LaTeX macros passed to every equation render.
func WithMacros(m latex.Macros) Option {
	return func(c *Converter) { c.macros = m }
}

// WithHighlighter sets the syntax highlighter for tagged fences.
func WithHighlighter(h Highlighter) Option {
	return func(c *Converter) { c.highlighter = h }
}

// WithEquationTag sets the fence tag rendered as a display equation.
func WithEquationTag(tag string) Option {
	return func(c *Converter) {
		if tag != "" {
			c.equationTag = tag
		}
	}
}

// WithUnsafeHTML lets raw HTML in Markdown through to the output.
func WithUnsafeHTML(enabled bool) Option {
	return func(c *Converter) { c.unsafeHTML = enabled }
}

// NewConverter creates a Converter. Without WithHighlighter, tagged fences
// other than the equation tag render verbatim.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		equations:   latex.MarkupRenderer{},
		equationTag: DefaultEquationTag,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert renders body to HTML. Equation, delimiter and structure errors
// abort the whole conversion; no partial output is returned.
// Goldmark has no context support, so conversion runs in a goroutine and
// Convert returns early on cancellation.
func (c *Converter) Convert(ctx context.Context, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		out, err := c.convert(Preprocess(body))
		done <- result{html: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}

func (c *Converter) convert(body string) (string, error) {
	spans, err := c.extract(body)
	if err != nil {
		return "", err
	}
	src, table := body, &equationTable{}
	if latex.HasEquations(spans) {
		src, table = substitute(spans)
	}

	t := &Transformer{
		Equations:   c.equations,
		Macros:      c.macros,
		Highlighter: c.highlighter,
		EquationTag: c.equationTag,
	}

	var buf bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(newHeadingIDs(table)))
	if err := c.markdown(t, table).Convert([]byte(src), &buf, parser.WithContext(ctx)); err != nil {
		var re *latex.EquationRenderError
		var me *MarkdownStructureError
		if errors.As(err, &re) || errors.As(err, &me) {
			return "", err
		}
		return "", &MarkdownStructureError{Err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
	}
	if err := t.Close(); err != nil {
		return "", err
	}

	return table.restore(buf.String(), c.equations, c.macros)
}

// extract splits body into literal and equation spans. Code spans and code
// blocks are masked first, so delimiters inside code never open or close
// an equation.
func (c *Converter) extract(body string) ([]latex.Span, error) {
	masked := c.maskCode(body)
	spans, err := latex.Extract(masked)
	if err != nil {
		var de *latex.DelimiterError
		if errors.As(err, &de) {
			de.Remainder = body[de.Offset:]
		}
		return nil, err
	}
	if masked == body {
		return spans, nil
	}

	// Masking keeps byte offsets, so span lengths map straight back onto
	// the unmasked body.
	pos := 0
	for i := range spans {
		n := len(spans[i].Source())
		src := body[pos : pos+n]
		switch spans[i].Kind {
		case latex.InlineEquation:
			spans[i].Text = src[len(latex.InlineOpen) : n-len(latex.InlineClose)]
		case latex.BlockEquation:
			spans[i].Text = src[len(latex.BlockOpen) : n-len(latex.BlockClose)]
		default:
			spans[i].Text = src
		}
		pos += n
	}
	return spans, nil
}

// maskCode returns body with the delimiter bytes of every code span and
// code block replaced by codeMask. Byte offsets are unchanged.
func (c *Converter) maskCode(body string) string {
	if !strings.ContainsAny(body, "$\\") {
		return body
	}
	doc := goldmark.New(goldmark.WithExtensions(extensions()...)).
		Parser().Parse(text.NewReader([]byte(body)))

	masked := []byte(body)
	blank := func(seg text.Segment) {
		for i := seg.Start; i < seg.Stop && i < len(masked); i++ {
			if masked[i] == '$' || masked[i] == '\\' {
				masked[i] = codeMask
			}
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan:
			for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
				if t, ok := ch.(*ast.Text); ok {
					blank(t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				blank(lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return string(masked)
}

func extensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		extension.Typographer,
	}
}

func (c *Converter) markdown(t *Transformer, table *equationTable) goldmark.Markdown {
	rendererOpts := []renderer.Option{
		renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{t: t, table: table}, codeRendererPriority)),
		html.WithXHTML(),
	}
	if c.unsafeHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithExtensions(extensions()...),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(&attributeReverter{table: table}, attributeReverterPriority)),
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}

// codeRenderer turns code nodes into events, runs them through the page's
// Transformer and writes the result. All other nodes keep goldmark's
// default rendering.
type codeRenderer struct {
	t     *Transformer
	table *equationTable
}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeRenderer) renderCodeSpan(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		txt, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		value := txt.Segment.Value(source)
		if bytes.HasSuffix(value, []byte("\n")) {
			b.Write(value[:len(value)-1])
			b.WriteByte(' ')
		} else {
			b.Write(value)
		}
	}

	out, err := r.t.Feed(Event{Kind: EventCode, Text: r.table.revert(b.String())})
	if err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, WriteEvents(w, out)
}

func (r *codeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := n.(*ast.FencedCodeBlock)
	return r.renderBlock(w, source, n, string(block.Language(source)))
}

func (r *codeRenderer) renderCodeBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	return r.renderBlock(w, source, n, "")
}

func (r *codeRenderer) renderBlock(w util.BufWriter, source []byte, n ast.Node, tag string) (ast.WalkStatus, error) {
	lines := n.Lines()
	events := make([]Event, 0, lines.Len()+2)
	events = append(events, Event{Kind: EventFenceStart, Tag: tag})
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		events = append(events, Event{Kind: EventText, Text: r.table.revert(string(line.Value(source)))})
	}
	events = append(events, Event{Kind: EventFenceEnd})

	out, err := r.t.Rewrite(events)
	if err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, WriteEvents(w, out)
}
