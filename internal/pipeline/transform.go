package pipeline

import (
	"strings"

	"github.com/alnah/go-bakery/internal/latex"
)

// DefaultEquationTag is the fence tag whose content renders as a display
// equation.
const DefaultEquationTag = "latex"

// equationSigil wraps inline code that should render as an inline equation.
const equationSigil = "$"

// Highlighter renders code in a named language. ok is false when the
// language is not recognized.
type Highlighter interface {
	Highlight(code, lang string) (out string, ok bool, err error)
}

// Transformer rewrites a page's Markdown event stream. It intercepts
// inline code spans wrapped in $...$, tagged fenced code blocks and the
// text inside them; every other event is forwarded unchanged and in order.
//
// A Transformer holds per-page state and must not be shared between pages
// or goroutines.
type Transformer struct {
	Equations   latex.Renderer // defaults to latex.MarkupRenderer
	Macros      latex.Macros
	Highlighter Highlighter // nil renders every tagged fence verbatim
	EquationTag string      // defaults to DefaultEquationTag

	fence *fenceContext
}

// fenceContext is present while inside a fenced block with a non-empty tag.
type fenceContext struct {
	tag  string
	body strings.Builder
}

// InFence reports whether the transformer is inside a tagged fence.
func (t *Transformer) InFence() bool { return t.fence != nil }

// Feed consumes one event and returns the events to emit in its place.
// A tagged fence emits nothing until its close event, which yields one
// EventHTML holding the whole rendered block.
func (t *Transformer) Feed(ev Event) ([]Event, error) {
	if t.fence != nil {
		return t.feedInFence(ev)
	}

	switch ev.Kind {
	case EventCode:
		source, ok := inlineEquation(ev.Text)
		if !ok {
			return []Event{ev}, nil
		}
		out, err := latex.RenderEquation(t.renderer(), source, false, t.Macros)
		if err != nil {
			return nil, err
		}
		return []Event{{Kind: EventHTML, Text: out}}, nil

	case EventFenceStart:
		if ev.Tag == "" {
			return []Event{ev}, nil
		}
		t.fence = &fenceContext{tag: ev.Tag}
		return nil, nil

	default:
		return []Event{ev}, nil
	}
}

func (t *Transformer) feedInFence(ev Event) ([]Event, error) {
	switch ev.Kind {
	case EventText:
		t.fence.body.WriteString(ev.Text)
		return nil, nil
	case EventFenceEnd:
		fc := t.fence
		t.fence = nil
		out, err := t.renderFence(fc.tag, fc.body.String())
		if err != nil {
			return nil, err
		}
		return []Event{{Kind: EventHTML, Text: out}}, nil
	default:
		return nil, &MarkdownStructureError{Tag: t.fence.tag, Err: ErrUnexpectedEvent}
	}
}

func (t *Transformer) renderFence(tag, body string) (string, error) {
	if tag == t.equationTag() {
		return latex.RenderEquation(t.renderer(), body, true, t.Macros)
	}
	if t.Highlighter != nil {
		out, ok, err := t.Highlighter.Highlight(body, tag)
		if err != nil {
			return "", &MarkdownStructureError{Tag: tag, Err: err}
		}
		if ok {
			return out, nil
		}
	}
	return "<pre><code>" + escape(body) + "</code></pre>\n", nil
}

func (t *Transformer) renderer() latex.Renderer {
	if t.Equations == nil {
		return latex.MarkupRenderer{}
	}
	return t.Equations
}

func (t *Transformer) equationTag() string {
	if t.EquationTag == "" {
		return DefaultEquationTag
	}
	return t.EquationTag
}

// Rewrite feeds every event in order and concatenates the output.
func (t *Transformer) Rewrite(events []Event) ([]Event, error) {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		emitted, err := t.Feed(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, emitted...)
	}
	return out, nil
}

// Close reports an error if a tagged fence is still open.
func (t *Transformer) Close() error {
	if t.fence != nil {
		tag := t.fence.tag
		t.fence = nil
		return &MarkdownStructureError{Tag: tag, Err: ErrUnterminatedFence}
	}
	return nil
}

// inlineEquation strips a single $ from each end of code. Code such as
// "$$x$$" or a lone "$" is not an equation.
func inlineEquation(code string) (string, bool) {
	if len(code) < 2 || !strings.HasPrefix(code, equationSigil) || !strings.HasSuffix(code, equationSigil) {
		return "", false
	}
	inner := code[1 : len(code)-1]
	if inner == "" || strings.HasPrefix(inner, equationSigil) || strings.HasSuffix(inner, equationSigil) {
		return "", false
	}
	return inner, true
}
