package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-bakery/internal/latex"
)

func TestConverter_Convert(t *testing.T) {
	t.Parallel()

	highlighter, err := NewChromaHighlighter(DefaultTheme, true)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		input        string
		opts         []Option
		wantContains []string
		wantNot      []string
	}{
		{
			name:         "block equation in paragraph",
			input:        "one two $$N=1$$ three",
			wantContains: []string{`<p>one two <span class="math display">\[N=1\]</span> three</p>`},
		},
		{
			name:         "inline equation markers",
			input:        `one two \\(N=1\\) three`,
			wantContains: []string{`<p>one two <span class="math inline">\(N=1\)</span> three</p>`},
		},
		{
			name:         "multi-line block equation",
			input:        "$$\n\\sum_i *x_i*\n$$",
			wantContains: []string{`\[\sum_i *x_i*\]`},
			wantNot:      []string{"<em>"},
		},
		{
			name:         "sigil inline code renders inline equation",
			input:        "Euler: `$e^{i\\pi}+1=0$`",
			wantContains: []string{`<span class="math inline">\(e^{i\pi}+1=0\)</span>`},
			wantNot:      []string{"<code>"},
		},
		{
			name:         "plain inline code",
			input:        "call `f(x)`",
			wantContains: []string{"<code>f(x)</code>"},
		},
		{
			name:         "equation fence renders display",
			input:        "```latex\nx^2\n```",
			wantContains: []string{`<span class="math display">\[x^2\]</span>`},
			wantNot:      []string{"<pre>"},
		},
		{
			name:         "known language highlighted",
			input:        "```go\nfunc main() {}\n```",
			opts:         []Option{WithHighlighter(highlighter)},
			wantContains: []string{`class="chroma"`},
		},
		{
			name:         "unknown language verbatim",
			input:        "```klingon\na < b & c\n```",
			opts:         []Option{WithHighlighter(highlighter)},
			wantContains: []string{"<pre><code>a &lt; b &amp; c\n</code></pre>"},
		},
		{
			name:         "tagged fence without highlighter is verbatim",
			input:        "```go\nx := 1\n```",
			wantContains: []string{"<pre><code>x := 1\n</code></pre>"},
		},
		{
			name:         "block markers inside inline code stay literal",
			input:        "use `$$x$$` for display",
			wantContains: []string{"<code>$$x$$</code>"},
			wantNot:      []string{"math"},
		},
		{
			name:         "inline markers inside fence stay literal",
			input:        "```\n\\\\(x\\\\) and $$y$$\n```",
			wantContains: []string{"<pre><code>\\\\(x\\\\) and $$y$$\n</code></pre>"},
			wantNot:      []string{"math"},
		},
		{
			name:         "invalid equation inside code is not rendered",
			input:        "```text\n$$\\frac{$$\n```",
			wantContains: []string{"$$\\frac{$$"},
		},
		{
			name:         "indented code keeps equation source",
			input:        "para\n\n    $$x$$\n",
			wantContains: []string{"<pre><code>$$x$$\n</code></pre>"},
		},
		{
			name:         "lone block marker inside inline code",
			input:        "PID is `$$` here.",
			wantContains: []string{"<p>PID is <code>$$</code> here.</p>"},
			wantNot:      []string{"math"},
		},
		{
			name:         "lone block marker inside shell fence",
			input:        "```bash\necho $$\n```",
			wantContains: []string{"<pre><code>echo $$\n</code></pre>"},
			wantNot:      []string{"math"},
		},
		{
			name:         "lone inline marker inside go fence",
			input:        "```go\nregexp.MustCompile(\"\\\\(\")\n```",
			wantContains: []string{"regexp.MustCompile(&quot;\\\\(&quot;)"},
			wantNot:      []string{"math"},
		},
		{
			name:         "lone marker inside indented code",
			input:        "para\n\n    echo $$\n",
			wantContains: []string{"<pre><code>echo $$\n</code></pre>"},
		},
		{
			name:  "equation next to code holding a marker",
			input: "`$$` then $$x$$",
			wantContains: []string{
				"<code>$$</code>",
				`<span class="math display">\[x\]</span>`,
			},
		},
		{
			name:         "equation source kept in link destination",
			input:        "[x](http://e.com/\\\\(a\\\\))",
			wantContains: []string{`<a href="http://e.com/%5C(a%5C)">x</a>`},
			wantNot:      []string{"%EE%80", "math"},
		},
		{
			name:         "equation source kept in image alt and title",
			input:        "![area \\\\(r^2\\\\)](a.png \"is \\\\(r\\\\)\")",
			wantContains: []string{`alt="area \(r^2\)"`, `title="is \(r\)"`},
			wantNot:      []string{"math"},
		},
		{
			name:         "equation source kept in autolink URL",
			input:        "<http://e.com/\\\\(a\\\\)>",
			wantContains: []string{`href="http://e.com/%5C%5C(a%5C%5C)"`},
			wantNot:      []string{"%EE%80"},
		},
		{
			name:  "heading id uses equation source",
			input: "# Title \\\\(x\\\\)",
			wantContains: []string{
				`<h1 id="title-x">Title <span class="math inline">\(x\)</span></h1>`,
			},
		},
		{
			name:         "heading ids stay unique",
			input:        "# A \\\\(x\\\\)\n\n# A \\\\(x\\\\)",
			wantContains: []string{`id="a-x"`, `id="a-x-1"`},
		},
		{
			name:         "macros applied",
			input:        "$$\\RR$$",
			opts:         []Option{WithMacros(latex.Macros{`\RR`: `\mathbb{R}`})},
			wantContains: []string{`\[\mathbb{R}\]`},
		},
		{
			name:         "custom equation tag",
			input:        "```math\ny\n```",
			opts:         []Option{WithEquationTag("math")},
			wantContains: []string{`\[y\]`},
		},
		{
			name:         "raw html omitted by default",
			input:        "<div>x</div>",
			wantNot:      []string{"<div>"},
			wantContains: []string{"raw HTML omitted"},
		},
		{
			name:         "raw html allowed",
			input:        "<div>x</div>",
			opts:         []Option{WithUnsafeHTML(true)},
			wantContains: []string{"<div>x</div>"},
		},
		{
			name:         "CRLF normalized",
			input:        "a\r\n\r\nb",
			wantContains: []string{"<p>a</p>\n<p>b</p>"},
		},
		{
			name:         "GFM table",
			input:        "| A | B |\n|---|---|\n| 1 | 2 |",
			wantContains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:         "heading ids",
			input:        "# Hello World",
			wantContains: []string{`<h1 id="hello-world">Hello World</h1>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewConverter(tt.opts...).Convert(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Convert() unexpected error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(got, not) {
					t.Errorf("output should not contain %q:\n%s", not, got)
				}
			}
			if strings.Contains(got, EquationStartPlaceholder) || strings.Contains(got, EquationEndPlaceholder) {
				t.Errorf("placeholder leaked into output:\n%s", got)
			}
		})
	}
}

func TestConverter_FenceMatchesEquationSpan(t *testing.T) {
	t.Parallel()

	c := NewConverter()
	fence, err := c.Convert(context.Background(), "```latex\n\\frac{a}{b}\n```")
	if err != nil {
		t.Fatal(err)
	}
	want, err := latex.MarkupRenderer{}.Render(`\frac{a}{b}`, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(fence) != want {
		t.Errorf("fence = %q, want %q", fence, want)
	}

	block, err := c.Convert(context.Background(), "$$\\frac{a}{b}$$")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(block, want) {
		t.Errorf("block = %q, want it to contain %q", block, want)
	}
}

func TestConverter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		check   func(error) bool
		wantErr string
	}{
		{
			name:    "unmatched block delimiter",
			input:   "one $$ two",
			check:   func(err error) bool { return errors.Is(err, latex.ErrUnmatchedDelimiter) },
			wantErr: "DelimiterError",
		},
		{
			name:  "malformed block equation",
			input: "$$\\frac{a$$",
			check: func(err error) bool {
				var re *latex.EquationRenderError
				return errors.As(err, &re) && re.Display
			},
			wantErr: "EquationRenderError",
		},
		{
			name:  "malformed inline code equation",
			input: "`$\\left( x$`",
			check: func(err error) bool {
				var re *latex.EquationRenderError
				return errors.As(err, &re) && !re.Display
			},
			wantErr: "EquationRenderError",
		},
		{
			name:  "malformed equation fence",
			input: "```latex\n\\begin{x}\n```",
			check: func(err error) bool {
				return errors.Is(err, latex.ErrUnmatchedEnv)
			},
			wantErr: "ErrUnmatchedEnv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewConverter().Convert(context.Background(), tt.input)
			if err == nil {
				t.Fatalf("Convert() expected error, got %q", got)
			}
			if got != "" {
				t.Errorf("Convert() returned partial output %q", got)
			}
			if !tt.check(err) {
				t.Errorf("error = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestConverter_DelimiterErrorQuotesSource(t *testing.T) {
	t.Parallel()

	// The code span is skipped during extraction; the error still points
	// into the page as written.
	_, err := NewConverter().Convert(context.Background(), "`$$` and $$ open")
	var de *latex.DelimiterError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *latex.DelimiterError", err)
	}
	if de.Offset != 9 || de.Remainder != "$$ open" {
		t.Errorf("DelimiterError = {Offset: %d, Remainder: %q}, want {9, %q}", de.Offset, de.Remainder, "$$ open")
	}
}

func TestMaskCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no delimiters", "plain `code`", "plain `code`"},
		{"inline code", "a `$$\\(` b $$", "a `___(` b $$"},
		{"fenced code", "```sh\necho $$\n```\n$$x$$", "```sh\necho __\n```\n$$x$$"},
		{"indented code", "p\n\n    $$\n", "p\n\n    __\n"},
		{"text untouched", "cost $$5 \\(x\\)", "cost $$5 \\(x\\)"},
	}

	c := NewConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := c.maskCode(tt.input)
			if got != tt.want {
				t.Errorf("maskCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if len(got) != len(tt.input) {
				t.Errorf("maskCode changed length: %d != %d", len(got), len(tt.input))
			}
		})
	}
}

func TestConverter_HighlighterError(t *testing.T) {
	t.Parallel()

	boom := errors.New("lexer exploded")
	c := NewConverter(WithHighlighter(&mockHighlighter{err: boom}))
	_, err := c.Convert(context.Background(), "```go\nx\n```")
	var me *MarkdownStructureError
	if !errors.As(err, &me) || !errors.Is(err, boom) {
		t.Errorf("error = %v, want MarkdownStructureError wrapping %v", err, boom)
	}
}

func TestConverter_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConverter().Convert(ctx, "# Hello")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestConverter_ConcurrentUse(t *testing.T) {
	t.Parallel()

	c := NewConverter()
	inputs := []string{"`$a$`", "```latex\nb\n```", "$$c$$", "plain"}
	errs := make(chan error, len(inputs))
	for _, in := range inputs {
		go func(in string) {
			_, err := c.Convert(context.Background(), in)
			errs <- err
		}(in)
	}
	for range inputs {
		if err := <-errs; err != nil {
			t.Errorf("Convert() error: %v", err)
		}
	}
}
