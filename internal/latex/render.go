package latex

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// Sentinel errors for equation rendering.
var (
	ErrEquationRender     = errors.New("invalid LaTeX equation")
	ErrUnbalancedBraces   = errors.New("unbalanced braces")
	ErrUnmatchedEnv       = errors.New("unmatched environment")
	ErrUnbalancedLeft     = errors.New("unbalanced \\left/\\right")
	ErrTrailingBackslash  = errors.New("trailing backslash")
	ErrMacroArgument      = errors.New("missing macro argument")
	ErrMacroLimitExceeded = errors.New("macro expansion limit exceeded")
)

// Macros maps a control sequence (e.g. `\RR`) to its expansion.
// Expansions may reference arguments as #1 through #9.
type Macros map[string]string

// Renderer turns an equation source into an HTML fragment.
// Implementations must be deterministic for identical source and macros,
// and safe for concurrent use.
type Renderer interface {
	Render(source string, display bool, macros Macros) (string, error)
}

// RendererFunc adapts an ordinary function to the Renderer interface.
type RendererFunc func(source string, display bool, macros Macros) (string, error)

// Render calls f(source, display, macros).
func (f RendererFunc) Render(source string, display bool, macros Macros) (string, error) {
	return f(source, display, macros)
}

// EquationRenderError carries the offending equation source.
type EquationRenderError struct {
	Source  string
	Display bool
	Err     error
}

func (e *EquationRenderError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrEquationRender, snippet(e.Source), e.Err)
}

func (e *EquationRenderError) Unwrap() []error { return []error{ErrEquationRender, e.Err} }

// RenderSpans renders every span in order and concatenates the result.
// Literal spans are copied through; the first equation failure aborts.
func RenderSpans(spans []Span, r Renderer, macros Macros) (string, error) {
	var b strings.Builder
	for _, s := range spans {
		if s.Kind == Literal {
			b.WriteString(s.Text)
			continue
		}
		out, err := RenderEquation(r, s.Text, s.Display(), macros)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// RenderEquation renders one equation, wrapping failures in an
// EquationRenderError that names the source.
func RenderEquation(r Renderer, source string, display bool, macros Macros) (string, error) {
	out, err := r.Render(source, display, macros)
	if err != nil {
		var re *EquationRenderError
		if errors.As(err, &re) {
			return "", err
		}
		return "", &EquationRenderError{Source: source, Display: display, Err: err}
	}
	return out, nil
}

// defaultExpansionLimit bounds macro expansion so recursive definitions fail.
const defaultExpansionLimit = 1000

// MarkupRenderer renders equations as KaTeX auto-render markup: the
// source is macro-expanded, checked for structural errors, escaped, and
// wrapped in \( \) or \[ \] inside a span classed by mode.
type MarkupRenderer struct {
	// ExpansionLimit caps macro expansions per equation (0 = default).
	ExpansionLimit int
}

// Compile-time interface check.
var _ Renderer = MarkupRenderer{}

// Render implements Renderer.
func (m MarkupRenderer) Render(source string, display bool, macros Macros) (string, error) {
	limit := m.ExpansionLimit
	if limit <= 0 {
		limit = defaultExpansionLimit
	}

	tex, err := ExpandMacros(source, macros, limit)
	if err != nil {
		return "", &EquationRenderError{Source: source, Display: display, Err: err}
	}
	if err := Validate(tex); err != nil {
		return "", &EquationRenderError{Source: source, Display: display, Err: err}
	}

	escaped := html.EscapeString(strings.TrimSpace(tex))
	if display {
		return `<span class="math display">\[` + escaped + `\]</span>`, nil
	}
	return `<span class="math inline">\(` + escaped + `\)</span>`, nil
}

// Validate checks TeX source for structural errors a client-side renderer
// would reject: unbalanced braces, mismatched \begin/\end environments,
// unbalanced \left/\right and a dangling backslash.
func Validate(tex string) error {
	depth := 0
	leftRight := 0
	var envs []string

	for i := 0; i < len(tex); {
		switch tex[i] {
		case '{':
			depth++
			i++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unexpected '}' at offset %d", ErrUnbalancedBraces, i)
			}
			i++
		case '\\':
			name, n := controlSequence(tex[i:])
			if name == `\` {
				return ErrTrailingBackslash
			}
			i += n
			switch name {
			case `\left`:
				leftRight++
			case `\right`:
				leftRight--
				if leftRight < 0 {
					return fmt.Errorf("%w: \\right without \\left", ErrUnbalancedLeft)
				}
			case `\begin`, `\end`:
				env, m, err := groupArgument(tex[i:])
				if err != nil {
					return fmt.Errorf("%w: %s needs an environment name", ErrUnmatchedEnv, name)
				}
				i += m
				if name == `\begin` {
					envs = append(envs, env)
					continue
				}
				if len(envs) == 0 || envs[len(envs)-1] != env {
					return fmt.Errorf("%w: \\end{%s}", ErrUnmatchedEnv, env)
				}
				envs = envs[:len(envs)-1]
			}
		default:
			i++
		}
	}

	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed '{'", ErrUnbalancedBraces, depth)
	}
	if leftRight != 0 {
		return fmt.Errorf("%w: %d unclosed \\left", ErrUnbalancedLeft, leftRight)
	}
	if len(envs) > 0 {
		return fmt.Errorf("%w: \\begin{%s} not closed", ErrUnmatchedEnv, envs[len(envs)-1])
	}
	return nil
}
