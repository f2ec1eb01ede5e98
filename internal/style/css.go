package style

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

const cssMediaType = "text/css"

// CSS passes plain stylesheets through, minifying them when Compressed is
// set.
type CSS struct {
	Compressed bool
}

// Compile implements Compiler.
func (c CSS) Compile(ctx context.Context, src Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.Compressed {
		return src.Content, nil
	}
	out, err := Minify(src.Content)
	if err != nil {
		return "", &CompileError{Path: src.Path, Err: err}
	}
	return out, nil
}

// Minify returns the minified form of a CSS document.
func Minify(s string) (string, error) {
	m := minify.New()
	m.AddFunc(cssMediaType, css.Minify)
	return m.String(cssMediaType, s)
}
