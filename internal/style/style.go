package style

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Sentinel errors for style compilation.
var (
	ErrUnsupportedSource = errors.New("unsupported stylesheet extension")
	ErrSassUnavailable   = errors.New("dart sass unavailable")
	ErrCompile           = errors.New("stylesheet compilation failed")
)

// Source is one stylesheet to compile.
type Source struct {
	Path    string // Slash-separated, relative to the style root
	Content string
}

// Compiler turns a stylesheet source into CSS.
type Compiler interface {
	Compile(ctx context.Context, src Source) (string, error)
}

// CompileError reports a failure for one source.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Path, e.Err)
}

func (e *CompileError) Unwrap() []error { return []error{ErrCompile, e.Err} }

// Router dispatches sources to a compiler by extension.
type Router struct {
	Sass Compiler // .scss and .sass
	CSS  Compiler // .css
}

// Compile implements Compiler.
func (r Router) Compile(ctx context.Context, src Source) (string, error) {
	var c Compiler
	switch strings.ToLower(path.Ext(src.Path)) {
	case ".scss", ".sass":
		c = r.Sass
	case ".css":
		c = r.CSS
	}
	if c == nil {
		return "", &CompileError{Path: src.Path, Err: fmt.Errorf("%w: %q", ErrUnsupportedSource, path.Ext(src.Path))}
	}
	return c.Compile(ctx, src)
}
