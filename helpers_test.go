package bakery

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/alnah/go-bakery/internal/style"
)

// writeFiles writes files under dir, trimming the leading newline of each
// body so raw string literals can start on their own line.
func writeFiles(t *testing.T, fsys afero.Fs, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := fsys.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("creating %s: %v", filepath.Dir(full), err)
		}
		if err := afero.WriteFile(fsys, full, []byte(strings.TrimPrefix(content, "\n")), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func readFile(t *testing.T, fsys afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, name)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}

// mockCompiler records sources and returns canned CSS.
type mockCompiler struct {
	mu      sync.Mutex
	sources []style.Source
	err     error
}

func (m *mockCompiler) Compile(_ context.Context, src style.Source) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, src)
	if m.err != nil {
		return "", m.err
	}
	return "/* " + src.Path + " */\n" + src.Content, nil
}

func (m *mockCompiler) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// withSite returns a copy of base with overrides applied; an empty
// override value removes the file.
func withSite(base map[string]string, overrides map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// testSite exercises every stage of a build.
var testSite = map[string]string{
	"bakery.toml": `
base_url = "https://example.com/blog/"
title = "Test Site"
highlight_classes = true
date_format = "YYYY-MM-DD"

[macros]
'\RR' = '\mathbb{R}'

[feed]
author = "Ada"

[sass.targets]
"main.css" = "main.scss"
`,
	"content/index.md": `
---
title: Home
template: index.html
---
Welcome to **the site**.
`,
	"content/about.md": `
+++
title = "About"
template = "page.html"
tagline = "hello there"
+++
About ` + "`$\\RR$`" + ` people.
`,
	"content/posts/first.md": `
---
title: First Post
description: The first one
template: page.html
date: 2026-01-02
---
Intro with [a link](/blog/about/).

<!--more-->

` + "```latex\nx^2\n```" + `

` + "```go\nfunc main() {}\n```" + `
`,
	"content/posts/second.md": `
---
title: Second Post
template: page.html
date: 2026-03-04
---
Newer.
`,
	"content/posts/draft.md": `
---
title: Draft
template: page.html
draft: true
date: 2026-05-06
---
Not yet.
`,
	"templates/index.html": `<title>{{ .Site.Title }}</title>
{{ range .Site.Pages }}{{ if .Date }}<li><a href="{{ .URL }}">{{ .Title }}</a> {{ date .Date }}</li>
{{ end }}{{ end }}`,
	"templates/page.html": `<title>{{ .Page.Title }}</title>
{{ with .Page.Extra.tagline }}<p class="tagline">{{ . }}</p>{{ end }}
{{ .Page.Content }}
<link href="{{ absURL "atom.xml" }}">`,
	"static/robots.txt":     "User-agent: *\n",
	"static/img/logo.svg":   "<svg/>",
	"sass/main.scss":        "@use 'colors';\nbody { color: red; }\n",
	"sass/_colors.scss":     "$fg: red;\n",
}
