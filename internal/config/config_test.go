package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/alnah/go-bakery/internal/decode"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Title = "Notes"
	cfg.BaseURL = "https://example.com/"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Theme != DefaultTheme {
		t.Errorf("Theme = %q, want %q", cfg.Theme, DefaultTheme)
	}
	if cfg.EquationTag != "latex" {
		t.Errorf("EquationTag = %q, want latex", cfg.EquationTag)
	}
	if cfg.OutputDir != "target" {
		t.Errorf("OutputDir = %q, want target", cfg.OutputDir)
	}
	if cfg.Feed.Filename != "atom.xml" {
		t.Errorf("Feed.Filename = %q, want atom.xml", cfg.Feed.Filename)
	}
	if cfg.FrontMatterFormat() != decode.YAML {
		t.Errorf("FrontMatterFormat() = %q, want yaml", cfg.FrontMatterFormat())
	}
	if cfg.HighlightClasses {
		t.Error("HighlightClasses = true, want false")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing title", mutate: func(c *Config) { c.Title = "" }, wantErr: ErrFieldRequired},
		{name: "missing base url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: ErrFieldRequired},
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "/blog" }, wantErr: ErrInvalidValue},
		{name: "title too long", mutate: func(c *Config) { c.Title = strings.Repeat("x", MaxTitleLength+1) }, wantErr: ErrFieldTooLong},
		{name: "equation tag with space", mutate: func(c *Config) { c.EquationTag = "la tex" }, wantErr: ErrInvalidValue},
		{name: "unknown front matter", mutate: func(c *Config) { c.FrontMatter = "json" }, wantErr: ErrInvalidValue},
		{name: "toml front matter", mutate: func(c *Config) { c.FrontMatter = "toml" }},
		{name: "bad date format", mutate: func(c *Config) { c.DateFormat = "[YYYY" }},
		{name: "absolute output dir", mutate: func(c *Config) { c.OutputDir = "/tmp/out" }, wantErr: ErrInvalidValue},
		{name: "escaping output dir", mutate: func(c *Config) { c.OutputDir = "../out" }, wantErr: ErrInvalidValue},
		{name: "escaping sass source", mutate: func(c *Config) {
			c.Sass.Targets = map[string]string{"main.css": "../../etc/passwd"}
		}, wantErr: ErrInvalidValue},
		{name: "nested sass target", mutate: func(c *Config) {
			c.Sass.Targets = map[string]string{"site/main.css": "main.scss"}
		}},
		{name: "escaping load path", mutate: func(c *Config) { c.Sass.LoadPaths = []string{"../vendor"} }, wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.name == "bad date format" {
				if err == nil {
					t.Fatal("expected date format error")
				}
				return
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "toml",
			files: map[string]string{"site/bakery.toml": `
base_url = "https://example.com"
title = "Notes"
theme = "monokai"

[macros]
'\RR' = '\mathbb{R}'

[feed]
author = "Ada"

[sass]
compressed = true
targets = { "main.css" = "main.scss" }
`},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Theme != "monokai" || cfg.Feed.Author != "Ada" || !cfg.Sass.Compressed {
					t.Errorf("cfg = %+v", cfg)
				}
				if cfg.Macros[`\RR`] != `\mathbb{R}` {
					t.Errorf("Macros = %v", cfg.Macros)
				}
				if cfg.Sass.Targets["main.css"] != "main.scss" {
					t.Errorf("Sass.Targets = %v", cfg.Sass.Targets)
				}
				if cfg.OutputDir != DefaultOutputDir || cfg.Sass.Binary != DefaultSassBinary {
					t.Errorf("defaults not applied: %+v", cfg)
				}
			},
		},
		{
			name: "yaml",
			files: map[string]string{"site/bakery.yaml": `
base_url: https://example.com
title: Notes
front_matter: toml
highlight_classes: true
`},
			check: func(t *testing.T, cfg *Config) {
				if cfg.FrontMatterFormat() != decode.TOML || !cfg.HighlightClasses {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name: "toml wins over yaml",
			files: map[string]string{
				"site/bakery.toml": "base_url = 'https://a.example'\ntitle = 'A'\n",
				"site/bakery.yaml": "base_url: https://b.example\ntitle: B\n",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Title != "A" {
					t.Errorf("Title = %q, want A", cfg.Title)
				}
			},
		},
		{
			name:    "missing file",
			files:   map[string]string{"site/other.toml": ""},
			wantErr: ErrConfigNotFound,
		},
		{
			name:    "unknown key rejected",
			files:   map[string]string{"site/bakery.toml": "base_url = 'https://a.example'\ntitle = 'A'\nbogus = 1\n"},
			wantErr: ErrConfigParse,
		},
		{
			name:    "unknown yaml key rejected",
			files:   map[string]string{"site/bakery.yaml": "base_url: https://a.example\ntitle: A\nbogus: 1\n"},
			wantErr: ErrConfigParse,
		},
		{
			name:    "validation runs",
			files:   map[string]string{"site/bakery.toml": "title = 'A'\n"},
			wantErr: ErrFieldRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			for name, content := range tt.files {
				if err := afero.WriteFile(fs, name, []byte(content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := Load(fs, "site")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}
