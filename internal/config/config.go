// Package config loads and validates the site configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/alnah/go-bakery/internal/dateutil"
	"github.com/alnah/go-bakery/internal/decode"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrFieldTooLong   = errors.New("field exceeds maximum length")
	ErrFieldRequired  = errors.New("required field missing")
	ErrInvalidValue   = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxTitleLength    = 200
	MaxURLLength      = 2048 // Browser limit
	MaxTagLength      = 50
	MaxFilenameLength = 255
)

// Defaults applied by Load and DefaultConfig.
const (
	DefaultTheme       = "github"
	DefaultEquationTag = "latex"
	DefaultOutputDir   = "target"
	DefaultFeedFile    = "atom.xml"
	DefaultSassBinary  = "sass"
)

// FileNames lists the config files Load looks for, in order.
var FileNames = []string{"bakery.toml", "bakery.yaml", "bakery.yml"}

// Config holds the site configuration.
type Config struct {
	BaseURL          string            `yaml:"base_url" toml:"base_url"`
	Title            string            `yaml:"title" toml:"title"`
	Theme            string            `yaml:"theme" toml:"theme"`                         // Highlighting style name
	HighlightClasses bool              `yaml:"highlight_classes" toml:"highlight_classes"` // CSS classes instead of inline styles
	EquationTag      string            `yaml:"equation_tag" toml:"equation_tag"`
	Macros           map[string]string `yaml:"macros" toml:"macros"`
	DateFormat       string            `yaml:"date_format" toml:"date_format"`
	FrontMatter      string            `yaml:"front_matter" toml:"front_matter"` // Format of "---" blocks
	OutputDir        string            `yaml:"output_dir" toml:"output_dir"`
	UnsafeHTML       bool              `yaml:"unsafe_html" toml:"unsafe_html"` // Keep raw HTML in Markdown
	Feed             FeedConfig        `yaml:"feed" toml:"feed"`
	Sass             SassConfig        `yaml:"sass" toml:"sass"`
}

// FeedConfig defines Atom feed options.
type FeedConfig struct {
	Filename string `yaml:"filename" toml:"filename"`
	Author   string `yaml:"author" toml:"author"`
}

// SassConfig defines style compilation options.
type SassConfig struct {
	Compressed bool              `yaml:"compressed" toml:"compressed"`
	Targets    map[string]string `yaml:"targets" toml:"targets"` // Output CSS name -> source under sass/
	LoadPaths  []string          `yaml:"load_paths" toml:"load_paths"`
	Binary     string            `yaml:"binary" toml:"binary"` // Dart Sass executable
}

// DefaultConfig returns a configuration with every default applied and no
// required field set.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
	if c.EquationTag == "" {
		c.EquationTag = DefaultEquationTag
	}
	if c.DateFormat == "" {
		c.DateFormat = dateutil.DefaultDateFormat
	}
	if c.FrontMatter == "" {
		c.FrontMatter = string(decode.YAML)
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Feed.Filename == "" {
		c.Feed.Filename = DefaultFeedFile
	}
	if c.Sass.Binary == "" {
		c.Sass.Binary = DefaultSassBinary
	}
}

// FrontMatterFormat returns the decoder used for "---" blocks.
func (c *Config) FrontMatterFormat() decode.Format {
	f, err := decode.ParseFormat(c.FrontMatter)
	if err != nil {
		return decode.YAML
	}
	return f
}

// Validate checks required fields, value shapes and lengths.
// Called automatically by Load, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("%w: title", ErrFieldRequired)
	}
	if err := validateFieldLength("title", c.Title, MaxTitleLength); err != nil {
		return err
	}
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base_url", ErrFieldRequired)
	}
	if err := validateFieldLength("base_url", c.BaseURL, MaxURLLength); err != nil {
		return err
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: base_url must be an absolute URL, got %q", ErrInvalidValue, c.BaseURL)
	}

	if err := validateFieldLength("equation_tag", c.EquationTag, MaxTagLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.EquationTag, " \t\n") {
		return fmt.Errorf("%w: equation_tag must be a single word, got %q", ErrInvalidValue, c.EquationTag)
	}

	if _, err := decode.ParseFormat(c.FrontMatter); err != nil {
		return fmt.Errorf("%w: front_matter must be yaml or toml, got %q", ErrInvalidValue, c.FrontMatter)
	}
	if _, err := dateutil.ParseDateFormat(c.DateFormat); err != nil {
		return fmt.Errorf("date_format: %w", err)
	}

	if err := validateRelative("output_dir", c.OutputDir); err != nil {
		return err
	}
	if err := validateFieldLength("feed.filename", c.Feed.Filename, MaxFilenameLength); err != nil {
		return err
	}
	if err := validateRelative("feed.filename", c.Feed.Filename); err != nil {
		return err
	}

	for out, in := range c.Sass.Targets {
		if err := validateRelative(fmt.Sprintf("sass.targets[%s]", out), out); err != nil {
			return err
		}
		if err := validateRelative(fmt.Sprintf("sass.targets[%s] source", out), in); err != nil {
			return err
		}
	}
	for i, p := range c.Sass.LoadPaths {
		if err := validateRelative(fmt.Sprintf("sass.load_paths[%d]", i), p); err != nil {
			return err
		}
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateRelative rejects empty, absolute and escaping paths.
func validateRelative(fieldName, p string) error {
	if p == "" {
		return fmt.Errorf("%w: %s", ErrFieldRequired, fieldName)
	}
	p = strings.ReplaceAll(p, "\\", "/")
	clean := path.Clean(p)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return fmt.Errorf("%w: %s must be a relative path inside the site, got %q", ErrInvalidValue, fieldName, p)
	}
	return nil
}

// Load reads the first config file from FileNames found in dir, decodes it
// strictly, applies defaults and validates it.
// Returns ErrConfigNotFound if no config file exists (no silent fallback).
func Load(fsys afero.Fs, dir string) (*Config, error) {
	for _, name := range FileNames {
		p := path.Join(dir, name)
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		format := decode.TOML
		if !strings.HasSuffix(name, ".toml") {
			format = decode.YAML
		}

		var cfg Config
		if err := decode.UnmarshalStrict(format, data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, p, err)
		}
		cfg.applyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		return &cfg, nil
	}
	return nil, fmt.Errorf("%w: tried %s in %s", ErrConfigNotFound, strings.Join(FileNames, ", "), dir)
}
