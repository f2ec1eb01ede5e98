// Package decode wraps YAML and TOML parsing to isolate the external
// dependencies. Front matter and site configuration both go through it.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// MaxInputSize limits input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("decode: nil or empty data")
	ErrNilDestination = errors.New("decode: nil destination pointer")
	ErrInputTooLarge  = errors.New("decode: input exceeds maximum size")
	ErrUnknownFormat  = errors.New("decode: unknown format")
)

// Format names a structured data syntax.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ParseFormat accepts "yaml", "yml" and "toml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes data in the given format into v.
func Unmarshal(format Format, data []byte, v any) error {
	return unmarshal(format, data, v, false)
}

// UnmarshalStrict is Unmarshal that rejects unknown fields.
func UnmarshalStrict(format Format, data []byte, v any) error {
	return unmarshal(format, data, v, true)
}

func unmarshal(format Format, data []byte, v any, strict bool) error {
	if err := validateInput(data, v); err != nil {
		return err
	}

	var err error
	switch format {
	case YAML:
		if strict {
			err = yaml.UnmarshalWithOptions(data, v, yaml.Strict())
		} else {
			err = yaml.Unmarshal(data, v)
		}
	case TOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		err = dec.Decode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", format, err)
	}
	return nil
}
