package main

import (
	"errors"
	"os"

	"github.com/alnah/go-bakery"
	"github.com/alnah/go-bakery/internal/assets"
	"github.com/alnah/go-bakery/internal/config"
	"github.com/alnah/go-bakery/internal/stage"
)

// Exit codes for the bakery CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful build
	ExitGeneral = 1 // Build failure or unexpected error
	ExitUsage   = 2 // Invalid flags, arguments or configuration
	ExitIO      = 3 // Site not found, permission denied
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// A failed stage is a build failure whatever its cause (exit 1)
	var agg *stage.AggregateError
	if errors.As(err, &agg) {
		return ExitGeneral
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrFieldRequired) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, assets.ErrStarterNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrSiteExists) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, bakery.ErrNotDirectory) {
		return ExitIO
	}

	return ExitGeneral
}
