package assets

import "errors"

// Sentinel errors for asset operations.
var (
	// ErrStarterNotFound indicates the requested starter does not exist.
	ErrStarterNotFound = errors.New("starter not found")

	// ErrInvalidAssetName indicates the asset name contains invalid characters
	// such as path separators or traversal sequences.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrSiteExists indicates the target directory already holds files.
	ErrSiteExists = errors.New("directory is not empty")

	// ErrAssetRead indicates an I/O error occurred while reading an asset file.
	ErrAssetRead = errors.New("failed to read asset")
)
