// Package assets embeds the starter sites written by "bakery init".
//
// # Directory Structure
//
// Each starter is a complete site directory:
//
//	starters/{name}/
//	├── bakery.toml.tmpl     # Site config, rendered with StarterVars
//	├── content/             # Markdown pages
//	├── templates/           # HTML templates, addressed by relative path
//	├── sass/                # Style sources
//	└── static/              # Copied verbatim
//
// Files ending in .tmpl are executed with text/template and written
// without the suffix; everything else is copied byte for byte.
//
// # Security
//
// Starter names are validated to prevent path traversal.
package assets
