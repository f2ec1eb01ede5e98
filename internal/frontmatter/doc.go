// Package frontmatter splits a page source into its metadata block and
// Markdown body.
//
// A block delimited by "---" lines is decoded in the site's configured
// format (YAML unless configured otherwise); a block delimited by "+++"
// lines is always TOML. The keys title, description, template, date and
// draft are lifted into Document fields; every other key is kept in
// Document.Extra. A line holding only "<!--more-->" ends the excerpt.
package frontmatter
