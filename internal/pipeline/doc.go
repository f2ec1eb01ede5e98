// Package pipeline implements the per-page content pipeline.
//
// A page body goes through these steps:
//   - Preprocessing (BOM removal, line ending normalization)
//   - LaTeX extraction outside code spans and code blocks; equations are
//     replaced by placeholders
//   - Markdown to HTML conversion via goldmark, with code nodes routed
//     through a Transformer that renders $...$ code spans and equation
//     fences as equations and highlights other tagged fences with chroma
//   - Placeholder restoration with the rendered equations
//
// Delimiters inside code never open or close an equation. Where goldmark
// copies text into attributes (link and image destinations, titles, alt
// text, heading IDs) the equation source is put back instead of rendered
// markup.
package pipeline
