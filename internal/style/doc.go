// Package style compiles site stylesheets.
//
// Sources ending in .scss or .sass go through a Dart Sass process driven
// by godartsass; imports are resolved against the site filesystem, so
// compilation works on any afero.Fs. Plain .css sources are passed
// through, minified when compressed output is requested.
package style
