// Package render groups the visual outputs of scenario layouts.
//
// The [nodelink] subpackage turns a layout into a Graphviz DOT document
// with pinned coordinates and renders it to SVG or PNG through the
// embedded Graphviz library.
package render
