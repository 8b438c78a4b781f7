// Package loader reads fully resolved domain and plan documents from disk.
//
// Domains are written as CUE documents (types, objects, fluent signatures,
// action templates); plans as strict YAML (action instances with start
// times, initial assignments, goal clauses). The loader performs no
// surface-syntax parsing of any planning language: documents arrive
// already structured, and this package only decodes them and builds the
// corresponding model values, surfacing the model's load-time errors.
package loader
