// Package format provides the formatter implementations the layout
// engine dispatches to while reconciling a document: a kind-keyed
// registry, a document root formatter, paragraph and plain-text
// formatters, and a Lua-scripted formatter for user-defined segment
// kinds.
//
// Formatters receive a *layout.Context and their scope's State on every
// callback. Container elements are cached in scope state so that
// incremental re-renders reuse the same nodes and the tree is mutated
// minimally.
package format
