// Package surface computes the public API surface of a TypeScript or
// JavaScript module. It resolves every exported name of an entry point to a
// canonical declaration, following re-exports, renames, and wildcard export
// chains, expands each export into its declaration tree and reference edges,
// and renders the result as a deterministic, diffable report.
package surface
