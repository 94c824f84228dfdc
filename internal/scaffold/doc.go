// Package scaffold writes the fixed skeleton of an Express service:
// a minimal package.json, an empty .env, and the src/ layout.
//
// Files are written in place with no rollback. Callers are expected to run
// the directory safety check first so nothing pre-existing is overwritten.
package scaffold
