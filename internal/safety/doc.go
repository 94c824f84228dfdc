// Package safety decides whether a directory is safe to scaffold into.
//
// A directory is safe when every entry in it is either harmless metadata
// (version control, IDE settings, docs, license) or a stale installer error
// log left behind by an earlier failed run. Stale logs are deleted once the
// directory has been judged safe; on the unsafe path nothing is touched.
package safety
