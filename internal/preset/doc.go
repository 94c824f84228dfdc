// Package preset supplies the dependency lists installed into a new project.
//
// The built-in preset installs Express with a TypeScript toolchain. A preset
// file can replace it: YAML (.yaml, .yml) or JSON with comments (.json,
// .jsonc). Every preset is checked against an embedded JSON schema before it
// reaches the installer.
package preset
