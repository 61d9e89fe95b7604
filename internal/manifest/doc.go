// Package manifest decodes descriptor files into a types.Table.
//
// A descriptor file is a TOML or YAML document with an optional top-level
// target triple and a list of type declarations:
//
//	target = "x86_64-linux-gnu"
//
//	[[type]]
//	name = "B"
//	kind = "struct"
//	repr = "sequential"
//	fields = [
//	  { name = "first", type = "i64" },
//	  { name = "second", type = "i32" },
//	]
//
// Problems with a single declaration are reported as diagnostics and the
// declaration is skipped; only unreadable or syntactically broken files make
// Load fail.
package manifest
