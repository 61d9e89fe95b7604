// Package fuzztests houses Go fuzz harnesses for the descriptor front end
// (type expressions, TOML/YAML manifests) and the layout core. The goal is to
// guard against panics, hangs and invariant violations on arbitrary input.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/types, internal/manifest, internal/layout,
// internal/diag, internal/testkit.
package fuzztests
