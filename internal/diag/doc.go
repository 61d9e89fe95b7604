// Package diag defines the diagnostic model shared by the descriptor loader,
// the layout driver and the CLI.
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier (see codes.go) with a stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – descriptor file, type and member the finding refers to.
//   - Notes – optional extra lines of context.
//
// Producers emit through a Reporter; BagReporter aggregates diagnostics into
// a Bag, which supports sorting and deduplication. Rendering lives in
// internal/report.
package diag
