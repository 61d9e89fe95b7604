// Package trace records what a layoutcalc run is doing: one span per run,
// one per descriptor file and, at detail level, one per laid-out type.
//
//	layoutcalc compute --trace=- --trace-level=detail shapes.toml
//
// The tracer travels in the context. Spans nest through the context too, so
// callers never pass parent IDs around:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeFile, "file:shapes.toml")
//	defer span.End("")
//
// At LevelError nothing is streamed; events land in a Ring which the CLI
// dumps only when the run fails.
package trace
