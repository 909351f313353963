// Package trace records what the compiler is doing so that slow or stuck
// builds can be diagnosed.
//
// Enable it from the command line:
//
//	jasmc build --trace=- --trace-level=detail
//
// Tracers: Nop (disabled), StreamTracer (text or NDJSON to a writer),
// RingTracer (last N events kept in memory and dumped when a build fails),
// MultiTracer (fan-out for --trace-mode=both).
//
// Levels gate scopes: phase shows driver and unit spans, detail adds passes,
// debug adds single statements.
//
// Propagation goes through context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.StartSpan(ctx, trace.ScopePass, "emit")
//	defer span.End("")
package trace
