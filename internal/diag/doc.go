// Package diag defines the diagnostic model shared by the unit loader, the
// semantic pass and the code generator.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form
//     such as SEM3005.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the Location of the offending statement inside a unit.
//   - Notes – optional secondary locations, e.g. "first declared here".
//
// # Emitting diagnostics
//
// Phases report through a Reporter so that emission is decoupled from storage.
// ReportError/ReportWarning return a ReportBuilder; chain WithNote and call
// Emit. BagReporter aggregates into a Bag, which enforces the
// --max-diagnostics limit and supports sorting and deduplication.
// DedupReporter drops repeats before they reach the bag.
//
// Package diag does no IO and no colouring; rendering lives in
// internal/diagfmt.
package diag
