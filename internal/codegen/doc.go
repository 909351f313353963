// Package codegen emits the textual stack-machine assembly (.jasm) for one
// compilation unit.
//
// A Generator owns exactly one output stream, one label counter and the
// bookkeeping needed to reject malformed emission sequences. The caller (the
// semantic layer) decides what to emit and in which order; the generator
// trusts resolved symbols for semantic correctness but enforces:
//
//   - label protocol: a label must be reserved before it is branched to or
//     defined, is defined exactly once, and every label reserved inside a
//     method body is defined before the method ends;
//   - sequencing: program, method and print brackets are properly nested;
//   - stream availability: nothing is emitted after Close.
//
// Every violation is returned as an error wrapping one of the package
// sentinels and no text is written for the offending instruction.
//
// Labels are handed out in batches by Reserve and returned as explicit
// handles. Nothing is retrieved from "the last batch", so nested constructs
// can reserve freely as long as they thread their own handles.
package codegen
