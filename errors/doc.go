// Package errors provides structured error types for the layoutrt library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: a field path, opcode
// names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindMissingAccessor).
//		Path("Optional", "case1").
//		Detail("relative function pointer resolved to nil").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseBuild, path, 10, 5)
//	err := errors.InvalidDiscriminant(errors.PhaseEnumTag, path, 7, 3)
//
// All errors implement the standard error interface and support errors.Is/As.
//
// Only the resilience resolver and the debug-only layout builder return
// *Error. The interpreter's hot path never returns an error: a corrupted
// layout string is undefined behavior and surfaces as a Fault panic instead
// (see the root layoutrt package).
package errors
