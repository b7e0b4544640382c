// Package errors provides structured error types for the mmiogen generator.
//
// Errors are categorized by Phase (where generation failed) and Kind (error category).
// The Error type includes the source position of the offending declaration, the
// Block.field path, the Go type involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindInvalidAccess).
//		At(field.Pos).
//		Path("Uart", "status").
//		Detail("Modify requires Read and Write").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.SizeMismatch(block.Pos, "Uart", 20, 24)
//	err := errors.UnknownToken(field.Pos, path, "ReadOnly")
//
// All errors implement the standard error interface and support errors.Is/As.
// Generation stops at the first error; the command prints it prefixed with Pos.
package errors
