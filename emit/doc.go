// Package emit renders synthesized wrappers as Go source.
//
// The output declares, per block, the handle type Mmio<Name>, its read-only
// projection SharedMmio<Name>, two array declarations that fail to compile if
// the fields do not cover the struct exactly, the constructors, and every
// accessor of the wrapper. The result is gofmt-formatted.
package emit
