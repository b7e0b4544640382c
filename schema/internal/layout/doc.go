// Package layout computes the memory layout Go gives a register block.
//
// Register blocks are mapped onto WIT types: integers onto the matching WIT
// primitive, arrays onto tuples, blocks onto records. The record rules of the
// Canonical ABI are the C layout rules, which gc also applies to structs, with
// two differences handled here:
//   - alignment is capped at the target's maximum alignment (uint64 aligns to 4
//     on 32-bit targets);
//   - a non-empty struct whose last field has size zero gets one byte of padding.
//
// # Usage
//
//	c := layout.NewCalculator(layout.MustArch("arm"))
//	info := c.Calculate(recordTypeDef)
//	// info.Size, info.Align, info.Offsets available
//
// This package is internal to schema.
package layout
