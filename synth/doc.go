// Package synth derives the accessor method set of a register block.
//
// For every accessible field the method set depends on the field's shape and
// capability set:
//
//	scalar        PointerToF ReadF WriteF ModifyF
//	array         the same with an index, checked and Unchecked
//	block         F FShared StealF StealFShared
//	block array   the same with an index, checked and Unchecked, plus FArrayLen
//
// Read methods exist only for readable fields, Write only for writable ones,
// Modify only when both are present and Modify was requested. Each method is
// tagged with the kind of access it performs on the handle: shared methods
// never invalidate nested handles, exclusive ones do.
package synth
