// Package schema turns register-block declarations into validated descriptors.
//
// A register block is declared as a Go struct:
//
//	//mmio:block const_ptr
//	type Uart struct {
//		_       structs.HostLayout
//		Control uint32
//		Status  uint32 `mmio:"PureRead"`
//		_       uint32
//		Bank    Bank `mmio:"Inner"`
//	}
//
// The directive line lists struct-level options (no_ctors, const_ptr,
// const_inner, nosend). Each field's mmio tag lists access tokens:
//
//   - PureRead: reading has no side effects
//   - Read: reading has side effects (e.g. pops a FIFO)
//   - Write, Modify: writable, read-modify-writable
//   - Inner: the field is a nested register block
//
// A field without a tag defaults to PureRead,Write,Modify. Fields named _, with a
// leading underscore, or with a "reserved" prefix are padding and get no
// accessors. The legacy spellings RO, RW and inner are still accepted.
//
// [Parse] turns raw declarations (collected by the source package) into a [Set];
// [Validate] checks it against the target architecture's layout rules.
package schema
