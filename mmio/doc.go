// Package mmio is the runtime support for handles generated by mmiogen.
//
// A register block is a Go struct marked with a //mmio:block directive. For every
// block the generator emits a handle type Mmio<Name> that embeds [Handle] and a
// read-only projection SharedMmio<Name>. Generated accessors reach registers
// through [Load] and [Store], which the compiler neither elides nor merges.
//
// # Borrowing
//
// Accessing a nested block through its parent yields a handle tied to the parent.
// Any exclusive operation on the parent (a write, a side-effecting read, a modify,
// or handing out another nested handle) invalidates every handle previously tied
// to it. Using an invalidated handle panics with a [*BorrowError]. Stolen and
// cloned handles carry no tie and are never invalidated; keeping two of them in
// use for the same registers is the caller's responsibility.
//
// Pure reads on a parent do not invalidate nested handles.
//
// Handles are not safe for concurrent use. A handle whose type implements
// [Sendable] may be handed to another goroutine.
//
// # Construction
//
// Generated constructors call [New] and [NewAt]. Blocks declared with no_ctors
// get no exported constructors; custom ones are written on top of [New]:
//
//	func UART0() *MmioUart {
//		return mmio.NewAt[MmioUart](0x4000_1000)
//	}
package mmio
