package mmio

import "unsafe"

// Layout describes the memory footprint of a register block.
type Layout struct {
	Name  string
	Size  uintptr
	Align uintptr
}

// Block is implemented by generated handle types. Only types embedding [Handle]
// can satisfy it.
type Block interface {
	MmioLayout() Layout
	handle() *Handle
}

// Sendable is implemented by handles that may move to another goroutine.
// Blocks marked nosend, and blocks containing them, do not implement it.
type Sendable interface {
	Block
	MmioSend()
}

// Handle holds a block's base address and the bookkeeping that ties nested
// handles to the handle they were borrowed from.
type Handle struct {
	base   unsafe.Pointer
	parent *Handle
	epoch  uint64
	gen    uint64
}

func (h *Handle) handle() *Handle { return h }

// Base returns the block's base address for a non-mutating access.
// It panics if h was invalidated.
func (h *Handle) Base() unsafe.Pointer {
	h.check()
	return h.base
}

// Exclusive returns the block's base address for a mutating access and
// invalidates all handles borrowed from h. It panics if h was invalidated.
func (h *Handle) Exclusive() unsafe.Pointer {
	h.check()
	h.gen++
	return h.base
}

// View returns a handle on the same block that stays valid until the next
// exclusive access through h.
func (h *Handle) View() Handle {
	h.check()
	return Handle{base: h.base, parent: h, epoch: h.gen}
}

// Valid reports whether h may still be used.
func (h *Handle) Valid() bool {
	for c := h; c.parent != nil; c = c.parent {
		if c.parent.gen != c.epoch {
			return false
		}
	}
	return true
}

func (h *Handle) check() {
	if !h.Valid() {
		panic(&BorrowError{Addr: uintptr(h.base)})
	}
}

// Addr returns the base address of the block b maps.
func Addr(b Block) uintptr {
	return uintptr(b.handle().base)
}

// New returns a handle of type H mapping the block at ptr.
//
// Unsafe: ptr must be aligned for the block and point at memory laid out as it.
func New[H any, P interface {
	*H
	Block
}](ptr unsafe.Pointer) *H {
	h := new(H)
	P(h).handle().base = ptr
	return h
}

// NewAt returns a handle of type H mapping the block at addr. See [New].
func NewAt[H any, P interface {
	*H
	Block
}](addr uintptr) *H {
	return New[H, P](unsafe.Pointer(addr))
}

// Clone returns a second handle of type H sharing h's base address and tie.
//
// Unsafe: both handles can now access the registers without coordination.
func Clone[H any, P interface {
	*H
	Block
}](h *Handle) *H {
	h.check()
	c := new(H)
	*P(c).handle() = Handle{base: h.base, parent: h.parent, epoch: h.epoch}
	return c
}

// Borrow returns a handle of type H for the nested block at offset bytes into h.
// The result is invalidated by the next exclusive access through h.
func Borrow[H any, P interface {
	*H
	Block
}](h *Handle, offset uintptr) *H {
	base := h.Exclusive()
	c := new(H)
	*P(c).handle() = Handle{base: unsafe.Add(base, offset), parent: h, epoch: h.gen}
	return c
}

// Steal returns a handle of type H for the nested block at offset bytes into h
// that is not tied to h.
//
// Unsafe: the caller must not use it concurrently with other handles to the same block.
func Steal[H any, P interface {
	*H
	Block
}](h *Handle, offset uintptr) *H {
	base := h.Exclusive()
	c := new(H)
	P(c).handle().base = unsafe.Add(base, offset)
	return c
}

// View is the read-only counterpart of [Borrow]. The type parameter only
// asserts that H is a generated handle for the nested block.
func View[H any, P interface {
	*H
	Block
}](h *Handle, offset uintptr) Handle {
	base := h.Base()
	return Handle{base: unsafe.Add(base, offset), parent: h, epoch: h.gen}
}

// StealView is the read-only counterpart of [Steal].
func StealView[H any, P interface {
	*H
	Block
}](h *Handle, offset uintptr) Handle {
	return Handle{base: unsafe.Add(h.Base(), offset)}
}
