//go:build !tinygo

package mmio

import "sync/atomic"

// The gc toolchain has no volatile intrinsics. Word-sized accesses go through
// sync/atomic; narrower ones through functions the compiler may not inline.

//go:noinline
func load8(p *uint8) uint8 { return *p }

//go:noinline
func store8(p *uint8, v uint8) { *p = v }

//go:noinline
func load16(p *uint16) uint16 { return *p }

//go:noinline
func store16(p *uint16, v uint16) { *p = v }

func load32(p *uint32) uint32 { return atomic.LoadUint32(p) }

func store32(p *uint32, v uint32) { atomic.StoreUint32(p, v) }

// 64-bit registers must be 8-byte aligned on 32-bit platforms.
func load64(p *uint64) uint64 { return atomic.LoadUint64(p) }

func store64(p *uint64, v uint64) { atomic.StoreUint64(p, v) }
