//go:build tinygo

package mmio

import "runtime/volatile"

func load8(p *uint8) uint8 { return volatile.LoadUint8(p) }

func store8(p *uint8, v uint8) { volatile.StoreUint8(p, v) }

func load16(p *uint16) uint16 { return volatile.LoadUint16(p) }

func store16(p *uint16, v uint16) { volatile.StoreUint16(p, v) }

func load32(p *uint32) uint32 { return volatile.LoadUint32(p) }

func store32(p *uint32, v uint32) { volatile.StoreUint32(p, v) }

func load64(p *uint64) uint64 { return volatile.LoadUint64(p) }

func store64(p *uint64, v uint64) { volatile.StoreUint64(p, v) }
