package mmio

import "unsafe"

// Register is the set of types a register can hold.
type Register interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

// Load reads the register at p. The access is never elided, merged or
// reordered with other Load and Store calls.
func Load[T Register](p *T) T {
	switch unsafe.Sizeof(*p) {
	case 1:
		return T(load8((*uint8)(unsafe.Pointer(p))))
	case 2:
		return T(load16((*uint16)(unsafe.Pointer(p))))
	case 4:
		return T(load32((*uint32)(unsafe.Pointer(p))))
	default:
		return T(load64((*uint64)(unsafe.Pointer(p))))
	}
}

// Store writes v to the register at p. See [Load].
func Store[T Register](p *T, v T) {
	switch unsafe.Sizeof(*p) {
	case 1:
		store8((*uint8)(unsafe.Pointer(p)), uint8(v))
	case 2:
		store16((*uint16)(unsafe.Pointer(p)), uint16(v))
	case 4:
		store32((*uint32)(unsafe.Pointer(p)), uint32(v))
	default:
		store64((*uint64)(unsafe.Pointer(p)), uint64(v))
	}
}
