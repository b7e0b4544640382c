package sim

import (
	"context"
	"unsafe"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/mmiogen/errors"
)

// PageSize is the size of a wasm memory page.
const PageSize = 65536

// MaxPages is the largest memory a 32-bit wasm module can declare.
const MaxPages = 65536

// Memory is a block of simulated register memory.
type Memory struct {
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
	view    []byte
	regions []Region
	next    uint32
}

// Region is a named, mapped range of a Memory.
type Region struct {
	mem    *Memory
	Name   string
	Offset uint32
	Size   uint32
}

// New instantiates a memory of pages wasm pages.
func New(ctx context.Context, pages uint32) (*Memory, error) {
	if pages == 0 || pages > MaxPages {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Value(pages).
			Detail("memory must have between 1 and %d pages", MaxPages).Build()
	}

	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().WithMemoryLimitPages(pages))
	mod, err := rt.InstantiateWithConfig(ctx, memoryModule(pages), wazero.NewModuleConfig().WithName("mmio-sim"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, "instantiate memory module")
	}

	mem := mod.ExportedMemory(ExportName)
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Detail("module does not export memory %q", ExportName).Build()
	}
	view, ok := mem.Read(0, mem.Size())
	if !ok {
		_ = rt.Close(ctx)
		return nil, errors.New(errors.PhaseRuntime, errors.KindOutOfBounds).
			Detail("cannot view %d bytes of memory", mem.Size()).Build()
	}

	return &Memory{runtime: rt, module: mod, mem: mem, view: view}, nil
}

// Close releases the memory. Handles into it must not be used afterwards.
func (m *Memory) Close(ctx context.Context) error {
	m.view = nil
	m.regions = nil
	return m.runtime.Close(ctx)
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.mem.Size()
}

// Map reserves size bytes aligned to align and returns the region.
func (m *Memory) Map(name string, size, align uint32) (Region, error) {
	if size == 0 {
		return Region{}, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Path(name).Detail("cannot map an empty region").Build()
	}
	if align == 0 || align&(align-1) != 0 {
		return Region{}, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Path(name).Value(align).
			Detail("alignment %d is not a power of two", align).Build()
	}
	offset := (m.next + align - 1) &^ (align - 1)
	if uint64(offset)+uint64(size) > uint64(m.Size()) {
		return Region{}, errors.New(errors.PhaseRuntime, errors.KindAllocation).
			Path(name).
			Detail("cannot map %d bytes at offset %d in %d bytes of memory", size, offset, m.Size()).Build()
	}
	m.next = offset + size

	r := Region{mem: m, Name: name, Offset: offset, Size: size}
	m.regions = append(m.regions, r)
	return r, nil
}

// Regions returns the mapped regions in mapping order.
func (m *Memory) Regions() []Region {
	return append([]Region(nil), m.regions...)
}

// Snapshot copies the mapped part of the memory.
func (m *Memory) Snapshot() []byte {
	return append([]byte(nil), m.view[:m.next]...)
}

// Pointer returns the host address of the region's first byte.
func (r Region) Pointer() unsafe.Pointer {
	return unsafe.Pointer(&r.mem.view[r.Offset])
}

// Addr is Pointer as an integer address.
func (r Region) Addr() uintptr {
	return uintptr(r.Pointer())
}

// Bytes returns a copy of the region's contents.
func (r Region) Bytes() []byte {
	return append([]byte(nil), r.mem.view[r.Offset:r.Offset+r.Size]...)
}

func (r Region) check(off, width uint32) error {
	if uint64(off)+uint64(width) > uint64(r.Size) {
		return errors.OutOfBounds(errors.PhaseRuntime, []string{r.Name}, int(off), int(r.Size))
	}
	return nil
}

// Read reads a little-endian value of width 1, 2, 4 or 8 bytes at off.
func (r Region) Read(off, width uint32) (uint64, error) {
	if err := r.check(off, width); err != nil {
		return 0, err
	}
	at := r.Offset + off
	switch width {
	case 1:
		v, _ := r.mem.mem.ReadByte(at)
		return uint64(v), nil
	case 2:
		v, _ := r.mem.mem.ReadUint16Le(at)
		return uint64(v), nil
	case 4:
		v, _ := r.mem.mem.ReadUint32Le(at)
		return uint64(v), nil
	case 8:
		v, _ := r.mem.mem.ReadUint64Le(at)
		return v, nil
	}
	return 0, badWidth(r, width)
}

// Write writes a little-endian value of width 1, 2, 4 or 8 bytes at off.
func (r Region) Write(off, width uint32, v uint64) error {
	if err := r.check(off, width); err != nil {
		return err
	}
	at := r.Offset + off
	switch width {
	case 1:
		r.mem.mem.WriteByte(at, byte(v))
	case 2:
		r.mem.mem.WriteUint16Le(at, uint16(v))
	case 4:
		r.mem.mem.WriteUint32Le(at, uint32(v))
	case 8:
		r.mem.mem.WriteUint64Le(at, v)
	default:
		return badWidth(r, width)
	}
	return nil
}

// ReadU8 reads an 8-bit register at off.
func (r Region) ReadU8(off uint32) (uint8, error) {
	v, err := r.Read(off, 1)
	return uint8(v), err
}

// ReadU16 reads a 16-bit register at off.
func (r Region) ReadU16(off uint32) (uint16, error) {
	v, err := r.Read(off, 2)
	return uint16(v), err
}

// ReadU32 reads a 32-bit register at off.
func (r Region) ReadU32(off uint32) (uint32, error) {
	v, err := r.Read(off, 4)
	return uint32(v), err
}

// ReadU64 reads a 64-bit register at off.
func (r Region) ReadU64(off uint32) (uint64, error) {
	return r.Read(off, 8)
}

func (r Region) WriteU8(off uint32, v uint8) error   { return r.Write(off, 1, uint64(v)) }
func (r Region) WriteU16(off uint32, v uint16) error { return r.Write(off, 2, uint64(v)) }
func (r Region) WriteU32(off, v uint32) error        { return r.Write(off, 4, uint64(v)) }
func (r Region) WriteU64(off uint32, v uint64) error { return r.Write(off, 8, v) }

// Fill sets every byte of the region to b.
func (r Region) Fill(b byte) {
	view := r.mem.view[r.Offset : r.Offset+r.Size]
	for i := range view {
		view[i] = b
	}
}

func badWidth(r Region, width uint32) error {
	return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
		Path(r.Name).Value(width).
		Detail("unsupported access width %d", width).Build()
}
