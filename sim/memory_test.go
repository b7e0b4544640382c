package sim

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"unsafe"

	mmioerrors "github.com/wippyai/mmiogen/errors"
)

func newMemory(t *testing.T, pages uint32) *Memory {
	t.Helper()
	ctx := context.Background()
	m, err := New(ctx, pages)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close(ctx) })
	return m
}

func TestNew(t *testing.T) {
	m := newMemory(t, 2)
	if m.Size() != 2*PageSize {
		t.Errorf("Size = %d, want %d", m.Size(), 2*PageSize)
	}

	for _, pages := range []uint32{0, MaxPages + 1} {
		if _, err := New(context.Background(), pages); !errors.Is(err, &mmioerrors.Error{Phase: mmioerrors.PhaseRuntime, Kind: mmioerrors.KindInvalidInput}) {
			t.Errorf("New(%d): got %v", pages, err)
		}
	}
}

func TestMap(t *testing.T) {
	m := newMemory(t, 1)

	a, err := m.Map("a", 3, 1)
	if err != nil {
		t.Fatalf("Map a: %v", err)
	}
	b, err := m.Map("b", 16, 8)
	if err != nil {
		t.Fatalf("Map b: %v", err)
	}
	if a.Offset != 0 || b.Offset != 8 {
		t.Errorf("offsets = %d, %d, want 0, 8", a.Offset, b.Offset)
	}
	if b.Addr()%8 != 0 {
		t.Errorf("region b at %#x is not 8-byte aligned", b.Addr())
	}
	if got := len(m.Regions()); got != 2 {
		t.Errorf("regions = %d", got)
	}
	if got := len(m.Snapshot()); got != 24 {
		t.Errorf("snapshot length = %d, want 24", got)
	}

	tests := []struct {
		name        string
		size, align uint32
		kind        mmioerrors.Kind
	}{
		{"too big", PageSize, 4, mmioerrors.KindAllocation},
		{"bad align", 4, 3, mmioerrors.KindInvalidInput},
		{"empty", 0, 4, mmioerrors.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Map(tt.name, tt.size, tt.align)
			if !errors.Is(err, &mmioerrors.Error{Phase: mmioerrors.PhaseRuntime, Kind: tt.kind}) {
				t.Errorf("got %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestRegionAccess(t *testing.T) {
	m := newMemory(t, 1)
	r, err := m.Map("regs", 16, 8)
	if err != nil {
		t.Fatal(err)
	}

	// Host-side stores are visible to the wasm accessors and back.
	atomic.StoreUint32((*uint32)(unsafe.Add(r.Pointer(), 4)), 0xcafe_f00d)
	if v, err := r.ReadU32(4); err != nil || v != 0xcafe_f00d {
		t.Errorf("ReadU32 = %#x, %v", v, err)
	}
	if err := r.WriteU32(8, 0x1234_5678); err != nil {
		t.Fatal(err)
	}
	if v := atomic.LoadUint32((*uint32)(unsafe.Add(r.Pointer(), 8))); v != 0x1234_5678 {
		t.Errorf("host load = %#x", v)
	}

	for _, width := range []uint32{1, 2, 4, 8} {
		if err := r.Write(0, width, ^uint64(0)); err != nil {
			t.Fatalf("Write width %d: %v", width, err)
		}
		v, err := r.Read(0, width)
		if err != nil {
			t.Fatalf("Read width %d: %v", width, err)
		}
		if want := ^uint64(0) >> (64 - 8*width); v != want {
			t.Errorf("width %d: got %#x, want %#x", width, v, want)
		}
	}

	if _, err := r.Read(14, 4); !errors.Is(err, &mmioerrors.Error{Phase: mmioerrors.PhaseRuntime, Kind: mmioerrors.KindOutOfBounds}) {
		t.Errorf("read past end: got %v", err)
	}
	if err := r.Write(0, 3, 0); !errors.Is(err, &mmioerrors.Error{Phase: mmioerrors.PhaseRuntime, Kind: mmioerrors.KindInvalidInput}) {
		t.Errorf("bad width: got %v", err)
	}

	if err := r.WriteU16(2, 0xbeef); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.ReadU8(2); v != 0xef {
		t.Errorf("ReadU8 = %#x, want 0xef", v)
	}
	if v, _ := r.ReadU16(2); v != 0xbeef {
		t.Errorf("ReadU16 = %#x", v)
	}
	if err := r.WriteU64(8, 1<<40); err != nil {
		t.Fatal(err)
	}
	if v, _ := r.ReadU64(8); v != 1<<40 {
		t.Errorf("ReadU64 = %#x", v)
	}

	r.Fill(0xff)
	for i, b := range r.Bytes() {
		if b != 0xff {
			t.Fatalf("byte %d = %#x after Fill", i, b)
		}
	}
}

func TestMemoryModule(t *testing.T) {
	got := memoryModule(1)
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x04, 0x01, 0x01, 0x01, 0x01,
		0x07, 0x08, 0x01, 0x04, 'r', 'e', 'g', 's', 0x02, 0x00,
	}
	if string(got) != string(want) {
		t.Errorf("module = % x\nwant     % x", got, want)
	}

	// 200 pages needs two LEB128 bytes per limit.
	if got := memoryModule(200); got[9] != 0x06 {
		t.Errorf("memory section size = %d, want 6", got[9])
	}
}
