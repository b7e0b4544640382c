package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.bytecodealliance.org/wit"
)

func record(fields ...wit.Type) *wit.TypeDef {
	r := &wit.Record{}
	for _, f := range fields {
		r.Fields = append(r.Fields, wit.Field{Name: "f", Type: f})
	}
	return &wit.TypeDef{Kind: r}
}

func array(elem wit.Type, n int) *wit.TypeDef {
	types := make([]wit.Type, n)
	for i := range types {
		types[i] = elem
	}
	return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}
}

func marker() *wit.TypeDef {
	return &wit.TypeDef{Kind: &wit.Tuple{}}
}

func TestCalculatePrimitives(t *testing.T) {
	tests := []struct {
		typ   wit.Type
		name  string
		arch  string
		size  uint32
		align uint32
	}{
		{wit.U8{}, "u8", "amd64", 1, 1},
		{wit.S8{}, "s8", "amd64", 1, 1},
		{wit.U16{}, "u16", "amd64", 2, 2},
		{wit.S16{}, "s16", "amd64", 2, 2},
		{wit.U32{}, "u32", "amd64", 4, 4},
		{wit.S32{}, "s32", "amd64", 4, 4},
		{wit.U64{}, "u64", "amd64", 8, 8},
		{wit.S64{}, "s64", "amd64", 8, 8},
		{wit.U64{}, "u64_arm", "arm", 8, 4},
		{wit.U32{}, "u32_avr", "avr", 4, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCalculator(MustArch(tc.arch))
			info := c.Calculate(tc.typ)
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestCalculateRecord(t *testing.T) {
	c := NewCalculator(MustArch("amd64"))

	t.Run("empty", func(t *testing.T) {
		info := c.Calculate(record())
		if info.Size != 0 || info.Align != 1 {
			t.Errorf("got %+v, want size 0 align 1", info)
		}
	})

	t.Run("marker_only", func(t *testing.T) {
		info := c.Calculate(record(marker()))
		if info.Size != 0 {
			t.Errorf("size: got %d, want 0", info.Size)
		}
	})

	t.Run("uart", func(t *testing.T) {
		bank := record(marker(), wit.U32{}, wit.U32{})
		uart := record(
			marker(),
			wit.U32{},
			array(wit.U32{}, 4),
			array(wit.U32{}, 4),
			array(wit.U32{}, 2),
			wit.U32{},
			wit.U32{},
			wit.U32{},
			bank,
			array(bank, 2),
		)
		info := c.Calculate(uart)
		want := Info{
			Size:    80,
			Align:   4,
			Offsets: []uint32{0, 0, 4, 20, 36, 44, 48, 52, 56, 64},
		}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("layout mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("padding", func(t *testing.T) {
		info := c.Calculate(record(marker(), wit.U8{}, wit.U32{}))
		if info.Size != 8 {
			t.Errorf("size: got %d, want 8", info.Size)
		}
		if diff := cmp.Diff([]uint32{0, 0, 4}, info.Offsets); diff != "" {
			t.Errorf("offsets (-want +got):\n%s", diff)
		}
	})

	t.Run("trailing_zero_size", func(t *testing.T) {
		info := c.Calculate(record(wit.U32{}, marker()))
		if info.Size != 8 {
			t.Errorf("size: got %d, want 8", info.Size)
		}
	})

	t.Run("u64_on_32bit", func(t *testing.T) {
		c32 := NewCalculator(MustArch("386"))
		info := c32.Calculate(record(wit.U32{}, wit.U64{}))
		if info.Size != 12 || info.Align != 4 {
			t.Errorf("got size %d align %d, want 12 and 4", info.Size, info.Align)
		}
	})
}

func TestCalculateCaches(t *testing.T) {
	c := NewCalculator(MustArch("amd64"))
	td := array(wit.U16{}, 3)
	first := c.Calculate(td)
	if _, ok := c.cache[td]; !ok {
		t.Fatal("typedef not cached")
	}
	if second := c.Calculate(td); second.Size != first.Size || first.Size != 6 {
		t.Errorf("sizes %d and %d, want 6", first.Size, second.Size)
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct{ offset, align, want uint32 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{7, 0, 7},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestArches(t *testing.T) {
	if _, ok := LookupArch("pdp11"); ok {
		t.Error("unknown arch found")
	}
	names := Arches()
	if len(names) == 0 || names[0] != "386" {
		t.Errorf("Arches() = %v", names)
	}
	defer func() {
		if recover() == nil {
			t.Error("MustArch did not panic")
		}
	}()
	MustArch("pdp11")
}
