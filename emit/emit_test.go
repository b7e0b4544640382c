package emit

import (
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/mmiogen/schema"
	"github.com/wippyai/mmiogen/synth"
)

func fld(name, typ, tag string) schema.RawField {
	t := schema.RawType{Expr: typ, Name: typ}
	if strings.HasPrefix(typ, "[") {
		n, elem, _ := strings.Cut(typ[1:], "]")
		t.Array = true
		t.Len, _ = strconv.Atoi(n)
		t.Name = elem
	}
	f := schema.RawField{Name: name, Type: t}
	if tag != "" {
		f.Tag = `mmio:"` + tag + `"`
	}
	return f
}

func block(name string, directive []string, fields ...schema.RawField) schema.RawStruct {
	fields = append([]schema.RawField{fld("_", schema.HostLayoutType, "")}, fields...)
	return schema.RawStruct{Name: name, IsStruct: true, Directive: directive, Fields: fields}
}

func render(t *testing.T, opts Options, blocks ...schema.RawStruct) (string, *ast.File) {
	t.Helper()
	set, err := schema.Parse(schema.RawPackage{Name: "regs", Blocks: blocks, Named: map[string]string{"Status": "uint32"}})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	set.Arch = "amd64"
	if err := schema.Validate(set); err != nil {
		t.Fatalf("validate: %v", err)
	}
	var wrappers []*synth.Wrapper
	for _, b := range set.Blocks {
		w, err := synth.Synthesize(b)
		if err != nil {
			t.Fatalf("synthesize: %v", err)
		}
		wrappers = append(wrappers, w)
	}
	src, err := File(opts, wrappers)
	if err != nil {
		t.Fatalf("File: %v\n%s", err, src)
	}
	f, err := parser.ParseFile(token.NewFileSet(), "regs_mmio.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	return string(src), f
}

func uartBlocks() []schema.RawStruct {
	return []schema.RawStruct{
		block("Uart", nil,
			fld("Control", "uint32", ""),
			fld("Array0", "[4]uint32", ""),
			fld("ArrayReadOnly", "[4]uint32", "PureRead"),
			fld("ArrayWriteOnly", "[2]uint32", "Write"),
			fld("Fifo", "uint32", "Read,Write"),
			fld("Status", "Status", "PureRead"),
			fld("_", "uint32", ""),
			fld("Bank0", "UartBank", "Inner"),
			fld("Banks", "[2]UartBank", "Inner"),
		),
		block("UartBank", nil,
			fld("Data", "uint32", ""),
			fld("Status", "uint32", "PureRead"),
		),
	}
}

// methods returns receiver type -> sorted method names.
func methods(f *ast.File) map[string][]string {
	out := make(map[string][]string)
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil {
			continue
		}
		typ := fn.Recv.List[0].Type
		if star, ok := typ.(*ast.StarExpr); ok {
			typ = star.X
		}
		name := typ.(*ast.Ident).Name
		out[name] = append(out[name], fn.Name.Name)
	}
	for _, names := range out {
		sort.Strings(names)
	}
	return out
}

func funcs(f *ast.File) []string {
	var out []string
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil {
			out = append(out, fn.Name.Name)
		}
	}
	return out
}

func TestFileUart(t *testing.T) {
	src, f := render(t, Options{Package: "regs", Command: "mmiogen -type Uart,UartBank"}, uartBlocks()...)

	if f.Name.Name != "regs" {
		t.Errorf("package = %s", f.Name.Name)
	}
	if !strings.HasPrefix(src, "// Code generated by mmiogen (mmiogen -type Uart,UartBank). DO NOT EDIT.\n") {
		t.Errorf("missing generated header:\n%s", src[:80])
	}

	got := methods(f)
	want := map[string][]string{
		"MmioUart": {
			"Bank0", "Bank0Shared", "Banks", "BanksArrayLen", "BanksShared", "BanksSharedUnchecked", "BanksUnchecked",
			"Clone", "MmioLayout", "MmioSend",
			"ModifyArray0", "ModifyArray0Unchecked", "ModifyControl",
			"PointerToArray0", "PointerToArrayReadOnly", "PointerToArrayWriteOnly", "PointerToControl", "PointerToFifo", "PointerToStatus",
			"ReadArray0", "ReadArray0Unchecked", "ReadArrayReadOnly", "ReadArrayReadOnlyUnchecked", "ReadControl", "ReadFifo", "ReadStatus",
			"Shared",
			"StealBank0", "StealBank0Shared", "StealBanks", "StealBanksShared", "StealBanksSharedUnchecked", "StealBanksUnchecked",
			"WriteArray0", "WriteArray0Unchecked", "WriteArrayWriteOnly", "WriteArrayWriteOnlyUnchecked", "WriteControl", "WriteFifo",
		},
		"SharedMmioUart": {
			"Bank0Shared", "BanksArrayLen", "BanksShared", "BanksSharedUnchecked",
			"PointerToArray0", "PointerToArrayReadOnly", "PointerToControl", "PointerToStatus",
			"ReadArray0", "ReadArray0Unchecked", "ReadArrayReadOnly", "ReadArrayReadOnlyUnchecked", "ReadControl", "ReadStatus",
			"StealBank0Shared", "StealBanksShared", "StealBanksSharedUnchecked",
		},
		"MmioUartBank": {
			"Clone", "MmioLayout", "MmioSend", "ModifyData",
			"PointerToData", "PointerToStatus", "ReadData", "ReadStatus", "Shared", "WriteData",
		},
		"SharedMmioUartBank": {"PointerToData", "PointerToStatus", "ReadData", "ReadStatus"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("method sets (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"NewMmioUart", "NewMmioUartAt", "NewMmioUartBank", "NewMmioUartBankAt"}, funcs(f)); diff != "" {
		t.Errorf("constructors (-want +got):\n%s", diff)
	}

	snippets := []string{
		"_ [mmioUartFieldBytes - unsafe.Sizeof(Uart{})]struct{}",
		"_ [unsafe.Sizeof(Uart{}) - mmioUartFieldBytes]struct{}",
		"unsafe.Sizeof(*new([4]uint32))",
		"return mmio.Load(&(*Uart)(m.Base()).Control)",
		"return mmio.Load(&(*Uart)(m.Exclusive()).Fifo)",
		"mmio.Store(&(*Uart)(m.Exclusive()).Array0[i], value)",
		"return 0, &mmio.OutOfBoundsError{Index: i, Len: 4}",
		"value, err := m.ReadArray0(i)",
		"m.WriteArray0Unchecked(i, f(value))",
		"return mmio.Borrow[MmioUartBank](&m.Handle, unsafe.Offsetof(Uart{}.Bank0))",
		"return mmio.Steal[MmioUartBank](&m.Handle, unsafe.Offsetof(Uart{}.Banks)",
		"return SharedMmioUartBank{h: mmio.View[MmioUartBank](&s.h, unsafe.Offsetof(Uart{}.Bank0))}",
		"return SharedMmioUartBank{}, &mmio.OutOfBoundsError{Index: i, Len: 2}",
		"return mmio.Load(&(*Uart)(s.h.Base()).Status)",
		"return &(*Uart)(m.Exclusive()).Array0[0]",
		"return &(*Uart)(m.Exclusive()).Control",
		"return &(*Uart)(s.h.Base()).Control",
		"_ mmio.Sendable = (*MmioUart)(nil)",
	}
	for _, s := range snippets {
		if !strings.Contains(src, s) {
			t.Errorf("generated source lacks %q", s)
		}
	}
}

func TestFileOptions(t *testing.T) {
	leaf := block("Leaf", []string{"nosend", "no_ctors"}, fld("Value", "uint8", ""), fld("_", "[3]uint8", ""))
	top := block("Top", []string{"const_ptr", "const_inner"}, fld("Ctrl", "uint32", ""), fld("Leaf", "Leaf", "Inner"))
	src, f := render(t, Options{Package: "regs", Tags: "tinygo"}, top, leaf)

	if !strings.Contains(src, "//go:build tinygo\n") {
		t.Error("missing build constraint")
	}
	if diff := cmp.Diff([]string{"NewMmioTop", "NewMmioTopAt"}, funcs(f)); diff != "" {
		t.Errorf("constructors (-want +got):\n%s", diff)
	}
	for _, typ := range []string{"MmioTop", "MmioLeaf"} {
		for _, name := range methods(f)[typ] {
			if name == "MmioSend" {
				t.Errorf("%s is sendable", typ)
			}
		}
	}
	for _, s := range []string{
		"MmioTopCtrlOffset = unsafe.Offsetof(Top{}.Ctrl)",
		"MmioTopLeafOffset = unsafe.Offsetof(Top{}.Leaf)",
	} {
		if !strings.Contains(src, s) {
			t.Errorf("generated source lacks %q", s)
		}
	}
	if strings.Contains(src, "MmioLeafValueOffset") {
		t.Error("offsets emitted without const_ptr")
	}
}

func TestFileEmptyBlock(t *testing.T) {
	src, _ := render(t, Options{Package: "regs"}, block("Empty", nil))
	if !strings.Contains(src, "const mmioEmptyFieldBytes = uintptr(0)") {
		t.Errorf("unexpected size terms:\n%s", src)
	}
}
