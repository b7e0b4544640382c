package schema

import (
	"go/token"
	"strings"
)

// ReadKind says whether and how a field can be read.
type ReadKind uint8

const (
	ReadNone ReadKind = iota
	ReadPure
	ReadSideEffect
)

func (k ReadKind) String() string {
	switch k {
	case ReadPure:
		return "PureRead"
	case ReadSideEffect:
		return "Read"
	default:
		return "none"
	}
}

// Access is a field's capability set.
type Access struct {
	Read   ReadKind
	Write  bool
	Modify bool
}

// DefaultAccess is the capability set of a field without access tokens.
func DefaultAccess() Access {
	return Access{Read: ReadPure, Write: true, Modify: true}
}

func (a Access) Readable() bool { return a.Read != ReadNone }

func (a Access) IsZero() bool { return a == Access{} }

// String renders a in tag syntax.
func (a Access) String() string {
	var parts []string
	if a.Read != ReadNone {
		parts = append(parts, a.Read.String())
	}
	if a.Write {
		parts = append(parts, "Write")
	}
	if a.Modify {
		parts = append(parts, "Modify")
	}
	return strings.Join(parts, ",")
}

// ShapeKind classifies a field.
type ShapeKind uint8

const (
	ShapeScalar ShapeKind = iota
	ShapeArray
	ShapeBlock
	ShapeBlockArray
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeScalar:
		return "scalar"
	case ShapeArray:
		return "array"
	case ShapeBlock:
		return "block"
	case ShapeBlockArray:
		return "block array"
	default:
		return "unknown"
	}
}

type Shape struct {
	Kind ShapeKind
	Len  int
}

// Nested reports whether the field is a nested register block.
func (s Shape) Nested() bool {
	return s.Kind == ShapeBlock || s.Kind == ShapeBlockArray
}

// Indexed reports whether accessors take an index.
func (s Shape) Indexed() bool {
	return s.Kind == ShapeArray || s.Kind == ShapeBlockArray
}

// TypeRef names a field's element type.
type TypeRef struct {
	// Name is the element type as written.
	Name string
	// Basic is the underlying integer type of a register, empty for blocks.
	Basic string
	Size  uint32
	Align uint32
}

// Field describes one struct field. Layout data is filled in by Validate.
type Field struct {
	Target *Block
	Name   string
	Expr   string
	Type   TypeRef
	Pos    token.Position
	Shape  Shape
	Access Access
	Offset uint32
	Size   uint32
	Skip   bool
	// Marker is set on the structs.HostLayout field.
	Marker bool

	embedded bool
	invalid  string
}

// GoName is the field name in UpperCamelCase, used in method names.
func (f *Field) GoName() string {
	return UpperCamel(f.Name)
}

// Options are the struct-level directive flags.
type Options struct {
	NoCtors    bool
	ConstPtr   bool
	ConstInner bool
	NoSend     bool
}

// Block describes one register block.
type Block struct {
	Name    string
	Fields  []*Field
	Pos     token.Position
	Options Options
	Size    uint32
	Align   uint32
	// HostLayout is set when the first field is structs.HostLayout.
	HostLayout bool
	Record     bool
	// Sendable is computed by Validate.
	Sendable bool

	// wide is set when the block holds 64-bit registers.
	wide bool
}

// HandleName is the name of the generated handle type.
func (b *Block) HandleName() string { return "Mmio" + b.Name }

// SharedName is the name of the generated read-only projection.
func (b *Block) SharedName() string { return "SharedMmio" + b.Name }

// Accessible returns the fields that get accessors.
func (b *Block) Accessible() []*Field {
	var out []*Field
	for _, f := range b.Fields {
		if !f.Skip {
			out = append(out, f)
		}
	}
	return out
}

// Set is every register block of one package.
type Set struct {
	byName  map[string]*Block
	named   map[string]string
	structs map[string]bool
	decls   map[string]bool
	Package string
	Arch    string
	Blocks  []*Block
}

// Lookup returns the block called name, or nil.
func (s *Set) Lookup(name string) *Block {
	return s.byName[name]
}

// UpperCamel converts a field name to UpperCamelCase: rx_fifo gives RxFifo.
func UpperCamel(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
