package schema

import "go/token"

// RawPackage is the structural description of one Go package.
type RawPackage struct {
	// Named maps defined types to their underlying type name
	// (type Status uint32 gives "Status": "uint32").
	Named map[string]string
	Name  string
	// Blocks are the type declarations carrying a //mmio:block directive.
	Blocks []RawStruct
	// Structs lists the other struct types declared in the package.
	Structs []string
	// Decls lists every package-level identifier.
	Decls []string
}

// RawStruct is one type declaration carrying a //mmio:block directive.
type RawStruct struct {
	Name      string
	Directive []string
	Fields    []RawField
	Pos       token.Position
	IsStruct  bool
}

// RawField is one struct field as written.
type RawField struct {
	Name     string
	Tag      string
	Type     RawType
	Pos      token.Position
	Embedded bool
}

// RawType is a field type expression.
type RawType struct {
	// Expr is the type as written, e.g. "[4]uint32".
	Expr string
	// Name is the element type: "uint32", "Status", "structs.HostLayout".
	Name string
	// Invalid is set for forms that cannot describe registers
	// (pointers, slices, maps, nested arrays, ...).
	Invalid string
	Len     int
	Array   bool
}
