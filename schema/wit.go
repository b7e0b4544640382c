package schema

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/mmiogen/schema/internal/layout"
)

// registerTypes maps Go integer types onto WIT primitives of equal size.
var registerTypes = map[string]wit.Type{
	"uint8":  wit.U8{},
	"byte":   wit.U8{},
	"int8":   wit.S8{},
	"uint16": wit.U16{},
	"int16":  wit.S16{},
	"uint32": wit.U32{},
	"int32":  wit.S32{},
	"rune":   wit.S32{},
	"uint64": wit.U64{},
	"int64":  wit.S64{},
}

// typeMapper builds the WIT record for each block on first use.
type typeMapper struct {
	calc    *layout.Calculator
	records map[*Block]*wit.TypeDef
	marker  *wit.TypeDef
}

func newTypeMapper(arch layout.Arch) *typeMapper {
	return &typeMapper{
		calc:    layout.NewCalculator(arch),
		records: make(map[*Block]*wit.TypeDef),
		marker:  &wit.TypeDef{Kind: &wit.Tuple{}},
	}
}

// element returns the WIT type of one element of f. Fields must be resolved.
func (m *typeMapper) element(f *Field) wit.Type {
	switch {
	case f.Marker:
		return m.marker
	case f.Target != nil:
		return m.record(f.Target)
	default:
		return registerTypes[f.Type.Basic]
	}
}

func (m *typeMapper) field(f *Field) wit.Type {
	elem := m.element(f)
	if f.Shape.Kind != ShapeArray && f.Shape.Kind != ShapeBlockArray {
		return elem
	}
	types := make([]wit.Type, f.Shape.Len)
	for i := range types {
		types[i] = elem
	}
	return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}
}

func (m *typeMapper) record(b *Block) *wit.TypeDef {
	if td, ok := m.records[b]; ok {
		return td
	}
	r := &wit.Record{Fields: make([]wit.Field, 0, len(b.Fields))}
	for _, f := range b.Fields {
		r.Fields = append(r.Fields, wit.Field{Name: f.Name, Type: m.field(f)})
	}
	name := b.Name
	td := &wit.TypeDef{Name: &name, Kind: r}
	m.records[b] = td
	return td
}

func (m *typeMapper) info(t wit.Type) layout.Info {
	return m.calc.Calculate(t)
}
