package layout

import "go.bytecodealliance.org/wit"

// Info is the computed layout of one type.
type Info struct {
	Offsets []uint32 // per record field, in declaration order
	Size    uint32
	Align   uint32
}

type Calculator struct {
	cache map[*wit.TypeDef]Info
	arch  Arch
}

func NewCalculator(arch Arch) *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
		arch:  arch,
	}
}

func (c *Calculator) Arch() Arch {
	return c.arch
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return c.primitive(1)
	case wit.U16, wit.S16:
		return c.primitive(2)
	case wit.U32, wit.S32:
		return c.primitive(4)
	case wit.U64, wit.S64:
		return c.primitive(8)
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) primitive(size uint32) Info {
	align := size
	if align > c.arch.MaxAlign {
		align = c.arch.MaxAlign
	}
	return Info{Size: size, Align: align}
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Record:
		info = c.calculateRecord(kind)
	case *wit.Tuple:
		info = c.calculateTuple(kind)
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateRecord(r *wit.Record) Info {
	if len(r.Fields) == 0 {
		return Info{Size: 0, Align: 1}
	}

	offsets := make([]uint32, len(r.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)
	lastSize := uint32(0)

	for i, field := range r.Fields {
		fieldLayout := c.Calculate(field.Type)

		offset = AlignTo(offset, fieldLayout.Align)
		offsets[i] = offset

		if fieldLayout.Align > maxAlign {
			maxAlign = fieldLayout.Align
		}

		offset += fieldLayout.Size
		lastSize = fieldLayout.Size
	}

	// A trailing zero-size field must not point past the end of the struct.
	if lastSize == 0 && offset > 0 {
		offset++
	}

	totalSize := AlignTo(offset, maxAlign)

	return Info{
		Size:    totalSize,
		Align:   maxAlign,
		Offsets: offsets,
	}
}

// Tuples model fixed-size arrays: all elements share one type, so the
// elements are packed with no padding between them.
func (c *Calculator) calculateTuple(t *wit.Tuple) Info {
	if len(t.Types) == 0 {
		return Info{Size: 0, Align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)

	for _, typ := range t.Types {
		elemLayout := c.Calculate(typ)
		offset = AlignTo(offset, elemLayout.Align)

		if elemLayout.Align > maxAlign {
			maxAlign = elemLayout.Align
		}

		offset += elemLayout.Size
	}

	totalSize := AlignTo(offset, maxAlign)

	return Info{
		Size:  totalSize,
		Align: maxAlign,
	}
}
