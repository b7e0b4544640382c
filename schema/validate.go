package schema

import (
	"fmt"
	"strings"

	"github.com/wippyai/mmiogen/errors"
	"github.com/wippyai/mmiogen/schema/internal/layout"
)

// Arches lists the architectures Validate accepts.
func Arches() []string { return layout.Arches() }

const (
	unvisited = iota
	visiting
	done
)

type validator struct {
	arch  layout.Arch
	set   *Set
	types *typeMapper
	state map[*Block]int
	stack []string
}

// Validate checks every block of set for the layout rules of set.Arch and
// fills in offsets, sizes and sendability. It stops at the first error.
// Nested blocks are validated before the blocks containing them.
func Validate(set *Set) error {
	arch, ok := layout.LookupArch(set.Arch)
	if !ok {
		return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
			Value(set.Arch).
			Detail("unknown architecture %q (known: %s)", set.Arch, strings.Join(layout.Arches(), ", ")).
			Build()
	}

	v := &validator{
		arch:  arch,
		set:   set,
		types: newTypeMapper(arch),
		state: make(map[*Block]int, len(set.Blocks)),
	}
	for _, b := range set.Blocks {
		if err := v.block(b); err != nil {
			return err
		}
	}
	for _, b := range set.Blocks {
		b.Sendable = sendable(b)
	}
	return nil
}

func (v *validator) block(b *Block) error {
	switch v.state[b] {
	case done:
		return nil
	case visiting:
		chain := append(append([]string(nil), v.stack[indexOf(v.stack, b.Name):]...), b.Name)
		return errors.Cycle(b.Pos, chain)
	}
	v.state[b] = visiting
	v.stack = append(v.stack, b.Name)

	if !b.Record {
		return errors.NotRecord(b.Pos, b.Name)
	}
	if !b.HostLayout {
		return errors.NotFixedLayout(b.Pos, b.Name)
	}
	if err := v.names(b); err != nil {
		return err
	}

	for _, f := range b.Fields {
		if err := v.field(b, f); err != nil {
			return err
		}
		if f.Target != nil {
			if err := v.block(f.Target); err != nil {
				return err
			}
		}
	}

	if err := v.layout(b); err != nil {
		return err
	}

	v.stack = v.stack[:len(v.stack)-1]
	v.state[b] = done
	return nil
}

// names checks the generated package-level identifiers against declarations.
func (v *validator) names(b *Block) error {
	idents := []string{b.HandleName(), b.SharedName()}
	if !b.Options.NoCtors {
		idents = append(idents, "New"+b.HandleName(), "New"+b.HandleName()+"At")
	}
	for _, id := range idents {
		if v.set.decls[id] {
			return errors.NameClash(b.Pos, []string{b.Name}, id)
		}
	}
	return nil
}

func (v *validator) field(b *Block, f *Field) error {
	path := []string{b.Name, f.Name}

	if f.Marker {
		return nil
	}
	if f.embedded {
		return errors.Unsupported(errors.PhaseValidate, f.Pos, path, "embedded fields cannot describe registers")
	}
	if f.invalid != "" {
		return errors.New(errors.PhaseValidate, errors.KindUnsupported).
			At(f.Pos).Path(path...).GoType(f.Expr).
			Detail("%s", f.invalid).Build()
	}
	if f.Shape.Indexed() && f.Shape.Len <= 0 {
		return errors.Unsupported(errors.PhaseValidate, f.Pos, path, "zero-length arrays cannot describe registers")
	}

	if f.Shape.Nested() {
		if !f.Access.IsZero() {
			return errors.InvalidAccess(f.Pos, path, "Inner cannot be combined with access tokens")
		}
		target := v.set.Lookup(f.Type.Name)
		if target == nil {
			return errors.MarkerBound(f.Pos, path, f.Type.Name)
		}
		f.Target = target
		return nil
	}

	basic := v.resolve(f.Type.Name)
	if basic == "" {
		if target := v.set.Lookup(f.Type.Name); target != nil && f.Skip {
			f.Target = target
			return nil
		}
		detail := fmt.Sprintf("%s cannot hold a register; use a fixed-size integer type", f.Type.Name)
		if v.set.Lookup(f.Type.Name) != nil || v.set.structs[f.Type.Name] {
			detail = fmt.Sprintf("field of struct type %s needs the Inner token", f.Type.Name)
		}
		return errors.New(errors.PhaseValidate, errors.KindUnsupported).
			At(f.Pos).Path(path...).GoType(f.Expr).
			Detail("%s", detail).Build()
	}
	f.Type.Basic = basic

	if f.Access.Modify && !(f.Access.Readable() && f.Access.Write) {
		return errors.InvalidAccess(f.Pos, path, "Modify requires both a read token and Write")
	}
	return nil
}

// resolve follows defined types down to a register type name.
func (v *validator) resolve(name string) string {
	for range 16 {
		if _, ok := registerTypes[name]; ok {
			return name
		}
		next, ok := v.set.named[name]
		if !ok {
			return ""
		}
		name = next
	}
	return ""
}

func (v *validator) layout(b *Block) error {
	info := v.types.info(v.types.record(b))

	var sum uint32
	for i, f := range b.Fields {
		elem := v.types.info(v.types.element(f))
		f.Type.Size = elem.Size
		f.Type.Align = elem.Align
		f.Offset = info.Offsets[i]
		f.Size = elem.Size
		if f.Shape.Indexed() {
			f.Size = elem.Size * uint32(f.Shape.Len)
		}
		sum += f.Size
	}

	b.Size = info.Size
	b.Align = info.Align
	if sum != info.Size {
		return errors.SizeMismatch(b.Pos, b.Name, sum, info.Size)
	}
	return v.wide(b)
}

// wide checks that 64-bit registers, and nested blocks holding them, sit at
// 8-byte offsets. Targets that align uint64 to 4 bytes still need 8-byte
// aligned addresses for 64-bit atomic access.
func (v *validator) wide(b *Block) error {
	for _, f := range b.Fields {
		if f.Skip || f.Marker {
			continue
		}
		if f.Target != nil {
			if !f.Target.wide {
				continue
			}
		} else if f.Type.Size != 8 {
			continue
		}
		b.wide = true
		if v.arch.MaxAlign >= 8 {
			continue
		}

		stride := f.Type.Size
		if f.Shape.Kind != ShapeBlockArray {
			stride = 0
		}
		if f.Offset%8 != 0 || stride%8 != 0 {
			return errors.New(errors.PhaseValidate, errors.KindUnsupported).
				At(f.Pos).Path(b.Name, f.Name).GoType(f.Expr).
				Detail("64-bit registers must be 8-byte aligned on %s, but the field is at offset %d with element size %d; declare padding",
					v.arch.Name, f.Offset, f.Type.Size).Build()
		}
	}
	return nil
}

func sendable(b *Block) bool {
	if b.Options.NoSend {
		return false
	}
	for _, f := range b.Fields {
		if f.Target != nil && !f.Skip && !sendable(f.Target) {
			return false
		}
	}
	return true
}

func indexOf(s []string, name string) int {
	for i, n := range s {
		if n == name {
			return i
		}
	}
	return 0
}
