package synth

import (
	"fmt"

	"github.com/wippyai/mmiogen/errors"
	"github.com/wippyai/mmiogen/schema"
)

// Receiver is the kind of access a method performs.
type Receiver uint8

const (
	Exclusive Receiver = iota
	Shared
)

func (r Receiver) String() string {
	if r == Shared {
		return "shared"
	}
	return "exclusive"
}

// Op is what a method does.
type Op uint8

const (
	OpPointer   Op = iota // address of the register
	OpRead                // volatile load
	OpWrite               // volatile store
	OpModify              // load, transform, store
	OpBorrow              // nested handle tied to the receiver
	OpSteal               // nested handle with no tie
	OpView                // nested read-only projection tied to the receiver
	OpStealView           // nested read-only projection with no tie
	OpArrayLen            // number of nested blocks
)

// Method is one generated accessor.
type Method struct {
	Field    *schema.Field
	Name     string
	Op       Op
	Receiver Receiver
	// Indexed methods take an element index.
	Indexed bool
	// Checked methods validate the index and return an error.
	Checked bool
	// OnShared methods are also generated on the read-only projection.
	OnShared bool
}

// Signature renders the method's Go signature.
func (m Method) Signature() string {
	elem := m.Field.Type.Name
	var params, results string

	switch m.Op {
	case OpPointer:
		results = "*" + elem
	case OpRead:
		results = elem
	case OpWrite:
		params = "value " + elem
	case OpModify:
		params = "f func(" + elem + ") " + elem
	case OpBorrow, OpSteal:
		results = "*" + m.Field.Target.HandleName()
	case OpView, OpStealView:
		results = m.Field.Target.SharedName()
	case OpArrayLen:
		results = "int"
	}

	if m.Indexed {
		if params == "" {
			params = "i int"
		} else {
			params = "i int, " + params
		}
	}
	if m.Checked {
		if results == "" {
			results = "error"
		} else {
			results = "(" + results + ", error)"
		}
	}

	sig := m.Name + "(" + params + ")"
	if results != "" {
		sig += " " + results
	}
	return sig
}

// Offset is a constant byte offset emitted for const_ptr and const_inner.
type Offset struct {
	Field *schema.Field
	Name  string
}

// Wrapper is the generated API of one block.
type Wrapper struct {
	Block    *schema.Block
	Handle   string
	Shared   string
	Methods  []Method
	Offsets  []Offset
	Ctors    bool
	Sendable bool
}

// SharedMethods returns the methods generated on the read-only projection.
func (w *Wrapper) SharedMethods() []Method {
	var out []Method
	for _, m := range w.Methods {
		if m.OnShared {
			out = append(out, m)
		}
	}
	return out
}

// Lookup returns the method called name.
func (w *Wrapper) Lookup(name string) (Method, bool) {
	for _, m := range w.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return Method{}, false
}

// reserved are the method and field names every handle already has.
var reserved = map[string]bool{
	"Handle":     true,
	"Base":       true,
	"Exclusive":  true,
	"View":       true,
	"Valid":      true,
	"Shared":     true,
	"Clone":      true,
	"MmioLayout": true,
	"MmioSend":   true,
}

// Synthesize derives the wrapper for a validated block.
func Synthesize(b *schema.Block) (*Wrapper, error) {
	w := &Wrapper{
		Block:    b,
		Handle:   b.HandleName(),
		Shared:   b.SharedName(),
		Ctors:    !b.Options.NoCtors,
		Sendable: b.Sendable,
	}

	seen := make(map[string]*schema.Field)
	for _, f := range b.Accessible() {
		var methods []Method
		switch f.Shape.Kind {
		case schema.ShapeScalar, schema.ShapeArray:
			methods = registerMethods(f)
		case schema.ShapeBlock, schema.ShapeBlockArray:
			if f.Target == nil {
				return nil, errors.New(errors.PhaseSynthesize, errors.KindMarkerBound).
					At(f.Pos).Path(b.Name, f.Name).
					Detail("nested block is unresolved; run Validate first").Build()
			}
			methods = nestedMethods(f)
		}

		for _, m := range methods {
			if reserved[m.Name] {
				return nil, clash(b, f, m.Name)
			}
			if prev, ok := seen[m.Name]; ok && prev != f {
				return nil, clash(b, f, m.Name)
			}
			seen[m.Name] = f
		}
		w.Methods = append(w.Methods, methods...)

		if (f.Shape.Nested() && b.Options.ConstInner) || (!f.Shape.Nested() && b.Options.ConstPtr) {
			w.Offsets = append(w.Offsets, Offset{Field: f, Name: w.Handle + f.GoName() + "Offset"})
		}
	}
	return w, nil
}

func clash(b *schema.Block, f *schema.Field, name string) error {
	err := errors.NameClash(f.Pos, []string{b.Name, f.Name}, fmt.Sprintf("%s.%s", b.HandleName(), name))
	err.Phase = errors.PhaseSynthesize
	return err
}

func registerMethods(f *schema.Field) []Method {
	name := f.GoName()
	indexed := f.Shape.Kind == schema.ShapeArray
	a := f.Access
	pure := a.Read == schema.ReadPure

	var out []Method
	add := func(m Method) {
		m.Field = f
		m.Indexed = indexed && m.Op != OpPointer
		out = append(out, m)
		if indexed && m.Op != OpPointer {
			// Each indexed operation comes in a checked and an unchecked form.
			out[len(out)-1].Checked = true
			m.Name += "Unchecked"
			out = append(out, m)
		}
	}

	// The address is writable, so taking it from the handle is an exclusive use.
	add(Method{Name: "PointerTo" + name, Op: OpPointer, Receiver: Exclusive, OnShared: pure})
	if a.Readable() {
		recv := Exclusive
		if pure {
			recv = Shared
		}
		add(Method{Name: "Read" + name, Op: OpRead, Receiver: recv, OnShared: pure})
	}
	if a.Write {
		add(Method{Name: "Write" + name, Op: OpWrite, Receiver: Exclusive})
	}
	if a.Modify {
		add(Method{Name: "Modify" + name, Op: OpModify, Receiver: Exclusive})
	}
	return out
}

func nestedMethods(f *schema.Field) []Method {
	name := f.GoName()
	indexed := f.Shape.Kind == schema.ShapeBlockArray

	var out []Method
	add := func(m Method) {
		m.Field = f
		m.Indexed = indexed
		if indexed {
			m.Checked = true
			out = append(out, m)
			m.Checked = false
			m.Name += "Unchecked"
		}
		out = append(out, m)
	}

	if indexed {
		out = append(out, Method{Field: f, Name: name + "ArrayLen", Op: OpArrayLen, Receiver: Shared, OnShared: true})
	}
	add(Method{Name: name, Op: OpBorrow, Receiver: Exclusive})
	add(Method{Name: name + "Shared", Op: OpView, Receiver: Shared, OnShared: true})
	add(Method{Name: "Steal" + name, Op: OpSteal, Receiver: Exclusive})
	add(Method{Name: "Steal" + name + "Shared", Op: OpStealView, Receiver: Shared, OnShared: true})
	return out
}
