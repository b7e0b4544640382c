package emit

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/wippyai/mmiogen/errors"
	"github.com/wippyai/mmiogen/schema"
	"github.com/wippyai/mmiogen/synth"
)

// RuntimeImport is the import path of the runtime package generated code uses.
const RuntimeImport = "github.com/wippyai/mmiogen/mmio"

//go:embed templates/*
var templates embed.FS

var tmpl = template.Must(template.New("").
	Funcs(template.FuncMap{"comment": comment}).
	ParseFS(templates, "templates/*.tmpl"))

// Options control the file header.
type Options struct {
	// Package is the package clause of the output.
	Package string
	// Tags is an optional build constraint expression.
	Tags string
	// Command is recorded in the header comment.
	Command string
}

// File renders wrappers into one formatted Go source file.
func File(opts Options, wrappers []*synth.Wrapper) ([]byte, error) {
	data := fileData{Options: opts}
	for _, w := range wrappers {
		data.Blocks = append(data.Blocks, newBlockData(w))
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "file.tmpl", data); err != nil {
		return nil, errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "execute template")
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.Bytes(), errors.Wrap(errors.PhaseEmit, errors.KindInvalidInput, err, "format generated source")
	}
	return src, nil
}

type fileData struct {
	Options
	Blocks []blockData
}

type blockData struct {
	*synth.Wrapper
	Name      string
	FieldSize string
	SizeTerms []string
	Offsets   []offsetData
	Methods   []methodData
	Views     []methodData
}

type offsetData struct {
	Name string
	Expr string
}

type methodData struct {
	Doc     []string
	Recv    string
	Self    string
	Name    string
	Sig     string
	Kind    string
	Expr    string
	Reg     string
	Zero    string
	Sibling string
	Read    string
	Write   string
	Len     int
}

func newBlockData(w *synth.Wrapper) blockData {
	b := w.Block
	d := blockData{
		Wrapper:   w,
		Name:      b.Name,
		FieldSize: "mmio" + b.Name + "FieldBytes",
	}
	for _, f := range b.Fields {
		if f.Marker {
			continue
		}
		d.SizeTerms = append(d.SizeTerms, fmt.Sprintf("unsafe.Sizeof(*new(%s))", f.Expr))
	}
	if len(d.SizeTerms) == 0 {
		d.SizeTerms = []string{"uintptr(0)"}
	}
	for _, o := range w.Offsets {
		d.Offsets = append(d.Offsets, offsetData{Name: o.Name, Expr: offsetOf(b, o.Field)})
	}

	handle := receiver{decl: "m *" + w.Handle, self: "m", handle: "&m.Handle", base: "m.Base()", exclusive: "m.Exclusive()"}
	for _, m := range w.Methods {
		d.Methods = append(d.Methods, newMethodData(w, m, handle))
	}
	// The projection never invalidates borrows, so exclusive methods it carries
	// validate like shared ones.
	view := receiver{decl: "s " + w.Shared, self: "s", handle: "&s.h", base: "s.h.Base()", exclusive: "s.h.Base()"}
	for _, m := range w.SharedMethods() {
		d.Views = append(d.Views, newMethodData(w, m, view))
	}
	return d
}

type receiver struct {
	decl      string
	self      string
	handle    string
	base      string
	exclusive string
}

func offsetOf(b *schema.Block, f *schema.Field) string {
	return fmt.Sprintf("unsafe.Offsetof(%s{}.%s)", b.Name, f.Name)
}

func newMethodData(w *synth.Wrapper, m synth.Method, r receiver) methodData {
	f := m.Field
	b := w.Block
	base := r.base
	if m.Receiver == synth.Exclusive {
		base = r.exclusive
	}

	d := methodData{
		Recv: r.decl,
		Self: r.self,
		Name: m.Name,
		Sig:  m.Signature(),
		Len:  f.Shape.Len,
		Reg:  fmt.Sprintf("&(*%s)(%s).%s", b.Name, base, f.Name),
	}
	if m.Indexed {
		d.Reg += "[i]"
	}
	d.Sibling = m.Name + "Unchecked"
	d.Read = "Read" + f.GoName()
	d.Write = "Write" + f.GoName() + "Unchecked"

	noun := f.Name
	if m.Indexed {
		noun += "[i]"
	}
	var unchecked bool
	if m.Indexed && !m.Checked {
		unchecked = true
	}

	switch m.Op {
	case synth.OpPointer:
		d.Kind = "return"
		if f.Shape.Kind == schema.ShapeArray {
			d.Reg += "[0]"
			d.Doc = append(d.Doc, fmt.Sprintf("%s returns the address of %s[0].", m.Name, f.Name))
		} else {
			d.Doc = append(d.Doc, fmt.Sprintf("%s returns the address of %s.", m.Name, f.Name))
		}
		d.Doc = append(d.Doc, "Access it only through mmio.Load and mmio.Store.")
		d.Expr = d.Reg
	case synth.OpRead:
		d.Kind = "return"
		d.Expr = "mmio.Load(" + d.Reg + ")"
		d.Zero = "0"
		d.Doc = append(d.Doc, fmt.Sprintf("%s reads %s.", m.Name, noun))
		if f.Access.Read == schema.ReadSideEffect {
			d.Doc = append(d.Doc, "Reading has side effects.")
		}
	case synth.OpWrite:
		d.Kind = "store"
		d.Doc = append(d.Doc, fmt.Sprintf("%s writes value to %s.", m.Name, noun))
	case synth.OpModify:
		d.Kind = "modify"
		d.Doc = append(d.Doc, fmt.Sprintf("%s replaces %s with f applied to its current value.", m.Name, noun),
			"The read and the write are separate accesses.")
	case synth.OpBorrow:
		d.Kind = "return"
		d.Zero = "nil"
		d.Expr = fmt.Sprintf("mmio.Borrow[%s](%s, %s)", f.Target.HandleName(), r.handle, nestedOffset(b, f, m.Indexed))
		d.Doc = append(d.Doc, fmt.Sprintf("%s returns a handle to the %s block.", m.Name, noun),
			fmt.Sprintf("The handle is invalidated by the next exclusive use of %s.", r.self))
	case synth.OpSteal:
		d.Kind = "return"
		d.Zero = "nil"
		d.Expr = fmt.Sprintf("mmio.Steal[%s](%s, %s)", f.Target.HandleName(), r.handle, nestedOffset(b, f, m.Indexed))
		d.Doc = append(d.Doc, fmt.Sprintf("%s returns a handle to the %s block that is not tied to %s.", m.Name, noun, r.self),
			"",
			"Unsafe: the caller must not use it concurrently with other handles to the same registers.")
	case synth.OpView:
		d.Kind = "return"
		d.Zero = f.Target.SharedName() + "{}"
		d.Expr = fmt.Sprintf("%s{h: mmio.View[%s](%s, %s)}", f.Target.SharedName(), f.Target.HandleName(), r.handle, nestedOffset(b, f, m.Indexed))
		d.Doc = append(d.Doc, fmt.Sprintf("%s returns a read-only view of the %s block.", m.Name, noun))
	case synth.OpStealView:
		d.Kind = "return"
		d.Zero = f.Target.SharedName() + "{}"
		d.Expr = fmt.Sprintf("%s{h: mmio.StealView[%s](%s, %s)}", f.Target.SharedName(), f.Target.HandleName(), r.handle, nestedOffset(b, f, m.Indexed))
		d.Doc = append(d.Doc, fmt.Sprintf("%s returns a read-only view of the %s block that is not tied to %s.", m.Name, noun, r.self))
	case synth.OpArrayLen:
		d.Kind = "return"
		d.Expr = fmt.Sprint(f.Shape.Len)
		d.Doc = append(d.Doc, fmt.Sprintf("%s returns the number of %s blocks.", m.Name, f.Name))
	}

	switch {
	case m.Checked && m.Op == synth.OpWrite:
		d.Kind = "store_checked"
	case m.Checked && m.Op == synth.OpModify:
		d.Kind = "modify_checked"
	case m.Checked:
		d.Kind = "checked"
	}
	if m.Checked {
		d.Doc = append(d.Doc, "It returns an *mmio.OutOfBoundsError if i is out of range.")
	}
	if unchecked {
		d.Doc = append(d.Doc, fmt.Sprintf("The caller must ensure 0 <= i < %d; other values are undefined behavior.", f.Shape.Len))
	}
	return d
}

func nestedOffset(b *schema.Block, f *schema.Field, indexed bool) string {
	off := offsetOf(b, f)
	if indexed {
		off += fmt.Sprintf("+uintptr(i)*unsafe.Sizeof(%s{})", f.Target.Name)
	}
	return off
}

// comment formats doc lines as a Go comment.
func comment(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// ")
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
