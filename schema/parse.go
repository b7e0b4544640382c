package schema

import (
	"go/token"
	"reflect"
	"strings"

	"github.com/wippyai/mmiogen/errors"
)

// HostLayoutType is the fixed-layout marker every block must start with.
const HostLayoutType = "structs.HostLayout"

// Parse builds a Set from raw declarations. It checks directive and tag syntax
// only; use Validate for everything else.
func Parse(pkg RawPackage) (*Set, error) {
	set := &Set{
		Package: pkg.Name,
		byName:  make(map[string]*Block, len(pkg.Blocks)),
		named:   pkg.Named,
		structs: make(map[string]bool, len(pkg.Structs)),
		decls:   make(map[string]bool, len(pkg.Decls)),
	}
	for _, name := range pkg.Structs {
		set.structs[name] = true
	}
	for _, name := range pkg.Decls {
		set.decls[name] = true
	}

	for _, raw := range pkg.Blocks {
		if set.byName[raw.Name] != nil {
			return nil, errors.NameClash(raw.Pos, []string{raw.Name}, raw.Name)
		}
		b, err := ParseBlock(raw)
		if err != nil {
			return nil, err
		}
		set.Blocks = append(set.Blocks, b)
		set.byName[b.Name] = b
	}
	return set, nil
}

// ParseBlock parses the directive and field tags of one declaration.
func ParseBlock(raw RawStruct) (*Block, error) {
	b := &Block{
		Name:   raw.Name,
		Pos:    raw.Pos,
		Record: raw.IsStruct,
	}

	opts, err := parseDirective(raw)
	if err != nil {
		return nil, err
	}
	b.Options = opts

	for i, rf := range raw.Fields {
		f, err := parseField(raw.Name, rf)
		if err != nil {
			return nil, err
		}
		if f.Marker && i == 0 {
			b.HostLayout = true
		}
		b.Fields = append(b.Fields, f)
	}
	return b, nil
}

func parseDirective(raw RawStruct) (Options, error) {
	var opts Options
	seen := make(map[string]bool, len(raw.Directive))
	for _, tok := range raw.Directive {
		if seen[tok] {
			return opts, errors.DuplicateToken(raw.Pos, []string{raw.Name}, tok)
		}
		seen[tok] = true

		switch tok {
		case "no_ctors":
			opts.NoCtors = true
		case "const_ptr":
			opts.ConstPtr = true
		case "const_inner":
			opts.ConstInner = true
		case "nosend":
			opts.NoSend = true
		default:
			return opts, errors.UnknownToken(raw.Pos, []string{raw.Name}, tok)
		}
	}
	return opts, nil
}

func parseField(block string, rf RawField) (*Field, error) {
	f := &Field{
		Name:     rf.Name,
		Expr:     rf.Type.Expr,
		Pos:      rf.Pos,
		Type:     TypeRef{Name: rf.Type.Name},
		embedded: rf.Embedded,
		invalid:  rf.Type.Invalid,
	}
	if rf.Type.Array {
		f.Shape = Shape{Kind: ShapeArray, Len: rf.Type.Len}
	}

	if rf.Type.Name == HostLayoutType && !rf.Type.Array {
		f.Marker = true
		f.Skip = true
		return f, nil
	}
	if IsReserved(rf.Name) {
		f.Skip = true
		return f, nil
	}

	tag, ok := reflect.StructTag(rf.Tag).Lookup("mmio")
	if !ok || strings.TrimSpace(tag) == "" {
		f.Access = DefaultAccess()
		return f, nil
	}

	inner, access, err := parseTokens(tag, rf.Pos, []string{block, rf.Name})
	if err != nil {
		return nil, err
	}
	f.Access = access
	if inner {
		if f.Shape.Kind == ShapeArray {
			f.Shape.Kind = ShapeBlockArray
		} else {
			f.Shape.Kind = ShapeBlock
		}
	}
	return f, nil
}

// parseTokens accumulates access tokens; each category may be given once.
func parseTokens(tag string, pos token.Position, path []string) (inner bool, access Access, err error) {
	var readSet, writeSet, modifySet bool

	n := 0
	for _, tok := range strings.Split(tag, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n++

		dup := false
		switch tok {
		case "PureRead", "RO":
			dup = readSet
			readSet = true
			access.Read = ReadPure
		case "Read":
			dup = readSet
			readSet = true
			access.Read = ReadSideEffect
		case "Write":
			dup = writeSet
			writeSet = true
			access.Write = true
		case "Modify":
			dup = modifySet
			modifySet = true
			access.Modify = true
		case "RW":
			dup = readSet || writeSet || modifySet
			readSet, writeSet, modifySet = true, true, true
			access = DefaultAccess()
		case "Inner", "inner":
			dup = inner
			inner = true
		default:
			return false, Access{}, errors.UnknownToken(pos, path, tok)
		}

		if dup {
			return false, Access{}, errors.DuplicateToken(pos, path, tok)
		}
	}
	if n == 0 {
		// Only separators: same as an empty tag.
		return false, DefaultAccess(), nil
	}
	return inner, access, nil
}

// IsReserved reports whether a field name marks padding.
func IsReserved(name string) bool {
	return name == "" || strings.HasPrefix(name, "_") ||
		strings.HasPrefix(strings.ToLower(name), "reserved")
}
