package source

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/mmiogen/errors"
	"github.com/wippyai/mmiogen/schema"
)

// Directive marks a type declaration as a register block.
const Directive = "//mmio:block"

// Config selects the files of a package.
type Config struct {
	Arch string
	Tags []string
}

// Package is a loaded package directory.
type Package struct {
	Raw   schema.RawPackage
	Dir   string
	Files []string
}

// Load parses the Go files of dir that match cfg.
func Load(dir string, cfg Config) (*Package, error) {
	ctx := build.Default
	if cfg.Arch != "" {
		ctx.GOARCH = cfg.Arch
	}
	ctx.BuildTags = append(append([]string(nil), ctx.BuildTags...), cfg.Tags...)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read package directory")
	}

	fset := token.NewFileSet()
	var files []*ast.File
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		ok, err := ctx.MatchFile(dir, name)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "match build constraints of "+name)
		}
		if !ok {
			continue
		}

		path := filepath.Join(dir, name)
		f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, err, "parse "+name)
		}
		if generatedByUs(f) {
			continue
		}
		files = append(files, f)
		names = append(names, path)
	}
	if len(files) == 0 {
		return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Detail("no Go files in %s", dir).Build()
	}

	raw, err := Collect(fset, files)
	if err != nil {
		return nil, err
	}
	return &Package{Raw: raw, Dir: dir, Files: names}, nil
}

// generatedByUs reports whether f is an earlier output of the generator.
func generatedByUs(f *ast.File) bool {
	if !ast.IsGenerated(f) {
		return false
	}
	for _, c := range f.Comments {
		if c.Pos() > f.Package {
			break
		}
		if strings.Contains(c.Text(), "Code generated by mmiogen") {
			return true
		}
	}
	return false
}

// Collect extracts declarations from parsed files of one package.
func Collect(fset *token.FileSet, files []*ast.File) (schema.RawPackage, error) {
	c := &collector{
		fset:   fset,
		consts: make(map[string]int64),
		raw:    schema.RawPackage{Named: make(map[string]string)},
	}
	for _, f := range files {
		if c.raw.Name == "" {
			c.raw.Name = f.Name.Name
		} else if f.Name.Name != c.raw.Name {
			return c.raw, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				At(fset.Position(f.Name.Pos())).
				Detail("found packages %s and %s", c.raw.Name, f.Name.Name).Build()
		}
		c.constants(f)
	}
	for _, f := range files {
		if err := c.file(f); err != nil {
			return c.raw, err
		}
	}
	sort.Strings(c.raw.Decls)
	return c.raw, nil
}

type collector struct {
	fset    *token.FileSet
	consts  map[string]int64
	imports map[string]string
	raw     schema.RawPackage
}

// constants records integer constants usable as array lengths.
func (c *collector) constants(f *ast.File) {
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					break
				}
				if lit, ok := vs.Values[i].(*ast.BasicLit); ok && lit.Kind == token.INT {
					if n, err := strconv.ParseInt(lit.Value, 0, 64); err == nil {
						c.consts[name.Name] = n
					}
				}
			}
		}
	}
}

func (c *collector) file(f *ast.File) error {
	c.imports = make(map[string]string)
	for _, imp := range f.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		name := path[strings.LastIndex(path, "/")+1:]
		if imp.Name != nil {
			name = imp.Name.Name
		}
		c.imports[name] = path
	}

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil {
				c.raw.Decls = append(c.raw.Decls, d.Name.Name)
			}
		case *ast.GenDecl:
			if err := c.genDecl(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *collector) genDecl(d *ast.GenDecl) error {
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.ValueSpec:
			for _, name := range s.Names {
				c.raw.Decls = append(c.raw.Decls, name.Name)
			}
		case *ast.TypeSpec:
			c.raw.Decls = append(c.raw.Decls, s.Name.Name)

			doc := s.Doc
			if doc == nil && len(d.Specs) == 1 {
				doc = d.Doc
			}
			directive, marked := findDirective(doc)
			if marked {
				c.raw.Blocks = append(c.raw.Blocks, c.block(s, directive))
				continue
			}

			switch t := s.Type.(type) {
			case *ast.StructType:
				c.raw.Structs = append(c.raw.Structs, s.Name.Name)
			case *ast.Ident:
				c.raw.Named[s.Name.Name] = t.Name
			}
		}
	}
	return nil
}

func findDirective(doc *ast.CommentGroup) ([]string, bool) {
	if doc == nil {
		return nil, false
	}
	for _, com := range doc.List {
		rest, ok := strings.CutPrefix(com.Text, Directive)
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		return strings.Fields(rest), true
	}
	return nil, false
}

func (c *collector) block(s *ast.TypeSpec, directive []string) schema.RawStruct {
	raw := schema.RawStruct{
		Name:      s.Name.Name,
		Pos:       c.fset.Position(s.Name.Pos()),
		Directive: directive,
	}
	st, ok := s.Type.(*ast.StructType)
	if !ok || s.TypeParams != nil {
		return raw
	}
	raw.IsStruct = true

	for _, field := range st.Fields.List {
		var tag string
		if field.Tag != nil {
			tag, _ = strconv.Unquote(field.Tag.Value)
		}
		typ := c.typeOf(field.Type)

		if len(field.Names) == 0 {
			raw.Fields = append(raw.Fields, schema.RawField{
				Name:     embeddedName(typ.Name),
				Tag:      tag,
				Type:     typ,
				Pos:      c.fset.Position(field.Pos()),
				Embedded: true,
			})
			continue
		}
		for _, name := range field.Names {
			raw.Fields = append(raw.Fields, schema.RawField{
				Name: name.Name,
				Tag:  tag,
				Type: typ,
				Pos:  c.fset.Position(name.Pos()),
			})
		}
	}
	return raw
}

func embeddedName(typ string) string {
	typ = strings.TrimPrefix(typ, "*")
	return typ[strings.LastIndex(typ, ".")+1:]
}

func (c *collector) typeOf(expr ast.Expr) schema.RawType {
	t := schema.RawType{Expr: types.ExprString(expr)}

	if arr, ok := expr.(*ast.ArrayType); ok {
		if arr.Len == nil {
			t.Name = t.Expr
			t.Invalid = "slices cannot describe registers; use an array"
			return t
		}
		n, err := c.arrayLen(arr.Len)
		if err != nil {
			t.Name = t.Expr
			t.Invalid = err.Error()
			return t
		}
		t.Array = true
		t.Len = n
		expr = arr.Elt
	}

	switch e := expr.(type) {
	case *ast.Ident:
		t.Name = e.Name
	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			t.Name = types.ExprString(e)
			t.Invalid = "unsupported type expression"
			break
		}
		path := c.imports[pkg.Name]
		if path == "" {
			path = pkg.Name
		}
		t.Name = path + "." + e.Sel.Name
	case *ast.ArrayType:
		t.Name = types.ExprString(e)
		t.Invalid = "multi-dimensional arrays cannot describe registers"
	case *ast.StarExpr:
		t.Name = types.ExprString(e)
		t.Invalid = "pointers cannot describe registers"
	default:
		t.Name = types.ExprString(e)
		t.Invalid = fmt.Sprintf("%s cannot describe registers", t.Name)
	}
	return t
}

func (c *collector) arrayLen(expr ast.Expr) (int, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.INT {
			if n, err := strconv.ParseInt(e.Value, 0, 32); err == nil {
				return int(n), nil
			}
		}
	case *ast.Ident:
		if n, ok := c.consts[e.Name]; ok {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("array length %s must be an integer literal or a package constant", types.ExprString(expr))
}
