package schema

import (
	"go/token"
	"strconv"
	"strings"
)

var line = 0

func pos() token.Position {
	line++
	return token.Position{Filename: "regs.go", Line: line, Column: 2}
}

// rawType parses the small type syntax used in tests: T or [N]T.
func rawType(expr string) RawType {
	t := RawType{Expr: expr, Name: expr}
	if strings.HasPrefix(expr, "[") {
		n, elem, _ := strings.Cut(expr[1:], "]")
		t.Array = true
		t.Len, _ = strconv.Atoi(n)
		t.Name = elem
	}
	return t
}

func fld(name, typ, tag string) RawField {
	f := RawField{Name: name, Type: rawType(typ), Pos: pos()}
	if tag != "" {
		f.Tag = `mmio:"` + tag + `"`
	}
	return f
}

func marker() RawField {
	return fld("_", HostLayoutType, "")
}

func block(name string, fields ...RawField) RawStruct {
	return RawStruct{Name: name, Pos: pos(), IsStruct: true, Fields: fields}
}

func uartBank() RawStruct {
	return block("UartBank",
		marker(),
		fld("data", "uint32", ""),
		fld("status", "uint32", "PureRead"),
	)
}

func uart() RawStruct {
	return block("Uart",
		marker(),
		fld("control", "uint32", ""),
		fld("array_0", "[4]uint32", ""),
		fld("array_read_only", "[4]uint32", "PureRead"),
		fld("array_write_only", "[2]uint32", "Write"),
		fld("fifo", "uint32", "Read,Write"),
		fld("status", "Status", "PureRead"),
		fld("_", "uint32", ""),
		fld("bank_0", "UartBank", "Inner"),
		fld("banks", "[2]UartBank", "Inner"),
	)
}

func uartPackage() RawPackage {
	return RawPackage{
		Name:   "uart",
		Named:  map[string]string{"Status": "uint32"},
		Blocks: []RawStruct{uart(), uartBank()},
		Decls:  []string{"Uart", "UartBank", "Status"},
	}
}

func parseValid(pkg RawPackage, arch string) (*Set, error) {
	set, err := Parse(pkg)
	if err != nil {
		return nil, err
	}
	set.Arch = arch
	return set, Validate(set)
}
