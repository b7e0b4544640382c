package layout

import (
	"fmt"
	"sort"
)

// Arch holds the size parameters of a compilation target.
type Arch struct {
	Name     string
	WordSize uint32
	MaxAlign uint32
}

// Values follow go/types' gc sizes; riscv32 and avr are TinyGo-only targets.
var arches = map[string]Arch{
	"386":      {"386", 4, 4},
	"amd64":    {"amd64", 8, 8},
	"arm":      {"arm", 4, 4},
	"arm64":    {"arm64", 8, 8},
	"avr":      {"avr", 2, 1},
	"loong64":  {"loong64", 8, 8},
	"mips":     {"mips", 4, 4},
	"mipsle":   {"mipsle", 4, 4},
	"mips64":   {"mips64", 8, 8},
	"mips64le": {"mips64le", 8, 8},
	"ppc64":    {"ppc64", 8, 8},
	"ppc64le":  {"ppc64le", 8, 8},
	"riscv32":  {"riscv32", 4, 4},
	"riscv64":  {"riscv64", 8, 8},
	"s390x":    {"s390x", 8, 8},
	"wasm":     {"wasm", 8, 8},
}

// LookupArch returns the parameters for a GOARCH value.
func LookupArch(name string) (Arch, bool) {
	a, ok := arches[name]
	return a, ok
}

// MustArch is like LookupArch but panics on unknown names.
func MustArch(name string) Arch {
	a, ok := arches[name]
	if !ok {
		panic(fmt.Sprintf("layout: unknown arch %q", name))
	}
	return a
}

// Arches lists the known architecture names in sorted order.
func Arches() []string {
	names := make([]string, 0, len(arches))
	for name := range arches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
