package sim

import "bytes"

// ExportName is the name under which the module exports its memory.
const ExportName = "regs"

const (
	sectionMemory = 0x05
	sectionExport = 0x07
	limitsMinMax  = 0x01
	externMemory  = 0x02
)

// memoryModule encodes a module that exports one memory of exactly pages pages.
func memoryModule(pages uint32) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x61, 0x73, 0x6d}) // \0asm
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	var mem bytes.Buffer
	writeLEB128u(&mem, 1)
	mem.WriteByte(limitsMinMax)
	writeLEB128u(&mem, pages)
	writeLEB128u(&mem, pages)
	writeSection(&buf, sectionMemory, mem.Bytes())

	var exp bytes.Buffer
	writeLEB128u(&exp, 1)
	writeLEB128u(&exp, uint32(len(ExportName)))
	exp.WriteString(ExportName)
	exp.WriteByte(externMemory)
	writeLEB128u(&exp, 0)
	writeSection(&buf, sectionExport, exp.Bytes())

	return buf.Bytes()
}

func writeSection(w *bytes.Buffer, id byte, content []byte) {
	w.WriteByte(id)
	writeLEB128u(w, uint32(len(content)))
	w.Write(content)
}

// writeLEB128u writes an unsigned LEB128 value
func writeLEB128u(w *bytes.Buffer, v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.WriteByte(b)
		if v == 0 {
			break
		}
	}
}
