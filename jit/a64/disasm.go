package a64

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// Disassemble renders one instruction word in GNU syntax. Words the
// disassembler rejects are shown as .word directives.
func Disassemble(inst uint32, pc uint64) string {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], inst)
	decoded, err := arm64asm.Decode(raw[:])
	if err != nil {
		return fmt.Sprintf(".word %#08x", inst)
	}
	text := arm64asm.GNUSyntax(decoded)
	// PC-relative operands are printed as offsets; add the absolute target.
	for _, arg := range decoded.Args {
		if rel, ok := arg.(arm64asm.PCRel); ok {
			return fmt.Sprintf("%s // %#x", text, pc+uint64(int64(rel)))
		}
	}
	return text
}

// DisassembleRange lists count instructions starting at pc, one per line.
func DisassembleRange(readCode MemoryReadCodeFunc, pc uint64, count int) string {
	var sb strings.Builder
	for i := 0; i < count; i++ {
		addr := pc + uint64(i)*4
		inst := readCode(addr)
		name := "-"
		if m, ok := Decode(inst); ok {
			name = m.Name
		}
		fmt.Fprintf(&sb, "%#010x: %08x  %-12s %s\n", addr, inst, name, Disassemble(inst, addr))
	}
	return sb.String()
}
