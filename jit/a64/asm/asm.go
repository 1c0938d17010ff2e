// Package asm encodes the A64 instructions the translator understands. It is
// used to build guest code for tests and tools without binary fixtures.
package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/a64"
)

// Program accumulates instruction words at consecutive addresses.
type Program struct {
	base  uint64
	words map[uint64]uint32
	next  uint64
}

func NewProgram(base uint64) *Program {
	return &Program{base: base, words: make(map[uint64]uint32), next: base}
}

// Org moves the emission point to addr.
func (p *Program) Org(addr uint64) *Program {
	p.next = addr
	return p
}

// PC is the address the next instruction is emitted at.
func (p *Program) PC() uint64 { return p.next }

func (p *Program) Emit(words ...uint32) *Program {
	for _, w := range words {
		p.words[p.next] = w
		p.next += 4
	}
	return p
}

// Word stores a raw 32-bit datum at addr without moving the emission point.
func (p *Program) Word(addr uint64, w uint32) *Program {
	p.words[addr] = w
	return p
}

// Quad stores a little-endian 64-bit datum at addr.
func (p *Program) Quad(addr uint64, q uint64) *Program {
	p.words[addr] = uint32(q)
	p.words[addr+4] = uint32(q >> 32)
	return p
}

func (p *Program) ReadCode(vaddr uint64) uint32 {
	return p.words[vaddr]
}

// Image flattens the program from base up to the highest written word.
func (p *Program) Image() *a64.Image {
	var end uint64
	for addr := range p.words {
		if addr+4 > end {
			end = addr + 4
		}
	}
	if end < p.base {
		end = p.base
	}
	data := make([]byte, end-p.base)
	for addr, w := range p.words {
		if addr >= p.base {
			binary.LittleEndian.PutUint32(data[addr-p.base:], w)
		}
	}
	return a64.NewImage(p.base, data)
}

func reg(r a64.Reg) uint32 { return uint32(r) & 0x1f }
func vec(v a64.Vec) uint32 { return uint32(v) & 0x1f }

func sf(is64 bool) uint32 {
	if is64 {
		return 1 << 31
	}
	return 0
}

func checkRange(name string, x, lo, hi int64) {
	if x < lo || x > hi {
		panic(fmt.Sprintf("asm: %s immediate %d out of range [%d, %d]", name, x, lo, hi))
	}
}

func checkAligned(name string, offset int64) {
	if offset%4 != 0 {
		panic(fmt.Sprintf("asm: %s offset %d is not word aligned", name, offset))
	}
}

// Three-different opcodes, bits 15:12.
const (
	opAddLong  = 0b0000
	opAddWide  = 0b0001
	opSubLong  = 0b0010
	opSubWide  = 0b0011
	opAbsAccum = 0b0101
	opAbsDiff  = 0b0111
	opMulLong  = 0b1100
)

func threeDifferent(unsigned bool, opcode uint32, q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	inst := uint32(0x0E200000) | size&3<<22 | vec(vm)<<16 | opcode<<12 | vec(vn)<<5 | vec(vd)
	if q {
		inst |= 1 << 30
	}
	if unsigned {
		inst |= 1 << 29
	}
	return inst
}

// SADDL{2} Vd, Vn, Vm with lane size 8<<size. q selects the upper halves.
func SADDL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opAddLong, q, size, vd, vn, vm)
}

func SADDW(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opAddWide, q, size, vd, vn, vm)
}

func SSUBL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opSubLong, q, size, vd, vn, vm)
}

func SSUBW(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opSubWide, q, size, vd, vn, vm)
}

func SABAL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opAbsAccum, q, size, vd, vn, vm)
}

func SABDL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opAbsDiff, q, size, vd, vn, vm)
}

func SMULL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(false, opMulLong, q, size, vd, vn, vm)
}

func UADDL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opAddLong, q, size, vd, vn, vm)
}

func UADDW(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opAddWide, q, size, vd, vn, vm)
}

func USUBL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opSubLong, q, size, vd, vn, vm)
}

func USUBW(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opSubWide, q, size, vd, vn, vm)
}

func UABAL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opAbsAccum, q, size, vd, vn, vm)
}

func UABDL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opAbsDiff, q, size, vd, vn, vm)
}

func UMULL(q bool, size uint32, vd, vn, vm a64.Vec) uint32 {
	return threeDifferent(true, opMulLong, q, size, vd, vn, vm)
}

func adr(op uint32, rd a64.Reg, imm int64) uint32 {
	u := uint32(imm) & 0x1fffff
	return op<<31 | (u&3)<<29 | 0x10000000 | (u>>2)<<5 | reg(rd)
}

// ADR Xd, pc+offset
func ADR(rd a64.Reg, offset int64) uint32 {
	checkRange("ADR", offset, -1<<20, 1<<20-1)
	return adr(0, rd, offset)
}

// ADRP Xd, page(pc)+pages*4096
func ADRP(rd a64.Reg, pages int64) uint32 {
	checkRange("ADRP", pages, -1<<20, 1<<20-1)
	return adr(1, rd, pages)
}

func addSubImm(is64, sub bool, rd, rn a64.Reg, imm12 uint32, shift12 bool) uint32 {
	checkRange("ADD/SUB", int64(imm12), 0, 0xfff)
	inst := sf(is64) | 0x11000000 | imm12<<10 | reg(rn)<<5 | reg(rd)
	if sub {
		inst |= 1 << 30
	}
	if shift12 {
		inst |= 1 << 22
	}
	return inst
}

// ADDImm is ADD Rd|SP, Rn|SP, #imm12{, LSL #12}.
func ADDImm(is64 bool, rd, rn a64.Reg, imm12 uint32, shift12 bool) uint32 {
	return addSubImm(is64, false, rd, rn, imm12, shift12)
}

func SUBImm(is64 bool, rd, rn a64.Reg, imm12 uint32, shift12 bool) uint32 {
	return addSubImm(is64, true, rd, rn, imm12, shift12)
}

func moveWide(is64 bool, opc uint32, rd a64.Reg, imm16 uint16, shift int) uint32 {
	hw := uint32(shift / 16)
	return sf(is64) | opc<<29 | 0x12800000 | hw<<21 | uint32(imm16)<<5 | reg(rd)
}

// MOVZ Rd, #imm16, LSL #shift (shift = 0, 16, 32, 48)
func MOVZ(is64 bool, rd a64.Reg, imm16 uint16, shift int) uint32 {
	return moveWide(is64, 0b10, rd, imm16, shift)
}

// MOVK Rd, #imm16, LSL #shift
func MOVK(is64 bool, rd a64.Reg, imm16 uint16, shift int) uint32 {
	return moveWide(is64, 0b11, rd, imm16, shift)
}

// LDRLiteral is LDR Rt, pc+offset.
func LDRLiteral(is64 bool, rt a64.Reg, offset int64) uint32 {
	checkAligned("LDR (literal)", offset)
	checkRange("LDR (literal)", offset, -1<<20, 1<<20-4)
	inst := uint32(0x18000000) | (uint32(offset>>2)&0x7ffff)<<5 | reg(rt)
	if is64 {
		inst |= 1 << 30
	}
	return inst
}

func unsignedOffset(is64, load bool, rt, rn a64.Reg, offset uint32) uint32 {
	scale := uint32(2)
	inst := uint32(0xB9000000)
	if is64 {
		scale = 3
		inst = 0xF9000000
	}
	if offset%(1<<scale) != 0 || offset>>scale > 0xfff {
		panic(fmt.Sprintf("asm: LDR/STR offset %d not encodable", offset))
	}
	if load {
		inst |= 1 << 22
	}
	return inst | (offset>>scale)<<10 | reg(rn)<<5 | reg(rt)
}

// LDRImm is LDR Rt, [Rn|SP, #offset].
func LDRImm(is64 bool, rt, rn a64.Reg, offset uint32) uint32 {
	return unsignedOffset(is64, true, rt, rn, offset)
}

// STRImm is STR Rt, [Rn|SP, #offset].
func STRImm(is64 bool, rt, rn a64.Reg, offset uint32) uint32 {
	return unsignedOffset(is64, false, rt, rn, offset)
}

func indexed(load, pre bool, rt, rn a64.Reg, imm9 int64) uint32 {
	checkRange("LDR/STR (indexed)", imm9, -256, 255)
	inst := uint32(0xF8000400) | (uint32(imm9)&0x1ff)<<12 | reg(rn)<<5 | reg(rt)
	if load {
		inst |= 1 << 22
	}
	if pre {
		inst |= 1 << 11
	}
	return inst
}

// Post-index forms access [Xn|SP] then add imm9; pre-index forms add first
// and access the updated address.
func LDRPost(rt, rn a64.Reg, imm9 int64) uint32 { return indexed(true, false, rt, rn, imm9) }
func LDRPre(rt, rn a64.Reg, imm9 int64) uint32  { return indexed(true, true, rt, rn, imm9) }
func STRPost(rt, rn a64.Reg, imm9 int64) uint32 { return indexed(false, false, rt, rn, imm9) }
func STRPre(rt, rn a64.Reg, imm9 int64) uint32  { return indexed(false, true, rt, rn, imm9) }

func branchImm(op uint32, offset int64) uint32 {
	checkAligned("B/BL", offset)
	checkRange("B/BL", offset, -1<<27, 1<<27-4)
	return op | uint32(offset>>2)&0x3ffffff
}

// B branches to pc+offset.
func B(offset int64) uint32  { return branchImm(0x14000000, offset) }
func BL(offset int64) uint32 { return branchImm(0x94000000, offset) }

func BR(rn a64.Reg) uint32  { return 0xD61F0000 | reg(rn)<<5 }
func BLR(rn a64.Reg) uint32 { return 0xD63F0000 | reg(rn)<<5 }
func RET(rn a64.Reg) uint32 { return 0xD65F0000 | reg(rn)<<5 }

func NOP() uint32 { return 0xD503201F }

func SVC(imm16 uint16) uint32 { return 0xD4000001 | uint32(imm16)<<5 }
