package a64

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/ir"
)

// IREmitter adds A64 guest-state accessors to the generic emitter and tracks
// the location of the instruction being translated.
type IREmitter struct {
	*ir.IREmitter
	Current LocationDescriptor
}

func NewIREmitter(block *ir.Block, current LocationDescriptor) *IREmitter {
	return &IREmitter{IREmitter: ir.NewIREmitter(block), Current: current}
}

// PC is the address of the instruction being translated.
func (e *IREmitter) PC() uint64 { return e.Current.PC() }

// AlignPC returns PC rounded down to a multiple of alignment.
func (e *IREmitter) AlignPC(alignment uint64) uint64 {
	return e.PC() - e.PC()%alignment
}

func (e *IREmitter) GetW(r Reg) ir.Value { return e.Inst(ir.OpA64GetW, ir.ImmA64Reg(uint8(r))) }
func (e *IREmitter) GetX(r Reg) ir.Value { return e.Inst(ir.OpA64GetX, ir.ImmA64Reg(uint8(r))) }
func (e *IREmitter) GetSP() ir.Value     { return e.Inst(ir.OpA64GetSP) }
func (e *IREmitter) GetD(v Vec) ir.Value { return e.Inst(ir.OpA64GetD, ir.ImmA64Vec(uint8(v))) }
func (e *IREmitter) GetQ(v Vec) ir.Value { return e.Inst(ir.OpA64GetQ, ir.ImmA64Vec(uint8(v))) }

func (e *IREmitter) SetW(r Reg, value ir.Value) { e.Inst(ir.OpA64SetW, ir.ImmA64Reg(uint8(r)), value) }
func (e *IREmitter) SetX(r Reg, value ir.Value) { e.Inst(ir.OpA64SetX, ir.ImmA64Reg(uint8(r)), value) }
func (e *IREmitter) SetSP(value ir.Value)       { e.Inst(ir.OpA64SetSP, value) }
func (e *IREmitter) SetD(v Vec, value ir.Value) { e.Inst(ir.OpA64SetD, ir.ImmA64Vec(uint8(v)), value) }
func (e *IREmitter) SetQ(v Vec, value ir.Value) { e.Inst(ir.OpA64SetQ, ir.ImmA64Vec(uint8(v)), value) }
func (e *IREmitter) SetPC(value ir.Value)       { e.Inst(ir.OpA64SetPC, value) }

func (e *IREmitter) CallSupervisor(imm uint32) {
	e.Inst(ir.OpA64CallSupervisor, ir.Imm32(imm))
}

func (e *IREmitter) ExceptionRaised(pc uint64, kind Exception) {
	e.Inst(ir.OpA64ExceptionRaised, ir.Imm64(pc), ir.Imm64(uint64(kind)))
}

// ReadMemory loads bitsize bits from vaddr.
func (e *IREmitter) ReadMemory(bitsize int, vaddr ir.Value) ir.Value {
	switch bitsize {
	case 8:
		return e.Inst(ir.OpA64ReadMemory8, vaddr)
	case 16:
		return e.Inst(ir.OpA64ReadMemory16, vaddr)
	case 32:
		return e.Inst(ir.OpA64ReadMemory32, vaddr)
	case 64:
		return e.Inst(ir.OpA64ReadMemory64, vaddr)
	}
	panic(fmt.Sprintf("a64: invalid memory access size %d", bitsize))
}

// WriteMemory stores value, whose width selects the access size, at vaddr.
func (e *IREmitter) WriteMemory(bitsize int, vaddr, value ir.Value) {
	switch bitsize {
	case 8:
		e.Inst(ir.OpA64WriteMemory8, vaddr, value)
	case 16:
		e.Inst(ir.OpA64WriteMemory16, vaddr, value)
	case 32:
		e.Inst(ir.OpA64WriteMemory32, vaddr, value)
	case 64:
		e.Inst(ir.OpA64WriteMemory64, vaddr, value)
	default:
		panic(fmt.Sprintf("a64: invalid memory access size %d", bitsize))
	}
}

// PushRSBFor records the return address of a call at the current location.
func (e *IREmitter) PushRSBFor(ret LocationDescriptor) {
	e.PushRSB(ret.ToIR())
}
