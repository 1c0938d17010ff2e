package a64

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/ir"
)

const (
	pcBitCount    = 56
	pcMask        = uint64(1)<<pcBitCount - 1
	fpcrMask      = uint32(0x07C8_0000)
	fpcrShift     = 37
	singleStepBit = uint64(1) << 57
)

// LocationDescriptor identifies an A64 block: the guest PC plus the FPCR mode
// bits and the single-step flag that change how code at that PC translates.
type LocationDescriptor struct {
	pc         uint64
	fpcr       uint32
	singleStep bool
}

func NewLocationDescriptor(pc uint64, fpcr uint32, singleStep bool) LocationDescriptor {
	return LocationDescriptor{pc: signExtendPC(pc), fpcr: fpcr & fpcrMask, singleStep: singleStep}
}

// LocationFromIR unpacks a descriptor produced by ToIR.
func LocationFromIR(o ir.LocationDescriptor) LocationDescriptor {
	return LocationDescriptor{
		pc:         signExtendPC(o.Value()),
		fpcr:       uint32(o.Value()>>fpcrShift) & fpcrMask,
		singleStep: o.Value()&singleStepBit != 0,
	}
}

func signExtendPC(pc uint64) uint64 {
	return uint64(int64(pc<<(64-pcBitCount)) >> (64 - pcBitCount))
}

func (l LocationDescriptor) PC() uint64           { return l.pc }
func (l LocationDescriptor) FPCR() uint32         { return l.fpcr }
func (l LocationDescriptor) SingleStepping() bool { return l.singleStep }

func (l LocationDescriptor) SetPC(pc uint64) LocationDescriptor {
	return NewLocationDescriptor(pc, l.fpcr, l.singleStep)
}

func (l LocationDescriptor) AdvancePC(amount int) LocationDescriptor {
	return l.SetPC(l.pc + uint64(int64(amount)))
}

func (l LocationDescriptor) SetSingleStepping(step bool) LocationDescriptor {
	l.singleStep = step
	return l
}

// UniqueHash packs the descriptor into 64 bits. Distinct descriptors never collide.
func (l LocationDescriptor) UniqueHash() uint64 {
	h := l.pc&pcMask | uint64(l.fpcr)<<fpcrShift
	if l.singleStep {
		h |= singleStepBit
	}
	return h
}

func (l LocationDescriptor) ToIR() ir.LocationDescriptor {
	return ir.NewLocationDescriptor(l.UniqueHash())
}

func (l LocationDescriptor) String() string {
	if l.singleStep {
		return fmt.Sprintf("a64:%016x:%08x:step", l.pc, l.fpcr)
	}
	return fmt.Sprintf("a64:%016x:%08x", l.pc, l.fpcr)
}
