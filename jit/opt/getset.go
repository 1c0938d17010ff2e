// Package opt holds the block-local IR optimization passes.
package opt

import (
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
)

type trackingKind uint8

const (
	trackNone trackingKind = iota
	trackW
	trackX
	trackD
	trackQ
)

// regInfo is what the pass knows about one guest register at the current
// point of the block.
type regInfo struct {
	value   ir.Value
	kind    trackingKind
	lastSet ir.InstID
	setLive bool
}

type getSetState struct {
	block *ir.Block
	regs  [32]regInfo
	vecs  [32]regInfo
	sp    regInfo

	forwarded int
	removed   int
}

func (s *getSetState) get(info *regInfo, id ir.InstID, kind trackingKind) {
	if info.kind == kind && !info.value.IsEmpty() {
		s.block.ReplaceUsesWith(id, info.value)
		s.forwarded++
		return
	}
	// A read of a different width observes the pending set.
	info.setLive = false
	info.kind = kind
	info.value = s.block.Ref(id)
}

func (s *getSetState) set(info *regInfo, id ir.InstID, value ir.Value, kind trackingKind) {
	if info.setLive {
		s.block.Remove(info.lastSet)
		s.removed++
	}
	*info = regInfo{value: value, kind: kind, lastSet: id, setLive: true}
}

// observeAll keeps every pending set: something may read guest state
// through a path the pass cannot see.
func (s *getSetState) observeAll() {
	for i := range s.regs {
		s.regs[i].setLive = false
	}
	for i := range s.vecs {
		s.vecs[i].setLive = false
	}
	s.sp.setLive = false
}

func (s *getSetState) forgetAll() {
	s.regs = [32]regInfo{}
	s.vecs = [32]regInfo{}
	s.sp = regInfo{}
}

// A64GetSetElimination forwards values written to a guest register to later
// reads of the same width, and removes writes that are overwritten before
// anything can observe them. Memory accesses keep pending writes alive since
// a fault exposes guest state; exceptions and supervisor calls additionally
// invalidate everything known about the registers.
func A64GetSetElimination(block *ir.Block) {
	s := &getSetState{block: block}
	for _, id := range block.Instructions() {
		inst := block.Inst(id)
		switch op := inst.Opcode(); op {
		case ir.OpA64GetW:
			s.get(&s.regs[inst.Arg(0).A64Reg()], id, trackW)
		case ir.OpA64GetX:
			s.get(&s.regs[inst.Arg(0).A64Reg()], id, trackX)
		case ir.OpA64GetSP:
			s.get(&s.sp, id, trackX)
		case ir.OpA64GetD:
			s.get(&s.vecs[inst.Arg(0).A64Vec()], id, trackD)
		case ir.OpA64GetQ:
			s.get(&s.vecs[inst.Arg(0).A64Vec()], id, trackQ)
		case ir.OpA64SetW:
			s.set(&s.regs[inst.Arg(0).A64Reg()], id, inst.Arg(1), trackW)
		case ir.OpA64SetX:
			s.set(&s.regs[inst.Arg(0).A64Reg()], id, inst.Arg(1), trackX)
		case ir.OpA64SetSP:
			s.set(&s.sp, id, inst.Arg(0), trackX)
		case ir.OpA64SetD:
			// Only the low half of the value is stored, so it can be
			// forwarded to neither read width.
			s.set(&s.vecs[inst.Arg(0).A64Vec()], id, inst.Arg(1), trackNone)
		case ir.OpA64SetQ:
			s.set(&s.vecs[inst.Arg(0).A64Vec()], id, inst.Arg(1), trackQ)
		default:
			switch {
			case op.CausesCPUException():
				s.observeAll()
				s.forgetAll()
			case op.IsMemoryRead() || op.IsMemoryWrite():
				s.observeAll()
			case op.ReadsFromCoreRegister() || op.WritesToCoreRegister():
				s.observeAll()
				s.forgetAll()
			}
		}
	}
	log.Trace(log.IROpt, "A64GetSetElimination", "location", block.Location(), "forwarded", s.forwarded, "removed", s.removed)
}
