package opt

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/hle"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
	"github.com/samber/lo"
)

// stubMatch is a callee recognized as a call through a function pointer slot.
type stubMatch struct {
	readLocation uint64
}

// matchStub translates the target of caller's LinkBlock into a private block
// and checks that it only loads a function pointer from a fixed address and
// jumps to it, touching nothing but IP0/IP1 on the way. The speculative block
// is dropped whatever the outcome.
func matchStub(caller *ir.Block, conf *config.UserConfig) (stubMatch, bool) {
	link, ok := caller.Terminal().(ir.LinkBlock)
	if !ok {
		return stubMatch{}, false
	}

	callee := a64.Translate(a64.LocationFromIR(link.Next), conf.ReadCode(), conf.TranslationOptions())
	Optimize(callee)

	if _, ok := callee.Terminal().(ir.FastDispatchHint); !ok {
		return stubMatch{}, false
	}
	setPC, ok := callee.Back()
	if !ok || callee.Inst(setPC).Opcode() != ir.OpA64SetPC {
		return stubMatch{}, false
	}
	target := callee.Resolve(callee.Inst(setPC).Arg(0))
	if target.IsImmediate() {
		return stubMatch{}, false
	}
	readMemory := target.Inst()
	if callee.Inst(readMemory).Opcode() != ir.OpA64ReadMemory64 {
		return stubMatch{}, false
	}
	address := callee.Resolve(callee.Inst(readMemory).Arg(0))
	if !address.IsImmediate() {
		return stubMatch{}, false
	}

	for _, id := range callee.Instructions() {
		inst := callee.Inst(id)
		if !inst.MayHaveSideEffects() || id == setPC || id == readMemory {
			continue
		}
		if !isScratchWrite(inst) {
			log.Trace(log.HLE, "matchStub: side effect outside scratch registers", "callee", callee.Location(),
				"inst", id, "op", inst.Opcode())
			return stubMatch{}, false
		}
	}
	return stubMatch{readLocation: address.U64()}, true
}

// isScratchWrite reports whether inst writes only IP0 or IP1, which a stub
// may clobber under the procedure call standard.
func isScratchWrite(inst *ir.Inst) bool {
	switch inst.Opcode() {
	case ir.OpA64SetW, ir.OpA64SetX:
		return a64.Reg(inst.Arg(0).A64Reg()).IsIntraProcedureScratch()
	default:
		return false
	}
}

// A64HLEPass replaces a branch to a function pointer stub by a direct call of
// the host function registered for the stub's pointer slot. The caller is
// left untouched unless the whole pattern matches and the slot is in
// functions. It reports whether block was rewritten.
func A64HLEPass(block *ir.Block, conf *config.UserConfig, functions hle.FunctionMap) bool {
	match, ok := matchStub(block, conf)
	if !ok {
		return false
	}
	fn, ok := functions.Lookup(match.readLocation)
	if !ok {
		log.Trace(log.HLE, "A64HLEPass: stub slot has no host function", "slot", fmt.Sprintf("%#x", match.readLocation))
		return false
	}

	pushRSB, found := lo.Find(block.Instructions(), func(id ir.InstID) bool {
		return block.Inst(id).Opcode() == ir.OpPushRSB
	})
	if found {
		block.Remove(pushRSB)
		block.ReplaceTerminal(ir.CallHLEFunction{Function: fn, Return: ir.LinkBlockFast{Next: block.EndLocation()}})
	} else {
		e := a64.NewIREmitter(block, a64.LocationFromIR(block.EndLocation()))
		e.SetPC(e.GetX(a64.LR))
		block.ReplaceTerminal(ir.CallHLEFunction{Function: fn, Return: ir.PopRSBHint{}})
	}
	log.Debug(log.HLE, "A64HLEPass: stub replaced", "caller", block.Location(), "slot", fmt.Sprintf("%#x", match.readLocation),
		"function", fn, "terminal", block.Terminal())
	return true
}
