package opt

import (
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
)

// resolveIdentities points every argument past identity chains so the
// identities themselves lose their uses.
func resolveIdentities(block *ir.Block) {
	for _, id := range block.Instructions() {
		inst := block.Inst(id)
		if inst.Opcode() == ir.OpIdentity {
			continue
		}
		for n := 0; n < inst.NumArgs(); n++ {
			arg := inst.Arg(n)
			if !arg.IsInst() {
				continue
			}
			if r := block.Resolve(arg); r != arg {
				block.SetArg(id, n, r)
			}
		}
	}
}

// DeadCodeElimination removes every instruction whose result is unused and
// which has no side effects. One backward sweep reaches the fixed point:
// removing an instruction only releases uses of instructions before it.
func DeadCodeElimination(block *ir.Block) {
	resolveIdentities(block)

	ids := block.Instructions()
	removed := 0
	for i := len(ids) - 1; i >= 0; i-- {
		inst := block.Inst(ids[i])
		if inst.HasUses() || inst.MayHaveSideEffects() {
			continue
		}
		block.Remove(ids[i])
		removed++
	}
	log.Trace(log.IROpt, "DeadCodeElimination", "location", block.Location(), "removed", removed)
}
