package opt

import (
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
)

type foldFunc func(a, b uint64) uint64

var binaryFolds = map[ir.Opcode]struct {
	typ ir.Type
	fn  foldFunc
}{
	ir.OpAdd32: {ir.TypeU32, func(a, b uint64) uint64 { return a + b }},
	ir.OpAdd64: {ir.TypeU64, func(a, b uint64) uint64 { return a + b }},
	ir.OpSub32: {ir.TypeU32, func(a, b uint64) uint64 { return a - b }},
	ir.OpSub64: {ir.TypeU64, func(a, b uint64) uint64 { return a - b }},
	ir.OpAnd32: {ir.TypeU32, func(a, b uint64) uint64 { return a & b }},
	ir.OpAnd64: {ir.TypeU64, func(a, b uint64) uint64 { return a & b }},
	ir.OpOr32:  {ir.TypeU32, func(a, b uint64) uint64 { return a | b }},
	ir.OpOr64:  {ir.TypeU64, func(a, b uint64) uint64 { return a | b }},
}

func allOnes(t ir.Type) uint64 {
	if t == ir.TypeU32 {
		return 0xffffffff
	}
	return ^uint64(0)
}

// ConstantPropagation folds scalar operations whose operands are all
// immediates, and simplifies operations with an identity or absorbing
// immediate operand.
func ConstantPropagation(block *ir.Block) {
	folded := 0
	for _, id := range block.Instructions() {
		if foldInst(block, id) {
			folded++
		}
	}
	log.Trace(log.IROpt, "ConstantPropagation", "location", block.Location(), "folded", folded)
}

func foldInst(block *ir.Block, id ir.InstID) bool {
	inst := block.Inst(id)
	op := inst.Opcode()
	switch op {
	case ir.OpLeastSignificantWord, ir.OpZeroExtendWordToLong:
		a := block.Resolve(inst.Arg(0))
		if !a.IsImmediate() {
			return false
		}
		block.ReplaceUsesWith(id, ir.ImmOfType(op.ReturnType(), uint64(uint32(a.ImmediateAsU64()))))
		return true
	}

	f, ok := binaryFolds[op]
	if !ok {
		return false
	}
	a, b := block.Resolve(inst.Arg(0)), block.Resolve(inst.Arg(1))
	if a.IsImmediate() && b.IsImmediate() {
		block.ReplaceUsesWith(id, ir.ImmOfType(f.typ, f.fn(a.ImmediateAsU64(), b.ImmediateAsU64())))
		return true
	}
	if !b.IsImmediate() {
		return false
	}
	switch imm := b.ImmediateAsU64(); {
	case imm == 0 && (op == ir.OpAdd32 || op == ir.OpAdd64 || op == ir.OpSub32 || op == ir.OpSub64 ||
		op == ir.OpOr32 || op == ir.OpOr64):
		block.ReplaceUsesWith(id, a)
	case imm == 0 && (op == ir.OpAnd32 || op == ir.OpAnd64):
		block.ReplaceUsesWith(id, ir.ImmOfType(f.typ, 0))
	case imm == allOnes(f.typ) && (op == ir.OpAnd32 || op == ir.OpAnd64):
		block.ReplaceUsesWith(id, a)
	default:
		return false
	}
	return true
}
