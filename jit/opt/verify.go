package opt

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/ir"
)

func invalid(block *ir.Block, cause error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: block %s: %w: %s", jiterrors.ErrInvalidBlock, block.Location(), cause, fmt.Sprintf(format, args...))
}

// Verify checks the structure of block: a well-formed terminal,
// arguments that refer to earlier live instructions of the same block with
// the declared types, and use counts that match the arguments.
func Verify(block *ir.Block) error {
	if !block.HasTerminal() {
		return invalid(block, jiterrors.ErrMissingTerminal, "no terminal")
	}
	if err := ir.ValidateTerminal(block.Terminal()); err != nil {
		return invalid(block, jiterrors.ErrInvalidBlock, "%v", err)
	}

	uses := make(map[ir.InstID]int)
	for _, id := range block.Instructions() {
		inst := block.Inst(id)
		op := inst.Opcode()
		for n := 0; n < inst.NumArgs(); n++ {
			arg := inst.Arg(n)
			if arg.IsEmpty() {
				return invalid(block, jiterrors.ErrDanglingReference, "%%%d %s argument %d is empty", id, op, n)
			}
			if arg.IsInst() {
				if !block.Owns(arg) {
					return invalid(block, jiterrors.ErrDanglingReference, "%%%d %s argument %d is %s", id, op, n, arg)
				}
				if arg.Inst() >= id {
					return invalid(block, jiterrors.ErrUseBeforeDef, "%%%d %s uses %s", id, op, arg)
				}
				uses[arg.Inst()]++
			}
			if t := block.TypeOf(arg); !ir.AreTypesCompatible(t, op.ArgType(n)) {
				return invalid(block, jiterrors.ErrTypeMismatch, "%%%d %s argument %d has type %s, want %s", id, op, n, t, op.ArgType(n))
			}
		}
	}
	for _, id := range block.Instructions() {
		if got, want := block.Inst(id).Uses(), uses[id]; got != want {
			return invalid(block, jiterrors.ErrUseCount, "%%%d records %d uses, found %d", id, got, want)
		}
	}
	return nil
}

// VerificationPass panics if block is inconsistent. An inconsistent block is
// a bug in the front end or an earlier pass.
func VerificationPass(block *ir.Block) {
	if err := Verify(block); err != nil {
		panic(fmt.Sprintf("%v\n%s", err, ir.DumpBlock(block)))
	}
}
