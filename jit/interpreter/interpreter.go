// Package interpreter executes IR blocks directly against a guest state. It
// defines the reference semantics of every opcode and is what the front end
// and optimizer are tested against.
package interpreter

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/jit/vector"
	"github.com/colorfulnotion/a64jit/log"
)

// Hooks are the embedder callbacks for instructions that leave the guest.
// A nil hook makes the corresponding event an error.
type Hooks struct {
	CallSupervisor  func(st *State, imm uint32) error
	ExceptionRaised func(st *State, pc uint64, kind a64.Exception) error
	HostCall        func(st *State, mem Memory, fn ir.HostFunctionID) error
}

// Exit describes how a block finished.
type Exit struct {
	// Terminal is the control transfer taken. For host calls it is the
	// return terminal of the CallHLEFunction.
	Terminal ir.Terminal
	// HostCall is the host function invoked before leaving, if any.
	HostCall ir.HostFunctionID
	// NextPC is the guest address execution continues at.
	NextPC uint64
	// RSB holds the return addresses pushed by the block, oldest first.
	RSB []uint64
	// Exceptions lists the exceptions raised by the block.
	Exceptions []a64.Exception
}

type Interpreter struct {
	Memory Memory
	Hooks  Hooks
}

func New(mem Memory, hooks Hooks) *Interpreter {
	return &Interpreter{Memory: mem, Hooks: hooks}
}

type frame struct {
	in     *Interpreter
	st     *State
	block  *ir.Block
	values []vector.V128
	exit   *Exit
}

type handler func(f *frame, inst *ir.Inst) (vector.V128, error)

var handlers [ir.NumOpcodes]handler

// Run executes block against st. The returned error is a memory fault or a
// hook failure; st reflects every instruction executed before it.
func (in *Interpreter) Run(block *ir.Block, st *State) (Exit, error) {
	if !block.HasTerminal() {
		return Exit{}, fmt.Errorf("interpreter: block %s has no terminal", block.Location())
	}
	exit := Exit{}
	f := &frame{in: in, st: st, block: block, values: make([]vector.V128, block.ArenaSize()), exit: &exit}
	for _, id := range block.Instructions() {
		inst := block.Inst(id)
		v, err := handlers[inst.Opcode()](f, inst)
		if err != nil {
			return exit, fmt.Errorf("interpreter: %%%d %s: %w", id, inst.Opcode(), err)
		}
		f.values[id] = v
	}
	if err := f.leave(block.Terminal()); err != nil {
		return exit, err
	}
	log.Trace(log.Interpreter, "Run: block done", "location", block.Location(), "terminal", exit.Terminal,
		"next", fmt.Sprintf("%#x", exit.NextPC))
	return exit, nil
}

func (f *frame) leave(t ir.Terminal) error {
	switch t := t.(type) {
	case ir.LinkBlock:
		f.st.PC = a64.LocationFromIR(t.Next).PC()
	case ir.LinkBlockFast:
		f.st.PC = a64.LocationFromIR(t.Next).PC()
	case ir.ReturnToDispatch, ir.PopRSBHint, ir.FastDispatchHint:
	case ir.CallHLEFunction:
		if f.in.Hooks.HostCall == nil {
			return fmt.Errorf("interpreter: no host call hook for %s", t.Function)
		}
		f.exit.HostCall = t.Function
		if err := f.in.Hooks.HostCall(f.st, f.in.Memory, t.Function); err != nil {
			return fmt.Errorf("interpreter: host call %s: %w", t.Function, err)
		}
		return f.leave(t.Return)
	default:
		panic(fmt.Sprintf("interpreter: unknown terminal %T", t))
	}
	f.exit.Terminal = t
	f.exit.NextPC = f.st.PC
	return nil
}

func (f *frame) arg(inst *ir.Inst, n int) vector.V128 {
	v := f.block.Resolve(inst.Arg(n))
	if v.IsImmediate() {
		return vector.V128{Lo: v.ImmediateAsU64()}
	}
	return f.values[v.Inst()]
}

func (f *frame) u64(inst *ir.Inst, n int) uint64 { return f.arg(inst, n).Lo }

func scalar(x uint64) (vector.V128, error) { return vector.V128{Lo: x}, nil }

func none() (vector.V128, error) { return vector.V128{}, nil }

func (f *frame) getX(r uint8) uint64 {
	if r >= 31 {
		return 0
	}
	return f.st.X[r]
}

func (f *frame) setX(r uint8, x uint64) {
	if r < 31 {
		f.st.X[r] = x
	}
}

func binary64(op func(a, b uint64) uint64) handler {
	return func(f *frame, inst *ir.Inst) (vector.V128, error) {
		return scalar(op(f.u64(inst, 0), f.u64(inst, 1)))
	}
}

func binary32(op func(a, b uint32) uint32) handler {
	return func(f *frame, inst *ir.Inst) (vector.V128, error) {
		return scalar(uint64(op(uint32(f.u64(inst, 0)), uint32(f.u64(inst, 1)))))
	}
}

func vectorBinary(esize int, op func(esize int, a, b vector.V128) vector.V128) handler {
	return func(f *frame, inst *ir.Inst) (vector.V128, error) {
		return op(esize, f.arg(inst, 0), f.arg(inst, 1)), nil
	}
}

func vectorExtend(esize int, op func(esize int, lo uint64) vector.V128) handler {
	return func(f *frame, inst *ir.Inst) (vector.V128, error) {
		return op(esize, f.arg(inst, 0).Lo), nil
	}
}

func readMemory(size int) handler {
	return func(f *frame, inst *ir.Inst) (vector.V128, error) {
		x, err := f.in.Memory.Read(f.u64(inst, 0), size)
		if err != nil {
			return vector.V128{}, err
		}
		return scalar(x)
	}
}

func writeMemory(size int) handler {
	return func(f *frame, inst *ir.Inst) (vector.V128, error) {
		return vector.V128{}, f.in.Memory.Write(f.u64(inst, 0), size, f.u64(inst, 1))
	}
}

func init() {
	table := map[ir.Opcode]handler{
		ir.OpIdentity: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return f.arg(inst, 0), nil
		},
		ir.OpPushRSB: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.exit.RSB = append(f.exit.RSB, a64.LocationFromIR(ir.NewLocationDescriptor(f.u64(inst, 0))).PC())
			return none()
		},

		ir.OpA64GetW: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return scalar(uint64(uint32(f.getX(inst.Arg(0).A64Reg()))))
		},
		ir.OpA64GetX: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return scalar(f.getX(inst.Arg(0).A64Reg()))
		},
		ir.OpA64GetSP: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return scalar(f.st.SP)
		},
		ir.OpA64GetD: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return vector.V128{Lo: f.st.V[inst.Arg(0).A64Vec()].Lo}, nil
		},
		ir.OpA64GetQ: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return f.st.V[inst.Arg(0).A64Vec()], nil
		},
		ir.OpA64SetW: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.setX(inst.Arg(0).A64Reg(), uint64(uint32(f.u64(inst, 1))))
			return none()
		},
		ir.OpA64SetX: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.setX(inst.Arg(0).A64Reg(), f.u64(inst, 1))
			return none()
		},
		ir.OpA64SetSP: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.st.SP = f.u64(inst, 0)
			return none()
		},
		ir.OpA64SetD: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.st.V[inst.Arg(0).A64Vec()] = vector.V128{Lo: f.arg(inst, 1).Lo}
			return none()
		},
		ir.OpA64SetQ: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.st.V[inst.Arg(0).A64Vec()] = f.arg(inst, 1)
			return none()
		},
		ir.OpA64SetPC: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			f.st.PC = f.u64(inst, 0)
			return none()
		},
		ir.OpA64CallSupervisor: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			if f.in.Hooks.CallSupervisor == nil {
				return vector.V128{}, fmt.Errorf("no supervisor call hook")
			}
			return vector.V128{}, f.in.Hooks.CallSupervisor(f.st, uint32(f.u64(inst, 0)))
		},
		ir.OpA64ExceptionRaised: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			pc, kind := f.u64(inst, 0), a64.Exception(f.u64(inst, 1))
			f.exit.Exceptions = append(f.exit.Exceptions, kind)
			f.st.PC = pc
			if f.in.Hooks.ExceptionRaised == nil {
				return none()
			}
			return vector.V128{}, f.in.Hooks.ExceptionRaised(f.st, pc, kind)
		},

		ir.OpA64ReadMemory8:   readMemory(8),
		ir.OpA64ReadMemory16:  readMemory(16),
		ir.OpA64ReadMemory32:  readMemory(32),
		ir.OpA64ReadMemory64:  readMemory(64),
		ir.OpA64WriteMemory8:  writeMemory(8),
		ir.OpA64WriteMemory16: writeMemory(16),
		ir.OpA64WriteMemory32: writeMemory(32),
		ir.OpA64WriteMemory64: writeMemory(64),

		ir.OpAdd32: binary32(func(a, b uint32) uint32 { return a + b }),
		ir.OpAdd64: binary64(func(a, b uint64) uint64 { return a + b }),
		ir.OpSub32: binary32(func(a, b uint32) uint32 { return a - b }),
		ir.OpSub64: binary64(func(a, b uint64) uint64 { return a - b }),
		ir.OpAnd32: binary32(func(a, b uint32) uint32 { return a & b }),
		ir.OpAnd64: binary64(func(a, b uint64) uint64 { return a & b }),
		ir.OpOr32:  binary32(func(a, b uint32) uint32 { return a | b }),
		ir.OpOr64:  binary64(func(a, b uint64) uint64 { return a | b }),
		ir.OpLeastSignificantWord: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return scalar(uint64(uint32(f.u64(inst, 0))))
		},
		ir.OpZeroExtendWordToLong: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return scalar(uint64(uint32(f.u64(inst, 0))))
		},

		ir.OpVectorExtractPart: func(f *frame, inst *ir.Inst) (vector.V128, error) {
			return vector.V128{Lo: vector.Part(128, f.arg(inst, 0), int(f.u64(inst, 1)))}, nil
		},
		ir.OpVectorZeroExtend8:  vectorExtend(8, vector.ZeroExtend),
		ir.OpVectorZeroExtend16: vectorExtend(16, vector.ZeroExtend),
		ir.OpVectorZeroExtend32: vectorExtend(32, vector.ZeroExtend),
		ir.OpVectorSignExtend8:  vectorExtend(8, vector.SignExtend),
		ir.OpVectorSignExtend16: vectorExtend(16, vector.SignExtend),
		ir.OpVectorSignExtend32: vectorExtend(32, vector.SignExtend),
		ir.OpVectorAdd8:         vectorBinary(8, vector.Add),
		ir.OpVectorAdd16:        vectorBinary(16, vector.Add),
		ir.OpVectorAdd32:        vectorBinary(32, vector.Add),
		ir.OpVectorAdd64:        vectorBinary(64, vector.Add),
		ir.OpVectorSub8:         vectorBinary(8, vector.Sub),
		ir.OpVectorSub16:        vectorBinary(16, vector.Sub),
		ir.OpVectorSub32:        vectorBinary(32, vector.Sub),
		ir.OpVectorSub64:        vectorBinary(64, vector.Sub),
		ir.OpVectorMultiply8:    vectorBinary(8, vector.Multiply),
		ir.OpVectorMultiply16:   vectorBinary(16, vector.Multiply),
		ir.OpVectorMultiply32:   vectorBinary(32, vector.Multiply),
		ir.OpVectorMultiply64:   vectorBinary(64, vector.Multiply),

		ir.OpVectorSignedAbsoluteDifference8:    vectorBinary(8, vector.SignedAbsoluteDifference),
		ir.OpVectorSignedAbsoluteDifference16:   vectorBinary(16, vector.SignedAbsoluteDifference),
		ir.OpVectorSignedAbsoluteDifference32:   vectorBinary(32, vector.SignedAbsoluteDifference),
		ir.OpVectorUnsignedAbsoluteDifference8:  vectorBinary(8, vector.UnsignedAbsoluteDifference),
		ir.OpVectorUnsignedAbsoluteDifference16: vectorBinary(16, vector.UnsignedAbsoluteDifference),
		ir.OpVectorUnsignedAbsoluteDifference32: vectorBinary(32, vector.UnsignedAbsoluteDifference),
	}
	for op := ir.Opcode(0); op < ir.NumOpcodes; op++ {
		h, ok := table[op]
		if !ok {
			panic(fmt.Sprintf("interpreter: no handler for %s", op))
		}
		handlers[op] = h
	}
}
