package a64

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
)

// DefaultMaxBlockInstructions bounds a block that never reaches a branch.
const DefaultMaxBlockInstructions = 64

// MemoryReadCodeFunc returns the instruction word at vaddr.
type MemoryReadCodeFunc func(vaddr uint64) uint32

// TranslationOptions are the behavior flags that change what IR a given
// instruction word translates to.
type TranslationOptions struct {
	// DefineUnpredictableBehaviour translates CONSTRAINED UNPREDICTABLE
	// encodings with one of the permitted behaviours instead of faulting.
	DefineUnpredictableBehaviour bool

	// EnableFastDispatch ends indirect branches with FastDispatchHint rather
	// than ReturnToDispatch.
	EnableFastDispatch bool

	// MaxInstructions caps the number of guest instructions per block.
	// Zero selects DefaultMaxBlockInstructions.
	MaxInstructions int
}

func (o TranslationOptions) maxInstructions() int {
	if o.MaxInstructions <= 0 {
		return DefaultMaxBlockInstructions
	}
	return o.MaxInstructions
}

// TranslatorVisitor carries the state shared by instruction handlers while
// one block is being translated.
type TranslatorVisitor struct {
	ir      *IREmitter
	options TranslationOptions
}

func newVisitor(block *ir.Block, location LocationDescriptor, options TranslationOptions) *TranslatorVisitor {
	return &TranslatorVisitor{ir: NewIREmitter(block, location), options: options}
}

// Translate translates guest code starting at descriptor until a branch, a
// faulting instruction or the instruction limit ends the block. A faulting
// instruction is replaced by an A64ExceptionRaised trap that returns to the
// dispatcher.
func Translate(descriptor LocationDescriptor, readCode MemoryReadCodeFunc, options TranslationOptions) *ir.Block {
	block := ir.NewBlock(descriptor.ToIR())
	v := newVisitor(block, descriptor, options)
	singleStep := descriptor.SingleStepping()
	limit := options.maxInstructions()

	var cycles uint64
	for {
		pc := v.ir.PC()
		inst := readCode(pc)
		err := v.translateOne(inst)
		cycles++
		if err != nil {
			kind := exceptionFor(err)
			log.Debug(log.A64Translate, "Translate: trapping instruction", "pc", fmt.Sprintf("%#x", pc),
				"inst", fmt.Sprintf("%08x", inst), "exception", kind, "err", err)
			v.ir.ExceptionRaised(pc, kind)
			v.ir.SetTerm(ir.ReturnToDispatch{})
		}
		v.ir.Current = v.ir.Current.AdvancePC(4)
		if block.HasTerminal() {
			break
		}
		if singleStep || int(cycles) >= limit {
			v.ir.SetTerm(ir.LinkBlock{Next: v.ir.Current.ToIR()})
			break
		}
	}

	block.SetCycleCount(cycles)
	block.SetEndLocation(v.ir.Current.ToIR())
	log.Trace(log.A64Translate, "Translate: block done", "location", descriptor, "cycles", cycles,
		"terminal", block.Terminal())
	return block
}

// TranslateSingleInstruction appends the translation of inst, located at
// descriptor, to block. On a decode fault nothing is emitted and the fault is
// returned unchanged. The boolean reports whether translation may continue
// with the next instruction.
func TranslateSingleInstruction(block *ir.Block, descriptor LocationDescriptor, inst uint32, options TranslationOptions) (bool, error) {
	v := newVisitor(block, descriptor, options)
	if err := v.translateOne(inst); err != nil {
		return false, err
	}
	block.AddCycles(1)
	block.SetEndLocation(descriptor.AdvancePC(4).ToIR())
	return !block.HasTerminal(), nil
}

func (v *TranslatorVisitor) translateOne(inst uint32) error {
	if log.IsModuleEnabled(log.A64Translate) {
		log.Trace(log.A64Translate, "translateOne", "pc", fmt.Sprintf("%#x", v.ir.PC()),
			"inst", fmt.Sprintf("%08x", inst), "asm", Disassemble(inst, v.ir.PC()))
	}
	m, ok := Decode(inst)
	if !ok {
		return fmt.Errorf("pc %#x: inst %08x: %w", v.ir.PC(), inst, jiterrors.ErrUnallocatedEncoding)
	}
	if err := m.Call(v, inst); err != nil {
		return fmt.Errorf("pc %#x: %s: %w", v.ir.PC(), m.Name, err)
	}
	return nil
}

func exceptionFor(err error) Exception {
	switch {
	case errors.Is(err, jiterrors.ErrReservedValue):
		return ExceptionReservedValue
	case errors.Is(err, jiterrors.ErrUnpredictableInstruction):
		return ExceptionUnpredictableInstruction
	case errors.Is(err, jiterrors.ErrUnallocatedEncoding):
		return ExceptionUnallocatedEncoding
	default:
		return ExceptionDecodeFailure
	}
}

func (v *TranslatorVisitor) ReservedValue() error       { return jiterrors.ErrReservedValue }
func (v *TranslatorVisitor) UnallocatedEncoding() error { return jiterrors.ErrUnallocatedEncoding }
func (v *TranslatorVisitor) UnpredictableInstruction() error {
	return jiterrors.ErrUnpredictableInstruction
}

// X reads a general purpose register; register 31 reads as zero.
func (v *TranslatorVisitor) X(bitsize int, r Reg) ir.Value {
	switch bitsize {
	case 32:
		if r == ZR {
			return ir.Imm32(0)
		}
		return v.ir.GetW(r)
	case 64:
		if r == ZR {
			return ir.Imm64(0)
		}
		return v.ir.GetX(r)
	}
	panic(fmt.Sprintf("a64: invalid register size %d", bitsize))
}

// SetX writes a general purpose register; writes to register 31 are discarded.
func (v *TranslatorVisitor) SetX(bitsize int, r Reg, value ir.Value) {
	if r == ZR {
		return
	}
	switch bitsize {
	case 32:
		v.ir.SetW(r, value)
	case 64:
		v.ir.SetX(r, value)
	default:
		panic(fmt.Sprintf("a64: invalid register size %d", bitsize))
	}
}

func (v *TranslatorVisitor) SP(bitsize int) ir.Value {
	switch bitsize {
	case 32:
		return v.ir.LeastSignificantWord(v.ir.GetSP())
	case 64:
		return v.ir.GetSP()
	}
	panic(fmt.Sprintf("a64: invalid SP size %d", bitsize))
}

func (v *TranslatorVisitor) SetSP(bitsize int, value ir.Value) {
	switch bitsize {
	case 32:
		v.ir.SetSP(v.ir.ZeroExtendWordToLong(value))
	case 64:
		v.ir.SetSP(value)
	default:
		panic(fmt.Sprintf("a64: invalid SP size %d", bitsize))
	}
}

// XOrSP reads register r, treating 31 as the stack pointer.
func (v *TranslatorVisitor) XOrSP(bitsize int, r Reg) ir.Value {
	if r == SP {
		return v.SP(bitsize)
	}
	return v.X(bitsize, r)
}

func (v *TranslatorVisitor) SetXOrSP(bitsize int, r Reg, value ir.Value) {
	if r == SP {
		v.SetSP(bitsize, value)
		return
	}
	v.SetX(bitsize, r, value)
}

// V reads a vector register as a 64 or 128 bit value. 64-bit reads zero the
// upper half of the result.
func (v *TranslatorVisitor) V(bitsize int, vec Vec) ir.Value {
	switch bitsize {
	case 64:
		return v.ir.GetD(vec)
	case 128:
		return v.ir.GetQ(vec)
	}
	panic(fmt.Sprintf("a64: invalid vector size %d", bitsize))
}

// SetV writes a vector register. 64-bit writes clear the upper half.
func (v *TranslatorVisitor) SetV(bitsize int, vec Vec, value ir.Value) {
	switch bitsize {
	case 64:
		v.ir.SetD(vec, value)
	case 128:
		v.ir.SetQ(vec, value)
	default:
		panic(fmt.Sprintf("a64: invalid vector size %d", bitsize))
	}
}

// Vpart reads the part-th bitsize-bit slice of vec into the low bits of the
// result. With bitsize 128 only part 0 exists and is the whole register.
func (v *TranslatorVisitor) Vpart(bitsize int, vec Vec, part int) ir.Value {
	switch {
	case bitsize == 128 && part == 0:
		return v.V(128, vec)
	case bitsize == 64 && part == 0:
		return v.V(64, vec)
	case bitsize == 64 && part == 1:
		return v.ir.VectorExtractPart(v.V(128, vec), 1)
	}
	panic(fmt.Sprintf("a64: invalid vector part %d of size %d", part, bitsize))
}
