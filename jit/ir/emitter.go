package ir

import "fmt"

// IREmitter appends frontend-independent operations to a block.
type IREmitter struct {
	Block *Block
}

func NewIREmitter(block *Block) *IREmitter {
	return &IREmitter{Block: block}
}

func (ir *IREmitter) Inst(op Opcode, args ...Value) Value {
	return ir.Block.Append(op, args...)
}

func (ir *IREmitter) Imm1(b bool) Value    { return Imm1(b) }
func (ir *IREmitter) Imm8(x uint8) Value   { return Imm8(x) }
func (ir *IREmitter) Imm32(x uint32) Value { return Imm32(x) }
func (ir *IREmitter) Imm64(x uint64) Value { return Imm64(x) }
func (ir *IREmitter) SetTerm(t Terminal)   { ir.Block.SetTerminal(t) }
func (ir *IREmitter) PushRSB(l LocationDescriptor) {
	ir.Inst(OpPushRSB, Imm64(l.Value()))
}

func (ir *IREmitter) Add32(a, b Value) Value { return ir.Inst(OpAdd32, a, b) }
func (ir *IREmitter) Add64(a, b Value) Value { return ir.Inst(OpAdd64, a, b) }
func (ir *IREmitter) Sub32(a, b Value) Value { return ir.Inst(OpSub32, a, b) }
func (ir *IREmitter) Sub64(a, b Value) Value { return ir.Inst(OpSub64, a, b) }
func (ir *IREmitter) And32(a, b Value) Value { return ir.Inst(OpAnd32, a, b) }
func (ir *IREmitter) And64(a, b Value) Value { return ir.Inst(OpAnd64, a, b) }
func (ir *IREmitter) Or32(a, b Value) Value  { return ir.Inst(OpOr32, a, b) }
func (ir *IREmitter) Or64(a, b Value) Value  { return ir.Inst(OpOr64, a, b) }

func (ir *IREmitter) LeastSignificantWord(a Value) Value { return ir.Inst(OpLeastSignificantWord, a) }
func (ir *IREmitter) ZeroExtendWordToLong(a Value) Value { return ir.Inst(OpZeroExtendWordToLong, a) }

// VectorExtractPart moves the selected 64-bit half of a into the low half of
// the result and clears the high half.
func (ir *IREmitter) VectorExtractPart(a Value, part int) Value {
	return ir.Inst(OpVectorExtractPart, a, Imm8(uint8(part)))
}

func pick(esize int, ops map[int]Opcode, name string) Opcode {
	op, ok := ops[esize]
	if !ok {
		panic(fmt.Sprintf("ir: %s has no %d-bit form", name, esize))
	}
	return op
}

var (
	zeroExtendOps = map[int]Opcode{8: OpVectorZeroExtend8, 16: OpVectorZeroExtend16, 32: OpVectorZeroExtend32}
	signExtendOps = map[int]Opcode{8: OpVectorSignExtend8, 16: OpVectorSignExtend16, 32: OpVectorSignExtend32}
	addOps        = map[int]Opcode{8: OpVectorAdd8, 16: OpVectorAdd16, 32: OpVectorAdd32, 64: OpVectorAdd64}
	subOps        = map[int]Opcode{8: OpVectorSub8, 16: OpVectorSub16, 32: OpVectorSub32, 64: OpVectorSub64}
	mulOps        = map[int]Opcode{8: OpVectorMultiply8, 16: OpVectorMultiply16, 32: OpVectorMultiply32, 64: OpVectorMultiply64}
	sabdOps       = map[int]Opcode{8: OpVectorSignedAbsoluteDifference8, 16: OpVectorSignedAbsoluteDifference16, 32: OpVectorSignedAbsoluteDifference32}
	uabdOps       = map[int]Opcode{8: OpVectorUnsignedAbsoluteDifference8, 16: OpVectorUnsignedAbsoluteDifference16, 32: OpVectorUnsignedAbsoluteDifference32}
)

// VectorZeroExtend widens the esize-bit lanes in the low 64 bits of a to 2*esize bits.
func (ir *IREmitter) VectorZeroExtend(esize int, a Value) Value {
	return ir.Inst(pick(esize, zeroExtendOps, "VectorZeroExtend"), a)
}

// VectorSignExtend widens the esize-bit lanes in the low 64 bits of a to 2*esize bits.
func (ir *IREmitter) VectorSignExtend(esize int, a Value) Value {
	return ir.Inst(pick(esize, signExtendOps, "VectorSignExtend"), a)
}

func (ir *IREmitter) VectorAdd(esize int, a, b Value) Value {
	return ir.Inst(pick(esize, addOps, "VectorAdd"), a, b)
}

func (ir *IREmitter) VectorSub(esize int, a, b Value) Value {
	return ir.Inst(pick(esize, subOps, "VectorSub"), a, b)
}

func (ir *IREmitter) VectorMultiply(esize int, a, b Value) Value {
	return ir.Inst(pick(esize, mulOps, "VectorMultiply"), a, b)
}

func (ir *IREmitter) VectorSignedAbsoluteDifference(esize int, a, b Value) Value {
	return ir.Inst(pick(esize, sabdOps, "VectorSignedAbsoluteDifference"), a, b)
}

func (ir *IREmitter) VectorUnsignedAbsoluteDifference(esize int, a, b Value) Value {
	return ir.Inst(pick(esize, uabdOps, "VectorUnsignedAbsoluteDifference"), a, b)
}
