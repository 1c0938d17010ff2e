package ir

import "fmt"

// Opcode enumerates every IR operation. The metadata table below is indexed
// by Opcode and must be extended together with this list.
type Opcode uint16

const (
	OpIdentity Opcode = iota
	OpPushRSB

	// A64 context getters/setters
	OpA64GetW
	OpA64GetX
	OpA64GetSP
	OpA64GetD
	OpA64GetQ
	OpA64SetW
	OpA64SetX
	OpA64SetSP
	OpA64SetD
	OpA64SetQ
	OpA64SetPC
	OpA64CallSupervisor
	OpA64ExceptionRaised

	// A64 memory
	OpA64ReadMemory8
	OpA64ReadMemory16
	OpA64ReadMemory32
	OpA64ReadMemory64
	OpA64WriteMemory8
	OpA64WriteMemory16
	OpA64WriteMemory32
	OpA64WriteMemory64

	// Scalar arithmetic and logic
	OpAdd32
	OpAdd64
	OpSub32
	OpSub64
	OpAnd32
	OpAnd64
	OpOr32
	OpOr64
	OpLeastSignificantWord
	OpZeroExtendWordToLong

	// Vector
	OpVectorExtractPart
	OpVectorZeroExtend8
	OpVectorZeroExtend16
	OpVectorZeroExtend32
	OpVectorSignExtend8
	OpVectorSignExtend16
	OpVectorSignExtend32
	OpVectorAdd8
	OpVectorAdd16
	OpVectorAdd32
	OpVectorAdd64
	OpVectorSub8
	OpVectorSub16
	OpVectorSub32
	OpVectorSub64
	OpVectorMultiply8
	OpVectorMultiply16
	OpVectorMultiply32
	OpVectorMultiply64
	OpVectorSignedAbsoluteDifference8
	OpVectorSignedAbsoluteDifference16
	OpVectorSignedAbsoluteDifference32
	OpVectorUnsignedAbsoluteDifference8
	OpVectorUnsignedAbsoluteDifference16
	OpVectorUnsignedAbsoluteDifference32

	NumOpcodes
)

type effect uint16

const (
	effReadsCoreRegister effect = 1 << iota
	effWritesCoreRegister
	effWritesPC
	effReadsMemory
	effWritesMemory
	effRaisesException
	effCallsSupervisor
	effPushesRSB
)

type opMeta struct {
	name    string
	ret     Type
	args    []Type
	effects effect
}

var opcodeTable = [...]opMeta{
	OpIdentity: {"Identity", TypeOpaque, []Type{TypeOpaque}, 0},
	OpPushRSB:  {"PushRSB", TypeVoid, []Type{TypeU64}, effPushesRSB},

	OpA64GetW:            {"A64GetW", TypeU32, []Type{TypeA64Reg}, effReadsCoreRegister},
	OpA64GetX:            {"A64GetX", TypeU64, []Type{TypeA64Reg}, effReadsCoreRegister},
	OpA64GetSP:           {"A64GetSP", TypeU64, nil, effReadsCoreRegister},
	OpA64GetD:            {"A64GetD", TypeU128, []Type{TypeA64Vec}, effReadsCoreRegister},
	OpA64GetQ:            {"A64GetQ", TypeU128, []Type{TypeA64Vec}, effReadsCoreRegister},
	OpA64SetW:            {"A64SetW", TypeVoid, []Type{TypeA64Reg, TypeU32}, effWritesCoreRegister},
	OpA64SetX:            {"A64SetX", TypeVoid, []Type{TypeA64Reg, TypeU64}, effWritesCoreRegister},
	OpA64SetSP:           {"A64SetSP", TypeVoid, []Type{TypeU64}, effWritesCoreRegister},
	OpA64SetD:            {"A64SetD", TypeVoid, []Type{TypeA64Vec, TypeU128}, effWritesCoreRegister},
	OpA64SetQ:            {"A64SetQ", TypeVoid, []Type{TypeA64Vec, TypeU128}, effWritesCoreRegister},
	OpA64SetPC:           {"A64SetPC", TypeVoid, []Type{TypeU64}, effWritesPC},
	OpA64CallSupervisor:  {"A64CallSupervisor", TypeVoid, []Type{TypeU32}, effCallsSupervisor},
	OpA64ExceptionRaised: {"A64ExceptionRaised", TypeVoid, []Type{TypeU64, TypeU64}, effRaisesException},

	OpA64ReadMemory8:   {"A64ReadMemory8", TypeU8, []Type{TypeU64}, effReadsMemory},
	OpA64ReadMemory16:  {"A64ReadMemory16", TypeU16, []Type{TypeU64}, effReadsMemory},
	OpA64ReadMemory32:  {"A64ReadMemory32", TypeU32, []Type{TypeU64}, effReadsMemory},
	OpA64ReadMemory64:  {"A64ReadMemory64", TypeU64, []Type{TypeU64}, effReadsMemory},
	OpA64WriteMemory8:  {"A64WriteMemory8", TypeVoid, []Type{TypeU64, TypeU8}, effWritesMemory},
	OpA64WriteMemory16: {"A64WriteMemory16", TypeVoid, []Type{TypeU64, TypeU16}, effWritesMemory},
	OpA64WriteMemory32: {"A64WriteMemory32", TypeVoid, []Type{TypeU64, TypeU32}, effWritesMemory},
	OpA64WriteMemory64: {"A64WriteMemory64", TypeVoid, []Type{TypeU64, TypeU64}, effWritesMemory},

	OpAdd32:                {"Add32", TypeU32, []Type{TypeU32, TypeU32}, 0},
	OpAdd64:                {"Add64", TypeU64, []Type{TypeU64, TypeU64}, 0},
	OpSub32:                {"Sub32", TypeU32, []Type{TypeU32, TypeU32}, 0},
	OpSub64:                {"Sub64", TypeU64, []Type{TypeU64, TypeU64}, 0},
	OpAnd32:                {"And32", TypeU32, []Type{TypeU32, TypeU32}, 0},
	OpAnd64:                {"And64", TypeU64, []Type{TypeU64, TypeU64}, 0},
	OpOr32:                 {"Or32", TypeU32, []Type{TypeU32, TypeU32}, 0},
	OpOr64:                 {"Or64", TypeU64, []Type{TypeU64, TypeU64}, 0},
	OpLeastSignificantWord: {"LeastSignificantWord", TypeU32, []Type{TypeU64}, 0},
	OpZeroExtendWordToLong: {"ZeroExtendWordToLong", TypeU64, []Type{TypeU32}, 0},

	OpVectorExtractPart:                  {"VectorExtractPart", TypeU128, []Type{TypeU128, TypeU8}, 0},
	OpVectorZeroExtend8:                  {"VectorZeroExtend8", TypeU128, []Type{TypeU128}, 0},
	OpVectorZeroExtend16:                 {"VectorZeroExtend16", TypeU128, []Type{TypeU128}, 0},
	OpVectorZeroExtend32:                 {"VectorZeroExtend32", TypeU128, []Type{TypeU128}, 0},
	OpVectorSignExtend8:                  {"VectorSignExtend8", TypeU128, []Type{TypeU128}, 0},
	OpVectorSignExtend16:                 {"VectorSignExtend16", TypeU128, []Type{TypeU128}, 0},
	OpVectorSignExtend32:                 {"VectorSignExtend32", TypeU128, []Type{TypeU128}, 0},
	OpVectorAdd8:                         {"VectorAdd8", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorAdd16:                        {"VectorAdd16", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorAdd32:                        {"VectorAdd32", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorAdd64:                        {"VectorAdd64", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSub8:                         {"VectorSub8", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSub16:                        {"VectorSub16", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSub32:                        {"VectorSub32", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSub64:                        {"VectorSub64", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorMultiply8:                    {"VectorMultiply8", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorMultiply16:                   {"VectorMultiply16", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorMultiply32:                   {"VectorMultiply32", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorMultiply64:                   {"VectorMultiply64", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSignedAbsoluteDifference8:    {"VectorSignedAbsoluteDifference8", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSignedAbsoluteDifference16:   {"VectorSignedAbsoluteDifference16", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorSignedAbsoluteDifference32:   {"VectorSignedAbsoluteDifference32", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorUnsignedAbsoluteDifference8:  {"VectorUnsignedAbsoluteDifference8", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorUnsignedAbsoluteDifference16: {"VectorUnsignedAbsoluteDifference16", TypeU128, []Type{TypeU128, TypeU128}, 0},
	OpVectorUnsignedAbsoluteDifference32: {"VectorUnsignedAbsoluteDifference32", TypeU128, []Type{TypeU128, TypeU128}, 0},
}

// Fails to compile if the table and the enumeration disagree in length.
var _ = [1]struct{}{}[len(opcodeTable)-int(NumOpcodes)]

func init() {
	for op, m := range opcodeTable {
		if m.name == "" {
			panic(fmt.Sprintf("ir: opcode %d has no metadata", op))
		}
	}
}

func (op Opcode) meta() *opMeta {
	if op >= NumOpcodes {
		panic(fmt.Sprintf("ir: invalid opcode %d", op))
	}
	return &opcodeTable[op]
}

func (op Opcode) String() string {
	if op >= NumOpcodes {
		return fmt.Sprintf("Opcode(%d)", uint16(op))
	}
	return opcodeTable[op].name
}

// ReturnType is the type of the value an instruction with this opcode produces.
func (op Opcode) ReturnType() Type { return op.meta().ret }

// NumArgs is the number of arguments this opcode takes.
func (op Opcode) NumArgs() int { return len(op.meta().args) }

// ArgType is the declared type of argument i.
func (op Opcode) ArgType(i int) Type { return op.meta().args[i] }

func (op Opcode) has(e effect) bool { return op.meta().effects&e != 0 }

func (op Opcode) ReadsFromCoreRegister() bool { return op.has(effReadsCoreRegister) }
func (op Opcode) WritesToCoreRegister() bool  { return op.has(effWritesCoreRegister) }
func (op Opcode) WritesToPC() bool            { return op.has(effWritesPC) }
func (op Opcode) IsMemoryRead() bool          { return op.has(effReadsMemory) }
func (op Opcode) IsMemoryWrite() bool         { return op.has(effWritesMemory) }
func (op Opcode) CausesCPUException() bool    { return op.has(effRaisesException | effCallsSupervisor) }

// MayHaveSideEffects reports whether removing an unused instruction with this
// opcode could change architectural state. Memory reads count: they can fault.
func (op Opcode) MayHaveSideEffects() bool {
	return op.has(effWritesCoreRegister | effWritesPC | effReadsMemory | effWritesMemory |
		effRaisesException | effCallsSupervisor | effPushesRSB)
}
