package ir

import "fmt"

// InstID is a stable handle to an instruction inside one Block's arena.
type InstID int32

type valueKind uint8

const (
	valueEmpty valueKind = iota
	valueInst
	valueImm
)

// Value is an instruction argument: either an immediate or a reference to the
// result of another instruction in the same block.
type Value struct {
	kind  valueKind
	typ   Type
	owner uint32
	inst  InstID
	imm   uint64
}

func (v Value) IsEmpty() bool     { return v.kind == valueEmpty }
func (v Value) IsImmediate() bool { return v.kind == valueImm }
func (v Value) IsInst() bool      { return v.kind == valueInst }

// Inst returns the referenced instruction. It panics on immediates.
func (v Value) Inst() InstID {
	if v.kind != valueInst {
		panic("ir: value is not an instruction reference")
	}
	return v.inst
}

// Type returns the immediate's type; instruction references report TypeOpaque,
// use Block.TypeOf for their result type.
func (v Value) Type() Type {
	if v.kind == valueImm {
		return v.typ
	}
	if v.kind == valueEmpty {
		return TypeVoid
	}
	return TypeOpaque
}

func (v Value) mustImm(t Type) uint64 {
	if v.kind != valueImm || v.typ != t {
		panic(fmt.Sprintf("ir: value %s is not an immediate %s", v, t))
	}
	return v.imm
}

func (v Value) U1() bool      { return v.mustImm(TypeU1) != 0 }
func (v Value) U8() uint8     { return uint8(v.mustImm(TypeU8)) }
func (v Value) U16() uint16   { return uint16(v.mustImm(TypeU16)) }
func (v Value) U32() uint32   { return uint32(v.mustImm(TypeU32)) }
func (v Value) A64Reg() uint8 { return uint8(v.mustImm(TypeA64Reg)) }
func (v Value) A64Vec() uint8 { return uint8(v.mustImm(TypeA64Vec)) }

// U64 returns the immediate of an U64 value.
func (v Value) U64() uint64 { return v.mustImm(TypeU64) }

// ImmediateAsU64 zero-extends any scalar immediate.
func (v Value) ImmediateAsU64() uint64 {
	if v.kind != valueImm {
		panic("ir: value is not an immediate")
	}
	return v.imm
}

func Imm1(b bool) Value {
	if b {
		return Value{kind: valueImm, typ: TypeU1, imm: 1}
	}
	return Value{kind: valueImm, typ: TypeU1}
}

func Imm8(x uint8) Value   { return Value{kind: valueImm, typ: TypeU8, imm: uint64(x)} }
func Imm16(x uint16) Value { return Value{kind: valueImm, typ: TypeU16, imm: uint64(x)} }
func Imm32(x uint32) Value { return Value{kind: valueImm, typ: TypeU32, imm: uint64(x)} }
func Imm64(x uint64) Value { return Value{kind: valueImm, typ: TypeU64, imm: x} }

// ImmOfType builds an immediate of scalar type t, truncating x.
func ImmOfType(t Type, x uint64) Value {
	switch t {
	case TypeU1:
		return Imm1(x&1 != 0)
	case TypeU8:
		return Imm8(uint8(x))
	case TypeU16:
		return Imm16(uint16(x))
	case TypeU32:
		return Imm32(uint32(x))
	case TypeU64:
		return Imm64(x)
	}
	panic(fmt.Sprintf("ir: no scalar immediate of type %s", t))
}

func ImmA64Reg(r uint8) Value { return Value{kind: valueImm, typ: TypeA64Reg, imm: uint64(r)} }
func ImmA64Vec(v uint8) Value { return Value{kind: valueImm, typ: TypeA64Vec, imm: uint64(v)} }

func (v Value) String() string {
	switch v.kind {
	case valueEmpty:
		return "<empty>"
	case valueInst:
		return fmt.Sprintf("%%%d", v.inst)
	}
	switch v.typ {
	case TypeU1:
		return fmt.Sprintf("#%t", v.imm != 0)
	case TypeA64Reg:
		if v.imm == 31 {
			return "xzr"
		}
		return fmt.Sprintf("x%d", v.imm)
	case TypeA64Vec:
		return fmt.Sprintf("v%d", v.imm)
	default:
		return fmt.Sprintf("#%#x", v.imm)
	}
}
