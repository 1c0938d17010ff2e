package a64

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/ir"
)

type signedness uint8

const (
	signed signedness = iota
	unsigned
)

type widenOp uint8

const (
	widenAdd widenOp = iota
	widenSub
)

type operandForm uint8

const (
	// formLong widens both sources.
	formLong operandForm = iota
	// formWide takes Vn at double width already and widens only Vm.
	formWide
)

type absoluteDifferenceBehavior uint8

const (
	absDiffNone absoluteDifferenceBehavior = iota
	absDiffAccumulate
)

// threeDifferent holds the operand fields shared by the family:
// 0 Q U 01110 size 1 Rm opcode 00 Rn Rd.
type threeDifferent struct {
	Q    bool
	size uint32
	Vm   Vec
	Vn   Vec
	Vd   Vec
}

func decodeThreeDifferent(inst uint32) threeDifferent {
	return threeDifferent{
		Q:    bit(inst, 30),
		size: field(inst, 23, 22),
		Vm:   Vec(field(inst, 20, 16)),
		Vn:   Vec(field(inst, 9, 5)),
		Vd:   Vec(field(inst, 4, 0)),
	}
}

func (f threeDifferent) esize() int { return 8 << f.size }

func (f threeDifferent) part() int {
	if f.Q {
		return 1
	}
	return 0
}

// extendPart reads the Q-selected half of vec and widens its lanes.
func extendPart(v *TranslatorVisitor, sign signedness, esize int, vec Vec, part int) ir.Value {
	half := v.Vpart(64, vec, part)
	switch sign {
	case signed:
		return v.ir.VectorSignExtend(esize, half)
	case unsigned:
		return v.ir.VectorZeroExtend(esize, half)
	}
	panic(fmt.Sprintf("a64: unknown signedness %d", sign))
}

func addSubLong(v *TranslatorVisitor, inst uint32, op widenOp, form operandForm, sign signedness) error {
	f := decodeThreeDifferent(inst)
	if f.size == 0b11 {
		return v.ReservedValue()
	}
	esize := f.esize()

	var operand1 ir.Value
	switch form {
	case formLong:
		operand1 = extendPart(v, sign, esize, f.Vn, f.part())
	case formWide:
		operand1 = v.V(128, f.Vn)
	default:
		panic(fmt.Sprintf("a64: unknown operand form %d", form))
	}
	operand2 := extendPart(v, sign, esize, f.Vm, f.part())

	var result ir.Value
	switch op {
	case widenAdd:
		result = v.ir.VectorAdd(2*esize, operand1, operand2)
	case widenSub:
		result = v.ir.VectorSub(2*esize, operand1, operand2)
	default:
		panic(fmt.Sprintf("a64: unknown widening op %d", op))
	}

	v.SetV(128, f.Vd, result)
	return nil
}

// absoluteDifferenceLong computes |Vn - Vm| on esize lanes, widens the
// difference to 2*esize and optionally accumulates into Vd.
func absoluteDifferenceLong(v *TranslatorVisitor, inst uint32, behavior absoluteDifferenceBehavior, sign signedness) error {
	f := decodeThreeDifferent(inst)
	if f.size == 0b11 {
		return v.ReservedValue()
	}
	esize := f.esize()

	operand1 := v.Vpart(64, f.Vn, f.part())
	operand2 := v.Vpart(64, f.Vm, f.part())
	var diff ir.Value
	switch sign {
	case signed:
		diff = v.ir.VectorSignedAbsoluteDifference(esize, operand1, operand2)
	case unsigned:
		diff = v.ir.VectorUnsignedAbsoluteDifference(esize, operand1, operand2)
	default:
		panic(fmt.Sprintf("a64: unknown signedness %d", sign))
	}
	result := v.ir.VectorZeroExtend(esize, diff)

	switch behavior {
	case absDiffNone:
	case absDiffAccumulate:
		result = v.ir.VectorAdd(2*esize, result, v.V(128, f.Vd))
	default:
		panic(fmt.Sprintf("a64: unknown absolute difference behavior %d", behavior))
	}

	v.SetV(128, f.Vd, result)
	return nil
}

func multiplyLong(v *TranslatorVisitor, inst uint32, sign signedness) error {
	f := decodeThreeDifferent(inst)
	if f.size == 0b11 {
		return v.ReservedValue()
	}
	esize := f.esize()

	operand1 := extendPart(v, sign, esize, f.Vn, f.part())
	operand2 := extendPart(v, sign, esize, f.Vm, f.part())
	v.SetV(128, f.Vd, v.ir.VectorMultiply(2*esize, operand1, operand2))
	return nil
}

func SADDL(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenAdd, formLong, signed)
}

func SADDW(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenAdd, formWide, signed)
}

func SSUBL(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenSub, formLong, signed)
}

func SSUBW(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenSub, formWide, signed)
}

func UADDL(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenAdd, formLong, unsigned)
}

func UADDW(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenAdd, formWide, unsigned)
}

func USUBL(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenSub, formLong, unsigned)
}

func USUBW(v *TranslatorVisitor, inst uint32) error {
	return addSubLong(v, inst, widenSub, formWide, unsigned)
}

func SABAL(v *TranslatorVisitor, inst uint32) error {
	return absoluteDifferenceLong(v, inst, absDiffAccumulate, signed)
}

func SABDL(v *TranslatorVisitor, inst uint32) error {
	return absoluteDifferenceLong(v, inst, absDiffNone, signed)
}

func UABAL(v *TranslatorVisitor, inst uint32) error {
	return absoluteDifferenceLong(v, inst, absDiffAccumulate, unsigned)
}

func UABDL(v *TranslatorVisitor, inst uint32) error {
	return absoluteDifferenceLong(v, inst, absDiffNone, unsigned)
}

func SMULL(v *TranslatorVisitor, inst uint32) error { return multiplyLong(v, inst, signed) }
func UMULL(v *TranslatorVisitor, inst uint32) error { return multiplyLong(v, inst, unsigned) }
