package a64

import "github.com/colorfulnotion/a64jit/jit/ir"

func branchTarget(v *TranslatorVisitor, inst uint32) LocationDescriptor {
	offset := signExtend(field(inst, 25, 0)<<2, 28)
	return v.ir.Current.AdvancePC(int(offset))
}

// indirectTerminal ends a block whose successor is only known at run time.
func (v *TranslatorVisitor) indirectTerminal() ir.Terminal {
	if v.options.EnableFastDispatch {
		return ir.FastDispatchHint{}
	}
	return ir.ReturnToDispatch{}
}

func (v *TranslatorVisitor) link() {
	ret := v.ir.Current.AdvancePC(4)
	v.ir.PushRSBFor(ret)
	v.SetX(64, LR, ir.Imm64(ret.PC()))
}

func B(v *TranslatorVisitor, inst uint32) error {
	v.ir.SetTerm(ir.LinkBlock{Next: branchTarget(v, inst).ToIR()})
	return nil
}

func BL(v *TranslatorVisitor, inst uint32) error {
	v.link()
	v.ir.SetTerm(ir.LinkBlock{Next: branchTarget(v, inst).ToIR()})
	return nil
}

func BR(v *TranslatorVisitor, inst uint32) error {
	n := Reg(field(inst, 9, 5))
	v.ir.SetPC(v.X(64, n))
	v.ir.SetTerm(v.indirectTerminal())
	return nil
}

func BLR(v *TranslatorVisitor, inst uint32) error {
	n := Reg(field(inst, 9, 5))
	target := v.X(64, n)
	v.link()
	v.ir.SetPC(target)
	v.ir.SetTerm(v.indirectTerminal())
	return nil
}

func RET(v *TranslatorVisitor, inst uint32) error {
	n := Reg(field(inst, 9, 5))
	v.ir.SetPC(v.X(64, n))
	v.ir.SetTerm(ir.PopRSBHint{})
	return nil
}

func NOP(v *TranslatorVisitor, inst uint32) error {
	return nil
}

// SVC leaves the block with PC at the next instruction so the supervisor
// call returns there.
func SVC(v *TranslatorVisitor, inst uint32) error {
	imm16 := field(inst, 20, 5)
	v.ir.SetPC(ir.Imm64(v.ir.Current.AdvancePC(4).PC()))
	v.ir.CallSupervisor(imm16)
	v.ir.SetTerm(ir.ReturnToDispatch{})
	return nil
}
