package a64

import "github.com/colorfulnotion/a64jit/jit/ir"

func datasizeOf(sf bool) int {
	if sf {
		return 64
	}
	return 32
}

func immOfSize(datasize int, x uint64) ir.Value {
	if datasize == 64 {
		return ir.Imm64(x)
	}
	return ir.Imm32(uint32(x))
}

func adrOffset(inst uint32) int64 {
	return signExtend(field(inst, 23, 5)<<2|field(inst, 30, 29), 21)
}

func ADR(v *TranslatorVisitor, inst uint32) error {
	d := Reg(field(inst, 4, 0))
	v.SetX(64, d, ir.Imm64(v.ir.PC()+uint64(adrOffset(inst))))
	return nil
}

func ADRP(v *TranslatorVisitor, inst uint32) error {
	d := Reg(field(inst, 4, 0))
	v.SetX(64, d, ir.Imm64(v.ir.AlignPC(4096)+uint64(adrOffset(inst)<<12)))
	return nil
}

func addSubImmediate(v *TranslatorVisitor, inst uint32, sub bool) error {
	datasize := datasizeOf(bit(inst, 31))
	imm := uint64(field(inst, 21, 10))
	if bit(inst, 22) {
		imm <<= 12
	}
	n := Reg(field(inst, 9, 5))
	d := Reg(field(inst, 4, 0))

	operand1 := v.XOrSP(datasize, n)
	operand2 := immOfSize(datasize, imm)
	var result ir.Value
	switch {
	case datasize == 64 && sub:
		result = v.ir.Sub64(operand1, operand2)
	case datasize == 64:
		result = v.ir.Add64(operand1, operand2)
	case sub:
		result = v.ir.Sub32(operand1, operand2)
	default:
		result = v.ir.Add32(operand1, operand2)
	}
	v.SetXOrSP(datasize, d, result)
	return nil
}

func ADDImm(v *TranslatorVisitor, inst uint32) error { return addSubImmediate(v, inst, false) }
func SUBImm(v *TranslatorVisitor, inst uint32) error { return addSubImmediate(v, inst, true) }

// moveWide decodes the shared MOVZ/MOVK fields. The 32-bit forms only
// have hw values 0 and 1.
func moveWide(inst uint32) (datasize int, pos uint, imm uint64, d Reg, ok bool) {
	datasize = datasizeOf(bit(inst, 31))
	hw := field(inst, 22, 21)
	if datasize == 32 && hw >= 2 {
		return 0, 0, 0, 0, false
	}
	pos = uint(hw) * 16
	return datasize, pos, uint64(field(inst, 20, 5)), Reg(field(inst, 4, 0)), true
}

func MOVZ(v *TranslatorVisitor, inst uint32) error {
	datasize, pos, imm, d, ok := moveWide(inst)
	if !ok {
		return v.UnallocatedEncoding()
	}
	v.SetX(datasize, d, immOfSize(datasize, imm<<pos))
	return nil
}

func MOVK(v *TranslatorVisitor, inst uint32) error {
	datasize, pos, imm, d, ok := moveWide(inst)
	if !ok {
		return v.UnallocatedEncoding()
	}
	mask := uint64(0xffff) << pos
	if datasize == 64 {
		kept := v.ir.And64(v.X(64, d), ir.Imm64(^mask))
		v.SetX(64, d, v.ir.Or64(kept, ir.Imm64(imm<<pos)))
		return nil
	}
	kept := v.ir.And32(v.X(32, d), ir.Imm32(^uint32(mask)))
	v.SetX(32, d, v.ir.Or32(kept, ir.Imm32(uint32(imm<<pos))))
	return nil
}
