package a64

import "github.com/colorfulnotion/a64jit/jit/ir"

func LDRLiteral(v *TranslatorVisitor, inst uint32) error {
	datasize := datasizeOf(bit(inst, 30))
	t := Reg(field(inst, 4, 0))
	offset := signExtend(field(inst, 23, 5)<<2, 21)

	address := ir.Imm64(v.ir.PC() + uint64(offset))
	v.SetX(datasize, t, v.ir.ReadMemory(datasize, address))
	return nil
}

// unsignedOffset decodes size:111:0:01:opc:imm12:Rn:Rt. The immediate is
// scaled by the access size.
func unsignedOffset(v *TranslatorVisitor, inst uint32) (datasize int, address ir.Value, t Reg) {
	datasize = datasizeOf(bit(inst, 30))
	scale := uint(field(inst, 31, 30))
	imm := uint64(field(inst, 21, 10)) << scale
	n := Reg(field(inst, 9, 5))
	t = Reg(field(inst, 4, 0))

	address = v.XOrSP(64, n)
	if imm != 0 {
		address = v.ir.Add64(address, ir.Imm64(imm))
	}
	return datasize, address, t
}

func LDRUnsignedOffset(v *TranslatorVisitor, inst uint32) error {
	datasize, address, t := unsignedOffset(v, inst)
	v.SetX(datasize, t, v.ir.ReadMemory(datasize, address))
	return nil
}

func STRUnsignedOffset(v *TranslatorVisitor, inst uint32) error {
	datasize, address, t := unsignedOffset(v, inst)
	v.ir.WriteMemory(datasize, address, v.X(datasize, t))
	return nil
}

type indexed struct {
	imm     int64
	preIdx  bool
	n, t    Reg
	overlap bool
}

// decodeIndexed decodes the 64-bit pre/post-index forms:
// 11:111:0:00:opc:0:imm9:idx:1:Rn:Rt with idx 1 for pre-index.
func decodeIndexed(inst uint32) indexed {
	x := indexed{
		imm:    signExtend(field(inst, 20, 12), 9),
		preIdx: bit(inst, 11),
		n:      Reg(field(inst, 9, 5)),
		t:      Reg(field(inst, 4, 0)),
	}
	x.overlap = x.n == x.t && x.n != SP
	return x
}

func (x indexed) address(v *TranslatorVisitor) (address, writeback ir.Value) {
	base := v.XOrSP(64, x.n)
	offset := v.ir.Add64(base, ir.Imm64(uint64(x.imm)))
	if x.preIdx {
		return offset, offset
	}
	return base, offset
}

// LDRIndexed loads with base register writeback. A base that is also the
// destination is CONSTRAINED UNPREDICTABLE; the defined translation keeps
// the loaded value and drops the writeback.
func LDRIndexed(v *TranslatorVisitor, inst uint32) error {
	x := decodeIndexed(inst)
	wback := true
	if x.overlap {
		if !v.options.DefineUnpredictableBehaviour {
			return v.UnpredictableInstruction()
		}
		wback = false
	}

	address, writeback := x.address(v)
	v.SetX(64, x.t, v.ir.ReadMemory(64, address))
	if wback {
		v.SetXOrSP(64, x.n, writeback)
	}
	return nil
}

// STRIndexed stores with base register writeback. When the base is also the
// source, the defined translation stores the value from before the writeback.
func STRIndexed(v *TranslatorVisitor, inst uint32) error {
	x := decodeIndexed(inst)
	if x.overlap && !v.options.DefineUnpredictableBehaviour {
		return v.UnpredictableInstruction()
	}

	address, writeback := x.address(v)
	v.ir.WriteMemory(64, address, v.X(64, x.t))
	v.SetXOrSP(64, x.n, writeback)
	return nil
}
