package a64_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/a64/asm"
	"github.com/colorfulnotion/a64jit/jit/interpreter"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/jit/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type encoder func(q bool, size uint32, vd, vn, vm a64.Vec) uint32

// laneModel computes one 2*esize result lane from the source lanes. n is the
// narrow Vn lane, or the wide one for the W forms; d is the Vd lane.
type laneModel func(esize int, n, m, d uint64) uint64

type wideningCase struct {
	name  string
	enc   encoder
	wide  bool
	model laneModel
}

func sx(x uint64, bits int) uint64 {
	return uint64(int64(x<<(64-bits)) >> (64 - bits))
}

func absDiff(a, b int64) uint64 {
	if a < b {
		return uint64(b - a)
	}
	return uint64(a - b)
}

var wideningCases = []wideningCase{
	{"SADDL", asm.SADDL, false, func(e int, n, m, _ uint64) uint64 { return sx(n, e) + sx(m, e) }},
	{"SADDW", asm.SADDW, true, func(e int, n, m, _ uint64) uint64 { return n + sx(m, e) }},
	{"SSUBL", asm.SSUBL, false, func(e int, n, m, _ uint64) uint64 { return sx(n, e) - sx(m, e) }},
	{"SSUBW", asm.SSUBW, true, func(e int, n, m, _ uint64) uint64 { return n - sx(m, e) }},
	{"UADDL", asm.UADDL, false, func(_ int, n, m, _ uint64) uint64 { return n + m }},
	{"UADDW", asm.UADDW, true, func(_ int, n, m, _ uint64) uint64 { return n + m }},
	{"USUBL", asm.USUBL, false, func(_ int, n, m, _ uint64) uint64 { return n - m }},
	{"USUBW", asm.USUBW, true, func(_ int, n, m, _ uint64) uint64 { return n - m }},
	{"SABDL", asm.SABDL, false, func(e int, n, m, _ uint64) uint64 {
		return absDiff(int64(sx(n, e)), int64(sx(m, e)))
	}},
	{"SABAL", asm.SABAL, false, func(e int, n, m, d uint64) uint64 {
		return d + absDiff(int64(sx(n, e)), int64(sx(m, e)))
	}},
	{"UABDL", asm.UABDL, false, func(_ int, n, m, _ uint64) uint64 { return absDiff(int64(n), int64(m)) }},
	{"UABAL", asm.UABAL, false, func(_ int, n, m, d uint64) uint64 { return d + absDiff(int64(n), int64(m)) }},
	{"SMULL", asm.SMULL, false, func(e int, n, m, _ uint64) uint64 { return sx(n, e) * sx(m, e) }},
	{"UMULL", asm.UMULL, false, func(_ int, n, m, _ uint64) uint64 { return n * m }},
}

// expected applies model lane by lane to the register contents.
func (c wideningCase) expected(size uint32, q bool, vn, vm, vd vector.V128) vector.V128 {
	esize := 8 << size
	part := 0
	if q {
		part = 1
	}
	narrowN := vector.V128{Lo: vector.Part(128, vn, part)}
	narrowM := vector.V128{Lo: vector.Part(128, vm, part)}
	var out vector.V128
	for i := 0; i < 64/esize; i++ {
		n := narrowN.Lane(esize, i)
		if c.wide {
			n = vn.Lane(2*esize, i)
		}
		out = out.WithLane(2*esize, i, c.model(esize, n, narrowM.Lane(esize, i), vd.Lane(2*esize, i)))
	}
	return out
}

func randomV128(rng *rand.Rand) vector.V128 {
	return vector.New(rng.Uint64(), rng.Uint64())
}

func TestWideningArithmetic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, c := range wideningCases {
		for size := uint32(0); size < 3; size++ {
			for _, q := range []bool{false, true} {
				name := c.name
				if q {
					name += "2"
				}
				t.Run(fmt.Sprintf("%s/%d", name, 8<<size), func(t *testing.T) {
					for i := 0; i < 8; i++ {
						var st interpreter.State
						vn, vm, vd := randomV128(rng), randomV128(rng), randomV128(rng)
						st.V[1], st.V[2], st.V[3] = vn, vm, vd

						block := translateOne(c.enc(q, size, 3, 1, 2), defaultOptions)
						got, _ := execute(t, block, st, nil)

						require.Equal(t, c.expected(size, q, vn, vm, vd), got.V[3], "vn=%s vm=%s vd=%s", vn, vm, vd)
						assert.Equal(t, vn, got.V[1])
						assert.Equal(t, vm, got.V[2])
					}
				})
			}
		}
	}
}

func TestWideningEdgeLanes(t *testing.T) {
	var st interpreter.State
	st.V[1] = vector.New(0x7f80, 0)
	st.V[2] = vector.New(0x807f, 0)

	got, _ := execute(t, translateOne(asm.SABDL(false, 0, 0, 1, 2), defaultOptions), st, nil)
	assert.Equal(t, uint64(0xff), got.V[0].Lane(16, 0))
	assert.Equal(t, uint64(0xff), got.V[0].Lane(16, 1))

	got, _ = execute(t, translateOne(asm.UABDL(false, 0, 0, 1, 2), defaultOptions), st, nil)
	assert.Equal(t, uint64(0x01), got.V[0].Lane(16, 0))
	assert.Equal(t, uint64(0x01), got.V[0].Lane(16, 1))

	got, _ = execute(t, translateOne(asm.SMULL(false, 0, 0, 1, 2), defaultOptions), st, nil)
	assert.Equal(t, uint64(0xc080), got.V[0].Lane(16, 0), "-128 * 127")
	assert.Equal(t, uint64(0xc080), got.V[0].Lane(16, 1), "127 * -128")
}

func TestAccumulateAliasing(t *testing.T) {
	var st interpreter.State
	st.V[0] = vector.New(0x0000_0000_0010_0003, 0)
	st.V[1] = vector.New(0x0000_0000_0000_0001, 0)

	// Vd doubles as Vn: the accumulator is read before the write.
	got, _ := execute(t, translateOne(asm.UABAL(false, 0, 0, 0, 1), defaultOptions), st, nil)
	assert.Equal(t, uint64(0x0003+0x0002), got.V[0].Lane(16, 0))
	assert.Equal(t, uint64(0x0010+0x0000), got.V[0].Lane(16, 1))

	st.V[0] = vector.V128{}
	got, _ = execute(t, translateOne(asm.UABAL(false, 0, 0, 2, 1), defaultOptions), st, nil)
	assert.Equal(t, uint64(1), got.V[0].Lane(16, 0), "zero accumulator")
}

func TestWideningReservedSize(t *testing.T) {
	for _, c := range wideningCases {
		for _, q := range []bool{false, true} {
			inst := c.enc(q, 3, 0, 1, 2)
			t.Run(fmt.Sprintf("%s/q=%v", c.name, q), func(t *testing.T) {
				block := translateOne(inst, defaultOptions)
				ids := block.Instructions()
				require.Len(t, ids, 1)
				raised := block.Inst(ids[0])
				assert.Equal(t, ir.OpA64ExceptionRaised, raised.Opcode())
				assert.Equal(t, uint64(codeBase), raised.Arg(0).U64())
				assert.Equal(t, uint64(a64.ExceptionReservedValue), raised.Arg(1).U64())
				assert.Equal(t, ir.ReturnToDispatch{}, block.Terminal())

				single := ir.NewBlock(a64.NewLocationDescriptor(codeBase, 0, false).ToIR())
				cont, err := a64.TranslateSingleInstruction(single, a64.NewLocationDescriptor(codeBase, 0, false), inst, defaultOptions)
				assert.False(t, cont)
				assert.True(t, errors.Is(err, jiterrors.ErrReservedValue))
				assert.True(t, single.Empty())
				assert.False(t, single.HasTerminal())
			})
		}
	}
}

func TestWideningIRShape(t *testing.T) {
	block := translateOne(asm.SADDL(true, 0, 0, 1, 2), defaultOptions)
	var ops []ir.Opcode
	for _, id := range block.Instructions() {
		ops = append(ops, block.Inst(id).Opcode())
	}
	assert.Equal(t, []ir.Opcode{
		ir.OpA64GetQ, ir.OpVectorExtractPart, ir.OpVectorSignExtend8,
		ir.OpA64GetQ, ir.OpVectorExtractPart, ir.OpVectorSignExtend8,
		ir.OpVectorAdd16, ir.OpA64SetQ,
	}, ops)

	block = translateOne(asm.UABDL(false, 1, 0, 1, 2), defaultOptions)
	ops = ops[:0]
	for _, id := range block.Instructions() {
		ops = append(ops, block.Inst(id).Opcode())
	}
	assert.Equal(t, []ir.Opcode{
		ir.OpA64GetD, ir.OpA64GetD, ir.OpVectorUnsignedAbsoluteDifference16,
		ir.OpVectorZeroExtend16, ir.OpA64SetQ,
	}, ops)
}
