package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlock() *Block {
	return NewBlock(NewLocationDescriptor(0x1000))
}

func TestAppendTracksUses(t *testing.T) {
	b := newTestBlock()
	ir := NewIREmitter(b)
	x := ir.Inst(OpA64GetX, ImmA64Reg(1))
	sum := ir.Add64(x, ir.Imm64(4))
	ir.Inst(OpA64SetX, ImmA64Reg(2), sum)
	ir.Inst(OpA64SetX, ImmA64Reg(3), sum)

	assert.Equal(t, 4, b.Len())
	assert.Equal(t, 1, b.Inst(x.Inst()).Uses())
	assert.Equal(t, 2, b.Inst(sum.Inst()).Uses())
	assert.Equal(t, TypeU64, b.TypeOf(sum))

	last, ok := b.Back()
	require.True(t, ok)
	assert.Equal(t, OpA64SetX, b.Inst(last).Opcode())
}

func TestAppendRejectsBadArguments(t *testing.T) {
	b := newTestBlock()
	ir := NewIREmitter(b)
	w := ir.Inst(OpA64GetW, ImmA64Reg(0))

	assert.Panics(t, func() { ir.Add64(w, ir.Imm64(1)) }, "U32 flowing into U64 slot")
	assert.Panics(t, func() { b.Append(OpAdd64, Imm64(1)) }, "missing argument")

	other := newTestBlock()
	foreign := NewIREmitter(other).Inst(OpA64GetX, ImmA64Reg(0))
	assert.Panics(t, func() { ir.Add64(foreign, ir.Imm64(1)) }, "cross-block reference")
}

func TestRemoveIsTombstone(t *testing.T) {
	b := newTestBlock()
	ir := NewIREmitter(b)
	x := ir.Inst(OpA64GetX, ImmA64Reg(1))
	ir.PushRSB(NewLocationDescriptor(0x2000))
	set := ir.Inst(OpA64SetX, ImmA64Reg(2), x)

	assert.Panics(t, func() { b.Remove(x.Inst()) })

	b.Remove(set.Inst())
	assert.Equal(t, 0, b.Inst(x.Inst()).Uses())
	b.Remove(x.Inst())
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 3, b.ArenaSize())
	assert.Equal(t, []InstID{1}, b.Instructions())
	assert.False(t, b.IsLive(x.Inst()))
	assert.True(t, b.IsLive(1))
}

func TestReplaceUsesWith(t *testing.T) {
	b := newTestBlock()
	ir := NewIREmitter(b)
	sum := ir.Add64(ir.Imm64(2), ir.Imm64(3))
	set := ir.Inst(OpA64SetX, ImmA64Reg(0), sum)

	b.ReplaceUsesWith(sum.Inst(), Imm64(5))
	assert.Equal(t, OpIdentity, b.Inst(sum.Inst()).Opcode())
	resolved := b.Resolve(b.Inst(set.Inst()).Arg(1))
	require.True(t, resolved.IsImmediate())
	assert.Equal(t, uint64(5), resolved.U64())
	assert.Equal(t, TypeU64, b.TypeOf(sum))

	other := ir.Add64(ir.Imm64(1), ir.Imm64(1))
	assert.Panics(t, func() { b.ReplaceUsesWith(other.Inst(), other) })
}

func TestTerminalIsSetOnce(t *testing.T) {
	b := newTestBlock()
	assert.False(t, b.HasTerminal())
	assert.Panics(t, func() { b.ReplaceTerminal(PopRSBHint{}) })

	b.SetTerminal(LinkBlock{Next: NewLocationDescriptor(0x1004)})
	assert.Panics(t, func() { b.SetTerminal(FastDispatchHint{}) })

	b.ReplaceTerminal(CallHLEFunction{Function: "memcpy", Return: PopRSBHint{}})
	assert.Equal(t, "CallHLEFunction{memcpy, PopRSBHint{}}", b.Terminal().String())

	assert.Panics(t, func() { b.ReplaceTerminal(CallHLEFunction{Function: "f"}) })
	assert.Panics(t, func() {
		b.ReplaceTerminal(CallHLEFunction{Function: "f", Return: CallHLEFunction{Function: "g", Return: PopRSBHint{}}})
	})
}

func TestCloneIsIndependent(t *testing.T) {
	b := newTestBlock()
	ir := NewIREmitter(b)
	x := ir.Inst(OpA64GetX, ImmA64Reg(1))
	ir.Inst(OpA64SetPC, x)
	ir.SetTerm(FastDispatchHint{})

	c := b.Clone()
	NewIREmitter(c).Inst(OpA64SetX, ImmA64Reg(3), Value{kind: valueInst, owner: c.serial, inst: x.Inst()})
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 1, b.Inst(x.Inst()).Uses())
	assert.Equal(t, 2, c.Inst(x.Inst()).Uses())
	assert.Panics(t, func() { NewIREmitter(c).Inst(OpA64SetPC, x) }, "handles of the source block do not belong to the clone")
}

func TestDumps(t *testing.T) {
	b := newTestBlock()
	ir := NewIREmitter(b)
	q := ir.Inst(OpA64GetQ, ImmA64Vec(1))
	lo := ir.VectorExtractPart(q, 1)
	ext := ir.VectorSignExtend(8, lo)
	ir.Inst(OpA64SetQ, ImmA64Vec(0), ext)
	ir.SetTerm(LinkBlock{Next: NewLocationDescriptor(0x1004)})

	text := DumpBlock(b)
	assert.Contains(t, text, "A64GetQ v1 (uses: 1)")
	assert.Contains(t, text, "VectorExtractPart %0, #0x1")
	assert.Contains(t, text, "terminal = LinkBlock{{0000000000001004}}")

	tree := BlockTree(b).String()
	assert.Contains(t, tree, "%2 VectorSignExtend8")
	assert.Contains(t, tree, "%1 -> VectorExtractPart")

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	var decoded blockJSON
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded.Instructions, 4)
	assert.True(t, strings.HasPrefix(decoded.Terminal, "LinkBlock"))
}

func TestOpcodeTable(t *testing.T) {
	for op := Opcode(0); op < NumOpcodes; op++ {
		assert.NotEmpty(t, op.String())
		assert.LessOrEqual(t, op.NumArgs(), maxArgs, op.String())
	}
	assert.True(t, OpA64ReadMemory64.MayHaveSideEffects())
	assert.True(t, OpPushRSB.MayHaveSideEffects())
	assert.False(t, OpA64GetX.MayHaveSideEffects())
	assert.False(t, OpIdentity.MayHaveSideEffects())
	assert.True(t, OpA64SetW.WritesToCoreRegister())
	assert.Equal(t, "Opcode(9999)", Opcode(9999).String())
}
