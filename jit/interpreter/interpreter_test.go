package interpreter

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/jit/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlock(pc uint64) (*ir.Block, *a64.IREmitter) {
	loc := a64.NewLocationDescriptor(pc, 0, false)
	block := ir.NewBlock(loc.ToIR())
	return block, a64.NewIREmitter(block, loc)
}

func TestHandlerTableIsComplete(t *testing.T) {
	for op := ir.Opcode(0); op < ir.NumOpcodes; op++ {
		assert.NotNil(t, handlers[op], op.String())
	}
}

func TestScalarRegisters(t *testing.T) {
	block, e := newBlock(0x1000)
	e.SetW(a64.R0, e.Add32(e.GetW(a64.R1), ir.Imm32(1)))
	e.SetX(a64.R2, e.Sub64(e.GetX(a64.R1), ir.Imm64(2)))
	e.SetX(a64.ZR, ir.Imm64(9))
	e.SetX(a64.R3, e.GetX(a64.ZR))
	e.SetSP(e.Or64(e.GetSP(), ir.Imm64(0xf)))
	e.SetTerm(ir.LinkBlock{Next: a64.NewLocationDescriptor(0x2000, 0, false).ToIR()})

	st := &State{SP: 0x100}
	st.X[1] = 0x1_ffff_ffff
	st.X[3] = 7
	exit, err := New(NewFlatMemory(0, 0), Hooks{}).Run(block, st)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), st.X[0], "32-bit write zero-extends")
	assert.Equal(t, uint64(0x1_ffff_fffd), st.X[2])
	assert.Equal(t, uint64(0), st.X[3])
	assert.Equal(t, uint64(0x10f), st.SP)
	assert.Equal(t, uint64(0x2000), st.PC)
	assert.Equal(t, uint64(0x2000), exit.NextPC)
}

func TestVectorRegisters(t *testing.T) {
	block, e := newBlock(0x1000)
	e.SetD(a64.Vec(0), e.GetQ(1))
	e.SetQ(a64.Vec(2), e.VectorExtractPart(e.GetQ(1), 1))
	e.SetTerm(ir.ReturnToDispatch{})

	st := &State{}
	st.V[0] = vector.New(1, 2)
	st.V[1] = vector.New(0xaaaa, 0xbbbb)
	_, err := New(NewFlatMemory(0, 0), Hooks{}).Run(block, st)
	require.NoError(t, err)
	assert.Equal(t, vector.New(0xaaaa, 0), st.V[0], "D write clears the upper half")
	assert.Equal(t, vector.New(0xbbbb, 0), st.V[2])
}

func TestMemory(t *testing.T) {
	mem := NewFlatMemory(0x8000, 16)
	require.NoError(t, mem.Write(0x8000, 64, 0x1122334455667788))
	v, err := mem.Read(0x8004, 32)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x11223344), v)
	v, err = mem.Read(0x8001, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x77), v)

	_, err = mem.Read(0x800c, 64)
	var fault *FaultError
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, uint64(0x800c), fault.Addr)
	assert.False(t, fault.Write)

	err = mem.Write(0x7fff, 8, 0)
	require.True(t, errors.As(err, &fault))
	assert.True(t, fault.Write)

	block, e := newBlock(0x1000)
	e.SetX(a64.R0, e.ReadMemory(64, ir.Imm64(0x9000)))
	e.SetTerm(ir.ReturnToDispatch{})
	st := &State{}
	_, err = New(mem, Hooks{}).Run(block, st)
	assert.ErrorContains(t, err, "read fault at 0x9000")
}

func TestExceptionsAndSupervisorCalls(t *testing.T) {
	block, e := newBlock(0x1000)
	e.CallSupervisor(3)
	e.ExceptionRaised(0x1004, a64.ExceptionUnpredictableInstruction)
	e.SetTerm(ir.ReturnToDispatch{})

	_, err := New(NewFlatMemory(0, 0), Hooks{}).Run(block, &State{})
	assert.ErrorContains(t, err, "no supervisor call hook")

	var seen []a64.Exception
	st := &State{}
	exit, err := New(NewFlatMemory(0, 0), Hooks{
		CallSupervisor: func(st *State, imm uint32) error {
			st.X[0] = uint64(imm)
			return nil
		},
		ExceptionRaised: func(st *State, pc uint64, kind a64.Exception) error {
			seen = append(seen, kind)
			return nil
		},
	}).Run(block, st)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st.X[0])
	assert.Equal(t, uint64(0x1004), st.PC)
	assert.Equal(t, []a64.Exception{a64.ExceptionUnpredictableInstruction}, seen)
	assert.Equal(t, seen, exit.Exceptions)
}

func TestHostCall(t *testing.T) {
	block, e := newBlock(0x1000)
	e.SetX(a64.LR, ir.Imm64(0x1004))
	e.SetTerm(ir.CallHLEFunction{
		Function: "strlen",
		Return:   ir.LinkBlockFast{Next: a64.NewLocationDescriptor(0x1004, 0, false).ToIR()},
	})

	_, err := New(NewFlatMemory(0, 0), Hooks{}).Run(block, &State{})
	assert.ErrorContains(t, err, "no host call hook")

	st := &State{}
	exit, err := New(NewFlatMemory(0, 0), Hooks{
		HostCall: func(st *State, _ Memory, fn ir.HostFunctionID) error {
			st.X[0] = uint64(len(fn))
			return nil
		},
	}).Run(block, st)
	require.NoError(t, err)
	assert.Equal(t, ir.HostFunctionID("strlen"), exit.HostCall)
	assert.Equal(t, uint64(6), st.X[0])
	assert.Equal(t, uint64(0x1004), exit.NextPC)
	assert.IsType(t, ir.LinkBlockFast{}, exit.Terminal)
}

func TestRunRequiresTerminal(t *testing.T) {
	block, _ := newBlock(0x1000)
	_, err := New(NewFlatMemory(0, 0), Hooks{}).Run(block, &State{})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	st := &State{PC: 0x1000}
	st.V[3] = vector.New(1, 0)
	s := st.String()
	assert.Contains(t, s, "pc =0000000000001000")
	assert.Contains(t, s, "v3 =")
	assert.NotContains(t, s, "v4 =")
}
