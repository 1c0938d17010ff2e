package opt

import (
	"testing"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/a64/asm"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/hle"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memcpyTable = hle.Map{0x2000: "memcpy"}

// stub emits at 0x3000 a stub loading its target from the slot at 0x2000
// and branching to it.
func stub(p *asm.Program, extra ...uint32) *asm.Program {
	p.Org(0x3000).Emit(asm.MOVZ(true, a64.R16, 0x2000, 0))
	p.Emit(extra...)
	return p.Emit(
		asm.LDRImm(true, a64.R17, a64.R16, 0),
		asm.BR(a64.R17),
	)
}

func compileCaller(t *testing.T, p *asm.Program, conf *config.UserConfig, functions hle.FunctionMap) (*ir.Block, bool) {
	t.Helper()
	block := a64.Translate(a64.NewLocationDescriptor(0x1000, 0, false), conf.ReadCode(), conf.TranslationOptions())
	Optimize(block)
	rewritten := A64HLEPass(block, conf, functions)
	Optimize(block)
	return block, rewritten
}

func confFor(p *asm.Program) *config.UserConfig {
	return config.NewUserConfig(config.ReadCodeFunc(p.ReadCode))
}

func TestHLECallThroughStub(t *testing.T) {
	p := stub(asm.NewProgram(0x1000).Emit(asm.BL(0x2000)))
	block, rewritten := compileCaller(t, p, confFor(p), memcpyTable)
	require.True(t, rewritten)

	assert.Equal(t, ir.CallHLEFunction{
		Function: "memcpy",
		Return:   ir.LinkBlockFast{Next: a64.NewLocationDescriptor(0x1004, 0, false).ToIR()},
	}, block.Terminal())
	// The link register write stays, the RSB push goes.
	assert.Equal(t, []ir.Opcode{ir.OpA64SetX}, opcodes(block))
	assert.Equal(t, uint8(a64.LR), block.Inst(block.Instructions()[0]).Arg(0).A64Reg())
}

func TestHLETailCallThroughStub(t *testing.T) {
	p := stub(asm.NewProgram(0x1000).Emit(asm.MOVZ(true, a64.R0, 1, 0), asm.B(0x3000-0x1004)))
	block, rewritten := compileCaller(t, p, confFor(p), memcpyTable)
	require.True(t, rewritten)

	assert.Equal(t, ir.CallHLEFunction{Function: "memcpy", Return: ir.PopRSBHint{}}, block.Terminal())
	assert.Equal(t, []ir.Opcode{ir.OpA64SetX, ir.OpA64GetX, ir.OpA64SetPC}, opcodes(block))
	getLR := block.Inst(block.Instructions()[1])
	assert.Equal(t, uint8(a64.LR), getLR.Arg(0).A64Reg())
}

func TestHLEScratchRegistersOnly(t *testing.T) {
	t.Run("IP1 write is allowed", func(t *testing.T) {
		p := stub(asm.NewProgram(0x1000).Emit(asm.BL(0x2000)), asm.MOVZ(true, a64.R17, 7, 0))
		_, rewritten := compileCaller(t, p, confFor(p), memcpyTable)
		assert.True(t, rewritten)
	})
	t.Run("R0 write is not", func(t *testing.T) {
		p := stub(asm.NewProgram(0x1000).Emit(asm.BL(0x2000)), asm.MOVZ(true, a64.R0, 7, 0))
		block, rewritten := compileCaller(t, p, confFor(p), memcpyTable)
		assert.False(t, rewritten)
		assert.Equal(t, ir.LinkBlock{Next: a64.NewLocationDescriptor(0x3000, 0, false).ToIR()}, block.Terminal())
	})
	t.Run("store is not", func(t *testing.T) {
		p := stub(asm.NewProgram(0x1000).Emit(asm.BL(0x2000)), asm.STRImm(true, a64.R16, a64.SP, 0))
		_, rewritten := compileCaller(t, p, confFor(p), memcpyTable)
		assert.False(t, rewritten)
	})
}

func TestHLENoMatch(t *testing.T) {
	p := stub(asm.NewProgram(0x1000).Emit(asm.BL(0x2000)))
	p.Org(0x4000).Emit(asm.RET(a64.LR))

	tests := []struct {
		name      string
		caller    uint32
		conf      func(*config.UserConfig)
		functions hle.FunctionMap
	}{
		{"slot not registered", asm.BL(0x2000), nil, hle.Map{0x2008: "memcpy"}},
		{"empty table", asm.BL(0x2000), nil, hle.Empty},
		{"slow dispatch", asm.BL(0x2000), func(c *config.UserConfig) { c.EnableFastDispatch = false }, memcpyTable},
		{"callee returns", asm.BL(0x3000), nil, memcpyTable},
		{"caller ends indirectly", asm.BR(a64.R3), nil, memcpyTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Org(0x1000).Emit(tt.caller)
			conf := confFor(p)
			if tt.conf != nil {
				tt.conf(conf)
			}
			block, rewritten := compileCaller(t, p, conf, tt.functions)
			assert.False(t, rewritten)
			_, isHLE := block.Terminal().(ir.CallHLEFunction)
			assert.False(t, isHLE)
		})
	}
}

func TestHLEIsDeterministic(t *testing.T) {
	p := stub(asm.NewProgram(0x1000).Emit(asm.MOVZ(true, a64.R1, 2, 0), asm.BL(0x3000-0x1004)))
	first, ok := compileCaller(t, p, confFor(p), memcpyTable)
	require.True(t, ok)
	second, ok := compileCaller(t, p, confFor(p), memcpyTable)
	require.True(t, ok)

	if diff := cmp.Diff(ir.DumpBlock(first), ir.DumpBlock(second)); diff != "" {
		t.Fatalf("HLE rewrite differs between runs:\n%s", diff)
	}
}

func TestIsScratchWrite(t *testing.T) {
	block, e := newEmitter()
	e.SetX(a64.R16, ir.Imm64(1))
	e.SetW(a64.R17, ir.Imm32(1))
	e.SetX(a64.R15, ir.Imm64(1))
	e.SetX(a64.R18, ir.Imm64(1))
	e.SetSP(ir.Imm64(1))
	e.SetTerm(ir.ReturnToDispatch{})

	var got []bool
	for _, id := range block.Instructions() {
		got = append(got, isScratchWrite(block.Inst(id)))
	}
	assert.Equal(t, []bool{true, true, false, false, false}, got)
}
