package a64_test

import (
	"testing"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/a64/asm"
	"github.com/colorfulnotion/a64jit/jit/interpreter"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/jit/opt"
	"github.com/stretchr/testify/require"
)

const (
	codeBase = 0x1000
	dataBase = 0x8000
	dataSize = 0x1000
)

var defaultOptions = a64.TranslationOptions{EnableFastDispatch: true}

// translateOne translates the single instruction inst placed at codeBase.
func translateOne(inst uint32, options a64.TranslationOptions) *ir.Block {
	p := asm.NewProgram(codeBase).Emit(inst)
	options.MaxInstructions = 1
	return a64.Translate(a64.NewLocationDescriptor(codeBase, 0, false), p.ReadCode, options)
}

// execute runs block on a copy of st, once as translated and once after the
// optimization pipeline, and checks both agree.
func execute(t *testing.T, block *ir.Block, st interpreter.State, mem *interpreter.FlatMemory) (interpreter.State, interpreter.Exit) {
	t.Helper()
	if mem == nil {
		mem = interpreter.NewFlatMemory(dataBase, dataSize)
	}
	memCopy := &interpreter.FlatMemory{Base: mem.Base, Data: append([]byte(nil), mem.Data...)}

	raw := st
	rawExit, err := interpreter.New(memCopy, interpreter.Hooks{}).Run(block, &raw)
	require.NoError(t, err)

	optimized := block.Clone()
	opt.Optimize(optimized)
	exit, err := interpreter.New(mem, interpreter.Hooks{}).Run(optimized, &st)
	require.NoError(t, err)

	require.Equal(t, raw, st, "optimized block diverged\n%s", ir.DumpBlock(optimized))
	require.Equal(t, memCopy.Data, mem.Data)
	require.Equal(t, rawExit, exit)
	return st, exit
}
