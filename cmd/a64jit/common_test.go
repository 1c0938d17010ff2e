package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/a64/asm"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/hle"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, p *asm.Program) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, p.Image().Data, 0o644))
	return path
}

func TestImageFlags(t *testing.T) {
	path := writeImage(t, asm.NewProgram(0x1000).Emit(asm.NOP(), asm.RET(a64.LR)))

	img, pc, err := (&imageFlags{base: "0x1000"}).load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), pc)
	assert.Equal(t, asm.RET(a64.LR), img.ReadCode(0x1004))

	_, pc, err = (&imageFlags{base: "0x1000", pc: "0x1004"}).load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1004), pc)

	for _, f := range []imageFlags{
		{base: "base"},
		{base: "0x1000", pc: "0x1002"},
		{base: "0x1000", pc: "0x1008"},
	} {
		_, _, err := f.load(path)
		assert.Error(t, err, "%+v", f)
	}
	_, _, err = (&imageFlags{base: "0"}).load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadFunctions(t *testing.T) {
	defer func(f *config.File) { file = f }(file)

	storePath := filepath.Join(t.TempDir(), "hle")
	store, err := hle.OpenStore(storePath)
	require.NoError(t, err)
	require.NoError(t, store.Import(hle.Map{0x2000: "memcpy", 0x2008: "strlen"}))
	require.NoError(t, store.Close())

	file = &config.File{
		HLEStore:     storePath,
		HLEFunctions: map[string]string{"0x2008": "fast_strlen"},
	}
	functions, err := loadFunctions()
	require.NoError(t, err)
	assert.Equal(t, hle.Map{0x2000: "memcpy", 0x2008: "fast_strlen"}, functions)
}

func TestNewCompilerFromImage(t *testing.T) {
	defer func(f *config.File) { file = f }(file)
	file = &config.File{HLEFunctions: map[string]string{"0x2000": "memcpy"}}

	p := asm.NewProgram(0x1000).Emit(asm.BL(0x2000))
	p.Org(0x3000).Emit(
		asm.MOVZ(true, a64.R16, 0x2000, 0),
		asm.LDRImm(true, a64.R17, a64.R16, 0),
		asm.BR(a64.R17),
	)
	img, pc, err := (&imageFlags{base: "0x1000"}).load(writeImage(t, p))
	require.NoError(t, err)

	c, err := newCompiler(img)
	require.NoError(t, err)
	block := c.Compile(context.Background(), a64.NewLocationDescriptor(pc, 0, false))
	term, ok := block.Terminal().(ir.CallHLEFunction)
	require.True(t, ok, block.Terminal().String())
	assert.Equal(t, ir.HostFunctionID("memcpy"), term.Function)
}
