package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/a64jit/jit"
	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/hle"
	"github.com/colorfulnotion/a64jit/jit/ir"
	log "github.com/colorfulnotion/a64jit/log"
	"github.com/spf13/cobra"
)

// imageFlags locate a raw code image in the guest address space.
type imageFlags struct {
	base string
	pc   string
}

func (f *imageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.base, "base", "0x0", "guest address the image is mapped at")
	cmd.Flags().StringVar(&f.pc, "pc", "", "guest address to start at (default: --base)")
}

// load reads the image at path and returns it with the start address.
func (f *imageFlags) load(path string) (*a64.Image, uint64, error) {
	base, err := config.ParseAddress(f.base)
	if err != nil {
		return nil, 0, fmt.Errorf("--base: %w", err)
	}
	pc := base
	if f.pc != "" {
		if pc, err = config.ParseAddress(f.pc); err != nil {
			return nil, 0, fmt.Errorf("--pc: %w", err)
		}
	}
	if pc%4 != 0 {
		return nil, 0, fmt.Errorf("--pc %#x is not word aligned", pc)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read image: %w", err)
	}
	img := a64.NewImage(base, data)
	if !img.Contains(pc) {
		return nil, 0, fmt.Errorf("pc %#x outside image [%#x, %#x)", pc, img.Base, img.End())
	}
	log.Debug(log.JIT, "image loaded", "path", path, "base", fmt.Sprintf("%#x", base), "size", len(data))
	return img, pc, nil
}

// loadFunctions merges the persistent HLE store, if configured, with the
// hle_functions table of the configuration file. File entries win.
func loadFunctions() (hle.Map, error) {
	functions := hle.Map{}
	if file.HLEStore != "" {
		store, err := hle.OpenStore(file.HLEStore)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		snap, err := store.Snapshot()
		if err != nil {
			return nil, err
		}
		for addr, fn := range snap {
			functions[addr] = fn
		}
	}
	fromFile, err := file.Functions()
	if err != nil {
		return nil, err
	}
	for addr, fn := range fromFile {
		functions[addr] = fn
	}
	return functions, nil
}

func newCompiler(img *a64.Image) (*jit.Compiler, error) {
	functions, err := loadFunctions()
	if err != nil {
		return nil, err
	}
	conf := file.UserConfig(config.ReadCodeFunc(img.ReadCode))
	return jit.NewCompiler(conf, jit.WithFunctions(functions))
}

func printBlock(block *ir.Block, tree bool) {
	if tree {
		fmt.Println(ir.BlockTree(block).String())
		return
	}
	fmt.Print(ir.DumpBlock(block))
}
