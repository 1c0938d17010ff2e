package main

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/nsf/jsondiff"
	"github.com/spf13/cobra"
)

func newTranslateCmd() *cobra.Command {
	var (
		img    imageFlags
		noOpt  bool
		diff   bool
		tree   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "translate <image>",
		Short: "Translate one basic block and print its IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, pc, err := img.load(args[0])
			if err != nil {
				return err
			}
			c, err := newCompiler(image)
			if err != nil {
				return err
			}
			loc := a64.NewLocationDescriptor(pc, 0, false)
			conf := c.Config()

			if noOpt || diff {
				raw := a64.Translate(loc, conf.ReadCode(), conf.TranslationOptions())
				if !diff {
					return emit(raw, tree, asJSON)
				}
				return printDiff(raw, c.Compile(cmd.Context(), loc))
			}
			return emit(c.Compile(cmd.Context(), loc), tree, asJSON)
		},
	}
	img.register(cmd)
	cmd.Flags().BoolVar(&noOpt, "no-opt", false, "print the block as translated, before any pass")
	cmd.Flags().BoolVar(&diff, "diff", false, "diff the translated block against the optimized one")
	cmd.Flags().BoolVar(&tree, "tree", false, "print the block as a tree")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the block as JSON")
	return cmd
}

func emit(block *ir.Block, tree, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(block, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	printBlock(block, tree)
	return nil
}

// printDiff shows what the pass pipeline changed between two renderings of
// a block.
func printDiff(before, after *ir.Block) error {
	a, err := json.Marshal(before)
	if err != nil {
		return err
	}
	b, err := json.Marshal(after)
	if err != nil {
		return err
	}
	opts := jsondiff.DefaultConsoleOptions()
	result, text := jsondiff.Compare(a, b, &opts)
	fmt.Println(text)
	fmt.Printf("%s: %d -> %d instructions\n", result, len(before.Instructions()), len(after.Instructions()))
	return nil
}

func newDisasmCmd() *cobra.Command {
	var (
		img   imageFlags
		count int
	)
	cmd := &cobra.Command{
		Use:   "disasm <image>",
		Short: "Disassemble guest code with the translator's decoder names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, pc, err := img.load(args[0])
			if err != nil {
				return err
			}
			n := count
			if left := int((image.End() - pc) / 4); n <= 0 || n > left {
				n = left
			}
			fmt.Print(a64.DisassembleRange(image.ReadCode, pc, n))
			return nil
		},
	}
	img.register(cmd)
	cmd.Flags().IntVar(&count, "count", 16, "instructions to disassemble, 0 for the rest of the image")
	return cmd
}
