package main

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/interpreter"
	"github.com/colorfulnotion/a64jit/jit/ir"
	log "github.com/colorfulnotion/a64jit/log"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		img     imageFlags
		steps   int
		memSize int
		stats   bool
	)
	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Execute guest code block by block through the IR interpreter",
		Long: `Execute guest code block by block through the IR interpreter.

The image is mapped read-write at --base followed by --mem bytes of zeroed
memory; SP starts at the end of that region. Host calls and supervisor calls
are logged and otherwise ignored. Execution stops at the first exception or
after --steps blocks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, pc, err := img.load(args[0])
			if err != nil {
				return err
			}
			c, err := newCompiler(image)
			if err != nil {
				return err
			}

			mem := &interpreter.FlatMemory{Base: image.Base, Data: make([]byte, len(image.Data)+memSize)}
			copy(mem.Data, image.Data)
			st := &interpreter.State{PC: pc, SP: mem.Base + uint64(len(mem.Data))}
			in := interpreter.New(mem, loggingHooks())

			res, err := c.Run(cmd.Context(), in, st, steps)
			fmt.Print(st.String())
			fmt.Printf("blocks=%d exit=%s next=%#x\n", res.Blocks, exitTerminal(res.Last), res.Last.NextPC)
			for _, e := range res.Last.Exceptions {
				fmt.Printf("exception: %s\n", e)
			}
			if stats {
				fmt.Println(c.Stats())
			}
			return err
		},
	}
	img.register(cmd)
	cmd.Flags().IntVar(&steps, "steps", 1000, "maximum number of blocks to execute, 0 for no limit")
	cmd.Flags().IntVar(&memSize, "mem", 64<<10, "bytes of zeroed memory mapped after the image")
	cmd.Flags().BoolVar(&stats, "stats", false, "print compiler statistics")
	return cmd
}

func loggingHooks() interpreter.Hooks {
	return interpreter.Hooks{
		CallSupervisor: func(st *interpreter.State, imm uint32) error {
			log.Info(log.Interpreter, "supervisor call", "imm", imm, "x8", st.X[8], "pc", fmt.Sprintf("%#x", st.PC))
			return nil
		},
		ExceptionRaised: func(st *interpreter.State, pc uint64, kind a64.Exception) error {
			log.Warn(log.Interpreter, "exception raised", "pc", fmt.Sprintf("%#x", pc), "kind", kind)
			return nil
		},
		HostCall: func(st *interpreter.State, _ interpreter.Memory, fn ir.HostFunctionID) error {
			log.Info(log.Interpreter, "host call", "function", fn, "x0", st.X[0], "x1", st.X[1], "x2", st.X[2])
			return nil
		},
	}
}

func exitTerminal(exit interpreter.Exit) string {
	if exit.Terminal == nil {
		return "<none>"
	}
	return exit.Terminal.String()
}
