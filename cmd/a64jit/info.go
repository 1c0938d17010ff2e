package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/ir"
	log "github.com/colorfulnotion/a64jit/log"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print build, host and translator information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := config.DetectHostFeatures()
			conf := file.UserConfig(config.ReadCodeFunc(func(uint64) uint32 { return 0 }))
			functions, err := loadFunctions()
			if err != nil {
				return err
			}

			fmt.Printf("a64jit %s (%s) %s\n", Version, Commit, runtime.Version())
			fmt.Printf("host:        %s\n", host)
			fmt.Printf("128-bit:     %v\n", host.Has128BitVectors())
			fmt.Printf("opcodes:     %d\n", ir.NumOpcodes)
			fmt.Printf("max insts:   %d (default %d)\n", conf.MaxBlockInstructions, a64.DefaultMaxBlockInstructions)
			fmt.Printf("fast disp:   %v\n", conf.EnableFastDispatch)
			fmt.Printf("hle:         %v (%d functions)\n", conf.EnableHLE, len(functions))
			fmt.Printf("log modules: %s\n", strings.Join(log.KnownModules(), ","))
			return nil
		},
	}
}
