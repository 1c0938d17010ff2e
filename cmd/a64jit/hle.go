package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/colorfulnotion/a64jit/jit/hle"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/spf13/cobra"
)

func newHLECmd() *cobra.Command {
	var storePath string
	cmd := &cobra.Command{
		Use:   "hle",
		Short: "Maintain the persistent HLE function table",
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "HLE store directory (default: hle_store from the config file)")

	open := func() (*hle.Store, error) {
		path := storePath
		if path == "" {
			path = file.HLEStore
		}
		if path == "" {
			return nil, errors.New("no HLE store: pass --store or set hle_store in the config file")
		}
		return hle.OpenStore(path)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <table.json>",
		Short: `Import a JSON object mapping slot addresses to function names, e.g. {"0x2000": "memcpy"}`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var raw map[string]string
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			table, err := (&config.File{HLEFunctions: raw}).Functions()
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Import(hle.Map(table)); err != nil {
				return err
			}
			fmt.Printf("imported %d entries\n", len(table))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the stored table in address order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.Entries()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Println(e)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "put <addr> <function>",
		Short: "Register one host function",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := config.ParseAddress(args[0])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Put(addr, ir.HostFunctionID(args[1]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <addr>",
		Short: "Remove one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := config.ParseAddress(args[0])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(addr)
		},
	})

	return cmd
}
