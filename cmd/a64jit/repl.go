package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/a64jit/jit"
	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/config"
	"github.com/spf13/cobra"
)

type replCommand struct {
	usage string
	help  string
	run   func(s *replSession, args []string) error
}

type replSession struct {
	cmd   *cobra.Command
	c     *jit.Compiler
	image *a64.Image
	pc    uint64
}

var replCommands map[string]replCommand

func init() {
	replCommands = map[string]replCommand{
		"block": {"block [pc]", "compile (or fetch from the cache) and print the block at pc", replBlock},
		"tree":  {"tree [pc]", "print the block at pc as a tree", replBlock},
		"raw":   {"raw [pc]", "print the block at pc before optimization", replRaw},
		"dis":   {"dis [pc] [count]", "disassemble count instructions at pc", replDisasm},
		"inv":   {"inv <start> [end]", "invalidate cached blocks overlapping [start, end)", replInvalidate},
		"clear": {"clear", "drop every cached block", replClear},
		"stats": {"stats", "print compiler statistics", replStats},
		"help":  {"help", "list commands", replHelp},
	}
}

func newReplCmd() *cobra.Command {
	var img imageFlags
	cmd := &cobra.Command{
		Use:   "repl <image>",
		Short: "Interactively translate and inspect blocks of an image",
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
			return repl(&replSession{cmd: cmd, c: c, image: image, pc: pc})
		},
	}
	img.register(cmd)
	return cmd
}

func repl(s *replSession) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "a64jit> ",
		HistoryFile: filepath.Join(os.TempDir(), "a64jit_history.txt"),
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		rc, ok := replCommands[fields[0]]
		if !ok {
			fmt.Printf("unknown command %q, try help\n", fields[0])
			continue
		}
		if err := rc.run(s, fields); err != nil {
			fmt.Printf("%s: %v\n", fields[0], err)
		}
	}
}

// addressArg parses args[n] as a guest address, defaulting to the session pc.
func (s *replSession) addressArg(args []string, n int) (uint64, error) {
	if len(args) <= n {
		return s.pc, nil
	}
	return config.ParseAddress(args[n])
}

func replBlock(s *replSession, args []string) error {
	pc, err := s.addressArg(args, 1)
	if err != nil {
		return err
	}
	s.pc = pc
	printBlock(s.c.GetBlock(s.cmd.Context(), a64.NewLocationDescriptor(pc, 0, false)), args[0] == "tree")
	return nil
}

func replRaw(s *replSession, args []string) error {
	pc, err := s.addressArg(args, 1)
	if err != nil {
		return err
	}
	conf := s.c.Config()
	printBlock(a64.Translate(a64.NewLocationDescriptor(pc, 0, false), conf.ReadCode(), conf.TranslationOptions()), false)
	return nil
}

func replDisasm(s *replSession, args []string) error {
	pc, err := s.addressArg(args, 1)
	if err != nil {
		return err
	}
	count := 8
	if len(args) > 2 {
		if count, err = strconv.Atoi(args[2]); err != nil {
			return err
		}
	}
	fmt.Print(a64.DisassembleRange(s.image.ReadCode, pc, count))
	return nil
}

func replInvalidate(s *replSession, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: " + replCommands["inv"].usage)
	}
	start, err := config.ParseAddress(args[1])
	if err != nil {
		return err
	}
	end := start + 4
	if len(args) > 2 {
		if end, err = config.ParseAddress(args[2]); err != nil {
			return err
		}
	}
	fmt.Printf("dropped %d blocks\n", s.c.Invalidate(start, end))
	return nil
}

func replClear(s *replSession, _ []string) error {
	s.c.ClearCache()
	return nil
}

func replStats(s *replSession, _ []string) error {
	fmt.Printf("%s cached=%d\n", s.c.Stats(), s.c.Len())
	return nil
}

func replHelp(_ *replSession, _ []string) error {
	names := make([]string, 0, len(replCommands))
	for name := range replCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rc := replCommands[name]
		fmt.Printf("  %-20s %s\n", rc.usage, rc.help)
	}
	fmt.Printf("  %-20s %s\n", "quit", "leave")
	return nil
}
