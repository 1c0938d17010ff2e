package jit

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/interpreter"
	"github.com/colorfulnotion/a64jit/log"
)

// RunResult summarizes a Run.
type RunResult struct {
	Blocks int
	Last   interpreter.Exit
}

// Run executes guest code from st.PC one block at a time through in. It stops
// after a block raises an exception, after maxBlocks blocks, or when ctx is
// done. maxBlocks <= 0 means no limit.
func (c *Compiler) Run(ctx context.Context, in *interpreter.Interpreter, st *interpreter.State, maxBlocks int) (RunResult, error) {
	var res RunResult
	for maxBlocks <= 0 || res.Blocks < maxBlocks {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		loc := a64.NewLocationDescriptor(st.PC, 0, false)
		block := c.GetBlock(ctx, loc)
		exit, err := in.Run(block, st)
		res.Blocks++
		res.Last = exit
		if err != nil {
			return res, fmt.Errorf("block %s: %w", loc, err)
		}
		if exit.HostCall != "" {
			log.Debug(log.JIT, "Run: host call", "function", exit.HostCall, "next", fmt.Sprintf("%#x", exit.NextPC))
		}
		if len(exit.Exceptions) > 0 {
			log.Debug(log.JIT, "Run: stopped on exception", "pc", fmt.Sprintf("%#x", st.PC), "exception", exit.Exceptions[0])
			break
		}
	}
	return res, nil
}
