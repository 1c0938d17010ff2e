// Package config holds the embedder-facing configuration of the translator.
package config

import (
	"fmt"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/a64"
)

// Callbacks are the embedder services the translator reads guest code through.
// Implementations must be safe for concurrent use when blocks are compiled
// from several goroutines.
type Callbacks interface {
	MemoryReadCode(vaddr uint64) uint32
}

// ReadCodeFunc adapts a plain function to Callbacks.
type ReadCodeFunc func(vaddr uint64) uint32

func (f ReadCodeFunc) MemoryReadCode(vaddr uint64) uint32 { return f(vaddr) }

type UserConfig struct {
	Callbacks Callbacks

	// DefineUnpredictableBehaviour translates CONSTRAINED UNPREDICTABLE
	// encodings instead of trapping them.
	DefineUnpredictableBehaviour bool

	// EnableFastDispatch ends indirect branches with FastDispatchHint. The
	// HLE pass only recognizes stubs translated with it enabled.
	EnableFastDispatch bool

	// MaxBlockInstructions caps guest instructions per block.
	MaxBlockInstructions int

	// EnableHLE runs the stub-recognition pass on compiled blocks.
	EnableHLE bool
}

// NewUserConfig returns the default configuration reading code through cb.
func NewUserConfig(cb Callbacks) *UserConfig {
	return &UserConfig{
		Callbacks:            cb,
		EnableFastDispatch:   true,
		MaxBlockInstructions: a64.DefaultMaxBlockInstructions,
		EnableHLE:            true,
	}
}

func (c *UserConfig) Validate() error {
	if c.Callbacks == nil {
		return fmt.Errorf("%w: no code read callback", jiterrors.ErrConfig)
	}
	if c.MaxBlockInstructions < 1 {
		return fmt.Errorf("%w: max block instructions %d", jiterrors.ErrConfig, c.MaxBlockInstructions)
	}
	return nil
}

// TranslationOptions is the subset of the configuration the front end sees.
// The HLE pass hands the same options to its speculative translations.
func (c *UserConfig) TranslationOptions() a64.TranslationOptions {
	return a64.TranslationOptions{
		DefineUnpredictableBehaviour: c.DefineUnpredictableBehaviour,
		EnableFastDispatch:           c.EnableFastDispatch,
		MaxInstructions:              c.MaxBlockInstructions,
	}
}

func (c *UserConfig) ReadCode() a64.MemoryReadCodeFunc {
	return c.Callbacks.MemoryReadCode
}
