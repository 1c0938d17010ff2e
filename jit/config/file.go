package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/colorfulnotion/a64jit/log"
)

// File is the on-disk configuration used by the command line tools.
type File struct {
	LogLevel                     string            `json:"log_level"`
	LogModules                   string            `json:"log_modules"`
	DefineUnpredictableBehaviour bool              `json:"define_unpredictable_behaviour"`
	EnableFastDispatch           *bool             `json:"enable_fast_dispatch,omitempty"`
	EnableHLE                    *bool             `json:"enable_hle,omitempty"`
	MaxBlockInstructions         int               `json:"max_block_instructions,omitempty"`
	HLEFunctions                 map[string]string `json:"hle_functions,omitempty"`
	HLEStore                     string            `json:"hle_store,omitempty"`
	OTLPEndpoint                 string            `json:"otlp_endpoint,omitempty"`
}

// DefaultFile is the configuration used when no file is given.
func DefaultFile() *File {
	return &File{LogLevel: "info"}
}

// LoadFile reads and validates a JSON configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	f := DefaultFile()
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", jiterrors.ErrConfig, path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Validate() error {
	if f.LogLevel != "" {
		if _, err := log.ParseLevel(f.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", jiterrors.ErrConfig, err)
		}
	}
	if f.MaxBlockInstructions < 0 {
		return fmt.Errorf("%w: max_block_instructions %d", jiterrors.ErrConfig, f.MaxBlockInstructions)
	}
	if _, err := f.Functions(); err != nil {
		return err
	}
	return nil
}

// UserConfig builds the translator configuration described by f.
func (f *File) UserConfig(cb Callbacks) *UserConfig {
	conf := NewUserConfig(cb)
	conf.DefineUnpredictableBehaviour = f.DefineUnpredictableBehaviour
	if f.EnableFastDispatch != nil {
		conf.EnableFastDispatch = *f.EnableFastDispatch
	}
	if f.EnableHLE != nil {
		conf.EnableHLE = *f.EnableHLE
	}
	if f.MaxBlockInstructions > 0 {
		conf.MaxBlockInstructions = f.MaxBlockInstructions
	}
	return conf
}

// Functions parses the hle_functions table.
func (f *File) Functions() (map[uint64]ir.HostFunctionID, error) {
	out := make(map[uint64]ir.HostFunctionID, len(f.HLEFunctions))
	for addr, name := range f.HLEFunctions {
		a, err := ParseAddress(addr)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("%w: empty host function name at %s", jiterrors.ErrConfig, addr)
		}
		out[a] = ir.HostFunctionID(name)
	}
	return out, nil
}

// ParseAddress accepts decimal, 0x-prefixed hex and 0o/0b forms, with
// optional '_' separators.
func ParseAddress(s string) (uint64, error) {
	a, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", jiterrors.ErrInvalidAddress, s)
	}
	return a, nil
}
