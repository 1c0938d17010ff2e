package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/a64"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zeroCode = ReadCodeFunc(func(uint64) uint32 { return 0 })

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a64jit.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewUserConfigDefaults(t *testing.T) {
	conf := NewUserConfig(zeroCode)
	require.NoError(t, conf.Validate())
	assert.True(t, conf.EnableFastDispatch)
	assert.True(t, conf.EnableHLE)
	assert.False(t, conf.DefineUnpredictableBehaviour)

	opts := conf.TranslationOptions()
	assert.Equal(t, a64.TranslationOptions{
		EnableFastDispatch: true,
		MaxInstructions:    a64.DefaultMaxBlockInstructions,
	}, opts)
	assert.Equal(t, uint32(0), conf.ReadCode()(0x1000))
}

func TestUserConfigValidate(t *testing.T) {
	conf := NewUserConfig(nil)
	assert.True(t, errors.Is(conf.Validate(), jiterrors.ErrConfig))

	conf = NewUserConfig(zeroCode)
	conf.MaxBlockInstructions = 0
	err := conf.Validate()
	assert.True(t, errors.Is(err, jiterrors.ErrConfig))
	assert.Equal(t, "C1", jiterrors.GetErrorCode(err))
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"log_level": "debug",
		"log_modules": "a64_translate,hle",
		"define_unpredictable_behaviour": true,
		"enable_fast_dispatch": false,
		"max_block_instructions": 8,
		"hle_functions": {"0x2000": "memcpy", "8200": "memset"}
	}`)
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", f.LogLevel)
	assert.Equal(t, "a64_translate,hle", f.LogModules)

	conf := f.UserConfig(zeroCode)
	assert.True(t, conf.DefineUnpredictableBehaviour)
	assert.False(t, conf.EnableFastDispatch)
	assert.True(t, conf.EnableHLE, "unset fields keep their defaults")
	assert.Equal(t, 8, conf.MaxBlockInstructions)

	functions, err := f.Functions()
	require.NoError(t, err)
	assert.Equal(t, map[uint64]ir.HostFunctionID{0x2000: "memcpy", 0x2008: "memset"}, functions)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"malformed", `{"log_level":`, jiterrors.ErrConfig},
		{"level", `{"log_level": "loud"}`, jiterrors.ErrConfig},
		{"negative limit", `{"max_block_instructions": -1}`, jiterrors.ErrConfig},
		{"bad address", `{"hle_functions": {"slot": "memcpy"}}`, jiterrors.ErrInvalidAddress},
		{"empty name", `{"hle_functions": {"0x2000": ""}}`, jiterrors.ErrConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "%v", err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDefaultFile(t *testing.T) {
	f := DefaultFile()
	require.NoError(t, f.Validate())
	conf := f.UserConfig(zeroCode)
	assert.Equal(t, NewUserConfig(zeroCode).TranslationOptions(), conf.TranslationOptions())
}

func TestParseAddress(t *testing.T) {
	valid := map[string]uint64{
		"0x2000":   0x2000,
		"8192":     0x2000,
		"0x20_00":  0x2000,
		" 0o20000": 0x2000,
		"0b10":     2,
	}
	for in, want := range valid {
		got, err := ParseAddress(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "zz", "-1", "0x1_0000_0000_0000_0000"} {
		_, err := ParseAddress(in)
		assert.True(t, errors.Is(err, jiterrors.ErrInvalidAddress), in)
	}
}

func TestHostFeatures(t *testing.T) {
	h := DetectHostFeatures()
	assert.NotEmpty(t, h.Arch)
	assert.Contains(t, h.String(), h.Arch+": ")

	assert.Equal(t, "arm64: none", HostFeatures{Arch: "arm64"}.String())
	h = HostFeatures{Arch: "amd64", SSE41: true, AVX2: true}
	assert.Equal(t, "amd64: sse4.1 avx2", h.String())
	assert.True(t, h.Has128BitVectors())
	assert.False(t, HostFeatures{Arch: "riscv64"}.Has128BitVectors())
}
