package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	lvl, err = ParseLevel("CRITICAL")
	require.NoError(t, err)
	assert.Equal(t, LevelCrit, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, false)))

	DisableModule(IROpt)
	Debug(IROpt, "hidden")
	assert.Empty(t, buf.String())

	EnableModules(" ir_opt, hle ")
	defer DisableModule(IROpt)
	defer DisableModule(HLE)
	Debug(IROpt, "shown", "pass", "dce")
	out := buf.String()
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "module=ir_opt")
	assert.Contains(t, out, "pass=dce")

	buf.Reset()
	Info(A64Translate, "always")
	assert.True(t, strings.HasPrefix(buf.String(), "INFO "))
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(JSONHandlerWithLevel(&buf, LevelInfo))
	l.Debug(JIT, "dropped")
	l.Info(JIT, "kept", "blocks", 3)
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"lvl":"info"`)
	assert.Contains(t, out, `"blocks":3`)
}

func TestLevelStrings(t *testing.T) {
	assert.Equal(t, "TRACE", LevelAlignedString(LevelTrace))
	assert.Equal(t, "INFO ", LevelAlignedString(LevelInfo))
	assert.Equal(t, "crit", LevelString(LevelCrit))
	assert.Equal(t, "unknown", LevelString(LevelInfo+1))

	for _, n := range levelNames {
		lvl, err := ParseLevel(strings.ToUpper(n.name))
		require.NoError(t, err)
		assert.Equal(t, n.level, lvl)
	}
	lvl, err := ParseLevel(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)
}
