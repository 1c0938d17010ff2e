package hle

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/a64jit/jiterrors"
	"github.com/colorfulnotion/a64jit/jit/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	m := Map{0x3000: "memset", 0x2000: "memcpy", 0x2008: "strlen"}

	fn, ok := m.Lookup(0x2008)
	require.True(t, ok)
	assert.Equal(t, ir.HostFunctionID("strlen"), fn)
	_, ok = m.Lookup(0x2004)
	assert.False(t, ok)

	assert.Equal(t, []Entry{
		{Addr: 0x2000, Function: "memcpy"},
		{Addr: 0x2008, Function: "strlen"},
		{Addr: 0x3000, Function: "memset"},
	}, m.Entries())
	assert.Equal(t, "0x0000000000002000 memcpy", m.Entries()[0].String())

	_, ok = Empty.Lookup(0x2000)
	assert.False(t, ok)
}

func TestStore(t *testing.T) {
	s, err := OpenStore("")
	require.NoError(t, err)
	defer s.Close()

	var _ FunctionMap = s

	require.NoError(t, s.Put(0x2000, "memcpy"))
	require.NoError(t, s.Import(Map{0x1_0000_0000: "memset", 0x2008: "strlen"}))

	fn, ok := s.Lookup(0x2000)
	require.True(t, ok)
	assert.Equal(t, ir.HostFunctionID("memcpy"), fn)

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Addr: 0x2000, Function: "memcpy"},
		{Addr: 0x2008, Function: "strlen"},
		{Addr: 0x1_0000_0000, Function: "memset"},
	}, entries, "entries come back in address order")

	require.NoError(t, s.Delete(0x2008))
	_, ok = s.Lookup(0x2008)
	assert.False(t, ok)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, Map{0x2000: "memcpy", 0x1_0000_0000: "memset"}, snap)
}

func TestStoreRejectsEmptyNames(t *testing.T) {
	s, err := OpenStore("")
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, errors.Is(s.Put(0x2000, ""), jiterrors.ErrHLEStore))
	err = s.Import(Map{0x2000: "memcpy", 0x2008: ""})
	assert.True(t, errors.Is(err, jiterrors.ErrHLEStore))

	// The batch is all or nothing.
	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hle")
	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(0x2000, "memcpy"))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()
	fn, ok := s.Lookup(0x2000)
	require.True(t, ok)
	assert.Equal(t, ir.HostFunctionID("memcpy"), fn)
}
