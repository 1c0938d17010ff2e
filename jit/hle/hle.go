// Package hle holds the host function table: guest addresses of function
// pointer slots mapped to the host functions that replace them.
package hle

import (
	"fmt"
	"sort"

	"github.com/colorfulnotion/a64jit/jit/ir"
)

// FunctionMap is a read-only exact-address lookup. Implementations must be
// safe for concurrent readers.
type FunctionMap interface {
	Lookup(addr uint64) (ir.HostFunctionID, bool)
}

// Entry is one table row.
type Entry struct {
	Addr     uint64
	Function ir.HostFunctionID
}

func (e Entry) String() string {
	return fmt.Sprintf("%#016x %s", e.Addr, e.Function)
}

// Map is an in-memory FunctionMap. It must not be written once shared.
type Map map[uint64]ir.HostFunctionID

func (m Map) Lookup(addr uint64) (ir.HostFunctionID, bool) {
	fn, ok := m[addr]
	return fn, ok
}

// Entries returns the table sorted by address.
func (m Map) Entries() []Entry {
	out := make([]Entry, 0, len(m))
	for addr, fn := range m {
		out = append(out, Entry{Addr: addr, Function: fn})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Empty is the FunctionMap with no entries.
var Empty FunctionMap = Map(nil)
