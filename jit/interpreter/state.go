package interpreter

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/colorfulnotion/a64jit/jit/vector"
)

// State is the architectural guest state a block reads and writes.
type State struct {
	X  [31]uint64
	SP uint64
	PC uint64
	V  [32]vector.V128
}

func (s *State) String() string {
	var sb strings.Builder
	for i, x := range s.X {
		fmt.Fprintf(&sb, "x%-2d=%016x", i, x)
		if i%4 == 3 {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
	}
	fmt.Fprintf(&sb, "sp =%016x pc =%016x\n", s.SP, s.PC)
	for i, v := range s.V {
		if !v.IsZero() {
			fmt.Fprintf(&sb, "v%-2d=%s\n", i, v)
		}
	}
	return sb.String()
}

// Memory is the guest data memory as seen by the interpreter.
type Memory interface {
	Read(vaddr uint64, size int) (uint64, error)
	Write(vaddr uint64, size int, value uint64) error
}

// FaultError reports an access outside mapped memory.
type FaultError struct {
	Addr  uint64
	Write bool
}

func (e *FaultError) Error() string {
	if e.Write {
		return fmt.Sprintf("write fault at %#x", e.Addr)
	}
	return fmt.Sprintf("read fault at %#x", e.Addr)
}

// FlatMemory maps Data at Base; everything else faults.
type FlatMemory struct {
	Base uint64
	Data []byte
}

func NewFlatMemory(base uint64, size int) *FlatMemory {
	return &FlatMemory{Base: base, Data: make([]byte, size)}
}

func (m *FlatMemory) slice(vaddr uint64, size int) ([]byte, bool) {
	n := uint64(size / 8)
	if vaddr < m.Base || vaddr-m.Base+n > uint64(len(m.Data)) {
		return nil, false
	}
	return m.Data[vaddr-m.Base : vaddr-m.Base+n], true
}

func (m *FlatMemory) Read(vaddr uint64, size int) (uint64, error) {
	b, ok := m.slice(vaddr, size)
	if !ok {
		return 0, &FaultError{Addr: vaddr}
	}
	switch size {
	case 8:
		return uint64(b[0]), nil
	case 16:
		return uint64(binary.LittleEndian.Uint16(b)), nil
	case 32:
		return uint64(binary.LittleEndian.Uint32(b)), nil
	case 64:
		return binary.LittleEndian.Uint64(b), nil
	}
	panic(fmt.Sprintf("interpreter: invalid access size %d", size))
}

func (m *FlatMemory) Write(vaddr uint64, size int, value uint64) error {
	b, ok := m.slice(vaddr, size)
	if !ok {
		return &FaultError{Addr: vaddr, Write: true}
	}
	switch size {
	case 8:
		b[0] = byte(value)
	case 16:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case 32:
		binary.LittleEndian.PutUint32(b, uint32(value))
	case 64:
		binary.LittleEndian.PutUint64(b, value)
	default:
		panic(fmt.Sprintf("interpreter: invalid access size %d", size))
	}
	return nil
}
