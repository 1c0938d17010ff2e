package ir

import (
	"errors"
	"fmt"
)

// HostFunctionID names a host-implemented function an HLE call dispatches to.
type HostFunctionID string

// Terminal describes how control leaves a block. The set of implementations
// is closed: every consumer type-switches over all of them and panics on
// anything else.
type Terminal interface {
	isTerminal()
	String() string
}

// ReturnToDispatch hands control back to the dispatcher, which looks up the
// block for the current PC.
type ReturnToDispatch struct{}

// LinkBlock jumps to the block at Next, linking directly once it is compiled.
type LinkBlock struct {
	Next LocationDescriptor
}

// LinkBlockFast is LinkBlock with a fast-dispatch lookup instead of a link.
type LinkBlockFast struct {
	Next LocationDescriptor
}

// PopRSBHint returns through the return stack buffer.
type PopRSBHint struct{}

// FastDispatchHint transfers to the current PC through the fast dispatch table.
type FastDispatchHint struct{}

// CallHLEFunction invokes a host function and then leaves through Return.
type CallHLEFunction struct {
	Function HostFunctionID
	Return   Terminal
}

func (ReturnToDispatch) isTerminal() {}
func (LinkBlock) isTerminal()        {}
func (LinkBlockFast) isTerminal()    {}
func (PopRSBHint) isTerminal()       {}
func (FastDispatchHint) isTerminal() {}
func (CallHLEFunction) isTerminal()  {}

func (ReturnToDispatch) String() string { return "ReturnToDispatch{}" }
func (t LinkBlock) String() string      { return fmt.Sprintf("LinkBlock{%s}", t.Next) }
func (t LinkBlockFast) String() string  { return fmt.Sprintf("LinkBlockFast{%s}", t.Next) }
func (PopRSBHint) String() string       { return "PopRSBHint{}" }
func (FastDispatchHint) String() string { return "FastDispatchHint{}" }
func (t CallHLEFunction) String() string {
	return fmt.Sprintf("CallHLEFunction{%s, %s}", t.Function, t.Return)
}

// ValidateTerminal reports whether t is a well-formed terminal. Nested
// return terminals are checked recursively.
func ValidateTerminal(t Terminal) error {
	switch t := t.(type) {
	case ReturnToDispatch, LinkBlock, LinkBlockFast, PopRSBHint, FastDispatchHint:
		return nil
	case CallHLEFunction:
		if t.Return == nil {
			return errors.New("CallHLEFunction without return terminal")
		}
		if _, nested := t.Return.(CallHLEFunction); nested {
			return errors.New("CallHLEFunction cannot return into another host call")
		}
		return ValidateTerminal(t.Return)
	case nil:
		return errors.New("nil terminal")
	default:
		return fmt.Errorf("unknown terminal %T", t)
	}
}

// CheckTerminal panics unless t is a well-formed terminal.
func CheckTerminal(t Terminal) {
	if err := ValidateTerminal(t); err != nil {
		panic("ir: " + err.Error())
	}
}
