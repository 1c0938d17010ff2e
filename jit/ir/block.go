package ir

import (
	"fmt"
	"sync/atomic"
)

const maxArgs = 4

var blockSerial atomic.Uint32

// Inst is one IR instruction. Instructions live in their block's arena and
// are addressed by InstID; removal leaves a tombstone so handles stay valid.
type Inst struct {
	op      Opcode
	args    [maxArgs]Value
	uses    int32
	removed bool
}

func (i *Inst) Opcode() Opcode { return i.op }
func (i *Inst) NumArgs() int   { return i.op.NumArgs() }
func (i *Inst) Arg(n int) Value {
	if n >= i.op.NumArgs() {
		panic(fmt.Sprintf("ir: %s has no argument %d", i.op, n))
	}
	return i.args[n]
}

// Uses is the number of argument slots in the block referring to this instruction.
func (i *Inst) Uses() int     { return int(i.uses) }
func (i *Inst) HasUses() bool { return i.uses > 0 }

func (i *Inst) MayHaveSideEffects() bool { return i.op.MayHaveSideEffects() }

// Block is a straight-line sequence of IR instructions followed by exactly one
// terminal once translation has finished.
type Block struct {
	serial      uint32
	location    LocationDescriptor
	endLocation LocationDescriptor
	insts       []Inst
	live        int
	terminal    Terminal
	cycleCount  uint64
}

func NewBlock(location LocationDescriptor) *Block {
	return &Block{
		serial:      blockSerial.Add(1),
		location:    location,
		endLocation: location,
		insts:       make([]Inst, 0, 16),
	}
}

func (b *Block) Location() LocationDescriptor    { return b.location }
func (b *Block) EndLocation() LocationDescriptor { return b.endLocation }

func (b *Block) SetEndLocation(l LocationDescriptor) { b.endLocation = l }

// CycleCount is the number of guest instructions the block accounts for.
func (b *Block) CycleCount() uint64     { return b.cycleCount }
func (b *Block) SetCycleCount(n uint64) { b.cycleCount = n }
func (b *Block) AddCycles(n uint64)     { b.cycleCount += n }

// Len is the number of live instructions.
func (b *Block) Len() int    { return b.live }
func (b *Block) Empty() bool { return b.live == 0 }

// ArenaSize is the number of handles ever issued, including removed ones.
func (b *Block) ArenaSize() int { return len(b.insts) }

func (b *Block) Inst(id InstID) *Inst {
	if id < 0 || int(id) >= len(b.insts) {
		panic(fmt.Sprintf("ir: instruction %%%d out of range", id))
	}
	return &b.insts[id]
}

// IsLive reports whether id names an instruction that has not been removed.
func (b *Block) IsLive(id InstID) bool {
	return id >= 0 && int(id) < len(b.insts) && !b.insts[id].removed
}

// Instructions returns the handles of all live instructions in program order.
func (b *Block) Instructions() []InstID {
	ids := make([]InstID, 0, b.live)
	for i := range b.insts {
		if !b.insts[i].removed {
			ids = append(ids, InstID(i))
		}
	}
	return ids
}

// Back returns the last live instruction.
func (b *Block) Back() (InstID, bool) {
	for i := len(b.insts) - 1; i >= 0; i-- {
		if !b.insts[i].removed {
			return InstID(i), true
		}
	}
	return 0, false
}

func (b *Block) ref(id InstID) Value {
	return Value{kind: valueInst, owner: b.serial, inst: id}
}

// Ref returns a reference to the result of the live instruction id.
func (b *Block) Ref(id InstID) Value {
	if !b.IsLive(id) {
		panic(fmt.Sprintf("ir: reference to dead instruction %%%d", id))
	}
	return b.ref(id)
}

// Owns reports whether v is an immediate or refers to a live instruction of b.
func (b *Block) Owns(v Value) bool {
	if v.kind != valueInst {
		return true
	}
	return v.owner == b.serial && b.IsLive(v.inst)
}

func (b *Block) checkArg(op Opcode, n int, v Value) {
	if v.kind == valueEmpty {
		panic(fmt.Sprintf("ir: %s argument %d is empty", op, n))
	}
	if !b.Owns(v) {
		panic(fmt.Sprintf("ir: %s argument %d (%s) does not belong to block %s", op, n, v, b.location))
	}
	if t := b.TypeOf(v); !AreTypesCompatible(t, op.ArgType(n)) {
		panic(fmt.Sprintf("ir: %s argument %d has type %s, want %s", op, n, t, op.ArgType(n)))
	}
}

func (b *Block) use(v Value) {
	if v.kind == valueInst {
		b.insts[v.inst].uses++
	}
}

func (b *Block) unuse(v Value) {
	if v.kind == valueInst {
		b.insts[v.inst].uses--
	}
}

// Append adds an instruction at the end of the block and returns a reference to its result.
func (b *Block) Append(op Opcode, args ...Value) Value {
	if len(args) != op.NumArgs() {
		panic(fmt.Sprintf("ir: %s takes %d arguments, got %d", op, op.NumArgs(), len(args)))
	}
	inst := Inst{op: op}
	for n, arg := range args {
		b.checkArg(op, n, arg)
		inst.args[n] = arg
	}
	for _, arg := range args {
		b.use(arg)
	}
	b.insts = append(b.insts, inst)
	b.live++
	return b.ref(InstID(len(b.insts) - 1))
}

// TypeOf returns the type v carries, looking through identities.
func (b *Block) TypeOf(v Value) Type {
	switch v.kind {
	case valueImm:
		return v.typ
	case valueInst:
		inst := &b.insts[v.inst]
		if inst.op == OpIdentity {
			return b.TypeOf(inst.args[0])
		}
		return inst.op.ReturnType()
	}
	return TypeVoid
}

// Resolve follows identity chains to the value that is actually computed.
func (b *Block) Resolve(v Value) Value {
	for v.kind == valueInst && b.insts[v.inst].op == OpIdentity {
		v = b.insts[v.inst].args[0]
	}
	return v
}

// SetArg replaces argument n of id.
func (b *Block) SetArg(id InstID, n int, v Value) {
	inst := b.Inst(id)
	b.checkArg(inst.op, n, v)
	if v.kind == valueInst && v.inst >= id {
		panic(fmt.Sprintf("ir: %%%d cannot use later instruction %s", id, v))
	}
	b.unuse(inst.args[n])
	inst.args[n] = v
	b.use(v)
}

func (b *Block) clearArgs(inst *Inst) {
	for n := 0; n < inst.op.NumArgs(); n++ {
		b.unuse(inst.args[n])
		inst.args[n] = Value{}
	}
}

// ReplaceUsesWith turns id into an identity of v, so every user now sees v.
func (b *Block) ReplaceUsesWith(id InstID, v Value) {
	inst := b.Inst(id)
	if inst.removed {
		panic(fmt.Sprintf("ir: %%%d was removed", id))
	}
	if r := b.Resolve(v); r.kind == valueInst && r.inst == id {
		panic(fmt.Sprintf("ir: %%%d cannot become an identity of itself", id))
	}
	if !b.Owns(v) {
		panic(fmt.Sprintf("ir: replacement %s does not belong to block %s", v, b.location))
	}
	b.clearArgs(inst)
	inst.op = OpIdentity
	inst.args[0] = v
	b.use(v)
}

// Remove tombstones id. It panics if something still uses its result.
func (b *Block) Remove(id InstID) {
	inst := b.Inst(id)
	if inst.removed {
		return
	}
	if inst.uses > 0 {
		panic(fmt.Sprintf("ir: removing %%%d (%s) which still has %d uses", id, inst.op, inst.uses))
	}
	b.clearArgs(inst)
	inst.removed = true
	b.live--
}

func (b *Block) HasTerminal() bool  { return b.terminal != nil }
func (b *Block) Terminal() Terminal { return b.terminal }

// SetTerminal sets the block's terminal. A block is terminated exactly once.
func (b *Block) SetTerminal(t Terminal) {
	if b.terminal != nil {
		panic(fmt.Sprintf("ir: block %s already terminated by %s", b.location, b.terminal))
	}
	CheckTerminal(t)
	b.terminal = t
}

// ReplaceTerminal swaps the terminal of an already terminated block.
func (b *Block) ReplaceTerminal(t Terminal) {
	if b.terminal == nil {
		panic(fmt.Sprintf("ir: block %s has no terminal to replace", b.location))
	}
	CheckTerminal(t)
	b.terminal = t
}

// Clone returns an independent copy of b. References are rebound to the copy.
func (b *Block) Clone() *Block {
	c := &Block{
		serial:      blockSerial.Add(1),
		location:    b.location,
		endLocation: b.endLocation,
		insts:       make([]Inst, len(b.insts)),
		live:        b.live,
		terminal:    b.terminal,
		cycleCount:  b.cycleCount,
	}
	copy(c.insts, b.insts)
	for i := range c.insts {
		for n := range c.insts[i].args {
			if c.insts[i].args[n].kind == valueInst {
				c.insts[i].args[n].owner = c.serial
			}
		}
	}
	return c
}
