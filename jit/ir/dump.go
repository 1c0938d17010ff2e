package ir

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xlab/treeprint"
)

func (b *Block) formatInst(id InstID) string {
	inst := &b.insts[id]
	var sb strings.Builder
	if inst.op.ReturnType() != TypeVoid {
		fmt.Fprintf(&sb, "%%%-5d = ", id)
	} else {
		sb.WriteString(strings.Repeat(" ", 9))
	}
	sb.WriteString(inst.op.String())
	for n := 0; n < inst.op.NumArgs(); n++ {
		if n == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(inst.args[n].String())
	}
	if inst.op.ReturnType() != TypeVoid {
		fmt.Fprintf(&sb, " (uses: %d)", inst.uses)
	}
	return sb.String()
}

// DumpBlock renders b as text, one instruction per line.
func DumpBlock(b *Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Block: location=%s\n", b.location)
	fmt.Fprintf(&sb, "cycles=%d, end=%s\n", b.cycleCount, b.endLocation)
	for _, id := range b.Instructions() {
		sb.WriteString(b.formatInst(id))
		sb.WriteByte('\n')
	}
	if b.terminal != nil {
		fmt.Fprintf(&sb, "terminal = %s\n", b.terminal)
	} else {
		sb.WriteString("terminal = <none>\n")
	}
	return sb.String()
}

func (b *Block) String() string {
	return DumpBlock(b)
}

// BlockTree renders b as a tree: instructions, their arguments, and the terminal.
func BlockTree(b *Block) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("block %s (%d insts, %d cycles)", b.location, b.live, b.cycleCount))
	for _, id := range b.Instructions() {
		inst := &b.insts[id]
		branch := tree.AddBranch(fmt.Sprintf("%%%d %s", id, inst.op))
		for n := 0; n < inst.op.NumArgs(); n++ {
			arg := inst.args[n]
			if arg.IsInst() {
				branch.AddNode(fmt.Sprintf("%s -> %s", arg, b.insts[arg.inst].op))
			} else {
				branch.AddNode(arg.String())
			}
		}
	}
	addTerminal(tree, b.terminal)
	return tree
}

func addTerminal(tree treeprint.Tree, t Terminal) {
	switch t := t.(type) {
	case nil:
		tree.AddNode("terminal <none>")
	case CallHLEFunction:
		branch := tree.AddBranch(fmt.Sprintf("terminal CallHLEFunction %s", t.Function))
		addTerminal(branch, t.Return)
	case ReturnToDispatch, LinkBlock, LinkBlockFast, PopRSBHint, FastDispatchHint:
		tree.AddNode("terminal " + t.String())
	default:
		panic(fmt.Sprintf("ir: unknown terminal %T", t))
	}
}

type instJSON struct {
	ID   InstID   `json:"id"`
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
	Uses int      `json:"uses,omitempty"`
}

type blockJSON struct {
	Location     string     `json:"location"`
	EndLocation  string     `json:"end_location"`
	Cycles       uint64     `json:"cycles"`
	Instructions []instJSON `json:"instructions"`
	Terminal     string     `json:"terminal"`
}

// MarshalJSON renders the block for inspection tools. It is not a
// serialization format: nothing reads it back.
func (b *Block) MarshalJSON() ([]byte, error) {
	out := blockJSON{
		Location:     b.location.String(),
		EndLocation:  b.endLocation.String(),
		Cycles:       b.cycleCount,
		Instructions: make([]instJSON, 0, b.live),
		Terminal:     "<none>",
	}
	if b.terminal != nil {
		out.Terminal = b.terminal.String()
	}
	for _, id := range b.Instructions() {
		inst := &b.insts[id]
		ij := instJSON{ID: id, Op: inst.op.String(), Uses: int(inst.uses)}
		for n := 0; n < inst.op.NumArgs(); n++ {
			ij.Args = append(ij.Args, inst.args[n].String())
		}
		out.Instructions = append(out.Instructions, ij)
	}
	return json.Marshal(out)
}
