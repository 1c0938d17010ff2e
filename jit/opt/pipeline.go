package opt

import "github.com/colorfulnotion/a64jit/jit/ir"

// Pass is one block-local rewrite.
type Pass struct {
	Name string
	Run  func(*ir.Block)
}

// Pipeline lists the standard passes in the order they must run.
var Pipeline = []Pass{
	{"A64GetSetElimination", A64GetSetElimination},
	{"ConstantPropagation", ConstantPropagation},
	{"DeadCodeElimination", DeadCodeElimination},
	{"VerificationPass", VerificationPass},
}

// Optimize runs the standard pipeline. Running it again on its own output
// changes nothing.
func Optimize(block *ir.Block) {
	for _, p := range Pipeline {
		p.Run(block)
	}
}
