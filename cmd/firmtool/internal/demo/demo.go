// Package demo builds the fixed set of sample graphs cmd/firmtool drives
// through the pipeline, one per testable property spec §8 names that has
// a sensible standalone CLI demonstration (the others — SSA repair,
// exchange-with-edges-active, type-identification — are exercised as
// package-level tests instead, since they check an API's contract rather
// than a pass's end-to-end output).
package demo

import (
	"fmt"

	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

// Registry maps a demo's name to its builder, in the order Names returns
// them.
var registry = []struct {
	name  string
	build func() *node.Graph
}{
	{"constfold", ConstFoldTwoAdds},
	{"condbranch", CondBranchDeadCode},
	{"jumpthread", JumpThreadPhi},
}

// Names lists every known demo, in a fixed display order.
func Names() []string {
	out := make([]string, len(registry))
	for i, r := range registry {
		out[i] = r.name
	}
	return out
}

// Build constructs the named demo graph, or returns an error if name is
// unknown.
func Build(name string) (*node.Graph, error) {
	for _, r := range registry {
		if r.name == name {
			return r.build(), nil
		}
	}
	return nil, fmt.Errorf("demo: unknown program %q (known: %v)", name, Names())
}

// ConstFoldTwoAdds builds a graph returning (5+7, 7+5): two independent
// Adds of integer Consts feeding a two-result Return. Spec §8 property 1:
// after CSE-enabled local opts, both Adds collapse to a single Const 12.
func ConstFoldTwoAdds() *node.Graph {
	g := node.NewGraph(opcode.Default, "const_fold_two_adds")
	block := g.Anchors.StartBlock

	five := g.NewConst(block, tarval.NewInt(mode.Is, 5))
	seven := g.NewConst(block, tarval.NewInt(mode.Is, 7))
	left := g.NewAdd(block, mode.Is, five, seven)
	right := g.NewAdd(block, mode.Is, seven, five)

	ret := g.NewReturn(block, g.Anchors.InitialMemory, []node.ID{left, right})
	g.Node(g.Anchors.EndBlock).AddIn(ret)
	return g
}

// CondBranchDeadCode builds a simplified version of
// `if (0 == 0) { a = 2 } else { a = 1 }; return a;`: a Cond whose
// selector is `0 == 0`, always true, so the else arm is dead. Spec §8
// property 2: jump threading plus a control-flow cleanup should leave the
// Return reading the then-arm's constant unconditionally.
func CondBranchDeadCode() *node.Graph {
	g := node.NewGraph(opcode.Default, "cond_branch_dead_code")
	entry := g.Anchors.StartBlock

	zeroL := g.NewConst(entry, tarval.NewInt(mode.Is, 0))
	zeroR := g.NewConst(entry, tarval.NewInt(mode.Is, 0))
	_, selector := g.NewCmpProj(entry, zeroL, zeroR, tarval.RelEqual)
	cond := g.NewCond(entry, selector)
	projThen := g.NewProj(cond, mode.X, 1)
	projElse := g.NewProj(cond, mode.X, 0)

	thenBlock := g.NewBlock([]node.ID{projThen})
	g.MatureBlock(thenBlock)
	aThen := g.NewConst(thenBlock, tarval.NewInt(mode.Is, 2))
	jmpThen := g.NewJmp(thenBlock)

	elseBlock := g.NewBlock([]node.ID{projElse})
	g.MatureBlock(elseBlock)
	aElse := g.NewConst(elseBlock, tarval.NewInt(mode.Is, 1))
	jmpElse := g.NewJmp(elseBlock)

	joinBlock := g.NewBlock([]node.ID{jmpThen, jmpElse})
	g.MatureBlock(joinBlock)
	a := g.NewPhi(joinBlock, mode.Is, []node.ID{aThen, aElse})

	ret := g.NewReturn(joinBlock, g.Anchors.InitialMemory, []node.ID{a})
	g.Node(g.Anchors.EndBlock).AddIn(ret)
	return g
}

// JumpThreadPhi builds a Block B with two CFG predecessors feeding an
// integer Phi compared against a constant, the literal form spec §8
// property 3 names: `Phi(0, 1) == 0`. threadThroughCmpPhi duplicates the
// comparison into each predecessor's block (entry's operand is 0, taking
// the true branch; pred2's operand is 1, taking the false branch) and
// splices each predecessor directly into the successor it resolves to.
func JumpThreadPhi() *node.Graph {
	g := node.NewGraph(opcode.Default, "jump_thread_phi")
	entry := g.Anchors.StartBlock
	jmp1 := g.NewJmp(entry)

	pred2 := g.NewBlock(nil)
	jmp2 := g.NewJmp(pred2)

	condBlock := g.NewBlock([]node.ID{jmp1, jmp2})
	g.MatureBlock(condBlock)

	bound := g.NewConst(entry, tarval.NewInt(mode.Is, 0))
	zero := g.NewConst(entry, tarval.NewInt(mode.Is, 0))
	one := g.NewConst(pred2, tarval.NewInt(mode.Is, 1))
	phi := g.NewPhi(condBlock, mode.Is, []node.ID{zero, one})
	_, selector := g.NewCmpProj(condBlock, phi, bound, tarval.RelEqual)
	cond := g.NewCond(condBlock, selector)
	projTrue := g.NewProj(cond, mode.X, 1)
	projFalse := g.NewProj(cond, mode.X, 0)

	trueBlock := g.NewBlock([]node.ID{projTrue})
	g.MatureBlock(trueBlock)
	jmpTrue := g.NewJmp(trueBlock)

	falseBlock := g.NewBlock([]node.ID{projFalse})
	g.MatureBlock(falseBlock)
	jmpFalse := g.NewJmp(falseBlock)

	joinBlock := g.NewBlock([]node.ID{jmpTrue, jmpFalse})
	g.MatureBlock(joinBlock)

	ret := g.NewReturn(joinBlock, g.Anchors.InitialMemory, nil)
	g.Node(g.Anchors.EndBlock).AddIn(ret)
	return g
}
