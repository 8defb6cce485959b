package jumpthread

import (
	"testing"

	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

func TestThreadResolvesConstantCond(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block0 := g.Anchors.StartBlock
	selector := g.NewConst(block0, tarval.True)
	cond := g.NewCond(block0, selector)
	projTrue := g.NewProj(cond, mode.X, 1)
	projFalse := g.NewProj(cond, mode.X, 0)

	trueBlock := g.NewBlock([]node.ID{projTrue})
	g.MatureBlock(trueBlock)
	falseBlock := g.NewBlock([]node.ID{projFalse})
	g.MatureBlock(falseBlock)

	rep := Thread(g)
	if rep.Count(0) == 0 {
		t.Fatal("expected jump threading to report resolved edges")
	}

	if g.Node(trueBlock).In(0) == projTrue {
		t.Fatal("true branch's incoming edge should have been replaced")
	}
	if g.Node(g.Node(trueBlock).In(0)).Op() != opcode.Jmp {
		t.Fatalf("true branch should become a Jmp, got %v", g.Node(g.Node(trueBlock).In(0)).Op())
	}
	if g.Node(g.Node(falseBlock).In(0)).Op() != opcode.Bad {
		t.Fatalf("false branch should become Bad, got %v", g.Node(g.Node(falseBlock).In(0)).Op())
	}
}

func TestThreadResolvesCmpOfConstants(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block0 := g.Anchors.StartBlock
	a := g.NewConst(block0, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(block0, tarval.NewInt(mode.Is, 2))
	_, selector := g.NewCmpProj(block0, a, b, tarval.RelLess)
	cond := g.NewCond(block0, selector)
	projTrue := g.NewProj(cond, mode.X, 1)
	projFalse := g.NewProj(cond, mode.X, 0)

	trueBlock := g.NewBlock([]node.ID{projTrue})
	g.MatureBlock(trueBlock)
	falseBlock := g.NewBlock([]node.ID{projFalse})
	g.MatureBlock(falseBlock)

	Thread(g)

	if g.Node(g.Node(trueBlock).In(0)).Op() != opcode.Jmp {
		t.Fatalf("1 < 2 should take the true branch, got %v", g.Node(g.Node(trueBlock).In(0)).Op())
	}
	if g.Node(g.Node(falseBlock).In(0)).Op() != opcode.Bad {
		t.Fatalf("false branch should be dead, got %v", g.Node(g.Node(falseBlock).In(0)).Op())
	}
}

func TestThreadLeavesUnresolvableCondAlone(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block0 := g.Anchors.StartBlock
	// A Proj-of-Cmp whose left side is not a constant can't be evaluated.
	unknown := g.NewProj(g.NewLoad(block0, g.Anchors.NoMem, g.Anchors.Args, mode.Is), mode.Is, 1)
	_, selector := g.NewCmpProj(block0, unknown, g.NewConst(block0, tarval.NewInt(mode.Is, 0)), tarval.RelLess)
	cond := g.NewCond(block0, selector)
	projTrue := g.NewProj(cond, mode.X, 1)
	projFalse := g.NewProj(cond, mode.X, 0)

	trueBlock := g.NewBlock([]node.ID{projTrue})
	g.MatureBlock(trueBlock)
	falseBlock := g.NewBlock([]node.ID{projFalse})
	g.MatureBlock(falseBlock)

	Thread(g)

	if g.Node(trueBlock).In(0) != projTrue {
		t.Fatal("unresolvable selector should leave the true edge untouched")
	}
	if g.Node(falseBlock).In(0) != projFalse {
		t.Fatal("unresolvable selector should leave the false edge untouched")
	}
}

func TestThreadThroughPhiOfConstants(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	entry := g.Anchors.StartBlock
	jmp1 := g.NewJmp(entry)

	pred2 := g.NewBlock(nil)
	jmp2 := g.NewJmp(pred2)

	condBlock := g.NewBlock([]node.ID{jmp1, jmp2})
	g.MatureBlock(condBlock)

	trueConst := g.NewConst(condBlock, tarval.True)
	falseConst := g.NewConst(condBlock, tarval.False)
	selector := g.NewPhi(condBlock, mode.B, []node.ID{trueConst, falseConst})
	cond := g.NewCond(condBlock, selector)
	projTrue := g.NewProj(cond, mode.X, 1)
	projFalse := g.NewProj(cond, mode.X, 0)

	trueBlock := g.NewBlock([]node.ID{projTrue})
	g.MatureBlock(trueBlock)
	falseBlock := g.NewBlock([]node.ID{projFalse})
	g.MatureBlock(falseBlock)

	Thread(g)

	foundDirect := false
	for _, pred := range g.Node(falseBlock).Ins() {
		if g.Node(pred).Op() == opcode.Jmp && g.Node(pred).Block() == pred2 {
			foundDirect = true
		}
	}
	if !foundDirect {
		t.Fatal("expected a direct Jmp from pred2 into falseBlock")
	}
	if g.Node(condBlock).In(1) == jmp2 {
		t.Fatal("condBlock's threaded predecessor edge should have been killed")
	}
}

func TestThreadThroughCmpOfPhiAndConst(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

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
	falseBlock := g.NewBlock([]node.ID{projFalse})
	g.MatureBlock(falseBlock)

	Thread(g)

	foundDirect := false
	for _, pred := range g.Node(trueBlock).Ins() {
		if g.Node(pred).Op() == opcode.Jmp && g.Node(pred).Block() == entry {
			foundDirect = true
		}
	}
	if !foundDirect {
		t.Fatal("phi(0, 1) == 0: entry's operand is 0, expected a direct Jmp from entry into trueBlock")
	}
	foundDirect = false
	for _, pred := range g.Node(falseBlock).Ins() {
		if g.Node(pred).Op() == opcode.Jmp && g.Node(pred).Block() == pred2 {
			foundDirect = true
		}
	}
	if !foundDirect {
		t.Fatal("phi(0, 1) == 0: pred2's operand is 1, expected a direct Jmp from pred2 into falseBlock")
	}
	if g.Node(condBlock).In(0) == jmp1 {
		t.Fatal("condBlock's entry predecessor edge should have been killed")
	}
	if g.Node(condBlock).In(1) == jmp2 {
		t.Fatal("condBlock's pred2 predecessor edge should have been killed")
	}
}
