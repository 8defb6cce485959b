package analysis

import (
	"testing"

	"ssagraph/internal/mode"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"

	"ssagraph/internal/node"
)

// buildDiamond builds Start -> B1 -> {B2, B3} -> B4, a classic diamond.
func buildDiamond(t *testing.T) (*node.Graph, node.ID, node.ID, node.ID, node.ID) {
	t.Helper()
	g := node.NewGraph(opcode.Default, "diamond")

	b1 := g.Anchors.StartBlock

	selector := g.NewConst(b1, tarval.True)
	cond := g.NewCond(b1, selector)
	projT := g.NewProj(cond, mode.X, 1)
	projF := g.NewProj(cond, mode.X, 0)

	b2 := g.NewBlock([]node.ID{projT})
	b3 := g.NewBlock([]node.ID{projF})
	jb2 := g.NewJmp(b2)
	jb3 := g.NewJmp(b3)

	b4 := g.NewBlock([]node.ID{jb2, jb3})
	return g, b1, b2, b3, b4
}

func TestDominanceDiamond(t *testing.T) {
	g, b1, b2, b3, b4 := buildDiamond(t)
	defer g.Arena().Free()

	doms := ComputeDoms(g)
	if !doms.Dominates(b1, b2) || !doms.Dominates(b1, b3) || !doms.Dominates(b1, b4) {
		t.Fatal("b1 should dominate every block in the diamond")
	}
	if doms.Dominates(b2, b4) {
		t.Fatal("b2 should not dominate the join block b4")
	}
}
