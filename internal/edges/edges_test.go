package edges

import (
	"testing"

	"ssagraph/internal/mode"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"

	"ssagraph/internal/node"
)

func TestActivateDeactivateIdempotent(t *testing.T) {
	g := node.NewGraph(opcode.Default, "t")
	defer g.Arena().Free()
	idx := NewIndex(g)
	idx.Activate()
	idx.Activate()
	if !idx.Active() {
		t.Fatal("expected active")
	}
	idx.Deactivate()
	idx.Deactivate()
	if idx.Active() {
		t.Fatal("expected inactive")
	}
}

func TestOutCountMatchesTrueUses(t *testing.T) {
	g := node.NewGraph(opcode.Default, "t")
	defer g.Arena().Free()
	block := g.Anchors.StartBlock
	a := g.NewConst(block, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(block, tarval.NewInt(mode.Is, 2))
	g.NewAdd(block, mode.Is, a, b)
	g.NewAdd(block, mode.Is, a, b)

	idx := NewIndex(g)
	idx.Activate()

	if got := idx.NOut(a); got != 2 {
		t.Fatalf("NOut(a) = %d, want 2", got)
	}
}
