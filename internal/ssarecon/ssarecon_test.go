package ssarecon

import (
	"testing"

	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

func TestConstructSSAInsertsJoiningPhi(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	blockA := g.Anchors.StartBlock
	origVal := g.NewConst(blockA, tarval.NewInt(mode.Is, 1))
	jmpA := g.NewJmp(blockA)

	blockB := g.NewBlock(nil)
	newVal := g.NewConst(blockB, tarval.NewInt(mode.Is, 1))
	jmpB := g.NewJmp(blockB)

	joinBlock := g.NewBlock([]node.ID{jmpA, jmpB})
	g.MatureBlock(joinBlock)

	user := g.NewMinus(joinBlock, mode.Is, origVal)

	ConstructSSA(g, blockA, origVal, blockB, newVal)

	phiID := g.Node(user).In(0)
	phi := g.Node(phiID)
	if phi.Op() != opcode.Phi {
		t.Fatalf("expected user to now read a Phi, got %v", phi.Op())
	}
	if phi.In(0) != origVal || phi.In(1) != newVal {
		t.Fatalf("Phi operands = (%v, %v), want (%v, %v)", phi.In(0), phi.In(1), origVal, newVal)
	}
}

func TestConstructSSASingleLiveDefNoPhi(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	blockA := g.Anchors.StartBlock
	origVal := g.NewConst(blockA, tarval.NewInt(mode.Is, 7))
	jmpA := g.NewJmp(blockA)

	downstream := g.NewBlock([]node.ID{jmpA})
	g.MatureBlock(downstream)
	user := g.NewMinus(downstream, mode.Is, origVal)

	// newBlock/newVal never actually reached along any path from downstream.
	other := g.NewBlock(nil)
	otherVal := g.NewConst(other, tarval.NewInt(mode.Is, 7))

	ConstructSSA(g, blockA, origVal, other, otherVal)

	if g.Node(user).In(0) != origVal {
		t.Fatalf("single live predecessor path should keep the original definition, got %v", g.Node(user).In(0))
	}
}
