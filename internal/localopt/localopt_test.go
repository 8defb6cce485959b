package localopt

import (
	"testing"

	"ssagraph/internal/flags"
	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

func TestConstantFoldingAdd(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block := g.Anchors.StartBlock
	a := g.NewConst(block, tarval.NewInt(mode.Is, 2))
	b := g.NewConst(block, tarval.NewInt(mode.Is, 3))
	sum := g.NewAdd(block, mode.Is, a, b)

	Do(g, flags.NewRegistry())

	sumNode := g.Node(sum)
	if sumNode.Op() != opcode.Id && sumNode.Op() != opcode.Const {
		t.Fatalf("expected Add to fold away, got %v", sumNode.Op())
	}
	folded := g.Node(g.SkipID(sum))
	if folded.Op() != opcode.Const {
		t.Fatalf("expected constant after folding, got %v", folded.Op())
	}
	if folded.Attr().(node.ConstAttr).Value.Int64() != 5 {
		t.Fatalf("folded value = %d, want 5", folded.Attr().(node.ConstAttr).Value.Int64())
	}
}

func TestAlgebraicIdentityAddZero(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block := g.Anchors.StartBlock
	x := g.NewConst(block, tarval.NewInt(mode.Is, 9))
	zero := g.NewConst(block, tarval.NewInt(mode.Is, 0))
	sum := g.NewAdd(block, mode.Is, x, zero)
	user := g.NewMinus(block, mode.Is, sum)

	freg := flags.NewRegistry()
	freg.Set(flags.ConstantFolding, false)
	Do(g, freg)

	if g.SkipID(g.Node(user).In(0)) != g.SkipID(x) {
		t.Fatal("expected x+0 to be replaced by x")
	}
}

func TestCSEDeduplicatesIdenticalAdds(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block := g.Anchors.StartBlock
	a := g.NewConst(block, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(block, tarval.NewInt(mode.Is, 2))
	freg := flags.NewRegistry()
	freg.Set(flags.ConstantFolding, false)
	freg.Set(flags.AlgebraicSimplify, false)

	x := g.NewAdd(block, mode.Is, a, b)
	y := g.NewAdd(block, mode.Is, a, b)
	userX := g.NewMinus(block, mode.Is, x)
	userY := g.NewMinus(block, mode.Is, y)

	Do(g, freg)

	got := g.SkipID(g.Node(userX).In(0))
	want := g.SkipID(g.Node(userY).In(0))
	if got != want {
		t.Fatalf("CSE should have unified the two Adds: %v vs %v", got, want)
	}
}

func TestTrivialPhiElimination(t *testing.T) {
	g := node.NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	jmp1 := g.NewJmp(g.Anchors.StartBlock)
	jmp2 := g.NewJmp(g.Anchors.StartBlock)
	header := g.NewBlock([]node.ID{jmp1, jmp2})
	g.MatureBlock(header)
	v := g.NewConst(header, tarval.NewInt(mode.Is, 4))
	phi := g.NewPhi(header, mode.Is, []node.ID{v, v})
	user := g.NewMinus(header, mode.Is, phi)

	Do(g, flags.NewRegistry())

	if g.SkipID(g.Node(user).In(0)) != g.SkipID(v) {
		t.Fatal("expected trivial Phi to be replaced by its single distinct operand")
	}
}
