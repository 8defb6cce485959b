package node

import (
	"testing"

	"ssagraph/internal/mode"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

func TestNewGraphAnchors(t *testing.T) {
	g := NewGraph(opcode.Default, "test::entry")
	defer g.Arena().Free()

	if g.Node(g.Anchors.Start).Op() != opcode.Start {
		t.Fatal("start anchor has wrong opcode")
	}
	if g.Node(g.Anchors.InitialExec).Mode() != mode.X {
		t.Fatal("initial_exec proj should be mode X")
	}
	if g.Node(g.Anchors.Frame).Mode() != mode.P {
		t.Fatal("frame proj should be mode P (ref)")
	}
}

func TestExactCopyPreservesConstAttr(t *testing.T) {
	g := NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	c := g.NewConst(g.Anchors.StartBlock, tarval.NewInt(mode.Is, 5))
	c2 := g.ExactCopy(c)

	if g.Node(c2).Op() != opcode.Const {
		t.Fatal("copy has wrong opcode")
	}
	a1 := g.Node(c).Attr().(ConstAttr)
	a2 := g.Node(c2).Attr().(ConstAttr)
	if a1.Value.Int64() != a2.Value.Int64() {
		t.Fatal("copy lost constant value")
	}
}

func TestExchangeReroutesUsers(t *testing.T) {
	g := NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block := g.Anchors.StartBlock
	a := g.NewConst(block, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(block, tarval.NewInt(mode.Is, 2))
	x := g.NewAdd(block, mode.Is, a, b)
	y := g.NewAdd(block, mode.Is, a, b)
	user := g.NewMinus(block, mode.Is, y)

	g.EdgeState = ValidityConsistent
	g.Exchange(y, x)

	if g.Node(user).In(0) != x {
		t.Fatalf("user still points at %v, not %v", g.Node(user).In(0), x)
	}
	if !g.Node(y).IsDeleted() {
		t.Fatal("old node should be Deleted after exchange with edges active")
	}
}

func TestExchangeWithoutEdgesBecomesId(t *testing.T) {
	g := NewGraph(opcode.Default, "test")
	defer g.Arena().Free()

	block := g.Anchors.StartBlock
	a := g.NewConst(block, tarval.NewInt(mode.Is, 1))
	b := g.NewConst(block, tarval.NewInt(mode.Is, 2))
	x := g.NewAdd(block, mode.Is, a, b)
	y := g.NewAdd(block, mode.Is, a, b)

	g.Exchange(y, x)

	if g.Node(y).Op() != opcode.Id {
		t.Fatalf("expected Id rewrite, got %v", g.Node(y).Op())
	}
	if g.SkipID(y) != x {
		t.Fatalf("SkipID(y) = %v, want %v", g.SkipID(y), x)
	}
}

func TestKillMarksDeleted(t *testing.T) {
	g := NewGraph(opcode.Default, "test")
	defer g.Arena().Free()
	c := g.NewConst(g.Anchors.StartBlock, tarval.NewInt(mode.Is, 1))
	g.Kill(c)
	if !g.Node(c).IsDeleted() {
		t.Fatal("killed node should report Deleted")
	}
}
