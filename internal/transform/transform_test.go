package transform

import (
	"testing"

	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

func allDefault(d *Driver) {
	for _, op := range []string{"Const", "Add", "Sub", "Minus", "Jmp", "Return", "Phi", "Cmp", "Proj", "Cond"} {
		d.Register(op, Default)
	}
}

func TestRunPreservesSimpleArithmeticShape(t *testing.T) {
	old := node.NewGraph(opcode.Default, "test")
	defer old.Arena().Free()

	block := old.Anchors.StartBlock
	a := old.NewConst(block, tarval.NewInt(mode.Is, 2))
	b := old.NewConst(block, tarval.NewInt(mode.Is, 3))
	sum := old.NewAdd(block, mode.Is, a, b)
	ret := old.NewReturn(block, old.Anchors.InitialMemory, []node.ID{sum})
	old.Node(old.Anchors.EndBlock).AddIn(ret)

	d := NewDriver(old)
	allDefault(d)
	newG := Run(d)
	defer newG.Arena().Free()

	newSum := old.Node(sum).Link()
	if newG.Node(newSum).Op() != opcode.Add {
		t.Fatalf("expected Add to survive the transform, got %v", newG.Node(newSum).Op())
	}
	if newG.Node(newSum).Arity() != 2 {
		t.Fatalf("expected arity 2, got %d", newG.Node(newSum).Arity())
	}
	newA := newG.Node(newSum).In(0)
	if newG.Node(newA).Op() != opcode.Const {
		t.Fatalf("expected first operand to transform to Const, got %v", newG.Node(newA).Op())
	}
}

func TestRunHandlesLoopHeaderPhiCycle(t *testing.T) {
	old := node.NewGraph(opcode.Default, "test")
	defer old.Arena().Free()

	entryJmp := old.NewJmp(old.Anchors.StartBlock)
	header := old.NewBlock([]node.ID{entryJmp, node.NoID})
	zero := old.NewConst(header, tarval.NewInt(mode.Is, 0))
	phi := old.NewPhi(header, mode.Is, []node.ID{zero, node.NoID})
	one := old.NewConst(header, tarval.NewInt(mode.Is, 1))
	next := old.NewAdd(header, mode.Is, phi, one)
	backJmp := old.NewJmp(header)
	old.Node(header).SetIn(1, backJmp)
	old.Node(phi).SetIn(1, next)
	old.MatureBlock(header)

	d := NewDriver(old)
	allDefault(d)
	// Run pre-links the Start anchor; driving Transform directly reaches it
	// through the entry block's initial_exec Proj, so it needs a
	// transformer here.
	d.Register("Start", Default)

	// Exercise the cycle-handling directly: phi and next are only
	// reachable from header's body, not from any Block predecessor or
	// End keep-alive, so drive Transform on phi itself rather than
	// relying on Run's anchor/Block reachability walk (covered by
	// TestRunPreservesSimpleArithmeticShape).
	newPhi := d.Transform(phi)
	defer d.New.Arena().Free()

	if d.New.Node(newPhi).Op() != opcode.Phi {
		t.Fatalf("expected Phi to survive, got %v", d.New.Node(newPhi).Op())
	}
	if d.New.Node(newPhi).Arity() != 2 {
		t.Fatalf("expected transformed Phi to keep arity 2, got %d", d.New.Node(newPhi).Arity())
	}
	newNext := old.Node(next).Link()
	if d.New.Node(newPhi).In(1) != newNext {
		t.Fatal("expected the Phi's backedge operand to resolve to the transformed Add, completing the cycle")
	}
}

func TestRunPreservesProjProjectionNumber(t *testing.T) {
	old := node.NewGraph(opcode.Default, "test")
	defer old.Arena().Free()

	block := old.Anchors.StartBlock
	a := old.NewConst(block, tarval.NewInt(mode.Is, 2))
	b := old.NewConst(block, tarval.NewInt(mode.Is, 3))
	_, eq := old.NewCmpProj(block, a, b, tarval.RelGreater)
	ret := old.NewReturn(block, old.Anchors.InitialMemory, []node.ID{eq})
	old.Node(old.Anchors.EndBlock).AddIn(ret)

	// Transform reuses old's link slot for memoization, so read the old
	// projection number before running it.
	wantNum := old.ProjNum(eq)

	d := NewDriver(old)
	allDefault(d)
	newG := Run(d)
	defer newG.Arena().Free()

	newEq := old.Node(eq).Link()
	if newG.Node(newEq).Op() != opcode.Proj {
		t.Fatalf("expected Proj to survive the transform, got %v", newG.Node(newEq).Op())
	}
	if newG.ProjNum(newEq) != wantNum {
		t.Fatalf("projection number not preserved: old %d, new %d", wantNum, newG.ProjNum(newEq))
	}
}

func TestRunPanicsOnUnregisteredOpcode(t *testing.T) {
	old := node.NewGraph(opcode.Default, "test")
	defer old.Arena().Free()

	block := old.Anchors.StartBlock
	a := old.NewConst(block, tarval.NewInt(mode.Is, 1))
	b := old.NewConst(block, tarval.NewInt(mode.Is, 1))
	ret := old.NewReturn(block, old.Anchors.InitialMemory, []node.ID{old.NewMul(block, mode.Is, a, b)})
	old.Node(old.Anchors.EndBlock).AddIn(ret)

	d := NewDriver(old)
	d.Register("Const", Default)
	d.Register("Return", Default)
	// "Mul" deliberately left unregistered.

	defer func() {
		if recover() == nil {
			t.Fatal("expected Run to panic on an unregistered opcode")
		}
	}()
	Run(d)
}
