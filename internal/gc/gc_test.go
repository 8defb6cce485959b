package gc

import (
	"testing"

	"ssagraph/internal/irprog"
	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

func newCallGraph(entity string, callees ...irprog.GraphID) *node.Graph {
	g := node.NewGraph(opcode.Default, entity)
	ids := make([]node.ID, len(callees))
	for i, c := range callees {
		ids[i] = node.ID(c)
	}
	// NewNode's default Call-attribute init always clears Callee (it's
	// populated by a separate points-to pass, never at construction), so
	// set it directly on the built node instead of via the constructor.
	callID := g.NewNode(opcode.Call, mode.T, g.Anchors.StartBlock, []node.ID{g.Anchors.InitialMemory}, nil)
	g.Node(callID).SetAttr(node.CallAttr{Callee: ids})
	return g
}

func TestRunKeepsReachableGraphs(t *testing.T) {
	p := irprog.New(opcode.Default)

	leaf := node.NewGraph(opcode.Default, "leaf")
	leafID := p.Add(leaf)

	mid := newCallGraph("mid", leafID)
	midID := p.Add(mid)

	root := newCallGraph("root", midID)
	rootID := p.Add(root)

	unreachable := node.NewGraph(opcode.Default, "dead")
	p.Add(unreachable)

	removed := Run(p, []irprog.GraphID{rootID})

	if removed != 1 {
		t.Fatalf("expected 1 graph removed, got %d", removed)
	}
	if p.ByEntity("dead") != nil {
		t.Fatal("unreachable graph should have been collected")
	}
	if p.ByEntity("root") == nil || p.ByEntity("mid") == nil || p.ByEntity("leaf") == nil {
		t.Fatal("root and everything it transitively calls should survive")
	}
}

func TestRunShortcutsWhenRootsCoverAllGraphs(t *testing.T) {
	p := irprog.New(opcode.Default)
	a := node.NewGraph(opcode.Default, "a")
	idA := p.Add(a)
	b := node.NewGraph(opcode.Default, "b")
	idB := p.Add(b)
	defer a.Arena().Free()
	defer b.Arena().Free()

	removed := Run(p, []irprog.GraphID{idA, idB})

	if removed != 0 {
		t.Fatalf("expected shortcut no-op, got %d removed", removed)
	}
}
