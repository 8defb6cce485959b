package irprog

import (
	"testing"

	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

func TestAddAndResolve(t *testing.T) {
	p := New(opcode.Default)
	g := node.NewGraph(opcode.Default, "main")
	defer g.Arena().Free()

	id := p.Add(g)
	if p.Graph(id) != g {
		t.Fatal("Graph(id) should resolve back to g")
	}
	if p.ByEntity("main") != g {
		t.Fatal("ByEntity should resolve back to g")
	}
	if len(p.Graphs()) != 1 {
		t.Fatalf("expected 1 live graph, got %d", len(p.Graphs()))
	}
}

func TestAddDuplicateEntityPanics(t *testing.T) {
	p := New(opcode.Default)
	g1 := node.NewGraph(opcode.Default, "dup")
	defer g1.Arena().Free()
	g2 := node.NewGraph(opcode.Default, "dup")
	defer g2.Arena().Free()

	p.Add(g1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate entity")
		}
	}()
	p.Add(g2)
}

func TestRemoveClearsSlotAndFreesArena(t *testing.T) {
	p := New(opcode.Default)
	g := node.NewGraph(opcode.Default, "dead")
	id := p.Add(g)

	p.Remove(id)

	if p.Graph(id) != nil {
		t.Fatal("expected Graph(id) to be nil after Remove")
	}
	if p.ByEntity("dead") != nil {
		t.Fatal("expected ByEntity to be nil after Remove")
	}
	if len(p.Graphs()) != 0 {
		t.Fatalf("expected 0 live graphs, got %d", len(p.Graphs()))
	}
}
