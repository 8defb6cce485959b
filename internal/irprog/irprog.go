// Package irprog implements the IR-Program container (spec §2): the
// process-wide registry of graphs, types, modes, opcodes, and the global
// state flags that track how far those graphs' callee/class-cast
// information has been computed.
//
// Grounded on _examples/original_source/ir/ir/irprog.c (file name match):
// the same "one process-wide struct holding every graph plus a handful
// of state enums" shape, generalized from its C global-singleton form
// into an explicit Go value callers construct and pass around.
package irprog

import (
	"fmt"

	"github.com/google/uuid"

	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

// Program is the process-wide container. Modes are already process-scoped
// singletons (internal/mode); opcodes live in the shared *opcode.Registry
// every graph already carries. Types are out of this spec's scope beyond
// the declared-type name an entity is associated with (no layout, no
// field list — that's "memory-layout decisions", an explicit non-goal),
// so Types is a plain name registry rather than a full type system.
type Program struct {
	UUID uuid.UUID

	Opcodes *opcode.Registry
	Types   map[string]string // entity name -> declared type name

	graphs   []*node.Graph
	byEntity map[string]int // entity name -> index into graphs

	PhaseState      node.Validity
	OutsState       node.Validity
	CalleeInfoState node.Validity
	ClassCastState  node.Validity
}

// New creates an empty program sharing reg across every graph it holds.
func New(reg *opcode.Registry) *Program {
	return &Program{
		UUID:     uuid.New(),
		Opcodes:  reg,
		Types:    make(map[string]string),
		byEntity: make(map[string]int),
	}
}

// GraphID is a stable program-wide index of one of the program's graphs,
// the identifier internal/gc's call graph and CallAttr.Callee entries
// address graphs by (cross-graph references can't use node.ID, which is
// only ever meaningful within the one graph that issued it).
type GraphID int

// Add registers g under its entity name and returns its GraphID. Adding a
// second graph for the same entity name is a caller error (every entity
// implements at most one graph at a time, spec §3's "entity it
// implements").
func (p *Program) Add(g *node.Graph) GraphID {
	if _, exists := p.byEntity[g.Entity]; exists {
		panic(fmt.Sprintf("irprog: entity %q already has a graph", g.Entity))
	}
	id := GraphID(len(p.graphs))
	p.graphs = append(p.graphs, g)
	p.byEntity[g.Entity] = int(id)
	p.OutsState = node.ValidityInconsistent
	p.CalleeInfoState = node.ValidityInconsistent
	return id
}

// Graph resolves id to its graph, or nil if id was removed by GC.
func (p *Program) Graph(id GraphID) *node.Graph {
	if int(id) < 0 || int(id) >= len(p.graphs) {
		return nil
	}
	return p.graphs[id]
}

// ByEntity resolves an entity name to its graph, or nil if none exists
// (e.g. an external/declared-only entity, or one already GC'd).
func (p *Program) ByEntity(name string) *node.Graph {
	id, ok := p.byEntity[name]
	if !ok {
		return nil
	}
	return p.graphs[id]
}

// Graphs returns every live graph, in GraphID order with freed slots
// omitted. Index into this slice does NOT equal GraphID once a GC has
// run — use ByEntity or a GraphID obtained before the GC for addressing.
func (p *Program) Graphs() []*node.Graph {
	out := make([]*node.Graph, 0, len(p.graphs))
	for _, g := range p.graphs {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}

// NumSlots returns the number of GraphID slots ever issued, including
// freed ones — the upper bound internal/gc needs to size its mark set.
func (p *Program) NumSlots() int { return len(p.graphs) }

// Remove frees the graph at id and clears its slot. Exported for
// internal/gc to call once it has established id is unreachable from the
// roots; callers elsewhere should not normally need it.
func (p *Program) Remove(id GraphID) {
	g := p.graphs[id]
	if g == nil {
		return
	}
	delete(p.byEntity, g.Entity)
	g.Arena().Free()
	p.graphs[id] = nil
}
