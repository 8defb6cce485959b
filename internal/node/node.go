// Package node implements the IR kernel: immutable-shape graph objects,
// fixed- and dynamic-arity nodes, per-node attribute blobs, per-graph
// anchors, visited counters and the exchange/kill lifecycle (spec §3, §4.1).
//
// Its structural shape (dense node numbering, operand slices, a Fprint-style
// walker) is grounded on the reference SSA representations in
// _examples/other_examples (aclements/go-misc's obj/internal/ssa.Value and
// tmc/go.tools's ssa/lift.go), generalized from a single-function assembly
// SSA form to the full sea-of-nodes graph spec.md describes.
package node

import (
	"fmt"

	"ssagraph/internal/mode"
	"ssagraph/internal/opcode"
)

// ID is a stable, dense node identity within one Graph. The zero value is
// never a valid node id (graphs number nodes starting at 1); NoID (-1) is
// used as an explicit "no node" sentinel.
type ID int32

const NoID ID = -1

// Node is a single operation in the sea-of-nodes graph: an opcode, a mode,
// an owning block, an operand array, and opcode-specific attributes.
type Node struct {
	id    ID
	op    *opcode.Opcode
	mode  mode.Mode
	block ID // NoID only for Block nodes themselves and the graph's Anchor

	// in holds operands. Slot layout matches spec §3: for non-Block nodes
	// conceptually "slot -1" is the block, tracked out-of-band in `block`
	// rather than in this slice, which only holds true dataflow/CF
	// operands in order.
	in []ID

	deps []ID // order-only dependency edges, not dataflow

	visited uint32 // compared against the owning graph's epoch
	link    ID     // scratch slot used by walkers and SSA reconstruction

	attr Attr // opcode-specific attribute blob

	g *Graph
}

func (n *Node) ID() ID              { return n.id }
func (n *Node) Op() *opcode.Opcode  { return n.op }
func (n *Node) Mode() mode.Mode     { return n.mode }
func (n *Node) Block() ID           { return n.block }
func (n *Node) Graph() *Graph       { return n.g }
func (n *Node) Attr() Attr          { return n.attr }
func (n *Node) SetAttr(a Attr)      { n.attr = a }
func (n *Node) Arity() int          { return len(n.in) }
func (n *Node) In(i int) ID         { return n.in[i] }
func (n *Node) Ins() []ID           { return n.in }
func (n *Node) Link() ID            { return n.link }
func (n *Node) SetLink(id ID)       { n.link = id }
func (n *Node) Visited() uint32     { return n.visited }
func (n *Node) Deps() []ID          { return n.deps }

func (n *Node) IsDeleted() bool { return n.op == opcode.Deleted }

func (n *Node) String() string {
	return fmt.Sprintf("%s%d", n.op.Name, n.id)
}

// MarkVisited stamps n with the graph's current epoch.
func (n *Node) MarkVisited() { n.visited = n.g.visited }

// WasVisited reports whether n carries the graph's current epoch.
func (n *Node) WasVisited() bool { return n.visited == n.g.visited }

// SetIn overwrites operand slot i. Any mutation primitive in graphmod that
// needs edge-awareness wraps this rather than writing n.in directly.
func (n *Node) SetIn(i int, v ID) {
	if n.IsDeleted() {
		panic(fmt.Sprintf("node: SetIn on deleted node %v", n))
	}
	n.in[i] = v
}

// SetBlock reassigns n's owning block (used by part_block's re-homing).
func (n *Node) SetBlock(b ID) { n.block = b }

// AddIn appends an operand, valid only for dynamic/variable-arity opcodes
// (Block, Phi, Return, Sync, End, ...).
func (n *Node) AddIn(v ID) {
	if n.IsDeleted() {
		panic(fmt.Sprintf("node: AddIn on deleted node %v", n))
	}
	n.in = append(n.in, v)
}

// SetIns replaces the whole operand array, the wholesale counterpart to
// SetIn/AddIn used by part_block when a block's predecessor list is
// rebuilt rather than edited in place.
func (n *Node) SetIns(ins []ID) {
	if n.IsDeleted() {
		panic(fmt.Sprintf("node: SetIns on deleted node %v", n))
	}
	n.in = append([]ID(nil), ins...)
}

// AddDep adds an order-only dependency, not a dataflow edge.
func (n *Node) AddDep(v ID) { n.deps = append(n.deps, v) }
