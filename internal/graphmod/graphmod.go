// Package graphmod implements the graph-modification primitives spec
// §4.4 names: turn_into_tuple, collect_phiprojs, part_block,
// part_block_edges and move_predecessors. Grounded directly on
// _examples/original_source/ir/ir/irgmod.c, the file these exact
// primitives are named after in libFirm.
package graphmod

import (
	"ssagraph/internal/edges"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

// TurnIntoTuple rewrites n into a Tuple with the given operand array,
// atomically replacing a multi-result producer (spec §4.4).
func TurnIntoTuple(g *node.Graph, n node.ID, ins []node.ID) {
	g.TurnIntoTuple(n, ins)
}

// CollectPhiProjs populates each Block's owned-Phi list so node.Graph's
// PhisOf doesn't need to fall back to a linear scan (spec §4.4). Only the
// Phi lists are built: Projs are not chained to their producers (a Proj's
// link slot holds its projection number).
func CollectPhiProjs(g *node.Graph) {
	lists := make(map[node.ID][]node.ID)
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() != opcode.Phi {
			continue
		}
		lists[n.Block()] = append(lists[n.Block()], id)
	}
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() != opcode.Block {
			continue
		}
		if ba, ok := n.Attr().(*node.BlockAttr); ok {
			ba.PhiList = lists[id]
		}
	}
}

// MovePredecessors rehomes every CFG predecessor of from onto to,
// preserving order, and empties from's predecessor list. Used by
// part_block to give the newly split-off upstream block from's old
// incoming edges.
func MovePredecessors(g *node.Graph, from, to node.ID) {
	fromN := g.Node(from)
	preds := append([]node.ID(nil), fromN.Ins()...)
	g.Node(to).SetIns(preds)
	fromN.SetIns(nil)
}

// PartBlock splits pivot's block at pivot: a new upstream block inherits
// the old block's CFG predecessors, a Jmp connects new->old, every Phi
// owned by the old block migrates to the new block (their operands stay
// put, still bound to whichever predecessor block defines each one), and
// every other node upstream-reachable from pivot within the old block
// moves to the new block too (spec §4.4, matching irgmod.c's part_block:
// set_Block_phis onto the new block, then set_nodes_block for each Phi).
// pivot itself, and anything downstream of it, stays in the old block.
//
// Callers should disable control-flow optimization for the duration of
// this call (flags.Default.Set(flags.ControlFlowOpt, false)) so the local
// optimizer doesn't immediately re-merge the two blocks it just split.
func PartBlock(g *node.Graph, pivot node.ID) (newBlock node.ID) {
	oldBlock := g.Node(pivot).Block()

	newBlock = g.NewBlock(nil)
	MovePredecessors(g, oldBlock, newBlock)
	jmp := g.NewJmp(newBlock)
	g.Node(oldBlock).SetIns([]node.ID{jmp})

	phis := g.PhisOf(oldBlock)
	for _, phi := range phis {
		g.Node(phi).SetBlock(newBlock)
	}
	if ba, ok := g.Node(oldBlock).Attr().(*node.BlockAttr); ok {
		ba.PhiList = nil
	}
	if ba, ok := g.Node(newBlock).Attr().(*node.BlockAttr); ok {
		ba.PhiList = append([]node.ID(nil), phis...)
	}

	seen := map[node.ID]bool{pivot: true}
	var walk func(id node.ID)
	walk = func(id node.ID) {
		n := g.Node(id)
		if n == nil || n.IsDeleted() {
			return
		}
		for _, in := range n.Ins() {
			if in == node.NoID || seen[in] {
				continue
			}
			operand := g.Node(in)
			if operand == nil || operand.IsDeleted() || operand.Op() == opcode.Phi {
				continue
			}
			if operand.Block() != oldBlock {
				continue
			}
			seen[in] = true
			operand.SetBlock(newBlock)
			walk(in)
		}
	}
	walk(pivot)

	return newBlock
}

// PartBlockEdges is the out-edges-backed variant of PartBlock named by
// spec §4.4 alongside part_block; an active index lets it resolve each
// moved node's users directly instead of re-deriving them by scanning the
// whole graph for block membership. Structurally it performs the same
// split as PartBlock and additionally keeps idx coherent afterward.
func PartBlockEdges(g *node.Graph, idx *edges.Index, pivot node.ID) node.ID {
	newBlock := PartBlock(g, pivot)
	if idx.Active() {
		idx.Recompute()
	}
	return newBlock
}
