// Package ssarecon implements incremental SSA reconstruction: repairing
// def-use edges after a value has been duplicated so that every user sees
// whichever of the two definitions dominates its use point, inserting
// Phis where the dominance relation is ambiguous (spec §4.5).
//
// Grounded on spec §4.5's algorithm description directly; the
// visited-epoch + "second definition" recursive search shape mirrors the
// push/pop dominator-frontier walk in _examples/other_examples's
// e081db07_ssa.go SSA lifter, adapted from that file's pointer-chasing
// stack discipline to this package's block.link()/visited-epoch
// primitives (both already exposed by internal/node for exactly this use).
package ssarecon

import (
	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

// ConstructSSA rewires every user of origVal (defined entering origBlock)
// so that it sees whichever of (origBlock, origVal) or (newBlock, newVal)
// dominates its use point, inserting Phis as needed. newVal is understood
// to be a second definition of the same logical value, reached only along
// paths that pass through newBlock (e.g. jump-threading's duplicated
// path).
func ConstructSSA(g *node.Graph, origBlock, origVal, newBlock, newVal node.ID) {
	epoch := g.IncVisited()
	r := &reconstructor{g: g, epoch: epoch, newBlock: newBlock, newVal: newVal}

	ob := g.Node(origBlock)
	ob.SetLink(origVal)
	ob.MarkVisited()

	for _, u := range users(g, origVal) {
		if u == newVal {
			continue
		}
		un := g.Node(u)
		for i, in := range un.Ins() {
			if in != origVal {
				continue
			}
			useBlock := un.Block()
			if un.Op() == opcode.Phi {
				predBlock := g.Node(un.Block()).In(i)
				if predBlock == node.NoID {
					continue
				}
				useBlock = g.Node(predBlock).Block()
			}
			found := r.search(useBlock)
			if found != un.ID() {
				un.SetIn(i, found)
			}
		}
	}
}

type reconstructor struct {
	g        *node.Graph
	epoch    uint32
	newBlock node.ID
	newVal   node.ID
}

// search finds the value of the reconstructed variable as seen from
// block, memoizing the result in block's link slot (spec §4.5's "B.link").
func (r *reconstructor) search(block node.ID) node.ID {
	b := r.g.Node(block)
	if b.WasVisited() {
		return b.Link()
	}
	b.MarkVisited()

	if block == r.newBlock {
		b.SetLink(r.newVal)
		return r.newVal
	}

	preds := b.Ins()
	live := livePreds(r.g, preds)
	if len(live) == 0 {
		b.SetLink(r.newVal)
		return r.newVal
	}
	if len(live) == 1 {
		v := r.search(r.g.Node(live[0]).Block())
		b.SetLink(v)
		return v
	}

	phi := r.g.NewPhi(block, r.valueMode(), make([]node.ID, len(preds)))
	b.SetLink(phi)
	phiNode := r.g.Node(phi)
	for i, pred := range preds {
		pn := r.g.Node(pred)
		if pn.Op() == opcode.Bad {
			phiNode.SetIn(i, pred)
			continue
		}
		phiNode.SetIn(i, r.search(pn.Block()))
	}
	return phi
}

func (r *reconstructor) valueMode() mode.Mode {
	return r.g.Node(r.newVal).Mode()
}

func livePreds(g *node.Graph, preds []node.ID) []node.ID {
	var out []node.ID
	for _, p := range preds {
		if g.Node(p).Op() != opcode.Bad {
			out = append(out, p)
		}
	}
	return out
}

func users(g *node.Graph, id node.ID) []node.ID {
	var out []node.ID
	seen := map[node.ID]bool{}
	for cid := node.ID(1); int(cid) <= g.NumNodes(); cid++ {
		n := g.Node(cid)
		if n == nil || n.IsDeleted() || seen[cid] {
			continue
		}
		for _, in := range n.Ins() {
			if in == id {
				out = append(out, cid)
				seen[cid] = true
				break
			}
		}
	}
	return out
}
