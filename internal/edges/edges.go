// Package edges implements the optional def-use index: an activation
// lifecycle on top of the always-on operand arrays, plus NotifyExchanged
// and NotifyKilled for mirroring an exchange or kill (spec §2, §5).
package edges

import "ssagraph/internal/node"

// Index is a def-use (out-edge) index over one graph. It does not observe
// operand mutations: after Node.SetIn, AddIn, SetIns or Graph.Exchange it
// is stale until Recompute, unless the caller mirrors the change through
// NotifyExchanged or NotifyKilled.
type Index struct {
	g      *node.Graph
	active bool
	out    map[node.ID][]user
}

type user struct {
	n   node.ID
	pos int // operand index, or -1 for a dependency-list entry
}

// NewIndex creates an inactive index bound to g.
func NewIndex(g *node.Graph) *Index { return &Index{g: g} }

// Activate builds the out-edge map if not already active (spec B4:
// activating twice is a no-op).
func (idx *Index) Activate() {
	if idx.active {
		return
	}
	idx.out = make(map[node.ID][]user)
	for id := node.ID(1); id <= node.ID(idx.g.NumNodes()); id++ {
		n := idx.g.Node(id)
		if n == nil || n.IsDeleted() {
			continue
		}
		for i, in := range n.Ins() {
			idx.out[in] = append(idx.out[in], user{n: id, pos: i})
		}
		for _, d := range n.Deps() {
			idx.out[d] = append(idx.out[d], user{n: id, pos: -1})
		}
	}
	idx.active = true
	idx.g.EdgeState = node.ValidityConsistent
}

// Deactivate drops the index (spec B4: deactivating twice is a no-op).
func (idx *Index) Deactivate() {
	if !idx.active {
		return
	}
	idx.out = nil
	idx.active = false
	idx.g.EdgeState = node.ValidityNone
}

func (idx *Index) Active() bool { return idx.active }

// Out returns the users of id: each distinct node with an operand or
// dependency entry equal to id, listed once even when it uses id in
// several slots (NOut counts slots). Requires the index be active and
// consistent (spec invariant I2).
func (idx *Index) Out(id node.ID) []node.ID {
	us := idx.out[id]
	seen := make(map[node.ID]bool, len(us))
	var out []node.ID
	for _, u := range us {
		if !seen[u.n] {
			seen[u.n] = true
			out = append(out, u.n)
		}
	}
	return out
}

// NOut returns |out(n)|, used by invariant I2's consistency check.
func (idx *Index) NOut(id node.ID) int { return len(idx.out[id]) }

// NotifyExchanged moves every recorded use of old onto new_, mirroring an
// exchange in the index. node.Graph.Exchange does not call it; it
// reroutes users by scanning the graph and knows nothing of an Index.
func (idx *Index) NotifyExchanged(old, new_ node.ID) {
	if !idx.active {
		return
	}
	us := idx.out[old]
	idx.out[new_] = append(idx.out[new_], us...)
	delete(idx.out, old)
}

// NotifyKilled removes id's own out-edge bookkeeping; id's users still
// reference it structurally (graphmod is responsible for rewriting them
// first, e.g. via turn_into_tuple) but id itself can no longer be a valid
// edge source.
func (idx *Index) NotifyKilled(id node.ID) {
	if !idx.active {
		return
	}
	delete(idx.out, id)
}

// Recompute discards and rebuilds the index, the "one-shot compute_outs
// batch pass used when edges are inactive" SPEC_FULL.md's supplemented
// feature #3 describes. There is no incremental path: Activate builds the
// map once and operand mutations do not update it.
func (idx *Index) Recompute() {
	idx.active = false
	idx.Activate()
}
