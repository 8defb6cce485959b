package node

import "ssagraph/internal/opcode"

// Exchange atomically rewrites every user of old to reference new, then
// marks old Deleted (spec §4.1). With the def-use edge index inactive (the
// common case here — internal/edges owns activation) this degrades to the
// "rewrite old into an Id node" form so that skip-Id lookups still see
// through it; callers that keep raw operand ids around and never
// skip-Id will observe old's new Id shape, which is intentional.
func (g *Graph) Exchange(old, new_ ID) {
	if old == new_ {
		panic("node: exchange(a, a)")
	}
	o, n := g.Node(old), g.Node(new_)
	if o == nil || n == nil {
		panic("node: exchange on invalid id")
	}
	if o.g != n.g {
		panic("node: exchange across graphs")
	}
	if g.EdgeState == ValidityConsistent {
		g.rerouteUsers(old, new_)
		o.op = opcode.Deleted
		o.in = nil
	} else {
		// Rewrite old in place into an Id pointing at new; users still
		// indirecting through old see through it via SkipID.
		block := o.block
		if block == NoID {
			block = n.block
		}
		o.op = opcode.Id
		o.in = []ID{new_}
		o.block = block
	}
	g.OutsState = ValidityInconsistent
	g.LoopState = ValidityInconsistent
}

// rerouteUsers walks every node in the graph and replaces old with new_ in
// every operand/dep slot. internal/edges layers a maintained out-edge
// index on top of the graph for O(|out(old)|) consumers (Outs queries,
// invariant I2's consistency check); Exchange itself stays a plain O(n)
// scan to avoid a node<->edges import cycle.
func (g *Graph) rerouteUsers(old, new_ ID) {
	for _, u := range g.nodes {
		if u == nil || u.IsDeleted() {
			continue
		}
		for i, v := range u.in {
			if v == old {
				u.in[i] = new_
			}
		}
		for i, v := range u.deps {
			if v == old {
				u.deps[i] = new_
			}
		}
	}
}

// Kill detaches a node from the graph; its opcode becomes Deleted and its
// operands are cleared. The node's storage is not reclaimed — it remains
// arena-scoped until the whole graph is freed (spec §4.1 Kill).
func (g *Graph) Kill(id ID) {
	n := g.Node(id)
	if n == nil || n.IsDeleted() {
		return
	}
	n.op = opcode.Deleted
	n.in = nil
	n.attr = nil
	g.OutsState = ValidityInconsistent
}

// SkipID follows a chain of Id nodes to the first node that is not an Id.
// It does not look through Proj nodes.
func (g *Graph) SkipID(id ID) ID {
	for {
		n := g.Node(id)
		if n.op != opcode.Id {
			return id
		}
		id = n.in[0]
	}
}
