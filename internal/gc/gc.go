// Package gc implements unreachable-method GC (spec §4.8): removing every
// graph in a Program that is not reachable from a set of root entities
// via Call.callee edges.
//
// Grounded on _examples/original_source/ir/opt/ircgopt.c, the
// call-graph-based optimization pass that *produces* the callee edges
// this package consumes (its own points-to/class-hierarchy analysis is
// out of this spec's scope — CallAttr.Callee is assumed already
// populated); the mark-sweep-over-a-frontier shape is this package's own
// addition, parallelized across graphs with golang.org/x/sync/errgroup
// since marking graph i is independent of marking graph j.
package gc

import (
	"golang.org/x/sync/errgroup"

	"ssagraph/internal/irprog"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

// Run marks every graph reachable from roots via Call.callee edges and
// removes (frees the arena of, unlinks from p) every graph that isn't,
// returning the number of graphs removed. As a shortcut, if there are at
// least as many roots as live graphs, every graph must be a root or
// unreachable-but-already-counted, so Run does nothing.
func Run(p *irprog.Program, roots []irprog.GraphID) int {
	live := p.Graphs()
	if len(roots) >= len(live) {
		return 0
	}

	marked := make([]bool, p.NumSlots())
	var frontier []irprog.GraphID
	for _, r := range roots {
		if int(r) < 0 || int(r) >= len(marked) || marked[r] {
			continue
		}
		marked[r] = true
		frontier = append(frontier, r)
	}

	for len(frontier) > 0 {
		frontier = markFrontier(p, frontier, marked)
	}

	removed := 0
	for id := 0; id < p.NumSlots(); id++ {
		gid := irprog.GraphID(id)
		if marked[id] {
			continue
		}
		if p.Graph(gid) == nil {
			continue
		}
		p.Remove(gid)
		removed++
	}
	return removed
}

// markFrontier scans every graph in frontier for Call.callee edges
// concurrently, then sequentially marks and returns the newly discovered,
// previously-unmarked graphs (the marked slice itself is only ever
// written from this single-goroutine merge step, so it needs no locking).
func markFrontier(p *irprog.Program, frontier []irprog.GraphID, marked []bool) []irprog.GraphID {
	discovered := make([][]irprog.GraphID, len(frontier))
	var eg errgroup.Group
	for i, id := range frontier {
		i, id := i, id
		eg.Go(func() error {
			if g := p.Graph(id); g != nil {
				discovered[i] = calleesOf(g)
			}
			return nil
		})
	}
	_ = eg.Wait()

	var next []irprog.GraphID
	for _, callees := range discovered {
		for _, c := range callees {
			if int(c) < 0 || int(c) >= len(marked) || marked[c] {
				continue
			}
			marked[c] = true
			next = append(next, c)
		}
	}
	return next
}

// calleesOf walks every live Call node in g and returns the GraphIDs its
// CallAttr.Callee names (spec: "populated earlier by
// class-hierarchy/points-to analysis").
func calleesOf(g *node.Graph) []irprog.GraphID {
	var out []irprog.GraphID
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() != opcode.Call {
			continue
		}
		ca, ok := n.Attr().(node.CallAttr)
		if !ok {
			continue
		}
		for _, callee := range ca.Callee {
			out = append(out, irprog.GraphID(callee))
		}
	}
	return out
}
