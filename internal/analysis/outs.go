package analysis

import (
	"ssagraph/internal/edges"
	"ssagraph/internal/node"
)

// AssureOuts recomputes g's out-edge index if it isn't already
// consistent, the "consumers assure(analysis) by recomputing if not
// consistent" pattern spec §5 requires of every derived analysis.
func AssureOuts(g *node.Graph, idx *edges.Index) {
	if g.OutsState == node.ValidityConsistent {
		return
	}
	idx.Recompute()
	g.OutsState = node.ValidityConsistent
}

// FreeOuts drops the out-edge index and marks it invalid, mirroring
// free_outs: callers who no longer need O(1) Outs() queries release the
// memory rather than carry a maintained index through passes that don't
// need it.
func FreeOuts(g *node.Graph, idx *edges.Index) {
	idx.Deactivate()
	g.OutsState = node.ValidityNone
}
