package analysis

import (
	"golang.org/x/tools/container/intsets"

	"ssagraph/internal/node"
)

// Loop is one natural loop: its header block and the set of blocks in its
// body (including the header), found via back edges (a CFG edge b->h
// where h dominates b).
type Loop struct {
	Header node.ID
	Body    *intsets.Sparse
}

// LoopInfo is the graph's computed loop forest (flat here — nested loops
// are represented by their bodies' set inclusion rather than an explicit
// tree, which is sufficient for spec's jump-threading and transform-driver
// consumers).
type LoopInfo struct {
	Loops []*Loop
}

// ComputeLoopInfo finds every natural loop in g using its dominator tree.
func ComputeLoopInfo(g *node.Graph, doms *Doms) *LoopInfo {
	li := &LoopInfo{}
	blocks := reachableBlocks(g)
	for _, b := range blocks {
		for _, pred := range cfgPreds(g, b) {
			predBlock := g.Node(pred).Block()
			if doms.Dominates(b, predBlock) {
				li.Loops = append(li.Loops, natural(g, b, predBlock))
			}
		}
	}
	g.LoopState = node.ValidityConsistent
	return li
}

// natural builds the natural loop for back edge latch->header by walking
// predecessors backward from latch until header is reached.
func natural(g *node.Graph, header, latch node.ID) *Loop {
	body := &intsets.Sparse{}
	body.Insert(int(header))
	stack := []node.ID{latch}
	body.Insert(int(latch))
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if b == header {
			continue
		}
		for _, pred := range cfgPreds(g, b) {
			predBlock := g.Node(pred).Block()
			if !body.Has(int(predBlock)) {
				body.Insert(int(predBlock))
				stack = append(stack, predBlock)
			}
		}
	}
	return &Loop{Header: header, Body: body}
}

// InLoop reports whether block is a member of any discovered loop's body.
func (li *LoopInfo) InLoop(block node.ID) bool {
	for _, l := range li.Loops {
		if l.Body.Has(int(block)) {
			return true
		}
	}
	return false
}
