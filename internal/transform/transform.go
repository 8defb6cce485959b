// Package transform implements the backend front-edge driver spec §4.7
// describes: given an old graph and a per-opcode transform registry,
// produce a new graph whose nodes are the registered replacements of the
// old ones, with every anchor, block and operand link retargeted.
//
// Grounded on spec §4.7 directly; no original_source file matches
// one-to-one (libFirm's equivalent is spread across be_transform.c and
// each backend's bemain.c), so this generalizes the
// exchange/memoize-via-link idiom internal/node already establishes
// (irgmod.c) plus the anchor-walk shape in ircgopt.c.
package transform

import (
	"fmt"

	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

// Func builds new's replacement for old's node identified by oldID. It
// may call d.Transform to resolve operands/blocks recursively; cycles
// (loop-header Phis, back-edges) are safe to recurse through because the
// driver memoizes a placeholder before descending into operands.
type Func func(d *Driver, oldID node.ID) node.ID

// Driver carries the old/new graph pair and registry through one
// transform run; transform functions receive it as their first argument
// so they can recurse into operands via Transform.
type Driver struct {
	Old *node.Graph
	New *node.Graph
	reg map[string]Func
}

// NewDriver allocates the new graph (with its own fresh anchors — spec
// step 6, "allocate a fresh arena for the new graph") and an empty
// transform registry for old.
func NewDriver(old *node.Graph) *Driver {
	// Start a fresh visited epoch on old so Transform's memoization only
	// treats nodes marked during this run as already transformed.
	old.IncVisited()
	newG := node.NewGraph(old.Registry(), old.Entity)
	return &Driver{Old: old, New: newG, reg: make(map[string]Func)}
}

// Register installs fn as the transformer for the opcode named
// opcodeName. Block and End never consult the registry — they are
// driver built-ins (spec step 5) — so registering them is a no-op.
func (d *Driver) Register(opcodeName string, fn Func) { d.reg[opcodeName] = fn }

// Transform resolves old's replacement in the new graph, building and
// memoizing it on first visit (spec step 3: "memoize new←old via the
// link slot, mark visited") and returning the memoized id on any later
// revisit, including one reached while still building old's own
// replacement (a cycle through a Phi backedge or a loop header block).
func (d *Driver) Transform(old node.ID) node.ID {
	if old == node.NoID {
		return node.NoID
	}
	on := d.Old.Node(old)
	if on.WasVisited() {
		return on.Link()
	}
	on.MarkVisited()

	var newID node.ID
	switch on.Op() {
	case opcode.Block:
		newID = transformBlock(d, old)
	case opcode.End:
		newID = transformEnd(d, old)
	default:
		fn, ok := d.reg[on.Op().String()]
		if !ok {
			panic(fmt.Sprintf("transform: no transformer registered for opcode %s", on.Op()))
		}
		newID = fn(d, old)
	}
	on.SetLink(newID)
	return newID
}

// Placeholder creates old's new-graph replacement with n operand slots
// initially pointing at the new graph's Bad anchor, and memoizes it
// immediately — before the caller recurses into any operand — so a
// cyclic operand graph resolves to this same id instead of re-entering
// Transform. The caller fixes the real block/ins afterward with Patch.
func (d *Driver) Placeholder(old node.ID, n int) node.ID {
	on := d.Old.Node(old)
	ins := make([]node.ID, n)
	for i := range ins {
		ins[i] = d.New.Anchors.Bad
	}
	newID := d.New.NewNode(on.Op(), on.Mode(), d.New.Anchors.Bad, ins, nil)
	on.SetLink(newID)
	return newID
}

// Patch fills in a placeholder's real block, operands and attribute once
// they have been resolved (spec step 4, "fix loops").
func (d *Driver) Patch(newID, block node.ID, ins []node.ID, attr node.Attr) {
	n := d.New.Node(newID)
	n.SetBlock(block)
	n.SetIns(ins)
	if attr != nil {
		n.SetAttr(node.CloneAttr(attr))
	}
}

// Default is the shape-preserving fallback transform: same opcode, mode
// and operand arity as the old node, block and operands resolved
// recursively, attribute deep-copied. Most middle-end opcodes a backend
// doesn't care to specialize go through this; backends register their
// own Func only for the handful of opcodes they lower to
// machine-flavored shapes.
func Default(d *Driver, old node.ID) node.ID {
	on := d.Old.Node(old)
	// A Proj stashes its projection number in the link slot (see
	// node.Graph.NewProj); Placeholder immediately overwrites that same
	// slot with the cycle-breaking memoization id, so the number must be
	// read out before calling it.
	isProj := on.Op() == opcode.Proj
	projNum := on.Link()
	newID := d.Placeholder(old, len(on.Ins()))

	newBlock := node.NoID
	if on.Block() != node.NoID {
		newBlock = d.Transform(on.Block())
	}
	newIns := make([]node.ID, len(on.Ins()))
	for i, in := range on.Ins() {
		newIns[i] = d.Transform(in)
	}
	d.Patch(newID, newBlock, newIns, on.Attr())
	if isProj {
		d.New.Node(newID).SetLink(projNum)
	}
	return newID
}

// transformBlock rebuilds a Block with the same number of CFG
// predecessors, each resolved recursively (spec step 5: "new block uses
// old operand array slot for ins; preds enqueued"). Top blocks (no
// owning block of their own) keep NoID.
func transformBlock(d *Driver, old node.ID) node.ID {
	on := d.Old.Node(old)
	newID := d.Placeholder(old, len(on.Ins()))
	preds := make([]node.ID, len(on.Ins()))
	for i, pred := range on.Ins() {
		preds[i] = d.Transform(pred)
	}
	d.Patch(newID, node.NoID, preds, on.Attr())
	return newID
}

// transformEnd rebuilds End with however many keep-alives the old graph
// had (spec step 5: "End dynamic-arity, duplicate keep-alives
// explicitly") — End's operand array here doubles as its keep-alive
// list, so a shape-preserving operand copy already satisfies this.
func transformEnd(d *Driver, old node.ID) node.ID {
	on := d.Old.Node(old)
	newID := d.Placeholder(old, len(on.Ins()))
	newBlock := d.Transform(on.Block())
	keepAlives := make([]node.ID, len(on.Ins()))
	for i, ka := range on.Ins() {
		keepAlives[i] = d.Transform(ka)
	}
	d.Patch(newID, newBlock, keepAlives, on.Attr())
	return newID
}

// Run seeds the walk from every non-null anchor of old (spec step 1),
// pre-links the structural anchors NewDriver's new graph already built
// fresh copies of (spec step 2: bad, no_mem, start_block, start, frame,
// plus end_block and the tuple-proj anchors off start, which follow the
// same direct-link rule), kills tls if it has no users or transforms it
// otherwise, then transforms End (and through it every keep-alive) and
// every remaining non-deleted Block, invalidating every derived analysis
// on the new graph before returning it (spec step 7).
func Run(d *Driver) *node.Graph {
	old, newG := d.Old, d.New

	link := func(oldID, newID node.ID) {
		on := old.Node(oldID)
		if on.WasVisited() {
			return
		}
		on.MarkVisited()
		on.SetLink(newID)
	}
	link(old.Anchors.Bad, newG.Anchors.Bad)
	link(old.Anchors.NoMem, newG.Anchors.NoMem)
	link(old.Anchors.StartBlock, newG.Anchors.StartBlock)
	link(old.Anchors.Start, newG.Anchors.Start)
	link(old.Anchors.Frame, newG.Anchors.Frame)
	link(old.Anchors.EndBlock, newG.Anchors.EndBlock)
	link(old.Anchors.InitialExec, newG.Anchors.InitialExec)
	link(old.Anchors.InitialMemory, newG.Anchors.InitialMemory)
	link(old.Anchors.Args, newG.Anchors.Args)

	if old.Anchors.TLS != node.NoID {
		if usersOf(old, old.Anchors.TLS) == 0 {
			old.Kill(old.Anchors.TLS)
		} else {
			d.Transform(old.Anchors.TLS)
		}
	}

	d.Transform(old.Anchors.End)

	// EndBlock's identity is pre-linked above (NewDriver's fresh graph
	// already has the right anchor slot), but its real predecessors
	// (Return/Raise control edges) are program content, not structure,
	// so they still need transforming and attaching to that same slot.
	oldEndPreds := old.Node(old.Anchors.EndBlock).Ins()
	newEndPreds := make([]node.ID, len(oldEndPreds))
	for i, p := range oldEndPreds {
		newEndPreds[i] = d.Transform(p)
	}
	newG.Node(newG.Anchors.EndBlock).SetIns(newEndPreds)

	for id := node.ID(1); int(id) <= old.NumNodes(); id++ {
		n := old.Node(id)
		if n == nil || n.IsDeleted() || n.Op() != opcode.Block {
			continue
		}
		d.Transform(id)
	}

	newG.OutsState = node.ValidityInconsistent
	newG.DomState = node.ValidityInconsistent
	newG.LoopState = node.ValidityInconsistent
	newG.EdgeState = node.ValidityInconsistent
	return newG
}

func usersOf(g *node.Graph, id node.ID) int {
	count := 0
	for cid := node.ID(1); int(cid) <= g.NumNodes(); cid++ {
		n := g.Node(cid)
		if n == nil || n.IsDeleted() {
			continue
		}
		for _, in := range n.Ins() {
			if in == id {
				count++
			}
		}
	}
	return count
}
