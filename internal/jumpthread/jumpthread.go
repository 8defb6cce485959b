// Package jumpthread implements constant-driven jump threading (spec
// §4.6): resolving a Cond's selector along a CFG path when it can be
// shown to evaluate to a constant, directly or through a Phi fan or a
// Confirm's bound, and specializing that path so the branch collapses.
//
// Grounded on _examples/original_source/ir/opt/jumpthreading.c (the state
// machine per candidate block) and irconsconfirm.h (evaluating a Cmp
// against a Confirm chain).
package jumpthread

import (
	"fmt"

	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/report"
	"ssagraph/internal/ssarecon"
	"ssagraph/internal/tarval"
)

// Thread runs the jump-threading state machine to fixpoint over every
// block of g and returns a report of the edges it resolved. It requires
// the graph's edges to be logically active in the sense that repeated
// O(n) scans for control successors are acceptable; no maintained
// edges.Index is required by this implementation (spec allows either).
func Thread(g *node.Graph) *report.Report {
	rep := report.New("jump-threading")
	changed := true
	for changed {
		changed = false
		for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
			b := g.Node(id)
			if b == nil || b.IsDeleted() || b.Op() != opcode.Block || id == g.Anchors.StartBlock {
				continue
			}
			if threadBlock(g, id, rep) {
				changed = true
			}
		}
	}
	return rep
}

// threadBlock runs the state machine for one candidate block B.
func threadBlock(g *node.Graph, b node.ID, rep *report.Report) bool {
	block := g.Node(b)
	if block.Arity() != 1 {
		return false
	}
	incoming := block.In(0)
	incomingNode := g.Node(incoming)
	if incomingNode.Op() != opcode.Proj {
		return false
	}
	cond := g.Node(incomingNode.In(0))
	if cond.Op() != opcode.Cond {
		return false
	}
	selector := cond.In(0)
	if g.Node(selector).Mode() != mode.B {
		return false
	}

	if val, ok := evalSelector(g, selector); ok {
		return resolveDirect(g, incoming, val, rep)
	}

	if threadThroughPhi(g, cond, selector, rep) {
		return true
	}
	return threadThroughCmpPhi(g, cond, selector, rep)
}

// resolveDirect implements step 4: the selector already resolves, so the
// incoming projection is replaced by a plain Jmp (branch taken) or Bad
// (branch dead).
func resolveDirect(g *node.Graph, incomingProj node.ID, val tarval.Tarval, rep *report.Report) bool {
	projNode := g.Node(incomingProj)
	truth := g.ProjNum(incomingProj) != 0
	block := projNode.Block()
	if val.Bool() == truth {
		jmp := g.NewJmp(block)
		g.Exchange(incomingProj, jmp)
		rep.Add(report.Info, fmt.Sprintf("%s: resolved branch, replaced Proj %v with Jmp", g.Entity, incomingProj))
	} else {
		g.Exchange(incomingProj, g.Anchors.Bad)
		rep.Add(report.Info, fmt.Sprintf("%s: resolved branch, replaced Proj %v with Bad", g.Entity, incomingProj))
	}
	// Without active edges Exchange leaves the Proj behind as an Id, so
	// point the successor block at the replacement directly.
	if target := projTarget(g, incomingProj); target != node.NoID {
		tb := g.Node(target)
		for i, in := range tb.Ins() {
			if in == incomingProj {
				tb.SetIn(i, g.SkipID(incomingProj))
			}
		}
	}
	return true
}

// threadThroughPhi implements step 5 for the case where the selector is
// itself a Phi whose individual operands resolve to constants (directly,
// or via a Confirm bound under relation Equal). For each such predecessor
// j, a new direct CFG edge is added from cfg_pred_block(j) into whichever
// of the Cond's two successors that operand would have selected, and the
// old edge into condBlock is killed.
//
// The sibling case — the selector is a Proj of a Cmp comparing a Phi
// against a constant, rather than being a Phi directly — is
// threadThroughCmpPhi below.
func threadThroughPhi(g *node.Graph, cond, selector node.ID, rep *report.Report) bool {
	selNode := g.Node(selector)
	if selNode.Op() != opcode.Phi {
		return false
	}
	condBlock := g.Node(cond).Block()
	if g.Node(condBlock).ID() != selNode.Block() {
		return false
	}
	changed := false
	for i, operand := range selNode.Ins() {
		if operand == node.NoID || isBadID(g, operand) {
			continue
		}
		val, ok := constOrConfirmValue(g, operand)
		if !ok {
			continue
		}
		cfgPred := g.Node(condBlock).In(i)
		if cfgPred == node.NoID || isBadID(g, cfgPred) {
			continue
		}
		predBlock := g.Node(cfgPred).Block()

		for _, proj := range condProjs(g, cond) {
			truth := g.ProjNum(proj) != 0
			if val.Bool() != truth {
				continue
			}
			succBlock := projTarget(g, proj)
			if succBlock == node.NoID {
				continue
			}
			newJmp := g.NewJmp(predBlock)
			g.Node(succBlock).AddIn(newJmp)
			g.Node(condBlock).SetIn(i, g.Anchors.Bad)
			selNode.SetIn(i, g.Anchors.Bad)
			rep.Add(report.Info, fmt.Sprintf("%s: threaded predecessor %d of block %v directly into %v", g.Entity, i, condBlock, succBlock))
			changed = true
		}
	}
	return changed
}

// threadThroughCmpPhi implements step 5's second selector shape (spec §8
// scenario 3's "Cond selects on Phi(0, 1) == 0"): the selector is not a Phi
// itself but a Proj of a Cmp, one of whose operands is a Phi living in the
// Cond's own block and the other a constant. For each Phi predecessor that
// resolves to a Const or equal-bound Confirm, the Cmp (and the Proj atop
// it) is duplicated into that predecessor's block with the Phi replaced by
// its resolved predecessor value, internal/ssarecon.ConstructSSA repairs
// any other user of the original Proj to see the right definition, and the
// relation is evaluated against the duplicated operands to thread the edge
// exactly as threadThroughPhi does. Grounded on
// _examples/original_source/ir/opt/jumpthreading.c's find_candidate /
// find_const_or_confirm (locating the Phi feeding the Cmp and proving each
// predecessor constant) and copy_and_fix / construct_ssa (duplicating the
// Cmp into the predecessor and repairing SSA).
func threadThroughCmpPhi(g *node.Graph, cond, selector node.ID, rep *report.Report) bool {
	selNode := g.Node(selector)
	if selNode.Op() != opcode.Proj {
		return false
	}
	cmp := g.Node(selNode.In(0))
	if cmp.Op() != opcode.Cmp {
		return false
	}
	condBlock := g.Node(cond).Block()

	left, right := cmp.In(0), cmp.In(1)
	phiID, constSide, swapped := left, right, false
	if g.Node(phiID).Op() != opcode.Phi {
		phiID, constSide, swapped = right, left, true
	}
	phiNode := g.Node(phiID)
	if phiNode.Op() != opcode.Phi || phiNode.Block() != condBlock {
		return false
	}
	constVal, ok := constOrConfirmValue(g, constSide)
	if !ok {
		return false
	}
	want := tarval.Relation(g.ProjNum(selector))

	changed := false
	for i, phiPred := range phiNode.Ins() {
		if phiPred == node.NoID || isBadID(g, phiPred) {
			continue
		}
		val, ok := constOrConfirmValue(g, phiPred)
		if !ok {
			continue
		}
		cfgPred := g.Node(condBlock).In(i)
		if cfgPred == node.NoID || isBadID(g, cfgPred) {
			continue
		}
		predBlock := g.Node(cfgPred).Block()

		var rel tarval.Relation
		var newCmp node.ID
		if swapped {
			rel = tarval.Cmp(constVal, val)
			newCmp = g.NewCmp(predBlock, constSide, phiPred)
		} else {
			rel = tarval.Cmp(val, constVal)
			newCmp = g.NewCmp(predBlock, phiPred, constSide)
		}
		newProj := g.NewProj(newCmp, mode.B, int(want))
		ssarecon.ConstructSSA(g, condBlock, selector, predBlock, newProj)
		truth := want.Has(rel)

		for _, proj := range condProjs(g, cond) {
			branchTruth := g.ProjNum(proj) != 0
			if truth != branchTruth {
				continue
			}
			succBlock := projTarget(g, proj)
			if succBlock == node.NoID {
				continue
			}
			newJmp := g.NewJmp(predBlock)
			g.Node(succBlock).AddIn(newJmp)
			g.Node(condBlock).SetIn(i, g.Anchors.Bad)
			phiNode.SetIn(i, g.Anchors.Bad)
			rep.Add(report.Info, fmt.Sprintf("%s: threaded predecessor %d of block %v directly into %v via duplicated Cmp", g.Entity, i, condBlock, succBlock))
			changed = true
		}
	}
	return changed
}

func isBadID(g *node.Graph, id node.ID) bool { return g.Node(id).Op() == opcode.Bad }

// evalSelector tries to read a compile-time boolean out of sel (spec step
// 3): a direct Const, or a Proj of a Cmp whose two sides both resolve to
// constants (possibly via a Confirm's equal-bound).
func evalSelector(g *node.Graph, sel node.ID) (tarval.Tarval, bool) {
	n := g.Node(sel)
	switch n.Op() {
	case opcode.Const:
		return n.Attr().(node.ConstAttr).Value, true
	case opcode.Proj:
		pred := g.Node(n.In(0))
		if pred.Op() != opcode.Cmp {
			return tarval.Bad, false
		}
		lv, lok := constOrConfirmValue(g, pred.In(0))
		rv, rok := constOrConfirmValue(g, pred.In(1))
		if !lok || !rok {
			return tarval.Bad, false
		}
		rel := tarval.Cmp(lv, rv)
		want := tarval.Relation(g.ProjNum(sel))
		return tarval.NewBool(want.Has(rel)), true
	default:
		return tarval.Bad, false
	}
}

// constOrConfirmValue implements computed_value_Cmp's Confirm-chain
// lookup (spec §4.6 "Evaluating Cmp with Confirm"): a Const resolves
// directly; a Confirm(value, bound) resolves only when its relation is
// exactly Equal against a Const bound, since that's the one relation that
// pins the value to a single point rather than a half-open range.
func constOrConfirmValue(g *node.Graph, id node.ID) (tarval.Tarval, bool) {
	n := g.Node(id)
	switch n.Op() {
	case opcode.Const:
		return n.Attr().(node.ConstAttr).Value, true
	case opcode.Confirm:
		ca, ok := n.Attr().(node.ConfirmAttr)
		if !ok || ca.Relation != tarval.RelEqual {
			return tarval.Bad, false
		}
		bound := g.Node(n.In(1))
		if bound.Op() != opcode.Const {
			return tarval.Bad, false
		}
		return bound.Attr().(node.ConstAttr).Value, true
	default:
		return tarval.Bad, false
	}
}

// condProjs returns the Proj nodes projecting directly out of cond.
func condProjs(g *node.Graph, cond node.ID) []node.ID {
	var out []node.ID
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() != opcode.Proj {
			continue
		}
		if n.In(0) == cond {
			out = append(out, id)
		}
	}
	return out
}

// projTarget finds the Block whose predecessor list contains proj.
func projTarget(g *node.Graph, proj node.ID) node.ID {
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() != opcode.Block {
			continue
		}
		for _, pred := range n.Ins() {
			if pred == proj {
				return id
			}
		}
	}
	return node.NoID
}
