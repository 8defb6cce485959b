// Package localopt implements the worklist-driven local optimization
// driver spec §4.3 describes: per-opcode optimize_in_place rules
// (algebraic identities, CSE, constant folding) applied to fixpoint
// without changing CFG structure. Grounded on
// _examples/original_source/ir/opt/opt_inline.c's sibling ir/opt/*.c
// transform tables and, for the driver loop shape itself, iropt.c's
// work-list fixpoint (condensed into the same table-driven dispatch style
// internal/verify uses for its per-opcode rule catalogue).
package localopt

import (
	"fmt"

	"ssagraph/internal/flags"
	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/report"
	"ssagraph/internal/tarval"
)

// Do runs do_local_opts on g to fixpoint, applying every enabled
// optimization family in freg. Returns a report of the rewrites applied
// (Info-severity entries; never a violation — this is an optimizer, not
// a checker).
func Do(g *node.Graph, freg *flags.Registry) *report.Report {
	rep := report.New("local-opts")
	vt := newValueTable()

	queued := make(map[node.ID]bool)
	var worklist []node.ID
	push := func(id node.ID) {
		if id == node.NoID || queued[id] {
			return
		}
		n := g.Node(id)
		if n == nil || n.IsDeleted() {
			return
		}
		queued[id] = true
		worklist = append(worklist, id)
	}

	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		push(id)
	}

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		queued[id] = false
		step(g, id, freg, vt, rep, push)
	}

	g.OutsState = node.ValidityInconsistent
	return rep
}

// step applies optimize_in_place once to id; on a successful rewrite it
// exchanges the node and enqueues every user (spec §4.3 steps 2-3).
func step(g *node.Graph, id node.ID, freg *flags.Registry, vt *valueTable, rep *report.Report, push func(node.ID)) {
	n := g.Node(id)
	if n == nil || n.IsDeleted() || n.Op() == opcode.Block {
		return
	}

	if newID, ok := optimizeInPlace(g, id, freg); ok && newID != id {
		for _, u := range users(g, id) {
			push(u)
		}
		rep.Add(report.Info, fmt.Sprintf("%s: %s replaced by %s", g.Entity, n, g.Node(newID)))
		g.Exchange(id, newID)
		push(newID)
		return
	}

	if freg.Enabled(flags.CSE) {
		if key, ok := structuralKey(g, n); ok {
			if existing, found := vt.lookup(g, n, key); found {
				rep.Add(report.Info, fmt.Sprintf("%s: %s CSE'd into %s", g.Entity, n, g.Node(existing)))
				for _, u := range users(g, id) {
					push(u)
				}
				g.Exchange(id, existing)
				push(existing)
				return
			}
			vt.insert(key, id)
		}
	}
}

// users scans the graph for every node referencing id in an operand slot
// (dependency lists are not scanned), the same O(n) approach node.Graph.rerouteUsers uses —
// acceptable here since do_local_opts already performs one full pass over
// every node per iteration regardless.
func users(g *node.Graph, id node.ID) []node.ID {
	var out []node.ID
	for cid := node.ID(1); int(cid) <= g.NumNodes(); cid++ {
		n := g.Node(cid)
		if n == nil || n.IsDeleted() {
			continue
		}
		for _, in := range n.Ins() {
			if in == id {
				out = append(out, cid)
				break
			}
		}
	}
	return out
}

// optimizeInPlace dispatches the per-opcode identity/fold table. Returns
// (replacement, true) when n should be replaced wholesale (the caller
// exchanges n for the returned id); (n.ID(), false) when no rule applied.
func optimizeInPlace(g *node.Graph, id node.ID, freg *flags.Registry) (node.ID, bool) {
	n := g.Node(id)
	switch n.Op() {
	case opcode.Add:
		return foldOrIdentityBinop(g, n, freg, tarval.Add, func(l, r node.ID) (node.ID, bool) {
			if isZeroConst(g, r) {
				return l, true
			}
			if isZeroConst(g, l) {
				return r, true
			}
			return node.NoID, false
		})
	case opcode.Sub:
		l, r := n.In(0), n.In(1)
		if freg.Enabled(flags.AlgebraicSimplify) && l == r {
			return g.NewConst(n.Block(), tarval.NewInt(widenInt(n.Mode()), 0)), true
		}
		return foldOrIdentityBinop(g, n, freg, tarval.Sub, func(l, r node.ID) (node.ID, bool) {
			if isZeroConst(g, r) {
				return l, true
			}
			return node.NoID, false
		})
	case opcode.Mul:
		return foldOrIdentityBinop(g, n, freg, tarval.Mul, func(l, r node.ID) (node.ID, bool) {
			if isOneConst(g, r) {
				return l, true
			}
			if isOneConst(g, l) {
				return r, true
			}
			if isZeroConst(g, l) {
				return l, true
			}
			if isZeroConst(g, r) {
				return r, true
			}
			return node.NoID, false
		})
	case opcode.Minus:
		if !freg.Enabled(flags.ConstantFolding) {
			return id, false
		}
		v := g.Node(n.In(0))
		if v.Op() == opcode.Minus && freg.Enabled(flags.AlgebraicSimplify) {
			return v.In(0), true
		}
		if v.Op() != opcode.Const {
			return id, false
		}
		folded := tarval.Minus(v.Attr().(node.ConstAttr).Value)
		if folded.IsBad() {
			return id, false
		}
		return g.NewConst(n.Block(), folded), true
	case opcode.Not:
		if freg.Enabled(flags.AlgebraicSimplify) {
			if inner := g.Node(n.In(0)); inner.Op() == opcode.Not {
				return inner.In(0), true
			}
		}
		return id, false
	case opcode.Conv:
		if freg.Enabled(flags.AlgebraicSimplify) && g.Node(n.In(0)).Mode() == n.Mode() {
			return n.In(0), true
		}
		return id, false
	case opcode.Phi:
		return optimizePhi(g, n, freg)
	case opcode.Proj:
		return optimizeProj(g, n, freg)
	case opcode.Call:
		if freg.Enabled(flags.LocalCallOpt) {
			return optimizeLocalCall(g, n)
		}
		return id, false
	}
	return id, false
}

func widenInt(m mode.Mode) mode.Mode {
	if m.IsInt() {
		return m
	}
	return mode.Is
}

func isZeroConst(g *node.Graph, id node.ID) bool {
	n := g.Node(id)
	if n.Op() != opcode.Const {
		return false
	}
	v := n.Attr().(node.ConstAttr).Value
	if v.M.IsInt() {
		return v.Int64() == 0
	}
	if v.M.IsFloat() {
		return v.Float() == 0
	}
	return false
}

func isOneConst(g *node.Graph, id node.ID) bool {
	n := g.Node(id)
	if n.Op() != opcode.Const {
		return false
	}
	v := n.Attr().(node.ConstAttr).Value
	if v.M.IsInt() {
		return v.Int64() == 1
	}
	if v.M.IsFloat() {
		return v.Float() == 1
	}
	return false
}

// foldOrIdentityBinop tries constant folding first (if enabled), then the
// caller-supplied algebraic identity.
func foldOrIdentityBinop(g *node.Graph, n *node.Node, freg *flags.Registry, fold func(a, b tarval.Tarval) tarval.Tarval, identity func(l, r node.ID) (node.ID, bool)) (node.ID, bool) {
	l, r := g.Node(n.In(0)), g.Node(n.In(1))
	if freg.Enabled(flags.ConstantFolding) && l.Op() == opcode.Const && r.Op() == opcode.Const {
		folded := fold(l.Attr().(node.ConstAttr).Value, r.Attr().(node.ConstAttr).Value)
		if !folded.IsBad() {
			return g.NewConst(n.Block(), folded), true
		}
	}
	if freg.Enabled(flags.AlgebraicSimplify) {
		if res, ok := identity(n.In(0), n.In(1)); ok {
			return res, true
		}
	}
	return n.ID(), false
}

// optimizePhi replaces a Phi all of whose distinct operands (other than
// self-references) are the same single value with that value — the
// classic "trivial Phi" elimination.
func optimizePhi(g *node.Graph, n *node.Node, freg *flags.Registry) (node.ID, bool) {
	if !freg.Enabled(flags.AlgebraicSimplify) {
		return n.ID(), false
	}
	var unique node.ID = node.NoID
	for _, in := range n.Ins() {
		if in == n.ID() || in == node.NoID {
			continue
		}
		if unique == node.NoID {
			unique = in
			continue
		}
		if g.SkipID(in) != g.SkipID(unique) {
			return n.ID(), false
		}
	}
	if unique == node.NoID {
		return n.ID(), false
	}
	return unique, true
}

// optimizeProj expands a Proj of a surviving Tuple node directly to the
// corresponding operand (spec §4.4 turn_into_tuple's usual consumer).
func optimizeProj(g *node.Graph, n *node.Node, freg *flags.Registry) (node.ID, bool) {
	pred := g.Node(n.In(0))
	if pred.Op() != opcode.Tuple {
		return n.ID(), false
	}
	num := g.ProjNum(n.ID())
	if num < 0 || num >= pred.Arity() {
		return n.ID(), false
	}
	return pred.In(num), true
}

// optimizeLocalCall implements the locals.c-grounded rule (SPEC_FULL.md's
// supplemented feature): a Call whose callee is a SymConst naming an
// entity with no externally observable definition left (tracked via
// CallAttr.Callee being empty after internal/gc's sweep) can't be
// rewritten here without interprocedural information, so this rule
// returns every Call unchanged and reports no rewrite.
func optimizeLocalCall(g *node.Graph, n *node.Node) (node.ID, bool) {
	return n.ID(), false
}
