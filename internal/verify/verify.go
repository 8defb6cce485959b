// Package verify implements the structural and typing verifier spec §4.2
// describes: universal pre-checks, a per-opcode operand/result-mode
// catalogue, per-Proj routing rules, and two optional passes (SSA
// dominance, Bad-propagation audit). Grounded on _examples/original_source's
// irverify.c (the per-opcode mode table is a direct transliteration of its
// ASSERT-chain structure into Go, one case per opcode instead of one
// ASSERT block per opcode).
package verify

import (
	"fmt"

	"ssagraph/internal/analysis"
	"ssagraph/internal/mode"
	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
	"ssagraph/internal/report"
)

// Options configures which optional passes Graph runs alongside the
// mandatory per-opcode catalogue.
type Options struct {
	CheckDominance      bool
	CheckBadPropagation bool
	Doms                *analysis.Doms // required if CheckDominance is set
}

// Graph verifies every live node of g and returns a report; Report.Clean()
// reports whether verification passed.
func Graph(g *node.Graph, opts Options) *report.Report {
	rep := report.New("verify")
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() == opcode.Bad {
			continue
		}
		checkUniversal(g, n, rep)
		checkOpcode(g, n, rep)
		if n.Op() == opcode.Proj {
			checkProj(g, n, rep)
		}
	}
	if opts.CheckDominance {
		checkDominance(g, opts.Doms, rep)
	}
	if opts.CheckBadPropagation {
		checkBadPropagation(g, rep)
	}
	return rep
}

func loc(g *node.Graph, n *node.Node) string {
	return fmt.Sprintf("%s node %d (%s)", g.Entity, n.ID(), n.Op())
}

// checkUniversal runs the pre-checks every node must satisfy regardless of
// opcode (spec §4.2 "Universal pre-checks"): the node's block is a live
// Block of the same graph, and no operand slot is unset. Pin state is not
// checked per node. The
// "stored index matches the graph's idx-to-node map" check is vacuous
// here — Graph.Node(id) is defined as that map, so any id we're iterating
// already satisfies it by construction.
func checkUniversal(g *node.Graph, n *node.Node, rep *report.Report) {
	if n.Op() == opcode.Block || n.Op() == opcode.Anchor {
		return
	}
	block := g.Node(n.Block())
	if block == nil || block.IsDeleted() || block.Op() != opcode.Block {
		rep.Add(report.Violation, loc(g, n)+": block() is not a live Block")
		return
	}
	for i, in := range n.Ins() {
		if in == node.NoID {
			rep.Add(report.Violation, fmt.Sprintf("%s: operand %d is unset", loc(g, n), i))
		}
	}
}

// isBad reports whether the given operand id refers to Bad, in
// which case mode-compatibility checks for that operand are elided (spec
// invariant 2, "Bad absorbs").
func isBad(g *node.Graph, id node.ID) bool {
	n := g.Node(id)
	return n != nil && n.Op() == opcode.Bad
}

func checkMode(g *node.Graph, n *node.Node, slot int, id node.ID, want func(mode.Mode) bool, rep *report.Report, what string) {
	if isBad(g, id) {
		return
	}
	m := g.Node(id).Mode()
	if !want(m) {
		rep.Add(report.Violation, fmt.Sprintf("%s: operand %d (%s) has mode %s, expected %s", loc(g, n), slot, g.Node(id), m, what))
	}
}

func isMem(m mode.Mode) bool       { return m.IsMemory() }
func isRef(m mode.Mode) bool       { return m.IsReference() }
func isDataOrBool(m mode.Mode) bool { return m.IsDataOrBool() }
func isNum(m mode.Mode) bool       { return m.IsNum() }
func isInt(m mode.Mode) bool       { return m.IsInt() }
func isUnsignedInt(m mode.Mode) bool { return m.IsInt() && !m.IsSigned() }

// checkOpcode dispatches the per-opcode operand/result-mode rule table
// (spec §4.2's excerpt table), one case per row.
func checkOpcode(g *node.Graph, n *node.Node, rep *report.Report) {
	switch n.Op() {
	case opcode.Block:
		for i, pred := range n.Ins() {
			checkMode(g, n, i, pred, func(m mode.Mode) bool { return m.IsControl() }, rep, "X")
		}
	case opcode.Start:
		if !n.Mode().IsTuple() {
			rep.Add(report.Violation, loc(g, n)+": Start must be mode T")
		}
	case opcode.Jmp:
		if !n.Mode().IsControl() {
			rep.Add(report.Violation, loc(g, n)+": Jmp must be mode X")
		}
	case opcode.IJmp:
		checkMode(g, n, 0, n.In(0), isRef, rep, "ref")
	case opcode.Cond:
		checkMode(g, n, 0, n.In(0), func(m mode.Mode) bool { return m.IsBool() || m.IsInt() }, rep, "b or int")
	case opcode.Return:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		if g.Phase != node.PhaseBackend {
			for i := 1; i < n.Arity(); i++ {
				checkMode(g, n, i, n.In(i), isDataOrBool, rep, "data_or_b")
			}
		}
	case opcode.Raise:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
	case opcode.Const:
		ca, ok := n.Attr().(node.ConstAttr)
		if !ok {
			rep.Add(report.Violation, loc(g, n)+": Const missing ConstAttr")
		} else if ca.Value.M != n.Mode() {
			rep.Add(report.Violation, fmt.Sprintf("%s: Const attribute tarval mode %s != node mode %s", loc(g, n), ca.Value.M, n.Mode()))
		}
	case opcode.Sel:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
		for i := 2; i < n.Arity(); i++ {
			checkMode(g, n, i, n.In(i), isInt, rep, "int")
		}
		if sa, ok := n.Attr().(node.SelAttr); !ok || sa.Entity == "" {
			rep.Add(report.Violation, loc(g, n)+": Sel missing entity attribute")
		}
	case opcode.Call:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
		for i := 2; i < n.Arity(); i++ {
			checkMode(g, n, i, n.In(i), isDataOrBool, rep, "data_or_b")
		}
	case opcode.Add:
		l, r := g.Node(n.In(0)), g.Node(n.In(1))
		if !isBad(g, n.In(0)) && !isBad(g, n.In(1)) {
			switch {
			case l.Mode().IsNum() && r.Mode().IsNum() && l.Mode() == r.Mode():
			case l.Mode().IsReference() && r.Mode().IsInt():
			case l.Mode().IsInt() && r.Mode().IsReference():
			default:
				rep.Add(report.Violation, fmt.Sprintf("%s: Add operand modes %s/%s don't match (num,num)/(ref,int)/(int,ref)", loc(g, n), l.Mode(), r.Mode()))
			}
		}
	case opcode.Sub:
		l, r := g.Node(n.In(0)), g.Node(n.In(1))
		if !isBad(g, n.In(0)) && !isBad(g, n.In(1)) {
			switch {
			case l.Mode().IsNum() && r.Mode().IsNum() && l.Mode() == r.Mode():
			case l.Mode().IsReference() && r.Mode().IsInt():
			case l.Mode().IsReference() && r.Mode().IsReference():
			default:
				rep.Add(report.Violation, fmt.Sprintf("%s: Sub operand modes %s/%s don't match (num,num)/(ref,int)/(ref,ref)", loc(g, n), l.Mode(), r.Mode()))
			}
		}
	case opcode.Minus:
		checkMode(g, n, 0, n.In(0), isNum, rep, "num")
	case opcode.Mul, opcode.Mulh:
		l, r := g.Node(n.In(0)), g.Node(n.In(1))
		if !isBad(g, n.In(0)) && !isBad(g, n.In(1)) && l.Mode() != r.Mode() {
			rep.Add(report.Violation, fmt.Sprintf("%s: %s operand modes must match, got %s/%s", loc(g, n), n.Op(), l.Mode(), r.Mode()))
		}
	case opcode.Quot, opcode.Div, opcode.Mod, opcode.DivMod:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
	case opcode.And, opcode.Or, opcode.Eor:
		l, r := g.Node(n.In(0)), g.Node(n.In(1))
		if !isBad(g, n.In(0)) && !isBad(g, n.In(1)) {
			both := (l.Mode().IsInt() && r.Mode().IsInt()) || (l.Mode().IsBool() && r.Mode().IsBool())
			if !both || l.Mode() != r.Mode() {
				rep.Add(report.Violation, fmt.Sprintf("%s: %s requires (int,int) or (b,b), got %s/%s", loc(g, n), n.Op(), l.Mode(), r.Mode()))
			}
		}
	case opcode.Not:
		checkMode(g, n, 0, n.In(0), func(m mode.Mode) bool { return m.IsInt() || m.IsBool() }, rep, "int or b")
	case opcode.Cmp:
		checkMode(g, n, 0, n.In(0), isDataOrBool, rep, "data_or_b")
		checkMode(g, n, 1, n.In(1), isDataOrBool, rep, "data_or_b")
	case opcode.Shl, opcode.Shr, opcode.Shrs:
		checkMode(g, n, 0, n.In(0), isInt, rep, "int")
		checkMode(g, n, 1, n.In(1), isUnsignedInt, rep, "int_unsigned")
	case opcode.Rotl:
		checkMode(g, n, 0, n.In(0), isInt, rep, "int")
		checkMode(g, n, 1, n.In(1), isInt, rep, "int")
	case opcode.Conv:
		if g.Phase != node.PhaseBackend {
			checkMode(g, n, 0, n.In(0), isDataOrBool, rep, "data_or_b")
		}
	case opcode.Cast:
		checkMode(g, n, 0, n.In(0), isDataOrBool, rep, "data_or_b")
		if !n.Mode().IsData() {
			rep.Add(report.Violation, loc(g, n)+": Cast result mode must be a data mode")
		}
		if !isBad(g, n.In(0)) && g.Node(n.In(0)).Mode() != n.Mode() {
			rep.Add(report.Violation, loc(g, n)+": Cast operand and result modes must be equal")
		}
	case opcode.Phi:
		checkPhi(g, n, rep)
	case opcode.Load:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		if g.Phase != node.PhaseBackend {
			checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
		}
	case opcode.Store:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		if g.Phase != node.PhaseBackend {
			checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
		}
		checkMode(g, n, 2, n.In(2), isDataOrBool, rep, "data_or_b")
	case opcode.Alloc:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		checkMode(g, n, 1, n.In(1), isUnsignedInt, rep, "unsigned int")
	case opcode.Free:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
		checkMode(g, n, 2, n.In(2), isUnsignedInt, rep, "unsigned int")
	case opcode.Sync:
		for i, in := range n.Ins() {
			checkMode(g, n, i, in, isMem, rep, "M")
		}
	case opcode.Confirm:
		if _, ok := n.Attr().(node.ConfirmAttr); !ok {
			rep.Add(report.Violation, loc(g, n)+": Confirm missing ConfirmAttr")
		}
		if !isBad(g, n.In(0)) && g.Node(n.In(0)).Mode() != n.Mode() {
			rep.Add(report.Violation, loc(g, n)+": Confirm value mode must equal node mode")
		}
		if !isBad(g, n.In(1)) && g.Node(n.In(1)).Mode() != n.Mode() {
			rep.Add(report.Violation, loc(g, n)+": Confirm bound mode must equal node mode")
		}
	case opcode.Mux:
		checkMode(g, n, 0, n.In(0), func(m mode.Mode) bool { return m.IsBool() }, rep, "b")
		if !isBad(g, n.In(1)) && g.Node(n.In(1)).Mode() != n.Mode() {
			rep.Add(report.Violation, loc(g, n)+": Mux then operand mode must equal node mode")
		}
		if !isBad(g, n.In(2)) && g.Node(n.In(2)).Mode() != n.Mode() {
			rep.Add(report.Violation, loc(g, n)+": Mux else operand mode must equal node mode")
		}
	case opcode.CopyB:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		if g.Phase != node.PhaseBackend {
			checkMode(g, n, 1, n.In(1), isRef, rep, "ref")
			checkMode(g, n, 2, n.In(2), isRef, rep, "ref")
		}
	case opcode.Bound:
		checkMode(g, n, 0, n.In(0), isMem, rep, "M")
		i1, i2, i3 := g.Node(n.In(1)), g.Node(n.In(2)), g.Node(n.In(3))
		if i1 != nil && i2 != nil && i3 != nil && !(i1.Mode() == i2.Mode() && i2.Mode() == i3.Mode() && i1.Mode().IsInt()) {
			rep.Add(report.Violation, loc(g, n)+": Bound index/lower/upper must share one int mode")
		}
	}
}

func checkPhi(g *node.Graph, n *node.Node, rep *report.Report) {
	block := g.Node(n.Block())
	if g.Phase != node.PhaseBuilding && n.Arity() != block.Arity() {
		rep.Add(report.Violation, fmt.Sprintf("%s: Phi arity %d != block arity %d", loc(g, n), n.Arity(), block.Arity()))
	}
	if !n.Mode().IsData() && !n.Mode().IsBool() {
		rep.Add(report.Violation, loc(g, n)+": Phi mode must be a data mode or b")
	}
	for i, in := range n.Ins() {
		if isBad(g, in) {
			continue
		}
		if g.Node(in).Mode() != n.Mode() {
			rep.Add(report.Violation, fmt.Sprintf("%s: Phi operand %d mode %s != node mode %s", loc(g, n), i, g.Node(in).Mode(), n.Mode()))
		}
	}
}

// checkProj validates a Proj's projection number and mode against its
// predecessor's opcode (spec §4.2 "Per-Proj rules", §6.2 table).
func checkProj(g *node.Graph, n *node.Node, rep *report.Report) {
	pred := g.Node(n.In(0))
	num := g.ProjNum(n.ID())
	switch pred.Op() {
	case opcode.Start:
		switch num {
		case 0:
			if !n.Mode().IsControl() {
				rep.Add(report.Violation, loc(g, n)+": Start/initial_exec Proj must be mode X")
			}
		case 1:
			if !n.Mode().IsMemory() {
				rep.Add(report.Violation, loc(g, n)+": Start/M Proj must be mode M")
			}
		case 2:
			if !n.Mode().IsReference() {
				rep.Add(report.Violation, loc(g, n)+": Start/frame Proj must be mode ref")
			}
		case 4:
			if !n.Mode().IsTuple() {
				rep.Add(report.Violation, loc(g, n)+": Start/args Proj must be mode T")
			}
		}
	case opcode.Cond:
		if !n.Mode().IsControl() {
			rep.Add(report.Violation, loc(g, n)+": Cond Proj must be mode X")
		}
	case opcode.Call:
		// Call/M -> M, Call/X_regular|X_except -> X (both require a real
		// memory input), Call/T_result -> T, Call/P_value_res_base -> ref.
		if mem := pred.In(0); n.Mode().IsControl() && (isBad(g, mem) || mem == g.Anchors.NoMem) {
			rep.Add(report.Violation, loc(g, n)+": Call control Proj requires a real (non-NoMem) memory input")
		}
	case opcode.Quot, opcode.Div, opcode.Mod, opcode.DivMod:
		if pred.Op().Pin != opcode.Pinned && pred.Op().Pin != opcode.ExcPinned && pred.Op().Pin != opcode.MemPinned {
			rep.Add(report.Violation, loc(g, n)+": fragile-op Proj predecessor must be pinned")
		}
	case opcode.Load:
		if n.Mode() != pred.Mode() && !pred.Mode().IsTuple() {
			// Load's own mode is T; its result Proj's mode is not
			// checked. NewLoad does not record a declared result mode
			// on the Load, so there is nothing to compare it against,
			// and the universal pre-checks do not look at modes.
		}
	}
}

// checkDominance runs the optional SSA-dominance pass (spec §4.2): every
// operand's defining block must dominate its use point.
func checkDominance(g *node.Graph, doms *analysis.Doms, rep *report.Report) {
	if doms == nil {
		rep.Add(report.Warning, "verify: dominance check requested without a computed Doms")
		return
	}
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() || n.Op() == opcode.Block || n.Op() == opcode.End || n.Op() == opcode.Anchor {
			continue
		}
		for i, in := range n.Ins() {
			if in == node.NoID || isBad(g, in) {
				continue
			}
			def := g.Node(in)
			if def.IsDeleted() {
				continue
			}
			useBlock := n.Block()
			if n.Op() == opcode.Phi {
				// A Phi operand is used at the end of the block's i-th
				// CFG predecessor.
				blk := g.Node(n.Block())
				if blk == nil || i >= blk.Arity() {
					continue
				}
				pred := blk.In(i)
				if pred == node.NoID || isBad(g, pred) {
					continue
				}
				predNode := g.Node(pred)
				if predNode == nil {
					continue
				}
				useBlock = predNode.Block()
			}
			if useBlock == node.NoID {
				continue
			}
			if !doms.IsLive(def.Block()) || !doms.IsLive(useBlock) {
				continue
			}
			if !doms.Dominates(def.Block(), useBlock) {
				rep.Add(report.Violation, fmt.Sprintf("%s: operand %d's defining block does not dominate its use", loc(g, n), i))
			}
		}
	}
}

// checkBadPropagation runs the optional audit (spec §4.2): flags Bad Block
// predecessors, Bad blocks used as block(n), surviving Tuple nodes, Phi
// operands that are Bad when the corresponding predecessor is live, and
// any non-Phi node with a Bad operand.
func checkBadPropagation(g *node.Graph, rep *report.Report) {
	for id := node.ID(1); int(id) <= g.NumNodes(); id++ {
		n := g.Node(id)
		if n == nil || n.IsDeleted() {
			continue
		}
		if n.Op() == opcode.Block {
			for _, pred := range n.Ins() {
				if isBad(g, pred) {
					rep.Add(report.Warning, loc(g, n)+": Block has a Bad predecessor")
				}
			}
			continue
		}
		if isBad(g, n.Block()) {
			rep.Add(report.Warning, loc(g, n)+": node's block is Bad")
		}
		if n.Op() == opcode.Tuple {
			rep.Add(report.Warning, loc(g, n)+": surviving Tuple node (should have been expanded)")
		}
		for i, in := range n.Ins() {
			if n.Op() == opcode.Phi {
				block := g.Node(n.Block())
				if i < len(block.Ins()) && !isBad(g, block.Ins()[i]) && isBad(g, in) {
					rep.Add(report.Warning, fmt.Sprintf("%s: Phi operand %d is Bad but its control predecessor is live", loc(g, n), i))
				}
				continue
			}
			if isBad(g, in) {
				rep.Add(report.Warning, fmt.Sprintf("%s: operand %d is Bad", loc(g, n), i))
			}
		}
	}
}
