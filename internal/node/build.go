package node

import (
	"ssagraph/internal/mode"
	"ssagraph/internal/opcode"
	"ssagraph/internal/tarval"
)

// NewBlock creates a Block with the given CFG predecessors (mode X values,
// or Bad). The block starts immature: further predecessors may be added
// with AddImmBlockPred until MatureBlock is called.
func (g *Graph) NewBlock(preds []ID) ID {
	id := g.NewNode(opcode.Block, mode.T, NoID, preds, &BlockAttr{Backedge: make([]bool, len(preds))})
	return id
}

// AddImmBlockPred appends one more CFG predecessor to an immature block,
// used while building a loop header before its back-edge exists yet.
func (g *Graph) AddImmBlockPred(block, pred ID) {
	b := g.Node(block)
	b.AddIn(pred)
	if ba, ok := b.attr.(*BlockAttr); ok {
		ba.Backedge = append(ba.Backedge, false)
	}
	for _, phi := range g.PhisOf(block) {
		g.Node(phi).AddIn(NoID) // caller fills in via SetIn once known
	}
}

// MatureBlock marks a block as having all its predecessors; outside the
// building phase, Phi arity must equal block arity (spec invariant 6).
func (g *Graph) MatureBlock(block ID) {
	if ba, ok := g.Node(block).attr.(*BlockAttr); ok {
		ba.MatureDone = true
	}
}

// PhisOf returns the Phi nodes owned by block, via its BlockAttr.PhiList
// (populated by graphmod.CollectPhiProjs) or, if that hasn't run yet, by a
// linear scan — correct either way, the list is just a cache.
func (g *Graph) PhisOf(block ID) []ID {
	if ba, ok := g.Node(block).attr.(*BlockAttr); ok && ba.PhiList != nil {
		return ba.PhiList
	}
	var out []ID
	for id := ID(1); int(id) < len(g.nodes); id++ {
		n := g.nodes[id]
		if n != nil && n.op == opcode.Phi && n.block == block {
			out = append(out, id)
		}
	}
	return out
}

func (g *Graph) NewConst(block ID, v tarval.Tarval) ID {
	return g.NewNode(opcode.Const, v.M, block, nil, ConstAttr{Value: v})
}

func (g *Graph) NewBinOp(op *opcode.Opcode, block ID, m mode.Mode, l, r ID) ID {
	return g.NewNode(op, m, block, []ID{l, r}, nil)
}

func (g *Graph) NewAdd(block ID, m mode.Mode, l, r ID) ID { return g.NewBinOp(opcode.Add, block, m, l, r) }
func (g *Graph) NewSub(block ID, m mode.Mode, l, r ID) ID { return g.NewBinOp(opcode.Sub, block, m, l, r) }
func (g *Graph) NewMul(block ID, m mode.Mode, l, r ID) ID { return g.NewBinOp(opcode.Mul, block, m, l, r) }

func (g *Graph) NewMinus(block ID, m mode.Mode, v ID) ID {
	return g.NewNode(opcode.Minus, m, block, []ID{v}, nil)
}

func (g *Graph) NewCmp(block ID, l, r ID) ID {
	return g.NewNode(opcode.Cmp, mode.T, block, []ID{l, r}, nil)
}

// NewCmpProj builds a Cmp and immediately projects the given relation out
// of it to a `b`-mode value, the common case verifier rule §4.2 describes.
func (g *Graph) NewCmpProj(block ID, l, r ID, rel tarval.Relation) (cmp, proj ID) {
	cmp = g.NewCmp(block, l, r)
	proj = g.NewProj(cmp, mode.B, int(rel))
	return
}

func (g *Graph) NewCond(block ID, selector ID) ID {
	return g.NewNode(opcode.Cond, mode.T, block, []ID{selector}, nil)
}

func (g *Graph) NewJmp(block ID) ID {
	return g.NewNode(opcode.Jmp, mode.X, block, nil, nil)
}

func (g *Graph) NewReturn(block, mem ID, results []ID) ID {
	ins := append([]ID{mem}, results...)
	return g.NewNode(opcode.Return, mode.X, block, ins, nil)
}

func (g *Graph) NewPhi(block ID, m mode.Mode, preds []ID) ID {
	return g.NewNode(opcode.Phi, m, block, preds, &PhiAttr{Backedge: make([]bool, len(preds))})
}

func (g *Graph) NewLoad(block, mem, ptr ID, m mode.Mode) ID {
	return g.NewNode(opcode.Load, mode.T, block, []ID{mem, ptr}, nil)
}

func (g *Graph) NewStore(block, mem, ptr, val ID) ID {
	return g.NewNode(opcode.Store, mode.T, block, []ID{mem, ptr, val}, nil)
}

func (g *Graph) NewConfirm(block, value, bound ID, rel tarval.Relation) ID {
	return g.NewNode(opcode.Confirm, g.Node(value).mode, block, []ID{value, bound}, ConfirmAttr{Relation: rel})
}

func (g *Graph) NewSync(block ID, mems []ID) ID {
	return g.NewNode(opcode.Sync, mode.M, block, mems, nil)
}

func (g *Graph) NewCall(block, mem, ptr ID, args []ID, typ string) ID {
	ins := append([]ID{mem, ptr}, args...)
	return g.NewNode(opcode.Call, mode.T, block, ins, CallAttr{Type: typ})
}
