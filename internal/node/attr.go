package node

import "ssagraph/internal/tarval"

// Attr is the marker interface for opcode-specific attribute blobs. Each
// concrete type below corresponds to one row of spec §3's attribute-blob
// examples (Const tarval, Call type, Sel entity & index list, Phi/Block
// backedge bitmaps, ASM constraint arrays).
type Attr interface{ isAttr() }

type ConstAttr struct{ Value tarval.Tarval }

func (ConstAttr) isAttr() {}

type SymConstAttr struct{ Symbol string }

func (SymConstAttr) isAttr() {}

type SelAttr struct {
	Entity  string
	Indices []ID
}

func (SelAttr) isAttr() {}

type CallAttr struct {
	Type   string
	Callee []ID // cached callee graphs (irprog.GraphID values stored as
	             // ID; internal/gc reads them that way), cleared by
	             // the default attribute initializer on construction.
}

func (CallAttr) isAttr() {}

// BlockAttr holds a block's backedge bitmap (one bit per predecessor,
// marking CFG back-edges) and the head of its owned-Phi list, populated by
// collect_phiprojs.
type BlockAttr struct {
	Backedge []bool
	PhiList  []ID
	MatureDone bool
}

func (*BlockAttr) isAttr() {}

// PhiAttr holds a Phi's own backedge bitmap, one bit per operand.
type PhiAttr struct {
	Backedge []bool
}

func (*PhiAttr) isAttr() {}

type ConfirmAttr struct {
	Relation tarval.Relation
}

func (ConfirmAttr) isAttr() {}

type ASMConstraint struct {
	Text string
	Pos  ID
}

type ASMAttr struct {
	Text        string
	InputCons   []ASMConstraint
	OutputCons  []ASMConstraint
	Clobbers    []string
}

func (*ASMAttr) isAttr() {}
