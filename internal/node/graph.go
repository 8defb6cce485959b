package node

import (
	"github.com/google/uuid"

	"ssagraph/internal/arena"
	"ssagraph/internal/mode"
	"ssagraph/internal/opcode"
)

// Phase is a graph's construction/lowering phase (spec §3 Graph record).
type Phase uint8

const (
	PhaseBuilding Phase = iota
	PhaseHigh
	PhaseLow
	PhaseBackend
)

// Validity is the tri-state spec §5 requires of every derived analysis.
type Validity uint8

const (
	ValidityNone Validity = iota
	ValidityConsistent
	ValidityInconsistent
)

// Anchors holds the fixed-slot root nodes every graph carries (spec §3).
type Anchors struct {
	Start, End             ID
	StartBlock, EndBlock   ID
	Frame, TLS             ID
	InitialExec            ID
	NoMem                  ID
	Bad                    ID
	Args                   ID
	InitialMemory          ID // optional
}

// Graph is one procedure's sea-of-nodes graph: nodes live in its arena,
// are addressed by stable ID, and the graph as a whole carries the
// lazily-recomputed analysis states spec §5 describes.
type Graph struct {
	UUID   uuid.UUID
	Entity string

	arena *arena.Arena
	reg   *opcode.Registry

	nodes []*Node // index 0 unused; node ids start at 1

	Anchors Anchors

	Phase       Phase
	OutsState   Validity
	EdgeState   Validity
	DomState    Validity
	LoopState   Validity

	visited  uint32
	lastIdx  int

	reserved uint32 // bitmask of reserved per-graph resources, spec §5
}

// Resource bits for the reservation bitmask (spec §5: link slot, visited
// counter, phi-list, block-marks, type-link).
const (
	ResourceLink uint32 = 1 << iota
	ResourceVisited
	ResourcePhiList
	ResourceBlockMark
	ResourceTypeLink
)

// Reserve claims a resource for the duration of a pass; Release gives it
// back. Passes must release on every exit path, including early returns.
func (g *Graph) Reserve(bit uint32) {
	if g.reserved&bit != 0 {
		panic("node: resource already reserved")
	}
	g.reserved |= bit
}

func (g *Graph) Release(bit uint32) { g.reserved &^= bit }

func (g *Graph) Arena() *arena.Arena   { return g.arena }
func (g *Graph) Registry() *opcode.Registry { return g.reg }

// NewGraph allocates an empty graph with its own arena and seeds the
// structural anchors every pass relies on finding (Start, End, Bad,
// NoMem, StartBlock, EndBlock — spec §3).
func NewGraph(reg *opcode.Registry, entity string) *Graph {
	g := &Graph{
		Entity: entity,
		arena:  arena.New(),
		reg:    reg,
		UUID:   uuid.New(),
		Phase:  PhaseBuilding,
	}
	g.nodes = append(g.nodes, nil) // id 0 is invalid

	g.Anchors.StartBlock = g.newRaw(opcode.Block, mode.T, NoID, nil)
	startBlock := g.Anchors.StartBlock
	g.Anchors.Bad = g.newRaw(opcode.Bad, mode.Bad, startBlock, nil)
	g.Anchors.NoMem = g.newRaw(opcode.NoMem, mode.M, startBlock, nil)
	g.Anchors.Start = g.newRaw(opcode.Start, mode.T, startBlock, nil)
	g.Anchors.EndBlock = g.newRaw(opcode.Block, mode.T, NoID, nil)
	g.Anchors.End = g.newRaw(opcode.End, mode.X, g.Anchors.EndBlock, nil)

	// Tuple Projs off Start: initial_exec/X, M, frame/ref, args/T.
	g.Anchors.InitialExec = g.NewProj(g.Anchors.Start, mode.X, 0)
	g.Anchors.InitialMemory = g.NewProj(g.Anchors.Start, mode.M, 1)
	g.Anchors.Frame = g.NewProj(g.Anchors.Start, mode.P, 2)
	g.Anchors.Args = g.NewProj(g.Anchors.Start, mode.T, 4)

	g.Node(startBlock).AddIn(g.Anchors.InitialExec)
	g.Node(startBlock).attr = &BlockAttr{}

	return g
}

// Node resolves an ID to its Node, or nil past End-of-life (killed ids
// remain resolvable — their opcode becomes Deleted — but never Bad).
func (g *Graph) Node(id ID) *Node {
	if id == NoID || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// NumNodes returns the number of node ids ever issued (including killed
// ones; arena-scoped storage is never compacted mid-graph).
func (g *Graph) NumNodes() int { return len(g.nodes) - 1 }

// IncVisited bumps the epoch used to mark nodes during one traversal.
func (g *Graph) IncVisited() uint32 {
	g.visited++
	return g.visited
}

func (g *Graph) CurrentVisited() uint32 { return g.visited }

func (g *Graph) newRaw(op *opcode.Opcode, m mode.Mode, block ID, ins []ID) ID {
	id := ID(len(g.nodes))
	n := &Node{id: id, op: op, mode: m, block: block, in: ins, g: g}
	g.nodes = append(g.nodes, n)
	g.lastIdx = int(id)
	return id
}

// NewNode allocates a node of the given opcode/mode/operands/attr in
// block, assigns a fresh id strictly greater than every id issued so far
// in this graph (spec §5 ordering guarantee), and installs the opcode's
// default attribute shape for the handful of opcodes that need one
// (Block/Phi allocate backedge bitmaps sized to arity; Call clears its
// cached callee array; ASM deep-copies its constraint and clobber arrays).
func (g *Graph) NewNode(op *opcode.Opcode, m mode.Mode, block ID, ins []ID, attr Attr) ID {
	id := g.newRaw(op, m, block, append([]ID(nil), ins...))
	n := g.nodes[id]
	n.attr = attr
	g.defaultInitAttr(n)
	g.OutsState = ValidityInconsistent
	return id
}

func (g *Graph) defaultInitAttr(n *Node) {
	switch n.op {
	case opcode.Block:
		if n.attr == nil {
			n.attr = &BlockAttr{Backedge: make([]bool, len(n.in))}
		}
	case opcode.Phi:
		if n.attr == nil {
			n.attr = &PhiAttr{Backedge: make([]bool, len(n.in))}
		}
	case opcode.Call:
		if ca, ok := n.attr.(CallAttr); ok {
			ca.Callee = nil
			n.attr = ca
		}
	case opcode.ASM:
		if aa, ok := n.attr.(*ASMAttr); ok {
			cp := *aa
			cp.InputCons = append([]ASMConstraint(nil), aa.InputCons...)
			cp.OutputCons = append([]ASMConstraint(nil), aa.OutputCons...)
			cp.Clobbers = append([]string(nil), aa.Clobbers...)
			n.attr = &cp
		}
	}
}

// NewProj builds a Proj selecting field `num` out of a tuple-producing
// predecessor, with the mode fixed by (predecessor opcode, projection
// number) per spec §6.2.
func (g *Graph) NewProj(pred ID, m mode.Mode, num int) ID {
	p := g.Node(pred)
	block := p.block
	id := g.NewNode(opcode.Proj, m, block, []ID{pred}, nil)
	g.Node(id).link = ID(num)
	return id
}

// ProjNum returns the projection number stashed in a Proj's link slot at
// construction (Proj carries it there rather than in a dedicated Attr
// since it never needs deep copy).
func (g *Graph) ProjNum(proj ID) int { return int(g.Node(proj).link) }

// ExactCopy duplicates n in the same block with identical attributes and
// operands (spec §4.1, round-trip property R1). Attribute deep-copy for
// Block/Phi/ASM goes through CopyAttr-equivalent logic below rather than a
// registered hook, since our Attr values are concrete Go types.
func (g *Graph) ExactCopy(id ID) ID {
	n := g.Node(id)
	newID := g.NewNode(n.op, n.mode, n.block, n.in, deepCopyAttr(n.attr))
	return newID
}

// CloneAttr deep-copies an attribute the way ExactCopy does, exported for
// callers outside this package that build a new node from an old one's
// shape (internal/transform's backend driver) without routing through
// ExactCopy's same-graph, same-opcode assumptions.
func CloneAttr(a Attr) Attr { return deepCopyAttr(a) }

func deepCopyAttr(a Attr) Attr {
	switch v := a.(type) {
	case *BlockAttr:
		cp := &BlockAttr{
			Backedge: append([]bool(nil), v.Backedge...),
			PhiList:  append([]ID(nil), v.PhiList...),
			MatureDone: v.MatureDone,
		}
		return cp
	case *PhiAttr:
		return &PhiAttr{Backedge: append([]bool(nil), v.Backedge...)}
	case *ASMAttr:
		cp := *v
		cp.InputCons = append([]ASMConstraint(nil), v.InputCons...)
		cp.OutputCons = append([]ASMConstraint(nil), v.OutputCons...)
		cp.Clobbers = append([]string(nil), v.Clobbers...)
		return &cp
	case CallAttr:
		return CallAttr{Type: v.Type, Callee: append([]ID(nil), v.Callee...)}
	case SelAttr:
		return SelAttr{Entity: v.Entity, Indices: append([]ID(nil), v.Indices...)}
	default:
		return a
	}
}

// TurnIntoTuple rewrites n's opcode to Tuple with a fresh operand array,
// the one primitive among spec §4.4's graph-modification operations that
// needs to touch a node's opcode directly (used to atomically replace a
// producer of multiple Projs — e.g. after inlining resolves a Call to a
// known result tuple).
func (g *Graph) TurnIntoTuple(id ID, ins []ID) {
	n := g.Node(id)
	if n.IsDeleted() {
		panic("node: TurnIntoTuple on deleted node")
	}
	n.op = opcode.Tuple
	n.in = append([]ID(nil), ins...)
	g.OutsState = ValidityInconsistent
}

// CopyInto builds a detached copy of n in target, with deep-copied
// attributes (ordinary Go values, not allocated from target's arena), and
// returns its id; operand ids still reference the source
// graph and the caller is responsible for rewiring them (spec §4.1
// "Cross-graph copy").
func CopyInto(src *Graph, id ID, target *Graph) ID {
	n := src.Node(id)
	return target.NewNode(n.op, n.mode, NoID, n.in, deepCopyAttr(n.attr))
}
