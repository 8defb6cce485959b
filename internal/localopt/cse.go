package localopt

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"ssagraph/internal/node"
	"ssagraph/internal/opcode"
)

// valueTable is the CSE value numbering table: a structural hash of
// (opcode, mode, block, operands, attribute) to the first node built with
// that shape, grounded on spec §4.3's "CSE value table" graph field.
// blake2b gives a cheap, collision-resistant key without hand-rolling a
// combining hash over every attribute shape.
type valueTable struct {
	byHash map[[32]byte][]node.ID
}

func newValueTable() *valueTable { return &valueTable{byHash: make(map[[32]byte][]node.ID)} }

// structuralKey returns n's CSE hash, or ok=false for opcodes the registry
// flags CSE-neutral (Proj, Id — spec's FlagCSENeutral) or that carry
// observable identity beyond their operands (Const's tarval still
// participates via attrKey, but Block/Phi/Call are never CSE candidates:
// Blocks and Phis are positionally meaningful, Calls have side effects).
func structuralKey(g *node.Graph, n *node.Node) ([32]byte, bool) {
	switch n.Op() {
	case opcode.Block, opcode.Phi, opcode.Call, opcode.Load, opcode.Store,
		opcode.Alloc, opcode.Free, opcode.CopyB, opcode.Raise, opcode.Sync,
		opcode.Builtin, opcode.Quot, opcode.Div, opcode.Mod, opcode.DivMod:
		return [32]byte{}, false
	}
	if n.Op().Flags.Has(opcode.FlagCSENeutral) {
		return [32]byte{}, false
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(h, "%s|%s|%d|", n.Op().Name, n.Mode(), n.Block())
	for _, in := range n.Ins() {
		binary.Write(h, binary.BigEndian, int32(in))
	}
	fmt.Fprintf(h, "|%s", attrKey(n))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, true
}

func attrKey(n *node.Node) string {
	switch a := n.Attr().(type) {
	case node.ConstAttr:
		return a.Value.String()
	case node.SymConstAttr:
		return a.Symbol
	case node.ConfirmAttr:
		return a.Relation.String()
	default:
		return ""
	}
}

// lookup returns an earlier node structurally equal to n (same key, and
// not itself), if any.
func (vt *valueTable) lookup(g *node.Graph, n *node.Node, key [32]byte) (node.ID, bool) {
	for _, cand := range vt.byHash[key] {
		if cand == n.ID() {
			continue
		}
		cn := g.Node(cand)
		if cn == nil || cn.IsDeleted() {
			continue
		}
		if equalAttr(n.Attr(), cn.Attr()) {
			return cand, true
		}
	}
	return node.NoID, false
}

func (vt *valueTable) insert(key [32]byte, id node.ID) {
	vt.byHash[key] = append(vt.byHash[key], id)
}

func equalAttr(a, b node.Attr) bool {
	switch av := a.(type) {
	case node.ConstAttr:
		bv, ok := b.(node.ConstAttr)
		return ok && av.Value.M == bv.Value.M && av.Value.String() == bv.Value.String()
	case node.SymConstAttr:
		bv, ok := b.(node.SymConstAttr)
		return ok && av.Symbol == bv.Symbol
	case node.ConfirmAttr:
		bv, ok := b.(node.ConfirmAttr)
		return ok && av.Relation == bv.Relation
	default:
		return a == nil && b == nil
	}
}
