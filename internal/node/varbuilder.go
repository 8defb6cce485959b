package node

import "ssagraph/internal/mode"

// VarBuilder is the SSA local-variable builder spec §6.1 names
// (set_value/get_value): it lets a front end write to and read from
// numbered local variables as if they were mutable slots, inserting Phis
// and resolving them against immature blocks (blocks still gaining CFG
// predecessors) lazily, à la Braun et al.'s simple SSA construction.
type VarBuilder struct {
	g          *Graph
	modes      map[int]mode.Mode // local -> mode, learned from its first def
	defs       map[ID]map[int]ID // block -> local -> current def
	incomplete map[ID]map[int]ID // immature block -> local -> placeholder Phi
	immature   map[ID]bool
}

// NewVarBuilder creates a builder for locals over g.
func NewVarBuilder(g *Graph) *VarBuilder {
	return &VarBuilder{
		g:          g,
		modes:      make(map[int]mode.Mode),
		defs:       make(map[ID]map[int]ID),
		incomplete: make(map[ID]map[int]ID),
		immature:   make(map[ID]bool),
	}
}

// MarkImmature must be called right after creating a block that will
// later receive more predecessors via AddImmBlockPred.
func (b *VarBuilder) MarkImmature(block ID) { b.immature[block] = true }

// MatureBlock finishes resolving any placeholder Phis recorded while
// block was immature, then delegates to Graph.MatureBlock.
func (b *VarBuilder) MatureBlock(block ID) {
	for local, phi := range b.incomplete[block] {
		b.addPhiOperands(block, phi, local)
	}
	delete(b.incomplete, block)
	delete(b.immature, block)
	b.g.MatureBlock(block)
}

// SetValue records val (of whatever mode val already has) as local's
// current definition reaching the end of block.
func (b *VarBuilder) SetValue(block ID, local int, val ID) {
	if _, ok := b.modes[local]; !ok {
		b.modes[local] = b.g.Node(val).Mode()
	}
	m := b.defs[block]
	if m == nil {
		m = make(map[int]ID)
		b.defs[block] = m
	}
	m[local] = val
}

func (b *VarBuilder) GetValue(block ID, local int) ID {
	if v, ok := b.defs[block][local]; ok {
		return v
	}
	return b.readRecursive(block, local)
}

func (b *VarBuilder) readRecursive(block ID, local int) ID {
	var val ID
	switch {
	case b.immature[block]:
		phi := b.g.NewPhi(block, b.modes[local], make([]ID, len(b.g.Node(block).Ins())))
		b.recordPlaceholder(block, local, phi)
		val = phi
	default:
		preds := b.g.Node(block).Ins()
		switch len(preds) {
		case 0:
			val = b.g.Anchors.Bad
		case 1:
			val = b.GetValue(b.g.Node(preds[0]).Block(), local)
		default:
			phi := b.g.NewPhi(block, b.modes[local], make([]ID, len(preds)))
			b.setDefNoModeLearn(block, local, phi)
			b.addPhiOperands(block, phi, local)
			val = phi
		}
	}
	b.setDefNoModeLearn(block, local, val)
	return val
}

func (b *VarBuilder) setDefNoModeLearn(block ID, local int, val ID) {
	m := b.defs[block]
	if m == nil {
		m = make(map[int]ID)
		b.defs[block] = m
	}
	m[local] = val
}

func (b *VarBuilder) recordPlaceholder(block ID, local int, phi ID) {
	m := b.incomplete[block]
	if m == nil {
		m = make(map[int]ID)
		b.incomplete[block] = m
	}
	m[local] = phi
}

func (b *VarBuilder) addPhiOperands(block, phi ID, local int) {
	preds := b.g.Node(block).Ins()
	for i, pred := range preds {
		predBlock := b.g.Node(pred).Block()
		v := b.GetValue(predBlock, local)
		b.g.Node(phi).SetIn(i, v)
	}
}
