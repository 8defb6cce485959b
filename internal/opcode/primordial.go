package opcode

// The primordial opcode set, seeded at init the way the source's op table
// is populated once per process before any graph is built (spec §6.3).
var (
	Block, Start, End, Jmp, IJmp, Cond, Return                     *Opcode
	Const, SymConst, Sel, Call, Builtin                            *Opcode
	Add, Sub, Minus, Mul, Mulh, Quot, Div, Mod, DivMod, Abs         *Opcode
	And, Or, Eor, Not, Cmp, Shl, Shr, Shrs, Rotl, Conv, Cast        *Opcode
	Carry, Borrow, Phi, Load, Store, Alloc, Free, Sync              *Opcode
	Tuple, Proj, Id, Bad, Confirm, Unknown, Filter, Break           *Opcode
	CallBegin, EndReg, EndExcept, NoMem, Mux, CopyB, InstOf, Raise  *Opcode
	Bound, Pin_, ASM, Anchor, Deleted                               *Opcode
)

// Default is the process-wide registry. internal/node builds graphs
// against it unless a test constructs a private Registry.
var Default = NewRegistry()

func init() {
	reg := Default
	simple := func(name string, pin Pin, arity Arity, flags Flag) *Opcode {
		return reg.Register(name, pin, arity, 0, flags, Hooks{})
	}

	Block = simple("Block", Pinned, ArityDynamic, FlagCFOpcode)
	Start = simple("Start", Pinned, ArityZero, FlagCFOpcode)
	End = simple("End", Pinned, ArityDynamic, FlagCFOpcode|FlagKeep)
	Jmp = simple("Jmp", Pinned, ArityZero, FlagCFOpcode)
	IJmp = simple("IJmp", Pinned, ArityUnary, FlagCFOpcode|FlagForking)
	Cond = simple("Cond", Pinned, ArityUnary, FlagCFOpcode|FlagForking)
	Return = simple("Return", Pinned, ArityVariable, FlagCFOpcode)
	Const = simple("Const", Floats, ArityZero, FlagConstlike)
	SymConst = simple("SymConst", Floats, ArityZero, FlagConstlike)
	Sel = simple("Sel", Pinned, ArityVariable, 0)
	Call = simple("Call", ExcPinned, ArityVariable, FlagUsesMemory|FlagFragile)
	Builtin = simple("Builtin", ExcPinned, ArityVariable, FlagUsesMemory|FlagFragile)
	Add = simple("Add", Floats, ArityBinary, FlagCommutative)
	Sub = simple("Sub", Floats, ArityBinary, 0)
	Minus = simple("Minus", Floats, ArityUnary, 0)
	Mul = simple("Mul", Floats, ArityBinary, FlagCommutative)
	Mulh = simple("Mulh", Floats, ArityBinary, FlagCommutative)
	Quot = simple("Quot", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile)
	Div = simple("Div", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile)
	Mod = simple("Mod", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile)
	DivMod = simple("DivMod", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile)
	Abs = simple("Abs", Floats, ArityUnary, 0)
	And = simple("And", Floats, ArityBinary, FlagCommutative)
	Or = simple("Or", Floats, ArityBinary, FlagCommutative)
	Eor = simple("Eor", Floats, ArityBinary, FlagCommutative)
	Not = simple("Not", Floats, ArityUnary, 0)
	Cmp = simple("Cmp", Floats, ArityBinary, 0)
	Shl = simple("Shl", Floats, ArityBinary, 0)
	Shr = simple("Shr", Floats, ArityBinary, 0)
	Shrs = simple("Shrs", Floats, ArityBinary, 0)
	Rotl = simple("Rotl", Floats, ArityBinary, 0)
	Conv = simple("Conv", Floats, ArityUnary, 0)
	Cast = simple("Cast", Floats, ArityUnary, FlagHighLevel)
	Carry = simple("Carry", Floats, ArityTrinary, FlagCommutative)
	Borrow = simple("Borrow", Floats, ArityTrinary, 0)
	Phi = simple("Phi", Pinned, ArityDynamic, 0)
	Load = simple("Load", ExcPinned, ArityBinary, FlagUsesMemory|FlagFragile)
	Store = simple("Store", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile)
	Alloc = simple("Alloc", Pinned, ArityBinary, FlagUsesMemory)
	Free = simple("Free", Pinned, ArityTrinary, FlagUsesMemory)
	Sync = simple("Sync", Pinned, ArityDynamic, FlagUsesMemory)
	Tuple = simple("Tuple", Floats, ArityVariable, 0)
	Proj = simple("Proj", Floats, ArityUnary, FlagCSENeutral)
	Id = simple("Id", Floats, ArityUnary, FlagCSENeutral)
	Bad = simple("Bad", Pinned, ArityZero, FlagCFOpcode|FlagConstlike|FlagStartBlock)
	Confirm = simple("Confirm", Pinned, ArityBinary, FlagHighLevel)
	Unknown = simple("Unknown", Floats, ArityZero, FlagConstlike|FlagCSENeutral)
	Filter = simple("Filter", Pinned, ArityDynamic, FlagHighLevel)
	Break = simple("Break", Pinned, ArityZero, FlagCFOpcode)
	CallBegin = simple("CallBegin", Pinned, ArityUnary, FlagCFOpcode|FlagHighLevel)
	EndReg = simple("EndReg", Pinned, ArityDynamic, FlagCFOpcode|FlagHighLevel)
	EndExcept = simple("EndExcept", Pinned, ArityDynamic, FlagCFOpcode|FlagHighLevel)
	NoMem = simple("NoMem", Floats, ArityZero, FlagConstlike|FlagCSENeutral|FlagStartBlock)
	Mux = simple("Mux", Floats, ArityTrinary, 0)
	CopyB = simple("CopyB", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile)
	InstOf = simple("InstOf", ExcPinned, ArityBinary, FlagUsesMemory|FlagFragile|FlagHighLevel)
	Raise = simple("Raise", Pinned, ArityBinary, FlagCFOpcode)
	Bound = simple("Bound", ExcPinned, ArityTrinary, FlagUsesMemory|FlagFragile|FlagHighLevel)
	Pin_ = simple("Pin", Pinned, ArityBinary, FlagUsesMemory)
	ASM = simple("ASM", MemPinned, ArityVariable, FlagUsesMemory|FlagKeep)
	Anchor = simple("Anchor", Pinned, ArityDynamic, FlagStartBlock)
	Deleted = simple("Deleted", Floats, ArityAny, 0)
}

// Min returns the opcode with the lowest registration id.
//
// The original source's get_op_Min returns op_Max (an apparent copy-paste
// bug — see spec §9 "Open Questions"). We do not reproduce that bug: Min
// and Max are kept distinct here, but documented so a port auditing caller
// sites for the original's behavior knows exactly what changed.
func (r *Registry) Min() *Opcode {
	if len(r.byID) == 0 {
		return nil
	}
	return r.byID[0]
}

func (r *Registry) Max() *Opcode {
	if len(r.byID) == 0 {
		return nil
	}
	return r.byID[len(r.byID)-1]
}
