// Package tarval implements target-independent constant values: a
// (mode, value) pair with arithmetic, comparison yielding a relation
// lattice, and the distinguished constants true/false/bad.
package tarval

import (
	"fmt"
	"math/big"

	"ssagraph/internal/mode"
)

// Relation is a bitmask over the four-point comparison lattice
// {less, equal, greater, unordered}.
type Relation uint8

const (
	RelFalse      Relation = 0
	RelLess       Relation = 1 << iota
	RelEqual
	RelGreater
	RelUnordered
	RelLessEqual    = RelLess | RelEqual
	RelGreaterEqual = RelGreater | RelEqual
	RelLessGreater  = RelLess | RelGreater
	RelLessGreaterEqual = RelLess | RelGreater | RelEqual
	RelTrue = RelLess | RelEqual | RelGreater | RelUnordered
)

func (r Relation) String() string {
	switch r {
	case RelFalse:
		return "false"
	case RelLess:
		return "<"
	case RelEqual:
		return "=="
	case RelGreater:
		return ">"
	case RelLessEqual:
		return "<="
	case RelGreaterEqual:
		return ">="
	case RelLessGreater:
		return "!="
	case RelUnordered:
		return "unordered"
	case RelTrue:
		return "true"
	default:
		return fmt.Sprintf("rel(%02x)", uint8(r))
	}
}

// Has reports whether r contains every bit of sub.
func (r Relation) Has(sub Relation) bool { return r&sub == sub }

// Tag distinguishes the handful of non-numeric tarvals from ordinary
// (mode, value) constants.
type Tag uint8

const (
	TagNormal Tag = iota
	TagBad
	TagUnknown
)

// Tarval is an immutable constant value tagged with its mode.
type Tarval struct {
	M   mode.Mode
	tag Tag
	i   *big.Int // valid for IsInt modes
	f   float64  // valid for IsFloat modes
	b   bool     // valid for mode.B
}

// Bad is the undefined tarval: the result of folding an operation whose
// inputs are not foldable. It absorbs into every arithmetic operation.
var Bad = Tarval{tag: TagBad}

// Unknown represents "not yet computed", distinct from Bad's "cannot ever
// be computed".
var Unknown = Tarval{tag: TagUnknown}

func (t Tarval) IsBad() bool     { return t.tag == TagBad }
func (t Tarval) IsUnknown() bool { return t.tag == TagUnknown }
func (t Tarval) IsConst() bool   { return t.tag == TagNormal }

// NewInt builds an integer constant of the given mode.
func NewInt(m mode.Mode, v int64) Tarval {
	return Tarval{M: m, i: big.NewInt(v)}
}

// NewBigInt builds an integer constant from an arbitrary-precision value,
// truncated (wrapped) to m's bit width the way the source's tarval layer
// always stores a width-normalized representation.
func NewBigInt(m mode.Mode, v *big.Int) Tarval {
	return Tarval{M: m, i: wrap(m, v)}
}

// NewFloat builds a floating-point constant.
func NewFloat(m mode.Mode, v float64) Tarval {
	return Tarval{M: m, f: v}
}

// True, False are the two bool-mode constants.
var (
	True  = Tarval{M: mode.B, b: true}
	False = Tarval{M: mode.B, b: false}
)

func NewBool(v bool) Tarval {
	if v {
		return True
	}
	return False
}

func wrap(m mode.Mode, v *big.Int) *big.Int {
	if m.Bits() == 0 {
		return new(big.Int).Set(v)
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(m.Bits()))
	r := new(big.Int).Mod(v, mask)
	if r.Sign() < 0 {
		r.Add(r, mask)
	}
	if m.IsSigned() {
		half := new(big.Int).Lsh(big.NewInt(1), uint(m.Bits()-1))
		if r.Cmp(half) >= 0 {
			r.Sub(r, mask)
		}
	}
	return r
}

// Int64 returns the value as an int64; only valid for integer tarvals.
func (t Tarval) Int64() int64 {
	if t.i == nil {
		return 0
	}
	return t.i.Int64()
}

func (t Tarval) Float() float64 { return t.f }
func (t Tarval) Bool() bool     { return t.b }

func (t Tarval) String() string {
	switch t.tag {
	case TagBad:
		return "<bad>"
	case TagUnknown:
		return "<unknown>"
	}
	switch {
	case t.M.IsInt():
		return t.i.String()
	case t.M.IsFloat():
		return fmt.Sprintf("%g", t.f)
	case t.M == mode.B:
		return fmt.Sprintf("%t", t.b)
	default:
		return "<tarval>"
	}
}

// Add folds a+b; returns Bad if either operand is Bad or the modes differ.
func Add(a, b Tarval) Tarval {
	if a.IsBad() || b.IsBad() || a.M != b.M {
		return Bad
	}
	switch {
	case a.M.IsInt():
		return NewBigInt(a.M, new(big.Int).Add(a.i, b.i))
	case a.M.IsFloat():
		return NewFloat(a.M, a.f+b.f)
	default:
		return Bad
	}
}

func Sub(a, b Tarval) Tarval {
	if a.IsBad() || b.IsBad() || a.M != b.M {
		return Bad
	}
	switch {
	case a.M.IsInt():
		return NewBigInt(a.M, new(big.Int).Sub(a.i, b.i))
	case a.M.IsFloat():
		return NewFloat(a.M, a.f-b.f)
	default:
		return Bad
	}
}

func Mul(a, b Tarval) Tarval {
	if a.IsBad() || b.IsBad() || a.M != b.M {
		return Bad
	}
	switch {
	case a.M.IsInt():
		return NewBigInt(a.M, new(big.Int).Mul(a.i, b.i))
	case a.M.IsFloat():
		return NewFloat(a.M, a.f*b.f)
	default:
		return Bad
	}
}

func Minus(a Tarval) Tarval {
	if a.IsBad() {
		return Bad
	}
	switch {
	case a.M.IsInt():
		return NewBigInt(a.M, new(big.Int).Neg(a.i))
	case a.M.IsFloat():
		return NewFloat(a.M, -a.f)
	default:
		return Bad
	}
}

// Cmp computes the relation between a and b (spec §4.2 Cmp / §4.6
// evaluating Cmp with Confirm uses this).
func Cmp(a, b Tarval) Relation {
	if a.IsBad() || b.IsBad() || a.M != b.M {
		return RelFalse
	}
	switch {
	case a.M.IsInt():
		switch a.i.Cmp(b.i) {
		case -1:
			return RelLess
		case 0:
			return RelEqual
		default:
			return RelGreater
		}
	case a.M.IsFloat():
		if isNaN(a.f) || isNaN(b.f) {
			return RelUnordered
		}
		switch {
		case a.f < b.f:
			return RelLess
		case a.f == b.f:
			return RelEqual
		default:
			return RelGreater
		}
	case a.M == mode.B:
		if a.b == b.b {
			return RelEqual
		}
		if !a.b && b.b {
			return RelLess
		}
		return RelGreater
	default:
		return RelFalse
	}
}

func isNaN(f float64) bool { return f != f }
