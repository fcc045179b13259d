// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "fmt"

// TypeError reports a protocol dispatch failure: no slot implements the
// requested operation for the operand types (spec.md §7).
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return "TypeError: " + e.Msg }

// BinOp names a binary numeric operator for dispatch and error messages.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpTrueDiv
	OpFloorDiv
	OpMod
	OpPow
	OpAnd
	OpOr
	OpXor
	OpLshift
	OpRshift
)

func slotFor(np *NumberProtocol, op BinOp) func(a, b *Object) (*Object, bool, error) {
	if np == nil {
		return nil
	}
	switch op {
	case OpAdd:
		return np.Add
	case OpSub:
		return np.Sub
	case OpMul:
		return np.Mul
	case OpTrueDiv:
		return np.TrueDiv
	case OpFloorDiv:
		return np.FloorDiv
	case OpMod:
		return np.Mod
	case OpPow:
		return np.Pow
	case OpAnd:
		return np.And
	case OpOr:
		return np.Or
	case OpXor:
		return np.Xor
	case OpLshift:
		return np.Lshift
	case OpRshift:
		return np.Rshift
	}
	return nil
}

func opName(op BinOp) string {
	return [...]string{"+", "-", "*", "/", "//", "%", "**", "&", "|", "^", "<<", ">>"}[op]
}

// BinaryOp implements spec.md §4.2's binary-operator dispatch: try the left
// operand's slot; if it returns NotImplemented (ok=false), try the right
// operand's slot UNLESS the right operand's type is a proper subclass of
// the left's, in which case the reflected slot is tried first (the standard
// "subclass-on-right gets priority" rule).
func BinaryOp(a, b *Object, op BinOp) (*Object, error) {
	var aSlot, bSlot func(a, b *Object) (*Object, bool, error)
	if a.Class != nil {
		aSlot = slotFor(a.Class.Slots.number(), op)
	}
	if b.Class != nil {
		bSlot = slotFor(b.Class.Slots.number(), op)
	}

	subclassRight := a.Class != b.Class && b.Class != nil && b.Class.IsSubtype(a.Class)

	try := func(slot func(a, b *Object) (*Object, bool, error), x, y *Object) (*Object, bool, error) {
		if slot == nil {
			return nil, false, nil
		}
		return slot(x, y)
	}

	if subclassRight {
		if res, ok, err := try(bSlot, b, a); err != nil || ok {
			return res, err
		}
		if res, ok, err := try(aSlot, a, b); err != nil || ok {
			return res, err
		}
	} else {
		if res, ok, err := try(aSlot, a, b); err != nil || ok {
			return res, err
		}
		if res, ok, err := try(bSlot, b, a); err != nil || ok {
			return res, err
		}
	}

	return nil, &TypeError{Msg: fmt.Sprintf("unsupported operand type(s) for %s: '%s' and '%s'", opName(op), typeName(a), typeName(b))}
}

func typeName(o *Object) string {
	if o.Class == nil {
		return "?"
	}
	return o.Class.Name
}

// number returns st.Number, tolerating a nil receiver so slotFor callers
// don't need an extra nil check at every call site.
func (st *SlotTable) number() *NumberProtocol {
	if st == nil {
		return nil
	}
	return st.Number
}

// Iter implements the iterator protocol's entry point: call the type's
// Iter.Iter slot, or fall back to treating the object itself as its own
// iterator if it already defines IterNext (spec.md §4.2 "iterator").
func Iter(o *Object) (*Object, error) {
	if o.Class != nil && o.Class.Slots != nil && o.Class.Slots.Iter != nil {
		if o.Class.Slots.Iter.Iter != nil {
			return o.Class.Slots.Iter.Iter(o)
		}
		if o.Class.Slots.Iter.IterNext != nil {
			return o, nil
		}
	}
	return nil, &TypeError{Msg: fmt.Sprintf("'%s' object is not iterable", typeName(o))}
}

// reflectCompareOp returns the operator that makes `b op' a` equivalent to
// `a op b` (RustPython's vm/src/protocol/object.rs `swapped` table): an
// equality test reflects onto itself, an ordering test flips direction.
func reflectCompareOp(op CompareOp) CompareOp {
	switch op {
	case CmpLT:
		return CmpGT
	case CmpLE:
		return CmpGE
	case CmpGT:
		return CmpLT
	case CmpGE:
		return CmpLE
	default:
		return op
	}
}

// ErrNoComparison is returned by RichCompare when neither operand's Cmp slot
// implements op. internal/pyobj owns the True/False singletons (this
// package can't import it without a cycle), so the == / != identity
// fallback CPython's default object.__eq__ performs, and the TypeError for
// an unimplemented ordering comparison, are both the caller's job; the
// caller need only compare err == ErrNoComparison.
var ErrNoComparison = &TypeError{Msg: "no comparison slot implements this operator"}

// RichCompare implements spec.md §4.2's six-operator rich comparison:
// subclass-on-right gets first try (mirroring BinaryOp), returning
// ErrNoComparison when neither operand's Cmp slot handles op.
func RichCompare(a, b *Object, op CompareOp) (*Object, error) {
	aCmp := func(x, y *Object, o CompareOp) (*Object, bool, error) {
		if x.Class == nil || x.Class.Slots == nil || x.Class.Slots.Cmp == nil {
			return nil, false, nil
		}
		return x.Class.Slots.Cmp(x, y, o)
	}

	subclassRight := a.Class != b.Class && b.Class != nil && a.Class != nil && b.Class.IsSubtype(a.Class)

	if subclassRight {
		if res, ok, err := aCmp(b, a, reflectCompareOp(op)); err != nil || ok {
			return res, err
		}
		if res, ok, err := aCmp(a, b, op); err != nil || ok {
			return res, err
		}
	} else {
		if res, ok, err := aCmp(a, b, op); err != nil || ok {
			return res, err
		}
		if res, ok, err := aCmp(b, a, reflectCompareOp(op)); err != nil || ok {
			return res, err
		}
	}

	return nil, ErrNoComparison
}

// CmpOpName renders op for TypeError messages.
func CmpOpName(op CompareOp) string {
	return [...]string{"<", "<=", "==", "!=", ">", ">="}[op]
}

// IterNext advances an iterator one step.
func IterNext(o *Object) (*Object, error) {
	if o.Class != nil && o.Class.Slots != nil && o.Class.Slots.Iter != nil && o.Class.Slots.Iter.IterNext != nil {
		return o.Class.Slots.Iter.IterNext(o)
	}
	return nil, &TypeError{Msg: fmt.Sprintf("'%s' object is not an iterator", typeName(o))}
}
