// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"math"
	"math/big"
	"strconv"

	"pygo/internal/object"
)

// NewFloat wraps f as a Python float object (IEEE-754 double, per spec.md
// §4.3).
func (u *Universe) NewFloat(f float64) *object.Object {
	return object.New(u.Float, f)
}

func asFloat(o *object.Object) (float64, bool) {
	f, ok := o.Payload.(float64)
	return f, ok
}

// floatHash reproduces intHash's reduction for a float that happens to be
// integral, so hash(1) == hash(1.0), satisfying spec.md §4.3 "hash
// compatible with int for equal values". Non-integral floats hash their own
// bit pattern.
func floatHash(f float64) uint64 {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		bi, _ := big.NewFloat(f).Int(nil)
		return intHash(bi)
	}
	return math.Float64bits(f)
}

func (u *Universe) initFloat() {
	u.Float = object.NewType("float", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			f, _ := asFloat(self)
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		},
		Hash: func(self *object.Object) (uint64, error) {
			f, _ := asFloat(self)
			return floatHash(f), nil
		},
		Cmp: func(a, b *object.Object, op object.CompareOp) (*object.Object, bool, error) {
			af, aok := asFloat(a)
			bf, bok := asFloat(b)
			if !aok || !bok {
				return nil, false, nil
			}
			var result bool
			switch op {
			case object.CmpLT:
				result = af < bf
			case object.CmpLE:
				result = af <= bf
			case object.CmpEQ:
				result = af == bf
			case object.CmpNE:
				result = af != bf
			case object.CmpGT:
				result = af > bf
			case object.CmpGE:
				result = af >= bf
			}
			return u.Bool_(result), true, nil
		},
		Number: u.floatNumberProtocol(),
	}, object.BaseType)
	mustMRO(u.Float)
}

func (u *Universe) floatNumberProtocol() *object.NumberProtocol {
	toF := func(o *object.Object) (float64, bool) {
		if f, ok := asFloat(o); ok {
			return f, true
		}
		if n, ok := asBigInt(o); ok {
			f := new(big.Float).SetInt(n)
			v, _ := f.Float64()
			return v, true
		}
		return 0, false
	}
	bin := func(f func(x, y float64) float64) func(a, b *object.Object) (*object.Object, bool, error) {
		return func(a, b *object.Object) (*object.Object, bool, error) {
			x, xok := toF(a)
			y, yok := toF(b)
			if !xok || !yok {
				return nil, false, nil
			}
			return u.NewFloat(f(x, y)), true, nil
		}
	}
	return &object.NumberProtocol{
		Add:      bin(func(x, y float64) float64 { return x + y }),
		Sub:      bin(func(x, y float64) float64 { return x - y }),
		Mul:      bin(func(x, y float64) float64 { return x * y }),
		TrueDiv:  bin(func(x, y float64) float64 { return x / y }),
		FloorDiv: bin(func(x, y float64) float64 { return math.Floor(x / y) }),
		Mod:      bin(math.Mod),
		Pow:      bin(math.Pow),
		Neg: func(a *object.Object) (*object.Object, error) {
			f, _ := asFloat(a)
			return u.NewFloat(-f), nil
		},
		Pos: func(a *object.Object) (*object.Object, error) { return a, nil },
		Abs: func(a *object.Object) (*object.Object, error) {
			f, _ := asFloat(a)
			return u.NewFloat(math.Abs(f)), nil
		},
		Bool: func(a *object.Object) (bool, error) {
			f, _ := asFloat(a)
			return f != 0, nil
		},
	}
}
