// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"math/big"
	"strconv"
	"testing"

	"pygo/internal/hashseed"
)

func TestIntStrRoundTrip(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	for _, n := range []int64{0, 1, -1, 12345, -987654321} {
		obj := u.NewIntFromInt64(n)
		r, err := reprOf(obj)
		if err != nil {
			t.Fatal(err)
		}
		got, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			t.Fatalf("repr %q did not parse back: %v", r, err)
		}
		if got != n {
			t.Fatalf("int(str(n)) == n violated: n=%d got=%d", n, got)
		}
	}
}

func TestBoolIsIntSubclassWithSingletons(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	if !u.Bool.IsSubtype(u.Int) {
		t.Fatal("bool must be a subtype of int")
	}
	if u.Bool_(true) != u.True || u.Bool_(false) != u.False {
		t.Fatal("Bool_ must return the canonical singletons")
	}
}

func TestFloatIntHashCompatibility(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	fv := u.NewFloat(42.0)
	iv := u.NewIntFromInt64(42)
	fh, err := u.hashOf(fv)
	if err != nil {
		t.Fatal(err)
	}
	ih, err := u.hashOf(iv)
	if err != nil {
		t.Fatal(err)
	}
	if fh != ih {
		t.Fatalf("hash(42.0) == hash(42) violated: %d != %d", fh, ih)
	}
}

func TestIntAddBigValues(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	big1 := u.NewInt(new(big.Int).Lsh(big.NewInt(1), 200))
	np := u.Int.Slots.Number
	sum, ok, err := np.Add(big1, big1)
	if err != nil || !ok {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
	n, _ := asBigInt(sum)
	want := new(big.Int).Lsh(big.NewInt(1), 201)
	if n.Cmp(want) != 0 {
		t.Fatalf("got %s want %s", n.String(), want.String())
	}
}

func TestIntFloorDivByZeroRaises(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	np := u.Int.Slots.Number
	_, _, err := np.FloorDiv(u.NewIntFromInt64(1), u.NewIntFromInt64(0))
	if err == nil {
		t.Fatal("want ZeroDivisionError")
	}
}
