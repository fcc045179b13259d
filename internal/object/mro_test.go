// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"reflect"
	"testing"
)

// makeType builds a bare type for MRO tests: no slots, no attrs, just bases.
func makeType(name string, bases ...*Type) *Type {
	t := NewType(name, bases, nil, nil, BaseType)
	if err := RecomputeMRO(t); err != nil {
		panic(err)
	}
	return t
}

func names(ts []*Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

// TestDiamondMRO reproduces spec.md §8 scenario 4: D(B, C), B(A), C(A).
func TestDiamondMRO(t *testing.T) {
	object := makeType("object")
	a := makeType("A", object)
	b := makeType("B", a)
	c := makeType("C", a)
	d := makeType("D", b, c)

	got := names(d.MRO)
	want := []string{"D", "B", "C", "A", "object"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MRO(D) = %v, want %v", got, want)
	}
}

func TestMROStartsWithSelfAndIsUnique(t *testing.T) {
	object := makeType("object")
	a := makeType("A", object)
	b := makeType("B", object)
	c := makeType("C", a, b)

	if c.MRO[0] != c {
		t.Fatalf("MRO does not start with the type itself: %v", names(c.MRO))
	}
	seen := map[*Type]bool{}
	for _, m := range c.MRO {
		if seen[m] {
			t.Fatalf("MRO contains %s more than once: %v", m.Name, names(c.MRO))
		}
		seen[m] = true
	}
}

func TestInconsistentMROFails(t *testing.T) {
	object := makeType("object")
	x := makeType("X", object)
	y := makeType("Y", object)
	// A(X, Y), B(Y, X): merging requires X before Y and Y before X.
	a := NewType("A", []*Type{x, y}, nil, nil, BaseType)
	if err := RecomputeMRO(a); err != nil {
		t.Fatal(err)
	}
	b := NewType("B", []*Type{y, x}, nil, nil, BaseType)
	if err := RecomputeMRO(b); err != nil {
		t.Fatal(err)
	}
	bad := NewType("Bad", []*Type{a, b}, nil, nil, BaseType)
	err := RecomputeMRO(bad)
	if err == nil {
		t.Fatal("expected linearization failure for inconsistent bases")
	}
	if _, ok := err.(*LinearizeError); !ok {
		t.Fatalf("expected *LinearizeError, got %T", err)
	}
}

func TestRecomputeMROPropagatesToSubclasses(t *testing.T) {
	object := makeType("object")
	a := makeType("A", object)
	b := makeType("B", a)

	newBase := makeType("NewBase")
	if err := SetBases(a, []*Type{newBase}); err != nil {
		t.Fatal(err)
	}
	if got := names(b.MRO); got[len(got)-1] == "object" {
		// NewBase has no "object" ancestor so subclass B's MRO must no
		// longer end in "object".
		t.Fatalf("subclass MRO not recomputed after SetBases: %v", got)
	}
}
