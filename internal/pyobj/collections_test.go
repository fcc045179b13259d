// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"testing"

	"pygo/internal/hashseed"
	"pygo/internal/object"
)

func TestTupleHashStableAcrossListRoundTrip(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	elems := []*object.Object{u.NewIntFromInt64(1), u.NewIntFromInt64(2), u.NewIntFromInt64(3)}
	original := u.NewTuple(elems)

	l := u.NewList(nil)
	for _, e := range elems {
		u.ListAppend(l, e)
	}
	drained, err := Drain(mustIter(t, u, l))
	if err != nil {
		t.Fatal(err)
	}
	roundTripped := u.NewTuple(drained)

	h1, err := u.hashOf(original)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := u.hashOf(roundTripped)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatalf("hash(t) == hash(tuple(list(t))) violated: %d != %d", h1, h2)
	}
}

func mustIter(t *testing.T, u *Universe, o *object.Object) *object.Object {
	t.Helper()
	it, err := object.Iter(o)
	if err != nil {
		t.Fatal(err)
	}
	return it
}

func TestListAppendAndLen(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	l := u.NewList(nil)
	for i := int64(0); i < 5; i++ {
		u.ListAppend(l, u.NewIntFromInt64(i))
	}
	if n := u.ListLen(l); n != 5 {
		t.Fatalf("want len 5, got %d", n)
	}
}

func TestDictInsertionOrderPreserved(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	d := NewDict(u)
	keys := []string{"z", "a", "m"}
	for _, k := range keys {
		if err := d.SetItem(u.NewStr(k), u.None); err != nil {
			t.Fatal(err)
		}
	}
	items := d.Items()
	if len(items) != 3 {
		t.Fatalf("want 3 items, got %d", len(items))
	}
	for i, k := range keys {
		s, _ := asStr(items[i][0])
		if s != k {
			t.Fatalf("insertion order not preserved: position %d want %q got %q", i, k, s)
		}
	}
}

func TestDictKeyErrorOnMissingKey(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	d := NewDict(u)
	if _, ok, err := d.GetItem(u.NewStr("missing")); ok || err != nil {
		t.Fatalf("want ok=false err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestSetDeduplicatesAndMembership(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	s, err := u.NewSet([]*object.Object{u.NewIntFromInt64(1), u.NewIntFromInt64(1), u.NewIntFromInt64(2)})
	if err != nil {
		t.Fatal(err)
	}
	sp, _ := asSet(s)
	if sp.d.Len() != 2 {
		t.Fatalf("want 2 distinct elements, got %d", sp.d.Len())
	}
	ok, err := s.Class.Slots.Sequence.Contains(s, u.NewIntFromInt64(2))
	if err != nil || !ok {
		t.Fatalf("want membership true, got ok=%v err=%v", ok, err)
	}
}

func TestFrozenSetHashIsOrderIndependent(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	a, err := u.NewFrozenSet([]*object.Object{u.NewIntFromInt64(1), u.NewIntFromInt64(2)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := u.NewFrozenSet([]*object.Object{u.NewIntFromInt64(2), u.NewIntFromInt64(1)})
	if err != nil {
		t.Fatal(err)
	}
	ha, err := u.hashOf(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := u.hashOf(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Fatalf("frozenset hash must be order-independent: %d != %d", ha, hb)
	}
}

func TestBytesAndByteArrayDistinctMutability(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	b := u.NewBytes([]byte("abc"))
	if !b.Class.HasFlag(object.ImmutableType) {
		t.Fatal("bytes must be immutable")
	}
	ba := u.NewByteArray([]byte("abc"))
	if ba.Class.HasFlag(object.ImmutableType) {
		t.Fatal("bytearray must be mutable")
	}
}
