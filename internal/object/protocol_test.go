// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "testing"

func intLikeType(name string, add func(a, b *Object) (*Object, bool, error)) *Type {
	return NewType(name, nil, nil, &SlotTable{Number: &NumberProtocol{Add: add}}, 0)
}

func TestBinaryOpLeftSlotWins(t *testing.T) {
	leftCalled := false
	left := intLikeType("Left", func(a, b *Object) (*Object, bool, error) {
		leftCalled = true
		return marker("sum"), true, nil
	})
	right := intLikeType("Right", func(a, b *Object) (*Object, bool, error) {
		t.Fatal("right slot should not be called")
		return nil, false, nil
	})

	a := &Object{Class: left}
	b := &Object{Class: right}
	res, err := BinaryOp(a, b, OpAdd)
	if err != nil {
		t.Fatal(err)
	}
	if !leftCalled || res.Payload != "sum" {
		t.Fatal("left slot was not used")
	}
}

func TestBinaryOpFallsBackToReflected(t *testing.T) {
	left := intLikeType("Left", func(a, b *Object) (*Object, bool, error) {
		return nil, false, nil // NotImplemented
	})
	rightCalled := false
	right := intLikeType("Right", func(a, b *Object) (*Object, bool, error) {
		rightCalled = true
		return marker("reflected-sum"), true, nil
	})

	a := &Object{Class: left}
	b := &Object{Class: right}
	res, err := BinaryOp(a, b, OpAdd)
	if err != nil {
		t.Fatal(err)
	}
	if !rightCalled || res.Payload != "reflected-sum" {
		t.Fatal("reflected slot was not used as fallback")
	}
}

func TestBinaryOpSubclassRightGetsPriority(t *testing.T) {
	object := makeType("object")
	leftCalled, rightCalled := false, false
	base := NewType("Base", []*Type{object}, nil, &SlotTable{Number: &NumberProtocol{
		Add: func(a, b *Object) (*Object, bool, error) { leftCalled = true; return marker("base"), true, nil },
	}}, 0)
	_ = RecomputeMRO(base)
	sub := NewType("Sub", []*Type{base}, nil, &SlotTable{Number: &NumberProtocol{
		Add: func(a, b *Object) (*Object, bool, error) { rightCalled = true; return marker("sub"), true, nil },
	}}, 0)
	_ = RecomputeMRO(sub)

	a := &Object{Class: base}
	b := &Object{Class: sub}
	res, err := BinaryOp(a, b, OpAdd)
	if err != nil {
		t.Fatal(err)
	}
	if !rightCalled || leftCalled {
		t.Fatal("subclass-on-right did not get priority")
	}
	if res.Payload != "sub" {
		t.Fatalf("result = %v, want sub's result", res.Payload)
	}
}

func TestBinaryOpNeitherImplementsRaisesTypeError(t *testing.T) {
	left := intLikeType("Left", func(a, b *Object) (*Object, bool, error) { return nil, false, nil })
	right := intLikeType("Right", func(a, b *Object) (*Object, bool, error) { return nil, false, nil })
	_, err := BinaryOp(&Object{Class: left}, &Object{Class: right}, OpAdd)
	if err == nil {
		t.Fatal("expected TypeError")
	}
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %T", err)
	}
}

func TestIterProtocolSelfIteration(t *testing.T) {
	typ := NewType("Counter", nil, nil, &SlotTable{Iter: &IterProtocol{
		IterNext: func(o *Object) (*Object, error) { return marker("next"), nil },
	}}, 0)
	o := &Object{Class: typ}
	it, err := Iter(o)
	if err != nil {
		t.Fatal(err)
	}
	if it != o {
		t.Fatal("object with only IterNext should be its own iterator")
	}
	v, err := IterNext(it)
	if err != nil {
		t.Fatal(err)
	}
	if v.Payload != "next" {
		t.Fatalf("IterNext = %v", v.Payload)
	}
}
