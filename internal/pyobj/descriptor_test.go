// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"testing"

	"pygo/internal/hashseed"
	"pygo/internal/object"
)

func TestPropertyGetterSetterDeleter(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	var stored *object.Object = u.NewIntFromInt64(1)

	getter := u.NewNativeFunction("get", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
		return stored, nil
	})
	setter := u.NewNativeFunction("set", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
		stored = args[1]
		return u.None, nil
	})
	prop := u.NewProperty(getter, setter, nil, "")

	inst := object.New(u.Object, nil)
	got, err := prop.Class.Slots.DescrGet(prop, inst, u.Object)
	if err != nil {
		t.Fatal(err)
	}
	if got != stored {
		t.Fatal("property getter did not return backing value")
	}

	if err := prop.Class.Slots.DescrSet(prop, inst, u.NewIntFromInt64(42)); err != nil {
		t.Fatal(err)
	}
	n, _ := asBigInt(stored)
	if n.Int64() != 42 {
		t.Fatalf("property setter did not update backing value, got %s", n.String())
	}
}

func TestPropertyWithoutSetterRaises(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	getter := u.NewNativeFunction("get", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
		return u.None, nil
	})
	prop := u.NewProperty(getter, nil, nil, "")
	inst := object.New(u.Object, nil)
	if err := prop.Class.Slots.DescrSet(prop, inst, u.NewIntFromInt64(1)); err == nil {
		t.Fatal("want AttributeError when fset is nil")
	}
}

func TestWeakRefDereferenceAndClear(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	target := object.New(u.Object, nil)
	ref := u.NewWeakRef(target, nil)

	deref, err := ref.Class.Slots.Call(ref, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if deref != target {
		t.Fatal("live weakref must dereference to target")
	}

	target.WeakHead().Clear()
	deref, err = ref.Class.Slots.Call(ref, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if deref != u.None {
		t.Fatal("dead weakref.ref() must return None")
	}
}

func TestWeakProxyRaisesReferenceErrorWhenDead(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	target := object.New(u.Object, nil)
	proxy := u.NewWeakProxy(target, nil)
	target.WeakHead().Clear()
	if _, err := object.GetAttr(proxy, "whatever"); err == nil {
		t.Fatal("want ReferenceError once referent is gone")
	}
}

func TestWeakRefCallbackFiresOnClear(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	target := object.New(u.Object, nil)
	fired := false
	cb := u.NewNativeFunction("cb", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
		fired = true
		return u.None, nil
	})
	u.NewWeakRef(target, cb)
	target.WeakHead().Clear()
	if !fired {
		t.Fatal("weakref callback must fire when the referent dies")
	}
}

func TestUnionFlattensAndDedupes(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	ab := u.NewUnion(u.Int, u.Str)
	abc := u.UnionOfObject(ab, u.Float)
	again := u.UnionOfObject(abc, u.Int) // duplicate, should not grow

	p, _ := asUnion(again)
	if len(p.members) != 3 {
		t.Fatalf("want 3 deduplicated members, got %d: %v", len(p.members), p.members)
	}
}

func TestUnionNoneNormalizesToNoneType(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	un := u.NewUnion(u.Int, nil)
	p, _ := asUnion(un)
	found := false
	for _, m := range p.members {
		if m == u.NoneType {
			found = true
		}
	}
	if !found {
		t.Fatal("bare None operand must normalize to NoneType")
	}
}

func TestMappingProxyIsReadOnly(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	d := NewDict(u)
	_ = d.SetItem(u.NewStr("a"), u.NewIntFromInt64(1))
	proxy := u.NewMappingProxy(d)
	err := proxy.Class.Slots.Mapping.AssSubscript(proxy, u.NewStr("b"), u.NewIntFromInt64(2))
	if err == nil {
		t.Fatal("mappingproxy must reject item assignment")
	}
}

func TestMappingProxyOrMergeProducesDict(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	d1 := NewDict(u)
	_ = d1.SetItem(u.NewStr("a"), u.NewIntFromInt64(1))
	d2 := NewDict(u)
	_ = d2.SetItem(u.NewStr("b"), u.NewIntFromInt64(2))

	proxy := u.NewMappingProxy(d1)
	merged, ok, err := proxy.Class.Slots.Number.Or(proxy, object.New(u.Dict, d2))
	if err != nil || !ok {
		t.Fatalf("want merge to succeed, ok=%v err=%v", ok, err)
	}
	if merged.Class != u.Dict {
		t.Fatal("mappingproxy | dict must produce a plain dict")
	}
	md, _ := asDict(merged)
	if md.Len() != 2 {
		t.Fatalf("want 2 merged keys, got %d", md.Len())
	}
}

func TestSuperSkipsOwnTypeInMRO(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	base := object.NewType("Base", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{}, object.BaseType)
	baseDictAttr := u.NewNativeFunction("greet", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
		return u.NewStr("base"), nil
	})
	base.Attrs.SetAttr("greet", baseDictAttr)
	mustMRO(base)

	mid := object.NewType("Mid", []*object.Type{base}, newClassDict(), &object.SlotTable{}, object.BaseType)
	mustMRO(mid)

	instance := object.New(mid, nil)
	sup := u.NewSuper(mid, instance)
	v, err := sup.Class.Slots.GetAttr(sup, "greet")
	if err != nil {
		t.Fatal(err)
	}
	bm, ok := v.Payload.(*boundMethodPayload)
	if !ok {
		t.Fatalf("want a bound method from super().greet, got %T", v.Payload)
	}
	if bm.self != instance {
		t.Fatal("super-bound method must bind to the original instance")
	}
}
