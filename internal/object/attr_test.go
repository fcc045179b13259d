// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "testing"

// simpleDict is a minimal AttrStore for tests (the real implementation
// lives in internal/pyobj.Dict).
type simpleDict struct{ m map[string]*Object }

func newSimpleDict() AttrStore { return &simpleDict{m: map[string]*Object{}} }

func (d *simpleDict) GetAttr(name string) (*Object, bool) { v, ok := d.m[name]; return v, ok }
func (d *simpleDict) SetAttr(name string, v *Object)       { d.m[name] = v }
func (d *simpleDict) DelAttr(name string) bool {
	if _, ok := d.m[name]; !ok {
		return false
	}
	delete(d.m, name)
	return true
}
func (d *simpleDict) Keys() []string {
	out := make([]string, 0, len(d.m))
	for k := range d.m {
		out = append(out, k)
	}
	return out
}

func marker(name string) *Object {
	return &Object{Payload: name}
}

func TestGetAttrInstanceDictBeatsNonDataDescriptor(t *testing.T) {
	object := makeType("object")
	classAttrs := newSimpleDict()
	nonData := &Object{Class: NewType("nondata", nil, nil, &SlotTable{
		DescrGet: func(self, instance *Object, owner *Type) (*Object, error) {
			return marker("from-descriptor"), nil
		},
	}, 0)}
	classAttrs.SetAttr("x", nonData)

	cls := NewType("C", []*Type{object}, classAttrs, nil, HasDict)
	if err := RecomputeMRO(cls); err != nil {
		t.Fatal(err)
	}

	inst := New(cls, nil)
	inst.EnsureDict(newSimpleDict).SetAttr("x", marker("from-instance"))

	v, err := GetAttr(inst, "x")
	if err != nil {
		t.Fatal(err)
	}
	if v.Payload != "from-instance" {
		t.Fatalf("GetAttr = %v, want instance value to win over non-data descriptor", v.Payload)
	}
}

func TestGetAttrDataDescriptorBeatsInstanceDict(t *testing.T) {
	object := makeType("object")
	classAttrs := newSimpleDict()
	data := &Object{Class: NewType("data", nil, nil, &SlotTable{
		DescrGet: func(self, instance *Object, owner *Type) (*Object, error) {
			return marker("from-data-descriptor"), nil
		},
		DescrSet: func(self *Object, instance *Object, val *Object) error { return nil },
	}, 0)}
	classAttrs.SetAttr("x", data)

	cls := NewType("C", []*Type{object}, classAttrs, nil, HasDict)
	if err := RecomputeMRO(cls); err != nil {
		t.Fatal(err)
	}

	inst := New(cls, nil)
	inst.EnsureDict(newSimpleDict).SetAttr("x", marker("from-instance"))

	v, err := GetAttr(inst, "x")
	if err != nil {
		t.Fatal(err)
	}
	if v.Payload != "from-data-descriptor" {
		t.Fatalf("GetAttr = %v, want data descriptor to win", v.Payload)
	}
}

func TestGetAttrFallsBackToGetAttrHook(t *testing.T) {
	object := makeType("object")
	cls := NewType("C", []*Type{object}, newSimpleDict(), &SlotTable{
		GetAttr: func(self *Object, name string) (*Object, error) {
			return marker("dynamic:" + name), nil
		},
	}, 0)
	if err := RecomputeMRO(cls); err != nil {
		t.Fatal(err)
	}
	inst := New(cls, nil)
	v, err := GetAttr(inst, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if v.Payload != "dynamic:missing" {
		t.Fatalf("GetAttr = %v, want __getattr__ fallback result", v.Payload)
	}
}

func TestGetAttrRaisesAttributeError(t *testing.T) {
	object := makeType("object")
	cls := NewType("C", []*Type{object}, newSimpleDict(), nil, 0)
	if err := RecomputeMRO(cls); err != nil {
		t.Fatal(err)
	}
	inst := New(cls, nil)
	_, err := GetAttr(inst, "missing")
	if err == nil {
		t.Fatal("expected AttributeError")
	}
	if _, ok := err.(*AttributeError); !ok {
		t.Fatalf("expected *AttributeError, got %T", err)
	}
}
