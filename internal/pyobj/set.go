// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"strings"

	"pygo/internal/object"
)

// setPayload is a hash-based collection, reusing Dict's hash table with
// unit values (spec.md §4.3 "set/frozenset: hash-based; frozenset
// hashable").
type setPayload struct {
	d *Dict
}

func asSet(o *object.Object) (*setPayload, bool) {
	s, ok := o.Payload.(*setPayload)
	return s, ok
}

// NewSet builds a mutable set from elems (duplicates collapse).
func (u *Universe) NewSet(elems []*object.Object) (*object.Object, error) {
	return u.newSetLike(u.Set, elems)
}

// NewFrozenSet builds an immutable, hashable frozenset from elems.
func (u *Universe) NewFrozenSet(elems []*object.Object) (*object.Object, error) {
	return u.newSetLike(u.FrozenSet, elems)
}

func (u *Universe) newSetLike(typ *object.Type, elems []*object.Object) (*object.Object, error) {
	d := NewDict(u)
	for _, e := range elems {
		if err := d.SetItem(e, u.None); err != nil {
			return nil, err
		}
	}
	return u.track(object.New(typ, &setPayload{d: d})), nil
}

func (u *Universe) setRepr(self *object.Object) (string, error) {
	s, _ := asSet(self)
	items := s.d.Items()
	if len(items) == 0 {
		if self.Class == u.FrozenSet {
			return "frozenset()", nil
		}
		return "set()", nil
	}
	parts := make([]string, len(items))
	for i, kv := range items {
		r, err := reprOf(kv[0])
		if err != nil {
			return "", err
		}
		parts[i] = r
	}
	body := "{" + strings.Join(parts, ", ") + "}"
	if self.Class == u.FrozenSet {
		return "frozenset(" + body + ")", nil
	}
	return body, nil
}

func (u *Universe) initSet() {
	common := &object.SlotTable{
		Repr: u.setRepr,
		Sequence: &object.SequenceProtocol{
			Length: func(a *object.Object) (int, error) { s, _ := asSet(a); return s.d.Len(), nil },
			Contains: func(a, v *object.Object) (bool, error) {
				s, _ := asSet(a)
				_, ok, err := s.d.GetItem(v)
				return ok, err
			},
		},
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) {
				s, _ := asSet(a)
				keys := make([]*object.Object, 0, s.d.Len())
				for _, kv := range s.d.Items() {
					keys = append(keys, kv[0])
				}
				return u.newSeqIterator(u.SetIterator, keys), nil
			},
		},
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			s, _ := asSet(self)
			for _, kv := range s.d.Items() {
				visit(kv[0])
			}
		},
		Clear: func(self *object.Object) {
			s, _ := asSet(self)
			s.d.Clear()
		},
	}

	u.Set = object.NewType("set", []*object.Type{u.Object}, newClassDict(), common, object.BaseType)
	mustMRO(u.Set)

	frozenSlots := *common
	frozenSlots.Hash = func(self *object.Object) (uint64, error) {
		s, _ := asSet(self)
		h := uint64(0)
		for _, kv := range s.d.Items() {
			eh, err := u.hashOf(kv[0])
			if err != nil {
				return 0, err
			}
			h ^= eh // XOR: order-independent, matching frozenset's hash contract
		}
		return h, nil
	}
	u.FrozenSet = object.NewType("frozenset", []*object.Type{u.Object}, newClassDict(), &frozenSlots, object.BaseType|object.ImmutableType)
	mustMRO(u.FrozenSet)
}

// SetAdd implements set.add (absent on frozenset, enforced by the compiler/
// VM's attribute lookup finding no such method on FrozenSet's class dict).
func (u *Universe) SetAdd(self *object.Object, v *object.Object) error {
	s, _ := asSet(self)
	return s.d.SetItem(v, u.None)
}
