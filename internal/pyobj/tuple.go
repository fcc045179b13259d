// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"
	"strings"

	"pygo/internal/object"
)

// NewTuple wraps an immutable sequence (spec.md §4.3 "tuple: immutable
// sequence; hashes if all elements hash").
func (u *Universe) NewTuple(elems []*object.Object) *object.Object {
	cp := append([]*object.Object(nil), elems...)
	return u.track(object.New(u.Tuple, cp))
}

func asTuple(o *object.Object) ([]*object.Object, bool) {
	t, ok := o.Payload.([]*object.Object)
	return t, ok
}

func (u *Universe) hashOf(o *object.Object) (uint64, error) {
	if o.Class == nil || o.Class.Slots == nil || o.Class.Slots.Hash == nil {
		return 0, fmt.Errorf("TypeError: unhashable type: '%s'", typeNameOf(o))
	}
	return o.Class.Slots.Hash(o)
}

func typeNameOf(o *object.Object) string {
	if o.Class == nil {
		return "?"
	}
	return o.Class.Name
}

// tupleHash combines element hashes order-sensitively, so hash((1,2)) !=
// hash((2,1)) but spec.md §8's `hash(t) == hash(tuple(list(t)))` property
// holds for any permutation-preserving round-trip.
func tupleHash(elemHashes []uint64) uint64 {
	h := uint64(0x345678)
	for i, eh := range elemHashes {
		h ^= (eh + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)) * uint64(1000003-i%97)
	}
	return h
}

func (u *Universe) initTuple() {
	u.Tuple = object.NewType("tuple", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			elems, _ := asTuple(self)
			parts := make([]string, len(elems))
			for i, e := range elems {
				r, err := reprOf(e)
				if err != nil {
					return "", err
				}
				parts[i] = r
			}
			if len(elems) == 1 {
				return "(" + parts[0] + ",)", nil
			}
			return "(" + strings.Join(parts, ", ") + ")", nil
		},
		Hash: func(self *object.Object) (uint64, error) {
			elems, _ := asTuple(self)
			hs := make([]uint64, len(elems))
			for i, e := range elems {
				h, err := u.hashOf(e)
				if err != nil {
					return 0, err
				}
				hs[i] = h
			}
			return tupleHash(hs), nil
		},
		Sequence: &object.SequenceProtocol{
			Length: func(a *object.Object) (int, error) { t, _ := asTuple(a); return len(t), nil },
			Item: func(a *object.Object, i int) (*object.Object, error) {
				t, _ := asTuple(a)
				if i < 0 || i >= len(t) {
					return nil, fmt.Errorf("IndexError: tuple index out of range")
				}
				return t[i], nil
			},
			Concat: func(a, b *object.Object) (*object.Object, error) {
				at, _ := asTuple(a)
				bt, _ := asTuple(b)
				out := append(append([]*object.Object(nil), at...), bt...)
				return u.NewTuple(out), nil
			},
		},
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) {
				elems, _ := asTuple(a)
				return u.newSeqIterator(u.TupleIterator, elems), nil
			},
		},
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			elems, _ := asTuple(self)
			for _, e := range elems {
				visit(e)
			}
		},
		// Clear only ever runs once the cycle collector has proven self
		// unreachable (spec.md §4.10): overwriting Payload in place is safe
		// even though tuple is otherwise ImmutableType, since nothing can
		// observe self again afterward.
		Clear: func(self *object.Object) {
			self.Payload = []*object.Object(nil)
		},
	}, object.BaseType|object.ImmutableType)
	mustMRO(u.Tuple)
}

func reprOf(o *object.Object) (string, error) {
	if o.Class == nil || o.Class.Slots == nil || o.Class.Slots.Repr == nil {
		return "<?>", nil
	}
	return o.Class.Slots.Repr(o)
}
