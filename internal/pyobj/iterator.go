// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/object"
)

// seqIteratorState is shared by tuple/dict/set iterators: a defensive
// snapshot slice plus a cursor.
type seqIteratorState struct {
	elems []*object.Object
	pos   int
}

// liveListIteratorState backs list iteration, which reads the live backing
// slice by index rather than a snapshot, per spec.md §4.3's relaxed
// concurrent-mutation guarantee.
type liveListIteratorState struct {
	list *listPayload
	pos  int
}

func (u *Universe) newSeqIterator(itype *object.Type, elems []*object.Object) *object.Object {
	return object.New(itype, &seqIteratorState{elems: elems})
}

func (u *Universe) newLiveListIterator(l *listPayload) *object.Object {
	return object.New(u.ListIterator, &liveListIteratorState{list: l})
}

// StopIterationSentinel is returned as the error from an exhausted
// iterator's IterNext slot; internal/vm translates it into a raised
// StopIteration exception instance using the interpreter's exc.Zoo.
var StopIterationSentinel = fmt.Errorf("StopIteration")

func (u *Universe) initIterators() {
	seqNext := func(self *object.Object) (*object.Object, error) {
		st := self.Payload.(*seqIteratorState)
		if st.pos >= len(st.elems) {
			return nil, StopIterationSentinel
		}
		v := st.elems[st.pos]
		st.pos++
		return v, nil
	}
	makeIterType := func(name string) *object.Type {
		t := object.NewType(name, []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
			Iter: &object.IterProtocol{
				Iter:     func(a *object.Object) (*object.Object, error) { return a, nil },
				IterNext: seqNext,
			},
		}, object.BaseType)
		mustMRO(t)
		return t
	}
	u.TupleIterator = makeIterType("tuple_iterator")
	u.DictIterator = makeIterType("dict_keyiterator")
	u.SetIterator = makeIterType("set_iterator")

	u.ListIterator = object.NewType("list_iterator", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) { return a, nil },
			IterNext: func(self *object.Object) (*object.Object, error) {
				st := self.Payload.(*liveListIteratorState)
				if st.pos >= len(st.list.elems) {
					return nil, StopIterationSentinel
				}
				v := st.list.elems[st.pos]
				st.pos++
				return v, nil
			},
		},
	}, object.BaseType)
	mustMRO(u.ListIterator)
}

// Drain collects every value out of a Python iterator into a Go slice
// (used by list(), tuple(), and property tests). It does not special-case
// generators; internal/vm's suspension machinery is a distinct concern from
// this plain eager iterator drain.
func Drain(o *object.Object) ([]*object.Object, error) {
	var out []*object.Object
	for {
		v, err := object.IterNext(o)
		if err == StopIterationSentinel {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}
