// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"
	"strings"

	"pygo/internal/object"
)

// listPayload is a mutable sequence with amortized O(1) append (spec.md
// §4.3). Boxed behind a pointer so every *object.Object sharing this
// payload (there is exactly one owner per list, but Go slices alias) sees
// mutations uniformly.
type listPayload struct {
	elems []*object.Object
}

// NewList wraps elems as a Python list.
func (u *Universe) NewList(elems []*object.Object) *object.Object {
	return u.track(object.New(u.List, &listPayload{elems: append([]*object.Object(nil), elems...)}))
}

func asList(o *object.Object) (*listPayload, bool) {
	l, ok := o.Payload.(*listPayload)
	return l, ok
}

func (u *Universe) initList() {
	u.List = object.NewType("list", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			l, _ := asList(self)
			parts := make([]string, len(l.elems))
			for i, e := range l.elems {
				r, err := reprOf(e)
				if err != nil {
					return "", err
				}
				parts[i] = r
			}
			return "[" + strings.Join(parts, ", ") + "]", nil
		},
		Sequence: &object.SequenceProtocol{
			Length: func(a *object.Object) (int, error) { l, _ := asList(a); return len(l.elems), nil },
			Item: func(a *object.Object, i int) (*object.Object, error) {
				l, _ := asList(a)
				if i < 0 || i >= len(l.elems) {
					return nil, fmt.Errorf("IndexError: list index out of range")
				}
				return l.elems[i], nil
			},
			AssItem: func(a *object.Object, i int, v *object.Object) error {
				l, _ := asList(a)
				if i < 0 || i >= len(l.elems) {
					return fmt.Errorf("IndexError: list assignment index out of range")
				}
				l.elems[i] = v
				return nil
			},
			Concat: func(a, b *object.Object) (*object.Object, error) {
				al, _ := asList(a)
				bl, _ := asList(b)
				return u.NewList(append(append([]*object.Object(nil), al.elems...), bl.elems...)), nil
			},
		},
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) {
				l, _ := asList(a)
				// Snapshot semantics deliberately loose per spec.md §4.3:
				// "a concurrent resize during iteration is permitted but
				// may yield garbage -- no safety guarantee beyond does not
				// crash the interpreter." We iterate the live backing
				// slice by index rather than a defensive copy.
				return u.newLiveListIterator(l), nil
			},
		},
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			l, _ := asList(self)
			for _, e := range l.elems {
				visit(e)
			}
		},
		Clear: func(self *object.Object) {
			l, _ := asList(self)
			l.elems = nil
		},
	}, object.BaseType|object.HasDict)
	mustMRO(u.List)
}

// Append implements list.append, amortized O(1) via Go's own slice growth.
func (u *Universe) ListAppend(self *object.Object, v *object.Object) {
	l, _ := asList(self)
	l.elems = append(l.elems, v)
}

// Len returns the current element count, for VM fast paths that want to
// avoid going through the protocol dispatch.
func (u *Universe) ListLen(self *object.Object) int {
	l, _ := asList(self)
	return len(l.elems)
}
