// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"
	"strings"

	"pygo/internal/object"
)

// entry is one insertion-ordered dict slot.
type entry struct {
	key, val *object.Object
	deleted  bool
}

// Dict is pygo's insertion-ordered mapping (spec.md §4.3 "dict: insertion-
// ordered mapping; average O(1) lookup; supports fast interned-string key
// path"). It implements object.AttrStore directly so the same type can back
// both a real `dict` object and an instance/class __dict__, avoiding a
// second mapping implementation (SPEC_FULL.md keeps spec.md's C2/C3 split
// but there is no reason to duplicate the hash table).
type Dict struct {
	u        *Universe
	entries  []entry
	index    map[uint64][]int // hash -> candidate entry indices
	strFast  map[string]int   // interned-string key fast path (spec.md §4.2)
}

// NewDict creates an empty dict owned by u. u may be nil for a bootstrap
// class dict created before the universe finishes constructing itself
// (string keys only, used for class attribute tables).
func NewDict(u *Universe) *Dict {
	return &Dict{u: u, index: make(map[uint64][]int), strFast: make(map[string]int)}
}

// GetAttr/SetAttr/DelAttr/Keys implement object.AttrStore over the
// interned-string fast path, used when Dict backs an instance/class dict.
func (d *Dict) GetAttr(name string) (*object.Object, bool) {
	i, ok := d.strFast[name]
	if !ok || d.entries[i].deleted {
		return nil, false
	}
	return d.entries[i].val, true
}

func (d *Dict) SetAttr(name string, v *object.Object) {
	if i, ok := d.strFast[name]; ok && !d.entries[i].deleted {
		d.entries[i].val = v
		return
	}
	d.strFast[name] = len(d.entries)
	var key *object.Object
	if d.u != nil {
		key = d.u.NewStr(name)
	} else {
		key = &object.Object{Payload: name}
	}
	d.entries = append(d.entries, entry{key: key, val: v})
}

func (d *Dict) DelAttr(name string) bool {
	i, ok := d.strFast[name]
	if !ok || d.entries[i].deleted {
		return false
	}
	d.entries[i].deleted = true
	delete(d.strFast, name)
	return true
}

func (d *Dict) Keys() []string {
	out := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		if e.deleted {
			continue
		}
		if s, ok := e.key.Payload.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// GetItem/SetItem/DelItem/Len/Items implement the general `dict[key]`
// mapping protocol over arbitrary hashable keys, not just strings.
func (d *Dict) findIndex(key *object.Object) (int, uint64, error) {
	h, err := d.u.hashOf(key)
	if err != nil {
		return -1, 0, err
	}
	for _, i := range d.index[h] {
		e := d.entries[i]
		if e.deleted {
			continue
		}
		eq, err := d.u.richCompareEQ(e.key, key)
		if err != nil {
			return -1, h, err
		}
		if eq {
			return i, h, nil
		}
	}
	return -1, h, nil
}

func (d *Dict) GetItem(key *object.Object) (*object.Object, bool, error) {
	i, _, err := d.findIndex(key)
	if err != nil || i < 0 {
		return nil, false, err
	}
	return d.entries[i].val, true, nil
}

func (d *Dict) SetItem(key, val *object.Object) error {
	i, h, err := d.findIndex(key)
	if err != nil {
		return err
	}
	if i >= 0 {
		d.entries[i].val = val
		return nil
	}
	idx := len(d.entries)
	d.entries = append(d.entries, entry{key: key, val: val})
	d.index[h] = append(d.index[h], idx)
	if s, ok := key.Payload.(string); ok {
		d.strFast[s] = idx
	}
	return nil
}

func (d *Dict) DelItem(key *object.Object) (bool, error) {
	i, _, err := d.findIndex(key)
	if err != nil || i < 0 {
		return false, err
	}
	d.entries[i].deleted = true
	if s, ok := key.Payload.(string); ok {
		delete(d.strFast, s)
	}
	return true, nil
}

// Clear empties the dict in place, releasing its strong references to every
// key and value without touching d's own identity — the cycle collector's
// cut-the-references step (spec.md §4.10).
func (d *Dict) Clear() {
	d.entries = nil
	d.index = make(map[uint64][]int)
	d.strFast = make(map[string]int)
}

func (d *Dict) Len() int {
	n := 0
	for _, e := range d.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}

// Items returns live entries in insertion order.
func (d *Dict) Items() [][2]*object.Object {
	out := make([][2]*object.Object, 0, len(d.entries))
	for _, e := range d.entries {
		if !e.deleted {
			out = append(out, [2]*object.Object{e.key, e.val})
		}
	}
	return out
}

func asDict(o *object.Object) (*Dict, bool) {
	d, ok := o.Payload.(*Dict)
	return d, ok
}

// richCompareEQ runs the CmpEQ slot for two objects, used by dict key
// lookup and set membership.
func (u *Universe) richCompareEQ(a, b *object.Object) (bool, error) {
	if a.Class == nil || a.Class.Slots == nil || a.Class.Slots.Cmp == nil {
		return a == b, nil
	}
	result, ok, cmpErr := a.Class.Slots.Cmp(a, b, object.CmpEQ)
	if cmpErr != nil {
		return false, cmpErr
	}
	if !ok {
		return a == b, nil
	}
	truth, err := u.Truthy(result)
	return truth, err
}

func (u *Universe) initDict() {
	u.Dict = object.NewType("dict", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			d, _ := asDict(self)
			parts := make([]string, 0, len(d.entries))
			for _, kv := range d.Items() {
				kr, err := reprOf(kv[0])
				if err != nil {
					return "", err
				}
				vr, err := reprOf(kv[1])
				if err != nil {
					return "", err
				}
				parts = append(parts, kr+": "+vr)
			}
			return "{" + strings.Join(parts, ", ") + "}", nil
		},
		Mapping: &object.MappingProtocol{
			Length: func(a *object.Object) (int, error) { d, _ := asDict(a); return d.Len(), nil },
			Subscript: func(a, key *object.Object) (*object.Object, error) {
				d, _ := asDict(a)
				v, ok, err := d.GetItem(key)
				if err != nil {
					return nil, err
				}
				if !ok {
					r, _ := reprOf(key)
					return nil, fmt.Errorf("KeyError: %s", r)
				}
				return v, nil
			},
			AssSubscript: func(a, key, val *object.Object) error {
				d, _ := asDict(a)
				if val == nil {
					ok, err := d.DelItem(key)
					if err != nil {
						return err
					}
					if !ok {
						r, _ := reprOf(key)
						return fmt.Errorf("KeyError: %s", r)
					}
					return nil
				}
				return d.SetItem(key, val)
			},
		},
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) {
				d, _ := asDict(a)
				keys := make([]*object.Object, 0, d.Len())
				for _, kv := range d.Items() {
					keys = append(keys, kv[0])
				}
				return u.newSeqIterator(u.DictIterator, keys), nil
			},
		},
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			d, _ := asDict(self)
			for _, kv := range d.Items() {
				visit(kv[0])
				visit(kv[1])
			}
		},
		Clear: func(self *object.Object) {
			d, _ := asDict(self)
			d.Clear()
		},
	}, object.BaseType|object.HasDict)
	mustMRO(u.Dict)
}

// NewPyDict creates an empty `dict` object.
func (u *Universe) NewPyDict() *object.Object {
	return u.track(object.New(u.Dict, NewDict(u)))
}
