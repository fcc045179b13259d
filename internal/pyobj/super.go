// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/object"
)

// superPayload captures the (type, object-or-type) pair spec.md §4.3
// describes for `super()`: attribute lookup on a super object walks the
// MRO of typ starting immediately AFTER typ itself, bound to boundObj (an
// instance of typ, or typ itself for the classmethod form).
type superPayload struct {
	typ      *object.Type
	boundObj *object.Object
	boundTyp *object.Type // non-nil for the unbound-classmethod form
}

func (u *Universe) initSuperSlot() *object.Type {
	t := object.NewType("super", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			s := self.Payload.(*superPayload)
			return fmt.Sprintf("<super: <class '%s'>, <%s object>>", s.typ.Name, typeNameOf(s.boundObj)), nil
		},
		GetAttr: func(self *object.Object, name string) (*object.Object, error) {
			s := self.Payload.(*superPayload)
			start := -1
			boundTyp := s.boundTyp
			if boundTyp == nil && s.boundObj != nil {
				boundTyp = s.boundObj.Class
			}
			if boundTyp == nil {
				return nil, fmt.Errorf("RuntimeError: super(): no binding")
			}
			for i, m := range boundTyp.MRO {
				if m == s.typ {
					start = i + 1
					break
				}
			}
			if start < 0 {
				return nil, fmt.Errorf("TypeError: super(type, obj): obj must be an instance or subtype of type")
			}
			for _, m := range boundTyp.MRO[start:] {
				if v, ok := m.Attrs.GetAttr(name); ok {
					if v.Class != nil && v.Class.Slots != nil && v.Class.Slots.DescrGet != nil {
						bindObj := s.boundObj
						return v.Class.Slots.DescrGet(v, bindObj, boundTyp)
					}
					return v, nil
				}
			}
			return nil, fmt.Errorf("AttributeError: 'super' object has no attribute '%s'", name)
		},
	}, object.BaseType)
	mustMRO(t)
	return t
}

// NewSuper builds a super object bound to obj (an instance of typ or a
// subclass), per the two-argument `super(type, obj)` form.
func (u *Universe) NewSuper(typ *object.Type, obj *object.Object) *object.Object {
	return object.New(u.Super, &superPayload{typ: typ, boundObj: obj})
}

// NewUnboundSuper builds the classmethod form `super(type, type2)`, where
// attribute lookups bind to boundTyp itself rather than an instance.
func (u *Universe) NewUnboundSuper(typ, boundTyp *object.Type) *object.Object {
	return object.New(u.Super, &superPayload{typ: typ, boundTyp: boundTyp})
}
