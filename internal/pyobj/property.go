// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/object"
)

// propertyPayload implements the `property` data descriptor: fget/fset/fdel
// are themselves callables (functions or nil), matching spec.md §4.3's
// "property: data descriptor wrapping fget/fset/fdel + doc".
type propertyPayload struct {
	fget, fset, fdel *object.Object
	doc              string
}

func (u *Universe) initProperty() *object.Type {
	t := object.NewType("property", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		DescrGet: func(self *object.Object, instance *object.Object, owner *object.Type) (*object.Object, error) {
			p := self.Payload.(*propertyPayload)
			if instance == nil {
				return self, nil
			}
			if p.fget == nil {
				return nil, fmt.Errorf("AttributeError: unreadable attribute")
			}
			return u.callCallable(p.fget, []*object.Object{instance}, nil)
		},
		DescrSet: func(self *object.Object, instance *object.Object, val *object.Object) error {
			p := self.Payload.(*propertyPayload)
			if val == nil {
				if p.fdel == nil {
					return fmt.Errorf("AttributeError: can't delete attribute")
				}
				_, err := u.callCallable(p.fdel, []*object.Object{instance}, nil)
				return err
			}
			if p.fset == nil {
				return fmt.Errorf("AttributeError: can't set attribute")
			}
			_, err := u.callCallable(p.fset, []*object.Object{instance, val}, nil)
			return err
		},
	}, object.BaseType)
	mustMRO(t)
	return t
}

// NewProperty builds a property from getter/setter/deleter callables, any of
// which may be nil.
func (u *Universe) NewProperty(fget, fset, fdel *object.Object, doc string) *object.Object {
	return object.New(u.Property, &propertyPayload{fget: fget, fset: fset, fdel: fdel, doc: doc})
}

// PropertyGetter/Setter/Deleter return a new property identical to p except
// for the named slot, mirroring `@p.setter` / `@p.deleter` decorator forms.
func (u *Universe) PropertyGetter(p *object.Object, fget *object.Object) *object.Object {
	old := p.Payload.(*propertyPayload)
	return u.NewProperty(fget, old.fset, old.fdel, old.doc)
}

func (u *Universe) PropertySetter(p *object.Object, fset *object.Object) *object.Object {
	old := p.Payload.(*propertyPayload)
	return u.NewProperty(old.fget, fset, old.fdel, old.doc)
}

func (u *Universe) PropertyDeleter(p *object.Object, fdel *object.Object) *object.Object {
	old := p.Payload.(*propertyPayload)
	return u.NewProperty(old.fget, old.fset, fdel, old.doc)
}
