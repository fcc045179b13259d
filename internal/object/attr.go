// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "fmt"

// AttributeError reports a failed attribute lookup, matching spec.md §7.
type AttributeError struct {
	Type, Name string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("AttributeError: '%s' object has no attribute '%s'", e.Type, e.Name)
}

// isDataDescriptor reports whether v's type defines descr_get plus either
// descr_set or descr_delete (spec.md §4.2 step 1).
func isDataDescriptor(v *Object) bool {
	return v.Class != nil && v.Class.Slots != nil &&
		v.Class.Slots.DescrGet != nil && (v.Class.Slots.DescrSet != nil || v.Class.Slots.DescrDelete != nil)
}

func isDescriptor(v *Object) bool {
	return v.Class != nil && v.Class.Slots != nil && v.Class.Slots.DescrGet != nil
}

// mroLookup walks obj's type's MRO class dicts for name, returning the raw
// class-level value (not yet bound) and the type that defined it.
func mroLookup(cls *Type, name string) (*Object, *Type, bool) {
	cls.mu.RLock()
	mro := append([]*Type(nil), cls.MRO...)
	cls.mu.RUnlock()
	for _, t := range mro {
		if t.Attrs == nil {
			continue
		}
		if v, ok := t.Attrs.GetAttr(name); ok {
			return v, t, true
		}
	}
	return nil, nil, false
}

// GetAttr implements the five-step generic getattr of spec.md §4.2.
func GetAttr(obj *Object, name string) (*Object, error) {
	cls := obj.Class

	// Step 1: data descriptor found via MRO.
	if v, owner, ok := mroLookup(cls, name); ok && isDataDescriptor(v) {
		return v.Class.Slots.DescrGet(v, obj, owner)
	}

	// Step 2: instance dict.
	if obj.Dict != nil {
		if v, ok := obj.Dict.GetAttr(name); ok {
			return v, nil
		}
	}

	// Step 3: any descriptor or plain class value.
	if v, owner, ok := mroLookup(cls, name); ok {
		if isDescriptor(v) {
			return v.Class.Slots.DescrGet(v, obj, owner)
		}
		return v, nil
	}

	// Step 4: __getattr__ fallback.
	if cls.Slots != nil && cls.Slots.GetAttr != nil {
		return cls.Slots.GetAttr(obj, name)
	}

	// Step 5: failure.
	return nil, &AttributeError{Type: cls.Name, Name: name}
}

// SetAttr mirrors GetAttr: a data descriptor's descr_set wins, otherwise the
// instance dict is mutated (or created on first use).
func SetAttr(obj *Object, name string, val *Object, dictFactory func() AttrStore) error {
	cls := obj.Class
	if v, _, ok := mroLookup(cls, name); ok && v.Class.Slots != nil && v.Class.Slots.DescrSet != nil {
		return v.Class.Slots.DescrSet(v, obj, val)
	}
	if cls.Slots != nil && cls.Slots.SetAttr != nil {
		return cls.Slots.SetAttr(obj, name, val)
	}
	if !cls.HasFlag(HasDict) {
		return fmt.Errorf("AttributeError: '%s' object has no attribute '%s'", cls.Name, name)
	}
	obj.EnsureDict(dictFactory).SetAttr(name, val)
	return nil
}

// DelAttr mirrors SetAttr for deletion.
func DelAttr(obj *Object, name string) error {
	cls := obj.Class
	if v, _, ok := mroLookup(cls, name); ok && v.Class.Slots != nil && v.Class.Slots.DescrDelete != nil {
		return v.Class.Slots.DescrDelete(v, obj)
	}
	if cls.Slots != nil && cls.Slots.DelAttr != nil {
		return cls.Slots.DelAttr(obj, name)
	}
	if obj.Dict != nil && obj.Dict.DelAttr(name) {
		return nil
	}
	return &AttributeError{Type: cls.Name, Name: name}
}
