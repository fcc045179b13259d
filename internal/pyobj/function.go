// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/code"
	"pygo/internal/object"
)

// Cell is one closure cell: a single mutable slot shared between a function
// that owns it and every nested function that captures it as a free
// variable (spec.md §4.6's free-variable/cell-variable distinction).
type Cell struct {
	Value *object.Object
}

// FunctionPayload backs a `function` object: the compiled code plus
// everything a call needs to build its initial frame (internal/vm reads
// these fields directly; pyobj's job stops at representing them).
type FunctionPayload struct {
	Code      *code.Object
	Globals   *Dict
	Defaults  []*object.Object
	KwDefaults map[string]*object.Object
	Closure   []*Cell
	Name      string
	Doc       string
	Native    func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error)
}

func asFunction(o *object.Object) (*FunctionPayload, bool) {
	f, ok := o.Payload.(*FunctionPayload)
	return f, ok
}

// NewFunction wraps a compiled code object as a callable `function` value.
func (u *Universe) NewFunction(c *code.Object, globals *Dict, closure []*Cell) *object.Object {
	return object.New(u.Function, &FunctionPayload{Code: c, Globals: globals, Closure: closure, Name: c.Name})
}

// NewNativeFunction wraps a Go closure as a callable builtin, used for
// methods internal/pyobj exposes on other built-in types (e.g. list.append)
// without the compiler ever seeing a code object for them.
func (u *Universe) NewNativeFunction(name string, fn func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error)) *object.Object {
	return object.New(u.Function, &FunctionPayload{Name: name, Native: fn})
}

// boundMethodPayload is a function pre-bound to an instance (or, for
// classmethod, to a class), produced by FunctionPayload's DescrGet slot per
// spec.md §4.2's descriptor protocol.
type boundMethodPayload struct {
	fn   *object.Object
	self *object.Object
}

func (u *Universe) callCallable(fn *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
	if fn.Class != nil && fn.Class.Slots != nil && fn.Class.Slots.Call != nil {
		return fn.Class.Slots.Call(fn, args, kwargs)
	}
	return nil, fmt.Errorf("TypeError: '%s' object is not callable", typeNameOf(fn))
}

func (u *Universe) initFunctionAndModule() {
	u.Function = object.NewType("function", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			f, _ := asFunction(self)
			return fmt.Sprintf("<function %s>", f.Name), nil
		},
		Call: func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
			f, _ := asFunction(self)
			if f.Native != nil {
				return f.Native(args, kwargs)
			}
			if u.CallCode != nil {
				return u.CallCode(self, args, kwargs)
			}
			// internal/vm supplies the actual frame-construction/dispatch
			// logic (spec.md §4.7) by setting Universe.CallCode once it
			// builds a Thread. This fallback only fires if a code-backed
			// function is somehow invoked before any Thread exists.
			return nil, fmt.Errorf("RuntimeError: code-backed function called outside the VM: %s", f.Name)
		},
		DescrGet: func(self *object.Object, instance *object.Object, owner *object.Type) (*object.Object, error) {
			if instance == nil {
				return self, nil
			}
			return object.New(u.BoundMethod, &boundMethodPayload{fn: self, self: instance}), nil
		},
	}, object.BaseType)
	mustMRO(u.Function)

	u.BoundMethod = object.NewType("method", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			m := self.Payload.(*boundMethodPayload)
			f, _ := asFunction(m.fn)
			return fmt.Sprintf("<bound method %s of %s>", f.Name, typeNameOf(m.self)), nil
		},
		Call: func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
			m := self.Payload.(*boundMethodPayload)
			full := append([]*object.Object{m.self}, args...)
			return u.callCallable(m.fn, full, kwargs)
		},
	}, object.BaseType)
	mustMRO(u.BoundMethod)

	u.Module = object.NewType("module", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			if self.Dict == nil {
				return "<module>", nil
			}
			name, ok := self.Dict.GetAttr("__name__")
			if !ok {
				return "<module>", nil
			}
			if s, ok := name.Payload.(string); ok {
				return fmt.Sprintf("<module %q>", s), nil
			}
			return "<module>", nil
		},
		// GetAttr only runs once object.GetAttr's dict/MRO lookups (steps
		// 2-3) have already missed: spec.md §4.3's module contract is
		// "getattr consults the dict, then a module-level __getattr__", so a
		// module that defines its own __getattr__ callable (PEP 562) gets one
		// more chance to produce the attribute before this becomes an
		// AttributeError.
		GetAttr: func(self *object.Object, name string) (*object.Object, error) {
			if self.Dict != nil {
				if fn, ok := self.Dict.GetAttr("__getattr__"); ok {
					return u.callCallable(fn, []*object.Object{u.NewStr(name)}, nil)
				}
			}
			return nil, &object.AttributeError{Type: typeNameOf(self), Name: name}
		},
	}, object.BaseType|object.HasDict)
	mustMRO(u.Module)
}

// NewModule creates an empty module object with __name__ set.
func (u *Universe) NewModule(name string) *object.Object {
	d := NewDict(u)
	d.SetAttr("__name__", u.NewStr(name))
	obj := object.New(u.Module, nil)
	obj.Dict = d
	return obj
}
