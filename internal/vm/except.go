// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"
	"reflect"
	"strings"

	"pygo/internal/exc"
	"pygo/internal/object"
	"pygo/internal/pyobj"
)

// wireExceptionTypes gives every *object.Type field of z a metaclass
// (u.Type), an instance-attribute-dict class dict, and a constructor/repr
// slot table, so `raise ValueError("bad")` and `except ValueError as e`
// can actually instantiate and introspect these types through the ordinary
// `type.__call__`/GetAttr protocols (internal/pyobj/typeobj.go) rather than
// needing a parallel exception-specific call path. exc.NewZoo builds bare
// Types with Attrs/Slots/Class left nil because internal/exc cannot import
// internal/pyobj (pyobj already imports exc); this is the one place that
// gap is closed, once both packages are available.
func wireExceptionTypes(u *pyobj.Universe, z *exc.Zoo) {
	slots := exceptionSlots(u)
	v := reflect.ValueOf(z).Elem()
	for i := 0; i < v.NumField(); i++ {
		t, ok := v.Field(i).Interface().(*object.Type)
		if !ok || t == nil {
			continue
		}
		if t.Class == nil {
			t.Class = u.Type
		}
		if t.Attrs == nil {
			t.Attrs = pyobj.NewDict(u)
		}
		if t.Slots == nil {
			t.Slots = slots
		}
	}
}

// argsDictFactory is passed to object.SetAttr/EnsureDict for exception
// instances (which carry HasDict); it mirrors every other heap type's
// "build a real Dict object" factory (pyobj.NewDict) without needing a
// second copy of that function in this package.
func argsDictFactory(u *pyobj.Universe) func() object.AttrStore {
	return func() object.AttrStore { return pyobj.NewDict(u) }
}

// normalizeArg wraps a bare, Class-less constructor argument (the shape
// exc.Zoo.StrArg and a handful of pyobj error paths produce: a raw
// &object.Object{Payload: "message"} with no type) as a real str object, so
// an exception instance's "args" tuple never holds a value the rest of the
// object model can't call Repr/GetAttr on.
func normalizeArg(u *pyobj.Universe, o *object.Object) *object.Object {
	if o.Class != nil {
		return o
	}
	if s, ok := o.Payload.(string); ok {
		return u.NewStr(s)
	}
	return o
}

// exceptionSlots is the slot table every wired exception type shares: New
// allocates a bare instance, Init records the constructor arguments as an
// "args" tuple attribute (mirroring CPython's BaseException.__init__,
// which always populates self.args), and Repr/Str/GetAttr expose it the way
// a Python exception instance prints and is introspected. pyobj's generic
// instanceSlots() (typeobj.go) can't be reused wholesale here: its Init
// silently no-ops unless the class defines a Python-level __init__, which
// would drop every constructor argument a built-in exception is raised
// with.
func exceptionSlots(u *pyobj.Universe) *object.SlotTable {
	factory := argsDictFactory(u)

	getArgs := func(self *object.Object) []*object.Object {
		if self.Dict == nil {
			return nil
		}
		v, ok := self.Dict.GetAttr("args")
		if !ok {
			return nil
		}
		elems, _ := v.Payload.([]*object.Object)
		return elems
	}

	return &object.SlotTable{
		New: func(cls *object.Type, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
			cls.Count.Inc()
			return object.New(cls, nil), nil
		},
		Init: func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) error {
			norm := make([]*object.Object, len(args))
			for i, a := range args {
				norm[i] = normalizeArg(u, a)
			}
			return object.SetAttr(self, "args", u.NewTuple(norm), factory)
		},
		Repr: func(self *object.Object) (string, error) {
			parts, err := reprParts(getArgs(self))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s(%s)", typeNameOf(self), strings.Join(parts, ", ")), nil
		},
		Str: func(self *object.Object) (string, error) {
			args := getArgs(self)
			switch len(args) {
			case 0:
				return "", nil
			case 1:
				if s, ok := args[0].Payload.(string); ok {
					return s, nil
				}
				return reprOf(args[0])
			default:
				parts, err := reprParts(args)
				if err != nil {
					return "", err
				}
				return "(" + strings.Join(parts, ", ") + ")", nil
			}
		},
		GetAttr: func(self *object.Object, name string) (*object.Object, error) {
			return nil, &object.AttributeError{Type: typeNameOf(self), Name: name}
		},
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			if self.Dict == nil {
				return
			}
			if d, ok := self.Dict.(*pyobj.Dict); ok {
				for _, kv := range d.Items() {
					visit(kv[1])
				}
			}
		},
	}
}

// typeNameOf names self's class for error/repr formatting; internal/pyobj
// has the same helper unexported, so the VM keeps a local copy rather than
// importing it.
func typeNameOf(o *object.Object) string {
	if o.Class == nil {
		return "?"
	}
	return o.Class.Name
}

func reprOf(o *object.Object) (string, error) {
	if o.Class == nil || o.Class.Slots == nil || o.Class.Slots.Repr == nil {
		return "<?>", nil
	}
	return o.Class.Slots.Repr(o)
}

func reprParts(args []*object.Object) ([]string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		r, err := reprOf(a)
		if err != nil {
			return nil, err
		}
		parts[i] = r
	}
	return parts, nil
}

// objectToException reads a live exception instance back into the
// PyException value the exception-table/unwinding machinery (vm.go)
// actually works with: its type and its "args" tuple. obj is cached on the
// result (PyException.Obj) so a later exceptionToObject call on this same
// PyException hands back obj itself rather than building a lookalike copy.
func objectToException(obj *object.Object) *exc.PyException {
	var args []*object.Object
	if obj.Dict != nil {
		if v, ok := obj.Dict.GetAttr("args"); ok {
			if elems, ok := v.Payload.([]*object.Object); ok {
				args = elems
			}
		}
	}
	pe := exc.New(obj.Class, args...)
	pe.Obj = obj
	return pe
}

// exceptionToObject instantiates e's type with e's args through the
// ordinary type-call protocol (the same path `SomeError("msg")` takes from
// Python code) and installs __cause__/__context__/__suppress_context__/
// __traceback__ on the result (spec.md §3's exception data model), so a
// caught PyException and a freshly-constructed exception instance are
// indistinguishable once bound to an `except ... as name` target. The built
// object is cached on e (PyException.Obj) so repeated binding of the same
// PyException — a bare `raise` re-raising it, or it being reachable as more
// than one Cause/Context edge — returns the exact same instance rather than
// a new one, which is what makes `v.__cause__ is e` true for a name bound by
// an earlier `except ... as e` (spec.md §8 scenario 3).
func (th *Thread) exceptionToObject(e *exc.PyException) (*object.Object, error) {
	return th.exceptionObject(e, map[*exc.PyException]bool{})
}

// exceptionObject is exceptionToObject's recursive worker; seen guards
// against a pathological __cause__/__context__ cycle (self-referential or
// longer) recursing forever while still re-syncing dunders on every
// top-level call.
func (th *Thread) exceptionObject(e *exc.PyException, seen map[*exc.PyException]bool) (*object.Object, error) {
	if e.Type == nil {
		return nil, fmt.Errorf("RuntimeError: exception with no type")
	}
	obj := e.Obj
	if obj == nil {
		classObj := th.u.ClassValue(e.Type)
		built, err := th.u.Type.Slots.Call(classObj, e.Args, nil)
		if err != nil {
			return nil, err
		}
		obj = built
		e.Obj = obj
	}
	if seen[e] {
		return obj, nil
	}
	seen[e] = true
	if err := th.bindExceptionDunders(obj, e, seen); err != nil {
		return nil, err
	}
	return obj, nil
}

// bindExceptionDunders installs the Python-visible attributes spec.md §3
// promises alongside the *exc.PyException fields the unwinder itself reads:
// __cause__/__context__ as the corresponding exception object (None if
// absent), __suppress_context__ as a bool, and __traceback__ as a list of
// formatted frame lines (None if the exception never crossed a frame
// boundary that recorded one).
func (th *Thread) bindExceptionDunders(obj *object.Object, e *exc.PyException, seen map[*exc.PyException]bool) error {
	factory := argsDictFactory(th.u)

	cause := th.u.None
	if e.Cause != nil {
		c, err := th.exceptionObject(e.Cause, seen)
		if err != nil {
			return err
		}
		cause = c
	}
	if err := object.SetAttr(obj, "__cause__", cause, factory); err != nil {
		return err
	}

	context := th.u.None
	if e.Context != nil {
		c, err := th.exceptionObject(e.Context, seen)
		if err != nil {
			return err
		}
		context = c
	}
	if err := object.SetAttr(obj, "__context__", context, factory); err != nil {
		return err
	}

	if err := object.SetAttr(obj, "__suppress_context__", th.u.Bool_(e.SuppressContext), factory); err != nil {
		return err
	}

	tb := th.u.None
	if e.Traceback != nil && len(e.Traceback.Frames) > 0 {
		lines := make([]*object.Object, len(e.Traceback.Frames))
		for i, fr := range e.Traceback.Frames {
			lines[i] = th.u.NewStr(fr.String())
		}
		tb = th.u.NewList(lines)
	}
	return object.SetAttr(obj, "__traceback__", tb, factory)
}

// wrapError bridges a plain Go error (returned pervasively by pyobj/object
// slots that have no PyException of their own to raise) into one, using the
// "ExceptionName: message" convention those errors already follow.
func (th *Thread) wrapError(err error) *exc.PyException {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*exc.PyException); ok {
		return pe
	}
	if err == pyobj.StopIterationSentinel {
		return exc.New(th.zoo.StopIteration)
	}
	msg := err.Error()
	name := "RuntimeError"
	rest := msg
	if idx := strings.Index(msg, ": "); idx >= 0 {
		candidate := msg[:idx]
		if _, ok := th.excByName[candidate]; ok {
			name = candidate
			rest = msg[idx+2:]
		}
	}
	typ := th.excByName[name]
	if typ == nil {
		typ = th.zoo.RuntimeError
	}
	return exc.New(typ, th.u.NewStr(rest))
}
