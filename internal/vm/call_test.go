// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"pygo/internal/compiler"
	"pygo/internal/pyast"
	"pygo/internal/pyobj"
)

// TestCallAnyRejectsNonCallable checks callAny's fallback TypeError for a
// value whose type has no Call slot (an int, in this case).
func TestCallAnyRejectsNonCallable(t *testing.T) {
	th, u, _ := testThread()
	n := u.NewIntFromInt64(3)
	if _, err := th.callAny(n, nil, nil); err == nil {
		t.Fatalf("want an error calling a non-callable int")
	}
}

// TestCallCodeRecursionLimit checks that unbounded recursion (a function
// that always calls itself) is stopped by maxDepth with a RecursionError,
// rather than overflowing the Go call stack callCode itself runs on.
func TestCallCodeRecursionLimit(t *testing.T) {
	th, u, z := testThread()

	// def loop(): return loop()
	loop := &pyast.FunctionDef{
		Name: "loop",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{
			&pyast.Return{Value: &pyast.Call{Func: nm("loop")}},
		},
	}
	tree := mod(loop, assign(nm("result"), &pyast.Call{Func: nm("loop")}))

	co, err := compiler.CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	globals := pyobj.NewDict(u)
	_, runErr := th.RunModule(co, globals)
	if runErr == nil {
		t.Fatalf("want unbounded recursion to stop with a RecursionError")
	}
	pe := th.wrapError(runErr)
	if !pe.IsInstance(z.RecursionError) {
		t.Fatalf("propagated error is not a RecursionError: %v", runErr)
	}
	if len(th.frames) != 0 {
		t.Fatalf("th.frames leaked %d entries after the call unwound", len(th.frames))
	}
}

// TestCallCodeFramesUnwindOnSuccess checks that callCode's deferred pop
// leaves th.frames empty again once an ordinary (non-recursive) call
// returns normally.
func TestCallCodeFramesUnwindOnSuccess(t *testing.T) {
	th, u, _ := testThread()
	fn := &pyast.FunctionDef{
		Name: "one",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{&pyast.Return{Value: constInt(1)}},
	}
	tree := mod(fn, assign(nm("result"), &pyast.Call{Func: nm("one")}))
	g := runModule(t, th, u, tree)
	if got := intVar(t, g, "result"); got != 1 {
		t.Fatalf("result = %d, want 1", got)
	}
	if len(th.frames) != 0 {
		t.Fatalf("th.frames leaked %d entries after a successful call", len(th.frames))
	}
}
