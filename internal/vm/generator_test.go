// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"testing"

	"pygo/internal/compiler"
	"pygo/internal/exc"
	"pygo/internal/pyast"
	"pygo/internal/pyobj"
)

// makeGenerator compiles a single generator function definition and calls
// it once, returning the resulting *Generator for direct method exercise.
func makeGenerator(t *testing.T, th *Thread, u *pyobj.Universe, fn *pyast.FunctionDef) *Generator {
	t.Helper()
	tree := mod(fn)
	co, err := compiler.CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	globals := pyobj.NewDict(u)
	if _, err := th.RunModule(co, globals); err != nil {
		t.Fatalf("RunModule: %v", err)
	}
	fnObj, ok := globals.GetAttr(fn.Name)
	if !ok {
		t.Fatalf("%s not defined", fn.Name)
	}
	genObj, err := th.callAny(fnObj, nil, nil)
	if err != nil {
		t.Fatalf("calling %s(): %v", fn.Name, err)
	}
	g, ok := genObj.Payload.(*Generator)
	if !ok {
		t.Fatalf("%s() did not return a Generator, got %#v", fn.Name, genObj.Payload)
	}
	return g
}

// TestGeneratorSendRejectsValueOnUnstartedGenerator checks the documented
// TypeError for send()ing a non-None value into a generator that hasn't
// executed a single next() yet.
func TestGeneratorSendRejectsValueOnUnstartedGenerator(t *testing.T) {
	th, u, _ := testThread()
	fn := &pyast.FunctionDef{
		Name: "gen",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{&pyast.Expr_{Value: &pyast.Yield{Value: constInt(1)}}},
	}
	g := makeGenerator(t, th, u, fn)

	if _, err := g.send(u.NewIntFromInt64(5)); err == nil {
		t.Fatalf("want a TypeError sending a value into a just-started generator")
	}
}

// TestGeneratorNextAfterExhaustionRaisesStopIteration checks resume's
// already-finished branch: calling next() again after the body has already
// returned keeps raising StopIteration rather than panicking or hanging.
func TestGeneratorNextAfterExhaustionRaisesStopIteration(t *testing.T) {
	th, u, z := testThread()
	fn := &pyast.FunctionDef{
		Name: "gen",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{&pyast.Expr_{Value: &pyast.Yield{Value: constInt(1)}}},
	}
	g := makeGenerator(t, th, u, fn)

	if _, err := g.next(); err != nil {
		t.Fatalf("first next(): %v", err)
	}
	_, err := g.next()
	if err == nil {
		t.Fatalf("want StopIteration once the body returns")
	}
	pe := th.wrapError(err)
	if !pe.IsInstance(z.StopIteration) {
		t.Fatalf("error is not StopIteration: %v", err)
	}

	// A third call must keep raising StopIteration through the
	// already-finished fast path, not re-run any bytecode.
	if _, err := g.next(); err == nil {
		t.Fatalf("want StopIteration again on an already-finished generator")
	}
}

// TestGeneratorCloseAfterExhaustionIsNoop checks close()'s already-finished
// branch returns None rather than erroring once the body has run to
// completion.
func TestGeneratorCloseAfterExhaustionIsNoop(t *testing.T) {
	th, u, _ := testThread()
	fn := &pyast.FunctionDef{
		Name: "gen",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{&pyast.Expr_{Value: &pyast.Yield{Value: constInt(1)}}},
	}
	g := makeGenerator(t, th, u, fn)
	if _, err := g.next(); err != nil {
		t.Fatalf("next(): %v", err)
	}
	if _, err := g.next(); err == nil {
		t.Fatalf("want StopIteration exhausting the generator")
	}

	val, err := g.close()
	if err != nil {
		t.Fatalf("close() on an already-finished generator should be a no-op, got %v", err)
	}
	if val != u.None {
		t.Fatalf("close() should return None, got %#v", val)
	}
}

// TestGeneratorThrowIntoRunningGeneratorIsCaught checks that throw()
// injects the exception at the suspended yield point where an enclosing
// try/except in the body can catch it and keep running.
func TestGeneratorThrowIntoRunningGeneratorIsCaught(t *testing.T) {
	th, u, z := testThread()
	th.Builtins().SetAttr("ValueError", u.ClassValue(z.ValueError))

	fn := &pyast.FunctionDef{
		Name: "gen",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{
			&pyast.Try{
				Body: []pyast.Stmt{&pyast.Expr_{Value: &pyast.Yield{Value: constInt(1)}}},
				Handlers: []pyast.ExceptHandler{
					{Type: nm("ValueError"), Name: "e", Body: []pyast.Stmt{
						&pyast.Expr_{Value: &pyast.Yield{Value: constInt(2)}},
					}},
				},
			},
		},
	}
	g := makeGenerator(t, th, u, fn)

	v, err := g.next()
	if err != nil {
		t.Fatalf("next(): %v", err)
	}
	if got := intOf(t, v); got != 1 {
		t.Fatalf("first yield = %d, want 1", got)
	}

	pe := exc.New(z.ValueError, u.NewStr("injected"))
	v2, err := g.throw(pe)
	if err != nil {
		t.Fatalf("throw() should be caught by the body's except clause, got error %v", err)
	}
	if got := intOf(t, v2); got != 2 {
		t.Fatalf("yield after catching the thrown exception = %d, want 2", got)
	}
}
