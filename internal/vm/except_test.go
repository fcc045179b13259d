// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"errors"
	"testing"

	"pygo/internal/exc"
	"pygo/internal/pyast"
)

// TestWrapErrorRecognizesKnownExceptionName checks the "ExceptionName:
// message" string convention wrapError parses plain Go errors with.
func TestWrapErrorRecognizesKnownExceptionName(t *testing.T) {
	th, _, z := testThread()
	pe := th.wrapError(errors.New("ValueError: bad input"))
	if !pe.IsInstance(z.ValueError) {
		t.Fatalf("wrapError did not recognize ValueError, got type %v", pe.Type)
	}
	if len(pe.Args) != 1 {
		t.Fatalf("want one arg carrying the message, got %d", len(pe.Args))
	}
	if s, ok := pe.Args[0].Payload.(string); !ok || s != "bad input" {
		t.Fatalf("message = %#v, want \"bad input\"", pe.Args[0].Payload)
	}
}

// TestWrapErrorFallsBackToRuntimeError checks that a message with no
// recognized "Name: " prefix (or whose prefix isn't a wired exception name)
// still wraps into something, rather than panicking or losing the message.
func TestWrapErrorFallsBackToRuntimeError(t *testing.T) {
	th, _, z := testThread()
	pe := th.wrapError(errors.New("something went wrong"))
	if !pe.IsInstance(z.RuntimeError) {
		t.Fatalf("want a RuntimeError fallback, got type %v", pe.Type)
	}

	pe2 := th.wrapError(errors.New("NotARealException: whatever"))
	if !pe2.IsInstance(z.RuntimeError) {
		t.Fatalf("want a RuntimeError fallback for an unwired prefix, got type %v", pe2.Type)
	}
}

// TestWrapErrorPassesThroughPyException checks that an error which is
// already a *exc.PyException is returned unchanged, not re-wrapped.
func TestWrapErrorPassesThroughPyException(t *testing.T) {
	th, u, z := testThread()
	orig := exc.New(z.KeyError, u.NewStr("missing"))
	if got := th.wrapError(orig); got != orig {
		t.Fatalf("wrapError should return the same *PyException unchanged")
	}
}

// TestExceptionRoundTripsThroughObject checks that a PyException converted
// to a live object (exceptionToObject) and read back (objectToException)
// preserves its type and args.
func TestExceptionRoundTripsThroughObject(t *testing.T) {
	th, u, z := testThread()
	orig := exc.New(z.ValueError, u.NewStr("bad"))

	obj, err := th.exceptionToObject(orig)
	if err != nil {
		t.Fatalf("exceptionToObject: %v", err)
	}
	if obj.Class != z.ValueError {
		t.Fatalf("converted object's class = %v, want ValueError", obj.Class)
	}

	back := objectToException(obj)
	if back.Type != z.ValueError {
		t.Fatalf("round-tripped exception type = %v, want ValueError", back.Type)
	}
	if len(back.Args) != 1 {
		t.Fatalf("round-tripped args = %v, want one element", back.Args)
	}
	if s, ok := back.Args[0].Payload.(string); !ok || s != "bad" {
		t.Fatalf("round-tripped arg = %#v, want \"bad\"", back.Args[0].Payload)
	}
}

// TestExceptionReprIncludesArgs checks exceptionSlots' Repr formatting
// matches the "ClassName(repr(arg), ...)" convention.
func TestExceptionReprIncludesArgs(t *testing.T) {
	th, u, z := testThread()
	orig := exc.New(z.ValueError, u.NewStr("bad"))
	obj, err := th.exceptionToObject(orig)
	if err != nil {
		t.Fatalf("exceptionToObject: %v", err)
	}
	r, err := reprOf(obj)
	if err != nil {
		t.Fatalf("reprOf: %v", err)
	}
	if r != "ValueError('bad')" {
		t.Fatalf("repr = %q, want ValueError('bad')", r)
	}
}

// TestExceptAsBindsCauseContextAndSuppressContext drives an actual
// compiled-and-run program shaped like:
//
//	try:
//	    raise ZeroDivisionError("boom")
//	except ZeroDivisionError as e:
//	    e_saved = e
//	    try:
//	        raise ValueError("bad") from e
//	    except ValueError as v:
//	        cause = v.__cause__
//	        suppress = v.__suppress_context__
//
// checking that v.__cause__ really is e (the exact object `except ... as e`
// bound, not a lookalike rebuilt from the same type and args) and that an
// explicit `from` clause sets __suppress_context__ to True.
func TestExceptAsBindsCauseContextAndSuppressContext(t *testing.T) {
	th, u, z := testThread()
	th.Builtins().SetAttr("ZeroDivisionError", u.ClassValue(z.ZeroDivisionError))
	th.Builtins().SetAttr("ValueError", u.ClassValue(z.ValueError))

	tree := mod(
		&pyast.Try{
			Body: []pyast.Stmt{&pyast.Raise{Exc: &pyast.Call{
				Func: nm("ZeroDivisionError"),
				Args: []pyast.Expr{constStr("boom")},
			}}},
			Handlers: []pyast.ExceptHandler{
				{
					Type: nm("ZeroDivisionError"),
					Name: "e",
					Body: []pyast.Stmt{
						assign(nm("e_saved"), nm("e")),
						&pyast.Try{
							Body: []pyast.Stmt{&pyast.Raise{
								Exc: &pyast.Call{
									Func: nm("ValueError"),
									Args: []pyast.Expr{constStr("bad")},
								},
								Cause: nm("e"),
							}},
							Handlers: []pyast.ExceptHandler{
								{
									Type: nm("ValueError"),
									Name: "v",
									Body: []pyast.Stmt{
										assign(nm("cause"), &pyast.Attribute{Value: nm("v"), Attr: "__cause__"}),
										assign(nm("suppress"), &pyast.Attribute{Value: nm("v"), Attr: "__suppress_context__"}),
									},
								},
							},
						},
					},
				},
			},
		},
	)

	g := runModule(t, th, u, tree)

	eSaved, ok := g.GetAttr("e_saved")
	if !ok {
		t.Fatalf("e_saved global not set")
	}
	cause, ok := g.GetAttr("cause")
	if !ok {
		t.Fatalf("cause global not set")
	}
	if cause != eSaved {
		t.Fatalf("v.__cause__ is not the same object `except ... as e` bound")
	}

	suppress, ok := g.GetAttr("suppress")
	if !ok {
		t.Fatalf("suppress global not set")
	}
	if suppress != u.Bool_(true) {
		t.Fatalf("v.__suppress_context__ = %v, want True for an explicit `from` clause", suppress)
	}
}
