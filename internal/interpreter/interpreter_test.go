// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interpreter

import (
	"bytes"
	"testing"

	"pygo/internal/exc"
	"pygo/internal/hashseed"
	"pygo/internal/object"
)

func newTestInterpreter(t *testing.T) (*Interpreter, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	in, err := WithInit(Settings{
		HashSeed: hashseed.Zero(),
		Stdout:   &stdout,
		Stderr:   &stderr,
	}, nil)
	if err != nil {
		t.Fatalf("WithInit: %v", err)
	}
	return in, &stdout, &stderr
}

func TestEnterReturnsZeroOnSuccess(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	code := in.Enter(func(in *Interpreter) error { return nil })
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !in.Finalized() {
		t.Fatalf("Finalized should be true after Enter returns")
	}
}

func TestEnterConvertsSystemExitIntCode(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	code := in.Enter(func(in *Interpreter) error {
		return exc.New(in.Zoo.SystemExit, in.Universe.NewIntFromInt64(3))
	})
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
}

func TestEnterSystemExitWithStrArgIsOne(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	code := in.Enter(func(in *Interpreter) error {
		return in.Zoo.StrArg(in.Zoo.SystemExit, "")
	})
	// StrArg always supplies one string argument ("") which is not
	// in.Universe.None, so this exercises the str-argument branch (exit 1,
	// message echoed to stderr) rather than the zero-argument branch.
	if code != 1 {
		t.Fatalf("exit code = %d, want 1 for a string SystemExit argument", code)
	}
}

func TestEnterOtherExceptionExitsOne(t *testing.T) {
	in, _, stderr := newTestInterpreter(t)
	code := in.Enter(func(in *Interpreter) error {
		return in.Zoo.StrArg(in.Zoo.RuntimeError, "boom")
	})
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if stderr.Len() == 0 {
		t.Fatalf("want the unhandled exception reported to stderr")
	}
}

func TestAtExitRunsInReverseOrder(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	var order []int
	record := func(n int) *object.Object {
		return in.Universe.NewNativeFunction("record", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
			order = append(order, n)
			return in.Universe.None, nil
		})
	}
	in.AtExit(record(1))
	in.AtExit(record(2))
	in.AtExit(record(3))

	in.Enter(func(in *Interpreter) error { return nil })

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("atexit ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("atexit order = %v, want %v", order, want)
		}
	}
}

func TestFlushStreamsWritesBufferedOutput(t *testing.T) {
	in, stdout, _ := newTestInterpreter(t)
	in.Stdout().WriteString("hello")
	in.flushStreams()
	if stdout.String() != "hello" {
		t.Fatalf("stdout = %q, want %q", stdout.String(), "hello")
	}
}
