// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import "testing"

func TestInitialState(t *testing.T) {
	c := New()
	if c.Strong() != 1 {
		t.Fatalf("Strong() = %d, want 1", c.Strong())
	}
	if c.Weak() != 1 {
		t.Fatalf("Weak() = %d, want 1", c.Weak())
	}
}

func TestIncDecRoundTrip(t *testing.T) {
	c := New()
	c.Inc()
	if c.Strong() != 2 {
		t.Fatalf("Strong() after Inc = %d, want 2", c.Strong())
	}
	if kind := c.Dec(); kind != NoDrop {
		t.Fatalf("Dec() = %v, want NoDrop", kind)
	}
	if c.Strong() != 1 {
		t.Fatalf("Strong() after Dec = %d, want 1", c.Strong())
	}
	if kind := c.Dec(); kind != DropNow {
		t.Fatalf("final Dec() = %v, want DropNow", kind)
	}
}

func TestLeakSuppressesDrop(t *testing.T) {
	c := New()
	c.Leak()
	if kind := c.Dec(); kind != NoDrop {
		t.Fatalf("Dec() on leaked object = %v, want NoDrop", kind)
	}
	if !c.Leaked() {
		t.Fatal("Leaked() = false after Leak()")
	}
}

func TestIncAbortsOnDestructed(t *testing.T) {
	c := New()
	c.MarkDestructed()
	defer func() {
		if recover() == nil {
			t.Fatal("Inc on destructed object did not panic")
		}
	}()
	c.Inc()
}

func TestSafeIncRefusesResurrection(t *testing.T) {
	c := New()
	c.MarkDestructed()
	if c.SafeInc() {
		t.Fatal("SafeInc succeeded on destructed object")
	}
}

func TestSafeIncRefusesZeroStrong(t *testing.T) {
	c := New()
	c.Dec() // strong -> 0, not destructed yet (destructor hasn't run)
	if c.SafeInc() {
		t.Fatal("SafeInc succeeded with strong count 0")
	}
}

func TestWeakCounting(t *testing.T) {
	c := New()
	c.IncWeak()
	if c.Weak() != 2 {
		t.Fatalf("Weak() = %d, want 2", c.Weak())
	}
	if c.DecWeak() {
		t.Fatal("DecWeak reported last-weak too early")
	}
	if !c.DecWeak() {
		t.Fatal("DecWeak did not report last weak reference")
	}
}
