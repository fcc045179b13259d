// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"testing"

	"pygo/internal/hashseed"
)

func TestReprStringRoundTripsThroughQuoting(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	for _, tc := range []struct{ in, want string }{
		{"hello", `'hello'`},
		{"it's", `"it's"`},
		{`quote"both'`, `'quote"both\''`},
		{"tab\tnewline\n", `'tab\tnewline\n'`},
		{"", `''`},
	} {
		obj := u.NewStr(tc.in)
		r, err := reprOf(obj)
		if err != nil {
			t.Fatal(err)
		}
		if r != tc.want {
			t.Fatalf("repr(%q) = %s, want %s", tc.in, r, tc.want)
		}
	}
}

func TestStrInterningBelowThresholdIsIdempotent(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	a := u.NewStr("short")
	b := u.NewStr("short")
	if a != b {
		t.Fatal("NewStr below InternThreshold should auto-intern to the same object")
	}
}

func TestInternStrForcesIdentity(t *testing.T) {
	u := NewUniverse(hashseed.Zero())
	long := "this string is definitely longer than the auto-intern threshold constant"
	a := u.InternStr(long)
	b := u.InternStr(long)
	if a != b {
		t.Fatal("sys.intern(s) is sys.intern(s) violated")
	}
}
