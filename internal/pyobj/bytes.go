// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"
	"strings"

	"pygo/internal/object"
)

// NewBytes wraps an immutable byte sequence (spec.md §4.3 "bytes/bytearray:
// byte sequences").
func (u *Universe) NewBytes(b []byte) *object.Object {
	cp := append([]byte(nil), b...)
	return object.New(u.Bytes, cp)
}

// NewByteArray wraps a mutable byte sequence; bytearray additionally
// supports the buffer protocol per spec.md §4.3, modeled here as direct
// slice mutation through the sequence protocol's AssItem slot.
func (u *Universe) NewByteArray(b []byte) *object.Object {
	cp := append([]byte(nil), b...)
	return object.New(u.ByteArray, &cp)
}

func asBytes(o *object.Object) ([]byte, bool) {
	b, ok := o.Payload.([]byte)
	return b, ok
}

func asByteArray(o *object.Object) (*[]byte, bool) {
	b, ok := o.Payload.(*[]byte)
	return b, ok
}

func bytesRepr(b []byte) string {
	var sb strings.Builder
	sb.WriteString("b'")
	for _, c := range b {
		switch {
		case c == '\'':
			sb.WriteString(`\'`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, `\x%02x`, c)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

func (u *Universe) initBytes() {
	u.Bytes = object.NewType("bytes", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			b, _ := asBytes(self)
			return bytesRepr(b), nil
		},
		Hash: func(self *object.Object) (uint64, error) {
			b, _ := asBytes(self)
			return u.HashSeed.HashBytes(b), nil
		},
		Cmp: func(a, b *object.Object, op object.CompareOp) (*object.Object, bool, error) {
			ab, aok := asBytes(a)
			bb, bok := asBytes(b)
			if !aok || !bok {
				return nil, false, nil
			}
			eq := string(ab) == string(bb)
			switch op {
			case object.CmpEQ:
				return u.Bool_(eq), true, nil
			case object.CmpNE:
				return u.Bool_(!eq), true, nil
			}
			return nil, false, nil
		},
		Sequence: &object.SequenceProtocol{
			Length: func(a *object.Object) (int, error) { b, _ := asBytes(a); return len(b), nil },
			Item: func(a *object.Object, i int) (*object.Object, error) {
				b, _ := asBytes(a)
				if i < 0 || i >= len(b) {
					return nil, fmt.Errorf("IndexError: index out of range")
				}
				return u.NewIntFromInt64(int64(b[i])), nil
			},
		},
	}, object.BaseType|object.ImmutableType)
	mustMRO(u.Bytes)

	u.ByteArray = object.NewType("bytearray", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			b, _ := asByteArray(self)
			return "bytearray(" + bytesRepr(*b) + ")", nil
		},
		Sequence: &object.SequenceProtocol{
			Length: func(a *object.Object) (int, error) { b, _ := asByteArray(a); return len(*b), nil },
			Item: func(a *object.Object, i int) (*object.Object, error) {
				b, _ := asByteArray(a)
				if i < 0 || i >= len(*b) {
					return nil, fmt.Errorf("IndexError: index out of range")
				}
				return u.NewIntFromInt64(int64((*b)[i])), nil
			},
			AssItem: func(a *object.Object, i int, v *object.Object) error {
				b, _ := asByteArray(a)
				n, ok := asBigInt(v)
				if !ok || i < 0 || i >= len(*b) {
					return fmt.Errorf("IndexError: bytearray assignment index out of range")
				}
				(*b)[i] = byte(n.Int64())
				return nil
			},
		},
	}, object.BaseType)
	mustMRO(u.ByteArray)
}
