// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import (
	"fmt"

	"pygo/internal/code"
	"pygo/internal/object"
)

// NewCode boxes a compiled code.Object so internal/compiler can carry it
// through a constant pool as an ordinary *object.Object (spec.md §4.5:
// nested code objects live in Consts just like any other immutable value).
func (u *Universe) NewCode(c *code.Object) *object.Object {
	return object.New(u.Code, c)
}

func asCode(o *object.Object) (*code.Object, bool) {
	c, ok := o.Payload.(*code.Object)
	return c, ok
}

func (u *Universe) initCode() {
	u.Code = object.NewType("code", []*object.Type{u.Object}, newClassDict(), &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			c, _ := asCode(self)
			return fmt.Sprintf("<code object %s, file %q, line %d>", c.Name, c.Filename, c.FirstLine), nil
		},
	}, object.BaseType|object.DisallowInstantiation)
	mustMRO(u.Code)
}
