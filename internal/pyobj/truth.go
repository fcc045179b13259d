// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyobj

import "pygo/internal/object"

// Truthy implements Python's bool() conversion: a type's Number.Bool slot
// if present, else a Sequence/Mapping Length slot (empty == false), else
// true for any other object (spec.md §4.3's None/bool contracts plus the
// general "every object is truthy unless it says otherwise" rule).
func (u *Universe) Truthy(o *object.Object) (bool, error) {
	if o == u.None {
		return false, nil
	}
	if o.Class == nil || o.Class.Slots == nil {
		return true, nil
	}
	if np := o.Class.Slots.Number; np != nil && np.Bool != nil {
		return np.Bool(o)
	}
	if sp := o.Class.Slots.Sequence; sp != nil && sp.Length != nil {
		n, err := sp.Length(o)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
	if mp := o.Class.Slots.Mapping; mp != nil && mp.Length != nil {
		n, err := mp.Length(o)
		if err != nil {
			return false, err
		}
		return n != 0, nil
	}
	return true, nil
}
