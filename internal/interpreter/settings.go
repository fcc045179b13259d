// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interpreter implements the embedder-facing façade of spec.md §4.9
// (C9): Interpreter.WithInit builds the object/exception zoos and a Thread,
// runs the embedder's init callback to register native modules, and Run
// drives the finalization sequence §4.9 lists. Grounded on
// cmd/go/internal/base's Command/Fatalf/Errorf/AtExit/Exit pattern for the
// diagnostic and shutdown plumbing, generalized from "one process-wide CLI
// invocation" to "one or more independent Interpreter instances" per
// spec.md §5's "multiple interpreters may exist in one process" model.
package interpreter

import (
	"io"
	"os"
	"strconv"
	"strings"

	"pygo/internal/hashseed"
	"pygo/internal/importer"
)

// Settings configures a single Interpreter instance, the functional-options
// target `interpreter.WithPath`/`WithHashSeed`/... build up — named and
// generalized from cmd/go/internal/base.Command's flag-driven configuration
// style, per SPEC_FULL.md's ambient-stack section.
type Settings struct {
	Path       []string // sys.path entries, normally importer.DerivePath's output
	HashSeed   hashseed.Seed
	Args       []string // sys.argv, including argv[0]
	Optimize   int      // -O/-OO level: 0 none, 1 -O, 2 -OO
	Quiet      bool
	Unbuffered bool
	SafeMode   bool // -I isolated mode; nothing in this package reads it, so KeyboardInterrupt delivery is unaffected
	Warnings   []string

	// Stdout/Stderr override the interpreter's standard streams; nil means
	// os.Stdout/os.Stderr. A test harness or an embedder sandboxing output
	// supplies its own io.Writer here instead.
	Stdout io.Writer
	Stderr io.Writer
}

// Option mutates a Settings in place. WithInit takes a Settings value, not
// Options: an Option is applied by calling it on a Settings before that
// Settings is passed to WithInit.
type Option func(*Settings)

// WithPath overrides Settings.Path.
func WithPath(path []string) Option { return func(s *Settings) { s.Path = path } }

// WithHashSeed overrides Settings.HashSeed.
func WithHashSeed(seed hashseed.Seed) Option { return func(s *Settings) { s.HashSeed = seed } }

// WithArgs overrides Settings.Args (sys.argv).
func WithArgs(args []string) Option { return func(s *Settings) { s.Args = args } }

// WithOptimize sets the -O/-OO level.
func WithOptimize(level int) Option { return func(s *Settings) { s.Optimize = level } }

// SettingsFromEnv builds a baseline Settings from the process environment,
// the way spec.md §6 documents: PYTHONPATH feeds importer.DerivePath,
// PYTHONHASHSEED selects a deterministic or random hashseed.Seed,
// PYTHONOPTIMIZE sets the optimize level, PYTHONUNBUFFERED/PYTHONWARNINGS
// set their matching fields. Safe/isolated mode (-I) has no environment
// variable of its own — it is a command-line-only flag the embedder's CLI
// layer sets via an Option after this call.
func SettingsFromEnv() Settings {
	s := Settings{
		HashSeed:   hashSeedFromEnv(),
		Unbuffered: os.Getenv("PYTHONUNBUFFERED") != "",
		Optimize:   optimizeFromEnv(),
	}
	if w := os.Getenv("PYTHONWARNINGS"); w != "" {
		s.Warnings = strings.Split(w, ",")
	}
	s.Path = importer.DerivePath(importer.Settings{
		PythonPath: os.Getenv("PYTHONPATH"),
	})
	return s
}

func hashSeedFromEnv() hashseed.Seed {
	v := os.Getenv("PYTHONHASHSEED")
	switch v {
	case "", "random":
		return hashseed.Random()
	case "0":
		return hashseed.Zero()
	default:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return hashseed.Random()
		}
		return hashseed.FromInt(n)
	}
}

func optimizeFromEnv() int {
	v := os.Getenv("PYTHONOPTIMIZE")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	if n > 2 {
		return 2
	}
	return n
}
