// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package interpreter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"

	"pygo/internal/exc"
	"pygo/internal/gc"
	"pygo/internal/importer"
	"pygo/internal/module"
	"pygo/internal/object"
	"pygo/internal/pyobj"
	"pygo/internal/vm"
)

// Interpreter is one embeddable Python interpreter instance, spec.md §4.9's
// "Interpreter façade": a Universe (object model, C1-C6), a Zoo (exception
// hierarchy, C4), a Thread (frame/dispatch loop, C7) and an Importer
// (C8) bundled behind the lifecycle spec.md documents —
// WithInit/Enter/Run — rather than exposed as four objects an embedder must
// wire up by hand. Grounded on cmd/go/internal/base's single
// Command-drives-everything shape, generalized (per spec.md §5) to allow
// more than one live instance in a process: every piece of mutable state
// below lives on the Interpreter value, none of it package-level.
type Interpreter struct {
	Universe *pyobj.Universe
	Zoo      *exc.Zoo
	Thread   *vm.Thread
	Importer *importer.Importer
	Modules  *module.Registry
	GC       *gc.Collector

	settings Settings
	stdout   *bufio.Writer
	stderr   *bufio.Writer

	mu         sync.Mutex
	atexit     []*object.Object // registered via the atexit native module, run LIFO
	finalizing bool
	finalized  bool
}

// InitFunc registers an embedder's native modules and any other one-time
// setup against a freshly built Interpreter, before any user code runs —
// the same role cmd/go/internal/base.Command's init-time registration
// plays, just invoked explicitly rather than via package-level init().
type InitFunc func(in *Interpreter) error

// WithInit builds a new Interpreter from settings (use SettingsFromEnv for
// process-environment defaults), then runs init to let the embedder
// register native modules through in.Modules before returning — mirroring
// spec.md §4.9's "Interpreter::with_init(settings, init)".
func WithInit(settings Settings, init InitFunc) (*Interpreter, error) {
	u := pyobj.NewUniverse(settings.HashSeed)
	zoo := exc.NewZoo()
	th := vm.NewThread(u, zoo)

	in := &Interpreter{
		Universe: u,
		Zoo:      zoo,
		Thread:   th,
		Modules:  th.Modules(),
		settings: settings,
		stdout:   bufio.NewWriter(settingsStdout(settings)),
		stderr:   bufio.NewWriter(settingsStderr(settings)),
	}
	in.Importer = importer.New(th, u, settings.Path, nil)

	in.GC = gc.NewCollector(in.gcRoots)
	in.GC.Attach(u)
	th.Modules().Register(gc.NewModule(u, in.GC))

	if init != nil {
		if err := init(in); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// gcRoots is the root-set function Collector.Collect walks from: every
// object a live frame's stack/locals/namespace can still name, plus every
// module sys.modules currently holds (a module that finished running but
// whose globals still reference a container must keep that container
// alive even though no frame is left on the call stack to name it).
func (in *Interpreter) gcRoots() []*object.Object {
	roots := in.Thread.GCRoots()
	for _, kv := range in.Importer.SysModules().Items() {
		roots = append(roots, kv[1])
	}
	return roots
}

func settingsStdout(s Settings) io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

func settingsStderr(s Settings) io.Writer {
	if s.Stderr != nil {
		return s.Stderr
	}
	return os.Stderr
}

// Stdout returns the interpreter's buffered standard-output writer; native
// modules (print, sys.stdout.write) write through this rather than
// capturing os.Stdout directly, so Settings.Stdout redirection takes effect
// uniformly. Settings.Unbuffered (PYTHONUNBUFFERED) does not change this
// writer's buffering.
func (in *Interpreter) Stdout() *bufio.Writer { return in.stdout }

// Stderr is Stdout's standard-error counterpart.
func (in *Interpreter) Stderr() *bufio.Writer { return in.stderr }

// flushStreams is step 1 (and, again, step 6) of spec.md §4.9's
// finalization sequence: "flush stdout/stderr". Flush errors on either
// stream are ignored: a broken pipe on one stream does not prevent the
// other from being flushed or shutdown from proceeding.
func (in *Interpreter) flushStreams() {
	in.stdout.Flush()
	in.stderr.Flush()
}

// AtExit registers fn (a Python callable) to run during finalization,
// implementing the atexit module's register() from the interpreter side.
// Unlike cmd/go/internal/base.AtExit (which runs its funcs first-registered-
// first-run), spec.md §4.9 requires atexit functions to run in LIFO order —
// the reverse of registration — so this Interpreter's shutdown walks the
// slice backward rather than forward.
func (in *Interpreter) AtExit(fn *object.Object) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.atexit = append(in.atexit, fn)
}

// runAtExit calls every registered atexit function, most-recently-registered
// first, matching CPython's documented LIFO order. A function that raises is
// reported to stderr (the way CPython prints an atexit callback's traceback)
// and does not prevent the remaining functions from still running.
func (in *Interpreter) runAtExit() {
	in.mu.Lock()
	fns := make([]*object.Object, len(in.atexit))
	copy(fns, in.atexit)
	in.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		if _, err := in.Thread.Call(fns[i], nil, nil); err != nil {
			fmt.Fprintf(in.stderr, "Error in atexit function: %v\n", err)
		}
	}
}

// shutdownThreading calls threading._shutdown if (and only if) a module
// named "threading" was ever imported, step 2 of spec.md §4.9's
// finalization sequence. pygo carries no threading module of its own yet;
// this is a no-op hook an embedder's native "threading" module can hang its
// own shutdown logic on by exposing a "_shutdown" attribute, the way
// CPython's Py_FinalizeEx calls into the real threading module the same
// way regardless of whether it was ever actually used.
func (in *Interpreter) shutdownThreading() {
	mod, ok := in.Importer.SysModules().GetAttr("threading")
	if !ok {
		return
	}
	fn, ok := mod.Dict.GetAttr("_shutdown")
	if !ok {
		return
	}
	if _, err := in.Thread.Call(fn, nil, nil); err != nil {
		fmt.Fprintf(in.stderr, "Exception ignored in threading._shutdown: %v\n", err)
	}
}

// Enter runs f (an embedder's top-level callback: run a compiled module,
// drive a REPL loop, execute -c text) with this Interpreter, converting any
// unhandled Python exception that escapes f into the process exit code
// spec.md §4.9 documents: SystemExit.code if that's what escaped, else 1 for
// any other unhandled exception, else 0. Finalization (flush, threading
// shutdown, atexit, final flush) always runs, whether f returns an error or
// not — Run is Enter wrapped with os.Exit for a standalone binary.
func (in *Interpreter) Enter(f func(in *Interpreter) error) int {
	in.flushStreams()

	runErr := f(in)

	code := in.exitCodeFor(runErr)

	in.mu.Lock()
	in.finalizing = true
	in.mu.Unlock()

	in.shutdownThreading()
	in.runAtExit()

	in.mu.Lock()
	in.finalizing = false
	in.finalized = true
	in.mu.Unlock()

	in.flushStreams()
	return code
}

// Run is Enter followed by os.Exit(code), the entry point for a standalone
// binary's main() — kept separate from Enter so a test (or an embedder that wants to
// keep running after f returns, e.g. a long-lived REPL host) can observe the
// exit code without the process actually terminating.
func (in *Interpreter) Run(f func(in *Interpreter) error) {
	os.Exit(in.Enter(f))
}

// exitCodeFor implements spec.md §4.9's exit-code conversion: a nil error is
// 0; a SystemExit carries its own code (an int verbatim, a string printed to
// stderr with exit code 1, None or no argument meaning 0); any other
// unhandled exception is reported to stderr and exits 1.
func (in *Interpreter) exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var pe *exc.PyException
	if !errors.As(err, &pe) {
		fmt.Fprintf(in.stderr, "%v\n", err)
		return 1
	}
	if pe.Type == in.Zoo.SystemExit {
		return systemExitCode(in, pe)
	}
	fmt.Fprintf(in.stderr, "%s\n", pe.Error())
	return 1
}

// systemExitCode reads a SystemExit instance's sole constructor argument the
// way CPython's Py_RunMain does: int -> that value, str -> printed to
// stderr and exit code 1, anything else (None, or no argument at all) -> 0.
func systemExitCode(in *Interpreter, pe *exc.PyException) int {
	if len(pe.Args) == 0 {
		return 0
	}
	arg := pe.Args[0]
	if arg == in.Universe.None {
		return 0
	}
	if n, ok := arg.Payload.(*big.Int); ok {
		return int(n.Int64())
	}
	if s, ok := arg.Payload.(string); ok {
		fmt.Fprintln(in.stderr, s)
		return 1
	}
	return 1
}

// Finalizing reports whether shutdown (threading._shutdown / atexit) is
// currently running, e.g. so a native module's own shutdown hook can tell it
// is being called from finalization rather than ordinary code.
func (in *Interpreter) Finalizing() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.finalizing
}

// Finalized reports whether this Interpreter has completed Enter/Run once
// already; spec.md §4.9 treats a second finalization pass as a no-op rather
// than re-running atexit functions a second time, so an embedder calling
// Enter twice on the same Interpreter is a caller error this at least makes
// observable.
func (in *Interpreter) Finalized() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.finalized
}
