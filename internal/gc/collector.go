// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gc implements the cycle collector spec.md §4.10 (C10) describes:
// reference counting (internal/rc, internal/object) reclaims acyclic
// garbage as containers are cleared, but a dict that holds a list that
// holds the same dict never sees its count reach zero on its own. Collector
// finds exactly that shape among the containers internal/pyobj tracks
// (dict, list, set/frozenset, tuple, class instances, generators) and
// breaks it.
//
// Grounded on RustPython's vm/src/object/gc/trace.rs (the visitor-based
// Trace contract this package consumes rather than reimplements) and
// stdlib/gc.rs (the debug-flag and callback surface gc.collect()/gc.set_debug
// expose to Python). cmd/go/internal/base's single package-level Fatalf/
// Errorf-through-a-*log.Logger convention is the model for this package's
// STATS diagnostic output.
package gc

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"pygo/internal/object"
	"pygo/internal/pyobj"
)

// DebugFlag mirrors CPython's gc.DEBUG_* bitmask, set via gc.set_debug and
// read back via gc.get_debug.
type DebugFlag uint32

const (
	DebugStats DebugFlag = 1 << iota
	DebugCollectable
	DebugUncollectable
	DebugSaveAll
	DebugLeak
)

// Callback is invoked around each Collect, CPython's gc.callbacks list:
// phase is "start" or "stop", info carries the same three keys CPython's
// docs promise ("generation", "collected", "uncollectable").
type Callback func(phase string, info map[string]int)

// rootSource supplies every object reachable without going through another
// tracked object's own Trace slot: a running interpreter wires this to
// vm.Thread.GCRoots plus the importer's live module table (internal/
// interpreter's job, not this package's — gc stays ignorant of what a
// Thread or an Importer actually is).
type rootSource func() []*object.Object

// Collector is the tracked-object registry and collection algorithm behind
// the `gc` builtin module. One Collector per Interpreter, installed as the
// Universe's Track hook (Attach) so every dict/list/set/tuple/instance/
// generator constructed through that Universe reports itself automatically
// (spec.md §4.10 "every container allocation increments the young
// generation's count").
//
// Simplification, documented rather than hidden: CPython partitions
// tracked objects into three actual generation lists and only walks the
// youngest on an ordinary collection, promoting survivors. This Collector
// keeps one tracked set and walks all of it on every Collect call — the
// three thresholds and the three counters are preserved so gc.collect(gen),
// gc.get_threshold/set_threshold, and the generation number reported in
// callback info behave the way Python code expects, but there is no
// young-generation performance win underneath. Go's own garbage collector
// is what actually reclaims an object's memory once it is Cleared and
// dropped from the tracked set; this package's job stops at breaking the
// cycle, exactly as spec.md §4.10's last step describes ("clear remaining
// objects' references... and let refcounting finish the job" — here,
// "refcounting finishing the job" is the host runtime's GC doing it once
// nothing references the struct anymore).
type Collector struct {
	mu sync.Mutex

	tracked map[*object.Object]struct{}

	genCounts  [3]int
	thresholds [3]int

	collecting bool
	enabled    bool

	debug     DebugFlag
	callbacks []Callback
	garbage   []*object.Object

	stats CollectStats

	roots rootSource
	log   *log.Logger

	// u and garbageObj back the live `gc.garbage` list a running module sees:
	// nil until BindModule wires them, at which point every object reclaim
	// holds back (resurrected, or under DebugSaveAll/DebugLeak) is appended
	// to the same Python list object gc.garbage names, instead of only being
	// visible through the Go-side Garbage() accessor.
	u          *pyobj.Universe
	garbageObj *object.Object
}

// CollectStats accumulates gc.get_stats()'s per-generation counters across
// this Collector's lifetime.
type CollectStats struct {
	Collections   [3]int
	Collected     int
	Uncollectable int
}

// NewCollector builds a Collector that asks roots for the live root set on
// every Collect. Finalizer and Clear dispatch run synchronously, outside
// any lock this package holds (Collect releases c.mu before calling either,
// and the collecting flag already refuses a reentrant Collect from within a
// finalizer's own gc.collect() call) — internal/rc's deferred-drop Region
// exists for the ordinary per-object Dec path's reentrancy hazard
// (spec.md §4.1); a collection pass is a single batch operation with its
// own simpler reentrancy guard instead.
func NewCollector(roots rootSource) *Collector {
	return &Collector{
		tracked:    map[*object.Object]struct{}{},
		thresholds: [3]int{700, 10, 10},
		roots:      roots,
		enabled:    true,
		log:        log.New(os.Stderr, "gc: ", 0),
	}
}

// Enable/Disable/IsEnabled back gc.enable/gc.disable/gc.isenabled: disabling
// only stops Track's threshold-triggered automatic collection, never an
// explicit gc.collect() call, matching CPython.
func (c *Collector) Enable()  { c.mu.Lock(); c.enabled = true; c.mu.Unlock() }
func (c *Collector) Disable() { c.mu.Lock(); c.enabled = false; c.mu.Unlock() }
func (c *Collector) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// SetOutput redirects this Collector's DebugStats/DebugUncollectable
// diagnostic stream, the same way internal/interpreter's Settings redirect
// stdout/stderr — useful for a test harness that wants to assert on the
// trace instead of letting it hit the process's real stderr.
func (c *Collector) SetOutput(w io.Writer) { c.log.SetOutput(w) }

// Attach installs c as u's allocation hook, so every NewPyDict/NewList/
// NewSet/NewFrozenSet/NewTuple/instance-__new__/generator call starts
// reporting to c from this point on. Objects built before Attach runs (the
// handful of bootstrap singletons Universe constructs before a Collector
// exists) are never tracked and so can never become cyclic garbage —
// correct, since None/True/False/small ints/interned strings are exactly
// the immutable-leaf set spec.md §4.10 says the collector ignores.
func (c *Collector) Attach(u *pyobj.Universe) {
	u.Track = c.Track
}

// BindModule gives c a Universe to build Python-visible state with and
// returns the list object the `gc` module installs as its `garbage`
// attribute (module.go's Exec, module.go in this package). Called once,
// before any Collect runs.
func (c *Collector) BindModule(u *pyobj.Universe) *object.Object {
	// NewList reports the new list to c.Track, which takes c.mu, so the
	// list is built before the lock is held.
	garbage := u.NewList(nil)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.u = u
	c.garbageObj = garbage
	return c.garbageObj
}

// Track registers obj as a generation-0 member and triggers an automatic
// collection if the young-generation allocation count has crossed its
// threshold, exactly as an uninstrumented CPython allocation would.
func (c *Collector) Track(obj *object.Object) {
	c.mu.Lock()
	c.tracked[obj] = struct{}{}
	c.genCounts[0]++
	trigger := c.enabled && c.genCounts[0] >= c.thresholds[0]
	c.mu.Unlock()

	if trigger {
		c.Collect(0)
	}
}

// Untrack removes obj from the tracked set without running its finalizer or
// clearing it: used when a caller already knows obj is dead through
// ordinary (non-cyclic) means and wants the collector to stop carrying it.
func (c *Collector) Untrack(obj *object.Object) {
	c.mu.Lock()
	delete(c.tracked, obj)
	c.mu.Unlock()
}

// SetDebug/GetDebug back gc.set_debug/gc.get_debug.
func (c *Collector) SetDebug(flags DebugFlag) { c.mu.Lock(); c.debug = flags; c.mu.Unlock() }
func (c *Collector) GetDebug() DebugFlag      { c.mu.Lock(); defer c.mu.Unlock(); return c.debug }

// SetThreshold/GetThreshold back gc.set_threshold/gc.get_threshold.
func (c *Collector) SetThreshold(gen0, gen1, gen2 int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = [3]int{gen0, gen1, gen2}
}

func (c *Collector) GetThreshold() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thresholds[0], c.thresholds[1], c.thresholds[2]
}

// GetCount backs gc.get_count(): the current per-generation allocation
// counters since each generation's last collection.
func (c *Collector) GetCount() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.genCounts[0], c.genCounts[1], c.genCounts[2]
}

// Stats returns a snapshot of the running totals gc.get_stats() reports.
func (c *Collector) Stats() CollectStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// RegisterCallback appends to the gc.callbacks list.
func (c *Collector) RegisterCallback(cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// Garbage returns the current gc.garbage contents: unreachable objects this
// Collector declined to destroy, either because DebugSaveAll is set or
// because a finalizer resurrected them (see reclaim's doc comment).
func (c *Collector) Garbage() []*object.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*object.Object(nil), c.garbage...)
}

// IsTracked reports whether obj is currently a member of the tracked set
// (gc.is_tracked).
func (c *Collector) IsTracked(obj *object.Object) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tracked[obj]
	return ok
}

// Collect runs one collection pass and returns the number of unreachable
// objects it cleared (gc.collect()'s return value); objects kept in
// gc.garbage, by resurrection or DebugSaveAll, are not counted. generation is clamped to
// [0,2] and only affects which counter resets and which callback/stats
// bucket this pass is attributed to — see the Collector doc comment for why
// there is no partial-generation traversal underneath.
func (c *Collector) Collect(generation int) int {
	if generation < 0 {
		generation = 0
	} else if generation > 2 {
		generation = 2
	}

	c.mu.Lock()
	if c.collecting {
		// A finalizer or weakref callback invoked during an earlier frame
		// of this very call tried to recurse into gc.collect(): CPython
		// refuses this the same way (collection is never reentrant).
		c.mu.Unlock()
		return 0
	}
	c.collecting = true
	snapshot := make([]*object.Object, 0, len(c.tracked))
	for o := range c.tracked {
		snapshot = append(snapshot, o)
	}
	debug := c.debug
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.collecting = false
		c.genCounts[0] = 0
		if generation >= 1 {
			c.genCounts[1] = 0
		}
		if generation >= 2 {
			c.genCounts[2] = 0
		}
		c.mu.Unlock()
	}()

	c.runCallbacks("start", map[string]int{"generation": generation, "collected": 0, "uncollectable": 0})

	garbage := c.findUnreachable(snapshot)
	if debug&DebugCollectable != 0 && len(garbage) > 0 {
		c.log.Printf("collectable garbage: %d objects", len(garbage))
	}

	collected, uncollectable := c.reclaim(garbage, debug)

	c.mu.Lock()
	c.stats.Collections[generation]++
	c.stats.Collected += collected
	c.stats.Uncollectable += uncollectable
	c.mu.Unlock()

	if debug&DebugStats != 0 {
		c.log.Printf("gen%d: %d collected, %d uncollectable", generation, collected, uncollectable)
	}
	if debug&(DebugUncollectable|DebugLeak) != 0 && uncollectable > 0 {
		c.log.Printf("uncollectable: %d objects moved to gc.garbage", uncollectable)
	}

	c.runCallbacks("stop", map[string]int{"generation": generation, "collected": collected, "uncollectable": uncollectable})
	return collected
}

// findUnreachable marks every object reachable from the root set (and
// transitively through Trace) and returns the subset of snapshot that was
// never marked — tracked objects kept alive only by each other, i.e.
// candidate cyclic garbage (or ordinary dead containers nothing decremented
// yet, given this codebase's refcounting is not wired at per-store
// granularity; see DESIGN.md's C10 entry).
func (c *Collector) findUnreachable(snapshot []*object.Object) []*object.Object {
	tracked := make(map[*object.Object]struct{}, len(snapshot))
	for _, o := range snapshot {
		tracked[o] = struct{}{}
	}

	visited := map[*object.Object]bool{}
	reachable := map[*object.Object]bool{}
	var mark func(o *object.Object)
	mark = func(o *object.Object) {
		if o == nil || visited[o] {
			return
		}
		visited[o] = true
		if _, ok := tracked[o]; ok {
			reachable[o] = true
		}
		if o.Class != nil && o.Class.Slots != nil && o.Class.Slots.Trace != nil {
			o.Class.Slots.Trace(o, mark)
		}
	}

	for _, r := range c.roots() {
		mark(r)
	}

	garbage := make([]*object.Object, 0)
	for _, o := range snapshot {
		if !reachable[o] {
			garbage = append(garbage, o)
		}
	}
	// Deterministic order (by pointer-derived string) keeps finalizer
	// ordering reproducible across runs for the same program, useful for
	// tests and for a gc.DEBUG_STATS trace a user diffs across runs.
	sort.Slice(garbage, func(i, j int) bool {
		return fmt.Sprintf("%p", garbage[i]) < fmt.Sprintf("%p", garbage[j])
	})
	return garbage
}

// reclaim runs garbage's finalizers (watching for resurrection), clears the
// survivors' references, and drops everything no longer reachable from the
// tracked set. Neither call happens while c.mu is held (Collect releases it
// before calling in), so a finalizer that triggers its own allocations —
// and so its own Track calls — never deadlocks against this pass's lock.
func (c *Collector) reclaim(garbage []*object.Object, debug DebugFlag) (collected, uncollectable int) {
	if len(garbage) == 0 {
		return 0, 0
	}

	hasDel := make([]*object.Object, 0, len(garbage))
	for _, o := range garbage {
		if o.Class != nil && o.Class.Slots != nil && o.Class.Slots.Del != nil {
			hasDel = append(hasDel, o)
		}
	}

	for _, o := range hasDel {
		o.Class.Slots.Del(o)
	}

	// Resurrection check: a finalizer may have stashed self (or a sibling in
	// the same garbage batch) somewhere a root can now reach — re-run the
	// reachability walk and hold those objects back from destruction,
	// recording them in gc.garbage instead of freeing them (spec.md §4.10:
	// "resurrection during finalization moves the object to gc.garbage
	// instead of freeing it").
	resurrected := map[*object.Object]bool{}
	if len(hasDel) > 0 {
		still := c.findUnreachable(garbage)
		stillSet := make(map[*object.Object]bool, len(still))
		for _, o := range still {
			stillSet[o] = true
		}
		for _, o := range garbage {
			if !stillSet[o] {
				resurrected[o] = true
			}
		}
	}

	c.mu.Lock()
	// DebugLeak implies SAVEALL, matching CPython's gc.DEBUG_LEAK
	// ("the equivalent of DEBUG_COLLECTABLE | DEBUG_UNCOLLECTABLE |
	// DEBUG_SAVEALL... objects are added to gc.garbage instead of freed"):
	// a leak-detection run wants every unreachable object preserved for
	// inspection, not just the ones resurrection held back.
	saveAll := debug&(DebugSaveAll|DebugLeak) != 0
	c.mu.Unlock()

	var kept []*object.Object
	for _, o := range garbage {
		if resurrected[o] {
			kept = append(kept, o)
			uncollectable++
			continue
		}
		if saveAll {
			kept = append(kept, o)
			continue
		}
		if o.Class != nil && o.Class.Slots != nil && o.Class.Slots.Clear != nil {
			o.Class.Slots.Clear(o)
		}
		collected++
	}

	c.mu.Lock()
	for _, o := range garbage {
		if !resurrected[o] && !saveAll {
			delete(c.tracked, o)
		}
	}
	if len(kept) > 0 {
		c.garbage = append(c.garbage, kept...)
		if c.u != nil && c.garbageObj != nil {
			for _, o := range kept {
				c.u.ListAppend(c.garbageObj, o)
			}
		}
	}
	c.mu.Unlock()

	return collected, uncollectable
}

func (c *Collector) runCallbacks(phase string, info map[string]int) {
	c.mu.Lock()
	cbs := append([]Callback(nil), c.callbacks...)
	c.mu.Unlock()
	for _, cb := range cbs {
		cb(phase, info)
	}
}
