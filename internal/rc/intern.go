// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rc

import "sync"

// InternThreshold is the byte length under which the constant bag interns a
// string automatically at construction time (spec.md §4.2).
const InternThreshold = 20

// Interned is anything the pool can hand out as a canonical instance: the
// pool is generic over the payload type. internal/pyobj's Universe is its
// only user, for str; the compiler's code-object name tables hold plain Go
// strings and do not go through it.
type Interned[T any] struct {
	Value T
}

// Pool is a reader-writer-locked map from byte content to a canonical
// interned value. Writers only take the lock on first insertion of a new
// string, matching spec.md §5 "Interning pool: a reader-writer lock;
// writers only on first insertion".
type Pool[T any] struct {
	mu    sync.RWMutex
	table map[string]*Interned[T]
}

// NewPool creates an empty intern pool.
func NewPool[T any]() *Pool[T] {
	return &Pool[T]{table: make(map[string]*Interned[T])}
}

// Intern returns the canonical entry for key, constructing one via make if
// this is the first occurrence. Two calls with equal keys return the same
// *Interned[T] pointer, so pointer equality implements "is" comparison for
// interned strings per spec.md §3.
func (p *Pool[T]) Intern(key string, make_ func() T) *Interned[T] {
	p.mu.RLock()
	if v, ok := p.table[key]; ok {
		p.mu.RUnlock()
		return v
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.table[key]; ok {
		return v
	}
	v := &Interned[T]{Value: make_()}
	p.table[key] = v
	return v
}

// Lookup returns the canonical entry for key without creating one.
func (p *Pool[T]) Lookup(key string) (*Interned[T], bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.table[key]
	return v, ok
}

// Len reports the number of distinct interned entries, mostly useful for
// tests and gc debug stats.
func (p *Pool[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.table)
}
