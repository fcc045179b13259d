// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exc

// ActiveStack tracks the currently-handled exception per frame, so a bare
// `raise` inside an except block re-raises it and so a fresh raise inside a
// handler sets __context__ to it (spec.md §4.4). One ActiveStack is owned
// by each internal/vm.Frame.
type ActiveStack struct {
	stack []*PyException
}

// Push records exc as the currently-handled exception (entering an except
// block).
func (s *ActiveStack) Push(exc *PyException) { s.stack = append(s.stack, exc) }

// Pop removes the most recently pushed exception (leaving an except block).
func (s *ActiveStack) Pop() {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// Current returns the exception currently being handled, or nil.
func (s *ActiveStack) Current() *PyException {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Raise normalizes a newly-raised exception against whatever is currently
// being handled: it becomes exc's __context__ unless exc already has one,
// whether or not exc carries an explicit __cause__ (spec.md §4.4).
func (s *ActiveStack) Raise(exc *PyException) *PyException {
	if cur := s.Current(); cur != nil && cur != exc {
		exc.WithContext(cur)
	}
	return exc
}

// NormalizeGeneratorExit converts a StopIteration (or StopAsyncIteration)
// that escapes a generator/coroutine body into a RuntimeError with the
// original as __cause__, per spec.md §4.4:
//
//	"StopIteration leaking out of a generator body becomes a
//	RuntimeError("generator raised StopIteration") with the original as
//	__cause__; analogously StopAsyncIteration -> RuntimeError for async
//	generators."
func NormalizeGeneratorExit(z *Zoo, leaked *PyException, isAsync bool) *PyException {
	var msg string
	switch {
	case leaked.IsInstance(z.StopAsyncIteration) || (isAsync && leaked.IsInstance(z.StopIteration)):
		msg = "async generator raised StopAsyncIteration"
	case leaked.IsInstance(z.StopIteration):
		msg = "generator raised StopIteration"
	default:
		return leaked
	}
	wrapped := z.StrArg(z.RuntimeError, msg)
	return wrapped.WithCause(leaked)
}
