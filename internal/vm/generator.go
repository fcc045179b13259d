// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vm

import (
	"fmt"

	"pygo/internal/exc"
	"pygo/internal/object"
	"pygo/internal/rc"
)

// resumeKind distinguishes the four ways a generator's frame can be driven
// forward, mirroring RustPython's vm/src/coroutine.rs Variant enum: a plain
// `next()`, a `send(value)`, a `throw(exc)`, and the implicit drive `close()`
// uses to inject GeneratorExit at the suspended yield point.
type resumeKind uint8

const (
	resumeNext resumeKind = iota
	resumeSend
	resumeThrow
	resumeClose
)

// resumeMsg is sent into a suspended generator's resumeCh to drive it
// forward one step.
type resumeMsg struct {
	kind resumeKind
	val  *object.Object
	exc  *exc.PyException
}

// yieldMsg is sent back out of a generator's goroutine: either a yielded
// value (done=false), or the frame's final outcome (done=true, with err set
// only if the frame ended by raising rather than returning).
type yieldMsg struct {
	val  *object.Object
	err  *exc.PyException
	done bool
}

// Generator backs a `generator`/`coroutine`/`async generator` object: a
// frame whose execution lives on its own goroutine, suspended at each
// YIELD_VALUE/YIELD_FROM behind a blocking channel read, per spec.md §4.7's
// coroutine model. Only one of {the generator's goroutine, whatever
// goroutine called resume} ever runs at a time — the channel handoff is a
// rendezvous, not real concurrency — so the two sides never touch th.frames
// or th.region.Active concurrently.
type Generator struct {
	th *Thread
	f  *Frame

	resumeCh chan resumeMsg
	yieldCh  chan yieldMsg

	// runGuard is only valid while the goroutine holds the rendezvous
	// (between a resumeCh receive and the matching yieldCh send); suspend
	// and start are the sole writers.
	runGuard *rc.Guard

	started  bool
	finished bool
}

// generatorClassType lazily builds the shared `generator` type: pyobj's
// Universe has no Generator field of its own (generators are internal/vm's
// concern, not internal/pyobj's), so the type is constructed once per
// Thread and cached on first use.
func (th *Thread) generatorClassType() *object.Type {
	if th.generatorType != nil {
		return th.generatorType
	}

	genOf := func(self *object.Object) *Generator { return self.Payload.(*Generator) }

	t := object.NewType("generator", []*object.Type{th.u.Object}, &noAttrsStore{}, &object.SlotTable{
		Repr: func(self *object.Object) (string, error) {
			g := genOf(self)
			return fmt.Sprintf("<generator object %s at 0x%p>", g.f.code.Name, g), nil
		},
		Iter: &object.IterProtocol{
			Iter: func(a *object.Object) (*object.Object, error) { return a, nil },
			IterNext: func(a *object.Object) (*object.Object, error) {
				return genOf(a).next()
			},
		},
		GetAttr: func(self *object.Object, name string) (*object.Object, error) {
			g := genOf(self)
			switch name {
			case "send":
				return th.u.NewNativeFunction("send", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
					val := th.u.None
					if len(args) > 0 {
						val = args[0]
					}
					return g.send(val)
				}), nil
			case "throw":
				return th.u.NewNativeFunction("throw", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
					if len(args) == 0 {
						return nil, fmt.Errorf("TypeError: throw() missing exception argument")
					}
					pe, err := th.valueToException(args[0])
					if err != nil {
						return nil, err
					}
					return g.throw(pe)
				}), nil
			case "close":
				return th.u.NewNativeFunction("close", func(args []*object.Object, kwargs map[string]*object.Object) (*object.Object, error) {
					return g.close()
				}), nil
			}
			return nil, &object.AttributeError{Type: "generator", Name: name}
		},
		// Trace visits a suspended generator's frame contents so a cycle
		// running through a stashed generator (e.g. a generator object that
		// holds a reference back to the container that holds it) is still
		// reachable by internal/gc's tracer instead of looking like a leaf.
		Trace: func(self *object.Object, visit func(child *object.Object)) {
			genOf(self).f.traceRoots(visit)
		},
	}, object.BaseType)
	if err := object.RecomputeMRO(t); err != nil {
		panic(err)
	}
	th.generatorType = t
	return t
}

// noAttrsStore is the class-level attribute dict for the generator type:
// generator instances carry no user-settable class attributes, so GetAttr
// is handled entirely by the slot above rather than through an AttrStore.
type noAttrsStore struct{}

func (*noAttrsStore) GetAttr(name string) (*object.Object, bool) { return nil, false }
func (*noAttrsStore) SetAttr(name string, v *object.Object)      {}
func (*noAttrsStore) DelAttr(name string) bool                   { return false }
func (*noAttrsStore) Keys() []string                             { return nil }

// newGenerator wraps f as a generator object without running any of its
// bytecode: calling a generator function only ever constructs this wrapper
// (spec.md §4.7), matching Python's "the body doesn't execute until the
// first next()/send()" rule. f.yield is wired here so YIELD_VALUE/YIELD_FROM
// (vm.go) have somewhere to suspend to.
func (th *Thread) newGenerator(f *Frame) *object.Object {
	g := &Generator{
		th:       th,
		f:        f,
		resumeCh: make(chan resumeMsg),
		yieldCh:  make(chan yieldMsg),
	}

	f.yield = func(val *object.Object) (*object.Object, error) {
		return g.suspend(val)
	}

	t := th.generatorClassType()
	t.Count.Inc()
	obj := object.New(t, g)
	if th.u.Track != nil {
		th.u.Track(obj)
	}
	return obj
}

// suspend is f.yield's body: it hands val to whoever is waiting on yieldCh,
// blocks until resumed, and turns a throw/close resume into the error
// YIELD_VALUE's caller (the dispatch loop) sees, so an in-body `except`
// clause can observe it exactly like any other raised exception.
func (g *Generator) suspend(val *object.Object) (*object.Object, error) {
	g.th.frames = g.th.frames[:len(g.th.frames)-1]
	g.runGuard.Exit()

	g.yieldCh <- yieldMsg{val: val}
	msg := <-g.resumeCh

	g.runGuard = g.th.region.Enter()
	g.th.frames = append(g.th.frames, g.f)

	switch msg.kind {
	case resumeThrow:
		return nil, msg.exc
	case resumeClose:
		return nil, exc.New(g.th.zoo.GeneratorExit)
	default:
		return msg.val, nil
	}
}

// start launches the generator's goroutine, blocked until resume sends the
// first driving message. The goroutine owns g.f for its entire lifetime;
// th.frames/th.region are only ever touched while it holds the rendezvous
// (see suspend), so a suspended-but-not-yet-finished generator never holds
// the thread's deferred-drop region open.
func (g *Generator) start() {
	g.started = true
	go func() {
		<-g.resumeCh

		g.runGuard = g.th.region.Enter()
		g.th.frames = append(g.th.frames, g.f)

		result, err := g.th.runFrame(g.f)

		g.th.frames = g.th.frames[:len(g.th.frames)-1]
		g.runGuard.Exit()

		if err != nil {
			pe := exc.NormalizeGeneratorExit(g.th.zoo, g.th.wrapError(err), false)
			g.yieldCh <- yieldMsg{err: pe, done: true}
			return
		}
		g.yieldCh <- yieldMsg{val: result, done: true}
	}()
}

// resume is the single entry point every public method (next/send/throw/
// close) and GET_ITER's IterNext slot funnels through.
func (g *Generator) resume(kind resumeKind, val *object.Object, thrown *exc.PyException) (*object.Object, error) {
	if g.finished {
		switch kind {
		case resumeClose:
			return g.th.u.None, nil
		case resumeThrow:
			return nil, thrown
		default:
			return nil, exc.New(g.th.zoo.StopIteration)
		}
	}

	if !g.started {
		switch kind {
		case resumeClose:
			g.finished = true
			return g.th.u.None, nil
		case resumeThrow:
			g.finished = true
			return nil, thrown
		case resumeSend:
			if val != g.th.u.None {
				return nil, fmt.Errorf("TypeError: can't send non-None value to a just-started generator")
			}
		}
		g.start()
	}

	g.resumeCh <- resumeMsg{kind: kind, val: val, exc: thrown}
	msg := <-g.yieldCh

	if !msg.done {
		return msg.val, nil
	}
	g.finished = true
	if msg.err != nil {
		return nil, msg.err
	}
	if msg.val == nil || msg.val == g.th.u.None {
		return nil, exc.New(g.th.zoo.StopIteration)
	}
	return nil, exc.New(g.th.zoo.StopIteration, msg.val)
}

func (g *Generator) next() (*object.Object, error) {
	return g.resume(resumeNext, g.th.u.None, nil)
}

func (g *Generator) send(val *object.Object) (*object.Object, error) {
	return g.resume(resumeSend, val, nil)
}

func (g *Generator) throw(pe *exc.PyException) (*object.Object, error) {
	return g.resume(resumeThrow, g.th.u.None, pe)
}

// close implements generator.close(): a no-op on an unstarted or already
// finished generator, otherwise it injects GeneratorExit at the suspended
// yield point and requires the body to either let it propagate or return
// (possibly after catching it) — yielding again instead is a protocol
// violation CPython reports as "generator ignored GeneratorExit".
func (g *Generator) close() (*object.Object, error) {
	val, err := g.resume(resumeClose, g.th.u.None, nil)
	if err == nil {
		if val == g.th.u.None {
			// Closing an already-finished or never-started generator:
			// resume's early-return paths above hand this back directly.
			return g.th.u.None, nil
		}
		return nil, fmt.Errorf("RuntimeError: generator ignored GeneratorExit")
	}
	pe := g.th.wrapError(err)
	if pe.IsInstance(g.th.zoo.GeneratorExit) || pe.IsInstance(g.th.zoo.StopIteration) {
		return g.th.u.None, nil
	}
	return nil, err
}

// yieldFrom implements YIELD_FROM's delegation (`yield from sub`): drive
// sub's iterator to completion, relaying each value out through f.yield.
// Values sent back in are dropped rather than forwarded into sub's own
// send, since object.IterProtocol exposes only __next__ — a documented
// simplification of full generator-to-generator delegation. The delegated
// StopIteration's value is likewise not recovered (object.IterNext reports
// exhaustion as a plain error, not a value-carrying one), so `yield from`'s
// own expression value is always approximated as None.
func (th *Thread) yieldFrom(f *Frame, sub *object.Object) (*object.Object, error) {
	it, err := object.Iter(sub)
	if err != nil {
		return nil, err
	}
	if f.yield == nil {
		return nil, fmt.Errorf("RuntimeError: yield outside a generator frame")
	}
	for {
		v, err := object.IterNext(it)
		if err != nil {
			if th.wrapError(err).IsInstance(th.zoo.StopIteration) {
				return th.u.None, nil
			}
			return nil, err
		}
		if _, err := f.yield(v); err != nil {
			return nil, err
		}
	}
}
