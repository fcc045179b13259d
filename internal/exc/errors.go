// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exc

import "pygo/internal/object"

// Zoo is the set of built-in exception types, constructed once by the
// interpreter façade (internal/interpreter) during initialization and
// shared by every frame that raises. Field names match spec.md §7.
type Zoo struct {
	BaseException *object.Type

	Exception         *object.Type
	TypeError         *object.Type
	ValueError        *object.Type
	AttributeError    *object.Type
	LookupError       *object.Type
	KeyError          *object.Type
	IndexError        *object.Type
	StopIteration     *object.Type
	StopAsyncIteration *object.Type
	RuntimeError      *object.Type
	RecursionError    *object.Type
	OSError           *object.Type
	MemoryError       *object.Type
	ReferenceError    *object.Type
	SystemExit        *object.Type
	KeyboardInterrupt *object.Type
	GeneratorExit     *object.Type
	NameError         *object.Type
	UnboundLocalError *object.Type
	ZeroDivisionError *object.Type
	ArithmeticError   *object.Type
	NotImplementedErr *object.Type
	ImportError       *object.Type
	ModuleNotFoundErr  *object.Type
	CancelledError     *object.Type
}

func leaf(name string, base *object.Type) *object.Type {
	t := object.NewType(name, []*object.Type{base}, nil, nil, object.BaseType|object.HasDict)
	if err := object.RecomputeMRO(t); err != nil {
		panic(err)
	}
	return t
}

// NewZoo builds the exception hierarchy spec.md §4.4/§7 describes:
//
//	BaseException
//	 +-- SystemExit
//	 +-- KeyboardInterrupt
//	 +-- GeneratorExit
//	 +-- Exception
//	      +-- StopIteration
//	      +-- StopAsyncIteration
//	      +-- ArithmeticError
//	      |    +-- ZeroDivisionError
//	      +-- LookupError
//	      |    +-- IndexError
//	      |    +-- KeyError
//	      +-- NameError
//	      |    +-- UnboundLocalError
//	      +-- RuntimeError
//	      |    +-- NotImplementedError
//	      |    +-- RecursionError
//	      +-- TypeError
//	      +-- ValueError
//	      +-- AttributeError
//	      +-- ReferenceError
//	      +-- MemoryError
//	      +-- OSError
//	      +-- ImportError
//	      |    +-- ModuleNotFoundError
//	      +-- CancelledError (asyncio; supplemented per SPEC_FULL §4)
func NewZoo() *Zoo {
	base := object.NewType("BaseException", nil, nil, nil, object.BaseType|object.HasDict)
	if err := object.RecomputeMRO(base); err != nil {
		panic(err)
	}

	z := &Zoo{BaseException: base}
	z.SystemExit = leaf("SystemExit", base)
	z.KeyboardInterrupt = leaf("KeyboardInterrupt", base)
	z.GeneratorExit = leaf("GeneratorExit", base)
	z.Exception = leaf("Exception", base)

	z.StopIteration = leaf("StopIteration", z.Exception)
	z.StopAsyncIteration = leaf("StopAsyncIteration", z.Exception)
	z.ArithmeticError = leaf("ArithmeticError", z.Exception)
	z.ZeroDivisionError = leaf("ZeroDivisionError", z.ArithmeticError)
	z.LookupError = leaf("LookupError", z.Exception)
	z.IndexError = leaf("IndexError", z.LookupError)
	z.KeyError = leaf("KeyError", z.LookupError)
	z.NameError = leaf("NameError", z.Exception)
	z.UnboundLocalError = leaf("UnboundLocalError", z.NameError)
	z.RuntimeError = leaf("RuntimeError", z.Exception)
	z.NotImplementedErr = leaf("NotImplementedError", z.RuntimeError)
	z.RecursionError = leaf("RecursionError", z.RuntimeError)
	z.TypeError = leaf("TypeError", z.Exception)
	z.ValueError = leaf("ValueError", z.Exception)
	z.AttributeError = leaf("AttributeError", z.Exception)
	z.ReferenceError = leaf("ReferenceError", z.Exception)
	z.MemoryError = leaf("MemoryError", z.Exception)
	z.OSError = leaf("OSError", z.Exception)
	z.ImportError = leaf("ImportError", z.Exception)
	z.ModuleNotFoundErr = leaf("ModuleNotFoundError", z.ImportError)
	z.CancelledError = leaf("CancelledError", z.Exception)

	return z
}

// StrArg returns a single-string-argument exception instance, the common
// shape for `raise ValueError("message")`.
func (z *Zoo) StrArg(typ *object.Type, msg string) *PyException {
	return New(typ, &object.Object{Payload: msg})
}
