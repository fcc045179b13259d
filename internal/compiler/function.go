// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"pygo/internal/code"
	"pygo/internal/pyast"
)

// compileFunctionDef lowers a `def` statement: compile the body into its own
// code.Object via a nested fnCompiler, then emit a MAKE_FUNCTION sequence in
// the enclosing scope and bind the result under the function's name
// (spec.md §4.6/§4.7).
func (c *fnCompiler) compileFunctionDef(n *pyast.FunctionDef) error {
	child := c.sc.scopeFor(n)
	fc := newFnCompiler(c.u, c.filename, n.Name, child)
	fc.registerParams(n.Args)
	if err := fc.compileBody(n.Body); err != nil {
		return err
	}
	fc.emitImplicitReturnNone()
	argc, kwOnly := countArgs(n.Args)
	fc.posOnlyCount = len(argOrEmpty(n.Args).PosOnly)
	if n.Args != nil && n.Args.VarArg != nil {
		fc.flags |= code.FlagVarargs
	}
	if n.Args != nil && n.Args.KwArg != nil {
		fc.flags |= code.FlagVarKeywords
	}
	codeObj := fc.finish(argc, kwOnly)

	if err := c.emitMakeFunction(codeObj, child.frees); err != nil {
		return err
	}
	if err := c.emitDefaults(n.Args); err != nil {
		return err
	}
	// Decorators wrap the freshly built function with a call each, applied
	// innermost-first so the last decorator listed is applied first and the
	// first one listed outermost, matching
	// `@a\n@b\ndef f(): ...` == `f = a(b(f))`.
	for i := len(n.Decorators) - 1; i >= 0; i-- {
		if err := c.compileExpr(n.Decorators[i]); err != nil {
			return err
		}
		c.asm.Emit(code.OpRotTwo, 0)
		c.asm.Emit(code.OpCall, 1)
	}
	return c.compileStoreName(n.Name)
}

func argOrEmpty(a *pyast.Arguments) *pyast.Arguments {
	if a == nil {
		return &pyast.Arguments{}
	}
	return a
}

// emitMakeFunction pushes the closure tuple, code object, and qualified
// name, then emits MAKE_FUNCTION; defaults/kwdefaults are pushed separately
// by emitDefaults immediately after, matching the fixed 5-operand order
// OpMakeFunction's StackEffect assumes.
func (c *fnCompiler) emitMakeFunction(codeObj *code.Object, frees []string) error {
	for _, f := range frees {
		idx, ok := c.derefSlotIndex(f)
		if !ok {
			return c.errf("internal: free variable %q has no enclosing cell", f)
		}
		c.asm.Emit(code.OpLoadClosure, idx)
	}
	c.asm.Emit(code.OpBuildTuple, len(frees))
	c.emitCodeConst(codeObj)
	c.emitLoadConst(c.u.NewStr(codeObj.Name))
	return nil
}

// emitCodeConst wraps a nested code.Object as a constant pool entry. Nested
// code objects are never equal to one another by value, so pointer identity
// is always a fresh dedup key (spec.md §4.5: "constants are a deduplicated,
// order-preserving list... including nested code objects").
func (c *fnCompiler) emitCodeConst(codeObj *code.Object) {
	idx := c.addConst(c.u.NewCode(codeObj), codeObj)
	c.asm.Emit(code.OpLoadConst, idx)
}

// emitDefaults pushes the positional-defaults tuple and keyword-defaults
// dict (empty ones when absent) and finally MAKE_FUNCTION itself, completing
// the sequence emitMakeFunction started.
func (c *fnCompiler) emitDefaults(a *pyast.Arguments) error {
	a = argOrEmpty(a)
	for _, d := range a.Defaults {
		if err := c.compileExpr(d); err != nil {
			return err
		}
	}
	c.asm.Emit(code.OpBuildTuple, len(a.Defaults))
	kwCount := 0
	for i, kd := range a.KwDefaults {
		if kd == nil {
			continue
		}
		c.emitLoadConst(c.u.NewStr(a.KwOnly[i].Name))
		if err := c.compileExpr(kd); err != nil {
			return err
		}
		kwCount++
	}
	c.asm.Emit(code.OpBuildMap, kwCount)
	c.asm.Emit(code.OpMakeFunction, 0)
	return nil
}

// compileLambda compiles a `lambda` expression the same way as a def whose
// body is `return <expr>`, leaving the resulting function object on the
// stack rather than binding it to a name.
func (c *fnCompiler) compileLambda(n *pyast.Lambda) error {
	child := c.sc.scopeFor(n)
	fc := newFnCompiler(c.u, c.filename, "<lambda>", child)
	fc.registerParams(n.Args)
	if err := fc.compileExpr(n.Body); err != nil {
		return err
	}
	fc.asm.Emit(code.OpReturnValue, 0)
	argc, kwOnly := countArgs(n.Args)
	fc.posOnlyCount = len(argOrEmpty(n.Args).PosOnly)
	codeObj := fc.finish(argc, kwOnly)
	if err := c.emitMakeFunction(codeObj, child.frees); err != nil {
		return err
	}
	return c.emitDefaults(n.Args)
}

// compileClassDef compiles a class body into its own code object (executed
// once, like a module, to populate the class namespace), then calls the
// 3-argument `type(name, bases, namespace)` protocol to build the class
// object (spec.md §4.3's type-creation path). A class-body code object's
// STORE_NAME instructions target the frame's namespace rather than module
// globals; internal/vm returns that namespace dict in place of whatever
// RETURN_VALUE pops whenever FlagNewLocals is set without FlagGenerator, so
// the explicit `return None` below is a placeholder the VM never surfaces.
func (c *fnCompiler) compileClassDef(n *pyast.ClassDef) error {
	child := c.sc.scopeFor(n)
	fc := newFnCompiler(c.u, c.filename, n.Name, child)
	if err := fc.compileBody(n.Body); err != nil {
		return err
	}
	fc.emitLoadConst(fc.u.None)
	fc.asm.Emit(code.OpReturnValue, 0)
	fc.flags |= code.FlagNewLocals
	codeObj := fc.finish(0, 0)

	if err := c.emitMakeFunction(codeObj, child.frees); err != nil {
		return err
	}
	c.asm.Emit(code.OpBuildTuple, 0) // no positional defaults on a class body
	c.asm.Emit(code.OpBuildMap, 0)
	c.asm.Emit(code.OpMakeFunction, 0)
	c.asm.Emit(code.OpCall, 0) // execute the class body, leaving its namespace dict

	// pygo has no 3-operand stack rotation, so the namespace dict and bases
	// tuple are stashed in synthetic locals while `type` and the class name
	// are loaded, rather than juggled past each other with ROT_TWO.
	nsTmp := c.addVarName(c.tmpName())
	c.asm.Emit(code.OpStoreFast, nsTmp)
	for _, b := range n.Bases {
		if err := c.compileExpr(b); err != nil {
			return err
		}
	}
	c.asm.Emit(code.OpBuildTuple, len(n.Bases))
	basesTmp := c.addVarName(c.tmpName())
	c.asm.Emit(code.OpStoreFast, basesTmp)

	if err := c.compileLoadName("type"); err != nil {
		return err
	}
	c.emitLoadConst(c.u.NewStr(n.Name))
	c.asm.Emit(code.OpLoadFast, basesTmp)
	c.asm.Emit(code.OpLoadFast, nsTmp)
	c.asm.Emit(code.OpCall, 3)

	for i := len(n.Decorators) - 1; i >= 0; i-- {
		if err := c.compileExpr(n.Decorators[i]); err != nil {
			return err
		}
		c.asm.Emit(code.OpRotTwo, 0)
		c.asm.Emit(code.OpCall, 1)
	}
	return c.compileStoreName(n.Name)
}
