// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compiler lowers internal/pyast trees into internal/code.Object
// bytecode (spec.md §4.6, C6). It never mutates or re-parses its input tree;
// scope analysis, basic-block emission, and the final linearization pass all
// read pyast nodes and write code.Object fields only.
package compiler

import "pygo/internal/pyast"

// scopeKind distinguishes the three binding rules a Python scope can have
// (spec.md §4.6 "Scope analysis classifies every name...").
type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
)

// scopeRegistry lets the compiler look up the pre-built child scope for a
// given FunctionDef/ClassDef/Lambda node without re-running scope analysis;
// every scope in one buildModuleScope/newScope(nil,...) tree shares the
// root's registry.
type scopeRegistry struct {
	byNode map[pyast.Node]*scope
}

// scope is one lexical scope's symbol table, built bottom-up by collect and
// resolved top-down by resolveFree once every nested scope has reported
// its reads.
type scope struct {
	kind     scopeKind
	name     string
	parent   *scope
	children []*scope
	reg      *scopeRegistry

	assigned  map[string]bool // bound somewhere in this scope's own body
	globalDecl map[string]bool
	nonlocalDecl map[string]bool
	read      map[string]bool // names read anywhere in this scope or below that weren't locally resolved

	// Results, filled in by resolveFree/classify:
	locals  []string // varnames, parameters first (functions only)
	cells   []string // names captured by a nested scope
	frees   []string // names this scope itself captures from an ancestor
	globals map[string]bool
}

func newScope(kind scopeKind, name string, parent *scope) *scope {
	s := &scope{
		kind: kind, name: name, parent: parent,
		assigned: map[string]bool{}, globalDecl: map[string]bool{},
		nonlocalDecl: map[string]bool{}, read: map[string]bool{},
	}
	if parent != nil {
		parent.children = append(parent.children, s)
		s.reg = parent.reg
	} else {
		s.reg = &scopeRegistry{byNode: map[pyast.Node]*scope{}}
	}
	return s
}

// scopeFor returns the pre-built child scope registered for an AST node
// (a FunctionDef, ClassDef, or Lambda), panicking if scope analysis never
// visited it — which would itself be a compiler bug, since every such node
// collectStmt/collectExpr sees gets registered during the single bottom-up
// pass that precedes codegen.
func (s *scope) scopeFor(n pyast.Node) *scope {
	child, ok := s.reg.byNode[n]
	if !ok {
		panic("compiler: no scope registered for node; symtab pass incomplete")
	}
	return child
}

// buildModuleScope walks a whole module body, producing the module's root
// scope and its fully-built descendant tree (one scope per function/lambda/
// class). Comprehensions are deliberately NOT given their own scope: pygo
// compiles them as an inline loop in the enclosing scope (see expr.go's
// compileComprehension), a documented simplification relative to CPython's
// PEP 572-era per-comprehension scope (DESIGN.md Open Question).
func buildModuleScope(body []pyast.Stmt) *scope {
	root := newScope(scopeModule, "<module>", nil)
	collectStmts(root, body)
	resolveFree(root)
	return root
}

func collectStmts(s *scope, stmts []pyast.Stmt) {
	for _, st := range stmts {
		collectStmt(s, st)
	}
}

func collectStmt(s *scope, st pyast.Stmt) {
	switch n := st.(type) {
	case *pyast.FunctionDef:
		s.assigned[n.Name] = true
		for _, d := range n.Decorators {
			collectExpr(s, d)
		}
		if n.Args != nil {
			for _, d := range n.Args.Defaults {
				collectExpr(s, d)
			}
			for _, d := range n.Args.KwDefaults {
				if d != nil {
					collectExpr(s, d)
				}
			}
		}
		child := newScope(scopeFunction, n.Name, s)
		s.reg.byNode[n] = child
		collectArgs(child, n.Args)
		collectStmts(child, n.Body)
		resolveLater(s, child)
	case *pyast.ClassDef:
		s.assigned[n.Name] = true
		for _, d := range n.Decorators {
			collectExpr(s, d)
		}
		for _, b := range n.Bases {
			collectExpr(s, b)
		}
		child := newScope(scopeClass, n.Name, s)
		s.reg.byNode[n] = child
		collectStmts(child, n.Body)
		resolveLater(s, child)
	case *pyast.Return:
		if n.Value != nil {
			collectExpr(s, n.Value)
		}
	case *pyast.Assign:
		collectExpr(s, n.Value)
		for _, t := range n.Targets {
			collectTarget(s, t)
		}
	case *pyast.AugAssign:
		collectTarget(s, n.Target)
		collectExpr(s, n.Target)
		collectExpr(s, n.Value)
	case *pyast.For:
		collectExpr(s, n.Iter)
		collectTarget(s, n.Target)
		collectStmts(s, n.Body)
		collectStmts(s, n.OrElse)
	case *pyast.While:
		collectExpr(s, n.Test)
		collectStmts(s, n.Body)
		collectStmts(s, n.OrElse)
	case *pyast.If:
		collectExpr(s, n.Test)
		collectStmts(s, n.Body)
		collectStmts(s, n.OrElse)
	case *pyast.With:
		for _, it := range n.Items {
			collectExpr(s, it.ContextExpr)
			if it.OptionalVars != nil {
				collectTarget(s, it.OptionalVars)
			}
		}
		collectStmts(s, n.Body)
	case *pyast.Raise:
		if n.Exc != nil {
			collectExpr(s, n.Exc)
		}
		if n.Cause != nil {
			collectExpr(s, n.Cause)
		}
	case *pyast.Try:
		collectStmts(s, n.Body)
		for _, h := range n.Handlers {
			if h.Type != nil {
				collectExpr(s, h.Type)
			}
			if h.Name != "" {
				s.assigned[h.Name] = true
			}
			collectStmts(s, h.Body)
		}
		collectStmts(s, n.OrElse)
		collectStmts(s, n.Finally)
	case *pyast.Expr_:
		collectExpr(s, n.Value)
	case *pyast.Global:
		for _, name := range n.Names {
			s.globalDecl[name] = true
		}
	case *pyast.Nonlocal:
		for _, name := range n.Names {
			s.nonlocalDecl[name] = true
		}
	case *pyast.Import:
		for _, a := range n.Names {
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			s.assigned[name] = true
		}
	case *pyast.ImportFrom:
		for _, a := range n.Names {
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			s.assigned[name] = true
		}
	case *pyast.Pass, *pyast.Break, *pyast.Continue:
		// no names
	}
}

// resolveLater defers a child scope's free-variable resolution until its
// own collection pass (over its full body) has finished; since Go compiles
// scopes depth-first this simply means nothing more happens here except
// recording the parent link, which newScope already did.
func resolveLater(parent, child *scope) {}

func collectArgs(s *scope, a *pyast.Arguments) {
	if a == nil {
		return
	}
	for _, arg := range a.PosOnly {
		s.assigned[arg.Name] = true
	}
	for _, arg := range a.Args {
		s.assigned[arg.Name] = true
	}
	if a.VarArg != nil {
		s.assigned[a.VarArg.Name] = true
	}
	for _, arg := range a.KwOnly {
		s.assigned[arg.Name] = true
	}
	if a.KwArg != nil {
		s.assigned[a.KwArg.Name] = true
	}
}

func collectTarget(s *scope, target pyast.Expr) {
	switch t := target.(type) {
	case *pyast.Name:
		s.assigned[t.Id] = true
	case *pyast.TupleExpr:
		for _, e := range t.Elts {
			collectTarget(s, e)
		}
	case *pyast.ListExpr:
		for _, e := range t.Elts {
			collectTarget(s, e)
		}
	case *pyast.Starred:
		collectTarget(s, t.Value)
	case *pyast.Attribute, *pyast.Subscript:
		collectExpr(s, target) // not a binding, just evaluates the receiver
	}
}

func collectExpr(s *scope, e pyast.Expr) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *pyast.Name:
		s.read[n.Id] = true
	case *pyast.Constant:
	case *pyast.BinOp:
		collectExpr(s, n.Left)
		collectExpr(s, n.Right)
	case *pyast.UnaryOp:
		collectExpr(s, n.Operand)
	case *pyast.BoolOp:
		for _, v := range n.Values {
			collectExpr(s, v)
		}
	case *pyast.Compare:
		collectExpr(s, n.Left)
		for _, c := range n.Comparators {
			collectExpr(s, c)
		}
	case *pyast.Call:
		collectExpr(s, n.Func)
		for _, a := range n.Args {
			collectExpr(s, a)
		}
		for _, k := range n.Keywords {
			collectExpr(s, k.Value)
		}
	case *pyast.Attribute:
		collectExpr(s, n.Value)
	case *pyast.Subscript:
		collectExpr(s, n.Value)
		collectExpr(s, n.Index)
	case *pyast.Lambda:
		if n.Args != nil {
			for _, d := range n.Args.Defaults {
				collectExpr(s, d)
			}
		}
		child := newScope(scopeFunction, "<lambda>", s)
		s.reg.byNode[n] = child
		collectArgs(child, n.Args)
		collectExpr(child, n.Body)
	case *pyast.IfExp:
		collectExpr(s, n.Test)
		collectExpr(s, n.Body)
		collectExpr(s, n.OrElse)
	case *pyast.ListExpr:
		for _, el := range n.Elts {
			collectExpr(s, el)
		}
	case *pyast.TupleExpr:
		for _, el := range n.Elts {
			collectExpr(s, el)
		}
	case *pyast.SetExpr:
		for _, el := range n.Elts {
			collectExpr(s, el)
		}
	case *pyast.DictExpr:
		for _, k := range n.Keys {
			collectExpr(s, k)
		}
		for _, v := range n.Values {
			collectExpr(s, v)
		}
	case *pyast.ListComp:
		collectComprehension(s, n.Gens)
		collectExpr(s, n.Elt)
	case *pyast.GeneratorExp:
		collectComprehension(s, n.Gens)
		collectExpr(s, n.Elt)
	case *pyast.Yield:
		if n.Value != nil {
			collectExpr(s, n.Value)
		}
	case *pyast.YieldFrom:
		collectExpr(s, n.Value)
	case *pyast.Await:
		collectExpr(s, n.Value)
	case *pyast.Starred:
		collectExpr(s, n.Value)
	}
}

// collectComprehension treats a comprehension's loop targets as ordinary
// assignments in the enclosing scope per the inline-loop desugaring.
func collectComprehension(s *scope, gens []pyast.Comprehension) {
	for _, g := range gens {
		collectExpr(s, g.Iter)
		collectTarget(s, g.Target)
		for _, cond := range g.Ifs {
			collectExpr(s, cond)
		}
	}
}

// resolveFree walks the scope tree bottom-up (post-order via recursion),
// propagating each child's unresolved reads up as its own reads, then
// classifies every scope's names into locals/cells/frees/globals.
func resolveFree(s *scope) {
	for _, c := range s.children {
		resolveFree(c)
	}
	classify(s)
	// After classifying, propagate this scope's own unresolved reads
	// (names neither assigned nor found as a cell it owns) up to the
	// parent so an ancestor function can supply them as a free variable.
	if s.parent != nil {
		for name := range s.read {
			if s.globals[name] || s.assigned[name] || s.globalDecl[name] {
				continue
			}
			if containsStr(s.frees, name) {
				s.parent.read[name] = true
			}
		}
	}
}

func classify(s *scope) {
	s.globals = map[string]bool{}
	if s.kind == scopeModule {
		for name := range s.assigned {
			s.locals = append(s.locals, name)
			s.globals[name] = true
		}
		for name := range s.read {
			s.globals[name] = true
		}
		return
	}

	// A nonlocal name binds the enclosing function's variable, never a local
	// of s: classify it as free even where s assigns it.
	for name := range s.nonlocalDecl {
		delete(s.assigned, name)
		s.read[name] = true
	}

	// A name is free in s if read here (or bubbled up from a child) but
	// not assigned locally and not declared global, AND an enclosing
	// function scope assigns it.
	for name := range s.read {
		if s.globalDecl[name] {
			s.globals[name] = true
			continue
		}
		if s.assigned[name] {
			continue
		}
		if enclosingFunctionAssigns(s.parent, name) {
			s.frees = append(s.frees, name)
		} else {
			s.globals[name] = true
		}
	}
	for name := range s.assigned {
		if s.globalDecl[name] {
			s.globals[name] = true
			continue
		}
		s.locals = append(s.locals, name)
	}

	// Mark cell vars on THIS scope for every local a child captures as free.
	for _, c := range s.children {
		for _, f := range c.frees {
			if containsStr(s.locals, f) && !containsStr(s.cells, f) {
				s.cells = append(s.cells, f)
			}
		}
	}
}

func enclosingFunctionAssigns(s *scope, name string) bool {
	for p := s; p != nil; p = p.parent {
		if p.kind == scopeClass {
			continue // class scopes never supply a free variable to nested functions
		}
		if p.assigned[name] && !p.globalDecl[name] {
			return true
		}
		if p.kind == scopeModule {
			return false
		}
	}
	return false
}

func containsStr(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
