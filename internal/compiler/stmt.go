// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"pygo/internal/code"
	"pygo/internal/pyast"
)

func (c *fnCompiler) compileStmt(st pyast.Stmt) error {
	switch n := st.(type) {
	case *pyast.Return:
		if n.Value != nil {
			if err := c.compileExpr(n.Value); err != nil {
				return err
			}
		} else {
			c.emitLoadConst(c.u.None)
		}
		c.asm.Emit(code.OpReturnValue, 0)
		return nil
	case *pyast.Assign:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		for i, t := range n.Targets {
			if i != len(n.Targets)-1 {
				c.asm.Emit(code.OpDupTop, 0)
			}
			if err := c.compileAssignTarget(t); err != nil {
				return err
			}
		}
		return nil
	case *pyast.AugAssign:
		return c.compileAugAssign(n)
	case *pyast.For:
		return c.compileFor(n)
	case *pyast.While:
		return c.compileWhile(n)
	case *pyast.If:
		return c.compileIf(n)
	case *pyast.With:
		return c.compileWith(n)
	case *pyast.Raise:
		return c.compileRaise(n)
	case *pyast.Try:
		return c.compileTry(n)
	case *pyast.Match:
		return c.compileMatch(n)
	case *pyast.Expr_:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.asm.Emit(code.OpPopTop, 0)
		return nil
	case *pyast.Pass:
		return nil
	case *pyast.Break:
		if len(c.loops) == 0 {
			return c.errf("'break' outside loop")
		}
		lp := c.loops[len(c.loops)-1]
		lp.breakTargets = append(lp.breakTargets, c.asm.Emit(code.OpJumpAbsolute, 0))
		return nil
	case *pyast.Continue:
		if len(c.loops) == 0 {
			return c.errf("'continue' not properly in loop")
		}
		lp := c.loops[len(c.loops)-1]
		lp.continueTargets = append(lp.continueTargets, c.asm.Emit(code.OpJumpAbsolute, 0))
		return nil
	case *pyast.Global, *pyast.Nonlocal:
		// Purely a symtab.go-time declaration; resolveName already routed
		// every reference to these names through nameGlobal/nameDeref.
		return nil
	case *pyast.Import:
		for _, a := range n.Names {
			c.emitLoadConst(c.u.NewStr(a.Name))
			c.asm.Emit(code.OpImportName, c.addName(a.Name))
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			if err := c.compileStoreName(name); err != nil {
				return err
			}
		}
		return nil
	case *pyast.ImportFrom:
		modName := n.Module
		c.emitLoadConst(c.u.NewStr(modName))
		c.asm.Emit(code.OpImportName, c.addName(modName))
		for _, a := range n.Names {
			if a.Name == "*" {
				c.asm.Emit(code.OpImportStar, 0)
				continue
			}
			// IMPORT_FROM leaves the module on the stack (so the next name
			// in the list can reuse it) and pushes the looked-up value.
			c.asm.Emit(code.OpImportFrom, c.addName(a.Name))
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			if err := c.compileStoreName(name); err != nil {
				return err
			}
		}
		c.asm.Emit(code.OpPopTop, 0)
		return nil
	case *pyast.FunctionDef:
		return c.compileFunctionDef(n)
	case *pyast.ClassDef:
		return c.compileClassDef(n)
	}
	return c.errf("unsupported statement node %T", st)
}

// compileAssignTarget stores the value already on top of the stack into
// target, recursing through tuple/list unpacking via UNPACK_SEQUENCE.
func (c *fnCompiler) compileAssignTarget(target pyast.Expr) error {
	switch t := target.(type) {
	case *pyast.Name:
		return c.compileStoreName(t.Id)
	case *pyast.Attribute:
		// Stack is ..., value, receiver (receiver pushed last, on top);
		// SET_ATTR pops both in that order.
		if err := c.compileExpr(t.Value); err != nil {
			return err
		}
		c.asm.Emit(code.OpSetAttr, c.addName(t.Attr))
		return nil
	case *pyast.Subscript:
		// Stack is ..., value, container, index (each pushed in turn);
		// STORE_SUBSCR pops all three in that order.
		if err := c.compileExpr(t.Value); err != nil {
			return err
		}
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		c.asm.Emit(code.OpStoreSubscr, 0)
		return nil
	case *pyast.TupleExpr:
		return c.compileUnpackTargets(t.Elts)
	case *pyast.ListExpr:
		return c.compileUnpackTargets(t.Elts)
	case *pyast.Starred:
		return c.compileAssignTarget(t.Value)
	}
	return c.errf("unsupported assignment target %T", target)
}

func (c *fnCompiler) compileUnpackTargets(elts []pyast.Expr) error {
	c.asm.Emit(code.OpUnpackSequence, len(elts))
	for _, e := range elts {
		if err := c.compileAssignTarget(e); err != nil {
			return err
		}
	}
	return nil
}

// compileAugAssign reads the target, applies the operator, and stores back.
// For an Attribute or Subscript target this recompiles the receiver/index
// expressions a second time (once to read, once to store); a target with a
// side-effecting receiver (`f()[g()] += 1`) evaluates f()/g() twice, unlike
// CPython's single-evaluation DUP_TOP sequence — a documented simplification.
func (c *fnCompiler) compileAugAssign(n *pyast.AugAssign) error {
	if err := c.compileExpr(n.Target); err != nil {
		return err
	}
	if err := c.compileExpr(n.Value); err != nil {
		return err
	}
	op, ok := binOpToOpcode[n.Op]
	if !ok {
		return c.errf("unsupported augmented assignment operator %v", n.Op)
	}
	c.asm.Emit(op, 0)
	return c.compileAssignTarget(n.Target)
}

// compileFor lowers GET_ITER/FOR_ITER with an else-clause run only when the
// loop exhausts without a `break` (spec.md's for/else edge case).
func (c *fnCompiler) compileFor(n *pyast.For) error {
	if err := c.compileExpr(n.Iter); err != nil {
		return err
	}
	c.asm.Emit(code.OpGetIter, 0)
	lp := &loopCtx{}
	c.loops = append(c.loops, lp)

	loopStart := c.asm.Len()
	forPC := c.asm.Emit(code.OpForIter, 0)
	if err := c.compileAssignTarget(n.Target); err != nil {
		return err
	}
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	for _, pc := range lp.continueTargets {
		c.asm.Patch(pc, loopStart)
	}
	c.asm.Emit(code.OpJumpAbsolute, loopStart)
	c.asm.Patch(forPC, c.asm.Len())

	c.loops = c.loops[:len(c.loops)-1]
	if err := c.compileBody(n.OrElse); err != nil {
		return err
	}
	end := c.asm.Len()
	for _, pc := range lp.breakTargets {
		c.asm.Patch(pc, end)
	}
	return nil
}

func (c *fnCompiler) compileWhile(n *pyast.While) error {
	lp := &loopCtx{}
	c.loops = append(c.loops, lp)

	testStart := c.asm.Len()
	if err := c.compileExpr(n.Test); err != nil {
		return err
	}
	exitPC := c.asm.Emit(code.OpJumpIfFalse, 0)
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	for _, pc := range lp.continueTargets {
		c.asm.Patch(pc, testStart)
	}
	c.asm.Emit(code.OpJumpAbsolute, testStart)
	c.asm.Patch(exitPC, c.asm.Len())

	c.loops = c.loops[:len(c.loops)-1]
	if err := c.compileBody(n.OrElse); err != nil {
		return err
	}
	end := c.asm.Len()
	for _, pc := range lp.breakTargets {
		c.asm.Patch(pc, end)
	}
	return nil
}

func (c *fnCompiler) compileIf(n *pyast.If) error {
	if err := c.compileExpr(n.Test); err != nil {
		return err
	}
	elsePC := c.asm.Emit(code.OpJumpIfFalse, 0)
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	if len(n.OrElse) == 0 {
		c.asm.Patch(elsePC, c.asm.Len())
		return nil
	}
	endPC := c.asm.Emit(code.OpJumpAbsolute, 0)
	c.asm.Patch(elsePC, c.asm.Len())
	if err := c.compileBody(n.OrElse); err != nil {
		return err
	}
	c.asm.Patch(endPC, c.asm.Len())
	return nil
}

// compileWith lowers `with expr as target: body` into the iterator-free
// context-manager protocol: __enter__ is called eagerly and
// __exit__(None, None, None) is called after the body completes normally.
// There is no SETUP_WITH-style handler: an exception raised inside the body
// propagates via the surrounding exception table, if any, and __exit__ is
// not called for it, so it can neither observe nor suppress the exception.
func (c *fnCompiler) compileWith(n *pyast.With) error {
	if len(n.Items) == 0 {
		return c.compileBody(n.Body)
	}
	item := n.Items[0]
	if err := c.compileExpr(item.ContextExpr); err != nil {
		return err
	}
	mgr := c.addVarName(c.tmpName())
	c.asm.Emit(code.OpStoreFast, mgr)
	c.asm.Emit(code.OpLoadFast, mgr)
	c.asm.Emit(code.OpGetAttr, c.addName("__enter__"))
	c.asm.Emit(code.OpCall, 0)
	if item.OptionalVars != nil {
		if err := c.compileAssignTarget(item.OptionalVars); err != nil {
			return err
		}
	} else {
		c.asm.Emit(code.OpPopTop, 0)
	}
	rest := &pyast.With{Items: n.Items[1:], Body: n.Body, IsAsync: n.IsAsync}
	var err error
	if len(rest.Items) > 0 {
		err = c.compileWith(rest)
	} else {
		err = c.compileBody(n.Body)
	}
	c.asm.Emit(code.OpLoadFast, mgr)
	c.asm.Emit(code.OpGetAttr, c.addName("__exit__"))
	c.emitLoadConst(c.u.None)
	c.emitLoadConst(c.u.None)
	c.emitLoadConst(c.u.None)
	c.asm.Emit(code.OpCall, 3)
	c.asm.Emit(code.OpPopTop, 0)
	return err
}

func (c *fnCompiler) compileRaise(n *pyast.Raise) error {
	nargs := 0
	if n.Exc != nil {
		if err := c.compileExpr(n.Exc); err != nil {
			return err
		}
		nargs++
		if n.Cause != nil {
			if err := c.compileExpr(n.Cause); err != nil {
				return err
			}
			nargs++
		}
	}
	c.asm.Emit(code.OpRaiseVarargs, nargs)
	return nil
}

// compileTry builds an ExceptEntry per handler, covering the whole guarded
// range with the innermost-first lookup internal/vm's HandlerFor performs
// (spec.md §4.5's side exception table). When a `finally` clause is present,
// a second, wider ExceptEntry spans the try body and every handler body,
// marked IsFinallyReraise: any exception that isn't caught by a handler, or
// that a handler itself raises, lands there, runs a second copy of the
// finally body, and re-raises via RERAISE — the mechanism that makes finally
// run on the exceptional exit path as well as the normal one (spec.md §4.7
// "finally blocks run on every exit path").
func (c *fnCompiler) compileTry(n *pyast.Try) error {
	startPC := c.asm.Len()
	if err := c.compileBody(n.Body); err != nil {
		return err
	}
	if err := c.compileBody(n.OrElse); err != nil {
		return err
	}
	bodyEnd := c.asm.Len()
	endJumps := []int{c.asm.Emit(code.OpJumpAbsolute, 0)}

	for _, h := range n.Handlers {
		handlerPC := c.asm.Len()
		typeNameIdx := -1
		if name, ok := h.Type.(*pyast.Name); ok {
			typeNameIdx = c.addName(name.Id)
		}
		c.exceptTbl = append(c.exceptTbl, code.ExceptEntry{
			StartInstr: startPC, EndInstr: bodyEnd, Handler: handlerPC, TypeNameIdx: typeNameIdx,
		})
		// internal/vm resolves TypeNameIdx and pushes the matched exception
		// object before jumping here; the handler's own bytecode only
		// binds it (or discards it for a bare `except:`).
		if h.Name != "" {
			if err := c.compileStoreName(h.Name); err != nil {
				return err
			}
		} else {
			c.asm.Emit(code.OpPopTop, 0)
		}
		if err := c.compileBody(h.Body); err != nil {
			return err
		}
		c.asm.Emit(code.OpPopExcept, 0)
		endJumps = append(endJumps, c.asm.Emit(code.OpJumpAbsolute, 0))
	}
	handlersEnd := c.asm.Len()

	end := c.asm.Len()
	for _, pc := range endJumps {
		c.asm.Patch(pc, end)
	}

	if len(n.Finally) == 0 {
		return nil
	}

	if err := c.compileBody(n.Finally); err != nil {
		return err
	}
	skipReraise := c.asm.Emit(code.OpJumpAbsolute, 0)

	reraisePC := c.asm.Len()
	c.exceptTbl = append(c.exceptTbl, code.ExceptEntry{
		StartInstr: startPC, EndInstr: handlersEnd, Handler: reraisePC, TypeNameIdx: -1, IsFinallyReraise: true,
	})
	if err := c.compileBody(n.Finally); err != nil {
		return err
	}
	c.asm.Emit(code.OpReraise, 0)
	c.asm.Patch(skipReraise, c.asm.Len())
	return nil
}

// compileMatch lowers the subset of pattern-match pygo supports at the
// compiler level: literal-value patterns and capture/wildcard bindings
// (spec.md's structural-pattern non-goal leaves deeper class/sequence
// patterns to a future compiler pass; MatchValue/MatchAs already cover the
// common guard-clause style rewrite of an if/elif chain).
func (c *fnCompiler) compileMatch(n *pyast.Match) error {
	if err := c.compileExpr(n.Subject); err != nil {
		return err
	}
	subj := c.addVarName(c.tmpName())
	c.asm.Emit(code.OpStoreFast, subj)

	var endJumps []int
	for _, cs := range n.Cases {
		c.asm.Emit(code.OpLoadFast, subj)
		if err := c.compileMatchPattern(cs.Pattern); err != nil {
			return err
		}
		skipPC := c.asm.Emit(code.OpJumpIfFalse, 0)
		if cs.Guard != nil {
			if err := c.compileExpr(cs.Guard); err != nil {
				return err
			}
			guardSkip := c.asm.Emit(code.OpJumpIfFalse, 0)
			if err := c.compileBody(cs.Body); err != nil {
				return err
			}
			endJumps = append(endJumps, c.asm.Emit(code.OpJumpAbsolute, 0))
			c.asm.Patch(guardSkip, c.asm.Len())
		} else {
			if err := c.compileBody(cs.Body); err != nil {
				return err
			}
			endJumps = append(endJumps, c.asm.Emit(code.OpJumpAbsolute, 0))
		}
		c.asm.Patch(skipPC, c.asm.Len())
	}
	end := c.asm.Len()
	for _, pc := range endJumps {
		c.asm.Patch(pc, end)
	}
	return nil
}

// compileMatchPattern consumes the subject value on top of stack and pushes
// a bool reporting whether it matched, binding any capture name as a side
// effect (mirroring how Compare leaves a bool for If to branch on).
func (c *fnCompiler) compileMatchPattern(p pyast.Pattern) error {
	switch pat := p.(type) {
	case *pyast.MatchValue:
		if err := c.compileExpr(pat.Value); err != nil {
			return err
		}
		c.asm.Emit(code.OpCompareOp, int(cmpOpToEnum[pyast.CmpEq]))
		return nil
	case *pyast.MatchAs:
		if pat.Pattern != nil {
			// Stack: [subj] -> [subj, subj] -> [subj, matched]; ROT_TWO
			// brings subj back to the top either way, since both the bind
			// and the discard need to consume it rather than the result.
			c.asm.Emit(code.OpDupTop, 0)
			if err := c.compileMatchPattern(pat.Pattern); err != nil {
				return err
			}
			c.asm.Emit(code.OpRotTwo, 0)
			if pat.Name != "" {
				if err := c.compileStoreName(pat.Name); err != nil {
					return err
				}
			} else {
				c.asm.Emit(code.OpPopTop, 0)
			}
			return nil
		}
		if pat.Name != "" {
			if err := c.compileStoreName(pat.Name); err != nil {
				return err
			}
		} else {
			c.asm.Emit(code.OpPopTop, 0)
		}
		c.emitLoadConst(c.u.Bool_(true))
		return nil
	}
	return c.errf("unsupported match pattern %T", p)
}
