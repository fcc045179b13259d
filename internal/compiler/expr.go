// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"fmt"
	"math/big"

	"pygo/internal/code"
	"pygo/internal/object"
	"pygo/internal/pyast"
)

func (c *fnCompiler) compileExpr(e pyast.Expr) error {
	switch n := e.(type) {
	case *pyast.Constant:
		return c.compileConstant(n.Value)
	case *pyast.Name:
		return c.compileLoadName(n.Id)
	case *pyast.BinOp:
		return c.compileBinOp(n)
	case *pyast.UnaryOp:
		return c.compileUnaryOp(n)
	case *pyast.BoolOp:
		return c.compileBoolOp(n)
	case *pyast.Compare:
		return c.compileCompare(n)
	case *pyast.Call:
		return c.compileCall(n)
	case *pyast.Attribute:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.asm.Emit(code.OpGetAttr, c.addName(n.Attr))
		return nil
	case *pyast.Subscript:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		if err := c.compileExpr(n.Index); err != nil {
			return err
		}
		c.asm.Emit(code.OpBinarySubscr, 0)
		return nil
	case *pyast.IfExp:
		return c.compileIfExp(n)
	case *pyast.ListExpr:
		return c.compileSeqLiteral(n.Elts, code.OpBuildList)
	case *pyast.TupleExpr:
		return c.compileSeqLiteral(n.Elts, code.OpBuildTuple)
	case *pyast.SetExpr:
		return c.compileSeqLiteral(n.Elts, code.OpBuildSet)
	case *pyast.DictExpr:
		return c.compileDictLiteral(n)
	case *pyast.Lambda:
		return c.compileLambda(n)
	case *pyast.ListComp:
		return c.compileComprehension(n.Elt, n.Gens, code.OpBuildList)
	case *pyast.GeneratorExp:
		// pygo does not implement a distinct generator-expression lazy
		// protocol at the compiler level (that needs internal/vm's
		// suspend/resume machinery over a synthetic generator function);
		// as a documented simplification, a genexp compiles exactly like a
		// list comprehension. internal/vm may special-case true laziness
		// later without changing this package.
		return c.compileComprehension(n.Elt, n.Gens, code.OpBuildList)
	case *pyast.Yield:
		if n.Value != nil {
			if err := c.compileExpr(n.Value); err != nil {
				return err
			}
		} else {
			c.emitLoadConst(c.u.None)
		}
		c.flags |= code.FlagGenerator
		c.asm.Emit(code.OpYieldValue, 0)
		return nil
	case *pyast.YieldFrom:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.flags |= code.FlagGenerator
		c.asm.Emit(code.OpYieldFrom, 0)
		return nil
	case *pyast.Await:
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.flags |= code.FlagCoroutine
		c.asm.Emit(code.OpYieldFrom, 0) // await desugars to yield-from on the awaitable, as CPython's generator-based coroutines once did
		return nil
	case *pyast.Starred:
		return c.compileExpr(n.Value)
	}
	return c.errf("unsupported expression node %T", e)
}

func (c *fnCompiler) compileConstant(v any) error {
	switch val := v.(type) {
	case nil:
		c.emitLoadConst(c.u.None)
	case bool:
		c.emitLoadConst(c.u.Bool_(val))
	case int64:
		c.emitLoadConst(c.u.NewIntFromInt64(val))
	case *big.Int:
		c.emitLoadConst(c.u.NewInt(val))
	case float64:
		c.emitLoadConst(c.u.NewFloat(val))
	case string:
		c.emitLoadConst(c.u.NewStr(val))
	case []byte:
		c.emitLoadConst(c.u.NewBytes(val))
	default:
		return c.errf("unsupported constant type %T", v)
	}
	return nil
}

var binOpToOpcode = map[pyast.Operator]code.Op{
	pyast.OpAdd_:     code.OpBinaryAdd,
	pyast.OpSub_:     code.OpBinarySub,
	pyast.OpMul_:     code.OpBinaryMul,
	pyast.OpTrueDiv_: code.OpBinaryTrueDiv,
	pyast.OpFloorDiv_: code.OpBinaryFloorDiv,
	pyast.OpMod_:     code.OpBinaryMod,
	pyast.OpPow_:     code.OpBinaryPow,
	pyast.OpLShift_:  code.OpBinaryLshift,
	pyast.OpRShift_:  code.OpBinaryRshift,
	pyast.OpBitOr_:   code.OpBinaryOr,
	pyast.OpBitXor_:  code.OpBinaryXor,
	pyast.OpBitAnd_:  code.OpBinaryAnd,
}

func (c *fnCompiler) compileBinOp(n *pyast.BinOp) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	op, ok := binOpToOpcode[n.Op]
	if !ok {
		return c.errf("unsupported binary operator %v", n.Op)
	}
	c.asm.Emit(op, 0)
	return nil
}

func (c *fnCompiler) compileUnaryOp(n *pyast.UnaryOp) error {
	if err := c.compileExpr(n.Operand); err != nil {
		return err
	}
	switch n.Op {
	case pyast.USub:
		c.asm.Emit(code.OpUnaryNegative, 0)
	case pyast.UNot:
		c.asm.Emit(code.OpUnaryNot, 0)
	case pyast.UInvert:
		c.asm.Emit(code.OpUnaryInvert, 0)
	case pyast.UAdd:
		// Unary + has no dedicated opcode; it is semantically a no-op on
		// every numeric built-in pygo defines (spec.md §4.3 never gives
		// __pos__ a non-identity meaning for int/float/bool).
	}
	return nil
}

// compileBoolOp short-circuits `and`/`or` with JUMP_IF_*_OR_POP, leaving the
// decisive operand's value on the stack (spec.md §4.2's boolean-operator
// semantics: the result is one of the operands, not a coerced bool).
func (c *fnCompiler) compileBoolOp(n *pyast.BoolOp) error {
	var jumpOp code.Op
	if n.Op == pyast.BoolAnd {
		jumpOp = code.OpJumpIfFalseOrPop
	} else {
		jumpOp = code.OpJumpIfTrueOrPop
	}
	var patchSites []int
	for i, v := range n.Values {
		if err := c.compileExpr(v); err != nil {
			return err
		}
		if i != len(n.Values)-1 {
			patchSites = append(patchSites, c.asm.Emit(jumpOp, 0))
		}
	}
	end := c.asm.Len()
	for _, pc := range patchSites {
		c.asm.Patch(pc, end)
	}
	return nil
}

var cmpOpToEnum = map[pyast.CmpOp]object.CompareOp{
	pyast.CmpEq:    object.CmpEQ,
	pyast.CmpNotEq: object.CmpNE,
	pyast.CmpLt_:   object.CmpLT,
	pyast.CmpLtE:   object.CmpLE,
	pyast.CmpGt_:   object.CmpGT,
	pyast.CmpGtE:   object.CmpGE,
}

// compileCompare lowers a (possibly chained) comparison. Chained
// comparisons (`a < b < c`) evaluate each operand once and short-circuit to
// False without evaluating the remaining comparisons, per spec.md §4.2.
func (c *fnCompiler) compileCompare(n *pyast.Compare) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if len(n.Ops) == 1 {
		if err := c.compileExpr(n.Comparators[0]); err != nil {
			return err
		}
		return c.emitCompareOp(n.Ops[0])
	}
	// pygo has no three-operand stack rotation, so a chained comparison
	// stashes each intermediate operand in a synthetic local instead of
	// juggling it under the comparison result.
	var patchSites []int
	last := len(n.Ops) - 1
	for i, op := range n.Ops {
		if err := c.compileExpr(n.Comparators[i]); err != nil {
			return err
		}
		var tmp int
		if i != last {
			c.asm.Emit(code.OpDupTop, 0)
			tmp = c.addVarName(c.tmpName())
			c.asm.Emit(code.OpStoreFast, tmp)
		}
		if err := c.emitCompareOp(op); err != nil {
			return err
		}
		if i != last {
			patchSites = append(patchSites, c.asm.Emit(code.OpJumpIfFalseOrPop, 0))
			c.asm.Emit(code.OpLoadFast, tmp)
		}
	}
	end := c.asm.Len()
	for _, pc := range patchSites {
		c.asm.Patch(pc, end)
	}
	return nil
}

// tmpName mints a synthetic local-variable name for compiler-internal stack
// stash slots (chained comparisons); it can never collide with a real
// source-level identifier since Python identifiers cannot start with '$'.
func (c *fnCompiler) tmpName() string {
	c.tmpCounter++
	return fmt.Sprintf("$cmp%d", c.tmpCounter)
}

var cmpOpToIdentityCode = map[pyast.CmpOp]int{
	pyast.CmpIs:    code.CompareIs,
	pyast.CmpIsNot: code.CompareIsNot,
	pyast.CmpIn:    code.CompareIn,
	pyast.CmpNotIn: code.CompareNotIn,
}

func (c *fnCompiler) emitCompareOp(op pyast.CmpOp) error {
	if idCode, ok := cmpOpToIdentityCode[op]; ok {
		c.asm.Emit(code.OpCompareOp, idCode)
		return nil
	}
	enumVal, ok := cmpOpToEnum[op]
	if !ok {
		return c.errf("unsupported comparison operator %v", op)
	}
	c.asm.Emit(code.OpCompareOp, int(enumVal))
	return nil
}

func (c *fnCompiler) compileCall(n *pyast.Call) error {
	if err := c.compileExpr(n.Func); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	if len(n.Keywords) == 0 {
		c.asm.Emit(code.OpCall, len(n.Args))
		return nil
	}
	nameObjs := make([]*object.Object, len(n.Keywords))
	for i, k := range n.Keywords {
		if err := c.compileExpr(k.Value); err != nil {
			return err
		}
		nameObjs[i] = c.u.NewStr(k.Arg)
	}
	kwTuple := c.u.NewTuple(nameObjs)
	c.emitLoadConst(kwTuple)
	c.asm.Emit(code.OpCallKw, len(n.Args)+len(n.Keywords))
	return nil
}

func (c *fnCompiler) compileIfExp(n *pyast.IfExp) error {
	if err := c.compileExpr(n.Test); err != nil {
		return err
	}
	jf := c.asm.Emit(code.OpJumpIfFalse, 0)
	if err := c.compileExpr(n.Body); err != nil {
		return err
	}
	jend := c.asm.Emit(code.OpJumpAbsolute, 0)
	c.asm.Patch(jf, c.asm.Len())
	if err := c.compileExpr(n.OrElse); err != nil {
		return err
	}
	c.asm.Patch(jend, c.asm.Len())
	return nil
}

func (c *fnCompiler) compileSeqLiteral(elts []pyast.Expr, op code.Op) error {
	for _, e := range elts {
		if err := c.compileExpr(e); err != nil {
			return err
		}
	}
	c.asm.Emit(op, len(elts))
	return nil
}

func (c *fnCompiler) compileDictLiteral(n *pyast.DictExpr) error {
	for i := range n.Keys {
		if n.Keys[i] == nil {
			return c.errf("dict unpacking (**) is not supported by this compiler")
		}
		if err := c.compileExpr(n.Keys[i]); err != nil {
			return err
		}
		if err := c.compileExpr(n.Values[i]); err != nil {
			return err
		}
	}
	c.asm.Emit(code.OpBuildMap, len(n.Keys))
	return nil
}

// compileComprehension desugars `[elt for target in iter if cond ...]` into
// an inline BUILD_LIST + for-loop (see symtab.go's note on why comprehensions
// do not get their own scope in this compiler).
func (c *fnCompiler) compileComprehension(elt pyast.Expr, gens []pyast.Comprehension, buildOp code.Op) error {
	c.asm.Emit(buildOp, 0)
	if err := c.compileComprehensionGen(elt, gens, 0, buildOp); err != nil {
		return err
	}
	return nil
}

func (c *fnCompiler) compileComprehensionGen(elt pyast.Expr, gens []pyast.Comprehension, i int, buildOp code.Op) error {
	if i == len(gens) {
		if err := c.compileExpr(elt); err != nil {
			return err
		}
		// Every active generator's iterator is still live on the stack below
		// the element just pushed (outer for-clauses don't unwind until their
		// own loop ends), so the container sits len(gens)+1 slots down from
		// TOS, not directly underneath.
		depth := len(gens) + 1
		switch buildOp {
		case code.OpBuildList:
			c.asm.Emit(code.OpListAppend, depth)
		case code.OpBuildSet:
			c.asm.Emit(code.OpSetAdd, depth)
		}
		return nil
	}
	g := gens[i]
	if err := c.compileExpr(g.Iter); err != nil {
		return err
	}
	c.asm.Emit(code.OpGetIter, 0)
	loopStart := c.asm.Len()
	forPC := c.asm.Emit(code.OpForIter, 0)
	if err := c.compileAssignTarget(g.Target); err != nil {
		return err
	}
	var skipSites []int
	for _, cond := range g.Ifs {
		if err := c.compileExpr(cond); err != nil {
			return err
		}
		skipSites = append(skipSites, c.asm.Emit(code.OpJumpIfFalse, 0))
	}
	if err := c.compileComprehensionGen(elt, gens, i+1, buildOp); err != nil {
		return err
	}
	for _, pc := range skipSites {
		c.asm.Patch(pc, c.asm.Len())
	}
	c.asm.Emit(code.OpJumpAbsolute, loopStart)
	c.asm.Patch(forPC, c.asm.Len())
	return nil
}
