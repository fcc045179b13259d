// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package code implements the instruction set, operand encoding, and
// immutable code-object representation of spec.md §4.5 (C5). It holds no
// execution logic (internal/vm owns the dispatch loop) and no lowering
// logic (internal/compiler owns AST->bytecode).
package code

// Op is pygo's bytecode opcode. Numbering is pygo's own (spec.md §1: "Matching
// CPython's exact bytecode numbering" is an explicit non-goal — only
// observable program semantics need to match).
type Op uint8

const (
	OpNop Op = iota
	OpPopTop
	OpDupTop
	OpRotTwo

	OpLoadConst
	OpLoadFast
	OpStoreFast
	OpDeleteFast
	OpLoadGlobal
	OpStoreGlobal
	OpDeleteGlobal
	OpLoadName
	OpStoreName
	OpDeleteName
	OpLoadDeref
	OpStoreDeref
	OpLoadClosure
	OpLoadBuiltin

	OpBuildTuple
	OpBuildList
	OpBuildSet
	OpBuildMap
	OpListAppend
	OpSetAdd
	OpMapAdd
	OpUnpackSequence

	OpBinaryAdd
	OpBinarySub
	OpBinaryMul
	OpBinaryTrueDiv
	OpBinaryFloorDiv
	OpBinaryMod
	OpBinaryPow
	OpBinaryAnd
	OpBinaryOr
	OpBinaryXor
	OpBinaryLshift
	OpBinaryRshift
	OpBinarySubscr
	OpStoreSubscr
	OpDeleteSubscr
	OpUnaryNegative
	OpUnaryNot
	OpUnaryInvert
	OpCompareOp

	OpGetAttr
	OpSetAttr
	OpDelAttr

	OpGetIter
	OpForIter

	OpJumpAbsolute
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpIfFalseOrPop
	OpJumpIfTrueOrPop

	OpCall
	OpCallKw
	OpReturnValue
	OpYieldValue
	OpYieldFrom
	OpMakeFunction

	OpSetupFinally
	OpSetupExcept
	OpSetupLoop
	OpPopBlock
	OpPopExcept
	OpRaiseVarargs
	OpReraise
	OpEndFinally
	OpBreakLoop
	OpContinueLoop

	OpImportName
	OpImportFrom
	OpImportStar

	OpPrintExpr
	OpLoadAssertionError

	OpExtendedArg

	numOps
)

var opNames = [numOps]string{
	OpNop: "NOP", OpPopTop: "POP_TOP", OpDupTop: "DUP_TOP", OpRotTwo: "ROT_TWO",
	OpLoadConst: "LOAD_CONST", OpLoadFast: "LOAD_FAST", OpStoreFast: "STORE_FAST",
	OpDeleteFast: "DELETE_FAST", OpLoadGlobal: "LOAD_GLOBAL", OpStoreGlobal: "STORE_GLOBAL",
	OpDeleteGlobal: "DELETE_GLOBAL", OpLoadName: "LOAD_NAME", OpStoreName: "STORE_NAME",
	OpDeleteName: "DELETE_NAME", OpLoadDeref: "LOAD_DEREF", OpStoreDeref: "STORE_DEREF",
	OpLoadClosure: "LOAD_CLOSURE", OpLoadBuiltin: "LOAD_BUILTIN",
	OpBuildTuple: "BUILD_TUPLE", OpBuildList: "BUILD_LIST", OpBuildSet: "BUILD_SET",
	OpBuildMap: "BUILD_MAP", OpListAppend: "LIST_APPEND", OpSetAdd: "SET_ADD",
	OpMapAdd: "MAP_ADD", OpUnpackSequence: "UNPACK_SEQUENCE",
	OpBinaryAdd: "BINARY_ADD", OpBinarySub: "BINARY_SUBTRACT", OpBinaryMul: "BINARY_MULTIPLY",
	OpBinaryTrueDiv: "BINARY_TRUE_DIVIDE", OpBinaryFloorDiv: "BINARY_FLOOR_DIVIDE",
	OpBinaryMod: "BINARY_MODULO", OpBinaryPow: "BINARY_POWER", OpBinaryAnd: "BINARY_AND",
	OpBinaryOr: "BINARY_OR", OpBinaryXor: "BINARY_XOR", OpBinaryLshift: "BINARY_LSHIFT",
	OpBinaryRshift: "BINARY_RSHIFT", OpBinarySubscr: "BINARY_SUBSCR", OpStoreSubscr: "STORE_SUBSCR",
	OpDeleteSubscr: "DELETE_SUBSCR", OpUnaryNegative: "UNARY_NEGATIVE", OpUnaryNot: "UNARY_NOT",
	OpUnaryInvert: "UNARY_INVERT", OpCompareOp: "COMPARE_OP",
	OpGetAttr: "GET_ATTR", OpSetAttr: "SET_ATTR", OpDelAttr: "DEL_ATTR",
	OpGetIter: "GET_ITER", OpForIter: "FOR_ITER",
	OpJumpAbsolute: "JUMP_ABSOLUTE", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfTrue: "JUMP_IF_TRUE",
	OpJumpIfFalseOrPop: "JUMP_IF_FALSE_OR_POP", OpJumpIfTrueOrPop: "JUMP_IF_TRUE_OR_POP",
	OpCall: "CALL_FUNCTION", OpCallKw: "CALL_FUNCTION_KW", OpReturnValue: "RETURN_VALUE",
	OpYieldValue: "YIELD_VALUE", OpYieldFrom: "YIELD_FROM", OpMakeFunction: "MAKE_FUNCTION",
	OpSetupFinally: "SETUP_FINALLY", OpSetupExcept: "SETUP_EXCEPT", OpSetupLoop: "SETUP_LOOP",
	OpPopBlock: "POP_BLOCK", OpPopExcept: "POP_EXCEPT", OpRaiseVarargs: "RAISE_VARARGS",
	OpReraise: "RERAISE",
	OpEndFinally: "END_FINALLY", OpBreakLoop: "BREAK_LOOP", OpContinueLoop: "CONTINUE_LOOP",
	OpImportName: "IMPORT_NAME", OpImportFrom: "IMPORT_FROM", OpImportStar: "IMPORT_STAR",
	OpPrintExpr: "PRINT_EXPR", OpLoadAssertionError: "LOAD_ASSERTION_ERROR",
	OpExtendedArg: "EXTENDED_ARG",
}

// String returns the opcode's mnemonic for disassembly.
func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "UNKNOWN"
}

// HasJumpTarget reports whether operand is an absolute instruction offset
// that the linearizer (internal/compiler) must fix up, per spec.md §4.5
// "Jump operands are absolute instruction offsets... fixed up by the
// linearizer."
func (op Op) HasJumpTarget() bool {
	switch op {
	case OpJumpAbsolute, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfFalseOrPop, OpJumpIfTrueOrPop,
		OpForIter, OpSetupFinally, OpSetupExcept, OpSetupLoop:
		return true
	}
	return false
}

// Identity/containment test codes for OpCompareOp's operand, numbered past
// object.CompareOp's six rich-comparison values so internal/vm's dispatcher
// can tell them apart with a single range check before falling through to
// object.BinaryOp.Cmp.
const (
	CompareIs = 6 + iota
	CompareIsNot
	CompareIn
	CompareNotIn
)

// StackEffect returns the signed effect of executing op with the given
// operand, optionally distinguishing the branch-taken case for
// conditional jumps (spec.md §4.5: "Every instruction declares a signed
// stack effect (may depend on operand and on whether a jump is taken)").
func StackEffect(op Op, arg int, jumped bool) int {
	switch op {
	case OpNop, OpJumpAbsolute:
		return 0
	case OpPopTop, OpStoreFast, OpStoreGlobal, OpStoreName, OpStoreDeref, OpPopBlock,
		OpDeleteFast, OpDeleteGlobal, OpDeleteName, OpListAppend, OpSetAdd,
		OpBreakLoop, OpContinueLoop, OpPrintExpr, OpImportStar:
		return -1
	case OpSetAttr:
		return -2 // pops receiver and value; the attribute name is the operand
	case OpDupTop, OpLoadConst, OpLoadFast, OpLoadGlobal, OpLoadName, OpLoadDeref,
		OpLoadClosure, OpLoadBuiltin, OpGetIter, OpLoadAssertionError:
		return 1
	case OpGetAttr:
		return 0 // pops the receiver, pushes the attribute value
	case OpImportFrom:
		return 1 // TOS (the module) is not popped; the looked-up value is pushed on top
	case OpRotTwo:
		return 0
	case OpBinaryAdd, OpBinarySub, OpBinaryMul, OpBinaryTrueDiv, OpBinaryFloorDiv,
		OpBinaryMod, OpBinaryPow, OpBinaryAnd, OpBinaryOr, OpBinaryXor,
		OpBinaryLshift, OpBinaryRshift, OpBinarySubscr, OpCompareOp:
		return -1
	case OpStoreSubscr:
		return -3
	case OpDeleteSubscr:
		return -2
	case OpUnaryNegative, OpUnaryNot, OpUnaryInvert:
		return 0
	case OpMapAdd:
		return -2
	case OpBuildTuple, OpBuildList, OpBuildSet:
		return 1 - arg
	case OpBuildMap:
		return 1 - 2*arg
	case OpUnpackSequence:
		return arg - 1
	case OpCall:
		return -arg // pops func+args, pushes one result: net -(arg+1)+1 = -arg
	case OpCallKw:
		return -(arg + 1)
	case OpReturnValue, OpYieldValue:
		return -1
	case OpYieldFrom:
		return -1
	case OpMakeFunction:
		// Pops closure tuple, defaults tuple, kwdefaults dict, code object,
		// and qualified name; pushes one function object (see
		// compiler/function.go's compileFunctionDef for the fixed push order).
		return -4
	case OpSetupFinally, OpSetupExcept, OpSetupLoop:
		if jumped {
			return 0
		}
		return 0
	case OpPopExcept:
		return 0
	case OpRaiseVarargs:
		return -arg
	case OpReraise:
		return 0 // re-raises the frame's currently-unwinding exception; nothing on the value stack
	case OpEndFinally:
		return -3
	case OpImportName:
		return 0 // pops the module-name constant, pushes the module object
	case OpDelAttr:
		return -1
	case OpJumpIfFalse, OpJumpIfTrue:
		return -1
	case OpJumpIfFalseOrPop, OpJumpIfTrueOrPop:
		if jumped {
			return 0
		}
		return -1
	case OpForIter:
		if jumped {
			return -1
		}
		return 1
	case OpExtendedArg:
		return 0
	}
	return 0
}
