package decompiler

import (
	"errors"

	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/chazu/movedc/pkg/unit"
	"github.com/holiman/uint256"
)

// ErrBranchTarget reports a branch past the end of the instruction stream.
// It is the only error translation returns; every other anomaly is
// recorded in the output as an Error or Nop node.
var ErrBranchTarget = errors.New("decompiler: branch target out of range")

// Translator rebuilds the expression tree of a bounded region of one
// function body. Nested regions are translated by child Translators that
// share the Cursor and Lookup but own a fresh operand stack.
type Translator struct {
	cur      *bytecode.Cursor
	lookup   *Lookup
	retArity int

	start int // first offset of the region
	end   int // offset just past the region
	off   int // offset of the instruction being translated

	stack OperandStack
	out   []Node

	loop *loopFrame // innermost enclosing loop, nil outside loops
}

// loopFrame records where the enclosing loop restarts and where it exits.
type loopFrame struct {
	head int
	exit int
}

// NewTranslator creates a Translator for the count instructions following
// the cursor position.
func NewTranslator(cur *bytecode.Cursor, lookup *Lookup, retArity, count int) *Translator {
	if lookup == nil {
		empty := &unit.Unit{}
		lookup = &Lookup{Unit: empty, Imports: NewImports(empty)}
	}
	start := cur.Pos()
	end := start + max(count, 0)
	if end > cur.Len() {
		end = cur.Len()
	}
	return &Translator{
		cur:      cur,
		lookup:   lookup,
		retArity: retArity,
		start:    start,
		end:      end,
		off:      start,
	}
}

// Translate translates the whole function body code.
func Translate(code []bytecode.Instruction, lookup *Lookup, retArity int) ([]Node, error) {
	t := NewTranslator(bytecode.NewCursor(code), lookup, retArity, len(code))
	if err := t.Translate(); err != nil {
		return nil, err
	}
	return t.Output(), nil
}

// Translate consumes the region, leaving the cursor just past it.
func (t *Translator) Translate() error {
	for t.cur.Pos() < t.end {
		if edge, ok := t.backEdge(t.cur.Pos()); ok {
			if err := t.infinite(edge); err != nil {
				return err
			}
			continue
		}
		ins, ok := t.cur.Next()
		if !ok {
			break
		}
		t.off = t.cur.Index()
		exp, err := t.translate(ins)
		if err != nil {
			return err
		}
		t.out = append(t.out, Node{Offset: t.off, Exp: exp})
	}
	return nil
}

// Output returns the translated nodes in stream order.
func (t *Translator) Output() []Node {
	return t.out
}

// Leftover returns the values still on the operand stack, bottom first.
func (t *Translator) Leftover() []Node {
	return t.stack.Nodes()
}

func (t *Translator) push(e Exp) Exp {
	t.stack.Push(Node{Offset: t.off, Exp: e})
	return e
}

func (t *Translator) fail(ins bytecode.Instruction) Exp {
	log.Debugf("%04X: cannot resolve %s", t.off, ins)
	return &Error{Instruction: ins}
}

var binaryOps = map[bytecode.Opcode]Operator{
	bytecode.OpAdd:    OpAdd,
	bytecode.OpSub:    OpSub,
	bytecode.OpMul:    OpMul,
	bytecode.OpMod:    OpMod,
	bytecode.OpDiv:    OpDiv,
	bytecode.OpBitOr:  OpBitOr,
	bytecode.OpBitAnd: OpBitAnd,
	bytecode.OpXor:    OpXor,
	bytecode.OpShl:    OpShl,
	bytecode.OpShr:    OpShr,
	bytecode.OpOr:     OpOr,
	bytecode.OpAnd:    OpAnd,
	bytecode.OpEq:     OpEq,
	bytecode.OpNeq:    OpNeq,
	bytecode.OpLt:     OpLt,
	bytecode.OpGt:     OpGt,
	bytecode.OpLe:     OpLe,
	bytecode.OpGe:     OpGe,
}

var castTargets = map[bytecode.Opcode]string{
	bytecode.OpCastU8:   "u8",
	bytecode.OpCastU64:  "u64",
	bytecode.OpCastU128: "u128",
}

func (t *Translator) translate(ins bytecode.Instruction) (Exp, error) {
	if op, ok := binaryOps[ins.Op]; ok {
		left, right := t.stack.Pop2()
		return t.push(&BinaryOp{Op: op, Left: left, Right: right}), nil
	}
	if to, ok := castTargets[ins.Op]; ok {
		return t.push(&Cast{To: to, Operand: t.stack.Pop()}), nil
	}

	switch ins.Op {
	case bytecode.OpLdU8:
		return t.push(&Literal{Kind: LitU8, Int: ins.Arg}), nil
	case bytecode.OpLdU64:
		return t.push(&Literal{Kind: LitU64, Int: ins.Arg}), nil
	case bytecode.OpLdU128:
		wide := new(uint256.Int)
		if ins.Wide != nil {
			wide.Set(ins.Wide)
		}
		return t.push(&Literal{Kind: LitU128, Wide: wide}), nil
	case bytecode.OpLdTrue:
		return t.push(&Literal{Kind: LitBool, Bool: true}), nil
	case bytecode.OpLdFalse:
		return t.push(&Literal{Kind: LitBool}), nil
	case bytecode.OpLdConst:
		return t.ldConst(ins), nil

	case bytecode.OpNot:
		return t.push(&Not{Operand: t.stack.Pop()}), nil

	case bytecode.OpCopyLoc, bytecode.OpMoveLoc:
		local, ok := t.lookup.Local(ins.Arg)
		if !ok {
			return t.fail(ins), nil
		}
		mode := Copy
		if ins.Op == bytecode.OpMoveLoc {
			mode = Move
		}
		return t.push(&LocalAccess{Mode: mode, Local: local}), nil
	case bytecode.OpStLoc:
		local, ok := t.lookup.Local(ins.Arg)
		if !ok {
			return t.fail(ins), nil
		}
		return &Let{Local: local, Value: t.stack.Pop()}, nil
	case bytecode.OpMutBorrowLoc, bytecode.OpImmBorrowLoc:
		local, ok := t.lookup.Local(ins.Arg)
		if !ok {
			return t.fail(ins), nil
		}
		return t.push(&LocalRef{Mutable: ins.Op == bytecode.OpMutBorrowLoc, Local: local}), nil

	case bytecode.OpMutBorrowField, bytecode.OpImmBorrowField,
		bytecode.OpMutBorrowFieldGeneric, bytecode.OpImmBorrowFieldGeneric:
		return t.fieldRef(ins), nil
	case bytecode.OpReadRef:
		return t.push(&Deref{Ref: t.stack.Pop()}), nil
	case bytecode.OpFreezeRef:
		n := t.stack.Pop()
		t.stack.Push(Node{Offset: t.off, Exp: n.Exp})
		return n.Exp, nil
	case bytecode.OpWriteRef:
		value, ref := t.stack.Pop2()
		return &WriteRef{Ref: ref, Value: value}, nil

	case bytecode.OpCall, bytecode.OpCallGeneric:
		return t.call(ins), nil
	case bytecode.OpPack, bytecode.OpPackGeneric:
		return t.pack(ins), nil
	case bytecode.OpUnpack, bytecode.OpUnpackGeneric:
		return t.unpack(ins), nil
	case bytecode.OpExists, bytecode.OpExistsGeneric,
		bytecode.OpMoveFrom, bytecode.OpMoveFromGeneric,
		bytecode.OpMoveTo, bytecode.OpMoveToGeneric,
		bytecode.OpMutBorrowGlobal, bytecode.OpMutBorrowGlobalGeneric,
		bytecode.OpImmBorrowGlobal, bytecode.OpImmBorrowGlobalGeneric:
		return t.builtin(ins), nil

	case bytecode.OpAbort:
		return &Abort{Code: t.stack.Pop()}, nil
	case bytecode.OpRet:
		return &Return{Values: t.stack.PopN(t.retArity)}, nil
	case bytecode.OpPop:
		return &Drop{Value: t.stack.Pop()}, nil
	case bytecode.OpNop:
		return &Nop{}, nil

	case bytecode.OpBrTrue, bytecode.OpBrFalse:
		return t.conditional(ins)
	case bytecode.OpBranch:
		return t.branch(ins)
	}
	return t.fail(ins), nil
}

func (t *Translator) ldConst(ins bytecode.Instruction) Exp {
	c, ok := t.lookup.Unit.Constant(unit.ConstantPoolIndex(ins.Arg))
	if !ok {
		return t.fail(ins)
	}
	v, err := c.Decode()
	if err != nil {
		log.Debugf("%04X: constant %d: %s", t.off, ins.Arg, err)
		return t.fail(ins)
	}

	lit := &Literal{}
	switch v := v.(type) {
	case uint8:
		lit.Kind, lit.Int = LitU8, uint64(v)
	case uint64:
		lit.Kind, lit.Int = LitU64, v
	case *uint256.Int:
		lit.Kind, lit.Wide = LitU128, v
	case bool:
		lit.Kind, lit.Bool = LitBool, v
	case unit.Address:
		lit.Kind, lit.Address = LitAddress, v
	case []byte:
		lit.Kind, lit.Bytes = LitBytes, v
	default:
		return t.fail(ins)
	}
	return t.push(lit)
}
