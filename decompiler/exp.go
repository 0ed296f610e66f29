package decompiler

import (
	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/chazu/movedc/pkg/unit"
	"github.com/holiman/uint256"
)

// Exp is a reconstructed expression. Every variant is a pointer type so
// that node identity survives being both listed and consumed.
type Exp interface {
	// Operands returns the nodes this expression consumed from the
	// operand stack, in production order.
	Operands() []Node
}

// Node tags an expression with the offset of the instruction that
// produced it.
type Node struct {
	Offset int
	Exp    Exp
}

// LiteralKind discriminates Literal.
type LiteralKind uint8

const (
	LitU8 LiteralKind = iota
	LitU64
	LitU128
	LitBool
	LitAddress
	LitBytes
)

// Literal is a loaded immediate or decoded constant.
type Literal struct {
	Kind    LiteralKind
	Int     uint64 // u8 and u64
	Wide    *uint256.Int
	Bool    bool
	Address unit.Address
	Bytes   []byte
}

// Operator is a binary operator in source form.
type Operator string

const (
	OpAdd    Operator = "+"
	OpSub    Operator = "-"
	OpMul    Operator = "*"
	OpMod    Operator = "%"
	OpDiv    Operator = "/"
	OpBitOr  Operator = "|"
	OpBitAnd Operator = "&"
	OpXor    Operator = "^"
	OpShl    Operator = "<<"
	OpShr    Operator = ">>"
	OpOr     Operator = "||"
	OpAnd    Operator = "&&"
	OpEq     Operator = "=="
	OpNeq    Operator = "!="
	OpLt     Operator = "<"
	OpGt     Operator = ">"
	OpLe     Operator = "<="
	OpGe     Operator = ">="
)

// Not is logical negation.
type Not struct{ Operand Node }

// BinaryOp applies Op to Left and Right, in stack order.
type BinaryOp struct {
	Op          Operator
	Left, Right Node
}

// Cast converts its operand to an unsigned integer type: "u8", "u64" or
// "u128".
type Cast struct {
	To      string
	Operand Node
}

// AccessMode says whether a local is copied or moved.
type AccessMode uint8

// Access modes.
const (
	Copy AccessMode = iota
	Move
)

// LocalAccess reads a local by copy or move.
type LocalAccess struct {
	Mode  AccessMode
	Local Local
}

// Let stores a value into a local.
type Let struct {
	Local Local
	Value Node
}

// LocalRef borrows a local.
type LocalRef struct {
	Mutable bool
	Local   Local
}

// FieldRef borrows Field of the struct Ref points to.
type FieldRef struct {
	Mutable bool
	Ref     Node
	Struct  StructName
	Field   string
}

// Deref reads through a reference.
type Deref struct{ Ref Node }

// WriteRef stores Value through Ref.
type WriteRef struct {
	Ref   Node
	Value Node
}

// Call is a function call. Module is empty for functions of the unit
// being decompiled.
type Call struct {
	Module   string
	Name     string
	TypeArgs []Type
	Args     []Node
}

// BuiltinKind names a global storage operation.
type BuiltinKind uint8

const (
	Exists BuiltinKind = iota
	MoveFrom
	MoveTo
	BorrowGlobal
	BorrowGlobalMut
)

func (k BuiltinKind) String() string {
	switch k {
	case Exists:
		return "exists"
	case MoveFrom:
		return "move_from"
	case MoveTo:
		return "move_to"
	case BorrowGlobal:
		return "borrow_global"
	default:
		return "borrow_global_mut"
	}
}

// Builtin is a global storage operation on a resource of type Struct.
type Builtin struct {
	Kind   BuiltinKind
	Struct StructName
	Args   []Node
}

// PackField is one named field value of a Pack.
type PackField struct {
	Name  string
	Value Node
}

// Pack constructs a struct value, fields in declaration order.
type Pack struct {
	Struct StructName
	Fields []PackField
}

// Unpack destructures Source. Each field is pushed as a placeholder
// Nop carrying its name.
type Unpack struct {
	Struct StructName
	Fields []string
	Source Node
}

// If is a reconstructed conditional. Else is nil when there is no else
// branch.
type If struct {
	Cond Node
	Then []Node
	Else []Node
}

// LoopKind discriminates Loop.
type LoopKind uint8

const (
	// LoopWhile tests Cond after running Header, before each Body.
	LoopWhile LoopKind = iota
	// LoopDoWhile runs Body, then repeats while Cond holds.
	LoopDoWhile
	// LoopInfinite repeats Body until a Jump leaves it.
	LoopInfinite
)

// Loop is a reconstructed loop headed at offset Head. Cond is nil for
// infinite loops.
type Loop struct {
	Kind   LoopKind
	Head   int
	Header []Node
	Cond   *Node
	Body   []Node
}

// Jump is a branch that does not close an If or Loop: break when Target
// is forward, continue when it is backward.
type Jump struct {
	Target int
	Back   bool
}

// Return leaves the function with Values, padded to its return arity.
type Return struct{ Values []Node }

// Abort stops execution with Code.
type Abort struct{ Code Node }

// Nop is both the NOP instruction and the placeholder used for missing or
// synthetic stack values. Field names the struct field an Unpack
// placeholder stands for.
type Nop struct {
	Synthetic bool
	Field     string
}

// Drop discards Value.
type Drop struct{ Value Node }

// Error stands in for an instruction whose operand could not be resolved.
type Error struct{ Instruction bytecode.Instruction }

func (*Literal) Operands() []Node { return nil }
func (e *Not) Operands() []Node { return []Node{e.Operand} }
func (e *BinaryOp) Operands() []Node { return []Node{e.Left, e.Right} }
func (e *Cast) Operands() []Node { return []Node{e.Operand} }
func (*LocalAccess) Operands() []Node { return nil }
func (e *Let) Operands() []Node { return []Node{e.Value} }
func (*LocalRef) Operands() []Node { return nil }
func (e *FieldRef) Operands() []Node { return []Node{e.Ref} }
func (e *Deref) Operands() []Node { return []Node{e.Ref} }
func (e *WriteRef) Operands() []Node { return []Node{e.Value, e.Ref} }
func (e *Call) Operands() []Node { return e.Args }
func (e *Builtin) Operands() []Node { return e.Args }
func (e *Unpack) Operands() []Node { return []Node{e.Source} }
func (e *If) Operands() []Node { return []Node{e.Cond} }
func (*Jump) Operands() []Node { return nil }
func (e *Return) Operands() []Node { return e.Values }
func (e *Abort) Operands() []Node { return []Node{e.Code} }
func (*Nop) Operands() []Node { return nil }
func (e *Drop) Operands() []Node { return []Node{e.Value} }
func (*Error) Operands() []Node { return nil }

func (e *Pack) Operands() []Node {
	ops := make([]Node, len(e.Fields))
	for i, f := range e.Fields {
		ops[i] = f.Value
	}
	return ops
}

func (e *Loop) Operands() []Node {
	if e.Cond == nil {
		return nil
	}
	return []Node{*e.Cond}
}

func nop() Node {
	return Node{Exp: &Nop{Synthetic: true}}
}

// IsNop reports whether n holds a Nop.
func IsNop(n Node) bool {
	_, ok := n.Exp.(*Nop)
	return ok
}

// SourceRange returns the smallest and largest offsets reachable from n
// through operands and nested bodies. Synthetic placeholders are ignored.
func SourceRange(n Node) (lo, hi int) {
	lo, hi = n.Offset, n.Offset
	var walk func(Node)
	walk = func(n Node) {
		if nop, ok := n.Exp.(*Nop); ok && nop.Synthetic {
			return
		}
		if n.Offset < lo {
			lo = n.Offset
		}
		if n.Offset > hi {
			hi = n.Offset
		}
		for _, op := range n.Operands() {
			walk(op)
		}
		for _, body := range nested(n.Exp) {
			for _, c := range body {
				walk(c)
			}
		}
	}
	walk(n)
	return lo, hi
}

// Operands is a convenience for n.Exp.Operands().
func (n Node) Operands() []Node {
	if n.Exp == nil {
		return nil
	}
	return n.Exp.Operands()
}

// nested returns the statement lists embedded in e.
func nested(e Exp) [][]Node {
	switch e := e.(type) {
	case *If:
		return [][]Node{e.Then, e.Else}
	case *Loop:
		return [][]Node{e.Header, e.Body}
	}
	return nil
}
