package decompiler

import (
	"errors"
	"testing"

	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
)

func translate(t *testing.T, code []bytecode.Instruction, retArity int) []Node {
	t.Helper()
	out, err := Translate(code, fixtureLookup(), retArity)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	return out
}

func TestStraightLineOneNodePerInstruction(t *testing.T) {
	tests := []struct {
		name     string
		code     []bytecode.Instruction
		retArity int
	}{
		{"arith", []bytecode.Instruction{
			arg(bytecode.OpLdU8, 1), arg(bytecode.OpLdU8, 2), bare(bytecode.OpAdd), bare(bytecode.OpPop),
		}, 0},
		{"logic", []bytecode.Instruction{
			bare(bytecode.OpLdTrue), bare(bytecode.OpNot), bare(bytecode.OpPop), bare(bytecode.OpNop),
		}, 0},
		{"locals", []bytecode.Instruction{
			arg(bytecode.OpCopyLoc, 0), arg(bytecode.OpMoveLoc, 1), bare(bytecode.OpMul),
			arg(bytecode.OpStLoc, 2), bare(bytecode.OpRet),
		}, 0},
		{"refs", []bytecode.Instruction{
			arg(bytecode.OpMutBorrowLoc, 2), bare(bytecode.OpFreezeRef), bare(bytecode.OpReadRef),
			bare(bytecode.OpCastU8), bare(bytecode.OpPop),
		}, 0},
		{"call", []bytecode.Instruction{
			arg(bytecode.OpLdU64, 1), arg(bytecode.OpLdU64, 2), arg(bytecode.OpCall, 0), bare(bytecode.OpRet),
		}, 1},
		{"struct", []bytecode.Instruction{
			arg(bytecode.OpLdU64, 1), arg(bytecode.OpLdConst, 1), bare(bytecode.OpLdFalse),
			arg(bytecode.OpPack, 0), arg(bytecode.OpUnpack, 0), bare(bytecode.OpPop), bare(bytecode.OpPop),
			bare(bytecode.OpPop),
		}, 0},
		{"abort", []bytecode.Instruction{arg(bytecode.OpLdU64, 7), bare(bytecode.OpAbort)}, 0},
		{"underflow", []bytecode.Instruction{bare(bytecode.OpAdd), bare(bytecode.OpWriteRef), bare(bytecode.OpRet)}, 3},
		{"unresolved", []bytecode.Instruction{arg(bytecode.OpCall, 99), arg(bytecode.OpCopyLoc, 42), bare(bytecode.OpPop)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := translate(t, tt.code, tt.retArity)
			if len(out) != len(tt.code) {
				t.Fatalf("got %d nodes, want %d", len(out), len(tt.code))
			}
			for i, n := range out {
				if n.Offset != i {
					t.Errorf("node %d has offset %d", i, n.Offset)
				}
			}
		})
	}
}

func TestBinaryOperandOrder(t *testing.T) {
	for opcode, want := range binaryOps {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpLdU64, 1), arg(bytecode.OpLdU64, 2), bare(opcode),
		}, 0)

		bin, ok := out[2].Exp.(*BinaryOp)
		if !ok {
			t.Fatalf("%s: got %T, want *BinaryOp", opcode, out[2].Exp)
		}
		if bin.Op != want {
			t.Errorf("%s: operator %q, want %q", opcode, bin.Op, want)
		}
		if bin.Left.Exp != out[0].Exp || bin.Right.Exp != out[1].Exp {
			t.Errorf("%s: operands out of production order", opcode)
		}
		if l := bin.Left.Exp.(*Literal); l.Int != 1 {
			t.Errorf("%s: left operand %d, want 1", opcode, l.Int)
		}
	}
}

func fieldNamesOf(fields []PackField) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func TestPackFieldOrder(t *testing.T) {
	tests := []struct {
		name     string
		op       bytecode.Opcode
		want     []string
		typeArgs int
	}{
		{"direct", bytecode.OpPack, []string{"value", "owner", "extra"}, 0},
		{"generic", bytecode.OpPackGeneric, []string{"item", "value", "owner"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := translate(t, []bytecode.Instruction{
				arg(bytecode.OpLdU64, 10), arg(bytecode.OpLdU64, 20), arg(bytecode.OpLdU64, 30),
				arg(tt.op, 0),
			}, 0)

			pack, ok := out[3].Exp.(*Pack)
			if !ok {
				t.Fatalf("got %T, want *Pack", out[3].Exp)
			}
			if diff := cmp.Diff(tt.want, fieldNamesOf(pack.Fields)); diff != "" {
				t.Errorf("field order (-want +got):\n%s", diff)
			}
			for i, f := range pack.Fields {
				if f.Value.Offset != i {
					t.Errorf("field %s bound to offset %d, want %d", f.Name, f.Value.Offset, i)
				}
			}
			if len(pack.Struct.TypeArgs) != tt.typeArgs {
				t.Errorf("got %d type args, want %d", len(pack.Struct.TypeArgs), tt.typeArgs)
			}
		})
	}
}

func TestUnpackFieldOrder(t *testing.T) {
	for _, tt := range []struct {
		op   bytecode.Opcode
		want []string
	}{
		{bytecode.OpUnpack, []string{"value", "owner", "extra"}},
		{bytecode.OpUnpackGeneric, []string{"item", "value", "owner"}},
	} {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpMoveLoc, 0),
			arg(tt.op, 0),
			arg(bytecode.OpStLoc, 2),
		}, 0)

		u, ok := out[1].Exp.(*Unpack)
		if !ok {
			t.Fatalf("%s: got %T, want *Unpack", tt.op, out[1].Exp)
		}
		if diff := cmp.Diff(tt.want, u.Fields); diff != "" {
			t.Errorf("%s field order (-want +got):\n%s", tt.op, diff)
		}
		if u.Source.Exp != out[0].Exp {
			t.Errorf("%s: source is not the moved local", tt.op)
		}

		// The last field is on top of the stack.
		let := out[2].Exp.(*Let)
		if nop, ok := let.Value.Exp.(*Nop); !ok || nop.Field != tt.want[2] {
			t.Errorf("%s: stored %#v, want placeholder for %s", tt.op, let.Value.Exp, tt.want[2])
		}
	}
}

func TestRetPadsMissingValues(t *testing.T) {
	out := translate(t, []bytecode.Instruction{arg(bytecode.OpLdU8, 7), bare(bytecode.OpRet)}, 2)

	ret, ok := out[1].Exp.(*Return)
	if !ok {
		t.Fatalf("got %T, want *Return", out[1].Exp)
	}
	if len(ret.Values) != 2 {
		t.Fatalf("got %d values, want 2", len(ret.Values))
	}
	if nop, ok := ret.Values[0].Exp.(*Nop); !ok || !nop.Synthetic {
		t.Errorf("first value %T, want synthetic *Nop", ret.Values[0].Exp)
	}
	if ret.Values[1].Exp != out[0].Exp {
		t.Error("second value is not the loaded literal")
	}
}

func TestUnresolvedPackGenericIsErrorNode(t *testing.T) {
	out := translate(t, []bytecode.Instruction{arg(bytecode.OpPackGeneric, 9)}, 0)

	if len(out) != 1 {
		t.Fatalf("got %d nodes, want 1", len(out))
	}
	e, ok := out[0].Exp.(*Error)
	if !ok {
		t.Fatalf("got %T, want *Error", out[0].Exp)
	}
	if e.Instruction.Op != bytecode.OpPackGeneric || e.Instruction.Arg != 9 {
		t.Errorf("error wraps %s", e.Instruction)
	}
}

func TestUnresolvedOperandsDegrade(t *testing.T) {
	for _, in := range []bytecode.Instruction{
		arg(bytecode.OpCall, 50),
		arg(bytecode.OpCallGeneric, 50),
		arg(bytecode.OpPack, 50),
		arg(bytecode.OpUnpackGeneric, 50),
		arg(bytecode.OpExistsGeneric, 50),
		arg(bytecode.OpMoveToGeneric, 50),
		arg(bytecode.OpImmBorrowField, 50),
		arg(bytecode.OpMutBorrowFieldGeneric, 50),
		arg(bytecode.OpLdConst, 50),
		arg(bytecode.OpStLoc, 50),
	} {
		out := translate(t, []bytecode.Instruction{arg(bytecode.OpLdU64, 1), in}, 0)
		if _, ok := out[1].Exp.(*Error); !ok {
			t.Errorf("%s: got %T, want *Error", in, out[1].Exp)
		}
	}
}

func TestIdempotentTranslation(t *testing.T) {
	code := []bytecode.Instruction{
		arg(bytecode.OpCopyLoc, 0),
		arg(bytecode.OpLdU64, 10),
		bare(bytecode.OpLt),
		arg(bytecode.OpBrFalse, 9),
		arg(bytecode.OpCopyLoc, 0),
		arg(bytecode.OpLdU64, 1),
		bare(bytecode.OpAdd),
		arg(bytecode.OpStLoc, 0),
		arg(bytecode.OpBranch, 0),
		arg(bytecode.OpLdConst, 0),
		arg(bytecode.OpPackGeneric, 0),
		bytecode.LdU128(uint256.NewInt(5)),
		bare(bytecode.OpRet),
	}

	first := translate(t, code, 2)
	second := translate(t, code, 2)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("translations differ (-first +second):\n%s", diff)
	}
}

func TestBranchShape(t *testing.T) {
	code := []bytecode.Instruction{
		bare(bytecode.OpLdTrue),
		arg(bytecode.OpBrFalse, 4),
		arg(bytecode.OpLdU8, 1),
		arg(bytecode.OpBranch, 5),
		arg(bytecode.OpLdU8, 2),
		bare(bytecode.OpRet),
	}
	out := translate(t, code, 0)

	if len(out) != 3 {
		t.Fatalf("got %d top-level nodes, want 3", len(out))
	}
	if lit, ok := out[0].Exp.(*Literal); !ok || lit.Kind != LitBool || !lit.Bool {
		t.Errorf("node 0 = %#v, want load(true)", out[0].Exp)
	}

	cond, ok := out[1].Exp.(*If)
	if !ok {
		t.Fatalf("node 1 = %T, want *If", out[1].Exp)
	}
	if cond.Cond.Exp != out[0].Exp {
		t.Error("condition is not load(true)")
	}
	if len(cond.Then) != 1 || cond.Then[0].Offset != 2 || cond.Then[0].Exp.(*Literal).Int != 1 {
		t.Errorf("then body = %#v, want [load(1)]", cond.Then)
	}
	if len(cond.Else) != 1 || cond.Else[0].Offset != 4 || cond.Else[0].Exp.(*Literal).Int != 2 {
		t.Errorf("else body = %#v, want [load(2)]", cond.Else)
	}

	ret, ok := out[2].Exp.(*Return)
	if !ok || len(ret.Values) != 0 || out[2].Offset != 5 {
		t.Errorf("node 2 = %#v at %d, want empty Return at 5", out[2].Exp, out[2].Offset)
	}
}

func TestBranchPastElseDegrades(t *testing.T) {
	// Targets 5 and 6 are one past the if/else layout of TestBranchShape:
	// they do not delimit an else region in a six-instruction stream, so
	// this is the degraded shape, not a reconstruction. Both loads end up
	// in the then body and the trailing jump renders as a break.
	out := translate(t, []bytecode.Instruction{
		bare(bytecode.OpLdTrue),
		arg(bytecode.OpBrFalse, 5),
		arg(bytecode.OpLdU8, 1),
		arg(bytecode.OpBranch, 6),
		arg(bytecode.OpLdU8, 2),
		bare(bytecode.OpRet),
	}, 0)

	if len(out) != 3 {
		t.Fatalf("got %d top-level nodes, want 3", len(out))
	}
	cond, ok := out[1].Exp.(*If)
	if !ok {
		t.Fatalf("node 1 = %T, want *If", out[1].Exp)
	}
	if len(cond.Then) != 3 || cond.Else != nil {
		t.Errorf("then=%d else=%v", len(cond.Then), cond.Else)
	}
	if j, ok := cond.Then[1].Exp.(*Jump); !ok || j.Target != 6 {
		t.Errorf("then[1] = %#v, want jump to 6", cond.Then[1].Exp)
	}
	if ret, ok := out[2].Exp.(*Return); !ok || len(ret.Values) != 0 {
		t.Errorf("node 2 = %#v, want empty Return", out[2].Exp)
	}
}

func TestIfValueIsPushed(t *testing.T) {
	code := []bytecode.Instruction{
		bare(bytecode.OpLdTrue),
		arg(bytecode.OpBrFalse, 4),
		arg(bytecode.OpLdU8, 1),
		arg(bytecode.OpBranch, 5),
		arg(bytecode.OpLdU8, 2),
		arg(bytecode.OpStLoc, 2),
	}
	out := translate(t, code, 0)

	let, ok := out[2].Exp.(*Let)
	if !ok {
		t.Fatalf("node 2 = %T, want *Let", out[2].Exp)
	}
	if let.Value.Exp != out[1].Exp {
		t.Error("stored value is not the if expression")
	}
}

func TestBrTrueNegatesCondition(t *testing.T) {
	out := translate(t, []bytecode.Instruction{
		bare(bytecode.OpLdFalse),
		arg(bytecode.OpBrTrue, 4),
		arg(bytecode.OpLdU8, 1),
		bare(bytecode.OpPop),
		bare(bytecode.OpRet),
	}, 0)

	cond := out[1].Exp.(*If)
	not, ok := cond.Cond.Exp.(*Not)
	if !ok {
		t.Fatalf("condition %T, want *Not", cond.Cond.Exp)
	}
	if not.Operand.Exp != out[0].Exp {
		t.Error("negated operand is not load(false)")
	}
	if len(cond.Then) != 2 || cond.Else != nil {
		t.Errorf("then=%d else=%v", len(cond.Then), cond.Else)
	}
}

func TestBrTrueBranchPairActsAsBrFalse(t *testing.T) {
	out := translate(t, []bytecode.Instruction{
		bare(bytecode.OpLdTrue),
		arg(bytecode.OpBrTrue, 3),
		arg(bytecode.OpBranch, 5),
		arg(bytecode.OpLdU8, 1),
		bare(bytecode.OpPop),
		bare(bytecode.OpRet),
	}, 0)

	if len(out) != 3 {
		t.Fatalf("got %d nodes, want 3", len(out))
	}
	cond := out[1].Exp.(*If)
	if cond.Cond.Exp != out[0].Exp {
		t.Errorf("condition %T, want the plain literal", cond.Cond.Exp)
	}
	if len(cond.Then) != 2 || cond.Then[0].Offset != 3 {
		t.Errorf("then body %#v", cond.Then)
	}
}

func TestLoopShapes(t *testing.T) {
	t.Run("while", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpCopyLoc, 0),
			arg(bytecode.OpLdU64, 10),
			bare(bytecode.OpLt),
			arg(bytecode.OpBrFalse, 9),
			arg(bytecode.OpCopyLoc, 0),
			arg(bytecode.OpLdU64, 1),
			bare(bytecode.OpAdd),
			arg(bytecode.OpStLoc, 0),
			arg(bytecode.OpBranch, 0),
			bare(bytecode.OpRet),
		}, 0)

		if len(out) != 2 {
			t.Fatalf("got %d nodes, want 2", len(out))
		}
		loop, ok := out[0].Exp.(*Loop)
		if !ok {
			t.Fatalf("node 0 = %T, want *Loop", out[0].Exp)
		}
		if loop.Kind != LoopWhile || loop.Head != 0 {
			t.Errorf("kind=%d head=%d", loop.Kind, loop.Head)
		}
		if len(loop.Header) != 3 || len(loop.Body) != 4 {
			t.Errorf("header=%d body=%d, want 3 and 4", len(loop.Header), len(loop.Body))
		}
		if _, ok := loop.Cond.Exp.(*BinaryOp); !ok {
			t.Errorf("condition %T, want *BinaryOp", loop.Cond.Exp)
		}
		if out[1].Offset != 9 {
			t.Errorf("return at %d, want 9", out[1].Offset)
		}
	})

	t.Run("infinite", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpLdU64, 1),
			bare(bytecode.OpPop),
			arg(bytecode.OpBranch, 0),
		}, 0)

		loop, ok := out[0].Exp.(*Loop)
		if !ok || loop.Kind != LoopInfinite {
			t.Fatalf("got %#v, want infinite loop", out[0].Exp)
		}
		if len(loop.Body) != 2 || loop.Cond != nil {
			t.Errorf("body=%d cond=%v", len(loop.Body), loop.Cond)
		}
	})

	t.Run("do-while", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			bare(bytecode.OpNop),
			arg(bytecode.OpCopyLoc, 0),
			arg(bytecode.OpLdU64, 3),
			bare(bytecode.OpGt),
			arg(bytecode.OpBrTrue, 1),
			bare(bytecode.OpRet),
		}, 0)

		if len(out) != 3 {
			t.Fatalf("got %d nodes, want 3", len(out))
		}
		loop, ok := out[1].Exp.(*Loop)
		if !ok || loop.Kind != LoopDoWhile || loop.Head != 1 {
			t.Fatalf("got %#v, want do-while headed at 1", out[1].Exp)
		}
		if loop.Cond.Exp != loop.Body[2].Exp {
			t.Error("repeat condition is not the comparison")
		}
	})

	t.Run("backward is not an if", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			bare(bytecode.OpLdTrue),
			arg(bytecode.OpBrFalse, 0),
		}, 0)
		if _, ok := out[0].Exp.(*If); ok {
			t.Error("backward branch reconstructed as *If")
		}
		if _, ok := out[0].Exp.(*Loop); !ok {
			t.Errorf("got %T, want *Loop", out[0].Exp)
		}
	})
}

func TestJumpsInsideLoops(t *testing.T) {
	// while (arg < 10) { if (arg == 5) break; arg = arg + 1 }
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpCopyLoc, 0),  // 0
		arg(bytecode.OpLdU64, 10),   // 1
		bare(bytecode.OpLt),         // 2
		arg(bytecode.OpBrFalse, 14), // 3
		arg(bytecode.OpCopyLoc, 0),  // 4
		arg(bytecode.OpLdU64, 5),    // 5
		bare(bytecode.OpEq),         // 6
		arg(bytecode.OpBrFalse, 9),  // 7
		arg(bytecode.OpBranch, 14),  // 8
		arg(bytecode.OpCopyLoc, 0),  // 9
		arg(bytecode.OpLdU64, 1),    // 10
		bare(bytecode.OpAdd),        // 11
		arg(bytecode.OpStLoc, 0),    // 12
		arg(bytecode.OpBranch, 0),   // 13
		bare(bytecode.OpRet),        // 14
	}, 0)

	loop := out[0].Exp.(*Loop)
	var inner *If
	for _, n := range loop.Body {
		if e, ok := n.Exp.(*If); ok {
			inner = e
		}
	}
	if inner == nil {
		t.Fatal("no if inside the loop body")
	}
	if len(inner.Then) != 1 {
		t.Fatalf("then body %#v", inner.Then)
	}
	if j, ok := inner.Then[0].Exp.(*Jump); !ok || j.Back || j.Target != 14 {
		t.Errorf("then body holds %#v, want forward jump to 14", inner.Then[0].Exp)
	}
}

func TestLoopWithConditionalBreak(t *testing.T) {
	// loop { if (arg) break; var = arg }
	tests := []struct {
		name    string
		code    []bytecode.Instruction
		edge    int
		ifAt    int
		breakAt int
	}{
		{
			name: "br_false",
			code: []bytecode.Instruction{
				arg(bytecode.OpCopyLoc, 0), // 0
				arg(bytecode.OpBrFalse, 3), // 1
				arg(bytecode.OpBranch, 6),  // 2
				arg(bytecode.OpCopyLoc, 0), // 3
				arg(bytecode.OpStLoc, 2),   // 4
				arg(bytecode.OpBranch, 0),  // 5
				bare(bytecode.OpRet),       // 6
			},
			edge: 5, ifAt: 1, breakAt: 2,
		},
		{
			name: "br_true pair",
			code: []bytecode.Instruction{
				arg(bytecode.OpCopyLoc, 0), // 0
				arg(bytecode.OpBrTrue, 3),  // 1
				arg(bytecode.OpBranch, 4),  // 2
				arg(bytecode.OpBranch, 7),  // 3
				arg(bytecode.OpCopyLoc, 0), // 4
				arg(bytecode.OpStLoc, 2),   // 5
				arg(bytecode.OpBranch, 0),  // 6
				bare(bytecode.OpRet),       // 7
			},
			edge: 6, ifAt: 1, breakAt: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := translate(t, tt.code, 0)
			if len(out) != 2 {
				t.Fatalf("got %d top-level nodes, want 2", len(out))
			}
			loop, ok := out[0].Exp.(*Loop)
			if !ok {
				t.Fatalf("node 0 = %T, want *Loop", out[0].Exp)
			}
			if loop.Kind != LoopInfinite || loop.Head != 0 || out[0].Offset != tt.edge {
				t.Errorf("kind=%d head=%d at %d", loop.Kind, loop.Head, out[0].Offset)
			}
			if len(loop.Body) != 4 {
				t.Fatalf("loop body has %d nodes, want 4", len(loop.Body))
			}

			cond, ok := loop.Body[1].Exp.(*If)
			if !ok || loop.Body[1].Offset != tt.ifAt {
				t.Fatalf("body[1] = %T at %d, want *If at %d", loop.Body[1].Exp, loop.Body[1].Offset, tt.ifAt)
			}
			if cond.Cond.Exp != loop.Body[0].Exp {
				t.Errorf("condition %T, want the plain local", cond.Cond.Exp)
			}
			if len(cond.Then) != 1 || cond.Then[0].Offset != tt.breakAt {
				t.Fatalf("then body %#v", cond.Then)
			}
			want := &Jump{Target: len(tt.code) - 1}
			if diff := cmp.Diff(want, cond.Then[0].Exp); diff != "" {
				t.Errorf("break mismatch (-want +got):\n%s", diff)
			}
			if _, ok := loop.Body[3].Exp.(*Let); !ok {
				t.Errorf("body[3] = %T, want *Let", loop.Body[3].Exp)
			}

			if _, ok := out[1].Exp.(*Return); !ok {
				t.Errorf("node 1 = %T, want *Return", out[1].Exp)
			}
		})
	}
}

func TestLoopWithConditionalContinue(t *testing.T) {
	// loop { if (arg) continue; var = arg }
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpCopyLoc, 0), // 0
		arg(bytecode.OpBrFalse, 3), // 1
		arg(bytecode.OpBranch, 0),  // 2
		arg(bytecode.OpCopyLoc, 0), // 3
		arg(bytecode.OpStLoc, 2),   // 4
		arg(bytecode.OpBranch, 0),  // 5
		bare(bytecode.OpRet),       // 6
	}, 0)

	loop, ok := out[0].Exp.(*Loop)
	if !ok || loop.Kind != LoopInfinite || len(loop.Body) != 4 {
		t.Fatalf("got %#v, want infinite loop of 4 nodes", out[0].Exp)
	}
	cond := loop.Body[1].Exp.(*If)
	want := []Node{{Offset: 2, Exp: &Jump{Target: 0, Back: true}}}
	if diff := cmp.Diff(want, cond.Then); diff != "" {
		t.Errorf("continue mismatch (-want +got):\n%s", diff)
	}
}

func TestExitFromLoopBody(t *testing.T) {
	// loop { if (arg) var = arg; if (!arg) break }, closed by the final
	// BRANCH rather than by a while header.
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpCopyLoc, 0), // 0
		arg(bytecode.OpBrFalse, 4), // 1
		arg(bytecode.OpCopyLoc, 0), // 2
		arg(bytecode.OpStLoc, 2),   // 3
		arg(bytecode.OpCopyLoc, 0), // 4
		arg(bytecode.OpBrFalse, 7), // 5
		arg(bytecode.OpBranch, 0),  // 6
		bare(bytecode.OpRet),       // 7
	}, 0)

	loop, ok := out[0].Exp.(*Loop)
	if !ok || loop.Kind != LoopInfinite {
		t.Fatalf("got %#v, want infinite loop", out[0].Exp)
	}
	last := loop.Body[len(loop.Body)-1]
	exit, ok := last.Exp.(*If)
	if !ok || last.Offset != 5 {
		t.Fatalf("last body node %T at %d, want *If at 5", last.Exp, last.Offset)
	}
	if len(exit.Then) != 0 {
		t.Errorf("then body %#v, want empty", exit.Then)
	}
	want := []Node{{Offset: 5, Exp: &Jump{Target: 7}}}
	if diff := cmp.Diff(want, exit.Else); diff != "" {
		t.Errorf("else mismatch (-want +got):\n%s", diff)
	}
}

func TestConditionalSelfLoop(t *testing.T) {
	// if (false) { if (!true) loop {} } else { 2u8; }; return
	out := translate(t, []bytecode.Instruction{
		bare(bytecode.OpLdFalse),   // 0
		arg(bytecode.OpBrFalse, 6), // 1
		bare(bytecode.OpLdTrue),    // 2
		arg(bytecode.OpBrTrue, 5),  // 3
		arg(bytecode.OpBranch, 4),  // 4
		arg(bytecode.OpBranch, 8),  // 5
		arg(bytecode.OpLdU8, 2),    // 6
		bare(bytecode.OpPop),       // 7
		bare(bytecode.OpRet),       // 8
	}, 0)

	if len(out) != 3 {
		t.Fatalf("got %d top-level nodes, want 3", len(out))
	}
	outer, ok := out[1].Exp.(*If)
	if !ok {
		t.Fatalf("node 1 = %T, want *If", out[1].Exp)
	}
	if len(outer.Then) != 2 || len(outer.Else) != 2 {
		t.Fatalf("then=%d else=%d, want 2 and 2", len(outer.Then), len(outer.Else))
	}
	if outer.Else[0].Offset != 6 || outer.Else[1].Offset != 7 {
		t.Errorf("else offsets %d, %d, want 6, 7", outer.Else[0].Offset, outer.Else[1].Offset)
	}

	inner, ok := outer.Then[1].Exp.(*If)
	if !ok {
		t.Fatalf("then[1] = %T, want *If", outer.Then[1].Exp)
	}
	if _, ok := inner.Cond.Exp.(*Not); !ok {
		t.Errorf("inner condition %T, want *Not", inner.Cond.Exp)
	}
	want := []Node{{Offset: 4, Exp: &Loop{Kind: LoopInfinite, Head: 4}}}
	if diff := cmp.Diff(want, inner.Then); diff != "" {
		t.Errorf("spin mismatch (-want +got):\n%s", diff)
	}

	if _, ok := out[2].Exp.(*Return); !ok || out[2].Offset != 8 {
		t.Errorf("node 2 = %T at %d, want *Return at 8", out[2].Exp, out[2].Offset)
	}
}

func TestBranchTargetOutOfRange(t *testing.T) {
	for _, code := range [][]bytecode.Instruction{
		{arg(bytecode.OpBranch, 10)},
		{bare(bytecode.OpLdTrue), arg(bytecode.OpBrTrue, 3)},
		{bare(bytecode.OpLdTrue), arg(bytecode.OpBrFalse, 3), arg(bytecode.OpBranch, 40)},
	} {
		_, err := Translate(code, fixtureLookup(), 0)
		if !errors.Is(err, ErrBranchTarget) {
			t.Errorf("%v: got %v, want ErrBranchTarget", code, err)
		}
	}

	// A branch to the end of the stream is in range.
	if _, err := Translate([]bytecode.Instruction{arg(bytecode.OpBranch, 1)}, nil, 0); err != nil {
		t.Errorf("branch to end: %v", err)
	}
}

func TestFreezeRefKeepsIdentity(t *testing.T) {
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpMutBorrowLoc, 2),
		bare(bytecode.OpFreezeRef),
		bare(bytecode.OpReadRef),
		bare(bytecode.OpPop),
	}, 0)

	if out[1].Exp != out[0].Exp {
		t.Error("FREEZE_REF did not re-tag its operand")
	}
	deref := out[2].Exp.(*Deref)
	if deref.Ref.Offset != 1 || deref.Ref.Exp != out[0].Exp {
		t.Errorf("deref operand at %d", deref.Ref.Offset)
	}
	if roots := Roots(out); len(roots) != 1 {
		t.Errorf("got %d roots, want 1", len(roots))
	}
}

func TestWriteRefOperands(t *testing.T) {
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpLdU64, 5),
		arg(bytecode.OpMutBorrowLoc, 2),
		bare(bytecode.OpWriteRef),
	}, 0)

	w := out[2].Exp.(*WriteRef)
	if _, ok := w.Ref.Exp.(*LocalRef); !ok {
		t.Errorf("reference %T, want *LocalRef", w.Ref.Exp)
	}
	if _, ok := w.Value.Exp.(*Literal); !ok {
		t.Errorf("value %T, want *Literal", w.Value.Exp)
	}
}

func TestCalls(t *testing.T) {
	t.Run("generic", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpLdU64, 1), arg(bytecode.OpLdU64, 2), arg(bytecode.OpCallGeneric, 0),
		}, 0)
		c := out[2].Exp.(*Call)
		if c.Name != "deposit" || c.Module != "" {
			t.Errorf("callee %s::%s", c.Module, c.Name)
		}
		if len(c.TypeArgs) != 1 || c.TypeArgs[0].String() != "u8" {
			t.Errorf("type args %v", c.TypeArgs)
		}
		if c.Args[0].Offset != 0 || c.Args[1].Offset != 1 {
			t.Error("arguments out of production order")
		}
	})

	t.Run("imported", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpCopyLoc, 0), arg(bytecode.OpCall, 1), bare(bytecode.OpPop),
		}, 0)
		c := out[1].Exp.(*Call)
		if c.Module != "Signer" || c.Name != "address_of" || len(c.Args) != 1 {
			t.Errorf("got %+v", c)
		}
		if out[2].Exp.(*Drop).Value.Exp != c {
			t.Error("call result was not pushed")
		}
	})

	t.Run("multiple results", func(t *testing.T) {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpLdU64, 9),
			arg(bytecode.OpCall, 2),
			arg(bytecode.OpStLoc, 2),
			arg(bytecode.OpStLoc, 1),
		}, 0)
		if out[2].Exp.(*Let).Value.Exp != out[1].Exp {
			t.Error("top of stack is not the call")
		}
		nop, ok := out[3].Exp.(*Let).Value.Exp.(*Nop)
		if !ok || !nop.Synthetic || out[3].Exp.(*Let).Value.Offset != 1 {
			t.Error("second result is not a placeholder tagged with the call offset")
		}
	})
}

func TestBuiltins(t *testing.T) {
	tests := []struct {
		op     bytecode.Opcode
		kind   BuiltinKind
		args   int
		pushed bool
		name   string
	}{
		{bytecode.OpExists, Exists, 1, true, "Balance"},
		{bytecode.OpMoveFrom, MoveFrom, 1, true, "Balance"},
		{bytecode.OpMoveTo, MoveTo, 2, false, "Balance"},
		{bytecode.OpImmBorrowGlobal, BorrowGlobal, 1, true, "Balance"},
		{bytecode.OpMutBorrowGlobal, BorrowGlobalMut, 1, true, "Balance"},
		{bytecode.OpExistsGeneric, Exists, 1, true, "Box<u8>"},
		{bytecode.OpMoveFromGeneric, MoveFrom, 1, true, "Box<u8>"},
		{bytecode.OpMoveToGeneric, MoveTo, 2, false, "Box<u8>"},
		{bytecode.OpImmBorrowGlobalGeneric, BorrowGlobal, 1, true, "Box<u8>"},
		{bytecode.OpMutBorrowGlobalGeneric, BorrowGlobalMut, 1, true, "Box<u8>"},
	}

	for _, tt := range tests {
		out := translate(t, []bytecode.Instruction{
			arg(bytecode.OpCopyLoc, 0),
			arg(bytecode.OpCopyLoc, 1),
			arg(tt.op, 0),
			bare(bytecode.OpPop),
		}, 0)

		b, ok := out[2].Exp.(*Builtin)
		if !ok {
			t.Fatalf("%s: got %T, want *Builtin", tt.op, out[2].Exp)
		}
		if b.Kind != tt.kind || len(b.Args) != tt.args || b.Struct.String() != tt.name {
			t.Errorf("%s: got %s<%s> with %d args", tt.op, b.Kind, b.Struct, len(b.Args))
		}
		dropped := out[3].Exp.(*Drop).Value.Exp
		if pushed := dropped == Exp(b); pushed != tt.pushed {
			t.Errorf("%s: pushed=%v, want %v", tt.op, pushed, tt.pushed)
		}
	}
}

func TestFieldRefs(t *testing.T) {
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpMutBorrowLoc, 0),
		arg(bytecode.OpMutBorrowField, 0),
		arg(bytecode.OpImmBorrowLoc, 1),
		arg(bytecode.OpImmBorrowFieldGeneric, 0),
		bare(bytecode.OpPop),
		bare(bytecode.OpPop),
	}, 0)

	f := out[1].Exp.(*FieldRef)
	if !f.Mutable || f.Field != "value" || f.Struct.Name != "Balance" || f.Ref.Exp != out[0].Exp {
		t.Errorf("plain field ref %+v", f)
	}
	g := out[3].Exp.(*FieldRef)
	if g.Mutable || g.Field != "item" || g.Struct.String() != "Box<u8>" {
		t.Errorf("generic field ref %+v", g)
	}
}

func TestLdConst(t *testing.T) {
	out := translate(t, []bytecode.Instruction{
		arg(bytecode.OpLdConst, 0),
		arg(bytecode.OpLdConst, 1),
		arg(bytecode.OpLdConst, 2),
		bare(bytecode.OpPop),
		bare(bytecode.OpPop),
		bare(bytecode.OpPop),
	}, 0)

	if lit := out[0].Exp.(*Literal); lit.Kind != LitBytes || string(lit.Bytes) != "hi" {
		t.Errorf("constant 0 = %+v", lit)
	}
	if lit := out[1].Exp.(*Literal); lit.Kind != LitAddress || lit.Address.String() != "0x1" {
		t.Errorf("constant 1 = %+v", lit)
	}
	if _, ok := out[2].Exp.(*Error); !ok {
		t.Errorf("malformed constant gave %T, want *Error", out[2].Exp)
	}

	// The error is not pushed, so the pops consume the two literals and
	// then underflow.
	if out[3].Exp.(*Drop).Value.Exp != out[1].Exp {
		t.Error("first pop did not consume constant 1")
	}
	if !IsNop(out[5].Exp.(*Drop).Value) {
		t.Error("third pop should underflow")
	}
}

func TestBoundedRegion(t *testing.T) {
	cur := bytecode.NewCursor([]bytecode.Instruction{
		bare(bytecode.OpLdTrue),
		arg(bytecode.OpBrFalse, 4),
		arg(bytecode.OpLdU8, 1),
		bare(bytecode.OpPop),
		bare(bytecode.OpRet),
	})

	tr := NewTranslator(cur, fixtureLookup(), 0, 4)
	if err := tr.Translate(); err != nil {
		t.Fatal(err)
	}
	if cur.Pos() != 4 {
		t.Errorf("cursor at %d after the region, want 4", cur.Pos())
	}
	if len(tr.Output()) != 2 {
		t.Errorf("got %d nodes, want 2", len(tr.Output()))
	}
	if len(tr.Leftover()) != 0 {
		t.Errorf("leftover %v", tr.Leftover())
	}

	// A region never reads past its end, even when a branch targets
	// beyond it.
	short := bytecode.NewCursor([]bytecode.Instruction{
		bare(bytecode.OpLdTrue),
		arg(bytecode.OpBrFalse, 4),
		arg(bytecode.OpLdU8, 1),
		bare(bytecode.OpPop),
	})
	tr = NewTranslator(short, fixtureLookup(), 0, 2)
	if err := tr.Translate(); err != nil {
		t.Fatal(err)
	}
	if short.Pos() != 2 {
		t.Errorf("cursor at %d, want 2", short.Pos())
	}
	if cond := tr.Output()[1].Exp.(*If); len(cond.Then) != 0 {
		t.Errorf("then body %v, want empty", cond.Then)
	}

	// A negative count is an empty region.
	empty := bytecode.NewCursor([]bytecode.Instruction{bare(bytecode.OpRet)})
	tr = NewTranslator(empty, fixtureLookup(), 0, -1)
	if err := tr.Translate(); err != nil {
		t.Fatal(err)
	}
	if empty.Pos() != 0 || len(tr.Output()) != 0 {
		t.Errorf("cursor at %d with %d nodes, want 0 and none", empty.Pos(), len(tr.Output()))
	}
}
