package bytecode

import (
	"strings"
	"testing"

	"github.com/holiman/uint256"
)

func TestDisassembleEmpty(t *testing.T) {
	output := Disassemble(nil)

	if !strings.Contains(output, "Instructions: 0") {
		t.Error("Disassembly missing header")
	}
}

func TestDisassembleSimple(t *testing.T) {
	output := DisassembleWithName("add", []Instruction{
		New(OpLdU64, 40),
		New(OpLdU64, 2),
		Simple(OpAdd),
		Simple(OpRet),
	})

	for _, want := range []string{"=== add ===", "LD_U64 40", "LD_U64 2", "ADD", "RET"} {
		if !strings.Contains(output, want) {
			t.Errorf("Missing %q in:\n%s", want, output)
		}
	}
}

func TestDisassembleMarksBranchTargets(t *testing.T) {
	output := Disassemble(sampleCode())

	if !strings.Contains(output, "BR_FALSE -> 0004") {
		t.Errorf("Missing branch operand in:\n%s", output)
	}
	if !strings.Contains(output, "> 0004  LD_U8 2") {
		t.Errorf("Branch target not marked in:\n%s", output)
	}
}

func TestDisassembleWideLiteral(t *testing.T) {
	v := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	lines := DisassembleToLines([]Instruction{LdU128(v)})

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.HasSuffix(lines[0], "LD_U128 1267650600228229401496703205376") {
		t.Errorf("unexpected line %q", lines[0])
	}
}
