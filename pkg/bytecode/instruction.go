package bytecode

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Instruction is one decoded bytecode instruction. Arg holds the single
// numeric operand (literal, local slot, pool index or branch target); the
// 128-bit literal of LD_U128 is carried in Wide.
type Instruction struct {
	Op   Opcode       `cbor:"1,keyasint"`
	Arg  uint64       `cbor:"2,keyasint,omitempty"`
	Wide *uint256.Int `cbor:"3,keyasint,omitempty"`
}

// New returns an instruction with the given operand.
func New(op Opcode, arg uint64) Instruction {
	return Instruction{Op: op, Arg: arg}
}

// Simple returns an instruction without an operand.
func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

// LdU128 returns an LD_U128 instruction for v.
func LdU128(v *uint256.Int) Instruction {
	return Instruction{Op: OpLdU128, Wide: new(uint256.Int).Set(v)}
}

// Target returns the branch target of a branch instruction.
func (ins Instruction) Target() (int, bool) {
	if !ins.Op.IsBranch() {
		return 0, false
	}
	return int(ins.Arg), true
}

// String renders the instruction the way listings show it.
func (ins Instruction) String() string {
	switch ins.Op.Operand() {
	case OperandNone:
		return ins.Op.String()
	case OperandTarget:
		return fmt.Sprintf("%s -> %04X", ins.Op, ins.Arg)
	case OperandLiteral:
		if ins.Op == OpLdU128 {
			if ins.Wide == nil {
				return fmt.Sprintf("%s 0", ins.Op)
			}
			return fmt.Sprintf("%s %s", ins.Op, ins.Wide.Dec())
		}
		return fmt.Sprintf("%s %d", ins.Op, ins.Arg)
	default:
		return fmt.Sprintf("%s %d", ins.Op, ins.Arg)
	}
}
