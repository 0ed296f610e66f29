package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Values match the serialized opcode numbers of the Move v1 binary format.
type Opcode byte

const (
	OpPop                    Opcode = 0x01 // Discard top of stack
	OpRet                    Opcode = 0x02 // Return from function
	OpBrTrue                 Opcode = 0x03 // Branch if true: OpBrTrue <target>
	OpBrFalse                Opcode = 0x04 // Branch if false: OpBrFalse <target>
	OpBranch                 Opcode = 0x05 // Unconditional branch: OpBranch <target>
	OpLdU64                  Opcode = 0x06 // Push u64 literal
	OpLdConst                Opcode = 0x07 // Push constant from pool: OpLdConst <index>
	OpLdTrue                 Opcode = 0x08
	OpLdFalse                Opcode = 0x09
	OpCopyLoc                Opcode = 0x0A // Push copy of local: OpCopyLoc <slot>
	OpMoveLoc                Opcode = 0x0B // Move local onto stack: OpMoveLoc <slot>
	OpStLoc                  Opcode = 0x0C // Pop and store to local: OpStLoc <slot>
	OpMutBorrowLoc           Opcode = 0x0D
	OpImmBorrowLoc           Opcode = 0x0E
	OpMutBorrowField         Opcode = 0x0F // OpMutBorrowField <field_handle>
	OpImmBorrowField         Opcode = 0x10
	OpCall                   Opcode = 0x11 // OpCall <function_handle>
	OpPack                   Opcode = 0x12 // OpPack <struct_def>
	OpUnpack                 Opcode = 0x13
	OpReadRef                Opcode = 0x14
	OpWriteRef               Opcode = 0x15
	OpAdd                    Opcode = 0x16
	OpSub                    Opcode = 0x17
	OpMul                    Opcode = 0x18
	OpMod                    Opcode = 0x19
	OpDiv                    Opcode = 0x1A
	OpBitOr                  Opcode = 0x1B
	OpBitAnd                 Opcode = 0x1C
	OpXor                    Opcode = 0x1D
	OpOr                     Opcode = 0x1E
	OpAnd                    Opcode = 0x1F
	OpNot                    Opcode = 0x20
	OpEq                     Opcode = 0x21
	OpNeq                    Opcode = 0x22
	OpLt                     Opcode = 0x23
	OpGt                     Opcode = 0x24
	OpLe                     Opcode = 0x25
	OpGe                     Opcode = 0x26
	OpAbort                  Opcode = 0x27
	OpNop                    Opcode = 0x28
	OpExists                 Opcode = 0x29 // OpExists <struct_def>
	OpMutBorrowGlobal        Opcode = 0x2A
	OpImmBorrowGlobal        Opcode = 0x2B
	OpMoveFrom               Opcode = 0x2C
	OpMoveTo                 Opcode = 0x2D
	OpFreezeRef              Opcode = 0x2E
	OpShl                    Opcode = 0x2F
	OpShr                    Opcode = 0x30
	OpLdU8                   Opcode = 0x31
	OpLdU128                 Opcode = 0x32 // Literal travels in Instruction.Wide
	OpCastU8                 Opcode = 0x33
	OpCastU64                Opcode = 0x34
	OpCastU128               Opcode = 0x35
	OpMutBorrowFieldGeneric  Opcode = 0x36 // OpMutBorrowFieldGeneric <field_inst>
	OpImmBorrowFieldGeneric  Opcode = 0x37
	OpCallGeneric            Opcode = 0x38 // OpCallGeneric <function_inst>
	OpPackGeneric            Opcode = 0x39 // OpPackGeneric <struct_def_inst>
	OpUnpackGeneric          Opcode = 0x3A
	OpExistsGeneric          Opcode = 0x3B
	OpMutBorrowGlobalGeneric Opcode = 0x3C
	OpImmBorrowGlobalGeneric Opcode = 0x3D
	OpMoveFromGeneric        Opcode = 0x3E
	OpMoveToGeneric          Opcode = 0x3F
)

// OperandKind classifies the single numeric operand an instruction carries.
type OperandKind uint8

const (
	OperandNone    OperandKind = iota
	OperandLiteral             // Immediate value
	OperandLocal               // Local slot index
	OperandPool                // Index into one of the unit's pools
	OperandTarget              // Absolute branch target offset
)

// OpcodeInfo provides metadata about each opcode for listings and validation.
type OpcodeInfo struct {
	Name      string      // Human-readable name
	StackPop  int         // How many values popped from stack (-1 = depends on a handle)
	StackPush int         // How many values pushed to stack (-1 = depends on a handle)
	Operand   OperandKind // Kind of the operand, if any
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack and no-ops
	OpPop: {"POP", 1, 0, OperandNone},
	OpNop: {"NOP", 0, 0, OperandNone},

	// Literals and constants
	OpLdU8:    {"LD_U8", 0, 1, OperandLiteral},
	OpLdU64:   {"LD_U64", 0, 1, OperandLiteral},
	OpLdU128:  {"LD_U128", 0, 1, OperandLiteral},
	OpLdConst: {"LD_CONST", 0, 1, OperandPool},
	OpLdTrue:  {"LD_TRUE", 0, 1, OperandNone},
	OpLdFalse: {"LD_FALSE", 0, 1, OperandNone},

	// Casts
	OpCastU8:   {"CAST_U8", 1, 1, OperandNone},
	OpCastU64:  {"CAST_U64", 1, 1, OperandNone},
	OpCastU128: {"CAST_U128", 1, 1, OperandNone},

	// Locals
	OpCopyLoc:      {"COPY_LOC", 0, 1, OperandLocal},
	OpMoveLoc:      {"MOVE_LOC", 0, 1, OperandLocal},
	OpStLoc:        {"ST_LOC", 1, 0, OperandLocal},
	OpMutBorrowLoc: {"MUT_BORROW_LOC", 0, 1, OperandLocal},
	OpImmBorrowLoc: {"IMM_BORROW_LOC", 0, 1, OperandLocal},

	// References
	OpMutBorrowField:        {"MUT_BORROW_FIELD", 1, 1, OperandPool},
	OpImmBorrowField:        {"IMM_BORROW_FIELD", 1, 1, OperandPool},
	OpMutBorrowFieldGeneric: {"MUT_BORROW_FIELD_GENERIC", 1, 1, OperandPool},
	OpImmBorrowFieldGeneric: {"IMM_BORROW_FIELD_GENERIC", 1, 1, OperandPool},
	OpReadRef:               {"READ_REF", 1, 1, OperandNone},
	OpWriteRef:              {"WRITE_REF", 2, 0, OperandNone},
	OpFreezeRef:             {"FREEZE_REF", 1, 1, OperandNone},

	// Calls and structs
	OpCall:          {"CALL", -1, -1, OperandPool},
	OpCallGeneric:   {"CALL_GENERIC", -1, -1, OperandPool},
	OpPack:          {"PACK", -1, 1, OperandPool},
	OpPackGeneric:   {"PACK_GENERIC", -1, 1, OperandPool},
	OpUnpack:        {"UNPACK", 1, -1, OperandPool},
	OpUnpackGeneric: {"UNPACK_GENERIC", 1, -1, OperandPool},

	// Arithmetic and bitwise
	OpAdd:    {"ADD", 2, 1, OperandNone},
	OpSub:    {"SUB", 2, 1, OperandNone},
	OpMul:    {"MUL", 2, 1, OperandNone},
	OpMod:    {"MOD", 2, 1, OperandNone},
	OpDiv:    {"DIV", 2, 1, OperandNone},
	OpBitOr:  {"BIT_OR", 2, 1, OperandNone},
	OpBitAnd: {"BIT_AND", 2, 1, OperandNone},
	OpXor:    {"XOR", 2, 1, OperandNone},
	OpShl:    {"SHL", 2, 1, OperandNone},
	OpShr:    {"SHR", 2, 1, OperandNone},

	// Logical and comparison
	OpOr:  {"OR", 2, 1, OperandNone},
	OpAnd: {"AND", 2, 1, OperandNone},
	OpNot: {"NOT", 1, 1, OperandNone},
	OpEq:  {"EQ", 2, 1, OperandNone},
	OpNeq: {"NEQ", 2, 1, OperandNone},
	OpLt:  {"LT", 2, 1, OperandNone},
	OpGt:  {"GT", 2, 1, OperandNone},
	OpLe:  {"LE", 2, 1, OperandNone},
	OpGe:  {"GE", 2, 1, OperandNone},

	// Global storage
	OpExists:                 {"EXISTS", 1, 1, OperandPool},
	OpExistsGeneric:          {"EXISTS_GENERIC", 1, 1, OperandPool},
	OpMoveFrom:               {"MOVE_FROM", 1, 1, OperandPool},
	OpMoveFromGeneric:        {"MOVE_FROM_GENERIC", 1, 1, OperandPool},
	OpMoveTo:                 {"MOVE_TO", 2, 0, OperandPool},
	OpMoveToGeneric:          {"MOVE_TO_GENERIC", 2, 0, OperandPool},
	OpMutBorrowGlobal:        {"MUT_BORROW_GLOBAL", 1, 1, OperandPool},
	OpMutBorrowGlobalGeneric: {"MUT_BORROW_GLOBAL_GENERIC", 1, 1, OperandPool},
	OpImmBorrowGlobal:        {"IMM_BORROW_GLOBAL", 1, 1, OperandPool},
	OpImmBorrowGlobalGeneric: {"IMM_BORROW_GLOBAL_GENERIC", 1, 1, OperandPool},

	// Control flow
	OpBrTrue:  {"BR_TRUE", 1, 0, OperandTarget},
	OpBrFalse: {"BR_FALSE", 1, 0, OperandTarget},
	OpBranch:  {"BRANCH", 0, 0, OperandTarget},
	OpRet:     {"RET", -1, 0, OperandNone},
	OpAbort:   {"ABORT", 1, 0, OperandNone},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// Operand returns the kind of operand this opcode carries.
func (op Opcode) Operand() OperandKind {
	return GetOpcodeInfo(op).Operand
}

// IsBranch returns true for the three branch instructions.
func (op Opcode) IsBranch() bool {
	return op == OpBrTrue || op == OpBrFalse || op == OpBranch
}

// IsConditional returns true for BR_TRUE and BR_FALSE.
func (op Opcode) IsConditional() bool {
	return op == OpBrTrue || op == OpBrFalse
}

// IsGeneric returns true if the operand indexes an instantiation pool
// rather than a plain handle or definition.
func (op Opcode) IsGeneric() bool {
	switch op {
	case OpCallGeneric, OpPackGeneric, OpUnpackGeneric,
		OpMutBorrowFieldGeneric, OpImmBorrowFieldGeneric,
		OpExistsGeneric, OpMoveFromGeneric, OpMoveToGeneric,
		OpMutBorrowGlobalGeneric, OpImmBorrowGlobalGeneric:
		return true
	}
	return false
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
