// Package bytecode models the instruction set of a Move-style stack
// machine: opcodes with their stack effects, decoded instructions, a cursor
// over one function body, and a plain-text listing.
//
// Instructions are already decoded. Each carries at most one numeric
// operand whose meaning depends on the opcode:
//
//   - literals (LD_U8, LD_U64; LD_U128 uses the wide field)
//   - local slots (COPY_LOC, MOVE_LOC, ST_LOC, *_BORROW_LOC)
//   - pool indexes (CALL, PACK, LD_CONST, *_GENERIC, ...)
//   - absolute branch targets (BR_TRUE, BR_FALSE, BRANCH)
//
// Branch targets are zero-based instruction offsets, not byte offsets.
package bytecode
