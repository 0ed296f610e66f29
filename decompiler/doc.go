// Package decompiler reconstructs expression trees from Move-style stack
// bytecode.
//
// A Translator walks one function body with a bytecode.Cursor, simulating
// the operand stack and resolving every pool operand through a Lookup.
// The result is a flat, stream-ordered list of offset-tagged nodes: every
// value-producing node appears at its own offset and is also referenced
// by the node that consumed it. Roots recovers the statement view of such
// a list.
//
// Branches are rebuilt by bounded recursion. A conditional branch forward
// becomes an If whose bodies are translated by child Translators sharing
// the cursor; a branch backward becomes a Loop.
//
// Unresolvable operands produce Error nodes and stack underflow produces
// Nop placeholders. The only error Translate returns is ErrBranchTarget.
//
// DecompileUnit lifts this to a whole unit and Printer renders the result
// as Move-like source.
package decompiler
