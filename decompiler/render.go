package decompiler

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer renders decompiled units as Move-like source text.
type Printer struct {
	// Indent is the number of spaces per nesting level.
	Indent int
	// Offsets appends "// @lo..hi" instruction ranges to statements.
	Offsets bool
}

// NewPrinter returns a Printer with four-space indentation.
func NewPrinter() *Printer {
	return &Printer{Indent: 4}
}

// Fprint writes the rendering of su to w.
func (p *Printer) Fprint(w io.Writer, su *SourceUnit) error {
	_, err := io.WriteString(w, p.Render(su))
	return err
}

// Render returns the source text of su.
func (p *Printer) Render(su *SourceUnit) string {
	var sb strings.Builder
	if su.Script {
		sb.WriteString("script {\n")
	} else {
		fmt.Fprintf(&sb, "module %s::%s {\n", su.Address, su.Name)
	}

	var sections []string
	if len(su.Imports) > 0 {
		var s strings.Builder
		for _, imp := range su.Imports {
			fmt.Fprintf(&s, "%suse %s;\n", p.pad(1), imp)
		}
		sections = append(sections, s.String())
	}
	for _, st := range su.Structs {
		sections = append(sections, p.Struct(st, 1))
	}
	for _, fn := range su.Functions {
		sections = append(sections, p.Function(fn, 1))
	}

	sb.WriteString(strings.Join(sections, "\n"))
	sb.WriteString("}\n")
	return sb.String()
}

func (p *Printer) pad(level int) string {
	return strings.Repeat(" ", level*p.Indent)
}

// Struct renders a struct declaration followed by a newline.
func (p *Printer) Struct(st StructDecl, level int) string {
	var sb strings.Builder
	sb.WriteString(p.pad(level))
	if st.Native {
		sb.WriteString("native ")
	}
	sb.WriteString("struct ")
	sb.WriteString(st.Name)
	writeGenerics(&sb, st.TypeParams)
	if names := st.Abilities.Names(); len(names) > 0 {
		sb.WriteString(" has ")
		sb.WriteString(strings.Join(names, ", "))
	}
	if st.Native {
		sb.WriteString(";\n")
		return sb.String()
	}

	sb.WriteString(" {\n")
	for i, f := range st.Fields {
		fmt.Fprintf(&sb, "%s%s: %s", p.pad(level+1), f.Name, f.Type)
		if i != len(st.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(p.pad(level))
	sb.WriteString("}\n")
	return sb.String()
}

func writeGenerics(sb *strings.Builder, generics []Generic) {
	if len(generics) == 0 {
		return
	}
	sb.WriteString("<")
	for i, g := range generics {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(g.Decl())
	}
	sb.WriteString(">")
}

// Function renders a function declaration followed by a newline.
func (p *Printer) Function(fn FunctionDecl, level int) string {
	used := usedLocals(fn.Body)
	localName := func(l Local) string {
		if fn.Body != nil && !used[l.Slot] {
			return "_" + l.Name
		}
		return l.Name
	}

	var sb strings.Builder
	sb.WriteString(p.pad(level))
	if fn.Native {
		sb.WriteString("native ")
	}
	if v := fn.Visibility.String(); v != "" {
		sb.WriteString(v)
		sb.WriteString(" ")
	}
	if fn.Entry {
		sb.WriteString("entry ")
	}
	sb.WriteString("fun ")
	sb.WriteString(fn.Name)
	writeGenerics(&sb, fn.TypeParams)

	sb.WriteString("(")
	for i, param := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", localName(param), param.Type)
	}
	sb.WriteString(")")

	switch len(fn.Returns) {
	case 0:
	case 1:
		fmt.Fprintf(&sb, ": %s", fn.Returns[0])
	default:
		sb.WriteString(": (")
		for i, r := range fn.Returns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.String())
		}
		sb.WriteString(")")
	}

	if len(fn.Acquires) > 0 {
		names := make([]string, len(fn.Acquires))
		for i, a := range fn.Acquires {
			names[i] = a.String()
		}
		sb.WriteString(" acquires ")
		sb.WriteString(strings.Join(names, ", "))
	}

	if fn.Native || fn.Body == nil {
		sb.WriteString(";\n")
		return sb.String()
	}

	sb.WriteString(" {\n")
	for _, v := range fn.Vars {
		fmt.Fprintf(&sb, "%slet %s: %s;\n", p.pad(level+1), localName(v), v.Type)
	}
	if len(fn.Vars) > 0 {
		sb.WriteString("\n")
	}

	roots := Roots(fn.Body)
	if n := len(roots); n > 0 {
		if r, ok := roots[n-1].Exp.(*Return); ok && len(r.Values) == 0 {
			roots = roots[:n-1]
		}
	}
	p.writeStmts(&sb, roots, level+1)
	sb.WriteString(p.pad(level))
	sb.WriteString("}\n")
	return sb.String()
}

// Block renders a statement list at the given nesting level.
func (p *Printer) Block(list []Node, level int) string {
	var sb strings.Builder
	p.writeStmts(&sb, Roots(list), level)
	return sb.String()
}

func (p *Printer) writeStmts(sb *strings.Builder, roots []Node, level int) {
	var stmts []Node
	for _, n := range roots {
		if nop, ok := n.Exp.(*Nop); ok && nop.Field == "" {
			continue
		}
		stmts = append(stmts, n)
	}

	for i, n := range stmts {
		last := i == len(stmts)-1
		sb.WriteString(p.pad(level))
		sb.WriteString(p.exp(n, level))
		switch n.Exp.(type) {
		case *If, *Loop:
			if !last {
				sb.WriteString(";")
			}
		default:
			if !last || !isValue(n.Exp) {
				sb.WriteString(";")
			}
		}
		if p.Offsets {
			lo, hi := SourceRange(n)
			if lo == hi {
				fmt.Fprintf(sb, " // @%d", lo)
			} else {
				fmt.Fprintf(sb, " // @%d..%d", lo, hi)
			}
		}
		sb.WriteString("\n")
	}
}

// isValue reports whether e only produces a value, so that as the last
// statement of a block it is the block's result.
func isValue(e Exp) bool {
	switch e.(type) {
	case *Literal, *Not, *BinaryOp, *Cast, *LocalAccess, *LocalRef,
		*FieldRef, *Deref, *Pack:
		return true
	}
	return false
}

// Exp renders a single expression.
func (p *Printer) Exp(n Node) string {
	return p.exp(n, 0)
}

func (p *Printer) exp(n Node, level int) string {
	switch e := n.Exp.(type) {
	case *Literal:
		return literal(e)
	case *Not:
		return "!" + p.operand(e.Operand, level)
	case *BinaryOp:
		return p.operand(e.Left, level) + " " + string(e.Op) + " " + p.operand(e.Right, level)
	case *Cast:
		return "(" + p.exp(e.Operand, level) + " as " + e.To + ")"
	case *LocalAccess:
		if e.Mode == Move {
			return "move " + e.Local.Name
		}
		return e.Local.Name
	case *Let:
		return e.Local.Name + " = " + p.exp(e.Value, level)
	case *LocalRef:
		return borrow(e.Mutable) + e.Local.Name
	case *FieldRef:
		return borrow(e.Mutable) + p.place(n, level)
	case *Deref:
		return "*" + p.operand(e.Ref, level)
	case *WriteRef:
		return "*" + p.operand(e.Ref, level) + " = " + p.exp(e.Value, level)
	case *Call:
		var sb strings.Builder
		if e.Module != "" {
			sb.WriteString(e.Module)
			sb.WriteString("::")
		}
		sb.WriteString(e.Name)
		writeTypeArgs(&sb, e.TypeArgs)
		sb.WriteString(p.args(e.Args, level))
		return sb.String()
	case *Builtin:
		return e.Kind.String() + "<" + e.Struct.String() + ">" + p.args(e.Args, level)
	case *Pack:
		if len(e.Fields) == 0 {
			return e.Struct.String() + " {}"
		}
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Name + ": " + p.exp(f.Value, level)
		}
		return e.Struct.String() + " { " + strings.Join(parts, ", ") + " }"
	case *Unpack:
		return "let " + e.Struct.String() + " { " + strings.Join(e.Fields, ", ") + " } = " + p.exp(e.Source, level)
	case *If:
		return p.ifExp(e, level)
	case *Loop:
		return p.loop(e, level)
	case *Jump:
		if e.Back {
			return "continue"
		}
		return "break"
	case *Return:
		switch len(e.Values) {
		case 0:
			return "return"
		case 1:
			return "return " + p.exp(e.Values[0], level)
		}
		return "return " + p.args(e.Values, level)
	case *Abort:
		return "abort " + p.exp(e.Code, level)
	case *Nop:
		if e.Field != "" {
			return e.Field
		}
		return "_"
	case *Drop:
		return p.exp(e.Value, level)
	case *Error:
		return "/* " + e.Instruction.String() + " */"
	}
	return "/* ? */"
}

// operand renders n, parenthesised when it is itself an operator.
func (p *Printer) operand(n Node, level int) string {
	switch n.Exp.(type) {
	case *BinaryOp, *Let, *WriteRef, *If:
		return "(" + p.exp(n, level) + ")"
	}
	return p.exp(n, level)
}

func (p *Printer) args(nodes []Node, level int) string {
	parts := make([]string, len(nodes))
	for i, a := range nodes {
		parts[i] = p.exp(a, level)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// place renders the location a reference points to, without the borrow.
func (p *Printer) place(n Node, level int) string {
	switch e := n.Exp.(type) {
	case *LocalRef:
		return e.Local.Name
	case *LocalAccess:
		return e.Local.Name
	case *FieldRef:
		return p.place(e.Ref, level) + "." + e.Field
	}
	return p.operand(n, level)
}

func borrow(mutable bool) string {
	if mutable {
		return "&mut "
	}
	return "&"
}

func (p *Printer) ifExp(e *If, level int) string {
	var sb strings.Builder
	sb.WriteString("if (")
	sb.WriteString(p.exp(e.Cond, level))
	sb.WriteString(") {\n")
	p.writeStmts(&sb, Roots(e.Then), level+1)
	sb.WriteString(p.pad(level))
	sb.WriteString("}")
	if len(e.Else) > 0 {
		sb.WriteString(" else {\n")
		p.writeStmts(&sb, Roots(e.Else), level+1)
		sb.WriteString(p.pad(level))
		sb.WriteString("}")
	}
	return sb.String()
}

func (p *Printer) loop(e *Loop, level int) string {
	var sb strings.Builder
	var extra []Node
	if e.Cond != nil {
		extra = append(extra, *e.Cond)
	}

	header := Roots(e.Header, extra...)
	if e.Kind == LoopWhile && len(header) == 0 {
		sb.WriteString("while (")
		sb.WriteString(p.exp(*e.Cond, level))
		sb.WriteString(") {\n")
		p.writeStmts(&sb, Roots(e.Body), level+1)
		sb.WriteString(p.pad(level))
		sb.WriteString("}")
		return sb.String()
	}

	sb.WriteString("loop {\n")
	if e.Kind == LoopWhile {
		p.writeStmts(&sb, header, level+1)
		p.writeBreakUnless(&sb, *e.Cond, level+1)
		p.writeStmts(&sb, Roots(e.Body), level+1)
	} else {
		p.writeStmts(&sb, Roots(e.Body, extra...), level+1)
		if e.Cond != nil {
			p.writeBreakUnless(&sb, *e.Cond, level+1)
		}
	}
	sb.WriteString(p.pad(level))
	sb.WriteString("}")
	return sb.String()
}

func (p *Printer) writeBreakUnless(sb *strings.Builder, cond Node, level int) {
	var neg string
	if n, ok := cond.Exp.(*Not); ok {
		neg = p.exp(n.Operand, level)
	} else {
		neg = "!" + p.operand(cond, level)
	}
	fmt.Fprintf(sb, "%sif (%s) break;\n", p.pad(level), neg)
}

func literal(l *Literal) string {
	switch l.Kind {
	case LitU8:
		return strconv.FormatUint(l.Int, 10) + "u8"
	case LitU64:
		return strconv.FormatUint(l.Int, 10)
	case LitU128:
		if l.Wide == nil {
			return "0u128"
		}
		return l.Wide.Dec() + "u128"
	case LitBool:
		return strconv.FormatBool(l.Bool)
	case LitAddress:
		return l.Address.String()
	case LitBytes:
		return "x\"" + hex.EncodeToString(l.Bytes) + "\""
	}
	return "?"
}

// Render is a convenience for NewPrinter().Render(su).
func Render(su *SourceUnit) string {
	return NewPrinter().Render(su)
}
