package decompiler

// Roots returns the statements of list: nodes whose expression is not an
// operand of another node of list or of extra. An expression listed more
// than once (FREEZE_REF re-tags its operand) is returned once.
func Roots(list []Node, extra ...Node) []Node {
	consumed := make(map[Exp]bool)
	var mark func(Node)
	mark = func(n Node) {
		for _, op := range n.Operands() {
			if op.Exp == nil || consumed[op.Exp] {
				continue
			}
			consumed[op.Exp] = true
			mark(op)
		}
	}
	for _, n := range list {
		mark(n)
	}
	for _, n := range extra {
		if n.Exp != nil {
			consumed[n.Exp] = true
			mark(n)
		}
	}

	seen := make(map[Exp]bool)
	var roots []Node
	for _, n := range list {
		if n.Exp == nil || consumed[n.Exp] || seen[n.Exp] {
			continue
		}
		seen[n.Exp] = true
		roots = append(roots, n)
	}
	return roots
}

// usedLocals collects the slots referenced anywhere in body.
func usedLocals(body []Node) map[int]bool {
	used := make(map[int]bool)
	var walk func(Node)
	walk = func(n Node) {
		switch e := n.Exp.(type) {
		case *LocalAccess:
			used[e.Local.Slot] = true
		case *Let:
			used[e.Local.Slot] = true
		case *LocalRef:
			used[e.Local.Slot] = true
		}
		for _, op := range n.Operands() {
			walk(op)
		}
		for _, list := range nested(n.Exp) {
			for _, c := range list {
				walk(c)
			}
		}
	}
	for _, n := range body {
		walk(n)
	}
	return used
}
