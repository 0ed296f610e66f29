package decompiler

// OperandStack holds nodes that have been produced but not yet consumed.
// Underflow never fails: missing operands are synthetic Nop placeholders.
type OperandStack struct {
	nodes []Node
}

// Push adds n on top of the stack.
func (s *OperandStack) Push(n Node) {
	s.nodes = append(s.nodes, n)
}

// Pop removes and returns the most recently produced node.
func (s *OperandStack) Pop() Node {
	if len(s.nodes) == 0 {
		log.Debug("operand stack underflow")
		return nop()
	}
	n := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return n
}

// Pop2 pops two nodes and returns them in production order.
func (s *OperandStack) Pop2() (first, second Node) {
	second = s.Pop()
	first = s.Pop()
	return first, second
}

// PopN pops n nodes in production order, padding the front with
// placeholders when fewer are available.
func (s *OperandStack) PopN(n int) []Node {
	if n <= 0 {
		return nil
	}
	out := make([]Node, n)
	have := len(s.nodes)
	take := min(n, have)
	pad := n - take
	for i := 0; i < pad; i++ {
		out[i] = nop()
	}
	if pad > 0 {
		log.Debugf("operand stack underflow: need %d, have %d", n, have)
	}
	copy(out[pad:], s.nodes[have-take:])
	s.nodes = s.nodes[:have-take]
	return out
}

// Len returns the number of pending nodes.
func (s *OperandStack) Len() int {
	return len(s.nodes)
}

// Nodes returns the pending nodes, bottom first.
func (s *OperandStack) Nodes() []Node {
	return append([]Node(nil), s.nodes...)
}

// dropFrom discards pending nodes produced at or after offset.
func (s *OperandStack) dropFrom(offset int) {
	keep := s.nodes[:0]
	for _, n := range s.nodes {
		if n.Offset < offset {
			keep = append(keep, n)
		}
	}
	s.nodes = keep
}
