package decompiler

import (
	"fmt"

	"github.com/chazu/movedc/pkg/bytecode"
)

func (t *Translator) checkTarget(target int) error {
	if target > t.cur.Len() {
		return fmt.Errorf("%w: %04X -> %04X, stream has %d instructions",
			ErrBranchTarget, t.off, target, t.cur.Len())
	}
	return nil
}

// conditional rebuilds an If or Loop from BR_TRUE / BR_FALSE.
//
// After normalisation the instruction reads "fall through into the next
// region when enter holds, otherwise jump to target". BR_FALSE enters on
// the condition, BR_TRUE on its negation, and the pair
// BR_TRUE(i+2); BRANCH(f) enters on the condition with target f.
func (t *Translator) conditional(ins bytecode.Instruction) (Exp, error) {
	target := int(ins.Arg)
	if err := t.checkTarget(target); err != nil {
		return nil, err
	}
	cond := t.stack.Pop()
	negated := ins.Op == bytecode.OpBrTrue
	paired := false

	if ins.Op == bytecode.OpBrTrue && target == t.off+2 && t.off+1 < t.end {
		if next, ok := t.cur.PeekRelative(1); ok && next.Op == bytecode.OpBranch {
			t.cur.Next()
			target = int(next.Arg)
			if err := t.checkTarget(target); err != nil {
				return nil, err
			}
			negated, paired = false, true
		}
	}

	enter := func() Node {
		if negated {
			return not(cond)
		}
		return cond
	}
	taken := func() Node {
		if negated {
			return cond
		}
		return not(cond)
	}

	if target <= t.off {
		return t.loopBack(target, taken()), nil
	}
	if paired && target == t.off+1 {
		// the BRANCH of the pair targets itself
		spin := Node{Offset: target, Exp: &Loop{Kind: LoopInfinite, Head: target}}
		log.Debugf("%04X: empty loop at %04X", t.off, target)
		return &If{Cond: taken(), Then: []Node{spin}}, nil
	}

	regionStart := t.cur.Pos()
	thenEnd := min(target, t.end)

	if last, ok := t.cur.PeekAbsolute(thenEnd - 1); ok && thenEnd-1 >= regionStart && last.Op == bytecode.OpBranch {
		e := int(last.Arg)
		switch {
		case thenEnd == target && e >= target && e <= t.end:
			return t.ifElse(enter(), thenEnd-1-regionStart, e-target)
		case e <= t.off && e >= t.start && !t.continues(e):
			return t.while(enter(), e, thenEnd-1-regionStart)
		}
	}

	then, _, err := t.translateBlock(thenEnd - regionStart)
	if err != nil {
		return nil, err
	}
	e := &If{Cond: enter(), Then: then}
	if t.loop != nil && target > t.end && target == t.loop.exit {
		e.Else = []Node{{Offset: t.off, Exp: &Jump{Target: target}}}
	}
	return e, nil
}

func (t *Translator) ifElse(cond Node, thenLen, elseLen int) (Exp, error) {
	then, thenLeft, err := t.translateBlock(thenLen)
	if err != nil {
		return nil, err
	}
	t.cur.Next() // jump over else
	els, elseLeft, err := t.translateBlock(elseLen)
	if err != nil {
		return nil, err
	}

	e := &If{Cond: cond, Then: then, Else: els}
	if len(thenLeft) > 0 && len(elseLeft) > 0 {
		t.push(e)
	}
	return e, nil
}

// while rebuilds a loop whose condition is evaluated at head and whose
// body ends with a branch back to head.
func (t *Translator) while(cond Node, head, bodyLen int) (Exp, error) {
	header := t.takeFrom(head)
	child := t.child(bodyLen)
	child.loop = &loopFrame{head: head, exit: t.cur.Pos() + bodyLen + 1}
	if err := child.Translate(); err != nil {
		return nil, err
	}
	body := child.Output()
	t.cur.Next() // back edge
	log.Debugf("%04X: while loop headed at %04X", t.off, head)
	return &Loop{Kind: LoopWhile, Head: head, Header: header, Cond: &cond, Body: body}, nil
}

// loopBack handles a conditional branch to head <= the current offset.
// Inside the region it closes a do-while loop; outside it is a
// conditional continue.
func (t *Translator) loopBack(head int, repeat Node) Exp {
	if head < t.start || t.continues(head) {
		return &If{Cond: repeat, Then: []Node{{Offset: t.off, Exp: &Jump{Target: head, Back: true}}}}
	}
	log.Debugf("%04X: do-while loop headed at %04X", t.off, head)
	return &Loop{Kind: LoopDoWhile, Head: head, Body: t.takeFrom(head), Cond: &repeat}
}

func (t *Translator) branch(ins bytecode.Instruction) (Exp, error) {
	target := int(ins.Arg)
	if err := t.checkTarget(target); err != nil {
		return nil, err
	}
	if target <= t.off && target >= t.start && !t.continues(target) {
		log.Debugf("%04X: infinite loop headed at %04X", t.off, target)
		return &Loop{Kind: LoopInfinite, Head: target, Body: t.takeFrom(target)}, nil
	}
	return &Jump{Target: target, Back: target <= t.off}, nil
}

// translateBlock translates the next n instructions with a child
// Translator and returns its output and leftover stack.
func (t *Translator) translateBlock(n int) (out, leftover []Node, err error) {
	child := t.child(n)
	if err := child.Translate(); err != nil {
		return nil, nil, err
	}
	return child.Output(), child.Leftover(), nil
}

// child returns a Translator for the next n instructions, clipped to the
// end of t's region.
func (t *Translator) child(n int) *Translator {
	n = min(n, t.end-t.cur.Pos())
	c := NewTranslator(t.cur, t.lookup, t.retArity, n)
	c.loop = t.loop
	return c
}

// continues reports whether a branch to target restarts the enclosing
// loop.
func (t *Translator) continues(target int) bool {
	return t.loop != nil && target == t.loop.head
}

// backEdge finds the last BRANCH of the region that jumps back to head.
// Loops that conditional rebuilds itself (while loops, and do-while
// loops closed by a BR_TRUE / BRANCH pair) are not reported.
func (t *Translator) backEdge(head int) (int, bool) {
	if t.continues(head) {
		return 0, false
	}
	for edge := t.end - 1; edge > head; edge-- {
		ins, _ := t.cur.PeekAbsolute(edge)
		if ins.Op != bytecode.OpBranch || int(ins.Arg) != head {
			continue
		}
		if prev, ok := t.cur.PeekAbsolute(edge - 1); ok && prev.Op == bytecode.OpBrTrue && int(prev.Arg) == edge+1 {
			continue
		}
		if t.whileExit(head, edge) {
			return 0, false
		}
		return edge, true
	}
	return 0, false
}

// whileExit reports whether the first branch after head is a conditional
// leaving the loop just past edge.
func (t *Translator) whileExit(head, edge int) bool {
	for i := head; i < edge; i++ {
		ins, _ := t.cur.PeekAbsolute(i)
		switch ins.Op {
		case bytecode.OpBranch:
			return false
		case bytecode.OpBrTrue, bytecode.OpBrFalse:
			target := int(ins.Arg)
			if ins.Op == bytecode.OpBrTrue && target == i+2 {
				if next, ok := t.cur.PeekAbsolute(i + 1); ok && next.Op == bytecode.OpBranch {
					target = int(next.Arg)
				}
			}
			return target == edge+1
		}
	}
	return false
}

// infinite rebuilds an unconditional loop running from the cursor up to
// the BRANCH at edge.
func (t *Translator) infinite(edge int) error {
	head := t.cur.Pos()
	body := t.child(edge - head)
	body.loop = &loopFrame{head: head, exit: edge + 1}
	if err := body.Translate(); err != nil {
		return err
	}
	t.cur.Next() // back edge
	t.off = edge
	log.Debugf("%04X: infinite loop headed at %04X", t.off, head)
	t.out = append(t.out, Node{Offset: edge, Exp: &Loop{Kind: LoopInfinite, Head: head, Body: body.Output()}})
	return nil
}

// takeFrom removes and returns the trailing output nodes produced at or
// after offset, discarding their pending stack values.
func (t *Translator) takeFrom(offset int) []Node {
	i := len(t.out)
	for i > 0 && t.out[i-1].Offset >= offset {
		i--
	}
	taken := append([]Node(nil), t.out[i:]...)
	t.out = t.out[:i]
	t.stack.dropFrom(offset)
	return taken
}

func not(n Node) Node {
	return Node{Offset: n.Offset, Exp: &Not{Operand: n}}
}
