package bytecode

// Cursor walks one function's instruction stream. It never copies the
// stream; nested translations share a single Cursor so that the stream
// position stays consistent across recursion levels.
type Cursor struct {
	code []Instruction
	pos  int // offset of the next instruction to read
}

// NewCursor creates a cursor positioned before the first instruction.
func NewCursor(code []Instruction) *Cursor {
	return &Cursor{code: code}
}

// Next advances and returns the instruction at the new position.
// The second result is false at end of stream.
func (c *Cursor) Next() (Instruction, bool) {
	if c.pos >= len(c.code) {
		return Instruction{}, false
	}
	ins := c.code[c.pos]
	c.pos++
	return ins, true
}

// Index returns the absolute offset of the current instruction, i.e. the
// one most recently returned by Next. Before the first Next it is 0.
func (c *Cursor) Index() int {
	if c.pos == 0 {
		return 0
	}
	return c.pos - 1
}

// Pos returns the offset of the next instruction Next would return.
func (c *Cursor) Pos() int {
	return c.pos
}

// Len returns the length of the whole stream.
func (c *Cursor) Len() int {
	return len(c.code)
}

// PeekRelative returns the instruction at Index()+delta without moving.
func (c *Cursor) PeekRelative(delta int) (Instruction, bool) {
	return c.PeekAbsolute(c.Index() + delta)
}

// PeekAbsolute returns the instruction at offset without moving.
func (c *Cursor) PeekAbsolute(offset int) (Instruction, bool) {
	if offset < 0 || offset >= len(c.code) {
		return Instruction{}, false
	}
	return c.code[offset], true
}

// Remaining returns the unconsumed suffix of the stream.
func (c *Cursor) Remaining() []Instruction {
	return c.code[c.pos:]
}
