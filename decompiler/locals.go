package decompiler

import "strconv"

// Local is a parameter or local variable slot.
type Local struct {
	Slot  int
	Name  string
	Type  Type
	Param bool
}

// Locals maps slots to locals. Parameters come first, then the variables
// declared by the function's locals signature.
type Locals struct {
	slots []Local
}

// NewLocals names params arg, arg1, ... and vars var, var1, ...
func NewLocals(params, vars []Type) *Locals {
	l := &Locals{slots: make([]Local, 0, len(params)+len(vars))}
	for i, t := range params {
		l.slots = append(l.slots, Local{Slot: len(l.slots), Name: indexedName("arg", i), Type: t, Param: true})
	}
	for i, t := range vars {
		l.slots = append(l.slots, Local{Slot: len(l.slots), Name: indexedName("var", i), Type: t})
	}
	return l
}

func indexedName(base string, i int) string {
	if i == 0 {
		return base
	}
	return base + strconv.Itoa(i)
}

// Get returns the local at slot.
func (l *Locals) Get(slot int) (Local, bool) {
	if l == nil || slot < 0 || slot >= len(l.slots) {
		return Local{}, false
	}
	return l.slots[slot], true
}

// Params returns the parameter locals.
func (l *Locals) Params() []Local {
	var out []Local
	for _, s := range l.slots {
		if s.Param {
			out = append(out, s)
		}
	}
	return out
}

// Vars returns the non-parameter locals.
func (l *Locals) Vars() []Local {
	var out []Local
	for _, s := range l.slots {
		if !s.Param {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of slots.
func (l *Locals) Len() int {
	return len(l.slots)
}
