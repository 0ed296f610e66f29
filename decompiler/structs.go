package decompiler

import (
	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/chazu/movedc/pkg/unit"
)

// resolveStruct resolves the struct operand of a pack, unpack or storage
// instruction, going through the instantiation pool for generic opcodes.
func (t *Translator) resolveStruct(ins bytecode.Instruction) (unit.StructDefinition, StructName, bool) {
	if ins.Op.IsGeneric() {
		return t.lookup.structInst(unit.StructDefInstantiationIndex(ins.Arg))
	}
	return t.lookup.structDef(unit.StructDefinitionIndex(ins.Arg))
}

func (t *Translator) pack(ins bytecode.Instruction) Exp {
	def, name, ok := t.resolveStruct(ins)
	if !ok {
		return t.fail(ins)
	}
	fields, ok := t.lookup.fieldNames(def)
	if !ok {
		return t.fail(ins)
	}
	values := t.stack.PopN(len(fields))
	p := &Pack{Struct: name, Fields: make([]PackField, len(fields))}
	for i, f := range fields {
		p.Fields[i] = PackField{Name: f, Value: values[i]}
	}
	return t.push(p)
}

func (t *Translator) unpack(ins bytecode.Instruction) Exp {
	def, name, ok := t.resolveStruct(ins)
	if !ok {
		return t.fail(ins)
	}
	fields, ok := t.lookup.fieldNames(def)
	if !ok {
		return t.fail(ins)
	}
	u := &Unpack{Struct: name, Fields: fields, Source: t.stack.Pop()}
	for _, f := range fields {
		t.stack.Push(Node{Offset: t.off, Exp: &Nop{Synthetic: true, Field: f}})
	}
	return u
}

var builtinKinds = map[bytecode.Opcode]BuiltinKind{
	bytecode.OpExists:                 Exists,
	bytecode.OpExistsGeneric:          Exists,
	bytecode.OpMoveFrom:               MoveFrom,
	bytecode.OpMoveFromGeneric:        MoveFrom,
	bytecode.OpMoveTo:                 MoveTo,
	bytecode.OpMoveToGeneric:          MoveTo,
	bytecode.OpImmBorrowGlobal:        BorrowGlobal,
	bytecode.OpImmBorrowGlobalGeneric: BorrowGlobal,
	bytecode.OpMutBorrowGlobal:        BorrowGlobalMut,
	bytecode.OpMutBorrowGlobalGeneric: BorrowGlobalMut,
}

func (t *Translator) builtin(ins bytecode.Instruction) Exp {
	kind := builtinKinds[ins.Op]
	_, name, ok := t.resolveStruct(ins)
	if !ok {
		return t.fail(ins)
	}
	arity := 1
	if kind == MoveTo {
		arity = 2
	}
	b := &Builtin{Kind: kind, Struct: name, Args: t.stack.PopN(arity)}
	if kind == MoveTo {
		return b
	}
	return t.push(b)
}

func (t *Translator) fieldRef(ins bytecode.Instruction) Exp {
	mutable := ins.Op == bytecode.OpMutBorrowField || ins.Op == bytecode.OpMutBorrowFieldGeneric

	var typeArgs []Type
	handleIdx := unit.FieldHandleIndex(ins.Arg)
	if ins.Op.IsGeneric() {
		fi, ok := t.lookup.Unit.FieldInstantiation(unit.FieldInstantiationIndex(ins.Arg))
		if !ok {
			return t.fail(ins)
		}
		handleIdx = fi.Handle
		if typeArgs, ok = t.lookup.TypeArgs(fi.TypeParameters); !ok {
			return t.fail(ins)
		}
	}

	fh, ok := t.lookup.Unit.FieldHandle(handleIdx)
	if !ok {
		return t.fail(ins)
	}
	def, name, ok := t.lookup.structDef(fh.Owner)
	if !ok {
		return t.fail(ins)
	}
	fields, ok := t.lookup.fieldNames(def)
	if !ok || int(fh.Field) >= len(fields) {
		return t.fail(ins)
	}
	name.TypeArgs = typeArgs
	return t.push(&FieldRef{Mutable: mutable, Ref: t.stack.Pop(), Struct: name, Field: fields[fh.Field]})
}

func (t *Translator) call(ins bytecode.Instruction) Exp {
	var typeArgs []Type
	handleIdx := unit.FunctionHandleIndex(ins.Arg)
	if ins.Op == bytecode.OpCallGeneric {
		fi, ok := t.lookup.Unit.FunctionInstantiation(unit.FunctionInstantiationIndex(ins.Arg))
		if !ok {
			return t.fail(ins)
		}
		handleIdx = fi.Handle
		if typeArgs, ok = t.lookup.TypeArgs(fi.TypeParameters); !ok {
			return t.fail(ins)
		}
	}

	fn, ok := t.lookup.function(handleIdx)
	if !ok {
		return t.fail(ins)
	}
	c := &Call{Module: fn.module, Name: fn.name, TypeArgs: typeArgs, Args: t.stack.PopN(fn.params)}
	if fn.returns == 0 {
		return c
	}
	for i := 1; i < fn.returns; i++ {
		t.stack.Push(Node{Offset: t.off, Exp: &Nop{Synthetic: true}})
	}
	return t.push(c)
}
