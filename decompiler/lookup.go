package decompiler

import "github.com/chazu/movedc/pkg/unit"

// Lookup bundles the read-only tables a Translator resolves operands
// against. It is built once per function and shared by nested
// translations.
type Lookup struct {
	Unit     unit.Access
	Imports  *Imports
	Generics []Generic
	Locals   *Locals
}

// NewLookup builds the lookup for one function body. localsSig holds the
// types of the non-parameter locals.
func NewLookup(u unit.Access, imports *Imports, generics []Generic, params []Type, localsSig unit.Signature) *Lookup {
	l := &Lookup{Unit: u, Imports: imports, Generics: generics}
	l.Locals = NewLocals(params, l.types().resolveAll(localsSig))
	return l
}

func (l *Lookup) types() typeResolver {
	return typeResolver{unit: l.Unit, imports: l.Imports, generics: l.Generics}
}

// Local resolves a local slot.
func (l *Lookup) Local(slot uint64) (Local, bool) {
	return l.Locals.Get(int(slot))
}

// TypeArgs resolves the type argument signature of an instantiation.
func (l *Lookup) TypeArgs(idx unit.SignatureIndex) ([]Type, bool) {
	return l.types().signature(idx)
}

// structDef resolves a struct definition to its declared fields and name.
func (l *Lookup) structDef(idx unit.StructDefinitionIndex) (unit.StructDefinition, StructName, bool) {
	def, ok := l.Unit.StructDef(idx)
	if !ok {
		return def, StructName{}, false
	}
	h, ok := l.Unit.StructHandle(def.Handle)
	if !ok {
		return def, StructName{}, false
	}
	name, ok := l.Unit.Identifier(h.Name)
	if !ok {
		return def, StructName{}, false
	}
	return def, StructName{Module: l.Imports.Qualifier(l.Unit, h.Module), Name: name}, true
}

// structInst resolves a struct-def instantiation to its definition and a
// name carrying the type arguments.
func (l *Lookup) structInst(idx unit.StructDefInstantiationIndex) (unit.StructDefinition, StructName, bool) {
	inst, ok := l.Unit.StructDefInstantiation(idx)
	if !ok {
		return unit.StructDefinition{}, StructName{}, false
	}
	def, name, ok := l.structDef(inst.Def)
	if !ok {
		return def, name, false
	}
	name.TypeArgs, ok = l.TypeArgs(inst.TypeParameters)
	return def, name, ok
}

// fieldNames returns the identifiers of def's fields in declaration order.
func (l *Lookup) fieldNames(def unit.StructDefinition) ([]string, bool) {
	names := make([]string, len(def.Fields))
	for i, f := range def.Fields {
		n, ok := l.Unit.Identifier(f.Name)
		if !ok {
			return nil, false
		}
		names[i] = n
	}
	return names, true
}

// callee describes a resolved function handle.
type callee struct {
	module  string
	name    string
	params  int
	returns int
}

func (l *Lookup) function(idx unit.FunctionHandleIndex) (callee, bool) {
	h, ok := l.Unit.FunctionHandle(idx)
	if !ok {
		return callee{}, false
	}
	name, ok := l.Unit.Identifier(h.Name)
	if !ok {
		return callee{}, false
	}
	params, ok := l.Unit.Signature(h.Parameters)
	if !ok {
		return callee{}, false
	}
	rets, ok := l.Unit.Signature(h.Return)
	if !ok {
		return callee{}, false
	}
	return callee{
		module:  l.Imports.Qualifier(l.Unit, h.Module),
		name:    name,
		params:  len(params),
		returns: len(rets),
	}, true
}
