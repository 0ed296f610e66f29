package unit

// Pools resolves pool indexes. Every lookup reports false for an index
// outside its pool.
type Pools interface {
	Identifier(IdentifierIndex) (string, bool)
	Address(AddressIndex) (Address, bool)
	Signature(SignatureIndex) (Signature, bool)
	Constant(ConstantPoolIndex) (Constant, bool)
	ModuleHandle(ModuleHandleIndex) (ModuleHandle, bool)
	StructHandle(StructHandleIndex) (StructHandle, bool)
	FunctionHandle(FunctionHandleIndex) (FunctionHandle, bool)
	FieldHandle(FieldHandleIndex) (FieldHandle, bool)
	StructDef(StructDefinitionIndex) (StructDefinition, bool)
}

// Instantiations resolves generic instantiation records.
type Instantiations interface {
	StructDefInstantiation(StructDefInstantiationIndex) (*StructDefInstantiation, bool)
	FieldInstantiation(FieldInstantiationIndex) (*FieldInstantiation, bool)
	FunctionInstantiation(FunctionInstantiationIndex) (*FunctionInstantiation, bool)
}

// Layout exposes the unit's top-level shape.
type Layout interface {
	IsScript() bool
	SelfModuleHandle() (ModuleHandle, bool)
	ModuleHandles() []ModuleHandle
	Identifiers() []string
	StructDefs() []StructDefinition
	FunctionDefs() []FunctionDefinition
	ScriptCode() (*ScriptBody, bool)
}

// Access is the read-only capability the decompiler works against.
type Access interface {
	Pools
	Instantiations
	Layout
}

var _ Access = (*Unit)(nil)

func at[T any](pool []T, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(pool) {
		return zero, false
	}
	return pool[i], true
}

func ptrAt[T any](pool []T, i int) (*T, bool) {
	if i < 0 || i >= len(pool) {
		return nil, false
	}
	return &pool[i], true
}

func (u *Unit) Identifier(i IdentifierIndex) (string, bool) { return at(u.Names, int(i)) }
func (u *Unit) Address(i AddressIndex) (Address, bool) { return at(u.Addresses, int(i)) }
func (u *Unit) Signature(i SignatureIndex) (Signature, bool) {
	return at(u.Signatures, int(i))
}
func (u *Unit) Constant(i ConstantPoolIndex) (Constant, bool) {
	return at(u.ConstantPool, int(i))
}
func (u *Unit) ModuleHandle(i ModuleHandleIndex) (ModuleHandle, bool) {
	return at(u.Modules, int(i))
}
func (u *Unit) StructHandle(i StructHandleIndex) (StructHandle, bool) {
	return at(u.StructHandles, int(i))
}
func (u *Unit) FunctionHandle(i FunctionHandleIndex) (FunctionHandle, bool) {
	return at(u.FunctionHandles, int(i))
}
func (u *Unit) FieldHandle(i FieldHandleIndex) (FieldHandle, bool) {
	return at(u.FieldHandles, int(i))
}
func (u *Unit) StructDef(i StructDefinitionIndex) (StructDefinition, bool) {
	return at(u.Structs, int(i))
}

func (u *Unit) StructDefInstantiation(i StructDefInstantiationIndex) (*StructDefInstantiation, bool) {
	return ptrAt(u.StructDefInstantiations, int(i))
}
func (u *Unit) FieldInstantiation(i FieldInstantiationIndex) (*FieldInstantiation, bool) {
	return ptrAt(u.FieldInstantiations, int(i))
}
func (u *Unit) FunctionInstantiation(i FunctionInstantiationIndex) (*FunctionInstantiation, bool) {
	return ptrAt(u.FunctionInstantiations, int(i))
}

func (u *Unit) IsScript() bool { return u.Script != nil }

func (u *Unit) SelfModuleHandle() (ModuleHandle, bool) {
	if u.IsScript() {
		return ModuleHandle{}, false
	}
	return u.ModuleHandle(u.Self)
}

func (u *Unit) ScriptCode() (*ScriptBody, bool) { return u.Script, u.Script != nil }

func (u *Unit) ModuleHandles() []ModuleHandle { return u.Modules }
func (u *Unit) Identifiers() []string { return u.Names }
func (u *Unit) StructDefs() []StructDefinition { return u.Structs }
func (u *Unit) FunctionDefs() []FunctionDefinition { return u.Functions }
