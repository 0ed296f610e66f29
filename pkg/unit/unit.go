// Package unit models a compiled Move-style unit (module or script) as a set
// of typed, index-addressed pools. Everything the decompiler needs to turn
// an instruction operand into a symbol is reachable from here.
//
// A Unit is normally produced by an upstream deserializer; this package
// carries it between tools as canonical CBOR (see Marshal and ReadFile).
package unit

import "github.com/chazu/movedc/pkg/bytecode"

// Pool indexes. Every operand that refers to a pool is one of these.
type (
	ModuleHandleIndex           uint16
	StructHandleIndex           uint16
	FunctionHandleIndex         uint16
	FieldHandleIndex            uint16
	IdentifierIndex             uint16
	AddressIndex                uint16
	SignatureIndex              uint16
	ConstantPoolIndex           uint16
	StructDefinitionIndex       uint16
	StructDefInstantiationIndex uint16
	FunctionInstantiationIndex  uint16
	FieldInstantiationIndex     uint16
)

// ModuleHandle names a module by address and identifier.
type ModuleHandle struct {
	Address AddressIndex    `cbor:"1,keyasint"`
	Name    IdentifierIndex `cbor:"2,keyasint"`
}

// StructHandle is the pool-interned identity of a struct type, local or
// imported.
type StructHandle struct {
	Module         ModuleHandleIndex `cbor:"1,keyasint"`
	Name           IdentifierIndex   `cbor:"2,keyasint"`
	Abilities      AbilitySet        `cbor:"3,keyasint,omitempty"`
	TypeParameters []AbilitySet      `cbor:"4,keyasint,omitempty"`
}

// FunctionHandle is the pool-interned identity of a function.
type FunctionHandle struct {
	Module         ModuleHandleIndex `cbor:"1,keyasint"`
	Name           IdentifierIndex   `cbor:"2,keyasint"`
	Parameters     SignatureIndex    `cbor:"3,keyasint"`
	Return         SignatureIndex    `cbor:"4,keyasint"`
	TypeParameters []AbilitySet      `cbor:"5,keyasint,omitempty"`
}

// FieldHandle points at one field of a struct defined in this unit.
type FieldHandle struct {
	Owner StructDefinitionIndex `cbor:"1,keyasint"`
	Field uint16                `cbor:"2,keyasint"`
}

// StructDefInstantiation binds a generic struct definition to type arguments.
type StructDefInstantiation struct {
	Def            StructDefinitionIndex `cbor:"1,keyasint"`
	TypeParameters SignatureIndex        `cbor:"2,keyasint"`
}

// FunctionInstantiation binds a generic function handle to type arguments.
type FunctionInstantiation struct {
	Handle         FunctionHandleIndex `cbor:"1,keyasint"`
	TypeParameters SignatureIndex      `cbor:"2,keyasint"`
}

// FieldInstantiation binds a field of a generic struct to type arguments.
type FieldInstantiation struct {
	Handle         FieldHandleIndex `cbor:"1,keyasint"`
	TypeParameters SignatureIndex   `cbor:"2,keyasint"`
}

// FieldDefinition is one declared struct field.
type FieldDefinition struct {
	Name IdentifierIndex `cbor:"1,keyasint"`
	Type SignatureToken  `cbor:"2,keyasint"`
}

// StructDefinition is a struct declared in this unit. Native structs have
// no fields.
type StructDefinition struct {
	Handle StructHandleIndex `cbor:"1,keyasint"`
	Native bool              `cbor:"2,keyasint,omitempty"`
	Fields []FieldDefinition `cbor:"3,keyasint,omitempty"`
}

// Visibility of a function definition.
type Visibility uint8

const (
	Private Visibility = iota
	Public
	Script
	Friend
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "public"
	case Script:
		return "public(script)"
	case Friend:
		return "public(friend)"
	default:
		return ""
	}
}

// CodeUnit is a function body: its locals signature (excluding parameters)
// and instruction stream.
type CodeUnit struct {
	Locals SignatureIndex         `cbor:"1,keyasint"`
	Code   []bytecode.Instruction `cbor:"2,keyasint"`
}

// FunctionDefinition is a function declared in this unit. Native functions
// carry no Code.
type FunctionDefinition struct {
	Handle     FunctionHandleIndex     `cbor:"1,keyasint"`
	Visibility Visibility              `cbor:"2,keyasint,omitempty"`
	Entry      bool                    `cbor:"3,keyasint,omitempty"`
	Acquires   []StructDefinitionIndex `cbor:"4,keyasint,omitempty"`
	Code       *CodeUnit               `cbor:"5,keyasint,omitempty"`
}

// IsNative reports whether the function has no bytecode body.
func (f *FunctionDefinition) IsNative() bool {
	return f.Code == nil
}

// ScriptBody is the entry point of a script unit.
type ScriptBody struct {
	TypeParameters []AbilitySet   `cbor:"1,keyasint,omitempty"`
	Parameters     SignatureIndex `cbor:"2,keyasint"`
	Code           CodeUnit       `cbor:"3,keyasint"`
}

// Unit is a compiled module or script. A unit is a script when Script is
// set; Self is ignored in that case. The pool fields are exported for the
// codec; lookups go through the Access methods.
type Unit struct {
	Version uint32            `cbor:"1,keyasint"`
	Self    ModuleHandleIndex `cbor:"2,keyasint"`
	Script  *ScriptBody       `cbor:"3,keyasint,omitempty"`

	Modules         []ModuleHandle   `cbor:"4,keyasint,omitempty"`
	StructHandles   []StructHandle   `cbor:"5,keyasint,omitempty"`
	FunctionHandles []FunctionHandle `cbor:"6,keyasint,omitempty"`
	FieldHandles    []FieldHandle    `cbor:"7,keyasint,omitempty"`

	StructDefInstantiations []StructDefInstantiation `cbor:"8,keyasint,omitempty"`
	FunctionInstantiations  []FunctionInstantiation  `cbor:"9,keyasint,omitempty"`
	FieldInstantiations     []FieldInstantiation     `cbor:"10,keyasint,omitempty"`

	Signatures   []Signature `cbor:"11,keyasint,omitempty"`
	Names        []string    `cbor:"12,keyasint,omitempty"`
	Addresses    []Address   `cbor:"13,keyasint,omitempty"`
	ConstantPool []Constant  `cbor:"14,keyasint,omitempty"`

	Structs   []StructDefinition   `cbor:"15,keyasint,omitempty"`
	Functions []FunctionDefinition `cbor:"16,keyasint,omitempty"`
}
