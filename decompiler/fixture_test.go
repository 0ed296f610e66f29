package decompiler

import (
	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/chazu/movedc/pkg/unit"
)

// Identifier indexes of the fixture unit.
const (
	idCoin = iota
	idSigner
	idBalance
	idValue
	idOwner
	idExtra
	idDeposit
	idAddressOf
	idBox
	idItem
	idSplit
)

// Signature indexes of the fixture unit.
const (
	sigEmpty = iota
	sigU64
	sigSignerRef
	sigAddress
	sigU64Pair
	sigU8
)

func mustAddress(s string) unit.Address {
	a, err := unit.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// fixtureUnit is a small module 0x1::Coin that imports 0x1::Signer.
//
//	struct Balance has key, store { value: u64, owner: address, extra: bool }
//	struct Box<T: copy + drop> { item: T, value: u64, owner: address }
//	public fun deposit(u64, u64): u64 acquires Balance
//	Signer::address_of(&signer): address
//	fun split(u64): (u64, u64)
func fixtureUnit() *unit.Unit {
	u64 := unit.Prim(unit.TokenU64)
	return &unit.Unit{
		Self: 0,
		Modules: []unit.ModuleHandle{
			{Address: 0, Name: idCoin},
			{Address: 0, Name: idSigner},
		},
		StructHandles: []unit.StructHandle{
			{Module: 0, Name: idBalance, Abilities: unit.AbilityKey | unit.AbilityStore},
			{Module: 0, Name: idBox, TypeParameters: []unit.AbilitySet{unit.AbilityCopy | unit.AbilityDrop}},
		},
		FunctionHandles: []unit.FunctionHandle{
			{Module: 0, Name: idDeposit, Parameters: sigU64Pair, Return: sigU64},
			{Module: 1, Name: idAddressOf, Parameters: sigSignerRef, Return: sigAddress},
			{Module: 0, Name: idSplit, Parameters: sigU64, Return: sigU64Pair},
		},
		FieldHandles: []unit.FieldHandle{
			{Owner: 0, Field: 0},
			{Owner: 1, Field: 0},
		},
		StructDefInstantiations: []unit.StructDefInstantiation{{Def: 1, TypeParameters: sigU8}},
		FunctionInstantiations:  []unit.FunctionInstantiation{{Handle: 0, TypeParameters: sigU8}},
		FieldInstantiations:     []unit.FieldInstantiation{{Handle: 1, TypeParameters: sigU8}},
		Signatures: []unit.Signature{
			{},
			{u64},
			{unit.Ref(unit.Prim(unit.TokenSigner), false)},
			{unit.Prim(unit.TokenAddress)},
			{u64, u64},
			{unit.Prim(unit.TokenU8)},
		},
		Names: []string{
			"Coin", "Signer", "Balance", "value", "owner", "extra",
			"deposit", "address_of", "Box", "item", "split",
		},
		Addresses: []unit.Address{mustAddress("0x1")},
		ConstantPool: []unit.Constant{
			unit.EncodeBytes([]byte("hi")),
			unit.EncodeAddress(mustAddress("0x1")),
			{Type: u64, Data: []byte{1, 2}},
		},
		Structs: []unit.StructDefinition{
			{Handle: 0, Fields: []unit.FieldDefinition{
				{Name: idValue, Type: u64},
				{Name: idOwner, Type: unit.Prim(unit.TokenAddress)},
				{Name: idExtra, Type: unit.Prim(unit.TokenBool)},
			}},
			{Handle: 1, Fields: []unit.FieldDefinition{
				{Name: idItem, Type: unit.TypeParam(0)},
				{Name: idValue, Type: u64},
				{Name: idOwner, Type: unit.Prim(unit.TokenAddress)},
			}},
		},
		Functions: []unit.FunctionDefinition{
			{
				Handle:     0,
				Visibility: unit.Public,
				Acquires:   []unit.StructDefinitionIndex{0},
				Code: &unit.CodeUnit{
					Locals: sigU64,
					Code: []bytecode.Instruction{
						bytecode.New(bytecode.OpCopyLoc, 0),
						bytecode.New(bytecode.OpCopyLoc, 1),
						bytecode.Simple(bytecode.OpAdd),
						bytecode.New(bytecode.OpStLoc, 2),
						bytecode.New(bytecode.OpMoveLoc, 2),
						bytecode.Simple(bytecode.OpRet),
					},
				},
			},
			{
				Handle: 2,
				Code: &unit.CodeUnit{
					Locals: sigEmpty,
					Code: []bytecode.Instruction{
						bytecode.New(bytecode.OpCopyLoc, 0),
						bytecode.New(bytecode.OpMoveLoc, 0),
						bytecode.Simple(bytecode.OpRet),
					},
				},
			},
		},
	}
}

// fixtureLookup is the lookup of deposit: arg, arg1 (u64) and var (u64).
func fixtureLookup() *Lookup {
	u := fixtureUnit()
	u64 := Type{Name: "u64"}
	return NewLookup(u, NewImports(u), nil, []Type{u64, u64}, unit.Signature{unit.Prim(unit.TokenU64)})
}

func arg(o bytecode.Opcode, n uint64) bytecode.Instruction {
	return bytecode.New(o, n)
}

func bare(o bytecode.Opcode) bytecode.Instruction {
	return bytecode.Simple(o)
}
