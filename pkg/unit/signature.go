package unit

import "strings"

// AbilitySet is a bit set of struct abilities.
type AbilitySet uint8

const (
	AbilityCopy AbilitySet = 1 << iota
	AbilityDrop
	AbilityStore
	AbilityKey
)

// Has reports whether every ability in other is present.
func (a AbilitySet) Has(other AbilitySet) bool {
	return a&other == other
}

// Names returns the ability names in declaration order.
func (a AbilitySet) Names() []string {
	var names []string
	for _, ab := range []struct {
		bit  AbilitySet
		name string
	}{
		{AbilityCopy, "copy"},
		{AbilityDrop, "drop"},
		{AbilityKey, "key"},
		{AbilityStore, "store"},
	} {
		if a.Has(ab.bit) {
			names = append(names, ab.name)
		}
	}
	return names
}

func (a AbilitySet) String() string {
	return strings.Join(a.Names(), ", ")
}

// TokenKind discriminates SignatureToken.
type TokenKind uint8

const (
	TokenBool TokenKind = iota + 1
	TokenU8
	TokenU64
	TokenU128
	TokenAddress
	TokenSigner
	TokenVector
	TokenStruct
	TokenStructInstantiation
	TokenReference
	TokenMutableReference
	TokenTypeParameter
)

// SignatureToken is one type in a signature. Elem is set for vectors and
// references, Struct for struct types, Args for struct instantiations and
// TypeParam for type parameters.
type SignatureToken struct {
	Kind      TokenKind         `cbor:"1,keyasint"`
	Struct    StructHandleIndex `cbor:"2,keyasint,omitempty"`
	TypeParam uint16            `cbor:"3,keyasint,omitempty"`
	Elem      *SignatureToken   `cbor:"4,keyasint,omitempty"`
	Args      []SignatureToken  `cbor:"5,keyasint,omitempty"`
}

// Signature is an ordered list of types.
type Signature []SignatureToken

// Convenience constructors.

func Prim(kind TokenKind) SignatureToken { return SignatureToken{Kind: kind} }

func Vector(elem SignatureToken) SignatureToken {
	return SignatureToken{Kind: TokenVector, Elem: &elem}
}

func Ref(elem SignatureToken, mutable bool) SignatureToken {
	kind := TokenReference
	if mutable {
		kind = TokenMutableReference
	}
	return SignatureToken{Kind: kind, Elem: &elem}
}

func StructType(h StructHandleIndex, args ...SignatureToken) SignatureToken {
	if len(args) == 0 {
		return SignatureToken{Kind: TokenStruct, Struct: h}
	}
	return SignatureToken{Kind: TokenStructInstantiation, Struct: h, Args: args}
}

func TypeParam(idx uint16) SignatureToken {
	return SignatureToken{Kind: TokenTypeParameter, TypeParam: idx}
}
