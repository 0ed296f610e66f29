package decompiler

import (
	"strings"

	"github.com/chazu/movedc/pkg/unit"
)

// TypeKind discriminates Type.
type TypeKind uint8

const (
	TypePrimitive TypeKind = iota
	TypeRef
	TypeRefMut
	TypeVector
	TypeStruct
	TypeGeneric
)

// Type is a resolved, printable type.
type Type struct {
	Kind TypeKind
	// Name is the primitive name, struct name or type parameter name.
	Name string
	// Module is the import the struct is qualified with; empty for local
	// structs.
	Module string
	Elem   *Type
	Args   []Type
}

func (t Type) String() string {
	switch t.Kind {
	case TypeRef:
		return "&" + t.Elem.String()
	case TypeRefMut:
		return "&mut " + t.Elem.String()
	case TypeVector:
		return "vector<" + t.Elem.String() + ">"
	case TypeStruct:
		var sb strings.Builder
		if t.Module != "" {
			sb.WriteString(t.Module)
			sb.WriteString("::")
		}
		sb.WriteString(t.Name)
		writeTypeArgs(&sb, t.Args)
		return sb.String()
	default:
		return t.Name
	}
}

func writeTypeArgs(sb *strings.Builder, args []Type) {
	if len(args) == 0 {
		return
	}
	sb.WriteString("<")
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteString(">")
}

// StructName is a qualified, possibly instantiated struct reference.
type StructName struct {
	Module   string
	Name     string
	TypeArgs []Type
}

func (s StructName) String() string {
	return Type{Kind: TypeStruct, Name: s.Name, Module: s.Module, Args: s.TypeArgs}.String()
}

// typeResolver turns signature tokens into Types.
type typeResolver struct {
	unit     unit.Access
	imports  *Imports
	generics []Generic
}

func (r typeResolver) resolve(tok unit.SignatureToken) Type {
	switch tok.Kind {
	case unit.TokenBool:
		return Type{Name: "bool"}
	case unit.TokenU8:
		return Type{Name: "u8"}
	case unit.TokenU64:
		return Type{Name: "u64"}
	case unit.TokenU128:
		return Type{Name: "u128"}
	case unit.TokenAddress:
		return Type{Name: "address"}
	case unit.TokenSigner:
		return Type{Name: "signer"}
	case unit.TokenVector, unit.TokenReference, unit.TokenMutableReference:
		elem := Type{Name: "?"}
		if tok.Elem != nil {
			elem = r.resolve(*tok.Elem)
		}
		kind := TypeVector
		switch tok.Kind {
		case unit.TokenReference:
			kind = TypeRef
		case unit.TokenMutableReference:
			kind = TypeRefMut
		}
		return Type{Kind: kind, Elem: &elem}
	case unit.TokenStruct, unit.TokenStructInstantiation:
		name := r.structHandleName(tok.Struct)
		return Type{Kind: TypeStruct, Name: name.Name, Module: name.Module, Args: r.resolveAll(tok.Args)}
	case unit.TokenTypeParameter:
		if int(tok.TypeParam) < len(r.generics) {
			return Type{Kind: TypeGeneric, Name: r.generics[tok.TypeParam].Name}
		}
		return Type{Kind: TypeGeneric, Name: "?"}
	}
	return Type{Name: "?"}
}

func (r typeResolver) resolveAll(toks []unit.SignatureToken) []Type {
	if len(toks) == 0 {
		return nil
	}
	out := make([]Type, len(toks))
	for i, t := range toks {
		out[i] = r.resolve(t)
	}
	return out
}

// signature resolves a whole signature by index.
func (r typeResolver) signature(idx unit.SignatureIndex) ([]Type, bool) {
	sig, ok := r.unit.Signature(idx)
	if !ok {
		return nil, false
	}
	return r.resolveAll(sig), true
}

func (r typeResolver) structHandleName(idx unit.StructHandleIndex) StructName {
	h, ok := r.unit.StructHandle(idx)
	if !ok {
		return StructName{Name: "?"}
	}
	name, ok := r.unit.Identifier(h.Name)
	if !ok {
		name = "?"
	}
	return StructName{Module: r.imports.Qualifier(r.unit, h.Module), Name: name}
}
