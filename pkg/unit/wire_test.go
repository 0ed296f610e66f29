package unit

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/chazu/movedc/pkg/bytecode"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/holiman/uint256"
)

func sampleUnit() *Unit {
	return &Unit{
		Version: 2,
		Modules: []ModuleHandle{{Address: 0, Name: 0}},
		StructHandles: []StructHandle{
			{Module: 0, Name: 1, Abilities: AbilityKey | AbilityStore},
		},
		FunctionHandles: []FunctionHandle{
			{Module: 0, Name: 2, Parameters: 0, Return: 1},
		},
		Signatures: []Signature{
			{Prim(TokenU64)},
			{},
		},
		Names:        []string{"Coin", "Balance", "deposit", "value"},
		Addresses:    []Address{{AddressLength - 1: 1}},
		ConstantPool: []Constant{EncodeBytes([]byte("hi"))},
		Structs: []StructDefinition{
			{Handle: 0, Fields: []FieldDefinition{{Name: 3, Type: Prim(TokenU64)}}},
		},
		Functions: []FunctionDefinition{
			{
				Handle:     0,
				Visibility: Public,
				Code: &CodeUnit{
					Locals: 1,
					Code: []bytecode.Instruction{
						bytecode.LdU128(uint256.NewInt(7)),
						bytecode.Simple(bytecode.OpPop),
						bytecode.Simple(bytecode.OpRet),
					},
				},
			},
		},
	}
}

func TestUnit_CBORRoundTrip(t *testing.T) {
	u := sampleUnit()

	data, err := Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if diff := cmp.Diff(u, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0x00, 0x13})
	if !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(sampleUnit())
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := Hash(sampleUnit())
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Error("equal units hash differently")
	}

	other := sampleUnit()
	other.Names[2] = "withdraw"
	h3, _ := Hash(other)
	if h1 == h3 {
		t.Error("different units hash the same")
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coin.mv")
	if err := WriteFile(path, sampleUnit()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if name, _ := got.Identifier(2); name != "deposit" {
		t.Errorf("Identifier(2) = %q, want deposit", name)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.mv")); err == nil {
		t.Error("expected error for missing file")
	}
}
