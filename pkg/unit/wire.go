package unit

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ErrFormat reports a malformed unit container or constant.
var ErrFormat = errors.New("unit: malformed data")

// cborEncMode is canonical so that equal units encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("unit: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Unit to canonical CBOR.
func Marshal(u *Unit) ([]byte, error) {
	return cborEncMode.Marshal(u)
}

// Unmarshal deserializes a Unit from CBOR bytes.
func Unmarshal(data []byte) (*Unit, error) {
	var u Unit
	if err := cbor.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("%w: unmarshal unit: %v", ErrFormat, err)
	}
	return &u, nil
}

// ReadFile loads a Unit from a CBOR file.
func ReadFile(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	u, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// WriteFile stores a Unit as a CBOR file.
func WriteFile(path string, u *Unit) error {
	data, err := Marshal(u)
	if err != nil {
		return fmt.Errorf("unit: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// Hash returns the SHA-256 of the unit's canonical encoding.
func Hash(u *Unit) ([32]byte, error) {
	data, err := Marshal(u)
	if err != nil {
		return [32]byte{}, fmt.Errorf("unit: hash: %w", err)
	}
	return sha256.Sum256(data), nil
}
