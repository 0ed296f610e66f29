package unit

import (
	"fmt"

	"github.com/fardream/go-bcs/bcs"
	"github.com/holiman/uint256"
)

// Constant is a BCS-encoded value in the constant pool.
type Constant struct {
	Type SignatureToken `cbor:"1,keyasint"`
	Data []byte         `cbor:"2,keyasint"`
}

// u128 is the BCS layout of a u128: low word first.
type u128 struct {
	Lo, Hi uint64
}

// Decode returns the constant's value as one of uint8, uint64,
// *uint256.Int (u128), bool, Address or []byte (vector<u8>). Any other
// type, or trailing bytes, yields an error wrapping ErrFormat.
func (c Constant) Decode() (any, error) {
	switch c.Type.Kind {
	case TokenU8:
		return decodeAs[uint8](c)
	case TokenU64:
		return decodeAs[uint64](c)
	case TokenBool:
		return decodeAs[bool](c)
	case TokenU128:
		var v u128
		if err := c.unmarshal(&v); err != nil {
			return nil, err
		}
		return &uint256.Int{v.Lo, v.Hi, 0, 0}, nil
	case TokenAddress:
		return decodeAs[Address](c)
	case TokenVector:
		if c.Type.Elem == nil || c.Type.Elem.Kind != TokenU8 {
			return nil, fmt.Errorf("%w: unsupported constant vector element", ErrFormat)
		}
		return decodeAs[[]byte](c)
	}
	return nil, fmt.Errorf("%w: unsupported constant type %d", ErrFormat, c.Type.Kind)
}

func decodeAs[T any](c Constant) (any, error) {
	var v T
	if err := c.unmarshal(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (c Constant) unmarshal(v any) error {
	n, err := bcs.Unmarshal(c.Data, v)
	if err != nil {
		return fmt.Errorf("%w: constant: %v", ErrFormat, err)
	}
	if n != len(c.Data) {
		return fmt.Errorf("%w: %d trailing bytes in constant", ErrFormat, len(c.Data)-n)
	}
	return nil
}

// EncodeBytes returns a vector<u8> constant holding b.
func EncodeBytes(b []byte) Constant {
	return Constant{Type: Vector(Prim(TokenU8)), Data: mustMarshal(b)}
}

// EncodeAddress returns an address constant.
func EncodeAddress(a Address) Constant {
	return Constant{Type: Prim(TokenAddress), Data: mustMarshal(a)}
}

func mustMarshal(v any) []byte {
	data, err := bcs.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("unit: encoding %T: %v", v, err))
	}
	return data
}
