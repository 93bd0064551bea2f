package initcode

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type valueKind int

const (
	kindNumber valueKind = iota + 1
	kindAddress
	kindBool
	kindString
	kindBytes
	kindSeq
	kindTuple
)

// Value is one constructor argument. Exactly one variant is populated; the
// zero Value is invalid and rejected by Encode.
type Value struct {
	kind  valueKind
	num   *big.Int
	addr  common.Address
	flag  bool
	str   string
	raw   []byte
	items []Value
}

// Uint wraps an unsigned integer
func Uint(n uint64) Value {
	return Value{kind: kindNumber, num: new(big.Int).SetUint64(n)}
}

// Int wraps a signed integer
func Int(n int64) Value {
	return Value{kind: kindNumber, num: big.NewInt(n)}
}

// BigInt wraps an arbitrary precision integer. The argument is copied.
func BigInt(n *big.Int) Value {
	return Value{kind: kindNumber, num: new(big.Int).Set(n)}
}

// AddressValue wraps an account or contract address
func AddressValue(a common.Address) Value {
	return Value{kind: kindAddress, addr: a}
}

// BoolValue wraps a boolean
func BoolValue(b bool) Value {
	return Value{kind: kindBool, flag: b}
}

// StringValue wraps a string
func StringValue(s string) Value {
	return Value{kind: kindString, str: s}
}

// BytesValue wraps a byte string for bytes and bytesN. The argument is copied.
func BytesValue(b []byte) Value {
	return Value{kind: kindBytes, raw: bytes.Clone(nonNil(b))}
}

// Seq wraps the elements of a T[] or T[n]
func Seq(items ...Value) Value {
	return Value{kind: kindSeq, items: nonNilValues(items)}
}

// Tuple wraps the fields of a tuple(...)
func Tuple(fields ...Value) Value {
	return Value{kind: kindTuple, items: nonNilValues(fields)}
}

// Encoded encodes args and wraps the result as a bytes value, for payloads
// nested inside a parent argument.
func Encoded(args Args) (Value, error) {
	b, err := args.Encode()
	if err != nil {
		return Value{}, err
	}
	return BytesValue(b), nil
}

// Equal reports whether two values hold the same variant and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindNumber:
		return v.num.Cmp(o.num) == 0
	case kindAddress:
		return v.addr == o.addr
	case kindBool:
		return v.flag == o.flag
	case kindString:
		return v.str == o.str
	case kindBytes:
		return bytes.Equal(v.raw, o.raw)
	case kindSeq, kindTuple:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the value for logs and error messages
func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return v.num.String()
	case kindAddress:
		return v.addr.Hex()
	case kindBool:
		return fmt.Sprintf("%t", v.flag)
	case kindString:
		return fmt.Sprintf("%q", v.str)
	case kindBytes:
		return hexutil.Encode(v.raw)
	case kindSeq, kindTuple:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		if v.kind == kindSeq {
			return "[" + strings.Join(parts, ", ") + "]"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "<invalid>"
	}
}

func (k valueKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindAddress:
		return "address"
	case kindBool:
		return "bool"
	case kindString:
		return "string"
	case kindBytes:
		return "bytes"
	case kindSeq:
		return "sequence"
	case kindTuple:
		return "tuple"
	default:
		return "invalid"
	}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func nonNilValues(v []Value) []Value {
	if v == nil {
		return []Value{}
	}
	return v
}
