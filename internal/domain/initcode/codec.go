package initcode

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrArityMismatch is returned when the schema and value list differ in length
var ErrArityMismatch = errors.New("type/value arity mismatch")

var bigIntType = reflect.TypeOf(new(big.Int))

// Args pairs a type schema with its values
type Args struct {
	Types  []TypeTag
	Values []Value
}

// NewArgs builds Args from Solidity type strings and matching values
func NewArgs(types []string, values ...Value) (Args, error) {
	tags, err := ParseTypes(types...)
	if err != nil {
		return Args{}, err
	}
	return Args{Types: tags, Values: values}, nil
}

// Empty is the argument list of a contract without init parameters
func Empty() Args {
	return Args{}
}

// Encode encodes the args with Encode
func (a Args) Encode() ([]byte, error) {
	return Encode(a.Types, a.Values)
}

// Schema returns the canonical type strings
func (a Args) Schema() []string {
	out := make([]string, len(a.Types))
	for i, t := range a.Types {
		out[i] = t.String()
	}
	return out
}

// Encode ABI-encodes values under the paired types. The output depends only
// on the inputs. An empty schema yields a zero-length, non-nil slice.
func Encode(types []TypeTag, values []Value) ([]byte, error) {
	if len(types) != len(values) {
		return nil, fmt.Errorf("%w: %d types, %d values", ErrArityMismatch, len(types), len(values))
	}
	if len(types) == 0 {
		return []byte{}, nil
	}

	args, err := arguments(types)
	if err != nil {
		return nil, err
	}

	goValues := make([]any, len(values))
	for i, v := range values {
		rv, err := toGo(args[i].Type, v)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, types[i], err)
		}
		goValues[i] = rv.Interface()
	}

	out, err := args.Pack(goValues...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack arguments: %w", err)
	}
	return out, nil
}

// Decode reverses Encode for the given schema
func Decode(data []byte, types []TypeTag) ([]Value, error) {
	if len(types) == 0 {
		if len(data) != 0 {
			return nil, fmt.Errorf("%w: %d trailing bytes for empty schema", ErrArityMismatch, len(data))
		}
		return []Value{}, nil
	}

	args, err := arguments(types)
	if err != nil {
		return nil, err
	}

	raw, err := args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack arguments: %w", err)
	}

	out := make([]Value, len(raw))
	for i, r := range raw {
		v, err := fromGo(args[i].Type, reflect.ValueOf(r))
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, types[i], err)
		}
		out[i] = v
	}
	return out, nil
}

func arguments(types []TypeTag) (abi.Arguments, error) {
	args := make(abi.Arguments, len(types))
	for i, t := range types {
		at, err := t.abiType()
		if err != nil {
			return nil, fmt.Errorf("invalid type %s: %w", t, err)
		}
		args[i] = abi.Argument{Type: at}
	}
	return args, nil
}

// toGo converts a Value into the Go representation the abi packer expects for t
func toGo(t abi.Type, v Value) (reflect.Value, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		if v.kind != kindNumber {
			return reflect.Value{}, mismatch(t, v)
		}
		if err := checkRange(t, v.num); err != nil {
			return reflect.Value{}, err
		}
		goType := t.GetType()
		if goType == bigIntType {
			return reflect.ValueOf(new(big.Int).Set(v.num)), nil
		}
		if t.T == abi.UintTy {
			return reflect.ValueOf(v.num.Uint64()).Convert(goType), nil
		}
		return reflect.ValueOf(v.num.Int64()).Convert(goType), nil

	case abi.AddressTy:
		if v.kind != kindAddress {
			return reflect.Value{}, mismatch(t, v)
		}
		return reflect.ValueOf(v.addr), nil

	case abi.BoolTy:
		if v.kind != kindBool {
			return reflect.Value{}, mismatch(t, v)
		}
		return reflect.ValueOf(v.flag), nil

	case abi.StringTy:
		if v.kind != kindString {
			return reflect.Value{}, mismatch(t, v)
		}
		return reflect.ValueOf(v.str), nil

	case abi.BytesTy:
		if v.kind != kindBytes {
			return reflect.Value{}, mismatch(t, v)
		}
		return reflect.ValueOf(append([]byte{}, v.raw...)), nil

	case abi.FixedBytesTy:
		if v.kind != kindBytes {
			return reflect.Value{}, mismatch(t, v)
		}
		if len(v.raw) != t.Size {
			return reflect.Value{}, fmt.Errorf("%s needs %d bytes, got %d", t, t.Size, len(v.raw))
		}
		arr := reflect.New(t.GetType()).Elem()
		for i, b := range v.raw {
			arr.Index(i).SetUint(uint64(b))
		}
		return arr, nil

	case abi.SliceTy:
		if v.kind != kindSeq {
			return reflect.Value{}, mismatch(t, v)
		}
		s := reflect.MakeSlice(t.GetType(), len(v.items), len(v.items))
		for i, item := range v.items {
			ev, err := toGo(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			s.Index(i).Set(ev)
		}
		return s, nil

	case abi.ArrayTy:
		if v.kind != kindSeq {
			return reflect.Value{}, mismatch(t, v)
		}
		if len(v.items) != t.Size {
			return reflect.Value{}, fmt.Errorf("%s needs %d elements, got %d", t, t.Size, len(v.items))
		}
		arr := reflect.New(t.GetType()).Elem()
		for i, item := range v.items {
			ev, err := toGo(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			arr.Index(i).Set(ev)
		}
		return arr, nil

	case abi.TupleTy:
		if v.kind != kindTuple {
			return reflect.Value{}, mismatch(t, v)
		}
		if len(v.items) != len(t.TupleElems) {
			return reflect.Value{}, fmt.Errorf("%w: tuple has %d fields, got %d values",
				ErrArityMismatch, len(t.TupleElems), len(v.items))
		}
		st := reflect.New(t.TupleType).Elem()
		for i, item := range v.items {
			fv, err := toGo(*t.TupleElems[i], item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %d: %w", i, err)
			}
			st.Field(i).Set(fv)
		}
		return st, nil

	default:
		return reflect.Value{}, fmt.Errorf("unsupported abi type %s", t)
	}
}

// fromGo converts an unpacked Go value back into a Value
func fromGo(t abi.Type, rv reflect.Value) (Value, error) {
	switch t.T {
	case abi.UintTy, abi.IntTy:
		switch rv.Kind() {
		case reflect.Ptr:
			n, ok := rv.Interface().(*big.Int)
			if !ok {
				return Value{}, fmt.Errorf("unexpected %s for %s", rv.Type(), t)
			}
			return BigInt(n), nil
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return Uint(rv.Uint()), nil
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return Int(rv.Int()), nil
		}
	case abi.AddressTy:
		if a, ok := rv.Interface().(common.Address); ok {
			return AddressValue(a), nil
		}
	case abi.BoolTy:
		return BoolValue(rv.Bool()), nil
	case abi.StringTy:
		return StringValue(rv.String()), nil
	case abi.BytesTy:
		return BytesValue(rv.Bytes()), nil
	case abi.FixedBytesTy:
		b := make([]byte, rv.Len())
		for i := range b {
			b[i] = byte(rv.Index(i).Uint())
		}
		return BytesValue(b), nil
	case abi.SliceTy, abi.ArrayTy:
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := fromGo(*t.Elem, rv.Index(i))
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = item
		}
		return Seq(items...), nil
	case abi.TupleTy:
		fields := make([]Value, len(t.TupleElems))
		for i := range fields {
			f, err := fromGo(*t.TupleElems[i], rv.Field(i))
			if err != nil {
				return Value{}, fmt.Errorf("field %d: %w", i, err)
			}
			fields[i] = f
		}
		return Tuple(fields...), nil
	}
	return Value{}, fmt.Errorf("unexpected %s for %s", rv.Type(), t)
}

func checkRange(t abi.Type, n *big.Int) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return fmt.Errorf("%s does not fit in %s", n, t)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	lowest := new(big.Int).Neg(limit)
	if n.Cmp(lowest) < 0 || n.Cmp(limit) >= 0 {
		return fmt.Errorf("%s does not fit in %s", n, t)
	}
	return nil
}

func mismatch(t abi.Type, v Value) error {
	return fmt.Errorf("cannot encode %s value as %s", v.kind, t)
}
