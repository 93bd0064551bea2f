package initcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// TypeKind identifies the shape of a Solidity type
type TypeKind int

const (
	TypeUint TypeKind = iota
	TypeInt
	TypeAddress
	TypeBool
	TypeString
	TypeBytes
	TypeFixedBytes
	TypeSlice
	TypeArray
	TypeTuple
)

// TypeTag is a parsed Solidity ABI type. Size holds the bit width for integers,
// the byte length for bytesN and the element count for fixed arrays.
type TypeTag struct {
	Kind   TypeKind
	Size   int
	Elem   *TypeTag
	Fields []TypeTag
}

// Common tags
var (
	Uint256 = TypeTag{Kind: TypeUint, Size: 256}
	Uint64  = TypeTag{Kind: TypeUint, Size: 64}
	Uint16  = TypeTag{Kind: TypeUint, Size: 16}
	Address = TypeTag{Kind: TypeAddress}
	Bool    = TypeTag{Kind: TypeBool}
	String  = TypeTag{Kind: TypeString}
	Bytes   = TypeTag{Kind: TypeBytes}
)

// SliceOf returns the dynamic array type T[]
func SliceOf(elem TypeTag) TypeTag {
	return TypeTag{Kind: TypeSlice, Elem: &elem}
}

// ArrayOf returns the fixed array type T[n]
func ArrayOf(elem TypeTag, n int) TypeTag {
	return TypeTag{Kind: TypeArray, Size: n, Elem: &elem}
}

// TupleOf returns tuple(fields...)
func TupleOf(fields ...TypeTag) TypeTag {
	return TypeTag{Kind: TypeTuple, Fields: fields}
}

// String renders the canonical Solidity spelling, e.g. tuple(address,uint64)[]
func (t TypeTag) String() string {
	switch t.Kind {
	case TypeUint:
		return "uint" + strconv.Itoa(t.Size)
	case TypeInt:
		return "int" + strconv.Itoa(t.Size)
	case TypeAddress:
		return "address"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeFixedBytes:
		return "bytes" + strconv.Itoa(t.Size)
	case TypeSlice:
		return t.Elem.String() + "[]"
	case TypeArray:
		return t.Elem.String() + "[" + strconv.Itoa(t.Size) + "]"
	case TypeTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "tuple(" + strings.Join(parts, ",") + ")"
	default:
		return fmt.Sprintf("unknown(%d)", t.Kind)
	}
}

// abiType builds the go-ethereum representation. Tuple fields are named f0, f1, ...
// so that the packer can map them onto generated struct fields.
func (t TypeTag) abiType() (abi.Type, error) {
	m := t.marshaling("")
	return abi.NewType(m.Type, "", m.Components)
}

func (t TypeTag) marshaling(name string) abi.ArgumentMarshaling {
	inner, suffix := t.innermost()
	if inner.Kind != TypeTuple {
		return abi.ArgumentMarshaling{Name: name, Type: t.String()}
	}

	components := make([]abi.ArgumentMarshaling, len(inner.Fields))
	for i, f := range inner.Fields {
		components[i] = f.marshaling(fmt.Sprintf("f%d", i))
	}
	return abi.ArgumentMarshaling{Name: name, Type: "tuple" + suffix, Components: components}
}

// innermost strips array wrappers and returns the element type with the
// array suffix that was removed.
func (t TypeTag) innermost() (TypeTag, string) {
	switch t.Kind {
	case TypeSlice:
		inner, suffix := t.Elem.innermost()
		return inner, suffix + "[]"
	case TypeArray:
		inner, suffix := t.Elem.innermost()
		return inner, suffix + "[" + strconv.Itoa(t.Size) + "]"
	default:
		return t, ""
	}
}

// ParseType parses a Solidity type string such as "uint256", "bytes[]" or
// "tuple(address,string,bytes[])". A bare "(...)" is accepted as a tuple.
func ParseType(s string) (TypeTag, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return TypeTag{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeTag{}, fmt.Errorf("unexpected %q at offset %d in type %q", p.src[p.pos:], p.pos, s)
	}
	return t, nil
}

// ParseTypes parses each string with ParseType
func ParseTypes(specs ...string) ([]TypeTag, error) {
	out := make([]TypeTag, 0, len(specs))
	for _, s := range specs {
		t, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// MustParseTypes is ParseTypes for package-level schemas known to be valid
func MustParseTypes(specs ...string) []TypeTag {
	out, err := ParseTypes(specs...)
	if err != nil {
		panic(err)
	}
	return out
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) parseType() (TypeTag, error) {
	p.skipSpace()

	var base TypeTag
	var err error
	if strings.HasPrefix(p.src[p.pos:], "tuple(") || strings.HasPrefix(p.src[p.pos:], "(") {
		base, err = p.parseTuple()
	} else {
		base, err = p.parseElementary()
	}
	if err != nil {
		return TypeTag{}, err
	}

	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '[' {
			return base, nil
		}
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return TypeTag{}, fmt.Errorf("unterminated array suffix in type %q", p.src)
		}
		inside := strings.TrimSpace(p.src[p.pos+1 : p.pos+end])
		p.pos += end + 1
		if inside == "" {
			base = SliceOf(base)
			continue
		}
		n, err := strconv.Atoi(inside)
		if err != nil || n <= 0 {
			return TypeTag{}, fmt.Errorf("invalid array length %q in type %q", inside, p.src)
		}
		base = ArrayOf(base, n)
	}
}

func (p *typeParser) parseTuple() (TypeTag, error) {
	p.pos += strings.IndexByte(p.src[p.pos:], '(') + 1

	var fields []TypeTag
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return TupleOf(fields...), nil
	}

	for {
		f, err := p.parseType()
		if err != nil {
			return TypeTag{}, err
		}
		fields = append(fields, f)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return TypeTag{}, fmt.Errorf("unterminated tuple in type %q", p.src)
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return TupleOf(fields...), nil
		default:
			return TypeTag{}, fmt.Errorf("unexpected %q at offset %d in type %q", p.src[p.pos], p.pos, p.src)
		}
	}
}

func (p *typeParser) parseElementary() (TypeTag, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		p.pos++
	}
	ident := p.src[start:p.pos]
	if ident == "" {
		return TypeTag{}, fmt.Errorf("expected type name at offset %d in %q", start, p.src)
	}

	switch {
	case ident == "address":
		return Address, nil
	case ident == "bool":
		return Bool, nil
	case ident == "string":
		return String, nil
	case ident == "bytes":
		return Bytes, nil
	case ident == "uint":
		return Uint256, nil
	case ident == "int":
		return TypeTag{Kind: TypeInt, Size: 256}, nil
	case strings.HasPrefix(ident, "uint"):
		n, err := intWidth(ident[4:])
		if err != nil {
			return TypeTag{}, fmt.Errorf("invalid type %q: %w", ident, err)
		}
		return TypeTag{Kind: TypeUint, Size: n}, nil
	case strings.HasPrefix(ident, "int"):
		n, err := intWidth(ident[3:])
		if err != nil {
			return TypeTag{}, fmt.Errorf("invalid type %q: %w", ident, err)
		}
		return TypeTag{Kind: TypeInt, Size: n}, nil
	case strings.HasPrefix(ident, "bytes"):
		n, err := strconv.Atoi(ident[5:])
		if err != nil || n < 1 || n > 32 {
			return TypeTag{}, fmt.Errorf("invalid type %q: byte length must be 1..32", ident)
		}
		return TypeTag{Kind: TypeFixedBytes, Size: n}, nil
	default:
		return TypeTag{}, fmt.Errorf("unsupported type %q", ident)
	}
}

func intWidth(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 8 || n > 256 || n%8 != 0 {
		return 0, fmt.Errorf("bit width must be a multiple of 8 in 8..256")
	}
	return n, nil
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
