package initcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"uint256", "uint256"},
		{"uint", "uint256"},
		{"int", "int256"},
		{"uint16", "uint16"},
		{"int8", "int8"},
		{"address", "address"},
		{"bool", "bool"},
		{"string", "string"},
		{"bytes", "bytes"},
		{"bytes32", "bytes32"},
		{"bytes[]", "bytes[]"},
		{"uint8[3]", "uint8[3]"},
		{"address[2][]", "address[2][]"},
		{"tuple(address,uint64)", "tuple(address,uint64)"},
		{"(address, uint64)", "tuple(address,uint64)"},
		{"tuple(address,tuple(string,bytes[]))[]", "tuple(address,tuple(string,bytes[]))[]"},
		{" tuple( bool , string ) ", "tuple(bool,string)"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"uint7",
		"uint264",
		"int0",
		"bytes0",
		"bytes33",
		"float",
		"uint256[",
		"uint256[0]",
		"uint256[-1]",
		"tuple(address",
		"tuple(address;bool)",
		"address extra",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseType(in)
			assert.Error(t, err)
		})
	}
}

func TestTypeConstructors(t *testing.T) {
	tag := SliceOf(TupleOf(Address, Uint16, ArrayOf(Bytes, 2)))
	assert.Equal(t, "tuple(address,uint16,bytes[2])[]", tag.String())

	parsed, err := ParseType(tag.String())
	require.NoError(t, err)
	assert.Equal(t, tag, parsed)
}

func TestArgsSchema(t *testing.T) {
	args, err := NewArgs([]string{"uint", "(address,bool)"}, Uint(1), Tuple(AddressValue(deployer), BoolValue(true)))
	require.NoError(t, err)
	assert.Equal(t, []string{"uint256", "tuple(address,bool)"}, args.Schema())

	_, err = NewArgs([]string{"nope"})
	assert.Error(t, err)
}
