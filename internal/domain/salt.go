package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Salt is the 32-byte value fed to CREATE2. It is constant for a deployment campaign.
type Salt common.Hash

// Hex returns the 0x-prefixed hex form of the salt
func (s Salt) Hex() string {
	return common.Hash(s).Hex()
}

// Bytes32 returns the salt as a fixed array for ABI packing
func (s Salt) Bytes32() [32]byte {
	return [32]byte(s)
}

// ParseSalt accepts either 0x followed by exactly 64 hex characters, or a
// non-negative decimal integer which is left-padded to 32 bytes.
func ParseSalt(raw string) (Salt, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Salt{}, fmt.Errorf("%w: empty", ErrInvalidSalt)
	}

	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		if len(raw)-2 != 2*common.HashLength {
			return Salt{}, fmt.Errorf("%w: expected 64 hex characters, got %d", ErrInvalidSalt, len(raw)-2)
		}
		b, err := hexutil.Decode("0x" + raw[2:])
		if err != nil {
			return Salt{}, fmt.Errorf("%w: %v", ErrInvalidSalt, err)
		}
		return Salt(common.BytesToHash(b)), nil
	}

	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || n.Sign() < 0 {
		return Salt{}, fmt.Errorf("%w: %q is neither 0x-prefixed bytes32 nor a decimal integer", ErrInvalidSalt, raw)
	}
	if n.BitLen() > 256 {
		return Salt{}, fmt.Errorf("%w: %q overflows 32 bytes", ErrInvalidSalt, raw)
	}
	return Salt(common.BigToHash(n)), nil
}
