package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// CreationCode concatenates contract bytecode and encoded init code into a new slice.
// Neither input is modified.
func CreationCode(bytecode, initCode []byte) []byte {
	code := make([]byte, 0, len(bytecode)+len(initCode))
	code = append(code, bytecode...)
	return append(code, initCode...)
}

// DeriveAddress computes the EIP-1014 address a factory produces with CREATE2:
// keccak256(0xff ++ factory ++ salt ++ keccak256(bytecode ++ initCode))[12:]
func DeriveAddress(factory common.Address, salt Salt, bytecode, initCode []byte) common.Address {
	codeHash := crypto.Keccak256(CreationCode(bytecode, initCode))
	return crypto.CreateAddress2(factory, salt, codeHash)
}
