package models

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract: creation bytecode plus ABI
type Artifact struct {
	Name     string   `json:"name"`
	Path     string   `json:"path"`
	Bytecode []byte   `json:"-"`
	ABI      *abi.ABI `json:"-"`
}

// ConstructorTypes returns the constructor input types declared in the ABI,
// or nil when the ABI declares no constructor inputs
func (a *Artifact) ConstructorTypes() []string {
	if a.ABI == nil || len(a.ABI.Constructor.Inputs) == 0 {
		return nil
	}
	types := make([]string, len(a.ABI.Constructor.Inputs))
	for i, in := range a.ABI.Constructor.Inputs {
		types[i] = in.Type.String()
	}
	return types
}
