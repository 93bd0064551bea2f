package factory

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lmittmann/w3"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// funcDeploy is the genesis factory entry point. The factory creates
// bytecode ++ initCode with CREATE2 under salt and returns the new address.
var funcDeploy = w3.MustNewFunc("deploy(bytes32,bytes,bytes)", "address")

var errShortCalldata = errors.New("calldata shorter than a salt")

// Factory builds calldata for one deterministic deployment factory and can
// parse it back into salt and creation code
type Factory interface {
	usecase.DeploymentFactory
	Parse(calldata []byte) (domain.Salt, []byte, error)
}

// NewFactory returns the factory selected by the configuration
func NewFactory(cfg *config.RuntimeConfig) Factory {
	if cfg.Factory.Kind == config.FactoryCreate2Proxy {
		return NewCreate2Proxy(cfg.Factory.Address)
	}
	return NewGenesisFactory(cfg.Factory.Address)
}

// GenesisFactory calls deploy(bytes32,bytes,bytes)
type GenesisFactory struct {
	address common.Address
}

// NewGenesisFactory creates a new GenesisFactory
func NewGenesisFactory(address common.Address) *GenesisFactory {
	return &GenesisFactory{address: address}
}

func (f *GenesisFactory) Address() common.Address {
	return f.address
}

// Calldata encodes the deploy call
func (f *GenesisFactory) Calldata(salt domain.Salt, bytecode, initCode []byte) ([]byte, error) {
	data, err := funcDeploy.EncodeArgs(salt.Bytes32(), bytecode, initCode)
	if err != nil {
		return nil, fmt.Errorf("encode deploy: %w", err)
	}
	return data, nil
}

// Parse decodes a deploy call into the salt and the creation code
func (f *GenesisFactory) Parse(calldata []byte) (domain.Salt, []byte, error) {
	var (
		salt     [32]byte
		bytecode []byte
		initCode []byte
	)
	if err := funcDeploy.DecodeArgs(calldata, &salt, &bytecode, &initCode); err != nil {
		return domain.Salt{}, nil, fmt.Errorf("decode deploy: %w", err)
	}
	return domain.Salt(salt), domain.CreationCode(bytecode, initCode), nil
}

// Create2Proxy targets the keyless deterministic deployment proxy, which
// takes the raw salt followed by the creation code as calldata
type Create2Proxy struct {
	address common.Address
}

// NewCreate2Proxy creates a new Create2Proxy
func NewCreate2Proxy(address common.Address) *Create2Proxy {
	return &Create2Proxy{address: address}
}

func (f *Create2Proxy) Address() common.Address {
	return f.address
}

// Calldata returns salt ++ bytecode ++ initCode
func (f *Create2Proxy) Calldata(salt domain.Salt, bytecode, initCode []byte) ([]byte, error) {
	data := make([]byte, 0, common.HashLength+len(bytecode)+len(initCode))
	data = append(data, salt[:]...)
	return append(data, domain.CreationCode(bytecode, initCode)...), nil
}

// Parse splits proxy calldata into the salt and the creation code
func (f *Create2Proxy) Parse(calldata []byte) (domain.Salt, []byte, error) {
	if len(calldata) < common.HashLength {
		return domain.Salt{}, nil, errShortCalldata
	}
	return domain.Salt(common.BytesToHash(calldata[:common.HashLength])),
		append([]byte{}, calldata[common.HashLength:]...), nil
}

var (
	_ Factory = (*GenesisFactory)(nil)
	_ Factory = (*Create2Proxy)(nil)
)
