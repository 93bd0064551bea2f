package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// AddressDeriver computes the future address of a contract as the configured
// factory will compute it on-chain
type AddressDeriver struct {
	factory  DeploymentFactory
	codeHash *common.Hash
}

// NewAddressDeriver creates a new AddressDeriver
func NewAddressDeriver(cfg *config.RuntimeConfig, factory DeploymentFactory) *AddressDeriver {
	return &AddressDeriver{
		factory:  factory,
		codeHash: cfg.Factory.CodeHash,
	}
}

// Factory returns the deploying factory address
func (d *AddressDeriver) Factory() common.Address {
	return d.factory.Address()
}

// Ready reports a missing factory address as a configuration error
func (d *AddressDeriver) Ready() error {
	if d.factory.Address() == (common.Address{}) {
		return domain.NewConfigurationError("factory.address", "no factory address configured")
	}
	return nil
}

// DeriveAddress returns the CREATE2 address of artifact deployed with initCode under salt.
// It never caches: every call recomputes from its inputs.
func (d *AddressDeriver) DeriveAddress(salt domain.Salt, artifact *models.Artifact, initCode []byte) common.Address {
	return domain.DeriveAddress(d.factory.Address(), salt, artifact.Bytecode, initCode)
}

// VerifyFactory checks that the factory is deployed on the session's network and,
// when a code hash is configured, that its runtime code matches it. A factory
// that differs from the expected one would place contracts elsewhere.
func (d *AddressDeriver) VerifyFactory(ctx context.Context, session *Session) error {
	addr := d.factory.Address()
	code, err := session.Ledger.CodeAt(ctx, addr, nil)
	if err != nil {
		return &domain.ProbeError{Network: session.Network.Name, Address: addr, Err: err}
	}
	if len(code) == 0 {
		return domain.NewConfigurationError("factory.address",
			"no factory deployed at %s on %s", addr.Hex(), session.Network.Name)
	}
	if d.codeHash != nil {
		if got := crypto.Keccak256Hash(code); got != *d.codeHash {
			return &domain.ConfigurationError{
				Field: "factory.code_hash",
				Err: fmt.Errorf("factory at %s on %s has code hash %s, expected %s",
					addr.Hex(), session.Network.Name, got.Hex(), d.codeHash.Hex()),
			}
		}
	}
	return nil
}
