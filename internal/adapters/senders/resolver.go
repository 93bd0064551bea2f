package senders

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
	"github.com/trebuchet-org/treb-genesis/pkg/coldstorage"
)

// Resolver selects the signer for a network: the cold storage service when it
// is enabled, the configured private key otherwise
type Resolver struct {
	cfg *config.RuntimeConfig
	log *slog.Logger
}

// NewResolver creates a new signer resolver
func NewResolver(cfg *config.RuntimeConfig, log *slog.Logger) *Resolver {
	return &Resolver{
		cfg: cfg,
		log: log.With("component", "SignerResolver"),
	}
}

// DeployerAddress returns the account that will sign deployments without
// contacting any service
func (r *Resolver) DeployerAddress() (common.Address, error) {
	if cs := r.cfg.ColdStorage; cs != nil {
		return cs.Address, nil
	}
	key, err := r.privateKey()
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// Resolve returns a ready signer for network
func (r *Resolver) Resolve(ctx context.Context, network *config.Network) (usecase.Signer, error) {
	if cs := r.cfg.ColdStorage; cs != nil {
		client, err := coldstorage.NewClient(ctx, coldstorage.Config{
			Endpoint:      cs.Endpoint(),
			Address:       cs.Address,
			Authorization: cs.Authorization,
			CA:            cs.CA,
		})
		if err != nil {
			return nil, &domain.ConfigurationError{Field: "cold_storage", Err: err}
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, &domain.ConfigurationError{Field: "cold_storage", Err: err}
		}
		r.log.Debug("using cold storage signer", "network", network.Name, "address", cs.Address.Hex(), "domain", cs.Domain)
		return &ColdStorageSigner{client: client}, nil
	}

	key, err := r.privateKey()
	if err != nil {
		return nil, err
	}
	signer := &LocalSigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
	r.log.Debug("using local signer", "network", network.Name, "address", signer.address.Hex())
	return signer, nil
}

func (r *Resolver) privateKey() (*ecdsa.PrivateKey, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(r.cfg.PrivateKey), "0x")
	if raw == "" {
		return nil, domain.NewConfigurationError("signer.private_key",
			"no private key configured; set signer.private_key or enable cold storage")
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		// never echo the key material
		return nil, &domain.ConfigurationError{Field: "signer.private_key", Err: errors.New("invalid private key")}
	}
	return key, nil
}

// LocalSigner signs with an in-memory key
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func (s *LocalSigner) Address() common.Address { return s.address }

func (s *LocalSigner) SignTx(_ context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

func (s *LocalSigner) Close() error { return nil }

// ColdStorageSigner delegates signing to the remote service
type ColdStorageSigner struct {
	client *coldstorage.Client
}

func (s *ColdStorageSigner) Address() common.Address { return s.client.Address() }

func (s *ColdStorageSigner) SignTx(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	return s.client.SignTransaction(ctx, chainID, tx)
}

func (s *ColdStorageSigner) Close() error {
	s.client.Close()
	return nil
}
