package testutil

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// DeployerKey is the first well-known anvil account
const DeployerKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// KeySigner signs with an in-memory key
type KeySigner struct {
	Key *ecdsa.PrivateKey
}

func (s *KeySigner) Address() common.Address { return crypto.PubkeyToAddress(s.Key.PublicKey) }

func (s *KeySigner) SignTx(_ context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.Key)
}

func (s *KeySigner) Close() error { return nil }

// SignerResolver resolves every network to the same key
type SignerResolver struct {
	Key        *ecdsa.PrivateKey
	ResolveErr error
}

// NewSignerResolver returns a resolver for DeployerKey
func NewSignerResolver() *SignerResolver {
	key, err := crypto.HexToECDSA(DeployerKey)
	if err != nil {
		panic(err)
	}
	return &SignerResolver{Key: key}
}

func (r *SignerResolver) Resolve(ctx context.Context, network *config.Network) (usecase.Signer, error) {
	if r.ResolveErr != nil {
		return nil, r.ResolveErr
	}
	return &KeySigner{Key: r.Key}, nil
}

func (r *SignerResolver) DeployerAddress() (common.Address, error) {
	return crypto.PubkeyToAddress(r.Key.PublicKey), nil
}

// ArtifactRepository serves artifacts from memory
type ArtifactRepository map[string]*models.Artifact

func (r ArtifactRepository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	a, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrArtifactNotFound)
	}
	return a, nil
}

func (r ArtifactRepository) ListArtifacts(ctx context.Context) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// PlanLoader serves plans from memory
type PlanLoader map[string]*models.Plan

func (p PlanLoader) Load(ctx context.Context, ref string) (*models.Plan, error) {
	plan, ok := p[ref]
	if !ok {
		return nil, domain.NewConfigurationError("plan", "unknown plan %q", ref)
	}
	return plan, nil
}

func (p PlanLoader) List(ctx context.Context) []usecase.PlanInfo {
	var out []usecase.PlanInfo
	for name, plan := range p {
		out = append(out, usecase.PlanInfo{Name: name, Description: plan.Description, Source: "memory"})
	}
	return out
}

// Confirmer answers every confirmation with Answer
type Confirmer struct {
	Answer  bool
	Calls   int
	Summary usecase.CampaignSummary
}

func (c *Confirmer) Confirm(ctx context.Context, summary usecase.CampaignSummary) (bool, error) {
	c.Calls++
	c.Summary = summary
	return c.Answer, nil
}

// ReportRecorder keeps written reports in memory
type ReportRecorder struct {
	mu      sync.Mutex
	Reports map[string]*usecase.NetworkRunResult
}

func (r *ReportRecorder) WriteReport(ctx context.Context, plan string, result *usecase.NetworkRunResult) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Reports == nil {
		r.Reports = make(map[string]*usecase.NetworkRunResult)
	}
	r.Reports[result.Network] = result
	return plan + "-" + result.Network + ".json", nil
}

// ProgressRecorder keeps progress events in memory
type ProgressRecorder struct {
	mu     sync.Mutex
	Events []usecase.ProgressEvent
}

func (p *ProgressRecorder) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

func (p *ProgressRecorder) Info(string)  {}
func (p *ProgressRecorder) Error(string) {}

var (
	_ usecase.SignerResolver     = (*SignerResolver)(nil)
	_ usecase.ArtifactRepository = ArtifactRepository(nil)
	_ usecase.PlanLoader         = PlanLoader(nil)
	_ usecase.DeployConfirmer    = (*Confirmer)(nil)
	_ usecase.ReportWriter       = (*ReportRecorder)(nil)
	_ usecase.ProgressSink       = (*ProgressRecorder)(nil)
)
