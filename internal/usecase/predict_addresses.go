package usecase

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// PredictAddressesParams contains parameters for predicting addresses
type PredictAddressesParams struct {
	Plan    string
	Offline bool // derive only, without probing any network
}

// PredictAddressesResult contains the derived addresses per network
type PredictAddressesResult struct {
	Plan     string
	Salt     domain.Salt
	Factory  common.Address
	Deployer common.Address
	Networks []*NetworkRunResult
}

// PredictAddresses derives every address of a plan and reports which ones are
// already occupied. It never signs or sends a transaction.
type PredictAddresses struct {
	cfg       *config.RuntimeConfig
	plans     PlanLoader
	artifacts ArtifactRepository
	dialer    LedgerDialer
	signers   SignerResolver
	deriver   *AddressDeriver
	prober    *ExistenceProber
	log       *slog.Logger
}

// NewPredictAddresses creates a new PredictAddresses use case
func NewPredictAddresses(
	cfg *config.RuntimeConfig,
	plans PlanLoader,
	artifacts ArtifactRepository,
	dialer LedgerDialer,
	signers SignerResolver,
	deriver *AddressDeriver,
	prober *ExistenceProber,
	log *slog.Logger,
) *PredictAddresses {
	return &PredictAddresses{
		cfg:       cfg,
		plans:     plans,
		artifacts: artifacts,
		dialer:    dialer,
		signers:   signers,
		deriver:   deriver,
		prober:    prober,
		log:       log.With("component", "PredictAddresses"),
	}
}

// Run executes the use case
func (uc *PredictAddresses) Run(ctx context.Context, params PredictAddressesParams) (*PredictAddressesResult, error) {
	if err := uc.deriver.Ready(); err != nil {
		return nil, err
	}

	ref := lo.Ternary(params.Plan != "", params.Plan, uc.cfg.Plan)
	plan, err := uc.plans.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	steps, err := OrderSteps(plan)
	if err != nil {
		return nil, err
	}
	artifacts, err := loadArtifacts(ctx, uc.artifacts, steps)
	if err != nil {
		return nil, err
	}
	deployer, err := uc.signers.DeployerAddress()
	if err != nil {
		return nil, err
	}

	result := &PredictAddressesResult{
		Plan:     plan.Name,
		Salt:     uc.cfg.Salt,
		Factory:  uc.deriver.Factory(),
		Deployer: deployer,
	}

	derived, err := uc.derive(steps, artifacts, deployer)
	if err != nil {
		return nil, err
	}

	if params.Offline || len(uc.cfg.Networks()) == 0 {
		result.Networks = []*NetworkRunResult{{Network: "offline", Deployer: deployer, Steps: derived}}
		return result, nil
	}

	sessions, err := openSessions(ctx, uc.cfg.Networks(), uc.dialer, uc.signers, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, s := range sessions {
			_ = s.Close()
		}
	}()

	for _, s := range sessions {
		out := &NetworkRunResult{
			Network:  s.Network.Name,
			ChainID:  s.ChainID.Uint64(),
			Deployer: deployer,
		}
		if err := uc.deriver.VerifyFactory(ctx, s); err != nil {
			out.Err = err
			out.Steps = cloneResults(derived)
			result.Networks = append(result.Networks, out)
			continue
		}
		out.Steps, out.Err = uc.probe(ctx, s, derived)
		result.Networks = append(result.Networks, out)
	}

	return result, nil
}

// derive computes every address once. Addresses do not depend on the network.
func (uc *PredictAddresses) derive(
	steps []*models.PlanStep,
	artifacts map[string]*models.Artifact,
	deployer common.Address,
) ([]*models.StepResult, error) {
	env := models.BuildEnv{Deployer: deployer, Addresses: make(map[string]common.Address, len(steps))}
	results := newStepResults(steps, artifacts)
	for i, step := range steps {
		initCode, err := buildInitCode(step, artifacts[step.Name], env)
		if err != nil {
			return nil, err
		}
		results[i].Address = uc.deriver.DeriveAddress(uc.cfg.Salt, artifacts[step.Name], initCode)
		results[i].Status = models.StatusAddressDerived
		env.Addresses[step.Name] = results[i].Address
	}
	return results, nil
}

func (uc *PredictAddresses) probe(ctx context.Context, s *Session, derived []*models.StepResult) ([]*models.StepResult, error) {
	results := cloneResults(derived)
	for _, res := range results {
		exists, err := uc.prober.CodeExists(ctx, s, res.Address)
		if err != nil {
			return results, err
		}
		if exists {
			res.Status = models.StatusAlreadyDeployed
		}
		uc.log.Debug("address probed", "network", s.Network.Name, "contract", res.Step, "deployed", exists)
	}
	return results, nil
}

func cloneResults(in []*models.StepResult) []*models.StepResult {
	return lo.Map(in, func(r *models.StepResult, _ int) *models.StepResult {
		c := *r
		return &c
	})
}
