package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/initcode"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// RunPlanParams contains parameters for running a deployment plan
type RunPlanParams struct {
	Plan           string // built-in name or path; defaults to the configured plan
	NonInteractive bool
	Sequential     bool // run the companion network after the primary instead of alongside it
}

// RunPlanResult contains the outcome of every network run
type RunPlanResult struct {
	Plan     string
	Salt     domain.Salt
	Factory  common.Address
	Networks []*NetworkRunResult
}

// Failed returns the network runs that did not complete
func (r *RunPlanResult) Failed() []*NetworkRunResult {
	return lo.Filter(r.Networks, func(n *NetworkRunResult, _ int) bool { return n.Err != nil })
}

// NetworkRunResult is the outcome of the plan on one network. It carries its
// own error so that each network can be re-run independently.
type NetworkRunResult struct {
	Network    string               `json:"network"`
	ChainID    uint64               `json:"chainId"`
	Deployer   common.Address       `json:"deployer"`
	Steps      []*models.StepResult `json:"steps"`
	TxCount    int                  `json:"txCount"`
	Err        error                `json:"-"`
	ReportPath string               `json:"-"`
}

// Settled counts the steps whose contract is known to be on chain
func (n *NetworkRunResult) Settled() int {
	return lo.CountBy(n.Steps, func(r *models.StepResult) bool { return r.Status.IsSettled() })
}

// RunPlan deploys every step of a plan on the primary network and, when
// configured, on the companion network
type RunPlan struct {
	cfg       *config.RuntimeConfig
	plans     PlanLoader
	artifacts ArtifactRepository
	dialer    LedgerDialer
	signers   SignerResolver
	deriver   *AddressDeriver
	prober    *ExistenceProber
	deployer  *GenesisDeployer
	confirmer DeployConfirmer
	reports   ReportWriter
	progress  ProgressSink
	log       *slog.Logger
}

// NewRunPlan creates a new RunPlan use case
func NewRunPlan(
	cfg *config.RuntimeConfig,
	plans PlanLoader,
	artifacts ArtifactRepository,
	dialer LedgerDialer,
	signers SignerResolver,
	deriver *AddressDeriver,
	prober *ExistenceProber,
	deployer *GenesisDeployer,
	confirmer DeployConfirmer,
	reports ReportWriter,
	progress ProgressSink,
	log *slog.Logger,
) *RunPlan {
	return &RunPlan{
		cfg:       cfg,
		plans:     plans,
		artifacts: artifacts,
		dialer:    dialer,
		signers:   signers,
		deriver:   deriver,
		prober:    prober,
		deployer:  deployer,
		confirmer: confirmer,
		reports:   reports,
		progress:  progress,
		log:       log.With("component", "RunPlan"),
	}
}

// Run executes the plan. Configuration problems on any network are returned
// before a single transaction is sent. Step failures are reported per network
// in the result, not as the returned error.
func (uc *RunPlan) Run(ctx context.Context, params RunPlanParams) (*RunPlanResult, error) {
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

	sessions, err := openSessions(ctx, uc.cfg.Networks(), uc.dialer, uc.signers, true)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, s := range sessions {
			if err := s.Close(); err != nil {
				uc.log.Warn("failed to close signer", "network", s.Network.Name, "error", err)
			}
		}
	}()

	for _, s := range sessions {
		if err := uc.deriver.VerifyFactory(ctx, s); err != nil {
			return nil, err
		}
	}

	if !params.NonInteractive && uc.confirmer != nil {
		ok, err := uc.confirmer.Confirm(ctx, uc.summary(plan, steps, sessions))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrCancelled
		}
	}

	result := &RunPlanResult{
		Plan:     plan.Name,
		Salt:     uc.cfg.Salt,
		Factory:  uc.deriver.Factory(),
		Networks: make([]*NetworkRunResult, len(sessions)),
	}

	if params.Sequential {
		for i, s := range sessions {
			result.Networks[i] = uc.runNetwork(ctx, steps, artifacts, s)
		}
	} else {
		// Network runs are independent; a failure on one must not cancel the other.
		var g errgroup.Group
		for i, s := range sessions {
			g.Go(func() error {
				result.Networks[i] = uc.runNetwork(ctx, steps, artifacts, s)
				return nil
			})
		}
		_ = g.Wait()
	}

	if uc.reports != nil {
		for _, n := range result.Networks {
			path, err := uc.reports.WriteReport(ctx, plan.Name, n)
			if err != nil {
				uc.log.Warn("failed to write run report", "network", n.Network, "error", err)
				continue
			}
			n.ReportPath = path
		}
	}

	return result, nil
}

func (uc *RunPlan) summary(plan *models.Plan, steps []*models.PlanStep, sessions []*Session) CampaignSummary {
	return CampaignSummary{
		Plan:     plan.Name,
		Salt:     uc.cfg.Salt,
		Factory:  uc.deriver.Factory(),
		Steps:    lo.Map(steps, func(s *models.PlanStep, _ int) string { return s.Name }),
		Networks: lo.Map(sessions, func(s *Session, _ int) string { return s.Network.Name }),
		Deployers: lo.SliceToMap(sessions, func(s *Session) (string, common.Address) {
			return s.Network.Name, s.Signer.Address()
		}),
	}
}

// runNetwork walks the ordered steps on one network. The first failure halts
// the walk: later steps may embed the failed step's address.
func (uc *RunPlan) runNetwork(
	ctx context.Context,
	steps []*models.PlanStep,
	artifacts map[string]*models.Artifact,
	session *Session,
) *NetworkRunResult {
	network := session.Network.Name
	out := &NetworkRunResult{
		Network:  network,
		ChainID:  session.ChainID.Uint64(),
		Deployer: session.Signer.Address(),
		Steps:    newStepResults(steps, artifacts),
	}
	env := models.BuildEnv{
		Deployer:  out.Deployer,
		Addresses: make(map[string]common.Address, len(steps)),
	}

	for i, step := range steps {
		res := out.Steps[i]

		if err := ctx.Err(); err != nil {
			out.Err = err
			break
		}

		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageDeriving,
			Network: network,
			Current: i + 1,
			Total:   len(steps),
			Message: step.Name,
		})

		initCode, err := buildInitCode(step, artifacts[step.Name], env)
		if err != nil {
			uc.fail(ctx, res, network, err)
			out.Err = err
			break
		}

		res.Address = uc.deriver.DeriveAddress(uc.cfg.Salt, artifacts[step.Name], initCode)
		res.Status = models.StatusAddressDerived
		env.Addresses[step.Name] = res.Address
		uc.log.Debug("address derived", "network", network, "contract", step.Name, "address", res.Address.Hex())

		exists, err := uc.prober.CodeExists(ctx, session, res.Address)
		if err != nil {
			uc.fail(ctx, res, network, err)
			out.Err = err
			break
		}
		if exists {
			res.Status = models.StatusAlreadyDeployed
			uc.settle(ctx, res, network)
			continue
		}

		res.Status = models.StatusDeploying
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   StageDeploying,
			Network: network,
			Current: i + 1,
			Total:   len(steps),
			Message: fmt.Sprintf("%s at %s", step.Name, res.Address.Hex()),
			Spinner: true,
		})

		receipt, err := uc.deployer.Deploy(ctx, session, DeployRequest{
			Salt:     uc.cfg.Salt,
			Artifact: artifacts[step.Name],
			InitCode: initCode,
			Expected: res.Address,
		})
		if receipt != nil {
			res.TxHash = receipt.TxHash
			res.BlockNumber = receipt.BlockNumber.Uint64()
			res.GasUsed = receipt.GasUsed
			out.TxCount++
		}
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyDeployed) {
				// Deployed by someone else between probe and submission.
				res.Status = models.StatusAlreadyDeployed
				uc.settle(ctx, res, network)
				continue
			}
			uc.fail(ctx, res, network, err)
			out.Err = err
			break
		}

		res.Status = models.StatusDeployed
		uc.settle(ctx, res, network)
	}

	for _, res := range out.Steps {
		if !res.Status.IsTerminal() {
			uc.logStatus(res, network)
		}
	}
	uc.log.Info("network run finished",
		"network", network,
		"settled", out.Settled(),
		"total", len(out.Steps),
		"txs", out.TxCount)

	return out
}

func (uc *RunPlan) settle(ctx context.Context, res *models.StepResult, network string) {
	uc.logStatus(res, network)
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageSettled,
		Network:  network,
		Message:  fmt.Sprintf("%s %s at %s", res.Step, res.Status.Label(), res.Address.Hex()),
		Metadata: res,
	})
}

func (uc *RunPlan) fail(ctx context.Context, res *models.StepResult, network string, err error) {
	res.Status = models.StatusFailed
	res.Err = err
	uc.logStatus(res, network)
	uc.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageFailed,
		Network:  network,
		Message:  fmt.Sprintf("%s failed: %v", res.Step, err),
		Metadata: res,
	})
}

// logStatus emits the per-contract status line. It is called exactly once for
// every step of a network run.
func (uc *RunPlan) logStatus(res *models.StepResult, network string) {
	attrs := []any{
		"network", network,
		"contract", res.Step,
		"address", addressAttr(res.Address),
		"status", res.Status.Label(),
	}
	switch res.Status {
	case models.StatusDeployed:
		uc.log.Info("contract status", append(attrs, "tx", res.TxHash.Hex())...)
	case models.StatusFailed:
		uc.log.Error("contract status", append(attrs, "error", res.Err)...)
	default:
		uc.log.Info("contract status", attrs...)
	}
}

func addressAttr(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}

func newStepResults(steps []*models.PlanStep, artifacts map[string]*models.Artifact) []*models.StepResult {
	return lo.Map(steps, func(s *models.PlanStep, _ int) *models.StepResult {
		return &models.StepResult{
			Step:     s.Name,
			Artifact: artifacts[s.Name].Name,
			Status:   models.StatusPending,
		}
	})
}

// loadArtifacts resolves the artifact of every step up front so a missing
// artifact aborts the campaign before any network activity
func loadArtifacts(ctx context.Context, repo ArtifactRepository, steps []*models.PlanStep) (map[string]*models.Artifact, error) {
	out := make(map[string]*models.Artifact, len(steps))
	for _, step := range steps {
		artifact, err := repo.GetArtifact(ctx, step.ArtifactName())
		if err != nil {
			var cfgErr *domain.ConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			return nil, &domain.ConfigurationError{Field: "artifacts", Err: err}
		}
		if len(artifact.Bytecode) == 0 {
			return nil, domain.NewConfigurationError("artifacts", "artifact %s has no creation bytecode", artifact.Name)
		}
		out[step.Name] = artifact
	}
	return out, nil
}

// buildInitCode runs the step's builder and encodes the result, checking it
// against the constructor declared in the artifact ABI when there is one
func buildInitCode(step *models.PlanStep, artifact *models.Artifact, env models.BuildEnv) ([]byte, error) {
	args, err := step.Build(env)
	if err != nil {
		return nil, &domain.EncodingError{Contract: step.Name, Err: err}
	}
	if err := checkConstructor(artifact, args); err != nil {
		return nil, &domain.EncodingError{Contract: step.Name, Err: err}
	}
	code, err := args.Encode()
	if err != nil {
		return nil, &domain.EncodingError{Contract: step.Name, Err: err}
	}
	return code, nil
}

func checkConstructor(artifact *models.Artifact, args initcode.Args) error {
	declared := artifact.ConstructorTypes()
	if declared == nil {
		return nil
	}
	if len(declared) != len(args.Types) {
		return fmt.Errorf("%w: constructor of %s takes %d arguments, got %d",
			initcode.ErrArityMismatch, artifact.Name, len(declared), len(args.Types))
	}
	for i, raw := range declared {
		want, err := initcode.ParseType(raw)
		if err != nil {
			return fmt.Errorf("constructor of %s: %w", artifact.Name, err)
		}
		if got := args.Types[i].String(); got != want.String() {
			return fmt.Errorf("constructor argument %d of %s is %s, got %s", i, artifact.Name, want, got)
		}
	}
	return nil
}
