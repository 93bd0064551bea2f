package usecase_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/treb-genesis/internal/adapters/factory"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/plans"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
	"github.com/trebuchet-org/treb-genesis/internal/testutil"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

var (
	factoryAddress = common.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddead0001")
	testSalt       = domain.Salt(common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000001f4"))

	// distinct creation code per contract; the fake ledger matches on it
	feeManagerCode = []byte{0x60, 0x80, 0x60, 0x40, 0x01}
	rendererCode   = []byte{0x60, 0x80, 0x60, 0x40, 0x02}
	dropCode       = []byte{0x60, 0x80, 0x60, 0x40, 0x03}
)

const feeManagerABI = `[{"type":"constructor","inputs":[{"name":"feeBPS","type":"uint256"},{"name":"deployer","type":"address"}]}]`

// MockConfirmer is a mock implementation of DeployConfirmer
type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(ctx context.Context, summary usecase.CampaignSummary) (bool, error) {
	args := m.Called(ctx, summary)
	return args.Bool(0), args.Error(1)
}

// syncBuffer collects log output from concurrent network runs
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines(substr string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if strings.Contains(line, substr) {
			out = append(out, line)
		}
	}
	return out
}

type harness struct {
	cfg       *config.RuntimeConfig
	factory   *factory.GenesisFactory
	ledgers   map[string]*testutil.FakeLedger
	dialer    *testutil.FakeDialer
	artifacts testutil.ArtifactRepository
	plans     testutil.PlanLoader
	signers   *testutil.SignerResolver
	reports   *testutil.ReportRecorder
	progress  *testutil.ProgressRecorder
	logs      *syncBuffer
	log       *slog.Logger
}

// newHarness builds a campaign for the drop plan on the given networks. The
// first network is primary, the second the companion.
func newHarness(t *testing.T, networks ...string) *harness {
	t.Helper()

	parsedABI, err := abi.JSON(strings.NewReader(feeManagerABI))
	require.NoError(t, err)

	h := &harness{
		cfg: &config.RuntimeConfig{
			Salt:         testSalt,
			Plan:         plans.DropPlanName,
			Factory:      config.FactoryConfig{Kind: config.FactoryGenesis, Address: factoryAddress},
			Drop:         config.DefaultDropConfig(),
			PollInterval: time.Millisecond,
			Timeout:      5 * time.Second,
		},
		factory: factory.NewGenesisFactory(factoryAddress),
		ledgers: make(map[string]*testutil.FakeLedger),
		artifacts: testutil.ArtifactRepository{
			plans.StepFeeManager:       {Name: plans.StepFeeManager, Bytecode: feeManagerCode, ABI: &parsedABI},
			plans.StepMetadataRenderer: {Name: plans.StepMetadataRenderer, Bytecode: rendererCode},
			plans.StepDrop:             {Name: plans.StepDrop, Bytecode: dropCode},
		},
		signers:  testutil.NewSignerResolver(),
		reports:  &testutil.ReportRecorder{},
		progress: &testutil.ProgressRecorder{},
		logs:     &syncBuffer{},
	}
	h.plans = testutil.PlanLoader{plans.DropPlanName: plans.DropPlan(h.cfg.Drop)}
	h.log = slog.New(slog.NewTextHandler(h.logs, nil))

	for i, name := range networks {
		chainID := uint64(1000 + i)
		h.ledgers[name] = testutil.NewFakeLedger(chainID, h.factory)
		n := &config.Network{Name: name, ChainID: chainID, RPCURL: "http://" + name}
		if i == 0 {
			h.cfg.Network = n
		} else {
			h.cfg.Companion = n
		}
	}
	h.dialer = &testutil.FakeDialer{Ledgers: h.ledgers}
	return h
}

func (h *harness) deriver() *usecase.AddressDeriver {
	return usecase.NewAddressDeriver(h.cfg, h.factory)
}

func (h *harness) deployer() *usecase.GenesisDeployer {
	return usecase.NewGenesisDeployer(h.cfg, h.factory, usecase.NewExistenceProber(), h.log)
}

func (h *harness) runPlan(confirmer usecase.DeployConfirmer) *usecase.RunPlan {
	return usecase.NewRunPlan(
		h.cfg,
		h.plans,
		h.artifacts,
		h.dialer,
		h.signers,
		h.deriver(),
		usecase.NewExistenceProber(),
		h.deployer(),
		confirmer,
		h.reports,
		h.progress,
		h.log,
	)
}

func (h *harness) predict() *usecase.PredictAddresses {
	return usecase.NewPredictAddresses(
		h.cfg,
		h.plans,
		h.artifacts,
		h.dialer,
		h.signers,
		h.deriver(),
		usecase.NewExistenceProber(),
		h.log,
	)
}

// revertOn makes deployments of the given creation code fail
func revertOn(code []byte) func([]byte) bool {
	return func(creation []byte) bool {
		return bytes.HasPrefix(creation, code)
	}
}

func stepsByName(steps []*models.StepResult) map[string]*models.StepResult {
	out := make(map[string]*models.StepResult, len(steps))
	for _, s := range steps {
		out[s.Step] = s
	}
	return out
}
