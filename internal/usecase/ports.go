package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// Ledger is the RPC surface the deployment core reads and writes through.
// *ethclient.Client satisfies it.
type Ledger interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// LedgerDialer opens a ledger connection for a configured network
type LedgerDialer interface {
	Dial(ctx context.Context, network *config.Network) (Ledger, error)
}

// NetworkResolver resolves network configurations
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, name string) (*config.Network, error)
	Role(name string) NetworkRole
}

// Signer signs transactions for a single account. Implementations must not be
// shared between concurrent submissions.
type Signer interface {
	Address() common.Address
	SignTx(ctx context.Context, chainID *big.Int, tx *types.Transaction) (*types.Transaction, error)
	Close() error
}

// SignerResolver selects the deploying identity
type SignerResolver interface {
	// Resolve returns a ready signer for the network, verifying remote services are reachable
	Resolve(ctx context.Context, network *config.Network) (Signer, error)
	// DeployerAddress returns the deploying account without opening any connection
	DeployerAddress() (common.Address, error)
}

// ArtifactRepository provides compiled contracts by name
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
	ListArtifacts(ctx context.Context) []string
}

// DeploymentFactory builds calldata for the on-chain deterministic deployment factory
type DeploymentFactory interface {
	Address() common.Address
	Calldata(salt domain.Salt, bytecode, initCode []byte) ([]byte, error)
}

// PlanInfo describes an available plan
type PlanInfo struct {
	Name        string
	Description string
	Source      string
}

// PlanLoader resolves a plan reference (built-in name or file path)
type PlanLoader interface {
	Load(ctx context.Context, ref string) (*models.Plan, error)
	List(ctx context.Context) []PlanInfo
}

// CampaignSummary is shown to the operator before anything is broadcast
type CampaignSummary struct {
	Plan      string
	Salt      domain.Salt
	Factory   common.Address
	Steps     []string
	Networks  []string
	Deployers map[string]common.Address
}

// DeployConfirmer asks the operator to approve a campaign. It is the last
// point at which a campaign can be cancelled.
type DeployConfirmer interface {
	Confirm(ctx context.Context, summary CampaignSummary) (bool, error)
}

// ReportWriter persists an advisory summary of a network run. Reports are
// never read back to decide whether a contract is deployed.
type ReportWriter interface {
	WriteReport(ctx context.Context, plan string, result *NetworkRunResult) (string, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Network  string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// Progress stages emitted by the plan runner
const (
	StageDeriving  = "deriving"
	StageProbing   = "probing"
	StageDeploying = "deploying"
	StageSettled   = "settled"
	StageFailed    = "failed"
)
