package adapters

import (
	"github.com/google/wire"

	"github.com/trebuchet-org/treb-genesis/internal/adapters/artifacts"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/factory"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/fs"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/network"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/plans"
	"github.com/trebuchet-org/treb-genesis/internal/adapters/senders"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// ProvideDeploymentFactory selects the factory calldata format from the configuration
func ProvideDeploymentFactory(cfg *config.RuntimeConfig) usecase.DeploymentFactory {
	return factory.NewFactory(cfg)
}

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),

	plans.NewLoader,
	wire.Bind(new(usecase.PlanLoader), new(*plans.Loader)),

	fs.NewReportStoreAdapter,
	wire.Bind(new(usecase.ReportWriter), new(*fs.ReportStoreAdapter)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.DeployConfirmer), new(*interactive.ConfirmerAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	network.NewResolver,
	wire.Bind(new(usecase.NetworkResolver), new(*network.Resolver)),
)

// BlockchainSet provides ledger access, signing and factory encoding
var BlockchainSet = wire.NewSet(
	blockchain.NewDialer,
	wire.Bind(new(usecase.LedgerDialer), new(*blockchain.Dialer)),

	senders.NewResolver,
	wire.Bind(new(usecase.SignerResolver), new(*senders.Resolver)),

	ProvideDeploymentFactory,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
)
