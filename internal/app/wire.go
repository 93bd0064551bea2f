//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/trebuchet-org/treb-genesis/internal/adapters"
	"github.com/trebuchet-org/treb-genesis/internal/config"
	"github.com/trebuchet-org/treb-genesis/internal/logging"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Engine
		usecase.NewAddressDeriver,
		usecase.NewExistenceProber,
		usecase.NewGenesisDeployer,

		// Use cases
		usecase.NewRunPlan,
		usecase.NewPredictAddresses,
		usecase.NewProbeAddresses,
		usecase.NewListNetworks,
		usecase.NewListPlans,

		// App
		NewApp,
	)
	return nil, nil
}
