package app

import (
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	RunPlan          *usecase.RunPlan
	PredictAddresses *usecase.PredictAddresses
	ProbeAddresses   *usecase.ProbeAddresses
	ListNetworks     *usecase.ListNetworks
	ListPlans        *usecase.ListPlans
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	runPlan *usecase.RunPlan,
	predictAddresses *usecase.PredictAddresses,
	probeAddresses *usecase.ProbeAddresses,
	listNetworks *usecase.ListNetworks,
	listPlans *usecase.ListPlans,
) (*App, error) {
	return &App{
		Config:           cfg,
		RunPlan:          runPlan,
		PredictAddresses: predictAddresses,
		ProbeAddresses:   probeAddresses,
		ListNetworks:     listNetworks,
		ListPlans:        listPlans,
	}, nil
}
