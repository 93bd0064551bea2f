package plans

import (
	"github.com/samber/lo"

	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/initcode"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

// Step names of the erc721-drop plan
const (
	DropPlanName         = "erc721-drop"
	StepFeeManager       = "HolographFeeManager"
	StepMetadataRenderer = "EditionMetadataRenderer"
	StepDrop             = "HolographERC721Drop"
)

// dropInitializerType is the first constructor argument of HolographERC721Drop:
// (feeManager, transferHelper, marketFilter, name, symbol, owner, fundsRecipient,
// editionSize, royaltyBPS, setupCalls, metadataRenderer, metadataRendererInit)
var dropInitializerType = initcode.TupleOf(
	initcode.Address,
	initcode.Address,
	initcode.Address,
	initcode.String,
	initcode.String,
	initcode.Address,
	initcode.Address,
	initcode.Uint64,
	initcode.Uint16,
	initcode.SliceOf(initcode.Bytes),
	initcode.Address,
	initcode.Bytes,
)

// DropPlan returns the fee manager, metadata renderer and ERC721 drop campaign
func DropPlan(c config.DropConfig) *models.Plan {
	return &models.Plan{
		Name:        DropPlanName,
		Description: "Holograph fee manager, edition metadata renderer and ERC721 drop",
		Steps: []*models.PlanStep{
			{
				Name: StepFeeManager,
				Build: func(env models.BuildEnv) (initcode.Args, error) {
					return initcode.Args{
						Types:  []initcode.TypeTag{initcode.Uint256, initcode.Address},
						Values: []initcode.Value{initcode.Uint(c.FeeBPS), initcode.AddressValue(env.Deployer)},
					}, nil
				},
			},
			{
				Name: StepMetadataRenderer,
				Build: func(models.BuildEnv) (initcode.Args, error) {
					return initcode.Empty(), nil
				},
			},
			{
				Name:      StepDrop,
				DependsOn: []string{StepFeeManager, StepMetadataRenderer},
				Build:     dropInitCode(c),
			},
		},
	}
}

func dropInitCode(c config.DropConfig) models.InitCodeBuilder {
	return func(env models.BuildEnv) (initcode.Args, error) {
		feeManager, err := env.AddressOf(StepFeeManager)
		if err != nil {
			return initcode.Args{}, err
		}
		renderer, err := env.AddressOf(StepMetadataRenderer)
		if err != nil {
			return initcode.Args{}, err
		}

		rendererInit, err := initcode.Encoded(initcode.Args{
			Types: []initcode.TypeTag{initcode.String, initcode.String, initcode.String},
			Values: []initcode.Value{
				initcode.StringValue(c.Description),
				initcode.StringValue(c.ImageURI),
				initcode.StringValue(c.AnimationURI),
			},
		})
		if err != nil {
			return initcode.Args{}, err
		}

		initializer := initcode.Tuple(
			initcode.AddressValue(feeManager),
			initcode.AddressValue(c.TransferHelper),
			initcode.AddressValue(c.MarketFilter),
			initcode.StringValue(c.ContractName),
			initcode.StringValue(c.ContractSymbol),
			initcode.AddressValue(lo.FromPtrOr(c.InitialOwner, env.Deployer)),
			initcode.AddressValue(lo.FromPtrOr(c.FundsRecipient, env.Deployer)),
			initcode.Uint(c.EditionSize),
			initcode.Uint(c.RoyaltyBPS),
			initcode.Seq(),
			initcode.AddressValue(renderer),
			rendererInit,
		)

		return initcode.Args{
			Types:  []initcode.TypeTag{dropInitializerType, initcode.Bool},
			Values: []initcode.Value{initializer, initcode.BoolValue(c.SkipInit)},
		}, nil
	}
}
