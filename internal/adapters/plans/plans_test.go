package plans

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/initcode"
	"github.com/trebuchet-org/treb-genesis/internal/domain/models"
)

var (
	deployer   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	feeManager = common.HexToAddress("0x1111111111111111111111111111111111111111")
	renderer   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testEnv() models.BuildEnv {
	return models.BuildEnv{
		Deployer: deployer,
		Addresses: map[string]common.Address{
			StepFeeManager:       feeManager,
			StepMetadataRenderer: renderer,
		},
	}
}

func encodeStep(t *testing.T, step *models.PlanStep, env models.BuildEnv) []byte {
	t.Helper()
	args, err := step.Build(env)
	require.NoError(t, err)
	out, err := args.Encode()
	require.NoError(t, err)
	return out
}

func TestDropPlan(t *testing.T) {
	plan := DropPlan(config.DefaultDropConfig())
	require.Len(t, plan.Steps, 3)
	assert.Equal(t, DropPlanName, plan.Name)
	assert.Equal(t, []string{StepFeeManager, StepMetadataRenderer}, plan.Steps[2].DependsOn)

	t.Run("fee manager", func(t *testing.T) {
		got := encodeStep(t, plan.Steps[0], testEnv())
		values, err := initcode.Decode(got, []initcode.TypeTag{initcode.Uint256, initcode.Address})
		require.NoError(t, err)
		assert.True(t, values[0].Equal(initcode.Uint(500)))
		assert.True(t, values[1].Equal(initcode.AddressValue(deployer)))
	})

	t.Run("metadata renderer has empty init code", func(t *testing.T) {
		got := encodeStep(t, plan.Steps[1], testEnv())
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("drop embeds earlier addresses", func(t *testing.T) {
		got := encodeStep(t, plan.Steps[2], testEnv())
		values, err := initcode.Decode(got, []initcode.TypeTag{dropInitializerType, initcode.Bool})
		require.NoError(t, err)

		rendererInit, err := initcode.Encoded(initcode.Args{
			Types: []initcode.TypeTag{initcode.String, initcode.String, initcode.String},
			Values: []initcode.Value{
				initcode.StringValue("decscription"),
				initcode.StringValue("imageURI"),
				initcode.StringValue("animationURI"),
			},
		})
		require.NoError(t, err)

		want := initcode.Tuple(
			initcode.AddressValue(feeManager),
			initcode.AddressValue(common.Address{}),
			initcode.AddressValue(common.HexToAddress("0x000000000000AAeB6D7670E522A718067333cd4E")),
			initcode.StringValue("Holograph ERC721 Drop Collection"),
			initcode.StringValue("hDROP"),
			initcode.AddressValue(deployer),
			initcode.AddressValue(deployer),
			initcode.Uint(1000),
			initcode.Uint(1000),
			initcode.Seq(),
			initcode.AddressValue(renderer),
			rendererInit,
		)
		assert.True(t, values[0].Equal(want), "got %s", values[0])
		assert.True(t, values[1].Equal(initcode.BoolValue(true)))
	})

	t.Run("drop requires derived dependencies", func(t *testing.T) {
		_, err := plan.Steps[2].Build(models.BuildEnv{Deployer: deployer})
		assert.Error(t, err)
	})
}

func TestDropPlanParameters(t *testing.T) {
	base := config.DefaultDropConfig()
	changed := base
	changed.FeeBPS = 600

	a := encodeStep(t, DropPlan(base).Steps[0], testEnv())
	b := encodeStep(t, DropPlan(changed).Steps[0], testEnv())
	assert.NotEqual(t, a, b)

	factory := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	salt, err := domain.ParseSalt("500")
	require.NoError(t, err)
	feeManagerCode := []byte{0x60, 0x80, 0x60, 0x40, 0x01}
	dropCode := []byte{0x60, 0x80, 0x60, 0x40, 0x03}

	feeAt500 := domain.DeriveAddress(factory, salt, feeManagerCode, a)
	feeAt600 := domain.DeriveAddress(factory, salt, feeManagerCode, b)
	assert.NotEqual(t, feeAt500, feeAt600)
	assert.Equal(t, feeAt500, domain.DeriveAddress(factory, salt, feeManagerCode, a))

	// the drop embeds the fee manager address, so its address moves too
	dropAddress := func(cfg config.DropConfig, fee common.Address) common.Address {
		env := testEnv()
		env.Addresses[StepFeeManager] = fee
		return domain.DeriveAddress(factory, salt, dropCode, encodeStep(t, DropPlan(cfg).Steps[2], env))
	}
	assert.NotEqual(t, dropAddress(base, feeAt500), dropAddress(changed, feeAt600))

	owner := common.HexToAddress("0x3333333333333333333333333333333333333333")
	withOwner := base
	withOwner.InitialOwner = &owner
	assert.NotEqual(t,
		encodeStep(t, DropPlan(base).Steps[2], testEnv()),
		encodeStep(t, DropPlan(withOwner).Steps[2], testEnv()))
}

const dropYAML = `
name: yaml-drop
description: drop campaign as a plan file
contracts:
  - name: HolographFeeManager
    args:
      - {type: uint256, value: 500}
      - {type: address, value: "${deployer}"}
  - name: EditionMetadataRenderer
  - name: HolographERC721Drop
    args:
      - type: tuple(address,address,address,string,string,address,address,uint64,uint16,bytes[],address,bytes)
        value:
          - ${HolographFeeManager}
          - "0x0000000000000000000000000000000000000000"
          - "0x000000000000AAeB6D7670E522A718067333cd4E"
          - Holograph ERC721 Drop Collection
          - hDROP
          - ${deployer}
          - ${deployer}
          - 1000
          - 1000
          - []
          - ${EditionMetadataRenderer}
          - initcode:
              - {type: string, value: decscription}
              - {type: string, value: imageURI}
              - {type: string, value: animationURI}
      - {type: bool, value: true}
`

func TestParsePlanMatchesBuiltin(t *testing.T) {
	parsed, err := ParsePlan([]byte(dropYAML))
	require.NoError(t, err)
	builtin := DropPlan(config.DefaultDropConfig())

	assert.Equal(t, "yaml-drop", parsed.Name)
	require.Len(t, parsed.Steps, len(builtin.Steps))
	assert.ElementsMatch(t, []string{StepFeeManager, StepMetadataRenderer}, parsed.Steps[2].DependsOn)
	assert.Empty(t, parsed.Steps[0].DependsOn)

	for i := range builtin.Steps {
		assert.Equal(t,
			encodeStep(t, builtin.Steps[i], testEnv()),
			encodeStep(t, parsed.Steps[i], testEnv()),
			"step %s", builtin.Steps[i].Name)
	}
}

func TestParsePlanErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "invalid yaml", yaml: "contracts: [unterminated"},
		{name: "no contracts", yaml: "name: empty"},
		{name: "unnamed contract", yaml: "contracts:\n  - artifact: Foo"},
		{name: "reserved contract name", yaml: "contracts:\n  - name: deployer\n    artifact: Foo"},
		{name: "bad type", yaml: "contracts:\n  - name: A\n    args:\n      - {type: uint7, value: 1}"},
		{name: "missing value", yaml: "contracts:\n  - name: A\n    args:\n      - {type: uint256}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestArgsBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{name: "bad integer", arg: "{type: uint256, value: abc}"},
		{name: "bad address", arg: "{type: address, value: 0x1234}"},
		{name: "unknown reference", arg: "{type: address, value: \"${Missing}\"}"},
		{name: "bad bool", arg: "{type: bool, value: maybe}"},
		{name: "bad hex", arg: "{type: bytes, value: 0xzz}"},
		{name: "list for scalar", arg: "{type: uint256, value: [1]}"},
		{name: "scalar for tuple", arg: "{type: \"tuple(uint256,bool)\", value: 1}"},
		{name: "tuple arity", arg: "{type: \"tuple(uint256,bool)\", value: [1]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan([]byte("contracts:\n  - name: A\n    args:\n      - " + tt.arg))
			require.NoError(t, err)
			_, err = plan.Steps[0].Build(models.BuildEnv{Deployer: deployer})
			assert.Error(t, err)
		})
	}
}

func TestReferencesBecomeDependencies(t *testing.T) {
	plan, err := ParsePlan([]byte(`
contracts:
  - name: A
  - name: B
    deps: [A]
    args:
      - type: address[]
        value: ["${A}", "${deployer}"]
      - type: bytes
        value:
          initcode:
            - {type: address, value: "${C}"}
  - name: C
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, plan.Steps[1].DependsOn)
}

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	root := t.TempDir()
	return NewLoader(&config.RuntimeConfig{
		ProjectRoot: root,
		Drop:        config.DefaultDropConfig(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil))), root
}

func TestLoader(t *testing.T) {
	loader, root := newTestLoader(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(root, PlansDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, PlansDir, "custom.yaml"), []byte(dropYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, PlansDir, "broken.yaml"), []byte("contracts: ["), 0o644))

	t.Run("built-in", func(t *testing.T) {
		plan, err := loader.Load(ctx, DropPlanName)
		require.NoError(t, err)
		assert.Equal(t, DropPlanName, plan.Name)
	})

	t.Run("relative path", func(t *testing.T) {
		plan, err := loader.Load(ctx, "plans/custom.yaml")
		require.NoError(t, err)
		assert.Equal(t, "yaml-drop", plan.Name)
	})

	t.Run("short name", func(t *testing.T) {
		plan, err := loader.Load(ctx, "custom")
		require.NoError(t, err)
		assert.Len(t, plan.Steps, 3)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := loader.Load(ctx, "nope")
		var cfgErr *domain.ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "plan", cfgErr.Field)
		assert.Contains(t, err.Error(), DropPlanName)
	})

	t.Run("invalid file", func(t *testing.T) {
		_, err := loader.Load(ctx, "plans/broken.yaml")
		var cfgErr *domain.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("empty ref", func(t *testing.T) {
		_, err := loader.Load(ctx, "")
		assert.Error(t, err)
	})

	t.Run("list", func(t *testing.T) {
		infos := loader.List(ctx)
		require.Len(t, infos, 2)
		assert.Equal(t, DropPlanName, infos[0].Name)
		assert.Equal(t, "built-in", infos[0].Source)
		assert.Equal(t, "yaml-drop", infos[1].Name)
		assert.Equal(t, filepath.Join(PlansDir, "custom.yaml"), infos[1].Source)
	})
}
