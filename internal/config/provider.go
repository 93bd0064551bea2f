package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
)

const (
	// DefaultPlan is the built-in plan deployed when none is configured
	DefaultPlan = "erc721-drop"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "TREB_GENESIS"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	loadEnvFiles(projectRoot)

	file, err := LoadGenesisFile(projectRoot)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: FileName, Err: err}
	}

	return Build(projectRoot, v, file)
}

// Build resolves the runtime configuration from the parsed file with flag
// and environment overrides from v. Every validation failure is a
// ConfigurationError.
func Build(projectRoot string, v *viper.Viper, file *GenesisFile) (*config.RuntimeConfig, error) {
	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, ".treb-genesis"),
		Plan:           firstNonEmpty(v.GetString("plan"), file.Plan, DefaultPlan),
		ArtifactsDir:   firstNonEmpty(v.GetString("artifacts"), file.Artifacts, "out"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		DryRun:         v.GetBool("dry_run"),
		Sequential:     v.GetBool("sequential"),
		Timeout:        v.GetDuration("timeout"),
		PollInterval:   v.GetDuration("poll_interval"),
	}
	if !filepath.IsAbs(cfg.ArtifactsDir) {
		cfg.ArtifactsDir = filepath.Join(projectRoot, cfg.ArtifactsDir)
	}

	rawSalt := os.ExpandEnv(firstNonEmpty(v.GetString("salt"), file.Salt))
	if rawSalt != "" {
		salt, err := domain.ParseSalt(rawSalt)
		if err != nil {
			return nil, &domain.ConfigurationError{Field: "salt", Err: err}
		}
		cfg.Salt = salt
	}

	factory, err := buildFactory(file.Factory)
	if err != nil {
		return nil, err
	}
	cfg.Factory = factory

	if name := firstNonEmpty(v.GetString("network"), file.Network); name != "" {
		network, err := ResolveNetwork(file, name)
		if err != nil {
			return nil, err
		}
		cfg.Network = network
	}

	companion := v.GetString("companion")
	if companion == "" && file.Companion.Enabled {
		if file.Companion.Network == "" {
			return nil, domain.NewConfigurationError("companion.network", "companion is enabled but no network is set")
		}
		companion = file.Companion.Network
	}
	if companion != "" {
		if cfg.Network == nil {
			return nil, domain.NewConfigurationError("companion", "a companion network requires a primary network")
		}
		if companion == cfg.Network.Name {
			return nil, domain.NewConfigurationError("companion", "companion network %s is the primary network", companion)
		}
		network, err := ResolveNetwork(file, companion)
		if err != nil {
			return nil, err
		}
		cfg.Companion = network
	}

	cfg.PrivateKey = os.ExpandEnv(firstNonEmpty(v.GetString("private_key"), file.Signer.PrivateKey))

	if v.GetBool("cold_storage") || file.ColdStorage.Enabled {
		cold, err := buildColdStorage(file.ColdStorage)
		if err != nil {
			return nil, err
		}
		cfg.ColdStorage = cold
	}

	drop, err := buildDrop(file.Drop)
	if err != nil {
		return nil, err
	}
	cfg.Drop = drop

	return cfg, nil
}

// ResolveNetwork looks a network up in [networks]
func ResolveNetwork(file *GenesisFile, name string) (*config.Network, error) {
	section, ok := file.Networks[name]
	if !ok {
		return nil, domain.NewConfigurationError("network", "network '%s' not found in %s [networks]", name, FileName)
	}
	rpcURL := resolveRPCURL(name, section.RPCURL)
	if rpcURL == "" {
		return nil, domain.NewConfigurationError(
			fmt.Sprintf("networks.%s.rpc_url", name),
			"no RPC URL; set rpc_url or %s", GenerateEnvVarName(name))
	}
	return &config.Network{
		Name:    name,
		RPCURL:  rpcURL,
		ChainID: section.ChainID,
	}, nil
}

func buildFactory(section FactorySection) (config.FactoryConfig, error) {
	out := config.FactoryConfig{Kind: config.FactoryKind(firstNonEmpty(section.Kind, string(config.FactoryGenesis)))}

	switch out.Kind {
	case config.FactoryGenesis:
	case config.FactoryCreate2Proxy:
		out.Address = config.DefaultCreate2ProxyAddress
	default:
		return out, domain.NewConfigurationError("factory.kind", "unknown factory kind %q", section.Kind)
	}

	if raw := os.ExpandEnv(section.Address); raw != "" {
		addr, err := parseAddress(raw)
		if err != nil {
			return out, &domain.ConfigurationError{Field: "factory.address", Err: err}
		}
		out.Address = addr
	}

	if raw := os.ExpandEnv(section.CodeHash); raw != "" {
		if !strings.HasPrefix(raw, "0x") || len(raw) != 66 {
			return out, domain.NewConfigurationError("factory.code_hash", "expected 0x-prefixed 32-byte hash, got %q", raw)
		}
		h := common.HexToHash(raw)
		out.CodeHash = &h
	}

	return out, nil
}

func buildColdStorage(section ColdStorageSection) (*config.ColdStorageConfig, error) {
	raw := os.ExpandEnv(section.Address)
	if raw == "" {
		return nil, domain.NewConfigurationError("cold_storage.address", "cold storage signing requires an address")
	}
	addr, err := parseAddress(raw)
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "cold_storage.address", Err: err}
	}

	out := &config.ColdStorageConfig{
		Address:       addr,
		Domain:        strings.TrimPrefix(os.ExpandEnv(section.Domain), "https://"),
		Authorization: os.ExpandEnv(section.Authorization),
		CA:            os.ExpandEnv(section.CA),
	}
	switch {
	case out.Domain == "":
		return nil, domain.NewConfigurationError("cold_storage.domain", "cold storage signing requires a domain")
	case strings.Contains(out.Domain, "://"):
		return nil, domain.NewConfigurationError("cold_storage.domain", "domain must be a host, got %q", out.Domain)
	case out.Authorization == "":
		return nil, domain.NewConfigurationError("cold_storage.authorization", "cold storage signing requires an authorization token")
	case out.CA == "":
		return nil, domain.NewConfigurationError("cold_storage.ca", "cold storage signing requires CA material")
	}
	return out, nil
}

func buildDrop(section DropSection) (config.DropConfig, error) {
	drop := config.DefaultDropConfig()

	if section.FeeBPS != nil {
		drop.FeeBPS = *section.FeeBPS
	}
	if section.EditionSize != nil {
		drop.EditionSize = *section.EditionSize
	}
	if section.RoyaltyBPS != nil {
		drop.RoyaltyBPS = *section.RoyaltyBPS
	}
	if section.Description != nil {
		drop.Description = *section.Description
	}
	if section.ImageURI != nil {
		drop.ImageURI = *section.ImageURI
	}
	if section.AnimationURI != nil {
		drop.AnimationURI = *section.AnimationURI
	}
	if section.SkipInit != nil {
		drop.SkipInit = *section.SkipInit
	}
	if section.ContractName != "" {
		drop.ContractName = section.ContractName
	}
	if section.ContractSymbol != "" {
		drop.ContractSymbol = section.ContractSymbol
	}

	addresses := []struct {
		field string
		raw   string
		set   func(common.Address)
	}{
		{"drop.transfer_helper", section.TransferHelper, func(a common.Address) { drop.TransferHelper = a }},
		{"drop.market_filter", section.MarketFilter, func(a common.Address) { drop.MarketFilter = a }},
		{"drop.initial_owner", section.InitialOwner, func(a common.Address) { drop.InitialOwner = &a }},
		{"drop.funds_recipient", section.FundsRecipient, func(a common.Address) { drop.FundsRecipient = &a }},
	}
	for _, a := range addresses {
		if a.raw == "" {
			continue
		}
		addr, err := parseAddress(os.ExpandEnv(a.raw))
		if err != nil {
			return drop, &domain.ConfigurationError{Field: a.field, Err: err}
		}
		a.set(addr)
	}

	if drop.RoyaltyBPS > 10_000 {
		return drop, domain.NewConfigurationError("drop.royalty_bps", "royalty of %d bps exceeds 100%%", drop.RoyaltyBPS)
	}

	return drop, nil
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, raw)
	}
	return common.HexToAddress(raw), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// FindProjectRoot walks up from the current directory to the first directory
// holding genesis.toml or foundry.toml. Without either, the current directory
// is the project root.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, marker := range []string{FileName, "foundry.toml"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("timeout", "10m")
	v.SetDefault("poll_interval", "2s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("project_root", projectRoot)

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	})

	return v
}
