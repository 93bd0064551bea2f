package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileName is the project configuration file
const FileName = "genesis.toml"

// GenesisFile represents the raw genesis.toml structure
type GenesisFile struct {
	Salt      string                    `toml:"salt"`
	Plan      string                    `toml:"plan"`
	Artifacts string                    `toml:"artifacts"`
	Network   string                    `toml:"network"`
	Factory   FactorySection            `toml:"factory"`
	Networks  map[string]NetworkSection `toml:"networks"`
	Companion CompanionSection          `toml:"companion"`
	Signer    SignerSection             `toml:"signer"`
	// Cold storage signing through a remote service
	ColdStorage ColdStorageSection `toml:"cold_storage"`
	Drop        DropSection        `toml:"drop"`
}

// FactorySection locates the deployment factory
type FactorySection struct {
	Kind     string `toml:"kind"`
	Address  string `toml:"address"`
	CodeHash string `toml:"code_hash"`
}

// NetworkSection is one entry of [networks]
type NetworkSection struct {
	RPCURL  string `toml:"rpc_url"`
	ChainID uint64 `toml:"chain_id"`
}

// CompanionSection mirrors the campaign on a second network
type CompanionSection struct {
	Enabled bool   `toml:"enabled"`
	Network string `toml:"network"`
}

// SignerSection configures the local signer
type SignerSection struct {
	PrivateKey string `toml:"private_key"`
}

// ColdStorageSection holds remote signer parameters
type ColdStorageSection struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	Domain        string `toml:"domain"`
	Authorization string `toml:"authorization"`
	CA            string `toml:"ca"`
}

// DropSection overrides parameters of the built-in erc721-drop plan
type DropSection struct {
	FeeBPS         *uint64 `toml:"fee_bps"`
	TransferHelper string  `toml:"transfer_helper"`
	MarketFilter   string  `toml:"market_filter"`
	ContractName   string  `toml:"contract_name"`
	ContractSymbol string  `toml:"contract_symbol"`
	InitialOwner   string  `toml:"initial_owner"`
	FundsRecipient string  `toml:"funds_recipient"`
	EditionSize    *uint64 `toml:"edition_size"`
	RoyaltyBPS     *uint64 `toml:"royalty_bps"`
	Description    *string `toml:"description"`
	ImageURI       *string `toml:"image_uri"`
	AnimationURI   *string `toml:"animation_uri"`
	SkipInit       *bool   `toml:"skip_init"`
}

// loadEnvFiles loads .env and .env.local from the project root. Variables
// already set in the process take precedence.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// LoadGenesisFile parses genesis.toml from the project root. A missing file
// yields an empty configuration.
func LoadGenesisFile(projectRoot string) (*GenesisFile, error) {
	path := filepath.Join(projectRoot, FileName)

	var file GenesisFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &GenesisFile{}, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &file, nil
}
