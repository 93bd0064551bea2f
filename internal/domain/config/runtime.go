package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-genesis/internal/domain"
)

// FactoryKind selects how deployment calldata is built for the factory
type FactoryKind string

const (
	// FactoryGenesis calls deploy(bytes32,bytes,bytes) on a genesis factory
	FactoryGenesis FactoryKind = "genesis"
	// FactoryCreate2Proxy sends salt ++ creation code to the canonical deterministic deployment proxy
	FactoryCreate2Proxy FactoryKind = "create2-proxy"
)

// DefaultCreate2ProxyAddress is the deterministic deployment proxy present on most EVM chains
var DefaultCreate2ProxyAddress = common.HexToAddress("0x4e59b44847b379578588920cA78FbF26c0B4956C")

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Campaign settings
	Salt         domain.Salt
	Plan         string // built-in plan name or path to a YAML plan
	ArtifactsDir string
	Factory      FactoryConfig

	// Networks
	Network   *Network // primary, nil if not specified
	Companion *Network // nil unless the companion network is enabled

	// Signing
	PrivateKey  string             //nolint:gosec // holds an env-expanded value, never logged
	ColdStorage *ColdStorageConfig // nil unless cold storage signing is enabled

	// Parameters of the built-in drop plan
	Drop DropConfig

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	DryRun         bool
	Sequential     bool
	Timeout        time.Duration
	PollInterval   time.Duration
}

// Networks returns the primary network followed by the companion network, if any
func (c *RuntimeConfig) Networks() []*Network {
	var out []*Network
	if c.Network != nil {
		out = append(out, c.Network)
	}
	if c.Companion != nil {
		out = append(out, c.Companion)
	}
	return out
}

// Network represents network configuration
type Network struct {
	ChainID uint64 `json:"chainId"`
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
}

// FactoryConfig locates the deterministic deployment factory
type FactoryConfig struct {
	Kind     FactoryKind
	Address  common.Address
	CodeHash *common.Hash // optional expected keccak256 of the factory runtime code
}

// ColdStorageConfig holds connection parameters of the remote signing service
type ColdStorageConfig struct {
	Address       common.Address // account the service signs for
	Domain        string         // host[:port]; the endpoint is https://<domain>
	Authorization string         //nolint:gosec // env-expanded token
	CA            string         // PEM content or path to a PEM file
}

// Endpoint returns the HTTPS URL of the signing service
func (c *ColdStorageConfig) Endpoint() string {
	return "https://" + c.Domain
}

// DropConfig parameterizes the erc721-drop plan
type DropConfig struct {
	FeeBPS         uint64
	TransferHelper common.Address
	MarketFilter   common.Address
	ContractName   string
	ContractSymbol string
	InitialOwner   *common.Address // defaults to the deployer
	FundsRecipient *common.Address // defaults to the deployer
	EditionSize    uint64
	RoyaltyBPS     uint64
	Description    string
	ImageURI       string
	AnimationURI   string
	SkipInit       bool
}

// DefaultDropConfig returns the parameters of the reference drop campaign
func DefaultDropConfig() DropConfig {
	return DropConfig{
		FeeBPS:         500,
		MarketFilter:   common.HexToAddress("0x000000000000AAeB6D7670E522A718067333cd4E"),
		ContractName:   "Holograph ERC721 Drop Collection",
		ContractSymbol: "hDROP",
		EditionSize:    1000,
		RoyaltyBPS:     1000,
		// spelled as in the live campaign; any change moves the drop address
		Description:    "decscription",
		ImageURI:       "imageURI",
		AnimationURI:   "animationURI",
		SkipInit:       true,
	}
}
