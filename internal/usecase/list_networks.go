package usecase

import (
	"context"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	Check bool // dial each network and verify its chain ID
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkRole tells how the campaign uses a network
type NetworkRole string

const (
	RolePrimary   NetworkRole = "primary"
	RoleCompanion NetworkRole = "companion"
)

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name    string
	ChainID uint64
	RPCURL  string
	Role    NetworkRole
	Error   error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	resolver NetworkResolver
	dialer   LedgerDialer
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, dialer LedgerDialer) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		dialer:   dialer,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	networkNames := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(networkNames))
	for _, name := range networkNames {
		status := NetworkStatus{
			Name: name,
			Role: uc.resolver.Role(name),
		}

		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
			networks = append(networks, status)
			continue
		}
		status.ChainID = info.ChainID
		status.RPCURL = info.RPCURL

		if params.Check {
			// Dial verifies the endpoint serves the configured chain
			ledger, err := uc.dialer.Dial(ctx, info)
			if err != nil {
				status.Error = err
			} else {
				ledger.Close()
			}
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
