package network

import (
	"context"
	"sort"

	"github.com/samber/lo"

	internalconfig "github.com/trebuchet-org/treb-genesis/internal/config"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

// Resolver resolves networks declared in genesis.toml
type Resolver struct {
	file      *internalconfig.GenesisFile
	primary   string
	companion string
}

// NewResolver creates a network resolver over the project's genesis.toml
func NewResolver(cfg *config.RuntimeConfig) (*Resolver, error) {
	file, err := internalconfig.LoadGenesisFile(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	return newResolver(file, cfg), nil
}

func newResolver(file *internalconfig.GenesisFile, cfg *config.RuntimeConfig) *Resolver {
	r := &Resolver{file: file}
	if cfg.Network != nil {
		r.primary = cfg.Network.Name
	}
	if cfg.Companion != nil {
		r.companion = cfg.Companion.Name
	}
	return r
}

// GetNetworks returns the declared network names, campaign networks first
func (r *Resolver) GetNetworks(ctx context.Context) []string {
	names := lo.Keys(r.file.Networks)
	sort.Strings(names)

	var head []string
	for _, n := range []string{r.primary, r.companion} {
		if n != "" {
			head = append(head, n)
		}
	}
	return lo.Uniq(append(head, names...))
}

// ResolveNetwork resolves a network name to its configuration
func (r *Resolver) ResolveNetwork(ctx context.Context, name string) (*config.Network, error) {
	return internalconfig.ResolveNetwork(r.file, name)
}

// Role reports how the campaign uses the network, or "" when it does not
func (r *Resolver) Role(name string) usecase.NetworkRole {
	switch {
	case name == "":
		return ""
	case name == r.primary:
		return usecase.RolePrimary
	case name == r.companion:
		return usecase.RoleCompanion
	}
	return ""
}

// Ensure the resolver implements the interface
var _ usecase.NetworkResolver = (*Resolver)(nil)
