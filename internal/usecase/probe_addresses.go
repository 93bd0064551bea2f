package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
)

// ProbeAddressesParams contains parameters for probing addresses
type ProbeAddressesParams struct {
	Addresses []common.Address
}

// AddressStatus is the code state of one address on one network
type AddressStatus struct {
	Network  string
	ChainID  uint64
	Address  common.Address
	Deployed bool
	Error    error
}

// ProbeAddressesResult contains the result of probing addresses
type ProbeAddressesResult struct {
	Statuses []AddressStatus
}

// ProbeAddresses reports whether code exists at arbitrary addresses on the
// configured networks
type ProbeAddresses struct {
	cfg    *config.RuntimeConfig
	dialer LedgerDialer
	prober *ExistenceProber
}

// NewProbeAddresses creates a new ProbeAddresses use case
func NewProbeAddresses(cfg *config.RuntimeConfig, dialer LedgerDialer, prober *ExistenceProber) *ProbeAddresses {
	return &ProbeAddresses{
		cfg:    cfg,
		dialer: dialer,
		prober: prober,
	}
}

// Run executes the use case
func (uc *ProbeAddresses) Run(ctx context.Context, params ProbeAddressesParams) (*ProbeAddressesResult, error) {
	sessions, err := openSessions(ctx, uc.cfg.Networks(), uc.dialer, nil, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, s := range sessions {
			_ = s.Close()
		}
	}()

	result := &ProbeAddressesResult{}
	for _, s := range sessions {
		for _, addr := range params.Addresses {
			status := AddressStatus{
				Network: s.Network.Name,
				ChainID: s.ChainID.Uint64(),
				Address: addr,
			}
			status.Deployed, status.Error = uc.prober.CodeExists(ctx, s, addr)
			result.Statuses = append(result.Statuses, status)
		}
	}
	return result, nil
}
