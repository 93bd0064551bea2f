package blockchain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
	"github.com/trebuchet-org/treb-genesis/internal/usecase"
)

const dialTimeout = 15 * time.Second

// Dialer opens ethclient connections and verifies that each endpoint serves
// the configured chain
type Dialer struct{}

// NewDialer creates a new ledger dialer
func NewDialer() *Dialer {
	return &Dialer{}
}

// Dial establishes connection to the blockchain
func (d *Dialer) Dial(ctx context.Context, network *config.Network) (usecase.Ledger, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	rpcClient, err := rpc.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC for %s: %w", network.Name, err)
	}
	client := ethclient.NewClient(rpcClient)

	if err := VerifyChainID(ctx, client, network); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// VerifyChainID compares the ledger's chain ID with the configured one. A
// network configured without a chain ID accepts whatever the endpoint reports.
func VerifyChainID(ctx context.Context, ledger usecase.Ledger, network *config.Network) error {
	networkChainID, err := ledger.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID for %s: %w", network.Name, err)
	}

	if network.ChainID != 0 && networkChainID.Uint64() != network.ChainID {
		return &domain.ConfigurationError{
			Field: fmt.Sprintf("networks.%s.chain_id", network.Name),
			Err: fmt.Errorf("%w: expected %d, got %d",
				domain.ErrChainIDMismatch, network.ChainID, networkChainID.Uint64()),
		}
	}
	return nil
}

// Ensure the adapter implements the interface
var _ usecase.LedgerDialer = (*Dialer)(nil)
