package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/trebuchet-org/treb-genesis/internal/domain"
	"github.com/trebuchet-org/treb-genesis/internal/domain/config"
)

// Session binds one network's ledger connection and signer for a campaign.
// A session is used by a single goroutine.
type Session struct {
	Network *config.Network
	ChainID *big.Int
	Ledger  Ledger
	Signer  Signer // nil for read-only sessions
}

// Close releases the ledger connection and the signer
func (s *Session) Close() error {
	var err error
	if s.Signer != nil {
		err = s.Signer.Close()
	}
	if s.Ledger != nil {
		s.Ledger.Close()
	}
	return err
}

// openSessions dials every network and, when withSigner is set, resolves a
// signer for each. Any failure closes what was opened and is returned before
// a single step runs.
func openSessions(
	ctx context.Context,
	networks []*config.Network,
	dialer LedgerDialer,
	signers SignerResolver,
	withSigner bool,
) ([]*Session, error) {
	if len(networks) == 0 {
		return nil, domain.NewConfigurationError("network", "no network configured")
	}

	sessions := make([]*Session, 0, len(networks))
	closeAll := func() {
		for _, s := range sessions {
			_ = s.Close()
		}
	}

	for _, network := range networks {
		ledger, err := dialer.Dial(ctx, network)
		if err != nil {
			closeAll()
			var cfgErr *domain.ConfigurationError
			if errors.As(err, &cfgErr) {
				return nil, err
			}
			return nil, &domain.ConfigurationError{
				Field: fmt.Sprintf("networks.%s.rpc_url", network.Name),
				Err:   err,
			}
		}

		s := &Session{Network: network, Ledger: ledger}
		sessions = append(sessions, s)

		s.ChainID, err = ledger.ChainID(ctx)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to get chain ID for %s: %w", network.Name, err)
		}

		if !withSigner {
			continue
		}
		signer, err := signers.Resolve(ctx, network)
		if err != nil {
			closeAll()
			return nil, err
		}
		s.Signer = signer
	}

	return sessions, nil
}
